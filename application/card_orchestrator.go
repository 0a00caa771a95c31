package application

import (
	"time"

	"payments-system/domain/constants"
	"payments-system/domain/entities"
	"payments-system/domain/request_params"
	perrors "payments-system/errors"
	"payments-system/utils/crypt"
	"payments-system/utils/helpers"
)

// AddCard tokenizes the card with the network and vaults the result. The
// cleartext PAN and CVV live only for the duration of this call; the returned
// record is sanitized (no payload, last four only).
func (us *PaymentApplication) AddCard(req request_params.AddCardRequest) (entities.CardToken, error) {
	if err := us.requireFeature(constants.FeatureCards); err != nil {
		return entities.CardToken{}, err
	}

	details := entities.CardDetails{
		Pan:            req.Pan,
		ExpiryMonth:    req.ExpiryMonth,
		ExpiryYear:     req.ExpiryYear,
		Cvv:            req.Cvv,
		CardholderName: req.CardholderName,
	}
	if len(details.Pan) < 12 {
		return entities.CardToken{}, perrors.NewValidationError("card number is too short")
	}

	payload, brand, err := us.CardNetwork.Tokenize(details)
	if err != nil {
		us.AlertRailFailure(string(constants.RailCardNetwork), "", 0, err)
		return entities.CardToken{}, err
	}

	token := entities.CardToken{
		Id:             helpers.GetUUId(),
		UserId:         req.UserId,
		TenantId:       us.TenantId,
		PanLastFour:    details.LastFour(),
		Brand:          brand,
		ExpiryMonth:    req.ExpiryMonth,
		ExpiryYear:     req.ExpiryYear,
		CardholderName: req.CardholderName,
		IsDefault:      req.SetDefault,
		CreatedAt:      time.Now().UTC(),
	}

	created, err := us.Vault.Create(token, payload)
	if err != nil {
		return entities.CardToken{}, err
	}

	us.RecordAudit(req.UserId, "add_card", "card_token", created.Id, map[string]interface{}{
		"brand":         created.Brand,
		"pan_last_four": created.PanLastFour,
	})

	return sanitizeToken(created), nil
}

func (us *PaymentApplication) ListCards(userId string) ([]entities.CardToken, error) {
	if err := us.requireFeature(constants.FeatureCards); err != nil {
		return nil, err
	}

	cards, err := us.Vault.List(userId, us.TenantId)
	if err != nil {
		return nil, err
	}

	sanitized := make([]entities.CardToken, 0, len(cards))
	for _, card := range cards {
		sanitized = append(sanitized, sanitizeToken(card))
	}
	return sanitized, nil
}

func (us *PaymentApplication) SetDefaultCard(cardId, userId string) error {
	if err := us.requireFeature(constants.FeatureCards); err != nil {
		return err
	}
	if err := us.Vault.SetDefault(cardId, userId, us.TenantId); err != nil {
		return err
	}
	us.RecordAudit(userId, "set_default_card", "card_token", cardId, nil)
	return nil
}

// SuspendCard pauses the token at the network first, then in the vault; a
// vault-suspended but network-active token is worse than the reverse.
func (us *PaymentApplication) SuspendCard(cardId, userId string) error {
	return us.transitionCard(cardId, userId, "suspend_card",
		[]constants.TokenStatus{constants.TokenActive}, constants.TokenSuspended,
		us.CardNetwork.SuspendToken)
}

func (us *PaymentApplication) ResumeCard(cardId, userId string) error {
	return us.transitionCard(cardId, userId, "resume_card",
		[]constants.TokenStatus{constants.TokenSuspended}, constants.TokenActive,
		us.CardNetwork.ResumeToken)
}

// DeleteCard is terminal: the network token is deleted, the vault record
// moves to DELETED and every device binding is removed. Works from ACTIVE or
// SUSPENDED.
func (us *PaymentApplication) DeleteCard(cardId, userId string) error {
	if err := us.requireFeature(constants.FeatureCards); err != nil {
		return err
	}

	token, err := us.Vault.FindById(cardId, userId, us.TenantId)
	if err != nil {
		return err
	}
	if token.Status.IsDeleted() {
		return perrors.NewTokenNotFoundError(cardId)
	}

	payload, err := us.Vault.OpenPayload(cardId, userId, us.TenantId)
	if err != nil {
		return err
	}

	if err := us.CardNetwork.DeleteToken(payload.TokenReference); err != nil {
		us.AlertRailFailure(string(constants.RailCardNetwork), "", 0, err)
		return err
	}

	if err := us.Vault.Delete(cardId, userId, us.TenantId); err != nil {
		return err
	}

	us.RecordAudit(userId, "delete_card", "card_token", cardId, nil)
	return nil
}

func (us *PaymentApplication) transitionCard(cardId, userId, action string,
	from []constants.TokenStatus, to constants.TokenStatus,
	networkOp func(tokenReference string) error) error {

	if err := us.requireFeature(constants.FeatureCards); err != nil {
		return err
	}

	token, err := us.Vault.FindById(cardId, userId, us.TenantId)
	if err != nil {
		return err
	}

	allowed := false
	for _, status := range from {
		if token.Status == status {
			allowed = true
		}
	}
	if !allowed {
		return perrors.NewTokenNotFoundError(cardId)
	}

	payload, err := us.Vault.OpenPayload(cardId, userId, us.TenantId)
	if err != nil {
		return err
	}

	if err := networkOp(payload.TokenReference); err != nil {
		us.AlertRailFailure(string(constants.RailCardNetwork), "", 0, err)
		return err
	}

	if err := us.Vault.UpdateStatus(cardId, userId, us.TenantId, from, to); err != nil {
		return err
	}

	us.RecordAudit(userId, action, "card_token", cardId, map[string]interface{}{
		"to_status": to,
	})
	return nil
}

func sanitizeToken(token entities.CardToken) entities.CardToken {
	token.EncryptedPayload = crypt.SealedPayload{}
	return token
}
