package application

import (
	"time"

	"payments-system/domain/constants"
	"payments-system/domain/entities"
	"payments-system/domain/request_params"
	perrors "payments-system/errors"
	"payments-system/utils/gen_ids"
	"payments-system/utils/helpers"

	"go.uber.org/zap"
)

// OS version floors for contactless support.
const (
	minAndroidSDK = 24
	minIOSMajor   = 13
)

// posResponseStatuses maps point-of-sale response codes onto the normalized
// vocabulary. Unknown codes are a generic decline, not an error: a caller
// must not assume every non-approved outcome is retryable.
var posResponseStatuses = map[string]constants.NormalizedStatus{
	"00": constants.StatusCompleted,
	"08": constants.StatusCompleted, // approved with identification
	"05": constants.StatusFailed,    // do not honor
	"14": constants.StatusFailed,    // invalid card number
	"51": constants.StatusFailed,    // insufficient funds
	"54": constants.StatusFailed,    // expired card
	"57": constants.StatusFailed,    // transaction not permitted
	"61": constants.StatusFailed,    // exceeds limit
	"91": constants.StatusUnknown,   // issuer unavailable; poll later
	"96": constants.StatusUnknown,   // system malfunction; poll later
}

// DeviceEligibility reports whether the device can run contactless payments
// and, when it cannot, why.
func (us *PaymentApplication) DeviceEligibility(profile request_params.DeviceProfile) (bool, string) {
	switch profile.Platform {
	case "android":
		if profile.OSVersion < minAndroidSDK {
			return false, "android version too old for contactless payments"
		}
		if !helpers.IsStringSliceContains(profile.Capabilities, "nfc") {
			return false, "device has no NFC hardware"
		}
		if !helpers.IsStringSliceContains(profile.Capabilities, "hce") &&
			!helpers.IsStringSliceContains(profile.Capabilities, "se") {
			return false, "device supports neither host card emulation nor a secure element"
		}
	case "ios":
		if profile.OSVersion < minIOSMajor {
			return false, "ios version too old for contactless payments"
		}
		if !helpers.IsStringSliceContains(profile.Capabilities, "nfc") {
			return false, "device has no NFC hardware"
		}
	default:
		return false, "unsupported platform"
	}
	return true, ""
}

// BindDevice authorizes a device for tap-to-pay on one card. The device id is
// derived deterministically from the hardware id, platform and user, so
// re-binding the same device is an upsert, not a duplicate.
func (us *PaymentApplication) BindDevice(userId, cardId string, profile request_params.DeviceProfile) (entities.DeviceBinding, error) {
	if err := us.requireFeature(constants.FeatureTapToPay); err != nil {
		return entities.DeviceBinding{}, err
	}

	if eligible, reason := us.DeviceEligibility(profile); !eligible {
		return entities.DeviceBinding{}, perrors.NewValidationError("device not eligible: %s", reason)
	}

	deviceId := helpers.DeviceFingerprint(profile.HardwareId, profile.Platform, userId)

	if err := us.Vault.AddDeviceBinding(cardId, userId, us.TenantId, deviceId); err != nil {
		return entities.DeviceBinding{}, err
	}

	now := time.Now().UTC()
	binding := entities.DeviceBinding{
		DeviceId:     deviceId,
		UserId:       userId,
		TenantId:     us.TenantId,
		CardId:       cardId,
		Platform:     profile.Platform,
		Capabilities: profile.Capabilities,
		BindingTime:  now,
		LastActive:   now,
	}

	if err := us.IDevice.Upsert(binding); err != nil {
		return entities.DeviceBinding{}, err
	}

	us.RecordAudit(userId, "bind_device", "device_binding", deviceId, map[string]interface{}{
		"card_id":  cardId,
		"platform": profile.Platform,
	})

	return binding, nil
}

// PrepareTransaction builds a short-lived, single-use contactless session:
// verify the device binding, pull the token payload, ask the network for a
// cryptogram, persist the session. The decrypted payload never leaves this
// call.
func (us *PaymentApplication) PrepareTransaction(req request_params.PrepareTapToPayRequest) (entities.TapToPaySession, error) {
	if err := us.requireFeature(constants.FeatureTapToPay); err != nil {
		return entities.TapToPaySession{}, err
	}
	if req.Amount <= 0 {
		return entities.TapToPaySession{}, perrors.NewValidationError("amount must be positive, got %v", req.Amount)
	}

	bound, err := us.Vault.IsDeviceBound(req.CardId, req.DeviceId, req.UserId, us.TenantId)
	if err != nil {
		return entities.TapToPaySession{}, err
	}
	if !bound {
		return entities.TapToPaySession{}, perrors.NewDeviceNotAuthorizedError(req.DeviceId, req.CardId)
	}

	payload, _, err := us.Vault.GetForTransaction(req.CardId, req.UserId, us.TenantId)
	if err != nil {
		return entities.TapToPaySession{}, err
	}

	currency := req.Currency
	if currency == "" {
		currency = us.Tenant.Currency
	}

	cryptogram, err := us.CardNetwork.GenerateCryptogram(payload.TokenReference, req.Amount, currency, req.MerchantId)
	if err != nil {
		us.AlertRailFailure(string(constants.RailCardNetwork), "", req.Amount, err)
		return entities.TapToPaySession{}, err
	}

	now := time.Now().UTC()
	session := entities.TapToPaySession{
		SessionId:  helpers.GetUUId(),
		CardId:     req.CardId,
		UserId:     req.UserId,
		TenantId:   us.TenantId,
		DeviceId:   req.DeviceId,
		Amount:     req.Amount,
		Currency:   currency,
		MerchantId: req.MerchantId,
		Cryptogram: cryptogram,
		CreatedAt:  now,
		ExpiresAt:  now.Add(us.SessionTTL),
		Status:     constants.SessionPending,
	}

	if err := us.ISession.Create(session); err != nil {
		return entities.TapToPaySession{}, err
	}

	us.RecordAudit(req.UserId, "prepare_tap_to_pay", "tap_session", session.SessionId, map[string]interface{}{
		"card_id":     req.CardId,
		"merchant_id": req.MerchantId,
		"amount":      req.Amount,
	})

	return session, nil
}

// ConsumeTransaction settles a session with the terminal's verdict. The store
// enforces single use: the first caller consumes, every later caller gets a
// session-expired error.
func (us *PaymentApplication) ConsumeTransaction(pos request_params.POSResult) (entities.RailResult, error) {
	if err := us.requireFeature(constants.FeatureTapToPay); err != nil {
		return entities.RailResult{}, err
	}

	session, err := us.ISession.Consume(pos.SessionId, time.Now().UTC())
	if err != nil {
		return entities.RailResult{}, err
	}

	status, ok := posResponseStatuses[pos.ResponseCode]
	if !ok {
		status = constants.StatusFailed
	}

	result := entities.RailResult{
		Reference:        gen_ids.GenerateReference(constants.PrefixCardNetwork),
		RailReference:    pos.ApprovalCode,
		Rail:             constants.RailCardNetwork,
		TenantId:         us.TenantId,
		NormalizedStatus: status,
		RawStatus:        pos.ResponseCode,
		RawMessage:       pos.RawMessage,
		Amount:           session.Amount,
		Currency:         session.Currency,
		Timestamp:        time.Now().UTC(),
	}

	if err := us.TxLog.Save(result); err != nil {
		us.Logger.With(zap.Error(err)).With(zap.String("reference", result.Reference)).Warn("transaction log write failed")
	}
	us.IPool.Submit(func() {
		if err := us.Events.PublishResult(result); err != nil {
			us.Logger.With(zap.Error(err)).With(zap.String("reference", result.Reference)).Warn("transaction event publish failed")
		}
	})

	us.RecordAudit(session.UserId, "consume_tap_to_pay", "tap_session", session.SessionId, map[string]interface{}{
		"response_code": pos.ResponseCode,
		"terminal_id":   pos.TerminalId,
		"status":        status,
	})
	us.NotifyResult(session.UserId, "Contactless payment", result)

	return result, nil
}

// WalletProvisioning hands a vaulted card to a third-party wallet. The opaque
// data is the network token itself; the wallet provider completes
// provisioning directly with the network.
func (us *PaymentApplication) WalletProvisioning(cardId, userId, walletProvider string) (entities.WalletProvisioningPayload, error) {
	if err := us.requireFeature(constants.FeatureTapToPay); err != nil {
		return entities.WalletProvisioningPayload{}, err
	}

	payload, token, err := us.Vault.GetForTransaction(cardId, userId, us.TenantId)
	if err != nil {
		return entities.WalletProvisioningPayload{}, err
	}

	us.RecordAudit(userId, "wallet_provisioning", "card_token", cardId, map[string]interface{}{
		"wallet_provider": walletProvider,
	})

	return entities.WalletProvisioningPayload{
		CardId:         token.Id,
		PanLastFour:    token.PanLastFour,
		Brand:          token.Brand,
		CardholderName: token.CardholderName,
		OpaqueData:     payload.NetworkToken,
		WalletProvider: walletProvider,
	}, nil
}
