package application

import (
	"regexp"
	"strings"

	"payments-system/domain/constants"
	"payments-system/domain/entities"
	"payments-system/domain/request_params"
	perrors "payments-system/errors"
	"payments-system/utils/emvqr"
)

var bankCodePattern = regexp.MustCompile(`^[A-Z0-9]{3,11}$`)

// ValidateMerchant accepts either a raw EMV QR payload or a bare merchant
// account id. QR input must carry a valid checksum before anything in it is
// trusted; bare ids are validated against the instant switch.
func (us *PaymentApplication) ValidateMerchant(qrOrMerchantId string) (entities.MerchantInfo, error) {
	if err := us.requireFeature(constants.FeatureQRPayments); err != nil {
		return entities.MerchantInfo{}, err
	}

	if looksLikeQR(qrOrMerchantId) {
		payload := emvqr.Parse(qrOrMerchantId)
		if !payload.IsValid {
			return entities.MerchantInfo{Valid: false, Reason: payload.InvalidReason},
				perrors.NewChecksumError(payload.InvalidReason)
		}
		info := entities.MerchantInfo{
			Valid:         true,
			MerchantName:  payload.MerchantName,
			AccountNumber: payload.MerchantAccountInfo.MerchantId,
		}
		if acquirer := payload.MerchantAccountInfo.AcquirerId; acquirer != "" {
			info.BankName = us.bankNameOf(acquirer)
		}
		return info, nil
	}

	accountName, err := us.InstantSwitch.ValidateAccount(qrOrMerchantId, "")
	if err != nil {
		return entities.MerchantInfo{Valid: false, Reason: err.Error()}, err
	}

	return entities.MerchantInfo{
		Valid:         true,
		MerchantName:  accountName,
		AccountNumber: qrOrMerchantId,
	}, nil
}

// PayQRMerchant is the end-to-end QR flow: checksum, balance pre-check, bank
// resolution, transfer, audit. Everything before the transfer resolves
// locally so a bad request never reaches the rail.
func (us *PaymentApplication) PayQRMerchant(req request_params.QRPayRequest) (entities.RailResult, error) {
	if err := us.requireFeature(constants.FeatureQRPayments); err != nil {
		return entities.RailResult{}, err
	}

	payload := emvqr.Parse(req.QRPayload)
	if !payload.IsValid {
		return entities.RailResult{}, perrors.NewChecksumError(payload.InvalidReason)
	}

	amount := req.Amount
	if payload.IsDynamic() && payload.HasAmount {
		amount = payload.TransactionAmount
	}
	if err := us.InstantSwitch.Validate(request_params.PaymentRequest{
		Amount:      amount,
		Destination: payload.MerchantAccountInfo.MerchantId,
	}); err != nil {
		return entities.RailResult{}, err
	}

	balance, err := us.Accounts.GetBalance(req.SourceAccount)
	if err != nil {
		return entities.RailResult{}, err
	}
	if balance.Balance < amount {
		return entities.RailResult{}, perrors.NewInsufficientBalanceError(balance.Balance, amount)
	}

	bankCode, err := us.ResolveBankCode(req.BankName)
	if err != nil {
		return entities.RailResult{}, err
	}

	intent := entities.TransferIntent{
		SourceAccount:         req.SourceAccount,
		DestinationAccount:    payload.MerchantAccountInfo.MerchantId,
		DestinationIdentifier: bankCode,
		Amount:                amount,
		Currency:              us.Tenant.Currency,
		Narration:             req.Narration,
		SenderName:            req.SenderName,
		SenderPhone:           req.SenderPhone,
		RecipientName:         payload.MerchantName,
	}

	result, err := us.InstantSwitch.Transfer(intent)
	if err != nil {
		us.AlertRailFailure(string(constants.RailInstantSwitch), "", amount, err)
		return entities.RailResult{}, err
	}

	us.RecordAudit(req.UserId, "pay_qr_merchant", "transfer", result.Reference, map[string]interface{}{
		"merchant_name": payload.MerchantName,
		"bank_code":     bankCode,
		"amount":        amount,
		"status":        result.NormalizedStatus,
	})
	us.NotifyResult(req.UserId, "QR payment to "+payload.MerchantName, result)

	return result, nil
}

// ResolveBankCode turns free-text bank names into switch codes. An input that
// is already a code (3-11 uppercase alphanumerics) passes through without
// consulting the bank list; anything else is matched case-insensitively
// against the live list.
func (us *PaymentApplication) ResolveBankCode(bankName string) (string, error) {
	trimmed := strings.TrimSpace(bankName)
	if trimmed == "" {
		return "", perrors.NewValidationError("bank name is required")
	}

	if bankCodePattern.MatchString(trimmed) {
		return trimmed, nil
	}

	banks, err := us.InstantSwitch.GetBanks()
	if err != nil {
		return "", err
	}

	needle := strings.ToLower(trimmed)
	for _, bank := range banks {
		if strings.Contains(strings.ToLower(bank.Name), needle) || strings.EqualFold(bank.Code, trimmed) {
			return bank.Code, nil
		}
	}

	return "", perrors.NewValidationError("no bank matches %q", bankName)
}

// bankNameOf resolves a switch bank code to its display name. The raw code is
// returned when the list is unavailable or does not carry it; merchant
// validation must not fail on a bank-list hiccup.
func (us *PaymentApplication) bankNameOf(code string) string {
	banks, err := us.InstantSwitch.GetBanks()
	if err != nil {
		return code
	}
	for _, bank := range banks {
		if strings.EqualFold(bank.Code, code) {
			return bank.Name
		}
	}
	return code
}

// looksLikeQR: every EMV payload opens with tag 00, length 02.
func looksLikeQR(input string) bool {
	return strings.HasPrefix(input, "0002")
}
