package application

import (
	"payments-system/domain/constants"
	"payments-system/domain/entities"
	"payments-system/domain/request_params"
	perrors "payments-system/errors"
)

func (us *PaymentApplication) GetServiceProviders() ([]entities.ServiceProvider, error) {
	if err := us.requireFeature(constants.FeatureBillPayments); err != nil {
		return nil, err
	}
	return us.GovGateway.GetServiceProviders()
}

func (us *PaymentApplication) LookupBill(controlNumber string) (entities.BillRecord, error) {
	if err := us.requireFeature(constants.FeatureBillPayments); err != nil {
		return entities.BillRecord{}, err
	}
	if controlNumber == "" {
		return entities.BillRecord{}, perrors.NewValidationError("control number is required")
	}
	return us.GovGateway.LookupBill(controlNumber)
}

// PayGovernmentBill delegates to the gateway adapter, which owns the
// re-lookup / already-paid / amount-tolerance guard. The orchestrator only
// adds feature gating, audit and notification.
func (us *PaymentApplication) PayGovernmentBill(req request_params.GovBillPayRequest) (entities.RailResult, error) {
	if err := us.requireFeature(constants.FeatureBillPayments); err != nil {
		return entities.RailResult{}, err
	}
	if req.ControlNumber == "" {
		return entities.RailResult{}, perrors.NewValidationError("control number is required")
	}
	if req.Amount <= 0 {
		return entities.RailResult{}, perrors.NewValidationError("amount must be positive, got %v", req.Amount)
	}

	result, err := us.GovGateway.PayBill(req)
	if err != nil {
		us.AlertRailFailure(string(constants.RailGovGateway), "", req.Amount, err)
		return entities.RailResult{}, err
	}

	us.RecordAudit(req.UserId, "pay_government_bill", "bill", result.Reference, map[string]interface{}{
		"control_number": req.ControlNumber,
		"amount":         req.Amount,
		"status":         result.NormalizedStatus,
	})
	us.NotifyResult(req.UserId, "Government bill "+req.ControlNumber, result)

	return result, nil
}

func (us *PaymentApplication) VerifyReceipt(receiptNumber string) (bool, error) {
	if err := us.requireFeature(constants.FeatureBillPayments); err != nil {
		return false, err
	}
	return us.GovGateway.VerifyReceipt(receiptNumber)
}
