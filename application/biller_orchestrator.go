package application

import (
	"payments-system/domain/constants"
	"payments-system/domain/entities"
	"payments-system/domain/request_params"
	perrors "payments-system/errors"
)

func (us *PaymentApplication) GetBillers() ([]entities.Biller, error) {
	if err := us.requireFeature(constants.FeatureBillPayments); err != nil {
		return nil, err
	}
	return us.BillAggregator.GetBillers()
}

func (us *PaymentApplication) ValidateBillerReference(billerCode, customerRef string) (entities.BillerReference, error) {
	if err := us.requireFeature(constants.FeatureBillPayments); err != nil {
		return entities.BillerReference{}, err
	}
	if billerCode == "" || customerRef == "" {
		return entities.BillerReference{}, perrors.NewValidationError("biller code and customer reference are required")
	}
	return us.BillAggregator.ValidateReference(billerCode, customerRef)
}

// PayBillerBill validates the customer reference before paying so a mistyped
// meter number fails locally instead of as an aggregator decline. The
// provider token in the result (prepaid redemption codes) passes through
// verbatim.
func (us *PaymentApplication) PayBillerBill(req request_params.BillerPayRequest) (entities.RailResult, error) {
	if err := us.requireFeature(constants.FeatureBillPayments); err != nil {
		return entities.RailResult{}, err
	}
	if req.Amount <= 0 {
		return entities.RailResult{}, perrors.NewValidationError("amount must be positive, got %v", req.Amount)
	}

	if _, err := us.BillAggregator.ValidateReference(req.BillerCode, req.CustomerRef); err != nil {
		return entities.RailResult{}, err
	}

	result, err := us.BillAggregator.PayBill(req)
	if err != nil {
		us.AlertRailFailure(string(constants.RailBillAggregator), "", req.Amount, err)
		return entities.RailResult{}, err
	}

	us.RecordAudit(req.UserId, "pay_biller_bill", "bill", result.Reference, map[string]interface{}{
		"biller_code":  req.BillerCode,
		"customer_ref": req.CustomerRef,
		"amount":       req.Amount,
		"status":       result.NormalizedStatus,
	})
	us.NotifyResult(req.UserId, "Bill payment "+req.BillerCode, result)

	return result, nil
}

func (us *PaymentApplication) BuyAirtime(req request_params.AirtimeRequest) (entities.RailResult, error) {
	if err := us.requireFeature(constants.FeatureAirtime); err != nil {
		return entities.RailResult{}, err
	}
	if req.Amount <= 0 {
		return entities.RailResult{}, perrors.NewValidationError("amount must be positive, got %v", req.Amount)
	}
	if req.Phone == "" {
		return entities.RailResult{}, perrors.NewValidationError("phone number is required")
	}

	result, err := us.BillAggregator.BuyAirtime(req)
	if err != nil {
		us.AlertRailFailure(string(constants.RailBillAggregator), "", req.Amount, err)
		return entities.RailResult{}, err
	}

	us.RecordAudit(req.UserId, "buy_airtime", "airtime", result.Reference, map[string]interface{}{
		"network": req.Network,
		"phone":   req.Phone,
		"amount":  req.Amount,
		"status":  result.NormalizedStatus,
	})
	us.NotifyResult(req.UserId, "Airtime for "+req.Phone, result)

	return result, nil
}

// GetTransactionStatus polls the owning rail for a fresh status, falling back
// to the stored row when the reference prefix is not recognized.
func (us *PaymentApplication) GetTransactionStatus(reference string) (entities.RailResult, error) {
	if !us.Tenant.Enabled {
		return entities.RailResult{}, perrors.NewAdapterUnavailableError(us.TenantId)
	}

	switch constants.RailOfReference(reference) {
	case constants.RailInstantSwitch:
		return us.InstantSwitch.GetTransferStatus(reference)
	case constants.RailGovGateway:
		return us.GovGateway.GetPaymentStatus(reference)
	case constants.RailBillAggregator:
		return us.BillAggregator.GetStatus(reference)
	}

	return us.TxLog.FindByReference(reference)
}
