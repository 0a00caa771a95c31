package bill_aggregator

import "payments-system/domain/constants"

// ResultCode is the aggregator's REST response code vocabulary.
type ResultCode string

func (c ResultCode) IsSuccess() bool { return c == "0" || c == "00" }
func (c ResultCode) IsPending() bool { return c == "01" }

type BillersResponse struct {
	ResultCode ResultCode   `json:"result_code"`
	Message    string       `json:"message"`
	Billers    []BillerItem `json:"billers"`
}

type BillerItem struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

type ValidateRequest struct {
	BillerCode  string `json:"biller_code"`
	CustomerRef string `json:"customer_ref"`
	Reference   string `json:"reference"`
}

type ValidateResponse struct {
	ResultCode   ResultCode `json:"result_code"`
	Message      string     `json:"message"`
	CustomerName string     `json:"customer_name"`
	AmountDue    float64    `json:"amount_due"`
}

type PaymentRequest struct {
	BillerCode  string  `json:"biller_code"`
	CustomerRef string  `json:"customer_ref"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	PayerPhone  string  `json:"payer_phone"`
	Reference   string  `json:"reference"`
}

type PaymentResponse struct {
	ResultCode   ResultCode `json:"result_code"`
	Message      string     `json:"message"`
	Reference    string     `json:"reference"`
	AggregatorId string     `json:"aggregator_id"`
	Status       string     `json:"status"`
	// ProviderToken is e.g. a prepaid meter redemption code; passed through
	// to the caller verbatim.
	ProviderToken string `json:"provider_token,omitempty"`
}

type AirtimeRequest struct {
	BillerCode string  `json:"biller_code"`
	Phone      string  `json:"phone"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	Reference  string  `json:"reference"`
}

type StatusRequest struct {
	Reference string `json:"reference"`
}

type StatusResponse struct {
	ResultCode   ResultCode `json:"result_code"`
	Message      string     `json:"message"`
	Reference    string     `json:"reference"`
	AggregatorId string     `json:"aggregator_id"`
	Status       string     `json:"status"`
}

var paymentStatuses = map[string]constants.NormalizedStatus{
	"NEW":        constants.StatusPending,
	"PENDING":    constants.StatusPending,
	"PROCESSING": constants.StatusProcessing,
	"COMPLETED":  constants.StatusCompleted,
	"SUCCESS":    constants.StatusCompleted,
	"FAILED":     constants.StatusFailed,
	"DECLINED":   constants.StatusFailed,
	"REVERSED":   constants.StatusReversed,
	"CANCELLED":  constants.StatusCancelled,
}

func NormalizeStatus(raw string) constants.NormalizedStatus {
	if status, ok := paymentStatuses[raw]; ok {
		return status
	}
	return constants.StatusUnknown
}
