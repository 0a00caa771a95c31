package instant_switch

import "payments-system/domain/constants"

// ErrorCode is the switch's response code vocabulary.
type ErrorCode string

func (c ErrorCode) IsSuccess() bool    { return c == "000" }
func (c ErrorCode) IsProcessing() bool { return c == "001" || c == "100" }
func (c ErrorCode) IsFail() bool       { return len(c) > 0 && c[0:1] == "4" }

type AccountValidationRequest struct {
	ClientCode      string `json:"client_code"`
	AccountNumber   string `json:"account_number"`
	DestinationCode string `json:"destination_code"`
	Reference       string `json:"reference"`
	TransTime       int64  `json:"trans_time"`
}

type AccountValidationResponse struct {
	ErrorCode   ErrorCode `json:"error_code"`
	Message     string    `json:"message"`
	AccountName string    `json:"account_name"`
	Reference   string    `json:"reference"`
}

type TransferRequest struct {
	ClientCode      string       `json:"client_code"`
	Reference       string       `json:"reference"`
	TransTime       int64        `json:"trans_time"`
	DestinationCode string       `json:"destination_code"`
	Data            TransferData `json:"data"`
}

type TransferData struct {
	SourceAccount      string  `json:"source_account"`
	DestinationAccount string  `json:"destination_account"`
	Amount             float64 `json:"amount"`
	Currency           string  `json:"currency"`
	Narration          string  `json:"narration"`
	SenderName         string  `json:"sender_name"`
	SenderPhone        string  `json:"sender_phone"`
	RecipientName      string  `json:"recipient_name"`
	RecipientPhone     string  `json:"recipient_phone"`
}

type TransferResponse struct {
	ErrorCode     ErrorCode `json:"error_code"`
	Message       string    `json:"message"`
	Reference     string    `json:"reference"`
	SwitchTraceId string    `json:"switch_trace_id"`
	Status        string    `json:"status"`
}

type StatusRequest struct {
	ClientCode string `json:"client_code"`
	Reference  string `json:"reference"`
	TransTime  int64  `json:"trans_time"`
}

type StatusResponse struct {
	ErrorCode     ErrorCode `json:"error_code"`
	Message       string    `json:"message"`
	Reference     string    `json:"reference"`
	SwitchTraceId string    `json:"switch_trace_id"`
	Status        string    `json:"status"`
}

type BanksResponse struct {
	ErrorCode ErrorCode  `json:"error_code"`
	Message   string     `json:"message"`
	Banks     []BankItem `json:"banks"`
}

type BankItem struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// transferStatuses maps the switch vocabulary onto the normalized enum.
// Anything absent normalizes to UNKNOWN so callers know to poll again.
var transferStatuses = map[string]constants.NormalizedStatus{
	"SUCCESSFUL": constants.StatusCompleted,
	"SUCCESS":    constants.StatusCompleted,
	"PROCESSING": constants.StatusProcessing,
	"PENDING":    constants.StatusPending,
	"FAILED":     constants.StatusFailed,
	"REJECTED":   constants.StatusFailed,
	"REVERSED":   constants.StatusReversed,
	"CANCELLED":  constants.StatusCancelled,
}

func NormalizeStatus(raw string) constants.NormalizedStatus {
	if status, ok := transferStatuses[raw]; ok {
		return status
	}
	return constants.StatusUnknown
}
