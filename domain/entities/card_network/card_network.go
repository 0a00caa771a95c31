package card_network

import "payments-system/domain/constants"

// ResponseCode is the network's two-character action code vocabulary.
type ResponseCode string

func (c ResponseCode) IsApproved() bool { return c == "00" || c == "10" }

type TokenizeRequest struct {
	ClientId string `json:"client_id"`
	// EncryptedPan, EncryptedExpiry and EncryptedCvv are RSA-OAEP ciphertexts;
	// cleartext card data never travels.
	EncryptedPan    string `json:"encrypted_pan"`
	EncryptedExpiry string `json:"encrypted_expiry"`
	EncryptedCvv    string `json:"encrypted_cvv"`
	CardholderName  string `json:"cardholder_name"`
	Reference       string `json:"reference"`
}

type TokenizeResponse struct {
	ResponseCode   ResponseCode `json:"response_code"`
	Message        string       `json:"message"`
	NetworkToken   string       `json:"network_token"`
	TokenReference string       `json:"token_reference"`
	Brand          string       `json:"brand"`
}

type TokenActionRequest struct {
	ClientId       string `json:"client_id"`
	TokenReference string `json:"token_reference"`
	Reference      string `json:"reference"`
}

type TokenActionResponse struct {
	ResponseCode ResponseCode `json:"response_code"`
	Message      string       `json:"message"`
	TokenStatus  string       `json:"token_status"`
}

type CryptogramRequest struct {
	ClientId       string  `json:"client_id"`
	TokenReference string  `json:"token_reference"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	MerchantId     string  `json:"merchant_id"`
	Reference      string  `json:"reference"`
}

type CryptogramResponse struct {
	ResponseCode ResponseCode `json:"response_code"`
	Message      string       `json:"message"`
	Cryptogram   string       `json:"cryptogram"`
	Atc          string       `json:"atc"`
}

type PushFundsRequest struct {
	ClientId           string  `json:"client_id"`
	EncryptedPan       string  `json:"encrypted_pan"`
	Amount             float64 `json:"amount"`
	Currency           string  `json:"currency"`
	SenderName         string  `json:"sender_name"`
	Narration          string  `json:"narration"`
	TraceNumber        string  `json:"trace_number"`
	RetrievalReference string  `json:"retrieval_reference"`
	Reference          string  `json:"reference"`
}

type PushFundsResponse struct {
	ResponseCode       ResponseCode `json:"response_code"`
	Message            string       `json:"message"`
	RetrievalReference string       `json:"retrieval_reference"`
	ApprovalCode       string       `json:"approval_code"`
	Status             string       `json:"status"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

var pushStatuses = map[string]constants.NormalizedStatus{
	"APPROVED":   constants.StatusCompleted,
	"COMPLETED":  constants.StatusCompleted,
	"PROCESSING": constants.StatusProcessing,
	"PENDING":    constants.StatusPending,
	"DECLINED":   constants.StatusFailed,
	"FAILED":     constants.StatusFailed,
	"REVERSED":   constants.StatusReversed,
}

func NormalizeStatus(raw string) constants.NormalizedStatus {
	if status, ok := pushStatuses[raw]; ok {
		return status
	}
	return constants.StatusUnknown
}
