package request_params

// PaymentRequest is the minimum every adapter validates before any network
// call: a positive amount and the identifiers the rail needs.
type PaymentRequest struct {
	TenantId    string  `json:"tenant_id"`
	UserId      string  `json:"user_id"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Destination string  `json:"destination"`
	Narration   string  `json:"narration"`
}

type QRPayRequest struct {
	TenantId      string  `json:"tenant_id"`
	UserId        string  `json:"user_id"`
	SourceAccount string  `json:"source_account"`
	QRPayload     string  `json:"qr_payload"`
	BankName      string  `json:"bank_name"`
	Amount        float64 `json:"amount"`
	Narration     string  `json:"narration"`
	SenderName    string  `json:"sender_name"`
	SenderPhone   string  `json:"sender_phone"`
}

type GovBillPayRequest struct {
	TenantId      string  `json:"tenant_id"`
	UserId        string  `json:"user_id"`
	ControlNumber string  `json:"control_number"`
	Amount        float64 `json:"amount"`
	PayerName     string  `json:"payer_name"`
	PayerPhone    string  `json:"payer_phone"`
}

type BillerPayRequest struct {
	TenantId    string  `json:"tenant_id"`
	UserId      string  `json:"user_id"`
	BillerCode  string  `json:"biller_code"`
	CustomerRef string  `json:"customer_ref"`
	Amount      float64 `json:"amount"`
	PayerPhone  string  `json:"payer_phone"`
}

type AirtimeRequest struct {
	TenantId string  `json:"tenant_id"`
	UserId   string  `json:"user_id"`
	Network  string  `json:"network"`
	Phone    string  `json:"phone"`
	Amount   float64 `json:"amount"`
}

type AddCardRequest struct {
	TenantId       string `json:"tenant_id"`
	UserId         string `json:"user_id"`
	Pan            string `json:"pan"`
	ExpiryMonth    string `json:"expiry_month"`
	ExpiryYear     string `json:"expiry_year"`
	Cvv            string `json:"cvv"`
	CardholderName string `json:"cardholder_name"`
	SetDefault     bool   `json:"set_default"`
}

// DeviceProfile describes the hardware asking for tap-to-pay.
type DeviceProfile struct {
	HardwareId   string   `json:"hardware_id"`
	Platform     string   `json:"platform"`
	OSVersion    int      `json:"os_version"`
	Capabilities []string `json:"capabilities"`
}

type PrepareTapToPayRequest struct {
	TenantId   string  `json:"tenant_id"`
	UserId     string  `json:"user_id"`
	CardId     string  `json:"card_id"`
	DeviceId   string  `json:"device_id"`
	MerchantId string  `json:"merchant_id"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
}

// POSResult is what the point-of-sale terminal reports back after a tap.
type POSResult struct {
	SessionId    string `json:"session_id"`
	ResponseCode string `json:"response_code"`
	ApprovalCode string `json:"approval_code"`
	TerminalId   string `json:"terminal_id"`
	RawMessage   string `json:"raw_message"`
}

// AuditEntry is the best-effort audit record for one composite operation.
type AuditEntry struct {
	TenantId     string                 `json:"tenant_id"`
	UserId       string                 `json:"user_id"`
	Action       string                 `json:"action"`
	ResourceType string                 `json:"resource_type"`
	ResourceId   string                 `json:"resource_id"`
	Details      map[string]interface{} `json:"details"`
	RequestMeta  map[string]string      `json:"request_meta"`
}
