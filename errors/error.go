package errors

import "fmt"

// Machine-readable codes surfaced with every structured error.
const (
	CodeValidation            = "VALIDATION_ERROR"
	CodeInsufficientBalance   = "INSUFFICIENT_BALANCE"
	CodeFeatureDisabled       = "FEATURE_DISABLED"
	CodeAdapterUnavailable    = "ADAPTER_UNAVAILABLE"
	CodeSignatureVerification = "SIGNATURE_VERIFICATION_FAILED"
	CodeChecksum              = "CHECKSUM_FAILED"
	CodeTokenNotFound         = "TOKEN_NOT_FOUND"
	CodeDeviceNotAuthorized   = "DEVICE_NOT_AUTHORIZED"
	CodeSessionExpired        = "SESSION_EXPIRED"
	CodeBillAlreadyPaid       = "BILL_ALREADY_PAID"
	CodeControlNumberExpired  = "CONTROL_NUMBER_EXPIRED"
	CodeAmountMismatch        = "AMOUNT_MISMATCH"
	CodeRailTransport         = "RAIL_TRANSPORT_ERROR"
	CodeUnknownNetwork        = "UNKNOWN_NETWORK"
)

// PaymentError is the structured error every composite operation returns:
// a machine code plus a human-readable message.
type PaymentError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *PaymentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PaymentError) Unwrap() error {
	return e.Cause
}

func newError(code, format string, args ...interface{}) *PaymentError {
	return &PaymentError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func NewValidationError(format string, args ...interface{}) *PaymentError {
	return newError(CodeValidation, format, args...)
}

func NewInsufficientBalanceError(available, requested float64) *PaymentError {
	return newError(CodeInsufficientBalance, "available balance %.2f is below requested amount %.2f", available, requested)
}

func NewFeatureDisabledError(feature string) *PaymentError {
	return newError(CodeFeatureDisabled, "feature %s is not enabled for this tenant", feature)
}

func NewAdapterUnavailableError(rail string) *PaymentError {
	return newError(CodeAdapterUnavailable, "rail %s is not configured for this tenant", rail)
}

func NewSignatureVerificationError(rail string, cause error) *PaymentError {
	e := newError(CodeSignatureVerification, "response from %s failed signature verification and was discarded", rail)
	e.Cause = cause
	return e
}

func NewChecksumError(reason string) *PaymentError {
	return newError(CodeChecksum, "QR payload rejected: %s", reason)
}

func NewTokenNotFoundError(cardId string) *PaymentError {
	return newError(CodeTokenNotFound, "card token %s not found or not active", cardId)
}

func NewDeviceNotAuthorizedError(deviceId, cardId string) *PaymentError {
	return newError(CodeDeviceNotAuthorized, "device %s is not bound to card %s", deviceId, cardId)
}

func NewSessionExpiredError(sessionId string) *PaymentError {
	return newError(CodeSessionExpired, "tap-to-pay session %s is expired, consumed or unknown", sessionId)
}

func NewBillAlreadyPaidError(controlNumber string) *PaymentError {
	return newError(CodeBillAlreadyPaid, "control number %s has already been paid", controlNumber)
}

func NewControlNumberExpiredError(controlNumber string) *PaymentError {
	return newError(CodeControlNumberExpired, "control number %s is expired or cancelled", controlNumber)
}

func NewAmountMismatchError(billed, offered float64) *PaymentError {
	return newError(CodeAmountMismatch, "billed amount %.2f does not match offered amount %.2f", billed, offered)
}

func NewRailTransportError(rail string, cause error) *PaymentError {
	e := newError(CodeRailTransport, "transport failure talking to %s", rail)
	e.Cause = cause
	return e
}

func NewUnknownNetworkError(network string) *PaymentError {
	return newError(CodeUnknownNetwork, "network %q is not recognised", network)
}

// CodeOf extracts the machine code from any error produced by this package;
// unknown errors map to an empty code.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	if pe, ok := err.(*PaymentError); ok {
		return pe.Code
	}
	return ""
}

// IsCode reports whether err carries the given machine code.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}
