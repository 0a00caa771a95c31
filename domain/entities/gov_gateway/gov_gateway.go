package gov_gateway

import (
	"encoding/xml"

	"payments-system/domain/constants"
)

// Envelope wraps every request and response: the business payload travels
// base64-encoded, the signature covers the raw (unencoded) payload.
type Envelope struct {
	XMLName   xml.Name `xml:"Envelope"`
	Payload   string   `xml:"Payload"`
	Signature string   `xml:"Signature"`
}

type BillInquiryRequest struct {
	XMLName       xml.Name `xml:"BillInquiry"`
	ServiceCode   string   `xml:"ServiceCode"`
	ControlNumber string   `xml:"ControlNumber"`
	Reference     string   `xml:"Reference"`
	Timestamp     string   `xml:"Timestamp"`
}

type BillInquiryResponse struct {
	XMLName         xml.Name `xml:"BillInquiryResponse"`
	ResultCode      string   `xml:"ResultCode"`
	ResultDesc      string   `xml:"ResultDesc"`
	ControlNumber   string   `xml:"ControlNumber"`
	BillId          string   `xml:"BillId"`
	Amount          float64  `xml:"Amount"`
	Currency        string   `xml:"Currency"`
	PayerName       string   `xml:"PayerName"`
	PayerPhone      string   `xml:"PayerPhone"`
	ServiceProvider string   `xml:"ServiceProvider"`
	Description     string   `xml:"Description"`
	BillStatus      string   `xml:"BillStatus"`
}

type PaymentRequest struct {
	XMLName       xml.Name `xml:"BillPayment"`
	ServiceCode   string   `xml:"ServiceCode"`
	ControlNumber string   `xml:"ControlNumber"`
	Amount        float64  `xml:"Amount"`
	Currency      string   `xml:"Currency"`
	PayerName     string   `xml:"PayerName"`
	PayerPhone    string   `xml:"PayerPhone"`
	Reference     string   `xml:"Reference"`
	Timestamp     string   `xml:"Timestamp"`
}

type PaymentResponse struct {
	XMLName       xml.Name `xml:"BillPaymentResponse"`
	ResultCode    string   `xml:"ResultCode"`
	ResultDesc    string   `xml:"ResultDesc"`
	Reference     string   `xml:"Reference"`
	GatewayRef    string   `xml:"GatewayRef"`
	ReceiptNumber string   `xml:"ReceiptNumber"`
	PaymentStatus string   `xml:"PaymentStatus"`
}

type ReceiptVerifyRequest struct {
	XMLName       xml.Name `xml:"ReceiptVerify"`
	ServiceCode   string   `xml:"ServiceCode"`
	ReceiptNumber string   `xml:"ReceiptNumber"`
	Reference     string   `xml:"Reference"`
	Timestamp     string   `xml:"Timestamp"`
}

type ReceiptVerifyResponse struct {
	XMLName       xml.Name `xml:"ReceiptVerifyResponse"`
	ResultCode    string   `xml:"ResultCode"`
	ResultDesc    string   `xml:"ResultDesc"`
	ReceiptNumber string   `xml:"ReceiptNumber"`
	Verified      bool     `xml:"Verified"`
	ControlNumber string   `xml:"ControlNumber"`
	Amount        float64  `xml:"Amount"`
}

type ProvidersRequest struct {
	XMLName     xml.Name `xml:"ServiceProviders"`
	ServiceCode string   `xml:"ServiceCode"`
	Timestamp   string   `xml:"Timestamp"`
}

type ProvidersResponse struct {
	XMLName    xml.Name   `xml:"ServiceProvidersResponse"`
	ResultCode string     `xml:"ResultCode"`
	ResultDesc string     `xml:"ResultDesc"`
	Providers  []Provider `xml:"Providers>Provider"`
}

type Provider struct {
	Code string `xml:"Code"`
	Name string `xml:"Name"`
}

type StatusRequest struct {
	XMLName     xml.Name `xml:"PaymentStatus"`
	ServiceCode string   `xml:"ServiceCode"`
	Reference   string   `xml:"Reference"`
	Timestamp   string   `xml:"Timestamp"`
}

type StatusResponse struct {
	XMLName       xml.Name `xml:"PaymentStatusResponse"`
	ResultCode    string   `xml:"ResultCode"`
	ResultDesc    string   `xml:"ResultDesc"`
	Reference     string   `xml:"Reference"`
	GatewayRef    string   `xml:"GatewayRef"`
	PaymentStatus string   `xml:"PaymentStatus"`
}

const ResultSuccess = "7101"

// Bill state and payment state are distinct vocabularies with their own tables.
var billStatuses = map[string]constants.BillStatus{
	"ACTIVE":    constants.BillPending,
	"PENDING":   constants.BillPending,
	"PAID":      constants.BillPaid,
	"PARTIAL":   constants.BillPartial,
	"EXPIRED":   constants.BillExpired,
	"CANCELLED": constants.BillCancelled,
	"INACTIVE":  constants.BillCancelled,
}

var paymentStatuses = map[string]constants.NormalizedStatus{
	"RECEIVED":   constants.StatusPending,
	"PENDING":    constants.StatusPending,
	"INPROGRESS": constants.StatusProcessing,
	"SETTLED":    constants.StatusCompleted,
	"PAID":       constants.StatusCompleted,
	"FAILED":     constants.StatusFailed,
	"REJECTED":   constants.StatusFailed,
	"REVERSED":   constants.StatusReversed,
	"CANCELLED":  constants.StatusCancelled,
}

// NormalizeBillStatus maps unknown vocabulary to CANCELLED, which is not
// payable; paying a bill in a state we cannot classify is never safe.
func NormalizeBillStatus(raw string) constants.BillStatus {
	if status, ok := billStatuses[raw]; ok {
		return status
	}
	return constants.BillCancelled
}

func NormalizePaymentStatus(raw string) constants.NormalizedStatus {
	if status, ok := paymentStatuses[raw]; ok {
		return status
	}
	return constants.StatusUnknown
}
