package entities

import (
	"time"

	"payments-system/domain/constants"
)

// TransferIntent is immutable once submitted to an adapter.
type TransferIntent struct {
	SourceAccount         string  `json:"source_account" bson:"source_account"`
	DestinationAccount    string  `json:"destination_account" bson:"destination_account"`
	DestinationIdentifier string  `json:"destination_identifier" bson:"destination_identifier"` // bank code or mobile network
	Amount                float64 `json:"amount" bson:"amount"`
	Currency              string  `json:"currency" bson:"currency"`
	Narration             string  `json:"narration" bson:"narration"`
	SenderName            string  `json:"sender_name" bson:"sender_name"`
	SenderPhone           string  `json:"sender_phone" bson:"sender_phone"`
	RecipientName         string  `json:"recipient_name" bson:"recipient_name"`
	RecipientPhone        string  `json:"recipient_phone" bson:"recipient_phone"`
}

// RailResult is the uniform outcome every adapter returns.
type RailResult struct {
	Reference        string                     `json:"reference" bson:"_id"`
	RailReference    string                     `json:"rail_reference" bson:"rail_reference"`
	Rail             constants.RailKind         `json:"rail" bson:"rail"`
	TenantId         string                     `json:"tenant_id" bson:"tenant_id"`
	NormalizedStatus constants.NormalizedStatus `json:"normalized_status" bson:"normalized_status"`
	RawStatus        string                     `json:"raw_status" bson:"raw_status"`
	RawMessage       string                     `json:"raw_message" bson:"raw_message"`
	// ProviderToken carries a pass-through credential some billers return
	// (e.g. a prepaid meter redemption code). Never discarded.
	ProviderToken string    `json:"provider_token,omitempty" bson:"provider_token,omitempty"`
	Amount        float64   `json:"amount" bson:"amount"`
	Currency      string    `json:"currency" bson:"currency"`
	Timestamp     time.Time `json:"timestamp" bson:"timestamp"`
}

type Bank struct {
	Code   string `json:"code" bson:"code"`
	Name   string `json:"name" bson:"name"`
	Active bool   `json:"active" bson:"active"`
}

type HealthStatus struct {
	Rail      constants.RailKind `json:"rail"`
	Healthy   bool               `json:"healthy"`
	Message   string             `json:"message,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// AccountBalance is what the external core banking system reports.
type AccountBalance struct {
	AccountId string  `json:"account_id"`
	Balance   float64 `json:"balance"`
	Currency  string  `json:"currency"`
}

// MerchantInfo is the result of validating a scanned QR or a raw merchant id.
type MerchantInfo struct {
	Valid         bool   `json:"valid"`
	MerchantName  string `json:"merchant_name"`
	AccountNumber string `json:"account_number"`
	BankName      string `json:"bank_name"`
	Reason        string `json:"reason,omitempty"`
}
