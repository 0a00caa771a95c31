package entities

import "payments-system/domain/constants"

// BillRecord is produced by a bill lookup and consumed by payment.
type BillRecord struct {
	ControlNumber   string               `json:"control_number" bson:"control_number"`
	BillId          string               `json:"bill_id" bson:"bill_id"`
	Amount          float64              `json:"amount" bson:"amount"`
	Currency        string               `json:"currency" bson:"currency"`
	PayerName       string               `json:"payer_name" bson:"payer_name"`
	PayerPhone      string               `json:"payer_phone" bson:"payer_phone"`
	ServiceProvider string               `json:"service_provider" bson:"service_provider"`
	Description     string               `json:"description" bson:"description"`
	Status          constants.BillStatus `json:"status" bson:"status"`
}

type ServiceProvider struct {
	Code string `json:"code" bson:"code"`
	Name string `json:"name" bson:"name"`
}

type Biller struct {
	Code     string `json:"code" bson:"code"`
	Name     string `json:"name" bson:"name"`
	Category string `json:"category" bson:"category"`
}

// BillerReference is the aggregator's answer to a customer-reference lookup
// (e.g. a meter number resolved to the account holder).
type BillerReference struct {
	BillerCode   string  `json:"biller_code"`
	CustomerRef  string  `json:"customer_ref"`
	CustomerName string  `json:"customer_name"`
	AmountDue    float64 `json:"amount_due"`
	Valid        bool    `json:"valid"`
}
