package entities

import (
	"time"

	"payments-system/domain/constants"
	"payments-system/utils/crypt"
)

// CardToken is the vault record for one tokenized card. The encrypted payload
// is the only place the rail-issued token and its reference live; it is
// decrypted only for the duration of a single transaction preparation.
type CardToken struct {
	Id               string                `json:"id" bson:"_id"`
	UserId           string                `json:"user_id" bson:"user_id"`
	TenantId         string                `json:"tenant_id" bson:"tenant_id"`
	EncryptedPayload crypt.SealedPayload   `json:"-" bson:"encrypted_payload"`
	PanLastFour      string                `json:"pan_last_four" bson:"pan_last_four"`
	Brand            string                `json:"brand" bson:"brand"`
	ExpiryMonth      string                `json:"expiry_month" bson:"expiry_month"`
	ExpiryYear       string                `json:"expiry_year" bson:"expiry_year"`
	CardholderName   string                `json:"cardholder_name" bson:"cardholder_name"`
	IsDefault        bool                  `json:"is_default" bson:"is_default"`
	Status           constants.TokenStatus `json:"status" bson:"status"`
	DeviceBindings   []string              `json:"device_bindings" bson:"device_bindings"`
	LastUsedAt       *time.Time            `json:"last_used_at,omitempty" bson:"last_used_at,omitempty"`
	CreatedAt        time.Time             `json:"created_at" bson:"created_at"`
}

// TokenPayload is the decrypted content of EncryptedPayload.
type TokenPayload struct {
	NetworkToken   string `json:"network_token"`
	TokenReference string `json:"token_reference"`
}

// CardDetails carries the cleartext card data on its way to the network.
// It is never persisted.
type CardDetails struct {
	Pan            string `json:"pan"`
	ExpiryMonth    string `json:"expiry_month"`
	ExpiryYear     string `json:"expiry_year"`
	Cvv            string `json:"cvv"`
	CardholderName string `json:"cardholder_name"`
}

// LastFour returns the PAN tail kept for display.
func (c CardDetails) LastFour() string {
	if len(c.Pan) < 4 {
		return c.Pan
	}
	return c.Pan[len(c.Pan)-4:]
}

// DeviceBinding authorizes one device to initiate contactless transactions
// for one card.
type DeviceBinding struct {
	DeviceId     string    `json:"device_id" bson:"device_id"`
	UserId       string    `json:"user_id" bson:"user_id"`
	TenantId     string    `json:"tenant_id" bson:"tenant_id"`
	CardId       string    `json:"card_id" bson:"card_id"`
	Platform     string    `json:"platform" bson:"platform"`
	Capabilities []string  `json:"capabilities" bson:"capabilities"`
	BindingTime  time.Time `json:"binding_time" bson:"binding_time"`
	LastActive   time.Time `json:"last_active" bson:"last_active"`
}

// TapToPaySession is ephemeral; expiry is evaluated lazily on read.
type TapToPaySession struct {
	SessionId  string                  `json:"session_id" bson:"_id"`
	CardId     string                  `json:"card_id" bson:"card_id"`
	UserId     string                  `json:"user_id" bson:"user_id"`
	TenantId   string                  `json:"tenant_id" bson:"tenant_id"`
	DeviceId   string                  `json:"device_id" bson:"device_id"`
	Amount     float64                 `json:"amount" bson:"amount"`
	Currency   string                  `json:"currency" bson:"currency"`
	MerchantId string                  `json:"merchant_id" bson:"merchant_id"`
	Cryptogram string                  `json:"cryptogram" bson:"cryptogram"`
	CreatedAt  time.Time               `json:"created_at" bson:"created_at"`
	ExpiresAt  time.Time               `json:"expires_at" bson:"expires_at"`
	Status     constants.SessionStatus `json:"status" bson:"status"`
}

func (s TapToPaySession) IsExpiredAt(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// WalletProvisioningPayload is handed to a third-party digital wallet to
// provision a vaulted card.
type WalletProvisioningPayload struct {
	CardId         string `json:"card_id"`
	PanLastFour    string `json:"pan_last_four"`
	Brand          string `json:"brand"`
	CardholderName string `json:"cardholder_name"`
	OpaqueData     string `json:"opaque_data"`
	WalletProvider string `json:"wallet_provider"`
}
