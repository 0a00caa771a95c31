package repositories

import (
	"time"

	"payments-system/domain/constants"
	"payments-system/domain/entities"
	"payments-system/domain/request_params"
)

// RailAdapter is the contract every rail adapter implements. The orchestrator
// selects a concrete adapter by its RailKind tag.
type RailAdapter interface {
	Kind() constants.RailKind
	GenerateReference() string
	Validate(req request_params.PaymentRequest) error
	// LogTransaction is a side-effecting audit write; it must never fail the
	// payment path. Failures are logged and swallowed.
	LogTransaction(res entities.RailResult)
	HealthCheck() entities.HealthStatus
}

// InstantSwitchRepository is rail A: the national instant interbank and
// mobile-money switch.
type InstantSwitchRepository interface {
	RailAdapter
	ValidateAccount(accountNumber, destinationCode string) (string, error)
	Transfer(intent entities.TransferIntent) (entities.RailResult, error)
	TransferToMobile(intent entities.TransferIntent, network string) (entities.RailResult, error)
	GetBanks() ([]entities.Bank, error)
	GetTransferStatus(reference string) (entities.RailResult, error)
}

// GovGatewayRepository is rail B: the government e-payment gateway.
type GovGatewayRepository interface {
	RailAdapter
	GetServiceProviders() ([]entities.ServiceProvider, error)
	LookupBill(controlNumber string) (entities.BillRecord, error)
	PayBill(req request_params.GovBillPayRequest) (entities.RailResult, error)
	VerifyReceipt(receiptNumber string) (bool, error)
	GetPaymentStatus(reference string) (entities.RailResult, error)
}

// BillAggregatorRepository is rail C: the third-party bill/airtime aggregator.
type BillAggregatorRepository interface {
	RailAdapter
	GetBillers() ([]entities.Biller, error)
	ValidateReference(billerCode, customerRef string) (entities.BillerReference, error)
	PayBill(req request_params.BillerPayRequest) (entities.RailResult, error)
	BuyAirtime(req request_params.AirtimeRequest) (entities.RailResult, error)
	GetStatus(reference string) (entities.RailResult, error)
}

// CardNetworkRepository is the card network's tokenization and push-payment
// service.
type CardNetworkRepository interface {
	Tokenize(details entities.CardDetails) (entities.TokenPayload, string, error)
	GetToken(tokenReference string) (string, error)
	SuspendToken(tokenReference string) error
	ResumeToken(tokenReference string) error
	DeleteToken(tokenReference string) error
	GenerateCryptogram(tokenReference string, amount float64, currency, merchantId string) (string, error)
	PushFunds(pan string, amount float64, currency, senderName, narration string) (entities.RailResult, error)
	HealthCheck() entities.HealthStatus
}

// ITokenVault stores encrypted card tokens and owns their lifecycle.
type ITokenVault interface {
	// Create encrypts payload and stores the token; the cleartext payload
	// never leaves this call.
	Create(token entities.CardToken, payload entities.TokenPayload) (entities.CardToken, error)
	FindById(cardId, userId, tenantId string) (entities.CardToken, error)
	List(userId, tenantId string) ([]entities.CardToken, error)
	// GetForTransaction decrypts the payload of an ACTIVE token and stamps
	// last-used-at atomically with the read.
	GetForTransaction(cardId, userId, tenantId string) (entities.TokenPayload, entities.CardToken, error)
	// OpenPayload decrypts regardless of status; for lifecycle operations
	// only, never for transaction preparation.
	OpenPayload(cardId, userId, tenantId string) (entities.TokenPayload, error)
	SetDefault(cardId, userId, tenantId string) error
	UpdateStatus(cardId, userId, tenantId string, from []constants.TokenStatus, to constants.TokenStatus) error
	// Delete transitions to DELETED and removes all the token's device bindings.
	Delete(cardId, userId, tenantId string) error
	AddDeviceBinding(cardId, userId, tenantId, deviceId string) error
	IsDeviceBound(cardId, deviceId, userId, tenantId string) (bool, error)
}

// IDevice persists device binding records.
type IDevice interface {
	Upsert(binding entities.DeviceBinding) error
	FindById(deviceId string) (entities.DeviceBinding, error)
	DeleteByCard(cardId string) error
}

// ISession persists tap-to-pay sessions. Consume must be atomic: the first
// caller flips PENDING to CONSUMED, every later caller misses.
type ISession interface {
	Create(session entities.TapToPaySession) error
	FindById(sessionId string) (entities.TapToPaySession, error)
	Consume(sessionId string, now time.Time) (entities.TapToPaySession, error)
}

// IAudit is the best-effort audit sink; failures must be logged, never raised.
type IAudit interface {
	Record(entry request_params.AuditEntry) error
}

// ITransactionLog keeps every normalized rail result on file for status polls.
type ITransactionLog interface {
	Save(result entities.RailResult) error
	FindByReference(reference string) (entities.RailResult, error)
}

// IAccountProvider is the external core banking system's balance contract.
type IAccountProvider interface {
	GetBalance(accountId string) (entities.AccountBalance, error)
}

// IEventStream publishes normalized results to the transaction topic.
type IEventStream interface {
	PublishResult(result entities.RailResult) error
}

// IMqtt pushes realtime status to the app.
type IMqtt interface {
	Publish(topic, message string, retain bool) error
}
