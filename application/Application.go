package application

import (
	"encoding/hex"
	"time"

	"payments-system/domain/constants"
	"payments-system/domain/repositories"
	perrors "payments-system/errors"
	"payments-system/infrastructure/database_mgo/audit"
	"payments-system/infrastructure/database_mgo/devices"
	"payments-system/infrastructure/database_mgo/sessions"
	"payments-system/infrastructure/database_mgo/tokens"
	"payments-system/infrastructure/database_mgo/transactions"
	"payments-system/infrastructure/firebase"
	"payments-system/infrastructure/service/bill_aggregator"
	"payments-system/infrastructure/service/card_network"
	"payments-system/infrastructure/service/core_banking"
	"payments-system/infrastructure/service/gov_gateway"
	"payments-system/infrastructure/service/instant_switch"
	"payments-system/utils/configs"
	"payments-system/utils/gpooling"
	"payments-system/utils/telegram"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// PaymentApplication is the per-tenant façade over the rail adapters, the
// token vault and the tap-to-pay stores. One instance per tenant, built by
// the registry on first use and reused for the process lifetime.
type PaymentApplication struct {
	TenantId string
	Tenant   configs.TenantConfig
	Config   *configs.Config
	Logger   *zap.Logger
	IPool    gpooling.IPool

	InstantSwitch  repositories.InstantSwitchRepository
	GovGateway     repositories.GovGatewayRepository
	BillAggregator repositories.BillAggregatorRepository
	CardNetwork    repositories.CardNetworkRepository

	Vault    repositories.ITokenVault
	IDevice  repositories.IDevice
	ISession repositories.ISession
	IAudit   repositories.IAudit
	TxLog    repositories.ITransactionLog

	Accounts repositories.IAccountProvider
	Events   repositories.IEventStream
	MQTT     repositories.IMqtt
	Firebase firebase.IFirebase
	Alerts   *telegram.Notifier

	SessionTTL time.Duration
}

// NewPaymentApplication wires one tenant's adapters and stores. The mongo
// client, event stream, mqtt client and firebase sender are process-wide and
// shared across tenants; adapters and the vault are tenant-scoped because
// they hold tenant credentials and keys.
func NewPaymentApplication(
	tenantId string,
	config *configs.Config,
	logger *zap.Logger,
	pool gpooling.IPool,
	db *mongo.Client,
	events repositories.IEventStream,
	mqttRepo repositories.IMqtt,
	fcm firebase.IFirebase,
	alerts *telegram.Notifier,
) (*PaymentApplication, error) {
	tenant, ok := config.Tenants[tenantId]
	if !ok || !tenant.Enabled {
		return nil, perrors.NewAdapterUnavailableError(tenantId)
	}

	vaultKey, err := hex.DecodeString(tenant.VaultKeyHex)
	if err != nil {
		return nil, perrors.NewValidationError("tenant %v vault key is not valid hex", tenantId)
	}

	tenantLogger := logger.With(zap.String("tenant_id", tenantId))

	txLog := transactions.NewRepository(db, config.DatabaseName)
	deviceStore := devices.NewRepository(db, config.DatabaseName)

	vault := tokens.NewRepository(db, config.DatabaseName, vaultKey, deviceStore)

	govGateway, err := gov_gateway.NewRepoImpl(tenant.GovGateway, tenantLogger, txLog, events)
	if err != nil {
		return nil, err
	}

	cardNetwork, err := card_network.NewRepoImpl(tenant.CardNetwork, tenantLogger)
	if err != nil {
		return nil, err
	}

	sessionTTL := time.Duration(config.SessionTTLSeconds) * time.Second
	if sessionTTL <= 0 {
		sessionTTL = 2 * time.Minute
	}

	return &PaymentApplication{
		TenantId:       tenantId,
		Tenant:         tenant,
		Config:         config,
		Logger:         tenantLogger,
		IPool:          pool,
		InstantSwitch:  instant_switch.NewRepoImpl(tenant.InstantSwitch, tenantLogger, txLog, events),
		GovGateway:     govGateway,
		BillAggregator: bill_aggregator.NewRepoImpl(tenant.BillAggregator, tenant.Currency, tenantLogger, txLog, events),
		CardNetwork:    cardNetwork,
		Vault:          vault,
		IDevice:        deviceStore,
		ISession:       sessions.NewRepository(db, config.DatabaseName),
		IAudit:         audit.NewRepository(db, config.DatabaseName),
		TxLog:          txLog,
		Accounts:       core_banking.NewRepoImpl(tenant.CoreBankingUri, tenantLogger),
		Events:         events,
		MQTT:           mqttRepo,
		Firebase:       fcm,
		Alerts:         alerts,
		SessionTTL:     sessionTTL,
	}, nil
}

// FeatureEnabled lets callers probe availability without triggering the
// error path of an actual operation.
func (us *PaymentApplication) FeatureEnabled(feature string) bool {
	if !us.Tenant.Enabled {
		return false
	}
	switch feature {
	case constants.FeatureQRPayments:
		return us.Tenant.Features.QRPayments
	case constants.FeatureBillPayments:
		return us.Tenant.Features.BillPayments
	case constants.FeatureAirtime:
		return us.Tenant.Features.Airtime
	case constants.FeatureCards:
		return us.Tenant.Features.Cards
	case constants.FeatureTapToPay:
		return us.Tenant.Features.TapToPay
	}
	return false
}

func (us *PaymentApplication) requireFeature(feature string) error {
	if !us.Tenant.Enabled {
		return perrors.NewAdapterUnavailableError(us.TenantId)
	}
	if !us.FeatureEnabled(feature) {
		return perrors.NewFeatureDisabledError(feature)
	}
	return nil
}
