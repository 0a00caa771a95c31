package application

import (
	"fmt"
	"testing"
	"time"

	"payments-system/domain/constants"
	"payments-system/domain/entities"
	"payments-system/domain/request_params"
	perrors "payments-system/errors"
	"payments-system/utils/configs"
	"payments-system/utils/gen_ids"
	"payments-system/utils/telegram"

	"go.uber.org/zap"
)

// syncPool runs submitted tasks inline so tests observe side effects
// without sleeping.
type syncPool struct{}

func (syncPool) Submit(task func()) { task() }
func (syncPool) Release()           {}
func (syncPool) Running() int       { return 0 }

type fakeInstantSwitch struct {
	banks          []entities.Bank
	banksErr       error
	banksCalls     int
	accountNames   map[string]string
	transfers      []entities.TransferIntent
	transferResult entities.RailResult
	transferErr    error
}

func (f *fakeInstantSwitch) Kind() constants.RailKind { return constants.RailInstantSwitch }
func (f *fakeInstantSwitch) GenerateReference() string {
	return gen_ids.GenerateReference(constants.PrefixInstantSwitch)
}
func (f *fakeInstantSwitch) Validate(req request_params.PaymentRequest) error {
	if req.Amount <= 0 {
		return perrors.NewValidationError("amount must be positive, got %v", req.Amount)
	}
	if req.Destination == "" {
		return perrors.NewValidationError("destination account is required")
	}
	return nil
}
func (f *fakeInstantSwitch) LogTransaction(res entities.RailResult) {}
func (f *fakeInstantSwitch) HealthCheck() entities.HealthStatus {
	return entities.HealthStatus{Rail: constants.RailInstantSwitch, Healthy: true}
}
func (f *fakeInstantSwitch) ValidateAccount(accountNumber, destinationCode string) (string, error) {
	name, ok := f.accountNames[accountNumber]
	if !ok {
		return "", perrors.NewValidationError("account %v not found", accountNumber)
	}
	return name, nil
}
func (f *fakeInstantSwitch) Transfer(intent entities.TransferIntent) (entities.RailResult, error) {
	if f.transferErr != nil {
		return entities.RailResult{}, f.transferErr
	}
	f.transfers = append(f.transfers, intent)
	result := f.transferResult
	if result.Reference == "" {
		result.Reference = f.GenerateReference()
	}
	result.Rail = constants.RailInstantSwitch
	result.Amount = intent.Amount
	result.Currency = intent.Currency
	return result, nil
}
func (f *fakeInstantSwitch) TransferToMobile(intent entities.TransferIntent, network string) (entities.RailResult, error) {
	if _, err := constants.MobileNetworkCode(network); err != nil {
		return entities.RailResult{}, err
	}
	return f.Transfer(intent)
}
func (f *fakeInstantSwitch) GetBanks() ([]entities.Bank, error) {
	f.banksCalls++
	return f.banks, f.banksErr
}
func (f *fakeInstantSwitch) GetTransferStatus(reference string) (entities.RailResult, error) {
	return entities.RailResult{Reference: reference, Rail: constants.RailInstantSwitch}, nil
}

type fakeGovGateway struct {
	providers []entities.ServiceProvider
	bill      entities.BillRecord
	billErr   error
	payResult entities.RailResult
	payErr    error
	payCalls  int
	verified  bool
}

func (f *fakeGovGateway) Kind() constants.RailKind { return constants.RailGovGateway }
func (f *fakeGovGateway) GenerateReference() string {
	return gen_ids.GenerateReference(constants.PrefixGovGateway)
}
func (f *fakeGovGateway) Validate(req request_params.PaymentRequest) error { return nil }
func (f *fakeGovGateway) LogTransaction(res entities.RailResult)           {}
func (f *fakeGovGateway) HealthCheck() entities.HealthStatus {
	return entities.HealthStatus{Rail: constants.RailGovGateway, Healthy: true}
}
func (f *fakeGovGateway) GetServiceProviders() ([]entities.ServiceProvider, error) {
	return f.providers, nil
}
func (f *fakeGovGateway) LookupBill(controlNumber string) (entities.BillRecord, error) {
	return f.bill, f.billErr
}
func (f *fakeGovGateway) PayBill(req request_params.GovBillPayRequest) (entities.RailResult, error) {
	f.payCalls++
	if f.payErr != nil {
		return entities.RailResult{}, f.payErr
	}
	result := f.payResult
	if result.Reference == "" {
		result.Reference = f.GenerateReference()
	}
	result.Rail = constants.RailGovGateway
	return result, nil
}
func (f *fakeGovGateway) VerifyReceipt(receiptNumber string) (bool, error) { return f.verified, nil }
func (f *fakeGovGateway) GetPaymentStatus(reference string) (entities.RailResult, error) {
	return entities.RailResult{Reference: reference, Rail: constants.RailGovGateway}, nil
}

type fakeBillAggregator struct {
	billers     []entities.Biller
	reference   entities.BillerReference
	validateErr error
	payResult   entities.RailResult
	payErr      error
	payCalls    int
}

func (f *fakeBillAggregator) Kind() constants.RailKind { return constants.RailBillAggregator }
func (f *fakeBillAggregator) GenerateReference() string {
	return gen_ids.GenerateReference(constants.PrefixBillAggregator)
}
func (f *fakeBillAggregator) Validate(req request_params.PaymentRequest) error { return nil }
func (f *fakeBillAggregator) LogTransaction(res entities.RailResult)           {}
func (f *fakeBillAggregator) HealthCheck() entities.HealthStatus {
	return entities.HealthStatus{Rail: constants.RailBillAggregator, Healthy: true}
}
func (f *fakeBillAggregator) GetBillers() ([]entities.Biller, error) { return f.billers, nil }
func (f *fakeBillAggregator) ValidateReference(billerCode, customerRef string) (entities.BillerReference, error) {
	if f.validateErr != nil {
		return entities.BillerReference{}, f.validateErr
	}
	return f.reference, nil
}
func (f *fakeBillAggregator) PayBill(req request_params.BillerPayRequest) (entities.RailResult, error) {
	f.payCalls++
	if f.payErr != nil {
		return entities.RailResult{}, f.payErr
	}
	result := f.payResult
	if result.Reference == "" {
		result.Reference = f.GenerateReference()
	}
	result.Rail = constants.RailBillAggregator
	return result, nil
}
func (f *fakeBillAggregator) BuyAirtime(req request_params.AirtimeRequest) (entities.RailResult, error) {
	if _, err := constants.AirtimeBillerCode(req.Network); err != nil {
		return entities.RailResult{}, err
	}
	return f.PayBill(request_params.BillerPayRequest{Amount: req.Amount})
}
func (f *fakeBillAggregator) GetStatus(reference string) (entities.RailResult, error) {
	return entities.RailResult{Reference: reference, Rail: constants.RailBillAggregator}, nil
}

type fakeCardNetwork struct {
	payload      entities.TokenPayload
	brand        string
	tokenizeErr  error
	cryptogram   string
	actions      []string
	actionErr    error
}

func (f *fakeCardNetwork) Tokenize(details entities.CardDetails) (entities.TokenPayload, string, error) {
	if f.tokenizeErr != nil {
		return entities.TokenPayload{}, "", f.tokenizeErr
	}
	return f.payload, f.brand, nil
}
func (f *fakeCardNetwork) SuspendToken(tokenReference string) error {
	f.actions = append(f.actions, "suspend:"+tokenReference)
	return f.actionErr
}
func (f *fakeCardNetwork) ResumeToken(tokenReference string) error {
	f.actions = append(f.actions, "resume:"+tokenReference)
	return f.actionErr
}
func (f *fakeCardNetwork) DeleteToken(tokenReference string) error {
	f.actions = append(f.actions, "delete:"+tokenReference)
	return f.actionErr
}
func (f *fakeCardNetwork) GenerateCryptogram(tokenReference string, amount float64, currency, merchantId string) (string, error) {
	return f.cryptogram, nil
}
func (f *fakeCardNetwork) PushFunds(pan string, amount float64, currency, senderName, narration string) (entities.RailResult, error) {
	return entities.RailResult{Rail: constants.RailCardNetwork, NormalizedStatus: constants.StatusCompleted}, nil
}
func (f *fakeCardNetwork) GetToken(tokenReference string) (string, error) {
	return "ACTIVE", nil
}
func (f *fakeCardNetwork) HealthCheck() entities.HealthStatus {
	return entities.HealthStatus{Rail: constants.RailCardNetwork, Healthy: true}
}

// fakeVault keeps the vault contract in memory: single default per user,
// ACTIVE-only transaction reads, bindings removed on delete.
type fakeVault struct {
	tokens   map[string]entities.CardToken
	payloads map[string]entities.TokenPayload
}

func newFakeVault() *fakeVault {
	return &fakeVault{
		tokens:   map[string]entities.CardToken{},
		payloads: map[string]entities.TokenPayload{},
	}
}

func (f *fakeVault) Create(token entities.CardToken, payload entities.TokenPayload) (entities.CardToken, error) {
	if token.Status == "" {
		token.Status = constants.TokenActive
	}
	if token.IsDefault {
		f.clearDefault(token.UserId, token.TenantId)
	}
	f.tokens[token.Id] = token
	f.payloads[token.Id] = payload
	return token, nil
}

func (f *fakeVault) clearDefault(userId, tenantId string) {
	for id, t := range f.tokens {
		if t.UserId == userId && t.TenantId == tenantId && t.IsDefault {
			t.IsDefault = false
			f.tokens[id] = t
		}
	}
}

func (f *fakeVault) find(cardId, userId, tenantId string) (entities.CardToken, error) {
	token, ok := f.tokens[cardId]
	if !ok || token.UserId != userId || token.TenantId != tenantId {
		return entities.CardToken{}, perrors.NewTokenNotFoundError(cardId)
	}
	return token, nil
}

func (f *fakeVault) FindById(cardId, userId, tenantId string) (entities.CardToken, error) {
	return f.find(cardId, userId, tenantId)
}

func (f *fakeVault) List(userId, tenantId string) ([]entities.CardToken, error) {
	out := []entities.CardToken{}
	for _, t := range f.tokens {
		if t.UserId == userId && t.TenantId == tenantId && !t.Status.IsDeleted() {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeVault) GetForTransaction(cardId, userId, tenantId string) (entities.TokenPayload, entities.CardToken, error) {
	token, err := f.find(cardId, userId, tenantId)
	if err != nil {
		return entities.TokenPayload{}, entities.CardToken{}, err
	}
	if !token.Status.IsActive() {
		return entities.TokenPayload{}, entities.CardToken{}, perrors.NewTokenNotFoundError(cardId)
	}
	now := time.Now().UTC()
	token.LastUsedAt = &now
	f.tokens[cardId] = token
	return f.payloads[cardId], token, nil
}

func (f *fakeVault) OpenPayload(cardId, userId, tenantId string) (entities.TokenPayload, error) {
	if _, err := f.find(cardId, userId, tenantId); err != nil {
		return entities.TokenPayload{}, err
	}
	return f.payloads[cardId], nil
}

func (f *fakeVault) SetDefault(cardId, userId, tenantId string) error {
	token, err := f.find(cardId, userId, tenantId)
	if err != nil {
		return err
	}
	f.clearDefault(userId, tenantId)
	token.IsDefault = true
	f.tokens[cardId] = token
	return nil
}

func (f *fakeVault) UpdateStatus(cardId, userId, tenantId string, from []constants.TokenStatus, to constants.TokenStatus) error {
	token, err := f.find(cardId, userId, tenantId)
	if err != nil {
		return err
	}
	allowed := false
	for _, s := range from {
		if token.Status == s {
			allowed = true
		}
	}
	if !allowed {
		return perrors.NewTokenNotFoundError(cardId)
	}
	token.Status = to
	f.tokens[cardId] = token
	return nil
}

func (f *fakeVault) Delete(cardId, userId, tenantId string) error {
	token, err := f.find(cardId, userId, tenantId)
	if err != nil {
		return err
	}
	token.Status = constants.TokenDeleted
	token.DeviceBindings = nil
	f.tokens[cardId] = token
	return nil
}

func (f *fakeVault) AddDeviceBinding(cardId, userId, tenantId, deviceId string) error {
	token, err := f.find(cardId, userId, tenantId)
	if err != nil {
		return err
	}
	if !token.Status.IsActive() {
		return perrors.NewTokenNotFoundError(cardId)
	}
	for _, bound := range token.DeviceBindings {
		if bound == deviceId {
			return nil
		}
	}
	token.DeviceBindings = append(token.DeviceBindings, deviceId)
	f.tokens[cardId] = token
	return nil
}

func (f *fakeVault) IsDeviceBound(cardId, deviceId, userId, tenantId string) (bool, error) {
	token, err := f.find(cardId, userId, tenantId)
	if err != nil {
		return false, err
	}
	for _, bound := range token.DeviceBindings {
		if bound == deviceId {
			return true, nil
		}
	}
	return false, nil
}

type fakeDeviceStore struct {
	bindings map[string]entities.DeviceBinding
}

func newFakeDeviceStore() *fakeDeviceStore {
	return &fakeDeviceStore{bindings: map[string]entities.DeviceBinding{}}
}

func (f *fakeDeviceStore) Upsert(binding entities.DeviceBinding) error {
	f.bindings[binding.DeviceId] = binding
	return nil
}
func (f *fakeDeviceStore) FindById(deviceId string) (entities.DeviceBinding, error) {
	binding, ok := f.bindings[deviceId]
	if !ok {
		return entities.DeviceBinding{}, perrors.NewValidationError("no binding for device %v", deviceId)
	}
	return binding, nil
}
func (f *fakeDeviceStore) DeleteByCard(cardId string) error {
	for id, b := range f.bindings {
		if b.CardId == cardId {
			delete(f.bindings, id)
		}
	}
	return nil
}

// fakeSessionStore mirrors the mongo store's semantics: Consume flips PENDING
// to CONSUMED exactly once and evaluates expiry lazily on read.
type fakeSessionStore struct {
	sessions map[string]entities.TapToPaySession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]entities.TapToPaySession{}}
}

func (f *fakeSessionStore) Create(session entities.TapToPaySession) error {
	f.sessions[session.SessionId] = session
	return nil
}
func (f *fakeSessionStore) FindById(sessionId string) (entities.TapToPaySession, error) {
	session, ok := f.sessions[sessionId]
	if !ok {
		return entities.TapToPaySession{}, perrors.NewSessionExpiredError(sessionId)
	}
	return session, nil
}
func (f *fakeSessionStore) Consume(sessionId string, now time.Time) (entities.TapToPaySession, error) {
	session, ok := f.sessions[sessionId]
	if !ok || session.Status != constants.SessionPending {
		return entities.TapToPaySession{}, perrors.NewSessionExpiredError(sessionId)
	}
	if session.IsExpiredAt(now) {
		session.Status = constants.SessionExpired
		f.sessions[sessionId] = session
		return entities.TapToPaySession{}, perrors.NewSessionExpiredError(sessionId)
	}
	session.Status = constants.SessionConsumed
	f.sessions[sessionId] = session
	return session, nil
}

type fakeAudit struct {
	entries []request_params.AuditEntry
}

func (f *fakeAudit) Record(entry request_params.AuditEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAudit) actions() []string {
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakeTxLog struct {
	saved []entities.RailResult
}

func (f *fakeTxLog) Save(result entities.RailResult) error {
	f.saved = append(f.saved, result)
	return nil
}
func (f *fakeTxLog) FindByReference(reference string) (entities.RailResult, error) {
	for _, r := range f.saved {
		if r.Reference == reference {
			return r, nil
		}
	}
	return entities.RailResult{}, perrors.NewValidationError("no transaction found for reference %s", reference)
}

type fakeAccounts struct {
	balances map[string]float64
}

func (f *fakeAccounts) GetBalance(accountId string) (entities.AccountBalance, error) {
	balance, ok := f.balances[accountId]
	if !ok {
		return entities.AccountBalance{}, perrors.NewValidationError("account %v not found", accountId)
	}
	return entities.AccountBalance{AccountId: accountId, Balance: balance, Currency: "TZS"}, nil
}

type fakeEvents struct {
	published []entities.RailResult
}

func (f *fakeEvents) PublishResult(result entities.RailResult) error {
	f.published = append(f.published, result)
	return nil
}

type fakeMqtt struct {
	messages map[string][]string
}

func newFakeMqtt() *fakeMqtt { return &fakeMqtt{messages: map[string][]string{}} }

func (f *fakeMqtt) Publish(topic, message string, retain bool) error {
	f.messages[topic] = append(f.messages[topic], message)
	return nil
}

type fakeFirebase struct {
	sent []string
}

func (f *fakeFirebase) Send(topic, title, body string, data map[string]interface{}) error {
	f.sent = append(f.sent, fmt.Sprintf("%s: %s", topic, title))
	return nil
}
func (f *fakeFirebase) SendByToken(tokens []string, title, body string, data map[string]interface{}) error {
	return nil
}

// testFixture bundles the application with every fake behind it.
type testFixture struct {
	app      *PaymentApplication
	isw      *fakeInstantSwitch
	gov      *fakeGovGateway
	agg      *fakeBillAggregator
	network  *fakeCardNetwork
	vault    *fakeVault
	devices  *fakeDeviceStore
	sessions *fakeSessionStore
	audit    *fakeAudit
	txLog    *fakeTxLog
	accounts *fakeAccounts
	events   *fakeEvents
	mqtt     *fakeMqtt
	firebase *fakeFirebase
}

func allFeatures() configs.Features {
	return configs.Features{QRPayments: true, BillPayments: true, Airtime: true, Cards: true, TapToPay: true}
}

func newFixture(t *testing.T, features configs.Features) *testFixture {
	t.Helper()

	f := &testFixture{
		isw:      &fakeInstantSwitch{accountNames: map[string]string{}},
		gov:      &fakeGovGateway{},
		agg:      &fakeBillAggregator{},
		network:  &fakeCardNetwork{},
		vault:    newFakeVault(),
		devices:  newFakeDeviceStore(),
		sessions: newFakeSessionStore(),
		audit:    &fakeAudit{},
		txLog:    &fakeTxLog{},
		accounts: &fakeAccounts{balances: map[string]float64{}},
		events:   &fakeEvents{},
		mqtt:     newFakeMqtt(),
		firebase: &fakeFirebase{},
	}

	f.app = &PaymentApplication{
		TenantId: "bank-one",
		Tenant: configs.TenantConfig{
			Enabled:  true,
			Currency: "TZS",
			Features: features,
		},
		Config:         &configs.Config{},
		Logger:         zap.NewNop(),
		IPool:          syncPool{},
		InstantSwitch:  f.isw,
		GovGateway:     f.gov,
		BillAggregator: f.agg,
		CardNetwork:    f.network,
		Vault:          f.vault,
		IDevice:        f.devices,
		ISession:       f.sessions,
		IAudit:         f.audit,
		TxLog:          f.txLog,
		Accounts:       f.accounts,
		Events:         f.events,
		MQTT:           f.mqtt,
		Firebase:       f.firebase,
		Alerts:         telegram.NewNotifier("", 0),
		SessionTTL:     90 * time.Second,
	}
	return f
}
