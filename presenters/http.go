package presenters

import (
	"encoding/json"
	"net/http"
	"time"

	"payments-system/application"
	"payments-system/domain/request_params"
	perrors "payments-system/errors"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Handler bridges the HTTP surface to the per-tenant applications. The tenant
// is resolved from the X-Tenant-Id header on every request.
type Handler struct {
	Registry *application.Registry
	Logger   *zap.Logger
}

func NewHandler(registry *application.Registry, logger *zap.Logger) *Handler {
	return &Handler{Registry: registry, Logger: logger}
}

// NewRouter registers every exposed operation.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Get("/healthz", h.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/merchants/validate", h.handleValidateMerchant)
		r.Post("/payments/qr", h.handlePayQR)
		r.Get("/banks", h.handleGetBanks)
		r.Get("/transactions/{reference}", h.handleTransactionStatus)

		r.Get("/service-providers", h.handleServiceProviders)
		r.Get("/bills/{controlNumber}", h.handleLookupBill)
		r.Post("/bills/pay", h.handlePayGovBill)
		r.Get("/receipts/{receiptNumber}/verify", h.handleVerifyReceipt)

		r.Get("/billers", h.handleGetBillers)
		r.Post("/billers/validate", h.handleValidateBiller)
		r.Post("/billers/pay", h.handlePayBiller)
		r.Post("/airtime", h.handleBuyAirtime)

		r.Post("/cards", h.handleAddCard)
		r.Get("/cards", h.handleListCards)
		r.Post("/cards/{cardId}/default", h.handleSetDefaultCard)
		r.Post("/cards/{cardId}/suspend", h.handleSuspendCard)
		r.Post("/cards/{cardId}/resume", h.handleResumeCard)
		r.Delete("/cards/{cardId}", h.handleDeleteCard)
		r.Post("/cards/{cardId}/wallet-provision", h.handleWalletProvision)

		r.Post("/tap-to-pay/eligibility", h.handleDeviceEligibility)
		r.Post("/tap-to-pay/bindings", h.handleBindDevice)
		r.Post("/tap-to-pay/sessions", h.handlePrepareTapToPay)
		r.Post("/tap-to-pay/sessions/{sessionId}/consume", h.handleConsumeTapToPay)
	})

	return r
}

func (h *Handler) app(w http.ResponseWriter, r *http.Request) (*application.PaymentApplication, bool) {
	tenantId := r.Header.Get("X-Tenant-Id")
	if tenantId == "" {
		h.writeError(w, perrors.NewValidationError("X-Tenant-Id header is required"))
		return nil, false
	}

	app, err := h.Registry.Get(tenantId)
	if err != nil {
		h.writeError(w, err)
		return nil, false
	}
	return app, true
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	tenantId := r.Header.Get("X-Tenant-Id")
	if tenantId == "" {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "up"})
		return
	}

	app, err := h.Registry.Get(tenantId)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, app.HealthCheck())
}

func (h *Handler) handleValidateMerchant(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}

	var body struct {
		Input string `json:"input"`
	}
	if !h.decode(w, r, &body) {
		return
	}

	info, err := app.ValidateMerchant(body.Input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, info)
}

func (h *Handler) handlePayQR(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}

	var req request_params.QRPayRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := app.PayQRMerchant(req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGetBanks(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}

	banks, err := app.InstantSwitch.GetBanks()
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, banks)
}

func (h *Handler) handleTransactionStatus(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}

	result, err := app.GetTransactionStatus(chi.URLParam(r, "reference"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleServiceProviders(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}

	providers, err := app.GetServiceProviders()
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, providers)
}

func (h *Handler) handleLookupBill(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}

	bill, err := app.LookupBill(chi.URLParam(r, "controlNumber"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, bill)
}

func (h *Handler) handlePayGovBill(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}

	var req request_params.GovBillPayRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := app.PayGovernmentBill(req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleVerifyReceipt(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}

	valid, err := app.VerifyReceipt(chi.URLParam(r, "receiptNumber"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

func (h *Handler) handleGetBillers(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}

	billers, err := app.GetBillers()
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, billers)
}

func (h *Handler) handleValidateBiller(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}

	var body struct {
		BillerCode  string `json:"biller_code"`
		CustomerRef string `json:"customer_ref"`
	}
	if !h.decode(w, r, &body) {
		return
	}

	ref, err := app.ValidateBillerReference(body.BillerCode, body.CustomerRef)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ref)
}

func (h *Handler) handlePayBiller(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}

	var req request_params.BillerPayRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := app.PayBillerBill(req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleBuyAirtime(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}

	var req request_params.AirtimeRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := app.BuyAirtime(req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleAddCard(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}

	var req request_params.AddCardRequest
	if !h.decode(w, r, &req) {
		return
	}

	token, err := app.AddCard(req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, token)
}

func (h *Handler) handleListCards(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}

	userId := r.URL.Query().Get("user_id")
	if userId == "" {
		h.writeError(w, perrors.NewValidationError("user_id query parameter is required"))
		return
	}

	cards, err := app.ListCards(userId)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, cards)
}

type cardActionRequest struct {
	UserId string `json:"user_id"`
}

func (h *Handler) cardAction(w http.ResponseWriter, r *http.Request, action func(app *application.PaymentApplication, cardId, userId string) error) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}

	var body cardActionRequest
	if !h.decode(w, r, &body) {
		return
	}

	if err := action(app, chi.URLParam(r, "cardId"), body.UserId); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleSetDefaultCard(w http.ResponseWriter, r *http.Request) {
	h.cardAction(w, r, func(app *application.PaymentApplication, cardId, userId string) error {
		return app.SetDefaultCard(cardId, userId)
	})
}

func (h *Handler) handleSuspendCard(w http.ResponseWriter, r *http.Request) {
	h.cardAction(w, r, func(app *application.PaymentApplication, cardId, userId string) error {
		return app.SuspendCard(cardId, userId)
	})
}

func (h *Handler) handleResumeCard(w http.ResponseWriter, r *http.Request) {
	h.cardAction(w, r, func(app *application.PaymentApplication, cardId, userId string) error {
		return app.ResumeCard(cardId, userId)
	})
}

func (h *Handler) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}

	userId := r.URL.Query().Get("user_id")
	if userId == "" {
		h.writeError(w, perrors.NewValidationError("user_id query parameter is required"))
		return
	}

	if err := app.DeleteCard(chi.URLParam(r, "cardId"), userId); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) handleWalletProvision(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}

	var body struct {
		UserId         string `json:"user_id"`
		WalletProvider string `json:"wallet_provider"`
	}
	if !h.decode(w, r, &body) {
		return
	}

	payload, err := app.WalletProvisioning(chi.URLParam(r, "cardId"), body.UserId, body.WalletProvider)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) handleDeviceEligibility(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}

	var profile request_params.DeviceProfile
	if !h.decode(w, r, &profile) {
		return
	}

	eligible, reason := app.DeviceEligibility(profile)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"eligible": eligible,
		"reason":   reason,
	})
}

func (h *Handler) handleBindDevice(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}

	var body struct {
		UserId  string                       `json:"user_id"`
		CardId  string                       `json:"card_id"`
		Profile request_params.DeviceProfile `json:"profile"`
	}
	if !h.decode(w, r, &body) {
		return
	}

	binding, err := app.BindDevice(body.UserId, body.CardId, body.Profile)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, binding)
}

func (h *Handler) handlePrepareTapToPay(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}

	var req request_params.PrepareTapToPayRequest
	if !h.decode(w, r, &req) {
		return
	}

	session, err := app.PrepareTransaction(req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleConsumeTapToPay(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}

	var pos request_params.POSResult
	if !h.decode(w, r, &pos) {
		return
	}
	pos.SessionId = chi.URLParam(r, "sessionId")

	result, err := app.ConsumeTransaction(pos)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, perrors.NewValidationError("request body is not valid JSON"))
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.With(zap.Error(err)).Error("response encode failed")
	}
}

// statusOfCode maps machine codes to HTTP statuses. Unrecognized errors are
// internal failures.
var statusOfCode = map[string]int{
	perrors.CodeValidation:            http.StatusBadRequest,
	perrors.CodeChecksum:              http.StatusBadRequest,
	perrors.CodeUnknownNetwork:        http.StatusBadRequest,
	perrors.CodeAmountMismatch:        http.StatusBadRequest,
	perrors.CodeInsufficientBalance:   http.StatusPaymentRequired,
	perrors.CodeFeatureDisabled:       http.StatusForbidden,
	perrors.CodeAdapterUnavailable:    http.StatusServiceUnavailable,
	perrors.CodeRailTransport:         http.StatusBadGateway,
	perrors.CodeSignatureVerification: http.StatusBadGateway,
	perrors.CodeTokenNotFound:         http.StatusNotFound,
	perrors.CodeDeviceNotAuthorized:   http.StatusForbidden,
	perrors.CodeSessionExpired:        http.StatusGone,
	perrors.CodeBillAlreadyPaid:       http.StatusConflict,
	perrors.CodeControlNumberExpired:  http.StatusConflict,
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	code := perrors.CodeOf(err)
	status, ok := statusOfCode[code]
	if !ok {
		status = http.StatusInternalServerError
		code = "INTERNAL_ERROR"
	}

	h.writeJSON(w, status, map[string]string{
		"code":    code,
		"message": err.Error(),
	})
}
