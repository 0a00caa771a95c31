package gov_gateway

import (
	"bytes"
	"crypto/rsa"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io/ioutil"
	"math"
	"net/http"
	"time"

	"payments-system/domain/constants"
	"payments-system/domain/entities"
	wire "payments-system/domain/entities/gov_gateway"
	"payments-system/domain/repositories"
	"payments-system/domain/request_params"
	perrors "payments-system/errors"
	"payments-system/utils/configs"
	"payments-system/utils/crypt"
	"payments-system/utils/gen_ids"

	"go.uber.org/zap"
)

const timeout = time.Second * 60

// amountTolerance is the largest difference allowed between the looked-up
// bill amount and the caller-supplied amount.
const amountTolerance = 0.01

type repoImpl struct {
	Uri              string
	ServiceCode      string
	PrivateKey       *rsa.PrivateKey
	GatewayPublicKey *rsa.PublicKey
	// Sandbox skips response signature verification. Security-relevant:
	// every skip is logged at Warn so it can never become a silent default.
	Sandbox bool
	Logger  *zap.Logger
	TxLog   repositories.ITransactionLog
	Events  repositories.IEventStream
}

func NewRepoImpl(cfg configs.GovGatewayConfig, logger *zap.Logger, txLog repositories.ITransactionLog, events repositories.IEventStream) (*repoImpl, error) {
	privateKey, err := crypt.ParseRSAPrivateKey(cfg.PrivateKeyPem)
	if err != nil {
		return nil, fmt.Errorf("gov gateway private key: %w", err)
	}

	var gatewayKey *rsa.PublicKey
	if cfg.GatewayPublicKeyPem != "" {
		gatewayKey, err = crypt.ParseRSAPublicKey(cfg.GatewayPublicKeyPem)
		if err != nil {
			return nil, fmt.Errorf("gov gateway public key: %w", err)
		}
	}
	if gatewayKey == nil && !cfg.Sandbox {
		return nil, errors.New("gov gateway public key is required outside sandbox")
	}

	return &repoImpl{
		Uri:              cfg.Uri,
		ServiceCode:      cfg.ServiceCode,
		PrivateKey:       privateKey,
		GatewayPublicKey: gatewayKey,
		Sandbox:          cfg.Sandbox,
		Logger:           logger,
		TxLog:            txLog,
		Events:           events,
	}, nil
}

func (r repoImpl) Kind() constants.RailKind {
	return constants.RailGovGateway
}

func (r repoImpl) GenerateReference() string {
	return gen_ids.GenerateReference(constants.PrefixGovGateway)
}

func (r repoImpl) Validate(req request_params.PaymentRequest) error {
	if req.Amount <= 0 {
		return perrors.NewValidationError("amount must be positive, got %v", req.Amount)
	}
	if req.Destination == "" {
		return perrors.NewValidationError("control number is required")
	}
	return nil
}

func (r repoImpl) LogTransaction(res entities.RailResult) {
	if err := r.TxLog.Save(res); err != nil {
		r.Logger.With(zap.Error(err)).With(zap.String("reference", res.Reference)).Warn("transaction log write failed")
	}
	if err := r.Events.PublishResult(res); err != nil {
		r.Logger.With(zap.Error(err)).With(zap.String("reference", res.Reference)).Warn("transaction event publish failed")
	}
}

func (r repoImpl) HealthCheck() entities.HealthStatus {
	_, err := r.GetServiceProviders()
	status := entities.HealthStatus{
		Rail:      constants.RailGovGateway,
		Healthy:   err == nil,
		Timestamp: time.Now().UTC(),
	}
	if err != nil {
		status.Message = err.Error()
	}
	return status
}

func (r repoImpl) GetServiceProviders() ([]entities.ServiceProvider, error) {
	request := wire.ProvidersRequest{
		ServiceCode: r.ServiceCode,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}

	var response wire.ProvidersResponse
	if err := r.exchange("providers", request, &response); err != nil {
		return nil, err
	}
	if response.ResultCode != wire.ResultSuccess {
		return nil, errors.New(response.ResultDesc)
	}

	providers := make([]entities.ServiceProvider, 0, len(response.Providers))
	for _, p := range response.Providers {
		providers = append(providers, entities.ServiceProvider{Code: p.Code, Name: p.Name})
	}
	return providers, nil
}

func (r repoImpl) LookupBill(controlNumber string) (entities.BillRecord, error) {
	request := wire.BillInquiryRequest{
		ServiceCode:   r.ServiceCode,
		ControlNumber: controlNumber,
		Reference:     r.GenerateReference(),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}

	var response wire.BillInquiryResponse
	if err := r.exchange("bill/inquiry", request, &response); err != nil {
		return entities.BillRecord{}, err
	}
	if response.ResultCode != wire.ResultSuccess {
		return entities.BillRecord{}, errors.New(response.ResultDesc)
	}

	return entities.BillRecord{
		ControlNumber:   response.ControlNumber,
		BillId:          response.BillId,
		Amount:          response.Amount,
		Currency:        response.Currency,
		PayerName:       response.PayerName,
		PayerPhone:      response.PayerPhone,
		ServiceProvider: response.ServiceProvider,
		Description:     response.Description,
		Status:          wire.NormalizeBillStatus(response.BillStatus),
	}, nil
}

// PayBill re-looks the control number up, rejects already-paid or expired
// bills and amounts differing from the billed amount, then sends the signed
// payment. The guard runs before any money moves.
func (r repoImpl) PayBill(req request_params.GovBillPayRequest) (entities.RailResult, error) {
	bill, err := r.LookupBill(req.ControlNumber)
	if err != nil {
		return entities.RailResult{}, err
	}

	if bill.Status.IsPaid() {
		return entities.RailResult{}, perrors.NewBillAlreadyPaidError(req.ControlNumber)
	}
	if !bill.Status.IsPayable() {
		return entities.RailResult{}, perrors.NewControlNumberExpiredError(req.ControlNumber)
	}
	if math.Abs(bill.Amount-req.Amount) > amountTolerance {
		return entities.RailResult{}, perrors.NewAmountMismatchError(bill.Amount, req.Amount)
	}

	reference := r.GenerateReference()
	request := wire.PaymentRequest{
		ServiceCode:   r.ServiceCode,
		ControlNumber: req.ControlNumber,
		Amount:        req.Amount,
		Currency:      bill.Currency,
		PayerName:     req.PayerName,
		PayerPhone:    req.PayerPhone,
		Reference:     reference,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}

	var response wire.PaymentResponse
	if err := r.exchange("bill/payment", request, &response); err != nil {
		return entities.RailResult{}, err
	}
	if response.ResultCode != wire.ResultSuccess {
		return entities.RailResult{}, errors.New(response.ResultDesc)
	}

	result := entities.RailResult{
		Reference:        reference,
		RailReference:    response.GatewayRef,
		Rail:             constants.RailGovGateway,
		NormalizedStatus: wire.NormalizePaymentStatus(response.PaymentStatus),
		RawStatus:        response.PaymentStatus,
		RawMessage:       response.ResultDesc,
		ProviderToken:    response.ReceiptNumber,
		Amount:           req.Amount,
		Currency:         bill.Currency,
		Timestamp:        time.Now().UTC(),
	}

	r.LogTransaction(result)
	return result, nil
}

func (r repoImpl) VerifyReceipt(receiptNumber string) (bool, error) {
	request := wire.ReceiptVerifyRequest{
		ServiceCode:   r.ServiceCode,
		ReceiptNumber: receiptNumber,
		Reference:     r.GenerateReference(),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}

	var response wire.ReceiptVerifyResponse
	if err := r.exchange("receipt/verify", request, &response); err != nil {
		return false, err
	}
	if response.ResultCode != wire.ResultSuccess {
		return false, errors.New(response.ResultDesc)
	}

	return response.Verified, nil
}

func (r repoImpl) GetPaymentStatus(reference string) (entities.RailResult, error) {
	request := wire.StatusRequest{
		ServiceCode: r.ServiceCode,
		Reference:   reference,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}

	var response wire.StatusResponse
	if err := r.exchange("payment/status", request, &response); err != nil {
		return entities.RailResult{}, err
	}

	return entities.RailResult{
		Reference:        reference,
		RailReference:    response.GatewayRef,
		Rail:             constants.RailGovGateway,
		NormalizedStatus: wire.NormalizePaymentStatus(response.PaymentStatus),
		RawStatus:        response.PaymentStatus,
		RawMessage:       response.ResultDesc,
		Timestamp:        time.Now().UTC(),
	}, nil
}

// exchange wraps the business payload in a signed envelope, posts it, verifies
// the response envelope's signature and unmarshals the inner payload.
func (r repoImpl) exchange(path string, payload interface{}, response interface{}) error {
	rawPayload, err := xml.Marshal(payload)
	if err != nil {
		return err
	}

	signature, err := crypt.SignSHA256RSA(string(rawPayload), r.PrivateKey)
	if err != nil {
		return err
	}

	envelope := wire.Envelope{
		Payload:   base64.StdEncoding.EncodeToString(rawPayload),
		Signature: signature,
	}

	body, err := xml.Marshal(envelope)
	if err != nil {
		return err
	}

	r.Logger.With(zap.String("uri", r.Uri+path)).
		With(zap.String("request", string(rawPayload))).
		Info("gov_gateway_request")

	client := &http.Client{Timeout: timeout}
	req, err := http.NewRequest("POST", fmt.Sprintf("%v%v", r.Uri, path), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/xml")

	resp, err := client.Do(req)
	if err != nil {
		return perrors.NewRailTransportError(string(constants.RailGovGateway), err)
	}
	defer resp.Body.Close()

	responseByte, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return perrors.NewRailTransportError(string(constants.RailGovGateway), err)
	}

	if resp.StatusCode >= 500 {
		return perrors.NewRailTransportError(string(constants.RailGovGateway),
			fmt.Errorf("gateway returned HTTP %d", resp.StatusCode))
	}

	var respEnvelope wire.Envelope
	if err = xml.Unmarshal(responseByte, &respEnvelope); err != nil {
		r.Logger.With(zap.Error(err)).Error("can not unmarshal gateway envelope")
		return err
	}

	innerPayload, err := base64.StdEncoding.DecodeString(respEnvelope.Payload)
	if err != nil {
		return err
	}

	if r.Sandbox {
		r.Logger.With(zap.String("uri", r.Uri+path)).
			Warn("SANDBOX MODE: gateway response signature verification skipped")
	} else {
		if err = crypt.VerifySHA256RSA(string(innerPayload), respEnvelope.Signature, r.GatewayPublicKey); err != nil {
			// An unverifiable response is untrusted and must never be applied.
			return perrors.NewSignatureVerificationError(string(constants.RailGovGateway), err)
		}
	}

	r.Logger.With(zap.String("uri", r.Uri+path)).
		With(zap.String("response", string(innerPayload))).
		Info("gov_gateway_response")

	return xml.Unmarshal(innerPayload, response)
}
