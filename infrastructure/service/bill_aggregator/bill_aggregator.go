package bill_aggregator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"payments-system/domain/constants"
	"payments-system/domain/entities"
	wire "payments-system/domain/entities/bill_aggregator"
	"payments-system/domain/repositories"
	"payments-system/domain/request_params"
	perrors "payments-system/errors"
	"payments-system/utils/configs"
	"payments-system/utils/crypt"
	"payments-system/utils/gen_ids"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

const timeout = time.Second * 30

type repoImpl struct {
	Uri          string
	Currency     string
	ApiKey       string
	Secret       string
	SignedFields []string
	Logger       *zap.Logger
	TxLog        repositories.ITransactionLog
	Events       repositories.IEventStream
}

func NewRepoImpl(cfg configs.BillAggregatorConfig, currency string, logger *zap.Logger, txLog repositories.ITransactionLog, events repositories.IEventStream) *repoImpl {
	return &repoImpl{
		Uri:          cfg.Uri,
		Currency:     currency,
		ApiKey:       cfg.ApiKey,
		Secret:       cfg.Secret,
		SignedFields: cfg.SignedFields,
		Logger:       logger,
		TxLog:        txLog,
		Events:       events,
	}
}

func (r repoImpl) Kind() constants.RailKind {
	return constants.RailBillAggregator
}

func (r repoImpl) GenerateReference() string {
	return gen_ids.GenerateReference(constants.PrefixBillAggregator)
}

func (r repoImpl) Validate(req request_params.PaymentRequest) error {
	if req.Amount <= 0 {
		return perrors.NewValidationError("amount must be positive, got %v", req.Amount)
	}
	if req.Destination == "" {
		return perrors.NewValidationError("biller reference is required")
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
	_, err := r.GetBillers()
	status := entities.HealthStatus{
		Rail:      constants.RailBillAggregator,
		Healthy:   err == nil,
		Timestamp: time.Now().UTC(),
	}
	if err != nil {
		status.Message = err.Error()
	}
	return status
}

func (r repoImpl) GetBillers() ([]entities.Biller, error) {
	var response wire.BillersResponse
	if err := r.httpRequest("billers", nil, &response); err != nil {
		return nil, err
	}
	if !response.ResultCode.IsSuccess() {
		return nil, errors.New(response.Message)
	}

	billers := make([]entities.Biller, 0, len(response.Billers))
	for _, b := range response.Billers {
		billers = append(billers, entities.Biller{Code: b.Code, Name: b.Name, Category: b.Category})
	}
	return billers, nil
}

func (r repoImpl) ValidateReference(billerCode, customerRef string) (entities.BillerReference, error) {
	request := wire.ValidateRequest{
		BillerCode:  billerCode,
		CustomerRef: customerRef,
		Reference:   r.GenerateReference(),
	}

	var response wire.ValidateResponse
	if err := r.httpRequest("validate", request, &response); err != nil {
		return entities.BillerReference{}, err
	}

	return entities.BillerReference{
		BillerCode:   billerCode,
		CustomerRef:  customerRef,
		CustomerName: response.CustomerName,
		AmountDue:    response.AmountDue,
		Valid:        response.ResultCode.IsSuccess(),
	}, nil
}

func (r repoImpl) PayBill(req request_params.BillerPayRequest) (entities.RailResult, error) {
	reference := r.GenerateReference()
	request := wire.PaymentRequest{
		BillerCode:  req.BillerCode,
		CustomerRef: req.CustomerRef,
		Amount:      req.Amount,
		Currency:    r.Currency,
		PayerPhone:  req.PayerPhone,
		Reference:   reference,
	}

	var response wire.PaymentResponse
	if err := r.httpRequest("pay", request, &response); err != nil {
		return entities.RailResult{}, err
	}
	if !response.ResultCode.IsSuccess() && !response.ResultCode.IsPending() {
		return entities.RailResult{}, errors.New(response.Message)
	}

	result := entities.RailResult{
		Reference:        reference,
		RailReference:    response.AggregatorId,
		Rail:             constants.RailBillAggregator,
		NormalizedStatus: wire.NormalizeStatus(response.Status),
		RawStatus:        response.Status,
		RawMessage:       response.Message,
		// e.g. a prepaid meter redemption code; must reach the caller verbatim.
		ProviderToken: response.ProviderToken,
		Amount:        req.Amount,
		Currency:      r.Currency,
		Timestamp:     time.Now().UTC(),
	}

	r.LogTransaction(result)
	return result, nil
}

// BuyAirtime maps the network name to the aggregator's biller code and pays
// it like any other bill. Unknown networks are rejected, never guessed.
func (r repoImpl) BuyAirtime(req request_params.AirtimeRequest) (entities.RailResult, error) {
	billerCode, err := constants.AirtimeBillerCode(req.Network)
	if err != nil {
		return entities.RailResult{}, err
	}

	reference := r.GenerateReference()
	request := wire.AirtimeRequest{
		BillerCode: billerCode,
		Phone:      req.Phone,
		Amount:     req.Amount,
		Currency:   r.Currency,
		Reference:  reference,
	}

	var response wire.PaymentResponse
	if err := r.httpRequest("airtime", request, &response); err != nil {
		return entities.RailResult{}, err
	}
	if !response.ResultCode.IsSuccess() && !response.ResultCode.IsPending() {
		return entities.RailResult{}, errors.New(response.Message)
	}

	result := entities.RailResult{
		Reference:        reference,
		RailReference:    response.AggregatorId,
		Rail:             constants.RailBillAggregator,
		NormalizedStatus: wire.NormalizeStatus(response.Status),
		RawStatus:        response.Status,
		RawMessage:       response.Message,
		Amount:           req.Amount,
		Currency:         r.Currency,
		Timestamp:        time.Now().UTC(),
	}

	r.LogTransaction(result)
	return result, nil
}

func (r repoImpl) GetStatus(reference string) (entities.RailResult, error) {
	request := wire.StatusRequest{Reference: reference}

	var response wire.StatusResponse
	if err := r.httpRequest("status", request, &response); err != nil {
		return entities.RailResult{}, err
	}

	return entities.RailResult{
		Reference:        reference,
		RailReference:    response.AggregatorId,
		Rail:             constants.RailBillAggregator,
		NormalizedStatus: wire.NormalizeStatus(response.Status),
		RawStatus:        response.Status,
		RawMessage:       response.Message,
		Timestamp:        time.Now().UTC(),
	}, nil
}

// httpRequest HMAC-signs serialized body + timestamp; the api key, the list of
// signed field names and the timestamp travel as headers alongside the signature.
func (r repoImpl) httpRequest(path string, body interface{}, response interface{}) error {
	client := &http.Client{Timeout: timeout}

	var jsonrequest []byte
	var err error
	method := "GET"
	if body != nil {
		method = "POST"
		jsonrequest, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}

	req, err := http.NewRequest(method, fmt.Sprintf("%v%v", r.Uri, path), bytes.NewReader(jsonrequest))
	if err != nil {
		return err
	}

	ts := cast.ToString(time.Now().Unix())
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("X-Api-Key", r.ApiKey)
	req.Header.Add("X-Timestamp", ts)
	req.Header.Add("X-Signed-Fields", strings.Join(r.SignedFields, ","))
	req.Header.Add("X-Signature", crypt.HmacSHA256(string(jsonrequest)+ts, r.Secret))

	r.Logger.With(zap.String("uri", r.Uri+path)).
		With(zap.String("request", string(jsonrequest))).
		Info("bill_aggregator_request")

	resp, err := client.Do(req)
	if err != nil {
		return perrors.NewRailTransportError(string(constants.RailBillAggregator), err)
	}
	defer resp.Body.Close()

	responseByte, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return perrors.NewRailTransportError(string(constants.RailBillAggregator), err)
	}

	r.Logger.With(zap.String("uri", r.Uri+path)).
		With(zap.String("response", string(responseByte))).
		Info("bill_aggregator_response")

	if resp.StatusCode >= 500 {
		return perrors.NewRailTransportError(string(constants.RailBillAggregator),
			fmt.Errorf("aggregator returned HTTP %d", resp.StatusCode))
	}

	if err = json.Unmarshal(responseByte, response); err != nil {
		r.Logger.With(zap.Error(err)).Error("can not unmarshal aggregator response")
		return err
	}

	return nil
}
