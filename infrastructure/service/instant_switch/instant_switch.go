package instant_switch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"payments-system/domain/constants"
	entities "payments-system/domain/entities"
	wire "payments-system/domain/entities/instant_switch"
	"payments-system/domain/repositories"
	"payments-system/domain/request_params"
	perrors "payments-system/errors"
	"payments-system/utils/configs"
	"payments-system/utils/gen_ids"
	"payments-system/utils/helpers"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// The instant switch is the slowest rail; transfers can take well over a minute.
const timeout = time.Second * 90

type repoImpl struct {
	Uri        string
	ClientCode string
	Secret     string
	Logger     *zap.Logger
	TxLog      repositories.ITransactionLog
	Events     repositories.IEventStream
}

func NewRepoImpl(cfg configs.InstantSwitchConfig, logger *zap.Logger, txLog repositories.ITransactionLog, events repositories.IEventStream) *repoImpl {
	return &repoImpl{
		Uri:        cfg.Uri,
		ClientCode: cfg.ClientCode,
		Secret:     cfg.Secret,
		Logger:     logger,
		TxLog:      txLog,
		Events:     events,
	}
}

func (r repoImpl) Kind() constants.RailKind {
	return constants.RailInstantSwitch
}

func (r repoImpl) GenerateReference() string {
	return gen_ids.GenerateReference(constants.PrefixInstantSwitch)
}

func (r repoImpl) Validate(req request_params.PaymentRequest) error {
	if req.Amount <= 0 {
		return perrors.NewValidationError("amount must be positive, got %v", req.Amount)
	}
	if req.Destination == "" {
		return perrors.NewValidationError("destination account is required")
	}
	return nil
}

// LogTransaction never fails the payment path; store and stream errors are
// logged and swallowed.
func (r repoImpl) LogTransaction(res entities.RailResult) {
	if err := r.TxLog.Save(res); err != nil {
		r.Logger.With(zap.Error(err)).With(zap.String("reference", res.Reference)).Warn("transaction log write failed")
	}
	if err := r.Events.PublishResult(res); err != nil {
		r.Logger.With(zap.Error(err)).With(zap.String("reference", res.Reference)).Warn("transaction event publish failed")
	}
}

func (r repoImpl) HealthCheck() entities.HealthStatus {
	_, err := r.GetBanks()
	status := entities.HealthStatus{
		Rail:      constants.RailInstantSwitch,
		Healthy:   err == nil,
		Timestamp: time.Now().UTC(),
	}
	if err != nil {
		status.Message = err.Error()
	}
	return status
}

func (r repoImpl) ValidateAccount(accountNumber, destinationCode string) (string, error) {
	request := wire.AccountValidationRequest{
		ClientCode:      r.ClientCode,
		AccountNumber:   accountNumber,
		DestinationCode: destinationCode,
		Reference:       r.GenerateReference(),
		TransTime:       time.Now().Unix(),
	}

	var response wire.AccountValidationResponse
	if err := r.httpRequest("account/validate", request, &response); err != nil {
		return "", err
	}

	if !response.ErrorCode.IsSuccess() {
		return "", errors.New(response.Message)
	}

	return response.AccountName, nil
}

func (r repoImpl) Transfer(intent entities.TransferIntent) (entities.RailResult, error) {
	return r.transfer(intent, intent.DestinationIdentifier)
}

// TransferToMobile maps a mobile-money brand to the switch's destination type
// code and rides the same transfer path. Unknown brands are rejected.
func (r repoImpl) TransferToMobile(intent entities.TransferIntent, network string) (entities.RailResult, error) {
	code, err := constants.MobileNetworkCode(network)
	if err != nil {
		return entities.RailResult{}, err
	}
	return r.transfer(intent, code)
}

func (r repoImpl) transfer(intent entities.TransferIntent, destinationCode string) (entities.RailResult, error) {
	reference := r.GenerateReference()

	request := wire.TransferRequest{
		ClientCode:      r.ClientCode,
		Reference:       reference,
		TransTime:       time.Now().Unix(),
		DestinationCode: destinationCode,
		Data: wire.TransferData{
			SourceAccount:      intent.SourceAccount,
			DestinationAccount: intent.DestinationAccount,
			Amount:             intent.Amount,
			Currency:           intent.Currency,
			Narration:          intent.Narration,
			SenderName:         intent.SenderName,
			SenderPhone:        intent.SenderPhone,
			RecipientName:      intent.RecipientName,
			RecipientPhone:     intent.RecipientPhone,
		},
	}

	var response wire.TransferResponse
	if err := r.httpRequest("transfer", request, &response); err != nil {
		return entities.RailResult{}, err
	}

	result := entities.RailResult{
		Reference:        reference,
		RailReference:    response.SwitchTraceId,
		Rail:             constants.RailInstantSwitch,
		NormalizedStatus: wire.NormalizeStatus(response.Status),
		RawStatus:        response.Status,
		RawMessage:       response.Message,
		Amount:           intent.Amount,
		Currency:         intent.Currency,
		Timestamp:        time.Now().UTC(),
	}

	if response.ErrorCode.IsFail() {
		result.NormalizedStatus = constants.StatusFailed
	}

	r.LogTransaction(result)
	return result, nil
}

func (r repoImpl) GetTransferStatus(reference string) (entities.RailResult, error) {
	request := wire.StatusRequest{
		ClientCode: r.ClientCode,
		Reference:  reference,
		TransTime:  time.Now().Unix(),
	}

	var response wire.StatusResponse
	if err := r.httpRequest("transfer/status", request, &response); err != nil {
		return entities.RailResult{}, err
	}

	return entities.RailResult{
		Reference:        reference,
		RailReference:    response.SwitchTraceId,
		Rail:             constants.RailInstantSwitch,
		NormalizedStatus: wire.NormalizeStatus(response.Status),
		RawStatus:        response.Status,
		RawMessage:       response.Message,
		Timestamp:        time.Now().UTC(),
	}, nil
}

func (r repoImpl) GetBanks() ([]entities.Bank, error) {
	var response wire.BanksResponse
	if err := r.httpRequest("bank/active", nil, &response); err != nil {
		return nil, err
	}

	if !response.ErrorCode.IsSuccess() {
		return nil, errors.New(response.Message)
	}

	banks := make([]entities.Bank, 0, len(response.Banks))
	for _, b := range response.Banks {
		banks = append(banks, entities.Bank{Code: b.Code, Name: b.Name, Active: b.Active})
	}
	return banks, nil
}

// httpRequest signs the serialized body with SHA-256(body + timestamp + secret)
// and sends signature and timestamp as headers. Clock skew is not compensated:
// a receiver with stale time will reject, which operators must surface.
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
	req.Header.Add("X-Timestamp", ts)
	req.Header.Add("X-Signature", helpers.CreateHash(string(jsonrequest)+ts+r.Secret))

	r.Logger.With(zap.String("uri", r.Uri+path)).
		With(zap.String("request", string(jsonrequest))).
		Info("instant_switch_request")

	resp, err := client.Do(req)
	if err != nil {
		return perrors.NewRailTransportError(string(constants.RailInstantSwitch), err)
	}
	defer resp.Body.Close()

	responseByte, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return perrors.NewRailTransportError(string(constants.RailInstantSwitch), err)
	}

	r.Logger.With(zap.String("uri", r.Uri+path)).
		With(zap.String("response", string(responseByte))).
		Info("instant_switch_response")

	if resp.StatusCode >= 500 {
		return perrors.NewRailTransportError(string(constants.RailInstantSwitch),
			fmt.Errorf("switch returned HTTP %d", resp.StatusCode))
	}

	if err = json.Unmarshal(responseByte, response); err != nil {
		r.Logger.With(zap.Error(err)).Error("can not unmarshal switch response")
		return err
	}

	return nil
}
