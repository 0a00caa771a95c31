package card_network

import (
	"bytes"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"time"

	"payments-system/domain/constants"
	"payments-system/domain/entities"
	wire "payments-system/domain/entities/card_network"
	perrors "payments-system/errors"
	"payments-system/utils/configs"
	"payments-system/utils/crypt"
	"payments-system/utils/gen_ids"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

const timeout = time.Second * 45

type repoImpl struct {
	Uri              string
	ClientId         string
	Secret           string
	NetworkPublicKey *rsa.PublicKey
	Logger           *zap.Logger
}

func NewRepoImpl(cfg configs.CardNetworkConfig, logger *zap.Logger) (*repoImpl, error) {
	networkKey, err := crypt.ParseRSAPublicKey(cfg.NetworkPublicKeyPem)
	if err != nil {
		return nil, fmt.Errorf("card network public key: %w", err)
	}

	return &repoImpl{
		Uri:              cfg.Uri,
		ClientId:         cfg.ClientId,
		Secret:           cfg.Secret,
		NetworkPublicKey: networkKey,
		Logger:           logger,
	}, nil
}

// Tokenize replaces PAN+CVV with a network token. Sensitive fields are
// RSA-OAEP encrypted to the network's key; cleartext never travels.
func (r repoImpl) Tokenize(details entities.CardDetails) (entities.TokenPayload, string, error) {
	encryptedPan, err := crypt.EncryptOAEP(details.Pan, r.NetworkPublicKey)
	if err != nil {
		return entities.TokenPayload{}, "", err
	}
	encryptedExpiry, err := crypt.EncryptOAEP(details.ExpiryMonth+"/"+details.ExpiryYear, r.NetworkPublicKey)
	if err != nil {
		return entities.TokenPayload{}, "", err
	}
	encryptedCvv, err := crypt.EncryptOAEP(details.Cvv, r.NetworkPublicKey)
	if err != nil {
		return entities.TokenPayload{}, "", err
	}

	request := wire.TokenizeRequest{
		ClientId:        r.ClientId,
		EncryptedPan:    encryptedPan,
		EncryptedExpiry: encryptedExpiry,
		EncryptedCvv:    encryptedCvv,
		CardholderName:  details.CardholderName,
		Reference:       gen_ids.GenerateReference(constants.PrefixCardNetwork),
	}

	var response wire.TokenizeResponse
	if err := r.httpRequest("tokens", request, &response); err != nil {
		return entities.TokenPayload{}, "", err
	}
	if !response.ResponseCode.IsApproved() {
		return entities.TokenPayload{}, "", errors.New(response.Message)
	}

	payload := entities.TokenPayload{
		NetworkToken:   response.NetworkToken,
		TokenReference: response.TokenReference,
	}
	return payload, response.Brand, nil
}

func (r repoImpl) SuspendToken(tokenReference string) error {
	return r.tokenAction("tokens/suspend", tokenReference)
}

func (r repoImpl) ResumeToken(tokenReference string) error {
	return r.tokenAction("tokens/resume", tokenReference)
}

func (r repoImpl) DeleteToken(tokenReference string) error {
	return r.tokenAction("tokens/delete", tokenReference)
}

// GetToken reads the network-side status of a token, used to reconcile the
// vault when a lifecycle call fails midway.
func (r repoImpl) GetToken(tokenReference string) (string, error) {
	request := wire.TokenActionRequest{
		ClientId:       r.ClientId,
		TokenReference: tokenReference,
		Reference:      gen_ids.GenerateReference(constants.PrefixCardNetwork),
	}

	var response wire.TokenActionResponse
	if err := r.httpRequest("tokens/status", request, &response); err != nil {
		return "", err
	}
	if !response.ResponseCode.IsApproved() {
		return "", errors.New(response.Message)
	}
	return response.TokenStatus, nil
}

func (r repoImpl) tokenAction(path, tokenReference string) error {
	request := wire.TokenActionRequest{
		ClientId:       r.ClientId,
		TokenReference: tokenReference,
		Reference:      gen_ids.GenerateReference(constants.PrefixCardNetwork),
	}

	var response wire.TokenActionResponse
	if err := r.httpRequest(path, request, &response); err != nil {
		return err
	}
	if !response.ResponseCode.IsApproved() {
		return errors.New(response.Message)
	}
	return nil
}

// GenerateCryptogram asks the network for a single-use payment cryptogram for
// one contactless transaction.
func (r repoImpl) GenerateCryptogram(tokenReference string, amount float64, currency, merchantId string) (string, error) {
	request := wire.CryptogramRequest{
		ClientId:       r.ClientId,
		TokenReference: tokenReference,
		Amount:         amount,
		Currency:       currency,
		MerchantId:     merchantId,
		Reference:      gen_ids.GenerateReference(constants.PrefixCardNetwork),
	}

	var response wire.CryptogramResponse
	if err := r.httpRequest("cryptograms", request, &response); err != nil {
		return "", err
	}
	if !response.ResponseCode.IsApproved() {
		return "", errors.New(response.Message)
	}

	return response.Cryptogram, nil
}

// PushFunds sends money to an arbitrary card. The trace number and retrieval
// reference formats are dictated by the network's interchange rules.
func (r repoImpl) PushFunds(pan string, amount float64, currency, senderName, narration string) (entities.RailResult, error) {
	encryptedPan, err := crypt.EncryptOAEP(pan, r.NetworkPublicKey)
	if err != nil {
		return entities.RailResult{}, err
	}

	reference := gen_ids.GenerateReference(constants.PrefixCardNetwork)
	request := wire.PushFundsRequest{
		ClientId:           r.ClientId,
		EncryptedPan:       encryptedPan,
		Amount:             amount,
		Currency:           currency,
		SenderName:         senderName,
		Narration:          narration,
		TraceNumber:        gen_ids.TraceNumber(),
		RetrievalReference: gen_ids.RetrievalReference(time.Now().UTC()),
		Reference:          reference,
	}

	var response wire.PushFundsResponse
	if err := r.httpRequest("push-payments", request, &response); err != nil {
		return entities.RailResult{}, err
	}
	if !response.ResponseCode.IsApproved() {
		return entities.RailResult{}, errors.New(response.Message)
	}

	return entities.RailResult{
		Reference:        reference,
		RailReference:    response.RetrievalReference,
		Rail:             constants.RailCardNetwork,
		NormalizedStatus: wire.NormalizeStatus(response.Status),
		RawStatus:        response.Status,
		RawMessage:       response.Message,
		Amount:           amount,
		Currency:         currency,
		Timestamp:        time.Now().UTC(),
	}, nil
}

func (r repoImpl) HealthCheck() entities.HealthStatus {
	var response wire.HealthResponse
	err := r.httpRequest("health", nil, &response)

	status := entities.HealthStatus{
		Rail:      constants.RailCardNetwork,
		Healthy:   err == nil && response.Status == "UP",
		Timestamp: time.Now().UTC(),
	}
	if err != nil {
		status.Message = err.Error()
	}
	return status
}

// httpRequest carries the network's derived auth token:
// t=<ts>,v=<HMAC-SHA256(ts + path + query + body)> under the tenant secret.
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

	fullUri := fmt.Sprintf("%v%v", r.Uri, path)
	req, err := http.NewRequest(method, fullUri, bytes.NewReader(jsonrequest))
	if err != nil {
		return err
	}

	parsed, err := url.Parse(fullUri)
	if err != nil {
		return err
	}

	ts := cast.ToString(time.Now().Unix())
	authToken := fmt.Sprintf("t=%s,v=%s", ts,
		crypt.HmacSHA256(ts+parsed.Path+parsed.RawQuery+string(jsonrequest), r.Secret))

	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("X-Client-Id", r.ClientId)
	req.Header.Add("X-Auth-Token", authToken)

	r.Logger.With(zap.String("uri", fullUri)).
		With(zap.String("request", string(jsonrequest))).
		Info("card_network_request")

	resp, err := client.Do(req)
	if err != nil {
		return perrors.NewRailTransportError(string(constants.RailCardNetwork), err)
	}
	defer resp.Body.Close()

	responseByte, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return perrors.NewRailTransportError(string(constants.RailCardNetwork), err)
	}

	r.Logger.With(zap.String("uri", fullUri)).
		With(zap.String("response", string(responseByte))).
		Info("card_network_response")

	if resp.StatusCode >= 500 {
		return perrors.NewRailTransportError(string(constants.RailCardNetwork),
			fmt.Errorf("card network returned HTTP %d", resp.StatusCode))
	}

	if err = json.Unmarshal(responseByte, response); err != nil {
		r.Logger.With(zap.Error(err)).Error("can not unmarshal card network response")
		return err
	}

	return nil
}
