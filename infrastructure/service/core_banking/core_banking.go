package core_banking

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"payments-system/domain/entities"
	perrors "payments-system/errors"

	"go.uber.org/zap"
)

const timeout = time.Second * 15

type repoImpl struct {
	Uri    string
	Logger *zap.Logger
}

func NewRepoImpl(uri string, logger *zap.Logger) *repoImpl {
	return &repoImpl{Uri: uri, Logger: logger}
}

type balanceResponse struct {
	AccountId string  `json:"account_id"`
	Available float64 `json:"available"`
	Currency  string  `json:"currency"`
	Status    string  `json:"status"`
	Message   string  `json:"message"`
}

// GetBalance asks core banking for the available balance before a debit is
// attempted. Core banking is the source of truth; nothing is cached here.
func (r repoImpl) GetBalance(accountId string) (entities.AccountBalance, error) {
	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequest("GET", fmt.Sprintf("%vaccounts/%v/balance", r.Uri, accountId), nil)
	if err != nil {
		return entities.AccountBalance{}, err
	}
	req.Header.Add("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return entities.AccountBalance{}, perrors.NewRailTransportError("CORE_BANKING", err)
	}
	defer resp.Body.Close()

	responseByte, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return entities.AccountBalance{}, perrors.NewRailTransportError("CORE_BANKING", err)
	}

	r.Logger.With(zap.String("account_id", accountId)).
		With(zap.Int("status_code", resp.StatusCode)).
		Info("core_banking_balance")

	if resp.StatusCode >= 500 {
		return entities.AccountBalance{}, perrors.NewRailTransportError("CORE_BANKING",
			fmt.Errorf("core banking returned HTTP %d", resp.StatusCode))
	}

	var response balanceResponse
	if err = json.Unmarshal(responseByte, &response); err != nil {
		r.Logger.With(zap.Error(err)).Error("can not unmarshal core banking response")
		return entities.AccountBalance{}, err
	}

	if resp.StatusCode != http.StatusOK {
		return entities.AccountBalance{}, perrors.NewValidationError("core banking rejected account %v: %v", accountId, response.Message)
	}

	return entities.AccountBalance{
		AccountId: response.AccountId,
		Balance:   response.Available,
		Currency:  response.Currency,
	}, nil
}
