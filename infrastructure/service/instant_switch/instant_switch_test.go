package instant_switch

import (
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"

	"payments-system/domain/constants"
	"payments-system/domain/entities"
	wire "payments-system/domain/entities/instant_switch"
	"payments-system/domain/request_params"
	perrors "payments-system/errors"
	"payments-system/utils/configs"
	"payments-system/utils/helpers"
	"payments-system/utils/logger"

	"github.com/stretchr/testify/assert"
)

type fakeTxLog struct {
	saved []entities.RailResult
}

func (f *fakeTxLog) Save(result entities.RailResult) error { f.saved = append(f.saved, result); return nil }
func (f *fakeTxLog) FindByReference(reference string) (entities.RailResult, error) {
	return entities.RailResult{}, nil
}

type fakeEvents struct {
	published []entities.RailResult
}

func (f *fakeEvents) PublishResult(result entities.RailResult) error {
	f.published = append(f.published, result)
	return nil
}

func newTestRepo(t *testing.T, uri string) (*repoImpl, *fakeTxLog, *fakeEvents) {
	t.Helper()
	log, _ := logger.NewLogger("test")
	txLog := &fakeTxLog{}
	events := &fakeEvents{}
	repo := NewRepoImpl(configs.InstantSwitchConfig{
		Uri:        uri,
		ClientCode: "TESTBANK",
		Secret:     "shared-secret",
	}, log, txLog, events)
	return repo, txLog, events
}

func Test_repoImpl_Transfer(t *testing.T) {
	tests := []struct {
		name       string
		response   wire.TransferResponse
		wantStatus constants.NormalizedStatus
	}{
		{
			name:       "successful transfer",
			response:   wire.TransferResponse{ErrorCode: "000", Status: "SUCCESSFUL", SwitchTraceId: "TRC001"},
			wantStatus: constants.StatusCompleted,
		},
		{
			name:       "processing transfer",
			response:   wire.TransferResponse{ErrorCode: "001", Status: "PROCESSING", SwitchTraceId: "TRC002"},
			wantStatus: constants.StatusProcessing,
		},
		{
			name:       "declined transfer",
			response:   wire.TransferResponse{ErrorCode: "403", Status: "REJECTED", Message: "insufficient funds at issuer"},
			wantStatus: constants.StatusFailed,
		},
		{
			name:       "vocabulary the switch never documented",
			response:   wire.TransferResponse{ErrorCode: "000", Status: "ON_HOLD_MAYBE"},
			wantStatus: constants.StatusUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				body, _ := ioutil.ReadAll(req.Body)
				ts := req.Header.Get("X-Timestamp")
				assert.NotEmpty(t, ts)
				assert.Equal(t, helpers.CreateHash(string(body)+ts+"shared-secret"), req.Header.Get("X-Signature"))

				var got wire.TransferRequest
				assert.NoError(t, json.Unmarshal(body, &got))
				assert.Equal(t, "TESTBANK", got.ClientCode)
				assert.Equal(t, "CRDB", got.DestinationCode)

				json.NewEncoder(w).Encode(tt.response)
			}))
			defer server.Close()

			repo, txLog, events := newTestRepo(t, server.URL+"/")

			result, err := repo.Transfer(entities.TransferIntent{
				SourceAccount:         "0152000001",
				DestinationAccount:    "0152000002",
				DestinationIdentifier: "CRDB",
				Amount:                25000,
				Currency:              "TZS",
			})

			assert.NoError(t, err)
			assert.Equal(t, tt.wantStatus, result.NormalizedStatus)
			assert.Equal(t, constants.RailInstantSwitch, result.Rail)
			assert.Equal(t, tt.response.SwitchTraceId, result.RailReference)
			assert.Len(t, txLog.saved, 1)
			assert.Len(t, events.published, 1)
		})
	}
}

func Test_repoImpl_TransferToMobile(t *testing.T) {
	var gotDestination string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var got wire.TransferRequest
		json.NewDecoder(req.Body).Decode(&got)
		gotDestination = got.DestinationCode
		json.NewEncoder(w).Encode(wire.TransferResponse{ErrorCode: "000", Status: "SUCCESSFUL"})
	}))
	defer server.Close()

	repo, _, _ := newTestRepo(t, server.URL+"/")

	intent := entities.TransferIntent{
		SourceAccount:      "0152000001",
		DestinationAccount: "255744000111",
		Amount:             5000,
		Currency:           "TZS",
	}

	_, err := repo.TransferToMobile(intent, "MPESA")
	assert.NoError(t, err)
	assert.Equal(t, "VMCASHIN", gotDestination)
}

func Test_repoImpl_TransferToMobile_unknownNetwork(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		calls++
	}))
	defer server.Close()

	repo, _, _ := newTestRepo(t, server.URL+"/")

	_, err := repo.TransferToMobile(entities.TransferIntent{Amount: 5000}, "NOT-A-NETWORK")
	assert.Error(t, err)
	assert.Equal(t, perrors.CodeUnknownNetwork, perrors.CodeOf(err))
	assert.Equal(t, 0, calls, "an unknown network must be rejected before any request is sent")
}

func Test_repoImpl_GetBanks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "GET", req.Method)
		json.NewEncoder(w).Encode(wire.BanksResponse{
			ErrorCode: "000",
			Banks: []wire.BankItem{
				{Code: "CRDB", Name: "CRDB Bank PLC", Active: true},
				{Code: "NMB", Name: "NMB Bank", Active: true},
			},
		})
	}))
	defer server.Close()

	repo, _, _ := newTestRepo(t, server.URL+"/")

	banks, err := repo.GetBanks()
	assert.NoError(t, err)
	assert.Len(t, banks, 2)
	assert.Equal(t, "CRDB", banks[0].Code)
}

func Test_repoImpl_serverError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	repo, _, _ := newTestRepo(t, server.URL+"/")

	_, err := repo.GetTransferStatus("IS123ABC")
	assert.Error(t, err)
	assert.Equal(t, perrors.CodeRailTransport, perrors.CodeOf(err))
}

func Test_repoImpl_Validate(t *testing.T) {
	repo, _, _ := newTestRepo(t, "http://unused/")

	type args struct {
		req request_params.PaymentRequest
	}
	tests := []struct {
		name    string
		args    args
		wantErr bool
	}{
		{name: "zero amount", args: args{req: request_params.PaymentRequest{Amount: 0, Destination: "0152000002"}}, wantErr: true},
		{name: "negative amount", args: args{req: request_params.PaymentRequest{Amount: -10, Destination: "0152000002"}}, wantErr: true},
		{name: "missing destination", args: args{req: request_params.PaymentRequest{Amount: 100}}, wantErr: true},
		{name: "valid request", args: args{req: request_params.PaymentRequest{Amount: 100, Destination: "0152000002"}}, wantErr: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.Validate(tt.args.req); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
