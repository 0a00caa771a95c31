package application

import (
	"testing"
	"time"

	"payments-system/domain/constants"
	"payments-system/domain/entities"
	"payments-system/domain/request_params"
	perrors "payments-system/errors"
	"payments-system/utils/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func androidProfile() request_params.DeviceProfile {
	return request_params.DeviceProfile{
		HardwareId:   "HW-SM-A515F-001",
		Platform:     "android",
		OSVersion:    31,
		Capabilities: []string{"nfc", "hce"},
	}
}

// seedCard vaults an active card with a payload and returns its id.
func seedCard(t *testing.T, f *testFixture, userId string) string {
	t.Helper()
	token, err := f.vault.Create(entities.CardToken{
		Id:          helpers.GetUUId(),
		UserId:      userId,
		TenantId:    f.app.TenantId,
		PanLastFour: "1111",
		Brand:       "VISA",
	}, entities.TokenPayload{NetworkToken: "4000001234567899", TokenReference: "TKR-7f33a1"})
	require.NoError(t, err)
	return token.Id
}

// seedBoundDevice binds the standard android profile to the card and returns
// the derived device id.
func seedBoundDevice(t *testing.T, f *testFixture, userId, cardId string) string {
	t.Helper()
	binding, err := f.app.BindDevice(userId, cardId, androidProfile())
	require.NoError(t, err)
	return binding.DeviceId
}

func Test_DeviceEligibility(t *testing.T) {
	type args struct {
		profile request_params.DeviceProfile
	}
	tests := []struct {
		name         string
		args         args
		wantEligible bool
		wantReason   string
	}{
		{
			name:         "modern android with hce",
			args:         args{profile: request_params.DeviceProfile{Platform: "android", OSVersion: 31, Capabilities: []string{"nfc", "hce"}}},
			wantEligible: true,
		},
		{
			name:         "android with secure element only",
			args:         args{profile: request_params.DeviceProfile{Platform: "android", OSVersion: 28, Capabilities: []string{"nfc", "se"}}},
			wantEligible: true,
		},
		{
			name:       "android too old",
			args:       args{profile: request_params.DeviceProfile{Platform: "android", OSVersion: 23, Capabilities: []string{"nfc", "hce"}}},
			wantReason: "android version too old for contactless payments",
		},
		{
			name:       "android without nfc",
			args:       args{profile: request_params.DeviceProfile{Platform: "android", OSVersion: 31, Capabilities: []string{"hce"}}},
			wantReason: "device has no NFC hardware",
		},
		{
			name:       "android nfc but no emulation path",
			args:       args{profile: request_params.DeviceProfile{Platform: "android", OSVersion: 31, Capabilities: []string{"nfc"}}},
			wantReason: "device supports neither host card emulation nor a secure element",
		},
		{
			name:         "modern ios",
			args:         args{profile: request_params.DeviceProfile{Platform: "ios", OSVersion: 16, Capabilities: []string{"nfc"}}},
			wantEligible: true,
		},
		{
			name:       "ios too old",
			args:       args{profile: request_params.DeviceProfile{Platform: "ios", OSVersion: 12, Capabilities: []string{"nfc"}}},
			wantReason: "ios version too old for contactless payments",
		},
		{
			name:       "unsupported platform",
			args:       args{profile: request_params.DeviceProfile{Platform: "kaios", OSVersion: 3, Capabilities: []string{"nfc"}}},
			wantReason: "unsupported platform",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, allFeatures())
			eligible, reason := f.app.DeviceEligibility(tt.args.profile)
			assert.Equal(t, tt.wantEligible, eligible)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func Test_BindDevice(t *testing.T) {
	f := newFixture(t, allFeatures())
	cardId := seedCard(t, f, "user-1")

	binding, err := f.app.BindDevice("user-1", cardId, androidProfile())
	assert.NoError(t, err)
	assert.Equal(t, helpers.DeviceFingerprint("HW-SM-A515F-001", "android", "user-1"), binding.DeviceId)

	bound, err := f.vault.IsDeviceBound(cardId, binding.DeviceId, "user-1", f.app.TenantId)
	assert.NoError(t, err)
	assert.True(t, bound)

	stored, err := f.devices.FindById(binding.DeviceId)
	assert.NoError(t, err)
	assert.Equal(t, cardId, stored.CardId)
	assert.Contains(t, f.audit.actions(), "bind_device")

	// Binding the same hardware again derives the same id: an upsert, not a
	// second authorization.
	again, err := f.app.BindDevice("user-1", cardId, androidProfile())
	assert.NoError(t, err)
	assert.Equal(t, binding.DeviceId, again.DeviceId)
	assert.Len(t, f.devices.bindings, 1)
}

func Test_BindDevice_ineligible(t *testing.T) {
	f := newFixture(t, allFeatures())
	cardId := seedCard(t, f, "user-1")

	profile := androidProfile()
	profile.OSVersion = 21

	_, err := f.app.BindDevice("user-1", cardId, profile)
	assert.Equal(t, perrors.CodeValidation, perrors.CodeOf(err))
}

func Test_PrepareTransaction(t *testing.T) {
	f := newFixture(t, allFeatures())
	f.network.cryptogram = "AB34F1E99C0D7712"
	cardId := seedCard(t, f, "user-1")
	deviceId := seedBoundDevice(t, f, "user-1", cardId)

	before := time.Now().UTC()
	session, err := f.app.PrepareTransaction(request_params.PrepareTapToPayRequest{
		UserId:     "user-1",
		CardId:     cardId,
		DeviceId:   deviceId,
		MerchantId: "MER-00123",
		Amount:     15000,
	})

	assert.NoError(t, err)
	assert.Equal(t, constants.SessionPending, session.Status)
	assert.Equal(t, "AB34F1E99C0D7712", session.Cryptogram)
	assert.Equal(t, "TZS", session.Currency, "currency defaults to the tenant's")
	assert.WithinDuration(t, before.Add(f.app.SessionTTL), session.ExpiresAt, 2*time.Second)
	assert.Contains(t, f.audit.actions(), "prepare_tap_to_pay")

	stored, err := f.sessions.FindById(session.SessionId)
	assert.NoError(t, err)
	assert.Equal(t, session.Cryptogram, stored.Cryptogram)
}

func Test_PrepareTransaction_guards(t *testing.T) {
	t.Run("device not bound", func(t *testing.T) {
		f := newFixture(t, allFeatures())
		cardId := seedCard(t, f, "user-1")

		_, err := f.app.PrepareTransaction(request_params.PrepareTapToPayRequest{
			UserId: "user-1", CardId: cardId, DeviceId: "stranger-device", Amount: 15000,
		})
		assert.Equal(t, perrors.CodeDeviceNotAuthorized, perrors.CodeOf(err))
	})

	t.Run("suspended card", func(t *testing.T) {
		f := newFixture(t, allFeatures())
		cardId := seedCard(t, f, "user-1")
		deviceId := seedBoundDevice(t, f, "user-1", cardId)
		require.NoError(t, f.vault.UpdateStatus(cardId, "user-1", f.app.TenantId,
			[]constants.TokenStatus{constants.TokenActive}, constants.TokenSuspended))

		_, err := f.app.PrepareTransaction(request_params.PrepareTapToPayRequest{
			UserId: "user-1", CardId: cardId, DeviceId: deviceId, Amount: 15000,
		})
		assert.Equal(t, perrors.CodeTokenNotFound, perrors.CodeOf(err))
	})

	t.Run("zero amount", func(t *testing.T) {
		f := newFixture(t, allFeatures())
		_, err := f.app.PrepareTransaction(request_params.PrepareTapToPayRequest{UserId: "user-1", Amount: 0})
		assert.Equal(t, perrors.CodeValidation, perrors.CodeOf(err))
	})

	t.Run("feature disabled", func(t *testing.T) {
		features := allFeatures()
		features.TapToPay = false
		f := newFixture(t, features)

		_, err := f.app.PrepareTransaction(request_params.PrepareTapToPayRequest{UserId: "user-1", Amount: 15000})
		assert.Equal(t, perrors.CodeFeatureDisabled, perrors.CodeOf(err))
	})
}

func prepareSession(t *testing.T, f *testFixture) entities.TapToPaySession {
	t.Helper()
	f.network.cryptogram = "AB34F1E99C0D7712"
	cardId := seedCard(t, f, "user-1")
	deviceId := seedBoundDevice(t, f, "user-1", cardId)

	session, err := f.app.PrepareTransaction(request_params.PrepareTapToPayRequest{
		UserId: "user-1", CardId: cardId, DeviceId: deviceId, MerchantId: "MER-00123", Amount: 15000,
	})
	require.NoError(t, err)
	return session
}

func Test_ConsumeTransaction(t *testing.T) {
	type args struct {
		responseCode string
	}
	tests := []struct {
		name       string
		args       args
		wantStatus constants.NormalizedStatus
	}{
		{name: "approved", args: args{responseCode: "00"}, wantStatus: constants.StatusCompleted},
		{name: "approved with identification", args: args{responseCode: "08"}, wantStatus: constants.StatusCompleted},
		{name: "insufficient funds", args: args{responseCode: "51"}, wantStatus: constants.StatusFailed},
		{name: "issuer unavailable needs a poll", args: args{responseCode: "91"}, wantStatus: constants.StatusUnknown},
		{name: "undocumented code is a decline", args: args{responseCode: "42"}, wantStatus: constants.StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, allFeatures())
			session := prepareSession(t, f)

			result, err := f.app.ConsumeTransaction(request_params.POSResult{
				SessionId:    session.SessionId,
				ResponseCode: tt.args.responseCode,
				ApprovalCode: "881201",
				TerminalId:   "TERM-07",
			})

			assert.NoError(t, err)
			assert.Equal(t, tt.wantStatus, result.NormalizedStatus)
			assert.Equal(t, constants.RailCardNetwork, result.Rail)
			assert.Equal(t, session.Amount, result.Amount)
			assert.Len(t, f.txLog.saved, 1)
			assert.Len(t, f.events.published, 1)

			if tt.wantStatus.IsTerminal() {
				assert.Len(t, f.firebase.sent, 1)
			} else {
				assert.Empty(t, f.firebase.sent, "non-terminal outcomes must not notify")
			}
		})
	}
}

func Test_ConsumeTransaction_singleUse(t *testing.T) {
	f := newFixture(t, allFeatures())
	session := prepareSession(t, f)

	_, err := f.app.ConsumeTransaction(request_params.POSResult{SessionId: session.SessionId, ResponseCode: "00"})
	assert.NoError(t, err)

	_, err = f.app.ConsumeTransaction(request_params.POSResult{SessionId: session.SessionId, ResponseCode: "00"})
	assert.Equal(t, perrors.CodeSessionExpired, perrors.CodeOf(err), "a consumed session must never settle twice")
	assert.Len(t, f.txLog.saved, 1)
}

func Test_ConsumeTransaction_expired(t *testing.T) {
	f := newFixture(t, allFeatures())
	session := prepareSession(t, f)

	// Age the stored session past its TTL.
	stored := f.sessions.sessions[session.SessionId]
	stored.ExpiresAt = time.Now().UTC().Add(-time.Second)
	f.sessions.sessions[session.SessionId] = stored

	_, err := f.app.ConsumeTransaction(request_params.POSResult{SessionId: session.SessionId, ResponseCode: "00"})
	assert.Equal(t, perrors.CodeSessionExpired, perrors.CodeOf(err))
	assert.Equal(t, constants.SessionExpired, f.sessions.sessions[session.SessionId].Status)
	assert.Empty(t, f.txLog.saved)
}

func Test_ConsumeTransaction_unknownSession(t *testing.T) {
	f := newFixture(t, allFeatures())

	_, err := f.app.ConsumeTransaction(request_params.POSResult{SessionId: "no-such-session", ResponseCode: "00"})
	assert.Equal(t, perrors.CodeSessionExpired, perrors.CodeOf(err))
}

func Test_WalletProvisioning(t *testing.T) {
	f := newFixture(t, allFeatures())
	cardId := seedCard(t, f, "user-1")

	payload, err := f.app.WalletProvisioning(cardId, "user-1", "samsung_wallet")
	assert.NoError(t, err)
	assert.Equal(t, "4000001234567899", payload.OpaqueData)
	assert.Equal(t, "1111", payload.PanLastFour)
	assert.Equal(t, "samsung_wallet", payload.WalletProvider)
	assert.Contains(t, f.audit.actions(), "wallet_provisioning")
}
