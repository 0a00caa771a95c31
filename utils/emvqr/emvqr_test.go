package emvqr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func buildMerchantQR(t *testing.T, fields map[string]string) string {
	t.Helper()
	qr, err := Build(fields)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return qr
}

func dynamicQRFields() map[string]string {
	account := encodeTLV(subTagGlobalId, "tz.go.bot.tips") +
		encodeTLV(subTagMerchantId, "518999") +
		encodeTLV(subTagMerchantName, "ABC Traders") +
		encodeTLV(subTagAcquirerId, "CRDB")

	additional := encodeTLV(subTagBillNumber, "INV-2021-014") +
		encodeTLV(subTagTerminalLabel, "POS01")

	return map[string]string{
		TagPayloadFormat:    "01",
		TagInitiationMethod: "12",
		"26":                account,
		TagMCC:              "5411",
		TagCurrency:         "834",
		TagAmount:           "15000",
		TagCountryCode:      "TZ",
		TagMerchantName:     "ABC Traders",
		TagMerchantCity:     "Dar es Salaam",
		TagAdditionalData:   additional,
	}
}

func TestParseValidDynamicQR(t *testing.T) {
	qr := buildMerchantQR(t, dynamicQRFields())

	payload := Parse(qr)

	assert.True(t, payload.IsValid, payload.InvalidReason)
	assert.True(t, payload.IsDynamic())
	assert.False(t, payload.IsStatic())
	assert.True(t, payload.HasAmount)
	assert.Equal(t, float64(15000), payload.TransactionAmount)
	assert.Equal(t, "834", payload.CurrencyCode)
	assert.Equal(t, "ABC Traders", payload.MerchantName)
	assert.Equal(t, "ABC Traders", payload.MerchantAccountInfo.MerchantName)
	assert.Equal(t, "518999", payload.MerchantAccountInfo.MerchantId)
	assert.Equal(t, "tz.go.bot.tips", payload.MerchantAccountInfo.GlobalId)
	assert.Equal(t, "CRDB", payload.MerchantAccountInfo.AcquirerId)
	assert.Equal(t, "INV-2021-014", payload.AdditionalData.BillNumber)
	assert.Equal(t, "POS01", payload.AdditionalData.TerminalLabel)
}

func TestParseStaticQRHasNoAmount(t *testing.T) {
	fields := dynamicQRFields()
	fields[TagInitiationMethod] = "11"
	delete(fields, TagAmount)

	payload := Parse(buildMerchantQR(t, fields))

	assert.True(t, payload.IsValid, payload.InvalidReason)
	assert.True(t, payload.IsStatic())
	assert.False(t, payload.HasAmount)
	assert.Equal(t, float64(0), payload.TransactionAmount)
}

func TestParseRejectsAnySingleCharFlip(t *testing.T) {
	qr := buildMerchantQR(t, dynamicQRFields())

	for i := 0; i < len(qr); i++ {
		mutated := []byte(qr)
		if mutated[i] == 'X' {
			mutated[i] = 'Y'
		} else {
			mutated[i] = 'X'
		}

		payload := Parse(string(mutated))
		assert.False(t, payload.IsValid, "flip at %d produced a valid payload", i)
		assert.NotEmpty(t, payload.InvalidReason)
	}
}

func TestParseNeverPanicsOnMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		qr   string
	}{
		{name: "empty", qr: ""},
		{name: "truncated header", qr: "000"},
		{name: "length overruns value", qr: "0099AB"},
		{name: "non numeric length", qr: "00xx01"},
		{name: "negative length", qr: "00-1"},
		{name: "negative length with trailing data", qr: "00-1AB"},
		{name: "no checksum field", qr: encodeTLV(TagMerchantName, "ABC Traders")},
		{name: "garbage", qr: "!!!###"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := Parse(tt.qr)
			assert.False(t, payload.IsValid)
			assert.NotEmpty(t, payload.InvalidReason)
		})
	}
}

func TestParseRequiresMerchantName(t *testing.T) {
	fields := dynamicQRFields()
	delete(fields, TagMerchantName)

	payload := Parse(buildMerchantQR(t, fields))

	assert.False(t, payload.IsValid)
	assert.Equal(t, "merchant name missing", payload.InvalidReason)
}

func TestBuildParseRoundTrip(t *testing.T) {
	fields := dynamicQRFields()
	qr, err := Build(fields)
	assert.NoError(t, err)

	parsed, err := scanTLV(qr)
	assert.NoError(t, err)

	for tag, want := range fields {
		assert.Equal(t, want, parsed[tag], "tag %s", tag)
	}
	assert.Equal(t, Checksum(qr[:len(qr)-4]), parsed[TagCRC])
}

func TestBuildRejectsOversizedValue(t *testing.T) {
	fields := dynamicQRFields()
	fields[TagMerchantName] = strings.Repeat("A", 100)

	_, err := Build(fields)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "max is 99")
}

func TestChecksumKnownVector(t *testing.T) {
	// Standard CRC-16/CCITT-FALSE check value.
	assert.Equal(t, "29B1", Checksum("123456789"))
	assert.Equal(t, "FFFF", Checksum(""))
}
