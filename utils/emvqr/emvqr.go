package emvqr

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cast"
)

// Well-known EMV merchant-presented QR tags.
const (
	TagPayloadFormat    = "00"
	TagInitiationMethod = "01"
	TagMCC              = "52"
	TagCurrency         = "53"
	TagAmount           = "54"
	TagCountryCode      = "58"
	TagMerchantName     = "59"
	TagMerchantCity     = "60"
	TagAdditionalData   = "62"
	TagCRC              = "63"

	initiationStatic  = "11"
	initiationDynamic = "12"
)

// Sub-tags inside a merchant account template (tags 26..51).
const (
	subTagGlobalId     = "00"
	subTagMerchantId   = "01"
	subTagMerchantName = "02"
	subTagAcquirerId   = "03"
)

// Sub-tags inside the additional data template (tag 62).
const (
	subTagBillNumber     = "01"
	subTagReferenceLabel = "05"
	subTagTerminalLabel  = "07"
)

type MerchantAccountInfo struct {
	GlobalId     string `json:"global_id"`
	MerchantId   string `json:"merchant_id"`
	MerchantName string `json:"merchant_name"`
	AcquirerId   string `json:"acquirer_id"`
}

type AdditionalData struct {
	BillNumber     string `json:"bill_number"`
	ReferenceLabel string `json:"reference_label"`
	TerminalLabel  string `json:"terminal_label"`
}

// Payload is one parsed merchant QR. It is never mutated after Parse; scan the
// code again for a fresh one.
type Payload struct {
	PayloadFormatIndicator string              `json:"payload_format_indicator"`
	InitiationMethod       string              `json:"initiation_method"`
	MerchantAccountInfo    MerchantAccountInfo `json:"merchant_account_info"`
	MerchantCategoryCode   string              `json:"merchant_category_code"`
	CurrencyCode           string              `json:"currency_code"`
	TransactionAmount      float64             `json:"transaction_amount"`
	HasAmount              bool                `json:"has_amount"`
	CountryCode            string              `json:"country_code"`
	MerchantName           string              `json:"merchant_name"`
	MerchantCity           string              `json:"merchant_city"`
	AdditionalData         AdditionalData      `json:"additional_data"`
	Checksum               string              `json:"checksum"`
	IsValid                bool                `json:"is_valid"`
	InvalidReason          string              `json:"invalid_reason,omitempty"`
}

func (p Payload) IsDynamic() bool {
	return p.InitiationMethod == initiationDynamic
}

func (p Payload) IsStatic() bool {
	return p.InitiationMethod == initiationStatic
}

// Parse decodes a TLV merchant QR string and validates its trailing CRC.
// It never returns an error: malformed input yields IsValid=false with a
// reason, so callers always get a decision.
func Parse(qr string) Payload {
	payload := Payload{}

	fields, err := scanTLV(qr)
	if err != nil {
		payload.InvalidReason = err.Error()
		return payload
	}

	crcField, ok := fields[TagCRC]
	if !ok {
		payload.InvalidReason = "missing checksum field"
		return payload
	}
	payload.Checksum = crcField

	// Everything before the 4 checksum characters is covered by the CRC,
	// including the checksum field's own tag and length.
	if len(qr) < 4 {
		payload.InvalidReason = "payload too short"
		return payload
	}
	if computed := Checksum(qr[:len(qr)-4]); computed != crcField {
		payload.InvalidReason = fmt.Sprintf("checksum mismatch: computed %s, payload carries %s", computed, crcField)
		return payload
	}

	payload.PayloadFormatIndicator = fields[TagPayloadFormat]
	payload.InitiationMethod = fields[TagInitiationMethod]
	payload.MerchantCategoryCode = fields[TagMCC]
	payload.CurrencyCode = fields[TagCurrency]
	payload.CountryCode = fields[TagCountryCode]
	payload.MerchantName = fields[TagMerchantName]
	payload.MerchantCity = fields[TagMerchantCity]

	if raw, ok := fields[TagAmount]; ok {
		amount, err := cast.ToFloat64E(raw)
		if err != nil {
			payload.InvalidReason = "malformed transaction amount"
			return payload
		}
		payload.TransactionAmount = amount
		payload.HasAmount = true
	}

	// Merchant account templates occupy tags 26..51; the first present wins.
	for tag := 26; tag <= 51; tag++ {
		raw, ok := fields[fmt.Sprintf("%02d", tag)]
		if !ok {
			continue
		}
		sub, err := scanTLV(raw)
		if err != nil {
			payload.InvalidReason = fmt.Sprintf("malformed merchant account template %02d: %v", tag, err)
			return payload
		}
		payload.MerchantAccountInfo = MerchantAccountInfo{
			GlobalId:     sub[subTagGlobalId],
			MerchantId:   sub[subTagMerchantId],
			MerchantName: sub[subTagMerchantName],
			AcquirerId:   sub[subTagAcquirerId],
		}
		break
	}

	if raw, ok := fields[TagAdditionalData]; ok {
		sub, err := scanTLV(raw)
		if err != nil {
			payload.InvalidReason = fmt.Sprintf("malformed additional data template: %v", err)
			return payload
		}
		payload.AdditionalData = AdditionalData{
			BillNumber:     sub[subTagBillNumber],
			ReferenceLabel: sub[subTagReferenceLabel],
			TerminalLabel:  sub[subTagTerminalLabel],
		}
	}

	if payload.MerchantName == "" {
		payload.InvalidReason = "merchant name missing"
		return payload
	}

	payload.IsValid = true
	return payload
}

// scanTLV walks a 2-char tag / 2-char decimal length / value stream.
func scanTLV(data string) (map[string]string, error) {
	fields := map[string]string{}

	for at := 0; at < len(data); {
		if at+4 > len(data) {
			return nil, fmt.Errorf("truncated field header at offset %d", at)
		}

		tag := data[at : at+2]
		length, err := strconv.Atoi(data[at+2 : at+4])
		if err != nil || length < 0 {
			return nil, fmt.Errorf("malformed length for tag %s", tag)
		}

		if at+4+length > len(data) {
			return nil, fmt.Errorf("tag %s declares %d chars but only %d remain", tag, length, len(data)-at-4)
		}

		fields[tag] = data[at+4 : at+4+length]
		at += 4 + length
	}

	return fields, nil
}

// Build assembles a TLV string from a field map and appends the CRC field.
// Nested values must already be TLV-encoded by the caller. Values longer than
// 99 characters cannot be carried by the two-digit length and are rejected.
func Build(fields map[string]string) (string, error) {
	tags := make([]string, 0, len(fields))
	for tag := range fields {
		if tag != TagCRC {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)

	out := ""
	for _, tag := range tags {
		if len(fields[tag]) > 99 {
			return "", fmt.Errorf("tag %s value is %d chars, max is 99", tag, len(fields[tag]))
		}
		out += encodeTLV(tag, fields[tag])
	}

	out += TagCRC + "04"
	return out + Checksum(out), nil
}

func encodeTLV(tag, value string) string {
	return fmt.Sprintf("%s%02d%s", tag, len(value), value)
}
