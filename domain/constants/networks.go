package constants

import (
	"strings"

	perrors "payments-system/errors"
)

// Destination type codes the instant switch expects for bank-to-mobile
// transfers, keyed by the mobile-money brand name the app sends.
var mobileNetworkCodes = map[string]string{
	"MPESA":    "VMCASHIN",
	"TIGOPESA": "TPCASHIN",
	"MIXX":     "TPCASHIN",
	"AIRTEL":   "AMCASHIN",
	"HALOPESA": "HPCASHIN",
	"AZAMPESA": "APCASHIN",
	"TTCL":     "TTCASHIN",
}

// Biller codes the aggregator expects for airtime purchases, keyed the same way.
var airtimeBillerCodes = map[string]string{
	"VODACOM":  "VODATOP",
	"TIGO":     "TIGOTOP",
	"MIXX":     "TIGOTOP",
	"AIRTEL":   "AIRTELTOP",
	"HALOTEL":  "HALOTOP",
	"TTCL":     "TTCLTOP",
	"ZANTEL":   "ZANTOP",
}

// MobileNetworkCode resolves a human network name to the switch's destination
// type code. Unrecognised names are an explicit error; the table never guesses.
func MobileNetworkCode(network string) (string, error) {
	code, ok := mobileNetworkCodes[strings.ToUpper(strings.TrimSpace(network))]
	if !ok {
		return "", perrors.NewUnknownNetworkError(network)
	}
	return code, nil
}

// AirtimeBillerCode resolves a human network name to the aggregator's airtime
// biller code. Unrecognised names are an explicit error.
func AirtimeBillerCode(network string) (string, error) {
	code, ok := airtimeBillerCodes[strings.ToUpper(strings.TrimSpace(network))]
	if !ok {
		return "", perrors.NewUnknownNetworkError(network)
	}
	return code, nil
}
