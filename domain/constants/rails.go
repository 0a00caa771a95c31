package constants

// RailKind tags which external payment rail an adapter talks to. The
// orchestrator selects adapters by this tag, never by structural typing.
type RailKind string

const (
	RailInstantSwitch  RailKind = "INSTANT_SWITCH"
	RailGovGateway     RailKind = "GOV_GATEWAY"
	RailBillAggregator RailKind = "BILL_AGGREGATOR"
	RailCardNetwork    RailKind = "CARD_NETWORK"
)

// Reference prefixes per rail, stamped on every attempt.
const (
	PrefixInstantSwitch  = "IS"
	PrefixGovGateway     = "GV"
	PrefixBillAggregator = "BA"
	PrefixCardNetwork    = "CN"
)

// RailOfReference recovers the owning rail from a reference's prefix. An
// unrecognized prefix returns the empty RailKind.
func RailOfReference(reference string) RailKind {
	if len(reference) < 2 {
		return ""
	}
	switch reference[:2] {
	case PrefixInstantSwitch:
		return RailInstantSwitch
	case PrefixGovGateway:
		return RailGovGateway
	case PrefixBillAggregator:
		return RailBillAggregator
	case PrefixCardNetwork:
		return RailCardNetwork
	}
	return ""
}

// NormalizedStatus is the six-state vocabulary every rail result is mapped
// onto. Unmapped rail statuses become StatusUnknown; callers must treat that
// as "needs a manual status poll", not as a failure.
type NormalizedStatus string

const (
	StatusPending    NormalizedStatus = "PENDING"
	StatusProcessing NormalizedStatus = "PROCESSING"
	StatusCompleted  NormalizedStatus = "COMPLETED"
	StatusFailed     NormalizedStatus = "FAILED"
	StatusReversed   NormalizedStatus = "REVERSED"
	StatusCancelled  NormalizedStatus = "CANCELLED"
	StatusUnknown    NormalizedStatus = "UNKNOWN"
)

func (s NormalizedStatus) IsPending() bool    { return s == StatusPending }
func (s NormalizedStatus) IsProcessing() bool { return s == StatusProcessing }
func (s NormalizedStatus) IsCompleted() bool  { return s == StatusCompleted }
func (s NormalizedStatus) IsFailed() bool     { return s == StatusFailed }
func (s NormalizedStatus) IsReversed() bool   { return s == StatusReversed }
func (s NormalizedStatus) IsCancelled() bool  { return s == StatusCancelled }
func (s NormalizedStatus) IsUnknown() bool    { return s == StatusUnknown }

// IsTerminal reports whether no further status change is expected.
func (s NormalizedStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusReversed || s == StatusCancelled
}

// BillStatus is the government gateway's bill state space. It is distinct
// from payment status and normalized through its own table.
type BillStatus string

const (
	BillPending   BillStatus = "PENDING"
	BillPaid      BillStatus = "PAID"
	BillPartial   BillStatus = "PARTIAL"
	BillExpired   BillStatus = "EXPIRED"
	BillCancelled BillStatus = "CANCELLED"
)

func (s BillStatus) IsPaid() bool    { return s == BillPaid }
func (s BillStatus) IsExpired() bool { return s == BillExpired }
func (s BillStatus) IsPayable() bool { return s == BillPending || s == BillPartial }

// TokenStatus is the vault lifecycle; DELETED is terminal.
type TokenStatus string

const (
	TokenActive    TokenStatus = "ACTIVE"
	TokenSuspended TokenStatus = "SUSPENDED"
	TokenDeleted   TokenStatus = "DELETED"
)

func (s TokenStatus) IsActive() bool    { return s == TokenActive }
func (s TokenStatus) IsSuspended() bool { return s == TokenSuspended }
func (s TokenStatus) IsDeleted() bool   { return s == TokenDeleted }

// SessionStatus is the tap-to-pay session lifecycle. Sessions are single-use:
// PENDING flips to CONSUMED exactly once.
type SessionStatus string

const (
	SessionPending  SessionStatus = "PENDING"
	SessionConsumed SessionStatus = "CONSUMED"
	SessionExpired  SessionStatus = "EXPIRED"
)

// Feature names used by the orchestrator's availability checks.
const (
	FeatureQRPayments   = "qr_payments"
	FeatureBillPayments = "bill_payments"
	FeatureAirtime      = "airtime"
	FeatureCards        = "cards"
	FeatureTapToPay     = "tap_to_pay"
)
