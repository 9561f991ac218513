package lag

import (
	"fmt"
	"time"
)

// VerdictKind is the outcome of a lag evaluation.
type VerdictKind string

const (
	// LagDetected means the market side has under-reacted to the reference
	// move and the entry pipeline should proceed.
	LagDetected VerdictKind = "lag_detected"

	// NoData means no usable quote exists for the chosen outcome token.
	// Covers both never-observed and stale quotes.
	NoData VerdictKind = "no_data"

	// Initializing means the quote baseline was set on this observation and
	// there is nothing to compare against yet.
	Initializing VerdictKind = "initializing"

	// NoLag means evaluation ran but at least one entry condition failed.
	NoLag VerdictKind = "no_lag"
)

// NoLagReason explains why a NoLag verdict was returned.
type NoLagReason string

const (
	ReasonBelowThreshold NoLagReason = "below_threshold"
	ReasonAlreadyReacted NoLagReason = "already_reacted"
	ReasonTooRecent      NoLagReason = "too_recent"
)

// Verdict is the typed result of evaluating one entity against one reference
// move. "No action" conditions are verdicts, never errors.
type Verdict struct {
	Kind   VerdictKind
	Reason NoLagReason // set only when Kind == NoLag

	EntityID string
	Symbol   string
	Outcome  string // chosen outcome label, "YES" or "NO"
	TokenID  string

	QuotePrice      float64
	PolyChangePct   float64
	ExpectedMovePct float64
	TimeSinceQuote  time.Duration
}

// String returns a human-readable representation of the verdict.
func (v Verdict) String() string {
	if v.Kind == NoLag {
		return fmt.Sprintf("Verdict[%s/%s] entity=%s outcome=%s poly=%.4f%% expected=%.4f%%",
			v.Kind, v.Reason, v.EntityID, v.Outcome, v.PolyChangePct, v.ExpectedMovePct)
	}
	return fmt.Sprintf("Verdict[%s] entity=%s outcome=%s price=%.4f",
		v.Kind, v.EntityID, v.Outcome, v.QuotePrice)
}
