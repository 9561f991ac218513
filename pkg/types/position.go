package types

import "time"

// PositionState is the lifecycle state of a position.
type PositionState string

const (
	StateEntering PositionState = "entering"
	StateOpen     PositionState = "open"
	StateExiting  PositionState = "exiting"
	StateClosed   PositionState = "closed"
)

// ExitReason records why a position was closed.
type ExitReason string

const (
	ExitProfit  ExitReason = "profit"
	ExitTimeout ExitReason = "timeout"
	ExitForced  ExitReason = "forced"
)

// Position is a live or closed position on one outcome token of an entity.
// At most one non-closed Position exists per entity at any time.
type Position struct {
	ID          string
	EntityID    string
	EntitySlug  string
	TokenID     string
	Outcome     string // "YES" or "NO"
	State       PositionState
	EntryPrice  float64 // actual fill price, not requested price
	EntrySize   float64
	EntryTime   time.Time
	ExitPrice   float64
	ExitTime    time.Time
	ExitReason  ExitReason
	MoveSymbol  string  // reference symbol that triggered entry
	MovePct     float64 // reference move that triggered entry
}

// ProfitPct returns the percentage return of a closed position.
func (p *Position) ProfitPct() float64 {
	if p.EntryPrice <= 0 {
		return 0
	}
	return (p.ExitPrice - p.EntryPrice) / p.EntryPrice * 100
}

// ProfitAbs returns the absolute profit of a closed position in USD.
func (p *Position) ProfitAbs() float64 {
	return (p.ExitPrice - p.EntryPrice) * p.EntrySize
}

// PositionClosedEvent is the audit record emitted when a position reaches the
// closed state. It is fire-and-forget from the core's perspective.
type PositionClosedEvent struct {
	PositionID string
	EntityID   string
	EntitySlug string
	TokenID    string
	Outcome    string
	EntryPrice float64
	EntrySize  float64
	EntryTime  time.Time
	ExitPrice  float64
	ExitTime   time.Time
	ExitReason ExitReason
	ProfitPct  float64
	ProfitAbs  float64
	MoveSymbol string
	MovePct    float64
}

// Fill is a confirmed execution from the venue.
type Fill struct {
	OrderID string
	Price   float64
	Size    float64
	Time    time.Time
}
