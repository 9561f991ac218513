package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for expected decision outcomes. Absence of data is a
// first-class outcome, not a fault; callers branch on these instead of logging
// them as errors.
var (
	// ErrNoQuoteData signals that no quote has been observed yet for a token.
	ErrNoQuoteData = errors.New("no quote data")

	// ErrStaleQuote signals a quote older than the staleness bound; treated as
	// absent for decision purposes.
	ErrStaleQuote = errors.New("stale quote")

	// ErrPositionExists signals an attempted second concurrent entry on an
	// entity that already holds a live position.
	ErrPositionExists = errors.New("position already exists for entity")

	// ErrPositionClosed signals an operation on an already-closed position.
	ErrPositionClosed = errors.New("position already closed")

	// ErrEntriesHalted signals that the circuit breaker is refusing new entries.
	ErrEntriesHalted = errors.New("new entries halted")

	// ErrCooldownActive signals that the entity closed a position too recently
	// to re-enter.
	ErrCooldownActive = errors.New("entity cooldown active")
)

// OrderRejectedError is returned when the venue declines an order. Terminal for
// that opportunity; the core never retries.
type OrderRejectedError struct {
	Code    string // API error code or internal error code
	Message string
	TokenID string
}

func (e *OrderRejectedError) Error() string {
	return fmt.Sprintf("order rejected for token %s: %s (%s)", e.TokenID, e.Message, e.Code)
}

// Known Polymarket CLOB API error codes.
const (
	ErrCodeInvalidTickSize  = "INVALID_ORDER_MIN_TICK_SIZE"
	ErrCodeNotEnoughBalance = "INVALID_ORDER_NOT_ENOUGH_BALANCE"
	ErrCodeFOKNotFilled     = "FOK_ORDER_NOT_FILLED_ERROR"
	ErrCodeMarketNotReady   = "MARKET_NOT_READY"
	ErrCodeUnmatched        = "UNMATCHED"
	ErrCodeUnknownStatus    = "UNKNOWN_STATUS"
)
