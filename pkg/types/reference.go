package types

import (
	"time"
)

// Direction is the sign of a reference-instrument move.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// PriceSample is a single timestamped observation of the reference instrument.
// Samples are owned by the reference feed's rolling window and evicted once
// older than the detection window.
type PriceSample struct {
	Timestamp time.Time
	Price     float64
}

// MoveEvent is emitted when the reference instrument moves more than the
// configured threshold within the detection window. Immutable once created.
type MoveEvent struct {
	Symbol       string // e.g. "BTCUSDT"
	StartPrice   float64
	CurrentPrice float64
	ChangePct    float64 // signed, e.g. +0.25 for a 0.25% move up
	Direction    Direction
	DetectedAt   time.Time
	WindowStart  time.Time
}

// TickerMessage is a Binance <symbol>@ticker stream payload. Only the fields
// the reference feed consumes are mapped.
type TickerMessage struct {
	EventType string `json:"e"` // "24hrTicker"
	Symbol    string `json:"s"`
	LastPrice string `json:"c"`
	EventTime int64  `json:"E"` // epoch millis
}
