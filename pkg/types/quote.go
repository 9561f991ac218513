package types

import (
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

// MarketMessage represents a message from the Polymarket market WebSocket channel.
type MarketMessage struct {
	EventType string       `json:"event_type"` // "book", "price_change", "last_trade_price"
	AssetID   string       `json:"asset_id"`
	Market    string       `json:"market"`
	Timestamp int64        `json:"-"` // Parsed from string via UnmarshalJSON
	Bids      []PriceLevel `json:"bids,omitempty"`
	Asks      []PriceLevel `json:"asks,omitempty"`
}

// UnmarshalJSON custom unmarshaler to handle string timestamp.
func (m *MarketMessage) UnmarshalJSON(data []byte) error {
	type Alias MarketMessage
	aux := &struct {
		TimestampStr string `json:"timestamp"`
		*Alias
	}{
		Alias: (*Alias)(m),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.TimestampStr != "" {
		timestamp, err := strconv.ParseInt(aux.TimestampStr, 10, 64)
		if err != nil {
			return err
		}
		m.Timestamp = timestamp
	}

	return nil
}

// PriceLevel represents a single price level in an orderbook message.
type PriceLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// QuoteState is the tracked price state for one outcome token of one entity.
// BaselinePrice is set on the first observation and never overwritten; lag is
// always measured against the pre-move price. LastUpdatedAt is monotonically
// non-decreasing.
type QuoteState struct {
	EntityID      string
	TokenID       string
	Outcome       string // "YES" or "NO"
	LastPrice     float64
	LastUpdatedAt time.Time
	BaselinePrice float64
	BaselineSetAt time.Time
}

// ChangePct returns the percentage drift of the last price from the baseline.
// Returns 0 when no baseline is set.
func (q *QuoteState) ChangePct() float64 {
	if q.BaselinePrice <= 0 {
		return 0
	}
	return (q.LastPrice - q.BaselinePrice) / q.BaselinePrice * 100
}
