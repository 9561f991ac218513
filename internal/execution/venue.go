package execution

import (
	"context"

	"github.com/mselser95/polymarket-lag/pkg/types"
)

// Side is the direction of an order.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// OrderRequest describes a single order against one outcome token.
type OrderRequest struct {
	TokenID string
	Side    Side

	// LimitPrice caps the execution price (price-protected policy). nil
	// requests immediate execution at the prevailing market price.
	LimitPrice *float64

	// QuotePrice is the current market price for the token. Immediate orders
	// are priced from it; the paper venue fills at it.
	QuotePrice float64

	// Size in outcome tokens.
	Size float64
}

// Venue places orders and reports fills. Rejections come back as
// *types.OrderRejectedError; they are terminal for the opportunity and the
// caller never retries.
type Venue interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (*types.Fill, error)
	Close() error
}
