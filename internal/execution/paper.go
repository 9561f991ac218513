package execution

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mselser95/polymarket-lag/pkg/types"
	"go.uber.org/zap"
)

// PaperVenue simulates execution without touching the exchange. Orders fill
// instantly: limit orders at their limit price, immediate orders at the
// current quote price.
type PaperVenue struct {
	logger *zap.Logger
}

// NewPaperVenue creates a simulated venue.
func NewPaperVenue(logger *zap.Logger) *PaperVenue {
	return &PaperVenue{logger: logger}
}

// PlaceOrder fills the order immediately at the applicable price.
func (v *PaperVenue) PlaceOrder(_ context.Context, req OrderRequest) (*types.Fill, error) {
	price := req.QuotePrice
	if req.LimitPrice != nil {
		price = *req.LimitPrice
	}

	if price <= 0 {
		OrdersRejectedTotal.WithLabelValues("no_price").Inc()
		return nil, &types.OrderRejectedError{
			Code:    types.ErrCodeMarketNotReady,
			Message: "no price available for paper fill",
			TokenID: req.TokenID,
		}
	}

	if req.Size <= 0 {
		OrdersRejectedTotal.WithLabelValues("invalid_size").Inc()
		return nil, &types.OrderRejectedError{
			Code:    types.ErrCodeUnknownStatus,
			Message: "non-positive order size",
			TokenID: req.TokenID,
		}
	}

	fill := &types.Fill{
		OrderID: uuid.New().String(),
		Price:   price,
		Size:    req.Size,
		Time:    time.Now(),
	}

	OrdersPlacedTotal.WithLabelValues(string(req.Side), "paper").Inc()

	v.logger.Info("paper-fill",
		zap.String("order-id", fill.OrderID),
		zap.String("token-id", req.TokenID),
		zap.String("side", string(req.Side)),
		zap.Float64("price", fill.Price),
		zap.Float64("size", fill.Size))

	return fill, nil
}

// Close is a no-op for the paper venue.
func (v *PaperVenue) Close() error {
	return nil
}
