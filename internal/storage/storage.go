// Package storage persists closed-position records for later analysis.
package storage

import (
	"context"

	"github.com/mselser95/polymarket-lag/pkg/types"
)

// Storage records completed round trips. Implementations must tolerate being
// called from the position manager's exit path; failures are logged by the
// caller and never block a close.
type Storage interface {
	// Record persists a closed position.
	Record(ctx context.Context, event *types.PositionClosedEvent) error

	// Close releases the underlying connection.
	Close() error
}
