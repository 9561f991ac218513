package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/mselser95/polymarket-lag/pkg/types"
	"go.uber.org/zap"
)

// ConsoleStorage implements Storage by pretty-printing to console. Used in
// paper mode and local development.
type ConsoleStorage struct {
	logger *zap.Logger
}

// NewConsoleStorage creates a new console storage.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{
		logger: logger,
	}
}

// Record pretty-prints a closed position to console.
func (c *ConsoleStorage) Record(ctx context.Context, event *types.PositionClosedEvent) error {
	outcome := "✅ PROFIT"
	if event.ProfitAbs < 0 {
		outcome = "❌ LOSS"
	} else if event.ProfitAbs == 0 {
		outcome = "➖ FLAT"
	}

	fmt.Println("\n" + "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("📕 POSITION CLOSED (%s)\n", event.ExitReason)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("ID:       %s\n", shortID(event.PositionID))
	fmt.Printf("Market:   %s\n", event.EntitySlug)
	fmt.Printf("Outcome:  %s\n", event.Outcome)
	fmt.Printf("Trigger:  %s moved %.2f%%\n", event.MoveSymbol, event.MovePct)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("📊 ROUND TRIP\n")
	fmt.Printf("  Entry:    %.4f x %.2f @ %s\n", event.EntryPrice, event.EntrySize, event.EntryTime.Format("2006-01-02 15:04:05"))
	fmt.Printf("  Exit:     %.4f @ %s\n", event.ExitPrice, event.ExitTime.Format("2006-01-02 15:04:05"))
	fmt.Printf("  Held:     %s\n", event.ExitTime.Sub(event.EntryTime).Round(time.Second))
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("💰 RESULT\n")
	fmt.Printf("  Profit:   $%.2f (%.2f%%)\n", event.ProfitAbs, event.ProfitPct)
	fmt.Printf("  %s\n", outcome)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
