package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mselser95/polymarket-lag/internal/marketfeed"
	"github.com/mselser95/polymarket-lag/pkg/config"
	"github.com/mselser95/polymarket-lag/pkg/types"
	"github.com/mselser95/polymarket-lag/pkg/websocket"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var watchQuotesCmd = &cobra.Command{
	Use:   "watch-quotes <token-id> [token-id...]",
	Short: "Watch live quote updates for outcome tokens",
	Long: `Connects to the Polymarket WebSocket and prints real-time quote updates
for the given outcome token IDs. The first update per token pins its baseline,
the same way the bot does, so the printed change column shows what the lag
detector would see.

Example:
  polymarket-lag watch-quotes 7132107... 2489431...`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatchQuotes,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(watchQuotesCmd)
}

func runWatchQuotes(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	wsManager := websocket.New(websocket.Config{
		URL:                   cfg.PolymarketWSURL,
		DialTimeout:           cfg.WSDialTimeout,
		PongTimeout:           cfg.WSPongTimeout,
		PingInterval:          cfg.WSPingInterval,
		ReconnectInitialDelay: cfg.WSReconnectInitialDelay,
		ReconnectMaxDelay:     cfg.WSReconnectMaxDelay,
		ReconnectBackoffMult:  cfg.WSReconnectBackoffMult,
		MessageBufferSize:     cfg.WSMessageBufferSize,
		Logger:                logger,
	})

	feed := marketfeed.New(&marketfeed.Config{
		Logger:         logger,
		MessageChannel: wsManager.MessageChan(),
	})

	// One synthetic entity per token so the feed accepts the updates.
	for i, tokenID := range args {
		feed.Track(&types.Entity{
			ID:         fmt.Sprintf("watch-%d", i),
			Slug:       fmt.Sprintf("watch-%d", i),
			YesTokenID: tokenID,
		})
	}

	err = wsManager.Start()
	if err != nil {
		return fmt.Errorf("start websocket: %w", err)
	}
	defer func() {
		_ = wsManager.Close()
	}()

	err = feed.Start(ctx)
	if err != nil {
		return fmt.Errorf("start feed: %w", err)
	}
	defer func() {
		_ = feed.Close()
	}()

	err = wsManager.Subscribe(ctx, args)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	fmt.Printf("Watching %d token(s). Press Ctrl+C to stop.\n\n", len(args))
	fmt.Printf("%-12s  %-14s  %-10s  %-10s  %-8s\n", "TIME", "TOKEN", "PRICE", "BASELINE", "CHANGE")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sigChan:
			fmt.Println("\nStopped.")
			return nil
		case quote, ok := <-feed.UpdateChan():
			if !ok {
				return nil
			}
			fmt.Printf("%-12s  %-14s  %-10.4f  %-10.4f  %+.2f%%\n",
				quote.LastUpdatedAt.Format(time.TimeOnly),
				shortToken(quote.TokenID),
				quote.LastPrice,
				quote.BaselinePrice,
				quote.ChangePct())
		}
	}
}

func shortToken(tokenID string) string {
	if len(tokenID) <= 12 {
		return tokenID
	}
	return tokenID[:12] + "…"
}
