package cmd

import (
	"fmt"

	"github.com/mselser95/polymarket-lag/internal/app"
	"github.com/mselser95/polymarket-lag/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the lag-trading bot",
	Long: `Starts the Polymarket lag-trading bot, which will:
1. Stream reference prices for the configured symbols from Binance
2. Discover matching Polymarket markets from the Gamma API
3. Subscribe to their quotes via WebSocket
4. Open a position when a market lags a qualifying reference move
5. Exit on profit, at the hold deadline, or on shutdown

Runs in paper trading mode unless EXECUTION_MODE=live is set.`,
	RunE: runBot,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
}

func runBot(cmd *cobra.Command, args []string) error {
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

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
