package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "polymarket-lag",
	Short: "Polymarket lag-trading bot",
	Long: `Polymarket lag-trading bot that watches reference crypto prices on
Binance, detects when a Polymarket crypto market has not yet repriced after a
sharp reference move, and opens a short-hold position on the lagging side.

The bot polls the Polymarket Gamma API for markets tied to the configured
reference symbols, subscribes to their quotes via WebSocket, and manages the
full position lifecycle from entry to profit or deadline exit.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
