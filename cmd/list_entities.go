package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/mselser95/polymarket-lag/internal/registry"
	"github.com/mselser95/polymarket-lag/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var listEntitiesCmd = &cobra.Command{
	Use:   "list-entities",
	Short: "List Polymarket markets matching the reference symbols",
	Long: `Fetches active markets from the Polymarket Gamma API, runs them through
the symbol matcher, and shows which would be tracked as entities. Useful for
checking what a given REFERENCE_SYMBOLS setting picks up.`,
	RunE: runListEntities,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(listEntitiesCmd)
	listEntitiesCmd.Flags().IntP("limit", "l", 100, "Maximum number of markets to fetch")
	listEntitiesCmd.Flags().BoolP("all", "a", false, "Show non-matching markets too")
}

func runListEntities(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
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

	limit, _ := cmd.Flags().GetInt("limit")
	showAll, _ := cmd.Flags().GetBool("all")

	client := registry.NewClient(cfg.PolymarketGammaURL, logger)
	matcher := registry.NewMatcher(cfg.ReferenceSymbols)

	fmt.Printf("Fetching up to %d active markets from Polymarket...\n\n", limit)

	markets, err := client.FetchActiveMarkets(ctx, limit)
	if err != nil {
		return fmt.Errorf("fetch markets: %w", err)
	}

	if len(markets) == 0 {
		fmt.Println("No active markets found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SYMBOL\tSLUG\tLIQUIDITY\tQUESTION\n")
	fmt.Fprintf(w, "------\t----\t---------\t--------\n")

	matched := 0
	for i := range markets {
		market := &markets[i]

		symbol, ok := matcher.Match(market.Question)
		if !ok {
			if showAll {
				fmt.Fprintf(w, "-\t%s\t%.0f\t%s\n", market.Slug, market.LiquidityNum, truncate(market.Question, 60))
			}
			continue
		}
		matched++

		eligible := ""
		if market.LiquidityNum < cfg.RegistryMinLiquidity {
			eligible = " (below min liquidity)"
		}

		fmt.Fprintf(w, "%s\t%s\t%.0f%s\t%s\n",
			symbol, market.Slug, market.LiquidityNum, eligible, truncate(market.Question, 60))
	}

	w.Flush()

	fmt.Printf("\nTotal: %d markets fetched, %d matched %v\n", len(markets), matched, cfg.ReferenceSymbols)

	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
