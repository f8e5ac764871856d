package commands

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stockscan",
	Short: "Staleness-aware daily OHLCV analysis engine",
	Long: `stockscan fetches and caches daily OHLCV series for an equity
universe and runs a battery of technical strategies per instrument,
producing buy/sell signals for review.

Examples:
  go run ./cmd/stockscan prepare
  go run ./cmd/stockscan analyze 600036
  go run ./cmd/stockscan server --port 8085
  go run ./cmd/stockscan scheduler`,
}

// Execute runs the root command. Called by main.
func Execute() error {
	return rootCmd.Execute()
}
