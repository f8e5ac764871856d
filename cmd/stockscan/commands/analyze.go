package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/stockscan/internal/contracts"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <code>",
	Short: "Analyze a single instrument",
	Long: `Runs every registered strategy against one instrument and prints the
results.

Example:
  go run ./cmd/stockscan analyze 600036`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	code := args[0]
	results, err := app.analyzer.AnalyzeInstrument(cmd.Context(), contracts.Instrument{Code: code})
	if err != nil {
		return fmt.Errorf("analyze %s: %w", code, err)
	}

	fmt.Printf("=== %s ===\n", code)
	for _, res := range results {
		if res.HasSignal() {
			fmt.Printf("%-18s %s @ %.2f (%s)\n",
				res.StrategyID, res.Signal.Type, res.Signal.Price,
				res.Signal.Date.Format("2006-01-02"))
		} else {
			fmt.Printf("%-18s no signal\n", res.StrategyID)
		}
		for name, value := range res.Metrics {
			fmt.Printf("    %s=%.4f\n", name, value)
		}
	}
	if len(results) == 0 {
		fmt.Println("no results (series too short?)")
	}
	return nil
}
