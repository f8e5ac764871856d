package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/stockscan/internal/analyzer"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Run the full-universe batch analysis",
	Long: `Fetches the instrument universe, refreshes every cached series that
needs it, runs the full strategy battery per instrument on a bounded
worker pool, and writes the aggregate report.

Example:
  go run ./cmd/stockscan prepare`,
	RunE: runPrepare,
}

func init() {
	rootCmd.AddCommand(prepareCmd)
}

func runPrepare(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()

	universe, err := app.universe.Universe(ctx)
	if err != nil {
		return fmt.Errorf("fetch universe: %w", err)
	}
	if len(universe) == 0 {
		return fmt.Errorf("universe is empty")
	}

	app.analyzer.OnProgress(func(p analyzer.Progress) {
		if p.Done%50 == 0 || p.Done == p.Total {
			fmt.Printf("progress: %d/%d\n", p.Done, p.Total)
		}
	})

	runAt := time.Now()
	summary := app.analyzer.Run(ctx, universe)

	rep, err := app.writer.Write(summary.Results)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if app.repo != nil {
		if err := app.repo.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		if err := app.repo.SaveRun(ctx, runAt, summary.Results); err != nil {
			return fmt.Errorf("persist results: %w", err)
		}
	}

	fmt.Printf("analyzed %d instruments (%d failed) in %s\n",
		summary.Total, summary.Failed, summary.Elapsed.Round(time.Second))
	fmt.Printf("report: %s\n", rep.Dir)
	return nil
}
