package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/stockscan/internal/scheduler"
	"github.com/wonny/stockscan/internal/scheduler/jobs"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the scheduled daily scan",
	Long: `Starts the job scheduler. The daily scan runs the full-universe
analysis after the close on weekdays and writes the aggregate report.

Example:
  go run ./cmd/stockscan scheduler`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	sched := scheduler.New(app.log)

	dailyScan := jobs.NewDailyScanJob(app.universe, app.analyzer, app.writer, app.log)
	if err := sched.AddJob(dailyScan); err != nil {
		return err
	}

	sched.Start()
	defer sched.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	app.log.WithField("signal", sig.String()).Info("Shutdown signal received")
	return nil
}
