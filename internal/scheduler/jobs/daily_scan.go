// Package jobs holds the scheduled work definitions.
package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/stockscan/internal/analyzer"
	"github.com/wonny/stockscan/internal/contracts"
	"github.com/wonny/stockscan/internal/report"
	"github.com/wonny/stockscan/pkg/logger"
)

// UniverseSource lists the instruments to scan.
type UniverseSource interface {
	Universe(ctx context.Context) ([]contracts.Instrument, error)
}

// DailyScanJob runs the full-universe analysis after the close and writes
// the aggregate report.
type DailyScanJob struct {
	universe UniverseSource
	analyzer *analyzer.Analyzer
	writer   *report.Writer
	logger   *logger.Logger
}

// NewDailyScanJob creates the job.
func NewDailyScanJob(universe UniverseSource, a *analyzer.Analyzer, w *report.Writer, log *logger.Logger) *DailyScanJob {
	return &DailyScanJob{
		universe: universe,
		analyzer: a,
		writer:   w,
		logger:   log,
	}
}

// Name returns the job name.
func (j *DailyScanJob) Name() string {
	return "daily_scan"
}

// Schedule runs at 15:30 on weekdays, after the close.
func (j *DailyScanJob) Schedule() string {
	return "0 30 15 * * 1-5"
}

// Run executes the scan.
func (j *DailyScanJob) Run(ctx context.Context) error {
	instruments, err := j.universe.Universe(ctx)
	if err != nil {
		return fmt.Errorf("fetch universe: %w", err)
	}
	if len(instruments) == 0 {
		return fmt.Errorf("universe is empty")
	}

	summary := j.analyzer.Run(ctx, instruments)

	rep, err := j.writer.Write(summary.Results)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"instruments": summary.Total,
		"failed":      summary.Failed,
		"report":      rep.Dir,
	}).Info("Daily scan finished")
	return nil
}
