package analyzer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/stockscan/internal/contracts"
	"github.com/wonny/stockscan/internal/strategy"
	"github.com/wonny/stockscan/pkg/logger"
)

// SeriesFetcher resolves an instrument to an analyzable series.
type SeriesFetcher interface {
	Fetch(ctx context.Context, inst contracts.Instrument) (*contracts.TimeSeries, error)
}

// Progress reports one completed unit of a batch run.
type Progress struct {
	Done  int    `json:"done"`
	Total int    `json:"total"`
	Code  string `json:"code"`
	Err   string `json:"err,omitempty"`
}

// ProgressFunc observes batch progress. Called once per completed
// instrument, in completion order.
type ProgressFunc func(Progress)

// RunSummary aggregates a batch run.
type RunSummary struct {
	Results   []*contracts.AnalysisResult
	Total     int
	Succeeded int
	Failed    int
	Elapsed   time.Duration
}

// unitResult carries one instrument's outcome through the result channel.
type unitResult struct {
	inst    contracts.Instrument
	results []*contracts.AnalysisResult
	err     error
}

// Analyzer fans a universe out over a bounded worker pool. Each unit
// fetches one instrument's series once and applies every registered
// strategy to it in order. Failures stay inside their unit; the run
// always completes.
type Analyzer struct {
	fetcher    SeriesFetcher
	registry   *strategy.Registry
	logger     *logger.Logger
	workers    int
	onProgress ProgressFunc
}

// New creates an Analyzer with the given pool width.
func New(fetcher SeriesFetcher, registry *strategy.Registry, workers int, log *logger.Logger) *Analyzer {
	if workers < 1 {
		workers = 1
	}
	return &Analyzer{
		fetcher:  fetcher,
		registry: registry,
		logger:   log,
		workers:  workers,
	}
}

// OnProgress registers a progress observer. Not safe to call while a run
// is in flight.
func (a *Analyzer) OnProgress(fn ProgressFunc) {
	a.onProgress = fn
}

// Run analyzes the whole universe and returns the aggregated results in
// completion order. Individual failures are logged and counted, never
// propagated.
func (a *Analyzer) Run(ctx context.Context, universe []contracts.Instrument) *RunSummary {
	start := time.Now()
	total := len(universe)

	a.logger.WithFields(map[string]interface{}{
		"instruments": total,
		"strategies":  a.registry.Len(),
		"workers":     a.workers,
	}).Info("Starting batch analysis")

	jobs := make(chan contracts.Instrument, total)
	results := make(chan unitResult, total)

	var wg sync.WaitGroup
	for i := 0; i < a.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for inst := range jobs {
				res, err := a.analyzeUnit(ctx, inst)
				results <- unitResult{inst: inst, results: res, err: err}
			}
		}()
	}

	for _, inst := range universe {
		jobs <- inst
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	summary := &RunSummary{Total: total}
	done := 0
	for unit := range results {
		done++
		if unit.err != nil {
			summary.Failed++
			a.logger.WithError(unit.err).WithField("code", unit.inst.Code).Warn("Instrument analysis failed")
		} else {
			summary.Succeeded++
			summary.Results = append(summary.Results, unit.results...)
		}

		if a.onProgress != nil {
			p := Progress{Done: done, Total: total, Code: unit.inst.Code}
			if unit.err != nil {
				p.Err = unit.err.Error()
			}
			a.onProgress(p)
		}
	}

	summary.Elapsed = time.Since(start)
	a.logger.WithFields(map[string]interface{}{
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"results":   len(summary.Results),
		"elapsed":   summary.Elapsed.String(),
	}).Info("Batch analysis complete")

	return summary
}

// AnalyzeInstrument runs the full battery against a single instrument.
func (a *Analyzer) AnalyzeInstrument(ctx context.Context, inst contracts.Instrument) ([]*contracts.AnalysisResult, error) {
	return a.analyzeUnit(ctx, inst)
}

// analyzeUnit fetches once and applies every strategy sequentially.
// A panicking unit is converted into an error; a panicking strategy is
// logged and skipped.
func (a *Analyzer) analyzeUnit(ctx context.Context, inst contracts.Instrument) (results []*contracts.AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = fmt.Errorf("analysis of %s panicked: %v", inst.Code, r)
		}
	}()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	series, err := a.fetcher.Fetch(ctx, inst)
	if err != nil {
		return nil, fmt.Errorf("fetch failed for %s: %w", inst.Code, err)
	}

	for _, s := range a.registry.All() {
		result, err := a.applyStrategy(s, series)
		if err != nil {
			a.logger.WithError(err).WithFields(map[string]interface{}{
				"code":     inst.Code,
				"strategy": s.Name(),
			}).Warn("Strategy failed, skipping")
			continue
		}
		if result != nil {
			results = append(results, result)
		}
	}
	return results, nil
}

// applyStrategy isolates a single strategy call, turning panics into errors.
func (a *Analyzer) applyStrategy(s strategy.Strategy, series *contracts.TimeSeries) (result *contracts.AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("strategy %s panicked: %v", s.Name(), r)
		}
	}()
	return s.Analyze(series)
}
