package fetcher

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/wonny/stockscan/internal/contracts"
	"github.com/wonny/stockscan/pkg/config"
	"github.com/wonny/stockscan/pkg/logger"
)

// ErrEmptyResponse marks an upstream reply that decoded to zero bars.
var ErrEmptyResponse = errors.New("empty response from source")

// Source delivers daily bars for one instrument from the start date onward.
type Source interface {
	DailyBars(ctx context.Context, inst contracts.Instrument, start time.Time) (*contracts.TimeSeries, error)
}

// SeriesCache is the cache surface the fetcher uses.
type SeriesCache interface {
	NeedsRefresh(ctx context.Context, inst contracts.Instrument) bool
	Load(inst contracts.Instrument) (*contracts.TimeSeries, error)
	Store(series *contracts.TimeSeries) error
}

// Fetcher resolves an instrument to a validated daily series, preferring
// the local cache and falling back to the upstream source with bounded
// retry. A stale but valid cache entry beats returning nothing.
type Fetcher struct {
	source     Source
	cache      SeriesCache
	logger     *logger.Logger
	maxRetries int
	baseDelay  time.Duration
	start      time.Time

	// sleep and randFloat are replaced in tests.
	sleep     func(ctx context.Context, d time.Duration)
	randFloat func() float64
}

// New creates a Fetcher from configuration.
func New(source Source, cache SeriesCache, cfg *config.Config, log *logger.Logger) (*Fetcher, error) {
	start, err := time.Parse("2006-01-02", cfg.Fetch.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid fetch start date %q: %w", cfg.Fetch.StartDate, err)
	}

	return &Fetcher{
		source:     source,
		cache:      cache,
		logger:     log,
		maxRetries: cfg.Fetch.MaxRetries,
		baseDelay:  cfg.Fetch.BaseRetryDelay,
		start:      start,
		sleep:      sleepCtx,
		randFloat:  rand.Float64,
	}, nil
}

// Fetch returns a validated series for the instrument. The cache is used
// when fresh; otherwise the source is queried with bounded retry and the
// result persisted. When every attempt fails, a stale but valid cache
// entry is returned as a degraded answer.
func (f *Fetcher) Fetch(ctx context.Context, inst contracts.Instrument) (*contracts.TimeSeries, error) {
	if !f.cache.NeedsRefresh(ctx, inst) {
		series, err := f.cache.Load(inst)
		if err == nil && Validate(series) == nil {
			return series, nil
		}
		if err != nil {
			f.logger.WithError(err).WithField("code", inst.Code).Warn("Fresh cache entry unreadable, refetching")
		}
	}

	var lastErr error
	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		series, err := f.source.DailyBars(ctx, inst, f.start)
		if err != nil {
			lastErr = err
			f.logger.WithError(err).
				WithFields(map[string]interface{}{"code": inst.Code, "attempt": attempt}).
				Warn("Source request failed")
			f.sleep(ctx, f.backoff(attempt))
			continue
		}

		// Courtesy pause after every successful upstream call.
		f.sleep(ctx, f.jitter(500*time.Millisecond, 1500*time.Millisecond))

		if series == nil || series.Len() == 0 {
			lastErr = ErrEmptyResponse
			f.sleep(ctx, f.backoff(attempt))
			continue
		}

		// Keep the name the source resolved when the caller only had a code.
		if inst.Name == "" {
			inst.Name = series.Instrument.Name
		}
		series.Instrument = inst
		series.Sort()

		if err := Validate(series); err != nil {
			lastErr = err
			f.logger.WithError(err).
				WithFields(map[string]interface{}{"code": inst.Code, "attempt": attempt}).
				Warn("Fetched series failed validation")
			f.sleep(ctx, f.jitter(1*time.Second, 3*time.Second))
			continue
		}

		if err := f.cache.Store(series); err != nil {
			f.logger.WithError(err).WithField("code", inst.Code).Warn("Failed to persist series to cache")
		}
		return series, nil
	}

	// Retry budget exhausted: a stale but valid cache entry still serves.
	if stale, err := f.cache.Load(inst); err == nil && Validate(stale) == nil {
		f.logger.WithField("code", inst.Code).Warn("Serving stale cache entry after fetch failure")
		return stale, nil
	}

	return nil, fmt.Errorf("failed to fetch series for %s after %d attempts: %w", inst.Code, f.maxRetries, lastErr)
}

func (f *Fetcher) backoff(attempt int) time.Duration {
	return f.baseDelay * time.Duration(1<<(attempt-1))
}

func (f *Fetcher) jitter(min, max time.Duration) time.Duration {
	return min + time.Duration(f.randFloat()*float64(max-min))
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
