package fetcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockscan/internal/contracts"
	"github.com/wonny/stockscan/pkg/config"
	"github.com/wonny/stockscan/pkg/logger"
)

type fakeSource struct {
	responses []*contracts.TimeSeries
	errs      []error
	calls     int
}

func (s *fakeSource) DailyBars(ctx context.Context, inst contracts.Instrument, start time.Time) (*contracts.TimeSeries, error) {
	i := s.calls
	s.calls++
	var series *contracts.TimeSeries
	var err error
	if i < len(s.responses) {
		series = s.responses[i]
	}
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return series, err
}

type fakeCache struct {
	fresh      bool
	stored     *contracts.TimeSeries
	loadSeries *contracts.TimeSeries
	loadErr    error
	storeCalls int
}

func (c *fakeCache) NeedsRefresh(ctx context.Context, inst contracts.Instrument) bool {
	return !c.fresh
}

func (c *fakeCache) Load(inst contracts.Instrument) (*contracts.TimeSeries, error) {
	if c.loadErr != nil {
		return nil, c.loadErr
	}
	return c.loadSeries, nil
}

func (c *fakeCache) Store(series *contracts.TimeSeries) error {
	c.storeCalls++
	c.stored = series
	return nil
}

func validSeries(code string) *contracts.TimeSeries {
	start, _ := time.Parse("2006-01-02", "2026-06-01")
	bars := make([]contracts.Bar, 45)
	for i := range bars {
		price := 10.0 + float64(i)*0.1
		bars[i] = contracts.Bar{
			Date:   start.AddDate(0, 0, i),
			Open:   price,
			High:   price + 0.5,
			Low:    price - 0.3,
			Close:  price + 0.2,
			Volume: 100000,
			Amount: 1.1e6,
		}
	}
	return &contracts.TimeSeries{
		Instrument: contracts.Instrument{Code: code},
		Bars:       bars,
	}
}

func shortSeries(code string) *contracts.TimeSeries {
	series := validSeries(code)
	series.Bars = series.Bars[:5]
	return series
}

func newTestFetcher(t *testing.T, source Source, cache SeriesCache) *Fetcher {
	t.Helper()
	cfg := &config.Config{
		Fetch: config.FetchConfig{
			MaxRetries:     3,
			BaseRetryDelay: 2 * time.Second,
			StartDate:      "2024-01-01",
		},
	}
	f, err := New(source, cache, cfg, logger.NewNop())
	require.NoError(t, err)
	f.sleep = func(ctx context.Context, d time.Duration) {}
	f.randFloat = func() float64 { return 0.5 }
	return f
}

func TestFetchFreshCacheSkipsSource(t *testing.T) {
	source := &fakeSource{}
	cache := &fakeCache{fresh: true, loadSeries: validSeries("600036")}
	f := newTestFetcher(t, source, cache)

	series, err := f.Fetch(context.Background(), contracts.Instrument{Code: "600036"})
	require.NoError(t, err)
	assert.Equal(t, 45, series.Len())
	assert.Equal(t, 0, source.calls)
}

func TestFetchStaleCacheHitsSource(t *testing.T) {
	source := &fakeSource{responses: []*contracts.TimeSeries{validSeries("600036")}}
	cache := &fakeCache{}
	f := newTestFetcher(t, source, cache)

	series, err := f.Fetch(context.Background(), contracts.Instrument{Code: "600036"})
	require.NoError(t, err)
	assert.Equal(t, 45, series.Len())
	assert.Equal(t, 1, source.calls)
	assert.Equal(t, 1, cache.storeCalls)
}

func TestFetchKeepsResolvedName(t *testing.T) {
	resolved := validSeries("600036")
	resolved.Instrument.Name = "China Merchants Bank"
	source := &fakeSource{responses: []*contracts.TimeSeries{resolved}}
	f := newTestFetcher(t, source, &fakeCache{})

	series, err := f.Fetch(context.Background(), contracts.Instrument{Code: "600036"})
	require.NoError(t, err)
	assert.Equal(t, "China Merchants Bank", series.Instrument.Name)
}

func TestFetchCallerNameWins(t *testing.T) {
	resolved := validSeries("600036")
	resolved.Instrument.Name = "China Merchants Bank"
	source := &fakeSource{responses: []*contracts.TimeSeries{resolved}}
	f := newTestFetcher(t, source, &fakeCache{})

	series, err := f.Fetch(context.Background(), contracts.Instrument{Code: "600036", Name: "CMB"})
	require.NoError(t, err)
	assert.Equal(t, "CMB", series.Instrument.Name)
}

func TestFetchRetriesOnSourceError(t *testing.T) {
	source := &fakeSource{
		errs:      []error{errors.New("timeout"), errors.New("timeout"), nil},
		responses: []*contracts.TimeSeries{nil, nil, validSeries("600036")},
	}
	cache := &fakeCache{loadErr: errors.New("no entry")}
	f := newTestFetcher(t, source, cache)

	series, err := f.Fetch(context.Background(), contracts.Instrument{Code: "600036"})
	require.NoError(t, err)
	assert.Equal(t, 3, source.calls)
	assert.Equal(t, 45, series.Len())
}

func TestFetchRetriesOnValidationFailure(t *testing.T) {
	source := &fakeSource{
		responses: []*contracts.TimeSeries{shortSeries("600036"), validSeries("600036")},
	}
	cache := &fakeCache{loadErr: errors.New("no entry")}
	f := newTestFetcher(t, source, cache)

	series, err := f.Fetch(context.Background(), contracts.Instrument{Code: "600036"})
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
	assert.Equal(t, 45, series.Len())
}

func TestFetchStaleFallbackAfterExhaustedRetries(t *testing.T) {
	source := &fakeSource{
		errs: []error{errors.New("down"), errors.New("down"), errors.New("down")},
	}
	cache := &fakeCache{loadSeries: validSeries("600036")}
	f := newTestFetcher(t, source, cache)

	series, err := f.Fetch(context.Background(), contracts.Instrument{Code: "600036"})
	require.NoError(t, err)
	assert.Equal(t, 3, source.calls)
	assert.Equal(t, 45, series.Len())
	assert.Equal(t, 0, cache.storeCalls)
}

func TestFetchFailsWithoutStaleFallback(t *testing.T) {
	source := &fakeSource{
		errs: []error{errors.New("down"), errors.New("down"), errors.New("down")},
	}
	cache := &fakeCache{loadErr: errors.New("no entry")}
	f := newTestFetcher(t, source, cache)

	_, err := f.Fetch(context.Background(), contracts.Instrument{Code: "600036"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestFetchEmptyResponseCountsAgainstBudget(t *testing.T) {
	empty := &contracts.TimeSeries{}
	source := &fakeSource{responses: []*contracts.TimeSeries{empty, empty, empty}}
	cache := &fakeCache{loadErr: errors.New("no entry")}
	f := newTestFetcher(t, source, cache)

	_, err := f.Fetch(context.Background(), contracts.Instrument{Code: "600036"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestBackoffDoubles(t *testing.T) {
	f := newTestFetcher(t, &fakeSource{}, &fakeCache{})

	assert.Equal(t, 2*time.Second, f.backoff(1))
	assert.Equal(t, 4*time.Second, f.backoff(2))
	assert.Equal(t, 8*time.Second, f.backoff(3))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(validSeries("600036")))

	var verr *ValidationError

	err := Validate(shortSeries("600036"))
	require.Error(t, err)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "bars")

	zeroVol := validSeries("600036")
	for i := range zeroVol.Bars {
		if i%3 == 0 {
			zeroVol.Bars[i].Volume = 0
		}
	}
	err = Validate(zeroVol)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "volume")

	assert.Error(t, Validate(nil))
	assert.Error(t, Validate(&contracts.TimeSeries{}))
}
