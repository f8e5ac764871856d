package datacache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockscan/internal/contracts"
	"github.com/wonny/stockscan/pkg/logger"
)

// fakeCalendar treats Mon-Fri as trading days except listed holidays.
type fakeCalendar struct {
	holidays map[string]bool
}

func (f *fakeCalendar) IsTradingDay(ctx context.Context, date time.Time) bool {
	wd := date.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !f.holidays[date.Format("2006-01-02")]
}

func (f *fakeCalendar) MostRecentTradingDay(ctx context.Context, t time.Time) (time.Time, bool) {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	for i := 0; i < 30; i++ {
		if f.IsTradingDay(ctx, day) {
			return day, true
		}
		day = day.AddDate(0, 0, -1)
	}
	return time.Time{}, false
}

func mustTime(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

func testSeries(code string, lastDate string) *contracts.TimeSeries {
	last, _ := time.Parse("2006-01-02", lastDate)
	bars := []contracts.Bar{
		{Date: last.AddDate(0, 0, -1), Open: 10.1, High: 10.9, Low: 9.8, Close: 10.5, Volume: 120000, Amount: 1.26e6},
		{Date: last, Open: 10.5, High: 11.2, Low: 10.3, Close: 11.05, Volume: 98000, Amount: 1.08e6},
	}
	return &contracts.TimeSeries{
		Instrument: contracts.Instrument{Code: code, Name: "Test Co"},
		Bars:       bars,
	}
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	return New(t.TempDir(), 5*time.Minute, &fakeCalendar{holidays: map[string]bool{}}, logger.NewNop())
}

func TestStoreLoadRoundTrip(t *testing.T) {
	cache := newTestCache(t)
	series := testSeries("600036", "2026-08-27")
	// Exercise exact float round-tripping
	series.Bars[1].Close = 11.050000000000001

	require.NoError(t, cache.Store(series))

	loaded, err := cache.Load(series.Instrument)
	require.NoError(t, err)
	assert.Equal(t, series.Bars, loaded.Bars)
	assert.Equal(t, "600036", loaded.Instrument.Code)
}

func TestEntry(t *testing.T) {
	cache := newTestCache(t)

	_, ok := cache.Entry("600036")
	assert.False(t, ok)

	require.NoError(t, cache.Store(testSeries("600036", "2026-08-27")))
	entry, ok := cache.Entry("600036")
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now(), entry.WriteTime, 5*time.Second)
}

func TestLoadMissing(t *testing.T) {
	cache := newTestCache(t)
	_, err := cache.Load(contracts.Instrument{Code: "000001"})
	assert.Error(t, err)
}

func setWriteTime(t *testing.T, cache *Cache, code string, at time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(cache.path(code), at, at))
}

func TestNeedsRefresh(t *testing.T) {
	ctx := context.Background()

	// 2026-08-27 is a Thursday, 2026-08-29/30 a weekend.
	tests := []struct {
		name      string
		now       string
		lastBar   string
		writtenAt string
		noEntry   bool
		want      bool
	}{
		{name: "no cache entry", now: "2026-08-27 10:00", noEntry: true, want: true},
		{name: "pre-open never refreshes", now: "2026-08-27 09:00", lastBar: "2026-08-26", writtenAt: "2026-08-20 10:00", want: false},
		{name: "intraday fresh", now: "2026-08-27 10:00", lastBar: "2026-08-27", writtenAt: "2026-08-27 09:58", want: false},
		{name: "intraday stale", now: "2026-08-27 10:00", lastBar: "2026-08-27", writtenAt: "2026-08-27 09:30", want: true},
		{name: "lunch break counts as intraday", now: "2026-08-27 12:00", lastBar: "2026-08-27", writtenAt: "2026-08-27 11:58", want: false},
		{name: "post-close written before close", now: "2026-08-27 16:00", lastBar: "2026-08-27", writtenAt: "2026-08-27 14:00", want: true},
		{name: "post-close written after close", now: "2026-08-27 16:00", lastBar: "2026-08-27", writtenAt: "2026-08-27 15:30", want: false},
		{name: "weekend with complete friday bar", now: "2026-08-29 12:00", lastBar: "2026-08-28", writtenAt: "2026-08-28 16:00", want: false},
		{name: "weekend missing friday bar", now: "2026-08-29 12:00", lastBar: "2026-08-27", writtenAt: "2026-08-28 16:00", want: true},
		{name: "weekend written before friday close", now: "2026-08-29 12:00", lastBar: "2026-08-28", writtenAt: "2026-08-28 11:00", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := newTestCache(t)
			cache.now = func() time.Time { return mustTime(tt.now) }
			inst := contracts.Instrument{Code: "600036"}

			if !tt.noEntry {
				require.NoError(t, cache.Store(testSeries("600036", tt.lastBar)))
				setWriteTime(t, cache, "600036", mustTime(tt.writtenAt))
			}

			assert.Equal(t, tt.want, cache.NeedsRefresh(ctx, inst))
		})
	}
}

func TestNeedsRefreshHoliday(t *testing.T) {
	// Wednesday 2026-08-26 declared a holiday: behaves like a non-trading day
	cal := &fakeCalendar{holidays: map[string]bool{"2026-08-26": true}}
	cache := New(t.TempDir(), 5*time.Minute, cal, logger.NewNop())
	cache.now = func() time.Time { return mustTime("2026-08-26 10:00") }
	ctx := context.Background()
	inst := contracts.Instrument{Code: "600036"}

	require.NoError(t, cache.Store(testSeries("600036", "2026-08-25")))
	setWriteTime(t, cache, "600036", mustTime("2026-08-25 16:00"))
	assert.False(t, cache.NeedsRefresh(ctx, inst))

	setWriteTime(t, cache, "600036", mustTime("2026-08-25 10:00"))
	assert.True(t, cache.NeedsRefresh(ctx, inst))
}
