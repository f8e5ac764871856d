package datacache

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/wonny/stockscan/internal/contracts"
	"github.com/wonny/stockscan/pkg/logger"
)

// MarketCalendar is the slice of calendar behavior the cache needs.
type MarketCalendar interface {
	IsTradingDay(ctx context.Context, date time.Time) bool
	MostRecentTradingDay(ctx context.Context, t time.Time) (time.Time, bool)
}

// Entry describes a cached series file.
type Entry struct {
	Path      string
	WriteTime time.Time
}

// Cache stores one CSV file per instrument under a base directory and
// answers staleness questions against the market calendar.
type Cache struct {
	dir      string
	maxAge   time.Duration
	calendar MarketCalendar
	logger   *logger.Logger

	// now is the clock; replaced in tests.
	now func() time.Time
}

var csvHeader = []string{"date", "open", "high", "low", "close", "volume", "amount"}

const dateLayout = "2006-01-02"

// New creates a Cache rooted at dir. maxAge is the intraday freshness
// window applied during trading hours.
func New(dir string, maxAge time.Duration, cal MarketCalendar, log *logger.Logger) *Cache {
	return &Cache{
		dir:      dir,
		maxAge:   maxAge,
		calendar: cal,
		logger:   log,
		now:      time.Now,
	}
}

func (c *Cache) path(code string) string {
	return filepath.Join(c.dir, code+".csv")
}

// Entry returns cache file metadata for an instrument. ok is false when
// no cache entry exists.
func (c *Cache) Entry(code string) (Entry, bool) {
	info, err := os.Stat(c.path(code))
	if err != nil {
		return Entry{}, false
	}
	return Entry{Path: c.path(code), WriteTime: info.ModTime()}, true
}

// Load reads the cached series for an instrument.
func (c *Cache) Load(inst contracts.Instrument) (*contracts.TimeSeries, error) {
	f, err := os.Open(c.path(inst.Code))
	if err != nil {
		return nil, fmt.Errorf("failed to open cache file for %s: %w", inst.Code, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file for %s: %w", inst.Code, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("cache file for %s has no data rows", inst.Code)
	}

	bars := make([]contracts.Bar, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) != len(csvHeader) {
			return nil, fmt.Errorf("cache file for %s has malformed row with %d columns", inst.Code, len(row))
		}
		date, err := time.Parse(dateLayout, row[0])
		if err != nil {
			return nil, fmt.Errorf("cache file for %s has invalid date %q: %w", inst.Code, row[0], err)
		}
		values := make([]float64, 6)
		for i := 0; i < 6; i++ {
			v, err := strconv.ParseFloat(row[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("cache file for %s has invalid %s value %q: %w", inst.Code, csvHeader[i+1], row[i+1], err)
			}
			values[i] = v
		}
		bars = append(bars, contracts.Bar{
			Date:   date,
			Open:   values[0],
			High:   values[1],
			Low:    values[2],
			Close:  values[3],
			Volume: values[4],
			Amount: values[5],
		})
	}

	series := &contracts.TimeSeries{Instrument: inst, Bars: bars}
	series.Sort()
	return series, nil
}

// Store writes the full series for an instrument, replacing any previous
// entry. The write goes through a temp file and rename so readers never
// observe a partial file.
func (c *Cache) Store(series *contracts.TimeSeries) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, series.Instrument.Code+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	writer := csv.NewWriter(tmp)
	if err := writer.Write(csvHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write cache header: %w", err)
	}
	for _, bar := range series.Bars {
		row := []string{
			bar.Date.Format(dateLayout),
			formatFloat(bar.Open),
			formatFloat(bar.High),
			formatFloat(bar.Low),
			formatFloat(bar.Close),
			formatFloat(bar.Volume),
			formatFloat(bar.Amount),
		}
		if err := writer.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write cache row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp cache file: %w", err)
	}

	if err := os.Rename(tmp.Name(), c.path(series.Instrument.Code)); err != nil {
		return fmt.Errorf("failed to replace cache file for %s: %w", series.Instrument.Code, err)
	}
	return nil
}

// NeedsRefresh decides whether the cache entry for an instrument must be
// refetched, based on the entry's write time, its last bar, and where the
// clock sits relative to the trading session.
//
// Concurrent fetches of the same instrument may both decide to refresh and
// write twice; the CSV overwrite is idempotent so the race is tolerated.
func (c *Cache) NeedsRefresh(ctx context.Context, inst contracts.Instrument) bool {
	entry, ok := c.Entry(inst.Code)
	if !ok {
		return true
	}

	now := c.now()
	closeToday := time.Date(now.Year(), now.Month(), now.Day(), 15, 0, 0, 0, now.Location())

	if c.calendar.IsTradingDay(ctx, now) {
		minutes := now.Hour()*60 + now.Minute()
		switch {
		case minutes < 9*60+30:
			// Before the open the previous close is the latest data there is.
			return false
		case minutes < 15*60:
			return now.Sub(entry.WriteTime) > c.maxAge
		default:
			// After the close: stale unless written after today's close.
			return entry.WriteTime.Before(closeToday)
		}
	}

	// Non-trading day: fresh only if the series already covers the most
	// recent completed trading day and was written after that day's close.
	lastTrading, ok := c.calendar.MostRecentTradingDay(ctx, now)
	if !ok {
		return true
	}

	series, err := c.Load(inst)
	if err != nil {
		if c.logger != nil {
			c.logger.WithError(err).WithField("code", inst.Code).Warn("Unreadable cache entry, forcing refresh")
		}
		return true
	}
	last, ok := series.Last()
	if !ok {
		return true
	}
	if !sameDay(last.Date, lastTrading) {
		return true
	}

	closeThatDay := time.Date(lastTrading.Year(), lastTrading.Month(), lastTrading.Day(),
		15, 0, 0, 0, entry.WriteTime.Location())
	return entry.WriteTime.Before(closeThatDay)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
