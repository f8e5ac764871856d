package calendar

import (
	"context"
	"sync"
	"time"

	"github.com/wonny/stockscan/pkg/logger"
	"github.com/wonny/stockscan/pkg/redis"
)

// Session identifies the intraday market session.
type Session string

const (
	SessionPreOpen   Session = "pre_open"  // trading day, before 09:30
	SessionMorning   Session = "morning"   // [09:30, 11:30)
	SessionLunch     Session = "lunch"     // [11:30, 13:00)
	SessionAfternoon Session = "afternoon" // [13:00, 15:00)
	SessionClosed    Session = "closed"    // at/after 15:00, or non-trading day
)

// DateSource provides the official trading-date list.
type DateSource interface {
	TradingDates(ctx context.Context) ([]time.Time, error)
}

// Calendar answers trading-day and session questions. Dates come from a
// DateSource and are cached in memory plus, when available, Redis. When the
// source fails the calendar degrades to a Mon-Fri approximation that treats
// holidays as trading days.
type Calendar struct {
	source DateSource
	cache  *redis.Cache
	logger *logger.Logger

	mu        sync.RWMutex
	dates     map[string]bool
	checkedAt time.Time
	degraded  bool
}

const dateLayout = "2006-01-02"

// reloadInterval bounds how long a load outcome, successful or degraded,
// is trusted before the source is consulted again.
const reloadInterval = 24 * time.Hour

// New creates a Calendar. cache may be nil or disabled.
func New(source DateSource, cache *redis.Cache, log *logger.Logger) *Calendar {
	return &Calendar{
		source: source,
		cache:  cache,
		logger: log,
	}
}

// IsTradingDay reports whether the given date is a trading day.
func (c *Calendar) IsTradingDay(ctx context.Context, date time.Time) bool {
	key := date.Format(dateLayout)

	c.ensureLoaded(ctx)

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.degraded {
		wd := date.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}
	return c.dates[key]
}

// Session returns the market session at the given instant.
func (c *Calendar) Session(ctx context.Context, now time.Time) Session {
	if !c.IsTradingDay(ctx, now) {
		return SessionClosed
	}

	minutes := now.Hour()*60 + now.Minute()
	switch {
	case minutes < 9*60+30:
		return SessionPreOpen
	case minutes < 11*60+30:
		return SessionMorning
	case minutes < 13*60:
		return SessionLunch
	case minutes < 15*60:
		return SessionAfternoon
	default:
		return SessionClosed
	}
}

// MostRecentTradingDay returns the latest trading day at or before t.
// ok is false when no trading day can be found in a reasonable window.
func (c *Calendar) MostRecentTradingDay(ctx context.Context, t time.Time) (time.Time, bool) {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	for i := 0; i < 30; i++ {
		if c.IsTradingDay(ctx, day) {
			return day, true
		}
		day = day.AddDate(0, 0, -1)
	}
	return time.Time{}, false
}

// Degraded reports whether the calendar is running on the weekday fallback.
func (c *Calendar) Degraded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.degraded
}

// ensureLoaded loads the trading-date list once per reload interval.
// Failures flip the calendar into degraded mode without returning an error;
// callers always get an answer. A failed load also counts against the
// interval, so a dead source is not re-polled on every query.
func (c *Calendar) ensureLoaded(ctx context.Context) {
	c.mu.RLock()
	fresh := !c.checkedAt.IsZero() && time.Since(c.checkedAt) < reloadInterval
	c.mu.RUnlock()
	if fresh {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.checkedAt.IsZero() && time.Since(c.checkedAt) < reloadInterval {
		return
	}

	if dates, ok := c.loadFromCache(ctx); ok {
		c.apply(dates)
		return
	}

	dates, err := c.source.TradingDates(ctx)
	if err != nil || len(dates) == 0 {
		if c.logger != nil {
			c.logger.WithError(err).Warn("Trading calendar unavailable, falling back to weekday approximation")
		}
		c.checkedAt = time.Now()
		// Keep any previously loaded list rather than degrading.
		if c.dates == nil {
			c.degraded = true
		}
		return
	}

	c.apply(dates)
	c.storeToCache(ctx, dates)
}

func (c *Calendar) apply(dates []time.Time) {
	m := make(map[string]bool, len(dates))
	for _, d := range dates {
		m[d.Format(dateLayout)] = true
	}
	c.dates = m
	c.degraded = false
	c.checkedAt = time.Now()
}

func (c *Calendar) loadFromCache(ctx context.Context) ([]time.Time, bool) {
	if c.cache == nil {
		return nil, false
	}

	var raw []string
	found, err := c.cache.Get(ctx, redis.TradingDatesKey(), &raw)
	if err != nil || !found || len(raw) == 0 {
		return nil, false
	}

	dates := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		d, err := time.Parse(dateLayout, s)
		if err != nil {
			continue
		}
		dates = append(dates, d)
	}
	return dates, len(dates) > 0
}

func (c *Calendar) storeToCache(ctx context.Context, dates []time.Time) {
	if c.cache == nil {
		return
	}

	raw := make([]string, len(dates))
	for i, d := range dates {
		raw[i] = d.Format(dateLayout)
	}
	if err := c.cache.Set(ctx, redis.TradingDatesKey(), raw, redis.TTLDaily); err != nil && c.logger != nil {
		c.logger.WithError(err).Warn("Failed to cache trading dates")
	}
}
