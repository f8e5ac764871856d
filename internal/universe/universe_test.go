package universe

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockscan/internal/contracts"
	"github.com/wonny/stockscan/pkg/logger"
)

type stubProvider struct {
	instruments []contracts.Instrument
	err         error
	calls       int
}

func (s *stubProvider) Universe(ctx context.Context) ([]contracts.Instrument, error) {
	s.calls++
	return s.instruments, s.err
}

type memCache struct {
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (m *memCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func testInstruments() []contracts.Instrument {
	return []contracts.Instrument{
		{Code: "600036", Name: "China Merchants Bank"},
		{Code: "000001", Name: "Ping An Bank"},
	}
}

func newTestCached(source Provider, cache snapshotCache, day string) *Cached {
	at, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return &Cached{
		source: source,
		cache:  cache,
		logger: logger.NewNop(),
		now:    func() time.Time { return at },
	}
}

func TestUniverseScrapesOncePerDay(t *testing.T) {
	src := &stubProvider{instruments: testInstruments()}
	cache := newMemCache()
	c := newTestCached(src, cache, "2026-08-28")
	ctx := context.Background()

	first, err := c.Universe(ctx)
	require.NoError(t, err)
	second, err := c.Universe(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, src.calls)
	assert.Equal(t, first, second)
	assert.Contains(t, cache.data, "universe:2026-08-28")
}

func TestUniverseNewDayRefetches(t *testing.T) {
	src := &stubProvider{instruments: testInstruments()}
	cache := newMemCache()
	ctx := context.Background()

	_, err := newTestCached(src, cache, "2026-08-27").Universe(ctx)
	require.NoError(t, err)
	_, err = newTestCached(src, cache, "2026-08-28").Universe(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, src.calls)
}

func TestUniverseSourceErrorPropagates(t *testing.T) {
	src := &stubProvider{err: errors.New("scrape failed")}
	c := newTestCached(src, newMemCache(), "2026-08-28")

	_, err := c.Universe(context.Background())
	assert.Error(t, err)
}
