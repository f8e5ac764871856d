package sina

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockscan/pkg/config"
	"github.com/wonny/stockscan/pkg/logger"
)

func testClient(url string) *Client {
	cfg := &config.Config{Sina: config.SinaConfig{CalendarURL: url}}
	return NewClient(cfg, logger.NewNop())
}

func TestTradingDatesBareArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["2026-08-27","2026-08-28"]`))
	}))
	defer server.Close()

	dates, err := testClient(server.URL).TradingDates(context.Background())
	require.NoError(t, err)
	require.Len(t, dates, 2)
	assert.Equal(t, "2026-08-27", dates[0].Format("2006-01-02"))
}

func TestTradingDatesWrapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":["2026-08-27","bogus","2026-08-28"]}`))
	}))
	defer server.Close()

	dates, err := testClient(server.URL).TradingDates(context.Background())
	require.NoError(t, err)
	assert.Len(t, dates, 2)
}

func TestTradingDatesEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).TradingDates(context.Background())
	assert.Error(t, err)
}
