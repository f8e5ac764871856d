package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockscan/internal/calendar"
	"github.com/wonny/stockscan/internal/contracts"
	"github.com/wonny/stockscan/pkg/logger"
)

type stubAnalyzer struct {
	results []*contracts.AnalysisResult
	err     error
}

func (s *stubAnalyzer) AnalyzeInstrument(ctx context.Context, inst contracts.Instrument) ([]*contracts.AnalysisResult, error) {
	return s.results, s.err
}

type stubDates struct{}

func (stubDates) TradingDates(ctx context.Context) ([]time.Time, error) {
	today := time.Now()
	dates := make([]time.Time, 0, 10)
	for i := -5; i <= 5; i++ {
		dates = append(dates, today.AddDate(0, 0, i))
	}
	return dates, nil
}

func newHandler(a InstrumentAnalyzer) *AnalysisHandler {
	cal := calendar.New(stubDates{}, nil, logger.NewNop())
	return NewAnalysisHandler(a, cal, nil, logger.NewNop())
}

func doRequest(h *AnalysisHandler, method, target string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/api/analyze/{code}", h.Analyze).Methods("POST")
	r.HandleFunc("/api/calendar/status", h.CalendarStatus).Methods("GET")
	r.HandleFunc("/api/signals/recent", h.RecentSignals).Methods("GET")

	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeEndpoint(t *testing.T) {
	inst := contracts.Instrument{Code: "600036"}
	h := newHandler(&stubAnalyzer{results: []*contracts.AnalysisResult{
		{Instrument: inst, StrategyID: "turtle", Signal: &contracts.Signal{Type: contracts.SignalBuy}},
		{Instrument: inst, StrategyID: "rsrs"},
	}})

	rec := doRequest(h, http.MethodPost, "/api/analyze/600036")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Code    string                      `json:"code"`
		Results []*contracts.AnalysisResult `json:"results"`
		Signals int                         `json:"signals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "600036", body.Code)
	assert.Len(t, body.Results, 2)
	assert.Equal(t, 1, body.Signals)
}

func TestAnalyzeEndpointFailure(t *testing.T) {
	h := newHandler(&stubAnalyzer{err: errors.New("source down")})

	rec := doRequest(h, http.MethodPost, "/api/analyze/600036")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestCalendarStatusEndpoint(t *testing.T) {
	h := newHandler(&stubAnalyzer{})

	rec := doRequest(h, http.MethodGet, "/api/calendar/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "session")
	assert.Contains(t, body, "last_trading_day")
	assert.Equal(t, false, body["degraded_calendar"])
}

func TestRecentSignalsWithoutDatabase(t *testing.T) {
	h := newHandler(&stubAnalyzer{})

	rec := doRequest(h, http.MethodGet, "/api/signals/recent")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}
