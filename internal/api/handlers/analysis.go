package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/stockscan/internal/calendar"
	"github.com/wonny/stockscan/internal/contracts"
	"github.com/wonny/stockscan/internal/report"
	"github.com/wonny/stockscan/pkg/logger"
)

// InstrumentAnalyzer runs the strategy battery for one instrument.
type InstrumentAnalyzer interface {
	AnalyzeInstrument(ctx context.Context, inst contracts.Instrument) ([]*contracts.AnalysisResult, error)
}

// AnalysisHandler serves analysis and calendar endpoints.
type AnalysisHandler struct {
	analyzer InstrumentAnalyzer
	calendar *calendar.Calendar
	repo     *report.Repository
	logger   *logger.Logger
}

// NewAnalysisHandler creates the handler. repo may be nil when no
// database is configured.
func NewAnalysisHandler(a InstrumentAnalyzer, cal *calendar.Calendar, repo *report.Repository, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		analyzer: a,
		calendar: cal,
		repo:     repo,
		logger:   log,
	}
}

// Analyze runs every strategy against one instrument.
// POST /api/analyze/{code}
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if code == "" {
		respondError(w, http.StatusBadRequest, "stock code is required")
		return
	}

	results, err := h.analyzer.AnalyzeInstrument(r.Context(), contracts.Instrument{Code: code})
	if err != nil {
		h.logger.WithError(err).WithField("code", code).Error("Analysis failed")
		respondError(w, http.StatusBadGateway, "Failed to analyze instrument")
		return
	}

	signals := 0
	for _, res := range results {
		if res.HasSignal() {
			signals++
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"code":    code,
		"results": results,
		"signals": signals,
	})
}

// CalendarStatus reports the current session and trading-day state.
// GET /api/calendar/status
func (h *AnalysisHandler) CalendarStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := time.Now()

	lastTrading := ""
	if d, ok := h.calendar.MostRecentTradingDay(ctx, now); ok {
		lastTrading = d.Format("2006-01-02")
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"now":               now.Format(time.RFC3339),
		"is_trading_day":    h.calendar.IsTradingDay(ctx, now),
		"session":           h.calendar.Session(ctx, now),
		"last_trading_day":  lastTrading,
		"degraded_calendar": h.calendar.Degraded(),
	})
}

// RecentSignals lists persisted signals from the last N days (default 5).
// GET /api/signals/recent?days=N
func (h *AnalysisHandler) RecentSignals(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		respondError(w, http.StatusNotImplemented, "No database configured")
		return
	}

	days := 5
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = n
	}

	signals, err := h.repo.RecentSignals(r.Context(), days)
	if err != nil {
		h.logger.WithError(err).Error("Failed to query recent signals")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve signals")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"days":    days,
		"signals": signals,
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
