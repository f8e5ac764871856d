package contracts

import "time"

// SignalType classifies a strategy signal.
type SignalType string

const (
	SignalBuy  SignalType = "buy"
	SignalSell SignalType = "sell"
	SignalNone SignalType = "none"
)

// Signal is an actionable recommendation anchored to the last bar of the
// series it was derived from.
type Signal struct {
	Date       time.Time          `json:"date"`
	Instrument Instrument         `json:"instrument"`
	StrategyID string             `json:"strategy_id"`
	Type       SignalType         `json:"type"`
	Price      float64            `json:"price"`
	Attributes map[string]float64 `json:"attributes,omitempty"`
}

// AnalysisResult is the outcome of running one strategy against one
// instrument. Signal is nil when the strategy saw nothing actionable.
type AnalysisResult struct {
	Instrument Instrument         `json:"instrument"`
	StrategyID string             `json:"strategy_id"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
	Signal     *Signal            `json:"signal,omitempty"`
}

// HasSignal reports whether the result carries an actionable signal.
func (r *AnalysisResult) HasSignal() bool {
	return r != nil && r.Signal != nil && r.Signal.Type != SignalNone
}

// Metric returns a named metric value, zero when absent.
func (r *AnalysisResult) Metric(name string) float64 {
	if r == nil || r.Metrics == nil {
		return 0
	}
	return r.Metrics[name]
}
