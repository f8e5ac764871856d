package strategy

import (
	"github.com/wonny/stockscan/internal/contracts"
)

// Strategy analyzes a daily series and optionally emits a signal anchored
// to the last bar. Implementations are immutable after construction and
// safe for concurrent use.
//
// Analyze returns (nil, nil) when the series is too short or the math is
// degenerate; that is "nothing to say", not an error.
type Strategy interface {
	Name() string
	Analyze(series *contracts.TimeSeries) (*contracts.AnalysisResult, error)
	Signals(series *contracts.TimeSeries) ([]contracts.Signal, error)
}

// Registry holds the fixed, ordered set of strategies for a run.
type Registry struct {
	strategies []Strategy
}

// NewRegistry builds a registry preserving the given order.
func NewRegistry(strategies ...Strategy) *Registry {
	return &Registry{strategies: strategies}
}

// Default returns the standard battery in its canonical order.
func Default() *Registry {
	return NewRegistry(
		NewRSRS(),
		NewTurtle(),
		NewKeepIncreasing(),
		NewBacktraceMA250(),
		NewLowATR(),
		NewEnter(),
	)
}

// All returns the strategies in registry order.
func (r *Registry) All() []Strategy {
	return r.strategies
}

// Get looks a strategy up by name.
func (r *Registry) Get(name string) (Strategy, bool) {
	for _, s := range r.strategies {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// Len returns the number of registered strategies.
func (r *Registry) Len() int {
	return len(r.strategies)
}

// signalsFromAnalyze derives the Signals answer shared by every strategy:
// at most one signal, taken from Analyze on the full series.
func signalsFromAnalyze(s Strategy, series *contracts.TimeSeries) ([]contracts.Signal, error) {
	result, err := s.Analyze(series)
	if err != nil {
		return nil, err
	}
	if !result.HasSignal() {
		return []contracts.Signal{}, nil
	}
	return []contracts.Signal{*result.Signal}, nil
}

// newSignal anchors a signal to the last bar of the series.
func newSignal(series *contracts.TimeSeries, strategyID string, typ contracts.SignalType, attrs map[string]float64) *contracts.Signal {
	last, _ := series.Last()
	return &contracts.Signal{
		Date:       last.Date,
		Instrument: series.Instrument,
		StrategyID: strategyID,
		Type:       typ,
		Price:      last.Close,
		Attributes: attrs,
	}
}
