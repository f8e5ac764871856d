package strategy

import (
	"github.com/wonny/stockscan/internal/contracts"
)

// Turtle is the classic N-day breakout system with ATR-based position
// sizing. A close above the prior N-day high buys, below the prior N-day
// low sells.
type Turtle struct {
	window    int
	atrWindow int
	riskRatio float64
}

// NewTurtle returns the strategy with its standard parameters.
func NewTurtle() *Turtle {
	return &Turtle{window: 20, atrWindow: 20, riskRatio: 0.01}
}

func (s *Turtle) Name() string { return "turtle" }

func (s *Turtle) Analyze(series *contracts.TimeSeries) (*contracts.AnalysisResult, error) {
	if series == nil || series.Len() < s.window+1 {
		return nil, nil
	}

	// Breakout levels exclude the current bar.
	prev := series.Bars[:series.Len()-1]
	highs := make([]float64, len(prev))
	lows := make([]float64, len(prev))
	for i, bar := range prev {
		highs[i] = bar.High
		lows[i] = bar.Low
	}
	highN, _ := windowMax(highs, s.window)
	lowN, _ := windowMin(lows, s.window)

	latestATR, ok := atr(series.Bars, s.atrWindow)
	if !ok {
		return nil, nil
	}

	last, _ := series.Last()
	positionSize := 0.0
	if latestATR > 0 {
		positionSize = s.riskRatio * last.Close / latestATR
	}

	result := &contracts.AnalysisResult{
		Instrument: series.Instrument,
		StrategyID: s.Name(),
		Metrics: map[string]float64{
			"high_n":        highN,
			"low_n":         lowN,
			"atr":           latestATR,
			"position_size": positionSize,
		},
	}

	switch {
	case last.Close > highN:
		result.Signal = newSignal(series, s.Name(), contracts.SignalBuy, result.Metrics)
	case last.Close < lowN:
		result.Signal = newSignal(series, s.Name(), contracts.SignalSell, result.Metrics)
	}
	return result, nil
}

func (s *Turtle) Signals(series *contracts.TimeSeries) ([]contracts.Signal, error) {
	return signalsFromAnalyze(s, series)
}
