package strategy

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/stockscan/internal/contracts"
)

// RSRS measures resistance/support relative strength: the slope of a
// linear regression of daily highs on daily lows over a short window,
// weighted by the regression's R-squared.
type RSRS struct {
	window    int
	threshold float64
}

// NewRSRS returns the strategy with its standard parameters.
func NewRSRS() *RSRS {
	return &RSRS{window: 18, threshold: 0.7}
}

func (s *RSRS) Name() string { return "rsrs" }

func (s *RSRS) Analyze(series *contracts.TimeSeries) (*contracts.AnalysisResult, error) {
	if series == nil || series.Len() < s.window {
		return nil, nil
	}

	bars := series.Bars[series.Len()-s.window:]
	lows := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	for i, bar := range bars {
		lows[i] = bar.Low
		highs[i] = bar.High
	}

	alpha, beta := stat.LinearRegression(lows, highs, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) {
		return nil, nil
	}
	r2 := stat.RSquaredFrom(estimates(lows, alpha, beta), highs, nil)
	if math.IsNaN(r2) {
		return nil, nil
	}

	score := beta * r2
	support, _ := windowMin(lows, s.window)
	resistance, _ := windowMax(highs, s.window)

	result := &contracts.AnalysisResult{
		Instrument: series.Instrument,
		StrategyID: s.Name(),
		Metrics: map[string]float64{
			"slope":      beta,
			"score":      score,
			"support":    support,
			"resistance": resistance,
		},
	}

	switch {
	case score > s.threshold:
		result.Signal = newSignal(series, s.Name(), contracts.SignalBuy, result.Metrics)
	case score < -s.threshold:
		result.Signal = newSignal(series, s.Name(), contracts.SignalSell, result.Metrics)
	}
	return result, nil
}

func (s *RSRS) Signals(series *contracts.TimeSeries) ([]contracts.Signal, error) {
	return signalsFromAnalyze(s, series)
}

func estimates(xs []float64, alpha, beta float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = alpha + beta*x
	}
	return out
}
