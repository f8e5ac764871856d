package strategy

import (
	"github.com/wonny/stockscan/internal/contracts"
)

// BacktraceMA250 watches for a pullback to the annual moving average:
// price hovering just above MA250 on expanding volume while RSI still has
// room. A close well below the annual line sells.
type BacktraceMA250 struct {
	maWindow     int
	volWindow    int
	rsiPeriod    int
	maxDeviation float64
	minVolRatio  float64
	maxRSI       float64
}

// NewBacktraceMA250 returns the strategy with its standard parameters.
func NewBacktraceMA250() *BacktraceMA250 {
	return &BacktraceMA250{
		maWindow:     250,
		volWindow:    20,
		rsiPeriod:    14,
		maxDeviation: 0.02,
		minVolRatio:  1.5,
		maxRSI:       50,
	}
}

func (s *BacktraceMA250) Name() string { return "backtrace_ma250" }

func (s *BacktraceMA250) Analyze(series *contracts.TimeSeries) (*contracts.AnalysisResult, error) {
	if series == nil || series.Len() < s.maWindow {
		return nil, nil
	}

	closes := series.Closes()
	ma250, ok := sma(closes, s.maWindow)
	if !ok || ma250 == 0 {
		return nil, nil
	}

	last, _ := series.Last()
	deviation := (last.Close - ma250) / ma250

	volumes := make([]float64, series.Len())
	for i, bar := range series.Bars {
		volumes[i] = bar.Volume
	}
	volMA, ok := sma(volumes, s.volWindow)
	if !ok || volMA == 0 {
		return nil, nil
	}
	volRatio := last.Volume / volMA

	latestRSI, ok := rsi(closes, s.rsiPeriod)
	if !ok {
		return nil, nil
	}

	result := &contracts.AnalysisResult{
		Instrument: series.Instrument,
		StrategyID: s.Name(),
		Metrics: map[string]float64{
			"ma250":        ma250,
			"deviation":    deviation,
			"volume_ratio": volRatio,
			"rsi":          latestRSI,
		},
	}

	switch {
	case abs(deviation) < s.maxDeviation &&
		last.Close > ma250 &&
		volRatio > s.minVolRatio &&
		latestRSI < s.maxRSI:
		result.Signal = newSignal(series, s.Name(), contracts.SignalBuy, result.Metrics)
	case last.Close < ma250*0.95:
		result.Signal = newSignal(series, s.Name(), contracts.SignalSell, result.Metrics)
	}
	return result, nil
}

func (s *BacktraceMA250) Signals(series *contracts.TimeSeries) ([]contracts.Signal, error) {
	return signalsFromAnalyze(s, series)
}
