package strategy

import (
	"github.com/wonny/stockscan/internal/contracts"
)

// LowATR filters for quiet names: volatility (ATR relative to price) under
// a floor while price sits above its 20-day average on expanding volume.
// Doubled volatility sells.
type LowATR struct {
	atrWindow   int
	maWindow    int
	maxATRRatio float64
	minVolRatio float64
}

// NewLowATR returns the strategy with its standard parameters.
func NewLowATR() *LowATR {
	return &LowATR{
		atrWindow:   14,
		maWindow:    20,
		maxATRRatio: 0.02,
		minVolRatio: 1.5,
	}
}

func (s *LowATR) Name() string { return "low_atr" }

func (s *LowATR) Analyze(series *contracts.TimeSeries) (*contracts.AnalysisResult, error) {
	need := s.maWindow
	if s.atrWindow > need {
		need = s.atrWindow
	}
	if series == nil || series.Len() < need {
		return nil, nil
	}

	latestATR, ok := atr(series.Bars, s.atrWindow)
	if !ok {
		return nil, nil
	}

	last, _ := series.Last()
	if last.Close == 0 {
		return nil, nil
	}
	atrRatio := latestATR / last.Close

	closes := series.Closes()
	ma20, ok := sma(closes, s.maWindow)
	if !ok {
		return nil, nil
	}

	volumes := make([]float64, series.Len())
	for i, bar := range series.Bars {
		volumes[i] = bar.Volume
	}
	volMA, ok := sma(volumes, s.maWindow)
	if !ok || volMA == 0 {
		return nil, nil
	}
	volRatio := last.Volume / volMA

	result := &contracts.AnalysisResult{
		Instrument: series.Instrument,
		StrategyID: s.Name(),
		Metrics: map[string]float64{
			"atr":          latestATR,
			"atr_ratio":    atrRatio,
			"ma20":         ma20,
			"volume_ratio": volRatio,
		},
	}

	switch {
	case atrRatio < s.maxATRRatio &&
		last.Close > ma20 &&
		volRatio > s.minVolRatio:
		result.Signal = newSignal(series, s.Name(), contracts.SignalBuy, result.Metrics)
	case atrRatio > s.maxATRRatio*2:
		result.Signal = newSignal(series, s.Name(), contracts.SignalSell, result.Metrics)
	}
	return result, nil
}

func (s *LowATR) Signals(series *contracts.TimeSeries) ([]contracts.Signal, error) {
	return signalsFromAnalyze(s, series)
}
