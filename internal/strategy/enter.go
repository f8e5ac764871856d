package strategy

import (
	"github.com/wonny/stockscan/internal/contracts"
)

// Enter spots breakout entries: a strong close above every prior close in
// the observation period, confirmed by a two-day volume surge. Buy-only.
type Enter struct {
	lookback    int
	minVolRatio float64
	minChange   float64
}

// NewEnter returns the strategy with its standard parameters.
func NewEnter() *Enter {
	return &Enter{lookback: 30, minVolRatio: 1.5, minChange: 0.02}
}

func (s *Enter) Name() string { return "enter" }

func (s *Enter) Analyze(series *contracts.TimeSeries) (*contracts.AnalysisResult, error) {
	if series == nil || series.Len() < s.lookback+1 {
		return nil, nil
	}

	closes := series.Closes()
	ma5, _ := sma(closes, 5)
	ma10, _ := sma(closes, 10)
	ma20, _ := sma(closes, 20)

	breakthrough := s.checkBreakthrough(series)
	volumeSurge := s.checkVolume(series)

	result := &contracts.AnalysisResult{
		Instrument: series.Instrument,
		StrategyID: s.Name(),
		Metrics: map[string]float64{
			"breakthrough": boolMetric(breakthrough),
			"volume_surge": boolMetric(volumeSurge),
			"ma5":          ma5,
			"ma10":         ma10,
			"ma20":         ma20,
		},
	}

	if breakthrough && volumeSurge {
		result.Signal = newSignal(series, s.Name(), contracts.SignalBuy, result.Metrics)
	}
	return result, nil
}

func (s *Enter) Signals(series *contracts.TimeSeries) ([]contracts.Signal, error) {
	return signalsFromAnalyze(s, series)
}

// checkBreakthrough requires the last close to clear every earlier close
// with a gain of more than 6% on the day.
func (s *Enter) checkBreakthrough(series *contracts.TimeSeries) bool {
	n := series.Len()
	last := series.Bars[n-1]
	prev := series.Bars[:n-1]

	maxPrev := prev[0].Close
	for _, bar := range prev {
		if bar.Close > maxPrev {
			maxPrev = bar.Close
		}
	}
	secondLast := prev[len(prev)-1].Close

	return last.Close > maxPrev && maxPrev > secondLast &&
		maxPrev > last.Open &&
		last.Open > 0 && last.Close/last.Open > 1.06
}

// checkVolume requires a two-day price gain with volume expansion.
func (s *Enter) checkVolume(series *contracts.TimeSeries) bool {
	n := series.Len()
	last := series.Bars[n-1]
	prior := series.Bars[n-2]

	if prior.Close == 0 || prior.Volume == 0 {
		return false
	}
	priceChange := last.Close/prior.Close - 1
	volumeChange := last.Volume / prior.Volume

	return priceChange > s.minChange && volumeChange > s.minVolRatio
}

func boolMetric(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
