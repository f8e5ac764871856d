package strategy

import (
	"github.com/wonny/stockscan/internal/contracts"
)

// KeepIncreasing looks for a sustained advance: enough up days, few down
// days, a large window return, and a shallow drawdown.
type KeepIncreasing struct {
	window      int
	minUpDays   int
	maxDownDays int
	minReturn   float64
	maxDrawdown float64
}

// NewKeepIncreasing returns the strategy with its standard parameters.
func NewKeepIncreasing() *KeepIncreasing {
	return &KeepIncreasing{
		window:      20,
		minUpDays:   15,
		maxDownDays: 5,
		minReturn:   0.2,
		maxDrawdown: 0.05,
	}
}

func (s *KeepIncreasing) Name() string { return "keep_increasing" }

func (s *KeepIncreasing) Analyze(series *contracts.TimeSeries) (*contracts.AnalysisResult, error) {
	// Window returns need one bar before the window.
	if series == nil || series.Len() < s.window+1 {
		return nil, nil
	}

	closes := series.Closes()
	tail := closes[len(closes)-s.window-1:]

	upDays, downDays := 0, 0
	for i := 1; i < len(tail); i++ {
		switch {
		case tail[i] > tail[i-1]:
			upDays++
		case tail[i] < tail[i-1]:
			downDays++
		}
	}

	if tail[0] == 0 {
		return nil, nil
	}
	windowReturn := tail[len(tail)-1]/tail[0] - 1

	drawdown, ok := maxDrawdown(closes, s.window)
	if !ok {
		return nil, nil
	}

	result := &contracts.AnalysisResult{
		Instrument: series.Instrument,
		StrategyID: s.Name(),
		Metrics: map[string]float64{
			"up_days":       float64(upDays),
			"down_days":     float64(downDays),
			"window_return": windowReturn,
			"max_drawdown":  drawdown,
		},
	}

	switch {
	case upDays >= s.minUpDays &&
		downDays <= s.maxDownDays &&
		windowReturn >= s.minReturn &&
		drawdown <= s.maxDrawdown:
		result.Signal = newSignal(series, s.Name(), contracts.SignalBuy, result.Metrics)
	case upDays*2 < s.minUpDays ||
		downDays > s.maxDownDays*2 ||
		drawdown > s.maxDrawdown*2:
		result.Signal = newSignal(series, s.Name(), contracts.SignalSell, result.Metrics)
	}
	return result, nil
}

func (s *KeepIncreasing) Signals(series *contracts.TimeSeries) ([]contracts.Signal, error) {
	return signalsFromAnalyze(s, series)
}
