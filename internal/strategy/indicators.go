package strategy

import (
	"gonum.org/v1/gonum/floats"

	"github.com/wonny/stockscan/internal/contracts"
)

// sma returns the simple moving average of the last window values.
// ok is false when fewer than window values are available.
func sma(values []float64, window int) (float64, bool) {
	if window <= 0 || len(values) < window {
		return 0, false
	}
	return floats.Sum(values[len(values)-window:]) / float64(window), true
}

// windowMax returns the maximum over the last window values.
func windowMax(values []float64, window int) (float64, bool) {
	if window <= 0 || len(values) < window {
		return 0, false
	}
	return floats.Max(values[len(values)-window:]), true
}

// windowMin returns the minimum over the last window values.
func windowMin(values []float64, window int) (float64, bool) {
	if window <= 0 || len(values) < window {
		return 0, false
	}
	return floats.Min(values[len(values)-window:]), true
}

// trueRanges computes the true-range series. The first bar has no previous
// close, so its TR is high-low.
func trueRanges(bars []contracts.Bar) []float64 {
	tr := make([]float64, len(bars))
	for i, bar := range bars {
		hl := bar.High - bar.Low
		if i == 0 {
			tr[i] = hl
			continue
		}
		prevClose := bars[i-1].Close
		tr[i] = max3(hl, abs(bar.High-prevClose), abs(bar.Low-prevClose))
	}
	return tr
}

// atr returns the latest average true range over the window.
func atr(bars []contracts.Bar, window int) (float64, bool) {
	if len(bars) < window {
		return 0, false
	}
	return sma(trueRanges(bars), window)
}

// rsi returns the latest Wilder RSI over the period.
func rsi(closes []float64, period int) (float64, bool) {
	if len(closes) < period+1 {
		return 0, false
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), true
}

// maxDrawdown returns the largest peak-to-trough decline ratio over the
// last window closes.
func maxDrawdown(closes []float64, window int) (float64, bool) {
	if window <= 0 || len(closes) < window {
		return 0, false
	}
	tail := closes[len(closes)-window:]

	peak := tail[0]
	worst := 0.0
	for _, c := range tail {
		if c > peak {
			peak = c
		}
		if peak > 0 {
			if dd := (peak - c) / peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst, true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
