package contracts

import (
	"sort"
	"time"
)

// Instrument identifies a tradable equity. Code is the identity; Name is
// display-only.
type Instrument struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Bar is a single daily OHLCV record. Date carries calendar-day precision.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
	Amount float64   `json:"amount"`
}

// TimeSeries holds the daily bars of one instrument, ascending by date
// with no duplicate dates after Sort.
type TimeSeries struct {
	Instrument Instrument `json:"instrument"`
	Bars       []Bar      `json:"bars"`
}

// Len returns the number of bars.
func (ts *TimeSeries) Len() int {
	return len(ts.Bars)
}

// Last returns the most recent bar. ok is false for an empty series.
func (ts *TimeSeries) Last() (Bar, bool) {
	if len(ts.Bars) == 0 {
		return Bar{}, false
	}
	return ts.Bars[len(ts.Bars)-1], true
}

// Sort normalizes the series: bars sorted ascending by date, duplicate
// dates collapsed keeping the later entry.
func (ts *TimeSeries) Sort() {
	sort.SliceStable(ts.Bars, func(i, j int) bool {
		return ts.Bars[i].Date.Before(ts.Bars[j].Date)
	})

	deduped := ts.Bars[:0]
	for _, bar := range ts.Bars {
		if n := len(deduped); n > 0 && sameDay(deduped[n-1].Date, bar.Date) {
			deduped[n-1] = bar
			continue
		}
		deduped = append(deduped, bar)
	}
	ts.Bars = deduped
}

// SpanDays returns the number of calendar days between the first and last bar.
func (ts *TimeSeries) SpanDays() int {
	if len(ts.Bars) < 2 {
		return 0
	}
	first := ts.Bars[0].Date
	last := ts.Bars[len(ts.Bars)-1].Date
	return int(last.Sub(first).Hours() / 24)
}

// Closes returns the close column as a slice.
func (ts *TimeSeries) Closes() []float64 {
	out := make([]float64, len(ts.Bars))
	for i, bar := range ts.Bars {
		out[i] = bar.Close
	}
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
