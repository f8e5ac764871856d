package fetcher

import (
	"fmt"
	"math"
	"strings"

	"github.com/wonny/stockscan/internal/contracts"
)

const (
	// minBars is the minimum number of daily bars a usable series carries.
	minBars = 20
	// maxMissingRatio caps the share of absent or zero values per field.
	maxMissingRatio = 0.20
	// minSpanDays is the minimum calendar span between first and last bar.
	minSpanDays = 30
)

// ValidationError reports why a fetched series was rejected.
type ValidationError struct {
	Code     string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("series for %s failed validation: %s", e.Code, strings.Join(e.Problems, "; "))
}

// Validate checks a series against the minimum quality bar. A nil return
// means the series is usable for analysis.
func Validate(series *contracts.TimeSeries) error {
	var problems []string

	if series == nil || series.Len() == 0 {
		return &ValidationError{Problems: []string{"series is empty"}}
	}

	if series.Len() < minBars {
		problems = append(problems, fmt.Sprintf("only %d bars, need %d", series.Len(), minBars))
	}

	fields := []struct {
		name  string
		value func(contracts.Bar) float64
	}{
		{"open", func(b contracts.Bar) float64 { return b.Open }},
		{"high", func(b contracts.Bar) float64 { return b.High }},
		{"low", func(b contracts.Bar) float64 { return b.Low }},
		{"close", func(b contracts.Bar) float64 { return b.Close }},
		{"volume", func(b contracts.Bar) float64 { return b.Volume }},
	}
	for _, f := range fields {
		missing := 0
		for _, bar := range series.Bars {
			v := f.value(bar)
			if v == 0 || math.IsNaN(v) {
				missing++
			}
		}
		ratio := float64(missing) / float64(series.Len())
		if ratio > maxMissingRatio {
			problems = append(problems, fmt.Sprintf("%s missing ratio %.2f exceeds %.2f", f.name, ratio, maxMissingRatio))
		}
	}

	if span := series.SpanDays(); span < minSpanDays {
		problems = append(problems, fmt.Sprintf("date span %d days, need %d", span, minSpanDays))
	}

	if len(problems) > 0 {
		return &ValidationError{Code: series.Instrument.Code, Problems: problems}
	}
	return nil
}
