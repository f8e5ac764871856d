package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockscan/internal/contracts"
	"github.com/wonny/stockscan/pkg/logger"
)

func sampleResults() []*contracts.AnalysisResult {
	date, _ := time.Parse("2006-01-02", "2026-08-27")
	inst := contracts.Instrument{Code: "600036", Name: "CMB"}
	return []*contracts.AnalysisResult{
		{
			Instrument: inst,
			StrategyID: "turtle",
			Metrics:    map[string]float64{"atr": 0.42, "high_n": 11.2},
			Signal: &contracts.Signal{
				Date:       date,
				Instrument: inst,
				StrategyID: "turtle",
				Type:       contracts.SignalBuy,
				Price:      11.35,
			},
		},
		{
			Instrument: contracts.Instrument{Code: "000001", Name: "PAB"},
			StrategyID: "rsrs",
			Metrics:    map[string]float64{"score": 0.12},
		},
	}
}

func TestWriterWrite(t *testing.T) {
	w := NewWriter(t.TempDir(), logger.NewNop())
	w.now = func() time.Time { return time.Date(2026, 8, 27, 16, 30, 0, 0, time.UTC) }

	report, err := w.Write(sampleResults())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Rows)
	assert.Contains(t, report.Dir, "20260827_163000")

	for _, path := range []string{report.CSVPath, report.JSONPath, report.HTMLPath} {
		info, err := os.Stat(path)
		require.NoError(t, err, path)
		assert.Greater(t, info.Size(), int64(0), path)
	}
}

func TestWriterCSVContent(t *testing.T) {
	w := NewWriter(t.TempDir(), logger.NewNop())

	report, err := w.Write(sampleResults())
	require.NoError(t, err)

	f, err := os.Open(report.CSVPath)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvColumns, rows[0])

	// Signal row
	assert.Equal(t, "600036", rows[1][0])
	assert.Equal(t, "buy", rows[1][3])
	assert.Equal(t, "2026-08-27", rows[1][4])
	assert.Equal(t, "11.35", rows[1][5])

	var metrics map[string]float64
	require.NoError(t, json.Unmarshal([]byte(rows[1][6]), &metrics))
	assert.Equal(t, 0.42, metrics["atr"])

	// No-signal row
	assert.Equal(t, "none", rows[2][3])
	assert.Equal(t, "", rows[2][4])
}

func TestWriterJSONRoundTrip(t *testing.T) {
	w := NewWriter(t.TempDir(), logger.NewNop())

	report, err := w.Write(sampleResults())
	require.NoError(t, err)

	data, err := os.ReadFile(report.JSONPath)
	require.NoError(t, err)

	var decoded []*contracts.AnalysisResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "turtle", decoded[0].StrategyID)
	assert.True(t, decoded[0].HasSignal())
}

func TestWriterHTMLContent(t *testing.T) {
	w := NewWriter(t.TempDir(), logger.NewNop())

	report, err := w.Write(sampleResults())
	require.NoError(t, err)

	data, err := os.ReadFile(report.HTMLPath)
	require.NoError(t, err)
	html := string(data)

	assert.Contains(t, html, "600036")
	assert.Contains(t, html, `class="buy"`)
	assert.Contains(t, html, "rsrs")
}

func TestWriterEmptyResults(t *testing.T) {
	w := NewWriter(t.TempDir(), logger.NewNop())

	report, err := w.Write(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Rows)

	_, err = os.Stat(report.CSVPath)
	assert.NoError(t, err)
}
