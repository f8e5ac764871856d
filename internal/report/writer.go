package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/wonny/stockscan/internal/contracts"
	"github.com/wonny/stockscan/pkg/logger"
)

// Report points at the artifacts of one batch run.
type Report struct {
	Dir      string
	CSVPath  string
	JSONPath string
	HTMLPath string
	Rows     int
}

// Writer renders batch results into a per-run directory: a CSV and JSON
// table plus an HTML report for browsing.
type Writer struct {
	baseDir string
	logger  *logger.Logger

	now func() time.Time
}

// NewWriter creates a Writer rooted at baseDir.
func NewWriter(baseDir string, log *logger.Logger) *Writer {
	return &Writer{baseDir: baseDir, logger: log, now: time.Now}
}

const runStampLayout = "20060102_150405"

var csvColumns = []string{"code", "name", "strategy", "signal", "signal_date", "price", "metrics"}

// Write renders all artifacts for one run.
func (w *Writer) Write(results []*contracts.AnalysisResult) (*Report, error) {
	stamp := w.now().Format(runStampLayout)
	dir := filepath.Join(w.baseDir, stamp)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}

	report := &Report{
		Dir:      dir,
		CSVPath:  filepath.Join(dir, fmt.Sprintf("analysis_results_%s.csv", stamp)),
		JSONPath: filepath.Join(dir, fmt.Sprintf("analysis_results_%s.json", stamp)),
		HTMLPath: filepath.Join(dir, fmt.Sprintf("report_%s.html", stamp)),
		Rows:     len(results),
	}

	if err := w.writeCSV(report.CSVPath, results); err != nil {
		return nil, err
	}
	if err := w.writeJSON(report.JSONPath, results); err != nil {
		return nil, err
	}
	if err := w.writeHTML(report.HTMLPath, stamp, results); err != nil {
		return nil, err
	}

	w.logger.WithFields(map[string]interface{}{
		"dir":  dir,
		"rows": len(results),
	}).Info("Analysis report written")
	return report, nil
}

func (w *Writer) writeCSV(path string, results []*contracts.AnalysisResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV report: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(csvColumns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range results {
		signal, signalDate, price := "none", "", ""
		if r.HasSignal() {
			signal = string(r.Signal.Type)
			signalDate = r.Signal.Date.Format("2006-01-02")
			price = strconv.FormatFloat(r.Signal.Price, 'f', -1, 64)
		}
		m := r.Metrics
		if m == nil {
			m = map[string]float64{}
		}
		metrics, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to encode metrics: %w", err)
		}
		row := []string{
			r.Instrument.Code,
			r.Instrument.Name,
			r.StrategyID,
			signal,
			signalDate,
			price,
			string(metrics),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func (w *Writer) writeJSON(path string, results []*contracts.AnalysisResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create JSON report: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to encode JSON report: %w", err)
	}
	return nil
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Analysis Report - {{.Stamp}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 20px; }
h1 { color: #333; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
th { background-color: #f5f5f5; }
tr:nth-child(even) { background-color: #f9f9f9; }
.buy { color: #e91e63; font-weight: bold; }
.sell { color: #2e7d32; font-weight: bold; }
</style>
</head>
<body>
<h1>Analysis Report</h1>
<p>Generated: {{.Stamp}}</p>
<table>
<tr><th>Code</th><th>Name</th><th>Strategy</th><th>Signal</th><th>Date</th><th>Price</th></tr>
{{range .Rows}}<tr><td>{{.Code}}</td><td>{{.Name}}</td><td>{{.Strategy}}</td><td class="{{.Signal}}">{{.Signal}}</td><td>{{.Date}}</td><td>{{.Price}}</td></tr>
{{end}}</table>
</body>
</html>
`))

type htmlRow struct {
	Code     string
	Name     string
	Strategy string
	Signal   string
	Date     string
	Price    string
}

func (w *Writer) writeHTML(path, stamp string, results []*contracts.AnalysisResult) error {
	rows := make([]htmlRow, 0, len(results))
	for _, r := range results {
		row := htmlRow{
			Code:     r.Instrument.Code,
			Name:     r.Instrument.Name,
			Strategy: r.StrategyID,
			Signal:   "none",
		}
		if r.HasSignal() {
			row.Signal = string(r.Signal.Type)
			row.Date = r.Signal.Date.Format("2006-01-02")
			row.Price = strconv.FormatFloat(r.Signal.Price, 'f', 2, 64)
		}
		rows = append(rows, row)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create HTML report: %w", err)
	}
	defer f.Close()

	data := struct {
		Stamp string
		Rows  []htmlRow
	}{Stamp: stamp, Rows: rows}

	if err := htmlTemplate.Execute(f, data); err != nil {
		return fmt.Errorf("failed to render HTML report: %w", err)
	}
	return nil
}
