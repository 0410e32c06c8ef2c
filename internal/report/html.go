package report

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"time"

	"modelcompare/internal/bench"
	"modelcompare/internal/config"
)

// ReportData is everything the HTML renderer needs: the raw result rows plus
// the joined summary and cost-scenario tables.
type ReportData struct {
	GeneratedAt time.Time
	Models      []bench.ModelSpec
	Summaries   []ModelSummary
	Scenarios   []ScenarioCost
	Results     []bench.InferenceResult
}

// NewReportData assembles report inputs from a finished batch.
func NewReportData(models []bench.ModelSpec, scenarios []config.Scenario, results []bench.InferenceResult) ReportData {
	return ReportData{
		GeneratedAt: time.Now(),
		Models:      models,
		Summaries:   Summarize(models, results),
		Scenarios:   ScenarioCosts(models, scenarios),
		Results:     results,
	}
}

var htmlFuncs = template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("$%.4f", v) },
	"ms":    func(v float64) string { return fmt.Sprintf("%.1f ms", v) },
}

var reportTemplate = template.Must(template.New("report").Funcs(htmlFuncs).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Model Comparison Report</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem; color: #222; }
h1, h2 { color: #1a3c5e; }
table { border-collapse: collapse; margin-bottom: 2rem; width: 100%; }
th, td { border: 1px solid #cbd5e0; padding: 0.4rem 0.7rem; text-align: left; font-size: 0.9rem; }
th { background: #edf2f7; cursor: pointer; }
tr.failure { background: #fff5f5; }
td.num { text-align: right; font-variant-numeric: tabular-nums; }
.meta { color: #718096; font-size: 0.85rem; }
</style>
</head>
<body>
<h1>Model Comparison Report</h1>
<p class="meta">Generated {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}} &middot; {{len .Results}} results across {{len .Models}} models</p>

<h2>Summary</h2>
<table>
<tr><th>Model</th><th>Requests</th><th>Successes</th><th>Failures</th><th>Mean Latency</th><th>Input Tokens</th><th>Output Tokens</th><th>Total Cost</th></tr>
{{range .Summaries}}
<tr>
<td>{{.Model.Name}}</td>
<td class="num">{{.Requests}}</td>
<td class="num">{{.Successes}}</td>
<td class="num">{{.Failures}}</td>
<td class="num">{{ms .MeanLatencyMS}}</td>
<td class="num">{{.InputTokens}}</td>
<td class="num">{{.OutputTokens}}</td>
<td class="num">{{money .TotalCost}}</td>
</tr>
{{end}}
</table>

<h2>Monthly Cost Scenarios</h2>
<table>
<tr><th>Scenario</th><th>Requests/day</th><th>Avg In</th><th>Avg Out</th>{{range .Models}}<th>{{.Name}}</th>{{end}}</tr>
{{range .Scenarios}}
<tr>
<td>{{.Scenario.Name}}</td>
<td class="num">{{.Scenario.RequestsPerDay}}</td>
<td class="num">{{.Scenario.AvgInputTokens}}</td>
<td class="num">{{.Scenario.AvgOutputTokens}}</td>
{{range .Costs}}<td class="num">{{money .}}</td>{{end}}
</tr>
{{end}}
</table>

<h2>Results</h2>
<table id="results">
<tr><th onclick="sortTable(0)">Work Item</th><th>Status</th><th>Latency</th><th>In</th><th>Out</th><th>Cost</th><th>Detail</th></tr>
{{range .Results}}
<tr{{if .Failed}} class="failure"{{end}}>
<td>{{.Item.Key}}</td>
<td>{{.Status}}</td>
<td class="num">{{ms .LatencyMS}}</td>
<td class="num">{{.InputTokens}}</td>
<td class="num">{{.OutputTokens}}</td>
<td class="num">{{money .Cost}}</td>
<td>{{if .Failed}}{{.ErrorDetail}}{{else}}{{printf "%.80s" .Response}}{{end}}</td>
</tr>
{{end}}
</table>

<script>
function sortTable(col) {
  const table = document.getElementById("results");
  const rows = Array.from(table.rows).slice(1);
  rows.sort((a, b) => a.cells[col].innerText.localeCompare(b.cells[col].innerText));
  rows.forEach(r => table.appendChild(r));
}
</script>
</body>
</html>
`))

// RenderHTML writes the rendered report document.
func RenderHTML(w io.Writer, data ReportData) error {
	return reportTemplate.Execute(w, data)
}

// RenderHTMLFile writes the report to path, overwriting any previous export.
func RenderHTMLFile(path string, data ReportData) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create HTML report %s: %w", path, err)
	}
	defer f.Close()
	if err := RenderHTML(f, data); err != nil {
		return fmt.Errorf("failed to render HTML report %s: %w", path, err)
	}
	return nil
}
