package reports

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"
)

type periodic interface {
	period() (time.Time, time.Time)
}

func (h header) period() (time.Time, time.Time) { return h.StartDate, h.EndDate }

var genericTemplate = template.Must(template.New("generic").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Arial, sans-serif; padding: 40px; max-width: 900px; margin: 0 auto; }
    h1 { color: #1f2937; border-bottom: 2px solid #3b82f6; padding-bottom: 10px; }
    h2 { color: #374151; margin-top: 30px; }
    .header { margin-bottom: 30px; }
    .period { color: #6b7280; }
    pre { background: #f9fafb; padding: 20px; border-radius: 8px; overflow-x: auto; }
    .footer { margin-top: 40px; padding-top: 20px; border-top: 1px solid #e5e7eb; color: #6b7280; font-size: 0.9em; }
  </style>
</head>
<body>
  <div class="header">
    <h1>{{.Title}}</h1>
    <p class="period">Period: {{.PeriodStart}} - {{.PeriodEnd}}</p>
  </div>

  <h2>Report Data</h2>
  <pre>{{.JSON}}</pre>

  <div class="footer">
    <p>Generated by Pashoot Reports on {{.GeneratedAt}}</p>
  </div>
</body>
</html>
`))

// renderGeneric serializes the report data as formatted JSON inside a styled
// HTML shell. It serves every report kind without a bespoke template.
func renderGeneric(title string, data any) (string, error) {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report data: %w", err)
	}

	view := struct {
		Title       string
		PeriodStart string
		PeriodEnd   string
		JSON        string
		GeneratedAt string
	}{
		Title:       title,
		JSON:        string(raw),
		GeneratedAt: time.Now().Format("2006-01-02 15:04:05"),
	}
	if p, ok := data.(periodic); ok {
		start, end := p.period()
		view.PeriodStart = start.Format("2006-01-02")
		view.PeriodEnd = end.Format("2006-01-02")
	}

	var b strings.Builder
	if err := genericTemplate.Execute(&b, view); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return b.String(), nil
}

var incomeStatementTemplate = template.Must(template.New("income_statement").Funcs(template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("$%.2f", v) },
	"pct":   func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
}).Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{.ReportType}}</title>
  <style>
    body { font-family: Arial, sans-serif; padding: 40px; max-width: 900px; margin: 0 auto; }
    h1 { color: #1f2937; border-bottom: 2px solid #3b82f6; padding-bottom: 10px; }
    h2 { color: #374151; margin-top: 30px; }
    .period { color: #6b7280; }
    table { width: 100%; border-collapse: collapse; margin: 20px 0; }
    th, td { text-align: left; padding: 8px 12px; border-bottom: 1px solid #e5e7eb; }
    td.amount { text-align: right; }
    tr.total { font-weight: bold; border-top: 2px solid #1f2937; }
    .net { font-size: 1.2em; margin-top: 30px; }
    .footer { margin-top: 40px; padding-top: 20px; border-top: 1px solid #e5e7eb; color: #6b7280; font-size: 0.9em; }
  </style>
</head>
<body>
  <h1>{{.ReportType}}</h1>
  <p class="period">Period: {{.StartDate.Format "2006-01-02"}} - {{.EndDate.Format "2006-01-02"}}</p>

  <h2>Revenue</h2>
  <table>
    <tr><th>Category</th><th>Amount</th></tr>
    {{range .Revenue.Categories}}<tr><td>{{.Category}}</td><td class="amount">{{money .Amount}}</td></tr>
    {{end}}<tr class="total"><td>Total Revenue</td><td class="amount">{{money .Revenue.Total}}</td></tr>
  </table>

  <h2>Expenses</h2>
  <table>
    <tr><th>Category</th><th>Amount</th></tr>
    {{range .Expenses.Categories}}<tr><td>{{.Category}}</td><td class="amount">{{money .Amount}}</td></tr>
    {{end}}<tr class="total"><td>Total Expenses</td><td class="amount">{{money .Expenses.Total}}</td></tr>
  </table>

  <p class="net">Net Income: {{money .NetIncome}} ({{pct .ProfitMargin}} margin)</p>

  <div class="footer">
    <p>Generated by Pashoot Reports</p>
  </div>
</body>
</html>
`))

func renderIncomeStatement(data any) (string, error) {
	statement, ok := data.(*IncomeStatement)
	if !ok {
		return renderGeneric("Income Statement (P&L)", data)
	}
	var b strings.Builder
	if err := incomeStatementTemplate.Execute(&b, statement); err != nil {
		return "", fmt.Errorf("render income statement: %w", err)
	}
	return b.String(), nil
}
