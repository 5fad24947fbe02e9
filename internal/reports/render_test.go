package reports

import (
	"context"
	"strings"
	"testing"
)

func TestRenderGeneric(t *testing.T) {
	g, _, _ := newTestGenerator(t, income(1, 5, 1200, "Consulting - Acme", "consulting"))

	data, err := g.revenueBreakdown(context.Background(), testReq)
	if err != nil {
		t.Fatalf("revenueBreakdown: %v", err)
	}
	html, err := renderGeneric("Revenue Breakdown", data)
	if err != nil {
		t.Fatalf("renderGeneric: %v", err)
	}

	for _, want := range []string{
		"<title>Revenue Breakdown</title>",
		"Period: 2024-01-01 - 2024-12-31",
		`&#34;totalRevenue&#34;: 1200`,
		"Generated by Pashoot Reports",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered HTML missing %q", want)
		}
	}
}

func TestRenderGeneric_EscapesTitle(t *testing.T) {
	html, err := renderGeneric("Travel & Entertainment", map[string]string{"label": "Meals & Lodging"})
	if err != nil {
		t.Fatalf("renderGeneric: %v", err)
	}
	if !strings.Contains(html, "<title>Travel &amp; Entertainment</title>") {
		t.Error("expected ampersand escaped in title")
	}
	// json.MarshalIndent escapes & as & inside the payload.
	if !strings.Contains(html, `Meals & Lodging`) {
		t.Error("expected ampersand escaped in JSON payload")
	}
	if strings.Contains(html, "<title>Travel & Entertainment</title>") {
		t.Error("raw ampersand leaked into title")
	}
}

func TestRenderGeneric_NonPeriodicData(t *testing.T) {
	html, err := renderGeneric("Ad Hoc", map[string]int{"value": 7})
	if err != nil {
		t.Fatalf("renderGeneric: %v", err)
	}
	if !strings.Contains(html, "<title>Ad Hoc</title>") {
		t.Error("expected title in output")
	}
	if !strings.Contains(html, "Period:  - ") {
		t.Error("expected empty period line for data without date bounds")
	}
}

func TestRenderIncomeStatement(t *testing.T) {
	g, _, _ := newTestGenerator(t,
		income(1, 5, 1000, "Store sales", "retail"),
		expense(1, 10, 250, "Shop rent", "rent"),
	)

	data, err := g.incomeStatement(context.Background(), testReq)
	if err != nil {
		t.Fatalf("incomeStatement: %v", err)
	}
	html, err := renderIncomeStatement(data)
	if err != nil {
		t.Fatalf("renderIncomeStatement: %v", err)
	}

	for _, want := range []string{
		"Total Revenue</td><td class=\"amount\">$1000.00",
		"Total Expenses</td><td class=\"amount\">$250.00",
		"Net Income: $750.00 (75.0% margin)",
		"<td>retail</td>",
		"<td>rent</td>",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered statement missing %q", want)
		}
	}
	if strings.Contains(html, "<pre>") {
		t.Error("bespoke template should not fall back to the JSON dump")
	}
}

func TestRenderIncomeStatement_FallbackForForeignData(t *testing.T) {
	html, err := renderIncomeStatement(map[string]string{"note": "not a statement"})
	if err != nil {
		t.Fatalf("renderIncomeStatement: %v", err)
	}
	if !strings.Contains(html, "<pre>") || !strings.Contains(html, "not a statement") {
		t.Error("expected generic JSON rendering for non-statement data")
	}
}
