package reports

import (
	"context"
	"html/template"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/pashoot/reports/internal/domain"
	"github.com/pashoot/reports/internal/store/memory"
)

const testUserID = "user-1"

var testReq = Request{
	UserID:    testUserID,
	StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	EndDate:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
}

// newTestGenerator returns a generator over fresh in-memory stores seeded
// with the given transactions.
func newTestGenerator(t *testing.T, txs ...domain.Transaction) (*Generator, *memory.TransactionStore, *memory.ConnectionStore) {
	t.Helper()
	transactions := memory.NewTransactionStore()
	connections := memory.NewConnectionStore()
	for i := range txs {
		if txs[i].ExternalID == "" {
			txs[i].ExternalID = txs[i].Description + txs[i].Date.String()
		}
		if txs[i].UserID == "" {
			txs[i].UserID = testUserID
		}
		if txs[i].Source == "" {
			txs[i].Source = domain.SourceManual
		}
		if err := transactions.Upsert(context.Background(), &txs[i]); err != nil {
			t.Fatalf("seed transaction: %v", err)
		}
	}
	return NewGenerator(transactions, connections, DefaultSettings()), transactions, connections
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func date(month, day int) time.Time {
	return time.Date(2024, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func income(month, day int, amount float64, description, category string) domain.Transaction {
	return domain.Transaction{
		Date: date(month, day), Amount: amount, Type: domain.TypeIncome,
		Description: description, Category: category,
	}
}

func expense(month, day int, amount float64, description, category string) domain.Transaction {
	return domain.Transaction{
		Date: date(month, day), Amount: amount, Type: domain.TypeExpense,
		Description: description, Category: category,
	}
}

func TestMatchesKeywords(t *testing.T) {
	tx := domain.Transaction{Description: "Delta flight to NYC", Category: "Business Travel"}
	if !matchesKeywords(tx, []string{"flight"}) {
		t.Error("expected description match")
	}
	if !matchesKeywords(tx, []string{"travel"}) {
		t.Error("expected case-insensitive category match")
	}
	if matchesKeywords(tx, []string{"hotel"}) {
		t.Error("unexpected match")
	}
}

func TestPctAndRatio_ZeroDenominator(t *testing.T) {
	if got := pct(10, 0); got != 0 {
		t.Errorf("pct(10, 0) = %v, want 0", got)
	}
	if got := ratio(10, 0); got != 0 {
		t.Errorf("ratio(10, 0) = %v, want 0", got)
	}
	if got := pct(25, 100); got != 25 {
		t.Errorf("pct(25, 100) = %v, want 25", got)
	}
}

func TestQuarterKey(t *testing.T) {
	tests := []struct {
		month int
		want  string
	}{
		{1, "2024-Q1"}, {3, "2024-Q1"}, {4, "2024-Q2"}, {12, "2024-Q4"},
	}
	for _, tt := range tests {
		if got := quarterKey(date(tt.month, 15)); got != tt.want {
			t.Errorf("quarterKey(month %d) = %q, want %q", tt.month, got, tt.want)
		}
	}
}

// Every registered report must produce structurally valid output over an
// empty store.
func TestAllGenerators_EmptyData(t *testing.T) {
	g, _, _ := newTestGenerator(t)

	for _, kind := range Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			def, err := Lookup(kind)
			if err != nil {
				t.Fatalf("Lookup: %v", err)
			}
			data, err := def.Generate(g, context.Background(), testReq)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if data == nil {
				t.Fatal("expected non-nil report data")
			}
			html, err := def.Render(data)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			// Both render paths escape the payload, so names with
			// ampersands appear in escaped form.
			if !strings.Contains(html, template.HTMLEscapeString(def.Name)) {
				t.Errorf("rendered HTML does not contain report name %q", def.Name)
			}
		})
	}
}
