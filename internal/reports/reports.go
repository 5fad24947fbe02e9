// Package reports computes structured financial reports over the canonical
// transaction store. Every generator is a pure read-side function: it never
// mutates transactions or connections.
package reports

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pashoot/reports/internal/domain"
	"github.com/pashoot/reports/internal/store"
)

// Request identifies the user and period a report covers.
type Request struct {
	UserID    string
	StartDate time.Time
	EndDate   time.Time
}

// Settings carries the tunable defaults the generators fall back to when a
// transaction carries no explicit figure of its own.
type Settings struct {
	MonthlyBudgetIncome    float64
	MonthlyBudgetExpenses  float64
	MonthlyBudgetNetIncome float64
	DefaultSalesTaxRate    float64
	SelfEmploymentTaxRate  float64
	EstimatedIncomeTaxRate float64
}

func DefaultSettings() Settings {
	return Settings{
		MonthlyBudgetIncome:    10000,
		MonthlyBudgetExpenses:  7000,
		MonthlyBudgetNetIncome: 3000,
		DefaultSalesTaxRate:    0.08,
		SelfEmploymentTaxRate:  0.153,
		EstimatedIncomeTaxRate: 0.22,
	}
}

// header is the envelope every report shares.
type header struct {
	ReportType string    `json:"reportType"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
}

func newHeader(kind Kind, req Request) header {
	return header{ReportType: registry[kind].Name, StartDate: req.StartDate, EndDate: req.EndDate}
}

// asOfHeader is used by the all-history-to-date reports, whose period starts
// at the epoch and is pinned to a single as-of date.
func asOfHeader(kind Kind, req Request) (header, time.Time) {
	h := header{ReportType: registry[kind].Name, StartDate: time.Unix(0, 0).UTC(), EndDate: req.EndDate}
	return h, req.EndDate
}

// Generator computes one report from the stores.
type Generator struct {
	transactions store.TransactionStore
	connections  store.ConnectionStore
	settings     Settings
}

func NewGenerator(transactions store.TransactionStore, connections store.ConnectionStore, settings Settings) *Generator {
	return &Generator{transactions: transactions, connections: connections, settings: settings}
}

// inRange lists the user's transactions with date >= start and <= end,
// inclusive both ends, sorted date ascending.
func (g *Generator) inRange(ctx context.Context, req Request, txType domain.TransactionType) ([]domain.Transaction, error) {
	filter := store.TransactionFilter{From: &req.StartDate, To: &req.EndDate}
	if txType != "" {
		filter.Type = &txType
	}
	return g.transactions.List(ctx, req.UserID, filter)
}

// asOf lists all transactions up to and including the end date.
func (g *Generator) asOf(ctx context.Context, req Request, txType domain.TransactionType) ([]domain.Transaction, error) {
	filter := store.TransactionFilter{To: &req.EndDate}
	if txType != "" {
		filter.Type = &txType
	}
	return g.transactions.List(ctx, req.UserID, filter)
}

func monthKey(t time.Time) string { return t.Format("2006-01") }
func dayKey(t time.Time) string   { return t.Format("2006-01-02") }

func quarterKey(t time.Time) string {
	quarter := int(t.Month()-1)/3 + 1
	return fmt.Sprintf("%d-Q%d", t.Year(), quarter)
}

// pct returns part/whole as a percentage, 0 when the denominator is zero.
func pct(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

// ratio returns num/den, 0 when the denominator is zero.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// matchesKeywords reports whether the transaction's category or description
// contains any keyword, case-insensitive.
func matchesKeywords(t domain.Transaction, keywords []string) bool {
	description := strings.ToLower(t.Description)
	category := strings.ToLower(t.Category)
	for _, keyword := range keywords {
		if strings.Contains(description, keyword) || strings.Contains(category, keyword) {
			return true
		}
	}
	return false
}

// sortedKeys returns map keys in lexical order for deterministic output.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
