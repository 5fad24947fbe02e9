package reports

import (
	"context"
	"sort"
	"time"

	"github.com/pashoot/reports/internal/domain"
)

type AgingEntry struct {
	Counterparty    string    `json:"counterparty"`
	Date            time.Time `json:"date"`
	Description     string    `json:"description"`
	Amount          float64   `json:"amount"`
	DaysOutstanding int       `json:"daysOutstanding"`
}

type AgingBucket struct {
	Count   int          `json:"count"`
	Total   float64      `json:"total"`
	Entries []AgingEntry `json:"entries"`
}

type AgingBuckets struct {
	Current    AgingBucket `json:"current"`
	Days31To60 AgingBucket `json:"days31to60"`
	Days61To90 AgingBucket `json:"days61to90"`
	Over90     AgingBucket `json:"over90"`
}

type CounterpartyBalance struct {
	Counterparty string  `json:"counterparty"`
	Balance      float64 `json:"balance"`
}

type AgingReport struct {
	header
	AsOfDate     time.Time             `json:"asOfDate"`
	AgingBuckets AgingBuckets          `json:"agingBuckets"`
	Total        float64               `json:"total"`
	Summary      []CounterpartyBalance `json:"summary"`
}

// daysOutstanding is whole days between the transaction date and the as-of
// date, truncated toward zero.
func daysOutstanding(asOf, date time.Time) int {
	return int(asOf.Sub(date).Hours() / 24)
}

// agingReport partitions transactions into the standard 30/60/90-day
// buckets; boundary days fall in the lower bucket.
func (g *Generator) agingReport(ctx context.Context, kind Kind, req Request, txType domain.TransactionType, fallback string) (*AgingReport, error) {
	transactions, err := g.asOf(ctx, req, txType)
	if err != nil {
		return nil, err
	}

	report := &AgingReport{AsOfDate: req.EndDate}
	report.header, _ = asOfHeader(kind, req)
	report.AgingBuckets = AgingBuckets{
		Current:    AgingBucket{Entries: []AgingEntry{}},
		Days31To60: AgingBucket{Entries: []AgingEntry{}},
		Days61To90: AgingBucket{Entries: []AgingEntry{}},
		Over90:     AgingBucket{Entries: []AgingEntry{}},
	}

	balances := map[string]float64{}
	for _, t := range transactions {
		counterparty := t.Counterparty(fallback)
		days := daysOutstanding(req.EndDate, t.Date)
		entry := AgingEntry{
			Counterparty:    counterparty,
			Date:            t.Date,
			Description:     t.Description,
			Amount:          t.Amount,
			DaysOutstanding: days,
		}
		balances[counterparty] += t.Amount

		var bucket *AgingBucket
		switch {
		case days <= 30:
			bucket = &report.AgingBuckets.Current
		case days <= 60:
			bucket = &report.AgingBuckets.Days31To60
		case days <= 90:
			bucket = &report.AgingBuckets.Days61To90
		default:
			bucket = &report.AgingBuckets.Over90
		}
		bucket.Entries = append(bucket.Entries, entry)
		bucket.Count++
		bucket.Total += t.Amount
		report.Total += t.Amount
	}

	report.Summary = []CounterpartyBalance{}
	for _, name := range sortedKeys(balances) {
		report.Summary = append(report.Summary, CounterpartyBalance{Counterparty: name, Balance: balances[name]})
	}
	sort.SliceStable(report.Summary, func(i, j int) bool { return report.Summary[i].Balance > report.Summary[j].Balance })
	return report, nil
}

func (g *Generator) arAging(ctx context.Context, req Request) (any, error) {
	return g.agingReport(ctx, KindARAging, req, domain.TypeIncome, "Unknown Customer")
}

func (g *Generator) apAging(ctx context.Context, req Request) (any, error) {
	return g.agingReport(ctx, KindAPAging, req, domain.TypeExpense, "Unknown Vendor")
}

type StatementTransaction struct {
	Date        time.Time     `json:"date"`
	Description string        `json:"description"`
	Category    string        `json:"category,omitempty"`
	Amount      float64       `json:"amount"`
	Source      domain.Source `json:"source"`
}

type Statement struct {
	Counterparty     string                 `json:"counterparty"`
	Transactions     []StatementTransaction `json:"transactions"`
	Total            float64                `json:"total"`
	TransactionCount int                    `json:"transactionCount"`
	PeriodStart      time.Time              `json:"periodStart"`
	PeriodEnd        time.Time              `json:"periodEnd"`
}

type StatementReport struct {
	header
	Statements          []Statement `json:"statements"`
	TotalCounterparties int         `json:"totalCounterparties"`
	Total               float64     `json:"total"`
}

func (g *Generator) statementReport(ctx context.Context, kind Kind, req Request, txType domain.TransactionType, fallback string, withCategory bool) (*StatementReport, error) {
	transactions, err := g.inRange(ctx, req, txType)
	if err != nil {
		return nil, err
	}

	byCounterparty := map[string][]StatementTransaction{}
	for _, t := range transactions {
		counterparty := t.Counterparty(fallback)
		entry := StatementTransaction{
			Date:        t.Date,
			Description: t.Description,
			Amount:      t.Amount,
			Source:      t.Source,
		}
		if withCategory {
			entry.Category = t.CategoryOrDefault()
		}
		byCounterparty[counterparty] = append(byCounterparty[counterparty], entry)
	}

	report := &StatementReport{header: newHeader(kind, req), Statements: []Statement{}}
	for _, name := range sortedKeys(byCounterparty) {
		entries := byCounterparty[name]
		total := 0.0
		for _, e := range entries {
			total += e.Amount
		}
		report.Statements = append(report.Statements, Statement{
			Counterparty:     name,
			Transactions:     entries,
			Total:            total,
			TransactionCount: len(entries),
			PeriodStart:      req.StartDate,
			PeriodEnd:        req.EndDate,
		})
		report.Total += total
	}
	sort.SliceStable(report.Statements, func(i, j int) bool { return report.Statements[i].Total > report.Statements[j].Total })
	report.TotalCounterparties = len(report.Statements)
	return report, nil
}

func (g *Generator) customerStatement(ctx context.Context, req Request) (any, error) {
	return g.statementReport(ctx, KindCustomerStatement, req, domain.TypeIncome, "Unknown Customer", false)
}

func (g *Generator) vendorStatement(ctx context.Context, req Request) (any, error) {
	return g.statementReport(ctx, KindVendorStatement, req, domain.TypeExpense, "Unknown Vendor", true)
}
