package reports

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pashoot/reports/internal/domain"
	"github.com/pashoot/reports/internal/store"
)

type StripeEntry struct {
	Date        time.Time        `json:"date"`
	Description string           `json:"description"`
	Amount      float64          `json:"amount"`
	Metadata    *domain.Metadata `json:"metadata,omitempty"`
}

type StripeDay struct {
	Date    string  `json:"date"`
	Charges float64 `json:"charges"`
	Fees    float64 `json:"fees"`
	Refunds float64 `json:"refunds"`
	Net     float64 `json:"net"`
}

type StripeReconciliation struct {
	header
	Summary struct {
		GrossRevenue       float64 `json:"grossRevenue"`
		TotalFees          float64 `json:"totalFees"`
		TotalRefunds       float64 `json:"totalRefunds"`
		NetRevenue         float64 `json:"netRevenue"`
		FeePercentage      float64 `json:"feePercentage"`
		TransactionCount   int     `json:"transactionCount"`
		AvgTransactionSize float64 `json:"avgTransactionSize"`
	} `json:"summary"`
	DailyBreakdown []StripeDay `json:"dailyBreakdown"`
	Transactions   struct {
		Charges []StripeEntry `json:"charges"`
		Fees    []StripeEntry `json:"fees"`
		Refunds []StripeEntry `json:"refunds"`
	} `json:"transactions"`
}

func (g *Generator) stripeReconciliation(ctx context.Context, req Request) (any, error) {
	source := domain.SourceStripe
	transactions, err := g.transactions.List(ctx, req.UserID, store.TransactionFilter{
		Source: &source,
		From:   &req.StartDate,
		To:     &req.EndDate,
	})
	if err != nil {
		return nil, err
	}

	report := &StripeReconciliation{header: newHeader(KindStripeReconciliation, req)}
	report.Transactions.Charges = []StripeEntry{}
	report.Transactions.Fees = []StripeEntry{}
	report.Transactions.Refunds = []StripeEntry{}
	daily := map[string]*StripeDay{}

	for _, t := range transactions {
		day := daily[dayKey(t.Date)]
		if day == nil {
			day = &StripeDay{Date: dayKey(t.Date)}
			daily[day.Date] = day
		}

		switch {
		case t.Category == "stripe_payment":
			day.Charges += t.Amount
			if t.Type == domain.TypeIncome {
				report.Summary.GrossRevenue += t.Amount
				meta := t.Metadata
				report.Transactions.Charges = append(report.Transactions.Charges, StripeEntry{
					Date:        t.Date,
					Description: t.Description,
					Amount:      t.Amount,
					Metadata:    &meta,
				})
			}
		case strings.Contains(t.Category, "fee"):
			day.Fees += t.Amount
			report.Summary.TotalFees += t.Amount
			report.Transactions.Fees = append(report.Transactions.Fees, StripeEntry{
				Date:        t.Date,
				Description: t.Description,
				Amount:      t.Amount,
			})
		case strings.Contains(t.Category, "refund"):
			day.Refunds += t.Amount
			report.Summary.TotalRefunds += t.Amount
			report.Transactions.Refunds = append(report.Transactions.Refunds, StripeEntry{
				Date:        t.Date,
				Description: t.Description,
				Amount:      t.Amount,
			})
		}
		day.Net = day.Charges - day.Fees - day.Refunds
	}

	report.Summary.NetRevenue = report.Summary.GrossRevenue - report.Summary.TotalFees - report.Summary.TotalRefunds
	report.Summary.FeePercentage = pct(report.Summary.TotalFees, report.Summary.GrossRevenue)
	report.Summary.TransactionCount = len(report.Transactions.Charges)
	report.Summary.AvgTransactionSize = ratio(report.Summary.GrossRevenue, float64(len(report.Transactions.Charges)))
	if len(report.Transactions.Charges) > 50 {
		report.Transactions.Charges = report.Transactions.Charges[:50]
	}

	report.DailyBreakdown = []StripeDay{}
	for _, key := range sortedKeys(daily) {
		report.DailyBreakdown = append(report.DailyBreakdown, *daily[key])
	}
	return report, nil
}

type SquareDay struct {
	Date        string  `json:"date"`
	SquareGross float64 `json:"squareGross"`
	SquareFees  float64 `json:"squareFees"`
	SquareNet   float64 `json:"squareNet"`
}

type Discrepancy struct {
	Type             string  `json:"type"`
	SquareAmount     float64 `json:"squareAmount"`
	AccountingAmount float64 `json:"accountingAmount"`
	Difference       float64 `json:"difference"`
}

type SquareReconciliation struct {
	header
	Square struct {
		GrossRevenue     float64 `json:"grossRevenue"`
		Fees             float64 `json:"fees"`
		Refunds          float64 `json:"refunds"`
		NetDeposits      float64 `json:"netDeposits"`
		TransactionCount int     `json:"transactionCount"`
	} `json:"square"`
	Accounting struct {
		RecordedRevenue float64 `json:"recordedRevenue"`
	} `json:"accounting"`
	Reconciliation struct {
		Difference               float64 `json:"difference"`
		IsReconciled             bool    `json:"isReconciled"`
		ReconciliationPercentage float64 `json:"reconciliationPercentage"`
	} `json:"reconciliation"`
	DailyReconciliation []SquareDay   `json:"dailyReconciliation"`
	Discrepancies       []Discrepancy `json:"discrepancies"`
}

func (g *Generator) squareReconciliation(ctx context.Context, req Request) (any, error) {
	source := domain.SourceSquare
	squareTransactions, err := g.transactions.List(ctx, req.UserID, store.TransactionFilter{
		Source: &source,
		From:   &req.StartDate,
		To:     &req.EndDate,
	})
	if err != nil {
		return nil, err
	}
	incomeTransactions, err := g.inRange(ctx, req, domain.TypeIncome)
	if err != nil {
		return nil, err
	}

	report := &SquareReconciliation{header: newHeader(KindSquareReconciliation, req)}
	daily := map[string]*SquareDay{}

	for _, t := range squareTransactions {
		fee := 0.0
		if t.Metadata.Fee != nil {
			fee = *t.Metadata.Fee
		}
		if t.Metadata.IsRefund {
			report.Square.Refunds += t.Amount
			continue
		}

		report.Square.GrossRevenue += t.Amount
		report.Square.Fees += fee
		report.Square.NetDeposits += t.Amount - fee
		report.Square.TransactionCount++

		day := daily[dayKey(t.Date)]
		if day == nil {
			day = &SquareDay{Date: dayKey(t.Date)}
			daily[day.Date] = day
		}
		day.SquareGross += t.Amount
		day.SquareFees += fee
		day.SquareNet += t.Amount - fee
	}

	for _, t := range incomeTransactions {
		if t.Source == domain.SourceSquare || strings.Contains(strings.ToLower(t.Description), "square") {
			report.Accounting.RecordedRevenue += t.Amount
		}
	}

	report.Reconciliation.Difference = report.Square.GrossRevenue - report.Accounting.RecordedRevenue
	report.Reconciliation.IsReconciled = math.Abs(report.Reconciliation.Difference) < 0.01
	report.Reconciliation.ReconciliationPercentage = pct(report.Accounting.RecordedRevenue, report.Square.GrossRevenue)

	report.DailyReconciliation = []SquareDay{}
	for _, key := range sortedKeys(daily) {
		report.DailyReconciliation = append(report.DailyReconciliation, *daily[key])
	}

	report.Discrepancies = []Discrepancy{}
	if !report.Reconciliation.IsReconciled {
		report.Discrepancies = append(report.Discrepancies, Discrepancy{
			Type:             "Revenue Mismatch",
			SquareAmount:     report.Square.GrossRevenue,
			AccountingAmount: report.Accounting.RecordedRevenue,
			Difference:       report.Reconciliation.Difference,
		})
	}
	return report, nil
}

type SourceSummary struct {
	Source           domain.Source `json:"source"`
	Income           float64       `json:"income"`
	Expenses         float64       `json:"expenses"`
	NetActivity      float64       `json:"netActivity"`
	TransactionCount int           `json:"transactionCount"`
	LastSync         *time.Time    `json:"lastSync"`
	ConnectionStatus string        `json:"connectionStatus"`
}

type SourceContribution struct {
	Source                domain.Source `json:"source"`
	IncomePercentage      float64       `json:"incomePercentage"`
	ExpensePercentage     float64       `json:"expensePercentage"`
	TransactionPercentage float64       `json:"transactionPercentage"`
}

type MonthlySourceActivity struct {
	Source   domain.Source `json:"source"`
	Income   float64       `json:"income"`
	Expenses float64       `json:"expenses"`
	Net      float64       `json:"net"`
}

type MonthlySources struct {
	Month   string                  `json:"month"`
	Sources []MonthlySourceActivity `json:"sources"`
}

type ConnectedSource struct {
	Source      domain.Source `json:"source"`
	LastSync    *time.Time    `json:"lastSync"`
	ConnectedAt time.Time     `json:"connectedAt"`
}

type CrossSourceSummary struct {
	header
	Summary struct {
		TotalIncome       float64 `json:"totalIncome"`
		TotalExpenses     float64 `json:"totalExpenses"`
		NetActivity       float64 `json:"netActivity"`
		TotalTransactions int     `json:"totalTransactions"`
		SourcesConnected  int     `json:"sourcesConnected"`
		SourcesWithData   int     `json:"sourcesWithData"`
	} `json:"summary"`
	SourceSummaries     []SourceSummary      `json:"sourceSummaries"`
	SourceContributions []SourceContribution `json:"sourceContributions"`
	MonthlyData         []MonthlySources     `json:"monthlyData"`
	ConnectedSources    []ConnectedSource    `json:"connectedSources"`
}

func (g *Generator) crossSourceSummary(ctx context.Context, req Request) (any, error) {
	transactions, err := g.inRange(ctx, req, "")
	if err != nil {
		return nil, err
	}
	connections, err := g.connections.ListByUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	type sourceTotals struct {
		income, expenses float64
		count            int
	}
	bySource := map[string]*sourceTotals{}
	type monthSourceTotals struct{ income, expenses float64 }
	byMonth := map[string]map[string]*monthSourceTotals{}

	for _, t := range transactions {
		source := string(t.Source)
		s := bySource[source]
		if s == nil {
			s = &sourceTotals{}
			bySource[source] = s
		}
		month := byMonth[monthKey(t.Date)]
		if month == nil {
			month = map[string]*monthSourceTotals{}
			byMonth[monthKey(t.Date)] = month
		}
		ms := month[source]
		if ms == nil {
			ms = &monthSourceTotals{}
			month[source] = ms
		}

		switch t.Type {
		case domain.TypeIncome:
			s.income += t.Amount
			ms.income += t.Amount
		case domain.TypeExpense:
			s.expenses += t.Amount
			ms.expenses += t.Amount
		}
		s.count++
	}

	connectionBySource := map[domain.Source]domain.Connection{}
	for _, conn := range connections {
		connectionBySource[conn.Source] = conn
	}

	report := &CrossSourceSummary{header: newHeader(KindCrossSourceSummary, req)}
	report.SourceSummaries = []SourceSummary{}
	for _, source := range sortedKeys(bySource) {
		s := bySource[source]
		summary := SourceSummary{
			Source:           domain.Source(source),
			Income:           s.income,
			Expenses:         s.expenses,
			NetActivity:      s.income - s.expenses,
			TransactionCount: s.count,
			ConnectionStatus: "Not Connected",
		}
		if conn, ok := connectionBySource[domain.Source(source)]; ok {
			summary.LastSync = conn.LastSyncAt
			summary.ConnectionStatus = "Connected"
		}
		report.SourceSummaries = append(report.SourceSummaries, summary)

		report.Summary.TotalIncome += s.income
		report.Summary.TotalExpenses += s.expenses
		report.Summary.TotalTransactions += s.count
	}
	sort.SliceStable(report.SourceSummaries, func(i, j int) bool {
		return report.SourceSummaries[i].NetActivity > report.SourceSummaries[j].NetActivity
	})

	report.Summary.NetActivity = report.Summary.TotalIncome - report.Summary.TotalExpenses
	report.Summary.SourcesConnected = len(connections)
	report.Summary.SourcesWithData = len(report.SourceSummaries)

	report.SourceContributions = make([]SourceContribution, 0, len(report.SourceSummaries))
	for _, s := range report.SourceSummaries {
		report.SourceContributions = append(report.SourceContributions, SourceContribution{
			Source:                s.Source,
			IncomePercentage:      pct(s.Income, report.Summary.TotalIncome),
			ExpensePercentage:     pct(s.Expenses, report.Summary.TotalExpenses),
			TransactionPercentage: pct(float64(s.TransactionCount), float64(report.Summary.TotalTransactions)),
		})
	}

	report.MonthlyData = []MonthlySources{}
	for _, month := range sortedKeys(byMonth) {
		entry := MonthlySources{Month: month, Sources: []MonthlySourceActivity{}}
		for _, source := range sortedKeys(byMonth[month]) {
			ms := byMonth[month][source]
			entry.Sources = append(entry.Sources, MonthlySourceActivity{
				Source:   domain.Source(source),
				Income:   ms.income,
				Expenses: ms.expenses,
				Net:      ms.income - ms.expenses,
			})
		}
		report.MonthlyData = append(report.MonthlyData, entry)
	}

	report.ConnectedSources = make([]ConnectedSource, 0, len(connections))
	for _, conn := range connections {
		report.ConnectedSources = append(report.ConnectedSources, ConnectedSource{
			Source:      conn.Source,
			LastSync:    conn.LastSyncAt,
			ConnectedAt: conn.CreatedAt,
		})
	}
	return report, nil
}
