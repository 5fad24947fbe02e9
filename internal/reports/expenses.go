package reports

import (
	"context"
	"sort"
	"time"

	"github.com/pashoot/reports/internal/domain"
)

type ExpenseTransaction struct {
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
}

type ExpenseCategory struct {
	Category          string               `json:"category"`
	Amount            float64              `json:"amount"`
	Count             int                  `json:"count"`
	Percentage        float64              `json:"percentage"`
	AvgPerTransaction float64              `json:"avgPerTransaction"`
	TopTransactions   []ExpenseTransaction `json:"topTransactions"`
}

type ExpenseByCategory struct {
	header
	TotalExpenses float64           `json:"totalExpenses"`
	Categories    []ExpenseCategory `json:"categories"`
	Trends        []MonthAmount     `json:"trends"`
}

func (g *Generator) expenseByCategory(ctx context.Context, req Request) (any, error) {
	transactions, err := g.inRange(ctx, req, domain.TypeExpense)
	if err != nil {
		return nil, err
	}

	byCategory := map[string][]ExpenseTransaction{}
	byMonth := map[string]float64{}
	total := 0.0
	for _, t := range transactions {
		category := t.CategoryOrDefault()
		byCategory[category] = append(byCategory[category], ExpenseTransaction{
			Date:        t.Date,
			Description: t.Description,
			Amount:      t.Amount,
		})
		byMonth[monthKey(t.Date)] += t.Amount
		total += t.Amount
	}

	report := &ExpenseByCategory{
		header:        newHeader(KindExpenseByCategory, req),
		TotalExpenses: total,
		Categories:    []ExpenseCategory{},
		Trends:        []MonthAmount{},
	}
	for _, category := range sortedKeys(byCategory) {
		expenses := byCategory[category]
		amount := 0.0
		for _, e := range expenses {
			amount += e.Amount
		}
		top := append([]ExpenseTransaction(nil), expenses...)
		sort.SliceStable(top, func(i, j int) bool { return top[i].Amount > top[j].Amount })
		if len(top) > 5 {
			top = top[:5]
		}
		report.Categories = append(report.Categories, ExpenseCategory{
			Category:          category,
			Amount:            amount,
			Count:             len(expenses),
			Percentage:        pct(amount, total),
			AvgPerTransaction: ratio(amount, float64(len(expenses))),
			TopTransactions:   top,
		})
	}
	sort.SliceStable(report.Categories, func(i, j int) bool {
		return report.Categories[i].Amount > report.Categories[j].Amount
	})
	for _, month := range sortedKeys(byMonth) {
		report.Trends = append(report.Trends, MonthAmount{Month: month, Amount: byMonth[month]})
	}
	return report, nil
}

type VendorExpenses struct {
	Vendor           string   `json:"vendor"`
	TotalExpenses    float64  `json:"totalExpenses"`
	TransactionCount int      `json:"transactionCount"`
	AverageExpense   float64  `json:"averageExpense"`
	Categories       []string `json:"categories"`
}

type ExpenseByVendor struct {
	header
	Vendors         []VendorExpenses `json:"vendors"`
	TotalExpenses   float64          `json:"totalExpenses"`
	TotalVendors    int              `json:"totalVendors"`
	Top10Vendors    []VendorExpenses `json:"top10Vendors"`
	Top10Percentage float64          `json:"top10Percentage"`
}

func (g *Generator) expenseByVendor(ctx context.Context, req Request) (any, error) {
	transactions, err := g.inRange(ctx, req, domain.TypeExpense)
	if err != nil {
		return nil, err
	}

	type vendorTotals struct {
		total      float64
		count      int
		categories map[string]struct{}
	}
	byVendor := map[string]*vendorTotals{}
	for _, t := range transactions {
		vendor := t.Counterparty("Unknown Vendor")
		v := byVendor[vendor]
		if v == nil {
			v = &vendorTotals{categories: map[string]struct{}{}}
			byVendor[vendor] = v
		}
		v.total += t.Amount
		v.count++
		if t.Category != "" {
			v.categories[t.Category] = struct{}{}
		}
	}

	vendors := make([]VendorExpenses, 0, len(byVendor))
	total := 0.0
	for _, name := range sortedKeys(byVendor) {
		v := byVendor[name]
		vendors = append(vendors, VendorExpenses{
			Vendor:           name,
			TotalExpenses:    v.total,
			TransactionCount: v.count,
			AverageExpense:   ratio(v.total, float64(v.count)),
			Categories:       sortedKeys(v.categories),
		})
		total += v.total
	}
	sort.SliceStable(vendors, func(i, j int) bool { return vendors[i].TotalExpenses > vendors[j].TotalExpenses })

	top10 := vendors
	if len(top10) > 10 {
		top10 = top10[:10]
	}
	top10Total := 0.0
	for _, v := range top10 {
		top10Total += v.TotalExpenses
	}

	return &ExpenseByVendor{
		header:          newHeader(KindExpenseByVendor, req),
		Vendors:         vendors,
		TotalExpenses:   total,
		TotalVendors:    len(vendors),
		Top10Vendors:    top10,
		Top10Percentage: pct(top10Total, total),
	}, nil
}

var travelKeywords = []string{"travel", "flight", "hotel", "airfare", "lodging", "car rental", "uber", "lyft", "taxi", "mileage", "transportation"}
var entertainmentKeywords = []string{"meal", "restaurant", "entertainment", "dinner", "lunch", "coffee", "catering", "food"}

type TEExpense struct {
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Type        string    `json:"type,omitempty"`
}

type TESection struct {
	Transactions []TEExpense `json:"transactions"`
	Total        float64     `json:"total"`
	Count        int         `json:"count"`
}

type TEMonth struct {
	Month         string  `json:"month"`
	Travel        float64 `json:"travel"`
	Entertainment float64 `json:"entertainment"`
	Total         float64 `json:"total"`
}

type TravelEntertainment struct {
	header
	TravelExpenses        TESection `json:"travelExpenses"`
	EntertainmentExpenses TESection `json:"entertainmentExpenses"`
	TotalCombined         float64   `json:"totalCombined"`
	MonthlyData           []TEMonth `json:"monthlyData"`
}

func (g *Generator) travelEntertainment(ctx context.Context, req Request) (any, error) {
	transactions, err := g.inRange(ctx, req, domain.TypeExpense)
	if err != nil {
		return nil, err
	}

	report := &TravelEntertainment{header: newHeader(KindTravelEntertainment, req)}
	report.TravelExpenses.Transactions = []TEExpense{}
	report.EntertainmentExpenses.Transactions = []TEExpense{}
	monthly := map[string]*TEMonth{}

	for _, t := range transactions {
		isTravel := matchesKeywords(t, travelKeywords)
		isEntertainment := matchesKeywords(t, entertainmentKeywords)
		if !isTravel && !isEntertainment {
			continue
		}

		expense := TEExpense{
			Date:        t.Date,
			Description: t.Description,
			Category:    t.CategoryOrDefault(),
			Amount:      t.Amount,
		}
		if isTravel {
			report.TravelExpenses.Transactions = append(report.TravelExpenses.Transactions, expense)
			report.TravelExpenses.Total += t.Amount
		}
		if isEntertainment {
			report.EntertainmentExpenses.Transactions = append(report.EntertainmentExpenses.Transactions, expense)
			report.EntertainmentExpenses.Total += t.Amount
		}

		month := monthly[monthKey(t.Date)]
		if month == nil {
			month = &TEMonth{Month: monthKey(t.Date)}
			monthly[month.Month] = month
		}
		// A transaction matching both buckets is counted as travel.
		if isTravel {
			month.Travel += t.Amount
		} else {
			month.Entertainment += t.Amount
		}
	}

	report.TravelExpenses.Count = len(report.TravelExpenses.Transactions)
	report.EntertainmentExpenses.Count = len(report.EntertainmentExpenses.Transactions)
	report.TotalCombined = report.TravelExpenses.Total + report.EntertainmentExpenses.Total
	report.MonthlyData = []TEMonth{}
	for _, key := range sortedKeys(monthly) {
		month := monthly[key]
		month.Total = month.Travel + month.Entertainment
		report.MonthlyData = append(report.MonthlyData, *month)
	}
	return report, nil
}
