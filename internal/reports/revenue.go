package reports

import (
	"context"
	"sort"
	"time"

	"github.com/pashoot/reports/internal/domain"
)

type RevenueByCategory struct {
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

type RevenueBySource struct {
	Source     domain.Source `json:"source"`
	Amount     float64       `json:"amount"`
	Percentage float64       `json:"percentage"`
}

type MonthAmount struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

type RevenueBreakdown struct {
	header
	TotalRevenue float64             `json:"totalRevenue"`
	ByCategory   []RevenueByCategory `json:"byCategory"`
	BySource     []RevenueBySource   `json:"bySource"`
	ByMonth      []MonthAmount       `json:"byMonth"`
}

func (g *Generator) revenueBreakdown(ctx context.Context, req Request) (any, error) {
	transactions, err := g.inRange(ctx, req, domain.TypeIncome)
	if err != nil {
		return nil, err
	}

	byCategory := map[string]float64{}
	bySource := map[string]float64{}
	byMonth := map[string]float64{}
	total := 0.0
	for _, t := range transactions {
		byCategory[t.CategoryOrDefault()] += t.Amount
		bySource[string(t.Source)] += t.Amount
		byMonth[monthKey(t.Date)] += t.Amount
		total += t.Amount
	}

	breakdown := &RevenueBreakdown{
		header:       newHeader(KindRevenueBreakdown, req),
		TotalRevenue: total,
		ByCategory:   []RevenueByCategory{},
		BySource:     []RevenueBySource{},
		ByMonth:      []MonthAmount{},
	}
	for _, category := range sortedKeys(byCategory) {
		breakdown.ByCategory = append(breakdown.ByCategory, RevenueByCategory{
			Category:   category,
			Amount:     byCategory[category],
			Percentage: pct(byCategory[category], total),
		})
	}
	sort.SliceStable(breakdown.ByCategory, func(i, j int) bool {
		return breakdown.ByCategory[i].Amount > breakdown.ByCategory[j].Amount
	})
	for _, source := range sortedKeys(bySource) {
		breakdown.BySource = append(breakdown.BySource, RevenueBySource{
			Source:     domain.Source(source),
			Amount:     bySource[source],
			Percentage: pct(bySource[source], total),
		})
	}
	sort.SliceStable(breakdown.BySource, func(i, j int) bool {
		return breakdown.BySource[i].Amount > breakdown.BySource[j].Amount
	})
	for _, month := range sortedKeys(byMonth) {
		breakdown.ByMonth = append(breakdown.ByMonth, MonthAmount{Month: month, Amount: byMonth[month]})
	}
	return breakdown, nil
}

type CustomerTransaction struct {
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
}

type CustomerSales struct {
	Customer         string                `json:"customer"`
	TotalSales       float64               `json:"totalSales"`
	TransactionCount int                   `json:"transactionCount"`
	AverageSale      float64               `json:"averageSale"`
	Transactions     []CustomerTransaction `json:"transactions"`
}

type SalesByCustomer struct {
	header
	Customers       []CustomerSales `json:"customers"`
	TotalSales      float64         `json:"totalSales"`
	TotalCustomers  int             `json:"totalCustomers"`
	Top10Customers  []CustomerSales `json:"top10Customers"`
	Top10Percentage float64         `json:"top10Percentage"`
}

func (g *Generator) salesByCustomer(ctx context.Context, req Request) (any, error) {
	transactions, err := g.inRange(ctx, req, domain.TypeIncome)
	if err != nil {
		return nil, err
	}

	byCustomer := map[string][]CustomerTransaction{}
	for _, t := range transactions {
		customer := t.Counterparty("Unknown Customer")
		byCustomer[customer] = append(byCustomer[customer], CustomerTransaction{
			Date:        t.Date,
			Description: t.Description,
			Amount:      t.Amount,
		})
	}

	customers := make([]CustomerSales, 0, len(byCustomer))
	totalSales := 0.0
	for _, name := range sortedKeys(byCustomer) {
		sales := byCustomer[name]
		total := 0.0
		for _, s := range sales {
			total += s.Amount
		}
		customers = append(customers, CustomerSales{
			Customer:         name,
			TotalSales:       total,
			TransactionCount: len(sales),
			AverageSale:      ratio(total, float64(len(sales))),
			Transactions:     sales,
		})
		totalSales += total
	}
	sort.SliceStable(customers, func(i, j int) bool { return customers[i].TotalSales > customers[j].TotalSales })

	top10 := customers
	if len(top10) > 10 {
		top10 = top10[:10]
	}
	top10Total := 0.0
	for _, c := range top10 {
		top10Total += c.TotalSales
	}

	return &SalesByCustomer{
		header:          newHeader(KindSalesByCustomer, req),
		Customers:       customers,
		TotalSales:      totalSales,
		TotalCustomers:  len(customers),
		Top10Customers:  top10,
		Top10Percentage: pct(top10Total, totalSales),
	}, nil
}

type MonthlyRevenue struct {
	Month                 string  `json:"month"`
	Revenue               float64 `json:"revenue"`
	TransactionCount      int     `json:"transactionCount"`
	AveragePerTransaction float64 `json:"averagePerTransaction"`
	GrowthRate            float64 `json:"growthRate"`
	GrowthAmount          float64 `json:"growthAmount"`
}

type RevenueTrends struct {
	header
	MonthlyData           []MonthlyRevenue `json:"monthlyData"`
	TotalRevenue          float64          `json:"totalRevenue"`
	AverageMonthlyRevenue float64          `json:"averageMonthlyRevenue"`
	HighestMonth          *MonthlyRevenue  `json:"highestMonth"`
	LowestMonth           *MonthlyRevenue  `json:"lowestMonth"`
	MonthsIncluded        int              `json:"monthsIncluded"`
}

func (g *Generator) revenueTrends(ctx context.Context, req Request) (any, error) {
	transactions, err := g.inRange(ctx, req, domain.TypeIncome)
	if err != nil {
		return nil, err
	}

	revenueByMonth := map[string]float64{}
	countByMonth := map[string]int{}
	total := 0.0
	for _, t := range transactions {
		month := monthKey(t.Date)
		revenueByMonth[month] += t.Amount
		countByMonth[month]++
		total += t.Amount
	}

	months := sortedKeys(revenueByMonth)
	monthly := make([]MonthlyRevenue, 0, len(months))
	for i, month := range months {
		entry := MonthlyRevenue{
			Month:                 month,
			Revenue:               revenueByMonth[month],
			TransactionCount:      countByMonth[month],
			AveragePerTransaction: ratio(revenueByMonth[month], float64(countByMonth[month])),
		}
		if i > 0 {
			prev := revenueByMonth[months[i-1]]
			entry.GrowthAmount = entry.Revenue - prev
			entry.GrowthRate = pct(entry.GrowthAmount, prev)
		}
		monthly = append(monthly, entry)
	}

	trends := &RevenueTrends{
		header:         newHeader(KindRevenueTrends, req),
		MonthlyData:    monthly,
		TotalRevenue:   total,
		MonthsIncluded: len(months),
	}
	if len(months) > 0 {
		trends.AverageMonthlyRevenue = total / float64(len(months))
		highest, lowest := 0, 0
		for i := range monthly {
			if monthly[i].Revenue > monthly[highest].Revenue {
				highest = i
			}
			if monthly[i].Revenue < monthly[lowest].Revenue {
				lowest = i
			}
		}
		trends.HighestMonth = &monthly[highest]
		trends.LowestMonth = &monthly[lowest]
	}
	return trends, nil
}
