package reports

import (
	"context"
	"math"

	"github.com/pashoot/reports/internal/domain"
)

type BudgetFigures struct {
	Income    float64 `json:"income"`
	Expenses  float64 `json:"expenses"`
	NetIncome float64 `json:"netIncome"`
}

type BudgetMonth struct {
	Month              string        `json:"month"`
	Budget             BudgetFigures `json:"budget"`
	Actual             BudgetFigures `json:"actual"`
	Variance           BudgetFigures `json:"variance"`
	PercentageVariance BudgetFigures `json:"percentageVariance"`
}

type BudgetTotals struct {
	TotalIncome    float64 `json:"totalIncome"`
	TotalExpenses  float64 `json:"totalExpenses"`
	TotalNetIncome float64 `json:"totalNetIncome"`
}

type BudgetVsActual struct {
	header
	MonthlyComparison  []BudgetMonth `json:"monthlyComparison"`
	OverallPerformance struct {
		Budget   BudgetTotals  `json:"budget"`
		Actual   BudgetTotals  `json:"actual"`
		Variance BudgetFigures `json:"variance"`
	} `json:"overallPerformance"`
	Note string `json:"note"`
}

func (g *Generator) budgetVsActual(ctx context.Context, req Request) (any, error) {
	transactions, err := g.inRange(ctx, req, "")
	if err != nil {
		return nil, err
	}

	type monthTotals struct{ income, expenses float64 }
	byMonth := map[string]*monthTotals{}
	for _, t := range transactions {
		key := monthKey(t.Date)
		m := byMonth[key]
		if m == nil {
			m = &monthTotals{}
			byMonth[key] = m
		}
		switch t.Type {
		case domain.TypeIncome:
			m.income += t.Amount
		case domain.TypeExpense:
			m.expenses += t.Amount
		}
	}

	budget := BudgetFigures{
		Income:    g.settings.MonthlyBudgetIncome,
		Expenses:  g.settings.MonthlyBudgetExpenses,
		NetIncome: g.settings.MonthlyBudgetNetIncome,
	}

	report := &BudgetVsActual{
		header:            newHeader(KindBudgetVsActual, req),
		MonthlyComparison: []BudgetMonth{},
		Note:              "Budget figures are defaults until custom budgets are configured.",
	}
	for _, key := range sortedKeys(byMonth) {
		m := byMonth[key]
		netIncome := m.income - m.expenses
		report.MonthlyComparison = append(report.MonthlyComparison, BudgetMonth{
			Month:  key,
			Budget: budget,
			Actual: BudgetFigures{Income: m.income, Expenses: m.expenses, NetIncome: netIncome},
			Variance: BudgetFigures{
				Income:    m.income - budget.Income,
				Expenses:  m.expenses - budget.Expenses,
				NetIncome: netIncome - budget.NetIncome,
			},
			PercentageVariance: BudgetFigures{
				Income:    pct(m.income-budget.Income, budget.Income),
				Expenses:  pct(m.expenses-budget.Expenses, budget.Expenses),
				NetIncome: pct(netIncome-budget.NetIncome, budget.NetIncome),
			},
		})
		report.OverallPerformance.Actual.TotalIncome += m.income
		report.OverallPerformance.Actual.TotalExpenses += m.expenses
	}

	months := float64(len(report.MonthlyComparison))
	report.OverallPerformance.Budget = BudgetTotals{
		TotalIncome:    budget.Income * months,
		TotalExpenses:  budget.Expenses * months,
		TotalNetIncome: (budget.Income - budget.Expenses) * months,
	}
	actual := report.OverallPerformance.Actual
	report.OverallPerformance.Actual.TotalNetIncome = actual.TotalIncome - actual.TotalExpenses
	report.OverallPerformance.Variance = BudgetFigures{
		Income:    actual.TotalIncome - report.OverallPerformance.Budget.TotalIncome,
		Expenses:  actual.TotalExpenses - report.OverallPerformance.Budget.TotalExpenses,
		NetIncome: (actual.TotalIncome - actual.TotalExpenses) - report.OverallPerformance.Budget.TotalNetIncome,
	}
	return report, nil
}

var cogsKeywords = []string{"inventory", "supplies", "materials", "cogs", "cost of goods"}

type MonthlyMargin struct {
	Month             string  `json:"month"`
	Revenue           float64 `json:"revenue"`
	COGS              float64 `json:"cogs"`
	OperatingExpenses float64 `json:"operatingExpenses"`
	GrossMargin       float64 `json:"grossMargin"`
	OperatingMargin   float64 `json:"operatingMargin"`
	NetMargin         float64 `json:"netMargin"`
}

type ProfitMargin struct {
	header
	OverallMargins struct {
		TotalRevenue           float64 `json:"totalRevenue"`
		TotalCOGS              float64 `json:"totalCOGS"`
		TotalOperatingExpenses float64 `json:"totalOperatingExpenses"`
		GrossProfit            float64 `json:"grossProfit"`
		GrossMargin            float64 `json:"grossMargin"`
		OperatingProfit        float64 `json:"operatingProfit"`
		OperatingMargin        float64 `json:"operatingMargin"`
		NetProfit              float64 `json:"netProfit"`
		NetMargin              float64 `json:"netMargin"`
	} `json:"overallMargins"`
	MonthlyMargins []MonthlyMargin `json:"monthlyMargins"`
}

func (g *Generator) profitMargin(ctx context.Context, req Request) (any, error) {
	transactions, err := g.inRange(ctx, req, "")
	if err != nil {
		return nil, err
	}

	type monthTotals struct{ revenue, cogs, opex float64 }
	byMonth := map[string]*monthTotals{}
	report := &ProfitMargin{header: newHeader(KindProfitMargin, req), MonthlyMargins: []MonthlyMargin{}}
	overall := &report.OverallMargins

	for _, t := range transactions {
		key := monthKey(t.Date)
		m := byMonth[key]
		if m == nil {
			m = &monthTotals{}
			byMonth[key] = m
		}
		switch t.Type {
		case domain.TypeIncome:
			overall.TotalRevenue += t.Amount
			m.revenue += t.Amount
		case domain.TypeExpense:
			if matchesKeywords(t, cogsKeywords) {
				overall.TotalCOGS += t.Amount
				m.cogs += t.Amount
			} else {
				overall.TotalOperatingExpenses += t.Amount
				m.opex += t.Amount
			}
		}
	}

	overall.GrossProfit = overall.TotalRevenue - overall.TotalCOGS
	overall.GrossMargin = pct(overall.GrossProfit, overall.TotalRevenue)
	overall.OperatingProfit = overall.GrossProfit - overall.TotalOperatingExpenses
	overall.OperatingMargin = pct(overall.OperatingProfit, overall.TotalRevenue)
	overall.NetProfit = overall.TotalRevenue - overall.TotalCOGS - overall.TotalOperatingExpenses
	overall.NetMargin = pct(overall.NetProfit, overall.TotalRevenue)

	for _, key := range sortedKeys(byMonth) {
		m := byMonth[key]
		grossProfit := m.revenue - m.cogs
		report.MonthlyMargins = append(report.MonthlyMargins, MonthlyMargin{
			Month:             key,
			Revenue:           m.revenue,
			COGS:              m.cogs,
			OperatingExpenses: m.opex,
			GrossMargin:       pct(grossProfit, m.revenue),
			OperatingMargin:   pct(grossProfit-m.opex, m.revenue),
			NetMargin:         pct(m.revenue-m.cogs-m.opex, m.revenue),
		})
	}
	return report, nil
}

var fixedExpenseKeywords = []string{"rent", "lease", "salary", "insurance", "subscription", "loan"}
var variableExpenseKeywords = []string{"supplies", "materials", "cogs", "shipping", "commission"}

type MonthlyBreakEven struct {
	Month            string  `json:"month"`
	Revenue          float64 `json:"revenue"`
	FixedCosts       float64 `json:"fixedCosts"`
	VariableCosts    float64 `json:"variableCosts"`
	BreakEvenRevenue float64 `json:"breakEvenRevenue"`
	IsAboveBreakEven bool    `json:"isAboveBreakEven"`
	Surplus          float64 `json:"surplus"`
}

type BreakEven struct {
	header
	Summary struct {
		TotalRevenue            float64 `json:"totalRevenue"`
		TotalFixedCosts         float64 `json:"totalFixedCosts"`
		TotalVariableCosts      float64 `json:"totalVariableCosts"`
		ContributionMargin      float64 `json:"contributionMargin"`
		ContributionMarginRatio float64 `json:"contributionMarginRatio"`
		BreakEvenRevenue        float64 `json:"breakEvenRevenue"`
		BreakEvenUnits          int     `json:"breakEvenUnits"`
		CurrentRevenue          float64 `json:"currentRevenue"`
		RevenueToBreakEven      float64 `json:"revenueToBreakEven"`
		UnitsToBreakEven        int     `json:"unitsToBreakEven"`
		IsAboveBreakEven        bool    `json:"isAboveBreakEven"`
	} `json:"summary"`
	MonthlyBreakEven []MonthlyBreakEven `json:"monthlyBreakEven"`
}

// breakEven splits expenses into fixed and variable by keyword; expenses
// matching neither list default to fixed.
func (g *Generator) breakEven(ctx context.Context, req Request) (any, error) {
	transactions, err := g.inRange(ctx, req, "")
	if err != nil {
		return nil, err
	}

	type monthTotals struct {
		revenue, fixed, variable float64
		units                    int
	}
	byMonth := map[string]*monthTotals{}
	report := &BreakEven{header: newHeader(KindBreakEven, req), MonthlyBreakEven: []MonthlyBreakEven{}}
	summary := &report.Summary
	unitCount := 0

	for _, t := range transactions {
		key := monthKey(t.Date)
		m := byMonth[key]
		if m == nil {
			m = &monthTotals{}
			byMonth[key] = m
		}
		switch t.Type {
		case domain.TypeIncome:
			summary.TotalRevenue += t.Amount
			m.revenue += t.Amount
			m.units++
			unitCount++
		case domain.TypeExpense:
			if !matchesKeywords(t, fixedExpenseKeywords) && matchesKeywords(t, variableExpenseKeywords) {
				summary.TotalVariableCosts += t.Amount
				m.variable += t.Amount
			} else {
				summary.TotalFixedCosts += t.Amount
				m.fixed += t.Amount
			}
		}
	}

	summary.ContributionMargin = summary.TotalRevenue - summary.TotalVariableCosts
	summary.ContributionMarginRatio = ratio(summary.ContributionMargin, summary.TotalRevenue)
	summary.BreakEvenRevenue = ratio(summary.TotalFixedCosts, summary.ContributionMarginRatio)

	avgRevenuePerUnit := ratio(summary.TotalRevenue, float64(unitCount))
	avgVariablePerUnit := ratio(summary.TotalVariableCosts, float64(unitCount))
	contributionPerUnit := avgRevenuePerUnit - avgVariablePerUnit
	if contributionPerUnit > 0 {
		summary.BreakEvenUnits = int(math.Ceil(summary.TotalFixedCosts / contributionPerUnit))
	}

	summary.CurrentRevenue = summary.TotalRevenue
	summary.RevenueToBreakEven = math.Max(0, summary.BreakEvenRevenue-summary.CurrentRevenue)
	if summary.BreakEvenUnits > unitCount {
		summary.UnitsToBreakEven = summary.BreakEvenUnits - unitCount
	}
	summary.IsAboveBreakEven = summary.CurrentRevenue >= summary.BreakEvenRevenue

	for _, key := range sortedKeys(byMonth) {
		m := byMonth[key]
		contributionMarginRatio := ratio(m.revenue-m.variable, m.revenue)
		breakEvenRevenue := ratio(m.fixed, contributionMarginRatio)
		report.MonthlyBreakEven = append(report.MonthlyBreakEven, MonthlyBreakEven{
			Month:            key,
			Revenue:          m.revenue,
			FixedCosts:       m.fixed,
			VariableCosts:    m.variable,
			BreakEvenRevenue: breakEvenRevenue,
			IsAboveBreakEven: m.revenue >= breakEvenRevenue,
			Surplus:          m.revenue - breakEvenRevenue,
		})
	}
	return report, nil
}

type KPIDashboard struct {
	header
	KPIs struct {
		Financial struct {
			TotalRevenue  float64 `json:"totalRevenue"`
			TotalExpenses float64 `json:"totalExpenses"`
			NetIncome     float64 `json:"netIncome"`
			ProfitMargin  float64 `json:"profitMargin"`
			ExpenseRatio  float64 `json:"expenseRatio"`
			AnnualRunRate float64 `json:"annualRunRate"`
		} `json:"financial"`
		Growth struct {
			MonthlyGrowthRate float64 `json:"monthlyGrowthRate"`
			RevenueGrowth     float64 `json:"revenueGrowth"`
		} `json:"growth"`
		Customers struct {
			TotalCustomers               int     `json:"totalCustomers"`
			AverageRevenuePerCustomer    float64 `json:"averageRevenuePerCustomer"`
			AverageRevenuePerTransaction float64 `json:"averageRevenuePerTransaction"`
			TotalTransactions            int     `json:"totalTransactions"`
		} `json:"customers"`
		Vendors struct {
			TotalVendors            int     `json:"totalVendors"`
			AverageExpensePerVendor float64 `json:"averageExpensePerVendor"`
		} `json:"vendors"`
		Operational struct {
			AvgMonthlyRevenue  float64 `json:"avgMonthlyRevenue"`
			AvgMonthlyExpenses float64 `json:"avgMonthlyExpenses"`
			CashBurnRate       float64 `json:"cashBurnRate"`
		} `json:"operational"`
	} `json:"kpis"`
	MonthlyTrends []MonthRevenue `json:"monthlyTrends"`
}

type MonthRevenue struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

func (g *Generator) kpiDashboard(ctx context.Context, req Request) (any, error) {
	transactions, err := g.inRange(ctx, req, "")
	if err != nil {
		return nil, err
	}

	report := &KPIDashboard{header: newHeader(KindKPIDashboard, req)}
	kpis := &report.KPIs

	customers := map[string]struct{}{}
	vendors := map[string]struct{}{}
	monthlyRevenue := map[string]float64{}
	incomeCount := 0

	for _, t := range transactions {
		switch t.Type {
		case domain.TypeIncome:
			kpis.Financial.TotalRevenue += t.Amount
			incomeCount++
			monthlyRevenue[monthKey(t.Date)] += t.Amount
			if customer := t.Counterparty(""); customer != "" && customer != "Unknown Customer" {
				customers[customer] = struct{}{}
			}
		case domain.TypeExpense:
			kpis.Financial.TotalExpenses += t.Amount
			if vendor := t.Counterparty(""); vendor != "" && vendor != "Unknown Vendor" {
				vendors[vendor] = struct{}{}
			}
		}
	}

	kpis.Financial.NetIncome = kpis.Financial.TotalRevenue - kpis.Financial.TotalExpenses
	kpis.Financial.ProfitMargin = pct(kpis.Financial.NetIncome, kpis.Financial.TotalRevenue)
	kpis.Financial.ExpenseRatio = pct(kpis.Financial.TotalExpenses, kpis.Financial.TotalRevenue)

	periodDays := math.Max(1, math.Floor(req.EndDate.Sub(req.StartDate).Hours()/24))
	kpis.Financial.AnnualRunRate = kpis.Financial.TotalRevenue / periodDays * 365

	months := sortedKeys(monthlyRevenue)
	if len(months) >= 2 {
		last := monthlyRevenue[months[len(months)-1]]
		previous := monthlyRevenue[months[len(months)-2]]
		kpis.Growth.MonthlyGrowthRate = pct(last-previous, previous)
	}
	kpis.Growth.RevenueGrowth = kpis.Growth.MonthlyGrowthRate

	kpis.Customers.TotalCustomers = len(customers)
	kpis.Customers.AverageRevenuePerCustomer = ratio(kpis.Financial.TotalRevenue, float64(len(customers)))
	kpis.Customers.AverageRevenuePerTransaction = ratio(kpis.Financial.TotalRevenue, float64(incomeCount))
	kpis.Customers.TotalTransactions = incomeCount

	kpis.Vendors.TotalVendors = len(vendors)
	kpis.Vendors.AverageExpensePerVendor = ratio(kpis.Financial.TotalExpenses, float64(len(vendors)))

	if len(months) > 0 {
		kpis.Operational.AvgMonthlyRevenue = kpis.Financial.TotalRevenue / float64(len(months))
		kpis.Operational.AvgMonthlyExpenses = kpis.Financial.TotalExpenses / float64(len(months))
	}
	if kpis.Financial.NetIncome < 0 {
		kpis.Operational.CashBurnRate = math.Abs(kpis.Financial.NetIncome / math.Max(1, float64(len(months))))
	}

	report.MonthlyTrends = make([]MonthRevenue, 0, len(months))
	for _, month := range months {
		report.MonthlyTrends = append(report.MonthlyTrends, MonthRevenue{Month: month, Revenue: monthlyRevenue[month]})
	}
	return report, nil
}
