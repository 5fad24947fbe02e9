package reports

import (
	"context"
	"testing"
)

func TestBudgetVsActual(t *testing.T) {
	g, _, _ := newTestGenerator(t,
		income(1, 10, 12000, "January sales", "retail"),
		expense(1, 20, 7000, "January costs", "operations"),
		income(2, 10, 5000, "February sales", "retail"),
		expense(2, 20, 8000, "February costs", "operations"),
	)

	data, err := g.budgetVsActual(context.Background(), testReq)
	if err != nil {
		t.Fatalf("budgetVsActual: %v", err)
	}
	report := data.(*BudgetVsActual)
	settings := DefaultSettings()

	if len(report.MonthlyComparison) != 2 {
		t.Fatalf("months = %d, want 2", len(report.MonthlyComparison))
	}

	jan := report.MonthlyComparison[0]
	if jan.Budget.Income != settings.MonthlyBudgetIncome {
		t.Errorf("budget income = %v, want default %v", jan.Budget.Income, settings.MonthlyBudgetIncome)
	}
	if jan.Actual.NetIncome != 5000 {
		t.Errorf("jan actual net = %v, want 5000", jan.Actual.NetIncome)
	}
	if jan.Variance.Income != 2000 || jan.PercentageVariance.Income != 20 {
		t.Errorf("jan income variance = %v (%v%%), want +2000 20%%", jan.Variance.Income, jan.PercentageVariance.Income)
	}
	if jan.Variance.Expenses != 0 || jan.PercentageVariance.Expenses != 0 {
		t.Errorf("jan expense variance = %v (%v%%), want 0", jan.Variance.Expenses, jan.PercentageVariance.Expenses)
	}

	feb := report.MonthlyComparison[1]
	if feb.Variance.Income != -5000 || feb.PercentageVariance.Income != -50 {
		t.Errorf("feb income variance = %v (%v%%), want -5000 -50%%", feb.Variance.Income, feb.PercentageVariance.Income)
	}
	if feb.Variance.NetIncome != -6000 || feb.PercentageVariance.NetIncome != -200 {
		t.Errorf("feb net variance = %v (%v%%), want -6000 -200%%", feb.Variance.NetIncome, feb.PercentageVariance.NetIncome)
	}

	overall := report.OverallPerformance
	if overall.Budget.TotalIncome != 20000 || overall.Budget.TotalNetIncome != 6000 {
		t.Errorf("overall budget = %+v", overall.Budget)
	}
	if overall.Actual.TotalIncome != 17000 || overall.Actual.TotalNetIncome != 2000 {
		t.Errorf("overall actual = %+v", overall.Actual)
	}
	if overall.Variance.Income != -3000 || overall.Variance.Expenses != 1000 || overall.Variance.NetIncome != -4000 {
		t.Errorf("overall variance = %+v", overall.Variance)
	}
	if report.Note == "" {
		t.Error("expected explanatory note on default budgets")
	}
}

func TestProfitMargin(t *testing.T) {
	g, _, _ := newTestGenerator(t,
		income(1, 5, 1000, "Bakery sales", "retail"),
		expense(1, 10, 300, "Flour and sugar", "inventory"),
		expense(1, 15, 200, "Shop rent", "rent"),
	)

	data, err := g.profitMargin(context.Background(), testReq)
	if err != nil {
		t.Fatalf("profitMargin: %v", err)
	}
	report := data.(*ProfitMargin)
	overall := report.OverallMargins

	if overall.TotalRevenue != 1000 || overall.TotalCOGS != 300 || overall.TotalOperatingExpenses != 200 {
		t.Fatalf("totals = %v/%v/%v, want 1000/300/200",
			overall.TotalRevenue, overall.TotalCOGS, overall.TotalOperatingExpenses)
	}
	if overall.GrossProfit != 700 || overall.GrossMargin != 70 {
		t.Errorf("gross = %v (%v%%), want 700 70%%", overall.GrossProfit, overall.GrossMargin)
	}
	if overall.OperatingProfit != 500 || overall.OperatingMargin != 50 {
		t.Errorf("operating = %v (%v%%), want 500 50%%", overall.OperatingProfit, overall.OperatingMargin)
	}
	if overall.NetProfit != 500 || overall.NetMargin != 50 {
		t.Errorf("net = %v (%v%%), want 500 50%%", overall.NetProfit, overall.NetMargin)
	}

	if len(report.MonthlyMargins) != 1 {
		t.Fatalf("monthly margins = %d, want 1", len(report.MonthlyMargins))
	}
	jan := report.MonthlyMargins[0]
	if jan.COGS != 300 || jan.GrossMargin != 70 || jan.NetMargin != 50 {
		t.Errorf("jan margins = %+v", jan)
	}
}

func TestBreakEven(t *testing.T) {
	g, _, _ := newTestGenerator(t,
		income(1, 5, 4000, "Wholesale order - Acme", "wholesale"),
		income(1, 12, 2000, "Retail - Jo", "retail"),
		expense(1, 1, 2000, "Studio rent", "rent"),
		expense(1, 8, 1000, "Packing supplies", "supplies"),
		expense(1, 9, 500, "Bank charge", ""),
		income(2, 5, 1000, "Retail - Jo", "retail"),
		expense(2, 1, 2000, "Studio rent", "rent"),
	)

	data, err := g.breakEven(context.Background(), testReq)
	if err != nil {
		t.Fatalf("breakEven: %v", err)
	}
	report := data.(*BreakEven)
	summary := report.Summary

	if summary.TotalRevenue != 7000 {
		t.Fatalf("TotalRevenue = %v, want 7000", summary.TotalRevenue)
	}
	// Rent matches the fixed list, supplies the variable list, and the
	// bank charge matches neither so it defaults to fixed.
	if summary.TotalFixedCosts != 4500 || summary.TotalVariableCosts != 1000 {
		t.Fatalf("fixed/variable = %v/%v, want 4500/1000", summary.TotalFixedCosts, summary.TotalVariableCosts)
	}
	if summary.ContributionMargin != 6000 {
		t.Errorf("ContributionMargin = %v, want 6000", summary.ContributionMargin)
	}
	if !almostEqual(summary.ContributionMarginRatio, 6000.0/7000) {
		t.Errorf("ContributionMarginRatio = %v", summary.ContributionMarginRatio)
	}
	if !almostEqual(summary.BreakEvenRevenue, 5250) {
		t.Errorf("BreakEvenRevenue = %v, want 5250", summary.BreakEvenRevenue)
	}
	if summary.BreakEvenUnits != 3 {
		t.Errorf("BreakEvenUnits = %d, want 3", summary.BreakEvenUnits)
	}
	if !summary.IsAboveBreakEven || summary.RevenueToBreakEven != 0 || summary.UnitsToBreakEven != 0 {
		t.Errorf("above-break-even state = %+v", summary)
	}

	if len(report.MonthlyBreakEven) != 2 {
		t.Fatalf("monthly rows = %d, want 2", len(report.MonthlyBreakEven))
	}
	jan := report.MonthlyBreakEven[0]
	if !almostEqual(jan.BreakEvenRevenue, 3000) || !jan.IsAboveBreakEven || !almostEqual(jan.Surplus, 3000) {
		t.Errorf("jan = %+v, want break-even 3000 with surplus 3000", jan)
	}
	feb := report.MonthlyBreakEven[1]
	if feb.IsAboveBreakEven || !almostEqual(feb.Surplus, -1000) {
		t.Errorf("feb = %+v, want below break-even with -1000 surplus", feb)
	}
}

func TestKPIDashboard(t *testing.T) {
	g, _, _ := newTestGenerator(t,
		income(1, 10, 3000, "Acme - invoice", "consulting"),
		income(2, 10, 4500, "Beta LLC - invoice", "consulting"),
		expense(1, 15, 2000, "Staples - paper", "supplies"),
		expense(2, 15, 7000, "Contractor - build out", "services"),
	)

	data, err := g.kpiDashboard(context.Background(), testReq)
	if err != nil {
		t.Fatalf("kpiDashboard: %v", err)
	}
	report := data.(*KPIDashboard)
	kpis := report.KPIs

	if kpis.Financial.TotalRevenue != 7500 || kpis.Financial.TotalExpenses != 9000 {
		t.Fatalf("revenue/expenses = %v/%v, want 7500/9000", kpis.Financial.TotalRevenue, kpis.Financial.TotalExpenses)
	}
	if kpis.Financial.NetIncome != -1500 || kpis.Financial.ProfitMargin != -20 {
		t.Errorf("net/margin = %v/%v, want -1500/-20", kpis.Financial.NetIncome, kpis.Financial.ProfitMargin)
	}
	if kpis.Financial.ExpenseRatio != 120 {
		t.Errorf("ExpenseRatio = %v, want 120", kpis.Financial.ExpenseRatio)
	}
	// The request covers a full year, so the run rate equals the revenue.
	if !almostEqual(kpis.Financial.AnnualRunRate, 7500) {
		t.Errorf("AnnualRunRate = %v, want 7500", kpis.Financial.AnnualRunRate)
	}

	if kpis.Growth.MonthlyGrowthRate != 50 || kpis.Growth.RevenueGrowth != 50 {
		t.Errorf("growth = %v/%v, want 50/50", kpis.Growth.MonthlyGrowthRate, kpis.Growth.RevenueGrowth)
	}

	if kpis.Customers.TotalCustomers != 2 || kpis.Customers.AverageRevenuePerCustomer != 3750 {
		t.Errorf("customers = %d avg %v, want 2 avg 3750", kpis.Customers.TotalCustomers, kpis.Customers.AverageRevenuePerCustomer)
	}
	if kpis.Customers.TotalTransactions != 2 || kpis.Customers.AverageRevenuePerTransaction != 3750 {
		t.Errorf("transactions = %d avg %v, want 2 avg 3750",
			kpis.Customers.TotalTransactions, kpis.Customers.AverageRevenuePerTransaction)
	}
	if kpis.Vendors.TotalVendors != 2 || kpis.Vendors.AverageExpensePerVendor != 4500 {
		t.Errorf("vendors = %d avg %v, want 2 avg 4500", kpis.Vendors.TotalVendors, kpis.Vendors.AverageExpensePerVendor)
	}

	if kpis.Operational.AvgMonthlyRevenue != 3750 || kpis.Operational.AvgMonthlyExpenses != 4500 {
		t.Errorf("operational avgs = %v/%v, want 3750/4500",
			kpis.Operational.AvgMonthlyRevenue, kpis.Operational.AvgMonthlyExpenses)
	}
	if kpis.Operational.CashBurnRate != 750 {
		t.Errorf("CashBurnRate = %v, want 750", kpis.Operational.CashBurnRate)
	}

	if len(report.MonthlyTrends) != 2 || report.MonthlyTrends[1].Revenue != 4500 {
		t.Errorf("MonthlyTrends = %+v", report.MonthlyTrends)
	}
}

func TestKPIDashboard_NoBurnWhenProfitable(t *testing.T) {
	g, _, _ := newTestGenerator(t,
		income(1, 10, 5000, "Acme - invoice", "consulting"),
		expense(1, 15, 1000, "Staples - paper", "supplies"),
	)

	data, err := g.kpiDashboard(context.Background(), testReq)
	if err != nil {
		t.Fatalf("kpiDashboard: %v", err)
	}
	report := data.(*KPIDashboard)
	if report.KPIs.Operational.CashBurnRate != 0 {
		t.Errorf("CashBurnRate = %v, want 0 for a profitable period", report.KPIs.Operational.CashBurnRate)
	}
	if report.KPIs.Growth.MonthlyGrowthRate != 0 {
		t.Errorf("growth with one month = %v, want 0", report.KPIs.Growth.MonthlyGrowthRate)
	}
}
