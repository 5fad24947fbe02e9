package reports

import (
	"context"
	"fmt"
	"testing"

	"github.com/pashoot/reports/internal/domain"
)

func TestExpenseByCategory(t *testing.T) {
	g, _, _ := newTestGenerator(t,
		expense(1, 1, 100, "Bean order A", "inventory"),
		expense(1, 5, 90, "Bean order B", "inventory"),
		expense(1, 10, 80, "Bean order C", "inventory"),
		expense(2, 1, 70, "Bean order D", "inventory"),
		expense(2, 5, 60, "Bean order E", "inventory"),
		expense(2, 10, 50, "Bean order F", "inventory"),
		expense(1, 20, 550, "Office rent", "rent"),
		expense(3, 1, 30, "Stamps", ""),
	)

	data, err := g.expenseByCategory(context.Background(), testReq)
	if err != nil {
		t.Fatalf("expenseByCategory: %v", err)
	}
	report := data.(*ExpenseByCategory)

	if report.TotalExpenses != 1030 {
		t.Fatalf("TotalExpenses = %v, want 1030", report.TotalExpenses)
	}
	if len(report.Categories) != 3 {
		t.Fatalf("categories = %d, want 3", len(report.Categories))
	}

	rent := report.Categories[0]
	if rent.Category != "rent" || rent.Amount != 550 {
		t.Errorf("top category = %q %v, want rent 550", rent.Category, rent.Amount)
	}
	inventory := report.Categories[1]
	if inventory.Category != "inventory" || inventory.Count != 6 {
		t.Errorf("second category = %q count %d, want inventory 6", inventory.Category, inventory.Count)
	}
	if len(inventory.TopTransactions) != 5 {
		t.Errorf("TopTransactions = %d, want cap of 5", len(inventory.TopTransactions))
	}
	if inventory.TopTransactions[0].Amount != 100 || inventory.TopTransactions[4].Amount != 60 {
		t.Errorf("TopTransactions range = %v..%v, want 100..60",
			inventory.TopTransactions[0].Amount, inventory.TopTransactions[4].Amount)
	}
	if inventory.AvgPerTransaction != 75 {
		t.Errorf("AvgPerTransaction = %v, want 75", inventory.AvgPerTransaction)
	}
	if report.Categories[2].Category != "Uncategorized" {
		t.Errorf("last category = %q, want Uncategorized", report.Categories[2].Category)
	}

	wantTrends := []MonthAmount{{Month: "2024-01", Amount: 820}, {Month: "2024-02", Amount: 180}, {Month: "2024-03", Amount: 30}}
	if len(report.Trends) != len(wantTrends) {
		t.Fatalf("trend months = %d, want %d", len(report.Trends), len(wantTrends))
	}
	for i, want := range wantTrends {
		if report.Trends[i] != want {
			t.Errorf("Trends[%d] = %+v, want %+v", i, report.Trends[i], want)
		}
	}
}

func TestExpenseByVendor(t *testing.T) {
	tagged := expense(1, 5, 400, "Monthly invoice", "hosting")
	tagged.Metadata.Vendor = "CloudCo"

	g, _, _ := newTestGenerator(t,
		tagged,
		expense(2, 1, 100, "Staples - paper", "supplies"),
		expense(3, 1, 50, "Staples - toner", "equipment"),
		expense(4, 1, 25, "Parking meter", ""),
	)

	data, err := g.expenseByVendor(context.Background(), testReq)
	if err != nil {
		t.Fatalf("expenseByVendor: %v", err)
	}
	report := data.(*ExpenseByVendor)

	if report.TotalVendors != 3 || report.TotalExpenses != 575 {
		t.Fatalf("vendors/total = %d/%v, want 3/575", report.TotalVendors, report.TotalExpenses)
	}

	top := report.Vendors[0]
	if top.Vendor != "CloudCo" || top.TotalExpenses != 400 {
		t.Errorf("top vendor = %q %v, want CloudCo 400 (metadata)", top.Vendor, top.TotalExpenses)
	}
	staples := report.Vendors[1]
	if staples.Vendor != "Staples" || staples.TransactionCount != 2 || staples.AverageExpense != 75 {
		t.Errorf("Staples = %q count %d avg %v, want Staples 2 75", staples.Vendor, staples.TransactionCount, staples.AverageExpense)
	}
	wantCategories := []string{"equipment", "supplies"}
	if len(staples.Categories) != 2 || staples.Categories[0] != wantCategories[0] || staples.Categories[1] != wantCategories[1] {
		t.Errorf("Staples categories = %v, want %v", staples.Categories, wantCategories)
	}
	if report.Vendors[2].Vendor != "Parking meter" || len(report.Vendors[2].Categories) != 0 {
		t.Errorf("uncategorized vendor = %+v", report.Vendors[2])
	}

	if report.Top10Percentage != 100 {
		t.Errorf("Top10Percentage = %v, want 100", report.Top10Percentage)
	}
}

func TestExpenseByVendor_Top10Cap(t *testing.T) {
	var txs []domain.Transaction
	for i := 0; i < 11; i++ {
		txs = append(txs, expense(1, i+1, float64(100+i), fmt.Sprintf("Vendor %02d - invoice", i), "services"))
	}
	g, _, _ := newTestGenerator(t, txs...)

	data, err := g.expenseByVendor(context.Background(), testReq)
	if err != nil {
		t.Fatalf("expenseByVendor: %v", err)
	}
	report := data.(*ExpenseByVendor)

	if report.TotalVendors != 11 {
		t.Fatalf("TotalVendors = %d, want 11", report.TotalVendors)
	}
	if len(report.Top10Vendors) != 10 {
		t.Fatalf("Top10Vendors = %d, want 10", len(report.Top10Vendors))
	}
	if report.Top10Vendors[0].Vendor != "Vendor 10" {
		t.Errorf("top vendor = %q, want the highest-spend one", report.Top10Vendors[0].Vendor)
	}
	if report.Top10Percentage >= 100 {
		t.Errorf("Top10Percentage = %v, want less than 100", report.Top10Percentage)
	}
}

func TestTravelEntertainment(t *testing.T) {
	g, _, _ := newTestGenerator(t,
		expense(1, 5, 450, "Flight to Austin", "travel"),
		expense(1, 6, 200, "Hotel dinner with client", "travel"),
		expense(2, 10, 60, "Team lunch", "meals"),
		expense(2, 15, 500, "Office rent", "rent"),
	)

	data, err := g.travelEntertainment(context.Background(), testReq)
	if err != nil {
		t.Fatalf("travelEntertainment: %v", err)
	}
	report := data.(*TravelEntertainment)

	if report.TravelExpenses.Count != 2 || report.TravelExpenses.Total != 650 {
		t.Errorf("travel = %d/%v, want 2/650", report.TravelExpenses.Count, report.TravelExpenses.Total)
	}
	if report.EntertainmentExpenses.Count != 2 || report.EntertainmentExpenses.Total != 260 {
		t.Errorf("entertainment = %d/%v, want 2/260", report.EntertainmentExpenses.Count, report.EntertainmentExpenses.Total)
	}
	// "Hotel dinner with client" lands in both sections, so the combined
	// figure double-counts it while the monthly series does not.
	if report.TotalCombined != 910 {
		t.Errorf("TotalCombined = %v, want 910", report.TotalCombined)
	}

	if len(report.MonthlyData) != 2 {
		t.Fatalf("monthly rows = %d, want 2", len(report.MonthlyData))
	}
	jan := report.MonthlyData[0]
	if jan.Month != "2024-01" || jan.Travel != 650 || jan.Entertainment != 0 || jan.Total != 650 {
		t.Errorf("jan = %+v, want travel 650 entertainment 0", jan)
	}
	feb := report.MonthlyData[1]
	if feb.Travel != 0 || feb.Entertainment != 60 || feb.Total != 60 {
		t.Errorf("feb = %+v, want entertainment 60", feb)
	}
}
