package reports

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Kind is a closed identifier for a report type. Adding a kind means adding
// a constant here and an entry in the registry table below.
type Kind string

const (
	// Financial statements.
	KindIncomeStatement Kind = "income_statement"
	KindBalanceSheet    Kind = "balance_sheet"
	KindCashFlow        Kind = "cash_flow"
	KindTrialBalance    Kind = "trial_balance"

	// Revenue and sales.
	KindRevenueBreakdown Kind = "revenue_breakdown"
	KindSalesByCustomer  Kind = "sales_by_customer"
	KindRevenueTrends    Kind = "revenue_trends"

	// Expenses.
	KindExpenseByCategory   Kind = "expense_by_category"
	KindExpenseByVendor     Kind = "expense_by_vendor"
	KindTravelEntertainment Kind = "travel_entertainment"

	// Receivables and payables.
	KindARAging           Kind = "ar_aging"
	KindAPAging           Kind = "ap_aging"
	KindCustomerStatement Kind = "customer_statement"
	KindVendorStatement   Kind = "vendor_statement"

	// Tax and compliance.
	KindContractor1099 Kind = "contractor_1099"
	KindSalesTax       Kind = "sales_tax"
	KindTaxDeductions  Kind = "tax_deductions"
	KindQuarterlyTax   Kind = "quarterly_tax"

	// Management.
	KindBudgetVsActual Kind = "budget_vs_actual"
	KindProfitMargin   Kind = "profit_margin"
	KindBreakEven      Kind = "break_even"
	KindKPIDashboard   Kind = "kpi_dashboard"

	// Reconciliation.
	KindStripeReconciliation Kind = "stripe_reconciliation"
	KindSquareReconciliation Kind = "square_reconciliation"
	KindCrossSourceSummary   Kind = "cross_source_summary"
)

type generateFunc func(g *Generator, ctx context.Context, req Request) (any, error)
type renderFunc func(data any) (string, error)

// Definition binds a report kind to its generator and renderer.
type Definition struct {
	Kind        Kind
	Name        string
	Description string
	generate    generateFunc
	render      renderFunc
}

// ErrUnknownKind reports a kind outside the registry.
var ErrUnknownKind = errors.New("unknown report type")

var registry map[Kind]Definition

// The table is populated in init rather than a package-level literal:
// generator methods reach back into the registry for display names, and a
// literal would make the map's initializer depend on itself.
func init() {
	registry = map[Kind]Definition{
		KindIncomeStatement: {
			Name:        "Income Statement (P&L)",
			Description: "Revenue and expenses breakdown with net income",
			generate:    (*Generator).incomeStatement,
			render:      renderIncomeStatement,
		},
		KindBalanceSheet: {
			Name:        "Balance Sheet",
			Description: "Assets, liabilities, and equity at a point in time",
			generate:    (*Generator).balanceSheet,
		},
		KindCashFlow: {
			Name:        "Cash Flow Statement",
			Description: "Operating, investing, and financing cash flows",
			generate:    (*Generator).cashFlow,
		},
		KindTrialBalance: {
			Name:        "Trial Balance",
			Description: "Verification that debits equal credits",
			generate:    (*Generator).trialBalance,
		},
		KindRevenueBreakdown: {
			Name:        "Revenue Breakdown",
			Description: "Revenue by category, source, and time period",
			generate:    (*Generator).revenueBreakdown,
		},
		KindSalesByCustomer: {
			Name:        "Sales by Customer",
			Description: "Revenue analysis by customer",
			generate:    (*Generator).salesByCustomer,
		},
		KindRevenueTrends: {
			Name:        "Revenue Trends",
			Description: "Monthly revenue trends and growth rates",
			generate:    (*Generator).revenueTrends,
		},
		KindExpenseByCategory: {
			Name:        "Expense Report by Category",
			Description: "Expenses categorized and analyzed",
			generate:    (*Generator).expenseByCategory,
		},
		KindExpenseByVendor: {
			Name:        "Expense by Vendor",
			Description: "Expense analysis by vendor",
			generate:    (*Generator).expenseByVendor,
		},
		KindTravelEntertainment: {
			Name:        "Travel & Entertainment",
			Description: "T&E expenses for tax deduction tracking",
			generate:    (*Generator).travelEntertainment,
		},
		KindARAging: {
			Name:        "AR Aging",
			Description: "Accounts receivable aging analysis",
			generate:    (*Generator).arAging,
		},
		KindAPAging: {
			Name:        "AP Aging",
			Description: "Accounts payable aging analysis",
			generate:    (*Generator).apAging,
		},
		KindCustomerStatement: {
			Name:        "Customer Statement",
			Description: "Detailed customer transaction history",
			generate:    (*Generator).customerStatement,
		},
		KindVendorStatement: {
			Name:        "Vendor Statement",
			Description: "Detailed vendor transaction history",
			generate:    (*Generator).vendorStatement,
		},
		KindContractor1099: {
			Name:        "1099 Contractor Report",
			Description: "Contractor payments for tax reporting",
			generate:    (*Generator).contractor1099,
		},
		KindSalesTax: {
			Name:        "Sales Tax Report",
			Description: "Sales tax collection and liability",
			generate:    (*Generator).salesTax,
		},
		KindTaxDeductions: {
			Name:        "Tax Deduction Categorization",
			Description: "Categorized deductible expenses for tax filing",
			generate:    (*Generator).taxDeductions,
		},
		KindQuarterlyTax: {
			Name:        "Quarterly Tax Summary",
			Description: "Estimated quarterly tax calculations",
			generate:    (*Generator).quarterlyTax,
		},
		KindBudgetVsActual: {
			Name:        "Budget vs Actual",
			Description: "Compare actual performance against budget",
			generate:    (*Generator).budgetVsActual,
		},
		KindProfitMargin: {
			Name:        "Profit Margin Analysis",
			Description: "Gross, operating, and net profit margins",
			generate:    (*Generator).profitMargin,
		},
		KindBreakEven: {
			Name:        "Break-Even Analysis",
			Description: "Calculate break-even revenue and units",
			generate:    (*Generator).breakEven,
		},
		KindKPIDashboard: {
			Name:        "KPI Dashboard",
			Description: "Key performance indicators and metrics",
			generate:    (*Generator).kpiDashboard,
		},
		KindStripeReconciliation: {
			Name:        "Stripe Reconciliation",
			Description: "Stripe revenue vs accounting reconciliation",
			generate:    (*Generator).stripeReconciliation,
		},
		KindSquareReconciliation: {
			Name:        "Square Reconciliation",
			Description: "Square revenue vs accounting reconciliation",
			generate:    (*Generator).squareReconciliation,
		},
		KindCrossSourceSummary: {
			Name:        "Cross-Source Summary",
			Description: "Consolidated view across all data sources",
			generate:    (*Generator).crossSourceSummary,
		},
	}
}

// Lookup resolves a kind to its definition. Unknown kinds are a caller
// input error, never a panic.
func Lookup(kind Kind) (Definition, error) {
	def, ok := registry[kind]
	if !ok {
		return Definition{}, fmt.Errorf("%w %q", ErrUnknownKind, kind)
	}
	def.Kind = kind
	return def, nil
}

// Kinds lists every registered report kind in stable order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(registry))
	for kind := range registry {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Generate runs the generator registered for the definition's kind.
func (d Definition) Generate(g *Generator, ctx context.Context, req Request) (any, error) {
	return d.generate(g, ctx, req)
}

// Render produces the HTML artifact for generated report data, falling back
// to the generic JSON renderer when no bespoke template exists.
func (d Definition) Render(data any) (string, error) {
	if d.render != nil {
		return d.render(data)
	}
	return renderGeneric(d.Name, data)
}
