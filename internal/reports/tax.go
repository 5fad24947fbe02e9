package reports

import (
	"context"
	"sort"
	"time"

	"github.com/pashoot/reports/internal/domain"
)

var contractorKeywords = []string{"contractor", "freelance", "consultant"}

const contractor1099Threshold = 600.0

type ContractorPayment struct {
	Date        time.Time `json:"date"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
}

type Contractor struct {
	Name             string              `json:"name"`
	TotalPaid        float64             `json:"totalPaid"`
	TransactionCount int                 `json:"transactionCount"`
	Requires1099     bool                `json:"requires1099"`
	Transactions     []ContractorPayment `json:"transactions,omitempty"`
}

type Contractor1099 struct {
	header
	Year    int `json:"year"`
	Summary struct {
		TotalContractors        int     `json:"totalContractors"`
		Contractors1099Required int     `json:"contractors1099Required"`
		TotalPayments           float64 `json:"totalPayments"`
		Threshold               float64 `json:"threshold"`
	} `json:"summary"`
	Contractors1099Required   []Contractor `json:"contractors1099Required"`
	ContractorsBelowThreshold []Contractor `json:"contractorsBelowThreshold"`
}

// contractor1099 flags payees with contractor-like payments totalling at
// least $600 in the period. Payees are keyed by description since no
// first-class vendor entity exists.
func (g *Generator) contractor1099(ctx context.Context, req Request) (any, error) {
	transactions, err := g.inRange(ctx, req, domain.TypeExpense)
	if err != nil {
		return nil, err
	}

	byContractor := map[string][]ContractorPayment{}
	for _, t := range transactions {
		if !matchesKeywords(t, contractorKeywords) {
			continue
		}
		byContractor[t.Description] = append(byContractor[t.Description], ContractorPayment{
			Date:        t.Date,
			Amount:      t.Amount,
			Description: t.Description,
		})
	}

	report := &Contractor1099{
		header:                    newHeader(KindContractor1099, req),
		Year:                      req.StartDate.Year(),
		Contractors1099Required:   []Contractor{},
		ContractorsBelowThreshold: []Contractor{},
	}
	report.Summary.Threshold = contractor1099Threshold

	for _, name := range sortedKeys(byContractor) {
		paid := byContractor[name]
		total := 0.0
		for _, p := range paid {
			total += p.Amount
		}
		report.Summary.TotalContractors++
		report.Summary.TotalPayments += total

		contractor := Contractor{
			Name:             name,
			TotalPaid:        total,
			TransactionCount: len(paid),
		}
		if total >= contractor1099Threshold {
			contractor.Requires1099 = true
			contractor.Transactions = paid
			report.Contractors1099Required = append(report.Contractors1099Required, contractor)
		} else {
			report.ContractorsBelowThreshold = append(report.ContractorsBelowThreshold, contractor)
		}
	}
	sort.SliceStable(report.Contractors1099Required, func(i, j int) bool {
		return report.Contractors1099Required[i].TotalPaid > report.Contractors1099Required[j].TotalPaid
	})
	sort.SliceStable(report.ContractorsBelowThreshold, func(i, j int) bool {
		return report.ContractorsBelowThreshold[i].TotalPaid > report.ContractorsBelowThreshold[j].TotalPaid
	})
	report.Summary.Contractors1099Required = len(report.Contractors1099Required)
	return report, nil
}

type TaxableTransaction struct {
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	NetAmount   float64   `json:"netAmount"`
	TaxRate     float64   `json:"taxRate"`
	TaxAmount   float64   `json:"taxAmount"`
	GrossAmount float64   `json:"grossAmount"`
}

type ExemptTransaction struct {
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Reason      string    `json:"reason"`
}

type MonthlyTax struct {
	Month        string  `json:"month"`
	TaxableSales float64 `json:"taxableSales"`
	TaxCollected float64 `json:"taxCollected"`
}

type SalesTax struct {
	header
	Summary struct {
		TotalTaxableSales float64 `json:"totalTaxableSales"`
		TotalTaxCollected float64 `json:"totalTaxCollected"`
		TotalExemptSales  float64 `json:"totalExemptSales"`
		AverageTaxRate    float64 `json:"averageTaxRate"`
	} `json:"summary"`
	TaxableTransactions []TaxableTransaction `json:"taxableTransactions"`
	ExemptTransactions  []ExemptTransaction  `json:"exemptTransactions"`
	MonthlyData         []MonthlyTax         `json:"monthlyData"`
}

func (g *Generator) salesTax(ctx context.Context, req Request) (any, error) {
	transactions, err := g.inRange(ctx, req, domain.TypeIncome)
	if err != nil {
		return nil, err
	}

	report := &SalesTax{
		header:              newHeader(KindSalesTax, req),
		TaxableTransactions: []TaxableTransaction{},
		ExemptTransactions:  []ExemptTransaction{},
		MonthlyData:         []MonthlyTax{},
	}
	monthly := map[string]*MonthlyTax{}

	for _, t := range transactions {
		if t.Metadata.TaxExempt {
			reason := t.Metadata.ExemptReason
			if reason == "" {
				reason = "Not specified"
			}
			report.ExemptTransactions = append(report.ExemptTransactions, ExemptTransaction{
				Date:        t.Date,
				Description: t.Description,
				Amount:      t.Amount,
				Reason:      reason,
			})
			report.Summary.TotalExemptSales += t.Amount
			continue
		}

		rate := g.settings.DefaultSalesTaxRate
		if t.Metadata.TaxRate != nil {
			rate = *t.Metadata.TaxRate
		}
		taxAmount := t.Amount * rate
		report.TaxableTransactions = append(report.TaxableTransactions, TaxableTransaction{
			Date:        t.Date,
			Description: t.Description,
			NetAmount:   t.Amount,
			TaxRate:     rate,
			TaxAmount:   taxAmount,
			GrossAmount: t.Amount + taxAmount,
		})
		report.Summary.TotalTaxableSales += t.Amount
		report.Summary.TotalTaxCollected += taxAmount

		key := monthKey(t.Date)
		month := monthly[key]
		if month == nil {
			month = &MonthlyTax{Month: key}
			monthly[key] = month
		}
		month.TaxableSales += t.Amount
		month.TaxCollected += taxAmount
	}

	if report.Summary.TotalTaxableSales > 0 {
		report.Summary.AverageTaxRate = report.Summary.TotalTaxCollected / report.Summary.TotalTaxableSales
	} else {
		report.Summary.AverageTaxRate = g.settings.DefaultSalesTaxRate
	}
	for _, key := range sortedKeys(monthly) {
		report.MonthlyData = append(report.MonthlyData, *monthly[key])
	}
	return report, nil
}

// deductionCategories maps IRS-style deduction buckets to match keywords,
// checked in this order; the first match wins and unmatched expenses fall
// into Other Deductible.
var deductionCategories = []struct {
	Name     string
	Keywords []string
}{
	{"Office Expenses", []string{"office", "supplies", "equipment", "software"}},
	{"Vehicle & Travel", []string{"vehicle", "travel", "mileage", "transportation", "fuel", "parking"}},
	{"Meals & Entertainment", []string{"meal", "restaurant", "entertainment", "lunch", "dinner", "client"}},
	{"Professional Services", []string{"legal", "accounting", "consultant", "professional", "fees"}},
	{"Insurance", []string{"insurance"}},
	{"Marketing & Advertising", []string{"marketing", "advertising", "promotion", "social media"}},
	{"Utilities", []string{"utilities", "internet", "phone", "electricity", "water"}},
	{"Rent & Lease", []string{"rent", "lease", "office space"}},
	{"Education & Training", []string{"training", "education", "course", "certification", "conference"}},
	{"Bank Fees & Interest", []string{"bank fee", "interest", "finance charge"}},
	{"Repairs & Maintenance", []string{"repair", "maintenance"}},
}

const otherDeductible = "Other Deductible"

type DeductibleExpense struct {
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
}

type DeductionCategory struct {
	Category         string              `json:"category"`
	TotalAmount      float64             `json:"totalAmount"`
	TransactionCount int                 `json:"transactionCount"`
	Expenses         []DeductibleExpense `json:"expenses"`
}

type TaxDeductions struct {
	header
	Summary struct {
		TotalDeductible      float64 `json:"totalDeductible"`
		TotalNonDeductible   float64 `json:"totalNonDeductible"`
		TotalExpenses        float64 `json:"totalExpenses"`
		DeductiblePercentage float64 `json:"deductiblePercentage"`
	} `json:"summary"`
	CategoryTotals []DeductionCategory `json:"categoryTotals"`
	NonDeductible  []DeductibleExpense `json:"nonDeductible"`
}

func (g *Generator) taxDeductions(ctx context.Context, req Request) (any, error) {
	transactions, err := g.inRange(ctx, req, domain.TypeExpense)
	if err != nil {
		return nil, err
	}

	byBucket := map[string][]DeductibleExpense{}
	report := &TaxDeductions{
		header:        newHeader(KindTaxDeductions, req),
		NonDeductible: []DeductibleExpense{},
	}

	for _, t := range transactions {
		expense := DeductibleExpense{
			Date:        t.Date,
			Description: t.Description,
			Category:    t.CategoryOrDefault(),
			Amount:      t.Amount,
		}
		if t.Metadata.NonDeductible {
			report.NonDeductible = append(report.NonDeductible, expense)
			report.Summary.TotalNonDeductible += t.Amount
			continue
		}

		bucket := otherDeductible
		for _, dc := range deductionCategories {
			if matchesKeywords(t, dc.Keywords) {
				bucket = dc.Name
				break
			}
		}
		byBucket[bucket] = append(byBucket[bucket], expense)
		report.Summary.TotalDeductible += t.Amount
	}

	report.CategoryTotals = []DeductionCategory{}
	for _, name := range sortedKeys(byBucket) {
		expenses := byBucket[name]
		total := 0.0
		for _, e := range expenses {
			total += e.Amount
		}
		report.CategoryTotals = append(report.CategoryTotals, DeductionCategory{
			Category:         name,
			TotalAmount:      total,
			TransactionCount: len(expenses),
			Expenses:         expenses,
		})
	}
	sort.SliceStable(report.CategoryTotals, func(i, j int) bool {
		return report.CategoryTotals[i].TotalAmount > report.CategoryTotals[j].TotalAmount
	})

	report.Summary.TotalExpenses = report.Summary.TotalDeductible + report.Summary.TotalNonDeductible
	report.Summary.DeductiblePercentage = pct(report.Summary.TotalDeductible, report.Summary.TotalExpenses)
	return report, nil
}

type QuarterTax struct {
	Quarter            string  `json:"quarter"`
	Income             float64 `json:"income"`
	Expenses           float64 `json:"expenses"`
	NetIncome          float64 `json:"netIncome"`
	SelfEmploymentTax  float64 `json:"selfEmploymentTax"`
	EstimatedIncomeTax float64 `json:"estimatedIncomeTax"`
	TotalTaxDue        float64 `json:"totalTaxDue"`
}

type QuarterlyTax struct {
	header
	Quarters      []QuarterTax `json:"quarters"`
	AnnualSummary struct {
		TotalIncome             float64 `json:"totalIncome"`
		TotalExpenses           float64 `json:"totalExpenses"`
		TotalNetIncome          float64 `json:"totalNetIncome"`
		TotalSelfEmploymentTax  float64 `json:"totalSelfEmploymentTax"`
		TotalEstimatedIncomeTax float64 `json:"totalEstimatedIncomeTax"`
		TotalTaxDue             float64 `json:"totalTaxDue"`
	} `json:"annualSummary"`
	TaxRates struct {
		SelfEmployment  float64 `json:"selfEmployment"`
		EstimatedIncome float64 `json:"estimatedIncome"`
	} `json:"taxRates"`
	Disclaimer string `json:"disclaimer"`
}

func (g *Generator) quarterlyTax(ctx context.Context, req Request) (any, error) {
	transactions, err := g.inRange(ctx, req, "")
	if err != nil {
		return nil, err
	}

	type quarterTotals struct{ income, expenses float64 }
	byQuarter := map[string]*quarterTotals{}
	for _, t := range transactions {
		key := quarterKey(t.Date)
		q := byQuarter[key]
		if q == nil {
			q = &quarterTotals{}
			byQuarter[key] = q
		}
		switch t.Type {
		case domain.TypeIncome:
			q.income += t.Amount
		case domain.TypeExpense:
			q.expenses += t.Amount
		}
	}

	report := &QuarterlyTax{
		header:     newHeader(KindQuarterlyTax, req),
		Quarters:   []QuarterTax{},
		Disclaimer: "This is an estimate only. Consult with a tax professional for accurate tax calculations.",
	}
	report.TaxRates.SelfEmployment = g.settings.SelfEmploymentTaxRate
	report.TaxRates.EstimatedIncome = g.settings.EstimatedIncomeTaxRate

	for _, key := range sortedKeys(byQuarter) {
		q := byQuarter[key]
		netIncome := q.income - q.expenses
		selfEmploymentTax := netIncome * g.settings.SelfEmploymentTaxRate
		estimatedIncomeTax := netIncome * g.settings.EstimatedIncomeTaxRate
		report.Quarters = append(report.Quarters, QuarterTax{
			Quarter:            key,
			Income:             q.income,
			Expenses:           q.expenses,
			NetIncome:          netIncome,
			SelfEmploymentTax:  selfEmploymentTax,
			EstimatedIncomeTax: estimatedIncomeTax,
			TotalTaxDue:        selfEmploymentTax + estimatedIncomeTax,
		})

		report.AnnualSummary.TotalIncome += q.income
		report.AnnualSummary.TotalExpenses += q.expenses
		report.AnnualSummary.TotalNetIncome += netIncome
		report.AnnualSummary.TotalSelfEmploymentTax += selfEmploymentTax
		report.AnnualSummary.TotalEstimatedIncomeTax += estimatedIncomeTax
		report.AnnualSummary.TotalTaxDue += selfEmploymentTax + estimatedIncomeTax
	}
	return report, nil
}
