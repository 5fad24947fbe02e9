package reports

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pashoot/reports/internal/domain"
)

type CategoryAmount struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

type IncomeStatementSection struct {
	Categories []CategoryAmount `json:"categories"`
	Total      float64          `json:"total"`
}

type IncomeStatement struct {
	header
	Revenue      IncomeStatementSection `json:"revenue"`
	Expenses     IncomeStatementSection `json:"expenses"`
	NetIncome    float64                `json:"netIncome"`
	ProfitMargin float64                `json:"profitMargin"`
}

func (g *Generator) incomeStatement(ctx context.Context, req Request) (any, error) {
	transactions, err := g.inRange(ctx, req, "")
	if err != nil {
		return nil, err
	}

	revenue := sumByCategory(transactions, domain.TypeIncome)
	expenses := sumByCategory(transactions, domain.TypeExpense)
	netIncome := revenue.Total - expenses.Total

	return &IncomeStatement{
		header:       newHeader(KindIncomeStatement, req),
		Revenue:      revenue,
		Expenses:     expenses,
		NetIncome:    netIncome,
		ProfitMargin: pct(netIncome, revenue.Total),
	}, nil
}

func sumByCategory(transactions []domain.Transaction, txType domain.TransactionType) IncomeStatementSection {
	byCategory := map[string]float64{}
	total := 0.0
	for _, t := range transactions {
		if t.Type != txType {
			continue
		}
		byCategory[t.CategoryOrDefault()] += t.Amount
		total += t.Amount
	}

	section := IncomeStatementSection{Categories: []CategoryAmount{}, Total: total}
	for _, category := range sortedKeys(byCategory) {
		section.Categories = append(section.Categories, CategoryAmount{Category: category, Amount: byCategory[category]})
	}
	sort.SliceStable(section.Categories, func(i, j int) bool {
		return section.Categories[i].Amount > section.Categories[j].Amount
	})
	return section
}

type BalanceSheet struct {
	header
	AsOfDate time.Time `json:"asOfDate"`
	Assets   struct {
		CurrentAssets struct {
			Cash               float64 `json:"cash"`
			AccountsReceivable float64 `json:"accountsReceivable"`
		} `json:"currentAssets"`
		Total float64 `json:"total"`
	} `json:"assets"`
	Liabilities struct {
		CurrentLiabilities struct {
			AccountsPayable float64 `json:"accountsPayable"`
			AccruedExpenses float64 `json:"accruedExpenses"`
		} `json:"currentLiabilities"`
		Total float64 `json:"total"`
	} `json:"liabilities"`
	Equity struct {
		RetainedEarnings float64 `json:"retainedEarnings"`
		Total            float64 `json:"total"`
	} `json:"equity"`
	TotalAssets               float64 `json:"totalAssets"`
	TotalLiabilitiesAndEquity float64 `json:"totalLiabilitiesAndEquity"`
	Balanced                  bool    `json:"balanced"`
}

// balanceSheet is computed on a pure cash basis: cash is cumulative income
// minus cumulative expenses, and the AR/AP lines are zeroed placeholders
// until invoice tracking exists.
func (g *Generator) balanceSheet(ctx context.Context, req Request) (any, error) {
	transactions, err := g.asOf(ctx, req, "")
	if err != nil {
		return nil, err
	}

	var cash, totalRevenue, totalExpenses float64
	for _, t := range transactions {
		switch t.Type {
		case domain.TypeIncome:
			cash += t.Amount
			totalRevenue += t.Amount
		case domain.TypeExpense:
			cash -= t.Amount
			totalExpenses += t.Amount
		}
	}

	sheet := &BalanceSheet{AsOfDate: req.EndDate}
	sheet.header, _ = asOfHeader(KindBalanceSheet, req)
	sheet.Assets.CurrentAssets.Cash = cash
	sheet.Assets.Total = cash
	sheet.Equity.RetainedEarnings = totalRevenue - totalExpenses
	sheet.Equity.Total = totalRevenue - totalExpenses
	sheet.TotalAssets = sheet.Assets.Total
	sheet.TotalLiabilitiesAndEquity = sheet.Liabilities.Total + sheet.Equity.Total
	sheet.Balanced = math.Abs(sheet.TotalAssets-sheet.TotalLiabilitiesAndEquity) < 0.01
	return sheet, nil
}

type CashFlow struct {
	header
	Operating struct {
		Inflows  float64 `json:"inflows"`
		Outflows float64 `json:"outflows"`
		Net      float64 `json:"net"`
	} `json:"operating"`
	Investing struct {
		Outflows float64 `json:"outflows"`
		Net      float64 `json:"net"`
	} `json:"investing"`
	Financing struct {
		Inflows  float64 `json:"inflows"`
		Outflows float64 `json:"outflows"`
		Net      float64 `json:"net"`
	} `json:"financing"`
	NetCashChange float64 `json:"netCashChange"`
}

func (g *Generator) cashFlow(ctx context.Context, req Request) (any, error) {
	transactions, err := g.inRange(ctx, req, "")
	if err != nil {
		return nil, err
	}

	flow := &CashFlow{header: newHeader(KindCashFlow, req)}
	for _, t := range transactions {
		category := strings.ToLower(t.Category)
		capital := strings.Contains(category, "equipment") || strings.Contains(category, "asset")
		financing := strings.Contains(category, "loan") || strings.Contains(category, "investment")

		switch t.Type {
		case domain.TypeIncome:
			flow.Operating.Inflows += t.Amount
		case domain.TypeExpense:
			if !strings.Contains(category, "equipment") && !financing {
				flow.Operating.Outflows += t.Amount
			}
			if capital {
				flow.Investing.Outflows += t.Amount
			}
		}

		if financing {
			if t.Type == domain.TypeIncome {
				flow.Financing.Inflows += t.Amount
			} else {
				flow.Financing.Outflows += t.Amount
			}
		}
	}

	flow.Operating.Net = flow.Operating.Inflows - flow.Operating.Outflows
	flow.Investing.Net = -flow.Investing.Outflows
	flow.Financing.Net = flow.Financing.Inflows - flow.Financing.Outflows
	flow.NetCashChange = flow.Operating.Net + flow.Investing.Net + flow.Financing.Net
	return flow, nil
}

type TrialBalanceAccount struct {
	Account string  `json:"account"`
	Debits  float64 `json:"debits"`
	Credits float64 `json:"credits"`
	Balance float64 `json:"balance"`
}

type TrialBalance struct {
	header
	AsOfDate     time.Time             `json:"asOfDate"`
	Accounts     []TrialBalanceAccount `json:"accounts"`
	TotalDebits  float64               `json:"totalDebits"`
	TotalCredits float64               `json:"totalCredits"`
	Difference   float64               `json:"difference"`
	Balanced     bool                  `json:"balanced"`
}

// trialBalance models income transactions as credits and expenses as debits,
// grouped by category as the account name.
func (g *Generator) trialBalance(ctx context.Context, req Request) (any, error) {
	transactions, err := g.asOf(ctx, req, "")
	if err != nil {
		return nil, err
	}

	type totals struct{ debits, credits, balance float64 }
	accounts := map[string]*totals{}
	for _, t := range transactions {
		category := t.CategoryOrDefault()
		acct := accounts[category]
		if acct == nil {
			acct = &totals{}
			accounts[category] = acct
		}
		switch t.Type {
		case domain.TypeIncome:
			acct.credits += t.Amount
			acct.balance -= t.Amount
		case domain.TypeExpense:
			acct.debits += t.Amount
			acct.balance += t.Amount
		}
	}

	balance := &TrialBalance{AsOfDate: req.EndDate, Accounts: []TrialBalanceAccount{}}
	balance.header, _ = asOfHeader(KindTrialBalance, req)
	for _, name := range sortedKeys(accounts) {
		acct := accounts[name]
		balance.Accounts = append(balance.Accounts, TrialBalanceAccount{
			Account: name,
			Debits:  acct.debits,
			Credits: acct.credits,
			Balance: acct.balance,
		})
		balance.TotalDebits += acct.debits
		balance.TotalCredits += acct.credits
	}
	balance.Difference = balance.TotalDebits - balance.TotalCredits
	balance.Balanced = math.Abs(balance.Difference) < 0.01
	return balance, nil
}
