package connect

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pashoot/reports/internal/domain"
	"github.com/pashoot/reports/internal/store"
)

const defaultGustoBaseURL = "https://api.gusto.com/v1"

// GustoConnector syncs payroll runs for the first company the token can
// see. Each run yields up to three expense transactions: wages, employer
// taxes and benefits.
type GustoConnector struct {
	Connections  store.ConnectionStore
	Transactions store.TransactionStore
	BaseURL      string
	HTTPClient   *http.Client
}

func (c *GustoConnector) Source() domain.Source { return domain.SourceGusto }

type gustoPayroll struct {
	ID        string `json:"payroll_uuid"`
	CheckDate string `json:"check_date"`
	Totals    struct {
		GrossPay      string `json:"gross_pay"`
		EmployerTaxes string `json:"employer_taxes"`
		Benefits      string `json:"benefits"`
	} `json:"totals"`
}

func (c *GustoConnector) Sync(ctx context.Context, userID string) (*SyncResult, error) {
	conn, err := loadConnection(ctx, c.Connections, userID, domain.SourceGusto)
	if err != nil {
		return nil, err
	}

	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = defaultGustoBaseURL
	}

	var companies []struct {
		UUID string `json:"uuid"`
	}
	if err := getJSON(ctx, c.HTTPClient, baseURL+"/companies", conn.AccessToken, nil, &companies); err != nil {
		return nil, fmt.Errorf("fetch gusto companies: %w", err)
	}
	if len(companies) == 0 {
		return nil, fmt.Errorf("no companies found")
	}
	companyID := companies[0].UUID

	var payrolls []gustoPayroll
	if err := getJSON(ctx, c.HTTPClient, baseURL+"/companies/"+companyID+"/payrolls", conn.AccessToken, nil, &payrolls); err != nil {
		return nil, fmt.Errorf("fetch gusto payrolls: %w", err)
	}
	if len(payrolls) > 50 {
		payrolls = payrolls[:50]
	}

	synced := 0
	for _, p := range payrolls {
		for _, tx := range mapGustoPayroll(userID, p) {
			if err := c.Transactions.Upsert(ctx, tx); err != nil {
				return nil, fmt.Errorf("upsert gusto payroll %s: %w", p.ID, err)
			}
			synced++
		}
	}

	// Contractors are optional scope on some tokens, so a failure here
	// never fails the sync.
	var contractors []struct {
		UUID string `json:"uuid"`
	}
	if err := getJSON(ctx, c.HTTPClient, baseURL+"/companies/"+companyID+"/contractors", conn.AccessToken, nil, &contractors); err == nil {
		synced += len(contractors)
	}

	return &SyncResult{
		Source:  domain.SourceGusto,
		Synced:  synced,
		Message: fmt.Sprintf("Synced %d payroll records from Gusto", synced),
	}, nil
}

func mapGustoPayroll(userID string, p gustoPayroll) []*domain.Transaction {
	date, err := time.Parse("2006-01-02", p.CheckDate)
	if err != nil {
		date = time.Time{}
	}

	var txns []*domain.Transaction
	add := func(externalID, description, category string, amount float64) {
		txns = append(txns, &domain.Transaction{
			UserID:      userID,
			Source:      domain.SourceGusto,
			ExternalID:  externalID,
			Date:        date.UTC(),
			Description: description,
			Amount:      amount,
			Type:        domain.TypeExpense,
			Category:    category,
			Metadata: domain.Metadata{
				Extra: map[string]any{"payrollId": p.ID, "checkDate": p.CheckDate},
			},
		})
	}

	if gross, err := parseMoney(p.Totals.GrossPay); err == nil {
		add("payroll-"+p.ID, "Payroll - "+p.CheckDate, "payroll_wages", gross)
	}
	if taxes, err := parseMoney(p.Totals.EmployerTaxes); err == nil && taxes > 0 {
		add("payroll-tax-"+p.ID, "Payroll Taxes - "+p.CheckDate, "payroll_taxes", taxes)
	}
	if benefits, err := parseMoney(p.Totals.Benefits); err == nil && benefits > 0 {
		add("payroll-benefits-"+p.ID, "Employee Benefits - "+p.CheckDate, "employee_benefits", benefits)
	}
	return txns
}
