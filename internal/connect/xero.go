package connect

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/pashoot/reports/internal/domain"
	"github.com/pashoot/reports/internal/store"
)

const (
	defaultXeroBaseURL        = "https://api.xero.com/api.xro/2.0"
	defaultXeroConnectionsURL = "https://api.xero.com/connections"
)

// XeroConnector syncs bank transactions and paid invoices from the first
// tenant the token is authorized for.
type XeroConnector struct {
	Connections    store.ConnectionStore
	Transactions   store.TransactionStore
	BaseURL        string
	ConnectionsURL string
	HTTPClient     *http.Client
}

func (c *XeroConnector) Source() domain.Source { return domain.SourceXero }

type xeroBankTransaction struct {
	BankTransactionID string  `json:"BankTransactionID"`
	Type              string  `json:"Type"`
	Total             float64 `json:"Total"`
	DateString        string  `json:"DateString"`
	Reference         string  `json:"Reference"`
	LineItems         []struct {
		Description string `json:"Description"`
		AccountCode string `json:"AccountCode"`
	} `json:"LineItems"`
}

type xeroInvoice struct {
	InvoiceID  string  `json:"InvoiceID"`
	Type       string  `json:"Type"`
	Status     string  `json:"Status"`
	Total      float64 `json:"Total"`
	DateString string  `json:"DateString"`
	Reference  string  `json:"Reference"`
	Contact    struct {
		Name string `json:"Name"`
	} `json:"Contact"`
}

func (c *XeroConnector) Sync(ctx context.Context, userID string) (*SyncResult, error) {
	conn, err := loadConnection(ctx, c.Connections, userID, domain.SourceXero)
	if err != nil {
		return nil, err
	}

	connectionsURL := c.ConnectionsURL
	if connectionsURL == "" {
		connectionsURL = defaultXeroConnectionsURL
	}
	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = defaultXeroBaseURL
	}

	var tenants []struct {
		TenantID string `json:"tenantId"`
	}
	if err := getJSON(ctx, c.HTTPClient, connectionsURL, conn.AccessToken, nil, &tenants); err != nil {
		return nil, fmt.Errorf("fetch xero connections: %w", err)
	}
	if len(tenants) == 0 {
		return nil, fmt.Errorf("no Xero tenants found")
	}
	tenantHeader := map[string]string{"xero-tenant-id": tenants[0].TenantID}

	synced := 0

	var bankResp struct {
		BankTransactions []xeroBankTransaction `json:"BankTransactions"`
	}
	if err := getJSON(ctx, c.HTTPClient, baseURL+"/BankTransactions", conn.AccessToken, tenantHeader, &bankResp); err != nil {
		return nil, fmt.Errorf("fetch xero bank transactions: %w", err)
	}
	bankTxns := bankResp.BankTransactions
	if len(bankTxns) > 100 {
		bankTxns = bankTxns[:100]
	}
	for _, bt := range bankTxns {
		if err := c.Transactions.Upsert(ctx, mapXeroBankTransaction(userID, bt)); err != nil {
			return nil, fmt.Errorf("upsert xero bank transaction %s: %w", bt.BankTransactionID, err)
		}
		synced++
	}

	var invoiceResp struct {
		Invoices []xeroInvoice `json:"Invoices"`
	}
	if err := getJSON(ctx, c.HTTPClient, baseURL+"/Invoices", conn.AccessToken, tenantHeader, &invoiceResp); err != nil {
		return nil, fmt.Errorf("fetch xero invoices: %w", err)
	}
	invoices := invoiceResp.Invoices
	if len(invoices) > 100 {
		invoices = invoices[:100]
	}
	for _, inv := range invoices {
		if inv.Status != "PAID" {
			continue
		}
		if err := c.Transactions.Upsert(ctx, mapXeroInvoice(userID, inv)); err != nil {
			return nil, fmt.Errorf("upsert xero invoice %s: %w", inv.InvoiceID, err)
		}
		synced++
	}

	return &SyncResult{
		Source:  domain.SourceXero,
		Synced:  synced,
		Message: fmt.Sprintf("Synced %d transactions from Xero", synced),
	}, nil
}

func mapXeroBankTransaction(userID string, bt xeroBankTransaction) *domain.Transaction {
	description := "Bank transaction"
	category := "xero_bank"
	if len(bt.LineItems) > 0 {
		if bt.LineItems[0].Description != "" {
			description = bt.LineItems[0].Description
		} else if bt.Reference != "" {
			description = bt.Reference
		}
		if bt.LineItems[0].AccountCode != "" {
			category = bt.LineItems[0].AccountCode
		}
	} else if bt.Reference != "" {
		description = bt.Reference
	}

	txType := domain.TypeExpense
	if bt.Type == "RECEIVE" {
		txType = domain.TypeIncome
	}

	return &domain.Transaction{
		UserID:      userID,
		Source:      domain.SourceXero,
		ExternalID:  bt.BankTransactionID,
		Date:        parseXeroDate(bt.DateString),
		Description: description,
		Amount:      math.Abs(bt.Total),
		Type:        txType,
		Category:    category,
		Metadata: domain.Metadata{
			Extra: map[string]any{"xeroType": bt.Type},
		},
	}
}

func mapXeroInvoice(userID string, inv xeroInvoice) *domain.Transaction {
	txType := domain.TypeExpense
	category := "invoice_expense"
	if inv.Type == "ACCREC" {
		txType = domain.TypeIncome
		category = "invoice_revenue"
	}

	return &domain.Transaction{
		UserID:      userID,
		Source:      domain.SourceXero,
		ExternalID:  inv.InvoiceID,
		Date:        parseXeroDate(inv.DateString),
		Description: fmt.Sprintf("Invoice: %s - %s", inv.Contact.Name, inv.Reference),
		Amount:      math.Abs(inv.Total),
		Type:        txType,
		Category:    category,
		Metadata: domain.Metadata{
			Extra: map[string]any{"status": inv.Status, "invoiceType": inv.Type},
		},
	}
}

// Xero's DateString is ISO without a zone, e.g. "2024-03-01T00:00:00".
func parseXeroDate(s string) time.Time {
	layouts := append([]string{"2006-01-02T15:04:05"}, dateLayouts...)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
