package connect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pashoot/reports/internal/domain"
)

func newXeroServer(t *testing.T, tenants string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/connections":
			w.Write([]byte(tenants))
		case "/BankTransactions":
			if r.Header.Get("xero-tenant-id") != "tenant1" {
				http.Error(w, "missing tenant header", http.StatusForbidden)
				return
			}
			w.Write([]byte(`{
				"BankTransactions": [
					{"BankTransactionID": "bt1", "Type": "RECEIVE", "Total": 1200.50, "DateString": "2024-05-01T00:00:00", "LineItems": [{"Description": "Client retainer", "AccountCode": "200"}]},
					{"BankTransactionID": "bt2", "Type": "SPEND", "Total": 85.00, "DateString": "2024-05-02T00:00:00", "Reference": "Stationery"}
				]
			}`))
		case "/Invoices":
			w.Write([]byte(`{
				"Invoices": [
					{"InvoiceID": "inv1", "Type": "ACCREC", "Status": "PAID", "Total": 3000, "DateString": "2024-05-03T00:00:00", "Reference": "INV-001", "Contact": {"Name": "Acme"}},
					{"InvoiceID": "inv2", "Type": "ACCPAY", "Status": "PAID", "Total": 450, "DateString": "2024-05-04T00:00:00", "Reference": "BILL-7", "Contact": {"Name": "Supplies Ltd"}},
					{"InvoiceID": "inv3", "Type": "ACCREC", "Status": "DRAFT", "Total": 999, "DateString": "2024-05-05T00:00:00", "Reference": "INV-002", "Contact": {"Name": "Acme"}}
				]
			}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestXeroConnector_Sync(t *testing.T) {
	srv := newXeroServer(t, `[{"tenantId": "tenant1"}]`)
	defer srv.Close()

	txs, conns := newTestStores()
	seedConnection(t, conns, domain.SourceXero, "xero-token", nil)

	c := &XeroConnector{
		Connections:    conns,
		Transactions:   txs,
		BaseURL:        srv.URL,
		ConnectionsURL: srv.URL + "/connections",
	}
	result, err := c.Sync(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	// 2 bank transactions + 2 paid invoices; the draft invoice is skipped.
	if result.Synced != 4 {
		t.Errorf("expected 4 synced, got %d", result.Synced)
	}

	byID := map[string]domain.Transaction{}
	for _, tx := range listAll(t, txs) {
		byID[tx.ExternalID] = tx
	}

	if tx := byID["bt1"]; tx.Type != domain.TypeIncome || tx.Amount != 1200.5 || tx.Category != "200" {
		t.Errorf("bt1: got %s %v %q", tx.Type, tx.Amount, tx.Category)
	}
	if tx := byID["bt2"]; tx.Type != domain.TypeExpense || tx.Description != "Stationery" || tx.Category != "xero_bank" {
		t.Errorf("bt2: got %s %q %q", tx.Type, tx.Description, tx.Category)
	}
	if tx := byID["inv1"]; tx.Type != domain.TypeIncome || tx.Category != "invoice_revenue" || tx.Description != "Invoice: Acme - INV-001" {
		t.Errorf("inv1: got %s %q %q", tx.Type, tx.Category, tx.Description)
	}
	if tx := byID["inv2"]; tx.Type != domain.TypeExpense || tx.Category != "invoice_expense" {
		t.Errorf("inv2: got %s %q", tx.Type, tx.Category)
	}
	if _, ok := byID["inv3"]; ok {
		t.Error("draft invoice should not be synced")
	}
}

func TestXeroConnector_Sync_NoTenants(t *testing.T) {
	srv := newXeroServer(t, `[]`)
	defer srv.Close()

	txs, conns := newTestStores()
	seedConnection(t, conns, domain.SourceXero, "xero-token", nil)

	c := &XeroConnector{
		Connections:    conns,
		Transactions:   txs,
		BaseURL:        srv.URL,
		ConnectionsURL: srv.URL + "/connections",
	}
	_, err := c.Sync(context.Background(), testUserID)
	if err == nil || !strings.Contains(err.Error(), "no Xero tenants found") {
		t.Errorf("expected no-tenants error, got %v", err)
	}
}

func TestParseXeroDate(t *testing.T) {
	got := parseXeroDate("2024-03-01T00:00:00")
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("parseXeroDate = %v, want %v", got, want)
	}
	if !parseXeroDate("garbage").IsZero() {
		t.Error("expected zero time for unparseable date")
	}
}
