package connect

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pashoot/reports/internal/domain"
)

func newSquareServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/payments":
			w.Write([]byte(`{
				"payments": [
					{"id": "pay1", "created_at": "2024-04-01T12:00:00Z", "amount_money": {"amount": 2500, "currency": "USD"}, "note": "Latte and croissant", "status": "COMPLETED"},
					{"id": "pay2", "created_at": "2024-04-02T09:00:00Z", "amount_money": {"amount": 1800, "currency": "USD"}, "receipt_number": "R-42", "status": "COMPLETED"}
				]
			}`))
		case "/orders/search":
			if r.Method != http.MethodPost {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			w.Write([]byte(`{
				"orders": [
					{"id": "ord1", "created_at": "2024-04-03T15:00:00Z", "state": "COMPLETED", "total_money": {"amount": 4200, "currency": "USD"}, "line_items": [{"name": "Sandwich"}, {"name": "Soda"}]},
					{"id": "ord2", "created_at": "2024-04-04T15:00:00Z", "state": "OPEN", "total_money": {"amount": 900, "currency": "USD"}}
				]
			}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestSquareConnector_Sync(t *testing.T) {
	srv := newSquareServer(t)
	defer srv.Close()

	txs, conns := newTestStores()
	seedConnection(t, conns, domain.SourceSquare, "sq-token", map[string]string{"merchantId": "loc1"})

	c := &SquareConnector{Connections: conns, Transactions: txs, BaseURL: srv.URL}
	result, err := c.Sync(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	// 2 payments + 1 completed order; the open order is skipped.
	if result.Synced != 3 {
		t.Errorf("expected 3 synced, got %d", result.Synced)
	}

	byID := map[string]domain.Transaction{}
	for _, tx := range listAll(t, txs) {
		byID[tx.ExternalID] = tx
		if tx.Type != domain.TypeIncome {
			t.Errorf("%s: expected income, got %s", tx.ExternalID, tx.Type)
		}
	}

	if tx := byID["pay1"]; tx.Amount != 25 || tx.Description != "Latte and croissant" {
		t.Errorf("pay1: got %v %q", tx.Amount, tx.Description)
	}
	if tx := byID["pay2"]; tx.Description != "Square Payment - R-42" {
		t.Errorf("pay2: got description %q", tx.Description)
	}
	if tx := byID["ord1"]; tx.Amount != 42 || tx.Description != "Order: Sandwich, Soda" || tx.Category != "square_order" {
		t.Errorf("ord1: got %v %q %q", tx.Amount, tx.Description, tx.Category)
	}
	if _, ok := byID["ord2"]; ok {
		t.Error("open order should not be synced")
	}
}

func TestSquareConnector_Sync_MissingMerchantID(t *testing.T) {
	txs, conns := newTestStores()
	seedConnection(t, conns, domain.SourceSquare, "sq-token", nil)

	c := &SquareConnector{Connections: conns, Transactions: txs}
	_, err := c.Sync(context.Background(), testUserID)
	if !errors.Is(err, ErrMissingConfig) {
		t.Errorf("expected ErrMissingConfig, got %v", err)
	}
}
