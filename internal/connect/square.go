package connect

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/pashoot/reports/internal/domain"
	"github.com/pashoot/reports/internal/store"
)

const defaultSquareBaseURL = "https://connect.squareup.com/v2"

// SquareConnector syncs payments and completed orders.
type SquareConnector struct {
	Connections  store.ConnectionStore
	Transactions store.TransactionStore
	BaseURL      string
	HTTPClient   *http.Client
}

func (c *SquareConnector) Source() domain.Source { return domain.SourceSquare }

type squareMoney struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type squarePayment struct {
	ID            string      `json:"id"`
	CreatedAt     time.Time   `json:"created_at"`
	AmountMoney   squareMoney `json:"amount_money"`
	Note          string      `json:"note"`
	ReceiptNumber string      `json:"receipt_number"`
	Status        string      `json:"status"`
	SourceType    string      `json:"source_type"`
}

type squareOrder struct {
	ID         string      `json:"id"`
	CreatedAt  time.Time   `json:"created_at"`
	State      string      `json:"state"`
	TotalMoney squareMoney `json:"total_money"`
	LineItems  []struct {
		Name string `json:"name"`
	} `json:"line_items"`
}

func (c *SquareConnector) Sync(ctx context.Context, userID string) (*SyncResult, error) {
	conn, err := loadConnection(ctx, c.Connections, userID, domain.SourceSquare)
	if err != nil {
		return nil, err
	}

	merchantID := conn.Meta("merchantId")
	if merchantID == "" {
		return nil, fmt.Errorf("square merchant ID not found, please reconnect: %w", ErrMissingConfig)
	}

	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = defaultSquareBaseURL
	}

	synced := 0

	var paymentsResp struct {
		Payments []squarePayment `json:"payments"`
	}
	if err := getJSON(ctx, c.HTTPClient, baseURL+"/payments?limit=100", conn.AccessToken, nil, &paymentsResp); err != nil {
		return nil, fmt.Errorf("fetch square payments: %w", err)
	}
	payments := paymentsResp.Payments
	if len(payments) > 100 {
		payments = payments[:100]
	}
	for _, p := range payments {
		if err := c.Transactions.Upsert(ctx, mapSquarePayment(userID, p)); err != nil {
			return nil, fmt.Errorf("upsert square payment %s: %w", p.ID, err)
		}
		synced++
	}

	searchBody := map[string]any{
		"location_ids": []string{merchantID},
		"limit":        100,
		"query": map[string]any{
			"filter": map[string]any{
				"state_filter": map[string]any{"states": []string{"COMPLETED"}},
			},
			"sort": map[string]any{"sort_field": "CREATED_AT", "sort_order": "DESC"},
		},
	}
	var ordersResp struct {
		Orders []squareOrder `json:"orders"`
	}
	if err := postJSON(ctx, c.HTTPClient, baseURL+"/orders/search", conn.AccessToken, nil, searchBody, &ordersResp); err != nil {
		return nil, fmt.Errorf("search square orders: %w", err)
	}
	for _, o := range ordersResp.Orders {
		if o.State != "COMPLETED" {
			continue
		}
		if err := c.Transactions.Upsert(ctx, mapSquareOrder(userID, o)); err != nil {
			return nil, fmt.Errorf("upsert square order %s: %w", o.ID, err)
		}
		synced++
	}

	return &SyncResult{
		Source:  domain.SourceSquare,
		Synced:  synced,
		Message: fmt.Sprintf("Synced %d transactions from Square", synced),
	}, nil
}

func mapSquarePayment(userID string, p squarePayment) *domain.Transaction {
	description := p.Note
	if description == "" {
		ref := p.ReceiptNumber
		if ref == "" {
			ref = p.ID
		}
		description = "Square Payment - " + ref
	}

	return &domain.Transaction{
		UserID:      userID,
		Source:      domain.SourceSquare,
		ExternalID:  p.ID,
		Date:        p.CreatedAt.UTC(),
		Description: description,
		Amount:      math.Abs(centsToUnits(p.AmountMoney.Amount)),
		Type:        domain.TypeIncome,
		Category:    "square_payment",
		Metadata: domain.Metadata{
			Currency: p.AmountMoney.Currency,
			Extra: map[string]any{
				"status":     p.Status,
				"sourceType": p.SourceType,
			},
		},
	}
}

func mapSquareOrder(userID string, o squareOrder) *domain.Transaction {
	var names []string
	for _, item := range o.LineItems {
		if item.Name != "" {
			names = append(names, item.Name)
		}
	}
	description := "Order"
	if len(names) > 0 {
		description = "Order: " + strings.Join(names, ", ")
	}

	return &domain.Transaction{
		UserID:      userID,
		Source:      domain.SourceSquare,
		ExternalID:  o.ID,
		Date:        o.CreatedAt.UTC(),
		Description: description,
		Amount:      math.Abs(centsToUnits(o.TotalMoney.Amount)),
		Type:        domain.TypeIncome,
		Category:    "square_order",
		Metadata: domain.Metadata{
			Currency: o.TotalMoney.Currency,
			Extra:    map[string]any{"state": o.State},
		},
	}
}
