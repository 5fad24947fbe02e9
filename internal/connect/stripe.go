package connect

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"

	"github.com/pashoot/reports/internal/domain"
	"github.com/pashoot/reports/internal/store"
)

// StripeClient is the slice of the Stripe API the connector needs.
type StripeClient interface {
	Charges(ctx context.Context) ([]*stripe.Charge, error)
	BalanceTransactions(ctx context.Context) ([]*stripe.BalanceTransaction, error)
}

type stripeSDKClient struct {
	api *client.API
}

func (c *stripeSDKClient) Charges(ctx context.Context) ([]*stripe.Charge, error) {
	params := &stripe.ChargeListParams{}
	params.Context = ctx
	params.Limit = stripe.Int64(100)

	var charges []*stripe.Charge
	iter := c.api.Charges.List(params)
	for iter.Next() {
		charges = append(charges, iter.Charge())
	}
	return charges, iter.Err()
}

func (c *stripeSDKClient) BalanceTransactions(ctx context.Context) ([]*stripe.BalanceTransaction, error) {
	params := &stripe.BalanceTransactionListParams{}
	params.Context = ctx
	params.Limit = stripe.Int64(100)

	var txns []*stripe.BalanceTransaction
	iter := c.api.BalanceTransactions.List(params)
	for iter.Next() {
		txns = append(txns, iter.BalanceTransaction())
	}
	return txns, iter.Err()
}

// StripeConnector syncs charges and balance transactions. Charges become
// income (or transfers when refunded); balance transactions cover fees,
// payouts and refunds that charges alone would miss.
type StripeConnector struct {
	Connections  store.ConnectionStore
	Transactions store.TransactionStore
	// NewClient builds the API client for an access token. Defaults to
	// the official SDK; tests inject a fake.
	NewClient func(token string) StripeClient
}

func (c *StripeConnector) Source() domain.Source { return domain.SourceStripe }

func (c *StripeConnector) Sync(ctx context.Context, userID string) (*SyncResult, error) {
	conn, err := loadConnection(ctx, c.Connections, userID, domain.SourceStripe)
	if err != nil {
		return nil, err
	}

	newClient := c.NewClient
	if newClient == nil {
		newClient = func(token string) StripeClient {
			api := &client.API{}
			api.Init(token, nil)
			return &stripeSDKClient{api: api}
		}
	}
	sc := newClient(conn.AccessToken)

	synced := 0

	charges, err := sc.Charges(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stripe charges: %w", err)
	}
	for _, ch := range charges {
		if err := c.Transactions.Upsert(ctx, mapStripeCharge(userID, ch)); err != nil {
			return nil, fmt.Errorf("upsert stripe charge %s: %w", ch.ID, err)
		}
		synced++
	}

	balanceTxns, err := sc.BalanceTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stripe balance transactions: %w", err)
	}
	for _, bt := range balanceTxns {
		// Charges are already covered above with richer detail.
		if bt.Type == stripe.BalanceTransactionTypeCharge {
			continue
		}
		if err := c.Transactions.Upsert(ctx, mapStripeBalanceTransaction(userID, bt)); err != nil {
			return nil, fmt.Errorf("upsert stripe balance transaction %s: %w", bt.ID, err)
		}
		synced++
	}

	return &SyncResult{
		Source:  domain.SourceStripe,
		Synced:  synced,
		Message: fmt.Sprintf("Synced %d transactions from Stripe", synced),
	}, nil
}

func mapStripeCharge(userID string, ch *stripe.Charge) *domain.Transaction {
	txType := domain.TypeIncome
	if ch.Refunded {
		txType = domain.TypeTransfer
	}

	description := ch.Description
	if description == "" {
		name := "customer"
		if ch.BillingDetails != nil && ch.BillingDetails.Name != "" {
			name = ch.BillingDetails.Name
		}
		description = "Charge from " + name
	}

	meta := domain.Metadata{
		Currency: string(ch.Currency),
		Extra:    map[string]any{"status": string(ch.Status)},
	}
	if ch.Customer != nil {
		meta.Extra["customerId"] = ch.Customer.ID
	}
	if ch.PaymentMethodDetails != nil {
		meta.Extra["paymentMethod"] = string(ch.PaymentMethodDetails.Type)
	}

	return &domain.Transaction{
		UserID:      userID,
		Source:      domain.SourceStripe,
		ExternalID:  ch.ID,
		Date:        time.Unix(ch.Created, 0).UTC(),
		Description: description,
		Amount:      centsToUnits(ch.Amount),
		Type:        txType,
		Category:    "stripe_payment",
		Metadata:    meta,
	}
}

func mapStripeBalanceTransaction(userID string, bt *stripe.BalanceTransaction) *domain.Transaction {
	btType := string(bt.Type)

	description := bt.Description
	if description == "" {
		description = "Stripe transaction"
	}
	description = btType + ": " + description

	txType := domain.TypeIncome
	if strings.Contains(btType, "refund") || strings.Contains(btType, "fee") {
		txType = domain.TypeExpense
	}

	amount := centsToUnits(bt.Amount)
	if amount < 0 {
		amount = -amount
	}

	fee := centsToUnits(bt.Fee)
	return &domain.Transaction{
		UserID:      userID,
		Source:      domain.SourceStripe,
		ExternalID:  bt.ID,
		Date:        time.Unix(bt.Created, 0).UTC(),
		Description: description,
		Amount:      amount,
		Type:        txType,
		Category:    "stripe_" + btType,
		Metadata: domain.Metadata{
			Fee:   &fee,
			Extra: map[string]any{"net": centsToUnits(bt.Net)},
		},
	}
}
