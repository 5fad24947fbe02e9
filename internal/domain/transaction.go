package domain

import (
	"strings"
	"time"
)

// Source identifies the connector a transaction came from.
type Source string

const (
	SourceWave     Source = "wave"
	SourceStripe   Source = "stripe"
	SourceSquare   Source = "square"
	SourceXero     Source = "xero"
	SourceGusto    Source = "gusto"
	SourceAirtable Source = "airtable"
	SourceNotion   Source = "notion"
	SourceManual   Source = "manual"
)

// TransactionType classifies cash-flow direction. Transfer is used for
// refunded/reversed amounts that must not count as net income or expense.
type TransactionType string

const (
	TypeIncome   TransactionType = "income"
	TypeExpense  TransactionType = "expense"
	TypeTransfer TransactionType = "transfer"
)

// UncategorizedLabel is the category reported for transactions without one.
// Report generators must treat a missing category as this label, never skip.
const UncategorizedLabel = "Uncategorized"

// Transaction is the canonical record every connector writes and every
// report reads. Amount is a non-negative magnitude; direction lives in Type.
// The triple (UserID, Source, ExternalID) is the idempotent upsert key.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Source      Source          `json:"source"`
	ExternalID  string          `json:"externalId"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      float64         `json:"amount"`
	Type        TransactionType `json:"type"`
	Category    string          `json:"category,omitempty"`
	Metadata    Metadata        `json:"metadata"`
}

// CategoryOrDefault returns the category, or UncategorizedLabel when unset.
func (t *Transaction) CategoryOrDefault() string {
	if t.Category == "" {
		return UncategorizedLabel
	}
	return t.Category
}

// Metadata carries the cross-cutting fields report generators probe
// (customer/vendor hints, tax flags, processor fees) as typed members, and
// keeps the raw source-specific payload in Extra. Source schemas for
// Airtable and Notion are user-defined, so Extra stays open-ended; the
// probed fields do not.
type Metadata struct {
	Currency      string         `json:"currency,omitempty"`
	Customer      string         `json:"customer,omitempty"`
	Vendor        string         `json:"vendor,omitempty"`
	TaxRate       *float64       `json:"taxRate,omitempty"`
	TaxExempt     bool           `json:"taxExempt,omitempty"`
	ExemptReason  string         `json:"exemptReason,omitempty"`
	NonDeductible bool           `json:"nonDeductible,omitempty"`
	Fee           *float64       `json:"fee,omitempty"`
	IsRefund      bool           `json:"isRefund,omitempty"`
	Extra         map[string]any `json:"extra,omitempty"`
}

// Counterparty returns the customer or vendor identity for a transaction:
// the metadata hint when present, otherwise the description substring before
// " - ", otherwise the provided fallback. There is no canonical
// customer/vendor entity; this heuristic stands in for one.
func (t *Transaction) Counterparty(fallback string) string {
	if t.Type == TypeIncome && t.Metadata.Customer != "" {
		return t.Metadata.Customer
	}
	if t.Type != TypeIncome && t.Metadata.Vendor != "" {
		return t.Metadata.Vendor
	}
	if i := strings.Index(t.Description, " - "); i > 0 {
		return t.Description[:i]
	}
	if t.Description != "" {
		return t.Description
	}
	return fallback
}
