// Package store defines the repository interfaces the reporting core reads
// and writes through. The persistent engine behind them is deliberately
// out of scope; implementations only have to honor the upsert keys and
// filter semantics described here.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/pashoot/reports/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// TransactionFilter narrows List/Count queries. Nil fields match anything;
// From and To are inclusive date bounds.
type TransactionFilter struct {
	Type   *domain.TransactionType
	Source *domain.Source
	From   *time.Time
	To     *time.Time
}

// Matches reports whether a transaction satisfies the filter.
func (f TransactionFilter) Matches(t *domain.Transaction) bool {
	if f.Type != nil && t.Type != *f.Type {
		return false
	}
	if f.Source != nil && t.Source != *f.Source {
		return false
	}
	if f.From != nil && t.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && t.Date.After(*f.To) {
		return false
	}
	return true
}

// TransactionStore persists canonical transactions. Upsert is keyed on
// (UserID, Source, ExternalID): inserting assigns an ID, updating preserves
// the existing one, and re-running the same upsert is a no-op in effect.
// Transactions are never deleted by the core.
type TransactionStore interface {
	Upsert(ctx context.Context, tx *domain.Transaction) error
	List(ctx context.Context, userID string, filter TransactionFilter) ([]domain.Transaction, error)
	Count(ctx context.Context, userID string, filter TransactionFilter) (int, error)
}

// ConnectionStore persists per-source connections, at most one per
// (UserID, Source). Get returns ErrNotFound for a missing connection.
type ConnectionStore interface {
	Get(ctx context.Context, userID string, source domain.Source) (*domain.Connection, error)
	Save(ctx context.Context, conn *domain.Connection) error
	ListByUser(ctx context.Context, userID string) ([]domain.Connection, error)
}

// ReportStore persists report records and their lifecycle transitions.
type ReportStore interface {
	Create(ctx context.Context, report *domain.Report) error
	Update(ctx context.Context, report *domain.Report) error
	Get(ctx context.Context, id string) (*domain.Report, error)
}
