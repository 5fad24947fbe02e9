// Package memory provides in-memory implementations of the store
// interfaces. They are safe for concurrent use and return copies so callers
// cannot mutate stored state. Data is lost on restart; production deploys
// swap in a database-backed implementation of the same interfaces.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pashoot/reports/internal/domain"
	"github.com/pashoot/reports/internal/store"
)

type txKey struct {
	userID     string
	source     domain.Source
	externalID string
}

// TransactionStore is an in-memory store.TransactionStore.
type TransactionStore struct {
	mu  sync.RWMutex
	txs map[txKey]*domain.Transaction
}

// NewTransactionStore creates an empty in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{txs: make(map[txKey]*domain.Transaction)}
}

// Upsert inserts or replaces by (UserID, Source, ExternalID). The stored ID
// survives updates so the natural key stays the only identity that matters.
func (s *TransactionStore) Upsert(ctx context.Context, tx *domain.Transaction) error {
	if tx.UserID == "" || tx.Source == "" || tx.ExternalID == "" {
		return fmt.Errorf("upsert transaction: user ID, source and external ID are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := txKey{tx.UserID, tx.Source, tx.ExternalID}
	cp := *tx
	if existing, ok := s.txs[key]; ok {
		cp.ID = existing.ID
	} else if cp.ID == "" {
		cp.ID = uuid.New().String()
	}
	tx.ID = cp.ID
	s.txs[key] = &cp
	return nil
}

// List returns the user's transactions matching the filter, sorted by date
// ascending.
func (s *TransactionStore) List(ctx context.Context, userID string, filter store.TransactionFilter) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Transaction
	for key, tx := range s.txs {
		if key.userID != userID {
			continue
		}
		if !filter.Matches(tx) {
			continue
		}
		out = append(out, *tx)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ExternalID < out[j].ExternalID
	})
	return out, nil
}

// Count returns the number of matching transactions for the user.
func (s *TransactionStore) Count(ctx context.Context, userID string, filter store.TransactionFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for key, tx := range s.txs {
		if key.userID == userID && filter.Matches(tx) {
			n++
		}
	}
	return n, nil
}

type connKey struct {
	userID string
	source domain.Source
}

// ConnectionStore is an in-memory store.ConnectionStore.
type ConnectionStore struct {
	mu    sync.RWMutex
	conns map[connKey]*domain.Connection
}

// NewConnectionStore creates an empty in-memory connection store.
func NewConnectionStore() *ConnectionStore {
	return &ConnectionStore{conns: make(map[connKey]*domain.Connection)}
}

// Get returns the connection for (userID, source), or store.ErrNotFound.
func (s *ConnectionStore) Get(ctx context.Context, userID string, source domain.Source) (*domain.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conn, ok := s.conns[connKey{userID, source}]
	if !ok {
		return nil, fmt.Errorf("connection %s/%s: %w", userID, source, store.ErrNotFound)
	}
	cp := *conn
	return &cp, nil
}

// Save upserts by (UserID, Source); last write wins.
func (s *ConnectionStore) Save(ctx context.Context, conn *domain.Connection) error {
	if conn.UserID == "" || conn.Source == "" {
		return fmt.Errorf("save connection: user ID and source are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := connKey{conn.UserID, conn.Source}
	cp := *conn
	if existing, ok := s.conns[key]; ok {
		cp.ID = existing.ID
		cp.CreatedAt = existing.CreatedAt
	} else {
		if cp.ID == "" {
			cp.ID = uuid.New().String()
		}
		if cp.CreatedAt.IsZero() {
			cp.CreatedAt = time.Now().UTC()
		}
	}
	conn.ID = cp.ID
	conn.CreatedAt = cp.CreatedAt
	s.conns[key] = &cp
	return nil
}

// ListByUser returns the user's connections sorted by source.
func (s *ConnectionStore) ListByUser(ctx context.Context, userID string) ([]domain.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Connection
	for key, conn := range s.conns {
		if key.userID == userID {
			out = append(out, *conn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out, nil
}

// ReportStore is an in-memory store.ReportStore.
type ReportStore struct {
	mu      sync.RWMutex
	reports map[string]*domain.Report
}

// NewReportStore creates an empty in-memory report store.
func NewReportStore() *ReportStore {
	return &ReportStore{reports: make(map[string]*domain.Report)}
}

// Create stores a new report, assigning an ID when absent.
func (s *ReportStore) Create(ctx context.Context, report *domain.Report) error {
	if report.UserID == "" || report.Kind == "" {
		return fmt.Errorf("create report: user ID and report type are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	cp := *report
	s.reports[report.ID] = &cp
	return nil
}

// Update replaces an existing report record.
func (s *ReportStore) Update(ctx context.Context, report *domain.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[report.ID]; !ok {
		return fmt.Errorf("report %s: %w", report.ID, store.ErrNotFound)
	}
	cp := *report
	s.reports[report.ID] = &cp
	return nil
}

// Get returns a report by ID, or store.ErrNotFound.
func (s *ReportStore) Get(ctx context.Context, id string) (*domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[id]
	if !ok {
		return nil, fmt.Errorf("report %s: %w", id, store.ErrNotFound)
	}
	cp := *report
	return &cp, nil
}
