// Package connect implements the per-source connectors that pull raw
// records from external accounting/payment/payroll APIs and normalize them
// into canonical transactions, plus the sync orchestration around them.
package connect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pashoot/reports/internal/domain"
	"github.com/pashoot/reports/internal/logger"
	"github.com/pashoot/reports/internal/store"
)

var (
	// ErrNotConnected indicates no connection exists for the source; the
	// user has to connect it before syncing.
	ErrNotConnected = errors.New("source not connected")

	// ErrMissingConfig indicates the connection exists but lacks required
	// metadata (base ID, merchant ID, ...); the user has to reconnect.
	ErrMissingConfig = errors.New("connection configuration missing")

	// ErrUnknownSource indicates no connector is registered for the source.
	ErrUnknownSource = errors.New("unknown source")
)

// SyncResult summarizes one connector pass. Skipped counts records dropped
// by the schema-less soft-skip policy, so partial extraction is observable
// instead of silent.
type SyncResult struct {
	Source  domain.Source `json:"source"`
	Synced  int           `json:"syncedCount"`
	Skipped int           `json:"skipped"`
	Message string        `json:"message"`
}

// Connector fetches records from one external source and upserts them as
// canonical transactions. Sync is safe to re-run: upserts are idempotent by
// (user, source, external ID), and a failure mid-pass leaves already
// upserted records committed.
type Connector interface {
	Source() domain.Source
	Sync(ctx context.Context, userID string) (*SyncResult, error)
}

// Service dispatches sync requests to registered connectors and maintains
// Connection.LastSyncAt.
type Service struct {
	connectors  map[domain.Source]Connector
	connections store.ConnectionStore
}

// NewService builds a sync service over the given connectors.
func NewService(connections store.ConnectionStore, connectors ...Connector) *Service {
	m := make(map[domain.Source]Connector, len(connectors))
	for _, c := range connectors {
		m[c.Source()] = c
	}
	return &Service{connectors: m, connections: connections}
}

// Sources returns the sources with a registered connector.
func (s *Service) Sources() []domain.Source {
	out := make([]domain.Source, 0, len(s.connectors))
	for src := range s.connectors {
		out = append(out, src)
	}
	return out
}

// Sync runs one connector pass for the user and records the sync time.
// Partial completion still counts as synced: whatever the connector upserted
// before an upstream failure stays committed, and LastSyncAt is not advanced
// only when the pass failed outright before reaching completion.
func (s *Service) Sync(ctx context.Context, userID string, source domain.Source) (*SyncResult, error) {
	log := logger.FromContext(ctx)

	connector, ok := s.connectors[source]
	if !ok {
		return nil, fmt.Errorf("sync %s: %w", source, ErrUnknownSource)
	}

	log.Info().Str("user_id", userID).Str("source", string(source)).Msg("Starting sync")

	result, err := connector.Sync(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("source", string(source)).Msg("Sync failed")
		return nil, err
	}

	if err := s.touchLastSync(ctx, userID, source); err != nil {
		log.Warn().Err(err).Str("source", string(source)).Msg("Failed to record sync time")
	}

	log.Info().
		Str("source", string(source)).
		Int("synced", result.Synced).
		Int("skipped", result.Skipped).
		Msg("Sync completed")
	return result, nil
}

func (s *Service) touchLastSync(ctx context.Context, userID string, source domain.Source) error {
	conn, err := s.connections.Get(ctx, userID, source)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	conn.LastSyncAt = &now
	return s.connections.Save(ctx, conn)
}

// loadConnection fetches the connection for a source, mapping a missing
// record to ErrNotConnected with a user-actionable message.
func loadConnection(ctx context.Context, conns store.ConnectionStore, userID string, source domain.Source) (*domain.Connection, error) {
	conn, err := conns.Get(ctx, userID, source)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%s connection not found: %w", source, ErrNotConnected)
		}
		return nil, fmt.Errorf("load %s connection: %w", source, err)
	}
	return conn, nil
}
