package connect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashoot/reports/internal/domain"
	"github.com/pashoot/reports/internal/store"
	"github.com/pashoot/reports/internal/store/memory"
)

const testUserID = "user-1"

// newTestStores returns fresh in-memory stores for a connector test.
func newTestStores() (*memory.TransactionStore, *memory.ConnectionStore) {
	return memory.NewTransactionStore(), memory.NewConnectionStore()
}

// seedConnection saves a connection for the test user.
func seedConnection(t *testing.T, conns *memory.ConnectionStore, source domain.Source, token string, metadata map[string]string) {
	t.Helper()
	err := conns.Save(context.Background(), &domain.Connection{
		UserID:      testUserID,
		Source:      source,
		AccessToken: token,
		Metadata:    metadata,
	})
	if err != nil {
		t.Fatalf("seed connection: %v", err)
	}
}

// listAll returns all of the test user's transactions.
func listAll(t *testing.T, txs *memory.TransactionStore) []domain.Transaction {
	t.Helper()
	out, err := txs.List(context.Background(), testUserID, store.TransactionFilter{})
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	return out
}

type fakeConnector struct {
	source domain.Source
	result *SyncResult
	err    error
	calls  int
}

func (f *fakeConnector) Source() domain.Source { return f.source }

func (f *fakeConnector) Sync(ctx context.Context, userID string) (*SyncResult, error) {
	f.calls++
	return f.result, f.err
}

func TestService_Sync_UnknownSource(t *testing.T) {
	_, conns := newTestStores()
	svc := NewService(conns)

	_, err := svc.Sync(context.Background(), testUserID, domain.SourceWave)
	if !errors.Is(err, ErrUnknownSource) {
		t.Errorf("expected ErrUnknownSource, got %v", err)
	}
}

func TestService_Sync_RecordsLastSyncTime(t *testing.T) {
	_, conns := newTestStores()
	seedConnection(t, conns, domain.SourceWave, "token", nil)

	fake := &fakeConnector{
		source: domain.SourceWave,
		result: &SyncResult{Source: domain.SourceWave, Synced: 3},
	}
	svc := NewService(conns, fake)

	before := time.Now().UTC()
	result, err := svc.Sync(context.Background(), testUserID, domain.SourceWave)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if result.Synced != 3 {
		t.Errorf("expected 3 synced, got %d", result.Synced)
	}
	if fake.calls != 1 {
		t.Errorf("expected 1 connector call, got %d", fake.calls)
	}

	conn, err := conns.Get(context.Background(), testUserID, domain.SourceWave)
	if err != nil {
		t.Fatalf("get connection: %v", err)
	}
	if conn.LastSyncAt == nil {
		t.Fatal("expected LastSyncAt to be set")
	}
	if conn.LastSyncAt.Before(before) {
		t.Errorf("LastSyncAt %v is before sync started %v", conn.LastSyncAt, before)
	}
}

func TestService_Sync_ConnectorFailureDoesNotTouchLastSync(t *testing.T) {
	_, conns := newTestStores()
	seedConnection(t, conns, domain.SourceWave, "token", nil)

	fake := &fakeConnector{
		source: domain.SourceWave,
		err:    errors.New("upstream down"),
	}
	svc := NewService(conns, fake)

	_, err := svc.Sync(context.Background(), testUserID, domain.SourceWave)
	if err == nil {
		t.Fatal("expected sync error")
	}

	conn, err := conns.Get(context.Background(), testUserID, domain.SourceWave)
	if err != nil {
		t.Fatalf("get connection: %v", err)
	}
	if conn.LastSyncAt != nil {
		t.Errorf("expected LastSyncAt to stay unset, got %v", conn.LastSyncAt)
	}
}

func TestService_Sources(t *testing.T) {
	_, conns := newTestStores()
	svc := NewService(conns,
		&fakeConnector{source: domain.SourceWave},
		&fakeConnector{source: domain.SourceStripe},
	)

	sources := svc.Sources()
	if len(sources) != 2 {
		t.Errorf("expected 2 sources, got %d", len(sources))
	}
}

func TestSync_NotConnected(t *testing.T) {
	txs, conns := newTestStores()
	c := &AirtableConnector{Connections: conns, Transactions: txs}

	_, err := c.Sync(context.Background(), testUserID)
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}
