package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pashoot/reports/internal/domain"
	"github.com/pashoot/reports/internal/store/memory"
)

type fakeModel struct {
	response string
	err      error
	prompts  []string
}

func (m *fakeModel) Generate(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func seedTransaction(t *testing.T, txs *memory.TransactionStore, userID string, day int, amount float64, txType domain.TransactionType, description string) {
	t.Helper()
	err := txs.Upsert(context.Background(), &domain.Transaction{
		UserID:      userID,
		Source:      domain.SourceManual,
		ExternalID:  fmt.Sprintf("%s-%d", description, day),
		Date:        time.Date(2024, 6, day, 0, 0, 0, 0, time.UTC),
		Amount:      amount,
		Type:        txType,
		Description: description,
	})
	if err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
}

func TestQuery(t *testing.T) {
	txs := memory.NewTransactionStore()
	seedTransaction(t, txs, "user-1", 1, 1500, domain.TypeIncome, "Consulting invoice")
	seedTransaction(t, txs, "user-1", 2, 300, domain.TypeExpense, "Office rent")

	messages := NewMemoryMessageStore()
	model := &fakeModel{response: "Your net income is $1,200.00."}
	service := NewService(txs, messages, model, 0)

	reply, err := service.Query(context.Background(), "user-1", "What is my net income?")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if reply.Response != "Your net income is $1,200.00." {
		t.Errorf("Response = %q", reply.Response)
	}
	if reply.Quota.Used != 1 || reply.Quota.Limit != DefaultMonthlyQuota {
		t.Errorf("quota = %+v, want used 1 of %d", reply.Quota, DefaultMonthlyQuota)
	}

	if len(model.prompts) != 1 {
		t.Fatalf("model called %d times, want 1", len(model.prompts))
	}
	prompt := model.prompts[0]
	for _, want := range []string{
		"Pashoot Reports",
		"2 transactions",
		"Total income: $1500.00",
		"Total expenses: $300.00",
		"Net: $1200.00",
		"Consulting invoice",
		"Question: What is my net income?",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	// Both sides of the exchange are persisted.
	now := time.Now().UTC()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	userCount, err := messages.CountSince(context.Background(), "user-1", RoleUser, startOfMonth)
	if err != nil {
		t.Fatalf("CountSince: %v", err)
	}
	assistantCount, err := messages.CountSince(context.Background(), "user-1", RoleAssistant, startOfMonth)
	if err != nil {
		t.Fatalf("CountSince: %v", err)
	}
	if userCount != 1 || assistantCount != 1 {
		t.Errorf("saved messages = %d user / %d assistant, want 1/1", userCount, assistantCount)
	}
}

func TestQuery_QuotaExceeded(t *testing.T) {
	messages := NewMemoryMessageStore()
	model := &fakeModel{response: "ok"}
	service := NewService(memory.NewTransactionStore(), messages, model, 2)

	for i := 0; i < 2; i++ {
		if _, err := service.Query(context.Background(), "user-1", "question"); err != nil {
			t.Fatalf("Query %d: %v", i, err)
		}
	}

	_, err := service.Query(context.Background(), "user-1", "one more")
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("err = %v, want ErrQuotaExceeded", err)
	}
	if len(model.prompts) != 2 {
		t.Errorf("model called %d times, want 2 (quota blocks before generation)", len(model.prompts))
	}

	// Another user still has headroom.
	if _, err := service.Query(context.Background(), "user-2", "question"); err != nil {
		t.Errorf("other user's Query: %v", err)
	}
}

func TestQuery_ModelFailureStillCounted(t *testing.T) {
	messages := NewMemoryMessageStore()
	model := &fakeModel{err: errors.New("model offline")}
	service := NewService(memory.NewTransactionStore(), messages, model, 5)

	_, err := service.Query(context.Background(), "user-1", "question")
	if err == nil || !strings.Contains(err.Error(), "model offline") {
		t.Fatalf("err = %v, want wrapped model failure", err)
	}

	// The user message was recorded before the model ran, so the attempt
	// still counts toward the quota.
	quota, err := service.CheckQuota(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("CheckQuota: %v", err)
	}
	if quota.Used != 1 {
		t.Errorf("quota used = %d, want 1", quota.Used)
	}
}

func TestCheckQuota_Empty(t *testing.T) {
	service := NewService(memory.NewTransactionStore(), NewMemoryMessageStore(), &fakeModel{}, 0)

	quota, err := service.CheckQuota(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("CheckQuota: %v", err)
	}
	if quota.Used != 0 || quota.Limit != DefaultMonthlyQuota {
		t.Errorf("quota = %+v, want 0 of %d", quota, DefaultMonthlyQuota)
	}
}

func TestBuildPrompt_CapsRecentTransactions(t *testing.T) {
	txs := memory.NewTransactionStore()
	for i := 0; i < 25; i++ {
		seedTransaction(t, txs, "user-1", i%28+1, 10, domain.TypeIncome, fmt.Sprintf("Sale %02d", i))
	}
	service := NewService(txs, NewMemoryMessageStore(), &fakeModel{response: "ok"}, 0)

	prompt, err := service.buildPrompt(context.Background(), "user-1", "how are sales?")
	if err != nil {
		t.Fatalf("buildPrompt: %v", err)
	}
	if !strings.Contains(prompt, "25 transactions") {
		t.Error("prompt should count all transactions")
	}
	listed := strings.Count(prompt, "- 2024-06-")
	if listed != 20 {
		t.Errorf("prompt lists %d transactions, want 20", listed)
	}
}
