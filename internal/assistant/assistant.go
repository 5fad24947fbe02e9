// Package assistant answers plain-English questions about a user's
// financial data using a generative model grounded on their recent
// transactions.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/pashoot/reports/internal/domain"
	"github.com/pashoot/reports/internal/logger"
	"github.com/pashoot/reports/internal/store"
)

// DefaultModelName is the model used when none is configured.
const DefaultModelName = "gemini-2.0-flash"

// DefaultMonthlyQuota is the number of queries a user may run per
// calendar month.
const DefaultMonthlyQuota = 20

// ErrQuotaExceeded is returned when the user has used up their monthly
// query allowance.
var ErrQuotaExceeded = errors.New("monthly query limit reached")

// Model abstracts the generative model so tests can inject a fake.
type Model interface {
	// Generate produces a text answer for the given prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}

// genaiModel calls Gemini through the GenAI SDK.
type genaiModel struct {
	client *genai.Client
	model  string
}

// NewModel creates a Gemini-backed Model. The API key is read from the
// environment by the SDK when cfg is nil.
func NewModel(ctx context.Context, modelName string) (Model, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if modelName == "" {
		modelName = DefaultModelName
	}
	return &genaiModel{client: client, model: modelName}, nil
}

func (m *genaiModel) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

// Quota reports a user's query usage for the current month.
type Quota struct {
	Used  int `json:"used"`
	Limit int `json:"limit"`
}

// Reply is the assistant's answer plus updated quota.
type Reply struct {
	Response string `json:"response"`
	Quota    Quota  `json:"quota"`
}

// Service answers financial questions for a user.
type Service struct {
	transactions store.TransactionStore
	messages     MessageStore
	model        Model
	quotaLimit   int
}

// NewService creates an assistant service. quotaLimit <= 0 means the
// default monthly quota.
func NewService(transactions store.TransactionStore, messages MessageStore, model Model, quotaLimit int) *Service {
	if quotaLimit <= 0 {
		quotaLimit = DefaultMonthlyQuota
	}
	return &Service{
		transactions: transactions,
		messages:     messages,
		model:        model,
		quotaLimit:   quotaLimit,
	}
}

// CheckQuota returns the user's current-month usage without consuming it.
func (s *Service) CheckQuota(ctx context.Context, userID string) (Quota, error) {
	now := time.Now().UTC()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	used, err := s.messages.CountSince(ctx, userID, RoleUser, startOfMonth)
	if err != nil {
		return Quota{}, fmt.Errorf("count messages: %w", err)
	}
	return Quota{Used: used, Limit: s.quotaLimit}, nil
}

// Query answers a financial question grounded on the user's data. It
// enforces the monthly quota and records both sides of the exchange.
func (s *Service) Query(ctx context.Context, userID, query string) (*Reply, error) {
	log := logger.FromContext(ctx).With().Str("user_id", userID).Logger()

	quota, err := s.CheckQuota(ctx, userID)
	if err != nil {
		return nil, err
	}
	if quota.Used >= quota.Limit {
		return nil, fmt.Errorf("used %d of %d queries this month: %w", quota.Used, quota.Limit, ErrQuotaExceeded)
	}

	prompt, err := s.buildPrompt(ctx, userID, query)
	if err != nil {
		return nil, err
	}

	if err := s.messages.Save(ctx, &Message{
		ID:        uuid.New().String(),
		UserID:    userID,
		Role:      RoleUser,
		Content:   query,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("save user message: %w", err)
	}

	response, err := s.model.Generate(ctx, prompt)
	if err != nil {
		log.Error().Err(err).Msg("assistant query failed")
		return nil, fmt.Errorf("process query: %w", err)
	}

	if err := s.messages.Save(ctx, &Message{
		ID:        uuid.New().String(),
		UserID:    userID,
		Role:      RoleAssistant,
		Content:   response,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("save assistant message: %w", err)
	}

	log.Info().Int("quota_used", quota.Used+1).Msg("assistant query answered")

	return &Reply{
		Response: response,
		Quota:    Quota{Used: quota.Used + 1, Limit: quota.Limit},
	}, nil
}

// buildPrompt assembles the system context and the user's question into
// a single prompt: overall stats plus the most recent transactions.
func (s *Service) buildPrompt(ctx context.Context, userID, query string) (string, error) {
	txs, err := s.transactions.List(ctx, userID, store.TransactionFilter{})
	if err != nil {
		return "", fmt.Errorf("list transactions: %w", err)
	}

	// Most recent first, capped at 100 for context.
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Date.After(txs[j].Date) })
	if len(txs) > 100 {
		txs = txs[:100]
	}

	var totalIncome, totalExpenses float64
	sourceSet := map[domain.Source]bool{}
	for _, t := range txs {
		switch t.Type {
		case domain.TypeIncome:
			totalIncome += t.Amount
		case domain.TypeExpense:
			totalExpenses += t.Amount
		}
		sourceSet[t.Source] = true
	}
	sources := make([]string, 0, len(sourceSet))
	for src := range sourceSet {
		sources = append(sources, string(src))
	}
	sort.Strings(sources)

	var b strings.Builder
	b.WriteString("You are a financial analyst assistant for Pashoot Reports, a financial reporting tool.\n")
	b.WriteString("You help small business owners understand their financial data by answering questions in plain English.\n\n")
	fmt.Fprintf(&b, "The user has %d transactions in their database from sources: %s.\n", len(txs), strings.Join(sources, ", "))
	fmt.Fprintf(&b, "Total income: $%.2f\n", totalIncome)
	fmt.Fprintf(&b, "Total expenses: $%.2f\n", totalExpenses)
	fmt.Fprintf(&b, "Net: $%.2f\n\n", totalIncome-totalExpenses)

	b.WriteString("Here are the most recent transactions (up to 100):\n")
	recent := txs
	if len(recent) > 20 {
		recent = recent[:20]
	}
	for _, t := range recent {
		fmt.Fprintf(&b, "- %s: %s - $%.2f (%s)\n", t.Date.Format("2006-01-02"), t.Description, t.Amount, t.Type)
	}

	b.WriteString("\nWhen answering questions:\n")
	b.WriteString("1. Be concise and clear\n")
	b.WriteString("2. Use dollar amounts and specific numbers from the data\n")
	b.WriteString("3. If you need to calculate something, show your work briefly\n")
	b.WriteString("4. If the data doesn't contain enough information to answer, say so\n")
	b.WriteString("5. Format currency with dollar signs and commas (e.g., $1,234.56)\n\n")
	b.WriteString("Answer the user's financial question based on their data.\n\n")
	fmt.Fprintf(&b, "Question: %s\n", query)

	return b.String(), nil
}
