package connect

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/pashoot/reports/internal/domain"
	"github.com/pashoot/reports/internal/store"
)

// NotionDatabaseQuerier is the slice of the Notion API the connector needs.
// It enables mocking without a live workspace.
type NotionDatabaseQuerier interface {
	Query(ctx context.Context, databaseID notionapi.DatabaseID, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

type notionSDKQuerier struct {
	client *notionapi.Client
}

func (q *notionSDKQuerier) Query(ctx context.Context, databaseID notionapi.DatabaseID, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return q.client.Database.Query(ctx, databaseID, req)
}

// NotionConnector syncs pages from a user-selected Notion database.
// Property names and types are user-defined, so extraction probes an
// ordered candidate list per field, mirroring the Airtable heuristics but
// over Notion's typed property values.
type NotionConnector struct {
	Connections  store.ConnectionStore
	Transactions store.TransactionStore
	// NewQuerier builds the API client for a token. Defaults to the
	// official SDK; tests inject a fake.
	NewQuerier func(token string) NotionDatabaseQuerier
}

func (c *NotionConnector) Source() domain.Source { return domain.SourceNotion }

// Sync fetches up to 100 pages from the configured database and upserts the
// ones that yield a date, amount and description.
func (c *NotionConnector) Sync(ctx context.Context, userID string) (*SyncResult, error) {
	conn, err := loadConnection(ctx, c.Connections, userID, domain.SourceNotion)
	if err != nil {
		return nil, err
	}

	databaseID := conn.Meta("databaseId")
	if databaseID == "" {
		return nil, fmt.Errorf("notion database ID not found, please reconnect and select a database: %w", ErrMissingConfig)
	}

	newQuerier := c.NewQuerier
	if newQuerier == nil {
		newQuerier = func(token string) NotionDatabaseQuerier {
			return &notionSDKQuerier{client: notionapi.NewClient(notionapi.Token(token))}
		}
	}
	querier := newQuerier(conn.AccessToken)

	resp, err := querier.Query(ctx, notionapi.DatabaseID(databaseID), &notionapi.DatabaseQueryRequest{PageSize: 100})
	if err != nil {
		return nil, fmt.Errorf("fetch notion database pages: %w", err)
	}

	synced, skipped := 0, 0
	for _, page := range resp.Results {
		tx, ok := mapNotionPage(userID, databaseID, page)
		if !ok {
			skipped++
			continue
		}
		if err := c.Transactions.Upsert(ctx, tx); err != nil {
			return nil, fmt.Errorf("upsert notion page %s: %w", page.ID, err)
		}
		synced++
	}

	return &SyncResult{
		Source:  domain.SourceNotion,
		Synced:  synced,
		Skipped: skipped,
		Message: fmt.Sprintf("Synced %d pages from Notion", synced),
	}, nil
}

// mapNotionPage converts one database page into a canonical transaction.
// Returns false when the page lacks a date, amount or description.
func mapNotionPage(userID, databaseID string, page notionapi.Page) (*domain.Transaction, bool) {
	date, okDate := notionDate(page.Properties)
	amount, okAmount := notionAmount(page.Properties)
	description := notionDescription(page.Properties)
	if !okDate || !okAmount || description == "" {
		return nil, false
	}

	txType := domain.TransactionType(notionType(page.Properties, amount))
	if txType == "" {
		txType = domain.TypeExpense
	}

	category := notionCategory(page.Properties)
	if category == "" {
		category = "notion_record"
	}

	pageID := string(page.ID)
	return &domain.Transaction{
		UserID:      userID,
		Source:      domain.SourceNotion,
		ExternalID:  pageID,
		Date:        date,
		Description: description,
		Amount:      math.Abs(amount),
		Type:        txType,
		Category:    category,
		Metadata: domain.Metadata{
			Extra: map[string]any{
				"databaseId": databaseID,
				"pageUrl":    "https://notion.so/" + strings.ReplaceAll(pageID, "-", ""),
			},
		},
	}, true
}

var notionDateProps = []string{"Date", "date", "Transaction Date", "Created"}
var notionAmountProps = []string{"Amount", "amount", "Total", "Price", "Cost", "Value"}
var notionDescProps = []string{"Name", "name", "Title", "title", "Description", "Notes"}
var notionTypeProps = []string{"Type", "type", "Category", "category"}
var notionCategoryProps = []string{"Category", "category", "Type", "type"}

func notionDate(props notionapi.Properties) (time.Time, bool) {
	for _, name := range notionDateProps {
		prop, ok := props[name]
		if !ok {
			continue
		}
		if dateProp, ok := prop.(*notionapi.DateProperty); ok {
			if dateProp.Date != nil && dateProp.Date.Start != nil {
				return time.Time(*dateProp.Date.Start).UTC(), true
			}
		}
	}
	return time.Time{}, false
}

func notionAmount(props notionapi.Properties) (float64, bool) {
	for _, name := range notionAmountProps {
		prop, ok := props[name]
		if !ok {
			continue
		}
		if numberProp, ok := prop.(*notionapi.NumberProperty); ok {
			return numberProp.Number, true
		}
	}
	return 0, false
}

func notionDescription(props notionapi.Properties) string {
	for _, name := range notionDescProps {
		prop, ok := props[name]
		if !ok {
			continue
		}
		if s := notionPlainText(prop); s != "" {
			return s
		}
	}
	// Fallback: any title property carries the page's display text.
	for _, prop := range props {
		if title, ok := prop.(*notionapi.TitleProperty); ok {
			if len(title.Title) > 0 && title.Title[0].PlainText != "" {
				return title.Title[0].PlainText
			}
		}
	}
	return "Notion Page"
}

func notionPlainText(prop notionapi.Property) string {
	switch p := prop.(type) {
	case *notionapi.TitleProperty:
		if len(p.Title) > 0 {
			return p.Title[0].PlainText
		}
	case *notionapi.RichTextProperty:
		if len(p.RichText) > 0 {
			return p.RichText[0].PlainText
		}
	}
	return ""
}

func notionType(props notionapi.Properties, amount float64) string {
	for _, name := range notionTypeProps {
		prop, ok := props[name]
		if !ok {
			continue
		}
		var text string
		switch p := prop.(type) {
		case *notionapi.SelectProperty:
			text = p.Select.Name
		case *notionapi.RichTextProperty:
			if len(p.RichText) > 0 {
				text = p.RichText[0].PlainText
			}
		}
		if t := classifyTypeText(text); t != "" {
			return t
		}
	}
	if amount < 0 {
		return "expense"
	}
	return "income"
}

func notionCategory(props notionapi.Properties) string {
	for _, name := range notionCategoryProps {
		prop, ok := props[name]
		if !ok {
			continue
		}
		switch p := prop.(type) {
		case *notionapi.SelectProperty:
			if p.Select.Name != "" {
				return p.Select.Name
			}
		case *notionapi.MultiSelectProperty:
			if len(p.MultiSelect) > 0 && p.MultiSelect[0].Name != "" {
				return p.MultiSelect[0].Name
			}
		}
	}
	return ""
}
