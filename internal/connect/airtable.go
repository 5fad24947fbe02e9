package connect

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"

	"github.com/pashoot/reports/internal/domain"
	"github.com/pashoot/reports/internal/store"
)

const defaultAirtableBaseURL = "https://api.airtable.com/v0"

// AirtableConnector syncs records from a user-selected Airtable table.
// Airtable schemas are user-defined, so field extraction is heuristic
// (FieldProbe); records missing a date or amount are soft-skipped.
type AirtableConnector struct {
	Connections  store.ConnectionStore
	Transactions store.TransactionStore
	BaseURL      string
	HTTPClient   *http.Client
}

type airtableRecord struct {
	ID          string         `json:"id"`
	CreatedTime string         `json:"createdTime"`
	Fields      map[string]any `json:"fields"`
}

type airtableListResponse struct {
	Records []airtableRecord `json:"records"`
}

func (c *AirtableConnector) Source() domain.Source { return domain.SourceAirtable }

// Sync fetches up to 100 records from the configured base/table and upserts
// the ones that yield a date, amount and description.
func (c *AirtableConnector) Sync(ctx context.Context, userID string) (*SyncResult, error) {
	conn, err := loadConnection(ctx, c.Connections, userID, domain.SourceAirtable)
	if err != nil {
		return nil, err
	}

	baseID := conn.Meta("baseId")
	if baseID == "" {
		return nil, fmt.Errorf("airtable base ID not found, please reconnect: %w", ErrMissingConfig)
	}
	tableID := conn.Meta("tableId")
	if tableID == "" {
		tableID = "Expenses"
	}

	records, err := c.fetchRecords(ctx, conn.AccessToken, baseID, tableID)
	if err != nil {
		return nil, err
	}

	synced, skipped := 0, 0
	for _, record := range records {
		date, okDate := airtableProbe.Date(record.Fields)
		amount, okAmount := airtableProbe.Amount(record.Fields)
		description := airtableProbe.Description(record.Fields)
		if !okDate || !okAmount || description == "" {
			skipped++
			continue
		}

		txType := domain.TransactionType(airtableProbe.Type(record.Fields))
		if txType == "" {
			txType = domain.TypeExpense
		}

		category := "airtable_record"
		if s, ok := record.Fields["Category"].(string); ok && s != "" {
			category = s
		} else if s, ok := record.Fields["Type"].(string); ok && s != "" {
			category = s
		}

		tx := &domain.Transaction{
			UserID:      userID,
			Source:      domain.SourceAirtable,
			ExternalID:  record.ID,
			Date:        date,
			Description: description,
			Amount:      math.Abs(amount),
			Type:        txType,
			Category:    category,
			Metadata: domain.Metadata{
				Extra: map[string]any{
					"baseId":  baseID,
					"tableId": tableID,
					"fields":  record.Fields,
				},
			},
		}
		if err := c.Transactions.Upsert(ctx, tx); err != nil {
			return nil, fmt.Errorf("upsert airtable record %s: %w", record.ID, err)
		}
		synced++
	}

	return &SyncResult{
		Source:  domain.SourceAirtable,
		Synced:  synced,
		Skipped: skipped,
		Message: fmt.Sprintf("Synced %d records from Airtable", synced),
	}, nil
}

func (c *AirtableConnector) fetchRecords(ctx context.Context, token, baseID, tableID string) ([]airtableRecord, error) {
	base := c.BaseURL
	if base == "" {
		base = defaultAirtableBaseURL
	}
	endpoint := fmt.Sprintf("%s/%s/%s?maxRecords=100", base, baseID, url.PathEscape(tableID))

	var resp airtableListResponse
	if err := getJSON(ctx, c.HTTPClient, endpoint, token, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch airtable records: %w", err)
	}
	return resp.Records, nil
}
