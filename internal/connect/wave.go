package connect

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/pashoot/reports/internal/domain"
	"github.com/pashoot/reports/internal/store"
)

const defaultWaveGraphQLURL = "https://gql.waveapps.com/graphql/public"

const waveBusinessQuery = `query { user { defaultBusiness { id name } } }`

const waveTransactionsQuery = `query($businessId: ID!, $page: Int!, $pageSize: Int!) {
  business(id: $businessId) {
    transactions(page: $page, pageSize: $pageSize) {
      pageInfo { currentPage totalPages }
      edges {
        node {
          id
          date
          description
          amount { value currency { code } }
          direction
        }
      }
    }
  }
}`

// WaveConnector syncs transactions through Wave's public GraphQL API.
type WaveConnector struct {
	Connections  store.ConnectionStore
	Transactions store.TransactionStore
	GraphQLURL   string
	HTTPClient   *http.Client
}

func (c *WaveConnector) Source() domain.Source { return domain.SourceWave }

type waveTransactionNode struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      struct {
		Value    string `json:"value"`
		Currency struct {
			Code string `json:"code"`
		} `json:"currency"`
	} `json:"amount"`
	Direction string `json:"direction"`
}

func (c *WaveConnector) graphql(ctx context.Context, url, token, query string, variables map[string]any, out any) error {
	body := map[string]any{"query": query}
	if variables != nil {
		body["variables"] = variables
	}
	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := postJSON(ctx, c.HTTPClient, url, token, nil, body, &envelope); err != nil {
		return err
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("graphql error: %s", envelope.Errors[0].Message)
	}
	return json.Unmarshal(envelope.Data, out)
}

func (c *WaveConnector) Sync(ctx context.Context, userID string) (*SyncResult, error) {
	conn, err := loadConnection(ctx, c.Connections, userID, domain.SourceWave)
	if err != nil {
		return nil, err
	}

	url := c.GraphQLURL
	if url == "" {
		url = defaultWaveGraphQLURL
	}

	var businessData struct {
		User struct {
			DefaultBusiness *struct {
				ID string `json:"id"`
			} `json:"defaultBusiness"`
		} `json:"user"`
	}
	if err := c.graphql(ctx, url, conn.AccessToken, waveBusinessQuery, nil, &businessData); err != nil {
		return nil, fmt.Errorf("fetch wave business: %w", err)
	}
	if businessData.User.DefaultBusiness == nil || businessData.User.DefaultBusiness.ID == "" {
		return nil, fmt.Errorf("no Wave business found")
	}
	businessID := businessData.User.DefaultBusiness.ID

	synced, skipped := 0, 0
	for page := 1; synced+skipped < 100; page++ {
		var pageData struct {
			Business struct {
				Transactions struct {
					PageInfo struct {
						CurrentPage int `json:"currentPage"`
						TotalPages  int `json:"totalPages"`
					} `json:"pageInfo"`
					Edges []struct {
						Node waveTransactionNode `json:"node"`
					} `json:"edges"`
				} `json:"transactions"`
			} `json:"business"`
		}
		vars := map[string]any{"businessId": businessID, "page": page, "pageSize": 50}
		if err := c.graphql(ctx, url, conn.AccessToken, waveTransactionsQuery, vars, &pageData); err != nil {
			return nil, fmt.Errorf("fetch wave transactions page %d: %w", page, err)
		}

		for _, edge := range pageData.Business.Transactions.Edges {
			tx, ok := mapWaveTransaction(userID, edge.Node)
			if !ok {
				skipped++
				continue
			}
			if err := c.Transactions.Upsert(ctx, tx); err != nil {
				return nil, fmt.Errorf("upsert wave transaction %s: %w", edge.Node.ID, err)
			}
			synced++
		}

		info := pageData.Business.Transactions.PageInfo
		if info.CurrentPage >= info.TotalPages {
			break
		}
	}

	return &SyncResult{
		Source:  domain.SourceWave,
		Synced:  synced,
		Skipped: skipped,
		Message: fmt.Sprintf("Synced %d transactions from Wave", synced),
	}, nil
}

func mapWaveTransaction(userID string, node waveTransactionNode) (*domain.Transaction, bool) {
	date, err := time.Parse("2006-01-02", node.Date)
	if err != nil {
		return nil, false
	}
	amount, err := parseMoney(node.Amount.Value)
	if err != nil {
		return nil, false
	}

	txType := domain.TypeExpense
	category := "wave_withdrawal"
	if node.Direction == "DEPOSIT" {
		txType = domain.TypeIncome
		category = "wave_deposit"
	}

	description := node.Description
	if description == "" {
		description = "Wave transaction"
	}

	return &domain.Transaction{
		UserID:      userID,
		Source:      domain.SourceWave,
		ExternalID:  node.ID,
		Date:        date.UTC(),
		Description: description,
		Amount:      math.Abs(amount),
		Type:        txType,
		Category:    category,
		Metadata: domain.Metadata{
			Currency: node.Amount.Currency.Code,
			Extra:    map[string]any{"direction": node.Direction},
		},
	}, true
}
