// Command sync runs one connector pass against a live token and prints the
// normalized transactions as JSON. Useful for verifying a token and seeing
// what a source yields before wiring it into the service.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/pashoot/reports/internal/connect"
	"github.com/pashoot/reports/internal/domain"
	"github.com/pashoot/reports/internal/logger"
	"github.com/pashoot/reports/internal/store"
	"github.com/pashoot/reports/internal/store/memory"
)

func main() {
	log := logger.New()

	source := flag.String("source", "", "Source to sync: wave, stripe, square, xero, gusto, airtable, notion (required)")
	token := flag.String("token", "", "Access token for the source (required)")
	meta := flag.String("meta", "", "Connection metadata as key=value pairs, comma separated (e.g. baseId=app123,tableName=Expenses)")
	flag.Parse()

	if *source == "" {
		log.Fatal().Msg("Error: --source is required")
	}
	if *token == "" {
		log.Fatal().Msg("Error: --token is required")
	}

	metadata := map[string]string{}
	if *meta != "" {
		for _, pair := range strings.Split(*meta, ",") {
			kv := strings.SplitN(pair, "=", 2)
			if len(kv) != 2 {
				log.Fatal().Str("pair", pair).Msg("Error: invalid --meta pair, expected key=value")
			}
			metadata[kv[0]] = kv[1]
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	transactions := memory.NewTransactionStore()
	connections := memory.NewConnectionStore()

	const userID = "cli"
	if err := connections.Save(ctx, &domain.Connection{
		UserID:      userID,
		Source:      domain.Source(*source),
		AccessToken: *token,
		Metadata:    metadata,
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to save connection")
	}

	svc := connect.NewService(connections,
		&connect.WaveConnector{Connections: connections, Transactions: transactions},
		&connect.StripeConnector{Connections: connections, Transactions: transactions},
		&connect.SquareConnector{Connections: connections, Transactions: transactions},
		&connect.XeroConnector{Connections: connections, Transactions: transactions},
		&connect.GustoConnector{Connections: connections, Transactions: transactions},
		&connect.AirtableConnector{Connections: connections, Transactions: transactions},
		&connect.NotionConnector{Connections: connections, Transactions: transactions},
	)

	result, err := svc.Sync(ctx, userID, domain.Source(*source))
	if err != nil {
		log.Fatal().Err(err).Str("source", *source).Msg("Sync failed")
	}

	log.Info().
		Int("synced", result.Synced).
		Int("skipped", result.Skipped).
		Str("message", result.Message).
		Msg("Sync completed")

	txs, err := transactions.List(ctx, userID, store.TransactionFilter{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list transactions")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(txs); err != nil {
		log.Fatal().Err(err).Msg("Failed to encode transactions")
	}
}
