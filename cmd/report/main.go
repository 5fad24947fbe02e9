// Command report syncs one source and renders a report from the result,
// writing the HTML artifact to a file.
package main

import (
	"context"
	"encoding/base64"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/pashoot/reports/internal/connect"
	"github.com/pashoot/reports/internal/domain"
	"github.com/pashoot/reports/internal/logger"
	"github.com/pashoot/reports/internal/reports"
	"github.com/pashoot/reports/internal/store/memory"
)

func main() {
	log := logger.New()

	source := flag.String("source", "", "Source to sync first: wave, stripe, square, xero, gusto, airtable, notion (required)")
	token := flag.String("token", "", "Access token for the source (required)")
	meta := flag.String("meta", "", "Connection metadata as key=value pairs, comma separated")
	reportType := flag.String("type", "income_statement", "Report type to generate")
	startDateStr := flag.String("start-date", "", "Start date in YYYY-MM-DD format (required)")
	endDateStr := flag.String("end-date", "", "End date in YYYY-MM-DD format (required)")
	outPath := flag.String("out", "report.html", "Output path for the rendered HTML")
	flag.Parse()

	if *source == "" || *token == "" {
		log.Fatal().Msg("Error: --source and --token are required")
	}
	if *startDateStr == "" || *endDateStr == "" {
		log.Fatal().Msg("Error: --start-date and --end-date are required")
	}

	startDate, err := time.Parse("2006-01-02", *startDateStr)
	if err != nil {
		log.Fatal().Err(err).Msg("Error: invalid start-date format, expected YYYY-MM-DD")
	}
	endDate, err := time.Parse("2006-01-02", *endDateStr)
	if err != nil {
		log.Fatal().Err(err).Msg("Error: invalid end-date format, expected YYYY-MM-DD")
	}
	if endDate.Before(startDate) {
		log.Fatal().Msg("Error: end-date must be after start-date")
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	transactions := memory.NewTransactionStore()
	connections := memory.NewConnectionStore()
	reportStore := memory.NewReportStore()

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
	log.Info().Int("synced", result.Synced).Int("skipped", result.Skipped).Msg("Sync completed")

	generator := reports.NewGenerator(transactions, connections, reports.DefaultSettings())
	reportService := reports.NewService(reportStore, generator)

	report, err := reportService.Generate(ctx, userID, reports.Kind(*reportType), startDate, endDate)
	if err != nil {
		log.Fatal().Err(err).Str("report_type", *reportType).Msg("Report generation failed")
	}
	if report.Status == domain.ReportStatusFailed {
		log.Fatal().Str("error", report.Error).Msg("Report generation failed")
	}

	const prefix = "data:text/html;base64,"
	html, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(report.ArtifactURL, prefix))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to decode report artifact")
	}

	if err := os.WriteFile(*outPath, html, 0o644); err != nil {
		log.Fatal().Err(err).Str("path", *outPath).Msg("Failed to write report")
	}

	log.Info().Str("path", *outPath).Str("report_id", report.ID).Msg("Report written")
}
