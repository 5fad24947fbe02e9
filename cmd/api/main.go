package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pashoot/reports/internal/api/handlers"
	"github.com/pashoot/reports/internal/api/middleware"
	"github.com/pashoot/reports/internal/assistant"
	"github.com/pashoot/reports/internal/config"
	"github.com/pashoot/reports/internal/connect"
	"github.com/pashoot/reports/internal/jobs"
	"github.com/pashoot/reports/internal/jobs/inmemory"
	"github.com/pashoot/reports/internal/logger"
	"github.com/pashoot/reports/internal/reports"
	"github.com/pashoot/reports/internal/store/memory"
)

func main() {
	var configPath = flag.String("config", "", "Path to config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot := logger.New()
		boot.Fatal().Err(err).Msg("Failed to load config")
	}

	log := logger.NewWithLevel(cfg.Log.Level, cfg.Log.JSON)

	ctx := context.Background()

	// Stores
	transactions := memory.NewTransactionStore()
	connections := memory.NewConnectionStore()
	reportStore := memory.NewReportStore()

	// Connectors
	syncService := connect.NewService(connections,
		&connect.WaveConnector{Connections: connections, Transactions: transactions, GraphQLURL: cfg.Connect.WaveGraphQLURL},
		&connect.StripeConnector{Connections: connections, Transactions: transactions},
		&connect.SquareConnector{Connections: connections, Transactions: transactions, BaseURL: cfg.Connect.SquareBaseURL},
		&connect.XeroConnector{Connections: connections, Transactions: transactions, BaseURL: cfg.Connect.XeroBaseURL},
		&connect.GustoConnector{Connections: connections, Transactions: transactions, BaseURL: cfg.Connect.GustoBaseURL},
		&connect.AirtableConnector{Connections: connections, Transactions: transactions, BaseURL: cfg.Connect.AirtableBaseURL},
		&connect.NotionConnector{Connections: connections, Transactions: transactions},
	)

	// Reports
	settings := reports.Settings{
		MonthlyBudgetIncome:    cfg.Reports.MonthlyRevenueBudget,
		MonthlyBudgetExpenses:  cfg.Reports.MonthlyExpenseBudget,
		MonthlyBudgetNetIncome: cfg.Reports.MonthlyProfitTarget,
		DefaultSalesTaxRate:    cfg.Reports.DefaultSalesTaxRate,
		SelfEmploymentTaxRate:  cfg.Reports.SelfEmploymentRate,
		EstimatedIncomeTaxRate: cfg.Reports.EstimatedIncomeRate,
	}
	generator := reports.NewGenerator(transactions, connections, settings)
	reportService := reports.NewService(reportStore, generator)

	// Assistant. Optional: requires a Gemini API key in the environment.
	var chatHandler *handlers.ChatHandler
	model, err := assistant.NewModel(ctx, cfg.Assistant.Model)
	if err != nil {
		log.Warn().Err(err).Msg("Assistant disabled - no model available")
	} else {
		assistantService := assistant.NewService(transactions, assistant.NewMemoryMessageStore(), model, 0)
		chatHandler = handlers.NewChatHandler(assistantService, log)
	}

	// Background sync jobs
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.Jobs.BufferSize, cfg.Jobs.Workers, jobStore)

	workerCtx, cancelWorker := context.WithCancel(logger.WithContext(ctx, log))
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job jobs.Job) error {
		syncJob, ok := job.(*jobs.SyncSourceJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", syncJob.JobID).
			Str("user_id", syncJob.UserID).
			Str("source", string(syncJob.Source)).
			Msg("Processing sync job")

		result, err := syncService.Sync(ctx, syncJob.UserID, syncJob.Source)
		if err != nil {
			return err
		}
		syncJob.Synced = result.Synced
		return nil
	}

	go func() {
		log.Info().Msg("Starting sync job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Sync job worker stopped with error")
		}
	}()

	// Handlers
	syncHandler := handlers.NewSyncHandler(syncService, jobQueue, log)
	connectionsHandler := handlers.NewConnectionsHandler(connections, log)
	reportsHandler := handlers.NewReportsHandler(reportService, log)
	transactionsHandler := handlers.NewTransactionsHandler(transactions, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/sync/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		source := strings.TrimPrefix(r.URL.Path, "/api/sync/")
		if source == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Source is required")
			return
		}
		syncHandler.SyncSource(w, r, source)
	})

	mux.HandleFunc("/api/connections", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			connectionsHandler.ListConnections(w, r)
		case http.MethodPost:
			connectionsHandler.SaveConnection(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/reports/types", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			reportsHandler.ListReportTypes(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/reports/generate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			reportsHandler.GenerateReport(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/reports/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		reportID := strings.TrimPrefix(r.URL.Path, "/api/reports/")
		if reportID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Report ID is required")
			return
		}
		reportsHandler.GetReport(w, r, reportID)
	})

	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			transactionsHandler.ListTransactions(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		if chatHandler == nil {
			middleware.WriteError(w, http.StatusServiceUnavailable, "Assistant is not configured")
			return
		}
		chatHandler.Chat(w, r)
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
		if jobID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
			return
		}
		jobsHandler.GetJob(w, r, jobID)
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(
					middleware.Auth(mux),
				),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}
