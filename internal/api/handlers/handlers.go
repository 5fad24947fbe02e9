// Package handlers implements the HTTP endpoints for sync, reports,
// transactions, the assistant, and sync job status.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/pashoot/reports/internal/api/middleware"
	"github.com/pashoot/reports/internal/assistant"
	"github.com/pashoot/reports/internal/connect"
	"github.com/pashoot/reports/internal/domain"
	"github.com/pashoot/reports/internal/jobs"
	"github.com/pashoot/reports/internal/reports"
	"github.com/pashoot/reports/internal/store"
)

const dateLayout = "2006-01-02"

// SyncHandler handles connector sync endpoints.
type SyncHandler struct {
	sync      *connect.Service
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(sync *connect.Service, publisher jobs.Publisher, log zerolog.Logger) *SyncHandler {
	return &SyncHandler{sync: sync, publisher: publisher, log: log}
}

// syncResponse mirrors the shape the frontend expects: success plus
// either the sync counters or an error message.
type syncResponse struct {
	Success bool   `json:"success"`
	Synced  int    `json:"syncedCount,omitempty"`
	Skipped int    `json:"skipped,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SyncSource handles POST /api/sync/{source}. It runs the connector
// synchronously; pass async=true to enqueue a background job instead.
func (h *SyncHandler) SyncSource(w http.ResponseWriter, r *http.Request, source string) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	if r.URL.Query().Get("async") == "true" {
		job := &jobs.SyncSourceJob{
			UserID: userID,
			Source: domain.Source(source),
		}
		if err := h.publisher.PublishSyncSource(ctx, job); err != nil {
			h.log.Error().Err(err).Str("source", source).Msg("Failed to enqueue sync job")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue sync job")
			return
		}
		middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
			"job_id": job.JobID,
			"source": source,
			"status": string(job.Status),
		})
		return
	}

	result, err := h.sync.Sync(ctx, userID, domain.Source(source))
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, connect.ErrUnknownSource):
			status = http.StatusBadRequest
		case errors.Is(err, connect.ErrNotConnected), errors.Is(err, connect.ErrMissingConfig):
			status = http.StatusBadRequest
		}
		middleware.WriteJSON(w, status, syncResponse{Success: false, Error: err.Error()})
		return
	}

	middleware.WriteJSON(w, http.StatusOK, syncResponse{
		Success: true,
		Synced:  result.Synced,
		Skipped: result.Skipped,
		Message: result.Message,
	})
}

// ConnectionsHandler handles connection listing.
type ConnectionsHandler struct {
	connections store.ConnectionStore
	log         zerolog.Logger
}

// NewConnectionsHandler creates a new connections handler.
func NewConnectionsHandler(connections store.ConnectionStore, log zerolog.Logger) *ConnectionsHandler {
	return &ConnectionsHandler{connections: connections, log: log}
}

// ListConnections handles GET /api/connections
func (h *ConnectionsHandler) ListConnections(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	conns, err := h.connections.ListByUser(ctx, userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list connections")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list connections")
		return
	}

	if conns == nil {
		conns = []domain.Connection{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"connections": conns,
		"count":       len(conns),
	})
}

// SaveConnection handles POST /api/connections. The OAuth dance happens
// in the frontend; this stores the resulting token and metadata.
func (h *ConnectionsHandler) SaveConnection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	var req struct {
		Source      string            `json:"source"`
		AccessToken string            `json:"accessToken"`
		Metadata    map[string]string `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Source == "" || req.AccessToken == "" {
		middleware.WriteError(w, http.StatusBadRequest, "source and accessToken are required")
		return
	}

	conn := &domain.Connection{
		UserID:      userID,
		Source:      domain.Source(req.Source),
		AccessToken: req.AccessToken,
		Metadata:    req.Metadata,
	}
	if err := h.connections.Save(ctx, conn); err != nil {
		h.log.Error().Err(err).Str("source", req.Source).Msg("Failed to save connection")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save connection")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, conn)
}

// ReportsHandler handles report generation and retrieval.
type ReportsHandler struct {
	reports *reports.Service
	log     zerolog.Logger
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(svc *reports.Service, log zerolog.Logger) *ReportsHandler {
	return &ReportsHandler{reports: svc, log: log}
}

// ListReportTypes handles GET /api/reports/types
func (h *ReportsHandler) ListReportTypes(w http.ResponseWriter, r *http.Request) {
	catalog := h.reports.Catalog()
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"reportTypes": catalog,
		"count":       len(catalog),
	})
}

// GenerateReport handles POST /api/reports/generate
func (h *ReportsHandler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	var req struct {
		ReportType string `json:"reportType"`
		StartDate  string `json:"startDate"`
		EndDate    string `json:"endDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ReportType == "" || req.StartDate == "" || req.EndDate == "" {
		middleware.WriteError(w, http.StatusBadRequest, "reportType, startDate and endDate are required")
		return
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid startDate format")
		return
	}
	endDate, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid endDate format")
		return
	}

	report, err := h.reports.Generate(ctx, userID, reports.Kind(req.ReportType), startDate, endDate)
	if err != nil {
		if errors.Is(err, reports.ErrUnknownKind) {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Str("report_type", req.ReportType).Msg("Failed to generate report")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to generate report")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, report)
}

// GetReport handles GET /api/reports/{id}
func (h *ReportsHandler) GetReport(w http.ResponseWriter, r *http.Request, reportID string) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	report, err := h.reports.Get(ctx, userID, reportID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Report not found")
			return
		}
		h.log.Error().Err(err).Str("report_id", reportID).Msg("Failed to get report")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get report")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, report)
}

// TransactionsHandler handles transaction listing.
type TransactionsHandler struct {
	transactions store.TransactionStore
	log          zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(transactions store.TransactionStore, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{transactions: transactions, log: log}
}

// ListTransactions handles GET /api/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	query := r.URL.Query()
	var filter store.TransactionFilter

	if s := query.Get("start_date"); s != "" {
		from, err := time.Parse(dateLayout, s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date format")
			return
		}
		filter.From = &from
	}
	if s := query.Get("end_date"); s != "" {
		to, err := time.Parse(dateLayout, s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid end_date format")
			return
		}
		filter.To = &to
	}
	if s := query.Get("type"); s != "" {
		t := domain.TransactionType(s)
		filter.Type = &t
	}
	if s := query.Get("source"); s != "" {
		src := domain.Source(s)
		filter.Source = &src
	}

	txs, err := h.transactions.List(ctx, userID, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	if txs == nil {
		txs = []domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, txs)
}

// ChatHandler handles assistant queries.
type ChatHandler struct {
	assistant *assistant.Service
	log       zerolog.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(svc *assistant.Service, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{assistant: svc, log: log}
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Message == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Message is required")
		return
	}

	reply, err := h.assistant.Query(ctx, userID, req.Message)
	if err != nil {
		if errors.Is(err, assistant.ErrQuotaExceeded) {
			middleware.WriteError(w, http.StatusTooManyRequests, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Failed to process chat message")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to process message")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, reply)
}

// JobsHandler handles sync job status endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil || job.UserID != middleware.UserID(ctx) {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	filter := jobs.JobFilter{
		UserID: middleware.UserID(ctx),
		Source: domain.Source(query.Get("source")),
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
