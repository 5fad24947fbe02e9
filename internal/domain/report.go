package domain

import (
	"time"
)

// ReportStatus tracks a report through its lifecycle. Completed and failed
// are terminal; a failed report must be regenerated explicitly.
type ReportStatus string

const (
	ReportStatusGenerating ReportStatus = "generating"
	ReportStatusCompleted  ReportStatus = "completed"
	ReportStatusFailed     ReportStatus = "failed"
)

// Report records one report-generation request and its outcome. Data holds
// the generator's structured payload (shape varies by kind); ArtifactURL
// holds the rendered HTML as a base64 data URL until PDF generation lands.
type Report struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	Kind        string       `json:"reportType"`
	StartDate   time.Time    `json:"startDate"`
	EndDate     time.Time    `json:"endDate"`
	Status      ReportStatus `json:"status"`
	Data        any          `json:"data,omitempty"`
	Error       string       `json:"error,omitempty"`
	ArtifactURL string       `json:"pdfUrl,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
}
