package models

import (
	"time"

	"github.com/google/uuid"
)

// ReportStatus represents the export lifecycle.
const (
	ReportStatusPending    = "pending"
	ReportStatusProcessing = "processing"
	ReportStatusCompleted  = "completed"
	ReportStatusFailed     = "failed"
)

// ReportExport is a registrations export of one event (worker → S3).
type ReportExport struct {
	ID           uuid.UUID  `json:"id"`
	EventID      uuid.UUID  `json:"event_id"`
	RequestedBy  *uuid.UUID `json:"requested_by,omitempty"`
	Status       string     `json:"status"`
	S3Key        string     `json:"s3_key,omitempty"`
	RowCount     int        `json:"row_count"`
	ErrorMessage string     `json:"error_message,omitempty"`
	DownloadURL  string     `json:"download_url,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}
