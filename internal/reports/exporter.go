package reports

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/pkg/queue"
	"github.com/eventhub/backend/pkg/storage"
)

// Store is the export bookkeeping the worker and handler use.
type Store interface {
	Create(ctx context.Context, rep *models.ReportExport) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ReportExport, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.ReportExport, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkCompleted(ctx context.Context, id uuid.UUID, key string, rows int) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RegistrationLister lists the registrations of an event.
type RegistrationLister interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Registration, error)
}

// Uploader stores a rendered file.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) error
}

// Exporter processes report_export jobs: render the event's registrations and upload them.
type Exporter struct {
	reports       Store
	registrations RegistrationLister
	uploader      Uploader
	logger        *zap.Logger
}

// NewExporter creates a report exporter.
func NewExporter(reports Store, registrations RegistrationLister, uploader Uploader, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{reports: reports, registrations: registrations, uploader: uploader, logger: logger}
}

// Process executes one report export job.
func (e *Exporter) Process(ctx context.Context, job *queue.Job) error {
	var payload queue.ReportExportPayload
	if err := job.Decode(&payload); err != nil {
		return err
	}
	rep, err := e.reports.GetByID(ctx, payload.ReportID)
	if err != nil {
		return fmt.Errorf("load report %s: %w", payload.ReportID, err)
	}
	if rep.Status == models.ReportStatusCompleted {
		e.logger.Info("report already completed", zap.String("report_id", rep.ID.String()))
		return nil
	}
	if err := e.reports.MarkProcessing(ctx, rep.ID); err != nil {
		return err
	}

	key, rows, err := e.export(ctx, rep)
	if err != nil {
		if markErr := e.reports.MarkFailed(ctx, rep.ID, err.Error()); markErr != nil {
			e.logger.Error("mark report failed", zap.Error(markErr), zap.String("report_id", rep.ID.String()))
		}
		return err
	}
	if err := e.reports.MarkCompleted(ctx, rep.ID, key, rows); err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	e.logger.Info("report export completed",
		zap.String("report_id", rep.ID.String()), zap.String("s3_key", key), zap.Int("rows", rows))
	return nil
}

func (e *Exporter) export(ctx context.Context, rep *models.ReportExport) (string, int, error) {
	regs, err := e.registrations.ListByEvent(ctx, rep.EventID)
	if err != nil {
		return "", 0, fmt.Errorf("list registrations: %w", err)
	}
	var buf bytes.Buffer
	rows, err := WriteRegistrations(&buf, regs)
	if err != nil {
		return "", 0, fmt.Errorf("render csv: %w", err)
	}
	key := storage.ReportKey(rep.EventID.String(), rep.ID.String())
	if err := e.uploader.Upload(ctx, key, storage.ContentTypeCSV, &buf); err != nil {
		return "", 0, fmt.Errorf("s3 upload: %w", err)
	}
	return key, rows, nil
}
