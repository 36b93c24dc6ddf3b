package reports

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventhub/backend/internal/middleware"
	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/pkg/queue"
	"github.com/eventhub/backend/pkg/response"
)

// EventGetter loads one event.
type EventGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

// Enqueuer schedules export jobs.
type Enqueuer interface {
	EnqueueReportExport(ctx context.Context, payload queue.ReportExportPayload) (*queue.Job, error)
}

// ObjectStore signs download links and removes rendered files.
type ObjectStore interface {
	PresignedDownloadURL(ctx context.Context, key string) (string, error)
	DeleteObject(ctx context.Context, key string) error
}

// Handler handles report export endpoints.
type Handler struct {
	reports Store
	events  EventGetter
	queue   Enqueuer
	objects ObjectStore
	logger  *zap.Logger
}

// NewHandler creates a reports handler.
// objects may be nil when storage is not configured.
func NewHandler(reports Store, events EventGetter, q Enqueuer, objects ObjectStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{reports: reports, events: events, queue: q, objects: objects, logger: logger}
}

// Create handles POST /events/:id/reports (staff). The export runs in the worker.
func (h *Handler) Create(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	ctx := c.Request.Context()
	if _, err := h.events.GetByID(ctx, eventID); err != nil {
		response.FromError(c, err)
		return
	}
	rep := &models.ReportExport{EventID: eventID}
	if userID, ok := middleware.UserID(c); ok {
		rep.RequestedBy = &userID
	}
	if err := h.reports.Create(ctx, rep); err != nil {
		response.FromError(c, err)
		return
	}
	job, err := h.queue.EnqueueReportExport(ctx, queue.ReportExportPayload{ReportID: rep.ID, EventID: eventID})
	if err != nil {
		h.logger.Error("enqueue report export failed", zap.Error(err), zap.String("report_id", rep.ID.String()))
		_ = h.reports.MarkFailed(ctx, rep.ID, "could not be queued")
		response.FromError(c, models.Unavailable("enqueue report export", err))
		return
	}
	h.logger.Info("report export queued", zap.String("report_id", rep.ID.String()), zap.String("job_id", job.ID))
	response.Accepted(c, rep)
}

// ListByEvent handles GET /events/:id/reports (staff).
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	list, err := h.reports.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /reports/:id (staff). Completed exports carry a short-lived download URL.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid report id")
		return
	}
	ctx := c.Request.Context()
	rep, err := h.reports.GetByID(ctx, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if rep.Status == models.ReportStatusCompleted && rep.S3Key != "" && h.objects != nil {
		url, err := h.objects.PresignedDownloadURL(ctx, rep.S3Key)
		if err != nil {
			h.logger.Warn("presign report failed", zap.Error(err), zap.String("report_id", id.String()))
		} else {
			rep.DownloadURL = url
		}
	}
	response.OK(c, rep)
}

// Delete handles DELETE /reports/:id (staff): the row and its rendered file.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid report id")
		return
	}
	ctx := c.Request.Context()
	rep, err := h.reports.GetByID(ctx, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if rep.Status == models.ReportStatusProcessing {
		response.Conflict(c, "report export is in progress")
		return
	}
	if rep.S3Key != "" && h.objects != nil {
		if err := h.objects.DeleteObject(ctx, rep.S3Key); err != nil {
			response.FromError(c, models.Unavailable("delete report file", err))
			return
		}
	}
	if err := h.reports.Delete(ctx, id); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}
