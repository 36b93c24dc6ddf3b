package importer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventhub/backend/internal/middleware"
	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/pkg/queue"
	"github.com/eventhub/backend/pkg/response"
)

// MaxDocumentBytes caps the size of a bulk document body.
const MaxDocumentBytes = 8 << 20

// Applier applies a bulk document.
type Applier interface {
	Apply(ctx context.Context, doc *Document) (*Result, error)
}

// Enqueuer schedules bulk imports on the worker.
type Enqueuer interface {
	EnqueueBulkImport(ctx context.Context, payload queue.BulkImportPayload) (*queue.Job, error)
}

// Handler handles the administrative bulk load endpoints.
type Handler struct {
	importer Applier
	queue    Enqueuer
	logger   *zap.Logger
}

// NewHandler creates an import handler.
func NewHandler(importer Applier, q Enqueuer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{importer: importer, queue: q, logger: logger}
}

// Import handles POST /admin/import: the document is applied before the response.
func (h *Handler) Import(c *gin.Context) {
	_, doc, ok := readDocument(c)
	if !ok {
		return
	}
	res, err := h.importer.Apply(c.Request.Context(), doc)
	if err != nil {
		h.logger.Error("bulk import aborted", zap.Error(err))
		response.FromError(c, err)
		return
	}
	response.OK(c, res)
}

// ImportAsync handles POST /admin/import/async: the document is queued for the worker.
func (h *Handler) ImportAsync(c *gin.Context) {
	raw, _, ok := readDocument(c)
	if !ok {
		return
	}
	payload := queue.BulkImportPayload{Document: raw}
	if userID, ok := middleware.UserID(c); ok {
		payload.RequestedBy = userID
	}
	job, err := h.queue.EnqueueBulkImport(c.Request.Context(), payload)
	if err != nil {
		h.logger.Error("enqueue bulk import failed", zap.Error(err))
		response.FromError(c, models.Unavailable("enqueue bulk import", err))
		return
	}
	response.Accepted(c, gin.H{"job_id": job.ID})
}

func readDocument(c *gin.Context) (json.RawMessage, *Document, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxDocumentBytes))
	if err != nil {
		response.BadRequest(c, "request body too large or unreadable")
		return nil, nil, false
	}
	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		response.BadRequest(c, "invalid bulk document: "+err.Error())
		return nil, nil, false
	}
	if len(doc.Users)+len(doc.Events)+len(doc.Activities)+len(doc.Registrations) == 0 {
		response.BadRequest(c, "bulk document is empty")
		return nil, nil, false
	}
	return body, &doc, true
}
