package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"heat_sequencing/internal/ingest"
	"heat_sequencing/internal/models"
	"heat_sequencing/internal/repository"
	"heat_sequencing/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	maxUploadBytes = 32 << 20 // 32 MB
	uploadField    = "file"

	errUploadMissing = "multipart field 'file' is required"
	errUploadTooBig  = "upload exceeds 32 MB"
	errReconcile     = "failed to reconcile batch"
	errLoadBatches   = "failed to load batches"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// clientError maps errors a caller can fix to a status code. ok is false for internal failures.
func clientError(err error) (code int, ok bool) {
	switch {
	case errors.Is(err, ingest.ErrEmptySheet),
		errors.Is(err, ingest.ErrMissingColumns),
		errors.Is(err, ingest.ErrUnsupportedFormat),
		errors.Is(err, service.ErrEmptyUpload),
		errors.Is(err, service.ErrNoRows),
		errors.Is(err, service.ErrInvalidTimeRange),
		errors.Is(err, service.ErrInvalidKind),
		errors.Is(err, service.ErrMissingBatchID),
		errors.Is(err, service.ErrInvalidDay):
		return http.StatusBadRequest, true
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrUnknownCaster):
		return http.StatusNotFound, true
	}
	return 0, false
}

// respondServiceError writes a 4xx for caller errors and a logged 500 otherwise.
func (h *Handler) respondServiceError(c *gin.Context, err error, userMsg, logKey string, kv ...interface{}) {
	if code, ok := clientError(err); ok {
		c.JSON(code, gin.H{"error": err.Error()})
		return
	}
	h.logAndJSONError(c, http.StatusInternalServerError, userMsg, logKey, err, kv...)
}

// rowsRequest is the JSON body of POST /api/v1/batches/rows.
type rowsRequest struct {
	Source string          `json:"source"`
	Rows   []models.RawRow `json:"rows" binding:"required"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Upload a production sheet
// @Description  Reconciles a CSV or XLSX sheet. Accepted heats and every validation error are returned; sheet-level problems (empty, missing columns, unknown format) are 400.
// @Tags         batches
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Production sheet (.csv or .xlsx)"
// @Success      201   {object}  models.Batch
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      413   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/batches [post]
// @Security     BearerAuth
func (h *Handler) uploadBatch(c *gin.Context) {
	fh, err := c.FormFile(uploadField)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errUploadMissing})
		return
	}
	if fh.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": errUploadTooBig})
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errReconcile, "upload_open_failed", err, "filename", fh.Filename)
		return
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errReconcile, "upload_read_failed", err, "filename", fh.Filename)
		return
	}

	batch, err := h.services.Upload(c.Request.Context(), service.UploadParams{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		h.respondServiceError(c, err, errReconcile, "batch_upload_failed", "filename", fh.Filename)
		return
	}

	h.logReconciled(c, batch)
	c.JSON(http.StatusCreated, batch)
}

// @Summary      Reconcile JSON rows
// @Tags         batches
// @Accept       json
// @Produce      json
// @Param        input  body      rowsRequest  true  "source name and raw rows"
// @Success      201    {object}  models.Batch
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /api/v1/batches/rows [post]
// @Security     BearerAuth
func (h *Handler) submitRows(c *gin.Context) {
	var req rowsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid body: %v", err)})
		return
	}

	batch, err := h.services.ReconcileRows(c.Request.Context(), req.Source, req.Rows)
	if err != nil {
		h.respondServiceError(c, err, errReconcile, "batch_rows_failed", "source", req.Source)
		return
	}

	h.logReconciled(c, batch)
	c.JSON(http.StatusCreated, batch)
}

func (h *Handler) logReconciled(c *gin.Context, batch models.Batch) {
	if h.log == nil {
		return
	}
	h.log.Infow("batch_reconciled",
		"batch_id", batch.ID,
		"operator_id", operatorID(c),
		"source", batch.SourceName,
		"rows", batch.RowCount,
		"accepted", batch.HeatCount,
		"excluded", batch.ExcludedCount,
		"errors", len(batch.Errors),
	)
}
