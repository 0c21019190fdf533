package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"heat_sequencing/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errFromInvalid = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid   = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

// isDateOnly reports whether the query string represents a date without time component.
func isDateOnly(s string) bool {
	return !strings.ContainsAny(s, "T ")
}

// @Summary      List batches
// @Description  Batch summaries, newest first, filtered by receive time (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'). A date-only 'to' is inclusive of that whole day.
// @Tags         batches
// @Produce      json
// @Param        from  query   string  false  "Start of range"  example(2025-03-01)
// @Param        to    query   string  false  "End of range. Date-only treated as end of day."  example(2025-03-31)
// @Success      200   {object}  map[string]interface{}  "count, batches"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/batches [get]
// @Security     BearerAuth
func (h *Handler) listBatches(c *gin.Context) {
	var (
		from time.Time
		to   time.Time
		err  error
	)
	if qs := c.Query("from"); qs != "" {
		from, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errFromInvalid})
			return
		}
	}
	if qs := c.Query("to"); qs != "" {
		to, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errToInvalid})
			return
		}
		if isDateOnly(qs) {
			to = to.Add(24*time.Hour - time.Nanosecond).UTC()
		}
	}

	batches, err := h.services.BatchLog.List(c.Request.Context(), service.BatchFilter{From: from, To: to})
	if err != nil {
		h.respondServiceError(c, err, errLoadBatches, "batches_list_failed", "from", from, "to", to)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(batches),
		"batches": batches,
	})
}

// @Summary      Most recent batch
// @Tags         batches
// @Produce      json
// @Success      200  {object}  models.Batch
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/batches/latest [get]
// @Security     BearerAuth
func (h *Handler) latestBatch(c *gin.Context) {
	batch, err := h.services.BatchLog.Latest(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, err, errLoadBatches, "batch_latest_failed")
		return
	}
	c.JSON(http.StatusOK, batch)
}

// @Summary      Get a batch
// @Tags         batches
// @Produce      json
// @Param        id   path      string  true  "Batch id"
// @Success      200  {object}  models.Batch
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/batches/{id} [get]
// @Security     BearerAuth
func (h *Handler) getBatch(c *gin.Context) {
	id := c.Param("id")
	batch, err := h.services.BatchLog.Get(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, err, errLoadBatches, "batch_get_failed", "batch_id", id)
		return
	}
	c.JSON(http.StatusOK, batch)
}

// @Summary      Validation errors of a batch
// @Tags         batches
// @Produce      json
// @Param        id    path   string  true   "Batch id"
// @Param        kind  query  string  false  "Error kind"  Enums(UNIT,FORMAT,TIME,ROUTING,PLACEHOLDER)
// @Success      200   {object}  map[string]interface{}  "count, errors"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/batches/{id}/errors [get]
// @Security     BearerAuth
func (h *Handler) batchErrors(c *gin.Context) {
	id := c.Param("id")
	errs, err := h.services.BatchLog.Errors(c.Request.Context(), service.ErrorFilter{
		BatchID: id,
		Kind:    c.Query("kind"),
	})
	if err != nil {
		h.respondServiceError(c, err, errLoadBatches, "batch_errors_failed", "batch_id", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(errs),
		"errors": errs,
	})
}

func parseQueryTime(s string) (time.Time, error) {
	// Try multiple accepted formats, normalizing to UTC.
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf(
		"invalid time format %q, expected one of: "+
			"RFC3339 (e.g. 2025-08-27T15:04:05Z), "+
			"'YYYY-MM-DD HH:MM:SS', "+
			"'YYYY-MM-DD'",
		s,
	)
}
