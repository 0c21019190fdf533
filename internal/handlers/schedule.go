package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      Caster sequence for a production day
// @Description  Accepted heats cast on the unit during the production day (08:00 to 08:00), in cast order across all uploads. Defaults to the current production day.
// @Tags         casters
// @Produce      json
// @Param        unit  path   string  true   "Casting unit"  example(TSC1)
// @Param        day   query  string  false  "Production day YYYY-MM-DD"  example(2025-03-14)
// @Success      200   {object}  map[string]interface{}  "unit, day, count, heats"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/casters/{unit}/sequence [get]
// @Security     BearerAuth
func (h *Handler) casterSequence(c *gin.Context) {
	unit := c.Param("unit")
	day := c.Query("day")

	heats, err := h.services.Schedule.CasterSequence(c.Request.Context(), unit, day)
	if err != nil {
		h.respondServiceError(c, err, "failed to load caster sequence", "caster_sequence_failed", "unit", unit, "day", day)
		return
	}
	if day == "" && len(heats) > 0 {
		day = heats[0].ProductionDay
	}
	c.JSON(http.StatusOK, gin.H{
		"unit":  unit,
		"day":   day,
		"count": len(heats),
		"heats": heats,
	})
}
