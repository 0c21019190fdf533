package reconcile

import (
	"math"
	"time"

	"heat_sequencing/internal/models"
)

func roundMinutes(d time.Duration) int {
	return int(math.Round(d.Minutes()))
}

// ComputeMetrics fills durations, idle gaps, totals and completeness on a heat whose
// operations are already in chronological order.
func ComputeMetrics(h *models.Heat) {
	h.TotalDuration, h.TotalIdle = 0, 0
	h.IsComplete, h.CastingUnit = false, ""

	for i := range h.Operations {
		op := &h.Operations[i]
		op.DurationMinutes = roundMinutes(op.EndTime.Sub(op.StartTime))
		op.IdleMinutes = 0
		if i > 0 {
			op.IdleMinutes = max(0, roundMinutes(op.StartTime.Sub(h.Operations[i-1].EndTime)))
		}
		h.TotalDuration += op.DurationMinutes
		h.TotalIdle += op.IdleMinutes

		if op.Group == models.GroupCaster && !h.IsComplete {
			h.IsComplete = true
			h.CastingUnit = op.Unit
		}
	}
}
