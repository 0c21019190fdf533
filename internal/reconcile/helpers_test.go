package reconcile

import (
	"testing"
	"time"

	"heat_sequencing/internal/catalog"
	"heat_sequencing/internal/models"
)

func intPtr(v int) *int { return &v }

func utc(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func fixedNow() time.Time { return utc(2025, time.March, 14, 15, 0) }

func newTestEngine() *Engine {
	return NewEngine(catalog.Default(), Options{Now: fixedNow})
}

func row(heat, unit, start, end string, idx int) models.RawRow {
	return models.RawRow{HeatID: heat, SteelGrade: "SAE1006", Unit: unit, StartStr: start, EndStr: end, RawIndex: idx}
}

func findHeat(t *testing.T, res models.Result, id string) models.Heat {
	t.Helper()
	for _, h := range res.ValidHeats {
		if h.HeatID == id {
			return h
		}
	}
	t.Fatalf("heat %s not in valid heats: %+v", id, res.ValidHeats)
	return models.Heat{}
}

func assertExcluded(t *testing.T, res models.Result, id string) {
	t.Helper()
	for _, h := range res.ValidHeats {
		if h.HeatID == id {
			t.Fatalf("heat %s must be excluded", id)
		}
	}
}

func errorsOf(res models.Result, id string, kind models.ErrorKind) []models.ValidationError {
	var out []models.ValidationError
	for _, e := range res.Errors {
		if e.HeatID == id && e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func durations(h models.Heat) []int {
	out := make([]int, len(h.Operations))
	for i, op := range h.Operations {
		out[i] = op.DurationMinutes
	}
	return out
}

func idles(h models.Heat) []int {
	out := make([]int, len(h.Operations))
	for i, op := range h.Operations {
		out[i] = op.IdleMinutes
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
