package reconcile

import (
	"strings"

	"heat_sequencing/internal/models"
)

// HeatRows is the slice of raw rows reported for one heat, in input order.
type HeatRows struct {
	HeatID string
	Rows   []models.RawRow
}

// GroupByHeat partitions rows by heat id. Heats keep the order of their first row
// and rows keep their input order within a heat.
func GroupByHeat(rows []models.RawRow) []HeatRows {
	index := make(map[string]int)
	var out []HeatRows
	for _, r := range rows {
		id := strings.TrimSpace(r.HeatID)
		i, ok := index[id]
		if !ok {
			i = len(out)
			index[id] = i
			out = append(out, HeatRows{HeatID: id})
		}
		out[i].Rows = append(out[i].Rows, r)
	}
	return out
}

// SteelGrade returns the first non-empty grade reported for the heat.
func (h HeatRows) SteelGrade() string {
	for _, r := range h.Rows {
		if g := strings.TrimSpace(r.SteelGrade); g != "" {
			return g
		}
	}
	return ""
}

func normalizeUnit(u string) string {
	return strings.ToUpper(strings.TrimSpace(u))
}
