package reconcile

import (
	"fmt"
	"slices"
	"strings"

	"heat_sequencing/internal/models"
)

// SortChronologically orders operations by resolved start time. Ties keep resolution order.
func SortChronologically(ops []models.Operation) {
	slices.SortStableFunc(ops, func(a, b models.Operation) int {
		return a.StartTime.Compare(b.StartTime)
	})
}

// ValidateRouting checks the process-flow invariants of a heat's operations:
// at most one operation per group except LF, and no LF without a BOF.
// Every returned error is fatal for the heat.
func ValidateRouting(heatID string, ops []models.Operation) []models.ValidationError {
	var errs []models.ValidationError

	unitsByGroup := make(map[string][]string)
	var groups []string
	for _, op := range ops {
		if _, seen := unitsByGroup[op.Group]; !seen {
			groups = append(groups, op.Group)
		}
		unitsByGroup[op.Group] = append(unitsByGroup[op.Group], op.Unit)
	}

	for _, g := range groups {
		units := unitsByGroup[g]
		if g == models.GroupLF || len(units) < 2 {
			continue
		}
		errs = append(errs, models.ValidationError{
			HeatID:  heatID,
			Kind:    models.KindRouting,
			Unit:    strings.Join(units, ","),
			Message: fmt.Sprintf("group %s visited %d times (%s); only LF may repeat", g, len(units), strings.Join(units, ", ")),
		})
	}

	if lf, ok := unitsByGroup[models.GroupLF]; ok {
		if _, hasBOF := unitsByGroup[models.GroupBOF]; !hasBOF {
			errs = append(errs, models.ValidationError{
				HeatID:  heatID,
				Kind:    models.KindRouting,
				Unit:    lf[0],
				Message: fmt.Sprintf("LF operation %s found without a BOF operation", strings.Join(lf, ", ")),
			})
		}
	}
	return errs
}

// DetectOverlaps reports every operation that starts before its chronological predecessor ends.
// Overlaps are warnings: they never exclude the heat.
func DetectOverlaps(heatID string, ops []models.Operation) []models.ValidationError {
	var errs []models.ValidationError
	for i := 1; i < len(ops); i++ {
		prev, cur := ops[i-1], ops[i]
		if !cur.StartTime.Before(prev.EndTime) {
			continue
		}
		errs = append(errs, models.ValidationError{
			HeatID: heatID,
			Kind:   models.KindTime,
			Unit:   cur.Unit,
			Message: fmt.Sprintf("%s starts %d min before %s finishes",
				cur.Unit, roundMinutes(prev.EndTime.Sub(cur.StartTime)), prev.Unit),
		})
	}
	return errs
}

func hasFatal(errs []models.ValidationError) bool {
	return slices.ContainsFunc(errs, func(e models.ValidationError) bool { return e.Kind.Fatal() })
}
