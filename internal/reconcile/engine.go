package reconcile

import (
	"errors"
	"fmt"
	"time"

	"heat_sequencing/internal/catalog"
	"heat_sequencing/internal/models"
)

// Options tunes the heuristics of an Engine. Zero values fall back to the defaults.
type Options struct {
	RolloverThreshold  time.Duration
	ProductionDayStart time.Duration
	Now                func() time.Time // "today" when a batch carries no dates
}

// Engine reconciles batches against a unit catalog.
type Engine struct {
	catalog  catalog.Catalog
	resolver TimeResolver
	dayStart time.Duration
	now      func() time.Time
}

// NewEngine builds an engine over cat.
func NewEngine(cat catalog.Catalog, opts Options) *Engine {
	e := &Engine{
		catalog:  cat,
		resolver: TimeResolver{Threshold: opts.RolloverThreshold},
		dayStart: opts.ProductionDayStart,
		now:      opts.Now,
	}
	if e.dayStart <= 0 {
		e.dayStart = DefaultProductionDayStart
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Process reconciles one batch. Heats are returned in order of first appearance;
// errors are grouped per heat in the same order.
func (e *Engine) Process(rows []models.RawRow) models.Result {
	res := models.Result{
		ValidHeats: []models.Heat{},
		Errors:     []models.ValidationError{},
	}
	base := BaseDate(rows, e.now())

	for _, hr := range GroupByHeat(rows) {
		heat, errs, ok := e.reconcileHeat(hr, base)
		res.Errors = append(res.Errors, errs...)
		if ok {
			res.ValidHeats = append(res.ValidHeats, heat)
		}
	}

	AssignCasterSequences(res.ValidHeats, e.dayStart)
	return res
}

// reconcileHeat decides one heat. ok is false when a fatal error excludes it.
func (e *Engine) reconcileHeat(hr HeatRows, base time.Time) (models.Heat, []models.ValidationError, bool) {
	ops, errs := e.resolveOperations(hr.HeatID, ResolutionOrder(hr.Rows), base)
	if hasFatal(errs) {
		return models.Heat{}, errs, false
	}

	SortChronologically(ops)
	routing := ValidateRouting(hr.HeatID, ops)
	errs = append(errs, routing...)
	errs = append(errs, DetectOverlaps(hr.HeatID, ops)...)
	if hasFatal(routing) {
		return models.Heat{}, errs, false
	}

	heat := models.Heat{
		HeatID:     hr.HeatID,
		SteelGrade: hr.SteelGrade(),
		Operations: ops,
	}
	ComputeMetrics(&heat)
	return heat, errs, true
}

// resolveOperations turns ordered rows into operations. Unknown units are dropped with a UNIT error;
// unreadable times produce FORMAT errors, and every row is still visited so all of them are reported.
func (e *Engine) resolveOperations(heatID string, rows []models.RawRow, base time.Time) ([]models.Operation, []models.ValidationError) {
	ops := make([]models.Operation, 0, len(rows))
	var errs []models.ValidationError
	var pred time.Time

	for _, row := range rows {
		rowIndex := row.RawIndex
		entry, ok := e.catalog.Resolve(row.Unit)
		if !ok {
			errs = append(errs, models.ValidationError{
				HeatID:   heatID,
				Kind:     models.KindUnit,
				Unit:     row.Unit,
				Message:  fmt.Sprintf("unknown unit %q; row skipped", row.Unit),
				RowIndex: &rowIndex,
			})
			continue
		}

		start, end, err := e.resolver.ResolveSpan(row.DateStr, row.StartStr, row.EndStr, base, pred)
		if err != nil {
			msg := err.Error()
			var tfe *TimeFormatError
			if errors.As(err, &tfe) {
				msg = fmt.Sprintf("%s for unit %s", tfe.Error(), row.Unit)
			}
			errs = append(errs, models.ValidationError{
				HeatID:   heatID,
				Kind:     models.KindFormat,
				Unit:     row.Unit,
				Message:  msg,
				RowIndex: &rowIndex,
			})
			continue
		}

		order := entry.Order
		if row.SeqNum != nil {
			order = *row.SeqNum
		}
		ops = append(ops, models.Operation{
			Unit:          normalizeUnit(row.Unit),
			Group:         entry.Group,
			SequenceOrder: order,
			StartTime:     start,
			EndTime:       end,
		})
		pred = end
	}
	return ops, errs
}
