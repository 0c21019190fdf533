package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"heat_sequencing/internal/models"
)

type HeatSQLite struct {
	db *sql.DB
}

func NewHeatSQLite(db *sql.DB) *HeatSQLite { return &HeatSQLite{db: db} }

var _ HeatRepo = (*HeatSQLite)(nil)

const heatColumns = `h.heat_id, h.steel_grade, h.is_complete, h.total_duration, h.total_idle,
			h.casting_unit, h.production_day, h.caster_sequence, h.operations`

const (
	selectHeatsByBatchSQL = `
		SELECT ` + heatColumns + `
		FROM heats h WHERE h.batch_id = ?
		ORDER BY h.rowid`

	selectHeatSQL = `
		SELECT ` + heatColumns + `
		FROM heats h WHERE h.batch_id = ? AND h.heat_id = ?`

	// A heat re-reported in a later upload supersedes the earlier copy.
	selectHeatsByCasterSQL = `
		SELECT ` + heatColumns + `
		FROM heats h
		WHERE h.casting_unit = ? AND h.production_day = ?
		  AND h.batch_id = (
			SELECT h2.batch_id FROM heats h2 JOIN batches b2 ON b2.id = h2.batch_id
			WHERE h2.heat_id = h.heat_id
			ORDER BY b2.received_at DESC, b2.id DESC LIMIT 1)
		ORDER BY h.caster_sequence, h.heat_id`
)

// ListByCaster returns the current copy of every heat cast on unit during a production day.
func (r *HeatSQLite) ListByCaster(ctx context.Context, unit, day string) ([]models.Heat, error) {
	return queryHeats(ctx, r.db, selectHeatsByCasterSQL, unit, day)
}

// Get loads one heat of a batch.
func (r *HeatSQLite) Get(ctx context.Context, batchID, heatID string) (models.Heat, error) {
	heats, err := queryHeats(ctx, r.db, selectHeatSQL, batchID, heatID)
	if err != nil {
		return models.Heat{}, err
	}
	if len(heats) == 0 {
		return models.Heat{}, ErrNotFound
	}
	return heats[0], nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryHeats(ctx context.Context, db queryer, q string, args ...any) ([]models.Heat, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query heats: %w", err)
	}
	defer rows.Close()

	out := make([]models.Heat, 0, 16)
	for rows.Next() {
		var (
			h                models.Heat
			grade, unit, day sql.NullString
			seq              sql.NullInt64
			opsJSON          string
		)
		if err := rows.Scan(&h.HeatID, &grade, &h.IsComplete, &h.TotalDuration, &h.TotalIdle,
			&unit, &day, &seq, &opsJSON); err != nil {
			return nil, fmt.Errorf("scan heat: %w", err)
		}
		h.SteelGrade = grade.String
		h.CastingUnit = unit.String
		h.ProductionDay = day.String
		h.CasterSequence = int(seq.Int64)
		if err := json.Unmarshal([]byte(opsJSON), &h.Operations); err != nil {
			return nil, fmt.Errorf("decode operations of heat %s: %w", h.HeatID, err)
		}
		for i := range h.Operations {
			h.Operations[i].StartTime = h.Operations[i].StartTime.UTC()
			h.Operations[i].EndTime = h.Operations[i].EndTime.UTC()
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
