package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"heat_sequencing/internal/models"
)

type BatchSQLite struct {
	db *sql.DB
}

func NewBatchSQLite(db *sql.DB) *BatchSQLite { return &BatchSQLite{db: db} }

var _ BatchRepo = (*BatchSQLite)(nil)

const (
	insertBatchSQL = `
		INSERT INTO batches (id, source_name, received_at, row_count, heat_count, excluded_count, archive_key)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	insertHeatSQL = `
		INSERT INTO heats (batch_id, heat_id, steel_grade, is_complete, total_duration, total_idle,
			casting_unit, production_day, caster_sequence, operations)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	insertErrorSQL = `
		INSERT INTO validation_errors (batch_id, position, heat_id, kind, unit, message, row_index)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	selectBatchSQL = `
		SELECT id, source_name, received_at, row_count, heat_count, excluded_count, archive_key
		FROM batches WHERE id = ?
	`
	selectLatestBatchIDSQL = `SELECT id FROM batches ORDER BY received_at DESC, id DESC LIMIT 1`
	deleteBatchesBeforeSQL = `DELETE FROM batches WHERE received_at < ?`

	listBatchesSQL = `
		SELECT b.id, b.source_name, b.received_at, b.row_count, b.heat_count, b.excluded_count, b.archive_key,
			e.kind, COUNT(e.id)
		FROM batches b
		LEFT JOIN validation_errors e ON e.batch_id = b.id`
	listBatchesTailSQL = `
		GROUP BY b.id, e.kind
		ORDER BY b.received_at DESC, b.id DESC`
)

// Save writes the batch, its accepted heats and its errors in one transaction.
func (r *BatchSQLite) Save(ctx context.Context, b models.Batch) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, insertBatchSQL,
		b.ID, b.SourceName, b.ReceivedAt.UTC(), b.RowCount, b.HeatCount, b.ExcludedCount, nullString(b.ArchiveKey),
	); err != nil {
		return fmt.Errorf("insert batch %s: %w", b.ID, err)
	}

	for _, h := range b.Heats {
		ops, err := json.Marshal(h.Operations)
		if err != nil {
			return fmt.Errorf("marshal operations of heat %s: %w", h.HeatID, err)
		}
		if _, err := tx.ExecContext(ctx, insertHeatSQL,
			b.ID, h.HeatID, h.SteelGrade, h.IsComplete, h.TotalDuration, h.TotalIdle,
			nullString(h.CastingUnit), nullString(h.ProductionDay), nullInt(h.CasterSequence), string(ops),
		); err != nil {
			return fmt.Errorf("insert heat %s: %w", h.HeatID, err)
		}
	}

	for i, e := range b.Errors {
		var rowIndex any
		if e.RowIndex != nil {
			rowIndex = *e.RowIndex
		}
		if _, err := tx.ExecContext(ctx, insertErrorSQL,
			b.ID, i, e.HeatID, string(e.Kind), nullString(e.Unit), e.Message, rowIndex,
		); err != nil {
			return fmt.Errorf("insert validation error %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch %s: %w", b.ID, err)
	}
	return nil
}

// Get loads a batch with its heats and errors. Missing batches yield ErrNotFound.
func (r *BatchSQLite) Get(ctx context.Context, id string) (models.Batch, error) {
	var (
		b          models.Batch
		archiveKey sql.NullString
	)
	err := r.db.QueryRowContext(ctx, selectBatchSQL, id).Scan(
		&b.ID, &b.SourceName, &b.ReceivedAt, &b.RowCount, &b.HeatCount, &b.ExcludedCount, &archiveKey,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Batch{}, ErrNotFound
		}
		return models.Batch{}, fmt.Errorf("select batch %s: %w", id, err)
	}
	b.ReceivedAt = b.ReceivedAt.UTC()
	b.ArchiveKey = archiveKey.String

	heats, err := queryHeats(ctx, r.db, selectHeatsByBatchSQL, id)
	if err != nil {
		return models.Batch{}, err
	}
	b.Heats = heats

	errs, err := queryErrors(ctx, r.db, selectErrorsSQL, id)
	if err != nil {
		return models.Batch{}, err
	}
	b.Errors = errs
	return b, nil
}

// Latest returns the most recently received batch.
func (r *BatchSQLite) Latest(ctx context.Context) (models.Batch, error) {
	var id string
	if err := r.db.QueryRowContext(ctx, selectLatestBatchIDSQL).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Batch{}, ErrNotFound
		}
		return models.Batch{}, fmt.Errorf("select latest batch: %w", err)
	}
	return r.Get(ctx, id)
}

// List returns batch summaries received within [from, to] (zero bounds are open), newest first.
func (r *BatchSQLite) List(ctx context.Context, from, to time.Time) ([]models.BatchSummary, error) {
	var (
		conds []string
		args  []any
	)
	if !from.IsZero() {
		conds = append(conds, "b.received_at >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		conds = append(conds, "b.received_at <= ?")
		args = append(args, to.UTC())
	}

	q := listBatchesSQL
	if len(conds) > 0 {
		q += "\n\t\tWHERE " + strings.Join(conds, " AND ")
	}
	q += listBatchesTailSQL

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	out := make([]models.BatchSummary, 0, 16)
	for rows.Next() {
		var (
			s          models.BatchSummary
			archiveKey sql.NullString
			kind       sql.NullString
			count      int
		)
		if err := rows.Scan(&s.ID, &s.SourceName, &s.ReceivedAt, &s.RowCount, &s.HeatCount, &s.ExcludedCount,
			&archiveKey, &kind, &count); err != nil {
			return nil, fmt.Errorf("scan batch summary: %w", err)
		}
		// one row per (batch, kind); fold consecutive rows of the same batch
		if n := len(out); n == 0 || out[n-1].ID != s.ID {
			s.ReceivedAt = s.ReceivedAt.UTC()
			s.ArchiveKey = archiveKey.String
			out = append(out, s)
		}
		if kind.Valid && count > 0 {
			last := &out[len(out)-1]
			if last.ErrorCounts == nil {
				last.ErrorCounts = make(map[models.ErrorKind]int)
			}
			last.ErrorCounts[models.ErrorKind(kind.String)] = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteBefore removes batches received before t; heats and errors go with them.
func (r *BatchSQLite) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteBatchesBeforeSQL, t.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete batches before %s: %w", t.UTC().Format(time.RFC3339), err)
	}
	return res.RowsAffected()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}
