package repository

import (
	"context"
	"database/sql"
	"fmt"

	"heat_sequencing/internal/models"
)

type ErrorSQLite struct {
	db *sql.DB
}

func NewErrorSQLite(db *sql.DB) *ErrorSQLite { return &ErrorSQLite{db: db} }

var _ ErrorRepo = (*ErrorSQLite)(nil)

const (
	selectErrorsSQL = `
		SELECT heat_id, kind, unit, message, row_index
		FROM validation_errors WHERE batch_id = ?
		ORDER BY position`
	selectErrorsByKindSQL = `
		SELECT heat_id, kind, unit, message, row_index
		FROM validation_errors WHERE batch_id = ? AND kind = ?
		ORDER BY position`
)

// List returns the errors of a batch in reporting order, optionally narrowed to one kind.
func (r *ErrorSQLite) List(ctx context.Context, batchID string, kind models.ErrorKind) ([]models.ValidationError, error) {
	if kind == "" {
		return queryErrors(ctx, r.db, selectErrorsSQL, batchID)
	}
	return queryErrors(ctx, r.db, selectErrorsByKindSQL, batchID, string(kind))
}

func queryErrors(ctx context.Context, db queryer, q string, args ...any) ([]models.ValidationError, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query validation errors: %w", err)
	}
	defer rows.Close()

	out := make([]models.ValidationError, 0, 16)
	for rows.Next() {
		var (
			e        models.ValidationError
			kind     string
			unit     sql.NullString
			rowIndex sql.NullInt64
		)
		if err := rows.Scan(&e.HeatID, &kind, &unit, &e.Message, &rowIndex); err != nil {
			return nil, fmt.Errorf("scan validation error: %w", err)
		}
		e.Kind = models.ErrorKind(kind)
		e.Unit = unit.String
		if rowIndex.Valid {
			idx := int(rowIndex.Int64)
			e.RowIndex = &idx
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
