package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"heat_sequencing/internal/models"
)

var (
	// ErrNotFound is returned when a requested batch or heat does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUsernameTaken is returned by Create when the username is already registered.
	ErrUsernameTaken = errors.New("username already taken")
)

type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.Operator, error)
}

type BatchRepo interface {
	Save(ctx context.Context, b models.Batch) error
	Get(ctx context.Context, id string) (models.Batch, error)
	List(ctx context.Context, from, to time.Time) ([]models.BatchSummary, error)
	Latest(ctx context.Context) (models.Batch, error)
	DeleteBefore(ctx context.Context, t time.Time) (int64, error)
}

type HeatRepo interface {
	ListByCaster(ctx context.Context, unit, day string) ([]models.Heat, error)
	Get(ctx context.Context, batchID, heatID string) (models.Heat, error)
}

type ErrorRepo interface {
	List(ctx context.Context, batchID string, kind models.ErrorKind) ([]models.ValidationError, error)
}

type Repository struct {
	BatchRepo BatchRepo
	HeatRepo  HeatRepo
	ErrorRepo ErrorRepo
	Auth      Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		BatchRepo: NewBatchSQLite(db),
		HeatRepo:  NewHeatSQLite(db),
		ErrorRepo: NewErrorSQLite(db),
		Auth:      NewOperatorRepository(db),
	}
}
