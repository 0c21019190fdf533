package service

import (
	"context"
	"time"

	"heat_sequencing/internal/archive"
	"heat_sequencing/internal/catalog"
	"heat_sequencing/internal/logger"
	"heat_sequencing/internal/metrics"
	"heat_sequencing/internal/models"
	"heat_sequencing/internal/reconcile"
	"heat_sequencing/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Reconciler turns uploaded production sheets into stored batches.
type Reconciler interface {
	Upload(ctx context.Context, p UploadParams) (models.Batch, error)
	ReconcileRows(ctx context.Context, source string, rows []models.RawRow) (models.Batch, error)
}

// BatchLog exposes stored batches and their validation errors.
type BatchLog interface {
	List(ctx context.Context, f BatchFilter) ([]models.BatchSummary, error)
	Get(ctx context.Context, id string) (models.Batch, error)
	Latest(ctx context.Context) (models.Batch, error)
	Errors(ctx context.Context, f ErrorFilter) ([]models.ValidationError, error)
}

// Schedule exposes caster sequencing across all stored batches.
type Schedule interface {
	CasterSequence(ctx context.Context, unit, day string) ([]models.Heat, error)
}

// Pruner runs the background loop that drops expired batches.
// Stop via context cancellation in main() for graceful shutdown.
type Pruner interface {
	Run(ctx context.Context, tick time.Duration)
}

type Service struct {
	Reconciler
	BatchLog
	Schedule
	Pruner
	Authorization
}

// Deps carries everything besides the repositories that the services need.
type Deps struct {
	Catalog         catalog.Catalog
	Options         reconcile.Options
	Archive         archive.Store
	Metrics         *metrics.Recorder
	Log             *logger.Logger
	SigningKey      string
	TokenTTL        time.Duration
	RetentionMaxAge time.Duration
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, d Deps) *Service {
	engine := reconcile.NewEngine(d.Catalog, d.Options)
	dayStart := d.Options.ProductionDayStart
	if dayStart == 0 {
		dayStart = reconcile.DefaultProductionDayStart
	}
	return &Service{
		Reconciler:    NewReconcileService(engine, repos.BatchRepo, d.Archive, d.Metrics),
		BatchLog:      NewBatchLogService(repos.BatchRepo, repos.ErrorRepo),
		Schedule:      NewScheduleService(repos.HeatRepo, d.Catalog, dayStart),
		Pruner:        NewPrunerService(repos.BatchRepo, d.RetentionMaxAge, d.Log),
		Authorization: NewAuthService(repos.Auth, d.SigningKey, d.TokenTTL),
	}
}
