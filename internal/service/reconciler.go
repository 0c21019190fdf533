package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"heat_sequencing/internal/archive"
	"heat_sequencing/internal/ingest"
	"heat_sequencing/internal/metrics"
	"heat_sequencing/internal/models"
	"heat_sequencing/internal/reconcile"
	"heat_sequencing/internal/repository"
)

var (
	ErrEmptyUpload = errors.New("upload is empty")
	ErrNoRows      = errors.New("no rows submitted")
)

const defaultSourceName = "api"

type ReconcileService struct {
	engine    *reconcile.Engine
	batchRepo repository.BatchRepo
	archive   archive.Store
	metrics   *metrics.Recorder
	now       func() time.Time
}

func NewReconcileService(engine *reconcile.Engine, batchRepo repository.BatchRepo, store archive.Store, rec *metrics.Recorder) *ReconcileService {
	if store == nil {
		store = archive.Discard{}
	}
	if rec == nil {
		rec = metrics.New(nil)
	}
	return &ReconcileService{
		engine:    engine,
		batchRepo: batchRepo,
		archive:   store,
		metrics:   rec,
		now:       time.Now,
	}
}

// Upload reads a CSV or XLSX sheet, reconciles it, archives the raw file and stores the batch.
// If storing fails the archived file is removed again.
// Sheet-level problems (empty sheet, missing columns, unknown format) are returned as errors.
func (s *ReconcileService) Upload(ctx context.Context, p UploadParams) (models.Batch, error) {
	if len(p.Content) == 0 {
		return models.Batch{}, ErrEmptyUpload
	}
	rows, warnings, err := ingest.Read(p.Filename, bytes.NewReader(p.Content))
	if err != nil {
		return models.Batch{}, fmt.Errorf("read %s: %w", p.Filename, err)
	}

	b, took := s.reconcile(p.Filename, rows, warnings)

	if s.archive.Driver() != archive.DriverNone {
		key := archive.Key(b.ReceivedAt, b.ID, p.Filename)
		if err := s.archive.Put(ctx, key, bytes.NewReader(p.Content), p.ContentType); err != nil {
			return models.Batch{}, fmt.Errorf("archive upload: %w", err)
		}
		b.ArchiveKey = key
	}

	if err := s.batchRepo.Save(ctx, b); err != nil {
		if b.ArchiveKey != "" {
			if derr := s.archive.Delete(context.WithoutCancel(ctx), b.ArchiveKey); derr != nil {
				err = errors.Join(err, fmt.Errorf("remove archived upload %s: %w", b.ArchiveKey, derr))
			}
		}
		return models.Batch{}, err
	}
	s.metrics.ObserveBatch(b, took)
	return b, nil
}

// ReconcileRows reconciles rows submitted directly, without a sheet to archive.
func (s *ReconcileService) ReconcileRows(ctx context.Context, source string, rows []models.RawRow) (models.Batch, error) {
	if len(rows) == 0 {
		return models.Batch{}, ErrNoRows
	}
	source = strings.TrimSpace(source)
	if source == "" {
		source = defaultSourceName
	}
	in := make([]models.RawRow, len(rows))
	copy(in, rows)
	for i := range in {
		if in[i].RawIndex == 0 {
			in[i].RawIndex = i + 1
		}
	}

	b, took := s.reconcile(source, in, nil)
	if err := s.batchRepo.Save(ctx, b); err != nil {
		return models.Batch{}, err
	}
	s.metrics.ObserveBatch(b, took)
	return b, nil
}

func (s *ReconcileService) reconcile(source string, rows []models.RawRow, warnings []models.ValidationError) (models.Batch, time.Duration) {
	received := s.now().UTC()
	res := s.engine.Process(rows)
	took := s.now().Sub(received)

	errs := make([]models.ValidationError, 0, len(warnings)+len(res.Errors))
	errs = append(errs, warnings...)
	errs = append(errs, res.Errors...)

	heatCount := len(reconcile.GroupByHeat(rows))
	return models.Batch{
		ID:            uuid.NewString(),
		SourceName:    source,
		ReceivedAt:    received,
		RowCount:      len(rows),
		HeatCount:     len(res.ValidHeats),
		ExcludedCount: heatCount - len(res.ValidHeats),
		Heats:         res.ValidHeats,
		Errors:        errs,
	}, took
}
