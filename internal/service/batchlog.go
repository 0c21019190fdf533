package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"heat_sequencing/internal/models"
	"heat_sequencing/internal/repository"
)

type BatchLogService struct {
	batchRepo repository.BatchRepo
	errorRepo repository.ErrorRepo
}

func NewBatchLogService(batchRepo repository.BatchRepo, errorRepo repository.ErrorRepo) *BatchLogService {
	return &BatchLogService{batchRepo: batchRepo, errorRepo: errorRepo}
}

var (
	ErrInvalidTimeRange = errors.New("invalid time range: from must be <= to")
	ErrInvalidKind      = errors.New("invalid error kind: must be UNIT, FORMAT, TIME, ROUTING or PLACEHOLDER")
	ErrMissingBatchID   = errors.New("batch id is required")
)

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeKind trims spaces and uppercases the kind filter.
func normalizeKind(s string) models.ErrorKind {
	return models.ErrorKind(strings.TrimSpace(strings.ToUpper(s)))
}

func normalizeAndValidateRange(f BatchFilter) (time.Time, time.Time, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, ErrInvalidTimeRange
	}
	return from, to, nil
}

func (s *BatchLogService) List(ctx context.Context, f BatchFilter) ([]models.BatchSummary, error) {
	from, to, err := normalizeAndValidateRange(f)
	if err != nil {
		return nil, err
	}
	return s.batchRepo.List(ctx, from, to)
}

func (s *BatchLogService) Get(ctx context.Context, id string) (models.Batch, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Batch{}, ErrMissingBatchID
	}
	return s.batchRepo.Get(ctx, id)
}

func (s *BatchLogService) Latest(ctx context.Context) (models.Batch, error) {
	return s.batchRepo.Latest(ctx)
}

// Errors lists a batch's errors in reporting order. An unknown batch yields repository.ErrNotFound.
func (s *BatchLogService) Errors(ctx context.Context, f ErrorFilter) ([]models.ValidationError, error) {
	id := strings.TrimSpace(f.BatchID)
	if id == "" {
		return nil, ErrMissingBatchID
	}
	kind := normalizeKind(f.Kind)
	if kind != "" && !kind.Valid() {
		return nil, ErrInvalidKind
	}
	// an empty list is ambiguous between "no errors" and "no batch"
	if _, err := s.batchRepo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.errorRepo.List(ctx, id, kind)
}
