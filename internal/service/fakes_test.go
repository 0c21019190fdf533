package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"heat_sequencing/internal/metrics"
	"heat_sequencing/internal/models"
	"heat_sequencing/internal/repository"
)

// fakeBatchRepo is an in-memory repository.BatchRepo.
type fakeBatchRepo struct {
	saved []models.Batch

	// captured inputs
	gotFrom   time.Time
	gotTo     time.Time
	gotCutoff time.Time

	// configured outputs
	summaries []models.BatchSummary
	deleted   int64
	saveErr   error
	err       error

	listCalls   int
	deleteCalls int
}

func (f *fakeBatchRepo) Save(ctx context.Context, b models.Batch) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, b)
	return nil
}

func (f *fakeBatchRepo) Get(ctx context.Context, id string) (models.Batch, error) {
	if f.err != nil {
		return models.Batch{}, f.err
	}
	for _, b := range f.saved {
		if b.ID == id {
			return b, nil
		}
	}
	return models.Batch{}, repository.ErrNotFound
}

func (f *fakeBatchRepo) List(ctx context.Context, from, to time.Time) ([]models.BatchSummary, error) {
	f.listCalls++
	f.gotFrom, f.gotTo = from, to
	return f.summaries, f.err
}

func (f *fakeBatchRepo) Latest(ctx context.Context) (models.Batch, error) {
	if f.err != nil {
		return models.Batch{}, f.err
	}
	if len(f.saved) == 0 {
		return models.Batch{}, repository.ErrNotFound
	}
	return f.saved[len(f.saved)-1], nil
}

func (f *fakeBatchRepo) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	f.deleteCalls++
	f.gotCutoff = t
	return f.deleted, f.err
}

// fakeErrorRepo is a stub repository.ErrorRepo.
type fakeErrorRepo struct {
	gotBatchID string
	gotKind    models.ErrorKind
	errs       []models.ValidationError
	calls      int
}

func (f *fakeErrorRepo) List(ctx context.Context, batchID string, kind models.ErrorKind) ([]models.ValidationError, error) {
	f.calls++
	f.gotBatchID, f.gotKind = batchID, kind
	return f.errs, nil
}

// fakeHeatRepo is a stub repository.HeatRepo.
type fakeHeatRepo struct {
	gotUnit string
	gotDay  string
	heats   []models.Heat
	err     error
	calls   int
}

func (f *fakeHeatRepo) ListByCaster(ctx context.Context, unit, day string) ([]models.Heat, error) {
	f.calls++
	f.gotUnit, f.gotDay = unit, day
	return f.heats, f.err
}

func (f *fakeHeatRepo) Get(ctx context.Context, batchID, heatID string) (models.Heat, error) {
	return models.Heat{}, errors.New("not used")
}

func fixedZone(name string, offsetSec int) *time.Location {
	return time.FixedZone(name, offsetSec)
}

func mustTimeIn(loc *time.Location, y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, loc)
}

func scrape(t *testing.T, rec *metrics.Recorder) string {
	t.Helper()
	w := httptest.NewRecorder()
	rec.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return w.Body.String()
}
