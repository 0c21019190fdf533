package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"heat_sequencing/internal/models"
	"heat_sequencing/internal/repository"
	"heat_sequencing/internal/service"
)

func TestListBatches_RangeParsing(t *testing.T) {
	logs := &mockBatchLog{summaries: []models.BatchSummary{{ID: "b-2"}, {ID: "b-1"}}}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, BatchLog: logs})

	// invalid 'from' → 400
	w := doRequest(r, http.MethodGet, "/api/v1/batches?from=notatime", nil, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid 'from', got %d", w.Code)
	}

	// date-only 'to' covers the whole day
	w = doRequest(r, http.MethodGet, "/api/v1/batches?from=2025-03-01&to=2025-03-14", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count   int                   `json:"count"`
		Batches []models.BatchSummary `json:"batches"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 || out.Batches[0].ID != "b-2" {
		t.Fatalf("unexpected response: %+v", out)
	}
	wantFrom := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)
	if !logs.lastFilter.From.Equal(wantFrom) || !logs.lastFilter.To.Equal(wantTo) {
		t.Fatalf("filter = %+v; want %v..%v", logs.lastFilter, wantFrom, wantTo)
	}

	// inverted range rejected by the service → 400
	logs.err = service.ErrInvalidTimeRange
	w = doRequest(r, http.MethodGet, "/api/v1/batches?from=2025-03-14&to=2025-03-01", nil, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted range, got %d", w.Code)
	}
}

func TestGetBatchAndLatest(t *testing.T) {
	logs := &mockBatchLog{batch: sampleBatch()}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, BatchLog: logs})

	w := doRequest(r, http.MethodGet, "/api/v1/batches/b-1", nil, "")
	if w.Code != http.StatusOK || logs.lastID != "b-1" {
		t.Fatalf("get: status=%d id=%q", w.Code, logs.lastID)
	}

	w = doRequest(r, http.MethodGet, "/api/v1/batches/latest", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("latest: status=%d", w.Code)
	}
	var b models.Batch
	_ = json.Unmarshal(w.Body.Bytes(), &b)
	if b.ID != "b-1" {
		t.Fatalf("latest returned %+v", b)
	}

	logs.err = fmt.Errorf("select: %w", repository.ErrNotFound)
	w = doRequest(r, http.MethodGet, "/api/v1/batches/nope", nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	logs.err = errors.New("db down")
	w = doRequest(r, http.MethodGet, "/api/v1/batches/latest", nil, "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestBatchErrors(t *testing.T) {
	logs := &mockBatchLog{errs: sampleBatch().Errors}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, BatchLog: logs})

	w := doRequest(r, http.MethodGet, "/api/v1/batches/b-1/errors?kind=unit", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if logs.lastErrorFilter.BatchID != "b-1" || logs.lastErrorFilter.Kind != "unit" {
		t.Fatalf("filter = %+v", logs.lastErrorFilter)
	}
	var out struct {
		Count  int                      `json:"count"`
		Errors []models.ValidationError `json:"errors"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 1 || out.Errors[0].RowIndex == nil || *out.Errors[0].RowIndex != 4 {
		t.Fatalf("unexpected response: %+v", out)
	}

	logs.err = service.ErrInvalidKind
	w = doRequest(r, http.MethodGet, "/api/v1/batches/b-1/errors?kind=bogus", nil, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown kind, got %d", w.Code)
	}
}
