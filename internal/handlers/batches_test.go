package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"heat_sequencing/internal/ingest"
	"heat_sequencing/internal/models"
	"heat_sequencing/internal/service"
)

func multipartUpload(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = fw.Write([]byte(content))
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return body, mw.FormDataContentType()
}

func doRequest(r http.Handler, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sampleBatch() models.Batch {
	idx := 4
	return models.Batch{
		ID:            "b-1",
		SourceName:    "shift.csv",
		ReceivedAt:    time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC),
		RowCount:      3,
		HeatCount:     1,
		ExcludedCount: 0,
		Heats:         []models.Heat{{HeatID: "H1", SteelGrade: "S235", IsComplete: true}},
		Errors:        []models.ValidationError{{HeatID: "H1", Kind: models.KindUnit, Unit: "XX1", Message: "unknown unit", RowIndex: &idx}},
	}
}

func TestUploadBatch(t *testing.T) {
	rec := &mockReconciler{batch: sampleBatch()}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, Reconciler: rec})

	body, ct := multipartUpload(t, "file", "shift.csv", "Heat ID,Unit\nH1,BOF1\n")
	w := doRequest(r, http.MethodPost, "/api/v1/batches", body, ct)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if rec.uploads != 1 || rec.lastUpload.Filename != "shift.csv" || string(rec.lastUpload.Content) != "Heat ID,Unit\nH1,BOF1\n" {
		t.Fatalf("unexpected upload params: %+v", rec.lastUpload)
	}

	var out models.Batch
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.ID != "b-1" || len(out.Heats) != 1 || len(out.Errors) != 1 || out.Errors[0].Kind != models.KindUnit {
		t.Fatalf("unexpected response: %+v", out)
	}
}

func TestUploadBatch_Errors(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		svcErr   error
		wantCode int
	}{
		{name: "missing file field", field: "sheet", wantCode: http.StatusBadRequest},
		{name: "missing columns", field: "file", svcErr: fmt.Errorf("read a.csv: %w", ingest.ErrMissingColumns), wantCode: http.StatusBadRequest},
		{name: "unsupported format", field: "file", svcErr: ingest.ErrUnsupportedFormat, wantCode: http.StatusBadRequest},
		{name: "empty sheet", field: "file", svcErr: ingest.ErrEmptySheet, wantCode: http.StatusBadRequest},
		{name: "storage failure", field: "file", svcErr: errors.New("disk full"), wantCode: http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := &mockReconciler{err: tc.svcErr}
			r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, Reconciler: rec})

			body, ct := multipartUpload(t, tc.field, "a.csv", "x")
			w := doRequest(r, http.MethodPost, "/api/v1/batches", body, ct)
			if w.Code != tc.wantCode {
				t.Fatalf("status=%d, want %d (body=%s)", w.Code, tc.wantCode, w.Body.String())
			}
			if tc.wantCode == http.StatusInternalServerError && strings.Contains(w.Body.String(), "disk full") {
				t.Fatalf("internal error leaked: %s", w.Body.String())
			}
		})
	}
}

func TestUploadBatch_RequiresAuth(t *testing.T) {
	rec := &mockReconciler{}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{}, Reconciler: rec})

	body, ct := multipartUpload(t, "file", "a.csv", "x")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/batches", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized || rec.uploads != 0 {
		t.Fatalf("expected 401 without calling the service, got %d (uploads=%d)", w.Code, rec.uploads)
	}
}

func TestSubmitRows(t *testing.T) {
	rec := &mockReconciler{batch: sampleBatch()}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, Reconciler: rec})

	payload := `{"source":"mes","rows":[{"heat_id":"H1","steel_grade":"S235","unit":"BOF1","date":"2025-03-14","start_time":"08:00","end_time":"08:40","sequence_number":2}]}`
	w := doRequest(r, http.MethodPost, "/api/v1/batches/rows", bytes.NewBufferString(payload), "application/json")
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if rec.lastSource != "mes" || len(rec.lastRows) != 1 {
		t.Fatalf("unexpected call: source=%q rows=%+v", rec.lastSource, rec.lastRows)
	}
	row := rec.lastRows[0]
	if row.Unit != "BOF1" || row.StartStr != "08:00" || row.SeqNum == nil || *row.SeqNum != 2 {
		t.Fatalf("row not decoded: %+v", row)
	}

	// bad body → 400
	w = doRequest(r, http.MethodPost, "/api/v1/batches/rows", bytes.NewBufferString(`{"rows":"nope"}`), "application/json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad body, got %d", w.Code)
	}

	// empty rows from the service → 400
	rec.err = service.ErrNoRows
	w = doRequest(r, http.MethodPost, "/api/v1/batches/rows", bytes.NewBufferString(`{"rows":[]}`), "application/json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty rows, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&service.Service{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("health: %d %s", w.Code, w.Body.String())
	}
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("heatseq_batches_total 0\n"))
	})
	r := NewHandler(&service.Service{}, metrics, nil).InitRoutes()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "heatseq_batches_total") {
		t.Fatalf("metrics: %d %s", w.Code, w.Body.String())
	}
}
