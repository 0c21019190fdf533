package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"heat_sequencing/internal/archive"
	"heat_sequencing/internal/catalog"
	"heat_sequencing/internal/ingest"
	"heat_sequencing/internal/metrics"
	"heat_sequencing/internal/models"
	"heat_sequencing/internal/reconcile"
)

const shiftCSV = `Heat ID,Steel Grade,Unit,Date,Start Time,End Time
H1,S235,KR1,2025-03-14,08:00,08:30
H1,S235,BOF1,2025-03-14,08:40,09:30
H1,S235,TSC1,2025-03-14,10:00,11:00
H2,S355,BOF1,2025-03-14,09:00,09:40
H2,S355,BOF2,2025-03-14,09:50,10:20
H3,S235,0,2025-03-14,0:00,0:00
`

var receivedAt = time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)

// fakeArchive records Put and Delete calls.
type fakeArchive struct {
	driver      archive.Driver
	keys        []string
	bodies      []string
	deleted     []string
	contentType string
	err         error
	deleteErr   error
}

func (f *fakeArchive) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	if f.err != nil {
		return f.err
	}
	b, _ := io.ReadAll(r)
	f.keys = append(f.keys, key)
	f.bodies = append(f.bodies, string(b))
	f.contentType = contentType
	return nil
}

func (f *fakeArchive) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return f.deleteErr
}

func (f *fakeArchive) Driver() archive.Driver { return f.driver }

func newTestReconciler(repo *fakeBatchRepo, store archive.Store) *ReconcileService {
	engine := reconcile.NewEngine(catalog.Default(), reconcile.Options{
		Now: func() time.Time { return receivedAt },
	})
	svc := NewReconcileService(engine, repo, store, metrics.New(nil))
	svc.now = func() time.Time { return receivedAt }
	return svc
}

func findError(errs []models.ValidationError, heatID string, kind models.ErrorKind) bool {
	for _, e := range errs {
		if e.HeatID == heatID && e.Kind == kind {
			return true
		}
	}
	return false
}

func TestReconcileService_Upload(t *testing.T) {
	repo := &fakeBatchRepo{}
	store := &fakeArchive{driver: archive.DriverFilesystem}
	svc := newTestReconciler(repo, store)

	b, err := svc.Upload(context.Background(), UploadParams{
		Filename:    "shift.csv",
		ContentType: "text/csv",
		Content:     []byte(shiftCSV),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if b.ID == "" || b.SourceName != "shift.csv" || !b.ReceivedAt.Equal(receivedAt) {
		t.Fatalf("unexpected batch header: %+v", b)
	}
	if b.RowCount != 5 || b.HeatCount != 1 || b.ExcludedCount != 1 {
		t.Fatalf("counts rows=%d heats=%d excluded=%d; want 5/1/1", b.RowCount, b.HeatCount, b.ExcludedCount)
	}
	if len(b.Heats) != 1 || b.Heats[0].HeatID != "H1" {
		t.Fatalf("expected only H1 accepted, got %+v", b.Heats)
	}
	h := b.Heats[0]
	if h.CastingUnit != "TSC1" || h.CasterSequence != 1 || h.ProductionDay != "2025-03-14" {
		t.Fatalf("unexpected caster fields: %+v", h)
	}
	if len(b.Errors) == 0 || b.Errors[0].Kind != models.KindPlaceholder {
		t.Fatalf("expected ingest warning first, got %+v", b.Errors)
	}
	if !findError(b.Errors, "H2", models.KindRouting) {
		t.Fatalf("expected ROUTING error for H2, got %+v", b.Errors)
	}

	wantKey := "uploads/2025/03/" + b.ID + "/shift.csv"
	if b.ArchiveKey != wantKey {
		t.Fatalf("archive key = %q; want %q", b.ArchiveKey, wantKey)
	}
	if len(store.keys) != 1 || store.keys[0] != wantKey || store.bodies[0] != shiftCSV || store.contentType != "text/csv" {
		t.Fatalf("unexpected archive calls: %+v", store)
	}
	if len(repo.saved) != 1 || repo.saved[0].ID != b.ID {
		t.Fatalf("expected batch persisted once, got %d", len(repo.saved))
	}
}

func TestReconcileService_Upload_Failures(t *testing.T) {
	tests := []struct {
		name      string
		params    UploadParams
		archive   *fakeArchive
		saveErr   error
		wantErr   error
		wantSaved bool
	}{
		{
			name:    "empty content",
			params:  UploadParams{Filename: "a.csv"},
			archive: &fakeArchive{driver: archive.DriverFilesystem},
			wantErr: ErrEmptyUpload,
		},
		{
			name:    "unsupported extension",
			params:  UploadParams{Filename: "a.txt", Content: []byte(shiftCSV)},
			archive: &fakeArchive{driver: archive.DriverFilesystem},
			wantErr: ingest.ErrUnsupportedFormat,
		},
		{
			name:    "header only",
			params:  UploadParams{Filename: "a.csv", Content: []byte("Heat ID,Steel Grade,Unit,Start Time,End Time\n")},
			archive: &fakeArchive{driver: archive.DriverFilesystem},
			wantErr: ingest.ErrEmptySheet,
		},
		{
			name:    "archive failure",
			params:  UploadParams{Filename: "a.csv", Content: []byte(shiftCSV)},
			archive: &fakeArchive{driver: archive.DriverS3, err: errors.New("bucket gone")},
		},
		{
			name:    "save failure",
			params:  UploadParams{Filename: "a.csv", Content: []byte(shiftCSV)},
			archive: &fakeArchive{driver: archive.DriverFilesystem},
			saveErr: errors.New("db locked"),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeBatchRepo{saveErr: tc.saveErr}
			svc := newTestReconciler(repo, tc.archive)

			_, err := svc.Upload(context.Background(), tc.params)
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if len(repo.saved) != 0 {
				t.Fatalf("nothing should be persisted, got %d", len(repo.saved))
			}
		})
	}
}

func TestReconcileService_Upload_SaveFailureRemovesArchivedFile(t *testing.T) {
	saveErr := errors.New("db locked")
	store := &fakeArchive{driver: archive.DriverFilesystem}
	svc := newTestReconciler(&fakeBatchRepo{saveErr: saveErr}, store)

	_, err := svc.Upload(context.Background(), UploadParams{Filename: "shift.csv", Content: []byte(shiftCSV)})
	if !errors.Is(err, saveErr) {
		t.Fatalf("expected save error, got %v", err)
	}
	if len(store.keys) != 1 || len(store.deleted) != 1 || store.deleted[0] != store.keys[0] {
		t.Fatalf("archived %v, deleted %v; want the same single key", store.keys, store.deleted)
	}

	// a failed cleanup is reported alongside the save error
	store = &fakeArchive{driver: archive.DriverFilesystem, deleteErr: errors.New("permission denied")}
	svc = newTestReconciler(&fakeBatchRepo{saveErr: saveErr}, store)
	_, err = svc.Upload(context.Background(), UploadParams{Filename: "shift.csv", Content: []byte(shiftCSV)})
	if !errors.Is(err, saveErr) || !strings.Contains(err.Error(), "remove archived upload") {
		t.Fatalf("expected joined cleanup error, got %v", err)
	}
}

func TestReconcileService_Upload_NoArchive(t *testing.T) {
	repo := &fakeBatchRepo{}
	svc := newTestReconciler(repo, archive.Discard{})

	b, err := svc.Upload(context.Background(), UploadParams{Filename: "shift.CSV", Content: []byte(shiftCSV)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.ArchiveKey != "" {
		t.Fatalf("expected no archive key, got %q", b.ArchiveKey)
	}
}

func TestReconcileService_ReconcileRows(t *testing.T) {
	repo := &fakeBatchRepo{}
	svc := newTestReconciler(repo, nil)

	rows := []models.RawRow{
		{HeatID: "H9", SteelGrade: "S235", Unit: "bof3", DateStr: "2025-03-14", StartStr: "23:30", EndStr: "00:20"},
		{HeatID: "H9", SteelGrade: "S235", Unit: "XX1", DateStr: "2025-03-14", StartStr: "00:30", EndStr: "01:00"},
	}
	b, err := svc.ReconcileRows(context.Background(), "  ", rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.SourceName != defaultSourceName || b.ArchiveKey != "" {
		t.Fatalf("unexpected batch header: %+v", b)
	}
	if b.HeatCount != 1 || b.ExcludedCount != 0 {
		t.Fatalf("expected H9 accepted, got %+v", b)
	}
	if ops := b.Heats[0].Operations; len(ops) != 1 || ops[0].DurationMinutes != 50 {
		t.Fatalf("expected one rolled-over 50 min operation, got %+v", ops)
	}
	if len(b.Errors) != 1 || b.Errors[0].Kind != models.KindUnit || b.Errors[0].RowIndex == nil || *b.Errors[0].RowIndex != 2 {
		t.Fatalf("expected UNIT error on row 2, got %+v", b.Errors)
	}
	if rows[0].RawIndex != 0 {
		t.Fatal("caller rows must not be modified")
	}

	if _, err := svc.ReconcileRows(context.Background(), "api", nil); !errors.Is(err, ErrNoRows) {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}
}

func TestReconcileService_MetricsObserved(t *testing.T) {
	repo := &fakeBatchRepo{}
	rec := metrics.New(nil)
	engine := reconcile.NewEngine(catalog.Default(), reconcile.Options{})
	svc := NewReconcileService(engine, repo, archive.Discard{}, rec)

	if _, err := svc.Upload(context.Background(), UploadParams{Filename: "s.csv", Content: []byte(shiftCSV)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := scrape(t, rec)
	for _, want := range []string{
		"heatseq_batches_total 1",
		`heatseq_heats_total{outcome="accepted"} 1`,
		`heatseq_heats_total{outcome="excluded"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics:\n%s", want, body)
		}
	}
}
