package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"heat_sequencing/internal/logger"
)

func TestPrunerService_prune_CutoffFromMaxAge(t *testing.T) {
	frepo := &fakeBatchRepo{deleted: 3}
	svc := NewPrunerService(frepo, 30*24*time.Hour, logger.Nop())

	now := time.Date(2025, 3, 31, 12, 0, 0, 0, fixedZone("UTC+2", 2*3600))
	n, err := svc.prune(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 deleted, got %d", n)
	}
	want := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	if !frepo.gotCutoff.Equal(want) || frepo.gotCutoff.Location() != time.UTC {
		t.Fatalf("cutoff = %v; want %v", frepo.gotCutoff, want)
	}
}

func TestPrunerService_Run_DisabledReturnsImmediately(t *testing.T) {
	frepo := &fakeBatchRepo{}
	done := make(chan struct{})
	go func() {
		NewPrunerService(frepo, 0, nil).Run(context.Background(), time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run should return when retention is disabled")
	}
	if frepo.deleteCalls != 0 {
		t.Fatalf("expected no deletes, got %d", frepo.deleteCalls)
	}
}

func TestPrunerService_Run_TicksUntilCancelled(t *testing.T) {
	frepo := &fakeBatchRepo{err: errors.New("busy")}
	svc := NewPrunerService(frepo, time.Hour, logger.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		svc.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
	if frepo.deleteCalls == 0 {
		t.Fatal("expected at least one prune attempt")
	}
}
