package service

import (
	"context"
	"time"

	"heat_sequencing/internal/logger"
	"heat_sequencing/internal/repository"
)

// PrunerService deletes batches older than the retention window.
type PrunerService struct {
	batchRepo repository.BatchRepo
	maxAge    time.Duration
	log       *logger.Logger
}

// NewPrunerService returns a pruner. A non-positive maxAge disables pruning.
func NewPrunerService(batchRepo repository.BatchRepo, maxAge time.Duration, log *logger.Logger) *PrunerService {
	return &PrunerService{batchRepo: batchRepo, maxAge: maxAge, log: log}
}

// Run ticks at the given interval until ctx is canceled.
func (s *PrunerService) Run(ctx context.Context, tick time.Duration) {
	if s.maxAge <= 0 || tick <= 0 {
		return
	}
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := s.prune(ctx, now)
			if err != nil {
				if s.log != nil {
					s.log.Errorw("prune batches", "err", err)
				}
				continue
			}
			if n > 0 && s.log != nil {
				s.log.Infow("pruned batches", "deleted", n, "max_age", s.maxAge.String())
			}
		}
	}
}

// prune removes every batch received before now - maxAge.
func (s *PrunerService) prune(ctx context.Context, now time.Time) (int64, error) {
	return s.batchRepo.DeleteBefore(ctx, now.UTC().Add(-s.maxAge))
}
