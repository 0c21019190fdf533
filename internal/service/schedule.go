package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"heat_sequencing/internal/catalog"
	"heat_sequencing/internal/models"
	"heat_sequencing/internal/reconcile"
	"heat_sequencing/internal/repository"
)

const dayLayout = "2006-01-02"

var (
	ErrUnknownCaster = errors.New("unknown casting unit")
	ErrInvalidDay    = errors.New("invalid production day: expected YYYY-MM-DD")
)

type ScheduleService struct {
	heatRepo repository.HeatRepo
	catalog  catalog.Catalog
	dayStart time.Duration
	now      func() time.Time
}

func NewScheduleService(heatRepo repository.HeatRepo, cat catalog.Catalog, dayStart time.Duration) *ScheduleService {
	return &ScheduleService{heatRepo: heatRepo, catalog: cat, dayStart: dayStart, now: time.Now}
}

// CasterSequence returns the heats cast on unit during a production day, in cast order.
// Sequences are recomputed over every stored batch, so a heat reported in two uploads is
// ranked once. An empty day means the current production day.
func (s *ScheduleService) CasterSequence(ctx context.Context, unit, day string) ([]models.Heat, error) {
	code := strings.ToUpper(strings.TrimSpace(unit))
	entry, ok := s.catalog.Resolve(code)
	if !ok || entry.Group != models.GroupCaster {
		return nil, ErrUnknownCaster
	}

	day = strings.TrimSpace(day)
	if day == "" {
		day = reconcile.ProductionDay(s.now(), s.dayStart)
	} else if _, err := time.Parse(dayLayout, day); err != nil {
		return nil, ErrInvalidDay
	}

	heats, err := s.heatRepo.ListByCaster(ctx, code, day)
	if err != nil {
		return nil, err
	}

	reconcile.AssignCasterSequences(heats, s.dayStart)
	slices.SortStableFunc(heats, func(a, b models.Heat) int {
		return a.CasterSequence - b.CasterSequence
	})
	return heats, nil
}
