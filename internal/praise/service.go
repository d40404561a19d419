package praise

import (
	"context"

	"github.com/kudoshq/kudos/internal/periods"
)

// RepositoryPort defines data access methods for praise items.
type RepositoryPort interface {
	Create(ctx context.Context, in CreateInput) (Praise, error)
	FindByID(ctx context.Context, id int64) (Praise, error)
	ListByWindow(ctx context.Context, w periods.Window) ([]Praise, error)
	ListByReceiver(ctx context.Context, receiverID int64) ([]Praise, error)
}

// PeriodPort resolves period windows for listing.
type PeriodPort interface {
	Find(ctx context.Context, id int64) (periods.Period, error)
	Window(ctx context.Context, p periods.Period) (periods.Window, error)
}

// Service handles praise reads and creation. Scoring and assignment live
// in their own modules; this service only owns the records.
type Service struct {
	repo    RepositoryPort
	periods PeriodPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, periodPort PeriodPort) *Service {
	return &Service{repo: repo, periods: periodPort}
}

// Create stores a new praise item.
func (s *Service) Create(ctx context.Context, in CreateInput) (Praise, error) {
	return s.repo.Create(ctx, in)
}

// Find returns a praise item with its quantifications.
func (s *Service) Find(ctx context.Context, id int64) (Praise, error) {
	return s.repo.FindByID(ctx, id)
}

// ListByPeriod returns the praise belonging to a period, selected by its
// derived window.
func (s *Service) ListByPeriod(ctx context.Context, periodID int64) ([]Praise, error) {
	p, err := s.periods.Find(ctx, periodID)
	if err != nil {
		return nil, err
	}
	w, err := s.periods.Window(ctx, p)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByWindow(ctx, w)
}
