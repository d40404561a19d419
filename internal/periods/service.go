package periods

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/kudoshq/kudos/internal/shared"
)

// RepositoryPort defines data access methods for periods.
type RepositoryPort interface {
	Insert(ctx context.Context, name string, endDate time.Time) (Period, error)
	FindByID(ctx context.Context, id int64) (Period, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	FindLatest(ctx context.Context) (Period, bool, error)
	List(ctx context.Context) ([]Period, error)
	PreviousEndDate(ctx context.Context, endDate time.Time) (time.Time, bool, error)
	FindContaining(ctx context.Context, t time.Time) (Period, bool, error)
	Update(ctx context.Context, id int64, in UpdateInput) (Period, error)
	SetStatus(ctx context.Context, id int64, from, to Status) (bool, error)
}

// TaskEnqueuer schedules background work after a state transition.
type TaskEnqueuer interface {
	EnqueuePeriodExport(ctx context.Context, periodID int64) error
}

// Service owns the period lifecycle and its gating rules.
type Service struct {
	repo     RepositoryPort
	audit    shared.Recorder
	enqueuer TaskEnqueuer
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs a Service instance. audit and enqueuer may be nil.
func NewService(repo RepositoryPort, audit shared.Recorder, enqueuer TaskEnqueuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		audit:    audit,
		enqueuer: enqueuer,
		logger:   logger,
		now:      time.Now,
	}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create inserts a new OPEN period. The end date must leave at least
// MinEndDateGap after the latest existing period's end date.
func (s *Service) Create(ctx context.Context, in CreateInput) (Period, error) {
	if err := in.Validate(); err != nil {
		return Period{}, fmt.Errorf("%s: %w", err, shared.ErrValidation)
	}
	name := strings.TrimSpace(in.Name)

	exists, err := s.repo.ExistsByName(ctx, name)
	if err != nil {
		return Period{}, err
	}
	if exists {
		return Period{}, fmt.Errorf("periods: name %q already exists: %w", name, shared.ErrValidation)
	}

	latest, ok, err := s.repo.FindLatest(ctx)
	if err != nil {
		return Period{}, err
	}
	if ok && in.EndDate.Before(latest.EndDate.Add(MinEndDateGap)) {
		return Period{}, fmt.Errorf("periods: end date must be at least %s after the latest period: %w", MinEndDateGap, shared.ErrValidation)
	}

	p, err := s.repo.Insert(ctx, name, in.EndDate)
	if err != nil {
		return Period{}, err
	}
	s.record(ctx, "period.create", p.ID, fmt.Sprintf("created period %q ending %s", p.Name, p.EndDate.Format(time.RFC3339)))
	return p, nil
}

// Update applies a partial edit. Changing the end date is only allowed on
// the latest period while it is OPEN, and must respect MinEndDateGap
// against the preceding period.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (Period, error) {
	if in.Name == nil && in.EndDate == nil {
		return Period{}, fmt.Errorf("periods: nothing to update: %w", shared.ErrValidation)
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Period{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if len(name) < 3 || len(name) > 64 {
			return Period{}, fmt.Errorf("periods: name must be 3-64 characters: %w", shared.ErrValidation)
		}
		in.Name = &name
	}

	if in.EndDate != nil {
		latest, err := s.IsLatest(ctx, p)
		if err != nil {
			return Period{}, err
		}
		if !latest {
			return Period{}, fmt.Errorf("periods: only the latest period's end date can change: %w", shared.ErrValidation)
		}
		if p.Status != StatusOpen {
			return Period{}, fmt.Errorf("periods: end date can only change while the period is open: %w", shared.ErrValidation)
		}
		prev, ok, err := s.repo.PreviousEndDate(ctx, p.EndDate)
		if err != nil {
			return Period{}, err
		}
		if ok && in.EndDate.Before(prev.Add(MinEndDateGap)) {
			return Period{}, fmt.Errorf("periods: end date must be at least %s after the previous period: %w", MinEndDateGap, shared.ErrValidation)
		}
	}

	updated, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return Period{}, err
	}
	s.record(ctx, "period.update", updated.ID, fmt.Sprintf("updated period %q", updated.Name))
	return updated, nil
}

// Close finalizes a period. Only allowed once the end date has passed and
// the period is not already closed.
func (s *Service) Close(ctx context.Context, id int64) (Period, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Period{}, err
	}
	if p.Status == StatusClosed {
		return Period{}, fmt.Errorf("periods: period %q already closed: %w", p.Name, shared.ErrInvalidState)
	}
	if p.EndDate.After(s.now()) {
		return Period{}, fmt.Errorf("periods: period %q has not ended yet: %w", p.Name, shared.ErrInvalidState)
	}

	ok, err := s.repo.SetStatus(ctx, id, p.Status, StatusClosed)
	if err != nil {
		return Period{}, err
	}
	if !ok {
		return Period{}, fmt.Errorf("periods: period %q changed status concurrently: %w", p.Name, shared.ErrInvalidState)
	}
	p.Status = StatusClosed

	s.record(ctx, "period.close", p.ID, fmt.Sprintf("closed period %q", p.Name))
	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueuePeriodExport(ctx, p.ID); err != nil {
			s.logger.Warn("enqueue period export", slog.Int64("period_id", p.ID), slog.Any("error", err))
		}
	}
	return p, nil
}

// Find returns a period by id.
func (s *Service) Find(ctx context.Context, id int64) (Period, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns all periods ordered by end date.
func (s *Service) List(ctx context.Context) ([]Period, error) {
	return s.repo.List(ctx)
}

// FindLatest returns the period with the maximum end date.
func (s *Service) FindLatest(ctx context.Context) (Period, bool, error) {
	return s.repo.FindLatest(ctx)
}

// IsLatest reports whether p is the latest period.
func (s *Service) IsLatest(ctx context.Context, p Period) (bool, error) {
	latest, ok, err := s.repo.FindLatest(ctx)
	if err != nil {
		return false, err
	}
	return ok && latest.ID == p.ID, nil
}

// Window derives the half-open praise-selection interval for a period. It
// is recomputed on every call because periods can be edited while OPEN.
func (s *Service) Window(ctx context.Context, p Period) (Window, error) {
	prev, ok, err := s.repo.PreviousEndDate(ctx, p.EndDate)
	if err != nil {
		return Window{}, err
	}
	if !ok {
		prev = time.Unix(0, 0).UTC()
	}
	return Window{Start: prev, End: p.EndDate}, nil
}

// FindContaining returns the period whose window contains the instant t.
func (s *Service) FindContaining(ctx context.Context, t time.Time) (Period, bool, error) {
	return s.repo.FindContaining(ctx, t)
}

func (s *Service) record(ctx context.Context, action string, periodID int64, message string) {
	if s.audit == nil {
		return
	}
	log := shared.AuditLog{
		ActorID:  shared.ActorFromContext(ctx),
		Action:   action,
		Entity:   "period",
		EntityID: strconv.FormatInt(periodID, 10),
		Message:  message,
		At:       s.now(),
	}
	if err := s.audit.Record(ctx, log); err != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
