package quantify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kudoshq/kudos/internal/periods"
	"github.com/kudoshq/kudos/internal/praise"
	"github.com/kudoshq/kudos/internal/settings"
	"github.com/kudoshq/kudos/internal/shared"
	"github.com/kudoshq/kudos/internal/users"
)

// PeriodPort is the slice of the period service the quantification engine
// consumes.
type PeriodPort interface {
	Find(ctx context.Context, id int64) (periods.Period, error)
	Window(ctx context.Context, p periods.Period) (periods.Window, error)
	FindContaining(ctx context.Context, t time.Time) (periods.Period, bool, error)
}

// PraisePort reads praise and quantification state.
type PraisePort interface {
	FindByID(ctx context.Context, id int64) (praise.Praise, error)
	ListByWindow(ctx context.Context, w periods.Window) ([]praise.Praise, error)
	ListByIDs(ctx context.Context, ids []int64) ([]praise.Praise, error)
	ListByReceiver(ctx context.Context, receiverID int64) ([]praise.Praise, error)
	CountByWindow(ctx context.Context, w periods.Window) (int, error)
	AnyQuantificationsInWindow(ctx context.Context, w periods.Window) (bool, error)
	ReceiverCounts(ctx context.Context, w periods.Window) ([]praise.ReceiverCount, error)
	QuantifierStats(ctx context.Context, w periods.Window) ([]praise.QuantifierStats, error)
	QuantifierPraiseIDs(ctx context.Context, w periods.Window, quantifierID int64) ([]int64, error)
	Quantification(ctx context.Context, praiseID, quantifierID int64) (praise.Quantification, error)
}

// UserPort resolves users and the quantifier pool.
type UserPort interface {
	Find(ctx context.Context, id int64) (users.User, error)
	WithRole(ctx context.Context, role users.Role) ([]users.User, error)
}

// SettingsPort resolves assignment controls and the duplicate percentage.
type SettingsPort interface {
	Int(ctx context.Context, key string, periodID *int64) (int, error)
	Bool(ctx context.Context, key string, periodID *int64) (bool, error)
	Float(ctx context.Context, key string, periodID *int64) (float64, error)
}

// StorePort applies the engine's atomic writes.
type StorePort interface {
	// CreateAssignments flips the period OPEN -> QUANTIFY and inserts the
	// stubs in one transaction. The conditional status update serializes
	// concurrent assignment calls.
	CreateAssignments(ctx context.Context, periodID int64, stubs []Stub) error
	// ReassignQuantifier deletes the current quantifier's stubs inside the
	// window and recreates them for the new quantifier, returning the
	// affected praise ids.
	ReassignQuantifier(ctx context.Context, w periods.Window, currentID, newID int64) ([]int64, error)
	// SaveJudgment writes a quantification and the owning praise's
	// composite cache in one transaction.
	SaveJudgment(ctx context.Context, q praise.Quantification, composite float64) error
	// UpdateComposite rewrites a praise item's composite cache.
	UpdateComposite(ctx context.Context, praiseID int64, composite float64) error
}

// DetailCache caches period detail views. Implementations must tolerate
// being nil-configured; the service treats cache errors as misses.
type DetailCache interface {
	Get(ctx context.Context, periodID int64) (PeriodDetails, bool)
	Set(ctx context.Context, details PeriodDetails)
	Invalidate(ctx context.Context, periodID int64)
}

// Service implements quantifier assignment, replacement, and judgment
// submission for the quantification engine.
type Service struct {
	periods  PeriodPort
	praise   PraisePort
	users    UserPort
	settings SettingsPort
	store    StorePort
	cache    DetailCache
	audit    shared.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs a Service. cache and audit may be nil.
func NewService(periodPort PeriodPort, praisePort PraisePort, userPort UserPort, settingsPort SettingsPort, store StorePort, cache DetailCache, audit shared.Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		periods:  periodPort,
		praise:   praisePort,
		users:    userPort,
		settings: settingsPort,
		store:    store,
		cache:    cache,
		audit:    audit,
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

// Assign distributes the period's praise across the quantifier pool and
// moves the period into QUANTIFY. All-or-nothing: stub creation and the
// status flip commit together or the call fails.
func (s *Service) Assign(ctx context.Context, periodID int64) (PeriodDetails, error) {
	p, err := s.periods.Find(ctx, periodID)
	if err != nil {
		return PeriodDetails{}, err
	}
	if p.Status != periods.StatusOpen {
		return PeriodDetails{}, fmt.Errorf("quantify: period %q is %s, not OPEN: %w", p.Name, p.Status, shared.ErrInvalidState)
	}
	if p.EndDate.After(s.now()) {
		return PeriodDetails{}, fmt.Errorf("quantify: period %q has not ended yet: %w", p.Name, shared.ErrInvalidState)
	}

	w, err := s.periods.Window(ctx, p)
	if err != nil {
		return PeriodDetails{}, err
	}
	assigned, err := s.praise.AnyQuantificationsInWindow(ctx, w)
	if err != nil {
		return PeriodDetails{}, err
	}
	if assigned {
		return PeriodDetails{}, fmt.Errorf("quantify: period %q already has quantifications: %w", p.Name, shared.ErrInvalidState)
	}

	n, err := s.settings.Int(ctx, settings.KeyQuantifiersPerReceiver, &p.ID)
	if err != nil {
		return PeriodDetails{}, err
	}
	evenly, err := s.settings.Bool(ctx, settings.KeyAssignEvenly, &p.ID)
	if err != nil {
		return PeriodDetails{}, err
	}

	pool, err := s.users.WithRole(ctx, users.RoleQuantifier)
	if err != nil {
		return PeriodDetails{}, err
	}
	if len(pool) < n {
		return PeriodDetails{}, fmt.Errorf("quantify: need at least %d quantifiers, have %d: %w", n, len(pool), shared.ErrValidation)
	}
	poolIDs := make([]int64, len(pool))
	for i, u := range pool {
		poolIDs[i] = u.ID
	}

	items, err := s.praise.ListByWindow(ctx, w)
	if err != nil {
		return PeriodDetails{}, err
	}

	stubs, err := buildAssignments(items, poolIDs, n, evenly)
	if err != nil {
		return PeriodDetails{}, err
	}

	if err := s.store.CreateAssignments(ctx, p.ID, stubs); err != nil {
		return PeriodDetails{}, err
	}
	s.invalidate(ctx, p.ID)
	s.record(ctx, "quantify.assign", p.ID, fmt.Sprintf("assigned %d quantification stubs for period %q across %d quantifiers", len(stubs), p.Name, len(pool)))

	return s.Details(ctx, p.ID)
}

// Details assembles the period detail view: praise count plus per-receiver
// and per-quantifier workload, fetched in parallel.
func (s *Service) Details(ctx context.Context, periodID int64) (PeriodDetails, error) {
	if s.cache != nil {
		if details, ok := s.cache.Get(ctx, periodID); ok {
			return details, nil
		}
	}

	p, err := s.periods.Find(ctx, periodID)
	if err != nil {
		return PeriodDetails{}, err
	}
	w, err := s.periods.Window(ctx, p)
	if err != nil {
		return PeriodDetails{}, err
	}

	details := PeriodDetails{Period: p}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		details.NumberOfPraise, err = s.praise.CountByWindow(gctx, w)
		return err
	})
	g.Go(func() error {
		var err error
		details.Receivers, err = s.praise.ReceiverCounts(gctx, w)
		return err
	})
	g.Go(func() error {
		var err error
		details.Quantifiers, err = s.praise.QuantifierStats(gctx, w)
		return err
	})
	if err := g.Wait(); err != nil {
		return PeriodDetails{}, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, details)
	}
	return details, nil
}

func (s *Service) invalidate(ctx context.Context, periodID int64) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, periodID)
	}
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
