package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/kudoshq/kudos/internal/periods"
)

// CompositeRebuilder re-verifies the cached composite scores of one period
// and repairs drift.
type CompositeRebuilder interface {
	RebuildComposites(ctx context.Context, periodID int64) (int, error)
}

// PeriodLister resolves the periods eligible for the nightly sweep.
type PeriodLister interface {
	List(ctx context.Context) ([]periods.Period, error)
}

// CompositeRebuildJob repairs cached composite scores. A payload naming a
// period rebuilds that period; a zero period id sweeps every QUANTIFY
// period, which is how the nightly cron entry runs it. Safe to re-run.
type CompositeRebuildJob struct {
	rebuilder CompositeRebuilder
	periods   PeriodLister
	logger    *slog.Logger
}

// NewCompositeRebuildJob constructs the job.
func NewCompositeRebuildJob(rebuilder CompositeRebuilder, periodList PeriodLister, logger *slog.Logger) *CompositeRebuildJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompositeRebuildJob{rebuilder: rebuilder, periods: periodList, logger: logger}
}

// Handle processes TaskTypeCompositeRebuild tasks.
func (j *CompositeRebuildJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload CompositeRebuildPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	if payload.PeriodID != 0 {
		return j.rebuild(ctx, payload.PeriodID)
	}

	all, err := j.periods.List(ctx)
	if err != nil {
		return err
	}
	for _, p := range all {
		if p.Status != periods.StatusQuantify {
			continue
		}
		if err := j.rebuild(ctx, p.ID); err != nil {
			return err
		}
	}
	return nil
}

func (j *CompositeRebuildJob) rebuild(ctx context.Context, periodID int64) error {
	fixed, err := j.rebuilder.RebuildComposites(ctx, periodID)
	if err != nil {
		return err
	}
	if fixed > 0 {
		j.logger.Warn("composite drift repaired", slog.Int64("period_id", periodID), slog.Int("fixed", fixed))
	}
	return nil
}
