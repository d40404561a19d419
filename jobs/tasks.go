package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypePeriodExport materializes receiver/giver summaries after a
	// period closes.
	TaskTypePeriodExport = "period:export"
	// TaskTypeCompositeRebuild re-verifies cached composite scores.
	TaskTypeCompositeRebuild = "praise:rebuild_composites"
)

// PeriodExportPayload identifies the period to export.
type PeriodExportPayload struct {
	PeriodID int64 `json:"period_id"`
}

// NewPeriodExportTask constructs an Asynq task.
func NewPeriodExportTask(payload PeriodExportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePeriodExport, data), nil
}

// CompositeRebuildPayload identifies the period whose composites to verify.
type CompositeRebuildPayload struct {
	PeriodID int64 `json:"period_id"`
}

// NewCompositeRebuildTask constructs an Asynq task.
func NewCompositeRebuildTask(payload CompositeRebuildPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeCompositeRebuild, data), nil
}

// Enqueuer schedules tasks from the request path. It satisfies the period
// service's TaskEnqueuer port.
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer wraps an Asynq client.
func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

// EnqueuePeriodExport schedules a period export.
func (e *Enqueuer) EnqueuePeriodExport(ctx context.Context, periodID int64) error {
	task, err := NewPeriodExportTask(PeriodExportPayload{PeriodID: periodID})
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}
