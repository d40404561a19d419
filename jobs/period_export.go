package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kudoshq/kudos/internal/quantify"
)

// PeriodExportJob materializes a closed period's receiver and giver
// summaries into the period_exports table, where the surrounding reward
// tooling picks them up.
type PeriodExportJob struct {
	service *quantify.Service
	pool    *pgxpool.Pool
	logger  *slog.Logger
}

// NewPeriodExportJob constructs the job.
func NewPeriodExportJob(service *quantify.Service, pool *pgxpool.Pool, logger *slog.Logger) *PeriodExportJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &PeriodExportJob{service: service, pool: pool, logger: logger}
}

type periodExport struct {
	Receivers []quantify.UserSummary `json:"receivers"`
	Givers    []quantify.UserSummary `json:"givers"`
}

// Handle processes TaskTypePeriodExport tasks.
func (j *PeriodExportJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload PeriodExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	receivers, err := j.service.ReceiverSummaries(ctx, payload.PeriodID)
	if err != nil {
		return err
	}
	givers, err := j.service.GiverSummaries(ctx, payload.PeriodID)
	if err != nil {
		return err
	}

	data, err := json.Marshal(periodExport{Receivers: receivers, Givers: givers})
	if err != nil {
		return err
	}
	artifactID := uuid.NewString()
	_, err = j.pool.Exec(ctx, `INSERT INTO period_exports (artifact_id, period_id, payload, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (period_id) DO UPDATE SET artifact_id = EXCLUDED.artifact_id, payload = EXCLUDED.payload, created_at = EXCLUDED.created_at`,
		artifactID, payload.PeriodID, data, time.Now())
	if err != nil {
		return err
	}

	j.logger.Info("period export written",
		slog.Int64("period_id", payload.PeriodID),
		slog.String("artifact_id", artifactID),
		slog.Int("receivers", len(receivers)))
	return nil
}
