package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/copytop/printshop/internal/reports"
)

// ReportsWarmupJob pre-populates the report caches so the first morning
// page load does not pay the query cost.
type ReportsWarmupJob struct {
	Reports *reports.Service
	Logger  *slog.Logger
	clock   func() time.Time
}

// NewReportsWarmupJob wires dependencies for the warmup handler.
func NewReportsWarmupJob(svc *reports.Service, logger *slog.Logger) *ReportsWarmupJob {
	return &ReportsWarmupJob{
		Reports: svc,
		Logger:  logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes report warmup tasks.
func (j *ReportsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("reports warmup: handler not configured")
	}
	var payload ReportsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	now := j.now()
	from := now.AddDate(0, -1, 0)
	logger := j.logger()
	logger.Info("starting reports warmup")

	warmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := j.Reports.Consumption(warmCtx, from, now); err != nil {
		logger.Error("warm consumption report", slog.Any("error", err))
		return err
	}
	if _, err := j.Reports.Revenue(warmCtx, from, now); err != nil {
		logger.Error("warm revenue report", slog.Any("error", err))
		return err
	}
	if _, err := j.Reports.StockSnapshot(warmCtx); err != nil {
		logger.Error("warm stock report", slog.Any("error", err))
		return err
	}

	logger.Info("completed reports warmup", slog.Duration("duration", time.Since(now)))
	return nil
}

func (j *ReportsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReportsWarmup))
	}
	return slog.Default().With(slog.String("job", TaskReportsWarmup))
}

func (j *ReportsWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
