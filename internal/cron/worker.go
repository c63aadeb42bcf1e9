// Package cron schedules the token retention sweep through asynq when Redis
// is available. The scheduler enqueues a tokens:sweep task on the configured
// cadence and the worker executes it, so overlapping or redelivered ticks
// are handled by the sweep's own idempotency.
package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/devmantra/tasker-push-service/internal/sweeper"
)

const TypeTokenSweep = "tokens:sweep"

// Worker owns the asynq server and scheduler pair for the sweep task.
type Worker struct {
	srv       *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	logger    *slog.Logger
}

func NewWorker(redisOpt asynq.RedisClientOpt, sw *sweeper.Sweeper, interval time.Duration, logger *slog.Logger) (*Worker, error) {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		// One sweep at a time.
		Concurrency: 1,
		Queues:      map[string]int{"default": 1},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeTokenSweep, handleSweepTask(sw, logger))

	scheduler := asynq.NewScheduler(redisOpt, nil)
	spec := fmt.Sprintf("@every %s", interval)
	if _, err := scheduler.Register(spec, asynq.NewTask(TypeTokenSweep, nil)); err != nil {
		return nil, fmt.Errorf("failed to register sweep schedule %q: %w", spec, err)
	}

	return &Worker{
		srv:       srv,
		scheduler: scheduler,
		mux:       mux,
		logger:    logger.With("component", "CronWorker"),
	}, nil
}

func handleSweepTask(sw *sweeper.Sweeper, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		report, err := sw.Sweep(ctx)
		if err != nil {
			logger.Error("Scheduled sweep failed", "err", err)
			return err
		}
		logger.Info("Scheduled sweep finished",
			"users_visited", report.UsersVisited,
			"deleted", report.Deleted,
			"failed_users", report.FailedUsers,
		)
		return nil
	}
}

// Start launches the worker and the scheduler. Non-blocking.
func (w *Worker) Start() error {
	if err := w.srv.Start(w.mux); err != nil {
		return fmt.Errorf("failed to start sweep worker: %w", err)
	}
	if err := w.scheduler.Start(); err != nil {
		w.srv.Shutdown()
		return fmt.Errorf("failed to start sweep scheduler: %w", err)
	}
	w.logger.Info("Sweep worker and scheduler started")
	return nil
}

func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.srv.Shutdown()
	w.logger.Info("Sweep worker and scheduler stopped")
}
