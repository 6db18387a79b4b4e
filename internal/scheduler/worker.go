package scheduler

import (
	"context"
	"fmt"
	"time"

	"funnel_crm_backend/internal/leads/lifecycle"
	"funnel_crm_backend/internal/leads/scoring"
	"funnel_crm_backend/platform/apperr"
	"funnel_crm_backend/platform/config"
	"funnel_crm_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// WorkerConfig is the combined configuration surface of the task worker.
type WorkerConfig interface {
	config.SchedulerConfig
	config.SweepConfig
}

type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	scores    *scoring.Service
	leads     *lifecycle.Service
	idleDays  int
	log       *logger.Logger
}

func NewWorker(cfg WorkerConfig, scores *scoring.Service, leads *lifecycle.Service, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	idleDays := cfg.GetColdSweepIdleDays()
	if idleDays < 1 {
		idleDays = 30
	}

	mux := asynq.NewServeMux()
	w := &Worker{
		server:   server,
		mux:      mux,
		scores:   scores,
		leads:    leads,
		idleDays: idleDays,
		log:      log,
	}

	mux.HandleFunc(TaskScoreRecalculate, w.handleScoreRecalculate)
	mux.HandleFunc(TaskColdSweep, w.handleColdSweep)

	schedule := cfg.GetColdSweepSchedule()
	if schedule != "" {
		scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{})
		sweepTask, err := NewColdSweepTask(ColdSweepPayload{IdleDays: idleDays})
		if err != nil {
			return nil, err
		}
		if _, err := scheduler.Register(schedule, sweepTask, asynq.Queue(queue)); err != nil {
			return nil, fmt.Errorf("register cold sweep: %w", err)
		}
		w.scheduler = scheduler
	}

	return w, nil
}

func (w *Worker) handleScoreRecalculate(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseScoreRecalculatePayload(task)
	if err != nil {
		return err
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return fmt.Errorf("invalid lead id %q: %w", payload.LeadID, err)
	}

	_, err = w.scores.Recalculate(ctx, leadID)
	if apperr.Is(err, apperr.KindNotFound) {
		// Lead deleted between enqueue and processing; nothing to retry.
		w.log.Warn("skipping score recompute for missing lead", "leadId", leadID)
		return nil
	}
	return err
}

func (w *Worker) handleColdSweep(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseColdSweepPayload(task)
	if err != nil {
		return err
	}

	idleDays := payload.IdleDays
	if idleDays < 1 {
		idleDays = w.idleDays
	}
	cutoff := time.Now().Add(-time.Duration(idleDays) * 24 * time.Hour)

	moved, err := w.leads.SweepIdleMOFU(ctx, cutoff)
	if err != nil {
		return err
	}
	w.log.Info("cold sweep finished", "moved", moved, "idleDays", idleDays)
	return nil
}

// Run blocks serving tasks until the context is cancelled. The periodic
// scheduler, when configured, runs alongside the task server.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	if w.scheduler != nil {
		go func() {
			if err := w.scheduler.Run(); err != nil {
				w.log.Error("periodic scheduler stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("task worker stopped", "error", err)
	}
}
