package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/relocation-intake/internal/data/repos"
	"github.com/yungbote/relocation-intake/internal/jobs/runtime"
	"github.com/yungbote/relocation-intake/internal/pkg/dbctx"
	"github.com/yungbote/relocation-intake/internal/pkg/logger"
	"github.com/yungbote/relocation-intake/internal/services"
)

type Config struct {
	Concurrency  int
	PollInterval time.Duration
	// StaleAfter fails running jobs whose heartbeat is older than this.
	StaleAfter time.Duration
	// MaxAttempts bounds claims per job. Intake rounds run once.
	MaxAttempts int
	RetryDelay  time.Duration
}

func (c Config) withDefaults() Config {
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = 10 * time.Minute
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	return c
}

type Worker struct {
	db       *gorm.DB
	log      *logger.Logger
	repo     repos.JobRunRepo
	registry *runtime.Registry
	notify   services.JobNotifier
	cfg      Config

	group *errgroup.Group
}

func NewWorker(db *gorm.DB, baseLog *logger.Logger, repo repos.JobRunRepo, registry *runtime.Registry, notify services.JobNotifier, cfg Config) *Worker {
	return &Worker{
		db:       db,
		log:      baseLog.With("component", "JobWorker"),
		repo:     repo,
		registry: registry,
		notify:   notify,
		cfg:      cfg.withDefaults(),
	}
}

// Start launches the claim loops and the stale sweeper. They stop when ctx is done;
// Wait blocks until they have.
func (w *Worker) Start(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	w.group = g
	w.log.Info("Starting job worker pool",
		"concurrency", w.cfg.Concurrency,
		"job_types", w.registry.Types(),
		"stale_after", w.cfg.StaleAfter.String(),
	)
	for i := 0; i < w.cfg.Concurrency; i++ {
		workerID := i + 1
		g.Go(func() error {
			w.runLoop(gctx, workerID)
			return nil
		})
	}
	g.Go(func() error {
		w.sweepLoop(gctx)
		return nil
	})
}

func (w *Worker) Wait() error {
	if w.group == nil {
		return nil
	}
	return w.group.Wait()
}

func (w *Worker) runLoop(ctx context.Context, workerID int) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Worker loop stopped", "worker_id", workerID)
			return
		case <-ticker.C:
			// drain everything runnable before sleeping again
			for ctx.Err() == nil && w.RunOnce(ctx, workerID) {
			}
		}
	}
}

func (w *Worker) sweepLoop(ctx context.Context) {
	every := w.cfg.StaleAfter / 4
	if every < w.cfg.PollInterval {
		every = w.cfg.PollInterval
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.repo.FailStaleRunning(dbctx.Context{Ctx: ctx}, w.cfg.StaleAfter); err != nil {
				w.log.Warn("FailStaleRunning failed", "error", err)
			}
		}
	}
}

// RunOnce claims and runs at most one job. It reports whether a job was claimed.
func (w *Worker) RunOnce(ctx context.Context, workerID int) bool {
	job, err := w.repo.ClaimNextRunnable(dbctx.Context{Ctx: ctx}, w.cfg.MaxAttempts, w.cfg.RetryDelay)
	if err != nil {
		w.log.Warn("ClaimNextRunnable failed", "worker_id", workerID, "error", err)
		return false
	}
	if job == nil {
		return false
	}

	jc := runtime.NewContext(ctx, w.db, job, w.repo, w.notify)
	h, ok := w.registry.Get(job.JobType)
	if !ok {
		w.log.Warn("No handler registered for job_type", "worker_id", workerID, "job_type", job.JobType, "job_id", job.ID)
		jc.Fail("dispatch", fmt.Errorf("no handler registered for job_type=%s", job.JobType))
		return true
	}

	stopBeat := w.heartbeat(ctx, job.ID)
	defer stopBeat()

	start := time.Now()
	func() {
		defer func() {
			if r := recover(); r != nil {
				w.log.Error("Job handler panic", "worker_id", workerID, "job_id", job.ID, "job_type", job.JobType, "panic", r)
				jc.Fail("panic", fmt.Errorf("panic: %v", r))
			}
		}()
		if runErr := h.Run(jc); runErr != nil {
			// handlers usually fail the job themselves; this catches the rest
			jc.Fail("run", runErr)
		}
	}()
	w.log.Info("Job finished",
		"worker_id", workerID,
		"job_id", job.ID,
		"job_type", job.JobType,
		"status", jc.Job.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return true
}

// heartbeat keeps job's heartbeat fresh until the returned stop func is called.
func (w *Worker) heartbeat(ctx context.Context, jobID uuid.UUID) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTicker(max(w.cfg.StaleAfter/3, time.Millisecond))
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := w.repo.Heartbeat(dbctx.Context{Ctx: ctx}, jobID); err != nil && ctx.Err() == nil {
					w.log.Warn("Heartbeat failed", "job_id", jobID, "error", err)
				}
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
