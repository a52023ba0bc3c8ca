package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/presalekit/estimator/internal/common"
	"github.com/presalekit/estimator/internal/repository"
)

// Runner owns the poll loop: N workers each claim one queued document at a
// time, process it synchronously, and back off when the queue is empty.
// Exclusivity comes from the claim's locking semantics, not from the runner.
type Runner struct {
	log  *slog.Logger
	cfg  common.PipelineConfig
	docs repository.DocumentRepository
	orch *Orchestrator
	sem  *semaphore.Weighted
	wg   sync.WaitGroup
}

func NewRunner(log *slog.Logger, cfg common.PipelineConfig, docs repository.DocumentRepository, orch *Orchestrator) *Runner {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = int64(cfg.Workers)
	}
	if cfg.PollBackoff <= 0 {
		cfg.PollBackoff = 3 * time.Second
	}
	if cfg.PostJobSleep <= 0 {
		cfg.PostJobSleep = 2 * time.Second
	}
	return &Runner{
		log:  log,
		cfg:  cfg,
		docs: docs,
		orch: orch,
		sem:  semaphore.NewWeighted(cfg.MaxInFlight),
	}
}

// Run starts the worker pool and blocks until ctx is cancelled and all
// in-flight documents have finished.
func (r *Runner) Run(ctx context.Context) {
	r.log.Info("runner.start", "workers", r.cfg.Workers, "max_in_flight", r.cfg.MaxInFlight)
	for i := 1; i <= r.cfg.Workers; i++ {
		r.wg.Add(1)
		go func(workerID int) {
			defer r.wg.Done()
			r.workerLoop(ctx, workerID)
		}(i)
	}
	r.wg.Wait()
	r.log.Info("runner.stopped")
}

func (r *Runner) workerLoop(ctx context.Context, workerID int) {
	log := r.log.With("worker_id", workerID)
	log.Info("worker.started")
	for {
		if ctx.Err() != nil {
			log.Info("worker.stopped")
			return
		}

		id, err := r.docs.ClaimNextQueued(ctx)
		if err != nil {
			if errors.Is(err, repository.ErrNoQueuedDocuments) {
				r.sleep(ctx, r.cfg.PollBackoff)
				continue
			}
			log.Error("worker.claim_failed", "error", err)
			r.sleep(ctx, r.cfg.PollBackoff)
			continue
		}

		if err := r.sem.Acquire(ctx, 1); err != nil {
			return
		}
		jobCtx := ctx
		var cancel context.CancelFunc = func() {}
		if r.cfg.JobTimeout > 0 {
			jobCtx, cancel = context.WithTimeout(ctx, r.cfg.JobTimeout)
		}
		r.orch.Process(jobCtx, id)
		cancel()
		r.sem.Release(1)

		r.sleep(ctx, r.cfg.PostJobSleep)
	}
}

func (r *Runner) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
