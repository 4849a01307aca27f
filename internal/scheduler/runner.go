// Package scheduler drives the periodic, lock-guarded jobs of the orchestrator.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/wms-platform/fulfillment-orchestrator/pkg/logging"
)

// Job is one periodic unit of work
type Job interface {
	Run(ctx context.Context)
}

type entry struct {
	name     string
	interval time.Duration
	job      Job
}

// Runner runs each registered job on its own ticker until the context ends
type Runner struct {
	logger  *logging.Logger
	entries []entry
	wg      sync.WaitGroup
}

// NewRunner creates an empty Runner
func NewRunner(logger *logging.Logger) *Runner {
	return &Runner{logger: logger.WithComponent("scheduler")}
}

// Add registers job to run every interval. Non-positive intervals disable the job.
func (r *Runner) Add(name string, interval time.Duration, job Job) {
	if interval <= 0 {
		r.logger.Info("Scheduled job disabled", "job", name)
		return
	}
	r.entries = append(r.entries, entry{name: name, interval: interval, job: job})
}

// Start launches one goroutine per job and returns immediately
func (r *Runner) Start(ctx context.Context) {
	for _, e := range r.entries {
		r.wg.Add(1)
		go r.loop(ctx, e)
	}
}

// Wait blocks until every job loop has returned
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) loop(ctx context.Context, e entry) {
	defer r.wg.Done()
	r.logger.Info("Starting scheduled job", "job", e.name, "interval", e.interval)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Stopping scheduled job", "job", e.name)
			return
		case <-ticker.C:
			r.runOnce(ctx, e)
		}
	}
}

func (r *Runner) runOnce(ctx context.Context, e entry) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Panic(ctx, rec)
		}
	}()
	e.job.Run(ctx)
}
