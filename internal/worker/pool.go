// Package worker runs background jobs on a fixed pool of goroutines.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/typespeed/typespeed/internal/logger"
)

// Job is a unit of background work.
type Job interface {
	Run(context.Context) error
	Name() string
}

// Pool runs submitted jobs on a fixed number of workers with a bounded queue.
type Pool struct {
	jobs    chan Job
	wg      sync.WaitGroup
	workers int
	cancel  context.CancelFunc
	log     *logger.Logger
}

func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 32
	}
	return &Pool{
		jobs:    make(chan Job, queueSize),
		workers: workers,
		log:     logger.Default().WithPrefix("worker"),
	}
}

// Start launches the workers. They run until Stop is called or the parent
// context is cancelled.
func (p *Pool) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.log.Info("starting %d workers", p.workers)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			wlog := p.log.WithField("worker_id", id)
			for {
				select {
				case <-ctx.Done():
					return
				case job := <-p.jobs:
					if job == nil {
						return
					}
					jlog := wlog.WithField("job", job.Name())
					start := time.Now()
					if err := job.Run(logger.NewContext(ctx, jlog)); err != nil {
						jlog.Error("job failed after %v: %v", time.Since(start), err)
					} else {
						jlog.Info("job completed in %v", time.Since(start))
					}
				}
			}
		}(i + 1)
	}
}

// Stop cancels running jobs and waits for the workers to exit.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	close(p.jobs)
	p.wg.Wait()
	p.log.Info("worker pool stopped")
}

// Submit enqueues a job, blocking when the queue is full.
func (p *Pool) Submit(job Job) {
	p.log.Debug("submitting job: %s", job.Name())
	p.jobs <- job
}

// TrySubmit enqueues a job without blocking. Reports whether it was accepted.
func (p *Pool) TrySubmit(job Job) bool {
	select {
	case p.jobs <- job:
		return true
	default:
		p.log.Warn("queue full, dropping job: %s", job.Name())
		return false
	}
}

// QueueSize returns the current number of pending jobs.
func (p *Pool) QueueSize() int {
	return len(p.jobs)
}
