package queue

import (
	"context"
	"log/slog"
	"sync"
)

// Pool executes jobs on a fixed number of workers over a bounded
// channel.
type Pool struct {
	jobs    chan Job
	workers int
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewPool(workers, size int, logger *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if size < 1 {
		size = 1
	}
	return &Pool{
		jobs:    make(chan Job, size),
		workers: workers,
		logger:  logger,
	}
}

// Start launches the workers. They run until ctx is canceled and the
// queue drains.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	logger := p.logger.With("worker", id)

	for job := range p.jobs {
		if ctx.Err() != nil {
			logger.Debug("dropping job, pool context canceled", "job", job.Name)
			continue
		}
		if err := job.Run(ctx); err != nil {
			logger.Error("job failed", "job", job.Name, "error", err)
		}
	}
}

// Enqueue offers a job without blocking. A stopped pool or a full
// queue returns ErrUnavailable.
func (p *Pool) Enqueue(job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrUnavailable
	}
	select {
	case p.jobs <- job:
		return nil
	default:
		return ErrUnavailable
	}
}

// Stop refuses new jobs and waits for queued ones to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
}
