// Package queue runs collection work on a bounded in-process worker
// pool. Producers enqueue without blocking; a full or stopped queue is
// reported as unavailable so callers can decide whether to drop or
// surface the failure.
package queue

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when a job cannot be accepted, either
// because the queue is full or because the pool is shutting down.
var ErrUnavailable = errors.New("job queue unavailable")

// Job is a named unit of work.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}
