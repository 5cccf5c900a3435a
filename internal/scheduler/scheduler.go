package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"content_collector/internal/domain"
	"content_collector/internal/queue"
)

type SourceStore interface {
	Get(ctx context.Context, id int64) (*domain.Source, error)
	ListEnabled(ctx context.Context) ([]domain.Source, error)
	SetEnabled(ctx context.Context, id int64, enabled bool) error
}

type OwnerStore interface {
	Get(ctx context.Context, id int64) (*domain.Owner, error)
}

type Collector interface {
	CollectSource(ctx context.Context, sourceID int64) (*domain.CollectStats, error)
}

type JobQueue interface {
	Enqueue(job queue.Job) error
}

// Scheduler ticks on a fixed beat, finds sources whose collection
// interval has elapsed, and queues a collection job for each. A full
// queue only delays a source until the next beat.
type Scheduler struct {
	sources   SourceStore
	owners    OwnerStore
	collector Collector
	jobs      JobQueue
	interval  time.Duration
	logger    *slog.Logger
}

func NewScheduler(
	sources SourceStore,
	owners OwnerStore,
	collector Collector,
	jobs JobQueue,
	interval time.Duration,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		sources:   sources,
		owners:    owners,
		collector: collector,
		jobs:      jobs,
		interval:  interval,
		logger:    logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now()

	sources, err := s.sources.ListEnabled(ctx)
	if err != nil {
		s.logger.Error("list sources failed", "error", err)
		return
	}

	for _, source := range sources {
		if !source.Due(now) {
			continue
		}

		owner, err := s.owners.Get(ctx, source.OwnerID)
		if err != nil {
			s.logger.Error("load owner failed", "source", source.ID, "error", err)
			continue
		}
		if owner.Expired(now) {
			s.logger.Info("skipping source, owner expired",
				"source", source.ID, "owner", owner.ID, "expires_at", owner.ExpiresAt)
			continue
		}

		if err := s.enqueueCollect(source.ID); err != nil {
			s.logger.Warn("collection queue full, source deferred to next tick",
				"source", source.ID, "error", err)
		}
	}
}

func (s *Scheduler) enqueueCollect(sourceID int64) error {
	return s.jobs.Enqueue(queue.Job{
		Name: fmt.Sprintf("collect_source:%d", sourceID),
		Run: func(ctx context.Context) error {
			_, err := s.collector.CollectSource(ctx, sourceID)
			return err
		},
	})
}

// Trigger queues an immediate collection for one source, regardless of
// its interval. A disabled source is enabled first so the run is not a
// silent no-op. Queue unavailability is surfaced to the caller instead
// of being retried.
func (s *Scheduler) Trigger(ctx context.Context, sourceID int64) error {
	source, err := s.sources.Get(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("load source: %w", err)
	}

	owner, err := s.owners.Get(ctx, source.OwnerID)
	if err != nil {
		return fmt.Errorf("load owner: %w", err)
	}
	if owner.Expired(time.Now()) {
		return fmt.Errorf("owner %d expired", owner.ID)
	}

	if !source.Enabled {
		if err := s.sources.SetEnabled(ctx, sourceID, true); err != nil {
			return fmt.Errorf("enable source: %w", err)
		}
	}

	if err := s.enqueueCollect(sourceID); err != nil {
		return fmt.Errorf("queue collection for source %d: %w", sourceID, err)
	}
	return nil
}
