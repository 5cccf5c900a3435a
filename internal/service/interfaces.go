package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"content_collector/internal/dedup"
	"content_collector/internal/domain"
	"content_collector/internal/queue"
)

type SourceStore interface {
	Get(ctx context.Context, id int64) (*domain.Source, error)
	ListEnabled(ctx context.Context) ([]domain.Source, error)
	UpdateLastCollected(ctx context.Context, id int64, at time.Time) error
}

type OwnerStore interface {
	Get(ctx context.Context, id int64) (*domain.Owner, error)
}

type ItemStore interface {
	Insert(ctx context.Context, item *domain.Item) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Item, error)
	ExistsByURLHash(ctx context.Context, hash string) (bool, error)
	UpdateEnrichment(ctx context.Context, item *domain.Item) error
}

// Connector lists fresh candidate items from one upstream source.
type Connector interface {
	FetchList(ctx context.Context) ([]domain.CandidateItem, error)
}

// ConnectorFactory builds the connector matching a source's type.
type ConnectorFactory func(source *domain.Source) Connector

// Deduper finds and records duplicates of a persisted item.
type Deduper interface {
	Process(ctx context.Context, item *domain.Item) ([]dedup.Match, error)
}

// Summarizer condenses an item body. Implementations may be rule based
// or remote-model backed; the pipeline treats the result as best effort.
type Summarizer interface {
	Summarize(text string) string
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, item *domain.Item, action string) error
	Close() error
}

type JobQueue interface {
	Enqueue(job queue.Job) error
}
