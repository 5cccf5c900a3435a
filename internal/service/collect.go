package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"content_collector/internal/classify"
	"content_collector/internal/config"
	"content_collector/internal/dedup"
	"content_collector/internal/domain"
	"content_collector/internal/queue"
)

// CollectService runs the ingestion pipeline: fetch candidates from a
// source, filter stale and already-seen ones, persist the rest, and
// hand each new item to the enrichment stage.
type CollectService struct {
	sources    SourceStore
	owners     OwnerStore
	items      ItemStore
	connectors ConnectorFactory
	deduper    Deduper
	summarizer Summarizer
	txManager  TransactionManager
	publisher  Publisher
	jobs       JobQueue
	logger     *slog.Logger
	config     config.CollectorConfig
}

func NewCollectService(
	sources SourceStore,
	owners OwnerStore,
	items ItemStore,
	connectors ConnectorFactory,
	deduper Deduper,
	summarizer Summarizer,
	txManager TransactionManager,
	publisher Publisher,
	jobs JobQueue,
	logger *slog.Logger,
	cfg config.CollectorConfig,
) *CollectService {
	return &CollectService{
		sources:    sources,
		owners:     owners,
		items:      items,
		connectors: connectors,
		deduper:    deduper,
		summarizer: summarizer,
		txManager:  txManager,
		publisher:  publisher,
		jobs:       jobs,
		logger:     logger,
		config:     cfg,
	}
}

// CollectSource runs one collection pass for a source. The source and
// its owner are re-checked here because jobs may sit queued long after
// scheduling. A completed run advances last_collected_at to the run's
// start time whether or not anything new was found.
func (s *CollectService) CollectSource(ctx context.Context, sourceID int64) (*domain.CollectStats, error) {
	start := time.Now()
	logger := s.logger.With("source", sourceID)

	source, err := s.sources.Get(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("load source: %w", err)
	}

	stats := &domain.CollectStats{SourceID: sourceID}

	if !source.Enabled {
		logger.Info("source disabled, skipping collection")
		return stats, nil
	}

	owner, err := s.owners.Get(ctx, source.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("load owner: %w", err)
	}
	if owner.Expired(start) {
		logger.Info("owner account expired, skipping collection",
			"owner", owner.ID, "expires_at", owner.ExpiresAt)
		return stats, nil
	}

	logger.Info("starting collection", "source_name", source.Name, "type", source.Type)

	candidates, err := s.fetchWithRetry(ctx, s.connectors(source), logger)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	stats.Fetched = len(candidates)

	cutoff := start.AddDate(0, 0, -s.config.RecencyWindowDays)
	for i := range candidates {
		candidate := &candidates[i]

		// Items without a publication date pass the recency filter.
		if candidate.PublishedAt != nil && candidate.PublishedAt.Before(cutoff) {
			stats.SkippedStale++
			continue
		}

		urlHash := dedup.URLHash(candidate.URL)
		exists, err := s.items.ExistsByURLHash(ctx, urlHash)
		if err != nil {
			logger.Error("url hash check failed", "url", candidate.URL, "error", err)
			stats.Errors++
			continue
		}
		if exists {
			stats.SkippedDuplicate++
			continue
		}

		itemID, err := s.persistCandidate(ctx, source, candidate, urlHash, start)
		if err != nil {
			logger.Error("persist candidate failed", "url", candidate.URL, "error", err)
			stats.Errors++
			continue
		}
		stats.New++

		err = s.jobs.Enqueue(queue.Job{
			Name: fmt.Sprintf("process_item:%d", itemID),
			Run: func(jobCtx context.Context) error {
				return s.ProcessItem(jobCtx, itemID)
			},
		})
		if err != nil {
			// The item is persisted; enrichment just runs inline when
			// the queue cannot take it.
			logger.Warn("enrichment queue unavailable, processing inline", "item_id", itemID, "error", err)
			if err := s.ProcessItem(ctx, itemID); err != nil {
				logger.Error("inline item processing failed", "item_id", itemID, "error", err)
				stats.Errors++
			}
		}
	}

	if err := s.sources.UpdateLastCollected(ctx, sourceID, start); err != nil {
		return stats, fmt.Errorf("update last collected: %w", err)
	}

	stats.Duration = time.Since(start)
	logger.Info("collection completed",
		"fetched", stats.Fetched,
		"new", stats.New,
		"skipped_stale", stats.SkippedStale,
		"skipped_duplicate", stats.SkippedDuplicate,
		"errors", stats.Errors,
		"duration", stats.Duration,
	)
	return stats, nil
}

// fetchWithRetry is the single retry boundary of the pipeline.
// Everything downstream of the fetch either succeeds or counts as an
// item-level error.
func (s *CollectService) fetchWithRetry(ctx context.Context, conn Connector, logger *slog.Logger) ([]domain.CandidateItem, error) {
	backoff := s.config.Retry.InitialBackoff

	var lastErr error
	for attempt := 1; attempt <= s.config.Retry.MaxAttempts; attempt++ {
		candidates, err := conn.FetchList(ctx)
		if err == nil {
			return candidates, nil
		}
		lastErr = err

		if attempt == s.config.Retry.MaxAttempts {
			break
		}
		logger.Warn("fetch failed, retrying",
			"attempt", attempt, "backoff", backoff, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > s.config.Retry.MaxBackoff {
			backoff = s.config.Retry.MaxBackoff
		}
	}
	return nil, lastErr
}

func (s *CollectService) persistCandidate(ctx context.Context, source *domain.Source, candidate *domain.CandidateItem, urlHash string, collectedAt time.Time) (int64, error) {
	item := &domain.Item{
		SourceID:     source.ID,
		SourceItemID: candidate.SourceItemID,
		Title:        candidate.Title,
		URL:          candidate.URL,
		PublishedAt:  candidate.PublishedAt,
		CollectedAt:  collectedAt,
		RawText:      candidate.RawText,
		Status:       domain.StatusCollected,
		HashURL:      urlHash,
		HashContent:  dedup.ContentHash(candidate.RawText),
		ImageURLs:    candidate.ImageURLs,
		Meta:         candidate.Meta,
		OwnerID:      source.OwnerID,
	}

	var itemID int64
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		id, err := s.items.Insert(txCtx, item)
		if err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
		itemID = id
		return nil
	})
	return itemID, err
}

// ProcessItem enriches a persisted item: records duplicates, assigns
// category, region and tags, summarizes, and announces the item
// downstream. Classification and summarization never fail the item;
// publishing is best effort too.
func (s *CollectService) ProcessItem(ctx context.Context, itemID int64) error {
	logger := s.logger.With("item_id", itemID)

	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return fmt.Errorf("load item: %w", err)
	}

	matches, err := s.deduper.Process(ctx, item)
	if err != nil {
		return fmt.Errorf("dedup item: %w", err)
	}
	if len(matches) > 0 {
		logger.Info("item has duplicates", "count", len(matches))
	}

	result := classify.Classify(item.Title, item.RawText)
	item.Category = result.Category
	item.Region = result.Region
	item.Tags = result.Tags
	if s.summarizer != nil {
		item.SummaryText = s.summarizer.Summarize(item.RawText)
	}

	if err := s.items.UpdateEnrichment(ctx, item); err != nil {
		return fmt.Errorf("store enrichment: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, item, "collected"); err != nil {
			logger.Warn("publish failed, item kept", "error", err)
		}
	}
	return nil
}
