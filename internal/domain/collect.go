package domain

import "time"

// Row skip reasons, reported by the ingestion pipeline for observability.
type SkipReason string

const (
	SkipStale     SkipReason = "stale"
	SkipDuplicate SkipReason = "duplicate"
)

// CollectStats holds statistics about one per-source collection job.
type CollectStats struct {
	SourceID         int64
	Fetched          int
	New              int
	SkippedStale     int
	SkippedDuplicate int
	Errors           int
	Duration         time.Duration
}
