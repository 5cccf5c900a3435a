package domain

import "time"

// Item workflow statuses. Deletion is a status transition, never a row delete.
const (
	StatusCollected = "collected"
	StatusQueued    = "queued"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusDeleted   = "deleted"
)

// statusTransitions describes the legal workflow moves. Any state may
// move to deleted; deleted is terminal.
var statusTransitions = map[string][]string{
	StatusCollected: {StatusQueued, StatusDeleted},
	StatusQueued:    {StatusApproved, StatusRejected, StatusDeleted},
	StatusApproved:  {StatusDeleted},
	StatusRejected:  {StatusDeleted},
	StatusDeleted:   {},
}

// ValidStatusTransition reports whether moving an item from one status
// to another is allowed.
func ValidStatusTransition(from, to string) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CandidateItem is a transient item produced by a connector fetch.
// It is never persisted; the ingestion pipeline consumes it once.
type CandidateItem struct {
	URL          string
	Title        string
	SourceItemID string
	PublishedAt  *time.Time
	RawText      string
	ImageURLs    []string
	Meta         map[string]any
}

// Detail is the result of enriching a single candidate with full content.
type Detail struct {
	RawText   string
	ImageURLs []string
	Meta      map[string]any
}

// Item is a persisted unit of collected content.
type Item struct {
	ID            int64          `db:"id" json:"id"`
	SourceID      int64          `db:"source_id" json:"source_id"`
	SourceItemID  string         `db:"source_item_id" json:"source_item_id"`
	Title         string         `db:"title" json:"title"`
	URL           string         `db:"url" json:"url"`
	PublishedAt   *time.Time     `db:"published_at" json:"published_at,omitempty"`
	CollectedAt   time.Time      `db:"collected_at" json:"collected_at"`
	RawText       string         `db:"raw_text" json:"raw_text"`
	SummaryText   string         `db:"summary_text" json:"summary_text"`
	Category      string         `db:"category" json:"category"`
	Region        string         `db:"region" json:"region"`
	Tags          []string       `db:"-" json:"tags"`
	Status        string         `db:"status" json:"status"`
	HashContent   string         `db:"hash_content" json:"hash_content"`
	HashURL       string         `db:"hash_url" json:"hash_url"`
	ImageURLs     []string       `db:"-" json:"image_urls"`
	Meta          map[string]any `db:"-" json:"meta,omitempty"`
	ScorePriority int            `db:"score_priority" json:"score_priority"`
	OwnerID       int64          `db:"owner_id" json:"owner_id"`
}

// DuplicateLink is a directed edge from an item to an earlier item it
// duplicates. Similarity is 1 for exact hash matches and the Jaccard
// score for title matches.
type DuplicateLink struct {
	ID                int64     `db:"id"`
	ItemID            int64     `db:"item_id"`
	DuplicateOfItemID int64     `db:"duplicate_of_item_id"`
	Reason            string    `db:"reason"`
	Similarity        float64   `db:"similarity"`
	CreatedAt         time.Time `db:"created_at"`
}
