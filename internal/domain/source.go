package domain

import "time"

// Source type discriminators. Each value selects a connector variant.
const (
	SourceTypeBoard     = "board"
	SourceTypeNaverBlog = "naver_blog"
	SourceTypeInstagram = "instagram"
	SourceTypeThreads   = "threads"
	SourceTypeX         = "x"
)

// Source is a configured external origin to poll.
type Source struct {
	ID              int64      `db:"id"`
	Name            string     `db:"name"`
	Type            string     `db:"type"`
	BaseURL         string     `db:"base_url"`
	Enabled         bool       `db:"enabled"`
	CollectInterval int        `db:"collect_interval"` // minutes, always > 0
	LastCollectedAt *time.Time `db:"last_collected_at"`
	CrawlPolicy     *string    `db:"crawl_policy"` // opaque JSON, interpreted by connectors only
	OwnerID         int64      `db:"owner_id"`
	CreatedAt       time.Time  `db:"created_at"`
}

// Due reports whether the source's collection interval has elapsed.
// A source that has never been collected is always due.
func (s *Source) Due(now time.Time) bool {
	if s.LastCollectedAt == nil {
		return true
	}
	return !now.Before(s.LastCollectedAt.Add(time.Duration(s.CollectInterval) * time.Minute))
}

// Owner is the user a source belongs to. Sources of expired owners
// are never collected, even when enabled.
type Owner struct {
	ID        int64      `db:"id"`
	Username  string     `db:"username"`
	Role      string     `db:"role"`
	ExpiresAt *time.Time `db:"expires_at"`
}

// Expired reports whether the owner's account has lapsed.
func (o *Owner) Expired(now time.Time) bool {
	return o.ExpiresAt != nil && now.After(*o.ExpiresAt)
}
