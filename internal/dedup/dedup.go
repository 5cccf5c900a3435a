// Package dedup detects duplicate items across collections. Matching
// runs in three tiers of decreasing confidence: exact URL hash, exact
// normalized content hash, then title similarity against recent items
// of the same source.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"content_collector/internal/domain"
)

//go:generate mockgen -source=dedup.go -destination=mocks/mocks.go -package=mocks

const (
	// Titles at or above this Jaccard score count as duplicates.
	similarityThreshold = 0.8
	// How many recent same-source items the similarity tier scans.
	recentScanLimit = 100
)

type ItemStore interface {
	FirstByURLHash(ctx context.Context, hash string, excludeID int64) (*domain.Item, error)
	FirstByContentHash(ctx context.Context, hash string, excludeID int64) (*domain.Item, error)
	RecentBySource(ctx context.Context, sourceID int64, limit int) ([]domain.Item, error)
}

type DuplicateStore interface {
	Insert(ctx context.Context, link *domain.DuplicateLink) error
}

type Match struct {
	Item   *domain.Item
	Reason string
	Score  float64
}

const (
	ReasonURLHash     = "url_hash"
	ReasonContentHash = "content_hash"
	ReasonTitle       = "title_similarity"
)

type Engine struct {
	items      ItemStore
	duplicates DuplicateStore
	logger     *slog.Logger
}

func NewEngine(items ItemStore, duplicates DuplicateStore, logger *slog.Logger) *Engine {
	return &Engine{items: items, duplicates: duplicates, logger: logger}
}

// URLHash returns the hex SHA-256 of the raw URL.
func URLHash(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

// ContentHash hashes text after dropping all whitespace and lowering
// case, so reformatting and spacing changes do not defeat it.
func ContentHash(text string) string {
	normalized := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, text)
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Similarity is the case-insensitive Jaccard index over the character
// sets of two strings. Either side being empty scores zero.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}

	setA := runeSet(strings.ToLower(a))
	setB := runeSet(strings.ToLower(b))

	intersection := 0
	for r := range setA {
		if _, ok := setB[r]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func runeSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(s))
	for _, r := range s {
		set[r] = struct{}{}
	}
	return set
}

// FindDuplicates locates existing items the given item duplicates.
// Tiers short-circuit: a URL-hash hit skips the content tier, and a
// content hit skips the title scan.
func (e *Engine) FindDuplicates(ctx context.Context, item *domain.Item) ([]Match, error) {
	if match, err := e.items.FirstByURLHash(ctx, item.HashURL, item.ID); err != nil {
		return nil, fmt.Errorf("url hash lookup: %w", err)
	} else if match != nil {
		return []Match{{Item: match, Reason: ReasonURLHash, Score: 1}}, nil
	}

	if item.HashContent != "" {
		if match, err := e.items.FirstByContentHash(ctx, item.HashContent, item.ID); err != nil {
			return nil, fmt.Errorf("content hash lookup: %w", err)
		} else if match != nil {
			return []Match{{Item: match, Reason: ReasonContentHash, Score: 1}}, nil
		}
	}

	recent, err := e.items.RecentBySource(ctx, item.SourceID, recentScanLimit)
	if err != nil {
		return nil, fmt.Errorf("recent items lookup: %w", err)
	}

	var matches []Match
	for i := range recent {
		candidate := &recent[i]
		if candidate.ID == item.ID {
			continue
		}
		if score := Similarity(item.Title, candidate.Title); score >= similarityThreshold {
			matches = append(matches, Match{Item: candidate, Reason: ReasonTitle, Score: score})
		}
	}
	return matches, nil
}

// Process records duplicate links for the item. Re-running it for the
// same item is harmless since link inserts ignore conflicts.
func (e *Engine) Process(ctx context.Context, item *domain.Item) ([]Match, error) {
	matches, err := e.FindDuplicates(ctx, item)
	if err != nil {
		return nil, err
	}

	for _, match := range matches {
		link := &domain.DuplicateLink{
			ItemID:            item.ID,
			DuplicateOfItemID: match.Item.ID,
			Reason:            match.Reason,
			Similarity:        match.Score,
		}
		if err := e.duplicates.Insert(ctx, link); err != nil {
			return nil, fmt.Errorf("record duplicate link: %w", err)
		}
		e.logger.Info("duplicate recorded",
			"item_id", item.ID,
			"duplicate_of", match.Item.ID,
			"reason", match.Reason)
	}
	return matches, nil
}
