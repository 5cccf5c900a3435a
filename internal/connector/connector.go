// Package connector turns configured sources into normalized candidate
// items. Each source type has its own extraction strategy behind a
// common interface; new platforms are added as new variants.
package connector

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"content_collector/internal/domain"
)

// defaultMaxRows caps the number of rows considered per fetch when the
// collector configuration does not say otherwise.
const defaultMaxRows = 50

// Connector is the per-source-type extraction strategy.
//
// FetchList never fails on a single malformed row; it skips the row and
// continues. It returns an error only when the entire fetch failed.
// FetchDetail enriches one candidate with full body content and may be a
// no-op for variants whose listing already carries everything.
type Connector interface {
	FetchList(ctx context.Context) ([]domain.CandidateItem, error)
	FetchDetail(ctx context.Context, itemURL string) (*domain.Detail, error)
}

// Renderer fetches a page through a headless browser. Used as a fallback
// for profiles that only materialize their embedded state under JS.
type Renderer interface {
	Render(ctx context.Context, pageURL string) (string, error)
}

// New selects the connector variant for a source's type tag. Unknown
// types fall back to the board connector. maxRows overrides the default
// per-fetch row cap when positive.
func New(source *domain.Source, client *Client, renderer Renderer, maxRows int, logger *slog.Logger) Connector {
	logger = logger.With("source", source.ID, "type", source.Type)
	switch source.Type {
	case domain.SourceTypeNaverBlog:
		c := NewNaverBlogConnector(source, client, logger)
		c.rows = rowCap(maxRows)
		return c
	case domain.SourceTypeInstagram:
		c := NewInstagramConnector(source, client, renderer, logger)
		c.rows = rowCap(maxRows)
		return c
	case domain.SourceTypeThreads:
		c := NewThreadsConnector(source, client, logger)
		c.rows = rowCap(maxRows)
		return c
	case domain.SourceTypeX:
		c := NewXConnector(source, client, logger)
		c.rows = rowCap(maxRows)
		return c
	default:
		c := NewBoardConnector(source, client, logger)
		c.rows = rowCap(maxRows)
		return c
	}
}

func rowCap(maxRows int) int {
	if maxRows <= 0 {
		return defaultMaxRows
	}
	return maxRows
}

// absoluteURL resolves href against the page it appeared on. Fragment and
// javascript: pseudo-links resolve to "".
func absoluteURL(pageURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

var boardDateExpr = regexp.MustCompile(`(\d{2,4})-(\d{1,2})-(\d{1,2})`)

// parseBoardDate accepts the dot- and dash-delimited conventions used by
// bulletin boards, with 2- or 4-digit years. It returns nil rather than
// guessing on parse failure; a missing date never causes a skip downstream.
func parseBoardDate(text string) *time.Time {
	text = strings.ReplaceAll(strings.TrimSpace(text), ".", "-")
	m := boardDateExpr.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	year, month, day := m[1], m[2], m[3]
	if len(year) == 2 {
		year = "20" + year
	}
	t, err := time.Parse("2006-1-2", year+"-"+month+"-"+day)
	if err != nil {
		return nil
	}
	return &t
}

var itemIDExpr = regexp.MustCompile(`(?i)[?&](?:id|no|seq|idx|num|dataId)=(\d+)`)

// extractItemID pulls a numeric identifier out of common board URL query
// parameters, falling back to the URL itself.
func extractItemID(itemURL string) string {
	if m := itemIDExpr.FindStringSubmatch(itemURL); m != nil {
		return m[1]
	}
	return itemURL
}
