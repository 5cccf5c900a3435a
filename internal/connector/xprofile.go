package connector

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"content_collector/internal/domain"
)

// X ships its Redux snapshot in a window.__INITIAL_STATE__ assignment.
// Tweets appear as objects keyed by id somewhere under the entities
// subtree; the shape moves between releases, so tweets are recognized
// by their fields rather than their location.
const xStateMarker = "__INITIAL_STATE__"

const xTimeLayout = "Mon Jan 02 15:04:05 -0700 2006"

type XConnector struct {
	source *domain.Source
	client *Client
	logger *slog.Logger
	rows   int

	handle string
}

func NewXConnector(source *domain.Source, client *Client, logger *slog.Logger) *XConnector {
	return &XConnector{source: source, client: client, logger: logger, rows: defaultMaxRows}
}

func (c *XConnector) FetchList(ctx context.Context) ([]domain.CandidateItem, error) {
	profileURL, handle, err := xProfileURL(c.source.BaseURL)
	if err != nil {
		return nil, err
	}
	c.handle = handle

	html, err := c.client.Get(ctx, profileURL, FetchOptions{Referer: RefererFor(profileURL)})
	if err != nil {
		return nil, fmt.Errorf("fetch x profile: %w", err)
	}

	items := c.parseProfile(html)
	if len(items) == 0 {
		c.logger.Warn("no tweets found in x state payload", "url", profileURL)
	}
	return items, nil
}

// FetchDetail is a no-op. The state snapshot carries full tweet text.
func (c *XConnector) FetchDetail(_ context.Context, _ string) (*domain.Detail, error) {
	return &domain.Detail{}, nil
}

func (c *XConnector) parseProfile(html string) []domain.CandidateItem {
	var items []domain.CandidateItem
	seen := make(map[string]struct{})

	for _, script := range scanScripts(html, xStateMarker) {
		root, ok := extractJSON(script)
		if !ok {
			continue
		}

		walkJSON(root, func(node any) bool {
			obj, ok := node.(map[string]any)
			if !ok {
				return true
			}
			if !isTweet(obj) {
				return true
			}

			id := jsonString(obj, "id_str")
			if _, dup := seen[id]; dup {
				return true
			}

			item, ok := c.itemFromTweet(obj, id)
			if !ok {
				return true
			}
			seen[id] = struct{}{}
			items = append(items, item)
			return len(items) < c.rows
		})

		if len(items) >= c.rows {
			break
		}
	}

	return items
}

// isTweet reports whether a map carries the minimal tweet shape.
func isTweet(obj map[string]any) bool {
	if _, ok := obj["id_str"].(string); !ok {
		return false
	}
	if _, ok := obj["created_at"].(string); !ok {
		return false
	}
	_, hasFull := obj["full_text"].(string)
	_, hasText := obj["text"].(string)
	return hasFull || hasText
}

func (c *XConnector) itemFromTweet(tweet map[string]any, id string) (domain.CandidateItem, bool) {
	text := jsonString(tweet, "full_text")
	if text == "" {
		text = jsonString(tweet, "text")
	}
	text = strings.TrimSpace(text)
	if text == "" && len(jsonSlice(tweet, "entities", "media")) == 0 {
		return domain.CandidateItem{}, false
	}

	handle := tweetAuthor(tweet)
	if handle == "" {
		handle = c.handle
	}

	item := domain.CandidateItem{
		URL:          fmt.Sprintf("https://x.com/%s/status/%s", handle, id),
		SourceItemID: id,
		Title:        captionTitle(text),
		RawText:      text,
	}
	if item.Title == "" {
		item.Title = "X post " + id
	}

	if created := jsonString(tweet, "created_at"); created != "" {
		if t, err := time.Parse(xTimeLayout, created); err == nil {
			utc := t.UTC()
			item.PublishedAt = &utc
		} else {
			c.logger.Debug("unparseable tweet timestamp", "value", created)
		}
	}

	media := jsonSlice(tweet, "extended_entities", "media")
	if len(media) == 0 {
		media = jsonSlice(tweet, "entities", "media")
	}
	for _, m := range media {
		if u := jsonString(m, "media_url_https"); u != "" {
			item.ImageURLs = append(item.ImageURLs, u)
		}
	}
	item.ImageURLs = dedupeStrings(item.ImageURLs)

	meta := map[string]any{"platform": "x"}
	if n, ok := jsonNumber(tweet, "favorite_count"); ok {
		meta["likes"] = int64(n)
	}
	if n, ok := jsonNumber(tweet, "retweet_count"); ok {
		meta["reposts"] = int64(n)
	}
	if n, ok := jsonNumber(tweet, "reply_count"); ok {
		meta["replies"] = int64(n)
	}
	item.Meta = meta

	return item, true
}

// tweetAuthor pulls the author's screen name out of the tweet when it
// carries one, covering both the GraphQL user wrapper and the flat
// legacy shape.
func tweetAuthor(tweet map[string]any) string {
	if name := jsonString(tweet, "core", "user_results", "result", "legacy", "screen_name"); name != "" {
		return name
	}
	return jsonString(tweet, "user", "screen_name")
}

// xProfileURL normalizes a handle, @handle, or profile address to the
// canonical x.com profile URL. Legacy twitter.com addresses map onto
// x.com.
func xProfileURL(raw string) (string, string, error) {
	handle := strings.TrimSpace(raw)
	handle = strings.Replace(handle, "twitter.com", "x.com", 1)

	if strings.Contains(handle, "x.com") {
		u, err := url.Parse(handle)
		if err != nil {
			return "", "", fmt.Errorf("parse x url: %w", err)
		}
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(segments) == 0 || segments[0] == "" {
			return "", "", fmt.Errorf("no handle in x url %q", raw)
		}
		handle = segments[0]
	}

	handle = strings.TrimPrefix(handle, "@")
	if handle == "" {
		return "", "", fmt.Errorf("empty x handle")
	}
	return fmt.Sprintf("https://x.com/%s", handle), handle, nil
}
