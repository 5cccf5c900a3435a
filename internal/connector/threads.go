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

// Threads embeds timeline data in Relay stream-cache script payloads on
// the profile page. Posts live in thread_items arrays nested at varying
// depths, so parsing walks the decoded tree instead of fixed paths.
const threadsMarker = "RelayPrefetchedStreamCache"

type ThreadsConnector struct {
	source *domain.Source
	client *Client
	logger *slog.Logger
	rows   int

	handle string
}

func NewThreadsConnector(source *domain.Source, client *Client, logger *slog.Logger) *ThreadsConnector {
	return &ThreadsConnector{source: source, client: client, logger: logger, rows: defaultMaxRows}
}

func (c *ThreadsConnector) FetchList(ctx context.Context) ([]domain.CandidateItem, error) {
	profileURL, handle, err := threadsProfileURL(c.source.BaseURL)
	if err != nil {
		return nil, err
	}
	c.handle = handle

	html, err := c.client.Get(ctx, profileURL, FetchOptions{Referer: RefererFor(profileURL)})
	if err != nil {
		return nil, fmt.Errorf("fetch threads profile: %w", err)
	}

	items := c.parseProfile(html)
	if len(items) == 0 {
		c.logger.Warn("no posts found in threads payload", "url", profileURL)
	}
	return items, nil
}

// FetchDetail is a no-op. The stream cache already carries full post
// text and media.
func (c *ThreadsConnector) FetchDetail(_ context.Context, _ string) (*domain.Detail, error) {
	return &domain.Detail{}, nil
}

func (c *ThreadsConnector) parseProfile(html string) []domain.CandidateItem {
	var items []domain.CandidateItem
	seen := make(map[string]struct{})

	for _, script := range scanScripts(html, threadsMarker) {
		root, ok := extractJSON(script)
		if !ok {
			continue
		}

		for _, post := range threadPosts(root) {
			code := jsonString(post, "code")
			if code == "" {
				continue
			}
			if _, dup := seen[code]; dup {
				continue
			}

			item, ok := c.itemFromPost(post, code)
			if !ok {
				continue
			}
			seen[code] = struct{}{}
			items = append(items, item)

			if len(items) >= c.rows {
				return items
			}
		}
	}

	return items
}

// threadPosts collects the post objects of every thread_items list in
// the decoded payload.
func threadPosts(root any) []map[string]any {
	var posts []map[string]any

	walkJSON(root, func(node any) bool {
		obj, ok := node.(map[string]any)
		if !ok {
			return true
		}
		threadItems, ok := obj["thread_items"].([]any)
		if !ok {
			return true
		}
		for _, ti := range threadItems {
			if post := jsonMap(ti, "post"); post != nil {
				posts = append(posts, post)
			}
		}
		return true
	})

	return posts
}

func (c *ThreadsConnector) itemFromPost(post map[string]any, code string) (domain.CandidateItem, bool) {
	text := strings.TrimSpace(jsonString(post, "caption", "text"))
	if text == "" {
		text = threadsFragmentText(post)
	}

	item := domain.CandidateItem{
		URL:          fmt.Sprintf("https://www.threads.com/@%s/post/%s", c.handle, code),
		SourceItemID: code,
		Title:        captionTitle(text),
		RawText:      text,
	}

	if ts, ok := jsonNumber(post, "taken_at"); ok {
		t := time.Unix(int64(ts), 0).UTC()
		item.PublishedAt = &t
	}

	item.ImageURLs = append(item.ImageURLs, threadsImages(post)...)
	for _, media := range jsonSlice(post, "carousel_media") {
		if m, ok := media.(map[string]any); ok {
			item.ImageURLs = append(item.ImageURLs, threadsImages(m)...)
		}
	}
	item.ImageURLs = dedupeStrings(item.ImageURLs)

	meta := map[string]any{"platform": "threads"}
	if likes, ok := jsonNumber(post, "like_count"); ok {
		meta["likes"] = int64(likes)
	}
	if replies, ok := jsonNumber(post, "text_post_app_info", "direct_reply_count"); ok {
		meta["replies"] = int64(replies)
	}
	if ct, ok := jsonNumber(post, "media_type"); ok && int(ct) == 2 {
		meta["is_video"] = true
	} else if len(jsonSlice(post, "video_versions")) > 0 {
		meta["is_video"] = true
	}
	item.Meta = meta

	if item.Title == "" && len(item.ImageURLs) == 0 {
		return domain.CandidateItem{}, false
	}
	if item.Title == "" {
		item.Title = "Threads post " + code
	}
	return item, true
}

// threadsFragmentText rebuilds post text from rich-text fragments, the
// shape newer payloads use instead of a flat caption.
func threadsFragmentText(post map[string]any) string {
	fragments := jsonSlice(post, "text_post_app_info", "text_fragments", "fragments")
	if len(fragments) == 0 {
		return ""
	}
	var b strings.Builder
	for _, frag := range fragments {
		b.WriteString(jsonString(frag, "plaintext"))
	}
	return strings.TrimSpace(b.String())
}

// threadsImages takes the first (largest) candidate of a media object.
func threadsImages(media map[string]any) []string {
	candidates := jsonSlice(media, "image_versions2", "candidates")
	if len(candidates) == 0 {
		return nil
	}
	if u := jsonString(candidates[0], "url"); u != "" {
		return []string{u}
	}
	return nil
}

// threadsProfileURL normalizes a handle, @handle, or profile address to
// the canonical threads.com profile URL. The legacy threads.net domain
// maps onto threads.com.
func threadsProfileURL(raw string) (string, string, error) {
	handle := strings.TrimSpace(raw)
	handle = strings.Replace(handle, "threads.net", "threads.com", 1)

	if strings.Contains(handle, "threads.com") {
		u, err := url.Parse(handle)
		if err != nil {
			return "", "", fmt.Errorf("parse threads url: %w", err)
		}
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(segments) == 0 || segments[0] == "" {
			return "", "", fmt.Errorf("no handle in threads url %q", raw)
		}
		handle = segments[0]
	}

	handle = strings.TrimPrefix(handle, "@")
	if handle == "" {
		return "", "", fmt.Errorf("empty threads handle")
	}
	return fmt.Sprintf("https://www.threads.com/@%s", handle), handle, nil
}
