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

// InstagramConnector reads a public profile page and decodes the post
// data Instagram embeds as JSON in script tags. Logged-out requests may
// get a login wall instead of content; when a renderer is available the
// page is re-fetched through a real browser before giving up.
type InstagramConnector struct {
	source   *domain.Source
	client   *Client
	renderer Renderer
	logger   *slog.Logger
	rows     int
}

func NewInstagramConnector(source *domain.Source, client *Client, renderer Renderer, logger *slog.Logger) *InstagramConnector {
	return &InstagramConnector{source: source, client: client, renderer: renderer, logger: logger, rows: defaultMaxRows}
}

func (c *InstagramConnector) FetchList(ctx context.Context) ([]domain.CandidateItem, error) {
	profileURL, err := instagramProfileURL(c.source.BaseURL)
	if err != nil {
		return nil, err
	}

	html, err := c.client.Get(ctx, profileURL, FetchOptions{Referer: RefererFor(profileURL)})
	if err != nil {
		return nil, fmt.Errorf("fetch instagram profile: %w", err)
	}

	items := c.parseProfile(html)
	if len(items) == 0 && c.renderer != nil {
		c.logger.Info("no embedded posts, retrying with browser render", "url", profileURL)
		rendered, err := c.renderer.Render(ctx, profileURL)
		if err != nil {
			return nil, fmt.Errorf("render instagram profile: %w", err)
		}
		items = c.parseProfile(rendered)
	}
	if len(items) == 0 && strings.Contains(html, "loginForm") {
		c.logger.Warn("instagram served a login wall", "url", profileURL)
	}

	return items, nil
}

// FetchDetail is a no-op for Instagram. The profile payload already
// carries full captions and media, and individual post pages are
// gated harder than the profile itself.
func (c *InstagramConnector) FetchDetail(_ context.Context, _ string) (*domain.Detail, error) {
	return &domain.Detail{}, nil
}

func (c *InstagramConnector) parseProfile(html string) []domain.CandidateItem {
	var items []domain.CandidateItem
	seen := make(map[string]struct{})

	for _, script := range scanScripts(html, "shortcode") {
		root, ok := extractJSON(script)
		if !ok {
			continue
		}

		for _, node := range findEdgeNodes(root, "edges") {
			shortcode := jsonString(node, "shortcode")
			if shortcode == "" {
				continue
			}
			if _, dup := seen[shortcode]; dup {
				continue
			}

			item, ok := c.itemFromNode(node, shortcode)
			if !ok {
				continue
			}
			seen[shortcode] = struct{}{}
			items = append(items, item)

			if len(items) >= c.rows {
				return items
			}
		}
	}

	return items
}

func (c *InstagramConnector) itemFromNode(node map[string]any, shortcode string) (domain.CandidateItem, bool) {
	caption := instagramCaption(node)

	item := domain.CandidateItem{
		URL:          fmt.Sprintf("https://www.instagram.com/p/%s/", shortcode),
		SourceItemID: shortcode,
		Title:        captionTitle(caption),
		RawText:      caption,
	}

	if ts, ok := jsonNumber(node, "taken_at_timestamp"); ok {
		t := time.Unix(int64(ts), 0).UTC()
		item.PublishedAt = &t
	}

	if display := jsonString(node, "display_url"); display != "" {
		item.ImageURLs = append(item.ImageURLs, display)
	}
	for _, child := range findEdgeNodes(jsonMap(node, "edge_sidecar_to_children"), "edges") {
		if display := jsonString(child, "display_url"); display != "" {
			item.ImageURLs = append(item.ImageURLs, display)
		}
	}
	item.ImageURLs = dedupeStrings(item.ImageURLs)

	meta := map[string]any{"platform": "instagram"}
	if isVideo, ok := node["is_video"].(bool); ok && isVideo {
		meta["is_video"] = true
		if views, ok := jsonNumber(node, "video_view_count"); ok {
			meta["video_views"] = int64(views)
		}
	}
	if likes, ok := jsonNumber(node, "edge_liked_by", "count"); ok {
		meta["likes"] = int64(likes)
	}
	if comments, ok := jsonNumber(node, "edge_media_to_comment", "count"); ok {
		meta["comments"] = int64(comments)
	}
	item.Meta = meta

	if item.Title == "" && len(item.ImageURLs) == 0 {
		return domain.CandidateItem{}, false
	}
	if item.Title == "" {
		item.Title = "Instagram post " + shortcode
	}
	return item, true
}

func instagramCaption(node map[string]any) string {
	for _, edge := range jsonSlice(node, "edge_media_to_caption", "edges") {
		if text := jsonString(edge, "node", "text"); text != "" {
			return strings.TrimSpace(text)
		}
	}
	return ""
}

// captionTitle makes a short title from the first line of a caption.
func captionTitle(caption string) string {
	line := caption
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)

	runes := []rune(line)
	if len(runes) > 80 {
		return string(runes[:77]) + "..."
	}
	return line
}

// instagramProfileURL accepts a handle, an @handle, or a full profile
// address and normalizes it to the canonical profile URL.
func instagramProfileURL(raw string) (string, error) {
	handle := strings.TrimSpace(raw)
	if strings.HasPrefix(handle, "@") {
		handle = handle[1:]
	}

	if strings.Contains(handle, "instagram.com") {
		u, err := url.Parse(handle)
		if err != nil {
			return "", fmt.Errorf("parse instagram url: %w", err)
		}
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(segments) == 0 || segments[0] == "" {
			return "", fmt.Errorf("no handle in instagram url %q", raw)
		}
		handle = segments[0]
	}

	if handle == "" {
		return "", fmt.Errorf("empty instagram handle")
	}
	return fmt.Sprintf("https://www.instagram.com/%s/", handle), nil
}

func dedupeStrings(in []string) []string {
	if len(in) < 2 {
		return in
	}
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
