package connector

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"content_collector/internal/domain"
)

// Naver blocks plain scraping of desktop blog pages behind script
// rendering. The mobile site serves the same post as static HTML, so
// detail fetches go through m.blog.naver.com with a mobile user agent.
var blogPostPath = regexp.MustCompile(`blog\.naver\.com/([^/?]+)/(\d+)`)

// Container candidates for the post body, newest editor first.
var blogContentSelectors = []string{
	".se-main-container",
	".se_component_wrap",
	"#postViewArea",
	".post_ct",
	"#viewer",
}

// NaverBlogConnector lists posts from the blog's RSS feed and pulls
// full bodies from the mobile page.
type NaverBlogConnector struct {
	source *domain.Source
	client *Client
	parser *gofeed.Parser
	logger *slog.Logger
	rows   int
}

func NewNaverBlogConnector(source *domain.Source, client *Client, logger *slog.Logger) *NaverBlogConnector {
	return &NaverBlogConnector{
		source: source,
		client: client,
		parser: gofeed.NewParser(),
		logger: logger,
		rows:   defaultMaxRows,
	}
}

func (n *NaverBlogConnector) FetchList(ctx context.Context) ([]domain.CandidateItem, error) {
	blogID, err := blogIDFrom(n.source.BaseURL)
	if err != nil {
		return nil, err
	}

	feedURL := fmt.Sprintf("https://rss.blog.naver.com/%s.xml", blogID)
	body, err := n.client.Get(ctx, feedURL, FetchOptions{})
	if err != nil {
		return nil, fmt.Errorf("fetch blog feed: %w", err)
	}

	feed, err := n.parser.ParseString(body)
	if err != nil {
		return nil, fmt.Errorf("parse blog feed: %w", err)
	}

	var items []domain.CandidateItem
	for i, entry := range feed.Items {
		if i >= n.rows {
			break
		}
		if entry.Link == "" {
			continue
		}

		item := domain.CandidateItem{
			Title:        strings.TrimSpace(entry.Title),
			URL:          entry.Link,
			SourceItemID: logNoFrom(entry.Link),
			PublishedAt:  entry.PublishedParsed,
			RawText:      normalizeSpace(entry.Description),
		}

		detail, err := n.FetchDetail(ctx, entry.Link)
		if err != nil {
			n.logger.Warn("blog detail fetch failed", "url", entry.Link, "error", err)
		} else {
			// The RSS description is a truncated snippet. Keep
			// whichever text is longer.
			if len(detail.RawText) > len(item.RawText) {
				item.RawText = detail.RawText
			}
			item.ImageURLs = detail.ImageURLs
		}

		items = append(items, item)
	}

	return items, nil
}

func (n *NaverBlogConnector) FetchDetail(ctx context.Context, itemURL string) (*domain.Detail, error) {
	mobileURL, err := mobileBlogURL(itemURL)
	if err != nil {
		return nil, err
	}

	html, err := n.client.Get(ctx, mobileURL, FetchOptions{
		Mobile:  true,
		Referer: RefererFor(mobileURL),
	})
	if err != nil {
		return nil, fmt.Errorf("fetch blog detail: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse blog detail: %w", err)
	}

	detail := &domain.Detail{}

	content := firstNonEmpty(doc.Selection, blogContentSelectors)
	if content.Length() > 0 {
		detail.RawText = normalizeSpace(content.First().Text())
		detail.ImageURLs = blogImages(content, mobileURL)
	}
	if detail.RawText == "" {
		detail.RawText = normalizeSpace(doc.Find("body").Text())
	}

	return detail, nil
}

// blogImages collects post images, skipping UI chrome and upgrading
// Naver thumbnail URLs to full resolution.
func blogImages(content *goquery.Selection, pageURL string) []string {
	var images []string
	seen := make(map[string]struct{})

	content.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("data-lazy-src")
		if !ok || src == "" {
			src, _ = img.Attr("src")
		}
		if src == "" || skipBlogImage(src) {
			return
		}

		src = upgradeNaverImage(src)
		abs := absoluteURL(pageURL, src)
		if abs == "" {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		images = append(images, abs)
	})

	return images
}

func skipBlogImage(src string) bool {
	for _, marker := range []string{"buddy", "logIn.png", "ico_", "sticker", "stat.blog.naver.com"} {
		if strings.Contains(src, marker) {
			return true
		}
	}
	return false
}

// upgradeNaverImage rewrites pstatic thumbnail parameters from the tiny
// list size to a readable one.
func upgradeNaverImage(src string) string {
	if strings.Contains(src, "pstatic.net") && strings.Contains(src, "type=w80") {
		return strings.Replace(src, "type=w80", "type=w800", 1)
	}
	if strings.Contains(src, "mblogthumb") && !strings.Contains(src, "type=") {
		sep := "?"
		if strings.Contains(src, "?") {
			sep = "&"
		}
		return src + sep + "type=w800"
	}
	return src
}

// blogIDFrom resolves the Naver blog identifier from any known URL
// shape: the RSS host, a blogId query parameter, or the first path
// segment of a blog.naver.com address.
func blogIDFrom(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse blog url: %w", err)
	}

	if strings.HasPrefix(u.Host, "rss.blog.naver.com") {
		return strings.TrimSuffix(strings.TrimPrefix(u.Path, "/"), ".xml"), nil
	}
	if id := u.Query().Get("blogId"); id != "" {
		return id, nil
	}
	if segments := strings.Split(strings.Trim(u.Path, "/"), "/"); len(segments) > 0 && segments[0] != "" {
		return segments[0], nil
	}
	return "", fmt.Errorf("no blog id in url %q", rawURL)
}

// mobileBlogURL maps a desktop post address onto m.blog.naver.com.
func mobileBlogURL(itemURL string) (string, error) {
	if m := blogPostPath.FindStringSubmatch(itemURL); m != nil {
		return fmt.Sprintf("https://m.blog.naver.com/%s/%s", m[1], m[2]), nil
	}

	u, err := url.Parse(itemURL)
	if err != nil {
		return "", fmt.Errorf("parse post url: %w", err)
	}
	blogID := u.Query().Get("blogId")
	logNo := u.Query().Get("logNo")
	if blogID != "" && logNo != "" {
		return fmt.Sprintf("https://m.blog.naver.com/%s/%s", blogID, logNo), nil
	}
	return "", fmt.Errorf("unrecognized blog post url %q", itemURL)
}

func logNoFrom(itemURL string) string {
	if m := blogPostPath.FindStringSubmatch(itemURL); m != nil {
		return m[2]
	}
	if u, err := url.Parse(itemURL); err == nil {
		if logNo := u.Query().Get("logNo"); logNo != "" {
			return logNo
		}
	}
	return itemURL
}
