package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"content_collector/internal/domain"
)

// Built-in selector chains for common bulletin board layouts. Each
// extraction step tries its candidates in order and takes the first
// non-empty match; upstream markup varies by vendor and theme, so a
// single hardcoded locator is never enough.
var (
	defaultRowSelectors   = []string{"tr", ".board-list-item", ".notice-item"}
	defaultTitleSelectors = []string{"a", ".title"}
	defaultDateSelectors  = []string{".date", ".reg-date", "td:last-child"}

	// Preset for Ulsan municipal boards (city hall and district offices).
	ulsanRowSelectors   = []string{"tbody tr"}
	ulsanTitleSelectors = []string{"td.subject a", "td.ta_l a", "td.title a", ".subject a"}
	ulsanDateSelectors  = []string{"td.regDate", "td.date", "td:nth-of-type(4)"}

	detailContentSelectors = []string{"article", ".content", ".view-content", ".post-content", "main"}
	ulsanContentSelectors  = []string{".view-content", ".detailCon", ".data_table", ".contents_inner", ".bbs_detail"}
	ulsanAttachmentAreas   = ".tbl_bd_view a, .contents_inner a, .bbs_detail a"
)

var rowNumberPrefix = regexp.MustCompile(`^\[\d+\]\s*`)

var attachmentExts = []string{".pdf", ".hwp", ".doc", ".xls", ".zip", ".png", ".jpg"}

// crawlPolicy is the opaque selector-override document stored on a
// source. Absent or malformed policies fall back to built-in selectors.
type crawlPolicy struct {
	ListURL   string `json:"list_url"`
	Selectors struct {
		Row   string `json:"row"`
		Title string `json:"title"`
		Date  string `json:"date"`
	} `json:"selectors"`
}

// BoardConnector scrapes standard institution bulletin boards.
type BoardConnector struct {
	source *domain.Source
	client *Client
	logger *slog.Logger
	rows   int
}

func NewBoardConnector(source *domain.Source, client *Client, logger *slog.Logger) *BoardConnector {
	return &BoardConnector{source: source, client: client, logger: logger, rows: defaultMaxRows}
}

func (b *BoardConnector) FetchList(ctx context.Context) ([]domain.CandidateItem, error) {
	policy := b.policy()

	listURL := policy.ListURL
	if listURL == "" {
		listURL = b.source.BaseURL
	}

	rowSel, titleSel, dateSel := b.selectors(policy)

	html, err := b.client.Get(ctx, listURL, FetchOptions{Referer: RefererFor(listURL)})
	if err != nil {
		return nil, fmt.Errorf("fetch board list: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse board list: %w", err)
	}

	rows := firstNonEmpty(doc.Selection, rowSel)
	b.logger.Debug("board rows found", "count", rows.Length())

	var items []domain.CandidateItem
	rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
		if i >= b.rows {
			return false
		}

		titleElem := firstNonEmpty(row, titleSel)
		if titleElem.Length() == 0 {
			return true
		}

		title := rowNumberPrefix.ReplaceAllString(strings.TrimSpace(titleElem.First().Text()), "")
		href, _ := titleElem.First().Attr("href")
		itemURL := absoluteURL(listURL, href)
		if title == "" || itemURL == "" {
			return true
		}

		item := domain.CandidateItem{
			Title:        title,
			URL:          itemURL,
			SourceItemID: extractItemID(itemURL),
		}

		if dateElem := firstNonEmpty(row, dateSel); dateElem.Length() > 0 {
			item.PublishedAt = parseBoardDate(dateElem.First().Text())
		}

		detail, err := b.FetchDetail(ctx, itemURL)
		if err != nil {
			b.logger.Warn("board detail fetch failed", "url", itemURL, "error", err)
			item.RawText = title
		} else {
			item.RawText = detail.RawText
			if item.RawText == "" {
				item.RawText = title
			}
			item.ImageURLs = detail.ImageURLs
			item.Meta = detail.Meta
		}

		items = append(items, item)
		return true
	})

	return items, nil
}

// FetchDetail extracts the full body text, inline images and attachment
// links from a board post page.
func (b *BoardConnector) FetchDetail(ctx context.Context, itemURL string) (*domain.Detail, error) {
	html, err := b.client.Get(ctx, itemURL, FetchOptions{Referer: RefererFor(itemURL)})
	if err != nil {
		return nil, fmt.Errorf("fetch board detail: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse board detail: %w", err)
	}

	contentSel := detailContentSelectors
	if b.isUlsan(itemURL) {
		contentSel = ulsanContentSelectors
	}

	detail := &domain.Detail{}

	content := b.ulsanTableContent(doc)
	if content == nil || content.Length() == 0 {
		content = firstNonEmpty(doc.Selection, contentSel)
	}

	if content.Length() > 0 {
		detail.RawText = normalizeSpace(content.First().Text())

		content.Find("img").Each(func(_ int, img *goquery.Selection) {
			src, _ := img.Attr("src")
			if abs := absoluteURL(itemURL, src); abs != "" {
				detail.ImageURLs = append(detail.ImageURLs, abs)
			}
		})
	}

	if b.isUlsan(itemURL) {
		if attachments := b.extractAttachments(doc, itemURL); len(attachments) > 0 {
			detail.Meta = map[string]any{"attachments": attachments}
		}
	}

	return detail, nil
}

// ulsanTableContent handles the table-layout variant where the body sits
// in a td following a th labeled 내용.
func (b *BoardConnector) ulsanTableContent(doc *goquery.Document) *goquery.Selection {
	var content *goquery.Selection
	doc.Find("th").EachWithBreak(func(_ int, th *goquery.Selection) bool {
		if strings.Contains(th.Text(), "내용") {
			if td := th.NextFiltered("td"); td.Length() > 0 {
				content = td
				return false
			}
		}
		return true
	})
	return content
}

func (b *BoardConnector) extractAttachments(doc *goquery.Document, pageURL string) []map[string]string {
	var attachments []map[string]string
	seen := make(map[string]struct{})

	doc.Find(ulsanAttachmentAreas).Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		onclick, _ := link.Attr("onclick")
		text := strings.TrimSpace(link.Text())

		if !looksLikeFile(text, href, onclick) {
			return
		}

		fileURL := href
		if fileURL == "" || strings.HasPrefix(fileURL, "#") || strings.Contains(fileURL, "javascript") {
			fileURL = onclick
		} else if abs := absoluteURL(pageURL, fileURL); abs != "" {
			fileURL = abs
		}
		if fileURL == "" {
			return
		}
		if _, ok := seen[fileURL]; ok {
			return
		}
		seen[fileURL] = struct{}{}
		attachments = append(attachments, map[string]string{"url": fileURL, "name": text})
	})

	return attachments
}

func looksLikeFile(text, href, onclick string) bool {
	lower := strings.ToLower(text)
	for _, ext := range attachmentExts {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return strings.Contains(onclick, "fileDown") || strings.Contains(href, "fileDown")
}

func (b *BoardConnector) policy() crawlPolicy {
	var policy crawlPolicy
	if b.source.CrawlPolicy == nil || *b.source.CrawlPolicy == "" {
		return policy
	}
	if err := json.Unmarshal([]byte(*b.source.CrawlPolicy), &policy); err != nil {
		b.logger.Warn("malformed crawl policy, using defaults", "error", err)
		return crawlPolicy{}
	}
	return policy
}

func (b *BoardConnector) selectors(policy crawlPolicy) (row, title, date []string) {
	row, title, date = defaultRowSelectors, defaultTitleSelectors, defaultDateSelectors
	if b.isUlsan(b.source.BaseURL) {
		row, title, date = ulsanRowSelectors, ulsanTitleSelectors, ulsanDateSelectors
	}
	if policy.Selectors.Row != "" {
		row = []string{policy.Selectors.Row}
	}
	if policy.Selectors.Title != "" {
		title = []string{policy.Selectors.Title}
	}
	if policy.Selectors.Date != "" {
		date = []string{policy.Selectors.Date}
	}
	return row, title, date
}

func (b *BoardConnector) isUlsan(u string) bool {
	return strings.Contains(u, "ulsan")
}

// firstNonEmpty tries selectors in rank order and returns the first
// non-empty selection.
func firstNonEmpty(root *goquery.Selection, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		if found := root.Find(sel); found.Length() > 0 {
			return found
		}
	}
	return root.Find(selectors[len(selectors)-1])
}

var spaceRuns = regexp.MustCompile(`\s+`)

func normalizeSpace(s string) string {
	return strings.TrimSpace(spaceRuns.ReplaceAllString(s, " "))
}
