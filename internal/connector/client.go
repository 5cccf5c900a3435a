package connector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// User agent strings presented to upstream sites. Board and embedded-JSON
// fetches use the desktop string; the blog detail bypass uses the mobile one.
const (
	desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	mobileUserAgent  = "Mozilla/5.0 (Linux; Android 10; K) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"
)

const (
	maxBodyBytes    = 4 << 20
	perHostInterval = 500 * time.Millisecond
	perHostBurst    = 2
)

// FetchOptions adjust a single page fetch.
type FetchOptions struct {
	Mobile  bool
	Referer string
	Headers map[string]string
}

// Client performs timed, header-spoofed GETs with per-host rate limiting.
type Client struct {
	http *http.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewClient builds a client with the given request timeout. Redirects are
// followed by net/http's default policy.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiters: make(map[string]*rate.Limiter),
	}
}

// Get fetches a page and returns its body as a string. On the first failed
// attempt with a referer set, it retries once without the referer: some
// hosts reject hot-link-looking requests but serve direct ones.
func (c *Client) Get(ctx context.Context, pageURL string, opts FetchOptions) (string, error) {
	if err := c.wait(ctx, pageURL); err != nil {
		return "", err
	}

	body, err := c.do(ctx, pageURL, opts)
	if err != nil && opts.Referer != "" {
		retryOpts := opts
		retryOpts.Referer = ""
		body, err = c.do(ctx, pageURL, retryOpts)
	}
	return body, err
}

func (c *Client) do(ctx context.Context, pageURL string, opts FetchOptions) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	ua := desktopUserAgent
	if opts.Mobile {
		ua = mobileUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7")
	if opts.Referer != "" {
		req.Header.Set("Referer", opts.Referer)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(data), nil
}

// wait blocks on the host's politeness limiter.
func (c *Client) wait(ctx context.Context, pageURL string) error {
	host := hostOf(pageURL)

	c.mu.Lock()
	lim, ok := c.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Every(perHostInterval), perHostBurst)
		c.limiters[host] = lim
	}
	c.mu.Unlock()

	return lim.Wait(ctx)
}

func hostOf(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return pageURL
	}
	return u.Host
}

// RefererFor returns the referer expected by known platform families.
// Unknown hosts get the page's own origin.
func RefererFor(pageURL string) string {
	host := hostOf(pageURL)
	switch {
	case strings.Contains(host, "blog.naver.com"):
		return "https://m.blog.naver.com/"
	case strings.Contains(host, "instagram.com"):
		return "https://www.instagram.com/"
	case strings.Contains(host, "threads.com"), strings.Contains(host, "threads.net"):
		return "https://www.threads.com/"
	case strings.Contains(host, "x.com"), strings.Contains(host, "twitter.com"):
		return "https://x.com/"
	}
	u, err := url.Parse(pageURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/"
}
