package connector

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserRenderer loads a page in headless Chrome and returns the DOM
// after scripts ran. It exists for pages that serve real content only
// to a browser, so it is used as a fallback, not a first choice.
type BrowserRenderer struct {
	timeout time.Duration
	opts    []chromedp.ExecAllocatorOption
}

func NewBrowserRenderer(timeout time.Duration) *BrowserRenderer {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(desktopUserAgent),
		chromedp.WindowSize(1280, 900),
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	return &BrowserRenderer{timeout: timeout, opts: opts}
}

func (r *BrowserRenderer) Render(ctx context.Context, pageURL string) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, r.opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, r.timeout)
	defer cancelRun()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", pageURL, err)
	}
	return html, nil
}
