package scrape

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	DefaultTimeout   = 60 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

	maxLoadMoreClicks = 5
	maxScrolls        = 20
)

// Renderer returns the fully rendered HTML of a page.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// ChromeRenderer renders pages in headless Chromium via chromedp. The event
// listing is built client-side and paginated with a "Load more" button and
// infinite scroll, so a plain HTTP GET does not see the cards.
type ChromeRenderer struct {
	// Timeout bounds the whole render. Zero means DefaultTimeout.
	Timeout time.Duration
	// UserAgent overrides DefaultUserAgent.
	UserAgent string
}

const (
	acceptCookiesJS = `(() => {
  const b = Array.from(document.querySelectorAll('button')).find(x => /accept/i.test(x.textContent || ''));
  if (!b) return false;
  b.click();
  return true;
})()`

	loadMoreJS = `(() => {
  const b = Array.from(document.querySelectorAll('button'))
    .find(x => /load more|show more/i.test(x.textContent || '') && x.offsetParent !== null);
  if (!b) return false;
  b.click();
  return true;
})()`

	scrollHeightJS = `document.body.scrollHeight`
	scrollDownJS   = `window.scrollTo(0, document.body.scrollHeight)`
)

// Render navigates to url, expands the listing and returns the page's outer
// HTML.
func (r ChromeRenderer) Render(parentCtx context.Context, url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("scrape: URL is required")
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ua := r.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.UserAgent(ua))
	allocCtx, allocCancel := chromedp.NewExecAllocator(parentCtx, opts...)
	defer allocCancel()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, timeout)
	defer timeoutCancel()

	if err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return "", fmt.Errorf("scrape: navigate %s: %w", url, err)
	}

	// Cookie banner and pagination are best effort.
	var clicked bool
	_ = chromedp.Run(ctx, chromedp.Evaluate(acceptCookiesJS, &clicked))

	for i := 0; i < maxLoadMoreClicks; i++ {
		clicked = false
		if err := chromedp.Run(ctx, chromedp.Evaluate(loadMoreJS, &clicked)); err != nil || !clicked {
			break
		}
		_ = chromedp.Run(ctx, chromedp.Sleep(1200*time.Millisecond))
	}

	var last int64
	for i := 0; i < maxScrolls; i++ {
		var h int64
		if err := chromedp.Run(ctx, chromedp.Evaluate(scrollHeightJS, &h)); err != nil || h <= last {
			break
		}
		last = h
		if err := chromedp.Run(ctx,
			chromedp.Evaluate(scrollDownJS, nil),
			chromedp.Sleep(time.Second),
		); err != nil {
			break
		}
	}

	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("scrape: read html: %w", err)
	}
	return html, nil
}
