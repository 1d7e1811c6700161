package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// chromePage implements Page over a chromedp child context.
type chromePage struct {
	ctx         context.Context
	cancel      context.CancelFunc
	fingerprint Fingerprint
}

// Navigate loads a URL and waits for the document body, bounded by timeout.
// A timeout here surfaces as an error; the caller still runs its cleanup.
func (p *chromePage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	navCtx, cancel := context.WithTimeout(p.run(ctx), timeout)
	defer cancel()

	err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// CurrentURL returns the page's present location, which may differ from the
// last navigated URL after redirects or challenges.
func (p *chromePage) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := chromedp.Run(p.run(ctx), chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return url, nil
}

// HTML returns the full document markup.
func (p *chromePage) HTML(ctx context.Context) (string, error) {
	var html string
	if err := chromedp.Run(p.run(ctx), chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	return html, nil
}

// Text returns the visible text of the first node matching selector, empty
// when the node is absent.
func (p *chromePage) Text(ctx context.Context, selector string) (string, error) {
	var text string
	err := chromedp.Run(p.run(ctx),
		chromedp.Text(selector, &text, chromedp.ByQuery, chromedp.AtLeast(0)),
	)
	if err != nil {
		return "", fmt.Errorf("failed to read text of %s: %w", selector, err)
	}
	return text, nil
}

// Exists reports whether any node matches selector.
func (p *chromePage) Exists(ctx context.Context, selector string) (bool, error) {
	var found bool
	expr := fmt.Sprintf("document.querySelector(%q) !== null", selector)
	if err := chromedp.Run(p.run(ctx), chromedp.Evaluate(expr, &found)); err != nil {
		return false, fmt.Errorf("failed to query %s: %w", selector, err)
	}
	return found, nil
}

// Type focuses selector and sends text one character at a time, pausing per
// the supplied delay sequence so the keystroke cadence looks human.
func (p *chromePage) Type(ctx context.Context, selector, text string, delays []time.Duration) error {
	runCtx := p.run(ctx)
	if err := chromedp.Run(runCtx, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to focus %s: %w", selector, err)
	}

	for i, ch := range []rune(text) {
		if err := chromedp.Run(runCtx, chromedp.SendKeys(selector, string(ch), chromedp.ByQuery)); err != nil {
			return fmt.Errorf("failed to type into %s: %w", selector, err)
		}
		if i < len(delays) {
			timer := time.NewTimer(delays[i])
			select {
			case <-runCtx.Done():
				timer.Stop()
				return runCtx.Err()
			case <-timer.C:
			}
		}
	}
	return nil
}

// Click clicks the first node matching selector.
func (p *chromePage) Click(ctx context.Context, selector string) error {
	if err := chromedp.Run(p.run(ctx), chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to click %s: %w", selector, err)
	}
	return nil
}

// UserAgent returns the user agent this page presents.
func (p *chromePage) UserAgent() string {
	return p.fingerprint.UserAgent
}

// Close releases the page. Always called, on every exit path.
func (p *chromePage) Close() {
	p.cancel()
}

// run ties the page context to the caller's context so cancellation from
// either side stops in-flight browser work.
func (p *chromePage) run(ctx context.Context) context.Context {
	if ctx == nil {
		return p.ctx
	}
	merged, cancel := context.WithCancel(p.ctx)
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-merged.Done():
		}
	}()
	return merged
}
