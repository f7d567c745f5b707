// internal/browser/surface.go
package browser

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

// Surface is one leased browsing surface (a tab). Exactly one in-flight
// operation may drive a Surface at a time; the pool's acquire/release
// discipline enforces this, no lower-level lock does.
type Surface interface {
	// Navigate loads a URL and lets initial scripts settle.
	Navigate(ctx context.Context, url string) error
	// WaitVisible blocks until the selector is visible or the timeout
	// elapses. A timeout is returned as an error; callers usually treat
	// it as best-effort and proceed.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	// HTML returns the rendered document.
	HTML(ctx context.Context) (string, error)
	// Scroll performs a small synthetic scroll to simulate activity.
	Scroll(ctx context.Context) error
	// Fill types a value into a form field.
	Fill(ctx context.Context, selector, value string) error
	// Click clicks an element.
	Click(ctx context.Context, selector string) error
	// Location returns the current page URL.
	Location(ctx context.Context) (string, error)
	// Reset returns the surface to a blank page between leases.
	Reset(ctx context.Context) error
	// Close destroys the surface.
	Close() error
}

// Tab is the chromedp-backed Surface.
type Tab struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger zerolog.Logger
}

var _ Surface = (*Tab)(nil)

// run executes chromedp actions on the tab, propagating the caller's
// deadline without replacing the tab's own lifetime context.
func (t *Tab) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	runCtx := t.ctx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(t.ctx, deadline)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}

func (t *Tab) Navigate(ctx context.Context, url string) error {
	t.logger.Debug().Str("url", url).Msg("Navigating")
	return t.run(ctx,
		chromedp.Navigate(url),
		// Let the initial script burst execute before anyone reads the DOM.
		chromedp.Sleep(300*time.Millisecond),
	)
}

func (t *Tab) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return t.run(waitCtx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (t *Tab) HTML(ctx context.Context) (string, error) {
	var html string
	err := t.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (t *Tab) Scroll(ctx context.Context) error {
	return t.run(ctx, chromedp.Evaluate(`window.scrollBy(0, 400 + Math.floor(Math.random()*400));`, nil))
}

func (t *Tab) Fill(ctx context.Context, selector, value string) error {
	return t.run(ctx, chromedp.SendKeys(selector, value, chromedp.ByQuery))
}

func (t *Tab) Click(ctx context.Context, selector string) error {
	return t.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

func (t *Tab) Location(ctx context.Context) (string, error) {
	var url string
	err := t.run(ctx, chromedp.Location(&url))
	return url, err
}

func (t *Tab) Reset(ctx context.Context) error {
	return t.run(ctx, chromedp.Navigate("about:blank"))
}

func (t *Tab) Close() error {
	t.cancel()
	return nil
}
