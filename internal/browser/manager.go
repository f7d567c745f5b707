// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"github.com/record-harvest/harvest/internal/session"
)

// Options configures the shared browser process.
type Options struct {
	Headless   bool
	ChromePath string
	// UserAgent overrides the rotating pool when non-empty.
	UserAgent string
	// Proxy routes all browser traffic through an HTTP/SOCKS5 proxy.
	Proxy  string
	Width  int
	Height int
}

// Manager owns a single browser process and mints isolated tabs from it.
// Start is idempotent; Close tears everything down including tabs the
// caller forgot about.
type Manager struct {
	opts   Options
	logger zerolog.Logger

	mu          sync.Mutex
	started     bool
	closed      bool
	allocCtx    context.Context
	allocCancel context.CancelFunc
	baseCtx     context.Context
	baseCancel  context.CancelFunc
	tabs        []*Tab
}

func NewManager(opts Options, logger zerolog.Logger) *Manager {
	if opts.Width == 0 {
		opts.Width = 1920
	}
	if opts.Height == 0 {
		opts.Height = 1080
	}
	return &Manager{opts: opts, logger: logger.With().Str("component", "browser").Logger()}
}

// Start launches the browser process. Calling Start on a running manager
// is a no-op; calling it after Close returns ErrManagerClosed.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrManagerClosed
	}
	if m.started {
		return nil
	}

	execPath := m.opts.ChromePath
	if execPath == "" {
		execPath = findChrome(m.logger)
		if execPath == "" {
			return NewError(CodeLaunch, "no usable chrome binary", ErrBrowserNotFound)
		}
	}

	ua := m.opts.UserAgent
	if ua == "" {
		ua = randomUserAgent()
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(execPath),
		chromedp.Flag("headless", m.opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("mute-audio", true),
		chromedp.WindowSize(m.opts.Width, m.opts.Height),
		chromedp.UserAgent(ua),
	)
	if m.opts.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(m.opts.Proxy))
	}

	m.allocCtx, m.allocCancel = chromedp.NewExecAllocator(ctx, allocOpts...)
	m.baseCtx, m.baseCancel = chromedp.NewContext(m.allocCtx)

	// Warm-up probe. This is where a missing or broken binary actually
	// surfaces, so wrap the failure with a launch code.
	probeCtx, cancel := context.WithTimeout(m.baseCtx, 30*time.Second)
	defer cancel()
	if err := chromedp.Run(probeCtx, chromedp.Navigate("about:blank")); err != nil {
		m.baseCancel()
		m.allocCancel()
		m.baseCtx, m.allocCtx = nil, nil
		return NewError(CodeLaunch, "browser failed to start", fmt.Errorf("%w: %v", ErrBrowserLaunch, err))
	}

	m.started = true
	m.logger.Debug().Str("path", execPath).Bool("headless", m.opts.Headless).Msg("Browser started")
	return nil
}

// NewTab creates an isolated tab with evasion scripts installed and,
// when state is non-nil, the saved cookies primed before any navigation.
func (m *Manager) NewTab(ctx context.Context, state *session.State) (*Tab, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrManagerClosed
	}
	if !m.started {
		return nil, ErrNotStarted
	}

	tabCtx, tabCancel := chromedp.NewContext(m.baseCtx)

	actions := []chromedp.Action{
		network.Enable(),
		emulation.SetUserAgentOverride(pickUserAgent(m.opts.UserAgent)),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
	}
	if state != nil && len(state.Cookies) > 0 {
		actions = append(actions, network.SetCookies(cookieParams(state.Cookies)))
	}

	setupCtx, cancel := context.WithTimeout(tabCtx, 15*time.Second)
	defer cancel()
	if err := chromedp.Run(setupCtx, actions...); err != nil {
		tabCancel()
		return nil, NewError(CodeSession, "tab setup failed", err)
	}

	tab := &Tab{ctx: tabCtx, cancel: tabCancel, logger: m.logger}
	m.tabs = append(m.tabs, tab)
	return tab, nil
}

// SnapshotState reads the tab's current cookies into a storable state.
func (m *Manager) SnapshotState(ctx context.Context, tab *Tab, name, site string) (*session.State, error) {
	var cookies []*network.Cookie
	err := tab.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, NewError(CodeSession, "cookie snapshot failed", err)
	}

	state := &session.State{
		Name:      name,
		Site:      site,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(30 * 24 * time.Hour),
		Cookies:   make([]session.Cookie, 0, len(cookies)),
	}
	for _, c := range cookies {
		state.Cookies = append(state.Cookies, session.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		})
	}
	return state, nil
}

// Close shuts down every tab and the browser process. Idempotent.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	for _, t := range m.tabs {
		t.cancel()
	}
	m.tabs = nil
	if m.baseCancel != nil {
		m.baseCancel()
	}
	if m.allocCancel != nil {
		m.allocCancel()
	}
	m.started = false
	m.logger.Debug().Msg("Browser closed")
	return nil
}

func pickUserAgent(override string) string {
	if override != "" {
		return override
	}
	return randomUserAgent()
}

func cookieParams(cookies []session.Cookie) []*network.CookieParam {
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		p := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		}
		if c.SameSite != "" {
			p.SameSite = network.CookieSameSite(c.SameSite)
		}
		if c.Expires > 0 {
			exp := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
			p.Expires = &exp
		}
		params = append(params, p)
	}
	return params
}
