// internal/auth/auth.go
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/record-harvest/harvest/internal/browser"
	"github.com/record-harvest/harvest/internal/sites"
)

// Credentials are the username and password for a gated site. They are
// read from the environment or config, never persisted by this package.
type Credentials struct {
	Username string
	Password string
}

// Valid reports whether both fields are present.
func (c Credentials) Valid() bool {
	return c.Username != "" && c.Password != ""
}

// ManualFunc hands control to a human when the engine cannot drive the
// login itself. It blocks until the operator signals that the login is
// done in the live browser window.
type ManualFunc func(ctx context.Context) error

// Authenticator establishes a logged-in state on a browsing surface for
// profiles that gate results behind a login. When the surface was primed
// with saved cookies the login form is skipped entirely.
type Authenticator struct {
	profile *sites.Profile
	creds   Credentials
	manual  ManualFunc
	logger  zerolog.Logger

	// loginSettle is how long to poll for the post-submit redirect.
	loginSettle time.Duration
}

func NewAuthenticator(profile *sites.Profile, creds Credentials, logger zerolog.Logger) *Authenticator {
	return &Authenticator{
		profile:     profile,
		creds:       creds,
		logger:      logger.With().Str("component", "auth").Str("site", profile.Name).Logger(),
		loginSettle: 15 * time.Second,
	}
}

// WithManual installs the human-in-the-loop fallback used when no
// credentials are configured. A nil fn leaves the fallback disabled.
func (a *Authenticator) WithManual(fn ManualFunc) *Authenticator {
	a.manual = fn
	return a
}

// EnsureSession verifies the surface is logged in, performing a
// credential login when it is not. Satisfies the orchestrator's auth
// hook signature.
func (a *Authenticator) EnsureSession(ctx context.Context, surface browser.Surface) error {
	out, err := a.loggedOut(ctx, surface)
	if err != nil {
		return err
	}
	if !out {
		a.logger.Debug().Msg("Existing session is authenticated")
		return nil
	}

	if a.creds.Valid() {
		return a.login(ctx, surface)
	}
	return a.manualLogin(ctx, surface)
}

// loggedOut opens the site's landing page and checks it for the
// profile's anonymous-state markers.
func (a *Authenticator) loggedOut(ctx context.Context, surface browser.Surface) (bool, error) {
	if err := surface.Navigate(ctx, a.profile.BaseURL); err != nil {
		return false, fmt.Errorf("failed to open site: %w", err)
	}

	html, err := surface.HTML(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false, fmt.Errorf("failed to parse page: %w", err)
	}
	return LoggedOut(doc, a.profile.LoggedOutSelectors), nil
}

// manualLogin is the credential-free path: park the surface on the login
// form, hand control to the operator and verify the session they left
// behind. Without an installed fallback this is a hard error.
func (a *Authenticator) manualLogin(ctx context.Context, surface browser.Surface) error {
	if a.manual == nil {
		return fmt.Errorf("site requires login but no credentials are configured")
	}

	a.logger.Warn().Msg("No credentials configured, waiting for a manual login")
	if err := surface.Navigate(ctx, a.profile.Login.URL); err != nil {
		return fmt.Errorf("failed to open login page: %w", err)
	}
	if err := a.manual(ctx); err != nil {
		return err
	}

	out, err := a.loggedOut(ctx, surface)
	if err != nil {
		return err
	}
	if out {
		return fmt.Errorf("manual login did not produce an authenticated session")
	}
	a.logger.Info().Msg("Manual login succeeded")
	return nil
}

// login drives the profile's credential form and waits for the
// post-submit redirect to land on a known success URL.
func (a *Authenticator) login(ctx context.Context, surface browser.Surface) error {
	form := a.profile.Login
	a.logger.Info().Str("url", form.URL).Msg("Logging in")

	if err := surface.Navigate(ctx, form.URL); err != nil {
		return fmt.Errorf("failed to open login page: %w", err)
	}
	if err := surface.WaitVisible(ctx, form.UserSelector, 10*time.Second); err != nil {
		return fmt.Errorf("login form never appeared: %w", err)
	}

	if err := surface.Fill(ctx, form.UserSelector, a.creds.Username); err != nil {
		return fmt.Errorf("failed to enter username: %w", err)
	}
	if err := surface.Fill(ctx, form.PassSelector, a.creds.Password); err != nil {
		return fmt.Errorf("failed to enter password: %w", err)
	}
	if err := surface.Click(ctx, form.SubmitSelector); err != nil {
		return fmt.Errorf("failed to submit login form: %w", err)
	}

	deadline := time.Now().Add(a.loginSettle)
	for {
		loc, err := surface.Location(ctx)
		if err != nil {
			return fmt.Errorf("failed to read post-login location: %w", err)
		}
		for _, fragment := range form.SuccessFragments {
			if strings.Contains(loc, fragment) {
				a.logger.Info().Msg("Login succeeded")
				return nil
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("login did not complete, stuck at %s", loc)
		}

		t := time.NewTimer(500 * time.Millisecond)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}
}

// LoggedOut reports whether any anonymous-state marker is present.
func LoggedOut(doc *goquery.Document, selectors []string) bool {
	for _, sel := range selectors {
		if doc.Find(sel).Length() > 0 {
			return true
		}
	}
	return false
}
