// internal/auth/auth_test.go
package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/record-harvest/harvest/internal/sites"
)

type loginSurface struct {
	current string
	pages   map[string]string
	fills   map[string]string
	clicks  []string
	// postSubmit is where the browser "redirects" after the submit click.
	postSubmit string
}

func newLoginSurface(pages map[string]string, postSubmit string) *loginSurface {
	return &loginSurface{
		pages:      pages,
		fills:      make(map[string]string),
		postSubmit: postSubmit,
	}
}

func (s *loginSurface) Navigate(ctx context.Context, url string) error {
	s.current = url
	return nil
}
func (s *loginSurface) WaitVisible(ctx context.Context, sel string, d time.Duration) error {
	return nil
}
func (s *loginSurface) HTML(ctx context.Context) (string, error) { return s.pages[s.current], nil }
func (s *loginSurface) Scroll(ctx context.Context) error         { return nil }
func (s *loginSurface) Fill(ctx context.Context, sel, val string) error {
	s.fills[sel] = val
	return nil
}
func (s *loginSurface) Click(ctx context.Context, sel string) error {
	s.clicks = append(s.clicks, sel)
	if s.postSubmit != "" {
		s.current = s.postSubmit
	}
	return nil
}
func (s *loginSurface) Location(ctx context.Context) (string, error) { return s.current, nil }
func (s *loginSurface) Reset(ctx context.Context) error              { return nil }
func (s *loginSurface) Close() error                                 { return nil }

func gatedProfile() *sites.Profile {
	return &sites.Profile{
		Name:               "gated",
		BaseURL:            "https://site.test",
		RequiresAuth:       true,
		LoggedOutSelectors: []string{"a.sign-in"},
		Login: sites.LoginForm{
			URL:              "https://site.test/login",
			UserSelector:     "#username",
			PassSelector:     "#password",
			SubmitSelector:   `button[type="submit"]`,
			SuccessFragments: []string{"/feed"},
		},
	}
}

func TestEnsureSession_SkipsLoginWhenAuthenticated(t *testing.T) {
	surface := newLoginSurface(map[string]string{
		"https://site.test": `<html><body><nav class="member-nav">Me</nav></body></html>`,
	}, "")

	a := NewAuthenticator(gatedProfile(), Credentials{}, zerolog.Nop())
	if err := a.EnsureSession(context.Background(), surface); err != nil {
		t.Fatalf("EnsureSession failed: %v", err)
	}
	if len(surface.clicks) != 0 {
		t.Error("login form submitted despite an authenticated session")
	}
}

func TestEnsureSession_PerformsLogin(t *testing.T) {
	surface := newLoginSurface(map[string]string{
		"https://site.test":       `<html><body><a class="sign-in">Sign in</a></body></html>`,
		"https://site.test/login": `<html><body><form><input id="username"/><input id="password"/></form></body></html>`,
	}, "https://site.test/feed/")

	creds := Credentials{Username: "user@site.test", Password: "hunter2"}
	a := NewAuthenticator(gatedProfile(), creds, zerolog.Nop())
	a.loginSettle = time.Second

	if err := a.EnsureSession(context.Background(), surface); err != nil {
		t.Fatalf("EnsureSession failed: %v", err)
	}
	if got := surface.fills["#username"]; got != "user@site.test" {
		t.Errorf("username not filled: %q", got)
	}
	if got := surface.fills["#password"]; got != "hunter2" {
		t.Errorf("password not filled: %q", got)
	}
	if len(surface.clicks) != 1 {
		t.Fatalf("expected one submit click, got %v", surface.clicks)
	}
}

func TestEnsureSession_FailsWithoutCredentials(t *testing.T) {
	surface := newLoginSurface(map[string]string{
		"https://site.test": `<html><body><a class="sign-in">Sign in</a></body></html>`,
	}, "")

	a := NewAuthenticator(gatedProfile(), Credentials{}, zerolog.Nop())
	if err := a.EnsureSession(context.Background(), surface); err == nil {
		t.Fatal("expected error when login is needed but no credentials exist")
	}
}

func TestEnsureSession_ManualFallbackWhenNoCredentials(t *testing.T) {
	surface := newLoginSurface(map[string]string{
		"https://site.test":       `<html><body><a class="sign-in">Sign in</a></body></html>`,
		"https://site.test/login": `<html><body><form><input id="username"/></form></body></html>`,
	}, "")

	var prompted bool
	a := NewAuthenticator(gatedProfile(), Credentials{}, zerolog.Nop()).
		WithManual(func(ctx context.Context) error {
			prompted = true
			if surface.current != "https://site.test/login" {
				t.Errorf("operator handed a surface parked at %q, want the login page", surface.current)
			}
			// The operator logs in by hand; the landing page now shows a
			// member state.
			surface.pages["https://site.test"] = `<html><body><nav class="member-nav">Me</nav></body></html>`
			return nil
		})

	if err := a.EnsureSession(context.Background(), surface); err != nil {
		t.Fatalf("EnsureSession failed: %v", err)
	}
	if !prompted {
		t.Error("manual fallback was never invoked")
	}
	if len(surface.clicks) != 0 {
		t.Error("form submitted despite the manual path")
	}
}

func TestEnsureSession_ManualFallbackStillAnonymous(t *testing.T) {
	surface := newLoginSurface(map[string]string{
		"https://site.test":       `<html><body><a class="sign-in">Sign in</a></body></html>`,
		"https://site.test/login": `<html><body><form></form></body></html>`,
	}, "")

	a := NewAuthenticator(gatedProfile(), Credentials{}, zerolog.Nop()).
		WithManual(func(ctx context.Context) error { return nil })

	err := a.EnsureSession(context.Background(), surface)
	if err == nil {
		t.Fatal("expected failure when the operator never completed the login")
	}
	if !strings.Contains(err.Error(), "did not produce") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestEnsureSession_FailsWhenRedirectNeverLands(t *testing.T) {
	surface := newLoginSurface(map[string]string{
		"https://site.test":       `<html><body><a class="sign-in">Sign in</a></body></html>`,
		"https://site.test/login": `<html><body><form></form></body></html>`,
	}, "https://site.test/login?error=1")

	a := NewAuthenticator(gatedProfile(), Credentials{Username: "u", Password: "p"}, zerolog.Nop())
	a.loginSettle = 50 * time.Millisecond

	err := a.EnsureSession(context.Background(), surface)
	if err == nil {
		t.Fatal("expected login failure")
	}
	if !strings.Contains(err.Error(), "did not complete") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoggedOut(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<html><body><a class="sign-in">Sign in</a></body></html>`))
	if err != nil {
		t.Fatal(err)
	}

	if !LoggedOut(doc, []string{"a.sign-in"}) {
		t.Error("expected logged-out marker to match")
	}
	if LoggedOut(doc, []string{"nav.member"}) {
		t.Error("expected no match for absent selector")
	}
	if LoggedOut(doc, nil) {
		t.Error("no selectors must mean no anonymous evidence")
	}
}
