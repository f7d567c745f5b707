// internal/detect/detector.go
package detect

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

// Signal classifies what a page looked like after navigation.
type Signal string

const (
	// SignalNone means no bot-defense indicator matched.
	SignalNone Signal = "none"
	// SignalCaptcha means a CAPTCHA-bearing element is present.
	SignalCaptcha Signal = "captcha"
	// SignalRateLimited means the page text matches known throttling phrases.
	SignalRateLimited Signal = "rate_limited"
	// SignalThinContent means the page text is suspiciously short.
	SignalThinContent Signal = "thin_content"
)

// Verdict is the recommended recovery action for an observed signal.
// Detection never fails by itself; the caller decides whether to execute
// the wait before proceeding.
type Verdict struct {
	Signal    Signal
	MinWait   time.Duration
	MaxWait   time.Duration
	Scroll    bool // simulate activity with a synthetic scroll during the wait
	RetrySame bool // re-fetch the same page once before moving on
}

// Blocked reports whether any signal matched.
func (v Verdict) Blocked() bool {
	return v.Signal != SignalNone
}

// captchaSelectors locate CAPTCHA widgets across the target sites.
var captchaSelectors = []string{
	`iframe[title*="captcha"]`,
	`iframe[src*="captcha"]`,
	`div[class*="captcha"]`,
	`#captcha`,
	`form[action*="captcha"]`,
}

// throttlePhrases are fragments seen on rate-limit interstitials.
var throttlePhrases = []string{
	"too many requests",
	"demasiadas solicitudes",
	"unusual traffic",
	"rate limit",
	"access denied",
	"are you a robot",
	"verify you are human",
	"comprueba que eres",
}

// Detector inspects rendered pages for anti-automation defenses.
type Detector struct {
	minContentLength int
	logger           zerolog.Logger
}

// New creates a Detector. minContentLength is the body-text length below
// which a page is considered content-starved.
func New(minContentLength int, logger zerolog.Logger) *Detector {
	if minContentLength <= 0 {
		minContentLength = 200
	}
	return &Detector{
		minContentLength: minContentLength,
		logger:           logger.With().Str("component", "detector").Logger(),
	}
}

// Inspect evaluates one rendered page. Checks run most-severe-first:
// captcha, then throttling text, then thin content. The verdict is
// advisory and re-evaluated from scratch on every navigation, so no
// state transition is permanent.
func (d *Detector) Inspect(doc *goquery.Document) Verdict {
	bodyText := strings.TrimSpace(doc.Find("body").Text())
	lower := strings.ToLower(bodyText)

	for _, sel := range captchaSelectors {
		if doc.Find(sel).Length() > 0 {
			d.logger.Warn().
				Str("category", string(SignalCaptcha)).
				Str("selector", sel).
				Msg("Captcha element detected")
			return Verdict{
				Signal:    SignalCaptcha,
				MinWait:   20 * time.Second,
				MaxWait:   45 * time.Second,
				Scroll:    true,
				RetrySame: true,
			}
		}
	}

	for _, phrase := range throttlePhrases {
		if strings.Contains(lower, phrase) {
			d.logger.Warn().
				Str("category", string(SignalRateLimited)).
				Str("phrase", phrase).
				Msg("Throttling phrase detected")
			return Verdict{
				Signal:    SignalRateLimited,
				MinWait:   8 * time.Second,
				MaxWait:   15 * time.Second,
				RetrySame: true,
			}
		}
	}

	if len(bodyText) < d.minContentLength {
		d.logger.Warn().
			Str("category", string(SignalThinContent)).
			Int("content_length", len(bodyText)).
			Msg("Page content below minimum length")
		return Verdict{
			Signal:    SignalThinContent,
			MinWait:   3 * time.Second,
			MaxWait:   8 * time.Second,
			RetrySame: true,
		}
	}

	return Verdict{Signal: SignalNone}
}
