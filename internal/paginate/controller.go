// internal/paginate/controller.go
package paginate

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/record-harvest/harvest/internal/browser"
	"github.com/record-harvest/harvest/internal/detect"
	"github.com/record-harvest/harvest/internal/extract"
	"github.com/record-harvest/harvest/internal/ratelimit"
	"github.com/record-harvest/harvest/internal/retry"
	"github.com/record-harvest/harvest/internal/sites"
	"github.com/record-harvest/harvest/internal/urlutil"
	"github.com/record-harvest/harvest/pkg/models"
)

// Config tunes the pagination loop for one run.
type Config struct {
	// MaxRecords bounds how many records a single term may yield.
	MaxRecords int
	// EmptyThreshold is how many consecutive record-free pages end the
	// loop. Two in a row distinguishes a genuinely exhausted result set
	// from one page of markup drift.
	EmptyThreshold int
	// PageDelayMin/Max bound the randomized pause between pages.
	PageDelayMin time.Duration
	PageDelayMax time.Duration
	// WaitTimeout bounds the content-ready wait after navigation.
	WaitTimeout time.Duration
}

// DefaultConfig returns the shipped pagination tuning.
func DefaultConfig() Config {
	return Config{
		MaxRecords:     50,
		EmptyThreshold: 2,
		PageDelayMin:   2 * time.Second,
		PageDelayMax:   5 * time.Second,
		WaitTimeout:    10 * time.Second,
	}
}

// Controller walks a site's result pages for one search term, delegating
// navigation to a leased surface, block detection to the detector and
// record extraction to the profile's locator chains.
type Controller struct {
	profile  *sites.Profile
	detector *detect.Detector
	policy   retry.Policy
	limiter  ratelimit.Limiter
	cfg      Config
	logger   zerolog.Logger

	// sleep is swapped out by tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewController(profile *sites.Profile, detector *detect.Detector, policy retry.Policy, limiter ratelimit.Limiter, cfg Config, logger zerolog.Logger) *Controller {
	if cfg.EmptyThreshold <= 0 {
		cfg.EmptyThreshold = 2
	}
	return &Controller{
		profile:  profile,
		detector: detector,
		policy:   policy,
		limiter:  limiter,
		cfg:      cfg,
		logger:   logger.With().Str("component", "paginate").Str("site", profile.Name).Logger(),
		sleep:    sleepCtx,
	}
}

// Run harvests one term. Records extracted before a page-level failure
// are returned alongside the error, so the caller keeps partial yield.
func (c *Controller) Run(ctx context.Context, surface browser.Surface, term string) ([]models.Record, models.TermStats, error) {
	stats := models.TermStats{Term: term}
	cursor := models.NewPageCursor()
	pageURL := c.profile.SearchURL(term)

	var records []models.Record

	for {
		if err := ctx.Err(); err != nil {
			stats.Err = err.Error()
			return records, stats, err
		}

		doc, err := c.fetchPage(ctx, surface, pageURL)
		if err != nil {
			stats.Err = err.Error()
			stats.Pages = cursor.PageNum - 1
			stats.Extracted = cursor.Extracted
			c.logger.Error().Err(err).Str("term", term).Int("page", cursor.PageNum).Msg("Page fetch failed, keeping partial results")
			return records, stats, fmt.Errorf("term %q page %d: %w", term, cursor.PageNum, err)
		}

		verdict := c.detector.Inspect(doc)
		if verdict.Blocked() {
			if err := c.backOff(ctx, surface, verdict); err != nil {
				stats.Err = err.Error()
				return records, stats, err
			}
			if verdict.RetrySame {
				if refetched, err := c.fetchPage(ctx, surface, pageURL); err == nil {
					doc = refetched
				}
			}
		}

		remaining := c.cfg.MaxRecords - cursor.Extracted
		accepted := c.parsePage(doc, pageURL, term, remaining)
		records = append(records, accepted...)

		nextURL := extract.NextPageURL(doc, pageURL, c.profile.NextPageChains)
		cursor.Advance(len(accepted), nextURL)

		c.logger.Debug().
			Str("term", term).
			Int("page", cursor.PageNum-1).
			Int("accepted", len(accepted)).
			Int("total", cursor.Extracted).
			Bool("has_next", nextURL != "").
			Msg("Page processed")

		if cursor.Exhausted(c.cfg.MaxRecords, c.cfg.EmptyThreshold) {
			break
		}

		if err := c.sleep(ctx, randDuration(c.cfg.PageDelayMin, c.cfg.PageDelayMax)); err != nil {
			stats.Err = err.Error()
			stats.Pages = cursor.PageNum - 1
			stats.Extracted = cursor.Extracted
			return records, stats, err
		}
		pageURL = nextURL
	}

	stats.Pages = cursor.PageNum - 1
	stats.Extracted = cursor.Extracted
	return records, stats, nil
}

// fetchPage navigates, waits for the content signal and parses the
// rendered document. The whole unit retries together since a failed wait
// usually means the navigation itself stalled.
func (c *Controller) fetchPage(ctx context.Context, surface browser.Surface, pageURL string) (*goquery.Document, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, pageURL); err != nil {
			return nil, err
		}
	}

	var doc *goquery.Document
	err := c.policy.Do(ctx, c.logger, "page fetch", func(ctx context.Context) error {
		if err := surface.Navigate(ctx, pageURL); err != nil {
			return err
		}
		if c.profile.WaitSelector != "" {
			// Best effort: slow pages still render enough to parse.
			if err := surface.WaitVisible(ctx, c.profile.WaitSelector, c.cfg.WaitTimeout); err != nil {
				c.logger.Debug().Err(err).Str("selector", c.profile.WaitSelector).Msg("Content wait timed out")
			}
		}
		html, err := surface.HTML(ctx)
		if err != nil {
			return err
		}
		parsed, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return fmt.Errorf("failed to parse page: %w", err)
		}
		doc = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// backOff executes a verdict's recommended wait, scrolling midway when
// asked so the session looks attended.
func (c *Controller) backOff(ctx context.Context, surface browser.Surface, v detect.Verdict) error {
	wait := randDuration(v.MinWait, v.MaxWait)
	c.logger.Warn().Str("signal", string(v.Signal)).Dur("wait", wait).Msg("Backing off")

	if v.Scroll {
		if err := c.sleep(ctx, wait/2); err != nil {
			return err
		}
		if err := surface.Scroll(ctx); err != nil {
			c.logger.Debug().Err(err).Msg("Scroll during backoff failed")
		}
		return c.sleep(ctx, wait/2)
	}
	return c.sleep(ctx, wait)
}

// parsePage extracts up to limit records from one rendered result page.
func (c *Controller) parsePage(doc *goquery.Document, pageURL, term string, limit int) []models.Record {
	if limit <= 0 {
		return nil
	}

	containers := extract.Containers(doc, c.profile.ContainerChains)
	var records []models.Record

	containers.EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		rec, ok := c.parseContainer(sel, pageURL, term)
		if ok {
			records = append(records, rec)
		}
		return len(records) < limit
	})
	return records
}

// parseContainer builds one record from a container element. A record is
// accepted only when its title validates and at least one of the
// profile's required fields carries a real value.
func (c *Controller) parseContainer(sel *goquery.Selection, pageURL, term string) (models.Record, bool) {
	rec := models.NewRecord(term)

	titleOK := extract.NonEmpty(c.profile.MinTitleLength)
	title := extract.Field(sel, c.profile.FieldChains[models.FieldTitle], titleOK)
	if title == models.NotFound {
		return rec, false
	}
	rec.Set(models.FieldTitle, title)

	for field, chain := range c.profile.FieldChains {
		if field == models.FieldTitle {
			continue
		}
		value := extract.Field(sel, chain, nil)
		if value == models.NotFound {
			rec.Fields[field] = models.NotFound
			continue
		}
		if field == models.FieldURL {
			value = urlutil.Resolve(pageURL, value)
			if urlutil.Validate(value) != nil {
				rec.Fields[field] = models.NotFound
				continue
			}
		}
		rec.Set(field, value)
	}

	for _, required := range c.profile.RequiredFields {
		if rec.Has(required) {
			return rec, true
		}
	}
	return rec, false
}

func randDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
