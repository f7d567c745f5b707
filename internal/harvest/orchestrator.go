// internal/harvest/orchestrator.go
package harvest

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/record-harvest/harvest/internal/browser"
	"github.com/record-harvest/harvest/internal/dedupe"
	"github.com/record-harvest/harvest/internal/sites"
	"github.com/record-harvest/harvest/pkg/models"
)

// maxEnrichLimit caps the detail-enrichment pass regardless of what the
// request asks for. Each enrichment is a full navigation, so the cost
// grows linearly and silently.
const maxEnrichLimit = 20

// TermRunner harvests all pages for one search term on a leased surface.
// Satisfied by paginate.Controller.
type TermRunner interface {
	Run(ctx context.Context, surface browser.Surface, term string) ([]models.Record, models.TermStats, error)
}

// AuthFunc establishes an authenticated session on a surface before the
// first term runs. Wired only for profiles that gate results behind a
// login.
type AuthFunc func(ctx context.Context, surface browser.Surface) error

// TransformFunc optionally rewrites a record after extraction, e.g. the
// user-supplied script hook. Returning an error drops the rewrite, never
// the record.
type TransformFunc func(models.Record) (models.Record, error)

// Config tunes orchestration pacing.
type Config struct {
	// TermDelayMin/Max bound the randomized pause between search terms.
	TermDelayMin time.Duration
	TermDelayMax time.Duration
}

// Orchestrator drives a whole harvest: terms in sequence, global
// deduplication, then a bounded enrichment pass. A failed term never
// discards what earlier terms produced.
type Orchestrator struct {
	profile  *sites.Profile
	pool     *browser.Pool
	runner   TermRunner
	enricher *Enricher
	auth     AuthFunc
	xform    TransformFunc
	progress func(term string)
	cfg      Config
	logger   zerolog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

func NewOrchestrator(profile *sites.Profile, pool *browser.Pool, runner TermRunner, enricher *Enricher, cfg Config, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		profile:  profile,
		pool:     pool,
		runner:   runner,
		enricher: enricher,
		cfg:      cfg,
		logger:   logger.With().Str("component", "orchestrator").Logger(),
		sleep:    sleepCtx,
	}
}

// WithAuth installs the login step.
func (o *Orchestrator) WithAuth(fn AuthFunc) *Orchestrator {
	o.auth = fn
	return o
}

// WithTransform installs the per-record rewrite hook.
func (o *Orchestrator) WithTransform(fn TransformFunc) *Orchestrator {
	o.xform = fn
	return o
}

// WithProgress installs a callback invoked after each term completes,
// successful or not. Used by the CLI progress bar.
func (o *Orchestrator) WithProgress(fn func(term string)) *Orchestrator {
	o.progress = fn
	return o
}

// Run executes the request. The returned result is valid even when err
// is non-nil: it carries everything harvested up to the failure.
func (o *Orchestrator) Run(ctx context.Context, req models.ScrapeRequest) (*models.RunResult, error) {
	result := &models.RunResult{}

	if len(req.Terms) == 0 {
		return result, fmt.Errorf("no search terms given")
	}
	for _, term := range req.Terms {
		if term == "" {
			return result, fmt.Errorf("search terms cannot be empty")
		}
	}

	if o.auth != nil && o.profile.RequiresAuth {
		if err := o.withSurface(ctx, func(s browser.Surface) error {
			return o.auth(ctx, s)
		}); err != nil {
			return result, fmt.Errorf("authentication failed: %w", err)
		}
	}

	var all []models.Record
	for i, term := range req.Terms {
		if err := ctx.Err(); err != nil {
			o.finish(result, all)
			return result, err
		}

		o.logger.Info().Str("term", term).Int("n", i+1).Int("of", len(req.Terms)).Msg("Harvesting term")

		var (
			records []models.Record
			stats   models.TermStats
			runErr  error
		)
		err := o.withSurface(ctx, func(s browser.Surface) error {
			records, stats, runErr = o.runner.Run(ctx, s, term)
			return nil
		})
		if err != nil {
			// Could not even lease a surface; everything so far survives.
			o.finish(result, all)
			return result, err
		}

		all = append(all, records...)
		result.Stats = append(result.Stats, stats)

		if runErr != nil {
			o.logger.Warn().Err(runErr).Str("term", term).Msg("Term failed, continuing with remaining terms")
		}
		if o.progress != nil {
			o.progress(term)
		}

		if i < len(req.Terms)-1 {
			if err := o.sleep(ctx, randDuration(o.cfg.TermDelayMin, o.cfg.TermDelayMax)); err != nil {
				o.finish(result, all)
				return result, err
			}
		}
	}

	result.Records = o.dedupeAll(all)

	if o.enricher != nil && req.EnrichLimit > 0 {
		limit := req.EnrichLimit
		if limit > maxEnrichLimit {
			limit = maxEnrichLimit
		}
		enriched, err := o.enrich(ctx, result.Records, limit)
		result.Enriched = enriched
		if err != nil {
			o.logger.Warn().Err(err).Int("enriched", enriched).Msg("Enrichment pass ended early")
		}
	}

	// The hook runs last so user scripts see enrichment-added fields.
	o.applyTransform(result)

	o.logger.Info().
		Int("records", len(result.Records)).
		Int("terms", len(req.Terms)).
		Int("enriched", result.Enriched).
		Msg("Harvest complete")
	return result, nil
}

// finish is the early-exit path: dedupe and transform whatever was
// harvested before the failure. No enrichment happens on this path.
func (o *Orchestrator) finish(result *models.RunResult, all []models.Record) {
	result.Records = o.dedupeAll(all)
	o.applyTransform(result)
}

// dedupeAll collapses the accumulated records across terms.
func (o *Orchestrator) dedupeAll(all []models.Record) []models.Record {
	deduped := dedupe.Dedupe(all)
	if dropped := len(all) - len(deduped); dropped > 0 {
		o.logger.Debug().Int("dropped", dropped).Msg("Duplicates removed")
	}
	return deduped
}

// applyTransform runs the user hook over the final records.
func (o *Orchestrator) applyTransform(result *models.RunResult) {
	if o.xform == nil {
		return
	}
	for i, rec := range result.Records {
		out, err := o.xform(rec)
		if err != nil {
			o.logger.Warn().Err(err).Str("title", rec.Get(models.FieldTitle)).Msg("Transform hook failed, keeping original record")
			continue
		}
		result.Records[i] = out
	}
}

// enrich performs up to limit detail-page visits and merges detail
// fields in place. Failed visits consume the limit too, so broken
// detail URLs cannot stretch the pass past its bound. Stops early on
// context cancellation; individual page failures skip that record only.
func (o *Orchestrator) enrich(ctx context.Context, records []models.Record, limit int) (int, error) {
	attempts := 0
	enriched := 0
	var firstErr error

	err := o.withSurface(ctx, func(s browser.Surface) error {
		for i := range records {
			if attempts >= limit {
				break
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			url := records[i].URL()
			if url == "" {
				continue
			}
			attempts++
			if err := o.enricher.Enrich(ctx, s, &records[i]); err != nil {
				if firstErr == nil {
					firstErr = err
				}
				o.logger.Debug().Err(err).Str("url", url).Msg("Detail enrichment failed, skipping record")
				continue
			}
			enriched++
		}
		return nil
	})
	if err != nil {
		return enriched, err
	}
	return enriched, firstErr
}

// withSurface leases a surface for the duration of fn.
func (o *Orchestrator) withSurface(ctx context.Context, fn func(browser.Surface) error) error {
	surface, err := o.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer o.pool.Release(ctx, surface)
	return fn(surface)
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
