// internal/harvest/enrich.go
package harvest

import (
	"context"
	"fmt"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/record-harvest/harvest/internal/browser"
	"github.com/record-harvest/harvest/internal/extract"
	"github.com/record-harvest/harvest/internal/sites"
	"github.com/record-harvest/harvest/pkg/models"
)

// Enricher visits a record's detail page and merges the profile's
// detail fields into the record. Listing-page values always win; a
// detail value only fills fields the listing never produced.
type Enricher struct {
	profile   *sites.Profile
	converter *md.Converter
	wait      time.Duration
	logger    zerolog.Logger
}

func NewEnricher(profile *sites.Profile, logger zerolog.Logger) *Enricher {
	return &Enricher{
		profile:   profile,
		converter: md.NewConverter("", true, nil),
		wait:      8 * time.Second,
		logger:    logger.With().Str("component", "enricher").Logger(),
	}
}

// Enrich loads the record's detail page and merges detail fields.
func (e *Enricher) Enrich(ctx context.Context, surface browser.Surface, rec *models.Record) error {
	url := rec.URL()
	if url == "" {
		return fmt.Errorf("record has no detail URL")
	}

	if err := surface.Navigate(ctx, url); err != nil {
		return fmt.Errorf("detail navigation failed: %w", err)
	}
	if len(e.profile.DescriptionSelectors) > 0 {
		// Best effort; detail layouts vary more than listing layouts.
		_ = surface.WaitVisible(ctx, e.profile.DescriptionSelectors[0], e.wait)
	}

	html, err := surface.HTML(ctx)
	if err != nil {
		return fmt.Errorf("detail page read failed: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("detail page parse failed: %w", err)
	}

	for field, chain := range e.profile.DetailFieldChains {
		if rec.Has(field) {
			continue
		}
		if value := extract.Field(doc.Selection, chain, nil); value != models.NotFound {
			rec.Set(field, value)
		}
	}

	if !rec.Has(models.FieldDescription) {
		if desc := e.description(doc); desc != "" {
			rec.Set(models.FieldDescription, desc)
		}
	}

	e.logger.Debug().Str("url", url).Msg("Record enriched")
	return nil
}

// description converts the first matching description block to markdown.
func (e *Enricher) description(doc *goquery.Document) string {
	for _, sel := range e.profile.DescriptionSelectors {
		block := doc.Find(sel).First()
		if block.Length() == 0 {
			continue
		}
		html, err := goquery.OuterHtml(block)
		if err != nil || strings.TrimSpace(html) == "" {
			continue
		}
		markdown, err := e.converter.ConvertString(html)
		if err != nil {
			e.logger.Debug().Err(err).Str("selector", sel).Msg("Markdown conversion failed")
			continue
		}
		markdown = strings.TrimSpace(markdown)
		if markdown != "" {
			return markdown
		}
	}
	return ""
}
