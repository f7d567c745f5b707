// internal/dedupe/dedupe.go
package dedupe

import (
	"strings"

	"github.com/record-harvest/harvest/internal/urlutil"
	"github.com/record-harvest/harvest/pkg/models"
)

// Key computes the canonical identity of a record: its canonicalized
// absolute URL when present and well-formed, otherwise a composite of
// title plus two secondary fields. Two records with the same key are the
// same entity.
func Key(r models.Record) string {
	if canonical := urlutil.Canonicalize(r.URL()); canonical != "" {
		return canonical
	}

	parts := []string{
		r.Get(models.FieldTitle),
		secondary(r),
		tertiary(r),
	}
	return strings.Join(parts, "|")
}

// secondary picks the strongest non-URL discriminator available.
func secondary(r models.Record) string {
	for _, f := range []string{models.FieldCompany, models.FieldSeller, models.FieldPrice} {
		if r.Has(f) {
			return r.Fields[f]
		}
	}
	return models.NotFound
}

func tertiary(r models.Record) string {
	for _, f := range []string{models.FieldLocation, models.FieldPrice, models.FieldPosted} {
		if r.Has(f) {
			return r.Fields[f]
		}
	}
	return models.NotFound
}

// Dedupe retains the first-seen record per key, preserving input order.
func Dedupe(records []models.Record) []models.Record {
	seen := make(map[string]bool, len(records))
	unique := make([]models.Record, 0, len(records))

	for _, r := range records {
		k := Key(r)
		if seen[k] {
			continue
		}
		seen[k] = true
		unique = append(unique, r)
	}

	return unique
}
