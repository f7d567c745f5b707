// internal/extract/extractor.go
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/record-harvest/harvest/internal/urlutil"
	"github.com/record-harvest/harvest/pkg/models"
)

// Locator is one candidate strategy for locating a logical field inside
// a record container. Attr selects an attribute value; empty Attr means
// the element's text. An empty Selector targets the container itself.
type Locator struct {
	Selector string
	Attr     string
}

// Text is shorthand for a text-content locator.
func Text(selector string) Locator {
	return Locator{Selector: selector}
}

// Attr is shorthand for an attribute locator.
func Attr(selector, attr string) Locator {
	return Locator{Selector: selector, Attr: attr}
}

// Validator decides whether an extracted candidate value is acceptable.
type Validator func(string) bool

// NonEmpty accepts values of at least minLen runes after trimming.
func NonEmpty(minLen int) Validator {
	if minLen < 1 {
		minLen = 1
	}
	return func(s string) bool {
		return len([]rune(strings.TrimSpace(s))) >= minLen
	}
}

// NotEqual wraps a validator to additionally reject a specific value,
// e.g. a sentinel already captured for a different field.
func NotEqual(inner Validator, reject string) Validator {
	return func(s string) bool {
		return s != reject && inner(s)
	}
}

// Field tries each locator in priority order against the container and
// returns the first candidate the validator accepts. Site markup drifts
// unpredictably; the ordered fallback chain degrades to the NotFound
// sentinel instead of failing the record. Candidates after the first
// accepted one are never evaluated.
func Field(container *goquery.Selection, locators []Locator, validate Validator) string {
	if validate == nil {
		validate = NonEmpty(1)
	}

	for _, loc := range locators {
		target := container
		if loc.Selector != "" {
			target = container.Find(loc.Selector).First()
			if target.Length() == 0 {
				continue
			}
		}

		var candidate string
		if loc.Attr != "" {
			candidate, _ = target.Attr(loc.Attr)
		} else {
			candidate = target.Text()
		}

		candidate = Clean(candidate)
		if validate(candidate) {
			return candidate
		}
	}

	return models.NotFound
}

// Containers enumerates candidate record-container elements, trying each
// container shape in order and returning the first non-empty match.
func Containers(doc *goquery.Document, chains []string) *goquery.Selection {
	for _, sel := range chains {
		found := doc.Find(sel)
		if found.Length() > 0 {
			return found
		}
	}
	return doc.Find("__none__")
}

// NextPageURL discovers the next-page control through its own fallback
// chain and resolves the href against the current page URL. Returns ""
// when no chain matches, which terminates pagination.
func NextPageURL(doc *goquery.Document, currentURL string, chains []Locator) string {
	for _, loc := range chains {
		target := doc.Find(loc.Selector).First()
		if target.Length() == 0 {
			continue
		}

		attr := loc.Attr
		if attr == "" {
			attr = "href"
		}
		href, ok := target.Attr(attr)
		if !ok || strings.TrimSpace(href) == "" {
			continue
		}

		resolved := urlutil.Resolve(currentURL, strings.TrimSpace(href))
		if urlutil.Validate(resolved) == nil {
			return resolved
		}
	}
	return ""
}

// Clean trims and collapses whitespace in an extracted value.
func Clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
