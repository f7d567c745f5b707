package models

import "time"

// NotFound is the sentinel stored for a field when every locator in its
// fallback chain failed or validation rejected every candidate.
const NotFound = "not available"

// Canonical field names shared by site profiles, extraction and export.
const (
	FieldTitle        = "title"
	FieldURL          = "url"
	FieldPrice        = "price"
	FieldCompany      = "company"
	FieldLocation     = "location"
	FieldSeller       = "seller"
	FieldSellerRating = "seller_rating"
	FieldShipping     = "free_shipping"
	FieldCondition    = "condition"
	FieldAvailability = "availability"
	FieldDiscount     = "discount"
	FieldInstallments = "installments"
	FieldImageURL     = "image_url"
	FieldWorkMode     = "work_mode"
	FieldPosted       = "posted"
	FieldDescription  = "description"
	FieldExperience   = "experience_level"
	FieldBenefits     = "benefits"
)

// Record is one extracted listing or posting: a flat field→value mapping
// tagged with the search term that produced it. Records are not modified
// after extraction except by the bounded enrichment pass, which merges a
// small set of detail fields.
type Record struct {
	Term        string            `json:"term"`
	ExtractedAt time.Time         `json:"extracted_at"`
	Fields      map[string]string `json:"fields"`
}

// NewRecord creates an empty record for a search term.
func NewRecord(term string) Record {
	return Record{
		Term:        term,
		ExtractedAt: time.Now(),
		Fields:      make(map[string]string),
	}
}

// Get returns the value for a field, or the NotFound sentinel when the
// field was never set.
func (r Record) Get(field string) string {
	if v, ok := r.Fields[field]; ok && v != "" {
		return v
	}
	return NotFound
}

// Has reports whether a field holds a real (non-sentinel) value.
func (r Record) Has(field string) bool {
	v, ok := r.Fields[field]
	return ok && v != "" && v != NotFound
}

// Set stores a field value. Empty values are ignored so a failed
// enrichment never erases a listing-page value.
func (r Record) Set(field, value string) {
	if value == "" {
		return
	}
	r.Fields[field] = value
}

// URL returns the record's absolute URL field, or "" when unset.
func (r Record) URL() string {
	if r.Has(FieldURL) {
		return r.Fields[FieldURL]
	}
	return ""
}

// ScrapeRequest describes one harvest run. It is built by the CLI layer
// and treated as immutable by the orchestration core.
type ScrapeRequest struct {
	// Terms is the ordered list of search terms, each non-empty.
	Terms []string
	// MaxPerTerm bounds how many records a single term may yield.
	MaxPerTerm int
	// SessionName optionally names a persisted browsing session to prime
	// the context with. Empty means a fresh anonymous session.
	SessionName string
	// EnrichLimit bounds the detail-enrichment pass. Zero disables it.
	EnrichLimit int
}

// PageCursor tracks pagination progress for a single search term.
// PageNum starts at 1 and only moves forward.
type PageCursor struct {
	PageNum          int
	ConsecutiveEmpty int
	Extracted        int
	NextPageURL      string
}

// NewPageCursor returns a cursor positioned on the first page.
func NewPageCursor() PageCursor {
	return PageCursor{PageNum: 1}
}

// Advance records the outcome of one processed page and moves the cursor
// to the next page URL (empty when none was found).
func (c *PageCursor) Advance(accepted int, nextURL string) {
	c.Extracted += accepted
	if accepted == 0 {
		c.ConsecutiveEmpty++
	} else {
		c.ConsecutiveEmpty = 0
	}
	c.NextPageURL = nextURL
	c.PageNum++
}

// Exhausted reports whether the pagination loop must stop.
func (c *PageCursor) Exhausted(maxRecords, emptyThreshold int) bool {
	if maxRecords > 0 && c.Extracted >= maxRecords {
		return true
	}
	if c.ConsecutiveEmpty >= emptyThreshold {
		return true
	}
	return c.PageNum > 1 && c.NextPageURL == ""
}

// TermStats summarizes what one search term yielded.
type TermStats struct {
	Term      string `json:"term"`
	Pages     int    `json:"pages"`
	Extracted int    `json:"extracted"`
	Err       string `json:"error,omitempty"`
}

// RunResult carries everything a harvest produced. Records extracted
// before a term-level failure are still present, so an expensive run is
// never lost wholesale.
type RunResult struct {
	Records  []Record    `json:"records"`
	Stats    []TermStats `json:"stats"`
	Enriched int         `json:"enriched"`
}
