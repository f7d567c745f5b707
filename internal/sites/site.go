// internal/sites/site.go
package sites

import (
	"github.com/record-harvest/harvest/internal/extract"
)

// LoginForm describes the credential form of a site that gates search
// results behind authentication.
type LoginForm struct {
	URL            string
	UserSelector   string
	PassSelector   string
	SubmitSelector string
	// SuccessFragments: the post-login URL must contain one of these.
	SuccessFragments []string
}

// Profile is the informal contract with one target site: how to build a
// search URL and which locator shapes may expose record containers,
// fields and the next-page control. Locator chains are ordered
// most-specific-first and fixed at construction; nothing mutates them at
// run time.
type Profile struct {
	Name    string
	BaseURL string

	// SearchURL builds the first-page URL for a term. Later pages come
	// exclusively from the discovered next-page locator.
	SearchURL func(term string) string

	// ContainerChains are the known record-container shapes.
	ContainerChains []string
	// WaitSelector is the content-ready signal waited for (bounded) after
	// navigation.
	WaitSelector string

	// FieldChains maps logical field names to their locator chains.
	FieldChains map[string][]extract.Locator
	// RequiredFields: a record is accepted only when title plus at least
	// one of these passes minimal validation.
	RequiredFields []string
	// MinTitleLength is the minimal accepted title length.
	MinTitleLength int

	// NextPageChains locate the next-page control.
	NextPageChains []extract.Locator

	// DetailFieldChains are extracted from a record's detail page during
	// the bounded enrichment pass.
	DetailFieldChains map[string][]extract.Locator
	// DescriptionSelectors locate the detail-page description block whose
	// HTML is converted to markdown.
	DescriptionSelectors []string

	// RequiresAuth marks sites whose results are gated behind a login.
	RequiresAuth bool
	// LoggedOutSelectors detect that the current session is anonymous.
	LoggedOutSelectors []string
	// Login describes the credential form, when RequiresAuth is set.
	Login LoginForm
}

// ByName returns a built-in profile, or nil when unknown.
func ByName(name string) *Profile {
	switch name {
	case "jobboard":
		return JobBoard()
	case "marketplace":
		return Marketplace()
	}
	return nil
}

// Names lists the built-in profile names.
func Names() []string {
	return []string{"jobboard", "marketplace"}
}
