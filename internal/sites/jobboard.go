// internal/sites/jobboard.go
package sites

import (
	"net/url"

	"github.com/record-harvest/harvest/internal/extract"
	"github.com/record-harvest/harvest/pkg/models"
)

// JobBoard returns the profile for the LinkedIn jobs search. Results are
// gated behind authentication; the orchestrator primes a stored session
// or runs the login flow before paginating.
func JobBoard() *Profile {
	base := "https://www.linkedin.com"

	return &Profile{
		Name:    "jobboard",
		BaseURL: base,

		SearchURL: func(term string) string {
			return base + "/jobs/search/?keywords=" + url.QueryEscape(term) + "&location=Argentina"
		},

		ContainerChains: []string{
			`li[data-occludable-job-id]`,
			`ul li:has(a[href*="/jobs/view/"])`,
			`div.job-search-card`,
		},
		WaitSelector: `a[href*="/jobs/view/"]`,

		FieldChains: map[string][]extract.Locator{
			models.FieldTitle: {
				extract.Text(`a[href*="/jobs/view/"] span strong`),
				extract.Text(`a[href*="/jobs/view/"] strong`),
				extract.Text(".base-search-card__title"),
				extract.Text(`a[href*="/jobs/view/"]`),
			},
			models.FieldURL: {
				extract.Attr(`a[href*="/jobs/view/"]`, "href"),
			},
			models.FieldCompany: {
				extract.Text(".base-search-card__subtitle"),
				extract.Text(".job-search-card__subtitle"),
				extract.Text(`span[dir="ltr"]:not(:has(strong))`),
			},
			models.FieldLocation: {
				extract.Text(".job-search-card__location"),
				extract.Text(".base-search-card__metadata span"),
				extract.Text(`[class*="location"]`),
			},
			models.FieldPosted: {
				extract.Attr("time", "datetime"),
				extract.Text("time"),
				extract.Text(".job-search-card__listdate"),
			},
			models.FieldWorkMode: {
				extract.Text(".job-search-card__workplace-type"),
				extract.Text(`[class*="workplace"]`),
			},
		},
		RequiredFields: []string{models.FieldCompany, models.FieldURL},
		MinTitleLength: 3,

		NextPageChains: []extract.Locator{
			{Selector: `a[aria-label="Next"]`},
			{Selector: `a[data-tracking-control-name*="pagination"]`},
			{Selector: `li.artdeco-pagination__indicator--active + li a`},
		},

		DetailFieldChains: map[string][]extract.Locator{
			models.FieldExperience: {
				extract.Text(".description__job-criteria-list li:first-child .description__job-criteria-text"),
				extract.Text(`[class*="job-criteria"] span`),
			},
			models.FieldBenefits: {
				extract.Text(".salary"),
				extract.Text(`[class*="benefits"]`),
			},
		},
		DescriptionSelectors: []string{
			".show-more-less-html__markup",
			".description__text",
			".jobs-description__content",
		},

		RequiresAuth: true,
		LoggedOutSelectors: []string{
			`a[href*="login"]`,
			".sign-in-form",
			`button[data-tracking-control-name="guest_homepage-basic_nav-header-signin"]`,
		},
		Login: LoginForm{
			URL:              base + "/login",
			UserSelector:     "#username",
			PassSelector:     "#password",
			SubmitSelector:   `button[type="submit"]`,
			SuccessFragments: []string{"/feed", "/jobs"},
		},
	}
}
