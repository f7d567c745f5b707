// internal/sites/marketplace.go
package sites

import (
	"strings"

	"github.com/record-harvest/harvest/internal/extract"
	"github.com/record-harvest/harvest/pkg/models"
)

// Marketplace returns the profile for the MercadoLibre listing site.
// Selector chains cover the markup generations observed in production;
// newer shapes come first.
func Marketplace() *Profile {
	base := "https://listado.mercadolibre.com.ar"

	return &Profile{
		Name:    "marketplace",
		BaseURL: base,

		SearchURL: func(term string) string {
			slug := strings.ReplaceAll(strings.TrimSpace(term), " ", "-")
			return base + "/" + slug
		},

		ContainerChains: []string{
			".ui-search-layout__item",
			".ui-search-result__wrapper",
			"li.ui-search-layout__item",
		},
		WaitSelector: ".ui-search-layout__item",

		FieldChains: map[string][]extract.Locator{
			models.FieldTitle: {
				extract.Text(".ui-search-item__title"),
				extract.Text(".ui-search-results__item-title"),
				extract.Text("h2 a"),
				extract.Text(".ui-search-item__group__element--title a"),
				extract.Text(`[data-testid="item-title"]`),
			},
			models.FieldPrice: {
				extract.Text(".andes-money-amount__fraction"),
				extract.Text(".price-tag-fraction"),
				extract.Text(".ui-search-price__part"),
				extract.Text(`[data-testid="price"] .andes-money-amount__fraction`),
			},
			models.FieldURL: {
				extract.Attr(".ui-search-item__title a", "href"),
				extract.Attr(".ui-search-results__item-title a", "href"),
				extract.Attr("h2 a", "href"),
				extract.Attr(`a[href*="/MLA-"]`, "href"),
			},
			models.FieldSeller: {
				extract.Text(".ui-search-item__seller-info"),
				extract.Text(".ui-search-official-store-label"),
				extract.Text(`[data-testid="seller-info"]`),
			},
			models.FieldSellerRating: {
				extract.Text(".ui-search-item__seller-reputation"),
				extract.Text(`[data-testid="seller-reputation"]`),
				extract.Text(`[class*="reputation"]`),
			},
			models.FieldLocation: {
				extract.Text(".ui-search-item__location"),
				extract.Text(".ui-search-item__location-label"),
				extract.Text(`[data-testid="item-location"]`),
			},
			models.FieldShipping: {
				extract.Text(".ui-search-item__shipping"),
				extract.Text(".ui-search-shipping-label"),
				extract.Text(`[data-testid="shipping-info"]`),
			},
			models.FieldDiscount: {
				extract.Text(".ui-search-price-discount"),
				extract.Text(".ui-search-item__discount"),
			},
			models.FieldInstallments: {
				extract.Text(".ui-search-installments"),
				extract.Text(".ui-search-item__installments"),
			},
			models.FieldImageURL: {
				extract.Attr(".ui-search-result-image img", "src"),
				extract.Attr(".ui-search-item__image img", "src"),
			},
			models.FieldCondition: {
				extract.Text(".ui-search-item__condition"),
				extract.Text(`[data-testid="item-condition"]`),
			},
		},
		RequiredFields: []string{models.FieldPrice},
		MinTitleLength: 5,

		NextPageChains: []extract.Locator{
			{Selector: `a[title="Siguiente"]`},
			{Selector: ".andes-pagination__button--next a"},
			{Selector: `li.andes-pagination__button--next a`},
			{Selector: `a[rel="next"]`},
		},

		DetailFieldChains: map[string][]extract.Locator{
			models.FieldLocation: {
				extract.Text("div.ui-seller-info__status-info__subtitle"),
				extract.Text(".ui-pdp-seller__location"),
			},
			models.FieldSellerRating: {
				extract.Text("div.ui-seller-info__header__title + div span"),
				extract.Text(".ui-seller-info__status-info__title"),
			},
			models.FieldSeller: {
				extract.Text(".ui-pdp-seller__header__title"),
			},
		},
		DescriptionSelectors: []string{
			".ui-pdp-description__content",
			".ui-pdp-description",
		},
	}
}
