package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/record-harvest/harvest/pkg/models"
)

func docFrom(t *testing.T, raw string) *goquery.Document {
	t.Helper()
	node, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Failed to parse fixture: %v", err)
	}
	return goquery.NewDocumentFromNode(node)
}

const containerFixture = `
<div class="item">
	<span class="a">x</span>
	<span class="b">Accepted Value</span>
	<span class="c">Third Choice</span>
	<a class="link" href="/item/42">see</a>
</div>`

func TestField_FallbackOrder(t *testing.T) {
	doc := docFrom(t, containerFixture)
	container := doc.Find(".item")

	// Locator A matches but fails validation (too short), B passes,
	// C must never be evaluated.
	var tried []string
	spy := func(s string) bool {
		tried = append(tried, s)
		return len(s) >= 3
	}

	got := Field(container, []Locator{Text(".a"), Text(".b"), Text(".c")}, spy)

	if got != "Accepted Value" {
		t.Errorf("Expected locator B result, got %q", got)
	}
	for _, v := range tried {
		if v == "Third Choice" {
			t.Error("Locator C was evaluated after B succeeded")
		}
	}
}

func TestField_AllFail(t *testing.T) {
	doc := docFrom(t, containerFixture)
	container := doc.Find(".item")

	got := Field(container, []Locator{Text(".missing"), Text(".also-missing")}, NonEmpty(1))
	if got != models.NotFound {
		t.Errorf("Expected sentinel, got %q", got)
	}
}

func TestField_AttributeLocator(t *testing.T) {
	doc := docFrom(t, containerFixture)
	container := doc.Find(".item")

	got := Field(container, []Locator{Attr(".link", "href")}, NonEmpty(1))
	if got != "/item/42" {
		t.Errorf("Expected href value, got %q", got)
	}
}

func TestField_SelfLocator(t *testing.T) {
	doc := docFrom(t, `<p class="only">  spaced   text  </p>`)
	container := doc.Find(".only")

	got := Field(container, []Locator{{}}, NonEmpty(1))
	if got != "spaced text" {
		t.Errorf("Expected collapsed text of the container itself, got %q", got)
	}
}

func TestNotEqual(t *testing.T) {
	v := NotEqual(NonEmpty(1), "dup")
	if v("dup") {
		t.Error("Rejected value accepted")
	}
	if !v("other") {
		t.Error("Acceptable value rejected")
	}
}

func TestContainers_FallbackChain(t *testing.T) {
	doc := docFrom(t, `
		<ul>
			<li class="result-card">one</li>
			<li class="result-card">two</li>
		</ul>`)

	got := Containers(doc, []string{".modern-shape", ".result-card"})
	if got.Length() != 2 {
		t.Errorf("Expected 2 containers via fallback shape, got %d", got.Length())
	}

	none := Containers(doc, []string{".nothing"})
	if none.Length() != 0 {
		t.Errorf("Expected empty selection, got %d", none.Length())
	}
}

func TestNextPageURL(t *testing.T) {
	doc := docFrom(t, `
		<nav>
			<a class="andes-pagination__link" title="Siguiente" href="/search?page=2">next</a>
		</nav>`)

	got := NextPageURL(doc, "https://example.com/search", []Locator{
		{Selector: `a[rel="next"]`},
		{Selector: `a[title="Siguiente"]`},
	})
	if got != "https://example.com/search?page=2" {
		t.Errorf("Expected resolved next-page URL, got %q", got)
	}
}

func TestNextPageURL_None(t *testing.T) {
	doc := docFrom(t, `<nav><span class="disabled">next</span></nav>`)

	got := NextPageURL(doc, "https://example.com/search", []Locator{{Selector: `a[rel="next"]`}})
	if got != "" {
		t.Errorf("Expected empty next-page URL, got %q", got)
	}
}
