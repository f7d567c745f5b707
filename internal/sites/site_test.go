package sites

import (
	"strings"
	"testing"

	"github.com/record-harvest/harvest/pkg/models"
)

func TestByName(t *testing.T) {
	for _, name := range Names() {
		p := ByName(name)
		if p == nil {
			t.Fatalf("ByName(%q) returned nil", name)
		}
		if p.Name != name {
			t.Errorf("Profile name mismatch: %q vs %q", p.Name, name)
		}
	}
	if ByName("unknown") != nil {
		t.Error("Unknown profile should be nil")
	}
}

func TestProfiles_Complete(t *testing.T) {
	for _, name := range Names() {
		p := ByName(name)
		t.Run(name, func(t *testing.T) {
			if len(p.ContainerChains) == 0 {
				t.Error("No container chains")
			}
			if p.WaitSelector == "" {
				t.Error("No wait selector")
			}
			if len(p.FieldChains[models.FieldTitle]) == 0 {
				t.Error("No title locators")
			}
			if len(p.RequiredFields) == 0 {
				t.Error("No required fields")
			}
			if len(p.NextPageChains) == 0 {
				t.Error("No next-page chain")
			}
			if p.SearchURL == nil {
				t.Fatal("No search URL builder")
			}
		})
	}
}

func TestMarketplace_SearchURL(t *testing.T) {
	p := Marketplace()
	got := p.SearchURL("aire acondicionado")
	if !strings.HasSuffix(got, "/aire-acondicionado") {
		t.Errorf("Expected slugged term in URL, got %q", got)
	}
}

func TestJobBoard_SearchURL(t *testing.T) {
	p := JobBoard()
	got := p.SearchURL("python developer")
	if !strings.Contains(got, "keywords=python+developer") {
		t.Errorf("Expected escaped keywords parameter, got %q", got)
	}
	if !p.RequiresAuth {
		t.Error("Job board should require authentication")
	}
}
