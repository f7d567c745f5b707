package urlutil

import "testing"

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid http", "http://example.com/a", false},
		{"valid https", "https://example.com", false},
		{"missing scheme", "example.com/a", true},
		{"ftp scheme", "ftp://example.com", true},
		{"missing host", "https://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	base := "https://example.com/search/page"

	tests := []struct {
		href string
		want string
	}{
		{"/jobs/view/123", "https://example.com/jobs/view/123"},
		{"https://other.com/x", "https://other.com/x"},
		{"next?page=2", "https://example.com/search/next?page=2"},
	}

	for _, tt := range tests {
		if got := Resolve(base, tt.href); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.href, got, tt.want)
		}
	}
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"strips tracking params and fragment",
			"https://Example.com/item/MLA-123?utm_source=x&sku=9#anchor",
			"https://example.com/item/MLA-123?sku=9",
		},
		{
			"trailing slash dropped",
			"https://example.com/item/",
			"https://example.com/item",
		},
		{
			"relative url rejected",
			"/item/MLA-123",
			"",
		},
		{
			"garbage rejected",
			"::::",
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Canonicalize(tt.in); got != tt.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCanonicalize_SameIdentity(t *testing.T) {
	a := Canonicalize("https://example.com/item/1?utm_campaign=a")
	b := Canonicalize("https://EXAMPLE.com/item/1/")
	if a == "" || a != b {
		t.Errorf("Expected identical canonical forms, got %q and %q", a, b)
	}
}
