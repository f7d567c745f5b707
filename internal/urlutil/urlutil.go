// internal/urlutil/urlutil.go
package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate performs basic URL validation for navigation targets.
func Validate(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: must be http or https, got %s", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}

	return nil
}

// Resolve resolves a possibly-relative href against a base URL.
func Resolve(base, href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if u.IsAbs() {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(u).String()
}

// trackingParams are query parameters that vary between otherwise
// identical listing URLs and must not influence identity.
var trackingParams = map[string]bool{
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_term":     true,
	"utm_content":  true,
	"tracking_id":  true,
	"trackingid":   true,
	"refcommercon": true,
	"ref":          true,
	"position":     true,
	"search_layout": true,
}

// Canonicalize normalizes a URL for identity comparison: lowercases the
// host, strips the fragment and known tracking parameters, and drops a
// trailing slash. Returns "" when the input is not a well-formed
// absolute http(s) URL.
func Canonicalize(urlStr string) string {
	parsed, err := url.Parse(strings.TrimSpace(urlStr))
	if err != nil {
		return ""
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return ""
	}

	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""

	q := parsed.Query()
	for param := range q {
		if trackingParams[strings.ToLower(param)] {
			q.Del(param)
		}
	}
	parsed.RawQuery = q.Encode()

	parsed.Path = strings.TrimSuffix(parsed.Path, "/")

	return parsed.String()
}

// Host extracts the hostname from a URL, or "" when unparsable.
func Host(urlStr string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}
