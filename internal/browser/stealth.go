// internal/browser/stealth.go
package browser

import "math/rand"

// stealthScript runs before any page script in every new document and
// masks the properties headless automation is fingerprinted by. It must
// be installed before the first navigation of a tab; installing it later
// has no effect on documents that already loaded.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', {
	get: () => undefined,
});

Object.defineProperty(navigator, 'plugins', {
	get: () => [1, 2, 3],
});

Object.defineProperty(navigator, 'languages', {
	get: () => ['es-AR', 'es', 'en'],
});

window.chrome = window.chrome || { runtime: {} };

const originalQuery = window.navigator.permissions.query;
window.navigator.permissions.query = (parameters) =>
	parameters.name === 'notifications'
		? Promise.resolve({ state: Notification.permission })
		: originalQuery(parameters);
`

// userAgents is the rotation pool for new browsing contexts.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
}

// randomUserAgent picks one user agent for a context's lifetime. Keeping
// it stable per context avoids mid-session fingerprint changes.
func randomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}
