// internal/ratelimit/limiter.go
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/record-harvest/harvest/internal/urlutil"
)

// Limiter throttles navigations so a harvest never hammers one host.
type Limiter interface {
	// Wait blocks until a navigation to the given URL may proceed, or the
	// context is cancelled.
	Wait(ctx context.Context, urlStr string) error
}

// DomainLimiter applies a token-bucket limit per host. Browser-driven
// pagination is slow by nature; this is a hard floor under the
// randomized delays, not the primary pacing mechanism.
type DomainLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	perHost  rate.Limit
	burst    int
}

// NewDomainLimiter creates a limiter allowing requestsPerSecond per host.
func NewDomainLimiter(requestsPerSecond float64, burst int) *DomainLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1.0
	}
	if burst <= 0 {
		burst = 2
	}
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		perHost:  rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

func (dl *DomainLimiter) limiterFor(host string) *rate.Limiter {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	if lim, ok := dl.limiters[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(dl.perHost, dl.burst)
	dl.limiters[host] = lim
	return lim
}

// Wait blocks until the per-host bucket grants a token.
func (dl *DomainLimiter) Wait(ctx context.Context, urlStr string) error {
	host := urlutil.Host(urlStr)
	if host == "" {
		// Unparsable URL: let navigation fail with a better error.
		return nil
	}
	return dl.limiterFor(host).Wait(ctx)
}
