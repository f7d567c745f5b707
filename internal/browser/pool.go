// internal/browser/pool.go
package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// SurfaceFactory mints a fresh Surface. The pool does not know about
// tabs or sessions; the caller binds those concerns into the factory.
type SurfaceFactory func(ctx context.Context) (Surface, error)

// Pool is a fixed-capacity pool of browsing surfaces. Surfaces are
// created eagerly so startup cost is paid once, and a surface is held by
// at most one caller between Acquire and Release.
type Pool struct {
	surfaces chan Surface
	logger   zerolog.Logger

	mu     sync.Mutex
	closed bool
	all    []Surface
}

// NewPool creates size surfaces up front. On any creation failure the
// surfaces already created are closed and the error is returned.
func NewPool(ctx context.Context, size int, factory SurfaceFactory, logger zerolog.Logger) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("pool size must be positive, got %d", size)
	}

	p := &Pool{
		surfaces: make(chan Surface, size),
		logger:   logger.With().Str("component", "pool").Logger(),
	}

	for i := 0; i < size; i++ {
		s, err := factory(ctx)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to create surface %d/%d: %w", i+1, size, err)
		}
		p.all = append(p.all, s)
		p.surfaces <- s
	}

	p.logger.Debug().Int("size", size).Msg("Pool ready")
	return p, nil
}

// Acquire leases a surface, blocking until one is free or the context
// is done.
func (p *Pool) Acquire(ctx context.Context) (Surface, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	p.mu.Unlock()

	select {
	case s, ok := <-p.surfaces:
		if !ok {
			return nil, ErrPoolClosed
		}
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a surface to the pool after a best-effort reset so the
// next lease starts from a blank page. A releasing caller never blocks.
func (p *Pool) Release(ctx context.Context, s Surface) {
	if s == nil {
		return
	}
	if err := s.Reset(ctx); err != nil {
		p.logger.Debug().Err(err).Msg("Surface reset failed on release")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		_ = s.Close()
		return
	}
	select {
	case p.surfaces <- s:
	default:
		// Double release. Closing the extra surface beats corrupting
		// the pool's accounting.
		_ = s.Close()
	}
}

// Size reports the pool capacity.
func (p *Pool) Size() int {
	return cap(p.surfaces)
}

// Idle reports how many surfaces are currently free.
func (p *Pool) Idle() int {
	return len(p.surfaces)
}

// Close closes every surface the pool ever created, including ones that
// are currently leased. Idempotent.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	close(p.surfaces)
	for range p.surfaces {
	}
	var firstErr error
	for _, s := range p.all {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.all = nil
	return firstErr
}
