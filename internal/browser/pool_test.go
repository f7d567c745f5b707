// internal/browser/pool_test.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeSurface struct {
	mu     sync.Mutex
	resets int
	closed bool
}

func (f *fakeSurface) Navigate(ctx context.Context, url string) error { return nil }
func (f *fakeSurface) WaitVisible(ctx context.Context, sel string, d time.Duration) error {
	return nil
}
func (f *fakeSurface) HTML(ctx context.Context) (string, error)        { return "", nil }
func (f *fakeSurface) Scroll(ctx context.Context) error                { return nil }
func (f *fakeSurface) Fill(ctx context.Context, sel, val string) error { return nil }
func (f *fakeSurface) Click(ctx context.Context, sel string) error     { return nil }
func (f *fakeSurface) Location(ctx context.Context) (string, error)    { return "", nil }

func (f *fakeSurface) Reset(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return nil
}

func (f *fakeSurface) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func fakeFactory(created *[]*fakeSurface) SurfaceFactory {
	return func(ctx context.Context) (Surface, error) {
		s := &fakeSurface{}
		*created = append(*created, s)
		return s, nil
	}
}

func TestPool_EagerCreation(t *testing.T) {
	var created []*fakeSurface
	p, err := NewPool(context.Background(), 3, fakeFactory(&created), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	defer p.Close()

	if len(created) != 3 {
		t.Errorf("expected 3 surfaces created eagerly, got %d", len(created))
	}
	if p.Idle() != 3 {
		t.Errorf("expected 3 idle surfaces, got %d", p.Idle())
	}
}

func TestPool_AcquireRelease(t *testing.T) {
	var created []*fakeSurface
	p, err := NewPool(context.Background(), 2, fakeFactory(&created), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	defer p.Close()

	ctx := context.Background()
	s1, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	s2, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if s1 == s2 {
		t.Error("acquired the same surface twice without a release")
	}
	if p.Idle() != 0 {
		t.Errorf("expected 0 idle, got %d", p.Idle())
	}

	p.Release(ctx, s1)
	if p.Idle() != 1 {
		t.Errorf("expected 1 idle after release, got %d", p.Idle())
	}

	fs := s1.(*fakeSurface)
	if fs.resets != 1 {
		t.Errorf("expected surface reset on release, got %d resets", fs.resets)
	}
}

func TestPool_AcquireBlocksUntilRelease(t *testing.T) {
	var created []*fakeSurface
	p, err := NewPool(context.Background(), 1, fakeFactory(&created), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	defer p.Close()

	ctx := context.Background()
	s, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	got := make(chan Surface, 1)
	go func() {
		s2, err := p.Acquire(ctx)
		if err != nil {
			t.Errorf("blocked Acquire failed: %v", err)
			return
		}
		got <- s2
	}()

	select {
	case <-got:
		t.Fatal("Acquire returned before any release")
	case <-time.After(50 * time.Millisecond):
	}

	p.Release(ctx, s)

	select {
	case s2 := <-got:
		if s2 != s {
			t.Error("expected the released surface to be handed to the waiter")
		}
	case <-time.After(time.Second):
		t.Fatal("Acquire did not wake after release")
	}
}

func TestPool_AcquireHonorsContext(t *testing.T) {
	var created []*fakeSurface
	p, err := NewPool(context.Background(), 1, fakeFactory(&created), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	defer p.Close()

	s, _ := p.Acquire(context.Background())
	defer p.Release(context.Background(), s)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if _, err := p.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestPool_FactoryErrorCleansUp(t *testing.T) {
	var created []*fakeSurface
	calls := 0
	factory := func(ctx context.Context) (Surface, error) {
		calls++
		if calls == 3 {
			return nil, fmt.Errorf("boom")
		}
		s := &fakeSurface{}
		created = append(created, s)
		return s, nil
	}

	if _, err := NewPool(context.Background(), 3, factory, zerolog.Nop()); err == nil {
		t.Fatal("expected NewPool to fail")
	}
	for i, s := range created {
		if !s.closed {
			t.Errorf("surface %d not closed after factory failure", i)
		}
	}
}

func TestPool_CloseClosesLeased(t *testing.T) {
	var created []*fakeSurface
	p, err := NewPool(context.Background(), 2, fakeFactory(&created), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}

	s, _ := p.Acquire(context.Background())
	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	for i, fs := range created {
		if !fs.closed {
			t.Errorf("surface %d not closed", i)
		}
	}

	if _, err := p.Acquire(context.Background()); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("expected ErrPoolClosed after Close, got %v", err)
	}

	// Releasing into a closed pool must not panic.
	p.Release(context.Background(), s)
}
