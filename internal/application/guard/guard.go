package guard

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/aescanero/coyote/pkg/domain"
)

// Guard admits requests while the service is running and tracks how many
// are in flight so shutdown can wait for them.
type Guard struct {
	inFlight atomic.Int64
	stopping atomic.Bool
}

// Token is the admission of a single request. It must be released once.
type Token struct {
	guard    *Guard
	released atomic.Bool
}

// New creates a guard that admits requests.
func New() *Guard {
	return &Guard{}
}

// Enter admits a request. Once shutdown has begun it returns
// domain.ErrServiceStopped and the counter is left unchanged.
func (g *Guard) Enter() (*Token, error) {
	// Increment before reading the flag: a request that passes the check is
	// always visible to AwaitDrain.
	g.inFlight.Add(1)
	if g.stopping.Load() {
		g.inFlight.Add(-1)
		return nil, domain.ErrServiceStopped
	}
	return &Token{guard: g}, nil
}

// Release gives the admission back. Calls after the first are no-ops.
func (t *Token) Release() {
	if t == nil {
		return
	}
	if t.released.CompareAndSwap(false, true) {
		t.guard.inFlight.Add(-1)
	}
}

// Execute runs fn under an admitted token. The token is released on every
// exit path, including panics, and fn's error is returned unchanged.
func (g *Guard) Execute(t *Token, fn func() error) error {
	defer t.Release()
	return fn()
}

// Do admits a request and runs fn.
func (g *Guard) Do(fn func() error) error {
	t, err := g.Enter()
	if err != nil {
		return err
	}
	return g.Execute(t, fn)
}

// BeginShutdown stops admitting requests. It reports whether this call
// flipped the flag.
func (g *Guard) BeginShutdown() bool {
	return g.stopping.CompareAndSwap(false, true)
}

// Stopping reports whether shutdown has begun.
func (g *Guard) Stopping() bool {
	return g.stopping.Load()
}

// InFlight returns the number of admitted, unreleased requests.
func (g *Guard) InFlight() int64 {
	return g.inFlight.Load()
}

// AwaitDrain polls until no request is in flight, maxWait elapses or ctx is
// done. It reports whether the drain completed; a timeout is not an error.
func (g *Guard) AwaitDrain(ctx context.Context, poll, maxWait time.Duration) bool {
	if g.inFlight.Load() <= 0 {
		return true
	}
	if poll <= 0 {
		poll = time.Millisecond
	}

	deadline := time.NewTimer(maxWait)
	defer deadline.Stop()
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return g.inFlight.Load() <= 0
		case <-deadline.C:
			return g.inFlight.Load() <= 0
		case <-ticker.C:
			if g.inFlight.Load() <= 0 {
				return true
			}
		}
	}
}
