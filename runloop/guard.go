package runloop

import (
	"sync"
	"sync/atomic"

	"github.com/hugolhafner/go-consumer/kafka"
)

// HandleGuard scopes exclusive access to the non-thread-safe broker handle.
// The run loop is single-threaded, so the guard's job is to serialize the
// background close path against in-flight use and to turn accidental
// re-entrant use into a loud failure instead of silent handle corruption.
type HandleGuard struct {
	mu     sync.Mutex
	inUse  atomic.Bool
	closed bool
	client kafka.Client
}

func NewHandleGuard(client kafka.Client) *HandleGuard {
	return &HandleGuard{client: client}
}

// Use runs fn with exclusive access to the handle. The handle must not escape
// fn. Returns ErrHandleClosed once Close has been called.
func (g *HandleGuard) Use(fn func(kafka.Client) error) error {
	// Checked before locking: a re-entrant call from inside fn would otherwise
	// block forever on the mutex its own caller holds.
	if g.inUse.Load() {
		panic("runloop: re-entrant broker handle use")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return ErrHandleClosed
	}

	g.inUse.Store(true)
	defer g.inUse.Store(false)

	return fn(g.client)
}

// Close closes the underlying handle. Subsequent Use calls fail with
// ErrHandleClosed. Safe to call more than once.
func (g *HandleGuard) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}
	g.closed = true

	return g.client.Close()
}
