package concurrency

import (
	"context"
	"sync"
	"sync/atomic"
)

// Gate is a two-state switch, open or closed, flipped only by explicit Resume and
// Pause calls. Readers sample it once with Open; producers that would rather idle
// while it is closed can block in Wait.
type Gate struct {

	// mu serializes transitions so the opened channel is replaced and closed
	// consistently with the open flag.
	mu *sync.Mutex

	// open is the current state. It is read without the mutex on the hot path.
	open *atomic.Bool

	// opened is closed while the gate is open and replaced by a fresh channel
	// when the gate closes, so Wait returns as soon as the gate opens.
	opened chan struct{}
}

//region Implementation

// Open reports whether the gate is currently open.
func (g *Gate) Open() bool {
	return g.open.Load()
}

// Resume opens the gate. It reports whether the state changed; calling it on an
// open gate is a no-op.
func (g *Gate) Resume() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.open.Load() {
		return false
	}

	g.open.Store(true)
	close(g.opened)
	return true
}

// Pause closes the gate. It reports whether the state changed; calling it on a
// closed gate is a no-op.
func (g *Gate) Pause() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.open.Load() {
		return false
	}

	g.open.Store(false)
	g.opened = make(chan struct{})
	return true
}

// Wait blocks until the gate is open or ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	opened := g.opened
	g.mu.Unlock()

	select {
	case <-opened:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

//endregion

//region Constructor

// NewGate creates a gate in the given initial state.
func NewGate(open bool) *Gate {
	g := &Gate{
		mu:     &sync.Mutex{},
		open:   &atomic.Bool{},
		opened: make(chan struct{}),
	}
	if open {
		g.open.Store(true)
		close(g.opened)
	}
	return g
}

//endregion
