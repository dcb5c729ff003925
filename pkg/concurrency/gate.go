package concurrency

import (
	"context"

	"github.com/pgvanniekerk/ezrender/internal/concurrency"
)

// Gate is a two-state switch, Active (open) or Paused (closed), shared between the
// host surface that drives it and the consumers that read it.
//
// Methods:
//   - Open(): Report whether the gate is currently open.
//   - Resume(): Open the gate.
//   - Pause(): Close the gate.
//   - Wait(): Block until the gate is open.
type Gate interface {

	// Open reports the current state. It is lock-free and safe to call from any
	// goroutine; the value may be stale by the time the caller acts on it.
	Open() bool

	// Resume opens the gate. It returns true if the state changed and false if the
	// gate was already open.
	Resume() bool

	// Pause closes the gate. It returns true if the state changed and false if the
	// gate was already closed.
	Pause() bool

	// Wait blocks until the gate is open or ctx is done, in which case it returns
	// ctx.Err(). Producers that want to idle while the surface is hidden use it.
	Wait(ctx context.Context) error
}

// NewGate creates a Gate in the given initial state.
func NewGate(open bool) Gate {
	return concurrency.NewGate(open)
}
