package lifecycle

import (
	"github.com/pgvanniekerk/ezrender/internal/lifecycle"
	"github.com/pgvanniekerk/ezrender/pkg/command"
	"github.com/pgvanniekerk/ezrender/pkg/concurrency"
)

// Worker is a single consumer that drains a FIFO of work items, running each item
// when its gate is open and discarding it when the gate is closed. The gate is read
// once, at the moment an item is dequeued.
//
// The host surface drives the gate through Resume and Pause. Any number of
// producers may Post concurrently; items from one producer are handled in the
// order that producer posted them.
type Worker interface {

	// Start launches the consumer goroutine. Calling it again has no effect.
	Start()

	// Post enqueues item without blocking. It returns ErrWorkerShutdown once the
	// worker has been shut down and ErrNilWorkItem for a nil item.
	Post(item command.WorkItem) error

	// Resume opens the gate. Idempotent.
	Resume()

	// Pause closes the gate. Idempotent.
	Pause()

	// Active reports whether the gate is open.
	Active() bool

	// Gate returns the worker's gate so producers can Wait for it to open.
	Gate() concurrency.Gate

	// Pending returns the number of queued items.
	Pending() int

	// Shutdown stops the worker. Items still queued are discarded, never run, and
	// Shutdown waits for the item in progress to finish. Idempotent.
	Shutdown()
}

// worker adapts the internal worker's concrete gate to the Gate interface.
type worker struct {
	*lifecycle.Worker
}

func (w worker) Gate() concurrency.Gate {
	return w.Worker.Gate()
}
