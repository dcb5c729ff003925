package lifecycle

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pgvanniekerk/ezrender/internal/concurrency"
	"github.com/pgvanniekerk/ezrender/internal/observability"
	"github.com/pgvanniekerk/ezrender/pkg/command"
	"github.com/rs/zerolog"
)

// Worker runs posted work items on one dedicated goroutine, but only while its
// gate is open. The gate mirrors the visibility of a host surface: the host calls
// Resume when the surface becomes visible and Pause when it is hidden. An item
// dequeued while the gate is closed is handed to its Discarded callback instead
// of running, so nothing executes against a rendering context that is gone.
type Worker struct {

	// name labels log lines and metrics.
	name string

	// gate is sampled once per dequeued item, right before it would run.
	gate *concurrency.Gate

	// queue holds posted items in post order. Posting never blocks.
	queue *concurrency.Queue[command.WorkItem]

	// started is set once the processing goroutine has been launched.
	started *atomic.Bool

	// closed is set by Shutdown. A closed worker accepts no further items.
	closed *atomic.Bool

	// stateMutex serializes Start and Shutdown.
	stateMutex *sync.Mutex

	// done is closed when the processing goroutine returns.
	done chan struct{}

	logger zerolog.Logger
}

//region Implementation

// Start launches the processing goroutine. Items posted before Start stay queued
// until it is called. Start is a no-op on a started or shut down worker.
func (w *Worker) Start() {
	w.stateMutex.Lock()
	defer w.stateMutex.Unlock()

	if w.started.Load() || w.closed.Load() {
		return
	}

	w.started.Store(true)
	go w.processItems()

	w.logger.Info().Str("worker", w.name).Bool("active", w.gate.Open()).Msg("Worker started")
}

// Post enqueues item and returns immediately. It fails with ErrWorkerShutdown
// after Shutdown.
func (w *Worker) Post(item command.WorkItem) error {
	if item == nil {
		return ErrNilWorkItem
	}
	if w.closed.Load() || !w.queue.Push(item) {
		return ErrWorkerShutdown
	}

	observability.SetWorkerQueueSize(w.name, w.queue.Len())
	return nil
}

// Resume opens the gate. Redundant calls are no-ops.
func (w *Worker) Resume() {
	if w.gate.Resume() {
		observability.SetWorkerGate(w.name, true)
		w.logger.Debug().Str("worker", w.name).Msg("Worker resumed")
	}
}

// Pause closes the gate. Redundant calls are no-ops.
func (w *Worker) Pause() {
	if w.gate.Pause() {
		observability.SetWorkerGate(w.name, false)
		w.logger.Debug().Str("worker", w.name).Msg("Worker paused")
	}
}

// Active reports whether the gate is open.
func (w *Worker) Active() bool {
	return w.gate.Open()
}

// Gate exposes the worker's gate so producers can wait for it to open.
func (w *Worker) Gate() *concurrency.Gate {
	return w.gate
}

// Pending returns the number of items waiting to be dequeued.
func (w *Worker) Pending() int {
	return w.queue.Len()
}

// Shutdown stops the worker. Further posts fail. Items still queued are never
// run; each receives its Discarded callback. The item currently running, if any,
// completes, and Shutdown waits for the processing goroutine to exit.
// Shutdown must not be called from inside a work item. It is idempotent.
func (w *Worker) Shutdown() {
	w.stateMutex.Lock()
	defer w.stateMutex.Unlock()

	if w.closed.Load() {
		return
	}
	w.closed.Store(true)

	pending := w.queue.Close()
	for _, item := range pending {
		w.discard(item)
	}

	if w.started.Load() {
		<-w.done
	}

	observability.SetWorkerQueueSize(w.name, 0)
	w.logger.Info().Str("worker", w.name).Int("discarded", len(pending)).Msg("Worker shut down")
}

//endregion

//region Helpers

// processItems dequeues items until the queue is closed.
func (w *Worker) processItems() {
	defer close(w.done)

	for {
		item, ok := w.queue.Pop()
		if !ok {
			return
		}

		// The gate is read once, here. A signal arriving after this check
		// applies to the next item.
		if w.gate.Open() {
			w.run(item)
		} else {
			w.discard(item)
		}
	}
}

// run invokes item.Run. A panic is recovered so one bad item does not take
// the worker down.
func (w *Worker) run(item command.WorkItem) {
	defer func() {
		if r := recover(); r != nil {
			observability.RecordWorkerItem(w.name, "panicked", w.queue.Len())
			w.logger.Error().
				Str("worker", w.name).
				Err(fmt.Errorf("%v", r)).
				Msg("Work item panicked")
		}
	}()

	item.Run()
	observability.RecordWorkerItem(w.name, "run", w.queue.Len())
}

// discard invokes item.Discarded. A discarded item is never re-queued here.
func (w *Worker) discard(item command.WorkItem) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().
				Str("worker", w.name).
				Err(fmt.Errorf("%v", r)).
				Msg("Discard callback panicked")
		}
	}()

	item.Discarded()
	observability.RecordWorkerItem(w.name, "discarded", w.queue.Len())
	w.logger.Debug().Str("worker", w.name).Msg("Work item discarded, gate closed")
}

//endregion
