package executor

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pgvanniekerk/ezrender/internal/concurrency"
	"github.com/pgvanniekerk/ezrender/internal/observability"
	"github.com/pgvanniekerk/ezrender/pkg/command"
	"github.com/rs/zerolog"
)

// Executor is the single logical owner of a rendering context. Tasks run one at a
// time on one goroutine, locked to its OS thread, in the order they were
// submitted. Submitting never blocks.
type Executor[C any] struct {

	// ctx is the rendering context. It is only touched from the executor goroutine.
	ctx C

	// queue holds submitted tasks in submission order.
	queue *concurrency.Queue[command.Task]

	// started is set once the executor goroutine has been launched.
	started *atomic.Bool

	// closed is set by Close.
	closed *atomic.Bool

	// stateMutex serializes Start and Close.
	stateMutex *sync.Mutex

	// done is closed when the executor goroutine returns.
	done chan struct{}

	// lockThread pins the executor goroutine to its OS thread.
	lockThread bool

	logger zerolog.Logger
}

// funcTask runs a function against the context and reports its result.
type funcTask[C any] struct {
	e      *Executor[C]
	fn     func(C) error
	result chan error
}

// Run always delivers a result to the waiting caller, including when fn panics.
func (t *funcTask[C]) Run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
		}
		t.result <- err
	}()
	return t.fn(t.e.ctx)
}

func (t *funcTask[C]) Abort() error {
	t.result <- ErrExecutorClosed
	return nil
}

//region Implementation

// Start launches the executor goroutine. It is a no-op if already started or closed.
func (e *Executor[C]) Start() {
	e.stateMutex.Lock()
	defer e.stateMutex.Unlock()

	if e.started.Load() || e.closed.Load() {
		return
	}

	e.started.Store(true)
	go e.processTasks()

	e.logger.Info().Bool("locked_thread", e.lockThread).Msg("Rendering context executor started")
}

// Submit queues task for execution. It fails with ErrExecutorClosed after Close;
// the caller keeps ownership of a rejected task.
func (e *Executor[C]) Submit(task command.Task) error {
	if task == nil {
		return ErrNilTask
	}
	if e.closed.Load() || !e.queue.Push(task) {
		return ErrExecutorClosed
	}

	observability.SetExecutorQueueSize(e.queue.Len())
	return nil
}

// Do runs fn against the context on the executor goroutine and waits for its
// result. Because tasks run in order, Do also acts as a barrier for everything
// submitted before it. Do must not be called from a task.
func (e *Executor[C]) Do(fn func(C) error) error {
	t := &funcTask[C]{e: e, fn: fn, result: make(chan error, 1)}
	if err := e.Submit(t); err != nil {
		return err
	}
	return <-t.result
}

// Pending returns the number of queued tasks.
func (e *Executor[C]) Pending() int {
	return e.queue.Len()
}

// Close stops the executor. Queued tasks are aborted, the running task completes,
// and Close waits for the executor goroutine to exit. It is idempotent.
func (e *Executor[C]) Close() {
	e.stateMutex.Lock()
	defer e.stateMutex.Unlock()

	if e.closed.Load() {
		return
	}
	e.closed.Store(true)

	pending := e.queue.Close()
	for _, task := range pending {
		if err := task.Abort(); err != nil {
			e.logger.Warn().Err(err).Msg("Task abort failed")
		}
	}

	if e.started.Load() {
		<-e.done
	}

	observability.SetExecutorQueueSize(0)
	e.logger.Info().Int("aborted", len(pending)).Msg("Rendering context executor closed")
}

//endregion

//region Helpers

// processTasks drains the queue on a single goroutine.
func (e *Executor[C]) processTasks() {
	defer close(e.done)

	if e.lockThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	for {
		task, ok := e.queue.Pop()
		if !ok {
			return
		}
		e.run(task)
	}
}

// run executes one task, converting a panic into an error so the loop survives.
func (e *Executor[C]) run(task command.Task) {
	start := time.Now()
	var err error

	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
			}
		}()
		err = task.Run()
	}()

	observability.RecordExecutorTask(time.Since(start), err == nil, e.queue.Len())
	if err != nil {
		e.logger.Error().Err(err).Msg("Rendering context task failed")
	}
}

//endregion
