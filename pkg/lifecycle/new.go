package lifecycle

import "github.com/pgvanniekerk/ezrender/internal/lifecycle"

// Option configures a Worker.
type Option = lifecycle.Option

var (
	// WithName sets the worker label used in logs and metrics.
	WithName = lifecycle.WithName

	// WithInitiallyActive sets the initial gate state. Workers start Paused by default.
	WithInitiallyActive = lifecycle.WithInitiallyActive

	// WithLogger sets the worker logger. The global zerolog logger is used by default.
	WithLogger = lifecycle.WithLogger
)

var (
	// ErrWorkerShutdown is returned by Post after Shutdown.
	ErrWorkerShutdown = lifecycle.ErrWorkerShutdown

	// ErrNilWorkItem is returned by Post for a nil item.
	ErrNilWorkItem = lifecycle.ErrNilWorkItem
)

// New creates a Worker. Call Start before expecting items to be handled.
//
// Usage Example:
//
//	w := lifecycle.New(lifecycle.WithName("frames"))
//	w.Start()
//	defer w.Shutdown()
//
//	// Host surface became visible.
//	w.Resume()
//
//	_ = w.Post(command.WorkFunc{
//	    OnRun:     func() { drawFrame() },
//	    OnDiscard: func() { releaseFrame() },
//	})
func New(opts ...Option) Worker {
	return worker{lifecycle.New(opts...)}
}
