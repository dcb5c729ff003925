// Package command defines the contracts shared by every recyclable unit of work:
// pooled commands, commands bound to a rendering context, and items posted to a
// lifecycle gated worker.
package command

// Command is a reusable unit of deferred work. P is the typed parameter struct the
// command is configured with and C is the execution context handed to Execute
// (a context.Context for host-side work, the rendering context for render work).
//
// For every acquisition exactly one of Execute or Abort is called, followed by
// exactly one Reset, followed by the return of the instance to its owning pool.
// Callers never invoke these methods directly on pooled instances; the pool's
// lease performs the sequence.
type Command[P any, C any] interface {

	// Configure binds new input state. It must overwrite all state left by a
	// previous configuration.
	Configure(params P)

	// Execute performs the work against ctx. It runs at most once per Configure.
	Execute(ctx C) error

	// Abort is the terminal path taken instead of Execute when the work is
	// cancelled before it runs.
	Abort()

	// Reset clears every reference held by the command so an idle instance does
	// not retain buffers or callbacks between uses.
	Reset()
}

// ContextCommand is a Command that must hold a reference to the single shared
// rendering context. Bind is called once, before the first Configure, by the
// context pool that constructed the instance.
type ContextCommand[P any, C any] interface {
	Command[P, C]

	// Bind attaches the shared context. It is never called twice on one instance.
	Bind(ctx C)
}

// Factory constructs a new, unconfigured command. A factory error is a
// configuration error and is never retried.
type Factory[P any, C any] func() (Command[P, C], error)

// ContextFactory constructs a new, unbound context command.
type ContextFactory[P any, C any] func() (ContextCommand[P, C], error)

// WorkItem is a unit of work posted to a lifecycle gated worker. Exactly one of
// Run or Discarded is invoked per post: Run when the gate is open at the moment
// the item is dequeued, Discarded otherwise. A discarded item is not re-queued;
// it decides for itself whether to post again later.
type WorkItem interface {
	Run()
	Discarded()
}

// WorkFunc adapts a pair of functions to the WorkItem interface. A nil
// OnDiscard is allowed.
type WorkFunc struct {
	OnRun     func()
	OnDiscard func()
}

// Run implements WorkItem.
func (w WorkFunc) Run() {
	if w.OnRun != nil {
		w.OnRun()
	}
}

// Discarded implements WorkItem.
func (w WorkFunc) Discarded() {
	if w.OnDiscard != nil {
		w.OnDiscard()
	}
}

// Task is a finalizable unit handed to an executor. The executor calls exactly
// one of Run or Abort: Run when the task reaches the front of its queue, Abort
// when the executor shuts down before that happens.
type Task interface {
	Run() error
	Abort() error
}
