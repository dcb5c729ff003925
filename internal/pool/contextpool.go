package pool

import (
	"github.com/pgvanniekerk/ezrender/pkg/command"
	"github.com/rs/zerolog"
)

// Submitter accepts tasks for serialized execution on the rendering context.
type Submitter interface {
	Submit(task command.Task) error
}

// ContextPool is a Pool whose commands all execute against one shared rendering
// context. Every instance it constructs is bound to that context before its first
// use. The pool does not serialize execution; whatever drains its leases onto the
// rendering thread does.
type ContextPool[P any, C any] struct {
	pool *Pool[P, C]
	ctx  C
}

// ContextLease is a lease on a context-bound command. It always executes with the
// pool's shared context.
type ContextLease[P any, C any] struct {
	lease Lease[P, C]
	ctx   C
}

//region Implementation

// Acquire returns a lease on a configured, context-bound command.
func (cp *ContextPool[P, C]) Acquire(params P) (ContextLease[P, C], error) {
	l, err := cp.pool.Acquire(params)
	if err != nil {
		return ContextLease[P, C]{}, err
	}
	return ContextLease[P, C]{lease: l, ctx: cp.ctx}, nil
}

// Context returns the shared context every command is bound to.
func (cp *ContextPool[P, C]) Context() C {
	return cp.ctx
}

// Size returns the number of idle commands.
func (cp *ContextPool[P, C]) Size() int { return cp.pool.Size() }

// Capacity returns the maximum number of idle commands retained.
func (cp *ContextPool[P, C]) Capacity() int { return cp.pool.Capacity() }

// Name returns the pool label.
func (cp *ContextPool[P, C]) Name() string { return cp.pool.Name() }

// Resize changes the maximum number of idle commands.
func (cp *ContextPool[P, C]) Resize(capacity int) error { return cp.pool.Resize(capacity) }

// Prewarm constructs and binds idle commands up to min(n, capacity).
func (cp *ContextPool[P, C]) Prewarm(n int) error { return cp.pool.Prewarm(n) }

// Stats returns counters for this pool.
func (cp *ContextPool[P, C]) Stats() Stats { return cp.pool.Stats() }

// Run executes the command with the shared context, then resets and recycles it.
func (l ContextLease[P, C]) Run() error {
	return l.lease.Execute(l.ctx)
}

// Abort cancels the command, then resets and recycles it.
func (l ContextLease[P, C]) Abort() error {
	return l.lease.Abort()
}

// Valid reports whether the lease still owns its command.
func (l ContextLease[P, C]) Valid() bool {
	return l.lease.Valid()
}

// Command returns the leased command, or nil once the lease is finalized.
func (l ContextLease[P, C]) Command() command.Command[P, C] {
	return l.lease.Command()
}

// Submit hands the lease to s. If s rejects it, the lease is aborted so the
// command still returns to its pool, and the rejection is returned.
func (l ContextLease[P, C]) Submit(s Submitter) error {
	if err := s.Submit(l); err != nil {
		_ = l.Abort()
		return err
	}
	return nil
}

//endregion

//region Constructor

// NewContextPool creates a context pool. Every command built by factory is bound
// to ctx once, before its first Configure.
func NewContextPool[P any, C any](name string, ctx C, factory command.ContextFactory[P, C], maxCapacity int, logger zerolog.Logger) *ContextPool[P, C] {

	bound := func() (command.Command[P, C], error) {
		cmd, err := factory()
		if err != nil {
			return nil, err
		}
		if cmd == nil {
			return nil, ErrNilCommand
		}
		cmd.Bind(ctx)
		return cmd, nil
	}

	if factory == nil {
		bound = nil
	}

	return &ContextPool[P, C]{
		pool: NewPool[P, C](name, bound, maxCapacity, logger),
		ctx:  ctx,
	}
}

//endregion
