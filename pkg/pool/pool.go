package pool

import (
	"github.com/pgvanniekerk/ezrender/internal/pool"
	"github.com/pgvanniekerk/ezrender/pkg/command"
	"github.com/rs/zerolog/log"
)

// Lease is the exclusive claim on one pooled command. Exactly one of Execute or
// Abort finalizes it; both reset the command and return it to its pool. A second
// finalization returns ErrLeaseFinalized.
type Lease[P any, C any] = pool.Lease[P, C]

// ContextLease is a Lease whose command runs against the pool's shared context.
type ContextLease[P any, C any] = pool.ContextLease[P, C]

// Stats is a point-in-time view of a pool's free-list and counters.
type Stats = pool.Stats

// Submitter accepts tasks for serialized execution on a rendering context.
type Submitter = pool.Submitter

// Pool is a bounded free-list of reusable commands.
//
// Acquire never blocks: when no idle command is available a new one is built by the
// pool's factory. Finalizing a lease returns the command to the free-list, or drops
// it for the garbage collector when the free-list is already at capacity.
type Pool[P any, C any] interface {

	// Acquire returns a lease on a command configured with params. A factory failure
	// is returned as a *command.ConfigurationError.
	Acquire(params P) (Lease[P, C], error)

	// Size returns the number of idle commands.
	Size() int

	// Capacity returns the maximum number of idle commands retained.
	Capacity() int

	// Name returns the label used in logs and metrics.
	Name() string

	// Resize changes the capacity, dropping surplus idle commands when shrinking.
	// It returns ErrInvalidCapacity for a capacity below one.
	Resize(capacity int) error

	// Prewarm builds idle commands until the free-list holds min(n, capacity).
	Prewarm(n int) error

	// Stats returns the pool counters.
	Stats() Stats
}

// ContextPool is a Pool of commands that are all bound to one shared rendering
// context. Commands are bound once, when they are first constructed.
type ContextPool[P any, C any] interface {

	// Acquire returns a lease on a configured, context-bound command.
	Acquire(params P) (ContextLease[P, C], error)

	// Context returns the shared context.
	Context() C

	Size() int
	Capacity() int
	Name() string
	Resize(capacity int) error
	Prewarm(n int) error
	Stats() Stats
}

// NewPool creates a Pool retaining at most maxCapacity idle commands. It panics if
// maxCapacity is not positive or factory is nil.
func NewPool[P any, C any](name string, factory command.Factory[P, C], maxCapacity int) Pool[P, C] {
	return pool.NewPool(name, factory, maxCapacity, log.Logger)
}

// NewContextPool creates a ContextPool over ctx retaining at most maxCapacity idle
// commands. It panics if maxCapacity is not positive or factory is nil.
func NewContextPool[P any, C any](name string, ctx C, factory command.ContextFactory[P, C], maxCapacity int) ContextPool[P, C] {
	return pool.NewContextPool(name, ctx, factory, maxCapacity, log.Logger)
}
