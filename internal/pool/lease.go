package pool

import "github.com/pgvanniekerk/ezrender/pkg/command"

// Lease is the exclusive claim of one producer on one pooled command. It is a
// small value so acquiring does not allocate once the pool is warm.
//
// A lease is finalized exactly once, by Execute or Abort. Finalization runs the
// terminal step, then Reset, then returns the command to its pool. Any further
// finalization attempt on the same lease, including one racing with the first,
// returns ErrLeaseFinalized without touching the command.
type Lease[P any, C any] struct {
	s   *slot[P, C]
	gen uint64
}

// Valid reports whether the lease still owns its command.
func (l Lease[P, C]) Valid() bool {
	return l.s != nil && l.s.gen.Load() == l.gen
}

// Command returns the leased command, or nil once the lease is finalized.
// The returned value must not be retained past finalization.
func (l Lease[P, C]) Command() command.Command[P, C] {
	if !l.Valid() {
		return nil
	}
	return l.s.cmd
}

// Execute runs the command against ctx, then resets and recycles it. The
// command's error is returned after recycling.
func (l Lease[P, C]) Execute(ctx C) error {
	return l.finalize(func(cmd command.Command[P, C]) error {
		return cmd.Execute(ctx)
	})
}

// Abort cancels the command before it ran, then resets and recycles it.
func (l Lease[P, C]) Abort() error {
	return l.finalize(func(cmd command.Command[P, C]) error {
		cmd.Abort()
		return nil
	})
}

// finalize claims the lease and runs terminal, Reset and recycle. Reset and
// recycle are deferred so a panicking terminal step still returns the slot.
func (l Lease[P, C]) finalize(terminal func(command.Command[P, C]) error) error {
	if l.s == nil {
		return ErrInvalidLease
	}
	if !l.s.gen.CompareAndSwap(l.gen, l.gen+1) {
		return ErrLeaseFinalized
	}

	s := l.s
	defer s.pool.recycle(s)
	defer s.cmd.Reset()

	return terminal(s.cmd)
}
