package pool

import "github.com/pgvanniekerk/ezrender/internal/pool"

var (
	// ErrLeaseFinalized is returned when a lease that already ran or aborted is finalized again.
	ErrLeaseFinalized = pool.ErrLeaseFinalized

	// ErrInvalidLease is returned when finalizing the zero Lease.
	ErrInvalidLease = pool.ErrInvalidLease

	// ErrInvalidCapacity is returned by Resize for a capacity below one.
	ErrInvalidCapacity = pool.ErrInvalidCapacity

	// ErrNilCommand is wrapped in the configuration error returned when a factory yields nil.
	ErrNilCommand = pool.ErrNilCommand

	// ErrNilFactory is the panic value of a pool constructor given a nil factory.
	ErrNilFactory = pool.ErrNilFactory
)
