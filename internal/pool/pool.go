package pool

import (
	"sync"
	"sync/atomic"

	"github.com/pgvanniekerk/ezrender/internal/observability"
	"github.com/pgvanniekerk/ezrender/pkg/command"
	"github.com/rs/zerolog"
)

// slot is the pooled identity of one command instance. It carries the back
// reference to the pool it recycles into.
type slot[P any, C any] struct {
	cmd  command.Command[P, C]
	pool *Pool[P, C]

	// gen is odd while the slot is leased and even while it is idle. A lease
	// finalizes by moving gen from its own odd value to the next even one.
	gen atomic.Uint64
}

// Pool is a bounded free-list of reusable commands.
// Acquire never blocks: on a miss a new command is constructed. Recycle keeps at
// most maxCapacity idle commands and drops the rest.
// Only the free-list is guarded by the mutex; configuring, executing and resetting
// a leased command happens outside of it on the single goroutine holding the lease.
type Pool[P any, C any] struct {

	// name labels log lines and metrics for this pool.
	name string

	// factory constructs a command on a free-list miss.
	factory command.Factory[P, C]

	// mu guards free and maxCapacity.
	mu *sync.Mutex

	// free holds the idle slots. Order is not part of the contract.
	free []*slot[P, C]

	// maxCapacity bounds len(free).
	maxCapacity int

	hits     *atomic.Uint64
	misses   *atomic.Uint64
	recycled *atomic.Uint64
	dropped  *atomic.Uint64

	logger zerolog.Logger
}

// Stats is a point-in-time view of a pool.
type Stats struct {
	Name     string
	Free     int
	Capacity int
	Hits     uint64
	Misses   uint64
	Recycled uint64
	Dropped  uint64
}

//region Implementation

// Acquire returns a lease on a configured command. An idle command is reused when
// one is available, otherwise the factory builds a new one bound to this pool.
// A factory failure is returned as a *command.ConfigurationError.
func (p *Pool[P, C]) Acquire(params P) (Lease[P, C], error) {
	s, err := p.take()
	if err != nil {
		return Lease[P, C]{}, err
	}

	// The slot is exclusively ours once it left the free-list.
	gen := s.gen.Add(1)
	s.cmd.Configure(params)

	return Lease[P, C]{s: s, gen: gen}, nil
}

// Size returns the number of idle commands.
func (p *Pool[P, C]) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// Capacity returns the maximum number of idle commands retained.
func (p *Pool[P, C]) Capacity() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxCapacity
}

// Name returns the pool label.
func (p *Pool[P, C]) Name() string {
	return p.name
}

// Resize changes the maximum number of idle commands. When shrinking, surplus idle
// commands are dropped immediately.
func (p *Pool[P, C]) Resize(capacity int) error {
	if capacity <= 0 {
		return ErrInvalidCapacity
	}

	p.mu.Lock()
	p.maxCapacity = capacity
	trimmed := 0
	for len(p.free) > capacity {
		last := len(p.free) - 1
		p.free[last] = nil
		p.free = p.free[:last]
		trimmed++
	}
	free := len(p.free)
	p.mu.Unlock()

	observability.SetPoolFreeSlots(p.name, free)
	p.logger.Debug().
		Str("pool", p.name).
		Int("capacity", capacity).
		Int("trimmed", trimmed).
		Msg("Pool resized")

	return nil
}

// Prewarm constructs idle commands until the free-list holds min(n, capacity).
func (p *Pool[P, C]) Prewarm(n int) error {
	p.mu.Lock()
	want := min(n, p.maxCapacity) - len(p.free)
	p.mu.Unlock()

	for i := 0; i < want; i++ {
		s, err := p.newSlot()
		if err != nil {
			return err
		}
		_, free := p.push(s)
		observability.SetPoolFreeSlots(p.name, free)
	}

	p.logger.Debug().Str("pool", p.name).Int("constructed", max(want, 0)).Msg("Pool prewarmed")
	return nil
}

// Stats returns counters for this pool.
func (p *Pool[P, C]) Stats() Stats {
	p.mu.Lock()
	free, capacity := len(p.free), p.maxCapacity
	p.mu.Unlock()

	return Stats{
		Name:     p.name,
		Free:     free,
		Capacity: capacity,
		Hits:     p.hits.Load(),
		Misses:   p.misses.Load(),
		Recycled: p.recycled.Load(),
		Dropped:  p.dropped.Load(),
	}
}

//endregion

//region Helpers

// take pops an idle slot or constructs a new one on a miss.
func (p *Pool[P, C]) take() (*slot[P, C], error) {
	p.mu.Lock()
	if n := len(p.free); n > 0 {
		s := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		free := len(p.free)
		p.mu.Unlock()

		p.hits.Add(1)
		observability.RecordPoolAcquire(p.name, true, free)
		return s, nil
	}
	p.mu.Unlock()

	p.misses.Add(1)
	observability.RecordPoolAcquire(p.name, false, 0)
	p.logger.Debug().Str("pool", p.name).Msg("Pool miss, constructing command")

	return p.newSlot()
}

// newSlot runs the factory and binds the result to this pool.
func (p *Pool[P, C]) newSlot() (*slot[P, C], error) {
	cmd, err := p.factory()
	if err != nil {
		return nil, command.NewConfigurationError("pool object", p.name, err)
	}
	if cmd == nil {
		return nil, command.NewConfigurationError("pool object", p.name, ErrNilCommand)
	}
	return &slot[P, C]{cmd: cmd, pool: p}, nil
}

// recycle is the last step of a lease's finalize sequence. The command has
// already been reset.
func (p *Pool[P, C]) recycle(s *slot[P, C]) {
	kept, free := p.push(s)
	observability.RecordPoolRecycle(p.name, !kept, free)
	p.recycled.Add(1)
	if !kept {
		p.dropped.Add(1)
		p.logger.Debug().Str("pool", p.name).Msg("Pool full, dropping command")
	}
}

// push stores s on the free-list unless the pool is full. It reports whether s
// was kept and the resulting free-list size.
func (p *Pool[P, C]) push(s *slot[P, C]) (bool, int) {
	p.mu.Lock()
	kept := len(p.free) < p.maxCapacity
	if kept {
		p.free = append(p.free, s)
	}
	free := len(p.free)
	p.mu.Unlock()

	return kept, free
}

//endregion

//region Constructor

// NewPool creates a pool that keeps at most maxCapacity idle commands built by
// factory. It panics if maxCapacity is not positive or factory is nil.
func NewPool[P any, C any](name string, factory command.Factory[P, C], maxCapacity int, logger zerolog.Logger) *Pool[P, C] {

	if maxCapacity <= 0 {
		panic(ErrInvalidCapacity)
	}
	if factory == nil {
		panic(ErrNilFactory)
	}

	return &Pool[P, C]{
		name:        name,
		factory:     factory,
		mu:          &sync.Mutex{},
		free:        make([]*slot[P, C], 0, maxCapacity),
		maxCapacity: maxCapacity,
		hits:        &atomic.Uint64{},
		misses:      &atomic.Uint64{},
		recycled:    &atomic.Uint64{},
		dropped:     &atomic.Uint64{},
		logger:      logger,
	}
}

//endregion
