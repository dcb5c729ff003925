package pool

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/pgvanniekerk/ezrender/pkg/command"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
)

// payloadParams configures a recordingCommand.
type payloadParams struct {
	Payload []byte
	OnDone  func()
}

// recordingCommand records its lifecycle so tests can assert the finalize sequence.
type recordingCommand struct {
	mu sync.Mutex

	payload []byte
	onDone  func()

	// staleOnConfigure is set when Configure observed state left by a previous use.
	staleOnConfigure bool

	executed int
	aborted  int
	resets   int
	failWith error
}

func (c *recordingCommand) Configure(p payloadParams) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.staleOnConfigure = c.payload != nil || c.onDone != nil
	c.payload = p.Payload
	c.onDone = p.OnDone
}

func (c *recordingCommand) Execute(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.executed++
	if c.onDone != nil {
		c.onDone()
	}
	return c.failWith
}

func (c *recordingCommand) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aborted++
}

func (c *recordingCommand) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resets++
	c.payload = nil
	c.onDone = nil
}

func newRecordingPool(capacity int) (*Pool[payloadParams, context.Context], *[]*recordingCommand) {
	built := &[]*recordingCommand{}
	mu := &sync.Mutex{}
	p := NewPool[payloadParams, context.Context]("recording", func() (command.Command[payloadParams, context.Context], error) {
		cmd := &recordingCommand{}
		mu.Lock()
		*built = append(*built, cmd)
		mu.Unlock()
		return cmd, nil
	}, capacity, zerolog.Nop())
	return p, built
}

// Test_Pool_TestSuite executes the test suite for the Pool type.
func Test_Pool_TestSuite(t *testing.T) {
	suite.Run(t, new(Pool_TestSuite))
}

// Pool_TestSuite tests acquisition, recycling and capacity bounds of Pool.
type Pool_TestSuite struct {
	suite.Suite

	pool  *Pool[payloadParams, context.Context]
	built *[]*recordingCommand
}

// SetupTest creates a pool with capacity 2.
func (s *Pool_TestSuite) SetupTest() {
	s.pool, s.built = newRecordingPool(2)
}

// TearDownTest drops the pool so it can be garbage collected.
func (s *Pool_TestSuite) TearDownTest() {
	s.pool = nil
	s.built = nil
}

// Test_Pool_AcquireFromEmptyConstructs ensures a miss builds a fresh, configured command.
func (s *Pool_TestSuite) Test_Pool_AcquireFromEmptyConstructs() {
	l, err := s.pool.Acquire(payloadParams{Payload: []byte("a")})
	s.Require().NoError(err)
	s.Require().True(l.Valid())

	cmd := l.Command().(*recordingCommand)
	s.Require().Equal([]byte("a"), cmd.payload)
	s.Require().Len(*s.built, 1)
	s.Require().Equal(uint64(1), s.pool.Stats().Misses)
}

// Test_Pool_ExecuteResetsAndRecycles ensures the finalize sequence runs in full.
func (s *Pool_TestSuite) Test_Pool_ExecuteResetsAndRecycles() {
	l, err := s.pool.Acquire(payloadParams{Payload: []byte("a")})
	s.Require().NoError(err)
	cmd := l.Command().(*recordingCommand)

	s.Require().NoError(l.Execute(context.Background()))

	s.Require().Equal(1, cmd.executed)
	s.Require().Equal(0, cmd.aborted)
	s.Require().Equal(1, cmd.resets)
	s.Require().Nil(cmd.payload)
	s.Require().Equal(1, s.pool.Size())
	s.Require().False(l.Valid())
	s.Require().Nil(l.Command())
}

// Test_Pool_ResetClearsPayloadBeforeReuse ensures no trace of a previous payload
// is visible to the next user of a recycled command.
func (s *Pool_TestSuite) Test_Pool_ResetClearsPayloadBeforeReuse() {
	l, err := s.pool.Acquire(payloadParams{Payload: []byte("payload-A"), OnDone: func() {}})
	s.Require().NoError(err)
	s.Require().NoError(l.Execute(context.Background()))

	// The idle instance holds nothing.
	idle := s.pool.free[0].cmd.(*recordingCommand)
	s.Require().Nil(idle.payload)
	s.Require().Nil(idle.onDone)

	l2, err := s.pool.Acquire(payloadParams{Payload: []byte("payload-B")})
	s.Require().NoError(err)
	cmd := l2.Command().(*recordingCommand)
	s.Require().False(cmd.staleOnConfigure)
	s.Require().Equal([]byte("payload-B"), cmd.payload)
	s.Require().Equal(uint64(1), s.pool.Stats().Hits)
}

// Test_Pool_AbortRecyclesExactlyOnce ensures the abort path resets and recycles once
// and a second finalization is rejected.
func (s *Pool_TestSuite) Test_Pool_AbortRecyclesExactlyOnce() {
	l, err := s.pool.Acquire(payloadParams{Payload: []byte("x")})
	s.Require().NoError(err)
	cmd := l.Command().(*recordingCommand)

	s.Require().NoError(l.Abort())
	s.Require().ErrorIs(l.Abort(), ErrLeaseFinalized)
	s.Require().ErrorIs(l.Execute(context.Background()), ErrLeaseFinalized)

	s.Require().Equal(0, cmd.executed)
	s.Require().Equal(1, cmd.aborted)
	s.Require().Equal(1, cmd.resets)
	s.Require().Equal(1, s.pool.Size())
	s.Require().Equal(uint64(1), s.pool.Stats().Recycled)
}

// Test_Pool_RacingFinalizationsRecycleOnce ensures that when Execute and Abort race
// on one lease exactly one wins and the command is reset and recycled once.
func (s *Pool_TestSuite) Test_Pool_RacingFinalizationsRecycleOnce() {
	const rounds = 200

	for i := 0; i < rounds; i++ {
		l, err := s.pool.Acquire(payloadParams{Payload: []byte("race")})
		s.Require().NoError(err)

		start := make(chan struct{})
		errs := make([]error, 2)
		wg := &sync.WaitGroup{}
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			errs[0] = l.Execute(context.Background())
		}()
		go func() {
			defer wg.Done()
			<-start
			errs[1] = l.Abort()
		}()
		close(start)
		wg.Wait()

		won := 0
		for _, err := range errs {
			if err == nil {
				won++
				continue
			}
			s.Require().ErrorIs(err, ErrLeaseFinalized)
		}
		s.Require().Equal(1, won)
		s.Require().False(l.Valid())
	}

	executed, aborted, resets := 0, 0, 0
	for _, cmd := range *s.built {
		executed += cmd.executed
		aborted += cmd.aborted
		resets += cmd.resets
	}
	s.Require().Equal(rounds, executed+aborted)
	s.Require().Equal(rounds, resets)
	s.Require().Equal(uint64(rounds), s.pool.Stats().Recycled)
	s.Require().Equal(1, s.pool.Size())
}

// Test_Pool_StaleLeaseCannotTouchReacquiredCommand ensures a lease kept past
// finalization cannot finalize the command for its next owner.
func (s *Pool_TestSuite) Test_Pool_StaleLeaseCannotTouchReacquiredCommand() {
	stale, err := s.pool.Acquire(payloadParams{Payload: []byte("1")})
	s.Require().NoError(err)
	s.Require().NoError(stale.Execute(context.Background()))

	fresh, err := s.pool.Acquire(payloadParams{Payload: []byte("2")})
	s.Require().NoError(err)
	s.Require().Same(stale.s, fresh.s)

	s.Require().ErrorIs(stale.Abort(), ErrLeaseFinalized)
	s.Require().True(fresh.Valid())
	s.Require().Equal([]byte("2"), fresh.Command().(*recordingCommand).payload)
}

// Test_Pool_ExecuteErrorStillRecycles ensures a failing command is recycled and
// its error returned.
func (s *Pool_TestSuite) Test_Pool_ExecuteErrorStillRecycles() {
	boom := errors.New("boom")
	l, err := s.pool.Acquire(payloadParams{})
	s.Require().NoError(err)
	l.Command().(*recordingCommand).failWith = boom

	s.Require().ErrorIs(l.Execute(context.Background()), boom)
	s.Require().Equal(1, s.pool.Size())
}

// Test_Pool_PanicStillRecycles ensures a panicking command still resets and recycles.
func (s *Pool_TestSuite) Test_Pool_PanicStillRecycles() {
	l, err := s.pool.Acquire(payloadParams{OnDone: func() { panic("draw failed") }})
	s.Require().NoError(err)
	cmd := l.Command().(*recordingCommand)

	s.Require().Panics(func() { _ = l.Execute(context.Background()) })
	s.Require().Equal(1, cmd.resets)
	s.Require().Equal(1, s.pool.Size())
}

// Test_Pool_CapacityBoundsFreeList ensures three concurrently held commands leave
// only two idle after recycling into a pool of capacity 2.
func (s *Pool_TestSuite) Test_Pool_CapacityBoundsFreeList() {
	leases := make([]Lease[payloadParams, context.Context], 3)
	wg := &sync.WaitGroup{}
	for i := range leases {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l, err := s.pool.Acquire(payloadParams{Payload: []byte{byte(i)}})
			s.NoError(err)
			leases[i] = l
		}(i)
	}
	wg.Wait()

	for _, l := range leases {
		wg.Add(1)
		go func(l Lease[payloadParams, context.Context]) {
			defer wg.Done()
			s.NoError(l.Execute(context.Background()))
		}(l)
	}
	wg.Wait()

	stats := s.pool.Stats()
	s.Require().Equal(2, stats.Free)
	s.Require().Equal(uint64(3), stats.Recycled)
	s.Require().Equal(uint64(1), stats.Dropped)
	s.Require().Len(*s.built, 3)
}

// Test_Pool_SizeNeverExceedsCapacity hammers the pool from many goroutines.
func (s *Pool_TestSuite) Test_Pool_SizeNeverExceedsCapacity() {
	wg := &sync.WaitGroup{}
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				l, err := s.pool.Acquire(payloadParams{Payload: []byte{1}})
				if err != nil {
					s.T().Error(err)
					return
				}
				if i%3 == 0 {
					_ = l.Abort()
				} else {
					_ = l.Execute(context.Background())
				}
				if n := s.pool.Size(); n > 2 {
					s.T().Errorf("free-list size %d exceeds capacity 2", n)
				}
			}
		}()
	}
	wg.Wait()

	s.Require().LessOrEqual(s.pool.Size(), 2)
}

// Test_Pool_ResizeTrimsFreeList ensures shrinking drops surplus idle commands.
func (s *Pool_TestSuite) Test_Pool_ResizeTrimsFreeList() {
	s.Require().NoError(s.pool.Prewarm(5))
	s.Require().Equal(2, s.pool.Size())

	s.Require().NoError(s.pool.Resize(1))
	s.Require().Equal(1, s.pool.Size())
	s.Require().Equal(1, s.pool.Capacity())

	s.Require().ErrorIs(s.pool.Resize(0), ErrInvalidCapacity)
}

// Test_Pool_PrewarmCountsAsNeitherHitNorMiss ensures prewarming only fills the free-list.
func (s *Pool_TestSuite) Test_Pool_PrewarmCountsAsNeitherHitNorMiss() {
	s.Require().NoError(s.pool.Prewarm(2))

	stats := s.pool.Stats()
	s.Require().Equal(2, stats.Free)
	s.Require().Zero(stats.Hits)
	s.Require().Zero(stats.Misses)
	s.Require().Zero(stats.Recycled)
}

// Test_Pool_ZeroLeaseIsInvalid ensures the zero value cannot be finalized.
func (s *Pool_TestSuite) Test_Pool_ZeroLeaseIsInvalid() {
	var l Lease[payloadParams, context.Context]
	s.Require().False(l.Valid())
	s.Require().ErrorIs(l.Abort(), ErrInvalidLease)
}

// Test_NewPool_TestSuite executes the test suite for the NewPool function.
func Test_NewPool_TestSuite(t *testing.T) {
	suite.Run(t, new(NewPool_TestSuite))
}

// NewPool_TestSuite tests the NewPool function.
type NewPool_TestSuite struct {
	suite.Suite
}

// Test_NewPool_PanicOnZeroCapacity ensures the constructor rejects a zero capacity.
func (s *NewPool_TestSuite) Test_NewPool_PanicOnZeroCapacity() {
	defer func() {
		r := recover()
		s.Require().NotNil(r)
		s.Require().Equal(ErrInvalidCapacity, r)
	}()
	newRecordingPool(0)
}

// Test_NewPool_FactoryErrorIsConfigurationError ensures construction failures are fatal
// configuration errors.
func (s *NewPool_TestSuite) Test_NewPool_FactoryErrorIsConfigurationError() {
	cause := errors.New("no device")
	p := NewPool[payloadParams, context.Context]("broken", func() (command.Command[payloadParams, context.Context], error) {
		return nil, cause
	}, 1, zerolog.Nop())

	_, err := p.Acquire(payloadParams{})
	s.Require().ErrorIs(err, command.ErrConfiguration)
	s.Require().ErrorIs(err, cause)

	var cfgErr *command.ConfigurationError
	s.Require().ErrorAs(err, &cfgErr)
	s.Require().Equal("broken", cfgErr.Name)
}

// Test_NewPool_PanicOnNilFactory ensures the constructor rejects a nil factory.
func (s *NewPool_TestSuite) Test_NewPool_PanicOnNilFactory() {
	defer func() {
		s.Require().Equal(ErrNilFactory, recover())
	}()
	NewPool[payloadParams, context.Context]("nil", nil, 1, zerolog.Nop())
}

// Test_NewPool_NilCommandIsConfigurationError ensures a factory returning nil is rejected.
func (s *NewPool_TestSuite) Test_NewPool_NilCommandIsConfigurationError() {
	p := NewPool[payloadParams, context.Context]("nil", func() (command.Command[payloadParams, context.Context], error) {
		return nil, nil
	}, 1, zerolog.Nop())

	_, err := p.Acquire(payloadParams{})
	s.Require().ErrorIs(err, ErrNilCommand)
	s.Require().ErrorIs(err, command.ErrConfiguration)
}

// bindingCommand records how the context pool binds it.
type bindingCommand struct {
	recordingCommand

	binds int

	// configuredBeforeBind is set when Configure ran while the command was unbound.
	configuredBeforeBind bool

	ctx context.Context
}

func (c *bindingCommand) Bind(ctx context.Context) {
	c.binds++
	c.ctx = ctx
}

func (c *bindingCommand) Configure(p payloadParams) {
	if c.binds == 0 {
		c.configuredBeforeBind = true
	}
	c.recordingCommand.Configure(p)
}

// Test_ContextPool_TestSuite executes the test suite for the ContextPool type.
func Test_ContextPool_TestSuite(t *testing.T) {
	suite.Run(t, new(ContextPool_TestSuite))
}

// ContextPool_TestSuite tests the ContextPool type.
type ContextPool_TestSuite struct {
	suite.Suite
}

type ctxKey struct{}

// Test_ContextPool_BindsOnceBeforeFirstConfigure ensures every command is bound
// to the shared context exactly once, before its first Configure, and never again
// on reuse.
func (s *ContextPool_TestSuite) Test_ContextPool_BindsOnceBeforeFirstConfigure() {
	shared := context.WithValue(context.Background(), ctxKey{}, "canvas")
	var built []*bindingCommand
	cp := NewContextPool[payloadParams, context.Context]("bound", shared, func() (command.ContextCommand[payloadParams, context.Context], error) {
		cmd := &bindingCommand{}
		built = append(built, cmd)
		return cmd, nil
	}, 2, zerolog.Nop())

	for i := 0; i < 10; i++ {
		l, err := cp.Acquire(payloadParams{Payload: []byte("frame")})
		s.Require().NoError(err)
		s.Require().NoError(l.Run())
	}

	first, err := cp.Acquire(payloadParams{})
	s.Require().NoError(err)
	second, err := cp.Acquire(payloadParams{})
	s.Require().NoError(err)
	s.Require().NoError(first.Abort())
	s.Require().NoError(second.Abort())

	s.Require().Len(built, 2)
	for _, cmd := range built {
		s.Require().Equal(1, cmd.binds)
		s.Require().False(cmd.configuredBeforeBind)
		s.Require().Equal(shared, cmd.ctx)
	}
	s.Require().Equal(11, built[0].executed+built[0].aborted)
	s.Require().Equal(1, built[1].aborted)
	s.Require().Equal(shared, cp.Context())
}

// Test_ContextPool_RejectedSubmitAborts ensures a lease refused by its submitter
// still returns its command to the pool.
func (s *ContextPool_TestSuite) Test_ContextPool_RejectedSubmitAborts() {
	cp := NewContextPool[payloadParams, context.Context]("bound", context.Background(), func() (command.ContextCommand[payloadParams, context.Context], error) {
		return &bindingCommand{}, nil
	}, 1, zerolog.Nop())

	l, err := cp.Acquire(payloadParams{})
	s.Require().NoError(err)
	cmd := l.Command().(*bindingCommand)

	refused := errors.New("closed")
	s.Require().ErrorIs(l.Submit(refusingSubmitter{err: refused}), refused)
	s.Require().False(l.Valid())
	s.Require().Equal(1, cmd.aborted)
	s.Require().Equal(1, cp.Size())
}

type refusingSubmitter struct {
	err error
}

func (r refusingSubmitter) Submit(command.Task) error { return r.err }
