package factory

import (
	"errors"
	"runtime"
	"testing"

	"github.com/pgvanniekerk/ezrender/pkg/command"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterCommand struct {
	ctx   *int
	delta int
}

func (c *counterCommand) Bind(ctx *int)       { c.ctx = ctx }
func (c *counterCommand) Configure(delta int) { c.delta = delta }
func (c *counterCommand) Abort()              {}
func (c *counterCommand) Reset()              { c.delta = 0 }

func (c *counterCommand) Execute(ctx *int) error {
	*ctx += c.delta
	return nil
}

func newCounter() (command.Command[int, *int], error) {
	return &counterCommand{}, nil
}

func newBoundCounter() (command.ContextCommand[int, *int], error) {
	return &counterCommand{}, nil
}

func TestCreatePool_Defaults(t *testing.T) {
	p, err := CreatePool[int, *int]("counter", newCounter)
	require.NoError(t, err)

	assert.Equal(t, runtime.NumCPU(), p.Capacity())
	assert.Equal(t, 0, p.Size())
	assert.Equal(t, "counter", p.Name())
}

func TestCreatePool_Options(t *testing.T) {
	p, err := CreatePool[int, *int]("counter", newCounter,
		WithCapacity(3),
		WithPrewarm(5),
		WithLogger(zerolog.Nop()),
	)
	require.NoError(t, err)

	assert.Equal(t, 3, p.Capacity())
	assert.Equal(t, 3, p.Size())

	total := 0
	lease, err := p.Acquire(4)
	require.NoError(t, err)
	require.NoError(t, lease.Execute(&total))
	assert.Equal(t, 4, total)

	stats := p.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(0), stats.Misses)
}

func TestCreatePool_PrewarmFailure(t *testing.T) {
	failing := func() (command.Command[int, *int], error) {
		return nil, errors.New("no device")
	}

	p, err := CreatePool[int, *int]("broken", failing, WithPrewarm(1), WithLogger(zerolog.Nop()))
	assert.Nil(t, p)
	assert.ErrorIs(t, err, command.ErrConfiguration)
}

func TestCreateContextPool(t *testing.T) {
	total := 10
	p, err := CreateContextPool[int, *int]("bound", &total, newBoundCounter,
		WithCapacity(1),
		WithLogger(zerolog.Nop()),
	)
	require.NoError(t, err)
	assert.Same(t, &total, p.Context())

	lease, err := p.Acquire(-3)
	require.NoError(t, err)
	require.NoError(t, lease.Run())

	assert.Equal(t, 7, total)
	assert.Equal(t, 1, p.Size())
}
