package factory

import (
	"runtime"

	poolInternal "github.com/pgvanniekerk/ezrender/internal/pool"
	"github.com/pgvanniekerk/ezrender/pkg/command"
	"github.com/pgvanniekerk/ezrender/pkg/pool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// poolOptions represents configuration options for a Pool, including its capacity, prewarm count and logger.
type poolOptions struct {
	capacity int
	prewarm  int
	logger   zerolog.Logger
}

// PoolOption defines a functional option for customizing a Pool by modifying poolOptions.
type PoolOption func(*poolOptions)

// WithCapacity sets the maximum number of idle commands the pool retains.
func WithCapacity(capacity int) PoolOption {
	return func(options *poolOptions) {
		options.capacity = capacity
	}
}

// WithPrewarm sets how many idle commands are constructed before the pool is returned.
func WithPrewarm(prewarm int) PoolOption {
	return func(options *poolOptions) {
		options.prewarm = prewarm
	}
}

// WithLogger sets the logger used for pool events.
func WithLogger(logger zerolog.Logger) PoolOption {
	return func(options *poolOptions) {
		options.logger = logger
	}
}

// CreatePool initializes a command pool with customizable options. It defaults the capacity to the CPU core count,
// does not prewarm, and logs through the global zerolog logger. A failure while prewarming is returned.
func CreatePool[P any, C any](name string, factory command.Factory[P, C], opts ...PoolOption) (pool.Pool[P, C], error) {

	options := resolvePoolOptions(opts)

	p := poolInternal.NewPool(name, factory, options.capacity, options.logger)
	if err := p.Prewarm(options.prewarm); err != nil {
		return nil, err
	}

	return p, nil
}

// CreateContextPool initializes a context-bound command pool over ctx with the same options and defaults as
// CreatePool.
func CreateContextPool[P any, C any](name string, ctx C, factory command.ContextFactory[P, C], opts ...PoolOption) (pool.ContextPool[P, C], error) {

	options := resolvePoolOptions(opts)

	p := poolInternal.NewContextPool(name, ctx, factory, options.capacity, options.logger)
	if err := p.Prewarm(options.prewarm); err != nil {
		return nil, err
	}

	return p, nil
}

func resolvePoolOptions(opts []PoolOption) *poolOptions {

	options := &poolOptions{}

	// Default capacity to CPU core count
	options.capacity = runtime.NumCPU()
	options.logger = log.Logger

	for idx := range opts {
		opts[idx](options)
	}

	return options
}
