package lifecycle

import (
	"sync"
	"sync/atomic"

	"github.com/pgvanniekerk/ezrender/internal/concurrency"
	"github.com/pgvanniekerk/ezrender/internal/observability"
	"github.com/pgvanniekerk/ezrender/pkg/command"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// options holds Worker construction settings.
type options struct {
	name           string
	initiallyOpen  bool
	logger         zerolog.Logger
	loggerProvided bool
}

// Option customizes a Worker.
type Option func(*options)

// WithName labels the worker in logs and metrics.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithInitiallyActive sets the initial gate state. Workers start paused by default,
// since the host surface is not visible until it signals so.
func WithInitiallyActive(active bool) Option {
	return func(o *options) {
		o.initiallyOpen = active
	}
}

// WithLogger sets the logger. The global zerolog logger is used otherwise.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
		o.loggerProvided = true
	}
}

// New creates a Worker. Call Start to launch its goroutine.
func New(opts ...Option) *Worker {
	o := &options{name: "gated"}
	for _, opt := range opts {
		opt(o)
	}
	if !o.loggerProvided {
		o.logger = log.Logger
	}

	observability.SetWorkerGate(o.name, o.initiallyOpen)

	return &Worker{
		name:       o.name,
		gate:       concurrency.NewGate(o.initiallyOpen),
		queue:      concurrency.NewQueue[command.WorkItem](),
		started:    &atomic.Bool{},
		closed:     &atomic.Bool{},
		stateMutex: &sync.Mutex{},
		done:       make(chan struct{}),
		logger:     o.logger,
	}
}
