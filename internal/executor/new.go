package executor

import (
	"sync"
	"sync/atomic"

	"github.com/pgvanniekerk/ezrender/internal/concurrency"
	"github.com/pgvanniekerk/ezrender/pkg/command"
	"github.com/rs/zerolog"
)

// New creates an Executor that owns ctx. When lockThread is true the executor
// goroutine is pinned to one OS thread, as thread-affine graphics contexts require.
// Call Start to launch it.
func New[C any](ctx C, lockThread bool, logger zerolog.Logger) *Executor[C] {
	return &Executor[C]{
		ctx:        ctx,
		queue:      concurrency.NewQueue[command.Task](),
		started:    &atomic.Bool{},
		closed:     &atomic.Bool{},
		stateMutex: &sync.Mutex{},
		done:       make(chan struct{}),
		lockThread: lockThread,
		logger:     logger,
	}
}
