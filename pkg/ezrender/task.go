package ezrender

import (
	"context"

	"github.com/pgvanniekerk/ezrender/pkg/command"
	"github.com/pgvanniekerk/ezrender/pkg/pool"
)

// TaskFunc is host-side work posted through PostTask. It runs on the gated
// worker's goroutine with the runtime's stop context, never on the rendering
// context.
type TaskFunc func(ctx context.Context) error

// hostTask is the pooled command wrapping a TaskFunc.
type hostTask struct {
	fn TaskFunc
}

func (t *hostTask) Configure(fn TaskFunc) { t.fn = fn }

func (t *hostTask) Execute(ctx context.Context) error {
	return t.fn(ctx)
}

func (t *hostTask) Abort() {}

func (t *hostTask) Reset() { t.fn = nil }

func newHostTask() (command.Command[TaskFunc, context.Context], error) {
	return &hostTask{}, nil
}

// taskItem posts a pooled host task to the gated worker.
type taskItem struct {
	lease pool.Lease[TaskFunc, context.Context]
	rt    *Runtime
}

func (i taskItem) Run() {
	if err := i.lease.Execute(i.rt.stopCtx); err != nil {
		i.rt.logger.Error().Err(err).Msg("Host task failed")
	}
}

func (i taskItem) Discarded() {
	_ = i.lease.Abort()
	i.rt.logger.Debug().Msg("Host task discarded while paused")
}
