package ezrender

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pgvanniekerk/ezrender/internal/executor"
	"github.com/pgvanniekerk/ezrender/internal/observability"
	"github.com/pgvanniekerk/ezrender/pkg/command"
	"github.com/pgvanniekerk/ezrender/pkg/factory"
	"github.com/pgvanniekerk/ezrender/pkg/lifecycle"
	"github.com/pgvanniekerk/ezrender/pkg/pool"
	"github.com/pgvanniekerk/ezrender/pkg/render"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Runtime wires a canvas, the executor that owns it, one pool per command type and
// a lifecycle gated worker.
type Runtime struct {
	// stopCtx ends Run and is handed to host tasks.
	stopCtx context.Context
	// cfg is the validated configuration.
	cfg Config
	// canvas is the rendering context. Only the executor touches it.
	canvas *render.Canvas
	// exec serializes all work on the canvas.
	exec *executor.Executor[*render.Canvas]
	// worker gates frames and host tasks on the surface visibility.
	worker lifecycle.Worker

	clears   pool.ContextPool[render.ClearParams, *render.Canvas]
	polygons pool.ContextPool[render.PolygonParams, *render.Canvas]
	uniforms pool.ContextPool[render.UniformParams, *render.Canvas]
	frames   pool.Pool[frameParams, pool.Submitter]
	tasks    pool.Pool[TaskFunc, context.Context]

	// frameSeq numbers posted frames.
	frameSeq *atomic.Uint64
	// destroyed is set once by Destroy.
	destroyed *atomic.Bool
	// destroyMutex makes Destroy wait for a concurrent Destroy to finish.
	destroyMutex *sync.Mutex

	logger zerolog.Logger
}

// Option customizes a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger for the runtime and every component it creates.
func WithLogger(logger zerolog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = logger
	}
}

// New builds and starts a Runtime. The executor and the worker are running when
// New returns; the gate is Paused unless cfg.InitiallyActive is set. Cancelling
// stopCtx while Run is active destroys the runtime.
//
// Example:
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//
//	rt, err := ezrender.New(ctx, ezrender.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	go rt.Run()
//
//	rt.Resume()
//	_ = rt.PostFrame(func(f *ezrender.Frame) error {
//	    f.Clear(color.RGBA{A: 0xff})
//	    f.FillPolygon(triangle, color.RGBA{R: 0xff, A: 0xff})
//	    return nil
//	})
func New(stopCtx context.Context, cfg Config, opts ...Option) (*Runtime, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rt := &Runtime{
		stopCtx:      stopCtx,
		cfg:          cfg,
		canvas:       render.NewCanvas(cfg.Width, cfg.Height),
		frameSeq:     &atomic.Uint64{},
		destroyed:    &atomic.Bool{},
		destroyMutex: &sync.Mutex{},
		logger:       log.Logger,
	}
	for idx := range opts {
		opts[idx](rt)
	}

	if err := rt.createPools(); err != nil {
		return nil, err
	}

	rt.exec = executor.New(rt.canvas, cfg.LockOSThread, rt.logger)
	rt.worker = lifecycle.New(
		lifecycle.WithName("frames"),
		lifecycle.WithInitiallyActive(cfg.InitiallyActive),
		lifecycle.WithLogger(rt.logger),
	)

	rt.exec.Start()
	rt.worker.Start()

	rt.logger.Info().
		Int("width", cfg.Width).
		Int("height", cfg.Height).
		Bool("active", cfg.InitiallyActive).
		Msg("Render runtime started")

	return rt, nil
}

//region Implementation

// Run blocks until the stop context ends, then destroys the runtime. When
// cfg.MetricsAddr is set it also serves /metrics and /healthz. A metrics server
// failure stops the runtime and is returned.
func (rt *Runtime) Run() error {

	g, ctx := errgroup.WithContext(rt.stopCtx)

	if rt.cfg.MetricsAddr != "" {
		srv := rt.metricsServer()

		g.Go(func() error {
			rt.logger.Info().Str("addr", srv.Addr).Msg("Serving metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		rt.Destroy()
		return nil
	})

	return g.Wait()
}

// Resume opens the gate: the host surface is visible.
func (rt *Runtime) Resume() {
	rt.worker.Resume()
}

// Pause closes the gate: the host surface is hidden. Frames dequeued while paused
// are discarded and their commands recycled.
func (rt *Runtime) Pause() {
	rt.worker.Pause()
}

// Active reports whether the gate is open.
func (rt *Runtime) Active() bool {
	return rt.worker.Active()
}

// WaitActive blocks until the gate is open or ctx ends. Producers that would
// rather idle than have their frames discarded while the surface is hidden call
// it before building a frame.
func (rt *Runtime) WaitActive(ctx context.Context) error {
	return rt.worker.Gate().Wait(ctx)
}

// Destroy shuts the worker down, discarding queued frames and tasks, then closes
// the executor, aborting render commands it has not run. It is idempotent and
// safe to call concurrently.
func (rt *Runtime) Destroy() {
	rt.destroyMutex.Lock()
	defer rt.destroyMutex.Unlock()

	if rt.destroyed.Load() {
		return
	}
	rt.destroyed.Store(true)

	rt.worker.Shutdown()
	rt.exec.Close()

	rt.logger.Info().Msg("Render runtime destroyed")
}

// PostFrame acquires a pooled frame, lets build fill it and posts it to the gated
// worker. If build fails, or a command could not be acquired, the frame is
// recycled and the error returned.
func (rt *Runtime) PostFrame(build func(f *Frame) error) error {
	if rt.destroyed.Load() {
		return ErrDestroyed
	}

	lease, err := rt.frames.Acquire(frameParams{seq: rt.frameSeq.Add(1)})
	if err != nil {
		return err
	}

	f := &lease.Command().(*frameCommand).frame
	if err := build(f); err != nil {
		_ = lease.Abort()
		return err
	}
	if f.err != nil {
		err := f.err
		_ = lease.Abort()
		return err
	}

	if err := rt.worker.Post(frameItem{lease: lease, rt: rt}); err != nil {
		_ = lease.Abort()
		return err
	}
	return nil
}

// PostTask posts host-side work to the gated worker. fn runs only if the gate is
// open when the task is dequeued.
func (rt *Runtime) PostTask(fn TaskFunc) error {
	if fn == nil {
		return errors.New("ezrender: nil task")
	}
	if rt.destroyed.Load() {
		return ErrDestroyed
	}

	lease, err := rt.tasks.Acquire(fn)
	if err != nil {
		return err
	}
	if err := rt.worker.Post(taskItem{lease: lease, rt: rt}); err != nil {
		_ = lease.Abort()
		return err
	}
	return nil
}

// Clear submits a full-canvas fill directly to the rendering context, bypassing
// the gate.
func (rt *Runtime) Clear(col color.RGBA) error {
	lease, err := rt.clears.Acquire(render.ClearParams{Color: col})
	if err != nil {
		return err
	}
	return lease.Submit(rt.exec)
}

// FillPolygon submits a filled polygon directly to the rendering context.
func (rt *Runtime) FillPolygon(points []render.Point, col color.RGBA) error {
	lease, err := rt.polygons.Acquire(render.PolygonParams{Points: points, Color: col})
	if err != nil {
		return err
	}
	return lease.Submit(rt.exec)
}

// SetUniform submits a uniform update on the active program directly to the
// rendering context. An unknown uniform is reported by the executor log, not here.
func (rt *Runtime) SetUniform(name string, values ...float32) error {
	lease, err := rt.uniforms.Acquire(render.UniformParams{Name: name, Values: values})
	if err != nil {
		return err
	}
	return lease.Submit(rt.exec)
}

// UseProgram makes p the canvas's active program and waits for the result.
func (rt *Runtime) UseProgram(p render.Program) error {
	return rt.exec.Do(func(c *render.Canvas) error {
		return c.UseProgram(p)
	})
}

// Flush waits until every command submitted to the rendering context before the
// call has run.
func (rt *Runtime) Flush() error {
	return rt.exec.Do(func(*render.Canvas) error { return nil })
}

// Sync waits until every frame and task posted before the call has been run or
// discarded, and every render command they submitted has executed.
func (rt *Runtime) Sync(ctx context.Context) error {
	done := make(chan struct{})
	signal := func() { close(done) }

	if err := rt.worker.Post(command.WorkFunc{OnRun: signal, OnDiscard: signal}); err != nil {
		return err
	}

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return rt.Flush()
}

// Snapshot copies the canvas after every previously submitted command has run.
func (rt *Runtime) Snapshot() (*image.RGBA, error) {
	var img *image.RGBA
	err := rt.exec.Do(func(c *render.Canvas) error {
		img = c.Snapshot()
		return nil
	})
	return img, err
}

// Stats returns the counters of every pool, in a fixed order.
func (rt *Runtime) Stats() []pool.Stats {
	return []pool.Stats{
		rt.clears.Stats(),
		rt.polygons.Stats(),
		rt.uniforms.Stats(),
		rt.frames.Stats(),
		rt.tasks.Stats(),
	}
}

// ResizePool changes the capacity of the named pool.
func (rt *Runtime) ResizePool(name string, capacity int) error {
	resizers := map[string]func(int) error{
		PoolClear:   rt.clears.Resize,
		PoolPolygon: rt.polygons.Resize,
		PoolUniform: rt.uniforms.Resize,
		PoolFrame:   rt.frames.Resize,
		PoolTask:    rt.tasks.Resize,
	}

	resize, ok := resizers[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPool, name)
	}
	return resize(capacity)
}

//endregion

//region Helpers

func (rt *Runtime) createPools() error {
	var err error

	opts := func(capacity int) []factory.PoolOption {
		return []factory.PoolOption{
			factory.WithCapacity(capacity),
			factory.WithPrewarm(rt.cfg.Prewarm),
			factory.WithLogger(rt.logger),
		}
	}

	pools := rt.cfg.Pools
	if rt.clears, err = factory.CreateContextPool(PoolClear, rt.canvas, render.NewClearCommand, opts(pools.Clear)...); err != nil {
		return err
	}
	if rt.polygons, err = factory.CreateContextPool(PoolPolygon, rt.canvas, render.NewFillPolygonCommand, opts(pools.Polygon)...); err != nil {
		return err
	}
	if rt.uniforms, err = factory.CreateContextPool(PoolUniform, rt.canvas, render.NewUniformCommand, opts(pools.Uniform)...); err != nil {
		return err
	}
	if rt.frames, err = factory.CreatePool(PoolFrame, rt.newFrameCommand, opts(pools.Frame)...); err != nil {
		return err
	}
	if rt.tasks, err = factory.CreatePool(PoolTask, newHostTask, opts(pools.Task)...); err != nil {
		return err
	}
	return nil
}

func (rt *Runtime) metricsServer() *http.Server {
	observability.EnsureRegistered()

	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.MetricsHandler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return &http.Server{
		Addr:              rt.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

//endregion
