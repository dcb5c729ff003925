package cli

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/pgvanniekerk/ezrender/internal/config"
	"github.com/pgvanniekerk/ezrender/internal/logger"
	"github.com/pgvanniekerk/ezrender/pkg/ezrender"
	"github.com/pgvanniekerk/ezrender/pkg/render"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

//go:embed shaders/tint_vertex.wgsl
var tintVertexWGSL string

//go:embed shaders/tint_fragment.wgsl
var tintFragmentWGSL string

// session is one headless run of the render runtime.
type session struct {
	id     string
	cfg    *config.Config
	log    *logger.Logger
	logger zerolog.Logger

	// rt is nil until the runtime is built.
	rt     atomic.Pointer[ezrender.Runtime]
	posted atomic.Int64
}

func newSession(cfg *config.Config, lg *logger.Logger) *session {
	id := uuid.NewString()
	return &session{
		id:     id,
		cfg:    cfg,
		log:    lg,
		logger: lg.With().Str("session", id).Logger(),
	}
}

// run builds the runtime, produces frames until every producer is done or ctx
// ends, then writes the final canvas and stops the runtime. The runtime outlives
// ctx so an interrupted session still writes its canvas.
func (s *session) run(ctx context.Context, out io.Writer) error {
	rtCtx, stopRuntime := context.WithCancel(context.WithoutCancel(ctx))
	defer stopRuntime()

	rt, err := ezrender.New(rtCtx, s.cfg.Runtime(), ezrender.WithLogger(s.logger))
	if err != nil {
		return err
	}
	s.rt.Store(rt)

	runErr := make(chan error, 1)
	go func() { runErr <- rt.Run() }()

	s.logger.Info().
		Int("producers", s.cfg.Frames.Producers).
		Int("frames", s.cfg.Frames.Count).
		Float64("rate", s.cfg.Frames.Rate).
		Msg("Render session started")

	err = s.render(ctx, rt)
	if err == nil {
		err = s.finish(rt, out)
	}

	stopRuntime()
	if stopErr := <-runErr; stopErr != nil && err == nil {
		err = stopErr
	}
	return err
}

// render activates the tint program, reports the surface visible and runs the
// producers alongside the simulated surface.
func (s *session) render(ctx context.Context, rt *ezrender.Runtime) error {
	program, err := render.NewWGSLProgram(render.ProgramSource{
		Name:       "tint",
		Vertex:     tintVertexWGSL,
		Fragment:   tintFragmentWGSL,
		Attributes: []string{"position"},
		Uniforms:   []string{"tint"},
	})
	if err != nil {
		return err
	}
	if err := rt.UseProgram(program); err != nil {
		return err
	}

	rt.Resume()

	surfaceCtx, stopSurface := context.WithCancel(ctx)
	surfaceDone := make(chan struct{})
	go func() {
		defer close(surfaceDone)
		s.simulateSurface(surfaceCtx, rt)
	}()

	g, gctx := errgroup.WithContext(ctx)
	for p := 0; p < s.cfg.Frames.Producers; p++ {
		g.Go(func() error {
			return s.produce(gctx, rt, p)
		})
	}
	err = g.Wait()

	stopSurface()
	<-surfaceDone
	return err
}

// produce posts frames for one producer, paced by a token bucket.
func (s *session) produce(ctx context.Context, rt *ezrender.Runtime, producer int) error {
	limiter := rate.NewLimiter(rate.Limit(s.cfg.Frames.Rate), 1)
	count := s.cfg.Frames.Count
	w, h := s.cfg.Canvas.Width, s.cfg.Canvas.Height

	for i := 0; count == 0 || i < count; i++ {
		if err := limiter.Wait(ctx); err != nil {
			return nil
		}
		if s.cfg.Frames.IdleWhenHidden {
			if err := rt.WaitActive(ctx); err != nil {
				return nil
			}
		}

		err := rt.PostFrame(func(f *ezrender.Frame) error {
			return drawScene(f, scene{
				producer:  producer,
				producers: s.cfg.Frames.Producers,
				frame:     i,
				width:     w,
				height:    h,
			})
		})
		if errors.Is(err, ezrender.ErrDestroyed) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("producer %d frame %d: %w", producer, i, err)
		}
		s.posted.Add(1)
	}

	s.logger.Debug().Int("producer", producer).Msg("Producer finished")
	return nil
}

// simulateSurface stands in for the host window: it toggles visibility every
// surface.toggle_every until ctx ends.
func (s *session) simulateSurface(ctx context.Context, rt *ezrender.Runtime) {
	every := s.cfg.Surface.ToggleEvery
	if every == 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if rt.Active() {
				rt.Pause()
				s.logger.Debug().Msg("Surface hidden")
			} else {
				rt.Resume()
				s.logger.Debug().Msg("Surface visible")
			}
		}
	}
}

// finish drains the runtime, writes the final canvas and prints a summary.
func (s *session) finish(rt *ezrender.Runtime, out io.Writer) error {
	syncCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := rt.Sync(syncCtx); err != nil {
		return fmt.Errorf("failed to drain runtime: %w", err)
	}

	if s.cfg.Output != "" {
		img, err := rt.Snapshot()
		if err != nil {
			return err
		}
		if err := savePNG(s.cfg.Output, img); err != nil {
			return err
		}
		s.logger.Info().Str("path", s.cfg.Output).Msg("Canvas written")
	}

	fmt.Fprintf(out, "session %s: %d frames posted\n", s.id, s.posted.Load())
	for _, st := range rt.Stats() {
		fmt.Fprintf(out, "  %-8s free=%d/%d hits=%d misses=%d recycled=%d dropped=%d\n",
			st.Name, st.Free, st.Capacity, st.Hits, st.Misses, st.Recycled, st.Dropped)
	}
	return nil
}

// watch applies pool capacities and the log level from config file changes.
func (s *session) watch(loader *config.Loader, levelPinned bool) {
	err := loader.Watch(func(cfg *config.Config, event fsnotify.Event) {
		s.logger.Info().Str("file", event.Name).Str("op", event.Op.String()).Msg("Configuration reloaded")

		if !levelPinned {
			if err := s.log.SetLevel(cfg.Logging.Level); err != nil {
				s.logger.Warn().Err(err).Msg("Log level not changed")
			}
		}

		rt := s.rt.Load()
		if rt == nil {
			return
		}
		for name, capacity := range cfg.PoolCapacities() {
			if err := rt.ResizePool(name, capacity); err != nil {
				s.logger.Warn().Err(err).Str("pool", name).Msg("Pool not resized")
			}
		}
	}, func(err error) {
		s.logger.Warn().Err(err).Msg("Configuration change ignored")
	})

	if err != nil && !errors.Is(err, config.ErrNoConfigFile) {
		s.logger.Warn().Err(err).Msg("Configuration watch disabled")
	}
}

// savePNG writes img to path, creating the directory if needed.
func savePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return f.Close()
}
