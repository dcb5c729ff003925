// Package ezrender provides a recycling render runtime: pooled draw commands that
// are executed on a single rendering context, behind a gate that follows the
// visibility of the host surface.
//
// # Overview
//
// Interactive rendering produces many short-lived commands per frame. Allocating a
// fresh object for each one puts steady pressure on the garbage collector, and
// work produced while the surface is hidden must not touch the rendering context.
// ezrender addresses both:
//
//   - Every command type has a bounded free-list. Acquiring a command reuses an
//     idle instance when one exists; finishing it, by running or aborting, resets
//     it and returns it to the free-list.
//   - Render commands are bound once to the shared canvas and run one at a time,
//     in submission order, on an executor that owns the canvas.
//   - Frames and host tasks go through a lifecycle gated worker. While the gate is
//     paused they are discarded on dequeue, and their commands are recycled
//     without being drawn.
//
// # Host signals
//
// The embedding application reports surface visibility with Resume and Pause and
// tears everything down with Destroy. The runtime starts paused unless
// Config.InitiallyActive is set.
//
// # Producing work
//
// Any number of goroutines may produce work concurrently:
//
//	rt.Resume()
//
//	err := rt.PostFrame(func(f *ezrender.Frame) error {
//	    f.Clear(color.RGBA{A: 0xff})
//	    f.SetUniform("tint", 1, 0, 0, 1)
//	    f.FillPolygon([]render.Point{{X: 10, Y: 10}, {X: 90, Y: 10}, {X: 50, Y: 80}},
//	        color.RGBA{R: 0xff, A: 0xff})
//	    return nil
//	})
//
// Clear, FillPolygon and SetUniform on the Runtime itself submit a single command
// straight to the executor without consulting the gate. Snapshot and Flush wait
// for everything submitted before them.
//
// # Lifecycle
//
// Run blocks until the stop context passed to New ends, then destroys the runtime.
// With Config.MetricsAddr set it also serves Prometheus metrics:
//
//	go func() {
//	    if err := rt.Run(); err != nil {
//	        log.Error().Err(err).Msg("render runtime stopped")
//	    }
//	}()
package ezrender
