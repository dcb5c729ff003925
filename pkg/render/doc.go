// Package render provides the rendering context driven by ezrender and the
// context-bound commands that draw into it.
//
// # Canvas
//
// A Canvas is a CPU-backed RGBA render target with a polygon rasterizer, an active
// Program and a uniform table. It is the context type C of every render command in
// this package. A Canvas is not safe for concurrent use: it is owned by exactly one
// rendering-context executor and only touched from that executor's goroutine.
//
// # Programs
//
// A Program pairs a vertex and a fragment shader written in WGSL. NewWGSLProgram
// compiles both stages to SPIR-V and resolves the attribute and uniform handles the
// caller asks for. A shader that does not compile, or a requested handle that the
// shaders do not declare, is reported as a *command.ConfigurationError. Those
// errors are fatal for the program and are never retried.
//
// # Commands
//
// ClearCommand, FillPolygonCommand and UniformCommand implement
// command.ContextCommand with *Canvas as the context. They are meant to be
// constructed by a context pool, which binds them to the canvas once:
//
//	canvas := render.NewCanvas(640, 480)
//	clears := pool.NewContextPool[render.ClearParams, *render.Canvas](
//		"clear", canvas, render.NewClearCommand, 8, log.Logger)
//
//	lease, err := clears.Acquire(render.ClearParams{Color: color.RGBA{A: 0xff}})
//	if err != nil {
//		return err
//	}
//	// Hand the lease to the executor that owns canvas.
//	return lease.Submit(exec)
package render
