package ezrender

import (
	"errors"
	"image/color"

	"github.com/pgvanniekerk/ezrender/pkg/command"
	"github.com/pgvanniekerk/ezrender/pkg/pool"
	"github.com/pgvanniekerk/ezrender/pkg/render"
)

// Frame collects the render commands of one frame. Commands are acquired from
// their pools as they are added and stay leased until the frame is either
// submitted to the rendering context or discarded, in which case every one of
// them is aborted and recycled.
//
// A Frame is only valid inside the build function passed to Runtime.PostFrame.
type Frame struct {
	rt  *Runtime
	seq uint64
	ops []frameOp
	err error
}

// frameOp is a leased render command waiting for submission.
type frameOp interface {
	Submit(s pool.Submitter) error
	Abort() error
}

// Seq returns the frame's sequence number. Sequence numbers start at one and
// increase per posted frame.
func (f *Frame) Seq() uint64 { return f.seq }

// Len returns the number of commands in the frame.
func (f *Frame) Len() int { return len(f.ops) }

// Clear adds a full-canvas fill.
func (f *Frame) Clear(col color.RGBA) {
	if f.err != nil {
		return
	}
	lease, err := f.rt.clears.Acquire(render.ClearParams{Color: col})
	f.add(lease, err)
}

// FillPolygon adds a filled polygon. points is copied.
func (f *Frame) FillPolygon(points []render.Point, col color.RGBA) {
	if f.err != nil {
		return
	}
	lease, err := f.rt.polygons.Acquire(render.PolygonParams{Points: points, Color: col})
	f.add(lease, err)
}

// SetUniform adds a uniform update on the active program. values is copied.
func (f *Frame) SetUniform(name string, values ...float32) {
	if f.err != nil {
		return
	}
	lease, err := f.rt.uniforms.Acquire(render.UniformParams{Name: name, Values: values})
	f.add(lease, err)
}

func (f *Frame) add(op frameOp, err error) {
	if err != nil {
		f.err = err
		return
	}
	f.ops = append(f.ops, op)
}

// frameParams configures a pooled frame.
type frameParams struct {
	seq uint64
}

// frameCommand is the pooled form of a Frame. It executes against the submitter
// that owns the rendering context.
type frameCommand struct {
	frame Frame
}

func (fc *frameCommand) Configure(p frameParams) {
	fc.frame.seq = p.seq
}

// Execute submits every command of the frame in order. A rejected command is
// aborted by its lease; the remaining ones are still offered.
func (fc *frameCommand) Execute(s pool.Submitter) error {
	var errs []error
	for _, op := range fc.frame.ops {
		if err := op.Submit(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Abort recycles every command of the frame without running it.
func (fc *frameCommand) Abort() {
	for _, op := range fc.frame.ops {
		_ = op.Abort()
	}
}

func (fc *frameCommand) Reset() {
	clear(fc.frame.ops)
	fc.frame.ops = fc.frame.ops[:0]
	fc.frame.seq = 0
	fc.frame.err = nil
}

func (rt *Runtime) newFrameCommand() (command.Command[frameParams, pool.Submitter], error) {
	return &frameCommand{frame: Frame{rt: rt}}, nil
}

// frameItem posts a pooled frame to the gated worker.
type frameItem struct {
	lease pool.Lease[frameParams, pool.Submitter]
	rt    *Runtime
}

// Run submits the frame's commands to the rendering-context executor.
func (i frameItem) Run() {
	if err := i.lease.Execute(i.rt.exec); err != nil {
		i.rt.logger.Error().Err(err).Msg("Frame submission failed")
	}
}

// Discarded recycles the frame's commands without drawing them.
func (i frameItem) Discarded() {
	if err := i.lease.Abort(); err != nil {
		i.rt.logger.Warn().Err(err).Msg("Frame abort failed")
		return
	}
	i.rt.logger.Debug().Msg("Frame discarded while paused")
}
