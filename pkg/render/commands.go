package render

import (
	"image/color"

	"github.com/pgvanniekerk/ezrender/pkg/command"
)

// ClearParams configures a ClearCommand.
type ClearParams struct {
	Color color.RGBA
}

// PolygonParams configures a FillPolygonCommand. Points are copied on Configure.
type PolygonParams struct {
	Points []Point
	Color  color.RGBA
}

// UniformParams configures a UniformCommand. Values are copied on Configure.
type UniformParams struct {
	Name   string
	Values []float32
}

// bound holds the canvas a command was bound to.
type bound struct {
	canvas *Canvas
}

func (b *bound) Bind(c *Canvas) { b.canvas = c }

func (b *bound) check(c *Canvas) error {
	if c != b.canvas {
		return ErrForeignCanvas
	}
	return nil
}

// ClearCommand fills the canvas with one colour.
type ClearCommand struct {
	bound
	color color.RGBA
}

func (cmd *ClearCommand) Configure(p ClearParams) { cmd.color = p.Color }

func (cmd *ClearCommand) Execute(c *Canvas) error {
	if err := cmd.check(c); err != nil {
		return err
	}
	c.Clear(cmd.color)
	return nil
}

func (cmd *ClearCommand) Abort() {}

func (cmd *ClearCommand) Reset() { cmd.color = color.RGBA{} }

// NewClearCommand is a command.ContextFactory for ClearCommand.
func NewClearCommand() (command.ContextCommand[ClearParams, *Canvas], error) {
	return &ClearCommand{}, nil
}

// FillPolygonCommand rasterizes one filled polygon. Its point buffer is owned by
// the command and reused across acquisitions.
type FillPolygonCommand struct {
	bound
	points []Point
	color  color.RGBA
}

func (cmd *FillPolygonCommand) Configure(p PolygonParams) {
	cmd.points = append(cmd.points[:0], p.Points...)
	cmd.color = p.Color
}

func (cmd *FillPolygonCommand) Execute(c *Canvas) error {
	if err := cmd.check(c); err != nil {
		return err
	}
	return c.FillPolygon(cmd.points, cmd.color)
}

func (cmd *FillPolygonCommand) Abort() {}

func (cmd *FillPolygonCommand) Reset() {
	cmd.points = resetBuffer(cmd.points, maxRetainedPoints)
	cmd.color = color.RGBA{}
}

// NewFillPolygonCommand is a command.ContextFactory for FillPolygonCommand.
func NewFillPolygonCommand() (command.ContextCommand[PolygonParams, *Canvas], error) {
	return &FillPolygonCommand{}, nil
}

// UniformCommand sets a uniform on the canvas's active program.
type UniformCommand struct {
	bound
	name   string
	values []float32
}

func (cmd *UniformCommand) Configure(p UniformParams) {
	cmd.name = p.Name
	cmd.values = append(cmd.values[:0], p.Values...)
}

func (cmd *UniformCommand) Execute(c *Canvas) error {
	if err := cmd.check(c); err != nil {
		return err
	}
	return c.SetUniform(cmd.name, cmd.values)
}

func (cmd *UniformCommand) Abort() {}

func (cmd *UniformCommand) Reset() {
	cmd.name = ""
	cmd.values = resetBuffer(cmd.values, maxRetainedValues)
}

// NewUniformCommand is a command.ContextFactory for UniformCommand.
func NewUniformCommand() (command.ContextCommand[UniformParams, *Canvas], error) {
	return &UniformCommand{}, nil
}

// Idle commands keep their buffers for reuse only up to these capacities.
const (
	maxRetainedPoints = 256
	maxRetainedValues = 64
)

// resetBuffer zeroes the whole backing array of buf and returns it emptied, or
// nil when its capacity exceeds limit.
func resetBuffer[T any](buf []T, limit int) []T {
	if cap(buf) > limit {
		return nil
	}
	clear(buf[:cap(buf)])
	return buf[:0]
}
