package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/vector"
)

// Point is a vertex in canvas pixel coordinates.
type Point struct {
	X, Y float32
}

// Canvas is a CPU-backed rendering context.
type Canvas struct {

	// img is the render target.
	img *image.RGBA

	// raster accumulates polygon coverage before it is composited onto img.
	raster *vector.Rasterizer

	// program is the active program, nil until UseProgram succeeds.
	program Program

	// uniforms holds the values set on the active program, keyed by handle.
	uniforms map[Uniform][]float32

	// draws counts the operations applied since creation.
	draws uint64
}

//region Implementation

func (c *Canvas) Width() int { return c.img.Bounds().Dx() }

func (c *Canvas) Height() int { return c.img.Bounds().Dy() }

// Format returns the pixel format of the render target.
func (c *Canvas) Format() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

// Image returns the render target. It must only be read from the owning executor.
func (c *Canvas) Image() *image.RGBA { return c.img }

// Snapshot returns a copy of the render target.
func (c *Canvas) Snapshot() *image.RGBA {
	out := image.NewRGBA(c.img.Bounds())
	copy(out.Pix, c.img.Pix)
	return out
}

// Draws returns the number of draw operations applied.
func (c *Canvas) Draws() uint64 { return c.draws }

// Clear fills the whole target with col.
func (c *Canvas) Clear(col color.RGBA) {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
	c.draws++
}

// FillPolygon rasterizes the closed polygon through points and composites it over
// the target in col.
func (c *Canvas) FillPolygon(points []Point, col color.RGBA) error {
	if len(points) < 3 {
		return ErrDegeneratePolygon
	}

	b := c.img.Bounds()
	c.raster.Reset(b.Dx(), b.Dy())
	c.raster.DrawOp = draw.Over
	c.raster.MoveTo(points[0].X, points[0].Y)
	for _, p := range points[1:] {
		c.raster.LineTo(p.X, p.Y)
	}
	c.raster.ClosePath()
	c.raster.Draw(c.img, b, image.NewUniform(col), image.Point{})

	c.draws++
	return nil
}

// UseProgram activates p and makes it current. Uniform values of the previous
// program are discarded.
func (c *Canvas) UseProgram(p Program) error {
	if p == nil {
		return ErrNilProgram
	}
	if err := p.Activate(); err != nil {
		return err
	}
	c.program = p
	clear(c.uniforms)
	return nil
}

// Program returns the active program, or nil.
func (c *Canvas) Program() Program { return c.program }

// SetUniform stores values for the named uniform of the active program. The values
// are copied.
func (c *Canvas) SetUniform(name string, values []float32) error {
	loc, err := c.uniformLocation(name)
	if err != nil {
		return err
	}
	c.uniforms[loc] = append(c.uniforms[loc][:0], values...)
	return nil
}

// Uniform returns the values last set for the named uniform of the active program.
func (c *Canvas) Uniform(name string) ([]float32, bool) {
	loc, err := c.uniformLocation(name)
	if err != nil {
		return nil, false
	}
	v, ok := c.uniforms[loc]
	return v, ok
}

//endregion

//region Helpers

func (c *Canvas) uniformLocation(name string) (Uniform, error) {
	if c.program == nil {
		return -1, fmt.Errorf("%w: setting %q", ErrNoActiveProgram, name)
	}
	return c.program.UniformLocation(name)
}

//endregion

//region Constructor

// NewCanvas creates a transparent canvas of the given size. It panics if either
// dimension is not positive.
func NewCanvas(width, height int) *Canvas {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("render: invalid canvas size %dx%d", width, height))
	}
	return &Canvas{
		img:      image.NewRGBA(image.Rect(0, 0, width, height)),
		raster:   vector.NewRasterizer(width, height),
		uniforms: make(map[Uniform][]float32),
	}
}

//endregion
