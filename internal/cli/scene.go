package cli

import (
	"image/color"
	"math"

	"github.com/pgvanniekerk/ezrender/pkg/ezrender"
	"github.com/pgvanniekerk/ezrender/pkg/render"
)

var (
	background = color.RGBA{R: 0x10, G: 0x12, B: 0x1c, A: 0xff}

	palette = []color.RGBA{
		{R: 0xe6, G: 0x4a, B: 0x19, A: 0xff},
		{R: 0x1e, G: 0x88, B: 0xe5, A: 0xff},
		{R: 0x43, G: 0xa0, B: 0x47, A: 0xff},
		{R: 0xfd, G: 0xd8, B: 0x35, A: 0xff},
	}
)

// scene identifies one frame of one producer.
type scene struct {
	producer  int
	producers int
	frame     int
	width     int
	height    int
}

// drawScene fills f with a spinning triangle per producer. Producer 0 owns the
// background.
func drawScene(f *ezrender.Frame, sc scene) error {
	col := palette[sc.producer%len(palette)]

	if sc.producer == 0 {
		f.Clear(background)
	}
	f.SetUniform("tint", float32(col.R)/0xff, float32(col.G)/0xff, float32(col.B)/0xff, 1)
	f.FillPolygon(triangle(sc), col)

	return nil
}

// triangle returns an equilateral triangle centred on the canvas, rotated by
// frame and offset per producer.
func triangle(sc scene) []render.Point {
	cx, cy := float64(sc.width)/2, float64(sc.height)/2
	radius := math.Min(cx, cy) * (0.9 - 0.15*float64(sc.producer%4))

	phase := 2 * math.Pi * float64(sc.producer) / float64(max(sc.producers, 1))
	angle := phase + float64(sc.frame)*0.05

	points := make([]render.Point, 3)
	for i := range points {
		a := angle + float64(i)*2*math.Pi/3
		points[i] = render.Point{
			X: float32(cx + radius*math.Cos(a)),
			Y: float32(cy + radius*math.Sin(a)),
		}
	}
	return points
}
