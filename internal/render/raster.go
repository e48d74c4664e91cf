package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/lao-tseu-is-alive/go-vicsek-simulation/pkg/frame"
	"github.com/lao-tseu-is-alive/go-vicsek-simulation/pkg/geometry"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// arrowsPerWidth is how many unit arrows span the canvas at scale 1.
const arrowsPerWidth = 30

var (
	Background = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	TextColor  = color.RGBA{R: 20, G: 20, B: 20, A: 255}
)

// Renderer draws frames of a box of side L onto a Size x Size canvas. It
// reuses its rasterizer and is not safe for concurrent use.
type Renderer struct {
	L          float64
	Size       int
	ArrowScale float64
	Overlay    bool

	z *vector.Rasterizer
}

func NewRenderer(l float64, size int, arrowScale float64) *Renderer {
	return &Renderer{
		L:          l,
		Size:       size,
		ArrowScale: arrowScale,
		Overlay:    true,
		z:          vector.NewRasterizer(1, 1),
	}
}

// Rasterize is a one-shot Renderer.Render.
func Rasterize(f *frame.Frame, l float64, size int, arrowScale float64) *image.RGBA {
	return NewRenderer(l, size, arrowScale).Render(f)
}

// Render draws f on a fresh image.
func (r *Renderer) Render(f *frame.Frame) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.Size, r.Size))
	r.RenderTo(img, f)
	return img
}

// RenderTo clears dst and draws f on it. The y axis points up.
func (r *Renderer) RenderTo(dst *image.RGBA, f *frame.Frame) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	px := float64(r.Size) / r.L
	length := float64(r.Size) / arrowsPerWidth * r.ArrowScale
	for i, p := range f.Positions {
		x := p.X * px
		y := float64(r.Size) - p.Y*px
		r.arrow(dst, x, y, f.Headings[i], length)
	}

	if r.Overlay {
		d := &font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(TextColor),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(6, 16),
		}
		d.DrawString(fmt.Sprintf("step %d  order %.3f", f.Index, f.Order))
	}
}

// ArrowVertices returns the tip and the two base corners of the arrow
// glyph anchored at the screen point at and pointing along theta. Screen
// y points down, so the glyph is mirrored to keep headings counterclockwise.
func ArrowVertices(at geometry.Vector2D, theta, length float64) [3]geometry.Vector2D {
	dir := geometry.NewVectorPolar(1, theta)
	dir.Y = -dir.Y
	normal := geometry.NewVector(-dir.Y, dir.X).Mul(math.Max(length/5, 1))
	return [3]geometry.Vector2D{at.Add(dir.Mul(length)), at.Add(normal), at.Sub(normal)}
}

// arrow fills the glyph of ArrowVertices, clipped to dst.
func (r *Renderer) arrow(dst *image.RGBA, x, y, theta, length float64) {
	pts := ArrowVertices(geometry.NewVector(x, y), theta, length)

	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	bb := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1).
		Intersect(dst.Bounds())
	if bb.Empty() {
		return
	}

	origin := geometry.NewVector(float64(bb.Min.X), float64(bb.Min.Y))
	r.z.Reset(bb.Dx(), bb.Dy())
	for k, p := range pts {
		p = p.Sub(origin)
		if k == 0 {
			r.z.MoveTo(float32(p.X), float32(p.Y))
		} else {
			r.z.LineTo(float32(p.X), float32(p.Y))
		}
	}
	r.z.ClosePath()
	r.z.Draw(dst, bb, image.NewUniform(HeadingColor(theta)), image.Point{})
}
