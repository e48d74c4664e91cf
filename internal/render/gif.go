package render

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"
	"os"

	"github.com/lao-tseu-is-alive/go-vicsek-simulation/pkg/frame"
)

// GIFRecorder accumulates rendered frames into an animated GIF.
type GIFRecorder struct {
	renderer *Renderer
	delay    int // hundredths of a second
	anim     gif.GIF
	scratch  *image.RGBA
}

// NewGIFRecorder plays frames back at fps frames per second.
func NewGIFRecorder(r *Renderer, fps int) *GIFRecorder {
	delay := 100 / max(fps, 1)
	return &GIFRecorder{
		renderer: r,
		delay:    max(delay, 1),
		scratch:  image.NewRGBA(image.Rect(0, 0, r.Size, r.Size)),
	}
}

// Add renders f and appends it to the animation.
func (g *GIFRecorder) Add(f *frame.Frame) {
	g.renderer.RenderTo(g.scratch, f)
	pal := image.NewPaletted(g.scratch.Bounds(), palette.Plan9)
	draw.Draw(pal, pal.Bounds(), g.scratch, image.Point{}, draw.Src)
	g.anim.Image = append(g.anim.Image, pal)
	g.anim.Delay = append(g.anim.Delay, g.delay)
}

// Len returns the number of frames recorded.
func (g *GIFRecorder) Len() int { return len(g.anim.Image) }

// Encode writes the animation, looping forever.
func (g *GIFRecorder) Encode(w io.Writer) error {
	if g.Len() == 0 {
		return fmt.Errorf("no frames recorded")
	}
	g.anim.LoopCount = 0
	if err := gif.EncodeAll(w, &g.anim); err != nil {
		return fmt.Errorf("failed to encode gif: %w", err)
	}
	return nil
}

// Save encodes the animation to path.
func (g *GIFRecorder) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := g.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
