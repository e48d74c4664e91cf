// Package render turns frames into images: arrows colored by heading on a
// square canvas, and animated GIFs of a run.
package render

import (
	"image/color"
	"math"

	"github.com/lao-tseu-is-alive/go-vicsek-simulation/pkg/analysis"
	"github.com/lucasb-eyer/go-colorful"
)

// HeadingColor maps a heading to a fully saturated hue, so particles
// moving the same way share a color.
func HeadingColor(theta float64) color.RGBA {
	hue := analysis.Normalize(theta) / (2 * math.Pi)
	r, g, b := colorful.Hsv(hue*360, 1, 1).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
