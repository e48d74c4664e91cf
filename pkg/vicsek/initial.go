package vicsek

import (
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/lao-tseu-is-alive/go-vicsek-simulation/pkg/geometry"
)

// UniformPositions scatters n points uniformly over [0, l) x [0, l).
func UniformPositions(n int, l float64, src NoiseSource) []geometry.Vector2D {
	torus := geometry.Torus{L: l}
	positions := make([]geometry.Vector2D, n)
	for i := range positions {
		// Float64()*l can round up to l, Wrap folds it back to 0
		positions[i] = torus.Wrap(geometry.Vector2D{X: src.Float64() * l, Y: src.Float64() * l})
	}
	return positions
}

// UniformHeadings draws n headings uniformly in [0, 2π).
func UniformHeadings(n int, src NoiseSource) []float64 {
	headings := make([]float64, n)
	for i := range headings {
		headings[i] = src.Float64() * 2 * math.Pi
	}
	return headings
}

// AlignedHeadings returns n copies of theta, a fully ordered start.
func AlignedHeadings(n int, theta float64) []float64 {
	headings := make([]float64, n)
	for i := range headings {
		headings[i] = theta
	}
	return headings
}

// Perlin field settings: two octaves over a couple of periods of the box
// give swirls a few interaction radii wide.
const (
	perlinAlpha     = 2.0
	perlinBeta      = 2.0
	perlinOctaves   = 2
	perlinFrequency = 3.0
)

// PerlinHeadings samples a smooth heading field from 2D Perlin noise at each
// position, so nearby particles start roughly aligned while the box as a
// whole is disordered.
func PerlinHeadings(positions []geometry.Vector2D, l float64, seed int64) []float64 {
	noise := perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, seed)
	headings := make([]float64, len(positions))
	for i, p := range positions {
		v := noise.Noise2D(p.X/l*perlinFrequency, p.Y/l*perlinFrequency)
		headings[i] = math.Pi * (1 + 2*v)
	}
	return headings
}
