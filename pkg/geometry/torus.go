package geometry

import "math"

// Torus is the square periodic domain [0, L) x [0, L).
// Leaving one edge re-enters from the opposite one, and distances are
// measured between nearest periodic images.
type Torus struct {
	L float64
}

// WrapScalar reduces x into [0, L).
// math.Mod keeps the sign of x, so negative results are shifted by L.
// A tiny negative x can round to exactly L after the shift, which is
// folded back to 0 to keep the upper bound open.
func (t Torus) WrapScalar(x float64) float64 {
	x = math.Mod(x, t.L)
	if x < 0 {
		x += t.L
	}
	if x >= t.L {
		x = 0
	}
	return x
}

// Wrap reduces both components of v into [0, L).
func (t Torus) Wrap(v Vector2D) Vector2D {
	return Vector2D{X: t.WrapScalar(v.X), Y: t.WrapScalar(v.Y)}
}

// Contains reports whether v already lies inside [0, L) x [0, L).
func (t Torus) Contains(v Vector2D) bool {
	return v.X >= 0 && v.X < t.L && v.Y >= 0 && v.Y < t.L
}

// MinImage shifts a 1D displacement by the nearest multiple of L,
// leaving it in [-L/2, L/2].
func (t Torus) MinImage(d float64) float64 {
	return d - t.L*math.Round(d/t.L)
}

// Displacement returns the shortest vector going from a to b on the torus.
func (t Torus) Displacement(a, b Vector2D) Vector2D {
	d := b.Sub(a)
	return Vector2D{X: t.MinImage(d.X), Y: t.MinImage(d.Y)}
}

// DistanceSquared is the squared length of Displacement(a, b).
func (t Torus) DistanceSquared(a, b Vector2D) float64 {
	return t.Displacement(a, b).LenSqr()
}

// Distance is the minimum-image distance between a and b.
func (t Torus) Distance(a, b Vector2D) float64 {
	return t.Displacement(a, b).Len()
}
