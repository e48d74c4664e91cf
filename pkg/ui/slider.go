//go:build !headless

package ui

import (
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Slider picks a value in [Min, Max] by clicking or dragging on its track.
type Slider struct {
	Label    string
	Value    float64
	Min, Max float64
	Step     float64 // snap increment, 0 for continuous
	X, Y     float64
	W, H     float64
}

func NewSlider(x, y, w float64, label string, min, max, value float64) *Slider {
	s := &Slider{
		Label: label,
		Min:   min,
		Max:   max,
		X:     x,
		Y:     y,
		W:     w,
		H:     10,
	}
	s.SetValue(value)
	return s
}

// SetValue clamps v to [Min, Max] and snaps it to Step.
func (s *Slider) SetValue(v float64) {
	if s.Step > 0 {
		v = s.Min + math.Round((v-s.Min)/s.Step)*s.Step
	}
	s.Value = math.Max(s.Min, math.Min(s.Max, v))
}

// Ratio returns the position of Value within [Min, Max].
func (s *Slider) Ratio() float64 {
	if s.Max == s.Min {
		return 0
	}
	return (s.Value - s.Min) / (s.Max - s.Min)
}

func (s *Slider) Update() { s.handle(readPointer()) }

func (s *Slider) handle(p pointer) {
	if p.Pressed && inRect(p, s.X, s.Y, s.W, s.H) {
		s.SetValue(s.Min + (p.X-s.X)/s.W*(s.Max-s.Min))
	}
}

func (s *Slider) Draw(screen *ebiten.Image) {
	vector.FillRect(screen, float32(s.X), float32(s.Y), float32(s.W), float32(s.H), color.RGBA{R: 80, G: 80, B: 80, A: 255}, true)
	vector.FillRect(screen, float32(s.X), float32(s.Y), float32(s.W*s.Ratio()), float32(s.H), color.RGBA{R: 200, G: 200, B: 200, A: 255}, true)
}

// decimals picks a display precision from the step or the range.
func (s *Slider) decimals() int {
	switch {
	case s.Step >= 1:
		return 0
	case s.Max-s.Min >= 10:
		return 1
	default:
		return 2
	}
}

func (s *Slider) Height() float64 { return s.H + 25 }
func (s *Slider) caption() string { return fmt.Sprintf("%s: %.*f", s.Label, s.decimals(), s.Value) }
func (s *Slider) place(y float64) { s.Y = y }
