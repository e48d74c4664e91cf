//go:build !headless

package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Checkbox toggles a boolean on each press; its label is drawn to the
// right of the box.
type Checkbox struct {
	Label string
	Value bool
	X, Y  float64
	Size  float64

	held bool // pressed during the previous update
}

func NewCheckbox(x, y float64, label string, value bool) *Checkbox {
	return &Checkbox{Label: label, Value: value, X: x, Y: y, Size: 16}
}

// Update reads the mouse and toggles on a new press over the box.
func (c *Checkbox) Update() { c.handle(readPointer()) }

func (c *Checkbox) handle(p pointer) {
	pressed := p.Pressed && c.contains(p)
	if pressed && !c.held {
		c.Value = !c.Value
	}
	c.held = pressed
}

func (c *Checkbox) contains(p pointer) bool {
	return inRect(p, c.X, c.Y, c.Size, c.Size)
}

func (c *Checkbox) Draw(screen *ebiten.Image) {
	vector.StrokeRect(screen, float32(c.X), float32(c.Y), float32(c.Size), float32(c.Size),
		2, color.RGBA{R: 200, G: 200, B: 200, A: 255}, true)
	if c.Value {
		vector.FillRect(screen, float32(c.X+3), float32(c.Y+3), float32(c.Size-6), float32(c.Size-6),
			color.RGBA{R: 100, G: 200, B: 100, A: 255}, true)
	}
	ebitenutil.DebugPrintAt(screen, c.Label, int(c.X+c.Size+8), int(c.Y))
}

func (c *Checkbox) Height() float64 { return c.Size + 10 }
func (c *Checkbox) caption() string { return "" }
func (c *Checkbox) place(y float64) { c.Y = y }
