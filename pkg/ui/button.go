//go:build !headless

package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Button calls OnClick once per press, on the press edge.
type Button struct {
	Label   string
	X, Y    float64
	W, H    float64
	OnClick func()

	BGColor    color.RGBA
	HoverColor color.RGBA

	held  bool
	hover bool
}

func NewButton(x, y, w, h float64, label string, onClick func()) *Button {
	return &Button{
		Label:      label,
		X:          x,
		Y:          y,
		W:          w,
		H:          h,
		OnClick:    onClick,
		BGColor:    color.RGBA{R: 80, G: 120, B: 180, A: 255},
		HoverColor: color.RGBA{R: 100, G: 150, B: 220, A: 255},
	}
}

func (b *Button) Update() { b.handle(readPointer()) }

func (b *Button) handle(p pointer) {
	b.hover = b.contains(p)
	pressed := p.Pressed && b.hover
	if pressed && !b.held && b.OnClick != nil {
		b.OnClick()
	}
	b.held = pressed
}

func (b *Button) contains(p pointer) bool {
	return inRect(p, b.X, b.Y, b.W, b.H)
}

func (b *Button) Draw(screen *ebiten.Image) {
	bg := b.BGColor
	if b.hover {
		bg = b.HoverColor
	}
	vector.FillRect(screen, float32(b.X), float32(b.Y), float32(b.W), float32(b.H), bg, true)
	vector.StrokeRect(screen, float32(b.X), float32(b.Y), float32(b.W), float32(b.H),
		2, color.RGBA{R: 200, G: 200, B: 200, A: 255}, true)

	// DebugPrint glyphs are 6x16
	tx := b.X + (b.W-float64(len(b.Label)*6))/2
	ebitenutil.DebugPrintAt(screen, b.Label, int(tx), int(b.Y+b.H/2-8))
}

func (b *Button) Height() float64 { return b.H + 10 }
func (b *Button) caption() string { return "" }
func (b *Button) place(y float64) { b.Y = y }
