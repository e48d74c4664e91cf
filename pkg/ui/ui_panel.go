//go:build !headless

// Package ui holds the ebiten widgets of the control panel.
package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	titleHeight   = 30
	headerHeight  = 25
	captionHeight = 15
	scrollStep    = 20
)

// Widget is a control laid out by a UIPanel.
type Widget interface {
	Draw(screen *ebiten.Image)
	Height() float64

	caption() string // drawn above the widget, empty for none
	place(y float64)
	handle(p pointer)
}

type section struct {
	title      string
	start, end int // widget range
	y          float64
}

// UIPanel stacks widgets under section headers in a scrollable column.
type UIPanel struct {
	Title         string
	X, Y          float64
	Width, Height float64
	Widgets       []Widget
	ScrollOffset  float64

	BGColor     color.RGBA
	BorderColor color.RGBA
	HeaderColor color.RGBA

	sections []section
	open     bool // the last section still takes widgets
	tops     []float64
}

func NewUIPanel(x, y, width, height float64) *UIPanel {
	return &UIPanel{
		Title:       "Configuration",
		X:           x,
		Y:           y,
		Width:       width,
		Height:      height,
		BGColor:     color.RGBA{R: 40, G: 40, B: 45, A: 230},
		BorderColor: color.RGBA{R: 100, G: 100, B: 110, A: 255},
		HeaderColor: color.RGBA{R: 60, G: 60, B: 70, A: 255},
	}
}

// AddSection starts a titled group; widgets added until EndSection go in it.
func (p *UIPanel) AddSection(title string) {
	n := len(p.Widgets)
	p.sections = append(p.sections, section{title: title, start: n, end: n})
	p.open = true
}

func (p *UIPanel) EndSection() { p.open = false }

func (p *UIPanel) AddSlider(label string, min, max, value float64) *Slider {
	s := NewSlider(p.X+10, 0, p.Width-20, label, min, max, value)
	p.add(s)
	return s
}

func (p *UIPanel) AddCheckbox(label string, value bool) *Checkbox {
	c := NewCheckbox(p.X+10, 0, label, value)
	p.add(c)
	return c
}

// AddButton adds a full-width button labelled inside.
func (p *UIPanel) AddButton(label string, onClick func()) *Button {
	b := NewButton(p.X+10, 0, p.Width-20, 20, label, onClick)
	p.add(b)
	return b
}

// add appends w to the open section, or to a new untitled one.
func (p *UIPanel) add(w Widget) {
	if !p.open {
		p.AddSection("")
	}
	p.Widgets = append(p.Widgets, w)
	p.sections[len(p.sections)-1].end = len(p.Widgets)
	p.layout()
}

// layout places headers and widgets for the current scroll offset and
// returns the content height.
func (p *UIPanel) layout() float64 {
	p.tops = p.tops[:0]
	y := p.Y + titleHeight - p.ScrollOffset
	for i := range p.sections {
		s := &p.sections[i]
		s.y = y
		if s.title != "" {
			y += headerHeight
		}
		for _, w := range p.Widgets[s.start:s.end] {
			p.tops = append(p.tops, y)
			if w.caption() != "" {
				w.place(y + captionHeight)
			} else {
				w.place(y)
			}
			y += w.Height()
		}
	}
	return y + p.ScrollOffset - p.Y
}

// scroll moves the content by delta pixels, kept within the content.
func (p *UIPanel) scroll(delta float64) {
	limit := max(p.layout()-p.Height+40, 0)
	p.ScrollOffset = min(max(p.ScrollOffset+delta, 0), limit)
	p.layout()
}

func (p *UIPanel) visible(y float64) bool {
	return y >= p.Y-titleHeight && y <= p.Y+p.Height
}

// Update scrolls on the mouse wheel and forwards the mouse to every
// widget. Presses outside the panel are not forwarded.
func (p *UIPanel) Update() {
	if _, dy := ebiten.Wheel(); dy != 0 {
		p.scroll(-dy * scrollStep)
	}
	p.handle(readPointer())
}

func (p *UIPanel) handle(ptr pointer) {
	p.layout()
	if !inRect(ptr, p.X, p.Y, p.Width, p.Height) {
		ptr.Pressed = false
	}
	for _, w := range p.Widgets {
		w.handle(ptr)
	}
}

func (p *UIPanel) Draw(screen *ebiten.Image) {
	vector.FillRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(p.Height), p.BGColor, true)
	vector.StrokeRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(p.Height), 2, p.BorderColor, true)
	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X+10), int(p.Y+5))

	p.layout()
	for _, s := range p.sections {
		if s.title != "" && p.visible(s.y) {
			vector.FillRect(screen, float32(p.X+5), float32(s.y), float32(p.Width-10), 20, p.HeaderColor, true)
			ebitenutil.DebugPrintAt(screen, s.title, int(p.X+10), int(s.y+5))
		}
	}
	for i, w := range p.Widgets {
		top := p.tops[i]
		if !p.visible(top) {
			continue
		}
		if c := w.caption(); c != "" {
			ebitenutil.DebugPrintAt(screen, c, int(p.X+10), int(top))
		}
		w.Draw(screen)
	}
}
