//go:build !headless

package ui

import "github.com/hajimehoshi/ebiten/v2"

// pointer is the mouse state a widget reacts to during one update.
type pointer struct {
	X, Y    float64
	Pressed bool
}

func readPointer() pointer {
	mx, my := ebiten.CursorPosition()
	return pointer{X: float64(mx), Y: float64(my), Pressed: ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)}
}

func inRect(p pointer, x, y, w, h float64) bool {
	return p.X >= x && p.X <= x+w && p.Y >= y && p.Y <= y+h
}
