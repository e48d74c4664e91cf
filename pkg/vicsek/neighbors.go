package vicsek

import (
	"math"

	"github.com/lao-tseu-is-alive/go-vicsek-simulation/pkg/geometry"
)

// NeighborSearch finds, for each particle i, every j whose minimum-image
// distance to i is strictly below r. i is always its own neighbor.
//
// Index is called once per step, before any ForEach, with the pre-step
// positions. ForEach may then be called concurrently for distinct i and
// must not modify the index.
type NeighborSearch interface {
	Index(positions []geometry.Vector2D, torus geometry.Torus, r float64)
	ForEach(i int, visit func(j int))
}

// BruteForce tests every pair. It costs O(N²) per step, fine for a few
// hundred particles; use CellList beyond that.
type BruteForce struct {
	positions []geometry.Vector2D
	torus     geometry.Torus
	r2        float64
}

// NewBruteForce returns the reference pairwise search.
func NewBruteForce() *BruteForce {
	return &BruteForce{}
}

func (b *BruteForce) Index(positions []geometry.Vector2D, torus geometry.Torus, r float64) {
	b.positions = positions
	b.torus = torus
	b.r2 = r * r
}

func (b *BruteForce) ForEach(i int, visit func(j int)) {
	me := b.positions[i]
	for j, other := range b.positions {
		if b.torus.DistanceSquared(me, other) < b.r2 {
			visit(j)
		}
	}
}

// maxCellsPerAxis bounds the grid when r is tiny compared to L. Bigger
// cells are still correct, only slower.
const maxCellsPerAxis = 1 << 16

type gridKey struct {
	x, y int
}

// CellList buckets particles into square cells of side >= r, so only the
// 3x3 block of cells around a particle can hold its neighbors. Cell indices
// wrap around like positions do. The cost is about O(N) per step for a
// fixed density.
//
// With fewer than 3 cells per axis the wrapped 3x3 block would visit some
// cells twice, so the search falls back to scanning every particle.
type CellList struct {
	positions []geometry.Vector2D
	torus     geometry.Torus
	r2        float64
	cells     int     // cells per axis
	cellSize  float64 // L / cells
	grid      map[gridKey][]int
}

// NewCellList returns an empty cell list; it sizes itself on Index.
func NewCellList() *CellList {
	return &CellList{grid: make(map[gridKey][]int)}
}

func (c *CellList) Index(positions []geometry.Vector2D, torus geometry.Torus, r float64) {
	c.positions = positions
	c.torus = torus
	c.r2 = r * r

	cells := int(math.Min(math.Floor(torus.L/r), maxCellsPerAxis))
	if cells != c.cells {
		clear(c.grid)
		c.cells = cells
	}
	if c.cells < 3 {
		return
	}
	c.cellSize = torus.L / float64(c.cells)

	// Reset slices to length 0 but keep their capacity, the grid is rebuilt
	// every step and this keeps allocations near zero once warmed up.
	for k := range c.grid {
		c.grid[k] = c.grid[k][:0]
	}
	for i, p := range positions {
		key := c.cellOf(p)
		c.grid[key] = append(c.grid[key], i)
	}
}

func (c *CellList) ForEach(i int, visit func(j int)) {
	me := c.positions[i]
	if c.cells < 3 {
		for j, other := range c.positions {
			if c.torus.DistanceSquared(me, other) < c.r2 {
				visit(j)
			}
		}
		return
	}

	home := c.cellOf(me)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			key := gridKey{x: c.wrapCell(home.x + dx), y: c.wrapCell(home.y + dy)}
			for _, j := range c.grid[key] {
				if c.torus.DistanceSquared(me, c.positions[j]) < c.r2 {
					visit(j)
				}
			}
		}
	}
}

// cellOf clamps the index because p.X/cellSize can round up to cells
// for p.X just below L.
func (c *CellList) cellOf(p geometry.Vector2D) gridKey {
	gx := min(int(p.X/c.cellSize), c.cells-1)
	gy := min(int(p.Y/c.cellSize), c.cells-1)
	return gridKey{x: gx, y: gy}
}

func (c *CellList) wrapCell(g int) int {
	return (g%c.cells + c.cells) % c.cells
}
