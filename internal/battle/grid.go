package battle

import (
	"errors"
	"fmt"
	"math"
)

var ErrGridMisaligned = errors.New("arena width and height must be positive multiples of the cell size")

// Grid is a uniform bucket grid over the arena used for broad-phase collision detection.
// Buckets are rebuilt from the unit list on every Detect call.
type Grid struct {
	CellSize float64
	Cols     int
	Rows     int

	units []*Unit
	cells [][]*Unit // 1D array: index = row*Cols + col
}

// NewGrid validates that the cells tile the arena exactly.
func NewGrid(width, height, cellSize float64) (*Grid, error) {
	if cellSize <= 0 || width <= 0 || height <= 0 ||
		math.Mod(width, cellSize) != 0 || math.Mod(height, cellSize) != 0 {
		return nil, fmt.Errorf("%w: %gx%g with cell %g", ErrGridMisaligned, width, height, cellSize)
	}
	cols := int(width / cellSize)
	rows := int(height / cellSize)
	return &Grid{
		CellSize: cellSize,
		Cols:     cols,
		Rows:     rows,
		cells:    make([][]*Unit, cols*rows),
	}, nil
}

func (g *Grid) Add(u *Unit) {
	g.units = append(g.units, u)
}

// Remove drops u from the unit list, keeping the order of the rest.
func (g *Grid) Remove(u *Unit) {
	for i, other := range g.units {
		if other == u {
			g.units = append(g.units[:i], g.units[i+1:]...)
			return
		}
	}
}

func (g *Grid) Len() int { return len(g.units) }

// Detect calls fn once for every overlapping pair of units.
func (g *Grid) Detect(fn func(a, b *Unit)) {
	g.rebuild()
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			cell := g.cells[row*g.Cols+col]
			for i, u := range cell {
				for _, other := range cell[i+1:] {
					g.test(u, other, fn)
				}
				if col != g.Cols-1 {
					g.testCell(u, col+1, row, fn)
				}
				if row != g.Rows-1 {
					g.testCell(u, col, row+1, fn)
					if col != 0 {
						g.testCell(u, col-1, row+1, fn)
					}
					if col != g.Cols-1 {
						g.testCell(u, col+1, row+1, fn)
					}
				}
			}
		}
	}
}

func (g *Grid) rebuild() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	for _, u := range g.units {
		col, row := g.cellOf(u)
		idx := row*g.Cols + col
		g.cells[idx] = append(g.cells[idx], u)
	}
}

// cellOf buckets a unit. Positions are clamped into the arena before detection;
// a unit exactly on the far edge lands in the last column or row.
func (g *Grid) cellOf(u *Unit) (int, int) {
	col := int(u.X / g.CellSize)
	row := int(u.Y / g.CellSize)
	return clampIndex(col, g.Cols), clampIndex(row, g.Rows)
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func (g *Grid) testCell(u *Unit, col, row int, fn func(a, b *Unit)) {
	for _, other := range g.cells[row*g.Cols+col] {
		g.test(u, other, fn)
	}
}

func (g *Grid) test(a, b *Unit, fn func(a, b *Unit)) {
	if overlaps(a, b) {
		fn(a, b)
	}
}

// overlaps treats units as circles of diameter Size.
func overlaps(a, b *Unit) bool {
	return math.Hypot(a.X-b.X, a.Y-b.Y) < a.Stats.Size/2+b.Stats.Size/2
}
