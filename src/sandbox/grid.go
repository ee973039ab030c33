package sandbox

import (
	"fmt"
	"math"
	"strings"
)

//Threshold is the height at which the cell becomes unstable and topples
const Threshold = 4

//Cell is the number of grains in the pile
type Cell uint32

//Point addresses the cell by row (I) and column (J)
type Point struct {
	I int
	J int
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.I, p.J)
}

//Grid is the square sand box with the open boundary
//the grains falling outside of the grid are lost in the sink
type Grid struct {
	size     int
	cells    []Cell
	Entities [][]Cell //rows view on the cells buffer
}

//NewGrid creates the zero-initialized grid size x size
func NewGrid(size int) (*Grid, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: grid size must be positive, got %d", ErrConfiguration, size)
	}
	g := &Grid{size: size, cells: make([]Cell, size*size)}
	g.Entities = make([][]Cell, size)
	for i := range g.Entities {
		start := size * i
		g.Entities[i] = g.cells[start : start+size : start+size]
	}
	return g, nil
}

//GridFromRows builds the grid from the square matrix of heights
func GridFromRows(rows [][]Cell) (*Grid, error) {
	g, err := NewGrid(len(rows))
	if err != nil {
		return nil, err
	}
	for i, r := range rows {
		if len(r) != g.size {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrConfiguration, i, len(r), g.size)
		}
		copy(g.Entities[i], r)
	}
	return g, nil
}

//Size returns the grid dimension
func (g *Grid) Size() int {
	return g.size
}

//InBounds reports whether (i, j) addresses a cell of the grid
func (g *Grid) InBounds(i int, j int) bool {
	return i >= 0 && j >= 0 && i < g.size && j < g.size
}

//Height returns the number of grains at (i, j)
//panics when the point is outside the grid, same as the slice indexing does
func (g *Grid) Height(i int, j int) Cell {
	if !g.InBounds(i, j) {
		panic(g.outOfRange(i, j))
	}
	return g.cells[i*g.size+j]
}

//Set overwrites the height at (i, j), used to seed the grid
func (g *Grid) Set(i int, j int, h Cell) error {
	if !g.InBounds(i, j) {
		return g.outOfRange(i, j)
	}
	g.cells[i*g.size+j] = h
	return nil
}

//AddGrain drops one grain at (i, j)
func (g *Grid) AddGrain(i int, j int) error {
	if !g.InBounds(i, j) {
		return g.outOfRange(i, j)
	}
	c := &g.cells[i*g.size+j]
	if *c == math.MaxUint32 {
		return fmt.Errorf("%w: cell %v overflow", ErrInvariantViolation, Point{i, j})
	}
	*c++
	return nil
}

//Topple moves Threshold grains from (i, j) to the orthogonal neighbours, one grain each
//the grains for the missing neighbours are lost
//the cell must hold at least Threshold grains, the grid stays untouched otherwise
func (g *Grid) Topple(i int, j int) error {
	if !g.InBounds(i, j) {
		return g.outOfRange(i, j)
	}
	c := &g.cells[i*g.size+j]
	if *c < Threshold {
		return fmt.Errorf("%w: topple of the stable cell %v with height %d", ErrInvariantViolation, Point{i, j}, *c)
	}
	*c -= Threshold
	if i+1 < g.size {
		g.cells[(i+1)*g.size+j]++
	}
	if i >= 1 {
		g.cells[(i-1)*g.size+j]++
	}
	if j+1 < g.size {
		g.cells[i*g.size+j+1]++
	}
	if j >= 1 {
		g.cells[i*g.size+j-1]++
	}
	return nil
}

//Neighbors returns in-bounds orthogonal neighbours of (i, j) in the toppling order: down, up, right, left
func (g *Grid) Neighbors(i int, j int) []Point {
	n := make([]Point, 0, 4)
	if i+1 < g.size {
		n = append(n, Point{i + 1, j})
	}
	if i >= 1 {
		n = append(n, Point{i - 1, j})
	}
	if j+1 < g.size {
		n = append(n, Point{i, j + 1})
	}
	if j >= 1 {
		n = append(n, Point{i, j - 1})
	}
	return n
}

//SinkSlots returns the number of grains (i, j) loses to the sink on each topple
//0 for interior cells, 1 for the edges, 2 for the corners
func (g *Grid) SinkSlots(i int, j int) int {
	slots := 0
	if i == 0 {
		slots++
	}
	if i == g.size-1 {
		slots++
	}
	if j == 0 {
		slots++
	}
	if j == g.size-1 {
		slots++
	}
	return slots
}

//IsStable reports whether every cell is below Threshold
func (g *Grid) IsStable() bool {
	_, found := g.FindUnstable()
	return !found
}

//FindUnstable returns the first unstable cell in row-major order
func (g *Grid) FindUnstable() (Point, bool) {
	for idx, c := range g.cells {
		if c >= Threshold {
			return Point{idx / g.size, idx % g.size}, true
		}
	}
	return Point{}, false
}

//Mass returns the total number of grains on the grid
func (g *Grid) Mass() uint64 {
	var m uint64
	for _, c := range g.cells {
		m += uint64(c)
	}
	return m
}

//Clear removes all grains
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = 0
	}
}

//Clone returns the deep copy of the grid
func (g *Grid) Clone() *Grid {
	c, _ := NewGrid(g.size)
	copy(c.cells, g.cells)
	return c
}

//Equal reports whether both grids have the same size and heights
func (g *Grid) Equal(o *Grid) bool {
	if o == nil || g.size != o.size {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

//Rows returns the copy of the heights as a matrix
func (g *Grid) Rows() [][]Cell {
	rows := make([][]Cell, g.size)
	for i := range rows {
		rows[i] = append([]Cell(nil), g.Entities[i]...)
	}
	return rows
}

//String renders the grid as digit rows, the heights above 9 are shown as '*'
func (g *Grid) String() string {
	var b strings.Builder
	b.Grow(g.size * (g.size + 1))
	for i, row := range g.Entities {
		if i != 0 {
			b.WriteByte('\n')
		}
		for _, c := range row {
			if c > 9 {
				b.WriteByte('*')
				continue
			}
			b.WriteByte('0' + byte(c))
		}
	}
	return b.String()
}

func (g *Grid) outOfRange(i int, j int) error {
	return fmt.Errorf("%w: cell %v outside of %dx%d grid", ErrIndexOutOfRange, Point{i, j}, g.size, g.size)
}
