package sandbox

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustGrid(t testing.TB, rows [][]Cell) *Grid {
	t.Helper()
	g, err := GridFromRows(rows)
	require.NoError(t, err)
	return g
}

func requireRows(t testing.TB, g *Grid, want [][]Cell, msg string) {
	t.Helper()
	if diff := cmp.Diff(want, g.Rows()); diff != "" {
		t.Fatalf("%s: grid mismatch (-want +got):\n%s", msg, diff)
	}
}

var (
	empty3x3 = [][]Cell{
		{0, 0, 0},
		{0, 0, 0},
		{0, 0, 0},
	}
	oneGrain3x3 = [][]Cell{
		{0, 0, 0},
		{0, 0, 1},
		{0, 0, 0},
	}
	unstable3x3 = [][]Cell{
		{0, 0, 0},
		{0, 4, 0},
		{0, 0, 0},
	}
	toppled3x3 = [][]Cell{
		{0, 1, 0},
		{1, 0, 1},
		{0, 1, 0},
	}
	borderUnstable3x3 = [][]Cell{
		{0, 0, 0},
		{0, 0, 4},
		{0, 0, 0},
	}
	borderToppled3x3 = [][]Cell{
		{0, 0, 1},
		{0, 1, 0},
		{0, 0, 1},
	}
	cornerUnstable3x3 = [][]Cell{
		{0, 0, 0},
		{0, 0, 0},
		{0, 0, 4},
	}
	cornerToppled3x3 = [][]Cell{
		{0, 0, 0},
		{0, 0, 1},
		{0, 1, 0},
	}
	cascadeUnstable3x3 = [][]Cell{
		{0, 0, 0},
		{0, 4, 3},
		{0, 0, 0},
	}
	cascadeStabilized3x3 = [][]Cell{
		{0, 1, 1},
		{1, 1, 0},
		{0, 1, 1},
	}
)

func TestNewGrid(t *testing.T) {
	g, err := NewGrid(3)
	require.NoError(t, err)
	assert.Equal(t, 3, g.Size())
	assert.Equal(t, uint64(0), g.Mass())
	assert.True(t, g.IsStable())
	requireRows(t, g, empty3x3, "new grid")

	for _, size := range []int{0, -1} {
		_, err := NewGrid(size)
		assert.True(t, errors.Is(err, ErrConfiguration), "size %d", size)
	}
}

func TestGridFromRowsRejectsNonSquare(t *testing.T) {
	_, err := GridFromRows([][]Cell{{0, 0}, {0}})
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestAddGrainNoCascade(t *testing.T) {
	g := mustGrid(t, empty3x3)
	require.NoError(t, g.AddGrain(1, 2))
	requireRows(t, g, oneGrain3x3, "one grain")
	assert.Equal(t, Cell(1), g.Height(1, 2))
	assert.Equal(t, uint64(1), g.Mass())
	assert.True(t, g.IsStable())
}

func TestAddGrainOutOfRange(t *testing.T) {
	g := mustGrid(t, empty3x3)
	for _, p := range []Point{{-1, 0}, {0, -1}, {3, 0}, {0, 3}} {
		err := g.AddGrain(p.I, p.J)
		assert.True(t, errors.Is(err, ErrIndexOutOfRange), "point %v", p)
	}
	requireRows(t, g, empty3x3, "untouched")
}

func TestAddGrainOverflow(t *testing.T) {
	g := mustGrid(t, empty3x3)
	require.NoError(t, g.Set(0, 0, ^Cell(0)))
	err := g.AddGrain(0, 0)
	assert.True(t, errors.Is(err, ErrInvariantViolation))
	assert.Equal(t, ^Cell(0), g.Height(0, 0))
}

func TestHeightOutOfRangePanics(t *testing.T) {
	g := mustGrid(t, empty3x3)
	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	}()
	g.Height(3, 1)
}

func TestTopple(t *testing.T) {
	tests := []struct {
		name   string
		start  [][]Cell
		cell   Point
		want   [][]Cell
		lost uint64
	}{
		{"center", unstable3x3, Point{1, 1}, toppled3x3, 0},
		{"border", borderUnstable3x3, Point{1, 2}, borderToppled3x3, 1},
		{"corner", cornerUnstable3x3, Point{2, 2}, cornerToppled3x3, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustGrid(t, tt.start)
			before := g.Mass()
			require.NoError(t, g.Topple(tt.cell.I, tt.cell.J))
			requireRows(t, g, tt.want, tt.name)
			assert.Equal(t, before-tt.lost, g.Mass())
			assert.Equal(t, int(tt.lost), g.SinkSlots(tt.cell.I, tt.cell.J))
			assert.Len(t, g.Neighbors(tt.cell.I, tt.cell.J), Threshold-int(tt.lost))
		})
	}
}

func TestToppleStableCellIsInvariantViolation(t *testing.T) {
	g := mustGrid(t, [][]Cell{
		{0, 0, 0},
		{0, 3, 0},
		{0, 0, 0},
	})
	err := g.Topple(1, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvariantViolation))
	assert.Equal(t, Cell(3), g.Height(1, 1), "grid must stay untouched")
	assert.Equal(t, uint64(3), g.Mass())

	assert.True(t, errors.Is(g.Topple(5, 5), ErrIndexOutOfRange))
}

func TestFindUnstableRowMajor(t *testing.T) {
	g := mustGrid(t, empty3x3)
	_, found := g.FindUnstable()
	assert.False(t, found)

	g = mustGrid(t, unstable3x3)
	p, found := g.FindUnstable()
	assert.True(t, found)
	assert.Equal(t, Point{1, 1}, p)

	g = mustGrid(t, [][]Cell{
		{0, 0, 0},
		{0, 0, 5},
		{4, 0, 0},
	})
	p, _ = g.FindUnstable()
	assert.Equal(t, Point{1, 2}, p, "rows first, then columns")
	assert.False(t, g.IsStable())
}

func TestNeighborsOrder(t *testing.T) {
	g := mustGrid(t, empty3x3)
	assert.Equal(t, []Point{{2, 1}, {0, 1}, {1, 2}, {1, 0}}, g.Neighbors(1, 1))
	assert.Equal(t, []Point{{1, 0}, {0, 1}}, g.Neighbors(0, 0))
}

func TestCloneEqualClear(t *testing.T) {
	g := mustGrid(t, cascadeUnstable3x3)
	c := g.Clone()
	assert.True(t, g.Equal(c))
	require.NoError(t, c.AddGrain(0, 0))
	assert.False(t, g.Equal(c), "clone must not share the buffer")
	assert.False(t, g.Equal(nil))

	small, _ := NewGrid(2)
	assert.False(t, g.Equal(small))

	g.Clear()
	requireRows(t, g, empty3x3, "cleared")
}

func TestGridString(t *testing.T) {
	g := mustGrid(t, [][]Cell{
		{0, 1},
		{12, 3},
	})
	assert.Equal(t, "01\n*3", g.String())
}

func TestEntitiesShareBuffer(t *testing.T) {
	g := mustGrid(t, empty3x3)
	require.NoError(t, g.AddGrain(2, 1))
	assert.Equal(t, Cell(1), g.Entities[2][1])
}
