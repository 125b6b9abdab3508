package domain_test

import (
	"math"
	"testing"

	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrid_Walkability(t *testing.T) {
	g := domain.NewGrid(5, 4)

	assert.Equal(t, 5, g.Width())
	assert.Equal(t, 4, g.Height())
	assert.True(t, g.IsWalkableAt(0, 0))
	assert.True(t, g.IsWalkableAt(4, 3))
	assert.False(t, g.IsWalkableAt(5, 0), "outside the grid is never walkable")
	assert.False(t, g.IsWalkableAt(-1, 0))

	require.NoError(t, g.SetWalkableAt(2, 2, false))
	assert.False(t, g.IsWalkableAt(2, 2))
	assert.Equal(t, []domain.Point{{X: 2, Y: 2}}, g.Walls())

	err := g.SetWalkableAt(5, 4, false)
	assert.ErrorIs(t, err, domain.ErrOutOfBounds)
	assert.Equal(t, []domain.Point{{X: 2, Y: 2}}, g.Walls(), "failed write must not change state")
}

func TestGrid_CloneIsIndependent(t *testing.T) {
	g := domain.NewGrid(3, 3)
	require.NoError(t, g.SetWalkableAt(1, 1, false))

	rec := domain.NewOperationLog()
	g.Instrument(rec)
	n, err := g.NodeAt(0, 0)
	require.NoError(t, err)
	n.SetOpened(true)

	c := g.Clone()
	assert.False(t, c.IsWalkableAt(1, 1), "walkability is copied")

	cn, err := c.NodeAt(0, 0)
	require.NoError(t, err)
	assert.False(t, cn.Opened(), "exploration flags start unset")

	// Writes on the clone are not recorded by the source recorder.
	cn.SetClosed(true)
	assert.Equal(t, 1, rec.Len())

	// Mutating the source does not leak into the clone.
	require.NoError(t, g.SetWalkableAt(2, 2, false))
	assert.True(t, c.IsWalkableAt(2, 2))
}

func TestNode_WritesAreRecordedInOrder(t *testing.T) {
	g := domain.NewGrid(2, 2)
	log := domain.NewOperationLog()
	g.Instrument(log)

	a, _ := g.NodeAt(0, 0)
	b, _ := g.NodeAt(1, 1)

	a.SetOpened(true)
	b.SetOpened(true)
	a.SetClosed(true)
	a.SetOpened(true) // same value still recorded
	require.NoError(t, g.SetExplorationFlag(1, 1, domain.AttrTested, false))

	// Reads never record.
	_ = a.Opened()
	v, err := g.ExplorationFlag(0, 0, domain.AttrClosed)
	require.NoError(t, err)
	assert.True(t, v)

	assert.Equal(t, []domain.Operation{
		{X: 0, Y: 0, Attr: domain.AttrOpened, Value: true},
		{X: 1, Y: 1, Attr: domain.AttrOpened, Value: true},
		{X: 0, Y: 0, Attr: domain.AttrClosed, Value: true},
		{X: 0, Y: 0, Attr: domain.AttrOpened, Value: true},
		{X: 1, Y: 1, Attr: domain.AttrTested, Value: false},
	}, log.Pending())
}

func TestNode_RejectsNonExplorationWrites(t *testing.T) {
	g := domain.NewGrid(1, 1)
	log := domain.NewOperationLog()
	g.Instrument(log)

	err := g.SetExplorationFlag(0, 0, domain.AttrWalkable, false)
	assert.ErrorIs(t, err, domain.ErrNotExploration)
	assert.Equal(t, 0, log.Len())
	assert.True(t, g.IsWalkableAt(0, 0))

	err = g.SetExplorationFlag(3, 3, domain.AttrOpened, true)
	assert.ErrorIs(t, err, domain.ErrOutOfBounds)
}

func TestGrid_Neighbors(t *testing.T) {
	// . # .
	// . x .
	// . . .
	g := domain.NewGrid(3, 3)
	require.NoError(t, g.SetWalkableAt(1, 0, false))
	center, _ := g.NodeAt(1, 1)

	tests := []struct {
		name string
		mode domain.DiagonalMovement
		want []domain.Point
	}{
		{"never", domain.DiagonalNever, []domain.Point{{2, 1}, {1, 2}, {0, 1}}},
		{"always", domain.DiagonalAlways, []domain.Point{{2, 1}, {1, 2}, {0, 1}, {0, 0}, {2, 0}, {2, 2}, {0, 2}}},
		{"no obstacles", domain.DiagonalOnlyWhenNoObstacles, []domain.Point{{2, 1}, {1, 2}, {0, 1}, {2, 2}, {0, 2}}},
		{"one obstacle", domain.DiagonalIfAtMostOneObstacle, []domain.Point{{2, 1}, {1, 2}, {0, 1}, {0, 0}, {2, 0}, {2, 2}, {0, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []domain.Point
			for _, n := range g.Neighbors(center, tt.mode) {
				got = append(got, n.Point())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPath_Length(t *testing.T) {
	p := domain.Path{{0, 0}, {1, 1}, {2, 2}, {3, 3}, {4, 4}}
	assert.InDelta(t, 4*math.Sqrt2, p.Length(), 1e-9)
	assert.Equal(t, 0.0, domain.Path{}.Length())
	assert.Equal(t, 3.0, domain.Path{{0, 0}, {0, 1}, {1, 1}, {2, 1}}.Length())
}

func TestLayout_ValidateAndLookup(t *testing.T) {
	l := &domain.Layout{
		Name:      "floor-3",
		Width:     10,
		Height:    10,
		Start:     &domain.Point{X: 4, Y: 3},
		Walls:     []domain.Point{{X: 0, Y: 0}},
		Locations: map[string]domain.Point{"331": {X: 9, Y: 5}, "301": {X: 3, Y: 6}},
	}
	require.NoError(t, l.Validate())

	p, err := l.Lookup("331")
	require.NoError(t, err)
	assert.Equal(t, domain.Point{X: 9, Y: 5}, p)

	_, err = l.Lookup("999")
	assert.ErrorIs(t, err, domain.ErrUnknownLocation)
	assert.Equal(t, []string{"301", "331"}, l.LocationNames())

	l.Walls = append(l.Walls, domain.Point{X: 10, Y: 0})
	assert.ErrorIs(t, l.Validate(), domain.ErrOutOfBounds)
}

func TestCheckGridSize(t *testing.T) {
	require.NoError(t, domain.CheckGridSize(1, 1))
	require.NoError(t, domain.CheckGridSize(domain.MaxGridSide, domain.MaxGridSide))

	for _, size := range [][2]int{{0, 5}, {5, -1}, {domain.MaxGridSide + 1, 1}, {1, 1 << 20}} {
		assert.ErrorIs(t, domain.CheckGridSize(size[0], size[1]), domain.ErrInvalidGridSize, "%dx%d", size[0], size[1])
	}

	l := &domain.Layout{Name: "huge", Width: 100000, Height: 100000}
	err := l.Validate()
	assert.ErrorIs(t, err, domain.ErrInvalidLayout)
	assert.ErrorIs(t, err, domain.ErrInvalidGridSize)
}
