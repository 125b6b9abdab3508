package domain

import (
	"fmt"
	"math"
)

// Point is an integer grid coordinate.
type Point struct {
	X int `json:"x" yaml:"x" mapstructure:"x"`
	Y int `json:"y" yaml:"y" mapstructure:"y"`
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Path is an ordered sequence of grid coordinates from start to end.
type Path []Point

// Length returns the sum of the euclidean lengths of the path segments.
func (p Path) Length() float64 {
	var sum float64
	for i := 1; i < len(p); i++ {
		dx := float64(p[i].X - p[i-1].X)
		dy := float64(p[i].Y - p[i-1].Y)
		sum += math.Sqrt(dx*dx + dy*dy)
	}
	return sum
}

// DiagonalMovement controls which diagonal neighbours a finder may step to.
type DiagonalMovement string

const (
	DiagonalNever               DiagonalMovement = "never"
	DiagonalAlways              DiagonalMovement = "always"
	DiagonalIfAtMostOneObstacle DiagonalMovement = "if_at_most_one_obstacle"
	DiagonalOnlyWhenNoObstacles DiagonalMovement = "only_when_no_obstacles"
)

// Grid is a rectangle of Nodes with fixed dimensions.
type Grid struct {
	width, height int
	nodes         []Node
}

// Grid size limits. Sizes come from remote clients, so the node array is bounded.
const (
	MaxGridSide = 1024
	MaxCells    = MaxGridSide * MaxGridSide
)

// CheckGridSize reports ErrInvalidGridSize unless both sides are in 1..MaxGridSide
// and the cell count is at most MaxCells.
func CheckGridSize(width, height int) error {
	if width <= 0 || height <= 0 || width > MaxGridSide || height > MaxGridSide || width*height > MaxCells {
		return fmt.Errorf("%w: %dx%d (sides 1..%d)", ErrInvalidGridSize, width, height, MaxGridSide)
	}
	return nil
}

// NewGrid creates a grid whose cells are all walkable.
func NewGrid(width, height int) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	g := &Grid{
		width:  width,
		height: height,
		nodes:  make([]Node, width*height),
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			n := &g.nodes[y*width+x]
			n.X, n.Y = x, y
			n.walkable = true
		}
	}
	return g
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

// Contains reports whether (x, y) lies inside the grid.
func (g *Grid) Contains(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// NodeAt returns the node at (x, y).
func (g *Grid) NodeAt(x, y int) (*Node, error) {
	if !g.Contains(x, y) {
		return nil, fmt.Errorf("%w: (%d,%d) outside %dx%d", ErrOutOfBounds, x, y, g.width, g.height)
	}
	return &g.nodes[y*g.width+x], nil
}

// IsWalkableAt reports whether (x, y) is inside the grid and walkable.
func (g *Grid) IsWalkableAt(x, y int) bool {
	return g.Contains(x, y) && g.nodes[y*g.width+x].walkable
}

// SetWalkableAt changes the walkability of (x, y).
func (g *Grid) SetWalkableAt(x, y int, walkable bool) error {
	n, err := g.NodeAt(x, y)
	if err != nil {
		return err
	}
	n.walkable = walkable
	return nil
}

// Walls returns the blocked cells in row-major order.
func (g *Grid) Walls() []Point {
	var walls []Point
	for i := range g.nodes {
		if !g.nodes[i].walkable {
			walls = append(walls, g.nodes[i].Point())
		}
	}
	return walls
}

// Clone copies walkability into an independent grid.
// The exploration flags of the copy are unset and no Recorder is attached.
func (g *Grid) Clone() *Grid {
	c := &Grid{
		width:  g.width,
		height: g.height,
		nodes:  make([]Node, len(g.nodes)),
	}
	for i := range g.nodes {
		src := &g.nodes[i]
		c.nodes[i] = Node{X: src.X, Y: src.Y, walkable: src.walkable}
	}
	return c
}

// Instrument attaches rec to every node so exploration writes are recorded.
// A nil rec detaches recording.
func (g *Grid) Instrument(rec Recorder) {
	for i := range g.nodes {
		g.nodes[i].rec = rec
	}
}

// SetExplorationFlag writes an exploration flag at (x, y) and records it in one call.
func (g *Grid) SetExplorationFlag(x, y int, attr Attribute, v bool) error {
	n, err := g.NodeAt(x, y)
	if err != nil {
		return err
	}
	return n.SetFlag(attr, v)
}

// ExplorationFlag reads an exploration flag at (x, y) without recording.
func (g *Grid) ExplorationFlag(x, y int, attr Attribute) (bool, error) {
	n, err := g.NodeAt(x, y)
	if err != nil {
		return false, err
	}
	return n.Flag(attr)
}

// Neighbors returns the walkable neighbours of n, orthogonal ones first
// (up, right, down, left) followed by the diagonals allowed by d.
func (g *Grid) Neighbors(n *Node, d DiagonalMovement) []*Node {
	x, y := n.X, n.Y
	var out []*Node
	var s0, s1, s2, s3 bool

	if g.IsWalkableAt(x, y-1) {
		out = append(out, &g.nodes[(y-1)*g.width+x])
		s0 = true
	}
	if g.IsWalkableAt(x+1, y) {
		out = append(out, &g.nodes[y*g.width+x+1])
		s1 = true
	}
	if g.IsWalkableAt(x, y+1) {
		out = append(out, &g.nodes[(y+1)*g.width+x])
		s2 = true
	}
	if g.IsWalkableAt(x-1, y) {
		out = append(out, &g.nodes[y*g.width+x-1])
		s3 = true
	}

	var d0, d1, d2, d3 bool
	switch d {
	case DiagonalNever, "":
		return out
	case DiagonalOnlyWhenNoObstacles:
		d0, d1, d2, d3 = s3 && s0, s0 && s1, s1 && s2, s2 && s3
	case DiagonalIfAtMostOneObstacle:
		d0, d1, d2, d3 = s3 || s0, s0 || s1, s1 || s2, s2 || s3
	case DiagonalAlways:
		d0, d1, d2, d3 = true, true, true, true
	}

	if d0 && g.IsWalkableAt(x-1, y-1) {
		out = append(out, &g.nodes[(y-1)*g.width+x-1])
	}
	if d1 && g.IsWalkableAt(x+1, y-1) {
		out = append(out, &g.nodes[(y-1)*g.width+x+1])
	}
	if d2 && g.IsWalkableAt(x+1, y+1) {
		out = append(out, &g.nodes[(y+1)*g.width+x+1])
	}
	if d3 && g.IsWalkableAt(x-1, y+1) {
		out = append(out, &g.nodes[(y+1)*g.width+x-1])
	}
	return out
}
