package domain

import "fmt"

// Node is one grid cell.
// Walkability persists across searches. The exploration flags are reset by cloning the
// grid, and every write to them is forwarded to the grid's Recorder before it is applied.
type Node struct {
	X, Y     int
	walkable bool

	opened bool
	closed bool
	tested bool

	rec Recorder
}

// Walkable reports whether the node can be traversed.
func (n *Node) Walkable() bool { return n.walkable }

// Point returns the node coordinate.
func (n *Node) Point() Point { return Point{X: n.X, Y: n.Y} }

func (n *Node) Opened() bool { return n.opened }
func (n *Node) Closed() bool { return n.closed }
func (n *Node) Tested() bool { return n.tested }

func (n *Node) SetOpened(v bool) { n.write(AttrOpened, v) }
func (n *Node) SetClosed(v bool) { n.write(AttrClosed, v) }
func (n *Node) SetTested(v bool) { n.write(AttrTested, v) }

// Flag returns the current value of an exploration flag. Reads are never recorded.
func (n *Node) Flag(attr Attribute) (bool, error) {
	switch attr {
	case AttrOpened:
		return n.opened, nil
	case AttrClosed:
		return n.closed, nil
	case AttrTested:
		return n.tested, nil
	}
	return false, fmt.Errorf("%w: %s", ErrNotExploration, attr)
}

// SetFlag writes an exploration flag, recording the write first.
func (n *Node) SetFlag(attr Attribute, v bool) error {
	if !attr.IsExploration() {
		return fmt.Errorf("%w: %s", ErrNotExploration, attr)
	}
	n.write(attr, v)
	return nil
}

func (n *Node) write(attr Attribute, v bool) {
	if n.rec != nil {
		n.rec.Record(Operation{X: n.X, Y: n.Y, Attr: attr, Value: v})
	}
	switch attr {
	case AttrOpened:
		n.opened = v
	case AttrClosed:
		n.closed = v
	case AttrTested:
		n.tested = v
	}
}
