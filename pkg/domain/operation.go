package domain

import "fmt"

// Attribute names a per-cell attribute that the renderer can display.
type Attribute string

const (
	AttrOpened   Attribute = "opened"
	AttrClosed   Attribute = "closed"
	AttrTested   Attribute = "tested"
	AttrWalkable Attribute = "walkable"
)

// IsExploration reports whether the attribute is one of the ephemeral search flags.
func (a Attribute) IsExploration() bool {
	switch a {
	case AttrOpened, AttrClosed, AttrTested:
		return true
	}
	return false
}

// Operation is one exploration-flag write observed during a search.
type Operation struct {
	X     int       `json:"x" yaml:"x"`
	Y     int       `json:"y" yaml:"y"`
	Attr  Attribute `json:"attr" yaml:"attr"`
	Value bool      `json:"value" yaml:"value"`
}

func (o Operation) String() string {
	return fmt.Sprintf("(%d,%d) %s=%t", o.X, o.Y, o.Attr, o.Value)
}

// Recorder receives Operations in the order they happen.
type Recorder interface {
	Record(op Operation)
}

// OperationLog is the FIFO of Operations captured during the last search.
// It is not safe for concurrent use; its owner serializes access.
type OperationLog struct {
	ops      []Operation
	head     int
	recorded int
}

// NewOperationLog creates an empty log.
func NewOperationLog() *OperationLog {
	return &OperationLog{}
}

// Record appends an Operation at the tail.
func (l *OperationLog) Record(op Operation) {
	l.ops = append(l.ops, op)
	l.recorded++
}

// Pop removes and returns the oldest remaining Operation.
func (l *OperationLog) Pop() (Operation, bool) {
	if l.head >= len(l.ops) {
		return Operation{}, false
	}
	op := l.ops[l.head]
	l.head++
	if l.head == len(l.ops) {
		// fully drained, release the backing array
		l.ops = l.ops[:0]
		l.head = 0
	}
	return op, true
}

// Len returns the number of Operations not yet popped.
func (l *OperationLog) Len() int {
	return len(l.ops) - l.head
}

// Recorded returns how many Operations were appended since the last Clear.
func (l *OperationLog) Recorded() int {
	return l.recorded
}

// Pending returns a copy of the Operations not yet popped, oldest first.
func (l *OperationLog) Pending() []Operation {
	out := make([]Operation, l.Len())
	copy(out, l.ops[l.head:])
	return out
}

// Clear drops every Operation. Clearing an empty log is a no-op.
func (l *OperationLog) Clear() {
	l.ops = nil
	l.head = 0
	l.recorded = 0
}
