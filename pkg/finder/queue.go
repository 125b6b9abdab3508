package finder

import (
	"container/heap"

	"github.com/aretw0/wayfinder/pkg/domain"
)

type entry struct {
	node  *domain.Node
	f     float64
	seq   int
	index int
}

// openList is a min-heap on f. Ties go to the entry pushed first so that runs are
// deterministic and replays are stable.
type openList struct {
	items []*entry
	byPos map[domain.Point]*entry
	seq   int
}

func newOpenList() *openList {
	return &openList{byPos: make(map[domain.Point]*entry)}
}

func (q *openList) Len() int { return len(q.items) }

func (q *openList) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.f != b.f {
		return a.f < b.f
	}
	return a.seq < b.seq
}

func (q *openList) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.items[i].index = i
	q.items[j].index = j
}

func (q *openList) Push(x any) {
	e := x.(*entry)
	e.index = len(q.items)
	q.items = append(q.items, e)
}

func (q *openList) Pop() any {
	old := q.items
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	q.items = old[:n-1]
	e.index = -1
	return e
}

func (q *openList) push(n *domain.Node, f float64) {
	e := &entry{node: n, f: f, seq: q.seq}
	q.seq++
	q.byPos[n.Point()] = e
	heap.Push(q, e)
}

// update lowers the priority of a node already in the list.
func (q *openList) update(n *domain.Node, f float64) {
	e, ok := q.byPos[n.Point()]
	if !ok || e.index < 0 {
		return
	}
	e.f = f
	heap.Fix(q, e.index)
}

func (q *openList) pop() *domain.Node {
	e := heap.Pop(q).(*entry)
	delete(q.byPos, e.node.Point())
	return e.node
}
