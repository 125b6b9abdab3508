package finder

import "github.com/aretw0/wayfinder/pkg/domain"

// BreadthFirst explores in rings of equal step count.
type BreadthFirst struct {
	opts Options
}

// NewBreadthFirst returns a breadth-first finder. Heuristic and weight are ignored.
func NewBreadthFirst(opts ...Option) *BreadthFirst {
	return &BreadthFirst{opts: defaults(opts)}
}

func (b *BreadthFirst) FindPath(start, end domain.Point, grid *domain.Grid) domain.Path {
	startNode, endNode, ok := endpoints(grid, start, end)
	if !ok {
		return nil
	}

	parent := make(map[domain.Point]domain.Point)
	queue := []*domain.Node{startNode}
	startNode.SetOpened(true)

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		node.SetClosed(true)

		if node == endNode {
			return backtrace(parent, start, end)
		}

		for _, nb := range grid.Neighbors(node, b.opts.Diagonal) {
			if nb.Closed() || nb.Opened() {
				continue
			}
			queue = append(queue, nb)
			nb.SetOpened(true)
			parent[nb.Point()] = node.Point()
		}
	}
	return nil
}
