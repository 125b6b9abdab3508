package finder

import (
	"math"

	"github.com/aretw0/wayfinder/pkg/domain"
)

// AStar is A* search over a grid. Best-first and Dijkstra are the same loop with
// the heuristic scaled up or switched off.
type AStar struct {
	opts  Options
	scale float64
}

// NewAStar returns an A* finder.
func NewAStar(opts ...Option) *AStar {
	o := defaults(opts)
	return &AStar{opts: o, scale: o.Weight}
}

// NewBestFirst returns a greedy best-first finder: the heuristic dominates the
// accumulated cost, so the result is fast but not always shortest.
func NewBestFirst(opts ...Option) *AStar {
	o := defaults(opts)
	return &AStar{opts: o, scale: 1000000}
}

// NewDijkstra returns a uniform-cost finder.
func NewDijkstra(opts ...Option) *AStar {
	o := defaults(opts)
	return &AStar{opts: o, scale: 0}
}

// FindPath marks nodes opened when they join the open list, closed when they are
// expanded and tested when they are inspected as a neighbour.
func (a *AStar) FindPath(start, end domain.Point, grid *domain.Grid) domain.Path {
	startNode, endNode, ok := endpoints(grid, start, end)
	if !ok {
		return nil
	}

	g := map[domain.Point]float64{start: 0}
	h := make(map[domain.Point]float64)
	parent := make(map[domain.Point]domain.Point)

	open := newOpenList()
	open.push(startNode, 0)
	startNode.SetOpened(true)

	for open.Len() > 0 {
		node := open.pop()
		node.SetClosed(true)

		if node == endNode {
			return backtrace(parent, start, end)
		}

		for _, nb := range grid.Neighbors(node, a.opts.Diagonal) {
			if nb.Closed() {
				continue
			}
			if !nb.Tested() {
				nb.SetTested(true)
			}

			step := 1.0
			if nb.X != node.X && nb.Y != node.Y {
				step = math.Sqrt2
			}
			ng := g[node.Point()] + step
			p := nb.Point()

			if nb.Opened() && ng >= g[p] {
				continue
			}
			g[p] = ng
			if _, seen := h[p]; !seen {
				h[p] = a.scale * a.opts.Heuristic(p.X-end.X, p.Y-end.Y)
			}
			parent[p] = node.Point()

			f := ng + h[p]
			if nb.Opened() {
				open.update(nb, f)
			} else {
				open.push(nb, f)
				nb.SetOpened(true)
			}
		}
	}
	return nil
}
