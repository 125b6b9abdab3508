// Package finder provides grid pathfinding algorithms that write their
// exploration (opened, closed, tested) through the grid's nodes, so that an
// instrumented grid records every step for replay.
package finder

import (
	"fmt"
	"sort"

	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/ports"
)

// Options tune a finder.
type Options struct {
	Diagonal  domain.DiagonalMovement
	Heuristic Heuristic
	Weight    float64
}

// Option configures Options.
type Option func(*Options)

// WithDiagonal sets the diagonal movement rule.
func WithDiagonal(d domain.DiagonalMovement) Option {
	return func(o *Options) {
		o.Diagonal = d
	}
}

// WithHeuristic sets the distance estimate used by A* and best-first.
func WithHeuristic(h Heuristic) Option {
	return func(o *Options) {
		if h != nil {
			o.Heuristic = h
		}
	}
}

// WithWeight scales the heuristic of A*. Values above 1 trade optimality for speed.
func WithWeight(w float64) Option {
	return func(o *Options) {
		if w > 0 {
			o.Weight = w
		}
	}
}

func defaults(opts []Option) Options {
	o := Options{
		Diagonal:  domain.DiagonalNever,
		Heuristic: Manhattan,
		Weight:    1,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

var registry = map[string]func(...Option) ports.Finder{
	"astar":         func(opts ...Option) ports.Finder { return NewAStar(opts...) },
	"best-first":    func(opts ...Option) ports.Finder { return NewBestFirst(opts...) },
	"dijkstra":      func(opts ...Option) ports.Finder { return NewDijkstra(opts...) },
	"breadth-first": func(opts ...Option) ports.Finder { return NewBreadthFirst(opts...) },
}

// New returns the finder registered under name.
func New(name string, opts ...Option) (ports.Finder, error) {
	build, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", domain.ErrUnknownFinder, name, Names())
	}
	return build(opts...), nil
}

// Names lists the registered finders, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// backtrace follows parents from end back to start.
func backtrace(parent map[domain.Point]domain.Point, start, end domain.Point) domain.Path {
	path := domain.Path{end}
	for p := end; p != start; {
		p = parent[p]
		path = append(path, p)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func endpoints(grid *domain.Grid, start, end domain.Point) (*domain.Node, *domain.Node, bool) {
	s, err := grid.NodeAt(start.X, start.Y)
	if err != nil {
		return nil, nil, false
	}
	e, err := grid.NodeAt(end.X, end.Y)
	if err != nil {
		return nil, nil, false
	}
	return s, e, true
}
