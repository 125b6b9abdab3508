package ports

import "github.com/aretw0/wayfinder/pkg/domain"

// Finder computes a path between two cells of grid.
// It must run synchronously to completion and must only touch exploration flags
// through the grid's nodes, so that every write reaches the attached Recorder.
// An empty path means no route exists.
type Finder interface {
	FindPath(start, end domain.Point, grid *domain.Grid) domain.Path
}

// FinderFunc adapts a plain function to the Finder interface.
type FinderFunc func(start, end domain.Point, grid *domain.Grid) domain.Path

// FindPath calls f.
func (f FinderFunc) FindPath(start, end domain.Point, grid *domain.Grid) domain.Path {
	return f(start, end, grid)
}
