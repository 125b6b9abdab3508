/*
Package wayfinder is an interactive pathfinding visualizer core: a state machine
that runs a grid search, records every step the algorithm takes, and replays
those steps to a view at a fixed rate while the user pauses, resumes, edits the
grid or restarts.

# Concept

A search runs to completion instantly on an instrumented copy of the grid. Each
attribute change (opened, closed, tested) becomes an Operation in a log, and the
log is drained to the Renderer at a configurable number of operations per
second. The controller's state decides which user inputs are legal, so editing
the grid mid-search, dragging endpoints after a finished search, and clearing
walls all have well-defined outcomes.

The view is a port. Any type implementing ports.Renderer can display a session:
the terminal renderer, the stream publisher behind the HTTP and MCP adapters,
or a test double.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/wayfinder"
		"github.com/aretw0/wayfinder/pkg/domain"
	)

	func main() {
		ctx := context.Background()

		s, err := wayfinder.New(
			wayfinder.WithGridSize(20, 10),
			wayfinder.WithOperationsPerSecond(500),
		)
		if err != nil {
			log.Fatal(err)
		}
		defer s.Close()

		_ = s.SetStart(ctx, domain.Point{X: 0, Y: 0})
		_ = s.SetEnd(ctx, domain.Point{X: 19, Y: 9})
		_ = s.SetWalkableAt(ctx, domain.Point{X: 5, Y: 5}, false)

		if err := s.Start(ctx); err != nil {
			log.Fatal(err)
		}
		if _, err := s.Wait(ctx, domain.StateFinished); err != nil {
			log.Fatal(err)
		}

		snap, _ := s.Snapshot(ctx)
		log.Printf("path of %d cells", len(snap.Path))
	}
*/
package wayfinder
