package finder

import (
	"fmt"
	"math"
)

// Heuristic estimates the distance covered by an offset of dx, dy cells.
type Heuristic func(dx, dy int) float64

func Manhattan(dx, dy int) float64 {
	return float64(abs(dx) + abs(dy))
}

func Euclidean(dx, dy int) float64 {
	return math.Hypot(float64(dx), float64(dy))
}

// Octile is exact on grids with uniform diagonal moves of cost sqrt(2).
func Octile(dx, dy int) float64 {
	x, y := float64(abs(dx)), float64(abs(dy))
	return (math.Sqrt2-1)*math.Min(x, y) + math.Max(x, y)
}

func Chebyshev(dx, dy int) float64 {
	return float64(max(abs(dx), abs(dy)))
}

// HeuristicByName resolves a configured heuristic name.
func HeuristicByName(name string) (Heuristic, error) {
	switch name {
	case "", "manhattan":
		return Manhattan, nil
	case "euclidean":
		return Euclidean, nil
	case "octile":
		return Octile, nil
	case "chebyshev":
		return Chebyshev, nil
	}
	return nil, fmt.Errorf("unknown heuristic %q", name)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
