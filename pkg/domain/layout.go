package domain

import (
	"fmt"
	"maps"
	"sort"
)

// Layout is a stored grid configuration: a floor plan with its default endpoints
// and a table of named locations (e.g. room numbers) mapped to grid coordinates.
type Layout struct {
	Name      string           `json:"name" yaml:"name"`
	Width     int              `json:"width" yaml:"width"`
	Height    int              `json:"height" yaml:"height"`
	Start     *Point           `json:"start,omitempty" yaml:"start,omitempty"`
	End       *Point           `json:"end,omitempty" yaml:"end,omitempty"`
	Walls     []Point          `json:"walls,omitempty" yaml:"walls,omitempty"`
	Locations map[string]Point `json:"locations,omitempty" yaml:"locations,omitempty"`
}

// Validate checks that every coordinate of the layout is inside its bounds.
func (l *Layout) Validate() error {
	if err := CheckGridSize(l.Width, l.Height); err != nil {
		return fmt.Errorf("layout %q: %w: %w", l.Name, ErrInvalidLayout, err)
	}
	in := func(p Point) bool { return p.X >= 0 && p.X < l.Width && p.Y >= 0 && p.Y < l.Height }
	if l.Start != nil && !in(*l.Start) {
		return fmt.Errorf("layout %q: start %s: %w", l.Name, *l.Start, ErrOutOfBounds)
	}
	if l.End != nil && !in(*l.End) {
		return fmt.Errorf("layout %q: end %s: %w", l.Name, *l.End, ErrOutOfBounds)
	}
	for _, w := range l.Walls {
		if !in(w) {
			return fmt.Errorf("layout %q: wall %s: %w", l.Name, w, ErrOutOfBounds)
		}
	}
	for name, p := range l.Locations {
		if !in(p) {
			return fmt.Errorf("layout %q: location %q %s: %w", l.Name, name, p, ErrOutOfBounds)
		}
	}
	return nil
}

// Lookup returns the coordinate of a named location.
func (l *Layout) Lookup(name string) (Point, error) {
	p, ok := l.Locations[name]
	if !ok {
		return Point{}, fmt.Errorf("%w: %q", ErrUnknownLocation, name)
	}
	return p, nil
}

// LocationNames returns the location names sorted.
func (l *Layout) LocationNames() []string {
	names := make([]string, 0, len(l.Locations))
	for n := range l.Locations {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the layout.
func (l *Layout) Clone() *Layout {
	out := *l
	if l.Start != nil {
		p := *l.Start
		out.Start = &p
	}
	if l.End != nil {
		p := *l.End
		out.End = &p
	}
	out.Walls = append([]Point(nil), l.Walls...)
	out.Locations = maps.Clone(l.Locations)
	return &out
}
