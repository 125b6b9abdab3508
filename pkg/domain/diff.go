package domain

import (
	"reflect"
	"strconv"
)

// SnapshotDiff represents the changes between two snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type SnapshotDiff struct {
	State    *State    `json:"state,omitempty"`
	Start    *Point    `json:"start,omitempty"`
	End      *Point    `json:"end,omitempty"`
	Pending  *int      `json:"pending,omitempty"`
	Stats    *Stats    `json:"stats,omitempty"`
	Path     Path      `json:"path,omitempty"`
	Controls []Control `json:"controls,omitempty"`

	// WallsDelta lists cells whose walkability changed, keyed "x,y" with the new walkable value.
	WallsDelta map[string]bool `json:"walls,omitempty"`
}

// Diff calculates the difference between old and new.
// If old is nil, it returns a diff representing the entire new snapshot (initial load).
// It returns nil when nothing changed.
func Diff(old, new *Snapshot) *SnapshotDiff {
	if new == nil {
		return nil
	}

	diff := &SnapshotDiff{}

	if old == nil || old.State != new.State {
		diff.State = &new.State
	}
	if !equalPtr(oldStart(old), new.Start) {
		diff.Start = new.Start
	}
	if !equalPtr(oldEnd(old), new.End) {
		diff.End = new.End
	}
	if old == nil || old.Pending != new.Pending {
		diff.Pending = &new.Pending
	}
	if new.Stats != nil && (old == nil || !equalPtr(old.Stats, new.Stats)) {
		diff.Stats = new.Stats
	}
	if len(new.Path) > 0 && (old == nil || !reflect.DeepEqual(old.Path, new.Path)) {
		diff.Path = new.Path
	}
	if old == nil || !reflect.DeepEqual(old.Controls, new.Controls) {
		diff.Controls = new.Controls
	}
	diff.WallsDelta = diffWalls(old, new)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func oldStart(s *Snapshot) *Point {
	if s == nil {
		return nil
	}
	return s.Start
}

func oldEnd(s *Snapshot) *Point {
	if s == nil {
		return nil
	}
	return s.End
}

func diffWalls(old, new *Snapshot) map[string]bool {
	delta := make(map[string]bool)
	prev := map[Point]bool{}
	if old != nil {
		for _, w := range old.Walls {
			prev[w] = true
		}
	}
	next := map[Point]bool{}
	for _, w := range new.Walls {
		next[w] = true
		if !prev[w] {
			delta[key(w)] = false
		}
	}
	for w := range prev {
		if !next[w] {
			delta[key(w)] = true
		}
	}
	if len(delta) == 0 {
		return nil
	}
	return delta
}

func key(p Point) string {
	return strconv.Itoa(p.X) + "," + strconv.Itoa(p.Y)
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SnapshotDiff) IsEmpty() bool {
	return d.State == nil &&
		d.Start == nil &&
		d.End == nil &&
		d.Pending == nil &&
		d.Stats == nil &&
		len(d.Path) == 0 &&
		d.Controls == nil &&
		len(d.WallsDelta) == 0
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
