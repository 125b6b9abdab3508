package domain

import (
	"time"
)

// EventType defines the category of a lifecycle event.
type EventType string

const (
	EventTransition EventType = "transition"
	EventSearchDone EventType = "search_done"
	EventRendered   EventType = "rendered"
)

// EventBase contains common fields for all lifecycle events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// TransitionEvent is emitted after the controller changes state.
type TransitionEvent struct {
	EventBase
	From  State `json:"from"`
	To    State `json:"to"`
	Event Event `json:"event"`
}

// SearchEvent is emitted once the finder has returned, before playback begins.
type SearchEvent struct {
	EventBase
	Start Point `json:"start"`
	End   Point `json:"end"`
	Found bool  `json:"found"`
	Stats Stats `json:"stats"`
}

// RenderedEvent is emitted for every Operation forwarded to the renderer.
type RenderedEvent struct {
	EventBase
	Operation Operation `json:"operation"`
}

// LifecycleHooks defines callbacks for controller observability.
// Hooks run on the controller's thread and must not call back into it.
type LifecycleHooks struct {
	OnTransition func(*TransitionEvent)
	OnSearch     func(*SearchEvent)
	OnRendered   func(*RenderedEvent)
}

// Merge returns hooks that invoke h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTransition: chain(h.OnTransition, other.OnTransition),
		OnSearch:     chain(h.OnSearch, other.OnSearch),
		OnRendered:   chain(h.OnRendered, other.OnRendered),
	}
}

func chain[T any](a, b func(T)) func(T) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(v T) {
		a(v)
		b(v)
	}
}

// RenderKind names the renderer call carried by a RenderEvent.
type RenderKind string

const (
	RenderAttribute       RenderKind = "attribute"
	RenderStart           RenderKind = "start"
	RenderEnd             RenderKind = "end"
	RenderPath            RenderKind = "path"
	RenderStats           RenderKind = "stats"
	RenderClearFootprints RenderKind = "clear_footprints"
	RenderClearPath       RenderKind = "clear_path"
	RenderClearBlocked    RenderKind = "clear_blocked"
	RenderControls        RenderKind = "controls"
	RenderPrompt          RenderKind = "prompt"
)

// RenderEvent is one renderer call serialized for remote front ends.
type RenderEvent struct {
	Seq       uint64     `json:"seq"`
	Kind      RenderKind `json:"kind"`
	Operation *Operation `json:"operation,omitempty"`
	Point     *Point     `json:"point,omitempty"`
	Path      Path       `json:"path,omitempty"`
	Stats     *Stats     `json:"stats,omitempty"`
	Controls  []Control  `json:"controls,omitempty"`
}
