package runtime

import (
	"fmt"

	"github.com/aretw0/wayfinder/pkg/domain"
)

// Rule declares that Event moves the controller from any of From to To.
type Rule struct {
	Event domain.Event
	From  []domain.State // nil means any state
	To    domain.State
}

// DefaultRules is the transition table of the visualizer.
var DefaultRules = []Rule{
	{Event: domain.EventInit, From: []domain.State{domain.StateNone}, To: domain.StateReady},
	{Event: domain.EventSearch, From: []domain.State{domain.StateStarting}, To: domain.StateSearching},
	{Event: domain.EventPause, From: []domain.State{domain.StateSearching}, To: domain.StatePaused},
	{Event: domain.EventFinish, From: []domain.State{domain.StateSearching}, To: domain.StateFinished},
	{Event: domain.EventResume, From: []domain.State{domain.StatePaused}, To: domain.StateSearching},
	{Event: domain.EventCancel, From: []domain.State{domain.StatePaused}, To: domain.StateReady},
	{Event: domain.EventModify, From: []domain.State{domain.StateFinished}, To: domain.StateModified},
	{Event: domain.EventReset, From: nil, To: domain.StateReady},
	{Event: domain.EventClear, From: []domain.State{domain.StateFinished, domain.StateModified}, To: domain.StateReady},
	{Event: domain.EventStart, From: []domain.State{domain.StateReady, domain.StateModified, domain.StateRestarting}, To: domain.StateStarting},
	{Event: domain.EventRestart, From: []domain.State{domain.StateSearching, domain.StateFinished}, To: domain.StateRestarting},
	{Event: domain.EventDragStart, From: []domain.State{domain.StateReady, domain.StateFinished}, To: domain.StateDraggingStart},
	{Event: domain.EventDragEnd, From: []domain.State{domain.StateReady, domain.StateFinished}, To: domain.StateDraggingEnd},
	{Event: domain.EventDrawWall, From: []domain.State{domain.StateReady, domain.StateFinished}, To: domain.StateDrawingWall},
	{Event: domain.EventEraseWall, From: []domain.State{domain.StateReady, domain.StateFinished}, To: domain.StateErasingWall},
	{Event: domain.EventRest, From: []domain.State{domain.StateDraggingStart, domain.StateDraggingEnd, domain.StateDrawingWall, domain.StateErasingWall}, To: domain.StateReady},
}

type transitionKey struct {
	from  domain.State
	event domain.Event
}

// Machine resolves transitions with an exact (state, event) table and falls back
// to a wildcard table keyed by event alone.
type Machine struct {
	exact    map[transitionKey]domain.State
	wildcard map[domain.Event]domain.State
}

// NewMachine compiles rules into lookup tables.
// It fails if two rules claim the same (state, event) pair.
func NewMachine(rules []Rule) (*Machine, error) {
	m := &Machine{
		exact:    make(map[transitionKey]domain.State),
		wildcard: make(map[domain.Event]domain.State),
	}
	for _, r := range rules {
		if r.From == nil {
			if _, dup := m.wildcard[r.Event]; dup {
				return nil, fmt.Errorf("duplicate wildcard rule for %q", r.Event)
			}
			m.wildcard[r.Event] = r.To
			continue
		}
		for _, from := range r.From {
			k := transitionKey{from: from, event: r.Event}
			if _, dup := m.exact[k]; dup {
				return nil, fmt.Errorf("duplicate rule for %q from %q", r.Event, from)
			}
			m.exact[k] = r.To
		}
	}
	return m, nil
}

// MustMachine is like NewMachine but panics on an inconsistent table.
func MustMachine(rules []Rule) *Machine {
	m, err := NewMachine(rules)
	if err != nil {
		panic(err)
	}
	return m
}

// Next returns the target state of event from the given state.
func (m *Machine) Next(from domain.State, event domain.Event) (domain.State, bool) {
	if to, ok := m.exact[transitionKey{from: from, event: event}]; ok {
		return to, true
	}
	to, ok := m.wildcard[event]
	return to, ok
}

// Can reports whether event is legal from the given state.
func (m *Machine) Can(from domain.State, event domain.Event) bool {
	_, ok := m.Next(from, event)
	return ok
}

// Available lists the events legal from the given state, in declaration order.
func (m *Machine) Available(from domain.State) []domain.Event {
	var out []domain.Event
	for _, e := range domain.Events {
		if m.Can(from, e) {
			out = append(out, e)
		}
	}
	return out
}
