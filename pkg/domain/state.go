package domain

import "time"

// State is a controller mode.
type State string

const (
	StateNone          State = "none" // Uninitialized
	StateReady         State = "ready"
	StateStarting      State = "starting"
	StateSearching     State = "searching"
	StatePaused        State = "paused"
	StateFinished      State = "finished"
	StateModified      State = "modified"
	StateRestarting    State = "restarting"
	StateDraggingStart State = "draggingStart"
	StateDraggingEnd   State = "draggingEnd"
	StateDrawingWall   State = "drawingWall"
	StateErasingWall   State = "erasingWall"
)

// States lists every declared state.
var States = []State{
	StateNone, StateReady, StateStarting, StateSearching, StatePaused, StateFinished,
	StateModified, StateRestarting, StateDraggingStart, StateDraggingEnd,
	StateDrawingWall, StateErasingWall,
}

// Event moves the controller between states.
type Event string

const (
	EventInit      Event = "init"
	EventStart     Event = "start"
	EventSearch    Event = "search"
	EventPause     Event = "pause"
	EventResume    Event = "resume"
	EventCancel    Event = "cancel"
	EventFinish    Event = "finish"
	EventModify    Event = "modify"
	EventRestart   Event = "restart"
	EventClear     Event = "clear"
	EventReset     Event = "reset"
	EventDragStart Event = "dragStart"
	EventDragEnd   Event = "dragEnd"
	EventDrawWall  Event = "drawWall"
	EventEraseWall Event = "eraseWall"
	EventRest      Event = "rest"
)

// Events lists every declared event.
var Events = []Event{
	EventInit, EventStart, EventSearch, EventPause, EventResume, EventCancel,
	EventFinish, EventModify, EventRestart, EventClear, EventReset,
	EventDragStart, EventDragEnd, EventDrawWall, EventEraseWall, EventRest,
}

// Control is an action a front end may offer as a button in the current state.
type Control struct {
	Slot    int    `json:"slot"`
	Label   string `json:"label"`
	Event   Event  `json:"event,omitempty"`
	Enabled bool   `json:"enabled"`
}

// Stats summarises the last completed search.
type Stats struct {
	PathLength     float64       `json:"path_length"`
	TimeSpent      time.Duration `json:"time_spent"`
	OperationCount int           `json:"operation_count"`
}

// EndpointChoice is the answer to an endpoint-assignment prompt.
type EndpointChoice string

const (
	ChoiceStart  EndpointChoice = "start"
	ChoiceEnd    EndpointChoice = "end"
	ChoiceCancel EndpointChoice = "cancel"
)

// Snapshot is a read-only view of the controller for front ends.
type Snapshot struct {
	State    State     `json:"state"`
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	Start    *Point    `json:"start,omitempty"`
	End      *Point    `json:"end,omitempty"`
	Walls    []Point   `json:"walls,omitempty"`
	Path     Path      `json:"path,omitempty"`
	Stats    *Stats    `json:"stats,omitempty"`
	Pending  int       `json:"pending"`
	Controls []Control `json:"controls,omitempty"`
}
