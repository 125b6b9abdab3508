package runtime

import (
	"log/slog"

	"github.com/aretw0/wayfinder/internal/logging"
	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/ports"
)

// WallMode selects what a pointer-down on a free cell does.
type WallMode string

const (
	// WallModeAssign offers to place the start or end marker on the cell.
	WallModeAssign WallMode = "assign"
	// WallModePaint draws walls on free cells and erases them on blocked ones.
	WallModePaint WallMode = "paint"
)

// Dispatcher turns pointer input, already mapped to grid cells, into controller events.
type Dispatcher struct {
	ctrl   *Controller
	mode   WallMode
	prompt ports.EndpointPrompt
	logger *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithWallMode sets the pointer-down behaviour on free cells.
func WithWallMode(mode WallMode) DispatcherOption {
	return func(d *Dispatcher) {
		d.mode = mode
	}
}

// WithPrompt sets the endpoint assignment prompt used in WallModeAssign.
func WithPrompt(prompt ports.EndpointPrompt) DispatcherOption {
	return func(d *Dispatcher) {
		d.prompt = prompt
	}
}

// WithDispatcherLogger sets the logger.
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a dispatcher bound to ctrl.
func NewDispatcher(ctrl *Controller, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		ctrl:   ctrl,
		mode:   WallModeAssign,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Mode returns the configured wall mode.
func (d *Dispatcher) Mode() WallMode { return d.mode }

// PointerDown handles a press on cell p.
func (d *Dispatcher) PointerDown(p domain.Point) {
	c := d.ctrl
	if !c.Contains(p) {
		return
	}

	switch {
	case c.IsStart(p):
		if c.Can(domain.EventDragStart) {
			d.apply(c.DragStart())
		}
		return
	case c.IsEnd(p):
		if c.Can(domain.EventDragEnd) {
			d.apply(c.DragEnd())
		}
		return
	}

	switch d.mode {
	case WallModePaint:
		if c.IsWalkableAt(p) {
			if c.Can(domain.EventDrawWall) {
				d.apply(c.DrawWall(p))
			}
		} else if c.Can(domain.EventEraseWall) {
			d.apply(c.EraseWall(p))
		}
	default:
		if c.IsWalkableAt(p) && acceptsEndpointChoice(c.State()) && d.prompt != nil {
			d.prompt.PromptEndpoint(p, func(choice domain.EndpointChoice) {
				d.assign(p, choice)
			})
		}
	}
}

// PointerMove handles the pointer entering cell p.
func (d *Dispatcher) PointerMove(p domain.Point) {
	c := d.ctrl
	if !c.Contains(p) || c.IsEndpoint(p) {
		return
	}

	switch c.State() {
	case domain.StateDraggingStart:
		if c.IsWalkableAt(p) {
			d.apply(c.SetStart(p))
		}
	case domain.StateDraggingEnd:
		if c.IsWalkableAt(p) {
			d.apply(c.SetEnd(p))
		}
	case domain.StateDrawingWall:
		d.apply(c.SetWalkableAt(p, false))
	case domain.StateErasingWall:
		d.apply(c.SetWalkableAt(p, true))
	}
}

// PointerUp ends any drag or paint gesture.
func (d *Dispatcher) PointerUp() {
	if d.ctrl.Can(domain.EventRest) {
		d.apply(d.ctrl.Rest())
	}
}

// assign applies an answer from the endpoint prompt. The grid may have changed
// while the prompt was open, so the cell is checked again.
func (d *Dispatcher) assign(p domain.Point, choice domain.EndpointChoice) {
	c := d.ctrl
	if choice == domain.ChoiceCancel {
		return
	}
	if !c.IsWalkableAt(p) || c.IsEndpoint(p) {
		d.logger.Debug("Ignoring endpoint choice on unavailable cell", "cell", p.String(), "choice", choice)
		return
	}
	if !acceptsEndpointChoice(c.State()) {
		d.logger.Debug("Ignoring endpoint choice while busy", "state", c.State(), "choice", choice)
		return
	}

	switch choice {
	case domain.ChoiceStart:
		d.apply(c.SetStart(p))
	case domain.ChoiceEnd:
		d.apply(c.SetEnd(p))
	}
}

func (d *Dispatcher) apply(err error) {
	if err != nil {
		d.logger.Warn("Pointer input rejected", "err", err)
	}
}

// acceptsEndpointChoice gates both opening the prompt and applying its answer.
func acceptsEndpointChoice(s domain.State) bool {
	switch s {
	case domain.StateReady, domain.StateFinished, domain.StateModified:
		return true
	}
	return false
}
