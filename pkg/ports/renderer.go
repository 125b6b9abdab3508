package ports

import (
	"time"

	"github.com/aretw0/wayfinder/pkg/domain"
)

// Renderer is the visual collaborator of the controller.
type Renderer interface {
	// SetAttributeAt displays a walkability or exploration attribute of a cell.
	SetAttributeAt(x, y int, attr domain.Attribute, value bool)
	SetStartPos(p domain.Point)
	SetEndPos(p domain.Point)
	DrawPath(path domain.Path)
	ShowStats(stats domain.Stats)
	ClearFootprints()
	ClearPath()
	ClearBlockedNodes()

	// SupportedOperations lists the exploration attributes the renderer displays.
	// Replayed operations with other attributes are skipped.
	SupportedOperations() []domain.Attribute

	// AnimationDuration is how long a single attribute animation lasts.
	AnimationDuration() time.Duration
}

// AnimationNotifier is implemented by renderers that can signal when every
// in-flight animation has completed. done may be called immediately.
type AnimationNotifier interface {
	AwaitAnimations(done func())
}

// ControlPanel is implemented by renderers that display the available actions.
type ControlPanel interface {
	SetControls(controls []domain.Control)
}

// EndpointPrompt opens the endpoint-assignment affordance for a cell.
// choose is called at most once with the user's answer.
type EndpointPrompt interface {
	PromptEndpoint(p domain.Point, choose func(domain.EndpointChoice))
}
