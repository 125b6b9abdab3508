package observability

import (
	"log/slog"

	"github.com/aretw0/wayfinder/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that write an audit trail to logger.
// Replayed operations are logged at debug level only.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(e *domain.TransitionEvent) {
			logger.Info("state_transition",
				"from", e.From,
				"to", e.To,
				"event", e.Event,
			)
		},
		OnSearch: func(e *domain.SearchEvent) {
			logger.Info("search_done",
				"start", e.Start.String(),
				"end", e.End.String(),
				"found", e.Found,
				"path_length", e.Stats.PathLength,
				"operations", e.Stats.OperationCount,
				"elapsed", e.Stats.TimeSpent,
			)
		},
		OnRendered: func(e *domain.RenderedEvent) {
			logger.Debug("operation_rendered", "op", e.Operation.String())
		},
	}
}
