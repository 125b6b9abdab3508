package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/wayfinder/internal/runtime"
	"github.com/aretw0/wayfinder/pkg/domain"
)

// Overlay marks states on the diagram.
type Overlay struct {
	Visited []domain.State
	Current domain.State
}

// GenerateMermaid produces a Mermaid state diagram from a transition table.
// A rule without source states is drawn from every declared state.
func GenerateMermaid(rules []runtime.Rule, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("stateDiagram-v2\n")
	sb.WriteString(fmt.Sprintf("    [*] --> %s\n", domain.StateNone))

	for _, r := range rules {
		from := r.From
		if from == nil {
			from = domain.States
		}
		for _, s := range from {
			sb.WriteString(fmt.Sprintf("    %s --> %s : %s\n", s, r.To, r.Event))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000\n")

		seen := make(map[domain.State]bool)
		for _, s := range overlay.Visited {
			if s == "" || seen[s] || s == overlay.Current {
				continue
			}
			seen[s] = true
			sb.WriteString(fmt.Sprintf("    class %s visited\n", s))
		}
		if overlay.Current != "" {
			sb.WriteString(fmt.Sprintf("    class %s current\n", overlay.Current))
		}
	}

	return sb.String()
}
