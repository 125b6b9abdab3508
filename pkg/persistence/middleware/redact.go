package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/ports"
)

type redactMiddleware struct {
	next     ports.LayoutStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware drops named locations matching any pattern before they are stored.
func NewRedactMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.LayoutStore) ports.LayoutStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *redactMiddleware) Save(ctx context.Context, layout *domain.Layout) error {
	// Work on a copy; the caller's layout may back a live session.
	cloned := layout.Clone()
	for name := range cloned.Locations {
		for _, p := range m.patterns {
			if p.MatchString(name) {
				delete(cloned.Locations, name)
				break
			}
		}
	}
	return m.next.Save(ctx, cloned)
}

func (m *redactMiddleware) Load(ctx context.Context, name string) (*domain.Layout, error) {
	return m.next.Load(ctx, name)
}

func (m *redactMiddleware) Delete(ctx context.Context, name string) error {
	return m.next.Delete(ctx, name)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
