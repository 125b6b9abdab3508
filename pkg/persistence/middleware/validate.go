package middleware

import (
	"context"

	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/ports"
)

type validateMiddleware struct {
	next ports.LayoutStore
}

// NewValidateMiddleware rejects out-of-bounds layouts on save and on load.
func NewValidateMiddleware() Middleware {
	return func(next ports.LayoutStore) ports.LayoutStore {
		return &validateMiddleware{next: next}
	}
}

func (m *validateMiddleware) Save(ctx context.Context, layout *domain.Layout) error {
	if err := layout.Validate(); err != nil {
		return err
	}
	return m.next.Save(ctx, layout)
}

func (m *validateMiddleware) Load(ctx context.Context, name string) (*domain.Layout, error) {
	layout, err := m.next.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return layout, nil
}

func (m *validateMiddleware) Delete(ctx context.Context, name string) error {
	return m.next.Delete(ctx, name)
}

func (m *validateMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
