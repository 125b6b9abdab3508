package ports

import (
	"context"

	"github.com/aretw0/wayfinder/pkg/domain"
)

// LayoutStore defines the interface for persisting named layouts.
type LayoutStore interface {
	// Save persists the layout under its name.
	Save(ctx context.Context, layout *domain.Layout) error

	// Load retrieves a layout by name.
	// Returns domain.ErrLayoutNotFound if the layout does not exist.
	Load(ctx context.Context, name string) (*domain.Layout, error)

	// Delete removes the layout. Deleting a missing layout is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of stored layouts.
	List(ctx context.Context) ([]string, error)
}
