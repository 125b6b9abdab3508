package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunLayoutStoreContract runs a suite of tests to verify that a LayoutStore implementation
// adheres to the defined interface contract.
func RunLayoutStoreContract(t *testing.T, store ports.LayoutStore) {
	t.Helper()
	ctx := context.Background()
	name := "contract-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		layout := &domain.Layout{
			Name:      name,
			Width:     8,
			Height:    6,
			Start:     &domain.Point{X: 1, Y: 1},
			End:       &domain.Point{X: 6, Y: 4},
			Walls:     []domain.Point{{X: 3, Y: 0}, {X: 3, Y: 1}},
			Locations: map[string]domain.Point{"301": {X: 5, Y: 5}},
		}

		err := store.Save(ctx, layout)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, name)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, layout.Width, loaded.Width)
		assert.Equal(t, layout.Height, loaded.Height)
		assert.Equal(t, layout.Start, loaded.Start)
		assert.Equal(t, layout.End, loaded.End)
		assert.Equal(t, layout.Walls, loaded.Walls)
		assert.Equal(t, layout.Locations, loaded.Locations)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+name)
		assert.ErrorIs(t, err, domain.ErrLayoutNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, &domain.Layout{Name: name, Width: 2, Height: 2})
		require.NoError(t, err)

		err = store.Delete(ctx, name)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, name)
		assert.ErrorIs(t, err, domain.ErrLayoutNotFound, "Load after Delete should return ErrLayoutNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := name + "-1"
		id2 := name + "-2"
		_ = store.Save(ctx, &domain.Layout{Name: id1, Width: 2, Height: 2})
		_ = store.Save(ctx, &domain.Layout{Name: id2, Width: 2, Height: 2})

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		names, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, id1)
		assert.Contains(t, names, id2)
	})
}
