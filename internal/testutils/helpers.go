package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// WriteLayoutFile marshals layout as YAML into a temporary directory and returns its path.
// It fails the test immediately on error.
func WriteLayoutFile(t *testing.T, layout *domain.Layout) string {
	t.Helper()

	data, err := yaml.Marshal(layout)
	require.NoError(t, err, "Failed to marshal layout")

	path := filepath.Join(t.TempDir(), layout.Name+".yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644), "Failed to write layout file")
	return path
}

// RowMajorFinder opens every walkable cell in row-major order and then returns path.
// It stands in for a real algorithm when only the recorded log matters.
func RowMajorFinder(path domain.Path) func(start, end domain.Point, grid *domain.Grid) domain.Path {
	return func(start, end domain.Point, grid *domain.Grid) domain.Path {
		for y := 0; y < grid.Height(); y++ {
			for x := 0; x < grid.Width(); x++ {
				if grid.IsWalkableAt(x, y) {
					n, _ := grid.NodeAt(x, y)
					n.SetOpened(true)
				}
			}
		}
		return path
	}
}
