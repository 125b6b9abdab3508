package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/wayfinder/pkg/domain"
	"gopkg.in/yaml.v3"
)

const ext = ".yaml"

// Store implements ports.LayoutStore using the local filesystem.
// Each layout is a YAML file named after the layout in a configured directory.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".wayfinder/layouts".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".wayfinder", "layouts")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("layout name cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid layout name %q", name)
	}
	return filepath.Join(s.BasePath, name+ext), nil
}

// Save writes the layout atomically: to a temporary file first, synced, then renamed.
func (s *Store) Save(ctx context.Context, layout *domain.Layout) error {
	destPath, err := s.path(layout.Name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure layout directory: %w", err)
	}

	data, err := yaml.Marshal(layout)
	if err != nil {
		return fmt.Errorf("failed to marshal layout: %w", err)
	}

	// Same directory so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+layout.Name+"-*"+ext)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Windows refuses to rename over an existing file.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing layout file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to layout: %w", err)
	}
	return nil
}

// Load reads a layout by name.
func (s *Store) Load(ctx context.Context, name string) (*domain.Layout, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	layout, err := ReadLayout(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", domain.ErrLayoutNotFound, name)
		}
		return nil, err
	}
	return layout, nil
}

// Delete removes the layout file.
func (s *Store) Delete(ctx context.Context, name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete layout file: %w", err)
	}
	return nil
}

// List returns the layout names found in the directory, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list layouts: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ext || strings.HasPrefix(name, "tmp-") {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ext))
	}
	sort.Strings(names)
	return names, nil
}

// ReadLayout decodes a single YAML layout file and validates it.
// A missing name defaults to the file's base name.
func ReadLayout(path string) (*domain.Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var layout domain.Layout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("failed to parse layout %s: %w", path, err)
	}
	if layout.Name == "" {
		layout.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return &layout, nil
}
