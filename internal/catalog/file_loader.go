package catalog

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileLoader reads the snapshot from a YAML document.
type FileLoader struct {
	path string
}

func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

func (l *FileLoader) Load(_ context.Context) (*Snapshot, error) {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", l.path, err)
	}
	return Parse(raw)
}

// Parse decodes a YAML snapshot and applies defaults.
func Parse(raw []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := yaml.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("catalog: decode yaml: %w", err)
	}
	if err := snap.normalize(); err != nil {
		return nil, err
	}
	return &snap, nil
}
