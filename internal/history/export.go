// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportYAML writes the full record of run id to path as YAML.
func (s *Store) ExportYAML(ctx context.Context, id int64, path string) error {
	result, err := s.Run(ctx, id)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(&result)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return writeExport(path, data)
}

// ExportJSON writes the full record of run id to path as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, id int64, path string) error {
	result, err := s.Run(ctx, id)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(&result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return writeExport(path, data)
}

func writeExport(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
