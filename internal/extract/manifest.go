// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/zipflat/pkg/types"
)

// WriteManifest records a batch result at path. The format follows the
// extension: .yaml/.yml for YAML, .json for JSON.
func WriteManifest(path string, result types.BatchResult) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(&result)
	case ".json":
		data, err = json.MarshalIndent(&result, "", "  ")
	default:
		return fmt.Errorf("unsupported manifest extension %q: use .yaml, .yml, or .json", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating manifest directory %s: %w", dir, err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadManifest loads a batch result previously written by WriteManifest.
func ReadManifest(path string) (types.BatchResult, error) {
	var result types.BatchResult
	data, err := os.ReadFile(path)
	if err != nil {
		return result, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &result)
	case ".json":
		err = json.Unmarshal(data, &result)
	default:
		return result, fmt.Errorf("unsupported manifest extension %q", filepath.Ext(path))
	}
	if err != nil {
		return result, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return result, nil
}
