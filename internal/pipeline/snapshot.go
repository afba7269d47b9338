// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/discourse-metrics/pkg/types"
)

// Snapshot file names inside the output directory.
const (
	SnapshotJSON = "metrics_data.json"
	SnapshotYAML = "metrics_data.yaml"
)

// MarshalSnapshot encodes snap as indented JSON with a trailing newline.
// The encoding is deterministic for a given snapshot.
func MarshalSnapshot(snap *types.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteSnapshot writes metrics_data.json and metrics_data.yaml to dir and
// returns their paths.
func WriteSnapshot(dir string, snap *types.Snapshot) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	jsonData, err := MarshalSnapshot(snap)
	if err != nil {
		return nil, err
	}
	jsonPath := filepath.Join(dir, SnapshotJSON)
	if err := os.WriteFile(jsonPath, jsonData, 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", jsonPath, err)
	}

	yamlData, err := yaml.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshaling YAML: %w", err)
	}
	yamlPath := filepath.Join(dir, SnapshotYAML)
	if err := os.WriteFile(yamlPath, yamlData, 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", yamlPath, err)
	}
	return []string{jsonPath, yamlPath}, nil
}

// ReadSnapshot loads a snapshot written by WriteSnapshot. The format
// follows the file extension.
func ReadSnapshot(path string) (*types.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap types.Snapshot
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &snap)
	default:
		err = json.Unmarshal(data, &snap)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	return &snap, nil
}
