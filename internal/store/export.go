// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"go.yaml.in/yaml/v3"
)

// Export is the document written by ExportYAML and ExportJSON.
type Export struct {
	Snapshots   []SnapshotInfo `json:"snapshots" yaml:"snapshots"`
	Experiments []QueryResult  `json:"experiments" yaml:"experiments"`
}

const exportLimit = 100000

// ExportYAML writes the store to index/export.yaml and returns its path.
// It supports the same filters as Retrieve.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) (string, error) {
	doc, err := s.export(ctx, opts)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return s.writeExport("export.yaml", data)
}

// ExportJSON writes the store to index/export.json and returns its path.
// It supports the same filters as Retrieve.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) (string, error) {
	doc, err := s.export(ctx, opts)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return s.writeExport("export.json", append(data, '\n'))
}

func (s *Store) export(ctx context.Context, opts QueryOptions) (*Export, error) {
	snapshots, err := s.Snapshots(ctx)
	if err != nil {
		return nil, err
	}
	opts.MaxResults = exportLimit
	experiments, err := s.Retrieve(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	if opts.Snapshot != "" {
		var kept []SnapshotInfo
		for _, si := range snapshots {
			if si.ID == opts.Snapshot {
				kept = append(kept, si)
			}
		}
		snapshots = kept
	}
	return &Export{Snapshots: snapshots, Experiments: experiments}, nil
}

func (s *Store) writeExport(name string, data []byte) (string, error) {
	path := filepath.Join(s.storeDir, indexDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	return path, nil
}
