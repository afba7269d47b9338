// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the full metrics computation: read both exports,
// validate that they describe the same graph, merge records, link results,
// and compute metrics into a Snapshot.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pdiddy/discourse-metrics/internal/blocktree"
	"github.com/pdiddy/discourse-metrics/internal/link"
	"github.com/pdiddy/discourse-metrics/internal/logger"
	"github.com/pdiddy/discourse-metrics/internal/merge"
	"github.com/pdiddy/discourse-metrics/internal/metrics"
	"github.com/pdiddy/discourse-metrics/internal/semantic"
	"github.com/pdiddy/discourse-metrics/pkg/types"
)

// Options configures a run.
type Options struct {
	Input      types.InputConfig
	Validation types.ValidationConfig
	Linking    types.LinkingConfig

	// Log receives progress. Nil discards.
	Log *logger.Logger
}

// Run computes a Snapshot from the two exports. A missing input or a failed
// overlap check stops the run before any metric is computed.
func Run(ctx context.Context, opts Options) (*types.Snapshot, error) {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	minRate := opts.Validation.MinMatchRate
	if minRate <= 0 {
		minRate = types.DefaultMinMatchRate
	}

	if err := requireFile(opts.Input.BlockTreePath); err != nil {
		return nil, err
	}
	exp, err := semantic.Load(opts.Input.SemanticPath)
	if err != nil {
		return nil, err
	}
	log.Info("semantic export read",
		"experiments", len(exp.Experiments),
		"issues", len(exp.Issues),
		"results", len(exp.Results),
		"content_nodes", exp.TotalContentNodes,
		"relation_instances", len(exp.RelationInstances))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	titles := exp.Titles()
	scan, err := blocktree.ScanFile(opts.Input.BlockTreePath, titles)
	if err != nil {
		return nil, err
	}
	log.Info("block-tree export scanned", "pages_read", scan.PagesRead, "matched", len(scan.Facts), "wanted", len(titles))

	var validation *types.ValidationReport
	if !opts.Validation.Skip {
		report, err := blocktree.Check(titles, scan, minRate)
		if err != nil {
			return nil, err
		}
		validation = &report
		log.Info("exports validated", "match_rate", report.MatchRate, "threshold", report.Threshold)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap := Build(exp, scan.Facts, opts)
	snap.DataSources = types.DataSources{Semantic: opts.Input.SemanticPath, BlockTree: opts.Input.BlockTreePath}
	snap.Validation = validation
	log.Info("metrics computed",
		"conversion_rate_percent", snap.Metrics.ConversionRate.ConversionRatePercent,
		"claimed_experiments", snap.Metrics.ConversionRate.ClaimedExperiments,
		"linked_experiments", len(snap.Links))
	return snap, nil
}

// Build merges, links, and measures an already-read pair of exports.
func Build(exp *semantic.Export, facts map[string]blocktree.PageFacts, opts Options) *types.Snapshot {
	experiments := merge.Experiments(exp.Experiments, facts)
	issues := merge.Issues(exp.Issues, facts)
	results := merge.Results(exp.Results)

	linker := link.New(results, exp.RelationInstances, opts.Linking.MinShortNameLength)
	links := linker.All(experiments)

	asOf := AsOf(opts.Input.AsOf, exp)
	m := metrics.Compute(metrics.Input{
		Experiments:       experiments,
		Issues:            issues,
		Links:             metrics.LinksByID(links),
		NodesByKind:       exp.NodesByKind,
		TotalContentNodes: exp.TotalContentNodes,
		AsOf:              asOf,
	})

	if links == nil {
		links = []types.ExperimentLinks{}
	}
	return &types.Snapshot{
		Generated: asOf,
		Summary: types.Summary{
			TotalExperimentPages: len(exp.Experiments),
			TotalIssueNodes:      len(exp.Issues),
			TotalResultNodes:     len(exp.Results),
			TotalContentNodes:    exp.TotalContentNodes,
			RelationInstances:    len(exp.RelationInstances),
		},
		Metrics:     m,
		Experiments: experiments,
		Issues:      issues,
		Results:     results,
		Links:       links,
	}
}

// AsOf picks the export instant: the configured override, else the latest
// timestamp in the semantic export, else the zero time.
func AsOf(override *time.Time, exp *semantic.Export) time.Time {
	switch {
	case override != nil:
		return override.UTC()
	case exp.Latest != nil:
		return *exp.Latest
	}
	return time.Time{}
}

func requireFile(path string) error {
	if path == "" {
		return fmt.Errorf("block-tree export path not set: %w", blocktree.ErrInputMissing)
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("block-tree export %s: %w", path, blocktree.ErrInputMissing)
		}
		return fmt.Errorf("checking block-tree export: %w", err)
	}
	return nil
}
