// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/discourse-metrics/internal/logger"
	"github.com/pdiddy/discourse-metrics/internal/pipeline"
	"github.com/pdiddy/discourse-metrics/pkg/types"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Compute collaboration metrics and write a snapshot",
	Long: `Metrics reads both exports, checks that they describe the same graph,
reconciles experiment, issue, and result records, links results to
experiments, and computes the collaboration metrics.

The snapshot is written to metrics_data.json and metrics_data.yaml in the
output directory. Running twice on the same exports produces identical
files.`,
	RunE: runMetrics,
}

func init() {
	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	snap, err := computeSnapshot(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	printSummary(os.Stdout, snap)
	return nil
}

// computeSnapshot runs the pipeline and writes the snapshot files.
func computeSnapshot(ctx context.Context, cfg types.PipelineConfig, log *logger.Logger) (*types.Snapshot, error) {
	snap, err := pipeline.Run(ctx, pipelineOptions(cfg, log))
	if err != nil {
		return nil, err
	}
	paths, err := pipeline.WriteSnapshot(cfg.Output.OutputDir, snap)
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		log.Info("snapshot written", "path", p)
	}
	return snap, nil
}

func printSummary(w io.Writer, snap *types.Snapshot) {
	m := snap.Metrics
	fmt.Fprintf(w, "as of %s\n\n", snap.Generated.Format("2006-01-02"))
	fmt.Fprintf(w, "%-28s %d/%d (%.1f%%)\n", "issue conversion",
		m.ConversionRate.TotalClaimed, m.ConversionRate.TotalIssues, m.ConversionRate.ConversionRatePercent)
	fmt.Fprintf(w, "%-28s %s\n", "time to claim", formatStats(m.TimeToClaim.DurationStats))
	fmt.Fprintf(w, "%-28s %s\n", "time to first result", formatStats(m.TimeToFirstResult.DurationStats))
	if avg := m.UniqueContributors.AvgContributors; avg != nil {
		fmt.Fprintf(w, "%-28s %.2f over %d experiments\n", "contributors per experiment", *avg, m.UniqueContributors.Count)
	} else {
		fmt.Fprintf(w, "%-28s no data\n", "contributors per experiment")
	}
	cp := m.CrossPersonClaims
	fmt.Fprintf(w, "%-28s %d of %d known (%.1f%%)\n", "cross-person claims",
		cp.CrossPersonCount, cp.CrossPersonCount+cp.SelfClaimCount, cp.IdeaExchangeRate)
}

func formatStats(s types.DurationStats) string {
	if s.Count == 0 || s.AvgDays == nil {
		return "no data"
	}
	return fmt.Sprintf("n=%d median %dd mean %.1fd range %d..%d", s.Count, *s.Median, *s.AvgDays, *s.MinDays, *s.MaxDays)
}
