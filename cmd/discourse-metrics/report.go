// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/discourse-metrics/internal/bundle"
	"github.com/pdiddy/discourse-metrics/internal/pipeline"
	"github.com/pdiddy/discourse-metrics/internal/render"
	"github.com/pdiddy/discourse-metrics/pkg/types"
)

const figuresDir = "figures"

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compute metrics and write charts, a markdown report, and evidence bundles",
	Long: `Report runs the metrics pipeline, or loads an existing snapshot with
--snapshot, then renders figures into <output-dir>/figures, writes
metrics_report.md, and packages evidence bundles under
<output-dir>/evidence_bundles.

With --anonymize, researcher names are replaced using the pseudonym table
in every rendered output. The snapshot files themselves keep real names.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringSlice("formats", render.DefaultFormats, "figure formats: svg, png")
	reportCmd.Flags().String("snapshot", "", "render from an existing metrics_data.json instead of the exports")
	reportCmd.Flags().String("system", "", "name of the discourse graph used in bundle text")
	reportCmd.Flags().Bool("no-bundles", false, "skip evidence bundles")

	viper.BindPFlag(keyFormats, reportCmd.Flags().Lookup("formats"))
	viper.BindPFlag(keySystem, reportCmd.Flags().Lookup("system"))

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	names, err := loadNames(cfg)
	if err != nil {
		return err
	}
	if names != nil {
		log.Info("pseudonym table loaded", "names", names.Len())
	}

	var snap *types.Snapshot
	if path, _ := cmd.Flags().GetString("snapshot"); path != "" {
		snap, err = pipeline.ReadSnapshot(path)
		log.Info("snapshot loaded", "path", path)
	} else {
		snap, err = computeSnapshot(cmd.Context(), cfg, log)
	}
	if err != nil {
		return err
	}

	out := cfg.Output.OutputDir
	figures, err := render.WriteFigures(cmd.Context(), filepath.Join(out, figuresDir), snap, names, cfg.Output.Formats)
	if err != nil {
		return fmt.Errorf("rendering figures: %w", err)
	}
	log.Info("figures written", "count", len(figures))

	reportPath, err := render.WriteReport(out, snap, names, figures)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "report  %s\n", reportPath)

	if skip, _ := cmd.Flags().GetBool("no-bundles"); skip {
		return nil
	}
	dirs, err := bundle.WriteAll(snap, bundle.Options{
		OutputDir: out,
		Names:     names,
		Figures:   figures,
		System:    viper.GetString(keySystem),
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("writing bundles: %w", err)
	}
	for _, d := range dirs {
		fmt.Fprintf(os.Stdout, "bundle  %s\n", d)
	}
	return nil
}
