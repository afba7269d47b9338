// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/discourse-metrics/internal/blocktree"
	"github.com/pdiddy/discourse-metrics/internal/semantic"
	"github.com/pdiddy/discourse-metrics/pkg/types"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that both exports come from the same graph",
	Long: `Validate reads the semantic export, streams the block-tree export, and
reports how many semantic titles appear in it. The command fails when the
match rate is below validation.min_match_rate.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().Int("show-missing", 10, "number of missing titles to list")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	exp, err := semantic.Load(cfg.Input.SemanticPath)
	if err != nil {
		return err
	}
	minRate := cfg.Validation.MinMatchRate
	if minRate <= 0 {
		minRate = types.DefaultMinMatchRate
	}

	report, _, err := blocktree.ValidateFile(cfg.Input.BlockTreePath, exp.Titles(), minRate)
	if report.TotalSemanticTitles > 0 || err == nil {
		showMissing, _ := cmd.Flags().GetInt("show-missing")
		printValidation(os.Stdout, report, showMissing)
	}
	return err
}

func printValidation(w io.Writer, r types.ValidationReport, showMissing int) {
	status := "PASS"
	if !r.Passed {
		status = "FAIL"
	}
	fmt.Fprintf(w, "%s  %d of %d semantic titles found (%.1f%%, threshold %.0f%%)\n",
		status, r.Matched, r.TotalSemanticTitles, r.MatchRate*100, r.Threshold*100)
	fmt.Fprintf(w, "      %d block-tree pages read\n", r.BlockTreePages)

	if len(r.Missing) == 0 || showMissing <= 0 {
		return
	}
	fmt.Fprintf(w, "\nmissing:\n")
	for i, t := range r.Missing {
		if i == showMissing {
			fmt.Fprintf(w, "  ... and %d more\n", len(r.Missing)-showMissing)
			break
		}
		fmt.Fprintf(w, "  %s\n", t)
	}
}
