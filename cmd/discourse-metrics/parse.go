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

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Print node counts by type for both exports",
	Long: `Parse reads each configured export on its own and prints how many
nodes of each discourse type it holds. Either export may be omitted.
The block-tree export is streamed page by page.`,
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Input.SemanticPath == "" && cfg.Input.BlockTreePath == "" {
		return fmt.Errorf("provide --semantic, --blocktree, or both")
	}

	if path := cfg.Input.SemanticPath; path != "" {
		exp, err := semantic.Load(path)
		if err != nil {
			return err
		}
		printSemantic(os.Stdout, path, exp)
	}
	if path := cfg.Input.BlockTreePath; path != "" {
		census, err := blocktree.CountFile(path, semantic.Classify)
		if err != nil {
			return err
		}
		printCensus(os.Stdout, path, census)
	}
	return nil
}

func printSemantic(w io.Writer, path string, exp *semantic.Export) {
	fmt.Fprintf(w, "semantic export %s\n", path)
	fmt.Fprintf(w, "  %-20s %d\n", "content nodes", exp.TotalContentNodes)

	classified := 0
	for _, k := range append([]types.NodeKind{types.KindExperiment}, types.DiscourseKinds...) {
		n := len(exp.NodesByKind[k])
		classified += n
		fmt.Fprintf(w, "  %-20s %d\n", k, n)
	}
	fmt.Fprintf(w, "  %-20s %d\n", types.KindOther, exp.TotalContentNodes-classified)
	fmt.Fprintf(w, "  %-20s %d\n", "relation types", len(exp.Relations))
	fmt.Fprintf(w, "  %-20s %d\n", "relations", len(exp.RelationInstances))
	if exp.Latest != nil {
		fmt.Fprintf(w, "  %-20s %s\n", "latest timestamp", exp.Latest.Format("2006-01-02T15:04:05Z"))
	}
	fmt.Fprintln(w)
}

func printCensus(w io.Writer, path string, c blocktree.Census) {
	fmt.Fprintf(w, "block-tree export %s\n", path)
	fmt.Fprintf(w, "  %-20s %d\n", "pages", c.Pages)
	for _, k := range c.Kinds {
		fmt.Fprintf(w, "  %-20s %d\n", k.Kind, k.Count)
	}
	fmt.Fprintf(w, "  %-20s %d\n", "explicit claims", c.ExplicitClaims)
	fmt.Fprintf(w, "  %-20s %d\n", "experimental logs", c.ExperimentalLogs)
	fmt.Fprintf(w, "  %-20s %d\n", "log entries", c.LogEntries)
	fmt.Fprintln(w)
}
