// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/discourse-metrics/internal/pipeline"
	"github.com/pdiddy/discourse-metrics/internal/store"
	"github.com/pdiddy/discourse-metrics/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the snapshot store (ingest, query, history, export)",
	Long: `Store keeps computed snapshots in a local SQLite database so experiments
can be searched by title and followed across export dates.`,
}

// --- ingest subcommand ---

var storeIngestCmd = &cobra.Command{
	Use:   "ingest [snapshot files...]",
	Short: "Load snapshots into the store",
	Long: `Ingest reads snapshot files written by the metrics command (JSON or
YAML) and indexes their experiments with FTS5. With no arguments it reads
metrics_data.json from the output directory. Unchanged files are skipped
on subsequent runs.`,
	RunE: runStoreIngest,
}

func runStoreIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	paths := args
	if len(paths) == 0 {
		paths = []string{filepath.Join(cfg.Output.OutputDir, pipeline.SnapshotJSON)}
	}

	s, err := store.NewStore(storeConfig(cfg))
	if err != nil {
		return err
	}
	defer s.Close()

	summary, err := s.Ingest(cmd.Context(), paths, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d snapshot(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- query subcommand ---

var storeQueryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Search stored experiments by title text and filters",
	Long: `Query searches experiment titles and status text with FTS5, filters by
claim type, contributor, or snapshot, or combines both. Full-text results
are ranked by relevance.`,
	RunE: runStoreQuery,
}

func runStoreQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide search text, --claim-type, --contributor, or --snapshot")
	}

	s, err := store.NewStore(storeConfig(cfg))
	if err != nil {
		return err
	}
	defer s.Close()

	results, err := s.Retrieve(cmd.Context(), opts)
	if err != nil {
		return err
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatQueryOutput(os.Stdout, results, jsonOutput)
}

// --- history subcommand ---

var storeHistoryCmd = &cobra.Command{
	Use:   "history <title>",
	Short: "Show one experiment across every stored snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreHistory,
}

func runStoreHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := store.NewStore(storeConfig(cfg))
	if err != nil {
		return err
	}
	defer s.Close()

	results, err := s.History(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatQueryOutput(os.Stdout, results, jsonOutput)
}

// --- export subcommand ---

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the store to YAML or JSON",
	Long: `Export writes the stored snapshots and experiments (or a filtered
subset) to index/export.yaml or index/export.json under the store
directory. Supports the same filter flags as query.`,
	RunE: runStoreExport,
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")

	s, err := store.NewStore(storeConfig(cfg))
	if err != nil {
		return err
	}
	defer s.Close()

	opts := queryOptsFromFlags(cmd, args)

	var path string
	switch format {
	case "yaml", "":
		path, err = s.ExportYAML(cmd.Context(), opts)
	case "json":
		path, err = s.ExportJSON(cmd.Context(), opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Exported to %s\n", path)
	return nil
}

// --- shared helpers ---

func storeConfig(cfg types.PipelineConfig) types.StoreConfig {
	sc := cfg.Store
	if sc.StoreDir == "" {
		sc.StoreDir = filepath.Join(cfg.Output.OutputDir, "store")
	}
	return sc
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) store.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}
	claimType, _ := cmd.Flags().GetString("claim-type")
	contributor, _ := cmd.Flags().GetString("contributor")
	snapshot, _ := cmd.Flags().GetString("snapshot")
	limit, _ := cmd.Flags().GetInt("limit")

	return store.QueryOptions{
		Query:       queryText,
		ClaimType:   types.ClaimType(claimType),
		Contributor: contributor,
		Snapshot:    snapshot,
		MaxResults:  limit,
	}
}

func formatQueryOutput(w io.Writer, results []store.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-10s  %-44s  %-16s  %-8s  %5s  %5s  %s\n",
		"Snapshot", "Title", "Claimed by", "Type", "Claim", "First", "Results")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, r := range results {
		fmt.Fprintf(w, "%-10s  %-44s  %-16s  %-8s  %5s  %5s  %d\n",
			r.SnapshotID[:min(10, len(r.SnapshotID))], clip(r.Title, 44), clip(r.ClaimedBy, 16),
			r.ClaimType, days(r.DaysToClaim), days(r.DaysToFirstResult), r.LinkedResults)
	}
	fmt.Fprintf(w, "\n%d results\n", len(results))
	return nil
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func days(d *int) string {
	if d == nil {
		return "-"
	}
	return fmt.Sprintf("%dd", *d)
}

func init() {
	storeCmd.PersistentFlags().String("store-dir", "", "store directory (default: <output-dir>/store)")
	storeCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")
	viper.BindPFlag(keyStoreDir, storeCmd.PersistentFlags().Lookup("store-dir"))
	viper.BindPFlag(keyMaxResults, storeCmd.PersistentFlags().Lookup("max-results"))

	for _, c := range []*cobra.Command{storeQueryCmd, storeExportCmd} {
		c.Flags().String("query", "", "full-text search over titles and status")
		c.Flags().String("claim-type", "", "filter by claim type: explicit, inferred, none")
		c.Flags().String("contributor", "", "filter by contributor name")
		c.Flags().String("snapshot", "", "filter by snapshot id (RFC 3339 as-of instant)")
	}
	storeQueryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	storeQueryCmd.Flags().Bool("json", false, "output results as JSON")
	storeHistoryCmd.Flags().Bool("json", false, "output results as JSON")
	storeExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	storeCmd.AddCommand(storeIngestCmd)
	storeCmd.AddCommand(storeQueryCmd)
	storeCmd.AddCommand(storeHistoryCmd)
	storeCmd.AddCommand(storeExportCmd)

	rootCmd.AddCommand(storeCmd)
}
