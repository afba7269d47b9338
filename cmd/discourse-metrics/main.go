// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the discourse-metrics CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the discourse-metrics CLI.
var rootCmd = &cobra.Command{
	Use:   "discourse-metrics",
	Short: "Collaboration metrics from discourse graph exports",
	Long: `discourse-metrics reads the two exports of a discourse graph workspace,
a JSON-LD semantic export and a raw block-tree export, and measures how
issues turn into claimed experiments and results.

The metrics subcommand writes a snapshot; report adds charts, a markdown
report, and evidence bundles. validate and parse inspect the exports, and
store keeps snapshots in a searchable SQLite index.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./discourse-metrics.yaml or ~/.config/discourse-metrics/discourse-metrics.yaml)")
	pf.String("semantic", "", "JSON-LD semantic export")
	pf.String("blocktree", "", "raw block-tree JSON export")
	pf.String("output-dir", "output", "directory for snapshots, figures, the report, and bundles")
	pf.String("as-of", "", "export instant (RFC 3339); defaults to the latest semantic timestamp")
	pf.Float64("min-match-rate", 0.5, "fraction of semantic titles that must appear in the block-tree export")
	pf.Bool("skip-validation", false, "skip the title-overlap check")
	pf.Int("min-short-name", 20, "shortest experiment short name the linker will match")
	pf.Bool("anonymize", false, "replace researcher names with pseudonyms in outputs and logs")
	pf.String("anonymize-table", "", "TOML pseudonym table")
	pf.String("log-mode", "dev", "log output: dev, prod, or quiet")

	for key, flag := range map[string]string{
		keySemanticPath:   "semantic",
		keyBlockTreePath:  "blocktree",
		keyOutputDir:      "output-dir",
		keyAsOf:           "as-of",
		keyMinMatchRate:   "min-match-rate",
		keySkipValidation: "skip-validation",
		keyMinShortName:   "min-short-name",
		keyAnonymize:      "anonymize",
		keyAnonymizeTable: "anonymize-table",
		keyLogMode:        "log-mode",
	} {
		viper.BindPFlag(key, pf.Lookup(flag))
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("discourse-metrics")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "discourse-metrics"))
		}
	}

	viper.SetEnvPrefix("DISCOURSE_METRICS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
