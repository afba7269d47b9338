// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/discourse-metrics/internal/anonymize"
	"github.com/pdiddy/discourse-metrics/internal/logger"
	"github.com/pdiddy/discourse-metrics/internal/pipeline"
	"github.com/pdiddy/discourse-metrics/pkg/types"
)

// Configuration keys. Nested keys map to env variables with dots replaced
// by underscores, e.g. DISCOURSE_METRICS_VALIDATION_MIN_MATCH_RATE.
const (
	keySemanticPath   = "semantic_path"
	keyBlockTreePath  = "blocktree_path"
	keyOutputDir      = "output_dir"
	keyAsOf           = "as_of"
	keyMinMatchRate   = "validation.min_match_rate"
	keySkipValidation = "validation.skip"
	keyMinShortName   = "linking.min_short_name_length"
	keyAnonymize      = "anonymize.enabled"
	keyAnonymizeTable = "anonymize.table_path"
	keyLogMode        = "log.mode"
	keyFormats        = "output.formats"
	keySystem         = "output.system"
	keyStoreDir       = "store.dir"
	keyMaxResults     = "store.max_results"
)

// loadConfig assembles the pipeline configuration from flags, environment,
// and the config file, in that order of precedence.
func loadConfig() (types.PipelineConfig, error) {
	cfg := types.PipelineConfig{
		Input: types.InputConfig{
			SemanticPath:  viper.GetString(keySemanticPath),
			BlockTreePath: viper.GetString(keyBlockTreePath),
		},
		Validation: types.ValidationConfig{
			MinMatchRate: viper.GetFloat64(keyMinMatchRate),
			Skip:         viper.GetBool(keySkipValidation),
		},
		Linking: types.LinkingConfig{
			MinShortNameLength: viper.GetInt(keyMinShortName),
		},
		Anonymize: types.AnonymizeConfig{
			Enabled:   viper.GetBool(keyAnonymize),
			TablePath: viper.GetString(keyAnonymizeTable),
		},
		Output: types.OutputConfig{
			OutputDir: viper.GetString(keyOutputDir),
			Formats:   viper.GetStringSlice(keyFormats),
		},
		Store: types.StoreConfig{
			StoreDir:   viper.GetString(keyStoreDir),
			MaxResults: viper.GetInt(keyMaxResults),
		},
	}

	if s := viper.GetString(keyAsOf); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return cfg, fmt.Errorf("parsing as_of %q: %w", s, err)
		}
		cfg.Input.AsOf = &t
	}
	if cfg.Validation.MinMatchRate < 0 || cfg.Validation.MinMatchRate > 1 {
		return cfg, fmt.Errorf("validation.min_match_rate %v outside [0, 1]", cfg.Validation.MinMatchRate)
	}
	if cfg.Anonymize.Enabled && cfg.Anonymize.TablePath == "" {
		return cfg, fmt.Errorf("anonymize.enabled requires anonymize.table_path")
	}
	if cfg.Output.OutputDir == "" {
		cfg.Output.OutputDir = "output"
	}
	return cfg, nil
}

// newLogger builds the run logger. Person values are redacted whenever
// anonymization is on.
func newLogger(cfg types.PipelineConfig) (*logger.Logger, error) {
	return logger.New(viper.GetString(keyLogMode), cfg.Anonymize.Enabled)
}

// loadNames returns the pseudonym table, or nil when anonymization is off.
func loadNames(cfg types.PipelineConfig) (*anonymize.Table, error) {
	if !cfg.Anonymize.Enabled {
		return nil, nil
	}
	return anonymize.Load(cfg.Anonymize.TablePath)
}

func pipelineOptions(cfg types.PipelineConfig, log *logger.Logger) pipeline.Options {
	return pipeline.Options{
		Input:      cfg.Input,
		Validation: cfg.Validation,
		Linking:    cfg.Linking,
		Log:        log,
	}
}
