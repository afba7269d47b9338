// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/discourse-metrics/pkg/types"
)

func withConfig(t *testing.T, values map[string]any) {
	t.Helper()
	viper.Reset()
	for k, v := range values {
		viper.Set(k, v)
	}
	t.Cleanup(viper.Reset)
}

func TestLoadConfig(t *testing.T) {
	withConfig(t, map[string]any{
		keySemanticPath:  "graph.jsonld",
		keyBlockTreePath: "roam.json",
		keyAsOf:          "2024-06-01T00:00:00Z",
		keyMinMatchRate:  0.8,
		keyMinShortName:  12,
	})

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "graph.jsonld", cfg.Input.SemanticPath)
	assert.Equal(t, "roam.json", cfg.Input.BlockTreePath)
	require.NotNil(t, cfg.Input.AsOf)
	assert.True(t, cfg.Input.AsOf.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0.8, cfg.Validation.MinMatchRate)
	assert.Equal(t, 12, cfg.Linking.MinShortNameLength)
	assert.Equal(t, "output", cfg.Output.OutputDir)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
		want   string
	}{
		{"bad as_of", map[string]any{keyAsOf: "June 1st"}, "parsing as_of"},
		{"rate above one", map[string]any{keyMinMatchRate: 1.5}, "outside [0, 1]"},
		{"anonymize without table", map[string]any{keyAnonymize: true}, "requires anonymize.table_path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withConfig(t, tt.values)
			_, err := loadConfig()
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestStoreConfigDefaultsUnderOutput(t *testing.T) {
	cfg := types.PipelineConfig{Output: types.OutputConfig{OutputDir: "out"}}
	assert.Equal(t, "out/store", storeConfig(cfg).StoreDir)

	cfg.Store.StoreDir = "elsewhere"
	assert.Equal(t, "elsewhere", storeConfig(cfg).StoreDir)
}

func TestPrintValidation(t *testing.T) {
	var buf strings.Builder
	printValidation(&buf, types.ValidationReport{
		TotalSemanticTitles: 4, Matched: 1, MatchRate: 0.25, Threshold: 0.5,
		Missing: []string{"a", "b", "c"},
	}, 2)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "FAIL  1 of 4 semantic titles found (25.0%, threshold 50%)"))
	assert.Contains(t, out, "  a\n  b\n  ... and 1 more\n")
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short", 10))
	assert.Equal(t, "@analys...", clip("@analysis/long title", 10))
}
