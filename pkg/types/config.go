package types

import "time"

// InputConfig locates the two exports of one workspace.
type InputConfig struct {
	// SemanticPath is the JSON-LD semantic export.
	SemanticPath string `json:"semantic_path" yaml:"semantic_path"`

	// BlockTreePath is the raw block-tree JSON export (often 100MB+).
	BlockTreePath string `json:"blocktree_path" yaml:"blocktree_path"`

	// AsOf overrides the export instant used for censoring and the
	// snapshot's generated field. When nil the latest timestamp in the
	// semantic export is used.
	AsOf *time.Time `json:"as_of,omitempty" yaml:"as_of,omitempty"`
}

// ValidationConfig controls the title-overlap check between the exports.
type ValidationConfig struct {
	// MinMatchRate is the fraction of semantic titles that must appear in
	// the block-tree export (default 0.5).
	MinMatchRate float64 `json:"min_match_rate" yaml:"min_match_rate"`

	// Skip disables the check.
	Skip bool `json:"skip" yaml:"skip"`
}

// LinkingConfig tunes the result linker.
type LinkingConfig struct {
	// MinShortNameLength is the shortest experiment short name, in
	// characters, that the short-name tier will try (default 20).
	MinShortNameLength int `json:"min_short_name_length" yaml:"min_short_name_length"`
}

// AnonymizeConfig controls pseudonym substitution in reports and bundles.
type AnonymizeConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	// TablePath is a TOML file with [names] and [fragments] tables.
	TablePath string `json:"table_path" yaml:"table_path"`
}

// OutputConfig holds settings for the output stage.
type OutputConfig struct {
	// OutputDir receives metrics_data.json, the report, figures, and bundles.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Formats lists the figure formats to render: svg, png.
	Formats []string `json:"formats" yaml:"formats"`
}

// StoreConfig holds settings for the metrics store.
type StoreConfig struct {
	// StoreDir is the base directory for the store (contains index/).
	StoreDir string `json:"store_dir" yaml:"store_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Input      InputConfig      `json:"input" yaml:"input"`
	Validation ValidationConfig `json:"validation" yaml:"validation"`
	Linking    LinkingConfig    `json:"linking" yaml:"linking"`
	Anonymize  AnonymizeConfig  `json:"anonymize" yaml:"anonymize"`
	Output     OutputConfig     `json:"output" yaml:"output"`
	Store      StoreConfig      `json:"store" yaml:"store"`
}

// Defaults used when configuration leaves a value unset.
const (
	DefaultMinMatchRate       = 0.5
	DefaultMinShortNameLength = 20
	DefaultMaxResults         = 20
)
