// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ClaimType records how an experiment's claim was established.
type ClaimType string

const (
	ClaimExplicit ClaimType = "explicit"
	ClaimInferred ClaimType = "inferred"
	ClaimNone     ClaimType = "none"
)

// AttributionMethod names the field that supplied a primary contributor.
type AttributionMethod string

const (
	AttributedMadeBy    AttributionMethod = "made_by"
	AttributedClaimedBy AttributionMethod = "claimed_by"
	AttributedAuthor    AttributionMethod = "author"
	AttributedCreator   AttributionMethod = "creator"
	AttributedNone      AttributionMethod = ""
)

// ExperimentRecord is the reconciled view of one experiment page across
// both exports.
type ExperimentRecord struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`

	// Creator is the semantic export's creator identity.
	Creator string `json:"creator,omitempty" yaml:"creator,omitempty"`

	// PageCreated is the earliest creation instant seen in either export.
	PageCreated *time.Time `json:"page_created,omitempty" yaml:"page_created,omitempty"`

	ClaimedBy string     `json:"claimed_by,omitempty" yaml:"claimed_by,omitempty"`
	ClaimedAt *time.Time `json:"claimed_at,omitempty" yaml:"claimed_at,omitempty"`
	ClaimType ClaimType  `json:"claim_type" yaml:"claim_type"`

	IssueCreatedBy string `json:"issue_created_by,omitempty" yaml:"issue_created_by,omitempty"`
	MadeBy         string `json:"made_by,omitempty" yaml:"made_by,omitempty"`
	Author         string `json:"author,omitempty" yaml:"author,omitempty"`

	PrimaryContributor string            `json:"primary_contributor,omitempty" yaml:"primary_contributor,omitempty"`
	AttributionMethod  AttributionMethod `json:"attribution_method,omitempty" yaml:"attribution_method,omitempty"`

	// Status is the free-text Status:: field, if any.
	Status string `json:"status,omitempty" yaml:"status,omitempty"`

	// IsClaimed is true when ClaimedBy is set or the page has an experimental log.
	IsClaimed bool `json:"is_claimed" yaml:"is_claimed"`

	HasExperimentalLog bool       `json:"has_experimental_log" yaml:"has_experimental_log"`
	LogEntryCount      int        `json:"log_entry_count" yaml:"log_entry_count"`
	FirstLogEntry      *time.Time `json:"first_log_entry,omitempty" yaml:"first_log_entry,omitempty"`
}

// IssueRecord is the reconciled view of one issue page. IsClaimed means the
// issue has an experimental log.
type IssueRecord struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Creator     string     `json:"creator,omitempty" yaml:"creator,omitempty"`
	PageCreated *time.Time `json:"page_created,omitempty" yaml:"page_created,omitempty"`

	IssueCreatedBy string `json:"issue_created_by,omitempty" yaml:"issue_created_by,omitempty"`
	MadeBy         string `json:"made_by,omitempty" yaml:"made_by,omitempty"`
	Author         string `json:"author,omitempty" yaml:"author,omitempty"`

	PrimaryContributor string            `json:"primary_contributor,omitempty" yaml:"primary_contributor,omitempty"`
	AttributionMethod  AttributionMethod `json:"attribution_method,omitempty" yaml:"attribution_method,omitempty"`

	Status string `json:"status,omitempty" yaml:"status,omitempty"`

	IsClaimed          bool       `json:"is_claimed" yaml:"is_claimed"`
	HasExperimentalLog bool       `json:"has_experimental_log" yaml:"has_experimental_log"`
	LogEntryCount      int        `json:"log_entry_count" yaml:"log_entry_count"`
	FirstLogEntry      *time.Time `json:"first_log_entry,omitempty" yaml:"first_log_entry,omitempty"`
}

// ResultRecord is a formally recorded output node.
type ResultRecord struct {
	ID      string     `json:"id" yaml:"id"`
	Title   string     `json:"title" yaml:"title"`
	Created *time.Time `json:"created,omitempty" yaml:"created,omitempty"`
	Creator string     `json:"creator,omitempty" yaml:"creator,omitempty"`
	MadeBy  string     `json:"made_by,omitempty" yaml:"made_by,omitempty"`
	Author  string     `json:"author,omitempty" yaml:"author,omitempty"`

	PrimaryContributor string            `json:"primary_contributor,omitempty" yaml:"primary_contributor,omitempty"`
	AttributionMethod  AttributionMethod `json:"attribution_method,omitempty" yaml:"attribution_method,omitempty"`
}

// LinkTier identifies which matching rule associated a result with an experiment.
type LinkTier string

const (
	TierRelation      LinkTier = "relation"
	TierBackreference LinkTier = "backreference"
	TierShortName     LinkTier = "short_name"
)

// LinkedResult is a result matched to an experiment.
type LinkedResult struct {
	ResultRecord `yaml:",inline"`

	Tier LinkTier `json:"tier" yaml:"tier"`
}

// ExperimentLinks holds the results linked to one experiment.
type ExperimentLinks struct {
	ExperimentID    string         `json:"experiment_id" yaml:"experiment_id"`
	ExperimentTitle string         `json:"experiment_title" yaml:"experiment_title"`
	Results         []LinkedResult `json:"results" yaml:"results"`
}

// ValidationReport summarizes the title overlap between the two exports.
type ValidationReport struct {
	TotalSemanticTitles int     `json:"total_semantic_titles" yaml:"total_semantic_titles"`
	Matched             int     `json:"matched" yaml:"matched"`
	MatchRate           float64 `json:"match_rate" yaml:"match_rate"`
	Threshold           float64 `json:"threshold" yaml:"threshold"`
	Passed              bool    `json:"passed" yaml:"passed"`

	// BlockTreePages counts pages read before the scan stopped.
	BlockTreePages int `json:"block_tree_pages" yaml:"block_tree_pages"`

	// Missing lists semantic titles absent from the block-tree export, sorted.
	Missing []string `json:"missing,omitempty" yaml:"missing,omitempty"`
}
