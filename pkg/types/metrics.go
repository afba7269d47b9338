// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ConversionRate reports how many issues turned into claimed work.
type ConversionRate struct {
	ConversionRatePercent float64 `json:"conversion_rate_percent" yaml:"conversion_rate_percent"`
	TotalClaimed          int     `json:"total_claimed" yaml:"total_claimed"`
	ClaimedExperiments    int     `json:"claimed_experiments" yaml:"claimed_experiments"`
	ExplicitClaims        int     `json:"explicit_claims" yaml:"explicit_claims"`
	InferredClaims        int     `json:"inferred_claims" yaml:"inferred_claims"`
	IssuesWithActivity    int     `json:"iss_with_activity" yaml:"iss_with_activity"`
	UnclaimedIssues       int     `json:"unclaimed_iss" yaml:"unclaimed_iss"`
	TotalIssues           int     `json:"total_issues" yaml:"total_issues"`
	CrossPersonClaims     int     `json:"cross_person_claims" yaml:"cross_person_claims"`
	SelfClaims            int     `json:"self_claims" yaml:"self_claims"`
	UnknownClaims         int     `json:"unknown_claim_type" yaml:"unknown_claim_type"`

	// ClaimedTitles lists claimed experiment titles in input order.
	ClaimedTitles []string `json:"claimed_experiment_titles" yaml:"claimed_experiment_titles"`
}

// DurationStats summarizes a sample of whole-day durations. For an empty
// sample Count is 0 and the other fields are nil.
type DurationStats struct {
	Count   int      `json:"count" yaml:"count"`
	AvgDays *float64 `json:"avg_days" yaml:"avg_days"`
	MinDays *int     `json:"min_days" yaml:"min_days"`
	MaxDays *int     `json:"max_days" yaml:"max_days"`
	Median  *int     `json:"median_days" yaml:"median_days"`
}

// ClaimDelay is one experiment's time from page creation to claim.
type ClaimDelay struct {
	Title          string    `json:"title" yaml:"title"`
	IssueCreatedBy string    `json:"issue_created_by,omitempty" yaml:"issue_created_by,omitempty"`
	ClaimedBy      string    `json:"claimed_by" yaml:"claimed_by"`
	PageCreated    time.Time `json:"page_created" yaml:"page_created"`
	ClaimedAt      time.Time `json:"claimed_timestamp" yaml:"claimed_timestamp"`
	DaysToClaim    int       `json:"days_to_claim" yaml:"days_to_claim"`
}

// TimeToClaim is metric 2. Details are sorted by DaysToClaim ascending.
type TimeToClaim struct {
	DurationStats `yaml:",inline"`

	Details []ClaimDelay `json:"details" yaml:"details"`
}

// FirstResult is one claimed experiment's time to its earliest linked result.
type FirstResult struct {
	ExperimentTitle        string    `json:"experiment_title" yaml:"experiment_title"`
	ClaimedBy              string    `json:"claimed_by,omitempty" yaml:"claimed_by,omitempty"`
	ClaimType              ClaimType `json:"claim_type" yaml:"claim_type"`
	ReferenceTimestamp     time.Time `json:"ref_timestamp" yaml:"ref_timestamp"`
	FirstResultTitle       string    `json:"first_res_title" yaml:"first_res_title"`
	FirstResultCreated     time.Time `json:"first_res_created" yaml:"first_res_created"`
	FirstResultCreator     string    `json:"first_res_creator,omitempty" yaml:"first_res_creator,omitempty"`
	FirstResultContributor string    `json:"first_res_primary_contributor,omitempty" yaml:"first_res_primary_contributor,omitempty"`
	FirstResultTier        LinkTier  `json:"first_res_tier" yaml:"first_res_tier"`
	DaysToFirstResult      int       `json:"days_to_first_result" yaml:"days_to_first_result"`
	TotalLinkedResults     int       `json:"total_linked_res" yaml:"total_linked_res"`
}

// TimeToFirstResult is metric 3. Details are sorted by DaysToFirstResult
// ascending. Negative durations are kept.
type TimeToFirstResult struct {
	DurationStats `yaml:",inline"`

	// NegativeCount counts results that predate their reference instant.
	NegativeCount int `json:"negative_count" yaml:"negative_count"`

	Details []FirstResult `json:"details" yaml:"details"`
}

// ContributorBin is one histogram bucket of the contributor distribution.
type ContributorBin struct {
	Contributors int `json:"contributors" yaml:"contributors"`
	Experiments  int `json:"experiments" yaml:"experiments"`
}

// ContributorSet lists the distinct people involved in one experiment.
type ContributorSet struct {
	Title        string   `json:"title" yaml:"title"`
	Count        int      `json:"count" yaml:"count"`
	Contributors []string `json:"contributors" yaml:"contributors"`
	LinkedCount  int      `json:"linked_res_count" yaml:"linked_res_count"`
}

// UniqueContributors is metric 4. Distribution is sorted by bucket size and
// Details by Count descending.
type UniqueContributors struct {
	Count             int              `json:"count" yaml:"count"`
	AvgContributors   *float64         `json:"avg_contributors" yaml:"avg_contributors"`
	Distribution      []ContributorBin `json:"distribution" yaml:"distribution"`
	MultiContributor  int              `json:"multi_contributor_count" yaml:"multi_contributor_count"`
	SingleContributor int              `json:"single_contributor_count" yaml:"single_contributor_count"`
	Details           []ContributorSet `json:"details" yaml:"details"`
}

// ClaimOrigin classifies a claim by comparing claimer to issue creator.
type ClaimOrigin string

const (
	OriginSelf    ClaimOrigin = "self"
	OriginCross   ClaimOrigin = "cross"
	OriginUnknown ClaimOrigin = "unknown"
)

// ClaimPair is one claimed experiment in the self/cross/unknown partition.
type ClaimPair struct {
	Title          string      `json:"title" yaml:"title"`
	IssueCreatedBy string      `json:"issue_created_by,omitempty" yaml:"issue_created_by,omitempty"`
	ClaimedBy      string      `json:"claimed_by" yaml:"claimed_by"`
	ClaimType      ClaimType   `json:"claim_type" yaml:"claim_type"`
	Origin         ClaimOrigin `json:"origin" yaml:"origin"`
	PageCreated    *time.Time  `json:"page_created,omitempty" yaml:"page_created,omitempty"`
}

// ExchangePair counts claims of one person's issues by another person.
type ExchangePair struct {
	From  string `json:"from" yaml:"from"`
	To    string `json:"to" yaml:"to"`
	Count int    `json:"count" yaml:"count"`
}

// CrossPersonClaims is metric 5. Detail lists are sorted by page creation,
// undated records last.
type CrossPersonClaims struct {
	CrossPersonCount int            `json:"cross_person_count" yaml:"cross_person_count"`
	SelfClaimCount   int            `json:"self_claim_count" yaml:"self_claim_count"`
	UnknownCount     int            `json:"unknown_count" yaml:"unknown_count"`
	IdeaExchangeRate float64        `json:"idea_exchange_rate" yaml:"idea_exchange_rate"`
	CrossDetails     []ClaimPair    `json:"cross_person_details" yaml:"cross_person_details"`
	SelfDetails      []ClaimPair    `json:"self_claim_details" yaml:"self_claim_details"`
	UnknownDetails   []ClaimPair    `json:"unknown_details" yaml:"unknown_details"`
	ExchangePairs    []ExchangePair `json:"exchange_pairs" yaml:"exchange_pairs"`
}

// PersonCentrality describes one researcher in the idea-exchange network.
type PersonCentrality struct {
	Person                string  `json:"person" yaml:"person"`
	IssuesClaimedByOthers int     `json:"issues_claimed_by_others" yaml:"issues_claimed_by_others"`
	ClaimsOfOthers        int     `json:"claims_of_others" yaml:"claims_of_others"`
	DistinctPartners      int     `json:"distinct_partners" yaml:"distinct_partners"`
	PageRank              float64 `json:"pagerank" yaml:"pagerank"`
}

// ExchangeNetwork is the directed issue-creator to claimer graph. People are
// sorted by PageRank descending, then name.
type ExchangeNetwork struct {
	People  int                `json:"people" yaml:"people"`
	Edges   int                `json:"edges" yaml:"edges"`
	Members []PersonCentrality `json:"members" yaml:"members"`
}

// FunnelStage is one step of the issue to result funnel.
type FunnelStage struct {
	Stage string `json:"stage" yaml:"stage"`
	Count int    `json:"count" yaml:"count"`
}

// Funnel follows work from issue through claim to result.
type Funnel struct {
	Stages               []FunnelStage `json:"stages" yaml:"stages"`
	IssueToClaimPercent  float64       `json:"issue_to_claim" yaml:"issue_to_claim"`
	ClaimToResultPercent float64       `json:"claim_to_result" yaml:"claim_to_result"`
	IssueToResultPercent float64       `json:"issue_to_result" yaml:"issue_to_result"`

	// ClaimingToResultPercent is experiments with a result over everything
	// claimed, issues with activity included. It is 0 when nothing is
	// claimed.
	ClaimingToResultPercent float64 `json:"claiming_to_result_percent" yaml:"claiming_to_result_percent"`

	TotalLinkedResults     int     `json:"total_linked_res" yaml:"total_linked_res"`
	AvgResultsPerProducing float64 `json:"avg_res_per_producing_experiment" yaml:"avg_res_per_producing_experiment"`
}

// SurvivalPoint is the estimate after all events and censorings at Day.
type SurvivalPoint struct {
	Day      int     `json:"day" yaml:"day"`
	Survival float64 `json:"survival" yaml:"survival"`
	AtRisk   int     `json:"at_risk" yaml:"at_risk"`
	Events   int     `json:"events" yaml:"events"`
	Censored int     `json:"censored" yaml:"censored"`
}

// SurvivalCurve is a Kaplan-Meier product-limit estimate. Points start at
// day 0 with survival 1.
type SurvivalCurve struct {
	Label    string          `json:"label" yaml:"label"`
	N        int             `json:"n" yaml:"n"`
	Events   int             `json:"events" yaml:"events"`
	Censored int             `json:"censored" yaml:"censored"`
	Points   []SurvivalPoint `json:"points" yaml:"points"`

	// MedianDay is the first day survival falls to 0.5 or below.
	MedianDay *int `json:"median_day,omitempty" yaml:"median_day,omitempty"`
}

// SurvivalAnalysis holds the time-to-first-result curves.
type SurvivalAnalysis struct {
	AsOf  time.Time     `json:"as_of" yaml:"as_of"`
	All   SurvivalCurve `json:"all" yaml:"all"`
	Self  SurvivalCurve `json:"self" yaml:"self"`
	Cross SurvivalCurve `json:"cross" yaml:"cross"`
}

// MonthCount is one month of node creation.
type MonthCount struct {
	Month      string `json:"month" yaml:"month"`
	Count      int    `json:"count" yaml:"count"`
	Cumulative int    `json:"cumulative" yaml:"cumulative"`
}

// KindGrowth tracks creation over time for one discourse kind.
type KindGrowth struct {
	Kind   NodeKind     `json:"kind" yaml:"kind"`
	Count  int          `json:"count" yaml:"count"`
	First  *time.Time   `json:"first,omitempty" yaml:"first,omitempty"`
	Last   *time.Time   `json:"last,omitempty" yaml:"last,omitempty"`
	Months []MonthCount `json:"months" yaml:"months"`
}

// GraphGrowth summarizes the size of the discourse graph.
type GraphGrowth struct {
	TotalContentNodes int          `json:"total_content_nodes" yaml:"total_content_nodes"`
	Experiments       KindGrowth   `json:"experiments" yaml:"experiments"`
	Kinds             []KindGrowth `json:"kinds" yaml:"kinds"`
}

// Metrics groups every computed metric.
type Metrics struct {
	ConversionRate     ConversionRate     `json:"conversion_rate" yaml:"conversion_rate"`
	TimeToClaim        TimeToClaim        `json:"time_to_claim" yaml:"time_to_claim"`
	TimeToFirstResult  TimeToFirstResult  `json:"time_to_first_result" yaml:"time_to_first_result"`
	UniqueContributors UniqueContributors `json:"unique_contributors" yaml:"unique_contributors"`
	CrossPersonClaims  CrossPersonClaims  `json:"cross_person_claims" yaml:"cross_person_claims"`
	ExchangeNetwork    ExchangeNetwork    `json:"exchange_network" yaml:"exchange_network"`
	Funnel             Funnel             `json:"funnel" yaml:"funnel"`
	Survival           SurvivalAnalysis   `json:"survival" yaml:"survival"`
	GraphGrowth        GraphGrowth        `json:"graph_growth" yaml:"graph_growth"`
}

// DataSources records the input files of a run.
type DataSources struct {
	Semantic  string `json:"semantic" yaml:"semantic"`
	BlockTree string `json:"block_tree" yaml:"block_tree"`
}

// Summary counts the entities read from the semantic export.
type Summary struct {
	TotalExperimentPages int `json:"total_experiment_pages" yaml:"total_experiment_pages"`
	TotalIssueNodes      int `json:"total_iss_nodes" yaml:"total_iss_nodes"`
	TotalResultNodes     int `json:"total_res_nodes" yaml:"total_res_nodes"`
	TotalContentNodes    int `json:"total_content_nodes" yaml:"total_content_nodes"`
	RelationInstances    int `json:"relation_instances" yaml:"relation_instances"`
}

// Snapshot is the full output of one pipeline run. Generated is the as-of
// instant of the inputs, never the wall clock.
type Snapshot struct {
	Generated   time.Time          `json:"generated" yaml:"generated"`
	DataSources DataSources        `json:"data_sources" yaml:"data_sources"`
	Validation  *ValidationReport  `json:"validation,omitempty" yaml:"validation,omitempty"`
	Summary     Summary            `json:"summary" yaml:"summary"`
	Metrics     Metrics            `json:"metrics" yaml:"metrics"`
	Experiments []ExperimentRecord `json:"experiments" yaml:"experiments"`
	Issues      []IssueRecord      `json:"issues" yaml:"issues"`
	Results     []ResultRecord     `json:"results" yaml:"results"`
	Links       []ExperimentLinks  `json:"links" yaml:"links"`
}
