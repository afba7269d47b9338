// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics computes collaboration metrics over merged records:
// conversion rate, time to claim, time to first result, unique contributors,
// and cross-person claims, plus survival, funnel, exchange network, and
// graph growth summaries derived from them.
//
// Every function is pure and deterministic. Detail lists are sorted by
// their primary key with stable ordering, rates are percentages rounded to
// one decimal, and an empty denominator yields 0.
package metrics

import (
	"time"

	"github.com/pdiddy/discourse-metrics/pkg/types"
)

// Input is the merged record set a run computes over.
type Input struct {
	Experiments []types.ExperimentRecord
	Issues      []types.IssueRecord

	// Links maps experiment ID to its linked results.
	Links map[string][]types.LinkedResult

	NodesByKind       map[types.NodeKind][]types.Node
	TotalContentNodes int

	// AsOf is the export instant used to censor survival times.
	AsOf time.Time
}

// LinksByID indexes link sets by experiment ID. The first set for an ID wins.
func LinksByID(sets []types.ExperimentLinks) map[string][]types.LinkedResult {
	m := make(map[string][]types.LinkedResult, len(sets))
	for _, s := range sets {
		if _, ok := m[s.ExperimentID]; !ok {
			m[s.ExperimentID] = s.Results
		}
	}
	return m
}

// Compute runs every metric over in.
func Compute(in Input) types.Metrics {
	conv := ConversionRate(in.Experiments, in.Issues)
	ttfr := TimeToFirstResult(in.Experiments, in.Links)
	cross := CrossPersonClaims(in.Experiments)
	return types.Metrics{
		ConversionRate:     conv,
		TimeToClaim:        TimeToClaim(in.Experiments),
		TimeToFirstResult:  ttfr,
		UniqueContributors: UniqueContributors(in.Experiments, in.Links),
		CrossPersonClaims:  cross,
		ExchangeNetwork:    ExchangeNetwork(cross.ExchangePairs),
		Funnel:             Funnel(conv, ttfr),
		Survival:           Survival(in.Experiments, ttfr, in.AsOf),
		GraphGrowth:        GraphGrowth(in.NodesByKind, in.TotalContentNodes),
	}
}
