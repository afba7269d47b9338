// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import "github.com/pdiddy/discourse-metrics/pkg/types"

// Funnel stage names.
const (
	StageIssues      = "issues"
	StageClaimed     = "claimed"
	StageWithResults = "with_results"
)

// Funnel follows work from issue to claim to result.
func Funnel(conv types.ConversionRate, ttfr types.TimeToFirstResult) types.Funnel {
	withResults := ttfr.Count
	linked := 0
	for _, d := range ttfr.Details {
		linked += d.TotalLinkedResults
	}
	avg := 0.0
	if withResults > 0 {
		avg = round(float64(linked)/float64(withResults), 1)
	}
	return types.Funnel{
		Stages: []types.FunnelStage{
			{Stage: StageIssues, Count: conv.TotalIssues},
			{Stage: StageClaimed, Count: conv.TotalClaimed},
			{Stage: StageWithResults, Count: withResults},
		},
		IssueToClaimPercent:     percent(conv.TotalClaimed, conv.TotalIssues),
		ClaimToResultPercent:    percent(withResults, conv.TotalClaimed),
		IssueToResultPercent:    percent(withResults, conv.TotalIssues),
		ClaimingToResultPercent: percent(withResults, conv.TotalClaimed),
		TotalLinkedResults:      linked,
		AvgResultsPerProducing:  avg,
	}
}
