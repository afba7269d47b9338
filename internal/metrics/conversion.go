// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import "github.com/pdiddy/discourse-metrics/pkg/types"

// Origin classifies a claim: unknown without an issue creator, self when the
// claimer raised the issue, cross otherwise.
func Origin(issueCreatedBy, claimedBy string) types.ClaimOrigin {
	switch {
	case issueCreatedBy == "" || claimedBy == "":
		return types.OriginUnknown
	case issueCreatedBy == claimedBy:
		return types.OriginSelf
	default:
		return types.OriginCross
	}
}

// ConversionRate computes the share of issues that became claimed work.
// Claimed experiments and issues with logged activity count as claimed;
// issues without a log count as unclaimed.
func ConversionRate(exps []types.ExperimentRecord, issues []types.IssueRecord) types.ConversionRate {
	var c types.ConversionRate
	c.ClaimedTitles = []string{}

	for _, e := range exps {
		if e.ClaimedBy == "" {
			continue
		}
		c.ClaimedExperiments++
		c.ClaimedTitles = append(c.ClaimedTitles, e.Title)
		switch e.ClaimType {
		case types.ClaimExplicit:
			c.ExplicitClaims++
		case types.ClaimInferred:
			c.InferredClaims++
		}
		switch Origin(e.IssueCreatedBy, e.ClaimedBy) {
		case types.OriginSelf:
			c.SelfClaims++
		case types.OriginCross:
			c.CrossPersonClaims++
		default:
			c.UnknownClaims++
		}
	}

	for _, i := range issues {
		if i.HasExperimentalLog {
			c.IssuesWithActivity++
		} else {
			c.UnclaimedIssues++
		}
	}

	c.TotalClaimed = c.ClaimedExperiments + c.IssuesWithActivity
	c.TotalIssues = c.TotalClaimed + c.UnclaimedIssues
	c.ConversionRatePercent = percent(c.TotalClaimed, c.TotalIssues)
	return c
}
