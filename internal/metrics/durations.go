// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"cmp"
	"slices"
	"time"

	"github.com/pdiddy/discourse-metrics/internal/instant"
	"github.com/pdiddy/discourse-metrics/pkg/types"
)

// TimeToClaim measures whole days from page creation to claim for claimed
// experiments that have both instants.
func TimeToClaim(exps []types.ExperimentRecord) types.TimeToClaim {
	details := []types.ClaimDelay{}
	var days []int
	for _, e := range exps {
		if e.ClaimedBy == "" || e.PageCreated == nil || e.ClaimedAt == nil {
			continue
		}
		d := instant.DaysBetween(*e.PageCreated, *e.ClaimedAt)
		days = append(days, d)
		details = append(details, types.ClaimDelay{
			Title:          e.Title,
			IssueCreatedBy: e.IssueCreatedBy,
			ClaimedBy:      e.ClaimedBy,
			PageCreated:    *e.PageCreated,
			ClaimedAt:      *e.ClaimedAt,
			DaysToClaim:    d,
		})
	}
	slices.SortStableFunc(details, func(a, b types.ClaimDelay) int {
		return cmp.Compare(a.DaysToClaim, b.DaysToClaim)
	})
	return types.TimeToClaim{DurationStats: durationStats(days), Details: details}
}

// referenceInstant is the claim instant for explicit claims that have one,
// and the page creation instant otherwise.
func referenceInstant(e types.ExperimentRecord) *time.Time {
	if e.ClaimType == types.ClaimExplicit && e.ClaimedAt != nil {
		return e.ClaimedAt
	}
	return e.PageCreated
}

// earliestResult returns the linked result created first. Ties keep the
// earlier link.
func earliestResult(linked []types.LinkedResult) (types.LinkedResult, bool) {
	var best types.LinkedResult
	found := false
	for _, r := range linked {
		if r.Created == nil {
			continue
		}
		if !found || r.Created.Before(*best.Created) {
			best = r
			found = true
		}
	}
	return best, found
}

// TimeToFirstResult measures whole days from the reference instant to the
// earliest linked result for claimed experiments. Results that predate the
// reference give negative durations and are kept.
func TimeToFirstResult(exps []types.ExperimentRecord, links map[string][]types.LinkedResult) types.TimeToFirstResult {
	details := []types.FirstResult{}
	var days []int
	negative := 0
	for _, e := range exps {
		if !e.IsClaimed {
			continue
		}
		ref := referenceInstant(e)
		if ref == nil {
			continue
		}
		first, ok := earliestResult(links[e.ID])
		if !ok {
			continue
		}
		d := instant.DaysBetween(*ref, *first.Created)
		if d < 0 {
			negative++
		}
		days = append(days, d)
		details = append(details, types.FirstResult{
			ExperimentTitle:        e.Title,
			ClaimedBy:              e.ClaimedBy,
			ClaimType:              e.ClaimType,
			ReferenceTimestamp:     *ref,
			FirstResultTitle:       first.Title,
			FirstResultCreated:     *first.Created,
			FirstResultCreator:     first.Creator,
			FirstResultContributor: first.PrimaryContributor,
			FirstResultTier:        first.Tier,
			DaysToFirstResult:      d,
			TotalLinkedResults:     len(links[e.ID]),
		})
	}
	slices.SortStableFunc(details, func(a, b types.FirstResult) int {
		return cmp.Compare(a.DaysToFirstResult, b.DaysToFirstResult)
	})
	return types.TimeToFirstResult{
		DurationStats: durationStats(days),
		NegativeCount: negative,
		Details:       details,
	}
}
