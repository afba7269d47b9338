// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"cmp"
	"slices"

	"github.com/pdiddy/discourse-metrics/pkg/types"
)

// Contributors returns the sorted set of people involved in an experiment:
// its issue creator, claimer, creator, and primary contributor, plus the
// creator and primary contributor of every linked result.
func Contributors(e types.ExperimentRecord, linked []types.LinkedResult) []string {
	set := make(map[string]bool)
	for _, p := range []string{e.IssueCreatedBy, e.ClaimedBy, e.Creator, e.PrimaryContributor} {
		if p != "" {
			set[p] = true
		}
	}
	for _, r := range linked {
		if r.Creator != "" {
			set[r.Creator] = true
		}
		if r.PrimaryContributor != "" {
			set[r.PrimaryContributor] = true
		}
	}
	people := make([]string, 0, len(set))
	for p := range set {
		people = append(people, p)
	}
	slices.Sort(people)
	return people
}

// UniqueContributors measures contributor cardinality over claimed
// experiments.
func UniqueContributors(exps []types.ExperimentRecord, links map[string][]types.LinkedResult) types.UniqueContributors {
	u := types.UniqueContributors{
		Distribution: []types.ContributorBin{},
		Details:      []types.ContributorSet{},
	}
	bins := make(map[int]int)
	var counts []float64
	for _, e := range exps {
		if !e.IsClaimed {
			continue
		}
		people := Contributors(e, links[e.ID])
		n := len(people)
		counts = append(counts, float64(n))
		bins[n]++
		switch {
		case n > 1:
			u.MultiContributor++
		case n == 1:
			u.SingleContributor++
		}
		u.Details = append(u.Details, types.ContributorSet{
			Title:        e.Title,
			Count:        n,
			Contributors: people,
			LinkedCount:  len(links[e.ID]),
		})
	}

	u.Count = len(counts)
	if len(counts) > 0 {
		avg := round(mean(counts), 2)
		u.AvgContributors = &avg
	}
	for n, exps := range bins {
		u.Distribution = append(u.Distribution, types.ContributorBin{Contributors: n, Experiments: exps})
	}
	slices.SortFunc(u.Distribution, func(a, b types.ContributorBin) int {
		return cmp.Compare(a.Contributors, b.Contributors)
	})
	slices.SortStableFunc(u.Details, func(a, b types.ContributorSet) int {
		return cmp.Compare(b.Count, a.Count)
	})
	return u
}
