// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/pdiddy/discourse-metrics/pkg/types"
)

// CrossPersonClaims partitions claimed experiments into self, cross, and
// unknown claims and counts directed issue-creator to claimer pairs.
func CrossPersonClaims(exps []types.ExperimentRecord) types.CrossPersonClaims {
	c := types.CrossPersonClaims{
		CrossDetails:   []types.ClaimPair{},
		SelfDetails:    []types.ClaimPair{},
		UnknownDetails: []types.ClaimPair{},
		ExchangePairs:  []types.ExchangePair{},
	}
	pairIndex := make(map[[2]string]int)

	for _, e := range exps {
		if e.ClaimedBy == "" {
			continue
		}
		p := types.ClaimPair{
			Title:          e.Title,
			IssueCreatedBy: e.IssueCreatedBy,
			ClaimedBy:      e.ClaimedBy,
			ClaimType:      e.ClaimType,
			Origin:         Origin(e.IssueCreatedBy, e.ClaimedBy),
			PageCreated:    e.PageCreated,
		}
		switch p.Origin {
		case types.OriginSelf:
			c.SelfDetails = append(c.SelfDetails, p)
		case types.OriginCross:
			c.CrossDetails = append(c.CrossDetails, p)
			key := [2]string{e.IssueCreatedBy, e.ClaimedBy}
			if i, ok := pairIndex[key]; ok {
				c.ExchangePairs[i].Count++
			} else {
				pairIndex[key] = len(c.ExchangePairs)
				c.ExchangePairs = append(c.ExchangePairs, types.ExchangePair{From: key[0], To: key[1], Count: 1})
			}
		default:
			c.UnknownDetails = append(c.UnknownDetails, p)
		}
	}

	for _, details := range [][]types.ClaimPair{c.CrossDetails, c.SelfDetails, c.UnknownDetails} {
		slices.SortStableFunc(details, byPageCreated)
	}
	// Ties keep first-seen order.
	slices.SortStableFunc(c.ExchangePairs, func(a, b types.ExchangePair) int {
		return cmp.Compare(b.Count, a.Count)
	})

	c.CrossPersonCount = len(c.CrossDetails)
	c.SelfClaimCount = len(c.SelfDetails)
	c.UnknownCount = len(c.UnknownDetails)
	c.IdeaExchangeRate = percent(c.CrossPersonCount, c.CrossPersonCount+c.SelfClaimCount)
	return c
}

// byPageCreated orders claims chronologically with undated claims last.
func byPageCreated(a, b types.ClaimPair) int {
	switch {
	case a.PageCreated == nil && b.PageCreated == nil:
		return 0
	case a.PageCreated == nil:
		return 1
	case b.PageCreated == nil:
		return -1
	}
	return a.PageCreated.Compare(*b.PageCreated)
}

const (
	pageRankDamping   = 0.85
	pageRankTolerance = 1e-6
)

// ExchangeNetwork builds the directed graph of issue creators whose issues
// were claimed by someone else and ranks people with PageRank. Scores are
// rounded to four decimals.
func ExchangeNetwork(pairs []types.ExchangePair) types.ExchangeNetwork {
	net := types.ExchangeNetwork{Members: []types.PersonCentrality{}}
	if len(pairs) == 0 {
		return net
	}

	var people []string
	seen := make(map[string]bool)
	for _, p := range pairs {
		for _, name := range []string{p.From, p.To} {
			if !seen[name] {
				seen[name] = true
				people = append(people, name)
			}
		}
	}
	slices.Sort(people)
	ids := make(map[string]int64, len(people))
	for i, name := range people {
		ids[name] = int64(i)
	}

	g := simple.NewDirectedGraph()
	for _, name := range people {
		g.AddNode(simple.Node(ids[name]))
	}
	raised := make(map[string]int)
	claimed := make(map[string]int)
	for _, p := range pairs {
		if p.From == p.To {
			continue
		}
		g.SetEdge(g.NewEdge(simple.Node(ids[p.From]), simple.Node(ids[p.To])))
		raised[p.From] += p.Count
		claimed[p.To] += p.Count
	}

	ranks := network.PageRank(g, pageRankDamping, pageRankTolerance)
	for _, name := range people {
		id := ids[name]
		partners := make(map[int64]bool)
		from := g.From(id)
		for from.Next() {
			partners[from.Node().ID()] = true
		}
		to := g.To(id)
		for to.Next() {
			partners[to.Node().ID()] = true
		}
		net.Members = append(net.Members, types.PersonCentrality{
			Person:                name,
			IssuesClaimedByOthers: raised[name],
			ClaimsOfOthers:        claimed[name],
			DistinctPartners:      len(partners),
			PageRank:              round(ranks[id], 4),
		})
	}
	slices.SortStableFunc(net.Members, func(a, b types.PersonCentrality) int {
		if c := cmp.Compare(b.PageRank, a.PageRank); c != 0 {
			return c
		}
		return cmp.Compare(a.Person, b.Person)
	})

	net.People = len(people)
	net.Edges = g.Edges().Len()
	return net
}
