// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"slices"

	"github.com/pdiddy/discourse-metrics/internal/instant"
	"github.com/pdiddy/discourse-metrics/pkg/types"
)

// kindGrowth counts nodes of one kind by creation month. Undated nodes count
// toward the total only.
func kindGrowth(kind types.NodeKind, nodes []types.Node) types.KindGrowth {
	g := types.KindGrowth{Kind: kind, Count: len(nodes), Months: []types.MonthCount{}}
	months := make(map[string]int)
	for _, n := range nodes {
		if n.Created == nil {
			continue
		}
		g.First = instant.Min(g.First, n.Created)
		g.Last = instant.Max(g.Last, n.Created)
		months[n.Created.Format("2006-01")]++
	}
	keys := make([]string, 0, len(months))
	for m := range months {
		keys = append(keys, m)
	}
	slices.Sort(keys)
	total := 0
	for _, m := range keys {
		total += months[m]
		g.Months = append(g.Months, types.MonthCount{Month: m, Count: months[m], Cumulative: total})
	}
	return g
}

// GraphGrowth summarizes node creation over time for experiments and every
// discourse kind.
func GraphGrowth(byKind map[types.NodeKind][]types.Node, totalContent int) types.GraphGrowth {
	g := types.GraphGrowth{
		TotalContentNodes: totalContent,
		Experiments:       kindGrowth(types.KindExperiment, byKind[types.KindExperiment]),
	}
	for _, k := range types.DiscourseKinds {
		g.Kinds = append(g.Kinds, kindGrowth(k, byKind[k]))
	}
	return g
}
