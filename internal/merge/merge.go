// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge reconciles semantic export nodes with block-tree page facts
// into experiment, issue, and result records. Records are joined by exact
// title. Block-tree values override semantic values because they carry
// timestamps.
package merge

import (
	"github.com/pdiddy/discourse-metrics/internal/blocktree"
	"github.com/pdiddy/discourse-metrics/internal/instant"
	"github.com/pdiddy/discourse-metrics/pkg/types"
)

// Experiments returns one record per experiment node, in input order.
func Experiments(nodes []types.Node, facts map[string]blocktree.PageFacts) []types.ExperimentRecord {
	out := make([]types.ExperimentRecord, 0, len(nodes))
	for _, n := range nodes {
		f, ok := facts[n.Title]
		out = append(out, Experiment(n, f, ok))
	}
	return out
}

// Experiment merges one experiment node with its page facts. found reports
// whether the block-tree export had a page with the node's title.
func Experiment(n types.Node, f blocktree.PageFacts, found bool) types.ExperimentRecord {
	rec := types.ExperimentRecord{
		ID:             n.ID,
		Title:          n.Title,
		Creator:        n.Creator,
		ClaimedBy:      n.ClaimedBy,
		ClaimType:      types.ClaimNone,
		IssueCreatedBy: n.IssueCreatedBy,
		MadeBy:         n.MadeBy,
		Author:         n.Author,
		Status:         n.Status,
		PageCreated:    n.Created,
	}
	if rec.ClaimedBy != "" {
		rec.ClaimType = types.ClaimExplicit
	}

	if found {
		rec.PageCreated = instant.Min(n.Created, f.PageCreated, f.EarliestBlock)
		rec.HasExperimentalLog = f.HasExperimentalLog
		rec.LogEntryCount = f.LogEntryCount()
		rec.FirstLogEntry = f.FirstLogEntry

		if f.IssueCreatedBy != nil {
			rec.IssueCreatedBy = f.IssueCreatedBy.Person
		}
		if f.MadeBy != nil {
			rec.MadeBy = f.MadeBy.Person
		}
		if f.Author != nil {
			rec.Author = f.Author.Person
		}

		switch {
		case f.ClaimedBy != nil:
			rec.ClaimedBy = f.ClaimedBy.Person
			rec.ClaimedAt = f.ClaimedBy.At
			rec.ClaimType = types.ClaimExplicit
		case rec.ClaimedBy == "" && inferable(f, n.Creator):
			rec.ClaimedBy = n.Creator
			rec.ClaimedAt = f.FirstLogEntry
			rec.ClaimType = types.ClaimInferred
			if rec.IssueCreatedBy == "" {
				rec.IssueCreatedBy = n.Creator
			}
		}
	}

	rec.PrimaryContributor, rec.AttributionMethod = Primary(rec.MadeBy, rec.ClaimedBy, rec.Author, rec.Creator)
	rec.IsClaimed = rec.ClaimedBy != "" || rec.HasExperimentalLog
	return rec
}

// inferable reports whether a page with no claim declaration shows enough
// logged activity to count as claimed by its creator.
func inferable(f blocktree.PageFacts, creator string) bool {
	return creator != "" && f.HasExperimentalLog && f.LogEntryCount() > 0
}

// Issues returns one record per issue node, in input order.
func Issues(nodes []types.Node, facts map[string]blocktree.PageFacts) []types.IssueRecord {
	out := make([]types.IssueRecord, 0, len(nodes))
	for _, n := range nodes {
		rec := types.IssueRecord{
			ID:             n.ID,
			Title:          n.Title,
			Creator:        n.Creator,
			PageCreated:    n.Created,
			IssueCreatedBy: n.IssueCreatedBy,
			MadeBy:         n.MadeBy,
			Author:         n.Author,
			Status:         n.Status,
		}
		if f, ok := facts[n.Title]; ok {
			rec.PageCreated = instant.Min(n.Created, f.PageCreated, f.EarliestBlock)
			rec.HasExperimentalLog = f.HasExperimentalLog
			rec.LogEntryCount = f.LogEntryCount()
			rec.FirstLogEntry = f.FirstLogEntry
			if f.IssueCreatedBy != nil {
				rec.IssueCreatedBy = f.IssueCreatedBy.Person
			}
			if f.MadeBy != nil {
				rec.MadeBy = f.MadeBy.Person
			}
			if f.Author != nil {
				rec.Author = f.Author.Person
			}
		}
		rec.PrimaryContributor, rec.AttributionMethod = Primary(rec.MadeBy, "", rec.Author, rec.Creator)
		rec.IsClaimed = rec.HasExperimentalLog
		out = append(out, rec)
	}
	return out
}

// Results converts result nodes to records, in input order.
func Results(nodes []types.Node) []types.ResultRecord {
	out := make([]types.ResultRecord, 0, len(nodes))
	for _, n := range nodes {
		rec := types.ResultRecord{
			ID:      n.ID,
			Title:   n.Title,
			Created: n.Created,
			Creator: n.Creator,
			MadeBy:  n.MadeBy,
			Author:  n.Author,
		}
		rec.PrimaryContributor, rec.AttributionMethod = Primary(rec.MadeBy, "", rec.Author, rec.Creator)
		out = append(out, rec)
	}
	return out
}

// Primary picks the primary contributor by strict priority:
// madeBy, claimedBy, author, creator.
func Primary(madeBy, claimedBy, author, creator string) (string, types.AttributionMethod) {
	switch {
	case madeBy != "":
		return madeBy, types.AttributedMadeBy
	case claimedBy != "":
		return claimedBy, types.AttributedClaimedBy
	case author != "":
		return author, types.AttributedAuthor
	case creator != "":
		return creator, types.AttributedCreator
	}
	return "", types.AttributedNone
}
