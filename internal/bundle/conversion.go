// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bundle

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/pdiddy/discourse-metrics/internal/instant"
	"github.com/pdiddy/discourse-metrics/internal/render"
	"github.com/pdiddy/discourse-metrics/pkg/types"
)

type conversionData struct {
	Description        string           `json:"description"`
	SnapshotDate       string           `json:"snapshot_date"`
	System             string           `json:"system"`
	Conversion         conversionCounts `json:"conversion"`
	ClaimingType       claimBreakdown   `json:"claiming_type_breakdown"`
	ClaimingAuthorship knownAuthorship  `json:"claiming_authorship"`
	ResultProduction   resultProduction `json:"result_production"`
	IssueComposition   issueComposition `json:"issue_composition"`
}

type conversionCounts struct {
	TotalIssues           int     `json:"total_issues"`
	TotalClaimed          int     `json:"total_claimed"`
	ConversionRatePercent float64 `json:"conversion_rate_percent"`
	UnclaimedIssues       int     `json:"unclaimed_iss"`
}

type knownAuthorship struct {
	SelfClaimed             int     `json:"self_claimed"`
	CrossPersonClaiming     int     `json:"cross_person_claiming"`
	KnownAuthorship         int     `json:"claimed_experiments_with_known_authorship"`
	IdeaExchangeRatePercent float64 `json:"idea_exchange_rate_percent"`
}

type resultProduction struct {
	ClaimedWithResults     int     `json:"claimed_with_results"`
	ClaimedWithoutResults  int     `json:"claimed_without_results"`
	ClaimToResultPercent   float64 `json:"claim_to_result_percent"`
	TotalResultNodes       int     `json:"total_res_nodes"`
	AvgResultsPerProducing float64 `json:"avg_res_per_producing_experiment"`
}

type issueComposition struct {
	FormalIssueNodes   int    `json:"formal_iss_nodes"`
	ClaimedExperiments int    `json:"claimed_experiment_pages"`
	Description        string `json:"description"`
}

type timelineData struct {
	Description       string             `json:"description"`
	SnapshotDate      string             `json:"snapshot_date"`
	TotalIssues       int                `json:"total_issues"`
	TotalClaimed      int                `json:"total_claimed"`
	Issues            []timelineIssue    `json:"issues"`
	MonthlySummary    []timelineMonth    `json:"monthly_summary"`
	NodeGrowth        []types.KindGrowth `json:"discourse_node_growth"`
	TotalContentNodes int                `json:"total_content_nodes"`
}

type timelineIssue struct {
	Date      string `json:"date"`
	Type      string `json:"type"`
	Claimed   bool   `json:"claimed"`
	ClaimType string `json:"claim_type"`
}

type timelineMonth struct {
	Month             string `json:"month"`
	NewIssues         int    `json:"new_issues"`
	NewClaimed        int    `json:"new_claimed"`
	CumulativeIssues  int    `json:"cumulative_issues"`
	CumulativeClaimed int    `json:"cumulative_claimed"`
}

type conversionMetrics struct {
	TotalIssues           int     `json:"total_issues"`
	TotalClaimed          int     `json:"total_claimed"`
	UnclaimedIssues       int     `json:"unclaimed_iss"`
	ExplicitlyClaimed     int     `json:"explicitly_claimed"`
	InferredClaiming      int     `json:"inferred_claiming"`
	IssuesWithActivity    int     `json:"iss_with_activity"`
	ConversionRatePercent float64 `json:"conversion_rate_percent"`
}

// Timeline entry kinds and ISS claim labels.
const (
	timelineExperiment = "experiment"
	timelineIssueNode  = "ISS"

	issueActivity  = "iss_activity"
	issueUnclaimed = "unclaimed"
)

// WriteConversion writes the issue conversion rate bundle and returns its
// directory.
func WriteConversion(snap *types.Snapshot, opts Options) (string, error) {
	w, err := newWriter(opts, ConversionBundle)
	if err != nil {
		return "", err
	}
	m := snap.Metrics
	conv, ttfr, f := m.ConversionRate, m.TimeToFirstResult, m.Funnel

	var figs []string
	for _, src := range figures(opts.Figures, render.FigureFunnel, render.FigureDistributions) {
		rel, err := w.copyFigure(src, "Rendered chart")
		if err != nil {
			return "", err
		}
		if rel != "" {
			figs = append(figs, rel)
		}
	}

	formal := conv.UnclaimedIssues + conv.IssuesWithActivity
	data := conversionData{
		Description:  "Aggregated conversion rate data: issue conversion rate",
		SnapshotDate: asOfDate(snap),
		System:       opts.system(),
		Conversion: conversionCounts{
			TotalIssues:           conv.TotalIssues,
			TotalClaimed:          conv.TotalClaimed,
			ConversionRatePercent: conv.ConversionRatePercent,
			UnclaimedIssues:       conv.UnclaimedIssues,
		},
		ClaimingType: claimBreakdown{
			ExplicitlyClaimed:  conv.ExplicitClaims,
			InferredClaiming:   conv.InferredClaims,
			IssuesWithActivity: conv.IssuesWithActivity,
		},
		ClaimingAuthorship: knownAuthorship{
			SelfClaimed:             conv.SelfClaims,
			CrossPersonClaiming:     conv.CrossPersonClaims,
			KnownAuthorship:         conv.SelfClaims + conv.CrossPersonClaims,
			IdeaExchangeRatePercent: m.CrossPersonClaims.IdeaExchangeRate,
		},
		ResultProduction: resultProduction{
			ClaimedWithResults:     ttfr.Count,
			ClaimedWithoutResults:  max(conv.TotalClaimed-ttfr.Count, 0),
			ClaimToResultPercent:   f.ClaimToResultPercent,
			TotalResultNodes:       f.TotalLinkedResults,
			AvgResultsPerProducing: f.AvgResultsPerProducing,
		},
		IssueComposition: issueComposition{
			FormalIssueNodes:   formal,
			ClaimedExperiments: conv.ClaimedExperiments,
			Description: fmt.Sprintf("Total issues = %d formal ISS nodes + %d claimed experiment pages = %d",
				formal, conv.ClaimedExperiments, conv.TotalIssues),
		},
	}
	if err := w.writeJSON("data/conversion_data.json", "Aggregated conversion counts and breakdowns", data); err != nil {
		return "", err
	}
	if err := w.writeJSON("data/issue_timeline_data.json", "Issue creation timeline with monthly cumulative counts", timeline(snap)); err != nil {
		return "", err
	}

	statement := fmt.Sprintf("Of %d total issues in the %s, %d (%.1f%%) were claimed: %d explicitly, %d inferred from an experimental log, and %d ISS pages with logged activity.",
		conv.TotalIssues, opts.system(), conv.TotalClaimed, conv.ConversionRatePercent,
		conv.ExplicitClaims, conv.InferredClaims, conv.IssuesWithActivity)
	var doc strings.Builder
	fmt.Fprintf(&doc, "# Issue Conversion Rate\n\n## Evidence Statement\n\n%s\n", statement)
	if len(figs) > 0 {
		fmt.Fprintf(&doc, "\n## Figures\n\n")
		for _, fig := range figs {
			fmt.Fprintf(&doc, "- `%s`\n", fig)
		}
	}
	if err := w.writeFile("docs/evidence_statement.md", "Evidence statement", []byte(doc.String())); err != nil {
		return "", err
	}

	id := ID(ConversionBundle, snap)
	ev := evidence{
		Context:    evidenceContext,
		Type:       "dge:EvidenceBundle",
		ID:         ConversionBundle,
		Identifier: id.URN(),
		Title: fmt.Sprintf("[[RES]] - %.0f%% of issues (n=%d) were claimed as experiments",
			conv.ConversionRatePercent, conv.TotalIssues),
		Date:      asOfDate(snap),
		License:   licenseURL,
		Statement: statement,
		Observable: described{
			Type:        "dge:Observable",
			Title:       "Issue conversion rate",
			Description: "The share of identifiable issues that were claimed as experiments or gained logged activity.",
		},
		Method: method{
			described: described{
				Type:        "dge:Method",
				Title:       "Discourse graph claim detection",
				Description: "Count issues, explicit Claimed By claims, claims inferred from experimental logs, and ISS pages with logged activity.",
			},
			Used: methodUsed(),
		},
		System: described{
			Type:  "dge:System",
			Title: opts.system(),
			Description: fmt.Sprintf("Snapshot of %s with %d content nodes.",
				asOfDate(snap), snap.Summary.TotalContentNodes),
		},
		Figures: figureObjects(figs),
		GroundingData: []download{
			{Type: "schema:DataDownload", ContentURL: "data/conversion_data.json", EncodingFormat: "application/json", Description: "Aggregated conversion data"},
			{Type: "schema:DataDownload", ContentURL: "data/issue_timeline_data.json", EncodingFormat: "application/json", Description: "Issue creation timeline"},
		},
		Documentation: []download{
			{Type: "schema:TextDigitalDocument", ContentURL: "docs/evidence_statement.md", EncodingFormat: "text/markdown", Description: "Evidence statement"},
		},
		GeneratedBy: generatedBy(snap, opts),
		SummaryMetrics: conversionMetrics{
			TotalIssues:           conv.TotalIssues,
			TotalClaimed:          conv.TotalClaimed,
			UnclaimedIssues:       conv.UnclaimedIssues,
			ExplicitlyClaimed:     conv.ExplicitClaims,
			InferredClaiming:      conv.InferredClaims,
			IssuesWithActivity:    conv.IssuesWithActivity,
			ConversionRatePercent: conv.ConversionRatePercent,
		},
	}
	if err := w.writeJSON("evidence.jsonld", "Canonical JSON-LD evidence metadata", ev); err != nil {
		return "", err
	}

	if err := w.writeCrate(id, "Issue conversion rate", statement, asOfDate(snap)); err != nil {
		return "", err
	}
	return w.dir, nil
}

// timeline lists dated claimed experiments and ISS nodes by creation day
// and folds them into monthly cumulative counts. Undated records are
// skipped.
func timeline(snap *types.Snapshot) timelineData {
	var issues []timelineIssue
	for _, e := range snap.Experiments {
		if e.ClaimedBy == "" || e.PageCreated == nil {
			continue
		}
		issues = append(issues, timelineIssue{
			Date:      instant.Date(e.PageCreated),
			Type:      timelineExperiment,
			Claimed:   true,
			ClaimType: string(e.ClaimType),
		})
	}
	for _, i := range snap.Issues {
		if i.PageCreated == nil {
			continue
		}
		label := issueUnclaimed
		if i.IsClaimed {
			label = issueActivity
		}
		issues = append(issues, timelineIssue{
			Date:      instant.Date(i.PageCreated),
			Type:      timelineIssueNode,
			Claimed:   i.IsClaimed,
			ClaimType: label,
		})
	}
	slices.SortStableFunc(issues, func(a, b timelineIssue) int { return cmp.Compare(a.Date, b.Date) })

	var months []timelineMonth
	claimed := 0
	for _, iss := range issues {
		month := iss.Date[:7]
		if len(months) == 0 || months[len(months)-1].Month != month {
			months = append(months, timelineMonth{Month: month})
		}
		cur := &months[len(months)-1]
		cur.NewIssues++
		if iss.Claimed {
			cur.NewClaimed++
			claimed++
		}
	}
	total, cumClaimed := 0, 0
	for i := range months {
		total += months[i].NewIssues
		cumClaimed += months[i].NewClaimed
		months[i].CumulativeIssues = total
		months[i].CumulativeClaimed = cumClaimed
	}

	growth := snap.Metrics.GraphGrowth
	return timelineData{
		Description:       "Issue creation timeline",
		SnapshotDate:      asOfDate(snap),
		TotalIssues:       len(issues),
		TotalClaimed:      claimed,
		Issues:            issues,
		MonthlySummary:    months,
		NodeGrowth:        append([]types.KindGrowth{growth.Experiments}, growth.Kinds...),
		TotalContentNodes: growth.TotalContentNodes,
	}
}
