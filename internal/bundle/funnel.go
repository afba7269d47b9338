// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bundle

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/discourse-metrics/internal/instant"
	"github.com/pdiddy/discourse-metrics/internal/render"
	"github.com/pdiddy/discourse-metrics/pkg/types"
)

type funnelSummary struct {
	Description           string          `json:"description"`
	SnapshotDate          string          `json:"snapshot_date"`
	System                string          `json:"system"`
	Funnel                funnelCounts    `json:"funnel"`
	ConversionRates       conversionRates `json:"conversion_rates"`
	ClaimingTypeBreakdown claimBreakdown  `json:"claiming_type_breakdown"`
	ResultBreakdown       resultBreakdown `json:"result_breakdown"`
	ClaimingAuthorship    claimAuthorship `json:"claiming_authorship"`
}

type funnelCounts struct {
	TotalIssues            int `json:"total_issues"`
	ClaimedExperiments     int `json:"claimed_experiments"`
	ExperimentsWithResults int `json:"experiments_with_results"`
	TotalResultNodes       int `json:"total_res_nodes"`
}

type conversionRates struct {
	IssueToClaim     float64 `json:"issue_to_claim_percent"`
	ClaimToResult    float64 `json:"claim_to_result_percent"`
	IssueToResult    float64 `json:"issue_to_result_percent"`
	ClaimingToResult float64 `json:"claiming_to_result_percent"`
}

type claimBreakdown struct {
	ExplicitlyClaimed  int `json:"explicitly_claimed"`
	InferredClaiming   int `json:"inferred_claiming"`
	IssuesWithActivity int `json:"iss_with_activity"`
}

type resultBreakdown struct {
	ClaimedWithResults     int     `json:"claimed_with_results"`
	ClaimedWithoutResults  int     `json:"claimed_without_results"`
	AvgResultsPerProducing float64 `json:"avg_res_per_producing_experiment"`
}

type claimAuthorship struct {
	SelfClaimed             int     `json:"self_claimed"`
	CrossPersonClaiming     int     `json:"cross_person_claiming"`
	IdeaExchangeRatePercent float64 `json:"idea_exchange_rate_percent"`
}

type funnelMetrics struct {
	TotalIssues             int     `json:"total_issues"`
	ClaimedExperiments      int     `json:"claimed_experiments"`
	ExplicitlyClaimed       int     `json:"explicitly_claimed"`
	InferredClaiming        int     `json:"inferred_claiming"`
	IssuesWithActivity      int     `json:"iss_with_activity"`
	ExperimentsWithResults  int     `json:"experiments_with_results"`
	TotalResultNodes        int     `json:"total_res_nodes"`
	ConversionRatePercent   float64 `json:"conversion_rate_percent"`
	ClaimingToResultPercent float64 `json:"claiming_to_result_percent"`
}

// experimentColumns is the experiment_details.csv header.
var experimentColumns = []string{
	"title", "creator", "claimer", "claim_type",
	"issue_created_by", "page_created", "claimed_timestamp",
	"has_results", "num_results", "first_result_date",
	"time_to_claim_days", "time_to_first_result_days",
}

// WriteFunnel writes the issue to experiment to result funnel bundle and
// returns its directory.
func WriteFunnel(snap *types.Snapshot, opts Options) (string, error) {
	w, err := newWriter(opts, FunnelBundle)
	if err != nil {
		return "", err
	}
	m := snap.Metrics
	conv, ttfr, f := m.ConversionRate, m.TimeToFirstResult, m.Funnel

	var figs []string
	for _, src := range figures(opts.Figures, render.FigureFunnel, render.FigureSurvival) {
		rel, err := w.copyFigure(src, "Rendered chart")
		if err != nil {
			return "", err
		}
		if rel != "" {
			figs = append(figs, rel)
		}
	}

	summary := funnelSummary{
		Description:  "Aggregated funnel data: issue to experiment to result conversion",
		SnapshotDate: asOfDate(snap),
		System:       opts.system(),
		Funnel: funnelCounts{
			TotalIssues:            conv.TotalIssues,
			ClaimedExperiments:     conv.TotalClaimed,
			ExperimentsWithResults: ttfr.Count,
			TotalResultNodes:       f.TotalLinkedResults,
		},
		ConversionRates: conversionRates{
			IssueToClaim:     conv.ConversionRatePercent,
			ClaimToResult:    f.ClaimToResultPercent,
			IssueToResult:    f.IssueToResultPercent,
			ClaimingToResult: f.ClaimingToResultPercent,
		},
		ClaimingTypeBreakdown: claimBreakdown{
			ExplicitlyClaimed:  conv.ExplicitClaims,
			InferredClaiming:   conv.InferredClaims,
			IssuesWithActivity: conv.IssuesWithActivity,
		},
		ResultBreakdown: resultBreakdown{
			ClaimedWithResults:     ttfr.Count,
			ClaimedWithoutResults:  max(conv.TotalClaimed-ttfr.Count, 0),
			AvgResultsPerProducing: f.AvgResultsPerProducing,
		},
		ClaimingAuthorship: claimAuthorship{
			SelfClaimed:             conv.SelfClaims,
			CrossPersonClaiming:     conv.CrossPersonClaims,
			IdeaExchangeRatePercent: m.CrossPersonClaims.IdeaExchangeRate,
		},
	}
	if err := w.writeJSON("data/funnel_summary.json", "Aggregated funnel counts, conversion rates, and breakdowns", summary); err != nil {
		return "", err
	}

	details, err := experimentDetails(snap, opts)
	if err != nil {
		return "", err
	}
	if err := w.writeFile("data/experiment_details.csv", "Per-experiment claim type, timestamps, and result counts", details); err != nil {
		return "", err
	}

	statement := funnelStatement(snap, opts.system())
	if err := w.writeFile("docs/evidence_statement.md", "Evidence statement and figure legend", []byte(funnelStatementDoc(snap, statement, figs))); err != nil {
		return "", err
	}

	id := ID(FunnelBundle, snap)
	ev := evidence{
		Context:    evidenceContext,
		Type:       "dge:EvidenceBundle",
		ID:         FunnelBundle,
		Identifier: id.URN(),
		Title: fmt.Sprintf("[[RES]] - %.0f%% of issues (n=%d) were claimed as experiments and %.0f%% of those produced at least one formal result node, yielding %d total RES nodes",
			conv.ConversionRatePercent, conv.TotalIssues, f.ClaimToResultPercent, f.TotalLinkedResults),
		Date:      asOfDate(snap),
		License:   licenseURL,
		Statement: statement,
		Observable: described{
			Type:  "dge:Observable",
			Title: "Issue to experiment to result conversion rate",
			Description: fmt.Sprintf("The share of issues that progress through claiming and result production: issues (n=%d), claimed (n=%d), with a formal result (n=%d).",
				conv.TotalIssues, conv.TotalClaimed, ttfr.Count),
		},
		Method: method{
			described: described{
				Type:  "dge:Method",
				Title: "Discourse graph funnel analysis",
				Description: "Parse the semantic and block-tree exports, detect claims (explicit Claimed By field or inferred from an experimental log), " +
					"link result nodes by relation instances, bracketed back-references, and short-name matching, then count stage attrition.",
			},
			Used: methodUsed(),
		},
		System: described{
			Type:  "dge:System",
			Title: opts.system(),
			Description: fmt.Sprintf("Snapshot of %s. %d identifiable issues, %d claimed, %d result nodes.",
				asOfDate(snap), conv.TotalIssues, conv.TotalClaimed, snap.Summary.TotalResultNodes),
		},
		Figures: figureObjects(figs),
		GroundingData: []download{
			{Type: "schema:DataDownload", ContentURL: "data/funnel_summary.json", EncodingFormat: "application/json", Description: "Aggregated funnel data"},
			{Type: "schema:DataDownload", ContentURL: "data/experiment_details.csv", EncodingFormat: "text/csv", Description: "Per-experiment detail rows"},
		},
		Documentation: []download{
			{Type: "schema:TextDigitalDocument", ContentURL: "docs/evidence_statement.md", EncodingFormat: "text/markdown", Description: "Evidence statement and figure legend"},
		},
		GeneratedBy: generatedBy(snap, opts),
		SummaryMetrics: funnelMetrics{
			TotalIssues:             conv.TotalIssues,
			ClaimedExperiments:      conv.TotalClaimed,
			ExplicitlyClaimed:       conv.ExplicitClaims,
			InferredClaiming:        conv.InferredClaims,
			IssuesWithActivity:      conv.IssuesWithActivity,
			ExperimentsWithResults:  ttfr.Count,
			TotalResultNodes:        f.TotalLinkedResults,
			ConversionRatePercent:   conv.ConversionRatePercent,
			ClaimingToResultPercent: f.ClaimingToResultPercent,
		},
	}
	if err := w.writeJSON("evidence.jsonld", "Canonical JSON-LD evidence metadata", ev); err != nil {
		return "", err
	}

	if err := w.writeCrate(id, "Issue to experiment to result funnel", statement, asOfDate(snap)); err != nil {
		return "", err
	}
	return w.dir, nil
}

// experimentDetails renders one CSV row per claimed experiment, in record
// order.
func experimentDetails(snap *types.Snapshot, opts Options) ([]byte, error) {
	m := snap.Metrics
	claims := make(map[string]types.ClaimDelay, len(m.TimeToClaim.Details))
	for _, d := range m.TimeToClaim.Details {
		if _, ok := claims[d.Title]; !ok {
			claims[d.Title] = d
		}
	}
	results := make(map[string]types.FirstResult, len(m.TimeToFirstResult.Details))
	for _, d := range m.TimeToFirstResult.Details {
		if _, ok := results[d.ExperimentTitle]; !ok {
			results[d.ExperimentTitle] = d
		}
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(experimentColumns); err != nil {
		return nil, err
	}
	names := opts.Names
	for _, e := range snap.Experiments {
		if e.ClaimedBy == "" {
			continue
		}
		claim, hasClaim := claims[e.Title]
		res, hasResult := results[e.Title]

		row := []string{
			names.Title(e.Title),
			names.Name(e.Creator),
			names.Name(e.ClaimedBy),
			string(e.ClaimType),
			names.Name(e.IssueCreatedBy),
			instant.Date(e.PageCreated),
			instant.Date(e.ClaimedAt),
			yesNo(hasResult),
			strconv.Itoa(res.TotalLinkedResults),
			"",
			"",
			"",
		}
		if hasResult {
			row[9] = res.FirstResultCreated.Format("2006-01-02")
			row[11] = strconv.Itoa(res.DaysToFirstResult)
		}
		if hasClaim {
			row[10] = strconv.Itoa(claim.DaysToClaim)
		}
		if err := cw.Write(row); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("writing experiment details: %w", err)
	}
	return buf.Bytes(), nil
}

func funnelStatement(snap *types.Snapshot, system string) string {
	conv, ttfr, f := snap.Metrics.ConversionRate, snap.Metrics.TimeToFirstResult, snap.Metrics.Funnel
	return fmt.Sprintf("Of %d total issues in the %s, %d (%.0f%%) were claimed as experiments and %d (%.0f%%) produced at least one formal result node, "+
		"yielding %d total RES nodes (avg %.1f per result-producing experiment).",
		conv.TotalIssues, system, conv.TotalClaimed, conv.ConversionRatePercent,
		ttfr.Count, f.IssueToResultPercent, f.TotalLinkedResults, f.AvgResultsPerProducing)
}

func funnelStatementDoc(snap *types.Snapshot, statement string, figs []string) string {
	conv, ttfr, f := snap.Metrics.ConversionRate, snap.Metrics.TimeToFirstResult, snap.Metrics.Funnel
	var b strings.Builder
	fmt.Fprintf(&b, "# Issue to Experiment to Result Conversion Funnel\n\n")
	fmt.Fprintf(&b, "## Evidence Statement\n\n%s\n\n", statement)
	fmt.Fprintf(&b, "## Evidence Description\n\n")
	fmt.Fprintf(&b, "All %d identifiable issues (%d formal ISS nodes plus %d claimed experiment pages) form the top of the funnel. ",
		conv.TotalIssues, conv.UnclaimedIssues+conv.IssuesWithActivity, conv.ClaimedExperiments)
	fmt.Fprintf(&b, "Of these, %d (%.0f%%) were claimed: %d explicitly through a `Claimed By::` field, %d inferred from an experimental log kept by the page creator, and %d ISS pages with logged activity.\n\n",
		conv.TotalClaimed, conv.ConversionRatePercent, conv.ExplicitClaims, conv.InferredClaims, conv.IssuesWithActivity)
	fmt.Fprintf(&b, "Of the %d claimed experiments, %d (%.0f%%) have at least one linked RES node. ",
		conv.TotalClaimed, ttfr.Count, f.ClaimingToResultPercent)
	fmt.Fprintf(&b, "The remaining %d either have work in progress or recorded outputs outside formal `[[RES]]` pages.\n",
		max(conv.TotalClaimed-ttfr.Count, 0))
	if len(figs) > 0 {
		fmt.Fprintf(&b, "\n## Figures\n\n")
		for _, fig := range figs {
			fmt.Fprintf(&b, "- `%s`\n", fig)
		}
	}
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
