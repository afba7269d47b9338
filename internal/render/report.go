// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/discourse-metrics/internal/anonymize"
	"github.com/pdiddy/discourse-metrics/internal/instant"
	"github.com/pdiddy/discourse-metrics/pkg/types"
)

// ReportFile is the markdown report name inside the output directory.
const ReportFile = "metrics_report.md"

// maxDetailRows bounds the per-experiment tables.
const maxDetailRows = 25

var cellEscaper = strings.NewReplacer("|", `\|`, "\n", " ", "\r", "")

// Report renders snap as markdown. Person names and titles pass through
// names. figurePaths are linked relative to the report directory.
func Report(snap *types.Snapshot, names *anonymize.Table, figurePaths []string, reportDir string) string {
	var b strings.Builder
	m := snap.Metrics
	person := func(s string) string {
		if s == "" {
			return "-"
		}
		return cell(names.Name(s))
	}
	title := func(s string) string { return cell(names.Title(s)) }

	fmt.Fprintf(&b, "# Discourse Graph Collaboration Metrics\n\n")
	fmt.Fprintf(&b, "*As of %s*\n\n", snap.Generated.Format("2006-01-02"))
	if snap.Validation != nil {
		v := snap.Validation
		fmt.Fprintf(&b, "Source check: %d of %d semantic titles found in the block-tree export (%.1f%%, threshold %.0f%%).\n\n",
			v.Matched, v.TotalSemanticTitles, v.MatchRate*100, v.Threshold*100)
	}

	s := snap.Summary
	fmt.Fprintf(&b, "## Summary\n\n")
	fmt.Fprintf(&b, "| Measure | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Experiment pages | %d |\n", s.TotalExperimentPages)
	fmt.Fprintf(&b, "| Issue nodes | %d |\n", s.TotalIssueNodes)
	fmt.Fprintf(&b, "| Result nodes | %d |\n", s.TotalResultNodes)
	fmt.Fprintf(&b, "| Content nodes | %d |\n", s.TotalContentNodes)
	fmt.Fprintf(&b, "| Relation instances | %d |\n\n", s.RelationInstances)

	conv := m.ConversionRate
	fmt.Fprintf(&b, "## 1. Issue Conversion Rate\n\n")
	fmt.Fprintf(&b, "**%.1f%%** of issues became claimed work (%d claimed of %d total).\n\n",
		conv.ConversionRatePercent, conv.TotalClaimed, conv.TotalIssues)
	fmt.Fprintf(&b, "- Claimed experiments: %d (%d explicit, %d inferred)\n", conv.ClaimedExperiments, conv.ExplicitClaims, conv.InferredClaims)
	fmt.Fprintf(&b, "- Issues with activity: %d\n", conv.IssuesWithActivity)
	fmt.Fprintf(&b, "- Unclaimed issues: %d\n\n", conv.UnclaimedIssues)

	ttc := m.TimeToClaim
	fmt.Fprintf(&b, "## 2. Time to Claim\n\n")
	writeStats(&b, ttc.DurationStats)
	if len(ttc.Details) > 0 {
		fmt.Fprintf(&b, "| Experiment | Claimed by | Claimed | Days |\n|---|---|---|---|\n")
		for _, d := range ttc.Details[:min(len(ttc.Details), maxDetailRows)] {
			fmt.Fprintf(&b, "| %s | %s | %s | %d |\n", title(d.Title), person(d.ClaimedBy), d.ClaimedAt.Format("2006-01-02"), d.DaysToClaim)
		}
		b.WriteString("\n")
	}

	ttfr := m.TimeToFirstResult
	fmt.Fprintf(&b, "## 3. Time to First Result\n\n")
	writeStats(&b, ttfr.DurationStats)
	if ttfr.NegativeCount > 0 {
		fmt.Fprintf(&b, "%d result(s) predate their claim instant and are kept as negative durations.\n\n", ttfr.NegativeCount)
	}
	if len(ttfr.Details) > 0 {
		fmt.Fprintf(&b, "| Experiment | Claim | First result | Link | Days | Results |\n|---|---|---|---|---|---|\n")
		for _, d := range ttfr.Details[:min(len(ttfr.Details), maxDetailRows)] {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %d | %d |\n",
				title(d.ExperimentTitle), d.ClaimType, title(d.FirstResultTitle), d.FirstResultTier, d.DaysToFirstResult, d.TotalLinkedResults)
		}
		b.WriteString("\n")
	}

	uc := m.UniqueContributors
	fmt.Fprintf(&b, "## 4. Unique Contributors\n\n")
	if uc.AvgContributors != nil {
		fmt.Fprintf(&b, "%d claimed experiments average **%.2f** contributors (%d with several, %d with one).\n\n",
			uc.Count, *uc.AvgContributors, uc.MultiContributor, uc.SingleContributor)
	} else {
		b.WriteString("No claimed experiments.\n\n")
	}
	if len(uc.Distribution) > 0 {
		fmt.Fprintf(&b, "| Contributors | Experiments |\n|---|---|\n")
		for _, bin := range uc.Distribution {
			fmt.Fprintf(&b, "| %d | %d |\n", bin.Contributors, bin.Experiments)
		}
		b.WriteString("\n")
	}

	cp := m.CrossPersonClaims
	fmt.Fprintf(&b, "## 5. Cross-Person Claims\n\n")
	fmt.Fprintf(&b, "Idea exchange rate **%.1f%%**: %d cross-person, %d self, %d unknown.\n\n",
		cp.IdeaExchangeRate, cp.CrossPersonCount, cp.SelfClaimCount, cp.UnknownCount)
	if len(cp.ExchangePairs) > 0 {
		fmt.Fprintf(&b, "| Issue creator | Claimer | Claims |\n|---|---|---|\n")
		for _, p := range cp.ExchangePairs {
			fmt.Fprintf(&b, "| %s | %s | %d |\n", person(p.From), person(p.To), p.Count)
		}
		b.WriteString("\n")
	}

	net := m.ExchangeNetwork
	if len(net.Members) > 0 {
		fmt.Fprintf(&b, "### Exchange network\n\n")
		fmt.Fprintf(&b, "%d people, %d directed edges.\n\n", net.People, net.Edges)
		fmt.Fprintf(&b, "| Person | Ideas given | Ideas taken | Partners | PageRank |\n|---|---|---|---|---|\n")
		for _, p := range net.Members {
			fmt.Fprintf(&b, "| %s | %d | %d | %d | %.4f |\n", person(p.Person), p.IssuesClaimedByOthers, p.ClaimsOfOthers, p.DistinctPartners, p.PageRank)
		}
		b.WriteString("\n")
	}

	f := m.Funnel
	fmt.Fprintf(&b, "## Funnel\n\n")
	fmt.Fprintf(&b, "| Stage | Count |\n|---|---|\n")
	for _, st := range f.Stages {
		fmt.Fprintf(&b, "| %s | %d |\n", st.Stage, st.Count)
	}
	fmt.Fprintf(&b, "\nIssue to claim %.1f%%, claim to result %.1f%%, issue to result %.1f%%. ",
		f.IssueToClaimPercent, f.ClaimToResultPercent, f.IssueToResultPercent)
	fmt.Fprintf(&b, "%.1f%% of claimed work produced a result (%d linked results, %.1f per producing experiment).\n\n",
		f.ClaimingToResultPercent, f.TotalLinkedResults, f.AvgResultsPerProducing)

	sv := m.Survival
	fmt.Fprintf(&b, "## Survival\n\n")
	fmt.Fprintf(&b, "| Group | N | Results | Censored | Median days |\n|---|---|---|---|---|\n")
	for _, c := range []types.SurvivalCurve{sv.All, sv.Self, sv.Cross} {
		median := "not reached"
		if c.MedianDay != nil {
			median = fmt.Sprintf("%d", *c.MedianDay)
		}
		fmt.Fprintf(&b, "| %s | %d | %d | %d | %s |\n", c.Label, c.N, c.Events, c.Censored, median)
	}
	b.WriteString("\n")

	gr := m.GraphGrowth
	fmt.Fprintf(&b, "## Graph Growth\n\n")
	fmt.Fprintf(&b, "| Kind | Nodes | First | Last |\n|---|---|---|---|\n")
	for _, k := range append([]types.KindGrowth{gr.Experiments}, gr.Kinds...) {
		fmt.Fprintf(&b, "| %s | %d | %s | %s |\n", k.Kind, k.Count, dateOrDash(k.First), dateOrDash(k.Last))
	}
	fmt.Fprintf(&b, "\n%d content nodes in total.\n", gr.TotalContentNodes)

	if len(figurePaths) > 0 {
		fmt.Fprintf(&b, "\n## Figures\n\n")
		for _, p := range figurePaths {
			if !strings.HasSuffix(p, "."+FormatSVG) && !strings.HasSuffix(p, "."+FormatPNG) {
				continue
			}
			rel, err := filepath.Rel(reportDir, p)
			if err != nil {
				rel = p
			}
			name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
			fmt.Fprintf(&b, "![%s](%s)\n", name, filepath.ToSlash(rel))
		}
	}
	return b.String()
}

// WriteReport writes the markdown report to dir and returns its path.
func WriteReport(dir string, snap *types.Snapshot, names *anonymize.Table, figurePaths []string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}
	path := filepath.Join(dir, ReportFile)
	if err := os.WriteFile(path, []byte(Report(snap, names, figurePaths, dir)), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

func writeStats(b *strings.Builder, s types.DurationStats) {
	if s.Count == 0 || s.AvgDays == nil {
		b.WriteString("No measurable experiments.\n\n")
		return
	}
	fmt.Fprintf(b, "n=%d, average %.1f days, median %d, range %d to %d.\n\n", s.Count, *s.AvgDays, *s.Median, *s.MinDays, *s.MaxDays)
}

func dateOrDash(t *time.Time) string {
	if d := instant.Date(t); d != "" {
		return d
	}
	return "-"
}

func cell(s string) string {
	return cellEscaper.Replace(s)
}
