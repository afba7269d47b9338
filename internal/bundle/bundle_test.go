// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bundle

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/discourse-metrics/internal/anonymize"
	"github.com/pdiddy/discourse-metrics/pkg/types"
)

func sampleSnapshot() *types.Snapshot {
	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan10 := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	feb1 := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	mar1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return &types.Snapshot{
		Generated:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		DataSources: types.DataSources{Semantic: "/data/graph.jsonld", BlockTree: "/data/roam.json"},
		Summary:     types.Summary{TotalResultNodes: 1, TotalContentNodes: 5},
		Experiments: []types.ExperimentRecord{
			{ID: "exp1", Title: "@analysis/foo bar", Creator: "Ana Ruiz", ClaimedBy: "Bo Chen", ClaimType: types.ClaimExplicit,
				IssueCreatedBy: "Ana Ruiz", PageCreated: &jan1, ClaimedAt: &jan10},
			{ID: "exp2", Title: "@analysis/unclaimed", Creator: "Cy", PageCreated: &jan1},
		},
		Issues: []types.IssueRecord{
			{ID: "iss1", Title: "[[ISS]] - open", PageCreated: &mar1},
			{ID: "iss2", Title: "[[ISS]] - active", PageCreated: &mar1, IsClaimed: true, HasExperimentalLog: true},
		},
		Metrics: types.Metrics{
			ConversionRate: types.ConversionRate{
				ConversionRatePercent: 66.7, TotalClaimed: 2, ClaimedExperiments: 1, ExplicitClaims: 1,
				IssuesWithActivity: 1, UnclaimedIssues: 1, TotalIssues: 3, CrossPersonClaims: 1,
			},
			TimeToClaim: types.TimeToClaim{Details: []types.ClaimDelay{{Title: "@analysis/foo bar", DaysToClaim: 9}}},
			TimeToFirstResult: types.TimeToFirstResult{
				DurationStats: types.DurationStats{Count: 1},
				Details: []types.FirstResult{{
					ExperimentTitle: "@analysis/foo bar", FirstResultCreated: feb1, DaysToFirstResult: 22, TotalLinkedResults: 1,
				}},
			},
			CrossPersonClaims: types.CrossPersonClaims{CrossPersonCount: 1, IdeaExchangeRate: 100},
			Funnel: types.Funnel{
				ClaimToResultPercent: 50, IssueToResultPercent: 33.3, ClaimingToResultPercent: 50,
				TotalLinkedResults: 1, AvgResultsPerProducing: 1,
			},
			GraphGrowth: types.GraphGrowth{TotalContentNodes: 5, Experiments: types.KindGrowth{Kind: types.KindExperiment, Count: 2}},
		},
	}
}

func readJSON(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestWriteFunnel(t *testing.T) {
	out := t.TempDir()
	figDir := filepath.Join(out, "figures")
	require.NoError(t, os.MkdirAll(figDir, 0o755))
	fig := filepath.Join(figDir, "conversion_funnel.png")
	require.NoError(t, os.WriteFile(fig, []byte("png"), 0o644))

	names := anonymize.New(map[string]string{"Ana Ruiz": "R1", "Bo Chen": "R2"}, nil)
	dir, err := WriteFunnel(sampleSnapshot(), Options{
		OutputDir: out,
		Names:     names,
		Figures:   []string{fig, filepath.Join(figDir, "exchange_pairs.png"), filepath.Join(figDir, "survival_curve.svg")},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, Dir, FunnelBundle), dir)

	for _, rel := range []string{
		"data/funnel_summary.json",
		"data/experiment_details.csv",
		"docs/evidence_statement.md",
		"evidence.jsonld",
		"ro-crate-metadata.json",
		"conversion_funnel.png",
	} {
		assert.FileExists(t, filepath.Join(dir, rel))
	}
	assert.NoFileExists(t, filepath.Join(dir, "exchange_pairs.png"), "only funnel figures are copied")
	assert.NoFileExists(t, filepath.Join(dir, "survival_curve.svg"), "missing figures are skipped")

	summary := readJSON(t, filepath.Join(dir, "data", "funnel_summary.json"))
	assert.Equal(t, "2024-06-01", summary["snapshot_date"])
	funnel := summary["funnel"].(map[string]any)
	assert.EqualValues(t, 3, funnel["total_issues"])
	assert.EqualValues(t, 1, funnel["total_res_nodes"])

	ev := readJSON(t, filepath.Join(dir, "evidence.jsonld"))
	assert.Equal(t, "dge:EvidenceBundle", ev["@type"])
	assert.Equal(t, FunnelBundle, ev["@id"])
	assert.Equal(t, ID(FunnelBundle, sampleSnapshot()).URN(), ev["dcterms:identifier"])
	metrics := ev["dge:summaryMetrics"].(map[string]any)
	assert.EqualValues(t, 50, metrics["claiming_to_result_percent"])
	prov := ev["prov:wasGeneratedBy"].(map[string]any)
	assert.Equal(t, []any{"graph.jsonld", "roam.json"}, prov["prov:used"])

	crate := readJSON(t, filepath.Join(dir, "ro-crate-metadata.json"))
	assert.Equal(t, crateContext, crate["@context"])
	graph := crate["@graph"].([]any)
	root := graph[1].(map[string]any)
	assert.Equal(t, "./", root["@id"])
	assert.Len(t, root["hasPart"], 5)
}

func TestExperimentDetails(t *testing.T) {
	names := anonymize.New(map[string]string{"Ana Ruiz": "R1", "Bo Chen": "R2"}, nil)
	data, err := experimentDetails(sampleSnapshot(), Options{Names: names})
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2, "header plus the one claimed experiment")
	assert.Equal(t, experimentColumns, rows[0])
	assert.Equal(t, []string{
		"@analysis/foo bar", "R1", "R2", "explicit", "R1",
		"2024-01-01", "2024-01-10", "yes", "1", "2024-02-01", "9", "22",
	}, rows[1])
}

func TestExperimentDetails_NoResult(t *testing.T) {
	snap := sampleSnapshot()
	snap.Metrics.TimeToFirstResult = types.TimeToFirstResult{}
	snap.Metrics.TimeToClaim = types.TimeToClaim{}

	data, err := experimentDetails(snap, Options{})
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"@analysis/foo bar", "Ana Ruiz", "Bo Chen", "explicit", "Ana Ruiz",
		"2024-01-01", "2024-01-10", "no", "0", "", "", "",
	}, rows[1])
}

func TestWriteConversion(t *testing.T) {
	out := t.TempDir()
	dir, err := WriteConversion(sampleSnapshot(), Options{OutputDir: out, System: "lab graph"})
	require.NoError(t, err)

	data := readJSON(t, filepath.Join(dir, "data", "conversion_data.json"))
	assert.Equal(t, "lab graph", data["system"])
	comp := data["issue_composition"].(map[string]any)
	assert.EqualValues(t, 2, comp["formal_iss_nodes"])
	assert.Equal(t, "Total issues = 2 formal ISS nodes + 1 claimed experiment pages = 3", comp["description"])

	for _, rel := range []string{"data/issue_timeline_data.json", "evidence.jsonld", "ro-crate-metadata.json", "docs/evidence_statement.md"} {
		assert.FileExists(t, filepath.Join(dir, rel))
	}
}

func TestTimeline(t *testing.T) {
	tl := timeline(sampleSnapshot())
	assert.Equal(t, 3, tl.TotalIssues, "unclaimed experiments are not issues")
	assert.Equal(t, 2, tl.TotalClaimed)
	require.Len(t, tl.MonthlySummary, 2)
	assert.Equal(t, timelineMonth{Month: "2024-01", NewIssues: 1, NewClaimed: 1, CumulativeIssues: 1, CumulativeClaimed: 1}, tl.MonthlySummary[0])
	assert.Equal(t, timelineMonth{Month: "2024-03", NewIssues: 2, NewClaimed: 1, CumulativeIssues: 3, CumulativeClaimed: 2}, tl.MonthlySummary[1])
	assert.Equal(t, issueUnclaimed, tl.Issues[1].ClaimType)
	assert.Equal(t, issueActivity, tl.Issues[2].ClaimType)
	assert.Len(t, tl.NodeGrowth, 1)
}

func TestWriteAll_Deterministic(t *testing.T) {
	read := func() []byte {
		out := t.TempDir()
		dirs, err := WriteAll(sampleSnapshot(), Options{OutputDir: out})
		require.NoError(t, err)
		require.Len(t, dirs, 2)
		data, err := os.ReadFile(filepath.Join(dirs[0], "evidence.jsonld"))
		require.NoError(t, err)
		return data
	}
	assert.Equal(t, read(), read())
}

func TestID(t *testing.T) {
	snap := sampleSnapshot()
	a := ID(FunnelBundle, snap)
	assert.Equal(t, a, ID(FunnelBundle, snap))
	assert.NotEqual(t, a, ID(ConversionBundle, snap))
	assert.EqualValues(t, 5, a.Version())

	later := sampleSnapshot()
	later.Generated = later.Generated.Add(24 * time.Hour)
	assert.NotEqual(t, a, ID(FunnelBundle, later))
}

func TestEncodingFormat(t *testing.T) {
	tests := []struct {
		path, want string
	}{
		{"data/a.json", "application/json"},
		{"evidence.jsonld", "application/json"},
		{"b.CSV", "text/csv"},
		{"c.svg", "image/svg+xml"},
		{"d.png", "image/png"},
		{"docs/e.md", "text/markdown"},
		{"f.bin", "application/octet-stream"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, encodingFormat(tt.path), tt.path)
	}
}
