// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/discourse-metrics/internal/anonymize"
	"github.com/pdiddy/discourse-metrics/pkg/types"
)

func sampleSnapshot() *types.Snapshot {
	jan10 := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	median := 22
	avg, lo, hi, mid := 6.5, 4, 9, 9
	return &types.Snapshot{
		Generated: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Summary:   types.Summary{TotalExperimentPages: 2, TotalIssueNodes: 1, TotalContentNodes: 5},
		Metrics: types.Metrics{
			ConversionRate: types.ConversionRate{ConversionRatePercent: 66.7, TotalClaimed: 2, TotalIssues: 3, ClaimedExperiments: 2},
			TimeToClaim: types.TimeToClaim{
				DurationStats: types.DurationStats{Count: 2, AvgDays: &avg, MinDays: &lo, MaxDays: &hi, Median: &mid},
				Details: []types.ClaimDelay{
					{Title: "@analysis/self | started", ClaimedBy: "Ana Ruiz", ClaimedAt: jan10, DaysToClaim: 4},
					{Title: "@analysis/foo bar", ClaimedBy: "Bo Chen", ClaimedAt: jan10, DaysToClaim: 9},
				},
			},
			TimeToFirstResult: types.TimeToFirstResult{
				DurationStats: types.DurationStats{Count: 2, Median: &median},
				NegativeCount: 1,
				Details: []types.FirstResult{
					{ExperimentTitle: "@analysis/foo bar", DaysToFirstResult: -3, TotalLinkedResults: 1},
					{ExperimentTitle: "@analysis/self | started", DaysToFirstResult: 60, TotalLinkedResults: 2},
				},
			},
			CrossPersonClaims: types.CrossPersonClaims{
				CrossPersonCount: 1,
				ExchangePairs:    []types.ExchangePair{{From: "Ana Ruiz", To: "Bo Chen", Count: 1}},
			},
			ExchangeNetwork: types.ExchangeNetwork{
				People: 2, Edges: 1,
				Members: []types.PersonCentrality{{Person: "Bo Chen", PageRank: 0.6}, {Person: "Ana Ruiz", PageRank: 0.4}},
			},
			Funnel: types.Funnel{Stages: []types.FunnelStage{{Stage: "issues", Count: 3}, {Stage: "claimed", Count: 2}, {Stage: "with_results", Count: 2}}},
			Survival: types.SurvivalAnalysis{
				AsOf: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
				All: types.SurvivalCurve{Label: "all", N: 2, Events: 2, MedianDay: &median, Points: []types.SurvivalPoint{
					{Day: 0, Survival: 1, AtRisk: 2}, {Day: 22, Survival: 0.5, AtRisk: 2, Events: 1}, {Day: 60, Survival: 0, AtRisk: 1, Events: 1},
				}},
				Self: types.SurvivalCurve{Label: "self"},
				Cross: types.SurvivalCurve{Label: "cross", N: 1, Events: 1, Points: []types.SurvivalPoint{
					{Day: 0, Survival: 1, AtRisk: 1}, {Day: 22, Survival: 0, AtRisk: 1, Events: 1},
				}},
			},
		},
	}
}

func TestHistogram(t *testing.T) {
	tests := []struct {
		name       string
		days       []int
		other      []int
		wantLabels []string
		wantCounts []int
	}{
		{"empty", nil, nil, nil, nil},
		{"single week", []int{0, 3, 6}, nil, []string{"0-6"}, []int{3}},
		{"shared axis", []int{1}, []int{15}, []string{"0-6", "7-13", "14-20"}, []int{1, 0, 0}},
		{"negative bucket", []int{-2, 8}, nil, []string{"<0", "0-6", "7-13"}, []int{1, 0, 1}},
		{"open last bucket", []int{0, 200}, nil, []string{"0-6", "7-13", "14-20", "21-27", "28-34", "35-41", "42-48", "49+"}, []int{1, 0, 0, 0, 0, 0, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels, counts := histogram(tt.days, tt.other)
			assert.Equal(t, tt.wantLabels, labels)
			assert.Equal(t, tt.wantCounts, counts)
		})
	}
}

func TestNiceCeil(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 1},
		{1, 1},
		{3, 5},
		{7, 10},
		{12, 20},
		{450, 500},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, niceCeil(tt.in), "input %v", tt.in)
	}
}

func TestStepPath(t *testing.T) {
	c := stepChart{Curves: []stepCurve{{Points: []stepPoint{{0, 1}, {10, 0.5}}}}}
	xs, ys := c.path(plotFrame(), c.Curves[0])
	require.Len(t, xs, 3)
	assert.Equal(t, xs[1], xs[2], "vertical drop at the event day")
	assert.Equal(t, ys[0], ys[1], "survival holds until the event day")
	assert.Greater(t, ys[2], ys[1])
}

func TestRenderSVG(t *testing.T) {
	snap := sampleSnapshot()
	names := anonymize.New(map[string]string{"Ana Ruiz": "R1", "Bo Chen": "R2"}, nil)

	for _, fig := range figures(snap, names) {
		t.Run(fig.name, func(t *testing.T) {
			var buf bytes.Buffer
			fig.chart.renderSVG(&buf)
			out := buf.String()
			assert.True(t, strings.HasPrefix(out, "<?xml"), "svg header")
			assert.Contains(t, out, "</svg>")
			assert.NotContains(t, out, "Ana Ruiz")
		})
	}
}

func TestExchangeChart_Anonymized(t *testing.T) {
	names := anonymize.New(map[string]string{"Ana Ruiz": "R1", "Bo Chen": "R2"}, nil)
	c := exchangeChart(sampleSnapshot().Metrics.CrossPersonClaims.ExchangePairs, names)
	require.Len(t, c.Groups, 1)
	assert.Equal(t, "R1>R2", c.Groups[0].Label)
}

func TestWriteFigures(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "figures")
	paths, err := WriteFigures(context.Background(), dir, sampleSnapshot(), nil, nil)
	require.NoError(t, err)
	assert.Len(t, paths, 8)
	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err, p)
		assert.NotZero(t, info.Size(), p)
	}
	assert.Equal(t, filepath.Join(dir, FigureFunnel+".svg"), paths[0])
}

func TestWriteFigures_BadFormat(t *testing.T) {
	_, err := WriteFigures(context.Background(), t.TempDir(), sampleSnapshot(), nil, []string{"gif"})
	assert.ErrorContains(t, err, "unsupported figure format")
}

func TestWriteFigures_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := WriteFigures(ctx, t.TempDir(), sampleSnapshot(), nil, []string{FormatSVG})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReport(t *testing.T) {
	names := anonymize.New(map[string]string{"Ana Ruiz": "R1", "Bo Chen": "R2"}, nil)
	dir := t.TempDir()
	figs := []string{filepath.Join(dir, "figures", "survival_curve.svg")}

	out := Report(sampleSnapshot(), names, figs, dir)

	for _, want := range []string{
		"*As of 2024-06-01*",
		"## 1. Issue Conversion Rate",
		"**66.7%**",
		"## 2. Time to Claim",
		"n=2, average 6.5 days, median 9, range 4 to 9.",
		"## 3. Time to First Result",
		"1 result(s) predate",
		"## 4. Unique Contributors",
		"## 5. Cross-Person Claims",
		"| R1 | R2 | 1 |",
		"| all | 2 | 2 | 0 | 22 |",
		"| self | 0 | 0 | 0 | not reached |",
		`@analysis/self \| started`,
		"![survival_curve](figures/survival_curve.svg)",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Ana Ruiz")
	assert.NotContains(t, out, "Bo Chen")
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteReport(dir, sampleSnapshot(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ReportFile), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Ana Ruiz", "no table leaves names unchanged")
	assert.NotContains(t, string(data), "## Figures")
}

func TestReport_EmptySamples(t *testing.T) {
	snap := &types.Snapshot{Generated: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}

	out := Report(snap, nil, nil, t.TempDir())
	assert.Contains(t, out, "No measurable experiments.")
	assert.Contains(t, out, "No claimed experiments.")

	c := distributionChart(snap.Metrics.TimeToClaim, snap.Metrics.TimeToFirstResult)
	assert.Equal(t, "claim median - (n=0)  first result median - (n=0)", c.Subtitle)
}
