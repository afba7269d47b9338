// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/pdiddy/discourse-metrics/internal/instant"
	"github.com/pdiddy/discourse-metrics/pkg/types"
)

func at(s string) *time.Time {
	return instant.Parse(s)
}

func claimed(title, issueBy, claimedBy string, ct types.ClaimType) types.ExperimentRecord {
	return types.ExperimentRecord{
		ID:             title,
		Title:          title,
		IssueCreatedBy: issueBy,
		ClaimedBy:      claimedBy,
		ClaimType:      ct,
		IsClaimed:      true,
	}
}

func TestConversionRate(t *testing.T) {
	exps := []types.ExperimentRecord{
		claimed("a", "X", "X", types.ClaimExplicit),
		claimed("b", "X", "Y", types.ClaimExplicit),
		claimed("c", "", "Z", types.ClaimInferred),
		{Title: "d", ClaimType: types.ClaimNone},
	}
	issues := []types.IssueRecord{
		{Title: "i1", HasExperimentalLog: true},
		{Title: "i2"},
		{Title: "i3"},
	}

	c := ConversionRate(exps, issues)
	assert.Equal(t, 3, c.ClaimedExperiments)
	assert.Equal(t, 2, c.ExplicitClaims)
	assert.Equal(t, 1, c.InferredClaims)
	assert.Equal(t, 1, c.IssuesWithActivity)
	assert.Equal(t, 2, c.UnclaimedIssues)
	assert.Equal(t, 4, c.TotalClaimed)
	assert.Equal(t, 6, c.TotalIssues)
	assert.Equal(t, 66.7, c.ConversionRatePercent)
	assert.Equal(t, 1, c.SelfClaims)
	assert.Equal(t, 1, c.CrossPersonClaims)
	assert.Equal(t, 1, c.UnknownClaims)
	assert.Equal(t, []string{"a", "b", "c"}, c.ClaimedTitles)
}

func TestConversionRate_Empty(t *testing.T) {
	c := ConversionRate(nil, nil)
	assert.Zero(t, c.ConversionRatePercent)
	assert.Zero(t, c.TotalIssues)
	assert.NotNil(t, c.ClaimedTitles)
}

func TestConversionRate_Bounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var exps []types.ExperimentRecord
		for i := range rapid.IntRange(0, 10).Draw(t, "exps") {
			by := rapid.SampledFrom([]string{"", "A", "B"}).Draw(t, "by")
			ct := types.ClaimNone
			if by != "" {
				ct = rapid.SampledFrom([]types.ClaimType{types.ClaimExplicit, types.ClaimInferred}).Draw(t, "ct")
			}
			exps = append(exps, types.ExperimentRecord{Title: fmt.Sprint(i), ClaimedBy: by, ClaimType: ct})
		}
		var issues []types.IssueRecord
		for range rapid.IntRange(0, 10).Draw(t, "issues") {
			issues = append(issues, types.IssueRecord{HasExperimentalLog: rapid.Bool().Draw(t, "log")})
		}

		c := ConversionRate(exps, issues)
		if c.ConversionRatePercent < 0 || c.ConversionRatePercent > 100 {
			t.Fatalf("rate %v out of bounds", c.ConversionRatePercent)
		}
		if c.TotalClaimed+c.UnclaimedIssues != c.TotalIssues {
			t.Fatalf("claimed %d + unclaimed %d != total %d", c.TotalClaimed, c.UnclaimedIssues, c.TotalIssues)
		}
		if c.ExplicitClaims+c.InferredClaims != c.ClaimedExperiments {
			t.Fatalf("explicit %d + inferred %d != claimed %d", c.ExplicitClaims, c.InferredClaims, c.ClaimedExperiments)
		}
	})
}

func TestTimeToClaim(t *testing.T) {
	exps := []types.ExperimentRecord{
		{Title: "slow", ClaimedBy: "Y", PageCreated: at("2024-01-01"), ClaimedAt: at("2024-03-01")},
		{Title: "nine", ClaimedBy: "Y", PageCreated: at("2024-01-01"), ClaimedAt: at("2024-01-10")},
		{Title: "partial", ClaimedBy: "Y", PageCreated: at("2024-01-01T12:00:00Z"), ClaimedAt: at("2024-01-03T11:00:00Z")},
		{Title: "fast", ClaimedBy: "Y", PageCreated: at("2024-01-01"), ClaimedAt: at("2024-01-01")},
		{Title: "no claim time", ClaimedBy: "Y", PageCreated: at("2024-01-01")},
		{Title: "unclaimed", PageCreated: at("2024-01-01"), ClaimedAt: at("2024-01-05")},
	}

	ttc := TimeToClaim(exps)
	require.Equal(t, 4, ttc.Count)
	assert.Equal(t, []string{"fast", "partial", "nine", "slow"}, titles(ttc.Details))
	assert.Equal(t, 9, ttc.Details[2].DaysToClaim)
	assert.Equal(t, 1, ttc.Details[1].DaysToClaim, "partial days truncate")
	require.NotNil(t, ttc.AvgDays)
	assert.Equal(t, 0, *ttc.MinDays)
	assert.Equal(t, 60, *ttc.MaxDays)
	assert.Equal(t, 9, *ttc.Median, "index n/2 of the sorted sample")
	assert.Equal(t, 17.5, *ttc.AvgDays)
}

func titles(details []types.ClaimDelay) []string {
	var out []string
	for _, d := range details {
		out = append(out, d.Title)
	}
	return out
}

func TestTimeToClaim_ExplicitBlockScenario(t *testing.T) {
	ttc := TimeToClaim([]types.ExperimentRecord{{
		Title:       "@x/y",
		ClaimedBy:   "Y",
		ClaimType:   types.ClaimExplicit,
		PageCreated: at("2024-01-01"),
		ClaimedAt:   at("2024-01-10"),
	}})
	require.Len(t, ttc.Details, 1)
	assert.Equal(t, 9, ttc.Details[0].DaysToClaim)
}

func TestDurationStats_Empty(t *testing.T) {
	s := durationStats(nil)
	assert.Zero(t, s.Count)
	assert.Nil(t, s.AvgDays)
	assert.Nil(t, s.MinDays)
	assert.Nil(t, s.MaxDays)
	assert.Nil(t, s.Median)

	data, err := json.Marshal(TimeToClaim(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":0,"avg_days":null,"min_days":null,"max_days":null,"median_days":null,"details":[]}`, string(data))
}

func TestDurationStats_ZeroDayMean(t *testing.T) {
	s := durationStats([]int{0, 0})
	require.NotNil(t, s.AvgDays)
	assert.Equal(t, 0.0, *s.AvgDays, "a real zero mean is not null")
	assert.Equal(t, 0, *s.Median)
}

func linked(id, created, creator, primary string) types.LinkedResult {
	return types.LinkedResult{
		ResultRecord: types.ResultRecord{ID: id, Title: "[[RES]] " + id, Created: at(created), Creator: creator, PrimaryContributor: primary},
		Tier:         types.TierRelation,
	}
}

func TestTimeToFirstResult(t *testing.T) {
	explicit := claimed("explicit", "X", "Y", types.ClaimExplicit)
	explicit.PageCreated = at("2024-01-01")
	explicit.ClaimedAt = at("2024-01-10")

	inferred := claimed("inferred", "Z", "Z", types.ClaimInferred)
	inferred.PageCreated = at("2024-02-01")
	inferred.ClaimedAt = at("2024-02-05")

	early := claimed("early", "X", "W", types.ClaimExplicit)
	early.PageCreated = at("2024-03-10")

	lonely := claimed("lonely", "X", "W", types.ClaimExplicit)
	lonely.PageCreated = at("2024-03-10")

	links := map[string][]types.LinkedResult{
		"explicit": {linked("r2", "2024-01-30", "Y", "Y"), linked("r1", "2024-01-20", "Y", "Q")},
		"inferred": {linked("r3", "2024-02-11", "Z", "Z")},
		"early":    {linked("r4", "2024-03-01", "W", "W")},
	}

	ttfr := TimeToFirstResult([]types.ExperimentRecord{explicit, inferred, early, lonely}, links)
	require.Equal(t, 3, ttfr.Count)
	require.Len(t, ttfr.Details, 3)

	assert.Equal(t, "early", ttfr.Details[0].ExperimentTitle)
	assert.Equal(t, -9, ttfr.Details[0].DaysToFirstResult, "negative durations are surfaced")
	assert.Equal(t, 1, ttfr.NegativeCount)

	assert.Equal(t, "inferred", ttfr.Details[2].ExperimentTitle, "ties keep input order")
	assert.Equal(t, 10, ttfr.Details[2].DaysToFirstResult, "inferred claims measure from page creation")

	d := ttfr.Details[1]
	assert.Equal(t, "explicit", d.ExperimentTitle)
	assert.Equal(t, 10, d.DaysToFirstResult)
	assert.Equal(t, "r1", d.FirstResultTitle[len("[[RES]] "):])
	assert.Equal(t, "Q", d.FirstResultContributor)
	assert.Equal(t, 2, d.TotalLinkedResults)
	assert.Equal(t, -9, *ttfr.MinDays)
	assert.Equal(t, 10, *ttfr.MaxDays)
}

func TestUniqueContributors(t *testing.T) {
	a := claimed("a", "X", "Y", types.ClaimExplicit)
	a.Creator = "X"
	a.PrimaryContributor = "Y"
	b := claimed("b", "Z", "Z", types.ClaimInferred)
	b.Creator = "Z"
	b.PrimaryContributor = "Z"
	c := claimed("c", "", "W", types.ClaimExplicit)
	c.PrimaryContributor = "W"

	links := map[string][]types.LinkedResult{
		"a": {linked("r1", "2024-01-01", "Q", "R")},
	}

	u := UniqueContributors([]types.ExperimentRecord{b, a, c, {Title: "unclaimed", Creator: "N"}}, links)
	assert.Equal(t, 3, u.Count)
	assert.Equal(t, 1, u.MultiContributor)
	assert.Equal(t, 2, u.SingleContributor)
	require.NotNil(t, u.AvgContributors)
	assert.Equal(t, 2.0, *u.AvgContributors)
	assert.Equal(t, []types.ContributorBin{{Contributors: 1, Experiments: 2}, {Contributors: 4, Experiments: 1}}, u.Distribution)
	require.Len(t, u.Details, 3)
	assert.Equal(t, "a", u.Details[0].Title)
	assert.Equal(t, []string{"Q", "R", "X", "Y"}, u.Details[0].Contributors)
	assert.Equal(t, "b", u.Details[1].Title, "ties keep input order")
}

func TestUniqueContributors_LogOnlyClaim(t *testing.T) {
	logged := types.ExperimentRecord{ID: "logged", Title: "logged", IsClaimed: true, HasExperimentalLog: true, LogEntryCount: 2}
	links := map[string][]types.LinkedResult{
		"logged": {linked("r1", "2024-01-01", "Q", "Q")},
	}

	u := UniqueContributors([]types.ExperimentRecord{logged}, links)
	require.Equal(t, 1, u.Count, "claimed by activity counts as claimed")
	assert.Equal(t, []string{"Q"}, u.Details[0].Contributors)
	assert.Equal(t, 1, u.SingleContributor)
	assert.Equal(t, 1, u.Details[0].LinkedCount)
}

func TestUniqueContributors_NobodyKnown(t *testing.T) {
	ghost := types.ExperimentRecord{ID: "ghost", Title: "ghost", IsClaimed: true, HasExperimentalLog: true}

	u := UniqueContributors([]types.ExperimentRecord{ghost}, nil)
	assert.Equal(t, 1, u.Count)
	assert.Zero(t, u.SingleContributor, "zero contributors is not single")
	assert.Zero(t, u.MultiContributor)
	assert.Equal(t, []types.ContributorBin{{Contributors: 0, Experiments: 1}}, u.Distribution)
}

func TestUniqueContributors_Empty(t *testing.T) {
	u := UniqueContributors(nil, nil)
	assert.Zero(t, u.Count)
	assert.Nil(t, u.AvgContributors)
}

func TestCrossPersonClaims(t *testing.T) {
	mk := func(title, issueBy, by, created string) types.ExperimentRecord {
		e := claimed(title, issueBy, by, types.ClaimExplicit)
		e.PageCreated = at(created)
		return e
	}
	exps := []types.ExperimentRecord{
		mk("c2", "A", "B", "2024-03-01"),
		mk("s1", "A", "A", "2024-01-01"),
		mk("c1", "A", "B", "2024-01-01"),
		mk("c3", "C", "A", "2024-02-01"),
		mk("u1", "", "A", "2024-01-01"),
		{Title: "unclaimed", IssueCreatedBy: "A"},
	}

	c := CrossPersonClaims(exps)
	assert.Equal(t, 3, c.CrossPersonCount)
	assert.Equal(t, 1, c.SelfClaimCount)
	assert.Equal(t, 1, c.UnknownCount)
	assert.Equal(t, 75.0, c.IdeaExchangeRate)

	var crossTitles []string
	for _, d := range c.CrossDetails {
		crossTitles = append(crossTitles, d.Title)
	}
	assert.Equal(t, []string{"c1", "c3", "c2"}, crossTitles)
	assert.Equal(t, []types.ExchangePair{{From: "A", To: "B", Count: 2}, {From: "C", To: "A", Count: 1}}, c.ExchangePairs)
}

func TestCrossPersonClaims_NoDenominator(t *testing.T) {
	c := CrossPersonClaims([]types.ExperimentRecord{claimed("u", "", "A", types.ClaimInferred)})
	assert.Zero(t, c.IdeaExchangeRate)
	assert.Equal(t, 1, c.UnknownCount)
}

func TestPartitionCompleteness(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var exps []types.ExperimentRecord
		for i := range rapid.IntRange(0, 12).Draw(t, "n") {
			exps = append(exps, types.ExperimentRecord{
				Title:          fmt.Sprint(i),
				IssueCreatedBy: rapid.SampledFrom([]string{"", "A", "B"}).Draw(t, "issue"),
				ClaimedBy:      rapid.SampledFrom([]string{"", "A", "B"}).Draw(t, "claim"),
			})
		}
		c := CrossPersonClaims(exps)
		withIssue, claimedCount := 0, 0
		for _, e := range exps {
			if e.ClaimedBy == "" {
				continue
			}
			claimedCount++
			if e.IssueCreatedBy != "" {
				withIssue++
			}
		}
		if c.CrossPersonCount+c.SelfClaimCount != withIssue {
			t.Fatalf("self+cross %d != claims with issue creator %d", c.CrossPersonCount+c.SelfClaimCount, withIssue)
		}
		if c.CrossPersonCount+c.SelfClaimCount+c.UnknownCount != claimedCount {
			t.Fatalf("partition does not cover all %d claims", claimedCount)
		}
	})
}

func TestExchangeNetwork(t *testing.T) {
	net := ExchangeNetwork([]types.ExchangePair{
		{From: "A", To: "B", Count: 2},
		{From: "C", To: "B", Count: 1},
		{From: "B", To: "A", Count: 1},
	})
	assert.Equal(t, 3, net.People)
	assert.Equal(t, 3, net.Edges)
	require.Len(t, net.Members, 3)
	assert.Equal(t, "B", net.Members[0].Person, "most claimed person ranks first")
	assert.Equal(t, 3, net.Members[0].ClaimsOfOthers)
	assert.Equal(t, 2, net.Members[0].DistinctPartners)

	var sum float64
	for _, m := range net.Members {
		sum += m.PageRank
	}
	assert.InDelta(t, 1.0, sum, 1e-3)

	assert.Empty(t, ExchangeNetwork(nil).Members)
}

func TestKaplanMeier(t *testing.T) {
	curve := KaplanMeier("all", []Observation{
		{Day: 10, Event: true},
		{Day: 20},
		{Day: 30, Event: true},
		{Day: 40},
		{Day: 50},
	})

	assert.Equal(t, 5, curve.N)
	assert.Equal(t, 2, curve.Events)
	assert.Equal(t, 3, curve.Censored)
	assert.InDelta(t, 1.0, At(curve, 5), 1e-12)
	assert.InDelta(t, 0.8, At(curve, 10), 1e-12)
	assert.InDelta(t, 0.8, At(curve, 20), 1e-12, "censoring alone leaves survival unchanged")
	assert.InDelta(t, 0.8*(1-1.0/3), At(curve, 30), 1e-12)

	require.Len(t, curve.Points, 6)
	assert.Equal(t, 5, curve.Points[1].AtRisk)
	assert.Equal(t, 4, curve.Points[2].AtRisk)
	assert.Nil(t, curve.MedianDay)
}

func TestKaplanMeier_TiesAndMedian(t *testing.T) {
	curve := KaplanMeier("x", []Observation{
		{Day: 0, Event: true},
		{Day: 5, Event: true},
		{Day: 5, Event: true},
		{Day: 5},
	})
	require.Len(t, curve.Points, 2)
	assert.InDelta(t, 0.75, curve.Points[0].Survival, 1e-12)
	assert.InDelta(t, 0.75*(1-2.0/3), curve.Points[1].Survival, 1e-12)
	require.NotNil(t, curve.MedianDay)
	assert.Equal(t, 5, *curve.MedianDay)
}

func TestKaplanMeier_Empty(t *testing.T) {
	curve := KaplanMeier("none", nil)
	require.Len(t, curve.Points, 1)
	assert.Equal(t, 1.0, curve.Points[0].Survival)
}

func TestSurvival(t *testing.T) {
	asOf := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	withResult := claimed("with", "A", "B", types.ClaimExplicit)
	withoutResult := claimed("without", "A", "A", types.ClaimExplicit)
	withoutResult.ClaimedAt = at("2024-05-01")
	undated := claimed("undated", "", "A", types.ClaimInferred)

	ttfr := types.TimeToFirstResult{Details: []types.FirstResult{{ExperimentTitle: "with", DaysToFirstResult: -3}}}

	s := Survival([]types.ExperimentRecord{withResult, withoutResult, undated}, ttfr, asOf)
	assert.Equal(t, 2, s.All.N)
	assert.Equal(t, 1, s.All.Events)
	assert.Equal(t, 0, s.All.Points[0].Day, "negative durations floor at zero")
	assert.Equal(t, 1, s.Cross.N)
	assert.Equal(t, 1, s.Self.N)
	assert.Equal(t, 31, s.Self.Points[1].Day)
}

func TestFunnel_ZeroClaimed(t *testing.T) {
	f := Funnel(ConversionRate(nil, []types.IssueRecord{{}}), types.TimeToFirstResult{})
	assert.Equal(t, 0.0, f.ClaimingToResultPercent)
	assert.Equal(t, 0.0, f.ClaimToResultPercent)
	assert.Equal(t, 1, f.Stages[0].Count)
}

func TestFunnel(t *testing.T) {
	conv := types.ConversionRate{TotalIssues: 10, TotalClaimed: 4, ClaimedExperiments: 3}
	ttfr := types.TimeToFirstResult{
		DurationStats: types.DurationStats{Count: 2},
		Details:       []types.FirstResult{{TotalLinkedResults: 3}, {TotalLinkedResults: 2}},
	}
	f := Funnel(conv, ttfr)
	assert.Equal(t, 40.0, f.IssueToClaimPercent)
	assert.Equal(t, 50.0, f.ClaimToResultPercent)
	assert.Equal(t, 20.0, f.IssueToResultPercent)
	assert.Equal(t, 50.0, f.ClaimingToResultPercent, "issues with activity count as claimed")
	assert.Equal(t, 5, f.TotalLinkedResults)
	assert.Equal(t, 2.5, f.AvgResultsPerProducing)
}

func TestFunnel_AverageOneDecimal(t *testing.T) {
	ttfr := types.TimeToFirstResult{
		DurationStats: types.DurationStats{Count: 3},
		Details:       []types.FirstResult{{TotalLinkedResults: 2}, {TotalLinkedResults: 1}, {TotalLinkedResults: 1}},
	}
	f := Funnel(types.ConversionRate{TotalIssues: 5, TotalClaimed: 3}, ttfr)
	assert.Equal(t, 1.3, f.AvgResultsPerProducing)
	assert.Equal(t, 100.0, f.ClaimingToResultPercent)
}

func TestGraphGrowth(t *testing.T) {
	byKind := map[types.NodeKind][]types.Node{
		types.KindExperiment: {{Created: at("2024-02-10")}, {Created: at("2024-01-05")}, {}},
		types.KindResult:     {{Created: at("2024-01-20")}, {Created: at("2024-01-21")}},
	}
	g := GraphGrowth(byKind, 9)
	assert.Equal(t, 9, g.TotalContentNodes)
	assert.Equal(t, 3, g.Experiments.Count)
	assert.Equal(t, []types.MonthCount{{Month: "2024-01", Count: 1, Cumulative: 1}, {Month: "2024-02", Count: 1, Cumulative: 2}}, g.Experiments.Months)
	require.Len(t, g.Kinds, len(types.DiscourseKinds))
	assert.Equal(t, types.KindResult, g.Kinds[1].Kind)
	assert.Equal(t, 2, g.Kinds[1].Count)
	assert.Equal(t, "2024-01-21", instant.Date(g.Kinds[1].Last))
}

func TestCompute_Deterministic(t *testing.T) {
	in := Input{
		Experiments: []types.ExperimentRecord{
			claimed("a", "X", "Y", types.ClaimExplicit),
			claimed("b", "Y", "X", types.ClaimExplicit),
			claimed("c", "Z", "Y", types.ClaimInferred),
		},
		Issues: []types.IssueRecord{{HasExperimentalLog: true}, {}},
		Links: map[string][]types.LinkedResult{
			"a": {linked("r", "2024-01-01", "Y", "Y")},
		},
		AsOf: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	for i := range in.Experiments {
		in.Experiments[i].PageCreated = at("2023-12-01")
	}
	first := Compute(in)
	for range 5 {
		assert.Equal(t, first, Compute(in))
	}
}
