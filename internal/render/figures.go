// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render draws the charts and the markdown report for a metrics
// snapshot. Figures are written as SVG with svgo and as PNG with gg.
package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/discourse-metrics/internal/anonymize"
	"github.com/pdiddy/discourse-metrics/pkg/types"
)

// Figure base names inside the figures directory.
const (
	FigureFunnel        = "conversion_funnel"
	FigureDistributions = "time_distributions"
	FigureSurvival      = "survival_curve"
	FigureExchange      = "exchange_pairs"
)

// Supported figure formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
)

// DefaultFormats is used when no format is configured.
var DefaultFormats = []string{FormatSVG, FormatPNG}

const (
	binWidthDays = 7
	maxBins      = 8
	maxPairs     = 10
)

// chart is implemented by barChart and stepChart.
type chart interface {
	renderSVG(w io.Writer)
	renderPNG(path string) error
}

type figure struct {
	name  string
	chart chart
}

func figures(snap *types.Snapshot, names *anonymize.Table) []figure {
	m := snap.Metrics
	return []figure{
		{FigureFunnel, funnelChart(m.Funnel)},
		{FigureDistributions, distributionChart(m.TimeToClaim, m.TimeToFirstResult)},
		{FigureSurvival, survivalChart(m.Survival)},
		{FigureExchange, exchangeChart(m.CrossPersonClaims.ExchangePairs, names)},
	}
}

func funnelChart(f types.Funnel) barChart {
	c := barChart{
		Title:    "Issue to result funnel",
		Subtitle: fmt.Sprintf("issue->claim %.1f%%  claim->result %.1f%%  issue->result %.1f%%", f.IssueToClaimPercent, f.ClaimToResultPercent, f.IssueToResultPercent),
		YLabel:   "pages",
		Series:   []string{"count"},
	}
	for _, s := range f.Stages {
		c.Groups = append(c.Groups, barGroup{Label: s.Stage, Values: []float64{float64(s.Count)}})
	}
	return c
}

// distributionChart bins days to claim and days to first result into
// weekly buckets. The last bucket is open-ended and negative durations
// share a leading bucket.
func distributionChart(ttc types.TimeToClaim, ttfr types.TimeToFirstResult) barChart {
	claim := make([]int, 0, len(ttc.Details))
	for _, d := range ttc.Details {
		claim = append(claim, d.DaysToClaim)
	}
	result := make([]int, 0, len(ttfr.Details))
	for _, d := range ttfr.Details {
		result = append(result, d.DaysToFirstResult)
	}

	labels, claimBins := histogram(claim, result)
	_, resultBins := histogram(result, claim)

	c := barChart{
		Title:    "Time distributions",
		Subtitle: fmt.Sprintf("claim median %s (n=%d)  first result median %s (n=%d)", dayCount(ttc.Median), ttc.Count, dayCount(ttfr.Median), ttfr.Count),
		YLabel:   "experiments",
		Series:   []string{"days to claim", "days to first result"},
	}
	for i, l := range labels {
		c.Groups = append(c.Groups, barGroup{Label: l, Values: []float64{float64(claimBins[i]), float64(resultBins[i])}})
	}
	return c
}

// dayCount formats an optional day count, "-" when absent.
func dayCount(d *int) string {
	if d == nil {
		return "-"
	}
	return fmt.Sprintf("%dd", *d)
}

// histogram counts days into bins shared with other so two samples line
// up on one axis.
func histogram(days, other []int) ([]string, []int) {
	all := slices.Concat(days, other)
	if len(all) == 0 {
		return nil, nil
	}
	hasNegative := slices.Min(all) < 0
	top := max(slices.Max(all), 0)
	bins := min(top/binWidthDays+1, maxBins)

	var labels []string
	if hasNegative {
		labels = append(labels, "<0")
	}
	for i := range bins {
		lo := i * binWidthDays
		if i == bins-1 && top >= (i+1)*binWidthDays {
			labels = append(labels, fmt.Sprintf("%d+", lo))
			continue
		}
		labels = append(labels, fmt.Sprintf("%d-%d", lo, lo+binWidthDays-1))
	}

	counts := make([]int, len(labels))
	offset := 0
	if hasNegative {
		offset = 1
	}
	for _, d := range days {
		if d < 0 {
			counts[0]++
			continue
		}
		counts[offset+min(d/binWidthDays, bins-1)]++
	}
	return labels, counts
}

func survivalChart(s types.SurvivalAnalysis) stepChart {
	c := stepChart{
		Title:    "Time to first result (Kaplan-Meier)",
		Subtitle: fmt.Sprintf("as of %s  events %d  censored %d", s.AsOf.Format("2006-01-02"), s.All.Events, s.All.Censored),
		XLabel:   "days since claim",
		YLabel:   "share without a result",
	}
	for _, curve := range []types.SurvivalCurve{s.All, s.Self, s.Cross} {
		if curve.N == 0 {
			continue
		}
		sc := stepCurve{Label: fmt.Sprintf("%s (n=%d)", curve.Label, curve.N)}
		for _, p := range curve.Points {
			sc.Points = append(sc.Points, stepPoint{X: p.Day, Y: p.Survival})
		}
		c.Curves = append(c.Curves, sc)
	}
	return c
}

func exchangeChart(pairs []types.ExchangePair, names *anonymize.Table) barChart {
	c := barChart{
		Title:    "Idea exchange pairs",
		Subtitle: fmt.Sprintf("issue creator -> claimer, top %d", min(len(pairs), maxPairs)),
		YLabel:   "claims",
		Series:   []string{"claims"},
	}
	for _, p := range pairs[:min(len(pairs), maxPairs)] {
		label := names.Name(p.From) + ">" + names.Name(p.To)
		c.Groups = append(c.Groups, barGroup{Label: label, Values: []float64{float64(p.Count)}})
	}
	return c
}

// WriteFigures renders every figure in each requested format into dir and
// returns the written paths in a stable order. Figures are written
// concurrently.
func WriteFigures(ctx context.Context, dir string, snap *types.Snapshot, names *anonymize.Table, formats []string) ([]string, error) {
	if len(formats) == 0 {
		formats = DefaultFormats
	}
	for _, f := range formats {
		if f != FormatSVG && f != FormatPNG {
			return nil, fmt.Errorf("unsupported figure format %q (want svg or png)", f)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating figures directory: %w", err)
	}

	figs := figures(snap, names)
	paths := make([]string, 0, len(figs)*len(formats))
	g, ctx := errgroup.WithContext(ctx)
	for _, fig := range figs {
		for _, format := range formats {
			path := filepath.Join(dir, fig.name+"."+format)
			paths = append(paths, path)
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := writeFigure(path, format, fig.chart); err != nil {
					return fmt.Errorf("rendering %s: %w", filepath.Base(path), err)
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func writeFigure(path, format string, c chart) error {
	if strings.EqualFold(format, FormatPNG) {
		return c.renderPNG(path)
	}
	return writeSVGFile(path, c.renderSVG)
}
