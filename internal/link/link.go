// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package link associates result records with the experiments that produced
// them. Three tiers are tried in order, each only when the previous tier
// found nothing: explicit relation edges, bracketed backreferences in the
// result title, and the experiment's full short name in the result title.
package link

import (
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/discourse-metrics/pkg/types"
)

// Linker matches results to experiments. It is safe for concurrent use once
// constructed.
type Linker struct {
	results      []types.ResultRecord
	lowerTitles  []string
	byID         map[string]int
	related      map[string][]string
	minShortName int
}

// New builds a Linker over results. Relation instances are indexed in both
// directions, but only edges touching a result are kept. A minShortName of
// zero or less uses the default.
func New(results []types.ResultRecord, instances []types.RelationInstance, minShortName int) *Linker {
	if minShortName <= 0 {
		minShortName = types.DefaultMinShortNameLength
	}
	l := &Linker{
		results:      results,
		lowerTitles:  make([]string, len(results)),
		byID:         make(map[string]int, len(results)),
		related:      make(map[string][]string),
		minShortName: minShortName,
	}
	for i, r := range results {
		l.lowerTitles[i] = strings.ToLower(r.Title)
		if _, dup := l.byID[r.ID]; !dup {
			l.byID[r.ID] = i
		}
	}
	for _, ri := range instances {
		if _, ok := l.byID[ri.Destination]; ok {
			l.related[ri.Source] = append(l.related[ri.Source], ri.Destination)
		}
		if _, ok := l.byID[ri.Source]; ok {
			l.related[ri.Destination] = append(l.related[ri.Destination], ri.Source)
		}
	}
	return l
}

// Link returns the results produced by exp. Results without a creation
// instant are never linked, and no result appears twice.
func (l *Linker) Link(exp types.ExperimentRecord) []types.LinkedResult {
	seen := make(map[string]bool)
	var out []types.LinkedResult
	add := func(i int, tier types.LinkTier) {
		r := l.results[i]
		if r.Created == nil || seen[r.ID] {
			return
		}
		seen[r.ID] = true
		out = append(out, types.LinkedResult{ResultRecord: r, Tier: tier})
	}

	for _, id := range l.related[exp.ID] {
		add(l.byID[id], types.TierRelation)
	}
	if len(out) > 0 {
		return out
	}

	if exp.Title != "" {
		ref := "[[" + strings.ToLower(exp.Title) + "]]"
		for i, title := range l.lowerTitles {
			if strings.Contains(title, ref) {
				add(i, types.TierBackreference)
			}
		}
		if len(out) > 0 {
			return out
		}
	}

	if short := ShortName(exp.Title); utf8.RuneCountInString(short) >= l.minShortName {
		for i, title := range l.lowerTitles {
			if strings.Contains(title, short) {
				add(i, types.TierShortName)
			}
		}
	}
	return out
}

// ShortName returns the lower-cased text after the first "/" of an
// experiment title, with "@" removed. Titles without "/" have no short name.
func ShortName(title string) string {
	_, rest, ok := strings.Cut(strings.ReplaceAll(title, "@", ""), "/")
	if !ok {
		return ""
	}
	return strings.ToLower(rest)
}

// All links every experiment and returns the non-empty link sets in input
// order.
func (l *Linker) All(exps []types.ExperimentRecord) []types.ExperimentLinks {
	var out []types.ExperimentLinks
	for _, e := range exps {
		linked := l.Link(e)
		if len(linked) == 0 {
			continue
		}
		out = append(out, types.ExperimentLinks{
			ExperimentID:    e.ID,
			ExperimentTitle: e.Title,
			Results:         linked,
		})
	}
	return out
}
