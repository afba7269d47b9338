// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"cmp"
	"slices"
	"time"

	"github.com/pdiddy/discourse-metrics/internal/instant"
	"github.com/pdiddy/discourse-metrics/pkg/types"
)

// Observation is one subject's follow-up time in days. Event is false for a
// right-censored subject.
type Observation struct {
	Day   int
	Event bool
}

// KaplanMeier computes the product-limit survival estimate. At each distinct
// time the estimate is multiplied by (1 - d/n) where d is the number of
// events and n the number still at risk; events and censorings then leave
// the risk set. Censor-only times produce a point with unchanged survival.
func KaplanMeier(label string, obs []Observation) types.SurvivalCurve {
	curve := types.SurvivalCurve{
		Label:  label,
		N:      len(obs),
		Points: []types.SurvivalPoint{{Day: 0, Survival: 1, AtRisk: len(obs)}},
	}
	if len(obs) == 0 {
		return curve
	}

	sorted := slices.Clone(obs)
	slices.SortStableFunc(sorted, func(a, b Observation) int {
		return cmp.Compare(a.Day, b.Day)
	})

	survival := 1.0
	atRisk := len(sorted)
	for i := 0; i < len(sorted) && atRisk > 0; {
		day := sorted[i].Day
		var events, censored int
		for ; i < len(sorted) && sorted[i].Day == day; i++ {
			if sorted[i].Event {
				events++
			} else {
				censored++
			}
		}
		if events > 0 {
			survival *= 1 - float64(events)/float64(atRisk)
		}
		curve.Events += events
		curve.Censored += censored

		point := types.SurvivalPoint{Day: day, Survival: survival, AtRisk: atRisk, Events: events, Censored: censored}
		if day == 0 {
			curve.Points[0] = point
		} else {
			curve.Points = append(curve.Points, point)
		}
		if curve.MedianDay == nil && survival <= 0.5 {
			d := day
			curve.MedianDay = &d
		}
		atRisk -= events + censored
	}
	return curve
}

// At returns the survival estimate after all events up to and including day.
func At(curve types.SurvivalCurve, day int) float64 {
	s := 1.0
	for _, p := range curve.Points {
		if p.Day > day {
			break
		}
		s = p.Survival
	}
	return s
}

// Survival builds time-to-first-result curves for claimed experiments. An
// experiment with a first result is an event at that duration, floored at
// zero; one without is censored at the days from its reference instant to
// asOf. Experiments with neither are left out. The self and cross curves
// cover claims of those origins only.
func Survival(exps []types.ExperimentRecord, ttfr types.TimeToFirstResult, asOf time.Time) types.SurvivalAnalysis {
	eventDays := make(map[string]int, len(ttfr.Details))
	for _, d := range ttfr.Details {
		eventDays[d.ExperimentTitle] = max(d.DaysToFirstResult, 0)
	}

	var all, self, cross []Observation
	for _, e := range exps {
		if e.ClaimedBy == "" {
			continue
		}
		var o Observation
		if day, ok := eventDays[e.Title]; ok {
			o = Observation{Day: day, Event: true}
		} else {
			ref := e.ClaimedAt
			if ref == nil {
				ref = e.PageCreated
			}
			if ref == nil {
				continue
			}
			o = Observation{Day: max(instant.DaysBetween(*ref, asOf), 0)}
		}
		all = append(all, o)
		switch Origin(e.IssueCreatedBy, e.ClaimedBy) {
		case types.OriginSelf:
			self = append(self, o)
		case types.OriginCross:
			cross = append(cross, o)
		}
	}

	return types.SurvivalAnalysis{
		AsOf:  asOf,
		All:   KaplanMeier("all", all),
		Self:  KaplanMeier(string(types.OriginSelf), self),
		Cross: KaplanMeier(string(types.OriginCross), cross),
	}
}
