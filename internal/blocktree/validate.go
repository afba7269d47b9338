// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package blocktree

import (
	"errors"
	"fmt"
	"sort"

	"github.com/pdiddy/discourse-metrics/pkg/types"
)

// ErrSourceMismatch is wrapped by MismatchError.
var ErrSourceMismatch = errors.New("exports describe different source graphs")

// MismatchError reports a title overlap below the configured threshold.
type MismatchError struct {
	Report types.ValidationReport
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("match rate %.1f%% below %.0f%% threshold: only %d of %d semantic titles found in the block-tree export, which appears to be from a different graph",
		e.Report.MatchRate*100, e.Report.Threshold*100, e.Report.Matched, e.Report.TotalSemanticTitles)
}

func (e *MismatchError) Unwrap() error {
	return ErrSourceMismatch
}

// Check compares the wanted semantic titles against a scan of the
// block-tree export. It returns a *MismatchError when the fraction found is
// below minMatchRate. An empty title set has a match rate of 0.
func Check(want []string, scan ScanResult, minMatchRate float64) (types.ValidationReport, error) {
	unique := make(map[string]bool, len(want))
	for _, t := range want {
		unique[t] = true
	}

	report := types.ValidationReport{
		TotalSemanticTitles: len(unique),
		Threshold:           minMatchRate,
		BlockTreePages:      scan.PagesRead,
	}
	for t := range unique {
		if _, ok := scan.Facts[t]; ok {
			report.Matched++
		} else {
			report.Missing = append(report.Missing, t)
		}
	}
	sort.Strings(report.Missing)

	if report.TotalSemanticTitles > 0 {
		report.MatchRate = float64(report.Matched) / float64(report.TotalSemanticTitles)
	}
	report.Passed = report.MatchRate >= minMatchRate
	if !report.Passed {
		return report, &MismatchError{Report: report}
	}
	return report, nil
}

// ValidateFile scans the export at path for the given titles and checks the
// overlap.
func ValidateFile(path string, titles []string, minMatchRate float64) (types.ValidationReport, ScanResult, error) {
	scan, err := ScanFile(path, titles)
	if err != nil {
		return types.ValidationReport{}, scan, err
	}
	report, err := Check(titles, scan, minMatchRate)
	return report, scan, err
}
