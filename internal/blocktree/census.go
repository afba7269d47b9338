// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package blocktree

import (
	"io"

	"github.com/pdiddy/discourse-metrics/pkg/types"
)

// KindCount is the number of pages of one kind.
type KindCount struct {
	Kind  types.NodeKind
	Count int
}

// Census counts every page of an export.
type Census struct {
	Pages int

	// Kinds lists experiment pages first, then the discourse kinds in
	// marker order, then other pages. Kinds with no pages are omitted.
	Kinds []KindCount

	ExplicitClaims   int
	ExperimentalLogs int
	LogEntries       int
}

// Count streams every page of r, classifying titles with classify and
// analyzing experiment and issue pages.
func Count(r io.Reader, classify func(string) types.NodeKind) (Census, error) {
	var c Census
	counts := make(map[types.NodeKind]int)

	reader := NewReader(r)
	for page, err := range reader.Pages() {
		if err != nil {
			return c, err
		}
		kind := classify(page.Title)
		counts[kind]++
		if kind != types.KindExperiment && kind != types.KindIssue {
			continue
		}
		facts := Analyze(page)
		if facts.ClaimedBy != nil {
			c.ExplicitClaims++
		}
		if facts.HasExperimentalLog {
			c.ExperimentalLogs++
		}
		c.LogEntries += facts.LogEntryCount()
	}
	c.Pages = reader.PagesRead()

	order := append([]types.NodeKind{types.KindExperiment}, types.DiscourseKinds...)
	order = append(order, types.KindOther)
	for _, k := range order {
		if n := counts[k]; n > 0 {
			c.Kinds = append(c.Kinds, KindCount{Kind: k, Count: n})
		}
	}
	return c, nil
}

// CountFile opens path and runs Count over it.
func CountFile(path string, classify func(string) types.NodeKind) (Census, error) {
	f, err := open(path)
	if err != nil {
		return Census{}, err
	}
	defer f.Close()
	return Count(f, classify)
}
