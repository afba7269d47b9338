// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package blocktree

import (
	"regexp"
	"time"

	"github.com/pdiddy/discourse-metrics/internal/fields"
	"github.com/pdiddy/discourse-metrics/internal/instant"
)

var (
	// logHeader marks the section holding dated log entries.
	logHeader = regexp.MustCompile(`(?i)Experiment(al)?\s+Log`)

	// datedChild is a log child referencing an ordinal date page such as
	// [[April 5th, 2024]].
	datedChild = regexp.MustCompile(`\[\[.+\d{1,2}(st|nd|rd|th),?\s+\d{4}\]\]`)

	// logEntry captures the date page text of a log entry.
	logEntry = regexp.MustCompile(`\[\[([^\]]+\d{4})\]\]`)
)

// Attribution is a person named by a field block and the block's creation
// instant, when it has one.
type Attribution struct {
	Person string
	At     *time.Time
}

// LogEntry is one dated child of an experimental log.
type LogEntry struct {
	DateText    string
	At          *time.Time
	BlockUID    string
	HasChildren bool
}

// PageFacts are the facts derived from one page.
type PageFacts struct {
	Title         string
	PageCreated   *time.Time
	EarliestBlock *time.Time

	// Attribution blocks; nil when the page has no usable block.
	ClaimedBy      *Attribution
	IssueCreatedBy *Attribution
	MadeBy         *Attribution
	Author         *Attribution

	HasExperimentalLog bool
	LogEntries         []LogEntry
	FirstLogEntry      *time.Time
}

// LogEntryCount returns the number of dated log entries.
func (f PageFacts) LogEntryCount() int {
	return len(f.LogEntries)
}

// Analyze derives the facts of p.
func Analyze(p *Page) PageFacts {
	facts := PageFacts{
		Title:         p.Title,
		PageCreated:   instant.FromMillis(int64(p.CreateTime)),
		EarliestBlock: earliest(p.Children),
	}

	facts.ClaimedBy = timedAttribution(p.Children, fields.ClaimedBy)
	facts.IssueCreatedBy = timedAttribution(p.Children, fields.IssueCreatedBy)
	facts.MadeBy = attribution(p.Children, fields.MadeBy)
	facts.Author = attribution(p.Children, fields.Author)

	if header := find(p.Children, logHeader.MatchString); header != nil {
		facts.HasExperimentalLog = hasDatedChild(header)
		facts.LogEntries = entries(header)
		for _, e := range facts.LogEntries {
			facts.FirstLogEntry = instant.Min(facts.FirstLogEntry, e.At)
		}
	}
	return facts
}

// find walks blocks depth-first in document order and returns the first
// block whose text satisfies match.
func find(blocks []Block, match func(string) bool) *Block {
	for i := range blocks {
		if match(blocks[i].String) {
			return &blocks[i]
		}
		if b := find(blocks[i].Children, match); b != nil {
			return b
		}
	}
	return nil
}

// timedAttribution reads a field that only counts when its block carries a
// creation timestamp.
func timedAttribution(blocks []Block, f fields.Field) *Attribution {
	a := attribution(blocks, f)
	if a == nil || a.At == nil {
		return nil
	}
	return a
}

// attribution finds the first block mentioning each rule of f in priority
// order and extracts the referenced person from it. A rule whose first
// mentioning block has no reference falls through to the next rule.
func attribution(blocks []Block, f fields.Field) *Attribution {
	for _, rule := range fields.Rules(f) {
		b := find(blocks, rule.Mentions)
		if b == nil {
			continue
		}
		if person := rule.Reference(b.String); person != "" {
			return &Attribution{Person: person, At: instant.FromMillis(int64(b.CreateTime))}
		}
	}
	return nil
}

func earliest(blocks []Block) *time.Time {
	var min *time.Time
	for _, b := range blocks {
		min = instant.Min(min, instant.FromMillis(int64(b.CreateTime)), earliest(b.Children))
	}
	return min
}

func hasDatedChild(header *Block) bool {
	for _, c := range header.Children {
		if datedChild.MatchString(c.String) {
			return true
		}
	}
	return false
}

func entries(header *Block) []LogEntry {
	var out []LogEntry
	for _, c := range header.Children {
		m := logEntry.FindStringSubmatch(c.String)
		if m == nil {
			continue
		}
		out = append(out, LogEntry{
			DateText:    m[1],
			At:          instant.FromMillis(int64(c.CreateTime)),
			BlockUID:    c.UID,
			HasChildren: len(c.Children) > 0,
		})
	}
	return out
}
