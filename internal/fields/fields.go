// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fields extracts Field:: declarations from free-form page text.
// Each field is described by an ordered list of rules; the first rule that
// yields a value wins. Both export readers share the same rule table.
package fields

import (
	"regexp"
	"strings"
)

// Field names a person-valued declaration.
type Field string

const (
	ClaimedBy      Field = "claimed_by"
	IssueCreatedBy Field = "issue_created_by"
	MadeBy         Field = "made_by"
	Author         Field = "author"
)

// All lists the person-valued fields.
var All = []Field{ClaimedBy, IssueCreatedBy, MadeBy, Author}

// Rule matches one label form of a field.
type Rule struct {
	// Label is a regular expression fragment for the text before "::".
	Label string

	// RejectIssuePrefix skips occurrences immediately preceded by "Issue ",
	// so "Created by" never reads an "Issue Created By" declaration.
	RejectIssuePrefix bool

	marker   *regexp.Regexp
	markdown *regexp.Regexp
	wiki     *regexp.Regexp
}

func newRule(label string, rejectIssuePrefix bool) Rule {
	return Rule{
		Label:             label,
		RejectIssuePrefix: rejectIssuePrefix,
		marker:            regexp.MustCompile(`(?i)` + label + `::`),
		markdown:          regexp.MustCompile(label + `::\s*\[([^\]]+)\]\([^)]+\)`),
		wiki:              regexp.MustCompile(label + `::\s*\[\[([^\]]+)\]\]`),
	}
}

var rules = map[Field][]Rule{
	ClaimedBy:      {newRule(`Claimed By`, false)},
	IssueCreatedBy: {newRule(`Issue Created By`, false)},
	MadeBy: {
		newRule(`Made [Bb]y`, false),
		newRule(`Creator`, false),
		newRule(`Created [Bb]y`, true),
	},
	Author: {newRule(`Author`, false)},
}

// Rules returns the rules for f in priority order.
func Rules(f Field) []Rule {
	return rules[f]
}

var statusPattern = regexp.MustCompile(`Status::\s*([^\n]+)`)

// Extract returns the value of f declared anywhere in content, or "" when
// no rule matches. Markdown links are preferred over wiki references within
// each rule.
func Extract(content string, f Field) string {
	for _, r := range rules[f] {
		if v := r.firstGroup(r.markdown, content); v != "" {
			return v
		}
		if v := r.firstGroup(r.wiki, content); v != "" {
			return v
		}
	}
	return ""
}

// Status returns the trimmed Status:: value, or "".
func Status(content string) string {
	m := statusPattern.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// Mentions reports whether text contains the rule's label declaration in any
// letter case, honoring RejectIssuePrefix.
func (r Rule) Mentions(text string) bool {
	for _, loc := range r.marker.FindAllStringIndex(text, -1) {
		if !r.rejected(text, loc[0]) {
			return true
		}
	}
	return false
}

// Reference returns the [[wiki]] reference declared by the rule in text.
func (r Rule) Reference(text string) string {
	return r.firstGroup(r.wiki, text)
}

func (r Rule) firstGroup(re *regexp.Regexp, text string) string {
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		if r.rejected(text, m[0]) {
			continue
		}
		if v := strings.TrimSpace(text[m[2]:m[3]]); v != "" {
			return v
		}
	}
	return ""
}

// rejected reports whether the match at start is part of "Issue <label>".
func (r Rule) rejected(text string, start int) bool {
	if !r.RejectIssuePrefix {
		return false
	}
	const prefix = "issue "
	if start < len(prefix) {
		return false
	}
	return strings.EqualFold(text[start-len(prefix):start], prefix)
}
