// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package anonymize replaces researcher names with pseudonyms in reports and
// bundles. A Table is immutable once built and is passed explicitly to the
// code that needs it. A nil *Table leaves every name unchanged.
package anonymize

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// Table maps full names and name fragments to pseudonyms.
type Table struct {
	names     map[string]string
	fullNames []replacement
	fragments []replacement
}

type replacement struct {
	from, to string
}

// file is the on-disk TOML layout:
//
//	[names]
//	"Ana Ruiz" = "R1"
//	"Principal Investigator" = "Principal Investigator"
//
//	[fragments]
//	"Ana's" = "R1's"
type file struct {
	Names     map[string]string `toml:"names"`
	Fragments map[string]string `toml:"fragments"`
}

// New builds a table. Identity mappings are kept for lookups but never
// substituted into titles. Longer keys are replaced first.
func New(names, fragments map[string]string) *Table {
	t := &Table{names: make(map[string]string, len(names))}
	for from, to := range names {
		from = strings.TrimSpace(from)
		if from == "" {
			continue
		}
		t.names[from] = to
		if from != to {
			t.fullNames = append(t.fullNames, replacement{from, to})
		}
	}
	for from, to := range fragments {
		if from != "" && from != to {
			t.fragments = append(t.fragments, replacement{from, to})
		}
	}
	sortReplacements(t.fullNames)
	sortReplacements(t.fragments)
	return t
}

func sortReplacements(rs []replacement) {
	slices.SortFunc(rs, func(a, b replacement) int {
		if c := cmp.Compare(len(b.from), len(a.from)); c != 0 {
			return c
		}
		return cmp.Compare(a.from, b.from)
	})
}

// Load reads a TOML pseudonym table.
func Load(path string) (*Table, error) {
	var f file
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("loading pseudonym table %s: %w", path, err)
	}
	return New(f.Names, f.Fragments), nil
}

// Name returns the pseudonym for name, or name itself when it has none.
// Surrounding space is ignored when looking up.
func (t *Table) Name(name string) string {
	if t == nil || name == "" {
		return name
	}
	if p, ok := t.names[strings.TrimSpace(name)]; ok {
		return p
	}
	return name
}

// Title replaces every full name, then every fragment, inside text.
func (t *Table) Title(text string) string {
	if t == nil || text == "" {
		return text
	}
	for _, r := range t.fullNames {
		text = strings.ReplaceAll(text, r.from, r.to)
	}
	for _, r := range t.fragments {
		text = strings.ReplaceAll(text, r.from, r.to)
	}
	return text
}

// Len returns the number of mapped names.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}
