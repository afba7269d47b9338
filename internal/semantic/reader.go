// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package semantic reads the JSON-LD semantic export of a discourse graph
// into typed nodes, relation definitions, and relation instances.
package semantic

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/pdiddy/discourse-metrics/internal/fields"
	"github.com/pdiddy/discourse-metrics/internal/instant"
	"github.com/pdiddy/discourse-metrics/pkg/types"
)

// ErrInputMissing is returned when the export file does not exist.
var ErrInputMissing = types.ErrInputMissing

// ErrMalformedExport is returned when an export cannot be decoded at all.
var ErrMalformedExport = errors.New("malformed export")

const (
	idPrefix = "pages:"

	typeNodeSchema       = "nodeSchema"
	typeRelationDef      = "relationDef"
	typeRelationInstance = "relationInstance"
)

// Export is the parsed semantic export.
type Export struct {
	Experiments []types.Node
	Issues      []types.Node
	Results     []types.Node

	// NodesByKind holds every classified content node, experiments included.
	NodesByKind map[types.NodeKind][]types.Node

	Relations         []types.RelationDef
	RelationInstances []types.RelationInstance

	// TotalContentNodes counts nodes that are not schema or relation metadata.
	TotalContentNodes int

	// Latest is the latest created or modified instant of any content node.
	Latest *time.Time
}

// document is the top-level JSON-LD shape.
type document struct {
	Graph []rawNode `json:"@graph"`
}

type rawNode struct {
	ID          flexString `json:"@id"`
	Type        flexString `json:"@type"`
	Title       flexString `json:"title"`
	Content     flexString `json:"content"`
	Creator     flexString `json:"creator"`
	Created     flexString `json:"created"`
	Modified    flexString `json:"modified"`
	Label       flexString `json:"label"`
	Domain      flexString `json:"domain"`
	Range       flexString `json:"range"`
	InverseOf   flexString `json:"inverseOf"`
	Source      flexString `json:"source"`
	Destination flexString `json:"destination"`
	Predicate   flexString `json:"predicate"`
}

// Load reads the semantic export at path.
func Load(path string) (*Export, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("semantic export %s: %w", path, ErrInputMissing)
		}
		return nil, fmt.Errorf("opening semantic export: %w", err)
	}
	defer f.Close()

	exp, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("semantic export %s: %w", path, err)
	}
	return exp, nil
}

// Read parses a semantic export. A top-level array is accepted as the graph
// itself. Individual nodes never fail the read; only an undecodable document
// does.
func Read(r io.Reader) (*Export, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading: %w", err)
	}

	var graph []rawNode
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0:
		return nil, fmt.Errorf("empty document: %w", ErrMalformedExport)
	case trimmed[0] == '[':
		if err := json.Unmarshal(trimmed, &graph); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedExport, err)
		}
	default:
		var doc document
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedExport, err)
		}
		graph = doc.Graph
	}

	return build(graph), nil
}

func build(graph []rawNode) *Export {
	exp := &Export{NodesByKind: make(map[types.NodeKind][]types.Node)}

	for _, raw := range graph {
		switch string(raw.Type) {
		case typeRelationDef:
			exp.Relations = append(exp.Relations, types.RelationDef{
				ID:        StripPrefix(string(raw.ID)),
				Label:     string(raw.Label),
				Domain:    string(raw.Domain),
				Range:     string(raw.Range),
				InverseOf: string(raw.InverseOf),
			})
			continue
		case typeRelationInstance:
			exp.RelationInstances = append(exp.RelationInstances, types.RelationInstance{
				ID:          StripPrefix(string(raw.ID)),
				Source:      StripPrefix(string(raw.Source)),
				Destination: StripPrefix(string(raw.Destination)),
				Predicate:   StripPrefix(string(raw.Predicate)),
			})
			continue
		case typeNodeSchema:
			continue
		}

		exp.TotalContentNodes++
		node := toNode(raw)
		exp.Latest = instant.Max(exp.Latest, node.Created, node.Modified)

		switch node.Kind {
		case types.KindExperiment:
			exp.Experiments = append(exp.Experiments, node)
		case types.KindIssue:
			exp.Issues = append(exp.Issues, node)
		case types.KindResult:
			exp.Results = append(exp.Results, node)
		}
		if node.Kind != types.KindOther {
			exp.NodesByKind[node.Kind] = append(exp.NodesByKind[node.Kind], node)
		}
	}
	return exp
}

func toNode(raw rawNode) types.Node {
	content := string(raw.Content)
	title := string(raw.Title)
	return types.Node{
		ID:             StripPrefix(string(raw.ID)),
		Title:          title,
		Kind:           Classify(title),
		Content:        content,
		Creator:        strings.TrimSpace(string(raw.Creator)),
		Created:        instant.Parse(string(raw.Created)),
		Modified:       instant.Parse(string(raw.Modified)),
		ClaimedBy:      fields.Extract(content, fields.ClaimedBy),
		IssueCreatedBy: fields.Extract(content, fields.IssueCreatedBy),
		MadeBy:         fields.Extract(content, fields.MadeBy),
		Author:         fields.Extract(content, fields.Author),
		Status:         fields.Status(content),
	}
}

// StripPrefix removes the "pages:" id namespace.
func StripPrefix(id string) string {
	return strings.TrimPrefix(id, idPrefix)
}

// Titles returns the experiment and issue titles, sorted and deduplicated.
func (e *Export) Titles() []string {
	seen := make(map[string]bool)
	var titles []string
	for _, group := range [][]types.Node{e.Experiments, e.Issues} {
		for _, n := range group {
			if n.Title == "" || seen[n.Title] {
				continue
			}
			seen[n.Title] = true
			titles = append(titles, n.Title)
		}
	}
	sort.Strings(titles)
	return titles
}
