// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// NodeKind classifies a semantic export node by the convention in its title.
type NodeKind string

const (
	KindExperiment NodeKind = "experiment"
	KindIssue      NodeKind = "ISS"
	KindResult     NodeKind = "RES"
	KindClaim      NodeKind = "CLM"
	KindHypothesis NodeKind = "HYP"
	KindConclusion NodeKind = "CON"
	KindEvidence   NodeKind = "EVD"
	KindQuestion   NodeKind = "QUE"
	KindOther      NodeKind = "other"
)

// DiscourseKinds lists the bracketed discourse markers in the order they are
// tested against a title. The first marker found wins.
var DiscourseKinds = []NodeKind{
	KindIssue,
	KindResult,
	KindClaim,
	KindHypothesis,
	KindConclusion,
	KindEvidence,
	KindQuestion,
}

// Node is one content node read from the semantic export. Nodes are never
// mutated after the reader returns them.
type Node struct {
	// ID is the node identifier with the "pages:" namespace prefix removed.
	ID string `json:"id" yaml:"id"`

	// Title is the page title. It is the join key against the block-tree export.
	Title string `json:"title" yaml:"title"`

	// Kind is derived from Title.
	Kind NodeKind `json:"kind" yaml:"kind"`

	// Content is the free-form page text holding Field:: declarations.
	Content string `json:"-" yaml:"-"`

	// Creator is the identity recorded by the authoring tool.
	Creator string `json:"creator,omitempty" yaml:"creator,omitempty"`

	Created  *time.Time `json:"created,omitempty" yaml:"created,omitempty"`
	Modified *time.Time `json:"modified,omitempty" yaml:"modified,omitempty"`

	// Field values extracted from Content. Empty means the field was absent.
	ClaimedBy      string `json:"claimed_by,omitempty" yaml:"claimed_by,omitempty"`
	IssueCreatedBy string `json:"issue_created_by,omitempty" yaml:"issue_created_by,omitempty"`
	MadeBy         string `json:"made_by,omitempty" yaml:"made_by,omitempty"`
	Author         string `json:"author,omitempty" yaml:"author,omitempty"`
	Status         string `json:"status,omitempty" yaml:"status,omitempty"`
}

// RelationDef is a relation-definition node from the semantic export schema.
type RelationDef struct {
	ID        string `json:"id" yaml:"id"`
	Label     string `json:"label" yaml:"label"`
	Domain    string `json:"domain,omitempty" yaml:"domain,omitempty"`
	Range     string `json:"range,omitempty" yaml:"range,omitempty"`
	InverseOf string `json:"inverse_of,omitempty" yaml:"inverse_of,omitempty"`
}

// RelationInstance is a directed edge between two nodes. Source and
// Destination have the "pages:" prefix removed.
type RelationInstance struct {
	ID          string `json:"id" yaml:"id"`
	Source      string `json:"source" yaml:"source"`
	Destination string `json:"destination" yaml:"destination"`
	Predicate   string `json:"predicate,omitempty" yaml:"predicate,omitempty"`
}
