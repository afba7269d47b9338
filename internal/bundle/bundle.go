// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bundle packages computed metrics into shareable evidence bundles.
// Each bundle is a directory holding grounding data (JSON and CSV), a
// markdown evidence statement, copied figures, JSON-LD evidence metadata,
// and an RO-Crate manifest.
//
// Bundles are pure serialization of a snapshot: the same snapshot always
// produces byte-identical files, including the bundle identifiers.
package bundle

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/pdiddy/discourse-metrics/internal/anonymize"
	"github.com/pdiddy/discourse-metrics/pkg/types"
)

// Dir is the bundles directory inside the output directory.
const Dir = "evidence_bundles"

// Bundle names.
const (
	FunnelBundle     = "evd5-issue-funnel"
	ConversionBundle = "evd1-issue-conversion"
)

const (
	crateContext = "https://w3id.org/ro/crate/1.1/context"
	crateSpec    = "https://w3id.org/ro/crate/1.1"
	licenseURL   = "https://creativecommons.org/licenses/by/4.0/"
)

// Options configures bundle output.
type Options struct {
	// OutputDir receives the evidence_bundles directory.
	OutputDir string

	// Names anonymizes people and titles. Nil leaves them unchanged.
	Names *anonymize.Table

	// Figures are rendered chart paths; those a bundle uses are copied in.
	Figures []string

	// System names the discourse graph in bundle text.
	System string

	// Version is recorded as the generating software version.
	Version string
}

func (o Options) system() string {
	if o.System == "" {
		return "discourse graph"
	}
	return o.System
}

// WriteAll writes every bundle and returns the bundle directories.
func WriteAll(snap *types.Snapshot, opts Options) ([]string, error) {
	var dirs []string
	for _, write := range []func(*types.Snapshot, Options) (string, error){WriteFunnel, WriteConversion} {
		dir, err := write(snap, opts)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, dir)
	}
	return dirs, nil
}

// ID returns the deterministic identifier of bundle name for snap. It is a
// name-based UUID over the bundle name and the snapshot's as-of instant.
func ID(name string, snap *types.Snapshot) uuid.UUID {
	seed := fmt.Sprintf("discourse-metrics/%s/%s", name, snap.Generated.UTC().Format("2006-01-02T15:04:05Z"))
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(seed))
}

// writer tracks the files written into one bundle directory.
type writer struct {
	dir   string
	files []crateFile
}

type crateFile struct {
	path        string
	description string
}

func newWriter(opts Options, name string) (*writer, error) {
	dir := filepath.Join(opts.OutputDir, Dir, name)
	for _, sub := range []string{"data", "docs"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("creating bundle directory: %w", err)
		}
	}
	return &writer{dir: dir}, nil
}

func (w *writer) writeFile(rel, description string, data []byte) error {
	path := filepath.Join(w.dir, filepath.FromSlash(rel))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", rel, err)
	}
	w.files = append(w.files, crateFile{path: rel, description: description})
	return nil
}

func (w *writer) writeJSON(rel, description string, v any) error {
	data, err := marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", rel, err)
	}
	return w.writeFile(rel, description, data)
}

// copyFigure copies src into the bundle root under its own base name.
// Missing figures are skipped.
func (w *writer) copyFigure(src, description string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("opening figure: %w", err)
	}
	defer in.Close()

	rel := filepath.Base(src)
	out, err := os.Create(filepath.Join(w.dir, rel))
	if err != nil {
		return "", fmt.Errorf("creating figure copy: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", fmt.Errorf("copying figure %s: %w", rel, err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	w.files = append(w.files, crateFile{path: rel, description: description})
	return rel, nil
}

// figures returns the rendered paths whose base name, without extension,
// is one of names. Input order is kept.
func figures(paths []string, names ...string) []string {
	var out []string
	for _, p := range paths {
		base := filepath.Base(p)
		for _, n := range names {
			if strings.TrimSuffix(base, filepath.Ext(base)) == n {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func marshal(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// --- JSON-LD evidence metadata ---

type ldContext struct {
	DC      string `json:"dc"`
	DCTerms string `json:"dcterms"`
	Prov    string `json:"prov"`
	Schema  string `json:"schema"`
	DGB     string `json:"dgb"`
	DGE     string `json:"dge"`
}

var evidenceContext = ldContext{
	DC:      "http://purl.org/dc/elements/1.1/",
	DCTerms: "http://purl.org/dc/terms/",
	Prov:    "http://www.w3.org/ns/prov#",
	Schema:  "https://schema.org/",
	DGB:     "https://discoursegraphs.com/schema/dg_base/",
	DGE:     "https://discoursegraphs.com/schema/dg_evidence/",
}

type evidence struct {
	Context        ldContext     `json:"@context"`
	Type           string        `json:"@type"`
	ID             string        `json:"@id"`
	Identifier     string        `json:"dcterms:identifier"`
	Title          string        `json:"dc:title"`
	Date           string        `json:"dc:date"`
	License        string        `json:"dcterms:license"`
	Statement      string        `json:"dge:evidenceStatement"`
	Observable     described     `json:"dge:observable"`
	Method         method        `json:"dge:method"`
	System         described     `json:"dge:system"`
	Figures        []imageObject `json:"dge:figure,omitempty"`
	GroundingData  []download    `json:"dge:groundingData"`
	Documentation  []download    `json:"dge:documentation,omitempty"`
	GeneratedBy    activity      `json:"prov:wasGeneratedBy"`
	SummaryMetrics any           `json:"dge:summaryMetrics"`
}

type described struct {
	Type        string `json:"@type"`
	Title       string `json:"dc:title"`
	Description string `json:"dc:description"`
}

type method struct {
	described
	Used []usedFile `json:"prov:used"`
}

type usedFile struct {
	ID          string `json:"@id"`
	Description string `json:"dc:description"`
}

type imageObject struct {
	Type           string `json:"@type"`
	ContentURL     string `json:"schema:contentUrl"`
	EncodingFormat string `json:"schema:encodingFormat"`
}

type download struct {
	Type           string `json:"@type"`
	ContentURL     string `json:"schema:contentUrl"`
	EncodingFormat string `json:"schema:encodingFormat"`
	Description    string `json:"dc:description"`
}

type activity struct {
	Type           string   `json:"@type"`
	EndedAt        string   `json:"prov:endedAtTime"`
	Used           []string `json:"prov:used"`
	AssociatedWith []agent  `json:"prov:wasAssociatedWith"`
}

type agent struct {
	Type    string `json:"@type"`
	Title   string `json:"dc:title"`
	Version string `json:"schema:softwareVersion,omitempty"`
}

func methodUsed() []usedFile {
	return []usedFile{
		{ID: "internal/semantic", Description: "JSON-LD semantic export reader"},
		{ID: "internal/blocktree", Description: "Streaming block-tree export reader and source validator"},
		{ID: "internal/merge", Description: "Record merger and attribution priority"},
		{ID: "internal/link", Description: "Three-tier result linker"},
		{ID: "internal/metrics", Description: "Metric engine"},
	}
}

func generatedBy(snap *types.Snapshot, opts Options) activity {
	var used []string
	for _, p := range []string{snap.DataSources.Semantic, snap.DataSources.BlockTree} {
		if p != "" {
			used = append(used, filepath.Base(p))
		}
	}
	return activity{
		Type:    "prov:Activity",
		EndedAt: asOfDate(snap),
		Used:    used,
		AssociatedWith: []agent{
			{Type: "prov:SoftwareAgent", Title: "discourse-metrics", Version: opts.Version},
		},
	}
}

func figureObjects(rels []string) []imageObject {
	var out []imageObject
	for _, r := range rels {
		out = append(out, imageObject{Type: "schema:ImageObject", ContentURL: r, EncodingFormat: encodingFormat(r)})
	}
	return out
}

func encodingFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonld":
		return "application/json"
	case ".csv":
		return "text/csv"
	case ".md":
		return "text/markdown"
	case ".png":
		return "image/png"
	case ".svg":
		return "image/svg+xml"
	default:
		return "application/octet-stream"
	}
}

func asOfDate(snap *types.Snapshot) string {
	return snap.Generated.Format("2006-01-02")
}

// --- RO-Crate ---

type crate struct {
	Context string        `json:"@context"`
	Graph   []crateEntity `json:"@graph"`
}

type ref struct {
	ID string `json:"@id"`
}

type crateEntity struct {
	ID             string `json:"@id"`
	Type           string `json:"@type"`
	About          *ref   `json:"about,omitempty"`
	ConformsTo     *ref   `json:"conformsTo,omitempty"`
	Identifier     string `json:"identifier,omitempty"`
	Name           string `json:"name,omitempty"`
	Description    string `json:"description,omitempty"`
	DatePublished  string `json:"datePublished,omitempty"`
	License        *ref   `json:"license,omitempty"`
	EncodingFormat string `json:"encodingFormat,omitempty"`
	HasPart        []ref  `json:"hasPart,omitempty"`
}

// writeCrate writes ro-crate-metadata.json listing every file written so
// far. It must be the last file of a bundle.
func (w *writer) writeCrate(id uuid.UUID, name, description, date string) error {
	c := crate{
		Context: crateContext,
		Graph: []crateEntity{
			{ID: "ro-crate-metadata.json", Type: "CreativeWork", About: &ref{"./"}, ConformsTo: &ref{crateSpec}},
			{
				ID:            "./",
				Type:          "Dataset",
				Identifier:    id.URN(),
				Name:          name,
				Description:   description,
				DatePublished: date,
				License:       &ref{licenseURL},
			},
		},
	}
	for _, f := range w.files {
		c.Graph[1].HasPart = append(c.Graph[1].HasPart, ref{f.path})
		c.Graph = append(c.Graph, crateEntity{
			ID:             f.path,
			Type:           "File",
			Description:    f.description,
			EncodingFormat: encodingFormat(f.path),
		})
	}
	data, err := marshal(c)
	if err != nil {
		return fmt.Errorf("encoding RO-Crate: %w", err)
	}
	path := filepath.Join(w.dir, "ro-crate-metadata.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing RO-Crate: %w", err)
	}
	return nil
}

