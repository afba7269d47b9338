// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package blocktree streams the raw block-tree export (an array of pages,
// each holding a recursive tree of timestamped blocks) and derives per-page
// facts: creation instants, attribution blocks, and experimental log entries.
package blocktree

import (
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/goccy/go-json"
)

// ErrMalformedExport is returned when the export is not an array of pages.
var ErrMalformedExport = errors.New("malformed block-tree export")

// Block is one node of a page's block tree. Timestamps are epoch milliseconds.
type Block struct {
	UID        string  `json:"uid"`
	String     string  `json:"string"`
	CreateTime float64 `json:"create-time"`
	EditTime   float64 `json:"edit-time"`
	Children   []Block `json:"children"`
}

// Page is one top-level page of the export.
type Page struct {
	Title      string  `json:"title"`
	UID        string  `json:"uid"`
	CreateTime float64 `json:"create-time"`
	EditTime   float64 `json:"edit-time"`
	Children   []Block `json:"children"`
}

// Reader decodes pages one at a time. It is forward-only and cannot be
// restarted.
type Reader struct {
	dec     *json.Decoder
	started bool
	done    bool
	pages   int
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: json.NewDecoder(r)}
}

// Next returns the next page, or io.EOF after the closing bracket.
func (r *Reader) Next() (*Page, error) {
	if r.done {
		return nil, io.EOF
	}
	if !r.started {
		tok, err := r.dec.Token()
		if err != nil {
			r.done = true
			return nil, fmt.Errorf("%w: %v", ErrMalformedExport, err)
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			r.done = true
			return nil, fmt.Errorf("%w: expected array, got %v", ErrMalformedExport, tok)
		}
		r.started = true
	}
	if !r.dec.More() {
		r.done = true
		if _, err := r.dec.Token(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedExport, err)
		}
		return nil, io.EOF
	}
	var p Page
	if err := r.dec.Decode(&p); err != nil {
		r.done = true
		return nil, fmt.Errorf("%w: page %d: %v", ErrMalformedExport, r.pages, err)
	}
	r.pages++
	return &p, nil
}

// PagesRead returns how many pages have been decoded so far.
func (r *Reader) PagesRead() int {
	return r.pages
}

// Pages yields every remaining page. Iteration stops after the first error,
// which is yielded with a nil page.
func (r *Reader) Pages() iter.Seq2[*Page, error] {
	return func(yield func(*Page, error) bool) {
		for {
			p, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(p, nil) {
				return
			}
		}
	}
}

// ReadAll decodes the whole export in memory.
func ReadAll(r io.Reader) ([]Page, error) {
	var pages []Page
	if err := json.NewDecoder(r).Decode(&pages); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedExport, err)
	}
	return pages, nil
}
