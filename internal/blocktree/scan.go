// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package blocktree

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pdiddy/discourse-metrics/pkg/types"
)

// ErrInputMissing is returned when the export file does not exist.
var ErrInputMissing = types.ErrInputMissing

// ScanResult holds the facts for the wanted titles found in an export.
type ScanResult struct {
	Facts map[string]PageFacts

	// PagesRead counts pages decoded before the scan stopped.
	PagesRead int

	// Complete is true when every wanted title was found.
	Complete bool
}

// Scan streams pages from r and analyzes those whose title is wanted. The
// first page with a given title wins. Scanning stops as soon as every wanted
// title has been seen.
func Scan(r io.Reader, want []string) (ScanResult, error) {
	pending := make(map[string]bool, len(want))
	for _, t := range want {
		pending[t] = true
	}
	res := ScanResult{Facts: make(map[string]PageFacts, len(pending))}
	if len(pending) == 0 {
		res.Complete = true
		return res, nil
	}

	reader := NewReader(r)
	for page, err := range reader.Pages() {
		if err != nil {
			return res, err
		}
		if !pending[page.Title] {
			continue
		}
		delete(pending, page.Title)
		res.Facts[page.Title] = Analyze(page)
		if len(pending) == 0 {
			break
		}
	}
	res.PagesRead = reader.PagesRead()
	res.Complete = len(pending) == 0
	return res, nil
}

// ScanFile opens path and runs Scan over it.
func ScanFile(path string, want []string) (ScanResult, error) {
	f, err := open(path)
	if err != nil {
		return ScanResult{}, err
	}
	defer f.Close()

	res, err := Scan(f, want)
	if err != nil {
		return res, fmt.Errorf("block-tree export %s: %w", path, err)
	}
	return res, nil
}

func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("block-tree export %s: %w", path, ErrInputMissing)
		}
		return nil, fmt.Errorf("opening block-tree export: %w", err)
	}
	return f, nil
}
