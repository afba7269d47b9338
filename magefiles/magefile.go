// Package main contains Mage build targets for discourse-metrics developer tooling.
package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// projectDirs lists the working directories the CLI writes into.
var projectDirs = []string{
	"data",
	"output/figures",
	"output/evidence_bundles",
	"output/store/index",
}

// Init creates the project directory structure.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "discourse-metrics"
	cmdPkg  = "./cmd/discourse-metrics"

	// buildTags enables FTS5 in the bundled SQLite.
	buildTags = "sqlite_fts5"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || version == "" {
		version = "dev"
	}
	if err := sh.RunV("go", "build", "-tags", buildTags,
		"-ldflags", "-X main.version="+version, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs every package's tests with the SQLite FTS5 tag.
func Test() error {
	return sh.RunV("go", "test", "-tags", buildTags, "./...")
}

// Check runs go vet, then the tests.
func Check() error {
	if err := sh.RunV("go", "vet", "-tags", buildTags, "./..."); err != nil {
		return err
	}
	mg.Deps(Test)
	return nil
}

// sourceRoots are the trees Stats reports on.
var sourceRoots = []string{"cmd", "internal", "pkg", "magefiles"}

// packageStats holds non-blank line and test counts for one package
// directory.
type packageStats struct {
	prodLines int
	testLines int
	tests     int
}

// Stats prints non-blank Go lines and test functions per package, one row
// per pipeline stage under internal/, plus a total.
func Stats() error {
	byDir := map[string]*packageStats{}
	for _, root := range sourceRoots {
		if err := collectStats(root, byDir); err != nil {
			return err
		}
	}

	dirs := slices.Sorted(maps.Keys(byDir))
	var total packageStats
	fmt.Printf("%-28s %8s %8s %6s\n", "package", "prod", "test", "tests")
	for _, dir := range dirs {
		ps := byDir[dir]
		fmt.Printf("%-28s %8d %8d %6d\n", dir, ps.prodLines, ps.testLines, ps.tests)
		total.prodLines += ps.prodLines
		total.testLines += ps.testLines
		total.tests += ps.tests
	}
	fmt.Printf("%-28s %8d %8d %6d\n", "total", total.prodLines, total.testLines, total.tests)
	return nil
}

// collectStats adds every .go file under root to the entry for its
// directory. Missing roots are ignored.
func collectStats(root string, byDir map[string]*packageStats) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".go" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		dir := filepath.ToSlash(filepath.Dir(path))
		ps, ok := byDir[dir]
		if !ok {
			ps = &packageStats{}
			byDir[dir] = ps
		}
		lines := nonBlankLines(data)
		if strings.HasSuffix(path, "_test.go") {
			ps.testLines += lines
			ps.tests += bytes.Count(data, []byte("\nfunc Test"))
		} else {
			ps.prodLines += lines
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", root, err)
	}
	return nil
}

func nonBlankLines(data []byte) int {
	n := 0
	for line := range bytes.Lines(data) {
		if len(bytes.TrimSpace(line)) > 0 {
			n++
		}
	}
	return n
}
