package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// binPath is the CLI built by Build.
var binPath = filepath.Join(binDir, binName)

// pipelineEnv forwards the export locations to the CLI. DISCOURSE_METRICS_*
// variables already in the environment take effect on their own; SEMANTIC
// and BLOCKTREE are shorthands for local runs.
func pipelineEnv() map[string]string {
	env := map[string]string{}
	if v := os.Getenv("SEMANTIC"); v != "" {
		env["DISCOURSE_METRICS_SEMANTIC_PATH"] = v
	}
	if v := os.Getenv("BLOCKTREE"); v != "" {
		env["DISCOURSE_METRICS_BLOCKTREE_PATH"] = v
	}
	return env
}

// Metrics builds the CLI and computes a snapshot from SEMANTIC and BLOCKTREE.
func Metrics() error {
	mg.Deps(Build)
	return sh.RunWithV(pipelineEnv(), binPath, "metrics")
}

// Report builds the CLI and writes figures, the report, and evidence bundles.
func Report() error {
	mg.Deps(Build)
	return sh.RunWithV(pipelineEnv(), binPath, "report")
}

// Index loads the latest snapshot into the SQLite store.
func Index() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "store", "ingest")
}
