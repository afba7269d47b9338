// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store keeps computed snapshots in a SQLite index so experiments
// can be searched by title and compared across export dates.
//
// Each ingested snapshot is keyed by its as-of instant. Experiment rows
// carry the reconciled claim fields plus the per-experiment metric values
// (days to claim, days to first result, contributors, linked results).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/discourse-metrics/internal/pipeline"
	"github.com/pdiddy/discourse-metrics/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "metrics.db"
)

// Store manages the metrics SQLite database.
type Store struct {
	db         *sql.DB
	storeDir   string
	maxResults int
}

// NewStore opens or creates the database at storeDir/index/metrics.db and
// creates the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.StoreDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dbDir, dbFile)+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = types.DefaultMaxResults
	}
	s := &Store{db: db, storeDir: cfg.StoreDir, maxResults: maxResults}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			semantic_source TEXT,
			blocktree_source TEXT,
			experiments INTEGER,
			issues INTEGER,
			results INTEGER,
			conversion_rate REAL
		)`,
		`CREATE TABLE IF NOT EXISTS experiments (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
			id TEXT NOT NULL,
			title TEXT NOT NULL,
			creator TEXT,
			claimed_by TEXT,
			claim_type TEXT NOT NULL,
			issue_created_by TEXT,
			primary_contributor TEXT,
			status TEXT,
			page_created TEXT,
			claimed_at TEXT,
			log_entries INTEGER,
			contributors TEXT,
			linked_results INTEGER,
			days_to_claim INTEGER,
			days_to_first_result INTEGER,
			UNIQUE(snapshot_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_experiments_snapshot ON experiments(snapshot_id)`,
		`CREATE INDEX IF NOT EXISTS idx_experiments_claim_type ON experiments(claim_type)`,
		`CREATE TABLE IF NOT EXISTS ingest_status (
			path TEXT PRIMARY KEY,
			file_mod_time TEXT,
			snapshot_id TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='experiments_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		return nil
	}

	ftsStatements := []string{
		`CREATE VIRTUAL TABLE experiments_fts USING fts5(title, status, content=experiments, content_rowid=rowid)`,
		`CREATE TRIGGER experiments_ai AFTER INSERT ON experiments BEGIN
			INSERT INTO experiments_fts(rowid, title, status) VALUES (new.rowid, new.title, new.status);
		END`,
		`CREATE TRIGGER experiments_ad AFTER DELETE ON experiments BEGIN
			INSERT INTO experiments_fts(experiments_fts, rowid, title, status) VALUES('delete', old.rowid, old.title, old.status);
		END`,
		`CREATE TRIGGER experiments_au AFTER UPDATE ON experiments BEGIN
			INSERT INTO experiments_fts(experiments_fts, rowid, title, status) VALUES('delete', old.rowid, old.title, old.status);
			INSERT INTO experiments_fts(rowid, title, status) VALUES (new.rowid, new.title, new.status);
		END`,
	}
	for _, stmt := range ftsStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	return nil
}

// IngestSummary holds counts from one ingest run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of snapshot files processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest loads snapshot files written by the metrics command. Files whose
// modification time is unchanged since the last run are skipped; changed
// files replace the rows of the snapshot they produced before. Progress
// lines go to w. On success export.yaml is rewritten.
func (s *Store) Ingest(ctx context.Context, paths []string, w io.Writer) (IngestSummary, error) {
	var summary IngestSummary

	for _, path := range paths {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		info, err := os.Stat(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime, storedID string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time, snapshot_id FROM ingest_status WHERE path = ?`, path,
		).Scan(&storedModTime, &storedID)
		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", path)
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		snap, err := pipeline.ReadSnapshot(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			summary.Failed++
			continue
		}

		if err := s.ingestSnapshot(ctx, path, modTime, storedID, snap); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%s, %d experiments)\n", path, SnapshotID(snap), len(snap.Experiments))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%s, %d experiments)\n", path, SnapshotID(snap), len(snap.Experiments))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	if summary.Indexed > 0 || summary.Updated > 0 {
		if _, err := s.ExportYAML(ctx, QueryOptions{}); err != nil {
			fmt.Fprintf(w, "warning: export.yaml write failed: %v\n", err)
		}
	}
	return summary, nil
}

// SnapshotID is the key a snapshot is stored under: its as-of instant in
// RFC 3339 UTC.
func SnapshotID(snap *types.Snapshot) string {
	return snap.Generated.UTC().Format(time.RFC3339)
}

// experimentMetrics gathers the per-experiment metric values by title.
// The first detail row for a title wins.
type experimentMetrics struct {
	contributors      map[string][]string
	daysToClaim       map[string]int
	daysToFirstResult map[string]int
	linked            map[string]int
}

func collectMetrics(snap *types.Snapshot) experimentMetrics {
	m := experimentMetrics{
		contributors:      make(map[string][]string),
		daysToClaim:       make(map[string]int),
		daysToFirstResult: make(map[string]int),
		linked:            make(map[string]int),
	}
	for _, d := range snap.Metrics.UniqueContributors.Details {
		if _, ok := m.contributors[d.Title]; !ok {
			m.contributors[d.Title] = d.Contributors
		}
	}
	for _, d := range snap.Metrics.TimeToClaim.Details {
		if _, ok := m.daysToClaim[d.Title]; !ok {
			m.daysToClaim[d.Title] = d.DaysToClaim
		}
	}
	for _, d := range snap.Metrics.TimeToFirstResult.Details {
		if _, ok := m.daysToFirstResult[d.ExperimentTitle]; !ok {
			m.daysToFirstResult[d.ExperimentTitle] = d.DaysToFirstResult
		}
	}
	for _, l := range snap.Links {
		m.linked[l.ExperimentID] += len(l.Results)
	}
	return m
}

func (s *Store) ingestSnapshot(ctx context.Context, path, modTime, previousID string, snap *types.Snapshot) error {
	id := SnapshotID(snap)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, old := range []string{previousID, id} {
		if old == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM experiments WHERE snapshot_id = ?`, old); err != nil {
			return fmt.Errorf("deleting old experiments: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, semantic_source, blocktree_source, experiments, issues, results, conversion_rate)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			semantic_source=excluded.semantic_source, blocktree_source=excluded.blocktree_source,
			experiments=excluded.experiments, issues=excluded.issues, results=excluded.results,
			conversion_rate=excluded.conversion_rate`,
		id, snap.DataSources.Semantic, snap.DataSources.BlockTree,
		len(snap.Experiments), len(snap.Issues), len(snap.Results),
		snap.Metrics.ConversionRate.ConversionRatePercent,
	)
	if err != nil {
		return fmt.Errorf("upserting snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO experiments (snapshot_id, id, title, creator, claimed_by, claim_type,
			issue_created_by, primary_contributor, status, page_created, claimed_at, log_entries,
			contributors, linked_results, days_to_claim, days_to_first_result)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	m := collectMetrics(snap)
	for _, e := range snap.Experiments {
		contributors := m.contributors[e.Title]
		if contributors == nil {
			contributors = []string{}
		}
		contributorsJSON, err := json.Marshal(contributors)
		if err != nil {
			return fmt.Errorf("encoding contributors of %s: %w", e.ID, err)
		}
		_, err = stmt.ExecContext(ctx,
			id, e.ID, e.Title, e.Creator, e.ClaimedBy, string(e.ClaimType),
			e.IssueCreatedBy, e.PrimaryContributor, e.Status,
			timeValue(e.PageCreated), timeValue(e.ClaimedAt), e.LogEntryCount,
			string(contributorsJSON), m.linked[e.ID],
			intValue(m.daysToClaim, e.Title), intValue(m.daysToFirstResult, e.Title),
		)
		if err != nil {
			return fmt.Errorf("inserting experiment %s: %w", e.ID, err)
		}
	}

	if previousID != "" && previousID != id {
		if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, previousID); err != nil {
			return fmt.Errorf("deleting old snapshot: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ingest_status (path, file_mod_time, snapshot_id) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET file_mod_time=excluded.file_mod_time, snapshot_id=excluded.snapshot_id`,
		path, modTime, id,
	)
	if err != nil {
		return fmt.Errorf("updating ingest status: %w", err)
	}

	return tx.Commit()
}

func timeValue(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func intValue(m map[string]int, key string) sql.NullInt64 {
	v, ok := m[key]
	if !ok {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(v), Valid: true}
}
