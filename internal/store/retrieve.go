// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/pdiddy/discourse-metrics/pkg/types"
)

// QueryOptions holds parameters for store queries.
type QueryOptions struct {
	// Query is an FTS5 search over experiment titles and status text.
	Query string

	// ClaimType filters by how the claim was established.
	ClaimType types.ClaimType

	// Contributor keeps experiments whose contributor set includes this person.
	Contributor string

	// Snapshot restricts results to one snapshot id.
	Snapshot string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.ClaimType == "" && q.Contributor == "" && q.Snapshot == ""
}

// QueryResult is one experiment row of one snapshot.
type QueryResult struct {
	SnapshotID         string          `json:"snapshot" yaml:"snapshot"`
	ID                 string          `json:"id" yaml:"id"`
	Title              string          `json:"title" yaml:"title"`
	Creator            string          `json:"creator,omitempty" yaml:"creator,omitempty"`
	ClaimedBy          string          `json:"claimed_by,omitempty" yaml:"claimed_by,omitempty"`
	ClaimType          types.ClaimType `json:"claim_type" yaml:"claim_type"`
	IssueCreatedBy     string          `json:"issue_created_by,omitempty" yaml:"issue_created_by,omitempty"`
	PrimaryContributor string          `json:"primary_contributor,omitempty" yaml:"primary_contributor,omitempty"`
	Status             string          `json:"status,omitempty" yaml:"status,omitempty"`
	PageCreated        *time.Time      `json:"page_created,omitempty" yaml:"page_created,omitempty"`
	ClaimedAt          *time.Time      `json:"claimed_at,omitempty" yaml:"claimed_at,omitempty"`
	LogEntries         int             `json:"log_entries" yaml:"log_entries"`
	Contributors       []string        `json:"contributors" yaml:"contributors"`
	LinkedResults      int             `json:"linked_results" yaml:"linked_results"`
	DaysToClaim        *int            `json:"days_to_claim,omitempty" yaml:"days_to_claim,omitempty"`
	DaysToFirstResult  *int            `json:"days_to_first_result,omitempty" yaml:"days_to_first_result,omitempty"`
}

const experimentColumns = `e.snapshot_id, e.id, e.title, e.creator, e.claimed_by, e.claim_type,
	e.issue_created_by, e.primary_contributor, e.status, e.page_created, e.claimed_at,
	e.log_entries, e.contributors, e.linked_results, e.days_to_claim, e.days_to_first_result`

// Retrieve queries the store with optional full-text search and filters.
// Full-text results are ranked by relevance; filter-only results are
// sorted by snapshot, page creation, then title.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(`SELECT ` + experimentColumns + `
			FROM experiments_fts
			JOIN experiments e ON e.rowid = experiments_fts.rowid
			WHERE experiments_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(`SELECT ` + experimentColumns + `
			FROM experiments e
			WHERE 1=1`)
	}

	if opts.ClaimType != "" {
		qb.WriteString(` AND e.claim_type = ?`)
		args = append(args, string(opts.ClaimType))
	}
	if opts.Snapshot != "" {
		qb.WriteString(` AND e.snapshot_id = ?`)
		args = append(args, opts.Snapshot)
	}
	if opts.Contributor != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(e.contributors) WHERE value = ?)`)
		args = append(args, opts.Contributor)
	}

	if useFTS {
		qb.WriteString(` ORDER BY experiments_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY e.snapshot_id, e.page_created IS NULL, e.page_created, e.title`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying store: %w", err)
	}
	defer rows.Close()
	return scanExperiments(rows)
}

// History returns every stored row of the experiment with the given title,
// oldest snapshot first.
func (s *Store) History(ctx context.Context, title string) ([]QueryResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+experimentColumns+` FROM experiments e WHERE e.title = ? ORDER BY e.snapshot_id`, title)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	results, err := scanExperiments(rows)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("experiment %q not found", title)
	}
	return results, nil
}

// SnapshotInfo summarizes one stored snapshot.
type SnapshotInfo struct {
	ID              string  `json:"id" yaml:"id"`
	SemanticSource  string  `json:"semantic_source" yaml:"semantic_source"`
	BlockTreeSource string  `json:"blocktree_source" yaml:"blocktree_source"`
	Experiments     int     `json:"experiments" yaml:"experiments"`
	Issues          int     `json:"issues" yaml:"issues"`
	Results         int     `json:"results" yaml:"results"`
	ConversionRate  float64 `json:"conversion_rate_percent" yaml:"conversion_rate_percent"`
}

// Snapshots lists stored snapshots, oldest first.
func (s *Store) Snapshots(ctx context.Context) ([]SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, semantic_source, blocktree_source, experiments, issues, results, conversion_rate
		 FROM snapshots ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotInfo
	for rows.Next() {
		var (
			si                  SnapshotInfo
			semantic, blocktree sql.NullString
		)
		if err := rows.Scan(&si.ID, &semantic, &blocktree, &si.Experiments, &si.Issues, &si.Results, &si.ConversionRate); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		si.SemanticSource = semantic.String
		si.BlockTreeSource = blocktree.String
		out = append(out, si)
	}
	return out, rows.Err()
}

func scanExperiments(rows *sql.Rows) ([]QueryResult, error) {
	var results []QueryResult
	for rows.Next() {
		var (
			qr                                 QueryResult
			claimType                          string
			creator, claimedBy, issueCreatedBy sql.NullString
			primary, status                    sql.NullString
			pageCreated, claimedAt             sql.NullString
			contributorsJSON                   sql.NullString
			logEntries, linked                 sql.NullInt64
			daysToClaim, daysToFirstResult     sql.NullInt64
		)
		if err := rows.Scan(
			&qr.SnapshotID, &qr.ID, &qr.Title, &creator, &claimedBy, &claimType,
			&issueCreatedBy, &primary, &status, &pageCreated, &claimedAt,
			&logEntries, &contributorsJSON, &linked, &daysToClaim, &daysToFirstResult,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		qr.ClaimType = types.ClaimType(claimType)
		qr.Creator = creator.String
		qr.ClaimedBy = claimedBy.String
		qr.IssueCreatedBy = issueCreatedBy.String
		qr.PrimaryContributor = primary.String
		qr.Status = status.String
		qr.PageCreated = parseTime(pageCreated)
		qr.ClaimedAt = parseTime(claimedAt)
		qr.LogEntries = int(logEntries.Int64)
		qr.LinkedResults = int(linked.Int64)
		qr.DaysToClaim = intPtr(daysToClaim)
		qr.DaysToFirstResult = intPtr(daysToFirstResult)
		if contributorsJSON.Valid {
			json.Unmarshal([]byte(contributorsJSON.String), &qr.Contributors)
		}

		results = append(results, qr)
	}
	return results, rows.Err()
}

func parseTime(v sql.NullString) *time.Time {
	if !v.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339, v.String)
	if err != nil {
		return nil
	}
	return &t
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
