package storage

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/codewithboateng/prlint/internal/ir"
)

// ListRuns returns a lightweight list of runs with counts.
func (db *DB) ListRuns(limit, offset int) ([]RunRow, error) {
	const q = `
		SELECT r.id, r.started_at, r.source, r.ir_version,
		       (SELECT COUNT(1) FROM results x WHERE x.run_id = r.id) AS results
		  FROM runs r
		 ORDER BY r.started_at DESC, r.id DESC
		 LIMIT ? OFFSET ?`
	rows, err := db.conn.Query(q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var rr RunRow
		var startedAtStr string
		if err := rows.Scan(&rr.ID, &startedAtStr, &rr.Source, &rr.IRVersion, &rr.Results); err != nil {
			return nil, err
		}
		// Parse RFC3339Nano first, fallback to RFC3339
		if t, err := time.Parse(time.RFC3339Nano, startedAtStr); err == nil {
			rr.StartedAt = t
		} else if t2, err2 := time.Parse(time.RFC3339, startedAtStr); err2 == nil {
			rr.StartedAt = t2
		} else {
			// leave zero time if unparsable (shouldn't happen)
			rr.StartedAt = time.Time{}
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}

// ListResults returns results for a run at or above a minimum severity.
func (db *DB) ListResults(runID string, minSeverity ir.Severity) ([]ir.RuleResult, error) {
	const q = `
		SELECT rule_id, severity, message, filepath, line, col, code_snippet, fixes_json, metadata_json
		  FROM results
		 WHERE run_id = ?
		   AND (CASE severity WHEN 'error' THEN 4 WHEN 'warning' THEN 3 WHEN 'info' THEN 2 ELSE 1 END)
		       >= (CASE ? WHEN 'error' THEN 4 WHEN 'warning' THEN 3 WHEN 'info' THEN 2 ELSE 1 END)
		 ORDER BY
		       (CASE severity WHEN 'error' THEN 4 WHEN 'warning' THEN 3 WHEN 'info' THEN 2 ELSE 1 END) DESC,
		       rule_id, filepath, line, id`
	rows, err := db.conn.Query(q, runID, string(minSeverity))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ir.RuleResult
	for rows.Next() {
		var (
			r           ir.RuleResult
			sev         string
			fixes, meta sql.NullString
		)
		if err := rows.Scan(&r.RuleID, &sev, &r.Message, &r.Filepath, &r.Line, &r.Column, &r.CodeSnippet, &fixes, &meta); err != nil {
			return nil, err
		}
		r.Severity = ir.Severity(sev)
		if fixes.Valid && fixes.String != "" && fixes.String != "null" {
			_ = json.Unmarshal([]byte(fixes.String), &r.FixSuggestions)
		}
		if meta.Valid && meta.String != "" && meta.String != "null" {
			_ = json.Unmarshal([]byte(meta.String), &r.Metadata)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Optional helper used by future endpoints.
func (db *DB) HasRun(id string) (bool, error) {
	const q = `SELECT 1 FROM runs WHERE id = ? LIMIT 1`
	var one int
	err := db.conn.QueryRow(q, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}
