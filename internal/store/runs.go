package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fortio.org/safecast"
)

// ErrRunNotFound is returned by LoadRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

// RecordRun inserts run with its functions and diagnostics in one
// transaction and returns the new run id.
func (s *Store) RecordRun(detail *RunDetail) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("record run: begin: %w", err)
	}
	defer tx.Rollback()

	r := detail.Run
	res, err := tx.Exec(
		`INSERT INTO runs (path, hash, started_at, parsed, call_sites, findings, has_errors) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.Path, r.Hash, r.StartedAt.UTC(), r.Parsed, r.CallSites, r.Findings, r.HasErrors,
	)
	if err != nil {
		return 0, fmt.Errorf("record run: insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("record run: last id: %w", err)
	}

	for _, f := range detail.Functions {
		if _, err := tx.Exec(
			`INSERT INTO run_functions (run_id, name, params, calls) VALUES (?, ?, ?, ?)`,
			runID, f.Name, strings.Join(f.Params, ","), f.Calls,
		); err != nil {
			return 0, fmt.Errorf("record run: function %q: %w", f.Name, err)
		}
	}
	for i, d := range detail.Diagnostics {
		var line sql.NullInt64
		if d.Line > 0 {
			line = sql.NullInt64{Int64: int64(d.Line), Valid: true}
		}
		if _, err := tx.Exec(
			`INSERT INTO run_diagnostics (run_id, ordinal, severity, code, line, message) VALUES (?, ?, ?, ?, ?, ?)`,
			runID, i, d.Severity, d.Code, line, d.Message,
		); err != nil {
			return 0, fmt.Errorf("record run: diagnostic %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("record run: commit: %w", err)
	}
	detail.ID = runID
	return runID, nil
}

// ListRuns returns the most recent runs first. limit <= 0 means all.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	query := `SELECT id, path, hash, started_at, parsed, call_sites, findings, has_errors FROM runs ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadRun returns a run with its stored report and findings.
func (s *Store) LoadRun(id int64) (*RunDetail, error) {
	row := s.db.QueryRow(
		`SELECT id, path, hash, started_at, parsed, call_sites, findings, has_errors FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load run %d: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load run %d: %w", id, err)
	}
	detail := &RunDetail{Run: r}

	if detail.Functions, err = s.loadFunctions(id); err != nil {
		return nil, err
	}
	if detail.Diagnostics, err = s.loadDiagnostics(id); err != nil {
		return nil, err
	}
	return detail, nil
}

// DeleteRun removes a run and, through cascading keys, its rows.
func (s *Store) DeleteRun(id int64) error {
	res, err := s.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete run %d: %w", id, ErrRunNotFound)
	}
	return nil
}

func (s *Store) loadFunctions(runID int64) ([]Function, error) {
	rows, err := s.db.Query(`SELECT name, params, calls FROM run_functions WHERE run_id = ? ORDER BY name`, runID)
	if err != nil {
		return nil, fmt.Errorf("load functions: %w", err)
	}
	defer rows.Close()

	var out []Function
	for rows.Next() {
		var (
			f      Function
			params string
			calls  int64
		)
		if err := rows.Scan(&f.Name, &params, &calls); err != nil {
			return nil, fmt.Errorf("load functions: %w", err)
		}
		if f.Calls, err = safecast.Conv[int](calls); err != nil {
			return nil, fmt.Errorf("load functions: calls of %q: %w", f.Name, err)
		}
		f.Params = splitParams(params)
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) loadDiagnostics(runID int64) ([]Diagnostic, error) {
	rows, err := s.db.Query(
		`SELECT severity, code, line, message FROM run_diagnostics WHERE run_id = ? ORDER BY ordinal`, runID)
	if err != nil {
		return nil, fmt.Errorf("load diagnostics: %w", err)
	}
	defer rows.Close()

	var out []Diagnostic
	for rows.Next() {
		var (
			d    Diagnostic
			line sql.NullInt64
		)
		if err := rows.Scan(&d.Severity, &d.Code, &line, &d.Message); err != nil {
			return nil, fmt.Errorf("load diagnostics: %w", err)
		}
		if line.Valid {
			if d.Line, err = safecast.Conv[uint32](line.Int64); err != nil {
				return nil, fmt.Errorf("load diagnostics: line: %w", err)
			}
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r                   Run
		callSites, findings int64
	)
	if err := sc.Scan(&r.ID, &r.Path, &r.Hash, &r.StartedAt, &r.Parsed, &callSites, &findings, &r.HasErrors); err != nil {
		return Run{}, err
	}
	var err error
	if r.CallSites, err = safecast.Conv[int](callSites); err != nil {
		return Run{}, err
	}
	if r.Findings, err = safecast.Conv[int](findings); err != nil {
		return Run{}, err
	}
	return r, nil
}

// splitParams reverses strings.Join; "" is a zero-parameter function.
func splitParams(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}
