package history

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"docgraph/internal/doc"
)

// Store persists one snapshot per pipeline run. Snapshots carry the
// stable node identifiers, so two runs can be diffed without keeping
// the full JSON output around.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := EnsureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Snapshot summarizes one recorded run.
type Snapshot struct {
	RunID           string
	Timestamp       time.Time
	Entries         []string
	ModuleCount     int
	NodeCount       int
	DiagnosticCount int
}

func (s *Store) Record(runID string, entries []string, moduleCount, diagnosticCount int, nodes []doc.Node) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(
		`INSERT INTO snapshots(run_id, ts_utc, entries, module_count, node_count, diagnostic_count)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, now, strings.Join(entries, "\n"), moduleCount, len(nodes), diagnosticCount,
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert snapshot: %w", err)
	}

	for _, n := range nodes {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO snapshot_nodes(run_id, node_id, module, name, kind)
			 VALUES (?, ?, ?, ?, ?)`,
			runID, n.ID, n.Module, n.Name, n.Kind,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert snapshot node: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Latest returns up to n most recent snapshots, newest first.
func (s *Store) Latest(n int) ([]Snapshot, error) {
	rows, err := s.db.Query(
		`SELECT run_id, ts_utc, entries, module_count, node_count, diagnostic_count
		 FROM snapshots ORDER BY ts_utc DESC, run_id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var ts, entries string
		if err := rows.Scan(&snap.RunID, &ts, &entries, &snap.ModuleCount, &snap.NodeCount, &snap.DiagnosticCount); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.Timestamp, _ = time.Parse(time.RFC3339, ts)
		if entries != "" {
			snap.Entries = strings.Split(entries, "\n")
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// NodeRef identifies one symbol within a snapshot.
type NodeRef struct {
	ID     string
	Module string
	Name   string
	Kind   string
}

func (s *Store) nodeRefs(runID string) (map[string]NodeRef, error) {
	rows, err := s.db.Query(
		`SELECT node_id, module, name, kind FROM snapshot_nodes WHERE run_id = ? ORDER BY node_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query snapshot nodes: %w", err)
	}
	defer rows.Close()

	refs := make(map[string]NodeRef)
	for rows.Next() {
		var ref NodeRef
		if err := rows.Scan(&ref.ID, &ref.Module, &ref.Name, &ref.Kind); err != nil {
			return nil, fmt.Errorf("scan snapshot node: %w", err)
		}
		refs[ref.ID] = ref
	}
	return refs, rows.Err()
}

// Diff compares the two most recent snapshots. Stable identifiers make
// this a plain set difference.
type Diff struct {
	From    string
	To      string
	Added   []NodeRef
	Removed []NodeRef
}

func (s *Store) DiffLatest() (*Diff, error) {
	snaps, err := s.Latest(2)
	if err != nil {
		return nil, err
	}
	if len(snaps) < 2 {
		return nil, fmt.Errorf("need at least two snapshots to diff, have %d", len(snaps))
	}

	newer, older := snaps[0], snaps[1]
	newRefs, err := s.nodeRefs(newer.RunID)
	if err != nil {
		return nil, err
	}
	oldRefs, err := s.nodeRefs(older.RunID)
	if err != nil {
		return nil, err
	}

	d := &Diff{From: older.RunID, To: newer.RunID}
	for id, ref := range newRefs {
		if _, ok := oldRefs[id]; !ok {
			d.Added = append(d.Added, ref)
		}
	}
	for id, ref := range oldRefs {
		if _, ok := newRefs[id]; !ok {
			d.Removed = append(d.Removed, ref)
		}
	}
	sortRefs(d.Added)
	sortRefs(d.Removed)
	return d, nil
}
