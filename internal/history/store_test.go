package history

import (
	"path/filepath"
	"testing"

	"docgraph/internal/doc"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func node(module, name string) doc.Node {
	return doc.Node{
		ID:     doc.StableID(module, name, "function"),
		Kind:   "function",
		Name:   name,
		Module: module,
	}
}

func TestRecordAndLatest(t *testing.T) {
	s := openStore(t)

	err := s.Record("run-1", []string{"/a.ts"}, 3, 1, []doc.Node{node("/a.ts", "x"), node("/a.ts", "y")})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	snaps, err := s.Latest(5)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(snaps))
	}
	snap := snaps[0]
	if snap.RunID != "run-1" || snap.ModuleCount != 3 || snap.NodeCount != 2 || snap.DiagnosticCount != 1 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if len(snap.Entries) != 1 || snap.Entries[0] != "/a.ts" {
		t.Errorf("unexpected entries: %v", snap.Entries)
	}
}

func TestDiffLatest(t *testing.T) {
	s := openStore(t)

	if err := s.Record("run-1", []string{"/a.ts"}, 2, 0, []doc.Node{node("/a.ts", "kept"), node("/a.ts", "removed")}); err != nil {
		t.Fatal(err)
	}
	if err := s.Record("run-2", []string{"/a.ts"}, 2, 0, []doc.Node{node("/a.ts", "kept"), node("/a.ts", "added")}); err != nil {
		t.Fatal(err)
	}

	d, err := s.DiffLatest()
	if err != nil {
		t.Fatalf("DiffLatest: %v", err)
	}
	if d.From != "run-1" || d.To != "run-2" {
		t.Errorf("unexpected run pair: %s -> %s", d.From, d.To)
	}
	if len(d.Added) != 1 || d.Added[0].Name != "added" {
		t.Errorf("unexpected added set: %+v", d.Added)
	}
	if len(d.Removed) != 1 || d.Removed[0].Name != "removed" {
		t.Errorf("unexpected removed set: %+v", d.Removed)
	}
}

func TestDiffLatestNeedsTwoRuns(t *testing.T) {
	s := openStore(t)
	if err := s.Record("run-1", []string{"/a.ts"}, 1, 0, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := s.DiffLatest(); err == nil {
		t.Error("expected an error with a single snapshot")
	}
}

func TestSchemaIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := first.Record("run-1", []string{"/a.ts"}, 1, 0, nil); err != nil {
		t.Fatal(err)
	}
	first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	snaps, err := second.Latest(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 1 || snaps[0].RunID != "run-1" {
		t.Errorf("snapshot lost across reopen: %+v", snaps)
	}
}
