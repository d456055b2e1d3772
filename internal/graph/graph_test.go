package graph

import (
	"testing"

	"docgraph/internal/parser"
)

func mod(spec string) *parser.Module {
	return &parser.Module{Specifier: spec}
}

func TestGraphAddAndLookup(t *testing.T) {
	g := New([]string{"/a.ts"})
	g.Add(mod("/a.ts"), []string{"/b.ts"})
	g.Add(mod("/b.ts"), nil)

	if g.ModuleCount() != 2 {
		t.Errorf("expected 2 modules, got %d", g.ModuleCount())
	}
	if g.EdgeCount() != 1 {
		t.Errorf("expected 1 edge, got %d", g.EdgeCount())
	}
	if _, ok := g.Module("/a.ts"); !ok {
		t.Error("expected /a.ts to be present")
	}
	if deps := g.Dependencies("/a.ts"); len(deps) != 1 || deps[0] != "/b.ts" {
		t.Errorf("unexpected dependencies: %v", deps)
	}

	specs := g.Specifiers()
	if len(specs) != 2 || specs[0] != "/a.ts" || specs[1] != "/b.ts" {
		t.Errorf("unexpected specifier order: %v", specs)
	}
}

func TestGraphCycles(t *testing.T) {
	g := New([]string{"/a.ts"})

	// a -> b -> c -> a, plus d with a self-loop, plus acyclic e
	g.Add(mod("/a.ts"), []string{"/b.ts"})
	g.Add(mod("/b.ts"), []string{"/c.ts"})
	g.Add(mod("/c.ts"), []string{"/a.ts"})
	g.Add(mod("/d.ts"), []string{"/d.ts"})
	g.Add(mod("/e.ts"), []string{"/a.ts"})

	cycles := g.Cycles()
	if len(cycles) != 2 {
		t.Fatalf("expected 2 cycles, got %d: %v", len(cycles), cycles)
	}
	if len(cycles[0]) != 3 || cycles[0][0] != "/a.ts" {
		t.Errorf("unexpected first cycle: %v", cycles[0])
	}
	if len(cycles[1]) != 1 || cycles[1][0] != "/d.ts" {
		t.Errorf("unexpected self-loop cycle: %v", cycles[1])
	}
}

func TestGraphCyclesNoneForDAG(t *testing.T) {
	g := New([]string{"/a.ts"})
	g.Add(mod("/a.ts"), []string{"/b.ts", "/c.ts"})
	g.Add(mod("/b.ts"), []string{"/c.ts"})
	g.Add(mod("/c.ts"), nil)

	if cycles := g.Cycles(); len(cycles) != 0 {
		t.Errorf("expected no cycles, got %v", cycles)
	}
}

func TestCycleDiagnostics(t *testing.T) {
	g := New([]string{"/a.ts"})
	g.Add(mod("/a.ts"), []string{"/b.ts"})
	g.Add(mod("/b.ts"), []string{"/a.ts"})

	diags := CycleDiagnostics(g)
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(diags))
	}
	d := diags[0]
	if d.Severity != "info" {
		t.Errorf("cycle severity = %q, want info", d.Severity)
	}
	if d.Detail != "module cycle: /a.ts -> /b.ts" {
		t.Errorf("unexpected detail: %q", d.Detail)
	}
}
