package graph

import (
	"context"
	"testing"

	"docgraph/internal/diag"
	"docgraph/internal/parser"
	"docgraph/internal/source"
)

func buildFrom(t *testing.T, modules map[string]string, entries []string, exclude []string) (*Graph, []diag.Diagnostic) {
	t.Helper()
	b, err := NewBuilder(source.NewMemoryLoader(modules), parser.NewParser(parser.NewGrammarLoader()), exclude)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	g, diags, err := b.Build(context.Background(), entries)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g, diags
}

func TestBuildDiscoversClosure(t *testing.T) {
	g, diags := buildFrom(t, map[string]string{
		"/a.ts": `import { b } from "./b.ts"; export const a = 1;`,
		"/b.ts": `export * from "./c.ts"; export const b = 2;`,
		"/c.ts": `export const c = 3;`,
	}, []string{"/a.ts"}, nil)

	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if g.ModuleCount() != 3 {
		t.Fatalf("expected 3 modules, got %d", g.ModuleCount())
	}

	b, ok := g.Module("/b.ts")
	if !ok {
		t.Fatal("missing /b.ts")
	}
	// Re-export specifiers are rewritten to canonical form during
	// discovery.
	if len(b.Exports) == 0 || b.Exports[0].From != "/c.ts" {
		t.Errorf("expected canonical re-export specifier, got %+v", b.Exports)
	}
}

func TestBuildStubsMissingModule(t *testing.T) {
	g, diags := buildFrom(t, map[string]string{
		"/a.ts": `import { gone } from "./missing.ts"; export const a = 1;`,
	}, []string{"/a.ts"}, nil)

	if g.ModuleCount() != 2 {
		t.Fatalf("expected 2 modules, got %d", g.ModuleCount())
	}
	missing, ok := g.Module("/missing.ts")
	if !ok || !missing.Stub {
		t.Fatalf("expected stub for /missing.ts, got %+v", missing)
	}

	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d: %v", len(diags), diags)
	}
	if diags[0].Kind != diag.KindLoadFailed || diags[0].Module != "/missing.ts" {
		t.Errorf("unexpected diagnostic: %+v", diags[0])
	}
}

func TestBuildStubsUnparsableModule(t *testing.T) {
	g, diags := buildFrom(t, map[string]string{
		"/a.ts": `import "./bad.ts"; export const a = 1;`,
		"/bad.ts": `export function (((`,
	}, []string{"/a.ts"}, nil)

	bad, ok := g.Module("/bad.ts")
	if !ok || !bad.Stub {
		t.Fatalf("expected stub for /bad.ts, got %+v", bad)
	}
	if len(diags) != 1 || diags[0].Kind != diag.KindParseFailed {
		t.Fatalf("expected one ParseFailed diagnostic, got %v", diags)
	}
}

func TestBuildExcludesBySpecifierGlob(t *testing.T) {
	g, diags := buildFrom(t, map[string]string{
		"/a.ts":      `import "./vendor/dep.ts"; export const a = 1;`,
		"/vendor/dep.ts": `export const dep = 1;`,
	}, []string{"/a.ts"}, []string{"/vendor/*"})

	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	dep, ok := g.Module("/vendor/dep.ts")
	if !ok || !dep.Stub {
		t.Fatalf("expected excluded module to be stubbed, got %+v", dep)
	}
}

func TestBuildCyclicImports(t *testing.T) {
	g, diags := buildFrom(t, map[string]string{
		"/a.ts": `import "./b.ts"; export const a = 1;`,
		"/b.ts": `import "./a.ts"; export const b = 2;`,
	}, []string{"/a.ts"}, nil)

	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if g.ModuleCount() != 2 {
		t.Fatalf("expected 2 modules, got %d", g.ModuleCount())
	}
	cycles := g.Cycles()
	if len(cycles) != 1 || len(cycles[0]) != 2 {
		t.Fatalf("expected one two-module cycle, got %v", cycles)
	}
}

func TestBuildDeterministicDiagnosticOrder(t *testing.T) {
	modules := map[string]string{
		"/a.ts": `import "./x.ts"; import "./y.ts"; export const a = 1;`,
	}
	_, first := buildFrom(t, modules, []string{"/a.ts"}, nil)
	for i := 0; i < 10; i++ {
		_, again := buildFrom(t, modules, []string{"/a.ts"}, nil)
		if len(again) != len(first) {
			t.Fatalf("run %d: diagnostic count changed", i)
		}
		for j := range again {
			if again[j] != first[j] {
				t.Fatalf("run %d: diagnostic order changed: %v vs %v", i, again, first)
			}
		}
	}
}
