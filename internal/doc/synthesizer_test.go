package doc

import (
	"reflect"
	"testing"

	"docgraph/internal/comment"
	"docgraph/internal/graph"
	"docgraph/internal/parser"
	"docgraph/internal/resolver"
)

func synthesize(t *testing.T, includeAll bool, entries []string, mods ...*parser.Module) []Node {
	t.Helper()
	g := graph.New(entries)
	for _, m := range mods {
		g.Add(m, nil)
	}
	tables, _ := resolver.NewResolver(g).Resolve()
	nodes, _ := NewSynthesizer(g, tables, includeAll).Synthesize()
	return nodes
}

func TestStableIDDeterministic(t *testing.T) {
	a := StableID("/m.ts", "greet", "function")
	b := StableID("/m.ts", "greet", "function")
	if a != b {
		t.Errorf("same inputs produced different ids: %s vs %s", a, b)
	}
	if len(a) != 24 {
		t.Errorf("unexpected id length: %d", len(a))
	}
	if StableID("/m.ts", "greet", "class") == a {
		t.Error("kind must participate in the id")
	}
	if StableID("/other.ts", "greet", "function") == a {
		t.Error("module must participate in the id")
	}
}

func TestOverloadsWithoutImplementationMarker(t *testing.T) {
	mod := &parser.Module{
		Specifier: "/m.ts",
		Decls: []parser.Decl{
			{Name: "pick", Kind: parser.KindFunction, Exported: true, Signature: "function pick(v: string): string", Loc: parser.Location{File: "/m.ts", Line: 1}},
			{Name: "pick", Kind: parser.KindFunction, Exported: true, Signature: "function pick(v: number): number", Loc: parser.Location{File: "/m.ts", Line: 2}},
		},
	}

	nodes := synthesize(t, false, []string{"/m.ts"}, mod)
	if len(nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(nodes))
	}
	n := nodes[0]
	if len(n.Signatures) != 2 {
		t.Errorf("expected both signatures, got %v", n.Signatures)
	}
	if n.ImplementationIndex != nil {
		t.Errorf("no part has a body; implementation index must be absent, got %d", *n.ImplementationIndex)
	}
}

func TestOverloadsWithImplementationMarker(t *testing.T) {
	mod := &parser.Module{
		Specifier: "/m.ts",
		Decls: []parser.Decl{
			{Name: "pick", Kind: parser.KindFunction, Exported: true, Loc: parser.Location{File: "/m.ts", Line: 1}},
			{Name: "pick", Kind: parser.KindFunction, Exported: true, HasBody: true, ReturnType: "unknown", Loc: parser.Location{File: "/m.ts", Line: 2}},
		},
	}

	nodes := synthesize(t, false, []string{"/m.ts"}, mod)
	n := nodes[0]
	if n.ImplementationIndex == nil || *n.ImplementationIndex != 1 {
		t.Fatalf("expected implementation index 1, got %v", n.ImplementationIndex)
	}
	if n.ReturnType != "unknown" {
		t.Errorf("expected canonical return type, got %q", n.ReturnType)
	}
}

func TestInterfaceAugmentationShadowsMember(t *testing.T) {
	mod := &parser.Module{
		Specifier: "/m.ts",
		Decls: []parser.Decl{
			{
				Name: "Logger", Kind: parser.KindInterface, Exported: true,
				Members: []parser.Member{
					{Name: "name", Signature: "name: string"},
					{Name: "log", Signature: "log(msg: string): void"},
				},
				Loc: parser.Location{File: "/m.ts", Line: 1},
			},
			{
				Name: "Logger", Kind: parser.KindInterface, Exported: true,
				Members: []parser.Member{
					{Name: "log", Signature: "log(msg: string, level: number): void"},
				},
				Loc: parser.Location{File: "/m.ts", Line: 10},
			},
		},
	}

	nodes := synthesize(t, false, []string{"/m.ts"}, mod)
	if len(nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(nodes))
	}
	n := nodes[0]
	if len(n.Members) != 2 {
		t.Fatalf("expected 2 members after augmentation, got %d: %+v", len(n.Members), n.Members)
	}
	log := n.Members[1]
	if log.Name != "log" || !log.Shadowed {
		t.Errorf("expected the later log member to shadow, got %+v", log)
	}
	if log.Signature != "log(msg: string, level: number): void" {
		t.Errorf("expected the later signature to win, got %q", log.Signature)
	}
	if len(n.Locations) != 2 {
		t.Errorf("expected both augmentation sites, got %v", n.Locations)
	}
}

func TestDeprecationPropagatesFromAnyPart(t *testing.T) {
	mod := &parser.Module{
		Specifier: "/m.ts",
		Decls: []parser.Decl{
			{Name: "old", Kind: parser.KindFunction, Exported: true, Loc: parser.Location{File: "/m.ts", Line: 1}},
			{
				Name: "old", Kind: parser.KindFunction, Exported: true, HasBody: true,
				Doc: comment.Doc{Summary: "Old api.", Deprecated: true, DeprecationReason: "use fresh instead"},
				Loc: parser.Location{File: "/m.ts", Line: 2},
			},
		},
	}

	nodes := synthesize(t, false, []string{"/m.ts"}, mod)
	n := nodes[0]
	if !n.Deprecated {
		t.Error("expected deprecation to propagate to the merged node")
	}
	if len(n.DeprecationReasons) != 1 || n.DeprecationReasons[0] != "use fresh instead" {
		t.Errorf("unexpected reasons: %v", n.DeprecationReasons)
	}
}

func TestInternalHiddenUnlessIncludeAll(t *testing.T) {
	mod := &parser.Module{
		Specifier: "/m.ts",
		Decls: []parser.Decl{
			{
				Name: "secret", Kind: parser.KindFunction, Exported: true, HasBody: true,
				Doc: comment.Doc{Summary: "Not for consumers.", Internal: true},
				Loc: parser.Location{File: "/m.ts", Line: 1},
			},
		},
	}

	if nodes := synthesize(t, false, []string{"/m.ts"}, mod); len(nodes) != 0 {
		t.Errorf("internal symbol must be hidden, got %+v", nodes)
	}
	if nodes := synthesize(t, true, []string{"/m.ts"}, mod); len(nodes) != 1 {
		t.Errorf("includeAll must surface internal symbols, got %d nodes", len(nodes))
	}
}

func TestPrivateDeclarationsUnderIncludeAll(t *testing.T) {
	mod := &parser.Module{
		Specifier: "/m.ts",
		Decls: []parser.Decl{
			{Name: "pub", Kind: parser.KindVariable, Exported: true, Loc: parser.Location{File: "/m.ts", Line: 1}},
			{Name: "priv", Kind: parser.KindVariable, Loc: parser.Location{File: "/m.ts", Line: 2}},
		},
	}

	if nodes := synthesize(t, false, []string{"/m.ts"}, mod); len(nodes) != 1 {
		t.Fatalf("expected only the exported node, got %d", len(nodes))
	}
	nodes := synthesize(t, true, []string{"/m.ts"}, mod)
	if len(nodes) != 2 {
		t.Fatalf("expected exported and private nodes, got %d", len(nodes))
	}
}

func TestModuleDocNode(t *testing.T) {
	mod := &parser.Module{
		Specifier: "/m.ts",
		Doc:       comment.Doc{Summary: "Helpers for everything."},
		Decls: []parser.Decl{
			{Name: "x", Kind: parser.KindVariable, Exported: true, Loc: parser.Location{File: "/m.ts", Line: 3}},
		},
	}

	nodes := synthesize(t, false, []string{"/m.ts"}, mod)
	if len(nodes) != 2 {
		t.Fatalf("expected module doc plus symbol, got %d", len(nodes))
	}
	if nodes[0].Kind != "moduleDoc" || nodes[0].Doc.Summary != "Helpers for everything." {
		t.Errorf("unexpected first node: %+v", nodes[0])
	}
}

func TestNamespaceReexportCarriesTargetSurface(t *testing.T) {
	entry := &parser.Module{
		Specifier: "/m.ts",
		Exports: []parser.ExportDirective{
			{Kind: parser.ExportNamespace, ExportedName: "util", From: "/util.ts"},
		},
	}
	util := &parser.Module{
		Specifier: "/util.ts",
		Doc:       comment.Doc{Summary: "Shared helpers."},
		Decls: []parser.Decl{
			{Name: "clamp", Kind: parser.KindFunction, Exported: true, HasBody: true, Loc: parser.Location{File: "/util.ts", Line: 2}},
		},
	}

	nodes := synthesize(t, false, []string{"/m.ts"}, entry, util)
	if len(nodes) != 1 {
		t.Fatalf("expected the namespace node only, got %d: %+v", len(nodes), nodes)
	}
	ns := nodes[0]
	if ns.Kind != "namespace" || ns.Name != "util" {
		t.Fatalf("unexpected node: %+v", ns)
	}
	if ns.Doc.Summary != "Shared helpers." {
		t.Errorf("namespace doc should come from the target module, got %q", ns.Doc.Summary)
	}
	if len(ns.Children) != 1 || ns.Children[0].Name != "clamp" {
		t.Errorf("unexpected children: %+v", ns.Children)
	}
}

func TestNamespaceAliasesShareTargetSurface(t *testing.T) {
	// export * as a from "./util.ts"; export * as b from "./util.ts"
	entry := &parser.Module{
		Specifier: "/m.ts",
		Exports: []parser.ExportDirective{
			{Kind: parser.ExportNamespace, ExportedName: "a", From: "/util.ts"},
			{Kind: parser.ExportNamespace, ExportedName: "b", From: "/util.ts"},
		},
	}
	util := &parser.Module{
		Specifier: "/util.ts",
		Decls: []parser.Decl{
			{Name: "clamp", Kind: parser.KindFunction, Exported: true, HasBody: true, Loc: parser.Location{File: "/util.ts", Line: 1}},
		},
	}

	nodes := synthesize(t, false, []string{"/m.ts"}, entry, util)
	if len(nodes) != 2 {
		t.Fatalf("expected both alias nodes, got %d: %+v", len(nodes), nodes)
	}
	for _, n := range nodes {
		if n.Kind != "namespace" {
			t.Fatalf("unexpected node: %+v", n)
		}
		if len(n.Children) != 1 || n.Children[0].Name != "clamp" {
			t.Errorf("namespace %q children = %+v, want the target surface", n.Name, n.Children)
		}
	}
}

func TestCyclicNamespaceAliasesTerminate(t *testing.T) {
	a := &parser.Module{
		Specifier: "/a.ts",
		Exports: []parser.ExportDirective{
			{Kind: parser.ExportNamespace, ExportedName: "bee", From: "/b.ts"},
		},
	}
	b := &parser.Module{
		Specifier: "/b.ts",
		Decls: []parser.Decl{
			{Name: "x", Kind: parser.KindVariable, Exported: true, Loc: parser.Location{File: "/b.ts", Line: 1}},
		},
		Exports: []parser.ExportDirective{
			{Kind: parser.ExportNamespace, ExportedName: "aye", From: "/a.ts"},
		},
	}

	nodes := synthesize(t, false, []string{"/a.ts"}, a, b)
	if len(nodes) != 1 || nodes[0].Name != "bee" {
		t.Fatalf("unexpected nodes: %+v", nodes)
	}
	// The target's surface still carries its own declarations; only
	// the back-edge stops recursing.
	names := make(map[string]bool)
	for _, c := range nodes[0].Children {
		names[c.Name] = true
	}
	if !names["x"] {
		t.Errorf("expected the target's declaration among children, got %+v", nodes[0].Children)
	}
}

func TestNamespaceReopeningMergesChildren(t *testing.T) {
	mod := &parser.Module{
		Specifier: "/m.ts",
		Decls: []parser.Decl{
			{
				Name: "shapes", Kind: parser.KindNamespace, Exported: true,
				Children: []parser.Decl{
					{Name: "area", Kind: parser.KindFunction, Exported: true, HasBody: true, Loc: parser.Location{File: "/m.ts", Line: 2}},
				},
				Loc: parser.Location{File: "/m.ts", Line: 1},
			},
			{
				Name: "shapes", Kind: parser.KindNamespace, Exported: true,
				Children: []parser.Decl{
					{Name: "perimeter", Kind: parser.KindFunction, Exported: true, HasBody: true, Loc: parser.Location{File: "/m.ts", Line: 11}},
				},
				Loc: parser.Location{File: "/m.ts", Line: 10},
			},
		},
	}

	nodes := synthesize(t, false, []string{"/m.ts"}, mod)
	if len(nodes) != 1 {
		t.Fatalf("expected one namespace node, got %d", len(nodes))
	}
	ns := nodes[0]
	if len(ns.Children) != 2 {
		t.Fatalf("expected children from both reopenings, got %+v", ns.Children)
	}
	if ns.Children[0].Name != "area" || ns.Children[1].Name != "perimeter" {
		t.Errorf("unexpected children: %+v", ns.Children)
	}
}

func TestEntriesShareNodes(t *testing.T) {
	shared := &parser.Module{
		Specifier: "/shared.ts",
		Decls: []parser.Decl{
			{Name: "x", Kind: parser.KindVariable, Exported: true, Loc: parser.Location{File: "/shared.ts", Line: 1}},
		},
	}
	a := &parser.Module{
		Specifier: "/a.ts",
		Exports:   []parser.ExportDirective{{Kind: parser.ExportStar, From: "/shared.ts"}},
	}
	b := &parser.Module{
		Specifier: "/b.ts",
		Exports:   []parser.ExportDirective{{Kind: parser.ExportStar, From: "/shared.ts"}},
	}

	nodes := synthesize(t, false, []string{"/a.ts", "/b.ts"}, a, b, shared)
	if len(nodes) != 1 {
		t.Fatalf("expected the shared symbol once, got %d: %+v", len(nodes), nodes)
	}
	if nodes[0].Module != "/shared.ts" {
		t.Errorf("node should be attributed to its defining module, got %q", nodes[0].Module)
	}
}

func TestSynthesizeDeterministic(t *testing.T) {
	mods := func() []*parser.Module {
		return []*parser.Module{
			{
				Specifier: "/m.ts",
				Decls: []parser.Decl{
					{Name: "zeta", Kind: parser.KindVariable, Exported: true, Loc: parser.Location{File: "/m.ts", Line: 3}},
					{Name: "alpha", Kind: parser.KindVariable, Exported: true, Loc: parser.Location{File: "/m.ts", Line: 1}},
				},
			},
		}
	}

	first := synthesize(t, false, []string{"/m.ts"}, mods()...)
	for i := 0; i < 5; i++ {
		again := synthesize(t, false, []string{"/m.ts"}, mods()...)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %+v vs %+v", i, again, first)
		}
	}
	// Module order, then source order.
	if first[0].Name != "alpha" || first[1].Name != "zeta" {
		t.Errorf("unexpected order: %q %q", first[0].Name, first[1].Name)
	}
}
