package resolver

import (
	"sort"

	"docgraph/internal/diag"
	"docgraph/internal/graph"
	"docgraph/internal/parser"
	"docgraph/internal/shared/observability"
)

type TargetKind int

const (
	// TargetDecl points at concrete declarations in a module.
	TargetDecl TargetKind = iota
	// TargetNamespace points at a whole module surface re-exported
	// under one name (export * as ns from "m").
	TargetNamespace
	// TargetAmbiguous: multiple star-exports of genuinely distinct
	// modules supply the name with no higher-precedence resolution.
	TargetAmbiguous
	// TargetUnresolved: the chain dead-ends or revisits a module.
	TargetUnresolved
)

// Target is the resolution outcome for one exported name. Every name
// maps to exactly one outcome category.
type Target struct {
	Kind        TargetKind
	Module      string // defining module (Decl) or aliased module (Namespace)
	Name        string // declaration name within Module
	DeclIndexes []int  // indexes into the defining module's Decls
}

func (t Target) sameOrigin(o Target) bool {
	return t.Kind == o.Kind && t.Module == o.Module && t.Name == o.Name
}

// ExportTable is a module's fully resolved export surface.
type ExportTable struct {
	// Names maps each externally visible name to its outcome, with
	// NameOrder giving deterministic iteration.
	Names     map[string]Target
	NameOrder []string
	// Default is the module's default export, if any.
	Default *Target
}

// Resolver computes resolved export tables for every module of an
// immutable graph. Resolution is a pure read-only traversal.
type Resolver struct {
	graph *graph.Graph
	diags []diag.Diagnostic
}

func NewResolver(g *graph.Graph) *Resolver {
	return &Resolver{graph: g}
}

// Resolve computes the export table of every module in the graph.
func (r *Resolver) Resolve() (map[string]*ExportTable, []diag.Diagnostic) {
	tables := make(map[string]*ExportTable, r.graph.ModuleCount())
	for _, spec := range r.graph.Specifiers() {
		tables[spec] = r.resolveModule(spec)
	}
	return tables, r.diags
}

func (r *Resolver) resolveModule(spec string) *ExportTable {
	table := &ExportTable{Names: make(map[string]Target)}

	names := r.exportedNames(spec, make(map[string]bool))
	sort.Strings(names)

	for _, name := range names {
		target := r.resolveName(spec, name, make(map[string]bool))
		switch target.Kind {
		case TargetAmbiguous:
			r.report(diag.New(diag.KindAmbiguous, spec,
				"export %q is supplied by multiple star-exported modules", name))
		case TargetUnresolved:
			r.report(diag.New(diag.KindUnresolved, spec,
				"export %q cannot be resolved", name))
		}
		table.Names[name] = target
		table.NameOrder = append(table.NameOrder, name)
	}

	if target, ok := r.resolveDefault(spec, make(map[string]bool)); ok {
		if target.Kind == TargetUnresolved {
			r.report(diag.New(diag.KindUnresolved, spec, "default export cannot be resolved"))
		}
		table.Default = &target
	}

	return table
}

// exportedNames computes the externally visible name set of a module,
// following star-exports with a visited set so cyclic chains reach a
// fixed point instead of recursing forever.
func (r *Resolver) exportedNames(spec string, visited map[string]bool) []string {
	if visited[spec] {
		return nil
	}
	visited[spec] = true

	mod, ok := r.graph.Module(spec)
	if !ok || mod.Stub {
		return nil
	}

	set := make(map[string]bool)
	for _, d := range mod.Decls {
		if d.Exported && !d.Default && d.Name != "" {
			set[d.Name] = true
		}
	}
	for _, exp := range mod.Exports {
		switch exp.Kind {
		case parser.ExportNamed:
			if exp.ExportedName != "" && exp.ExportedName != "default" {
				set[exp.ExportedName] = true
			}
		case parser.ExportNamespace:
			if exp.ExportedName != "" {
				set[exp.ExportedName] = true
			}
		case parser.ExportStar:
			for _, name := range r.exportedNames(exp.From, visited) {
				set[name] = true
			}
		}
	}

	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	return names
}

// resolveName follows the re-export chain for one name. Precedence,
// highest to lowest: local declaration, explicit named re-export,
// namespace alias, star re-exports. A chain that revisits a module
// terminates as Unresolved rather than looping.
func (r *Resolver) resolveName(spec, name string, visited map[string]bool) Target {
	if visited[spec] {
		return Target{Kind: TargetUnresolved, Module: spec, Name: name}
	}
	visited[spec] = true

	mod, ok := r.graph.Module(spec)
	if !ok || mod.Stub {
		return Target{Kind: TargetUnresolved, Module: spec, Name: name}
	}

	// (1) local declaration with that name
	if idx := declIndexes(mod, name, true); len(idx) > 0 {
		return Target{Kind: TargetDecl, Module: spec, Name: name, DeclIndexes: idx}
	}

	// (1b) local export clause naming a local declaration
	for _, exp := range mod.Exports {
		if exp.Kind != parser.ExportNamed || exp.From != "" || exp.ExportedName != name {
			continue
		}
		if idx := declIndexes(mod, exp.LocalName, false); len(idx) > 0 {
			return Target{Kind: TargetDecl, Module: spec, Name: exp.LocalName, DeclIndexes: idx}
		}
		return Target{Kind: TargetUnresolved, Module: spec, Name: name}
	}

	// (2) explicit named re-export naming this exact name
	for _, exp := range mod.Exports {
		if exp.Kind != parser.ExportNamed || exp.From == "" || exp.ExportedName != name {
			continue
		}
		if exp.LocalName == "default" {
			if target, ok := r.resolveDefault(exp.From, visited); ok {
				return target
			}
			return Target{Kind: TargetUnresolved, Module: exp.From, Name: "default"}
		}
		return r.resolveName(exp.From, exp.LocalName, visited)
	}

	// (3) namespace alias export for this name
	for _, exp := range mod.Exports {
		if exp.Kind == parser.ExportNamespace && exp.ExportedName == name {
			return Target{Kind: TargetNamespace, Module: exp.From, Name: name}
		}
	}

	// (4) star re-exports: exactly one distinct ultimate origin
	// resolves; more than one is Ambiguous.
	var origins []Target
	for _, exp := range mod.Exports {
		if exp.Kind != parser.ExportStar {
			continue
		}
		// Each branch explores with its own chain guard so sibling
		// stars converging on one origin are recognized as the same.
		branch := cloneVisited(visited)
		target := r.resolveName(exp.From, name, branch)
		if target.Kind != TargetDecl && target.Kind != TargetNamespace {
			continue
		}
		duplicate := false
		for _, prev := range origins {
			if prev.sameOrigin(target) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			origins = append(origins, target)
		}
	}
	switch len(origins) {
	case 1:
		return origins[0]
	case 0:
		return Target{Kind: TargetUnresolved, Module: spec, Name: name}
	default:
		return Target{Kind: TargetAmbiguous, Module: spec, Name: name}
	}
}

// resolveDefault resolves a module's default export. A later default
// overrides an earlier one within the same module; the shadowing is
// reported, not fatal.
func (r *Resolver) resolveDefault(spec string, visited map[string]bool) (Target, bool) {
	mod, ok := r.graph.Module(spec)
	if !ok || mod.Stub {
		return Target{}, false
	}

	var result Target
	found := 0
	for _, exp := range mod.Exports {
		var target Target
		switch {
		case exp.Kind == parser.ExportDefault:
			idx := defaultDeclIndexes(mod, exp.LocalName)
			if len(idx) == 0 {
				continue
			}
			target = Target{Kind: TargetDecl, Module: spec, Name: exp.LocalName, DeclIndexes: idx}

		case exp.Kind == parser.ExportNamed && exp.ExportedName == "default":
			if exp.From == "" {
				idx := declIndexes(mod, exp.LocalName, false)
				if len(idx) == 0 {
					continue
				}
				target = Target{Kind: TargetDecl, Module: spec, Name: exp.LocalName, DeclIndexes: idx}
			} else if exp.LocalName == "default" {
				branch := cloneVisited(visited)
				if branch[spec] {
					continue
				}
				branch[spec] = true
				t, ok := r.resolveDefault(exp.From, branch)
				if !ok {
					continue
				}
				target = t
			} else {
				branch := cloneVisited(visited)
				branch[spec] = true
				target = r.resolveName(exp.From, exp.LocalName, branch)
			}

		default:
			continue
		}

		found++
		if found > 1 {
			r.report(diag.Diagnostic{
				Severity: diag.SeverityWarning,
				Kind:     diag.KindConflict,
				Module:   spec,
				Detail:   "later default export shadows an earlier one",
			})
		}
		result = target
	}

	return result, found > 0
}

// declIndexes returns the indexes of all declarations named name, in
// source order. exportedOnly restricts to declarations carrying the
// export keyword.
func declIndexes(mod *parser.Module, name string, exportedOnly bool) []int {
	if name == "" {
		return nil
	}
	var idx []int
	for i, d := range mod.Decls {
		if d.Name != name || d.Default {
			continue
		}
		if exportedOnly && !d.Exported {
			continue
		}
		idx = append(idx, i)
	}
	return idx
}

// defaultDeclIndexes is declIndexes for default-export declarations,
// which the named lookup deliberately ignores.
func defaultDeclIndexes(mod *parser.Module, name string) []int {
	if name == "" {
		return nil
	}
	var idx []int
	for i, d := range mod.Decls {
		if d.Name == name {
			idx = append(idx, i)
		}
	}
	return idx
}

func (r *Resolver) report(d diag.Diagnostic) {
	observability.DiagnosticsTotal.WithLabelValues(string(d.Kind)).Inc()
	r.diags = append(r.diags, d)
}

func cloneVisited(visited map[string]bool) map[string]bool {
	c := make(map[string]bool, len(visited))
	for k, v := range visited {
		c[k] = v
	}
	return c
}
