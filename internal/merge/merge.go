package merge

import (
	"fmt"
	"sort"

	"docgraph/internal/diag"
	"docgraph/internal/parser"
	"docgraph/internal/resolver"
)

// MergedDeclaration is one logical symbol: every raw declaration that
// legally contributes to it, in source order.
type MergedDeclaration struct {
	Name   string
	Module string
	Kind   parser.DeclKind
	Parts  []parser.Decl
	// Canonical indexes into Parts: the body-bearing overload for
	// function sets (or the last signature when none has a body).
	// -1 for non-function kinds.
	Canonical int
}

// Entry is one resolved export table entry pointing into a module.
type Entry struct {
	Name   string
	Target resolver.Target
}

// Merge groups the resolved entries of one module into logical
// declarations. Incompatible kinds sharing a name are a reportable
// conflict: each part survives as its own declaration with a
// disambiguating suffix, never a silent merge.
func Merge(mod *parser.Module, entries []Entry) ([]MergedDeclaration, []diag.Diagnostic) {
	var merged []MergedDeclaration
	var diags []diag.Diagnostic

	for _, e := range entries {
		if e.Target.Kind != resolver.TargetDecl || e.Target.Module != mod.Specifier {
			continue
		}
		parts := make([]parser.Decl, 0, len(e.Target.DeclIndexes))
		for _, i := range e.Target.DeclIndexes {
			if i >= 0 && i < len(mod.Decls) {
				parts = append(parts, mod.Decls[i])
			}
		}
		m, ds := Group(mod.Specifier, e.Name, parts)
		merged = append(merged, m...)
		diags = append(diags, ds...)
	}

	return merged, diags
}

// Group merges the raw declarations sharing one resolved name.
// Function overload sets, interface augmentations and namespace
// reopenings merge; everything else with multiple parts conflicts.
func Group(module, name string, parts []parser.Decl) ([]MergedDeclaration, []diag.Diagnostic) {
	if len(parts) == 0 {
		return nil, nil
	}

	sort.SliceStable(parts, func(i, j int) bool { return parts[i].Loc.Before(parts[j].Loc) })

	// Partition by kind family first; a name legally maps to exactly
	// one family.
	byKind := make(map[parser.DeclKind][]parser.Decl)
	var kinds []parser.DeclKind
	for _, p := range parts {
		if _, ok := byKind[p.Kind]; !ok {
			kinds = append(kinds, p.Kind)
		}
		byKind[p.Kind] = append(byKind[p.Kind], p)
	}

	var diags []diag.Diagnostic
	if len(kinds) > 1 {
		diags = append(diags, diag.New(diag.KindConflict, module,
			"declarations of %q mix incompatible kinds (%s and %s)",
			name, kinds[0], kinds[1]))
	}

	var merged []MergedDeclaration
	for _, kind := range kinds {
		group := byKind[kind]
		switch kind {
		case parser.KindFunction:
			merged = append(merged, MergedDeclaration{
				Name:      name,
				Module:    module,
				Kind:      kind,
				Parts:     group,
				Canonical: canonicalOverload(group),
			})

		case parser.KindInterface, parser.KindNamespace:
			merged = append(merged, MergedDeclaration{
				Name:      name,
				Module:    module,
				Kind:      kind,
				Parts:     group,
				Canonical: -1,
			})

		default:
			if len(group) == 1 {
				merged = append(merged, MergedDeclaration{
					Name:      name,
					Module:    module,
					Kind:      kind,
					Parts:     group,
					Canonical: -1,
				})
				continue
			}
			// Enum augmentation (and any other repeated
			// non-mergeable kind): each part stays separate under a
			// disambiguating suffix.
			diags = append(diags, diag.New(diag.KindConflict, module,
				"%s %q is declared %d times but %ss do not merge",
				kind, name, len(group), kind))
			for i, p := range group {
				merged = append(merged, MergedDeclaration{
					Name:      fmt.Sprintf("%s~%d", name, i+1),
					Module:    module,
					Kind:      kind,
					Parts:     []parser.Decl{p},
					Canonical: -1,
				})
			}
		}
	}

	return merged, diags
}

// canonicalOverload picks the implementation-bearing signature; when
// every part is body-less the last declared overload is canonical.
func canonicalOverload(parts []parser.Decl) int {
	for i, p := range parts {
		if p.HasBody {
			return i
		}
	}
	return len(parts) - 1
}
