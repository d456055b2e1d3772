package doc

import (
	"sort"

	"docgraph/internal/comment"
	"docgraph/internal/diag"
	"docgraph/internal/graph"
	"docgraph/internal/merge"
	"docgraph/internal/parser"
	"docgraph/internal/resolver"
	"docgraph/internal/shared/observability"
)

// Synthesizer converts merged, resolved declarations into
// documentation nodes. It reads the immutable graph and the resolved
// export tables; it never mutates either.
type Synthesizer struct {
	graph      *graph.Graph
	tables     map[string]*resolver.ExportTable
	includeAll bool
	diags      []diag.Diagnostic

	// surfaces memoizes each module's rendered export surface, so two
	// aliases of one target share the same child list and merge
	// diagnostics are reported once per module.
	surfaces map[string][]Node
}

func NewSynthesizer(g *graph.Graph, tables map[string]*resolver.ExportTable, includeAll bool) *Synthesizer {
	return &Synthesizer{
		graph:      g,
		tables:     tables,
		includeAll: includeAll,
		surfaces:   make(map[string][]Node),
	}
}

// Synthesize produces the ordered node collection for the graph's
// entry modules: their export surfaces, default exports, module docs,
// and (with includeAll) private declarations.
func (s *Synthesizer) Synthesize() ([]Node, []diag.Diagnostic) {
	var nodes []Node
	for _, entry := range s.graph.Entries() {
		visited := make(map[string]bool)
		nodes = append(nodes, s.moduleNodes(entry, visited)...)
	}

	// Several entries can surface the same symbol; one node each.
	seen := make(map[string]bool, len(nodes))
	deduped := nodes[:0]
	for _, n := range nodes {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		deduped = append(deduped, n)
	}
	nodes = deduped

	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if a.Module != b.Module {
			return a.Module < b.Module
		}
		al, bl := firstLocation(a), firstLocation(b)
		if al != bl {
			return al.Before(bl)
		}
		return a.Name < b.Name
	})

	observability.NodesEmitted.Set(float64(len(nodes)))
	return nodes, s.diags
}

func (s *Synthesizer) moduleNodes(spec string, visited map[string]bool) []Node {
	mod, ok := s.graph.Module(spec)
	if !ok {
		return nil
	}

	var nodes []Node
	if !mod.Doc.Empty() {
		nodes = append(nodes, Node{
			ID:        StableID(spec, spec, parser.KindModuleDoc.String()),
			Kind:      parser.KindModuleDoc.String(),
			Name:      spec,
			Module:    spec,
			Doc:       mod.Doc,
			Locations: []parser.Location{{File: spec, Line: 1, Column: 1}},
		})
	}

	nodes = append(nodes, s.surfaceNodes(spec, visited)...)

	if s.includeAll {
		nodes = append(nodes, s.privateNodes(mod)...)
	}
	return nodes
}

// surfaceNodes synthesizes the resolved export surface of one module.
// A completed surface is served from the memo; only a genuinely
// in-progress revisit (a cyclic namespace chain) returns nil.
func (s *Synthesizer) surfaceNodes(spec string, visited map[string]bool) []Node {
	if nodes, ok := s.surfaces[spec]; ok {
		return nodes
	}
	if visited[spec] {
		return nil
	}
	visited[spec] = true

	table := s.tables[spec]
	if table == nil {
		s.surfaces[spec] = nil
		return nil
	}

	var nodes []Node

	// Run the merger per defining module, preserving surface order.
	entriesByModule := make(map[string][]merge.Entry)
	var moduleOrder []string
	for _, name := range table.NameOrder {
		target := table.Names[name]
		switch target.Kind {
		case resolver.TargetDecl:
			if _, ok := entriesByModule[target.Module]; !ok {
				moduleOrder = append(moduleOrder, target.Module)
			}
			entriesByModule[target.Module] = append(entriesByModule[target.Module],
				merge.Entry{Name: name, Target: target})

		case resolver.TargetNamespace:
			if node, ok := s.namespaceReexport(name, target, visited); ok {
				nodes = append(nodes, node)
			}
		}
	}

	for _, dm := range moduleOrder {
		defMod, ok := s.graph.Module(dm)
		if !ok {
			continue
		}
		merged, ds := merge.Merge(defMod, entriesByModule[dm])
		s.report(ds)
		for _, m := range merged {
			if node, ok := s.nodeFrom(m); ok {
				nodes = append(nodes, node)
			}
		}
	}

	if table.Default != nil && table.Default.Kind == resolver.TargetDecl {
		if node, ok := s.defaultNode(*table.Default); ok {
			nodes = append(nodes, node)
		}
	}

	s.surfaces[spec] = nodes
	return nodes
}

func (s *Synthesizer) defaultNode(target resolver.Target) (Node, bool) {
	mod, ok := s.graph.Module(target.Module)
	if !ok {
		return Node{}, false
	}
	var parts []parser.Decl
	for _, i := range target.DeclIndexes {
		if i >= 0 && i < len(mod.Decls) {
			parts = append(parts, mod.Decls[i])
		}
	}
	merged, ds := merge.Group(target.Module, "default", parts)
	s.report(ds)
	if len(merged) == 0 {
		return Node{}, false
	}
	return s.nodeFrom(merged[0])
}

// privateNodes documents the non-exported declarations of a module,
// emitted only under includeAll.
func (s *Synthesizer) privateNodes(mod *parser.Module) []Node {
	grouped := make(map[string][]parser.Decl)
	var order []string
	for _, d := range mod.Decls {
		if d.Exported || d.Default || d.Name == "" {
			continue
		}
		if _, ok := grouped[d.Name]; !ok {
			order = append(order, d.Name)
		}
		grouped[d.Name] = append(grouped[d.Name], d)
	}

	var nodes []Node
	for _, name := range order {
		merged, ds := merge.Group(mod.Specifier, name, grouped[name])
		s.report(ds)
		for _, m := range merged {
			if node, ok := s.nodeFrom(m); ok {
				nodes = append(nodes, node)
			}
		}
	}
	return nodes
}

// namespaceReexport synthesizes the node for export * as ns from "m":
// a namespace whose children are the target module's resolved surface
// and whose doc is the target's module doc.
func (s *Synthesizer) namespaceReexport(name string, target resolver.Target, visited map[string]bool) (Node, bool) {
	children := s.surfaceNodes(target.Module, visited)

	var doc comment.Doc
	if mod, ok := s.graph.Module(target.Module); ok {
		doc = mod.Doc
	}
	if doc.Internal && !s.includeAll {
		return Node{}, false
	}

	return Node{
		ID:       StableID(target.Module, name, parser.KindNamespace.String()),
		Kind:     parser.KindNamespace.String(),
		Name:     name,
		Module:   target.Module,
		Doc:      doc,
		Children: children,
	}, true
}

func (s *Synthesizer) nodeFrom(m merge.MergedDeclaration) (Node, bool) {
	primary := primaryDoc(m.Parts)
	if primary.Internal && !s.includeAll {
		return Node{}, false
	}

	node := Node{
		ID:     StableID(m.Module, m.Name, m.Kind.String()),
		Kind:   m.Kind.String(),
		Name:   m.Name,
		Module: m.Module,
		Doc:    primary,
	}

	for _, p := range m.Parts {
		node.Locations = append(node.Locations, p.Loc)
		if p.Doc.Deprecated {
			node.Deprecated = true
			if p.Doc.DeprecationReason != "" {
				node.DeprecationReasons = append(node.DeprecationReasons, p.Doc.DeprecationReason)
			}
		}
	}

	switch m.Kind {
	case parser.KindFunction:
		for _, p := range m.Parts {
			node.Signatures = append(node.Signatures, p.Signature)
		}
		canonical := m.Parts[m.Canonical]
		node.Params = canonical.Params
		node.ReturnType = canonical.ReturnType
		if canonical.HasBody {
			idx := m.Canonical
			node.ImplementationIndex = &idx
		}

	case parser.KindInterface:
		node.Signatures = []string{m.Parts[0].Signature}
		node.Members = mergedMembers(m.Parts)

	case parser.KindNamespace:
		node.Signatures = []string{m.Parts[0].Signature}
		node.Children = s.namespaceChildren(m)

	case parser.KindClass, parser.KindEnum:
		node.Signatures = []string{m.Parts[0].Signature}
		for _, mem := range m.Parts[0].Members {
			node.Members = append(node.Members, MemberDoc{
				Name:      mem.Name,
				Signature: mem.Signature,
				Loc:       mem.Loc,
			})
		}

	default:
		node.Signatures = []string{m.Parts[0].Signature}
		node.ReturnType = m.Parts[0].ReturnType
	}

	return node, true
}

// namespaceChildren resolves a (possibly reopened) namespace's
// children: every part's declarations concatenated, then grouped and
// merged by name exactly like a module surface.
func (s *Synthesizer) namespaceChildren(m merge.MergedDeclaration) []Node {
	grouped := make(map[string][]parser.Decl)
	var order []string
	for _, part := range m.Parts {
		for _, child := range part.Children {
			if child.Name == "" {
				continue
			}
			if !child.Exported && !s.includeAll {
				continue
			}
			if _, ok := grouped[child.Name]; !ok {
				order = append(order, child.Name)
			}
			grouped[child.Name] = append(grouped[child.Name], child)
		}
	}

	var nodes []Node
	for _, name := range order {
		// Children are addressed under the namespace's scope so their
		// identity stays distinct from same-named module-level symbols.
		scope := m.Module + "#" + m.Name
		merged, ds := merge.Group(scope, name, grouped[name])
		s.report(ds)
		for _, mc := range merged {
			if node, ok := s.nodeFrom(mc); ok {
				nodes = append(nodes, node)
			}
		}
	}
	return nodes
}

// mergedMembers unions augmentation member lists. A later member with
// a key already present replaces the earlier one in place, carrying
// the shadowed flag.
func mergedMembers(parts []parser.Decl) []MemberDoc {
	var members []MemberDoc
	index := make(map[string]int)
	for _, part := range parts {
		for _, mem := range part.Members {
			md := MemberDoc{Name: mem.Name, Signature: mem.Signature, Loc: mem.Loc}
			if mem.Name != "" {
				if at, ok := index[mem.Name]; ok {
					md.Shadowed = true
					members[at] = md
					continue
				}
				index[mem.Name] = len(members)
			}
			members = append(members, md)
		}
	}
	return members
}

// primaryDoc picks the first part that actually carries documentation.
func primaryDoc(parts []parser.Decl) comment.Doc {
	for _, p := range parts {
		if !p.Doc.Empty() {
			return p.Doc
		}
	}
	return comment.Doc{}
}

func (s *Synthesizer) report(ds []diag.Diagnostic) {
	for _, d := range ds {
		observability.DiagnosticsTotal.WithLabelValues(string(d.Kind)).Inc()
	}
	s.diags = append(s.diags, ds...)
}

func firstLocation(n Node) parser.Location {
	if len(n.Locations) == 0 {
		return parser.Location{File: n.Module}
	}
	return n.Locations[0]
}
