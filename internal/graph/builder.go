package graph

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/gobwas/glob"

	"docgraph/internal/diag"
	"docgraph/internal/parser"
	"docgraph/internal/shared/observability"
	"docgraph/internal/shared/util"
	"docgraph/internal/source"
)

// Builder discovers the full reachable module set from a group of
// entry specifiers, breadth-first through a ModuleLoader. Distinct
// unvisited specifiers load concurrently; the visited set is the only
// shared state and is guarded so no specifier ever loads twice.
type Builder struct {
	loader  source.Loader
	parser  *parser.Parser
	exclude []glob.Glob
}

func NewBuilder(loader source.Loader, p *parser.Parser, excludePatterns []string) (*Builder, error) {
	b := &Builder{loader: loader, parser: p}
	for _, pattern := range excludePatterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		b.exclude = append(b.exclude, g)
	}
	return b, nil
}

// Build walks the import/re-export closure of the entries. Load and
// parse failures degrade to diagnostics plus stub modules; the only
// error returned is a canonicalization failure of an entry itself.
func (b *Builder) Build(ctx context.Context, entries []string) (*Graph, []diag.Diagnostic, error) {
	var canonical []string
	var diags []diag.Diagnostic
	for _, e := range entries {
		spec, err := b.loader.Resolve(e, "")
		if err != nil {
			diags = append(diags, diag.New(diag.KindLoadFailed, e, "cannot resolve entry: %v", err))
			continue
		}
		canonical = append(canonical, spec)
	}

	g := New(canonical)

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		visited = make(map[string]bool, len(canonical))
	)

	var enqueue func(specifier string)
	enqueue = func(specifier string) {
		mu.Lock()
		if visited[specifier] {
			mu.Unlock()
			return
		}
		visited[specifier] = true
		mu.Unlock()

		wg.Add(1)
		go func() {
			defer wg.Done()

			if b.excluded(specifier) {
				slog.Debug("specifier excluded by config", "specifier", specifier)
				mu.Lock()
				g.Add(parser.StubModule(specifier), nil)
				mu.Unlock()
				return
			}

			mod, deps, ds := b.loadOne(ctx, specifier)

			mu.Lock()
			g.Add(mod, deps)
			diags = append(diags, ds...)
			mu.Unlock()

			for _, dep := range deps {
				enqueue(dep)
			}
		}()
	}

	for _, spec := range canonical {
		enqueue(spec)
	}
	wg.Wait()

	// Concurrent discovery finishes in nondeterministic order; sort
	// diagnostics so identical inputs give identical output.
	sort.Slice(diags, func(i, j int) bool {
		if diags[i].Module != diags[j].Module {
			return diags[i].Module < diags[j].Module
		}
		return diags[i].Detail < diags[j].Detail
	})

	observability.GraphModules.Set(float64(g.ModuleCount()))
	observability.GraphEdges.Set(float64(g.EdgeCount()))

	return g, diags, nil
}

// loadOne loads and parses a single module. Failures produce a stub
// module so downstream resolution degrades instead of aborting.
func (b *Builder) loadOne(ctx context.Context, specifier string) (*parser.Module, []string, []diag.Diagnostic) {
	start := time.Now()
	content, err := b.loader.Load(ctx, specifier)
	if err != nil {
		observability.ModuleLoadDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		observability.DiagnosticsTotal.WithLabelValues(string(diag.KindLoadFailed)).Inc()
		slog.Warn("failed to load module", "specifier", specifier, "error", err)
		return parser.StubModule(specifier), nil,
			[]diag.Diagnostic{diag.New(diag.KindLoadFailed, specifier, "%v", err)}
	}
	observability.ModuleLoadDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())

	parseStart := time.Now()
	mod, err := b.parser.ParseModule(specifier, content)
	if err != nil {
		observability.DiagnosticsTotal.WithLabelValues(string(diag.KindParseFailed)).Inc()
		slog.Warn("failed to parse module", "specifier", specifier, "error", err)
		return parser.StubModule(specifier), nil,
			[]diag.Diagnostic{diag.New(diag.KindParseFailed, specifier, "%v", err)}
	}
	observability.ParseDuration.WithLabelValues(mod.Language).Observe(time.Since(parseStart).Seconds())

	var deps []string
	var ds []diag.Diagnostic
	seen := make(map[string]bool)
	record := func(raw string) {
		if raw == "" {
			return
		}
		dep, err := b.loader.Resolve(raw, specifier)
		if err != nil {
			ds = append(ds, diag.New(diag.KindLoadFailed, specifier, "cannot resolve %q: %v", raw, err))
			return
		}
		if !seen[dep] {
			seen[dep] = true
			deps = append(deps, dep)
		}
	}
	for _, imp := range mod.Imports {
		record(imp.Specifier)
	}
	for i, exp := range mod.Exports {
		if exp.From == "" {
			continue
		}
		record(exp.From)
		// Rewrite the directive to the canonical form so the resolver
		// never re-resolves specifiers.
		if dep, err := b.loader.Resolve(exp.From, specifier); err == nil {
			mod.Exports[i].From = dep
		}
	}

	return mod, deps, ds
}

func (b *Builder) excluded(specifier string) bool {
	normalized := util.NormalizeSpecifierPath(specifier)
	for _, g := range b.exclude {
		if g.Match(normalized) {
			return true
		}
	}
	return false
}

// CycleDiagnostics converts detected module cycles into informational
// diagnostics. Cycles are legal; resolution still reaches a fixed
// point.
func CycleDiagnostics(g *Graph) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, cycle := range g.Cycles() {
		detail := cycle[0]
		for _, m := range cycle[1:] {
			detail += " -> " + m
		}
		out = append(out, diag.New(diag.KindCycle, cycle[0], "module cycle: %s", detail))
		observability.DiagnosticsTotal.WithLabelValues(string(diag.KindCycle)).Inc()
	}
	return out
}
