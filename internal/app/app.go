package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"docgraph/internal/config"
	"docgraph/internal/diag"
	"docgraph/internal/doc"
	"docgraph/internal/graph"
	"docgraph/internal/history"
	"docgraph/internal/output"
	"docgraph/internal/parser"
	"docgraph/internal/resolver"
	"docgraph/internal/shared/observability"
	"docgraph/internal/shared/util"
	"docgraph/internal/source"
)

// ErrNothingReachable is returned when no entry specifier could be
// loaded or parsed at all. The accompanying Result still carries the
// diagnostics explaining why.
var ErrNothingReachable = errors.New("no entry specifier could be loaded")

type App struct {
	Config  *config.Config
	Parser  *parser.Parser
	Loader  source.Loader
	History *history.Store
}

func New(cfg *config.Config) (*App, error) {
	var limiter *util.Limiter
	if cfg.Loader.RatePerSecond > 0 {
		limiter = util.NewLimiter(cfg.Loader.RatePerSecond, cfg.Loader.Burst)
	}

	a := &App{
		Config: cfg,
		Parser: parser.NewParser(parser.NewGrammarLoader()),
		Loader: source.NewFileLoader(cfg.Root, limiter),
	}

	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
		a.History = store
	}

	return a, nil
}

func (a *App) Close() error {
	if a.History != nil {
		return a.History.Close()
	}
	return nil
}

// Run executes the full pipeline once: discovery, resolution, merging
// and synthesis. Per-module failures degrade to diagnostics; only a
// completely unreachable entry set returns ErrNothingReachable, and
// even then the Result carries the explaining diagnostics.
func (a *App) Run(ctx context.Context) (*output.Result, *graph.Graph, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.Run")
	defer span.End()
	span.SetAttributes(attribute.StringSlice("entries", a.Config.Entries))

	builder, err := graph.NewBuilder(a.Loader, a.Parser, a.Config.Exclude)
	if err != nil {
		return nil, nil, fmt.Errorf("configure graph builder: %w", err)
	}

	g, diags, err := a.timedBuild(ctx, builder)
	if err != nil {
		return nil, nil, err
	}

	result := &output.Result{Entries: g.Entries()}

	diags = append(diags, graph.CycleDiagnostics(g)...)

	tables, resolveDiags := a.timedResolve(ctx, g)
	diags = append(diags, resolveDiags...)

	nodes, synthDiags := a.timedSynthesize(ctx, g, tables)
	diags = append(diags, synthDiags...)

	result.Nodes = nodes
	result.Diagnostics = diags

	if !a.anyEntryReachable(g) {
		return result, g, ErrNothingReachable
	}

	if a.History != nil {
		runID := uuid.NewString()
		if err := a.History.Record(runID, g.Entries(), g.ModuleCount(), len(diags), nodes); err != nil {
			slog.Warn("failed to record history snapshot", "error", err)
		} else {
			slog.Debug("recorded history snapshot", "run_id", runID)
		}
	}

	return result, g, nil
}

func (a *App) timedBuild(ctx context.Context, builder *graph.Builder) (*graph.Graph, []diag.Diagnostic, error) {
	ctx, span := observability.Tracer.Start(ctx, "pipeline.discover")
	defer span.End()

	start := time.Now()
	g, diags, err := builder.Build(ctx, a.Config.Entries)
	observability.PipelineDuration.WithLabelValues("discover").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, nil, err
	}
	slog.Info("module graph built", "modules", g.ModuleCount(), "edges", g.EdgeCount())
	return g, diags, nil
}

func (a *App) timedResolve(ctx context.Context, g *graph.Graph) (map[string]*resolver.ExportTable, []diag.Diagnostic) {
	_, span := observability.Tracer.Start(ctx, "pipeline.resolve")
	defer span.End()

	start := time.Now()
	tables, diags := resolver.NewResolver(g).Resolve()
	observability.PipelineDuration.WithLabelValues("resolve").Observe(time.Since(start).Seconds())
	return tables, diags
}

func (a *App) timedSynthesize(ctx context.Context, g *graph.Graph, tables map[string]*resolver.ExportTable) ([]doc.Node, []diag.Diagnostic) {
	_, span := observability.Tracer.Start(ctx, "pipeline.synthesize")
	defer span.End()

	start := time.Now()
	nodes, diags := doc.NewSynthesizer(g, tables, a.Config.IncludeAll).Synthesize()
	observability.PipelineDuration.WithLabelValues("synthesize").Observe(time.Since(start).Seconds())
	return nodes, diags
}

func (a *App) anyEntryReachable(g *graph.Graph) bool {
	for _, entry := range g.Entries() {
		if mod, ok := g.Module(entry); ok && !mod.Stub {
			return true
		}
	}
	return false
}
