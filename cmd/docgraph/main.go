package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"docgraph/internal/app"
	"docgraph/internal/config"
	"docgraph/internal/output"
	"docgraph/internal/shared/observability"
	"docgraph/internal/shared/util"
	"docgraph/internal/watcher"
)

var (
	configPath = flag.String("config", "./docgraph.toml", "Path to config file")
	outPath    = flag.String("out", "", "Write JSON output to this path instead of stdout")
	watchMode  = flag.Bool("watch", false, "Re-run extraction when sources change")
	includeAll = flag.Bool("include-all", false, "Document non-exported declarations too")
	diffMode   = flag.Bool("diff", false, "Print symbols added/removed since the previous snapshot")
	root       = flag.String("root", ".", "Directory entry specifiers resolve against (without a config file)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "0.3.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("docgraph v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := loadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *includeAll {
		cfg.IncludeAll = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Tracing.OTLPEndpoint)
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			slog.Warn("trace shutdown failed", "error", err)
		}
	}()

	a, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if *diffMode {
		os.Exit(runDiff(a))
	}

	code := runOnce(ctx, a)
	if *watchMode {
		code = runWatch(ctx, a)
	}
	os.Exit(code)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		// Without a config file, positional arguments are the entries.
		if os.IsNotExist(err) && flag.NArg() > 0 {
			return config.Default(flag.Args(), *root)
		}
		return nil, err
	}
	if flag.NArg() > 0 {
		cfg.Entries = flag.Args()
	}
	return cfg, nil
}

func runOnce(ctx context.Context, a *app.App) int {
	result, g, err := a.Run(ctx)
	if err != nil {
		if errors.Is(err, app.ErrNothingReachable) {
			// Still emit the empty collection and its diagnostics.
			writeResult(result)
			fmt.Fprint(os.Stderr, output.Summary(result, 0))
			slog.Error("nothing reachable", "error", err)
			return 1
		}
		slog.Error("pipeline failed", "error", err)
		return 1
	}

	if !writeResult(result) {
		return 1
	}
	fmt.Fprint(os.Stderr, output.Summary(result, g.ModuleCount()))
	return 0
}

func runWatch(ctx context.Context, a *app.App) int {
	rerun := make(chan []string, 1)
	w, err := watcher.NewWatcher(a.Config.Watch.Debounce, a.Config.Exclude, func(paths []string) {
		select {
		case rerun <- paths:
		default:
		}
	})
	if err != nil {
		slog.Error("failed to create watcher", "error", err)
		return 1
	}
	defer w.Close()

	if err := w.Watch(filepath.Clean(a.Config.Root)); err != nil {
		slog.Error("failed to watch sources", "error", err)
		return 1
	}
	slog.Info("watching for changes", "root", a.Config.Root)

	for {
		select {
		case <-ctx.Done():
			return 0
		case paths := <-rerun:
			slog.Info("detected changes", "count", len(paths))
			runOnce(ctx, a)
		}
	}
}

func runDiff(a *app.App) int {
	if a.History == nil {
		slog.Error("diff requires a history store; set history.path in the config")
		return 1
	}
	diff, err := a.History.DiffLatest()
	if err != nil {
		slog.Error("diff failed", "error", err)
		return 1
	}
	fmt.Printf("comparing %s -> %s\n", diff.From, diff.To)
	for _, ref := range diff.Added {
		fmt.Printf("+ %s %s (%s)\n", ref.Kind, ref.Name, ref.Module)
	}
	for _, ref := range diff.Removed {
		fmt.Printf("- %s %s (%s)\n", ref.Kind, ref.Name, ref.Module)
	}
	if len(diff.Added) == 0 && len(diff.Removed) == 0 {
		fmt.Println("no changes")
	}
	return 0
}

func writeResult(result *output.Result) bool {
	data, err := output.NewJSONGenerator(result).Generate()
	if err != nil {
		slog.Error("failed to serialize output", "error", err)
		return false
	}
	if *outPath == "" {
		os.Stdout.Write(data)
		return true
	}
	if err := util.WriteFileWithDirs(*outPath, data, 0o644); err != nil {
		slog.Error("failed to write output", "path", *outPath, "error", err)
		return false
	}
	return true
}
