package source

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"docgraph/internal/shared/util"
)

// candidate extensions tried, in order, when a specifier has none.
// Mirrors the set DetectLanguage and the watcher accept.
var resolveExtensions = []string{".ts", ".tsx", ".mts", ".cts", ".js", ".mjs", ".cjs"}

// FileLoader resolves relative specifiers against the referrer's
// directory and reads module source from disk, rate limited so watch
// mode cannot saturate I/O.
type FileLoader struct {
	Root    string
	limiter *util.Limiter
}

func NewFileLoader(root string, limiter *util.Limiter) *FileLoader {
	return &FileLoader{Root: filepath.Clean(root), limiter: limiter}
}

func (l *FileLoader) Resolve(specifier, referrer string) (string, error) {
	if strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") {
		base := l.Root
		if referrer != "" {
			base = path.Dir(referrer)
		}
		return l.canonical(path.Join(base, specifier))
	}
	if path.IsAbs(specifier) {
		return l.canonical(specifier)
	}
	// Bare specifiers resolve against the loader root.
	return l.canonical(path.Join(l.Root, specifier))
}

func (l *FileLoader) canonical(p string) (string, error) {
	p = path.Clean(filepath.ToSlash(p))
	if path.Ext(p) != "" {
		return p, nil
	}
	for _, ext := range resolveExtensions {
		if _, err := os.Stat(filepath.FromSlash(p + ext)); err == nil {
			return p + ext, nil
		}
	}
	// Leave extensionless specifiers alone; Load reports NotFound.
	return p, nil
}

func (l *FileLoader) Load(ctx context.Context, specifier string) ([]byte, error) {
	if l.limiter != nil {
		if err := l.limiter.Wait(ctx, 1); err != nil {
			return nil, &LoadError{Kind: Other, Specifier: specifier, Err: err}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, &LoadError{Kind: Other, Specifier: specifier, Err: err}
	}

	data, err := os.ReadFile(filepath.FromSlash(specifier))
	if err != nil {
		kind := Other
		switch {
		case errors.Is(err, fs.ErrNotExist):
			kind = NotFound
		case errors.Is(err, fs.ErrPermission):
			kind = PermissionDenied
		}
		return nil, &LoadError{Kind: kind, Specifier: specifier, Err: err}
	}
	return data, nil
}
