package source

import (
	"context"
	"path"
	"strings"
)

// MemoryLoader serves modules from an in-memory map, keyed by canonical
// specifier. Used by tests and by embedders that already hold source.
type MemoryLoader struct {
	Modules map[string]string
}

func NewMemoryLoader(modules map[string]string) *MemoryLoader {
	return &MemoryLoader{Modules: modules}
}

func (l *MemoryLoader) Resolve(specifier, referrer string) (string, error) {
	if strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") {
		base := "/"
		if referrer != "" {
			base = path.Dir(referrer)
		}
		return path.Clean(path.Join(base, specifier)), nil
	}
	return path.Clean(specifier), nil
}

func (l *MemoryLoader) Load(_ context.Context, specifier string) ([]byte, error) {
	src, ok := l.Modules[specifier]
	if !ok {
		return nil, &LoadError{Kind: NotFound, Specifier: specifier}
	}
	return []byte(src), nil
}
