package source

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies loader failures.
type ErrorKind int

const (
	NotFound ErrorKind = iota
	PermissionDenied
	NetworkFailure
	Other
)

func (k ErrorKind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case PermissionDenied:
		return "permission denied"
	case NetworkFailure:
		return "network failure"
	default:
		return "load error"
	}
}

// LoadError is returned by a Loader when a specifier cannot be
// supplied.
type LoadError struct {
	Kind      ErrorKind
	Specifier string
	Err       error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load %s: %s: %v", e.Specifier, e.Kind, e.Err)
	}
	return fmt.Sprintf("load %s: %s", e.Specifier, e.Kind)
}

func (e *LoadError) Unwrap() error { return e.Err }

// AsLoadError unwraps err into a *LoadError if possible.
func AsLoadError(err error) (*LoadError, bool) {
	var le *LoadError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}

// Loader supplies module source text for canonical specifiers. Load is
// the only pipeline operation expected to suspend; it honors ctx
// cancellation and deadlines.
type Loader interface {
	// Resolve canonicalizes a raw specifier relative to the referrer
	// module. The empty referrer means an entry specifier.
	Resolve(specifier, referrer string) (string, error)

	// Load returns the source text for a canonical specifier.
	Load(ctx context.Context, specifier string) ([]byte, error)
}
