package diag

import "fmt"

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

type Kind string

const (
	KindCycle       Kind = "Cycle"
	KindAmbiguous   Kind = "Ambiguous"
	KindUnresolved  Kind = "Unresolved"
	KindConflict    Kind = "Conflict"
	KindLoadFailed  Kind = "LoadFailed"
	KindParseFailed Kind = "ParseFailed"
)

// Diagnostic records a non-fatal condition discovered during a pipeline
// run. Diagnostics are emitted alongside, never instead of, the
// best-effort documentation output.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Kind     Kind     `json:"kind"`
	Module   string   `json:"module"`
	Detail   string   `json:"detail"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s [%s]: %s", d.Severity, d.Kind, d.Module, d.Detail)
}

// New builds a diagnostic with the conventional severity for its kind.
func New(kind Kind, module, format string, args ...any) Diagnostic {
	sev := SeverityWarning
	switch kind {
	case KindCycle:
		sev = SeverityInfo
	case KindLoadFailed, KindParseFailed, KindConflict:
		sev = SeverityError
	}
	return Diagnostic{
		Severity: sev,
		Kind:     kind,
		Module:   module,
		Detail:   fmt.Sprintf(format, args...),
	}
}
