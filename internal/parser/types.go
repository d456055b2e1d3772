package parser

import (
	"time"

	"docgraph/internal/comment"
)

// Module is the declaration-centric view of one source module,
// immutable once the adapter has produced it.
type Module struct {
	Specifier string
	Language  string
	Doc       comment.Doc // module-level doc comment
	Decls     []Decl
	Exports   []ExportDirective
	Imports   []ImportDirective
	Stub      bool // load or parse failed; empty surface
	ParsedAt  time.Time
}

type Decl struct {
	Name       string
	Kind       DeclKind
	Exported   bool
	Default    bool
	HasBody    bool // functions: implementation vs overload signature
	Signature  string
	Params     []Param
	ReturnType string
	Members    []Member
	Children   []Decl // namespace child declarations
	Doc        comment.Doc
	Loc        Location
}

type Param struct {
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Optional bool   `json:"optional,omitempty"`
}

type Member struct {
	Name      string   `json:"name"`
	Signature string   `json:"signature"`
	Loc       Location `json:"location"`
}

type DeclKind int

const (
	KindFunction DeclKind = iota
	KindClass
	KindInterface
	KindTypeAlias
	KindEnum
	KindVariable
	KindNamespace
	KindModuleDoc
)

func (k DeclKind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindTypeAlias:
		return "typeAlias"
	case KindEnum:
		return "enum"
	case KindVariable:
		return "variable"
	case KindNamespace:
		return "namespace"
	case KindModuleDoc:
		return "moduleDoc"
	default:
		return "unknown"
	}
}

type ExportKind int

const (
	ExportNamed ExportKind = iota
	ExportDefault
	ExportStar
	ExportNamespace
)

// ExportDirective relates a module to a local declaration name or to
// another module's export surface.
//
//	Named:     export { LocalName as ExportedName } [from From]
//	Default:   export default <LocalName or expression>
//	Star:      export * from From
//	Namespace: export * as ExportedName from From
type ExportDirective struct {
	Kind         ExportKind
	LocalName    string
	ExportedName string
	From         string // raw specifier; empty for local exports
	Loc          Location
}

type ImportDirective struct {
	Specifier string // raw specifier as written
	Loc       Location
}

type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// Before orders locations within one file (line, then column).
func (l Location) Before(o Location) bool {
	if l.File != o.File {
		return l.File < o.File
	}
	if l.Line != o.Line {
		return l.Line < o.Line
	}
	return l.Column < o.Column
}

// Stub returns the empty-surface module used when a specifier cannot
// be loaded or parsed, so downstream resolution degrades gracefully.
func StubModule(specifier string) *Module {
	return &Module{Specifier: specifier, Stub: true, ParsedAt: time.Now()}
}
