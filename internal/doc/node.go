package doc

import (
	"crypto/sha256"
	"encoding/hex"

	"docgraph/internal/comment"
	"docgraph/internal/parser"
)

// Node is the terminal artifact: one renderer-agnostic record per
// logical public symbol. Field names are stable across versions;
// downstream renderers depend on them.
type Node struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Name   string `json:"name"`
	Module string `json:"module"`

	// Signatures carries the full ordered overload list for function
	// sets, or the single rendered signature otherwise.
	Signatures []string `json:"signatures,omitempty"`
	// ImplementationIndex points into Signatures at the body-bearing
	// overload; nil when every part is a bare signature.
	ImplementationIndex *int `json:"implementationIndex,omitempty"`

	Params     []parser.Param `json:"params,omitempty"`
	ReturnType string         `json:"returnType,omitempty"`

	Members  []MemberDoc `json:"members,omitempty"`
	Children []Node      `json:"children,omitempty"`

	Doc                comment.Doc `json:"doc"`
	Deprecated         bool        `json:"deprecated,omitempty"`
	DeprecationReasons []string    `json:"deprecationReasons,omitempty"`

	Locations []parser.Location `json:"locations"`
}

// MemberDoc is one entry of a (possibly merged) member list. Shadowed
// marks a member that replaced a same-key member from an earlier
// augmentation part.
type MemberDoc struct {
	Name      string          `json:"name"`
	Signature string          `json:"signature"`
	Shadowed  bool            `json:"shadowed,omitempty"`
	Loc       parser.Location `json:"location"`
}

// StableID derives the node identifier from (module specifier, name,
// kind) only, so recomputation on unchanged input reproduces the
// identical identifier across runs.
func StableID(module, name, kind string) string {
	h := sha256.Sum256([]byte(module + "\x00" + name + "\x00" + kind))
	return hex.EncodeToString(h[:12])
}
