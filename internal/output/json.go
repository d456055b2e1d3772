package output

import (
	"bytes"
	"encoding/json"

	"docgraph/internal/diag"
	"docgraph/internal/doc"
)

// Result is the serializable outcome of one pipeline run: the ordered
// best-effort node collection plus every diagnostic, never one
// instead of the other.
type Result struct {
	Entries     []string          `json:"entries"`
	Nodes       []doc.Node        `json:"nodes"`
	Diagnostics []diag.Diagnostic `json:"diagnostics"`
}

// JSONGenerator renders a Result with stable field names and ordering
// so unchanged inputs produce byte-identical output.
type JSONGenerator struct {
	result *Result
}

func NewJSONGenerator(result *Result) *JSONGenerator {
	return &JSONGenerator{result: result}
}

func (g *JSONGenerator) Generate() ([]byte, error) {
	if g.result.Nodes == nil {
		g.result.Nodes = []doc.Node{}
	}
	if g.result.Diagnostics == nil {
		g.result.Diagnostics = []diag.Diagnostic{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g.result); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
