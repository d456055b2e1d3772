package parser

import (
	"fmt"
	"path"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ParseError reports malformed source. It carries the position of the
// first syntax error tree-sitter found.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Column, e.Message)
}

type Extractor interface {
	Extract(root *sitter.Node, source []byte, specifier string) (*Module, error)
}

// Parser turns raw module source into the declaration-centric Module
// view via a tree-sitter grammar and a language extractor.
type Parser struct {
	loader     *GrammarLoader
	extractors map[string]Extractor
}

func NewParser(loader *GrammarLoader) *Parser {
	p := &Parser{
		loader:     loader,
		extractors: make(map[string]Extractor),
	}
	ts := &TypeScriptExtractor{}
	p.extractors["typescript"] = ts
	p.extractors["tsx"] = ts
	p.extractors["javascript"] = ts
	return p
}

func (p *Parser) RegisterExtractor(lang string, e Extractor) {
	p.extractors[lang] = e
}

// ParseModule parses content for the given canonical specifier. The
// language is chosen from the specifier's extension.
func (p *Parser) ParseModule(specifier string, content []byte) (*Module, error) {
	lang := DetectLanguage(specifier)
	if lang == "" {
		return nil, &ParseError{Line: 1, Column: 1, Message: fmt.Sprintf("unsupported file type: %s", specifier)}
	}

	grammar := p.loader.Language(lang)
	if grammar == nil {
		return nil, fmt.Errorf("grammar not loaded: %s", lang)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, &ParseError{Line: 1, Column: 1, Message: "parse failed"}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		if bad := firstErrorNode(root); bad != nil {
			return nil, &ParseError{
				Line:    int(bad.StartPosition().Row) + 1,
				Column:  int(bad.StartPosition().Column) + 1,
				Message: "syntax error",
			}
		}
		return nil, &ParseError{Line: 1, Column: 1, Message: "syntax error"}
	}

	extractor := p.extractors[lang]
	if extractor == nil {
		return nil, fmt.Errorf("no extractor for: %s", lang)
	}

	mod, err := extractor.Extract(root, content, specifier)
	if err != nil {
		return nil, err
	}
	mod.Language = lang
	return mod, nil
}

func DetectLanguage(specifier string) string {
	switch path.Ext(specifier) {
	case ".ts", ".mts", ".cts":
		return "typescript"
	case ".tsx":
		return "tsx"
	case ".js", ".mjs", ".cjs":
		return "javascript"
	default:
		return ""
	}
}

func firstErrorNode(node *sitter.Node) *sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if found := firstErrorNode(node.Child(i)); found != nil {
			return found
		}
	}
	return nil
}
