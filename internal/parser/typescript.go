package parser

import (
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"docgraph/internal/comment"
)

// TypeScriptExtractor adapts tree-sitter TS/JS syntax trees into the
// declaration-centric Module view. The same extractor serves plain
// JavaScript; type-bearing constructs simply never appear there.
type TypeScriptExtractor struct{}

func (e *TypeScriptExtractor) Extract(root *sitter.Node, source []byte, specifier string) (*Module, error) {
	s := &tsScan{
		source:    source,
		specifier: specifier,
		tok:       comment.BlockTokenizer{},
	}

	mod := &Module{
		Specifier: specifier,
		ParsedAt:  time.Now(),
	}
	mod.Decls = s.scanStatements(root, mod, true)
	return mod, nil
}

type tsScan struct {
	source    []byte
	specifier string
	tok       comment.Tokenizer
}

// scanStatements walks the ordered statements of a program or
// namespace body in a single pass, pairing each declaration with the
// nearest unconsumed structured comment that precedes it. When mod is
// non-nil (top level), import/export directives are recorded on it.
func (s *tsScan) scanStatements(container *sitter.Node, mod *Module, topLevel bool) []Decl {
	var decls []Decl
	var pending comment.Doc
	hasPending := false
	seenStatement := false

	takePending := func() comment.Doc {
		if !hasPending {
			return comment.Doc{}
		}
		hasPending = false
		d := pending
		pending = comment.Doc{}
		return d
	}

	for i := uint(0); i < container.NamedChildCount(); i++ {
		n := container.NamedChild(i)

		switch n.Kind() {
		case "comment":
			if text := s.text(n); comment.IsStructured(text) {
				pending = comment.Parse(text, s.tok)
				hasPending = true
			}
			continue

		case "import_statement":
			// A leading doc comment before the first import documents
			// the module itself.
			if topLevel && !seenStatement && hasPending && mod != nil && mod.Doc.Empty() {
				mod.Doc = takePending()
			}
			takePending()
			if mod != nil {
				if spec := s.importSource(n); spec != "" {
					mod.Imports = append(mod.Imports, ImportDirective{
						Specifier: spec,
						Loc:       s.loc(n),
					})
				}
			}

		case "export_statement":
			doc := takePending()
			s.scanExport(n, mod, &decls, doc)

		default:
			doc := takePending()
			if ds := s.declsFrom(n, false, doc); ds != nil {
				decls = append(decls, ds...)
			}
		}
		seenStatement = true
	}

	// A file holding nothing but a doc comment documents the module.
	if topLevel && !seenStatement && hasPending && mod != nil && mod.Doc.Empty() {
		mod.Doc = pending
	}

	return decls
}

func (s *tsScan) scanExport(n *sitter.Node, mod *Module, decls *[]Decl, doc comment.Doc) {
	from := ""
	if src := n.ChildByFieldName("source"); src != nil {
		from = s.stringLiteral(src)
	}

	isDefault := false
	var clause, nsExport *sitter.Node
	hasStar := false
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		switch c.Kind() {
		case "default":
			isDefault = true
		case "export_clause":
			clause = c
		case "namespace_export":
			nsExport = c
		case "*":
			hasStar = true
		}
	}

	// export * as ns from "m"
	if nsExport != nil && mod != nil {
		alias := ""
		for i := uint(0); i < nsExport.NamedChildCount(); i++ {
			alias = strings.Trim(s.text(nsExport.NamedChild(i)), `"'`)
		}
		mod.Exports = append(mod.Exports, ExportDirective{
			Kind:         ExportNamespace,
			ExportedName: alias,
			From:         from,
			Loc:          s.loc(n),
		})
		return
	}

	// export * from "m"
	if hasStar && mod != nil {
		mod.Exports = append(mod.Exports, ExportDirective{
			Kind: ExportStar,
			From: from,
			Loc:  s.loc(n),
		})
		return
	}

	// export { a, b as c } [from "m"]
	if clause != nil && mod != nil {
		for i := uint(0); i < clause.NamedChildCount(); i++ {
			spec := clause.NamedChild(i)
			if spec.Kind() != "export_specifier" {
				continue
			}
			local := ""
			if name := spec.ChildByFieldName("name"); name != nil {
				local = strings.Trim(s.text(name), `"'`)
			}
			exported := local
			if alias := spec.ChildByFieldName("alias"); alias != nil {
				exported = strings.Trim(s.text(alias), `"'`)
			}
			mod.Exports = append(mod.Exports, ExportDirective{
				Kind:         ExportNamed,
				LocalName:    local,
				ExportedName: exported,
				From:         from,
				Loc:          s.loc(spec),
			})
		}
		return
	}

	// export [default] <declaration>
	if declNode := n.ChildByFieldName("declaration"); declNode != nil {
		ds := s.declsFrom(declNode, true, doc)
		for i := range ds {
			ds[i].Default = isDefault
			name := ds[i].Name
			if name == "" {
				name = "default"
				ds[i].Name = name
			}
			if mod != nil {
				kind := ExportNamed
				if isDefault {
					kind = ExportDefault
				}
				mod.Exports = append(mod.Exports, ExportDirective{
					Kind:         kind,
					LocalName:    name,
					ExportedName: name,
					Loc:          s.loc(n),
				})
			}
		}
		*decls = append(*decls, ds...)
		return
	}

	// export default <expression>
	if isDefault {
		if value := n.ChildByFieldName("value"); value != nil {
			d := Decl{
				Name:      "default",
				Kind:      KindVariable,
				Exported:  true,
				Default:   true,
				Signature: s.text(value),
				Doc:       doc,
				Loc:       s.loc(n),
			}
			*decls = append(*decls, d)
			if mod != nil {
				mod.Exports = append(mod.Exports, ExportDirective{
					Kind:      ExportDefault,
					LocalName: "default",
					Loc:       s.loc(n),
				})
			}
		}
	}
}

// declsFrom converts one declaration statement into zero or more
// declarations. Variable statements may declare several names.
func (s *tsScan) declsFrom(n *sitter.Node, exported bool, doc comment.Doc) []Decl {
	switch n.Kind() {
	case "function_declaration", "generator_function_declaration":
		d := s.function(n, exported, doc)
		d.HasBody = n.ChildByFieldName("body") != nil
		return []Decl{d}

	case "function_signature":
		d := s.function(n, exported, doc)
		d.HasBody = false
		return []Decl{d}

	case "class_declaration", "abstract_class_declaration":
		return []Decl{{
			Name:      s.nameOf(n),
			Kind:      KindClass,
			Exported:  exported,
			Signature: s.headerText(n),
			Members:   s.members(n.ChildByFieldName("body")),
			Doc:       doc,
			Loc:       s.loc(n),
		}}

	case "interface_declaration":
		return []Decl{{
			Name:      s.nameOf(n),
			Kind:      KindInterface,
			Exported:  exported,
			Signature: s.headerText(n),
			Members:   s.members(n.ChildByFieldName("body")),
			Doc:       doc,
			Loc:       s.loc(n),
		}}

	case "type_alias_declaration":
		return []Decl{{
			Name:      s.nameOf(n),
			Kind:      KindTypeAlias,
			Exported:  exported,
			Signature: strings.TrimSuffix(s.text(n), ";"),
			Doc:       doc,
			Loc:       s.loc(n),
		}}

	case "enum_declaration":
		return []Decl{{
			Name:      s.nameOf(n),
			Kind:      KindEnum,
			Exported:  exported,
			Signature: s.headerText(n),
			Members:   s.members(n.ChildByFieldName("body")),
			Doc:       doc,
			Loc:       s.loc(n),
		}}

	case "lexical_declaration", "variable_declaration":
		var out []Decl
		for i := uint(0); i < n.NamedChildCount(); i++ {
			c := n.NamedChild(i)
			if c.Kind() != "variable_declarator" {
				continue
			}
			name := ""
			if nm := c.ChildByFieldName("name"); nm != nil {
				name = s.text(nm)
			}
			sig := strings.TrimSuffix(s.text(c), ";")
			typ := ""
			if tn := c.ChildByFieldName("type"); tn != nil {
				typ = strings.TrimSpace(strings.TrimPrefix(s.text(tn), ":"))
			}
			out = append(out, Decl{
				Name:       name,
				Kind:       KindVariable,
				Exported:   exported,
				Signature:  sig,
				ReturnType: typ,
				Doc:        doc,
				Loc:        s.loc(c),
			})
		}
		return out

	case "internal_module", "module":
		d := Decl{
			Name:      strings.Trim(s.nameOf(n), `"'`),
			Kind:      KindNamespace,
			Exported:  exported,
			Signature: s.headerText(n),
			Doc:       doc,
			Loc:       s.loc(n),
		}
		if body := n.ChildByFieldName("body"); body != nil {
			d.Children = s.scanStatements(body, nil, false)
		}
		return []Decl{d}

	case "ambient_declaration":
		// declare function f(): void; and friends wrap an inner
		// declaration.
		var out []Decl
		for i := uint(0); i < n.NamedChildCount(); i++ {
			out = append(out, s.declsFrom(n.NamedChild(i), exported, doc)...)
		}
		return out

	case "expression_statement", "statement_block", "empty_statement":
		return nil
	}
	return nil
}

func (s *tsScan) function(n *sitter.Node, exported bool, doc comment.Doc) Decl {
	params, ret := s.signatureParts(n)
	return Decl{
		Name:       s.nameOf(n),
		Kind:       KindFunction,
		Exported:   exported,
		Signature:  s.headerText(n),
		Params:     params,
		ReturnType: ret,
		Doc:        doc,
		Loc:        s.loc(n),
	}
}

func (s *tsScan) signatureParts(fn *sitter.Node) ([]Param, string) {
	var params []Param
	if list := fn.ChildByFieldName("parameters"); list != nil {
		for i := uint(0); i < list.NamedChildCount(); i++ {
			p := list.NamedChild(i)
			kind := p.Kind()
			if kind != "required_parameter" && kind != "optional_parameter" &&
				kind != "identifier" && kind != "rest_pattern" {
				continue
			}
			param := Param{Optional: kind == "optional_parameter"}
			if pat := p.ChildByFieldName("pattern"); pat != nil {
				param.Name = s.text(pat)
			} else {
				param.Name = s.text(p)
			}
			if tn := p.ChildByFieldName("type"); tn != nil {
				param.Type = strings.TrimSpace(strings.TrimPrefix(s.text(tn), ":"))
			}
			params = append(params, param)
		}
	}

	ret := ""
	if rt := fn.ChildByFieldName("return_type"); rt != nil {
		ret = strings.TrimSpace(strings.TrimPrefix(s.text(rt), ":"))
	}
	return params, ret
}

func (s *tsScan) members(body *sitter.Node) []Member {
	if body == nil {
		return nil
	}
	var members []Member
	for i := uint(0); i < body.NamedChildCount(); i++ {
		m := body.NamedChild(i)
		if m.Kind() == "comment" {
			continue
		}
		name := ""
		if nm := m.ChildByFieldName("name"); nm != nil {
			name = strings.Trim(s.text(nm), `"'`)
		}
		sig := strings.TrimRight(strings.TrimSpace(s.text(m)), ";,")
		if mb := m.ChildByFieldName("body"); mb != nil {
			sig = strings.TrimSpace(string(s.source[m.StartByte():mb.StartByte()]))
		}
		members = append(members, Member{
			Name:      name,
			Signature: sig,
			Loc:       s.loc(m),
		})
	}
	return members
}

func (s *tsScan) importSource(n *sitter.Node) string {
	if src := n.ChildByFieldName("source"); src != nil {
		return s.stringLiteral(src)
	}
	return ""
}

func (s *tsScan) nameOf(n *sitter.Node) string {
	if nm := n.ChildByFieldName("name"); nm != nil {
		return s.text(nm)
	}
	return ""
}

// headerText renders a declaration's signature: its source text up to
// the body, or the whole node when there is none.
func (s *tsScan) headerText(n *sitter.Node) string {
	end := n.EndByte()
	if body := n.ChildByFieldName("body"); body != nil {
		end = body.StartByte()
	}
	return strings.TrimSuffix(strings.TrimSpace(string(s.source[n.StartByte():end])), ";")
}

func (s *tsScan) stringLiteral(n *sitter.Node) string {
	return strings.Trim(s.text(n), "\"'`")
}

func (s *tsScan) text(n *sitter.Node) string {
	return string(s.source[n.StartByte():n.EndByte()])
}

func (s *tsScan) loc(n *sitter.Node) Location {
	return Location{
		File:   s.specifier,
		Line:   int(n.StartPosition().Row) + 1,
		Column: int(n.StartPosition().Column) + 1,
	}
}
