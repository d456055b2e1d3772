package comment

import "strings"

// ParamDoc documents a single parameter from an @param tag.
type ParamDoc struct {
	Name string `json:"name"`
	Doc  string `json:"doc,omitempty"`
}

// Tag is an unrecognized tag kept verbatim so no information is
// silently dropped.
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

// Doc is the structured record extracted from one comment block. A
// declaration without a preceding block gets the zero value.
type Doc struct {
	Summary           string     `json:"summary,omitempty"`
	Params            []ParamDoc `json:"params,omitempty"`
	Returns           string     `json:"returns,omitempty"`
	Deprecated        bool       `json:"deprecated,omitempty"`
	DeprecationReason string     `json:"deprecationReason,omitempty"`
	Examples          []string   `json:"examples,omitempty"`
	Default           string     `json:"default,omitempty"`
	Visibility        string     `json:"visibility,omitempty"`
	Internal          bool       `json:"internal,omitempty"`
	Tags              []Tag      `json:"tags,omitempty"`
}

// Empty reports whether the record carries no information at all.
func (d *Doc) Empty() bool {
	return d.Summary == "" && len(d.Params) == 0 && d.Returns == "" &&
		!d.Deprecated && len(d.Examples) == 0 && d.Default == "" &&
		d.Visibility == "" && !d.Internal && len(d.Tags) == 0
}

// Parse tokenizes a structured comment block and folds recognized tags
// into typed fields. The first untagged paragraph becomes the summary.
func Parse(text string, tok Tokenizer) Doc {
	var doc Doc
	for _, token := range tok.Tokenize(text) {
		switch token.Tag {
		case "":
			if doc.Summary == "" {
				doc.Summary = token.Body
			} else {
				doc.Summary += "\n" + token.Body
			}
		case "param", "parameter", "arg", "argument":
			body := token.Body
			// A leading {type} annotation precedes the name; skip it.
			if strings.HasPrefix(body, "{") {
				if end := strings.Index(body, "}"); end >= 0 {
					body = strings.TrimSpace(body[end+1:])
				}
			}
			name, rest, _ := strings.Cut(body, " ")
			name = strings.Trim(name, "[]")
			doc.Params = append(doc.Params, ParamDoc{Name: name, Doc: strings.TrimSpace(rest)})
		case "returns", "return":
			doc.Returns = token.Body
		case "deprecated":
			doc.Deprecated = true
			doc.DeprecationReason = token.Body
		case "example":
			doc.Examples = append(doc.Examples, token.Body)
		case "default":
			doc.Default = token.Body
		case "public", "private", "protected":
			doc.Visibility = token.Tag
		case "internal", "ignore":
			doc.Internal = true
		default:
			doc.Tags = append(doc.Tags, Tag{Name: token.Tag, Value: token.Body})
		}
	}
	return doc
}
