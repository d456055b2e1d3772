package comment

import "strings"

// Token is one (tag, body) pair produced from a structured comment
// block. The leading untagged text is emitted with an empty Tag.
type Token struct {
	Tag  string
	Body string
}

// Tokenizer splits the text of a structured comment block into tokens.
type Tokenizer interface {
	Tokenize(text string) []Token
}

// BlockTokenizer tokenizes /** ... */ blocks. Each line beginning with
// @tag starts a new token; following lines accumulate into its body
// until the next tag line.
type BlockTokenizer struct{}

func (BlockTokenizer) Tokenize(text string) []Token {
	var tokens []Token
	cur := Token{}
	flush := func() {
		cur.Body = strings.TrimSpace(cur.Body)
		if cur.Tag != "" || cur.Body != "" {
			tokens = append(tokens, cur)
		}
		cur = Token{}
	}

	for _, line := range strings.Split(Strip(text), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "@") {
			flush()
			tag, rest, _ := strings.Cut(trimmed[1:], " ")
			cur.Tag = tag
			cur.Body = strings.TrimSpace(rest)
			continue
		}
		if cur.Body != "" {
			cur.Body += "\n"
		}
		cur.Body += trimmed
	}
	flush()
	return tokens
}

// Strip removes the comment delimiters and per-line asterisk gutters
// from a /** ... */ block.
func Strip(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "/**")
	text = strings.TrimPrefix(text, "/*")
	text = strings.TrimSuffix(text, "*/")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "*") {
			line = strings.TrimPrefix(line, "*")
			line = strings.TrimPrefix(line, " ")
		}
		lines[i] = line
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// IsStructured reports whether raw comment text is a structured block
// (a /** doc comment, not a plain // or /* comment).
func IsStructured(text string) bool {
	return strings.HasPrefix(text, "/**") && !strings.HasPrefix(text, "/***")
}
