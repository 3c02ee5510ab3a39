// Package highlight provides a regex tokenizer mapping snippet text to style
// classes for display.
package highlight

import (
	"regexp"
	"strings"
)

// Token is a highlighted span of snippet text. Offsets are rune indices so
// clients can align tokens with the typing cursor.
type Token struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Class string `json:"class"`
}

// Classes emitted by the tokenizer. Unmatched text renders plain.
const (
	ClassComment = "comment"
	ClassString  = "string"
	ClassNumber  = "number"
	ClassKeyword = "keyword"
)

type rules struct {
	pattern  *regexp.Regexp
	keywords map[string]bool
}

// Group order in the master pattern: comment, string, number, word.
const masterGroups = 4

func buildRules(lineComment string, keywords []string) rules {
	comment := regexp.QuoteMeta(lineComment) + `[^\n]*`
	pattern := `(` + comment + `)` +
		"|(`[^`]*`|\"(?:[^\"\\\\\\n]|\\\\.)*\"|'(?:[^'\\\\\\n]|\\\\.)*')" +
		`|\b(\d+(?:\.\d+)?)\b` +
		`|\b([A-Za-z_][A-Za-z0-9_]*)\b`
	kw := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		kw[k] = true
	}
	return rules{pattern: regexp.MustCompile(pattern), keywords: kw}
}

var languageRules = map[string]rules{
	"go": buildRules("//", []string{
		"break", "case", "chan", "const", "continue", "default", "defer",
		"else", "fallthrough", "for", "func", "go", "goto", "if", "import",
		"interface", "map", "package", "range", "return", "select", "struct",
		"switch", "type", "var",
	}),
	"python": buildRules("#", []string{
		"and", "as", "assert", "async", "await", "break", "class", "continue",
		"def", "del", "elif", "else", "except", "finally", "for", "from",
		"global", "if", "import", "in", "is", "lambda", "none", "nonlocal",
		"not", "or", "pass", "raise", "return", "try", "while", "with", "yield",
	}),
	"javascript": buildRules("//", []string{
		"async", "await", "break", "case", "catch", "class", "const",
		"continue", "default", "delete", "do", "else", "export", "extends",
		"finally", "for", "function", "if", "import", "in", "instanceof",
		"let", "new", "of", "return", "static", "super", "switch", "this",
		"throw", "try", "typeof", "var", "void", "while", "yield",
	}),
	"rust": buildRules("//", []string{
		"as", "break", "const", "continue", "crate", "dyn", "else", "enum",
		"extern", "fn", "for", "if", "impl", "in", "let", "loop", "match",
		"mod", "move", "mut", "pub", "ref", "return", "self", "static",
		"struct", "trait", "type", "unsafe", "use", "where", "while",
	}),
	"ruby": buildRules("#", []string{
		"begin", "break", "case", "class", "def", "do", "else", "elsif",
		"end", "ensure", "false", "for", "if", "in", "module", "next", "nil",
		"not", "or", "raise", "rescue", "return", "self", "then", "true",
		"unless", "until", "when", "while", "yield",
	}),
	"shell": buildRules("#", []string{
		"case", "do", "done", "elif", "else", "esac", "fi", "for", "function",
		"if", "in", "local", "return", "then", "until", "while",
	}),
}

// genericRules cover languages without a dedicated entry: C-style line
// comments, strings and numbers, no keyword set.
var genericRules = buildRules("//", nil)

func rulesFor(language string) rules {
	if r, ok := languageRules[strings.ToLower(language)]; ok {
		return r
	}
	return genericRules
}

// Tokenize scans text and returns highlighted spans in order. It is a display
// aid, not a parser: block comments and multi-line strings degrade to plain
// text, which is acceptable for snippet-sized inputs.
func Tokenize(text, language string) []Token {
	r := rulesFor(language)

	// Regex offsets are bytes; build a byte-to-rune offset table once.
	runeAt := make(map[int]int, len(text)+1)
	n := 0
	for i := range text {
		runeAt[i] = n
		n++
	}
	runeAt[len(text)] = n

	var tokens []Token
	for _, m := range r.pattern.FindAllStringSubmatchIndex(text, -1) {
		class := ""
		start, end := -1, -1
		for g := 1; g <= masterGroups; g++ {
			if m[2*g] < 0 {
				continue
			}
			start, end = m[2*g], m[2*g+1]
			switch g {
			case 1:
				class = ClassComment
			case 2:
				class = ClassString
			case 3:
				class = ClassNumber
			case 4:
				word := strings.ToLower(text[start:end])
				if !r.keywords[word] {
					start = -1
				} else {
					class = ClassKeyword
				}
			}
			break
		}
		if start < 0 {
			continue
		}
		tokens = append(tokens, Token{
			Start: runeAt[start],
			End:   runeAt[end],
			Class: class,
		})
	}
	return tokens
}
