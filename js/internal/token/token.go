package token

import (
	"strings"
	"unicode"
)

type Type int

const (
	EOF Type = iota
	Ident
	Keyword
	String
	Number
	Punct
	Illegal
)

func (t Type) String() string {
	switch t {
	case EOF:
		return "end of input"
	case Ident:
		return "identifier"
	case Keyword:
		return "keyword"
	case String:
		return "string"
	case Number:
		return "number"
	case Punct:
		return "punctuator"
	case Illegal:
		return "illegal token"
	}
	return "unknown"
}

// Token is one lexeme. String tokens carry their decoded value, Number
// tokens their source spelling.
type Token struct {
	Value string
	Type  Type
	Line  int
}

// Is reports whether the token is the given punctuator or keyword.
func (t Token) Is(value string) bool {
	return (t.Type == Punct || t.Type == Keyword) && t.Value == value
}

var keywords = map[string]bool{
	"var": true, "let": true, "const": true, "function": true, "return": true,
	"if": true, "else": true, "while": true, "for": true, "do": true,
	"break": true, "continue": true, "throw": true, "try": true, "catch": true,
	"finally": true, "switch": true, "case": true, "default": true, "new": true,
	"delete": true, "typeof": true, "void": true, "instanceof": true, "in": true,
	"this": true, "null": true, "true": true, "false": true, "with": true,
	"debugger": true,
}

// IsKeyword reports whether name is reserved.
func IsKeyword(name string) bool {
	return keywords[name]
}

// Longest first so the scanner can take the first prefix match.
var punctuators = []string{
	">>>=",
	"===", "!==", ">>>", "<<=", ">>=",
	"==", "!=", "<=", ">=", "&&", "||", "++", "--", "+=", "-=", "*=", "/=",
	"%=", "&=", "|=", "^=", "<<", ">>",
	"{", "}", "(", ")", "[", "]", ";", ",", ".", "<", ">", "+", "-", "*",
	"/", "%", "&", "|", "^", "!", "~", "?", ":", "=",
}

// Tokenize splits JavaScript source into tokens. The result always ends
// with an EOF token. Unrecognised input yields an Illegal token carrying
// the offending text; the parser reports it.
func Tokenize(input string) []Token {
	var tokens []Token
	line := 1
	runes := []rune(input)

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if r == '\n' {
			line++
			continue
		}
		if unicode.IsSpace(r) {
			continue
		}

		// Line comment
		if r == '/' && i+1 < len(runes) && runes[i+1] == '/' {
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			line++
			continue
		}

		// Block comment
		if r == '/' && i+1 < len(runes) && runes[i+1] == '*' {
			i += 2
			for i < len(runes) && !(runes[i] == '*' && i+1 < len(runes) && runes[i+1] == '/') {
				if runes[i] == '\n' {
					line++
				}
				i++
			}
			if i >= len(runes) {
				tokens = append(tokens, Token{"/*", Illegal, line})
				break
			}
			i++
			continue
		}

		// String literal
		if r == '"' || r == '\'' {
			quote := r
			startLine := line
			var b strings.Builder
			i++
			closed := false
			for i < len(runes) {
				c := runes[i]
				if c == quote {
					closed = true
					break
				}
				if c == '\n' {
					break
				}
				if c == '\\' && i+1 < len(runes) {
					i++
					n, adv := unescape(runes[i:])
					b.WriteString(n)
					i += adv
					continue
				}
				b.WriteRune(c)
				i++
			}
			if !closed {
				tokens = append(tokens, Token{"unterminated string", Illegal, startLine})
				break
			}
			tokens = append(tokens, Token{b.String(), String, startLine})
			continue
		}

		// Number
		if unicode.IsDigit(r) || (r == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])) {
			start := i
			if r == '0' && i+1 < len(runes) && (runes[i+1] == 'x' || runes[i+1] == 'X') {
				i += 2
				for i < len(runes) && isHex(runes[i]) {
					i++
				}
			} else {
				for i < len(runes) {
					c := runes[i]
					if unicode.IsDigit(c) || c == '.' || c == 'e' || c == 'E' ||
						((c == '-' || c == '+') && (runes[i-1] == 'e' || runes[i-1] == 'E')) {
						i++
					} else {
						break
					}
				}
			}
			tokens = append(tokens, Token{string(runes[start:i]), Number, line})
			i--
			continue
		}

		// Identifier or keyword
		if r == '$' || r == '_' || unicode.IsLetter(r) {
			start := i
			for i < len(runes) {
				c := runes[i]
				if c == '$' || c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c) {
					i++
				} else {
					break
				}
			}
			word := string(runes[start:i])
			typ := Ident
			if keywords[word] {
				typ = Keyword
			}
			tokens = append(tokens, Token{word, typ, line})
			i--
			continue
		}

		if p := matchPunct(runes[i:]); p != "" {
			tokens = append(tokens, Token{p, Punct, line})
			i += len(p) - 1
			continue
		}

		tokens = append(tokens, Token{string(r), Illegal, line})
	}

	return append(tokens, Token{"", EOF, line})
}

func matchPunct(rest []rune) string {
	for _, p := range punctuators {
		if len(rest) < len(p) {
			continue
		}
		if string(rest[:len(p)]) == p {
			return p
		}
	}
	return ""
}

func isHex(r rune) bool {
	return unicode.IsDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// unescape decodes the escape sequence starting just after a backslash and
// returns the decoded text and the number of runes consumed.
func unescape(rest []rune) (string, int) {
	switch rest[0] {
	case 'n':
		return "\n", 1
	case 't':
		return "\t", 1
	case 'r':
		return "\r", 1
	case 'b':
		return "\b", 1
	case 'f':
		return "\f", 1
	case 'v':
		return "\v", 1
	case '0':
		return "\x00", 1
	case '\n':
		return "", 1
	case 'x':
		if len(rest) >= 3 && isHex(rest[1]) && isHex(rest[2]) {
			return string(rune(hexVal(rest[1:3]))), 3
		}
	case 'u':
		if len(rest) >= 5 && isHex(rest[1]) && isHex(rest[2]) && isHex(rest[3]) && isHex(rest[4]) {
			return string(rune(hexVal(rest[1:5]))), 5
		}
	}
	return string(rest[0]), 1
}

func hexVal(digits []rune) int {
	v := 0
	for _, d := range digits {
		v <<= 4
		switch {
		case d >= '0' && d <= '9':
			v |= int(d - '0')
		case d >= 'a' && d <= 'f':
			v |= int(d-'a') + 10
		case d >= 'A' && d <= 'F':
			v |= int(d-'A') + 10
		}
	}
	return v
}
