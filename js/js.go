// Package js parses a JavaScript subset into ast trees and renders trees
// back to source.
//
// Parse accepts ES5 statements (plus let/const, treated as var by the
// transpiler). Generate prints in the escodegen layout with four-space
// indentation, which is also the layout the transpiler's golden tests use.
package js

import (
	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/js/internal/parser"
	"github.com/wippyai/resumable/js/internal/printer"
	"github.com/wippyai/resumable/js/internal/token"
)

// Parse parses source text into a program tree. Syntax errors are
// *errors.Error values in the parse phase carrying the source line.
func Parse(source string) (*ast.Program, error) {
	tokens := token.Tokenize(source)
	p := parser.New(tokens)
	return p.Parse()
}

// Generate renders a node as source text without a trailing newline.
func Generate(n ast.Node) string {
	return printer.Print(n)
}

// Quote renders s as a single-quoted string literal.
func Quote(s string) string {
	return printer.Quote(s)
}

// FormatNumber renders v the way JavaScript converts numbers to strings.
func FormatNumber(v float64) string {
	return printer.FormatNumber(v)
}
