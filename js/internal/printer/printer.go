// Package printer renders syntax trees as JavaScript source in the layout
// escodegen produces with a four-space indent and zero base indent.
package printer

import (
	"math"
	"strconv"
	"strings"

	"github.com/wippyai/resumable/ast"
)

const indentUnit = "    "

// Operator precedence levels, loosest first.
const (
	precSequence = iota
	precAssignment
	precConditional
	precLogicalOr
	precLogicalAnd
	precBitwiseOr
	precBitwiseXor
	precBitwiseAnd
	precEquality
	precRelational
	precShift
	precAdditive
	precMultiplicative
	precUnary
	precPostfix
	precCall
	precNew
	precMember
	precPrimary
)

var binaryPrec = map[string]int{
	"||": precLogicalOr,
	"&&": precLogicalAnd,
	"|":  precBitwiseOr,
	"^":  precBitwiseXor,
	"&":  precBitwiseAnd,
	"==": precEquality, "!=": precEquality, "===": precEquality, "!==": precEquality,
	"<": precRelational, ">": precRelational, "<=": precRelational, ">=": precRelational,
	"instanceof": precRelational, "in": precRelational,
	"<<": precShift, ">>": precShift, ">>>": precShift,
	"+": precAdditive, "-": precAdditive,
	"*": precMultiplicative, "/": precMultiplicative, "%": precMultiplicative,
}

// Print renders a statement, expression or program. The output has no
// trailing newline.
func Print(n ast.Node) string {
	switch n := n.(type) {
	case *ast.Program:
		lines := make([]string, len(n.Body))
		for i, s := range n.Body {
			lines[i] = statement(s, 0)
		}
		return strings.Join(lines, "\n")
	case ast.Statement:
		return statement(n, 0)
	case ast.Expression:
		return expression(n, 0, precSequence)
	}
	return ""
}

func indent(level int) string {
	return strings.Repeat(indentUnit, level)
}

// statement renders s assuming the caller has already written the
// indentation of its first line.
func statement(s ast.Statement, level int) string {
	switch s := s.(type) {
	case *ast.BlockStatement:
		return block(s, level)
	case *ast.EmptyStatement:
		return ";"
	case *ast.ExpressionStatement:
		out := expression(s.Expression, level, precSequence)
		if strings.HasPrefix(out, "{") || strings.HasPrefix(out, "function") {
			out = "(" + out + ")"
		}
		return out + ";"
	case *ast.VariableDeclaration:
		return variableDeclaration(s, level) + ";"
	case *ast.FunctionDeclaration:
		return "function " + s.ID.Name + params(s.Params) + " " + block(s.Body, level)
	case *ast.ReturnStatement:
		if s.Argument == nil {
			return "return;"
		}
		return "return " + expression(s.Argument, level, precSequence) + ";"
	case *ast.ThrowStatement:
		return "throw " + expression(s.Argument, level, precSequence) + ";"
	case *ast.BreakStatement:
		if s.Label != nil {
			return "break " + s.Label.Name + ";"
		}
		return "break;"
	case *ast.ContinueStatement:
		if s.Label != nil {
			return "continue " + s.Label.Name + ";"
		}
		return "continue;"
	case *ast.IfStatement:
		return ifStatement(s, level)
	case *ast.WhileStatement:
		return "while (" + expression(s.Test, level, precSequence) + ")" + body(s.Body, level)
	case *ast.ForStatement:
		return forStatement(s, level)
	case *ast.SwitchStatement:
		return switchStatement(s, level)
	case *ast.TryStatement:
		out := "try " + block(s.Block, level)
		if s.Handler != nil {
			out += " catch (" + s.Handler.Param.Name + ") " + block(s.Handler.Body, level)
		}
		if s.Finalizer != nil {
			out += " finally " + block(s.Finalizer, level)
		}
		return out
	}
	return ""
}

func block(b *ast.BlockStatement, level int) string {
	var sb strings.Builder
	sb.WriteString("{\n")
	for _, s := range b.Body {
		sb.WriteString(indent(level + 1))
		sb.WriteString(statement(s, level+1))
		sb.WriteByte('\n')
	}
	sb.WriteString(indent(level))
	sb.WriteByte('}')
	return sb.String()
}

// body renders the body of a compound statement: a block stays on the same
// line, anything else goes on its own indented line.
func body(s ast.Statement, level int) string {
	if b, ok := s.(*ast.BlockStatement); ok {
		return " " + block(b, level)
	}
	return "\n" + indent(level+1) + statement(s, level+1)
}

func params(ps []*ast.Identifier) string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.Name
	}
	return "(" + strings.Join(names, ", ") + ")"
}

func variableDeclaration(d *ast.VariableDeclaration, level int) string {
	parts := make([]string, len(d.Declarations))
	for i, decl := range d.Declarations {
		parts[i] = decl.ID.Name
		if decl.Init != nil {
			parts[i] += " = " + expression(decl.Init, level, precAssignment)
		}
	}
	return d.Kind + " " + strings.Join(parts, ", ")
}

func ifStatement(s *ast.IfStatement, level int) string {
	out := "if (" + expression(s.Test, level, precSequence) + ")" + body(s.Consequent, level)
	if s.Alternate == nil {
		return out
	}
	if _, ok := s.Consequent.(*ast.BlockStatement); ok {
		out += " else"
	} else {
		out += "\n" + indent(level) + "else"
	}
	switch alt := s.Alternate.(type) {
	case *ast.IfStatement:
		return out + " " + ifStatement(alt, level)
	default:
		return out + body(alt, level)
	}
}

func forStatement(s *ast.ForStatement, level int) string {
	out := "for ("
	switch init := s.Init.(type) {
	case *ast.VariableDeclaration:
		out += variableDeclaration(init, level)
	case ast.Expression:
		out += expression(init, level, precSequence)
	}
	out += ";"
	if s.Test != nil {
		out += " " + expression(s.Test, level, precSequence)
	}
	out += ";"
	if s.Update != nil {
		out += " " + expression(s.Update, level, precSequence)
	}
	return out + ")" + body(s.Body, level)
}

func switchStatement(s *ast.SwitchStatement, level int) string {
	var sb strings.Builder
	sb.WriteString("switch (")
	sb.WriteString(expression(s.Discriminant, level, precSequence))
	sb.WriteString(") {\n")
	for _, c := range s.Cases {
		sb.WriteString(indent(level))
		if c.Test != nil {
			sb.WriteString("case ")
			sb.WriteString(expression(c.Test, level, precSequence))
			sb.WriteByte(':')
		} else {
			sb.WriteString("default:")
		}
		if len(c.Consequent) == 1 {
			if b, ok := c.Consequent[0].(*ast.BlockStatement); ok {
				sb.WriteByte(' ')
				sb.WriteString(block(b, level+1))
				sb.WriteByte('\n')
				continue
			}
		}
		for _, st := range c.Consequent {
			sb.WriteByte('\n')
			sb.WriteString(indent(level + 1))
			sb.WriteString(statement(st, level+1))
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(indent(level))
	sb.WriteByte('}')
	return sb.String()
}

// Expressions

func precedence(e ast.Expression) int {
	switch e := e.(type) {
	case *ast.SequenceExpression:
		return precSequence
	case *ast.AssignmentExpression:
		return precAssignment
	case *ast.ConditionalExpression:
		return precConditional
	case *ast.LogicalExpression:
		return binaryPrec[e.Operator]
	case *ast.BinaryExpression:
		return binaryPrec[e.Operator]
	case *ast.UnaryExpression:
		return precUnary
	case *ast.UpdateExpression:
		if e.Prefix {
			return precUnary
		}
		return precPostfix
	case *ast.CallExpression:
		return precCall
	case *ast.NewExpression:
		return precNew
	case *ast.MemberExpression:
		return precMember
	case *ast.Literal:
		if v, ok := e.Value.(float64); ok && (v < 0 || math.Signbit(v)) {
			return precUnary
		}
	}
	return precPrimary
}

// expression renders e, parenthesizing it when its own precedence is
// looser than the context requires.
func expression(e ast.Expression, level, required int) string {
	out := bareExpression(e, level)
	if precedence(e) < required {
		return "(" + out + ")"
	}
	return out
}

func bareExpression(e ast.Expression, level int) string {
	switch e := e.(type) {
	case *ast.Identifier:
		return e.Name
	case *ast.Literal:
		return literal(e)
	case *ast.ThisExpression:
		return "this"
	case *ast.ArrayExpression:
		return array(e, level)
	case *ast.ObjectExpression:
		return object(e, level)
	case *ast.FunctionExpression:
		name := " "
		if e.ID != nil {
			name = " " + e.ID.Name
		}
		return "function" + name + params(e.Params) + " " + block(e.Body, level)
	case *ast.SequenceExpression:
		parts := make([]string, len(e.Expressions))
		for i, x := range e.Expressions {
			parts[i] = expression(x, level, precAssignment)
		}
		return strings.Join(parts, ", ")
	case *ast.AssignmentExpression:
		return expression(e.Left, level, precCall) + " " + e.Operator + " " + expression(e.Right, level, precAssignment)
	case *ast.ConditionalExpression:
		return expression(e.Test, level, precLogicalOr) + " ? " +
			expression(e.Consequent, level, precAssignment) + " : " +
			expression(e.Alternate, level, precAssignment)
	case *ast.LogicalExpression:
		return binary(e.Operator, e.Left, e.Right, level)
	case *ast.BinaryExpression:
		return binary(e.Operator, e.Left, e.Right, level)
	case *ast.UnaryExpression:
		arg := expression(e.Argument, level, precUnary)
		switch e.Operator {
		case "typeof", "void", "delete":
			return e.Operator + " " + arg
		case "+", "-":
			if strings.HasPrefix(arg, e.Operator) {
				return e.Operator + " " + arg
			}
		}
		return e.Operator + arg
	case *ast.UpdateExpression:
		if e.Prefix {
			return e.Operator + expression(e.Argument, level, precUnary)
		}
		return expression(e.Argument, level, precPostfix) + e.Operator
	case *ast.CallExpression:
		return expression(e.Callee, level, precCall) + arguments(e.Arguments, level)
	case *ast.NewExpression:
		callee := expression(e.Callee, level, precNew)
		if _, isCall := e.Callee.(*ast.CallExpression); isCall {
			callee = "(" + bareExpression(e.Callee, level) + ")"
		}
		return "new " + callee + arguments(e.Arguments, level)
	case *ast.MemberExpression:
		obj := expression(e.Object, level, precCall)
		if lit, ok := e.Object.(*ast.Literal); ok {
			if _, isNum := lit.Value.(float64); isNum && !strings.HasPrefix(obj, "(") {
				obj = "(" + obj + ")"
			}
		}
		if e.Computed {
			return obj + "[" + expression(e.Property, level, precSequence) + "]"
		}
		return obj + "." + e.Property.(*ast.Identifier).Name
	}
	return ""
}

func binary(op string, left, right ast.Expression, level int) string {
	prec := binaryPrec[op]
	return expression(left, level, prec) + " " + op + " " + expression(right, level, prec+1)
}

func arguments(args []ast.Expression, level int) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = expression(a, level, precAssignment)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func array(a *ast.ArrayExpression, level int) string {
	if len(a.Elements) == 0 {
		return "[]"
	}
	if len(a.Elements) == 1 {
		return "[" + expression(a.Elements[0], level, precAssignment) + "]"
	}
	var sb strings.Builder
	sb.WriteString("[\n")
	for i, el := range a.Elements {
		sb.WriteString(indent(level + 1))
		sb.WriteString(expression(el, level+1, precAssignment))
		if i+1 < len(a.Elements) {
			sb.WriteByte(',')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(indent(level))
	sb.WriteByte(']')
	return sb.String()
}

func object(o *ast.ObjectExpression, level int) string {
	if len(o.Properties) == 0 {
		return "{}"
	}
	if len(o.Properties) == 1 {
		if p := property(o.Properties[0], level+1); !strings.Contains(p, "\n") {
			return "{ " + p + " }"
		}
	}
	var sb strings.Builder
	sb.WriteString("{\n")
	for i, p := range o.Properties {
		sb.WriteString(indent(level + 1))
		sb.WriteString(property(p, level+1))
		if i+1 < len(o.Properties) {
			sb.WriteByte(',')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(indent(level))
	sb.WriteByte('}')
	return sb.String()
}

func property(p *ast.Property, level int) string {
	var key string
	switch k := p.Key.(type) {
	case *ast.Identifier:
		key = k.Name
	case *ast.Literal:
		key = literal(k)
	default:
		key = "[" + expression(k, level, precAssignment) + "]"
	}
	return key + ": " + expression(p.Value, level, precAssignment)
}

func literal(l *ast.Literal) string {
	switch v := l.Value.(type) {
	case nil:
		return "null"
	case bool:
		if v {
			return "true"
		}
		return "false"
	case string:
		return Quote(v)
	case float64:
		return FormatNumber(v)
	}
	return l.Raw
}

// FormatNumber renders a number the way JavaScript's ToString does for the
// common cases: integers without exponent below 1e21, otherwise the
// shortest round-tripping form.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == math.Trunc(v) && math.Abs(v) < 1e21:
		if v == 0 {
			return "0"
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	abs := math.Abs(v)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	// Go writes e+07 / e-07; JavaScript writes e+7 / e-7.
	if i := strings.IndexByte(s, 'e'); i >= 0 {
		mant, exp := s[:i], s[i+1:]
		sign := exp[0]
		digits := strings.TrimLeft(exp[1:], "0")
		s = mant + "e" + string(sign) + digits
	}
	return s
}

// Quote renders s as a single-quoted JavaScript string literal.
func Quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			sb.WriteString(`\'`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\v':
			sb.WriteString(`\v`)
		case '\u2028':
			sb.WriteString(`\u2028`)
		case '\u2029':
			sb.WriteString(`\u2029`)
		default:
			if r < 0x20 {
				sb.WriteString(`\x`)
				sb.WriteString(strconv.FormatInt(int64(r)+0x100, 16)[1:])
				continue
			}
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}
