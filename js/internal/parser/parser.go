package parser

import (
	"strconv"
	"strings"

	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/errors"
	"github.com/wippyai/resumable/js/internal/token"
)

type Parser struct {
	tokens []token.Token
	pos    int
	// noIn disables the `in` operator while parsing a for-statement init.
	noIn bool
}

func New(tokens []token.Token) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != token.EOF {
		tokens = append(tokens, token.Token{Type: token.EOF})
	}
	return &Parser{tokens: tokens}
}

func (p *Parser) Parse() (*ast.Program, error) {
	prog := &ast.Program{Body: []ast.Statement{}}
	for p.peek().Type != token.EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Body = append(prog.Body, stmt)
	}
	return prog, nil
}

func (p *Parser) peek() token.Token {
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(offset int) token.Token {
	if p.pos+offset >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+offset]
}

func (p *Parser) next() token.Token {
	t := p.tokens[p.pos]
	if t.Type != token.EOF {
		p.pos++
	}
	return t
}

func (p *Parser) prevLine() int {
	if p.pos == 0 {
		return 0
	}
	return p.tokens[p.pos-1].Line
}

func (p *Parser) errorf(t token.Token, format string, args ...any) error {
	if t.Type == token.Illegal {
		return errors.ParseFailed(t.Line, "illegal token %q", t.Value)
	}
	return errors.ParseFailed(t.Line, format, args...)
}

func (p *Parser) unexpected(t token.Token) error {
	if t.Type == token.EOF {
		return p.errorf(t, "unexpected end of input")
	}
	return p.errorf(t, "unexpected %v %q", t.Type, t.Value)
}

func (p *Parser) expect(value string) (token.Token, error) {
	t := p.next()
	if !t.Is(value) {
		if t.Type == token.EOF || t.Type == token.Illegal {
			return t, p.unexpected(t)
		}
		return t, p.errorf(t, "expected %q, got %q", value, t.Value)
	}
	return t, nil
}

func (p *Parser) accept(value string) bool {
	if p.peek().Is(value) {
		p.next()
		return true
	}
	return false
}

func (p *Parser) expectIdent() (*ast.Identifier, error) {
	t := p.next()
	if t.Type != token.Ident {
		if t.Type == token.EOF || t.Type == token.Illegal {
			return nil, p.unexpected(t)
		}
		return nil, p.errorf(t, "expected identifier, got %q", t.Value)
	}
	return ast.Ident(t.Value), nil
}

// consumeSemicolon applies automatic semicolon insertion: a missing `;` is
// accepted before `}`, at end of input, or after a line break.
func (p *Parser) consumeSemicolon() error {
	t := p.peek()
	switch {
	case t.Is(";"):
		p.next()
		return nil
	case t.Is("}"), t.Type == token.EOF, t.Line > p.prevLine():
		return nil
	}
	return p.unexpected(t)
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	t := p.peek()
	if t.Type == token.Illegal {
		return nil, p.unexpected(t)
	}
	if t.Type == token.Keyword {
		switch t.Value {
		case "var", "let", "const":
			decl, err := p.parseVariableDeclaration()
			if err != nil {
				return nil, err
			}
			return decl, p.consumeSemicolon()
		case "function":
			return p.parseFunctionDeclaration()
		case "if":
			return p.parseIf()
		case "while":
			return p.parseWhile()
		case "for":
			return p.parseFor()
		case "return":
			return p.parseReturn()
		case "break", "continue":
			return p.parseJump()
		case "throw":
			return p.parseThrow()
		case "switch":
			return p.parseSwitch()
		case "try":
			return p.parseTry()
		case "do", "with", "debugger":
			return nil, p.errorf(t, "%q statements are not supported", t.Value)
		}
	}
	if t.Is("{") {
		return p.parseBlock()
	}
	if t.Is(";") {
		p.next()
		return &ast.EmptyStatement{}, nil
	}
	if t.Type == token.Ident && p.peekAt(1).Is(":") {
		return nil, p.errorf(t, "labelled statements are not supported")
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return ast.Expr(expr), p.consumeSemicolon()
}

func (p *Parser) parseBlock() (*ast.BlockStatement, error) {
	if _, err := p.expect("{"); err != nil {
		return nil, err
	}
	block := ast.Block()
	for !p.peek().Is("}") {
		if p.peek().Type == token.EOF {
			return nil, p.unexpected(p.peek())
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Body = append(block.Body, stmt)
	}
	p.next()
	return block, nil
}

func (p *Parser) parseVariableDeclaration() (*ast.VariableDeclaration, error) {
	kind := p.next().Value
	decl := &ast.VariableDeclaration{Kind: kind}
	for {
		id, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		d := &ast.VariableDeclarator{ID: id}
		if p.accept("=") {
			d.Init, err = p.parseAssignment()
			if err != nil {
				return nil, err
			}
		}
		decl.Declarations = append(decl.Declarations, d)
		if !p.accept(",") {
			return decl, nil
		}
	}
}

func (p *Parser) parseParams() ([]*ast.Identifier, error) {
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	params := []*ast.Identifier{}
	for !p.peek().Is(")") {
		id, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		params = append(params, id)
		if !p.accept(",") {
			break
		}
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *Parser) parseFunctionDeclaration() (*ast.FunctionDeclaration, error) {
	p.next()
	id, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FunctionDeclaration{ID: id, Params: params, Body: body}, nil
}

func (p *Parser) parseFunctionExpression() (*ast.FunctionExpression, error) {
	p.next()
	fn := &ast.FunctionExpression{}
	if p.peek().Type == token.Ident {
		fn.ID = ast.Ident(p.next().Value)
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	fn.Params = params
	if fn.Body, err = p.parseBlock(); err != nil {
		return nil, err
	}
	return fn, nil
}

func (p *Parser) parseParenExpression() (ast.Expression, error) {
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *Parser) parseIf() (*ast.IfStatement, error) {
	p.next()
	test, err := p.parseParenExpression()
	if err != nil {
		return nil, err
	}
	cons, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	stmt := &ast.IfStatement{Test: test, Consequent: cons}
	if p.accept("else") {
		if stmt.Alternate, err = p.parseStatement(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parseWhile() (*ast.WhileStatement, error) {
	p.next()
	test, err := p.parseParenExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStatement{Test: test, Body: body}, nil
}

func (p *Parser) parseFor() (*ast.ForStatement, error) {
	forTok := p.next()
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	stmt := &ast.ForStatement{}

	if !p.peek().Is(";") {
		p.noIn = true
		var err error
		if t := p.peek(); t.Is("var") || t.Is("let") || t.Is("const") {
			stmt.Init, err = p.parseVariableDeclaration()
		} else {
			stmt.Init, err = p.parseExpression()
		}
		p.noIn = false
		if err != nil {
			return nil, err
		}
	}
	if p.peek().Is("in") {
		return nil, p.errorf(forTok, "for-in statements are not supported")
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}

	var err error
	if !p.peek().Is(";") {
		if stmt.Test, err = p.parseExpression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	if !p.peek().Is(")") {
		if stmt.Update, err = p.parseExpression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	if stmt.Body, err = p.parseStatement(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseReturn() (*ast.ReturnStatement, error) {
	p.next()
	stmt := &ast.ReturnStatement{}
	t := p.peek()
	if t.Is(";") || t.Is("}") || t.Type == token.EOF || t.Line > p.prevLine() {
		return stmt, p.consumeSemicolon()
	}
	arg, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	stmt.Argument = arg
	return stmt, p.consumeSemicolon()
}

func (p *Parser) parseJump() (ast.Statement, error) {
	kw := p.next()
	var label *ast.Identifier
	if t := p.peek(); t.Type == token.Ident && t.Line == kw.Line {
		label = ast.Ident(p.next().Value)
	}
	if err := p.consumeSemicolon(); err != nil {
		return nil, err
	}
	if kw.Value == "break" {
		return &ast.BreakStatement{Label: label}, nil
	}
	return &ast.ContinueStatement{Label: label}, nil
}

func (p *Parser) parseThrow() (*ast.ThrowStatement, error) {
	kw := p.next()
	if p.peek().Line > kw.Line {
		return nil, p.errorf(kw, "illegal newline after throw")
	}
	arg, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.ThrowStatement{Argument: arg}, p.consumeSemicolon()
}

func (p *Parser) parseSwitch() (*ast.SwitchStatement, error) {
	p.next()
	disc, err := p.parseParenExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect("{"); err != nil {
		return nil, err
	}
	stmt := &ast.SwitchStatement{Discriminant: disc}
	for !p.accept("}") {
		c := &ast.SwitchCase{Consequent: []ast.Statement{}}
		t := p.next()
		switch {
		case t.Is("case"):
			if c.Test, err = p.parseExpression(); err != nil {
				return nil, err
			}
		case t.Is("default"):
		default:
			return nil, p.unexpected(t)
		}
		if _, err := p.expect(":"); err != nil {
			return nil, err
		}
		for {
			n := p.peek()
			if n.Is("case") || n.Is("default") || n.Is("}") || n.Type == token.EOF {
				break
			}
			s, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			c.Consequent = append(c.Consequent, s)
		}
		stmt.Cases = append(stmt.Cases, c)
	}
	return stmt, nil
}

func (p *Parser) parseTry() (*ast.TryStatement, error) {
	tryTok := p.next()
	block, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := &ast.TryStatement{Block: block}
	if p.accept("catch") {
		if _, err := p.expect("("); err != nil {
			return nil, err
		}
		param, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(")"); err != nil {
			return nil, err
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		stmt.Handler = &ast.CatchClause{Param: param, Body: body}
	}
	if p.accept("finally") {
		if stmt.Finalizer, err = p.parseBlock(); err != nil {
			return nil, err
		}
	}
	if stmt.Handler == nil && stmt.Finalizer == nil {
		return nil, p.errorf(tryTok, "missing catch or finally after try")
	}
	return stmt, nil
}

// Expressions

func (p *Parser) parseExpression() (ast.Expression, error) {
	expr, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	if !p.peek().Is(",") {
		return expr, nil
	}
	seq := &ast.SequenceExpression{Expressions: []ast.Expression{expr}}
	for p.accept(",") {
		e, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		seq.Expressions = append(seq.Expressions, e)
	}
	return seq, nil
}

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"<<=": true, ">>=": true, ">>>=": true, "&=": true, "|=": true, "^=": true,
}

func (p *Parser) parseAssignment() (ast.Expression, error) {
	start := p.peek()
	left, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if t.Type != token.Punct || !assignOps[t.Value] {
		return left, nil
	}
	if !isAssignable(left) {
		return nil, p.errorf(start, "invalid assignment target")
	}
	p.next()
	right, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	return &ast.AssignmentExpression{Operator: t.Value, Left: left, Right: right}, nil
}

func isAssignable(e ast.Expression) bool {
	switch e.(type) {
	case *ast.Identifier, *ast.MemberExpression:
		return true
	}
	return false
}

func (p *Parser) parseConditional() (ast.Expression, error) {
	test, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if !p.accept("?") {
		return test, nil
	}
	noIn := p.noIn
	p.noIn = false
	cons, err := p.parseAssignment()
	p.noIn = noIn
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(":"); err != nil {
		return nil, err
	}
	alt, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	return &ast.ConditionalExpression{Test: test, Consequent: cons, Alternate: alt}, nil
}

// Precedence of binary and logical operators, loosest first.
var binaryPrec = map[string]int{
	"||": 1,
	"&&": 2,
	"|":  3,
	"^":  4,
	"&":  5,
	"==": 6, "!=": 6, "===": 6, "!==": 6,
	"<": 7, ">": 7, "<=": 7, ">=": 7, "instanceof": 7, "in": 7,
	"<<": 8, ">>": 8, ">>>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
}

func (p *Parser) binaryOp() (string, int) {
	t := p.peek()
	if t.Type != token.Punct && t.Type != token.Keyword {
		return "", 0
	}
	if t.Value == "in" && p.noIn {
		return "", 0
	}
	prec, ok := binaryPrec[t.Value]
	if !ok {
		return "", 0
	}
	return t.Value, prec
}

// parseBinary is precedence climbing over binaryPrec; every level is
// left-associative.
func (p *Parser) parseBinary(minPrec int) (ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, prec := p.binaryOp()
		if prec == 0 || prec <= minPrec {
			return left, nil
		}
		p.next()
		right, err := p.parseBinary(prec)
		if err != nil {
			return nil, err
		}
		if op == "||" || op == "&&" {
			left = ast.Logical(op, left, right)
		} else {
			left = ast.Binary(op, left, right)
		}
	}
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	t := p.peek()
	switch {
	case t.Is("!"), t.Is("-"), t.Is("+"), t.Is("~"), t.Is("typeof"), t.Is("void"), t.Is("delete"):
		p.next()
		arg, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpression{Operator: t.Value, Argument: arg}, nil
	case t.Is("++"), t.Is("--"):
		p.next()
		arg, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if !isAssignable(arg) {
			return nil, p.errorf(t, "invalid %s operand", t.Value)
		}
		return &ast.UpdateExpression{Operator: t.Value, Prefix: true, Argument: arg}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Expression, error) {
	expr, err := p.parseCallMember()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if (t.Is("++") || t.Is("--")) && t.Line == p.prevLine() {
		if !isAssignable(expr) {
			return nil, p.errorf(t, "invalid %s operand", t.Value)
		}
		p.next()
		return &ast.UpdateExpression{Operator: t.Value, Argument: expr}, nil
	}
	return expr, nil
}

func (p *Parser) parseArguments() ([]ast.Expression, error) {
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	var args []ast.Expression
	for !p.peek().Is(")") {
		a, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if !p.accept(",") {
			break
		}
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parseNew() (ast.Expression, error) {
	p.next()
	var callee ast.Expression
	var err error
	if p.peek().Is("new") {
		callee, err = p.parseNew()
	} else {
		callee, err = p.parsePrimary()
	}
	if err != nil {
		return nil, err
	}
	for {
		if callee, err = p.parseMemberTail(callee); err != nil {
			return nil, err
		}
		if !p.peek().Is(".") && !p.peek().Is("[") {
			break
		}
	}
	n := &ast.NewExpression{Callee: callee}
	if p.peek().Is("(") {
		if n.Arguments, err = p.parseArguments(); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// parseMemberTail consumes one .name or [expr] suffix if present.
func (p *Parser) parseMemberTail(obj ast.Expression) (ast.Expression, error) {
	switch {
	case p.accept("."):
		t := p.next()
		if t.Type != token.Ident && t.Type != token.Keyword {
			return nil, p.errorf(t, "expected property name, got %q", t.Value)
		}
		return ast.Member(obj, t.Value), nil
	case p.accept("["):
		prop, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect("]"); err != nil {
			return nil, err
		}
		return &ast.MemberExpression{Object: obj, Property: prop, Computed: true}, nil
	}
	return obj, nil
}

func (p *Parser) parseCallMember() (ast.Expression, error) {
	var expr ast.Expression
	var err error
	if p.peek().Is("new") {
		expr, err = p.parseNew()
	} else {
		expr, err = p.parsePrimary()
	}
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		switch {
		case t.Is("."), t.Is("["):
			if expr, err = p.parseMemberTail(expr); err != nil {
				return nil, err
			}
		case t.Is("("):
			args, err := p.parseArguments()
			if err != nil {
				return nil, err
			}
			expr = ast.Call(expr, args...)
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	t := p.peek()
	switch t.Type {
	case token.Ident:
		p.next()
		return ast.Ident(t.Value), nil
	case token.Number:
		p.next()
		v, err := parseNumber(t.Value)
		if err != nil {
			return nil, p.errorf(t, "invalid number %q", t.Value)
		}
		return &ast.Literal{Value: v, Raw: t.Value}, nil
	case token.String:
		p.next()
		return ast.String(t.Value), nil
	case token.Keyword:
		switch t.Value {
		case "this":
			p.next()
			return &ast.ThisExpression{}, nil
		case "null":
			p.next()
			return ast.Null(), nil
		case "true", "false":
			p.next()
			return ast.Bool(t.Value == "true"), nil
		case "function":
			return p.parseFunctionExpression()
		}
	case token.Punct:
		switch t.Value {
		case "(":
			noIn := p.noIn
			p.noIn = false
			expr, err := p.parseParenExpression()
			p.noIn = noIn
			return expr, err
		case "[":
			return p.parseArray()
		case "{":
			return p.parseObject()
		}
	}
	return nil, p.unexpected(t)
}

func parseNumber(raw string) (float64, error) {
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		v, err := strconv.ParseUint(raw[2:], 16, 64)
		return float64(v), err
	}
	return strconv.ParseFloat(raw, 64)
}

func (p *Parser) parseArray() (*ast.ArrayExpression, error) {
	p.next()
	arr := &ast.ArrayExpression{Elements: []ast.Expression{}}
	for !p.peek().Is("]") {
		e, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		arr.Elements = append(arr.Elements, e)
		if !p.accept(",") {
			break
		}
	}
	if _, err := p.expect("]"); err != nil {
		return nil, err
	}
	return arr, nil
}

func (p *Parser) parseObject() (*ast.ObjectExpression, error) {
	p.next()
	obj := &ast.ObjectExpression{Properties: []*ast.Property{}}
	for !p.peek().Is("}") {
		t := p.next()
		var key ast.Expression
		switch t.Type {
		case token.Ident, token.Keyword:
			key = ast.Ident(t.Value)
		case token.String:
			key = ast.String(t.Value)
		case token.Number:
			v, err := parseNumber(t.Value)
			if err != nil {
				return nil, p.errorf(t, "invalid number %q", t.Value)
			}
			key = &ast.Literal{Value: v, Raw: t.Value}
		default:
			return nil, p.unexpected(t)
		}
		if _, err := p.expect(":"); err != nil {
			return nil, err
		}
		val, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		obj.Properties = append(obj.Properties, &ast.Property{Key: key, Value: val})
		if !p.accept(",") {
			break
		}
	}
	if _, err := p.expect("}"); err != nil {
		return nil, err
	}
	return obj, nil
}
