package engine

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/errors"
	"github.com/wippyai/resumable/transpile/internal/codegen"
	"github.com/wippyai/resumable/transpile/internal/handler"
)

// FunctionMatcher determines if a function should be included or excluded.
// Used for removelist/onlylist configuration.
type FunctionMatcher interface {
	MatchFunction(name string) bool
}

// Names are the identifiers generated code introduces or relies on.
type Names struct {
	State          string // step counter variable
	TempPrefix     string // prefix of temporaries: temp0, temp1, ...
	Scope          string // name of the inner resumable function
	Runtime        string // global runtime object
	ResumeState    string // resume marker property on Runtime
	PauseException string // suspend signal constructor on Runtime
}

// DefaultNames returns the names used when a Config leaves them empty.
func DefaultNames() Names {
	return Names{
		State:          "statementIndex",
		TempPrefix:     "temp",
		Scope:          "resumableScope",
		Runtime:        "Resumable",
		ResumeState:    "_resumeState_",
		PauseException: "PauseException",
	}
}

func (n Names) withDefaults() Names {
	d := DefaultNames()
	if n.State == "" {
		n.State = d.State
	}
	if n.TempPrefix == "" {
		n.TempPrefix = d.TempPrefix
	}
	if n.Scope == "" {
		n.Scope = d.Scope
	}
	if n.Runtime == "" {
		n.Runtime = d.Runtime
	}
	if n.ResumeState == "" {
		n.ResumeState = d.ResumeState
	}
	if n.PauseException == "" {
		n.PauseException = d.PauseException
	}
	return n
}

// Record keys written by the capture epilogue besides the variables.
const (
	keyFunc        = "func"
	keyIndex       = "statementIndex"
	keyAssignments = "assignments"
)

// Config configures the transformation engine.
type Config struct {
	OnlyList   FunctionMatcher
	RemoveList FunctionMatcher
	Registry   *handler.Registry
	Logger     *zap.Logger
	Names      Names
}

// Engine orchestrates the resumable transformation.
//
// The engine is stateless between Transform calls. Each Transform
// operates on an independent tree, so one Engine can serve concurrent
// callers.
type Engine struct {
	onlyList   FunctionMatcher
	removeList FunctionMatcher
	registry   *handler.Registry
	logger     *zap.Logger
	names      Names
}

// New creates a new transformation engine with the given config.
func New(cfg Config) *Engine {
	reg := cfg.Registry
	if reg == nil {
		reg = handler.DefaultRegistry()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = Logger()
	}
	return &Engine{
		onlyList:   cfg.OnlyList,
		removeList: cfg.RemoveList,
		registry:   reg,
		logger:     logger,
		names:      cfg.Names.withDefaults(),
	}
}

// Names returns the effective generated names.
func (e *Engine) Names() Names {
	return e.names
}

// Transform rewrites prog into its resumable form. The input is not
// modified.
//
// The transformation:
//  1. Rejects trees that already contain the resume protocol
//  2. Checks the generated names against the names used in the source
//  3. Reports every statement without a handler at once
//  4. Transpiles each function body into a dispatch switch with a
//     restore prologue and a capture epilogue
//  5. Wraps the program body as a function returning its resumable scope
func (e *Engine) Transform(prog *ast.Program) (*ast.Program, error) {
	if IsTranspiled(prog, e.names) {
		return nil, errors.AlreadyTransformed("tree already contains the resume protocol")
	}

	used := collectNames(prog)
	if err := e.checkNames(used); err != nil {
		return nil, err
	}
	if err := e.validate(prog); err != nil {
		return nil, err
	}

	t := &transformation{engine: e, used: used.all}
	body, err := t.function("", nil, &ast.BlockStatement{Body: prog.Body}, nil, true)
	if err != nil {
		return nil, err
	}
	return &ast.Program{Body: []ast.Statement{
		ast.Expr(&ast.FunctionExpression{Body: body}),
	}}, nil
}

// transforms reports whether the function named name is rewritten.
// Anonymous functions follow the OnlyList default.
func (e *Engine) transforms(name string) bool {
	if e.removeList != nil && name != "" && e.removeList.MatchFunction(name) {
		return false
	}
	if e.onlyList != nil {
		return name != "" && e.onlyList.MatchFunction(name)
	}
	return true
}

// transformation holds the state of one Transform call.
type transformation struct {
	engine *Engine
	used   map[string]bool
}

// functions adapts a transformation to handler.FunctionTranspiler for one
// enclosing function, so nested errors report their full path.
type functions struct {
	t   *transformation
	ctx *handler.Context
}

func (f *functions) TranspileBody(name string, params []*ast.Identifier, body *ast.BlockStatement) (*ast.BlockStatement, error) {
	return f.t.function(name, params, body, f.ctx.Path(), false)
}

// function transpiles one function body. An empty body, or one excluded by
// the matchers, is returned as is unless always is set.
func (t *transformation) function(name string, params []*ast.Identifier, body *ast.BlockStatement, path []string, always bool) (*ast.BlockStatement, error) {
	e := t.engine
	if !always && (len(body.Body) == 0 || !e.transforms(name)) {
		return body, nil
	}

	paramNames := make([]string, len(params))
	for i, p := range params {
		paramNames[i] = p.Name
	}
	fc := codegen.NewFunctionContext(codegen.Names{State: e.names.State, TempPrefix: e.names.TempPrefix}, paramNames, t.used)

	fns := &functions{t: t}
	ctx := handler.NewContext(fc, e.registry, fns, e.logger, path)
	fns.ctx = ctx

	root := codegen.NewBlockContext(fc)
	if err := e.registry.TranspileList(ctx, body.Body, body, root); err != nil {
		return nil, err
	}
	fc.ResolveFastForwards()

	e.logger.Debug("transpiled function",
		zap.String("function", displayName(name)),
		zap.Int("steps", fc.Peek()),
		zap.Int("temps", len(fc.Temps())),
		zap.Int("captured", len(fc.Variables())))

	return e.wrap(fc, root.Finish()), nil
}

func displayName(name string) string {
	if name == "" {
		return "<anonymous>"
	}
	return name
}

// wrap builds
//
//	var <state> = 0, <aliases>, <vars>, <temps>;
//	<hoisted functions>
//	return function <scope>() { <restore> try { <dispatch> } catch (e) { <capture> } }();
func (e *Engine) wrap(fc *codegen.FunctionContext, dispatch *ast.SwitchStatement) *ast.BlockStatement {
	n := e.names

	decl := &ast.VariableDeclaration{Kind: "var"}
	decl.Declarations = append(decl.Declarations, &ast.VariableDeclarator{ID: ast.Ident(n.State), Init: ast.Int(0)})
	for _, a := range fc.Aliases() {
		var init ast.Expression = ast.Ident(a.Binding)
		if a.Binding == "this" {
			init = &ast.ThisExpression{}
		}
		decl.Declarations = append(decl.Declarations, &ast.VariableDeclarator{ID: ast.Ident(a.Name), Init: init})
	}
	for _, v := range fc.Vars() {
		decl.Declarations = append(decl.Declarations, &ast.VariableDeclarator{ID: ast.Ident(v)})
	}
	for _, v := range fc.Temps() {
		decl.Declarations = append(decl.Declarations, &ast.VariableDeclarator{ID: ast.Ident(v)})
	}

	catchParam := fc.UniqueName("e")
	scope := &ast.FunctionExpression{
		ID: ast.Ident(n.Scope),
		Body: ast.Block(
			e.restore(fc),
			&ast.TryStatement{
				Block: ast.Block(dispatch),
				Handler: &ast.CatchClause{
					Param: ast.Ident(catchParam),
					Body:  e.capture(fc, catchParam),
				},
			},
		),
	}

	out := ast.Block(decl)
	out.Body = append(out.Body, fc.Functions()...)
	out.Body = append(out.Body, &ast.ReturnStatement{Argument: ast.Call(scope)})
	return out
}

func (e *Engine) resumeState() *ast.MemberExpression {
	return ast.Member(ast.Ident(e.names.Runtime), e.names.ResumeState)
}

// restore reads the resume marker into the counter and every captured
// binding, then clears it.
func (e *Engine) restore(fc *codegen.FunctionContext) *ast.IfStatement {
	body := ast.Block(ast.Expr(ast.Assign(ast.Ident(e.names.State), ast.Member(e.resumeState(), keyIndex))))
	for _, v := range fc.Variables() {
		body.Body = append(body.Body, ast.Expr(ast.Assign(ast.Ident(v), ast.Member(e.resumeState(), v))))
	}
	body.Body = append(body.Body, ast.Expr(ast.Assign(e.resumeState(), ast.Null())))
	return &ast.IfStatement{Test: e.resumeState(), Consequent: body}
}

// capture adds this frame's record to a propagating pause exception and
// rethrows whatever was caught.
func (e *Engine) capture(fc *codegen.FunctionContext, param string) *ast.BlockStatement {
	assignments := &ast.ObjectExpression{Properties: []*ast.Property{}}
	for _, a := range fc.Assignments() {
		assignments.Properties = append(assignments.Properties, &ast.Property{
			Key:   ast.String(strconv.Itoa(a.Index)),
			Value: ast.String(a.Name),
		})
	}

	record := &ast.ObjectExpression{Properties: []*ast.Property{
		{Key: ast.Ident(keyFunc), Value: ast.Ident(e.names.Scope)},
		{Key: ast.Ident(keyIndex), Value: ast.Ident(e.names.State)},
		{Key: ast.Ident(keyAssignments), Value: assignments},
	}}
	for _, v := range fc.Variables() {
		record.Properties = append(record.Properties, &ast.Property{Key: ast.Ident(v), Value: ast.Ident(v)})
	}

	isPause := ast.Binary("instanceof", ast.Ident(param), ast.Member(ast.Ident(e.names.Runtime), e.names.PauseException))
	return ast.Block(
		&ast.IfStatement{
			Test:       isPause,
			Consequent: ast.Block(ast.Expr(ast.Call(ast.Member(ast.Ident(param), "add"), record))),
		},
		&ast.ThrowStatement{Argument: ast.Ident(param)},
	)
}
