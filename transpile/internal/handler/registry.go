package handler

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/errors"
	"github.com/wippyai/resumable/transpile/internal/codegen"
)

// Handler transpiles one statement kind.
//
// Handlers are stateless and can be shared across transformations. All
// mutable state lives in the Context and the BlockContext. A handler's only
// effect is adding steps to block.
type Handler interface {
	// NodeType returns the statement type this handler accepts.
	NodeType() ast.NodeType
	// Transpile adds the steps for node to block.
	Transpile(ctx *Context, node, parent ast.Node, block *codegen.BlockContext) error
}

// Func is an adapter to use ordinary functions as Handlers.
type Func func(ctx *Context, node, parent ast.Node, block *codegen.BlockContext) error

type funcHandler struct {
	fn  Func
	typ ast.NodeType
}

func (h funcHandler) NodeType() ast.NodeType { return h.typ }

func (h funcHandler) Transpile(ctx *Context, node, parent ast.Node, block *codegen.BlockContext) error {
	return h.fn(ctx, node, parent, block)
}

// Registry maps statement types to their handlers.
type Registry struct {
	handlers map[ast.NodeType]Handler
	order    []ast.NodeType
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[ast.NodeType]Handler)}
}

// Register adds a handler under its NodeType. A handler already registered
// for the type is replaced.
func (r *Registry) Register(h Handler) {
	t := h.NodeType()
	if _, exists := r.handlers[t]; !exists {
		r.order = append(r.order, t)
	}
	r.handlers[t] = h
}

// RegisterFunc registers a function as the handler for t.
func (r *Registry) RegisterFunc(t ast.NodeType, fn Func) {
	r.Register(funcHandler{fn: fn, typ: t})
}

// Get returns the handler for t, or nil if not registered.
func (r *Registry) Get(t ast.NodeType) Handler {
	return r.handlers[t]
}

// Has returns true if a handler is registered for t.
func (r *Registry) Has(t ast.NodeType) bool {
	return r.handlers[t] != nil
}

// Types returns the registered types in registration order.
func (r *Registry) Types() []ast.NodeType {
	out := make([]ast.NodeType, len(r.order))
	copy(out, r.order)
	return out
}

// MissingHandlers returns the types that have no registered handler.
func (r *Registry) MissingHandlers(types []ast.NodeType) []ast.NodeType {
	var missing []ast.NodeType
	for _, t := range types {
		if r.handlers[t] == nil {
			missing = append(missing, t)
		}
	}
	return missing
}

// Transpile dispatches node to its handler.
func (r *Registry) Transpile(ctx *Context, node, parent ast.Node, block *codegen.BlockContext) error {
	h := r.handlers[node.Type()]
	if h == nil {
		return errors.UnsupportedNode(errors.PhaseTranspile, string(node.Type()), ctx.Path())
	}
	ctx.Logger.Debug("transpile statement",
		zap.String("type", string(node.Type())),
		zap.Int("step", ctx.Func.Peek()))
	return h.Transpile(ctx, node, parent, block)
}

// TranspileList dispatches each statement in order. The path of each
// statement extends the context path with its position.
func (r *Registry) TranspileList(ctx *Context, stmts []ast.Statement, parent ast.Node, block *codegen.BlockContext) error {
	for i, s := range stmts {
		ctx.push(strconv.Itoa(i))
		err := r.Transpile(ctx, s, parent, block)
		ctx.pop()
		if err != nil {
			return err
		}
	}
	return nil
}

// FunctionTranspiler rewrites the body of a nested function with its own
// function context. name is empty for anonymous functions.
type FunctionTranspiler interface {
	TranspileBody(name string, params []*ast.Identifier, body *ast.BlockStatement) (*ast.BlockStatement, error)
}

// Context provides shared state for handlers during one function's
// transformation.
type Context struct {
	Func      *codegen.FunctionContext
	Registry  *Registry
	Expr      *ExpressionTranspiler
	Functions FunctionTranspiler
	Logger    *zap.Logger
	path      []string
}

// NewContext creates a Context for one function. path is the position of
// the function body in the tree, used in error reports.
func NewContext(fc *codegen.FunctionContext, r *Registry, functions FunctionTranspiler, logger *zap.Logger, path []string) *Context {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx := &Context{
		Func:      fc,
		Registry:  r,
		Functions: functions,
		Logger:    logger,
		path:      append([]string(nil), path...),
	}
	ctx.Expr = &ExpressionTranspiler{ctx: ctx}
	return ctx
}

// Path returns a copy of the current tree position.
func (c *Context) Path() []string {
	return append([]string(nil), c.path...)
}

func (c *Context) push(elems ...string) {
	c.path = append(c.path, elems...)
}

func (c *Context) pop() {
	c.path = c.path[:len(c.path)-1]
}

// transpileNested transpiles a statement used as a nested body. A block
// contributes its statements directly; anything else is a single statement.
func (c *Context) transpileNested(field string, s ast.Statement, parent ast.Node, block *codegen.BlockContext) error {
	c.push(field)
	defer c.pop()
	if b, ok := s.(*ast.BlockStatement); ok {
		c.push("body")
		defer c.pop()
		return c.Registry.TranspileList(c, b.Body, b, block)
	}
	return c.Registry.Transpile(c, s, parent, block)
}

// DefaultRegistry returns a registry with every built-in handler.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterSimpleHandlers(r)
	RegisterControlHandlers(r)
	return r
}
