package transpile

import (
	"go.uber.org/zap"

	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/transpile/internal/codegen"
	"github.com/wippyai/resumable/transpile/internal/engine"
	"github.com/wippyai/resumable/transpile/internal/handler"
)

// Registry maps statement types to their handlers.
//
// Use DefaultRegistry to start from the built-in handlers and register
// more on top of it.
type Registry = handler.Registry

// Handler transpiles one statement kind into dispatch steps.
type Handler = handler.Handler

// HandlerFunc is an adapter to use ordinary functions as Handlers.
type HandlerFunc = handler.Func

// Context is the per-function state passed to handlers.
type Context = handler.Context

// BlockContext accumulates the dispatch steps of one lexical block.
type BlockContext = codegen.BlockContext

// DefaultRegistry returns a registry with every built-in statement handler.
func DefaultRegistry() *Registry {
	return handler.DefaultRegistry()
}

// SetLogger sets the logger used when Config.Logger is nil. Call it before
// the first Transform; later calls have no effect.
func SetLogger(l *zap.Logger) {
	engine.SetLogger(l)
}

// Config configures the resumable transformation. The zero value produces
// the default runtime protocol.
type Config struct {
	// OnlyList restricts the rewrite to the matching named functions.
	// The program body is always rewritten.
	OnlyList FunctionMatcher
	// RemoveList excludes matching functions; they are emitted unchanged.
	RemoveList FunctionMatcher
	// Registry replaces the statement handlers.
	Registry *Registry
	// Logger receives Debug entries per function and statement.
	Logger *zap.Logger

	StateVariable       string // default "statementIndex"
	TempPrefix          string // default "temp"
	ScopeName           string // default "resumableScope"
	RuntimeObject       string // default "Resumable"
	ResumeStateProperty string // default "_resumeState_"
	PauseExceptionName  string // default "PauseException"
}

func (c Config) names() engine.Names {
	return engine.Names{
		State:          c.StateVariable,
		TempPrefix:     c.TempPrefix,
		Scope:          c.ScopeName,
		Runtime:        c.RuntimeObject,
		ResumeState:    c.ResumeStateProperty,
		PauseException: c.PauseExceptionName,
	}
}

// Transform rewrites prog into its resumable form.
//
// Each function body becomes a switch over a step counter where every case
// performs at most one observable effect. A restore prologue re-enters the
// switch at a captured step, and a catch clause adds the frame's state to a
// propagating PauseException before rethrowing it.
//
// The result is a program holding one function expression; calling it runs
// the original program. prog itself is not modified.
//
// Trees that already contain the resume protocol are rejected with an
// errors.KindAlreadyTransformed error, and statements without a handler are
// all reported in one *errors.UnsupportedNodesError.
func Transform(prog *ast.Program, cfg Config) (*ast.Program, error) {
	eng := engine.New(engine.Config{
		OnlyList:   cfg.OnlyList,
		RemoveList: cfg.RemoveList,
		Registry:   cfg.Registry,
		Logger:     cfg.Logger,
		Names:      cfg.names(),
	})
	return eng.Transform(prog)
}

// IsTranspiled reports whether prog already reads the resume marker named
// by cfg.
func IsTranspiled(prog *ast.Program, cfg Config) bool {
	return engine.IsTranspiled(prog, cfg.names())
}
