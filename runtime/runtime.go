package runtime

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/errors"
	"github.com/wippyai/resumable/js"
	"github.com/wippyai/resumable/resume"
)

const defaultMaxCallDepth = 4096

// Names are the runtime object names transpiled code refers to. They must
// match the names the program was transpiled with.
type Names struct {
	Runtime        string // default "Resumable"
	ResumeState    string // default "_resumeState_"
	PauseException string // default "PauseException"
}

func (n Names) withDefaults() Names {
	if n.Runtime == "" {
		n.Runtime = "Resumable"
	}
	if n.ResumeState == "" {
		n.ResumeState = "_resumeState_"
	}
	if n.PauseException == "" {
		n.PauseException = "PauseException"
	}
	return n
}

// Config configures a Runtime. The zero value is usable.
type Config struct {
	Logger *zap.Logger
	// Globals are defined in the global scope, converted the way goja
	// converts Go values.
	Globals map[string]any
	// MaxCallDepth bounds nested JavaScript calls. Zero means 4096.
	MaxCallDepth int
	Names        Names
}

// Status tells how a call ended.
type Status int

const (
	// StatusCompleted means the program ran to the end.
	StatusCompleted Status = iota
	// StatusSuspended means a pause exception reached the top.
	StatusSuspended
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusSuspended:
		return "suspended"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Outcome is the result of Run and Resume. A suspension is an outcome,
// not an error.
type Outcome struct {
	// Value is the completion value when Status is StatusCompleted.
	Value Value
	// Signal holds the captured frames when Status is StatusSuspended.
	Signal *resume.Signal
	Status Status
}

// Completed reports whether the program ran to the end.
func (o Outcome) Completed() bool {
	return o.Status == StatusCompleted
}

// Suspended reports whether the program is waiting to be resumed.
func (o Outcome) Suspended() bool {
	return o.Status == StatusSuspended
}

// Runtime runs programs on one goja runtime.
//
// Globals persist across calls, so a program suspended by Run can be
// continued by Resume on the same Runtime. Calls are serialized.
// RegisterFunc must not be called from a running host function.
type Runtime struct {
	logger   *zap.Logger
	vm       *goja.Runtime
	names    Names
	maxDepth int

	marker resume.Marker
	// record is the marker frame as the restore prologue sees it, built on
	// first read.
	record *goja.Object

	pauseProto *goja.Object
	signalKey  *goja.Symbol

	// ctx is the context of the call in progress.
	ctx context.Context
	mu  sync.Mutex
}

// canceled and hostFailure are the interrupt values that stop a run
// without giving catch clauses a chance to intercept them.
type (
	canceled    struct{ err error }
	hostFailure struct{ err error }
)

// New creates a runtime with the Resumable object installed.
func New(cfg Config) *Runtime {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	depth := cfg.MaxCallDepth
	if depth <= 0 {
		depth = defaultMaxCallDepth
	}

	r := &Runtime{
		logger:   logger,
		vm:       goja.New(),
		names:    cfg.Names.withDefaults(),
		maxDepth: depth,
		ctx:      context.Background(),
	}
	r.vm.SetMaxCallStackSize(depth)
	r.installResumable()
	for name, v := range cfg.Globals {
		if err := r.vm.Set(name, v); err != nil {
			logger.Warn("global not defined", zap.String("name", name), zap.Error(err))
		}
	}
	return r
}

// Global returns a global binding.
func (r *Runtime) Global(name string) (Value, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.vm.Get(name)
	return v, v != nil
}

// SetGlobal defines or replaces a global binding.
func (r *Runtime) SetGlobal(name string, v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.vm.Set(name, v)
}

// ToValue converts a Go value into a value of this runtime.
func (r *Runtime) ToValue(v any) Value {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.toValue(v)
}

// toValue maps nil to undefined and converts everything else with goja.
func (r *Runtime) toValue(v any) goja.Value {
	if v == nil {
		return goja.Undefined()
	}
	return r.vm.ToValue(v)
}

// compile prints prog and compiles it for the runtime.
func compile(prog *ast.Program) (*goja.Program, error) {
	p, err := goja.Compile("", js.Generate(prog), false)
	if err != nil {
		return nil, errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
			Cause(err).
			Detail("program does not compile").
			Build()
	}
	return p, nil
}

// enter binds ctx to the call about to start and returns the function
// that ends it. Canceling ctx interrupts the running script.
func (r *Runtime) enter(ctx context.Context) (func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Canceled(errors.PhaseRuntime, err)
	}
	r.ctx = ctx

	done := make(chan struct{})
	var wg sync.WaitGroup
	if ctx.Done() != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case <-ctx.Done():
				r.vm.Interrupt(canceled{ctx.Err()})
			case <-done:
			}
		}()
	}
	return func() {
		close(done)
		wg.Wait()
		r.vm.ClearInterrupt()
		r.ctx = context.Background()
	}, nil
}

// abort stops the running script with err once the current host call
// returns.
func (r *Runtime) abort(err error) {
	r.vm.Interrupt(hostFailure{err})
}

// Exec runs prog and returns the value of its last expression statement.
// JavaScript exceptions return a *ThrowError, a suspension returns its
// *resume.Signal as the error.
func (r *Runtime) Exec(ctx context.Context, prog *ast.Program) (Value, error) {
	p, err := compile(prog)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	leave, err := r.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer leave()

	v, err := r.vm.RunProgram(p)
	if err != nil {
		sig, err := r.failure(err)
		if err != nil {
			return nil, err
		}
		return nil, sig
	}
	return v, nil
}

// Run runs prog. A program consisting of a single function expression,
// the shape transpiled programs have, is invoked with the global object
// as receiver and its return value is the completion value.
func (r *Runtime) Run(ctx context.Context, prog *ast.Program) (Outcome, error) {
	p, err := compile(prog)
	if err != nil {
		return Outcome{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	leave, err := r.enter(ctx)
	if err != nil {
		return Outcome{}, err
	}
	defer leave()

	v, err := r.vm.RunProgram(p)
	if err == nil && isEntry(prog) {
		if entry, ok := goja.AssertFunction(v); ok {
			v, err = entry(r.vm.GlobalObject())
		}
	}
	return r.outcome(v, err)
}

// Call invokes a function value, such as a function defined by an earlier
// Run, with the same outcome handling as Run.
func (r *Runtime) Call(ctx context.Context, fn any, args ...any) (Outcome, error) {
	call, ok := callable(fn)
	if !ok {
		return Outcome{}, errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
			Value(ToString(fn)).
			Detail("value is not a function").
			Build()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	values := make([]goja.Value, len(args))
	for i, a := range args {
		values[i] = r.toValue(a)
	}
	leave, err := r.enter(ctx)
	if err != nil {
		return Outcome{}, err
	}
	defer leave()

	return r.outcome(call(goja.Undefined(), values...))
}

func callable(v any) (goja.Callable, bool) {
	gv, ok := v.(goja.Value)
	if !ok || gv == nil {
		return nil, false
	}
	return goja.AssertFunction(gv)
}

func isEntry(prog *ast.Program) bool {
	if len(prog.Body) != 1 {
		return false
	}
	es, ok := prog.Body[0].(*ast.ExpressionStatement)
	if !ok {
		return false
	}
	_, ok = es.Expression.(*ast.FunctionExpression)
	return ok
}

// failure classifies an error returned by goja. A pause exception yields
// its signal; every other error is returned in the module's terms.
func (r *Runtime) failure(err error) (*resume.Signal, error) {
	var (
		overflow    *goja.StackOverflowError
		interrupted *goja.InterruptedError
		exception   *goja.Exception
	)
	switch {
	case stderrors.As(err, &overflow):
		return nil, errors.LimitExceeded(errors.PhaseRuntime, "call depth", r.maxDepth)
	case stderrors.As(err, &interrupted):
		switch v := interrupted.Value().(type) {
		case canceled:
			return nil, errors.Canceled(errors.PhaseRuntime, v.err)
		case hostFailure:
			return nil, v.err
		}
		return nil, err
	case stderrors.As(err, &exception):
		if sig := r.signalOf(exception.Value()); sig != nil {
			return sig, nil
		}
		return nil, &ThrowError{Value: exception.Value()}
	}
	return nil, err
}

func (r *Runtime) outcome(v goja.Value, err error) (Outcome, error) {
	if err == nil {
		return Outcome{Value: v, Status: StatusCompleted}, nil
	}
	sig, err := r.failure(err)
	if err != nil {
		return Outcome{}, err
	}
	return r.suspended(sig), nil
}

func (r *Runtime) suspended(sig *resume.Signal) Outcome {
	r.logger.Debug("suspended",
		zap.String("reason", sig.Reason),
		zap.Int("frames", sig.Depth()))
	return Outcome{Signal: sig, Status: StatusSuspended}
}

// Resume continues a suspended program. result is the value of the
// operation that suspended it; nil resumes with undefined.
//
// The frames of sig are replayed innermost first: each frame receives the
// previous result at its suspended step, is placed in the resume marker
// and re-entered. Its return value feeds the next frame, and the last
// return value completes the outcome. Every frame is validated before any
// is re-entered. When a replayed frame suspends again, the frames not yet
// replayed are appended to the new signal.
func (r *Runtime) Resume(ctx context.Context, sig *resume.Signal, result any) (Outcome, error) {
	frames, err := resume.Plan(sig)
	if err != nil {
		return Outcome{}, err
	}
	entries := make([]goja.Callable, len(frames))
	for i, f := range frames {
		fn, ok := callable(f.Func)
		if !ok {
			return Outcome{}, errors.New(errors.PhaseResume, errors.KindInvalidData).
				Path("frames", fmt.Sprint(i), keyFunc).
				Detail("frame function is %T, not a function", f.Func).
				Build()
		}
		entries[i] = fn
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	leave, err := r.enter(ctx)
	if err != nil {
		return Outcome{}, err
	}
	defer leave()

	value := r.toValue(result)
	for i, f := range frames {
		r.logger.Debug("resuming frame",
			zap.Int("frame", i),
			zap.Int("statementIndex", f.StatementIndex),
			zap.Int("inFlight", f.InFlight()))

		r.setMarker(f.Inject(value))
		v, err := entries[i](goja.Undefined())
		r.clearMarker()
		if err != nil {
			next, err := r.failure(err)
			if err != nil {
				return Outcome{}, err
			}
			next.Append(frames[i+1:]...)
			return r.suspended(next), nil
		}
		value = v
	}
	return Outcome{Value: value, Status: StatusCompleted}, nil
}
