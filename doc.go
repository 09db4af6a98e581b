// Package resumable turns ordinary JavaScript functions into functions that
// can be suspended at any call and resumed later from a captured record.
//
// Each function body is rewritten into a state machine: statements become
// numbered steps of a switch, every call result lands in a temporary, and a
// catch handler records the step counter and all live bindings when a pause
// exception passes through. Replaying the recorded frames innermost first
// continues the computation exactly where it stopped.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	resumable/
//	├── ast/          ESTree-shaped syntax tree, builders and walkers
//	├── js/           Parser and printer for the supported JavaScript subset
//	├── transpile/    The resumable transformation and its handler registry
//	├── resume/       Frames, suspension signals and the resume marker
//	├── runtime/      Interpreter that runs transpiled programs on a host
//	├── errors/       Structured error types for debugging
//	└── cmd/resumable Command line transpiler, runner, REPL and stepper
//
// # Quick Start
//
// Transpile a program and run it until the host suspends it:
//
//	prog, err := js.Parse(source)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	prog, err = transpile.Transform(prog, transpile.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	rt := runtime.New(runtime.Config{})
//	rt.RegisterFunc("fetch", func(url string) (runtime.Value, error) {
//	    return nil, runtime.Suspend("fetch")
//	})
//
//	out, err := rt.Run(ctx, prog)
//	for err == nil && out.Suspended() {
//	    out, err = rt.Resume(ctx, out.Signal, answer)
//	}
//
// # Transformed Shape
//
// A function body becomes:
//
//	var statementIndex = 0, x, temp0;
//	return function resumableScope() {
//	    if (Resumable._resumeState_) { ... restore bindings ... }
//	    try {
//	        switch (statementIndex) {
//	        case 0: ++statementIndex; temp0 = f();
//	        case 1: ++statementIndex; x = temp0;
//	        }
//	    } catch (e) {
//	        if (e instanceof Resumable.PauseException) { e.add({...}); }
//	        throw e;
//	    }
//	}();
//
// Names of the state variable, temporaries, scope function and runtime
// object are configurable through transpile.Config.
//
// # Error Handling
//
// All packages report failures as *errors.Error values carrying the phase
// (parse, transpile, resume, runtime, host) and a kind. Use errors.Is with
// a template to match them.
package resumable
