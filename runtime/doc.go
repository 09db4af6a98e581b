// Package runtime runs JavaScript programs on goja and drives the suspend
// and resume protocol of transpiled programs.
//
// # Quick Start
//
//	rt := runtime.New(runtime.Config{})
//	rt.RegisterFunc("sleep", func(ms float64) (runtime.Value, error) {
//	    return nil, runtime.Suspend("sleep")
//	})
//
//	prog, _ := js.Parse(source)
//	resumable, _ := transpile.Transform(prog, transpile.Config{})
//
//	out, err := rt.Run(ctx, resumable)
//	for err == nil && out.Suspended() {
//	    // perform the blocking operation, then continue with its result
//	    out, err = rt.Resume(ctx, out.Signal, result)
//	}
//
// # Values
//
// Value is goja.Value. Go values passed to Resume, Call or SetGlobal are
// converted the way goja converts them, except that nil becomes undefined.
// Use ToString and Inspect to render values.
//
// # Host Functions
//
// RegisterFunc installs Go functions as globals. Plain Go signatures are
// bound by reflection; NativeFunc gives access to the receiver. A host
// function suspends the program by returning Suspend as its error. The
// runtime throws a pause exception in its place, each transpiled function
// on the way out adds its frame, and Run returns an Outcome holding the
// collected signal.
//
// # Resuming
//
// Resume validates every frame, then replays them innermost first through
// the Resumable._resumeState_ accessor. Steps finished before the
// suspension are not executed again. Transpiled functions keep this and
// arguments in aliases of their outer function, so both survive a resume.
//
// # Errors
//
// Uncaught JavaScript exceptions are returned as *ThrowError. Cancellation,
// the call depth limit and host failures interrupt the VM, so no catch
// clause can intercept them; they are returned as *errors.Error values or
// the host's own error. Malformed resume records fail in errors.PhaseResume.
package runtime
