// Package transpile rewrites JavaScript syntax trees into resumable state
// machines.
//
// # Overview
//
// A resumable function can be suspended in the middle of its body by a
// blocking call, unwound through every active frame, and later re-entered
// so that it continues from the exact point of suspension. Completed side
// effects are never repeated.
//
// # How It Works
//
// Every function body is flattened into numbered dispatch steps. Each step
// starts by incrementing the step counter and performs at most one
// observable effect: a call, a property read or an assignment. The steps
// become the cases of a switch with fallthrough, so a fresh run executes
// them in order and a resumed run jumps straight to a captured index.
//
//	var statementIndex = 0, temp0;
//	return function resumableScope() {
//	    if (Resumable._resumeState_) { ...restore... }
//	    try {
//	        switch (statementIndex) {
//	        case 0:
//	            ++statementIndex;
//	            temp0 = tools.getOne();
//	        ...
//	        }
//	    } catch (e) {
//	        if (e instanceof Resumable.PauseException) {
//	            e.add({ func: resumableScope, statementIndex: statementIndex, ... });
//	        }
//	        throw e;
//	    }
//	}();
//
// Nested blocks get their own switch inside a single case of the parent.
// Step indices are unique across the whole function, so a parent case
// lists every index of its nested block. Conditional blocks are guarded by
//
//	if (statementIndex > K+1 || test) { ... }
//
// which is forced true when resuming inside the block, so the test is not
// evaluated a second time.
//
// # Usage
//
//	prog, err := js.Parse(src)
//	if err != nil {
//	    return err
//	}
//	out, err := transpile.Transform(prog, transpile.Config{})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(js.Generate(out))
//
// # Runtime Contract
//
// Generated code expects a global Resumable object with a PauseException
// constructor whose instances have add(record), and a _resumeState_ slot
// holding the record of the frame being resumed. Package runtime provides
// an implementation.
//
// # Supported Statements
//
// Expression, var/let/const, function declarations, return, throw, empty,
// block, if/else, while and for statements. break, continue, switch, try
// and labelled statements are rejected.
package transpile
