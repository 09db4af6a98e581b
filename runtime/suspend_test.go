package runtime

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/errors"
	"github.com/wippyai/resumable/js"
	"github.com/wippyai/resumable/resume"
	"github.com/wippyai/resumable/transpile"
)

// host records the effects a program performs through host functions.
type host struct {
	log     []string
	results []string
	checks  int
}

func newHost(t *testing.T, cfg Config) (*Runtime, *host) {
	t.Helper()
	rt := New(cfg)
	h := &host{}
	funcs := map[string]any{
		"tick": func(s string) string {
			h.log = append(h.log, s)
			return s
		},
		"wait": func(reason string) (Value, error) {
			return nil, Suspend(reason)
		},
		"result": func(v Value) {
			h.results = append(h.results, Inspect(v))
		},
		"check": func() bool {
			h.checks++
			return true
		},
	}
	for name, fn := range funcs {
		if err := rt.RegisterFunc(name, fn); err != nil {
			t.Fatalf("RegisterFunc(%s) error = %v", name, err)
		}
	}
	return rt, h
}

func transpiled(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := js.Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	out, err := transpile.Transform(prog, transpile.Config{})
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	return out
}

func run(t *testing.T, rt *Runtime, prog *ast.Program) Outcome {
	t.Helper()
	out, err := rt.Run(context.Background(), prog)
	if err != nil {
		t.Fatalf("Run() error = %v\n%s", err, js.Generate(prog))
	}
	return out
}

func resumeWith(t *testing.T, rt *Runtime, out Outcome, value any) Outcome {
	t.Helper()
	if !out.Suspended() {
		t.Fatalf("outcome is %s, want suspended", out.Status)
	}
	next, err := rt.Resume(context.Background(), out.Signal, value)
	if err != nil {
		t.Fatalf("Resume() error = %v\nframes: %s", err, spew.Sdump(out.Signal.Frames()))
	}
	return next
}

func TestResume_ExactlyOnce(t *testing.T) {
	rt, h := newHost(t, Config{})
	prog := transpiled(t, `
		var a = tick('a');
		var b = wait('first');
		tick('b:' + b);
		var c = wait('second');
		tick('c:' + c + a);
	`)

	out := run(t, rt, prog)
	if !out.Suspended() || out.Signal.Reason != "first" {
		t.Fatalf("Run() = %s (%v), want suspended on first", out.Status, out.Signal)
	}
	if out.Signal.Depth() != 1 {
		t.Errorf("Depth() = %d, want 1", out.Signal.Depth())
	}

	out = resumeWith(t, rt, out, "x")
	if !out.Suspended() || out.Signal.Reason != "second" {
		t.Fatalf("Resume() = %s, want suspended on second", out.Status)
	}
	out = resumeWith(t, rt, out, "y")
	if !out.Completed() {
		t.Fatalf("Resume() = %s, want completed", out.Status)
	}

	want := []string{"a", "b:x", "c:ya"}
	if diff := cmp.Diff(want, h.log); diff != "" {
		t.Errorf("effects mismatch (-want +got):\n%s", diff)
	}
}

func TestResume_NestedCalls(t *testing.T) {
	rt, h := newHost(t, Config{})
	prog := transpiled(t, `
		function inner(x) {
			tick('inner:' + x);
			var r = wait('io');
			return r + x;
		}
		function outer(y) {
			var v = inner(y + 1);
			tick('outer:' + v);
			return v * 2;
		}
		result(outer(1));
	`)

	out := run(t, rt, prog)
	if got := out.Signal.Depth(); got != 3 {
		t.Fatalf("Depth() = %d, want 3 (inner, outer, program)", got)
	}
	out = resumeWith(t, rt, out, 10)
	if !out.Completed() {
		t.Fatalf("Resume() = %s, want completed", out.Status)
	}

	if diff := cmp.Diff([]string{"inner:2", "outer:12"}, h.log); diff != "" {
		t.Errorf("effects mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"24"}, h.results); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestResume_InsideBranch(t *testing.T) {
	rt, h := newHost(t, Config{})
	prog := transpiled(t, `
		if (check()) {
			var v = wait('in-branch');
			tick('then:' + v);
		} else {
			tick('else');
		}
		tick('after');
	`)

	out := resumeWith(t, rt, run(t, rt, prog), "ok")
	if !out.Completed() {
		t.Fatalf("Resume() = %s, want completed", out.Status)
	}
	if h.checks != 1 {
		t.Errorf("test evaluated %d times, want 1", h.checks)
	}
	if diff := cmp.Diff([]string{"then:ok", "after"}, h.log); diff != "" {
		t.Errorf("effects mismatch (-want +got):\n%s", diff)
	}
}

func TestResume_WhileLoop(t *testing.T) {
	rt, h := newHost(t, Config{})
	prog := transpiled(t, `
		var i = 0;
		var sum = 0;
		while (i < 3) {
			sum = sum + wait('step');
			i++;
		}
		result(sum);
	`)

	out := run(t, rt, prog)
	suspensions := 0
	for value := 1; out.Suspended(); value++ {
		suspensions++
		if suspensions > 5 {
			t.Fatal("loop did not terminate")
		}
		out = resumeWith(t, rt, out, value)
	}
	if suspensions != 3 {
		t.Errorf("suspended %d times, want 3", suspensions)
	}
	if diff := cmp.Diff([]string{"6"}, h.results); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestResume_ForLoop(t *testing.T) {
	rt, h := newHost(t, Config{})
	prog := transpiled(t, `
		var out = '';
		for (var i = 0; i < 2; i++) {
			out = out + wait('n' + i);
		}
		result(out);
	`)

	out := run(t, rt, prog)
	var reasons []string
	for _, v := range []string{"a", "b"} {
		if !out.Suspended() {
			t.Fatalf("outcome is %s, want suspended", out.Status)
		}
		reasons = append(reasons, out.Signal.Reason)
		out = resumeWith(t, rt, out, v)
	}
	if !out.Completed() {
		t.Fatalf("outcome is %s, want completed", out.Status)
	}
	if diff := cmp.Diff([]string{"n0", "n1"}, reasons); diff != "" {
		t.Errorf("reasons mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"'ab'"}, h.results); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestResume_ReplaySameSignal(t *testing.T) {
	rt, h := newHost(t, Config{})
	prog := transpiled(t, `
		var base = tick('base');
		var n = wait('once');
		result(base + n);
	`)

	out := run(t, rt, prog)
	sig := out.Signal
	for i := 0; i < 2; i++ {
		next, err := rt.Resume(context.Background(), sig, 1)
		if err != nil || !next.Completed() {
			t.Fatalf("Resume() #%d = %+v, %v", i, next, err)
		}
	}

	if diff := cmp.Diff([]string{"base"}, h.log); diff != "" {
		t.Errorf("effects before the suspension repeated (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"'base1'", "'base1'"}, h.results); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestResume_MarkerCleared(t *testing.T) {
	rt, _ := newHost(t, Config{})
	out := resumeWith(t, rt, run(t, rt, transpiled(t, "var v = wait('x');")), 1)
	if !out.Completed() {
		t.Fatalf("outcome is %s, want completed", out.Status)
	}

	v, err := exec(t, rt, "Resumable._resumeState_")
	if err != nil {
		t.Fatal(err)
	}
	if v != Null {
		t.Errorf("_resumeState_ = %s, want null", Inspect(v))
	}
}

func TestResume_PauseFromJavaScript(t *testing.T) {
	rt, h := newHost(t, Config{})
	prog := transpiled(t, `
		tick('before');
		throw new Resumable.PauseException('manual');
		tick('after');
	`)

	out := run(t, rt, prog)
	if !out.Suspended() || out.Signal.Reason != "manual" {
		t.Fatalf("Run() = %s, want suspended on manual", out.Status)
	}
	out = resumeWith(t, rt, out, nil)
	if !out.Completed() {
		t.Fatalf("Resume() = %s, want completed", out.Status)
	}
	if diff := cmp.Diff([]string{"before", "after"}, h.log); diff != "" {
		t.Errorf("effects mismatch (-want +got):\n%s", diff)
	}
}

func TestResume_ReturnValue(t *testing.T) {
	rt, h := newHost(t, Config{})
	prog := transpiled(t, "function f() { return wait('v') * 2; } result(f());")

	out := resumeWith(t, rt, run(t, rt, prog), 21)
	if !out.Completed() {
		t.Fatalf("Resume() = %s, want completed", out.Status)
	}
	if diff := cmp.Diff([]string{"42"}, h.results); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestResume_UntransformedHasNoFrames(t *testing.T) {
	rt, _ := newHost(t, Config{})
	prog, err := js.Parse("wait('x');")
	if err != nil {
		t.Fatal(err)
	}
	out := run(t, rt, prog)
	if !out.Suspended() || out.Signal.Depth() != 0 {
		t.Fatalf("Run() = %s depth %d", out.Status, out.Signal.Depth())
	}
	if _, err := rt.Resume(context.Background(), out.Signal, nil); err == nil {
		t.Error("Resume() of a signal without frames should fail")
	}
}

func TestResume_MalformedFrames(t *testing.T) {
	tests := []struct {
		name  string
		frame func(fn Value) *resume.Frame
		kind  errors.Kind
	}{
		{"missing func", func(Value) *resume.Frame { return &resume.Frame{StatementIndex: 1} }, errors.KindFieldMissing},
		{"func not callable", func(Value) *resume.Frame { return &resume.Frame{Func: "f", StatementIndex: 1} }, errors.KindInvalidData},
		{"negative index", func(fn Value) *resume.Frame { return &resume.Frame{Func: fn, StatementIndex: -1} }, errors.KindOutOfBounds},
		{"assignment without value", func(fn Value) *resume.Frame {
			return &resume.Frame{Func: fn, StatementIndex: 1, Assignments: map[int]string{0: "temp0"}}
		}, errors.KindFieldMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, _ := newHost(t, Config{})
			fn, err := exec(t, rt, "var f = function () {}; f")
			if err != nil {
				t.Fatal(err)
			}
			sig := resume.NewSignal("")
			sig.Add(tt.frame(fn))
			_, err = rt.Resume(context.Background(), sig, nil)
			if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseResume, Kind: tt.kind}) {
				t.Errorf("Resume() error = %v, want resume/%s", err, tt.kind)
			}
		})
	}
}

// TestResume_PastLastStep resumes a frame whose index lies beyond its
// last step: nothing runs again and the call returns normally.
func TestResume_PastLastStep(t *testing.T) {
	rt := New(Config{})
	calls := 0
	if err := rt.RegisterFunc("doSomething", func() { calls++ }); err != nil {
		t.Fatal(err)
	}
	if err := rt.RegisterFunc("wait", func() error { return Suspend("done") }); err != nil {
		t.Fatal(err)
	}

	// The capture epilogue of a finished call records its scope function.
	out := run(t, rt, transpiled(t, "doSomething(); wait();"))
	if !out.Suspended() || calls != 1 {
		t.Fatalf("Run() = %s with %d call(s)", out.Status, calls)
	}
	calls = 0

	frame := out.Signal.Frames()[0].Clone()
	frame.StatementIndex = 7
	frame.Assignments = nil
	sig := resume.NewSignal("done")
	sig.Add(frame)

	next, err := rt.Resume(context.Background(), sig, nil)
	if err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if !next.Completed() {
		t.Errorf("Resume() = %s, want completed", next.Status)
	}
	if calls != 0 {
		t.Errorf("doSomething called %d time(s) after resume, want 0", calls)
	}
}

func TestResume_Receivers(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			"constructor argument suspends",
			"function F(x) { this.x = x; } var f = new F(wait('n')); result(f.x);",
			[]string{"'v'"},
		},
		{
			"method sees its object",
			"var o = { p: { q: function () { var r = wait('q'); return this === o.p && r; } } }; result(o.p.q());",
			[]string{"'v'"},
		},
		{
			"arguments survive a resume",
			"function g(a, b) { var r = wait('g'); return arguments.length + ':' + r; } result(g(1, 2));",
			[]string{"'2:v'"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, h := newHost(t, Config{})
			out := resumeWith(t, rt, run(t, rt, transpiled(t, tt.src)), "v")
			if !out.Completed() {
				t.Fatalf("Resume() = %s, want completed", out.Status)
			}
			if diff := cmp.Diff(tt.want, h.results); diff != "" {
				t.Errorf("results mismatch (-want +got):\n%s\n%s", diff, js.Generate(transpiled(t, tt.src)))
			}
		})
	}
}

func TestResume_ValidatesBeforeReplay(t *testing.T) {
	rt, h := newHost(t, Config{})
	out := run(t, rt, transpiled(t, "var v = wait('x'); tick('resumed');"))

	frames := out.Signal.Frames()
	sig := resume.NewSignal("x")
	sig.Append(frames...)
	sig.Add(&resume.Frame{StatementIndex: 1})

	if _, err := rt.Resume(context.Background(), sig, 1); err == nil {
		t.Fatal("Resume() should reject the malformed outer frame")
	}
	if len(h.log) != 0 {
		t.Errorf("a frame was re-entered before validation: %v", h.log)
	}
}

func TestAddRecord_Malformed(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"func not callable", "new Resumable.PauseException('x').add({ func: 1, statementIndex: 0 });"},
		{"fractional index", "new Resumable.PauseException('x').add({ func: function () {}, statementIndex: 1.5 });"},
		{"bad assignment key", "new Resumable.PauseException('x').add({ func: function () {}, statementIndex: 0, assignments: { a: 'temp0' } });"},
		{"record not object", "new Resumable.PauseException('x').add(3);"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := exec(t, New(Config{}), tt.src)
			var e *errors.Error
			if !stderrors.As(err, &e) || e.Phase != errors.PhaseResume {
				t.Errorf("Exec() error = %v, want a resume phase error", err)
			}
		})
	}
}

func TestErrorsPassThrough(t *testing.T) {
	boom := stderrors.New("boom")
	rt, _ := newHost(t, Config{})
	if err := rt.RegisterFunc("fail", func() error { return boom }); err != nil {
		t.Fatal(err)
	}

	_, err := rt.Run(context.Background(), transpiled(t, "tick('x'); fail();"))
	if !stderrors.Is(err, boom) {
		t.Errorf("Run() error = %v, want boom", err)
	}

	_, err = rt.Run(context.Background(), transpiled(t, "throw new Error('bad');"))
	var thrown *ThrowError
	if !stderrors.As(err, &thrown) || ToString(thrown.Value) != "Error: bad" {
		t.Errorf("Run() error = %v, want thrown Error: bad", err)
	}
}

// TestTranspiledMatchesOriginal runs programs without suspensions in both
// forms and compares their effects.
func TestTranspiledMatchesOriginal(t *testing.T) {
	programs := map[string]string{
		"recursion": `
			function fib(n) { return n < 2 ? n : fib(n - 1) + fib(n - 2); }
			var xs = [];
			for (var i = 0; i < 8; i++) { xs.push(fib(i)); }
			tick(xs.join(','));
		`,
		"objects": `
			var o = { a: 1, b: 2 };
			o.a += 5;
			delete o.b;
			tick(typeof o.b);
			tick(String(o.a));
			var p = { inner: { v: 'deep' } };
			tick(p.inner.v);
		`,
		"control": `
			var s = 0;
			var j = 10;
			while (j > 0) {
				if (j % 2 === 0) { s += j; } else { s -= 1; }
				j--;
			}
			tick('s=' + s);
			{ tick('block'); }
			if (s > 100) tick('big');
		`,
		"logical": `
			var calls = 0;
			function hit(v) { calls++; return v; }
			tick(String(hit(0) && hit(1)));
			tick(String(hit(0) || hit(2)));
			tick(String(hit(1) ? hit('y') : hit('n')));
			tick('calls=' + calls);
		`,
		"function values": `
			var base = { y: 2 };
			var f = function (a) { return a + base.y; };
			var g = function named(n) { return n > 0 ? named(n - 1) + 1 : 0; };
			tick(String(f(1)) + ':' + g(3));
		`,
		"sequence and update": `
			var k = 0;
			var arr = [k++, k++, ++k];
			tick(arr.join('|'));
			var z = (tick('first'), tick('second'));
			tick(z);
		`,
	}

	for name, src := range programs {
		t.Run(name, func(t *testing.T) {
			original, err := js.Parse(src)
			if err != nil {
				t.Fatal(err)
			}
			rtA, hA := newHost(t, Config{})
			if _, err := rtA.Exec(context.Background(), original); err != nil {
				t.Fatalf("original: %v", err)
			}

			prog := transpiled(t, src)
			rtB, hB := newHost(t, Config{})
			if out := run(t, rtB, prog); !out.Completed() {
				t.Fatalf("transpiled outcome is %s", out.Status)
			}

			reparsed, err := js.Parse(js.Generate(prog))
			if err != nil {
				t.Fatalf("reparse: %v", err)
			}
			rtC, hC := newHost(t, Config{})
			if out := run(t, rtC, reparsed); !out.Completed() {
				t.Fatalf("reparsed outcome is %s", out.Status)
			}

			if diff := cmp.Diff(hA.log, hB.log); diff != "" {
				t.Errorf("transpiled effects differ (-original +transpiled):\n%s\n%s", diff, js.Generate(prog))
			}
			if diff := cmp.Diff(hA.log, hC.log); diff != "" {
				t.Errorf("reparsed effects differ (-original +reparsed):\n%s", diff)
			}
		})
	}
}

// TestSuspendEverywhere suspends at every host call of a program in turn
// and checks that the effects match an uninterrupted run.
func TestSuspendEverywhere(t *testing.T) {
	src := `
		function step(label) { tick(label); return pause(label); }
		var total = 0;
		for (var i = 0; i < 3; i++) {
			if (i % 2 === 0) {
				total += step('even' + i);
			} else {
				total = total + step('odd' + i) * 2;
			}
		}
		var last = total > 4 ? step('big') : step('small');
		tick('total=' + total + ',' + last);
	`
	prog := transpiled(t, src)

	newPausing := func(suspendAt int) (*Runtime, *host) {
		rt, h := newHost(t, Config{})
		calls := 0
		if err := rt.RegisterFunc("pause", func(label string) (any, error) {
			calls++
			if calls == suspendAt {
				return nil, Suspend(label)
			}
			return len(label), nil
		}); err != nil {
			t.Fatal(err)
		}
		return rt, h
	}

	baseline, hb := newPausing(0)
	if out := run(t, baseline, prog); !out.Completed() {
		t.Fatalf("baseline outcome is %s", out.Status)
	}

	for at := 1; at <= 4; at++ {
		rt, h := newPausing(at)
		out := run(t, rt, prog)
		if !out.Suspended() {
			t.Fatalf("suspendAt=%d: outcome is %s", at, out.Status)
		}
		out = resumeWith(t, rt, out, float64(len(out.Signal.Reason)))
		if !out.Completed() {
			t.Fatalf("suspendAt=%d: resumed outcome is %s", at, out.Status)
		}
		if diff := cmp.Diff(hb.log, h.log); diff != "" {
			t.Errorf("suspendAt=%d: effects differ (-uninterrupted +resumed):\n%s", at, diff)
		}
	}
}
