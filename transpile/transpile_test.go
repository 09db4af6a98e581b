package transpile_test

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/errors"
	"github.com/wippyai/resumable/js"
	"github.com/wippyai/resumable/transpile"
)

func readTestdata(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return strings.TrimSuffix(string(data), "\n")
}

func TestTransform_Golden(t *testing.T) {
	tests := []string{
		"empty_function",
		"function_call",
		"one_calculation",
		"no_control_structures",
		"method_call_assignment",
		"if_statement",
		"if_inside_block",
	}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			prog, err := js.Parse(readTestdata(t, name+".js"))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			out, err := transpile.Transform(prog, transpile.Config{})
			if err != nil {
				t.Fatalf("Transform: %v", err)
			}
			want := readTestdata(t, name+".golden.js")
			if diff := cmp.Diff(want, js.Generate(out)); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTransform_OutputReparses(t *testing.T) {
	src := `function f(n) {
    var total = 0;
    for (var i = 0; i < n; i++) {
        if (i % 2) {
            total += g(i);
        } else {
            total = total - 1;
        }
    }
    while (total > 10 && check(total)) {
        total = total / 2;
    }
    return total || fallback();
}
exports.result = f(4);`
	prog, err := js.Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	out, err := transpile.Transform(prog, transpile.Config{})
	if err != nil {
		t.Fatal(err)
	}
	text := js.Generate(out)
	again, err := js.Parse(text)
	if err != nil {
		t.Fatalf("generated code does not parse: %v\n%s", err, text)
	}
	if got := js.Generate(again); got != text {
		t.Errorf("printing is not stable:\n%s", got)
	}
	if !transpile.IsTranspiled(again, transpile.Config{}) {
		t.Error("IsTranspiled = false for generated code")
	}
}

func TestTransform_RejectsTranspiled(t *testing.T) {
	prog, err := js.Parse("a();")
	if err != nil {
		t.Fatal(err)
	}
	out, err := transpile.Transform(prog, transpile.Config{})
	if err != nil {
		t.Fatal(err)
	}
	_, err = transpile.Transform(out, transpile.Config{})
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindAlreadyTransformed {
		t.Fatalf("got %v, want already_transformed", err)
	}
}

func TestTransform_Unsupported(t *testing.T) {
	prog, err := js.Parse("try { a(); } catch (e) {}")
	if err != nil {
		t.Fatal(err)
	}
	_, err = transpile.Transform(prog, transpile.Config{})
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseTranspile, Kind: errors.KindUnsupported}) {
		t.Fatalf("got %v, want unsupported", err)
	}
	if !strings.Contains(err.Error(), "TryStatement") {
		t.Errorf("error does not name the node type: %v", err)
	}
}

func TestTransform_CustomRegistry(t *testing.T) {
	r := transpile.DefaultRegistry()
	if !r.Has(ast.TypeIfStatement) || r.Has(ast.TypeSwitchStatement) {
		t.Fatal("unexpected default handlers")
	}
	// Emits the switch as one opaque step.
	r.RegisterFunc(ast.TypeSwitchStatement, func(_ *transpile.Context, node, _ ast.Node, block *transpile.BlockContext) error {
		block.AddStep(node.(ast.Statement))
		return nil
	})

	prog, err := js.Parse("switch (x) { case 1: y(); } z();")
	if err != nil {
		t.Fatal(err)
	}
	out, err := transpile.Transform(prog, transpile.Config{Registry: r})
	if err != nil {
		t.Fatal(err)
	}
	got := js.Generate(out)
	for _, want := range []string{"case 0:\n                ++statementIndex;\n                switch (x) {", "case 1:\n                ++statementIndex;\n                z();"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestParseFunctionPatterns(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		fn       string
		want     bool
	}{
		{"exact", []string{"load"}, "load", true},
		{"exact miss", []string{"load"}, "loader", false},
		{"prefix", []string{"io*"}, "ioRead", true},
		{"prefix miss", []string{"io*"}, "read", false},
		{"star", []string{"*"}, "anything", true},
		{"mixed", []string{"a", " b* "}, "bee", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := transpile.ParseFunctionPatterns(tt.patterns)
			if got := m.MatchFunction(tt.fn); got != tt.want {
				t.Errorf("MatchFunction(%q) = %v, want %v", tt.fn, got, tt.want)
			}
		})
	}
	if transpile.ParseFunctionPatterns([]string{"", " "}) != nil {
		t.Error("empty patterns should give a nil matcher")
	}
}

func TestFunctionMatchers(t *testing.T) {
	m := transpile.AnyOf{
		transpile.NewNameSet("main"),
		transpile.Prefixes{"async"},
		nil,
	}
	for name, want := range map[string]bool{"main": true, "asyncLoad": true, "other": false, "mainly": false} {
		if got := m.MatchFunction(name); got != want {
			t.Errorf("MatchFunction(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestAnonymousFunctionsIgnoreMatchers(t *testing.T) {
	src := "var f = function () { a(); }; var g = function g() { b(); };"
	prog, err := js.Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	out, err := transpile.Transform(prog, transpile.Config{RemoveList: transpile.ParseFunctionPatterns([]string{"*", "f"})})
	if err != nil {
		t.Fatal(err)
	}

	// The program and the anonymous expression are rewritten, g is not.
	got := js.Generate(out)
	if n := strings.Count(got, "Resumable._resumeState_ = null;"); n != 2 {
		t.Errorf("%d rewritten functions, want 2:\n%s", n, got)
	}
}
