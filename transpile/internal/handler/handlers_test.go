package handler

import (
	stderrors "errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/errors"
	"github.com/wippyai/resumable/js"
	"github.com/wippyai/resumable/transpile/internal/codegen"
)

var testNames = codegen.Names{State: "statementIndex", TempPrefix: "temp"}

// passThrough leaves nested function bodies untouched.
type passThrough struct{ calls int }

func (p *passThrough) TranspileBody(_ string, _ []*ast.Identifier, body *ast.BlockStatement) (*ast.BlockStatement, error) {
	p.calls++
	return body, nil
}

type result struct {
	fc  *codegen.FunctionContext
	out string
}

func transpileSource(t *testing.T, src string) (result, error) {
	t.Helper()
	prog, err := js.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	used := make(map[string]bool)
	ast.Inspect(prog, func(n ast.Node) bool {
		if id, ok := n.(*ast.Identifier); ok {
			used[id.Name] = true
		}
		return true
	})
	fc := codegen.NewFunctionContext(testNames, nil, used)
	ctx := NewContext(fc, DefaultRegistry(), &passThrough{}, nil, nil)
	block := codegen.NewBlockContext(fc)
	if err := ctx.Registry.TranspileList(ctx, prog.Body, prog, block); err != nil {
		return result{fc: fc}, err
	}
	fc.ResolveFastForwards()
	return result{fc: fc, out: js.Generate(block.Finish())}, nil
}

func TestStatements(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		want  string
		temps []codegen.Assignment
	}{
		{
			name: "function call",
			src:  "doSomething();",
			want: `switch (statementIndex) {
case 0:
    ++statementIndex;
    doSomething();
}`,
		},
		{
			name: "method call assigned to property",
			src:  "exports.result = tools.getOne();",
			want: `switch (statementIndex) {
case 0:
    ++statementIndex;
    temp0 = exports;
case 1:
    ++statementIndex;
    temp1 = tools;
case 2:
    ++statementIndex;
    temp2 = temp1.getOne();
case 3:
    ++statementIndex;
    temp0.result = temp2;
}`,
			temps: []codegen.Assignment{{Name: "temp0", Index: 0}, {Name: "temp1", Index: 1}, {Name: "temp2", Index: 2}},
		},
		{
			name: "compound assignment",
			src:  "var num3 = 0; num3 += num1 + 1; return num3;",
			want: `switch (statementIndex) {
case 0:
    ++statementIndex;
    num3 = 0;
case 1:
    ++statementIndex;
    temp0 = num3;
case 2:
    ++statementIndex;
    temp1 = num1;
case 3:
    ++statementIndex;
    num3 = temp0 + (temp1 + 1);
case 4:
    ++statementIndex;
    return num3;
}`,
			temps: []codegen.Assignment{{Name: "temp0", Index: 1}, {Name: "temp1", Index: 2}},
		},
		{
			name: "empty statement takes no step",
			src:  ";;a();",
			want: `switch (statementIndex) {
case 0:
    ++statementIndex;
    a();
}`,
		},
		{
			name: "throw",
			src:  "throw err;",
			want: `switch (statementIndex) {
case 0:
    ++statementIndex;
    throw err;
}`,
		},
		{
			name: "if",
			src:  "if (tools.sayYes) { exports.result = 'yes'; }",
			want: `switch (statementIndex) {
case 0:
    ++statementIndex;
    temp0 = tools;
case 1:
    ++statementIndex;
    temp1 = temp0.sayYes;
case 2:
    ++statementIndex;
case 3:
case 4:
    if (statementIndex > 3 || temp1) {
        switch (statementIndex) {
        case 3:
            ++statementIndex;
            temp2 = exports;
        case 4:
            ++statementIndex;
            temp2.result = 'yes';
        }
    }
}`,
			temps: []codegen.Assignment{{Name: "temp0", Index: 0}, {Name: "temp1", Index: 1}, {Name: "temp2", Index: 3}},
		},
		{
			name: "if else",
			src:  "if (a) { b(); } else { c(); }",
			want: `switch (statementIndex) {
case 0:
    ++statementIndex;
    temp0 = a;
case 1:
    ++statementIndex;
case 2:
    if (statementIndex > 2 || temp0) {
        switch (statementIndex) {
        case 2:
            ++statementIndex;
            b();
        }
    } else {
        statementIndex = 3;
    }
case 3:
    ++statementIndex;
case 4:
    if (statementIndex > 4 || !temp0) {
        switch (statementIndex) {
        case 4:
            ++statementIndex;
            c();
        }
    }
}`,
			temps: []codegen.Assignment{{Name: "temp0", Index: 0}},
		},
		{
			name: "while",
			src:  "while (i < 3) { i++; }",
			want: `switch (statementIndex) {
case 0:
    ++statementIndex;
case 1:
case 2:
case 3:
case 4:
    while (true) {
        switch (statementIndex) {
        case 1:
            ++statementIndex;
            temp0 = i;
        case 2:
            ++statementIndex;
        case 3:
            if (statementIndex > 3 || temp0 < 3) {
                switch (statementIndex) {
                case 3:
                    ++statementIndex;
                    i++;
                }
            } else {
                statementIndex = 5;
            }
        }
        if (statementIndex !== 4) {
            break;
        }
        statementIndex = 1;
    }
}`,
			temps: []codegen.Assignment{{Name: "temp0", Index: 1}},
		},
		{
			name: "for",
			src:  "for (i = 0; i < n; i++) f(i);",
			want: `switch (statementIndex) {
case 0:
    ++statementIndex;
    i = 0;
case 1:
    ++statementIndex;
case 2:
case 3:
case 4:
case 5:
case 6:
case 7:
case 8:
    while (true) {
        switch (statementIndex) {
        case 2:
            ++statementIndex;
            temp0 = i;
        case 3:
            ++statementIndex;
            temp1 = n;
        case 4:
            ++statementIndex;
        case 5:
        case 6:
        case 7:
            if (statementIndex > 5 || temp0 < temp1) {
                switch (statementIndex) {
                case 5:
                    ++statementIndex;
                    temp2 = i;
                case 6:
                    ++statementIndex;
                    f(temp2);
                case 7:
                    ++statementIndex;
                    i++;
                }
            } else {
                statementIndex = 9;
            }
        }
        if (statementIndex !== 8) {
            break;
        }
        statementIndex = 2;
    }
}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := transpileSource(t, tt.src)
			if err != nil {
				t.Fatalf("transpile: %v", err)
			}
			if diff := cmp.Diff(tt.want, got.out); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
			if tt.temps != nil {
				if diff := cmp.Diff(tt.temps, got.fc.Assignments()); diff != "" {
					t.Errorf("assignments mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestVariableDeclarationHoists(t *testing.T) {
	got, err := transpileSource(t, "var a, b = 1; let c = b; const d = 2;")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "d"}, got.fc.Vars()); diff != "" {
		t.Errorf("vars mismatch (-want +got):\n%s", diff)
	}
}

func TestFunctionDeclarationHoisted(t *testing.T) {
	got, err := transpileSource(t, "function f(a) { return a; } f(1);")
	if err != nil {
		t.Fatal(err)
	}
	if n := len(got.fc.Functions()); n != 1 {
		t.Fatalf("hoisted %d functions, want 1", n)
	}
	want := "switch (statementIndex) {\ncase 0:\n    ++statementIndex;\n    f(1);\n}"
	if got.out != want {
		t.Errorf("got:\n%s\nwant:\n%s", got.out, want)
	}
}

func TestUnsupportedStatements(t *testing.T) {
	tests := []struct {
		name string
		src  string
		typ  ast.NodeType
	}{
		{"switch", "switch (x) { case 1: a(); }", ast.TypeSwitchStatement},
		{"try", "try { a(); } catch (e) { b(); }", ast.TypeTryStatement},
		{"break in loop", "while (x) { break; }", ast.TypeBreakStatement},
		{"continue in loop", "while (x) { continue; }", ast.TypeContinueStatement},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := transpileSource(t, tt.src)
			if err == nil {
				t.Fatal("expected error")
			}
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("error %T is not *errors.Error", err)
			}
			if e.Kind != errors.KindUnsupported || e.NodeType != string(tt.typ) {
				t.Errorf("got kind=%s node=%s, want unsupported %s", e.Kind, e.NodeType, tt.typ)
			}
		})
	}
}

func TestUnsupportedPath(t *testing.T) {
	_, err := transpileSource(t, "a(); if (x) { b(); switch (y) {} }")
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("expected *errors.Error, got %v", err)
	}
	want := []string{"1", "consequent", "body", "1"}
	if diff := cmp.Diff(want, e.Path); diff != "" {
		t.Errorf("path mismatch (-want +got):\n%s", diff)
	}
}
