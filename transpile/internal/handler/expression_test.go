package handler

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/js"
	"github.com/wippyai/resumable/transpile/internal/codegen"
)

func TestExpressions(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "pure logical stays inline",
			src:  "x = a && b;",
			want: `switch (statementIndex) {
case 0:
    ++statementIndex;
    temp0 = a;
case 1:
    ++statementIndex;
    x = temp0 && b;
}`,
		},
		{
			name: "short circuited name is not read",
			src:  "r = false && undeclaredThing;",
			want: `switch (statementIndex) {
case 0:
    ++statementIndex;
    r = false && undeclaredThing;
}`,
		},
		{
			name: "pure conditional branches stay inline",
			src:  "v = typeof nope === 'undefined' ? 'u' : nope;",
			want: `switch (statementIndex) {
case 0:
    ++statementIndex;
    v = typeof nope === 'undefined' ? 'u' : nope;
}`,
		},
		{
			name: "this is aliased",
			src:  "this.x = this;",
			want: `switch (statementIndex) {
case 0:
    ++statementIndex;
    _this.x = _this;
}`,
		},
		{
			name: "arguments is aliased",
			src:  "n = arguments.length;",
			want: `switch (statementIndex) {
case 0:
    ++statementIndex;
    temp0 = _arguments;
case 1:
    ++statementIndex;
    temp1 = temp0.length;
case 2:
    ++statementIndex;
    n = temp1;
}`,
		},
		{
			name: "short circuit with effect",
			src:  "x = a() || b();",
			want: `switch (statementIndex) {
case 0:
    ++statementIndex;
    temp0 = a();
case 1:
    ++statementIndex;
case 2:
case 3:
    if (statementIndex > 2 || !temp0) {
        switch (statementIndex) {
        case 2:
            ++statementIndex;
            temp1 = b();
        case 3:
            ++statementIndex;
            temp0 = temp1;
        }
    } else {
        statementIndex = 4;
    }
case 4:
    ++statementIndex;
    x = temp0;
}`,
		},
		{
			name: "conditional with effect",
			src:  "y = c ? f() : 2;",
			want: `switch (statementIndex) {
case 0:
    ++statementIndex;
    temp0 = c;
case 1:
    ++statementIndex;
case 2:
case 3:
    if (statementIndex > 2 || temp0) {
        switch (statementIndex) {
        case 2:
            ++statementIndex;
            temp2 = f();
        case 3:
            ++statementIndex;
            temp1 = temp2;
        }
    } else {
        statementIndex = 4;
    }
case 4:
    ++statementIndex;
case 5:
    if (statementIndex > 5 || !temp0) {
        switch (statementIndex) {
        case 5:
            ++statementIndex;
            temp1 = 2;
        }
    } else {
        statementIndex = 6;
    }
case 6:
    ++statementIndex;
    y = temp1;
}`,
		},
		{
			name: "nested assignment",
			src:  "a = b = c();",
			want: `switch (statementIndex) {
case 0:
    ++statementIndex;
    temp0 = c();
case 1:
    ++statementIndex;
    b = temp0;
case 2:
    ++statementIndex;
    a = temp0;
}`,
		},
		{
			name: "typeof identifier is not read",
			src:  "t = typeof missing;",
			want: `switch (statementIndex) {
case 0:
    ++statementIndex;
    t = typeof missing;
}`,
		},
		{
			name: "delete is its own step",
			src:  "delete o.p;",
			want: `switch (statementIndex) {
case 0:
    ++statementIndex;
    temp0 = o;
case 1:
    ++statementIndex;
    delete temp0.p;
}`,
		},
		{
			name: "computed member key",
			src:  "v = o[k];",
			want: `switch (statementIndex) {
case 0:
    ++statementIndex;
    temp0 = o;
case 1:
    ++statementIndex;
    temp1 = k;
case 2:
    ++statementIndex;
    temp2 = temp0[temp1];
case 3:
    ++statementIndex;
    v = temp2;
}`,
		},
		{
			name: "update in value position",
			src:  "v = i++;",
			want: `switch (statementIndex) {
case 0:
    ++statementIndex;
    temp0 = i++;
case 1:
    ++statementIndex;
    v = temp0;
}`,
		},
		{
			name: "sequence",
			src:  "v = (f(), g());",
			want: `switch (statementIndex) {
case 0:
    ++statementIndex;
    f();
case 1:
    ++statementIndex;
    temp0 = g();
case 2:
    ++statementIndex;
    v = temp0;
}`,
		},
		{
			name: "new",
			src:  "o = new Thing(a);",
			want: `switch (statementIndex) {
case 0:
    ++statementIndex;
    temp0 = a;
case 1:
    ++statementIndex;
    temp1 = new Thing(temp0);
case 2:
    ++statementIndex;
    o = temp1;
}`,
		},
		{
			name: "object and array literals",
			src:  "o = { a: x, b: [y] };",
			want: `switch (statementIndex) {
case 0:
    ++statementIndex;
    temp0 = x;
case 1:
    ++statementIndex;
    temp1 = y;
case 2:
    ++statementIndex;
    o = {
        a: temp0,
        b: [temp1]
    };
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
		})
	}
}

func TestFunctionExpressionTranspiledSeparately(t *testing.T) {
	prog, err := js.Parse("var f = function (a) { return a; };")
	if err != nil {
		t.Fatal(err)
	}
	functions := &passThrough{}
	fc := codegen.NewFunctionContext(testNames, nil, nil)
	ctx := NewContext(fc, DefaultRegistry(), functions, nil, nil)
	block := codegen.NewBlockContext(fc)
	if err := ctx.Registry.TranspileList(ctx, prog.Body, prog, block); err != nil {
		t.Fatal(err)
	}
	if functions.calls != 1 {
		t.Errorf("TranspileBody called %d times, want 1", functions.calls)
	}
	if block.Len() != 1 || len(fc.Temps()) != 0 {
		t.Errorf("steps=%d temps=%v, want one step and no temps", block.Len(), fc.Temps())
	}
}

func TestHasEffect(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"a + 1", false},
		{"!a", false},
		{"[a, { b: c }]", false},
		{"function () { f(); }", false},
		{"a.b", true},
		{"f()", true},
		{"new F()", true},
		{"a = 1", true},
		{"i++", true},
		{"delete a", true},
		{"x ? y : f()", true},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			prog, err := js.Parse("(" + tt.src + ");")
			if err != nil {
				t.Fatal(err)
			}
			e := prog.Body[0].(*ast.ExpressionStatement).Expression
			if got := hasEffect(e); got != tt.want {
				t.Errorf("hasEffect(%s) = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}
