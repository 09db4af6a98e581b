package codegen

import (
	"sort"
	"strconv"

	"github.com/wippyai/resumable/ast"
)

// Names are the identifiers the generated code introduces per function.
type Names struct {
	State      string
	TempPrefix string
}

// Assignment records that the step at Index assigns the temporary Name.
type Assignment struct {
	Name  string
	Index int
}

// Alias is a binding of the enclosing function that the scope function
// cannot see itself, this or arguments, copied into a variable on entry.
type Alias struct {
	Name    string
	Binding string
}

// fastForward is the else branch of a guarded arm. When the guard fails the
// counter jumps past the arm so later steps see their own index.
type fastForward struct {
	stmt   *ast.IfStatement
	target int
	always bool
}

// FunctionContext owns the state shared by every block of one function:
// the step counter, the variable set and the assignment map.
type FunctionContext struct {
	used         map[string]bool
	declared     map[string]bool
	temporaries  map[string]bool
	assignments  map[int]string
	names        Names
	params       []string
	vars         []string
	temps        []string
	functions    []ast.Statement
	aliases      []Alias
	fastForwards []*fastForward
	next         int
	tempSeq      int
}

// NewFunctionContext creates the context for one function. used holds every
// name present in the source; temporaries never take one of them. The map
// is only read.
func NewFunctionContext(names Names, params []string, used map[string]bool) *FunctionContext {
	fc := &FunctionContext{
		used:        used,
		declared:    make(map[string]bool),
		temporaries: make(map[string]bool),
		assignments: make(map[int]string),
		names:       names,
	}
	for _, p := range params {
		if !fc.declared[p] {
			fc.declared[p] = true
			fc.params = append(fc.params, p)
		}
	}
	return fc
}

// State returns the name of the step counter variable.
func (fc *FunctionContext) State() string {
	return fc.names.State
}

// NextIndex allocates the next step index.
func (fc *FunctionContext) NextIndex() int {
	i := fc.next
	fc.next++
	return i
}

// Peek returns the index NextIndex would allocate.
func (fc *FunctionContext) Peek() int {
	return fc.next
}

// DeclareVariable adds a source variable to the hoisted set. Parameters and
// repeated declarations are ignored.
func (fc *FunctionContext) DeclareVariable(name string) {
	if fc.declared[name] {
		return
	}
	fc.declared[name] = true
	fc.vars = append(fc.vars, name)
}

// NewTemp introduces a temporary binding. Names are tempN, skipping any
// name already used in the source.
func (fc *FunctionContext) NewTemp() string {
	for {
		name := fc.names.TempPrefix + strconv.Itoa(fc.tempSeq)
		fc.tempSeq++
		if fc.used[name] || fc.declared[name] {
			continue
		}
		fc.declared[name] = true
		fc.temporaries[name] = true
		fc.temps = append(fc.temps, name)
		return name
	}
}

// IsTemp reports whether name was introduced by NewTemp.
func (fc *FunctionContext) IsTemp(name string) bool {
	return fc.temporaries[name]
}

// UniqueName returns base, or base followed by a number, such that the
// result collides with no source or declared name.
func (fc *FunctionContext) UniqueName(base string) string {
	name := base
	for i := 0; fc.used[name] || fc.declared[name]; i++ {
		name = base + strconv.Itoa(i)
	}
	return name
}

// RecordAssignment notes that the step at index assigns the temporary name.
// On resume the result of a suspended step is written to this binding.
func (fc *FunctionContext) RecordAssignment(index int, name string) {
	fc.assignments[index] = name
}

// Assignments returns the assignment map ordered by step index.
func (fc *FunctionContext) Assignments() []Assignment {
	out := make([]Assignment, 0, len(fc.assignments))
	for i, name := range fc.assignments {
		out = append(out, Assignment{Index: i, Name: name})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Index < out[b].Index })
	return out
}

func (fc *FunctionContext) Params() []string { return fc.params }
func (fc *FunctionContext) Vars() []string   { return fc.vars }
func (fc *FunctionContext) Temps() []string  { return fc.temps }

// Variables returns every captured binding in capture order: parameters,
// then source variables, then temporaries.
func (fc *FunctionContext) Variables() []string {
	out := make([]string, 0, len(fc.params)+len(fc.vars)+len(fc.temps))
	out = append(out, fc.params...)
	out = append(out, fc.vars...)
	return append(out, fc.temps...)
}

// Alias returns the variable standing in for binding ("this" or
// "arguments") inside the scope function, introducing it on first use.
func (fc *FunctionContext) Alias(binding string) string {
	for _, a := range fc.aliases {
		if a.Binding == binding {
			return a.Name
		}
	}
	name := fc.UniqueName("_" + binding)
	fc.declared[name] = true
	fc.aliases = append(fc.aliases, Alias{Name: name, Binding: binding})
	return name
}

// Aliases returns the aliases in order of first use.
func (fc *FunctionContext) Aliases() []Alias {
	return fc.aliases
}

// AddFunction hoists a transpiled function declaration.
func (fc *FunctionContext) AddFunction(decl ast.Statement) {
	fc.functions = append(fc.functions, decl)
}

// Functions returns the hoisted function declarations in source order.
func (fc *FunctionContext) Functions() []ast.Statement {
	return fc.functions
}

// DeferFastForward registers the else branch of a guarded arm. It is only
// emitted if some index at or after target exists once the function is
// complete.
func (fc *FunctionContext) DeferFastForward(stmt *ast.IfStatement, target int) {
	fc.fastForwards = append(fc.fastForwards, &fastForward{stmt: stmt, target: target})
}

// ForceFastForward makes the else branch of stmt unconditional with the
// given target.
func (fc *FunctionContext) ForceFastForward(stmt *ast.IfStatement, target int) {
	for _, ff := range fc.fastForwards {
		if ff.stmt == stmt {
			ff.target = target
			ff.always = true
			return
		}
	}
	fc.fastForwards = append(fc.fastForwards, &fastForward{stmt: stmt, target: target, always: true})
}

// ResolveFastForwards attaches the registered else branches. Call it once,
// after the whole body has been transpiled.
func (fc *FunctionContext) ResolveFastForwards() {
	for _, ff := range fc.fastForwards {
		if !ff.always && ff.target >= fc.next {
			continue
		}
		ff.stmt.Alternate = ast.Block(ast.Expr(ast.Assign(ast.Ident(fc.names.State), ast.Int(ff.target))))
	}
	fc.fastForwards = nil
}
