package engine

import (
	"strconv"

	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/errors"
)

// IsTranspiled reports whether prog already reads the resume marker, which
// only generated code does.
func IsTranspiled(prog *ast.Program, names Names) bool {
	names = names.withDefaults()
	found := false
	ast.Inspect(prog, func(n ast.Node) bool {
		if found {
			return false
		}
		m, ok := n.(*ast.MemberExpression)
		if !ok || m.Computed {
			return true
		}
		obj, ok := m.Object.(*ast.Identifier)
		if !ok || obj.Name != names.Runtime {
			return true
		}
		if prop, ok := m.Property.(*ast.Identifier); ok && prop.Name == names.ResumeState {
			found = true
		}
		return !found
	})
	return found
}

// sourceNames are the identifiers of a source tree.
type sourceNames struct {
	all        map[string]bool // every identifier, including property names
	references map[string]bool // identifiers that resolve through scope
	declared   map[string]bool // parameters, variables and function names
}

func collectNames(prog *ast.Program) sourceNames {
	s := sourceNames{
		all:        make(map[string]bool),
		references: make(map[string]bool),
		declared:   make(map[string]bool),
	}
	properties := make(map[*ast.Identifier]bool)
	declare := func(id *ast.Identifier) {
		if id != nil {
			s.declared[id.Name] = true
		}
	}

	ast.Inspect(prog, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.MemberExpression:
			if id, ok := n.Property.(*ast.Identifier); ok && !n.Computed {
				properties[id] = true
			}
		case *ast.Property:
			if id, ok := n.Key.(*ast.Identifier); ok {
				properties[id] = true
			}
		case *ast.VariableDeclarator:
			declare(n.ID)
		case *ast.FunctionDeclaration:
			declare(n.ID)
			for _, p := range n.Params {
				declare(p)
			}
		case *ast.FunctionExpression:
			declare(n.ID)
			for _, p := range n.Params {
				declare(p)
			}
		case *ast.CatchClause:
			declare(n.Param)
		case *ast.Identifier:
			s.all[n.Name] = true
			if !properties[n] {
				s.references[n.Name] = true
			}
		}
		return true
	})
	return s
}

// checkNames rejects sources whose names would be shadowed by, or would
// shadow, the generated bindings.
func (e *Engine) checkNames(s sourceNames) error {
	n := e.names
	for _, r := range []struct{ name, role string }{
		{n.State, "step counter"},
		{n.Scope, "resumable scope"},
	} {
		if s.references[r.name] || s.declared[r.name] {
			return errors.NameConflict(errors.PhaseTranspile, r.name, r.role)
		}
	}
	for _, r := range []struct{ name, role string }{
		{keyFunc, "resume record key"},
		{keyIndex, "resume record key"},
		{keyAssignments, "resume record key"},
		{n.Runtime, "runtime object"},
	} {
		if s.declared[r.name] {
			return errors.NameConflict(errors.PhaseTranspile, r.name, r.role)
		}
	}
	return nil
}

// validate reports every statement that no handler accepts, with the same
// paths the handlers use.
func (e *Engine) validate(prog *ast.Program) error {
	v := &validator{engine: e}
	v.list(prog.Body, nil)
	if len(v.found) > 0 {
		return errors.NewUnsupportedNodesError(v.found)
	}
	return nil
}

type validator struct {
	engine *Engine
	found  []*errors.Error
}

func extend(path []string, elems ...string) []string {
	out := make([]string, 0, len(path)+len(elems))
	out = append(out, path...)
	return append(out, elems...)
}

func (v *validator) list(stmts []ast.Statement, path []string) {
	for i, s := range stmts {
		v.statement(s, extend(path, strconv.Itoa(i)))
	}
}

func (v *validator) nested(s ast.Statement, path []string) {
	if s == nil {
		return
	}
	if b, ok := s.(*ast.BlockStatement); ok {
		v.list(b.Body, extend(path, "body"))
		return
	}
	v.statement(s, path)
}

func (v *validator) statement(s ast.Statement, path []string) {
	if !v.engine.registry.Has(s.Type()) {
		v.found = append(v.found, errors.UnsupportedNode(errors.PhaseTranspile, string(s.Type()), path))
		return
	}

	switch s := s.(type) {
	case *ast.ExpressionStatement:
		v.expression(s.Expression, extend(path, "expression"))
	case *ast.VariableDeclaration:
		for _, d := range s.Declarations {
			v.expression(d.Init, path)
		}
	case *ast.FunctionDeclaration:
		v.function(s.ID.Name, s.Body, extend(path, "body"))
	case *ast.ReturnStatement:
		v.expression(s.Argument, extend(path, "argument"))
	case *ast.ThrowStatement:
		v.expression(s.Argument, extend(path, "argument"))
	case *ast.BlockStatement:
		v.list(s.Body, extend(path, "body"))
	case *ast.IfStatement:
		v.expression(s.Test, extend(path, "test"))
		v.nested(s.Consequent, extend(path, "consequent"))
		v.nested(s.Alternate, extend(path, "alternate"))
	case *ast.WhileStatement:
		v.expression(s.Test, extend(path, "test"))
		v.nested(s.Body, extend(path, "body"))
	case *ast.ForStatement:
		switch init := s.Init.(type) {
		case ast.Statement:
			v.statement(init, extend(path, "init"))
		case ast.Expression:
			v.expression(init, extend(path, "init"))
		}
		v.expression(s.Test, extend(path, "test"))
		v.expression(s.Update, extend(path, "update"))
		v.nested(s.Body, extend(path, "body"))
	}
}

// expression descends into the function expressions of e.
func (v *validator) expression(e ast.Expression, path []string) {
	if e == nil {
		return
	}
	ast.Inspect(e, func(n ast.Node) bool {
		fn, ok := n.(*ast.FunctionExpression)
		if !ok {
			return true
		}
		name := ""
		if fn.ID != nil {
			name = fn.ID.Name
		}
		v.function(name, fn.Body, extend(path, "function"))
		return false
	})
}

func (v *validator) function(name string, body *ast.BlockStatement, path []string) {
	if len(body.Body) == 0 || !v.engine.transforms(name) {
		return
	}
	v.list(body.Body, path)
}
