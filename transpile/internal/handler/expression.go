package handler

import (
	"strings"

	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/errors"
	"github.com/wippyai/resumable/transpile/internal/codegen"
)

// ExpressionTranspiler flattens expressions into steps that each perform at
// most one effect.
//
// Three positions are distinguished:
//   - Value: the result is used directly by the enclosing step. Names and
//     literals pass through.
//   - Operand: the result is combined with other values. Names are
//     snapshotted into a temporary so later steps cannot change them.
//   - Effect: the result is discarded; the last effect becomes the step
//     itself instead of a temporary assignment.
//
// Calls, member reads, nested assignments and updates always get their own
// step. Pure combinations of flattened operands stay inline, and so do the
// deferred operands of &&, || and ?: when they have no effect.
type ExpressionTranspiler struct {
	ctx *Context
}

// Value flattens e and returns an expression the caller can use in its
// place.
func (x *ExpressionTranspiler) Value(e ast.Expression, block *codegen.BlockContext) (ast.Expression, error) {
	switch e := e.(type) {
	case *ast.Identifier:
		return x.binding(e), nil

	case *ast.Literal:
		return e, nil

	case *ast.ThisExpression:
		return ast.Ident(x.ctx.Func.Alias("this")), nil

	case *ast.FunctionExpression:
		return x.function(e)

	case *ast.ArrayExpression:
		out := &ast.ArrayExpression{Elements: make([]ast.Expression, len(e.Elements))}
		for i, el := range e.Elements {
			v, err := x.Operand(el, block)
			if err != nil {
				return nil, err
			}
			out.Elements[i] = v
		}
		return out, nil

	case *ast.ObjectExpression:
		out := &ast.ObjectExpression{Properties: make([]*ast.Property, len(e.Properties))}
		for i, p := range e.Properties {
			v, err := x.Operand(p.Value, block)
			if err != nil {
				return nil, err
			}
			out.Properties[i] = &ast.Property{Key: p.Key, Value: v}
		}
		return out, nil

	case *ast.UnaryExpression:
		switch {
		case e.Operator == "delete":
			target, err := x.reference(e.Argument, block)
			if err != nil {
				return nil, err
			}
			return x.assignTemp(block, &ast.UnaryExpression{Operator: "delete", Argument: target}), nil
		case e.Operator == "typeof" && isIdentifier(e.Argument):
			// typeof on an undeclared name must not throw; reading it
			// into a temporary would.
			return &ast.UnaryExpression{Operator: "typeof", Argument: x.binding(e.Argument.(*ast.Identifier))}, nil
		}
		arg, err := x.Operand(e.Argument, block)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpression{Operator: e.Operator, Argument: arg}, nil

	case *ast.BinaryExpression:
		left, err := x.Operand(e.Left, block)
		if err != nil {
			return nil, err
		}
		right, err := x.Operand(e.Right, block)
		if err != nil {
			return nil, err
		}
		return ast.Binary(e.Operator, left, right), nil

	case *ast.LogicalExpression:
		return x.logical(e, block, false)

	case *ast.ConditionalExpression:
		return x.conditional(e, block, false)

	case *ast.AssignmentExpression:
		return x.assignment(e, block, true)

	case *ast.UpdateExpression:
		target, err := x.reference(e.Argument, block)
		if err != nil {
			return nil, err
		}
		return x.assignTemp(block, &ast.UpdateExpression{Operator: e.Operator, Prefix: e.Prefix, Argument: target}), nil

	case *ast.CallExpression:
		call, err := x.call(e.Callee, e.Arguments, block)
		if err != nil {
			return nil, err
		}
		return x.assignTemp(block, call), nil

	case *ast.NewExpression:
		call, err := x.call(e.Callee, e.Arguments, block)
		if err != nil {
			return nil, err
		}
		return x.assignTemp(block, &ast.NewExpression{Callee: call.Callee, Arguments: call.Arguments}), nil

	case *ast.MemberExpression:
		member, err := x.member(e, block)
		if err != nil {
			return nil, err
		}
		return x.assignTemp(block, member), nil

	case *ast.SequenceExpression:
		last := len(e.Expressions) - 1
		for _, el := range e.Expressions[:last] {
			if err := x.Effect(el, block); err != nil {
				return nil, err
			}
		}
		return x.Value(e.Expressions[last], block)
	}

	return nil, errors.UnsupportedNode(errors.PhaseTranspile, string(e.Type()), x.ctx.Path())
}

// Operand is Value with names snapshotted into temporaries, so the result
// keeps the value the name had at this point of evaluation.
func (x *ExpressionTranspiler) Operand(e ast.Expression, block *codegen.BlockContext) (ast.Expression, error) {
	if id, ok := e.(*ast.Identifier); ok && !x.ctx.Func.IsTemp(id.Name) {
		return x.assignTemp(block, x.binding(id)), nil
	}
	return x.Value(e, block)
}

// binding maps arguments to the enclosing function's alias. Inside the
// scope function the name would see the scope function's own arguments.
func (x *ExpressionTranspiler) binding(id *ast.Identifier) *ast.Identifier {
	if id.Name == "arguments" {
		return ast.Ident(x.ctx.Func.Alias("arguments"))
	}
	return id
}

// inline rewrites an expression without effects for use as is, inside the
// step that combines it. No step is added, so a short-circuited operand is
// never evaluated.
func (x *ExpressionTranspiler) inline(e ast.Expression) (ast.Expression, error) {
	switch e := e.(type) {
	case *ast.Identifier:
		return x.binding(e), nil

	case *ast.Literal:
		return e, nil

	case *ast.ThisExpression:
		return ast.Ident(x.ctx.Func.Alias("this")), nil

	case *ast.FunctionExpression:
		return x.function(e)

	case *ast.UnaryExpression:
		arg, err := x.inline(e.Argument)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpression{Operator: e.Operator, Argument: arg}, nil

	case *ast.BinaryExpression:
		left, right, err := x.inlinePair(e.Left, e.Right)
		if err != nil {
			return nil, err
		}
		return ast.Binary(e.Operator, left, right), nil

	case *ast.LogicalExpression:
		left, right, err := x.inlinePair(e.Left, e.Right)
		if err != nil {
			return nil, err
		}
		return ast.Logical(e.Operator, left, right), nil

	case *ast.ConditionalExpression:
		test, err := x.inline(e.Test)
		if err != nil {
			return nil, err
		}
		cons, alt, err := x.inlinePair(e.Consequent, e.Alternate)
		if err != nil {
			return nil, err
		}
		return &ast.ConditionalExpression{Test: test, Consequent: cons, Alternate: alt}, nil

	case *ast.ArrayExpression:
		out := &ast.ArrayExpression{Elements: make([]ast.Expression, len(e.Elements))}
		for i, el := range e.Elements {
			v, err := x.inline(el)
			if err != nil {
				return nil, err
			}
			out.Elements[i] = v
		}
		return out, nil

	case *ast.ObjectExpression:
		out := &ast.ObjectExpression{Properties: make([]*ast.Property, len(e.Properties))}
		for i, p := range e.Properties {
			v, err := x.inline(p.Value)
			if err != nil {
				return nil, err
			}
			out.Properties[i] = &ast.Property{Key: p.Key, Value: v}
		}
		return out, nil

	case *ast.SequenceExpression:
		out := &ast.SequenceExpression{Expressions: make([]ast.Expression, len(e.Expressions))}
		for i, el := range e.Expressions {
			v, err := x.inline(el)
			if err != nil {
				return nil, err
			}
			out.Expressions[i] = v
		}
		return out, nil
	}

	return nil, errors.UnsupportedNode(errors.PhaseTranspile, string(e.Type()), x.ctx.Path())
}

func (x *ExpressionTranspiler) inlinePair(a, b ast.Expression) (ast.Expression, ast.Expression, error) {
	left, err := x.inline(a)
	if err != nil {
		return nil, nil, err
	}
	right, err := x.inline(b)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// Effect flattens e for its side effects only.
func (x *ExpressionTranspiler) Effect(e ast.Expression, block *codegen.BlockContext) error {
	switch e := e.(type) {
	case *ast.CallExpression:
		call, err := x.call(e.Callee, e.Arguments, block)
		if err != nil {
			return err
		}
		block.AddStep(ast.Expr(call))
		return nil

	case *ast.NewExpression:
		call, err := x.call(e.Callee, e.Arguments, block)
		if err != nil {
			return err
		}
		block.AddStep(ast.Expr(&ast.NewExpression{Callee: call.Callee, Arguments: call.Arguments}))
		return nil

	case *ast.AssignmentExpression:
		_, err := x.assignment(e, block, false)
		return err

	case *ast.UpdateExpression:
		target, err := x.reference(e.Argument, block)
		if err != nil {
			return err
		}
		block.AddStep(ast.Expr(&ast.UpdateExpression{Operator: e.Operator, Prefix: e.Prefix, Argument: target}))
		return nil

	case *ast.SequenceExpression:
		for _, el := range e.Expressions {
			if err := x.Effect(el, block); err != nil {
				return err
			}
		}
		return nil

	case *ast.LogicalExpression:
		if hasEffect(e.Right) {
			_, err := x.logical(e, block, true)
			return err
		}

	case *ast.ConditionalExpression:
		if hasEffect(e.Consequent) || hasEffect(e.Alternate) {
			_, err := x.conditional(e, block, true)
			return err
		}

	case *ast.UnaryExpression:
		if e.Operator == "delete" {
			target, err := x.reference(e.Argument, block)
			if err != nil {
				return err
			}
			block.AddStep(ast.Expr(&ast.UnaryExpression{Operator: "delete", Argument: target}))
			return nil
		}
	}

	v, err := x.Value(e, block)
	if err != nil {
		return err
	}
	if id, ok := v.(*ast.Identifier); ok && x.ctx.Func.IsTemp(id.Name) {
		return nil
	}
	block.AddStep(ast.Expr(v))
	return nil
}

// assignTemp adds the step temp = rhs and returns the temporary.
func (x *ExpressionTranspiler) assignTemp(block *codegen.BlockContext, rhs ast.Expression) *ast.Identifier {
	name := x.ctx.Func.NewTemp()
	x.assignTo(block, name, rhs)
	return ast.Ident(name)
}

// assignTo adds the step name = rhs to an existing temporary.
func (x *ExpressionTranspiler) assignTo(block *codegen.BlockContext, name string, rhs ast.Expression) {
	idx := block.AddStep(ast.Expr(ast.Assign(ast.Ident(name), rhs)))
	x.ctx.Func.RecordAssignment(idx, name)
}

// stable returns v as a temporary, adding a step if v is not one already.
func (x *ExpressionTranspiler) stable(v ast.Expression, block *codegen.BlockContext) *ast.Identifier {
	if id, ok := v.(*ast.Identifier); ok && x.ctx.Func.IsTemp(id.Name) {
		return id
	}
	return x.assignTemp(block, v)
}

// reference flattens an assignment target, leaving the final store or
// property access to the caller's step.
func (x *ExpressionTranspiler) reference(e ast.Expression, block *codegen.BlockContext) (ast.Expression, error) {
	switch e := e.(type) {
	case *ast.Identifier:
		return e, nil
	case *ast.MemberExpression:
		return x.member(e, block)
	}
	return nil, errors.New(errors.PhaseTranspile, errors.KindInvalidInput).
		Path(x.ctx.Path()...).
		NodeType(string(e.Type())).
		Detail("invalid assignment target").
		Build()
}

// member flattens the object and computed key of a member access and
// returns the access itself, unevaluated.
func (x *ExpressionTranspiler) member(e *ast.MemberExpression, block *codegen.BlockContext) (*ast.MemberExpression, error) {
	obj, err := x.Operand(e.Object, block)
	if err != nil {
		return nil, err
	}
	prop := e.Property
	if e.Computed {
		if prop, err = x.Operand(e.Property, block); err != nil {
			return nil, err
		}
	}
	return &ast.MemberExpression{Object: obj, Property: prop, Computed: e.Computed}, nil
}

// call flattens callee and arguments. A member callee stays attached to its
// receiver so the call keeps its this binding.
func (x *ExpressionTranspiler) call(callee ast.Expression, args []ast.Expression, block *codegen.BlockContext) (*ast.CallExpression, error) {
	var fn ast.Expression
	var err error
	if m, ok := callee.(*ast.MemberExpression); ok {
		fn, err = x.member(m, block)
	} else {
		fn, err = x.Value(callee, block)
	}
	if err != nil {
		return nil, err
	}

	out := &ast.CallExpression{Callee: fn}
	for _, a := range args {
		v, err := x.Operand(a, block)
		if err != nil {
			return nil, err
		}
		out.Arguments = append(out.Arguments, v)
	}
	return out, nil
}

// assignment performs e as a step. Compound operators are expanded so the
// read of the target is its own snapshot. In value position the assigned
// value is returned.
func (x *ExpressionTranspiler) assignment(e *ast.AssignmentExpression, block *codegen.BlockContext, asValue bool) (ast.Expression, error) {
	target, err := x.reference(e.Left, block)
	if err != nil {
		return nil, err
	}

	var rhs ast.Expression
	if e.Operator == "=" {
		if asValue {
			rhs, err = x.Operand(e.Right, block)
		} else {
			rhs, err = x.Value(e.Right, block)
		}
		if err != nil {
			return nil, err
		}
	} else {
		var current ast.Expression
		if id, ok := target.(*ast.Identifier); ok {
			current = x.assignTemp(block, id)
		} else {
			m := target.(*ast.MemberExpression)
			current = x.assignTemp(block, &ast.MemberExpression{Object: m.Object, Property: m.Property, Computed: m.Computed})
		}
		right, err := x.Operand(e.Right, block)
		if err != nil {
			return nil, err
		}
		rhs = ast.Binary(strings.TrimSuffix(e.Operator, "="), current, right)
	}

	block.AddStep(ast.Expr(ast.Assign(target, rhs)))
	return rhs, nil
}

// logical lowers && and ||. A deferred operand without effects stays inline
// in the combining step. One with effects runs in a guarded arm, so it is
// evaluated only when the left operand does not decide the result.
func (x *ExpressionTranspiler) logical(e *ast.LogicalExpression, block *codegen.BlockContext, effectOnly bool) (ast.Expression, error) {
	if !hasEffect(e.Right) {
		left, err := x.Operand(e.Left, block)
		if err != nil {
			return nil, err
		}
		right, err := x.inline(e.Right)
		if err != nil {
			return nil, err
		}
		return ast.Logical(e.Operator, left, right), nil
	}

	left, err := x.Value(e.Left, block)
	if err != nil {
		return nil, err
	}
	result := x.stable(left, block)

	var cond ast.Expression = result
	if e.Operator == "||" {
		cond = ast.Not(result)
	}
	_, err = x.ctx.guardedArm(block, cond, func(child *codegen.BlockContext) error {
		if effectOnly {
			return x.Effect(e.Right, child)
		}
		right, err := x.Value(e.Right, child)
		if err != nil {
			return err
		}
		x.assignTo(child, result.Name, right)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// conditional lowers a ? b : c. Branches without effects stay inline;
// otherwise they become two guarded arms over one snapshot of the test.
func (x *ExpressionTranspiler) conditional(e *ast.ConditionalExpression, block *codegen.BlockContext, effectOnly bool) (ast.Expression, error) {
	if !hasEffect(e.Consequent) && !hasEffect(e.Alternate) {
		test, err := x.Operand(e.Test, block)
		if err != nil {
			return nil, err
		}
		cons, alt, err := x.inlinePair(e.Consequent, e.Alternate)
		if err != nil {
			return nil, err
		}
		return &ast.ConditionalExpression{Test: test, Consequent: cons, Alternate: alt}, nil
	}

	testValue, err := x.Value(e.Test, block)
	if err != nil {
		return nil, err
	}
	test := x.stable(testValue, block)

	var result string
	if !effectOnly {
		result = x.ctx.Func.NewTemp()
	}
	branch := func(body ast.Expression) func(*codegen.BlockContext) error {
		return func(child *codegen.BlockContext) error {
			if effectOnly {
				return x.Effect(body, child)
			}
			v, err := x.Value(body, child)
			if err != nil {
				return err
			}
			x.assignTo(child, result, v)
			return nil
		}
	}

	if _, err := x.ctx.guardedArm(block, test, branch(e.Consequent)); err != nil {
		return nil, err
	}
	if _, err := x.ctx.guardedArm(block, ast.Not(test), branch(e.Alternate)); err != nil {
		return nil, err
	}
	if effectOnly {
		return nil, nil
	}
	return ast.Ident(result), nil
}

// function transpiles a function expression independently and yields it
// as a pure value.
func (x *ExpressionTranspiler) function(e *ast.FunctionExpression) (ast.Expression, error) {
	x.ctx.push("function")
	defer x.ctx.pop()
	var name string
	if e.ID != nil {
		name = e.ID.Name
	}
	body, err := x.ctx.Functions.TranspileBody(name, e.Params, e.Body)
	if err != nil {
		return nil, err
	}
	return &ast.FunctionExpression{ID: e.ID, Params: e.Params, Body: body}, nil
}

func isIdentifier(e ast.Expression) bool {
	_, ok := e.(*ast.Identifier)
	return ok
}

// hasEffect reports whether evaluating e can have an observable effect:
// a call, construction, assignment, update, deletion or property read.
// Function bodies are not entered; creating a closure is pure.
func hasEffect(e ast.Expression) bool {
	effect := false
	ast.Inspect(e, func(n ast.Node) bool {
		if effect {
			return false
		}
		switch n := n.(type) {
		case *ast.FunctionExpression:
			return false
		case *ast.CallExpression, *ast.NewExpression, *ast.AssignmentExpression,
			*ast.UpdateExpression, *ast.MemberExpression:
			effect = true
		case *ast.UnaryExpression:
			if n.Operator == "delete" {
				effect = true
			}
		}
		return !effect
	})
	return effect
}
