package handler

import (
	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/transpile/internal/codegen"
)

// RegisterControlHandlers registers the handlers for statements that nest
// child blocks.
func RegisterControlHandlers(r *Registry) {
	r.RegisterFunc(ast.TypeBlockStatement, transpileBlock)
	r.RegisterFunc(ast.TypeIfStatement, transpileIf)
	r.RegisterFunc(ast.TypeWhileStatement, transpileWhile)
	r.RegisterFunc(ast.TypeForStatement, transpileFor)
}

// guardedArm adds a marker step K to block and a child block run under
// if (state > K+1 || cond). Resuming anywhere inside the child forces the
// guard, so cond is never decided twice. When the guard fails the counter
// skips the child's indices.
func (c *Context) guardedArm(block *codegen.BlockContext, cond ast.Expression, fill func(*codegen.BlockContext) error) (*ast.IfStatement, error) {
	fc := c.Func
	marker := block.PrepareStep()
	child := codegen.NewBlockContext(fc)
	if err := fill(child); err != nil {
		return nil, err
	}

	stmt := &ast.IfStatement{
		Test:       ast.Logical("||", ast.Binary(">", ast.Ident(fc.State()), ast.Int(marker.Index()+1)), cond),
		Consequent: ast.Block(child.Finish()),
	}
	marker.Assign(stmt)
	fc.DeferFastForward(stmt, fc.Peek())
	return stmt, nil
}

// A bare block keeps its own dispatch layer inside the parent's.
func transpileBlock(ctx *Context, node, _ ast.Node, block *codegen.BlockContext) error {
	b := node.(*ast.BlockStatement)
	marker := block.PrepareStep()
	child := codegen.NewBlockContext(ctx.Func)

	ctx.push("body")
	err := ctx.Registry.TranspileList(ctx, b.Body, b, child)
	ctx.pop()
	if err != nil {
		return err
	}
	marker.Assign(ast.Block(child.Finish()))
	return nil
}

// An if with an alternate becomes two guarded arms over one snapshot of the
// test, the second guarded by its negation.
func transpileIf(ctx *Context, node, _ ast.Node, block *codegen.BlockContext) error {
	s := node.(*ast.IfStatement)

	ctx.push("test")
	test, err := ctx.Expr.Value(s.Test, block)
	if err == nil && s.Alternate != nil {
		test = ctx.Expr.stable(test, block)
	}
	ctx.pop()
	if err != nil {
		return err
	}

	_, err = ctx.guardedArm(block, test, func(child *codegen.BlockContext) error {
		return ctx.transpileNested("consequent", s.Consequent, s, child)
	})
	if err != nil || s.Alternate == nil {
		return err
	}
	_, err = ctx.guardedArm(block, ast.Not(test), func(child *codegen.BlockContext) error {
		return ctx.transpileNested("alternate", s.Alternate, s, child)
	})
	return err
}

func transpileWhile(ctx *Context, node, _ ast.Node, block *codegen.BlockContext) error {
	s := node.(*ast.WhileStatement)
	return ctx.loop(block, s.Test, s.Body, nil, s)
}

// for (init; test; update) is init followed by a while loop whose body ends
// with update. A missing test loops until the body leaves the function.
func transpileFor(ctx *Context, node, _ ast.Node, block *codegen.BlockContext) error {
	s := node.(*ast.ForStatement)

	if s.Init != nil {
		ctx.push("init")
		var err error
		switch init := s.Init.(type) {
		case ast.Statement:
			err = ctx.Registry.Transpile(ctx, init, s, block)
		case ast.Expression:
			err = ctx.Expr.Effect(init, block)
		}
		ctx.pop()
		if err != nil {
			return err
		}
	}

	var test ast.Expression = ast.Bool(true)
	if s.Test != nil {
		test = s.Test
	}
	return ctx.loop(block, test, s.Body, s.Update, s)
}

// loop lowers a pre-tested loop. The indices are laid out as
//
//	K       loop marker
//	K+1..   test steps, then the guarded body arm M
//	..E-1   body and update steps
//	E       reserved end index
//
// and the marker's arm is
//
//	while (true) { <test and body>; if (state !== E) { break; } state = K+1; }
//
// Finishing the body leaves the counter at E and starts the next
// iteration. A failed test jumps the counter to E+1, which ends the loop
// and continues with the step after it.
func (c *Context) loop(block *codegen.BlockContext, test ast.Expression, body ast.Statement, update ast.Expression, parent ast.Node) error {
	fc := c.Func
	state := fc.State()
	marker := block.PrepareStep()
	iteration := codegen.NewBlockContext(fc)

	c.push("test")
	cond, err := c.Expr.Value(test, iteration)
	c.pop()
	if err != nil {
		return err
	}

	arm, err := c.guardedArm(iteration, cond, func(child *codegen.BlockContext) error {
		if err := c.transpileNested("body", body, parent, child); err != nil {
			return err
		}
		if update == nil {
			return nil
		}
		c.push("update")
		defer c.pop()
		return c.Expr.Effect(update, child)
	})
	if err != nil {
		return err
	}

	end := fc.NextIndex()
	fc.ForceFastForward(arm, end+1)

	marker.Assign(&ast.WhileStatement{
		Test: ast.Bool(true),
		Body: ast.Block(
			iteration.Finish(),
			&ast.IfStatement{
				Test:       ast.Binary("!==", ast.Ident(state), ast.Int(end)),
				Consequent: ast.Block(&ast.BreakStatement{}),
			},
			ast.Expr(ast.Assign(ast.Ident(state), ast.Int(marker.Index()+1))),
		),
	})
	return nil
}
