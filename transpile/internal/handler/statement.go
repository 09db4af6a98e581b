package handler

import (
	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/transpile/internal/codegen"
)

// RegisterSimpleHandlers registers the handlers for statements that do not
// nest blocks.
func RegisterSimpleHandlers(r *Registry) {
	r.RegisterFunc(ast.TypeExpressionStatement, transpileExpressionStatement)
	r.RegisterFunc(ast.TypeVariableDeclaration, transpileVariableDeclaration)
	r.RegisterFunc(ast.TypeFunctionDeclaration, transpileFunctionDeclaration)
	r.RegisterFunc(ast.TypeReturnStatement, transpileReturn)
	r.RegisterFunc(ast.TypeThrowStatement, transpileThrow)
	r.RegisterFunc(ast.TypeEmptyStatement, transpileEmpty)
}

func transpileExpressionStatement(ctx *Context, node, _ ast.Node, block *codegen.BlockContext) error {
	s := node.(*ast.ExpressionStatement)
	ctx.push("expression")
	defer ctx.pop()
	return ctx.Expr.Effect(s.Expression, block)
}

// let and const are hoisted like var. Block scoping across suspension is
// not preserved.
func transpileVariableDeclaration(ctx *Context, node, _ ast.Node, block *codegen.BlockContext) error {
	decl := node.(*ast.VariableDeclaration)
	for _, d := range decl.Declarations {
		ctx.Func.DeclareVariable(d.ID.Name)
	}
	for _, d := range decl.Declarations {
		if d.Init == nil {
			continue
		}
		v, err := ctx.Expr.Value(d.Init, block)
		if err != nil {
			return err
		}
		block.AddStep(ast.Expr(ast.Assign(ast.Ident(d.ID.Name), v)))
	}
	return nil
}

// Function declarations are hoisted ahead of the resumable scope and take
// no step.
func transpileFunctionDeclaration(ctx *Context, node, _ ast.Node, _ *codegen.BlockContext) error {
	fn := node.(*ast.FunctionDeclaration)
	ctx.push("body")
	defer ctx.pop()
	body, err := ctx.Functions.TranspileBody(fn.ID.Name, fn.Params, fn.Body)
	if err != nil {
		return err
	}
	ctx.Func.AddFunction(&ast.FunctionDeclaration{ID: fn.ID, Params: fn.Params, Body: body})
	return nil
}

func transpileReturn(ctx *Context, node, _ ast.Node, block *codegen.BlockContext) error {
	s := node.(*ast.ReturnStatement)
	if s.Argument == nil {
		block.AddStep(&ast.ReturnStatement{})
		return nil
	}
	ctx.push("argument")
	defer ctx.pop()
	v, err := ctx.Expr.Value(s.Argument, block)
	if err != nil {
		return err
	}
	block.AddStep(&ast.ReturnStatement{Argument: v})
	return nil
}

func transpileThrow(ctx *Context, node, _ ast.Node, block *codegen.BlockContext) error {
	s := node.(*ast.ThrowStatement)
	ctx.push("argument")
	defer ctx.pop()
	v, err := ctx.Expr.Value(s.Argument, block)
	if err != nil {
		return err
	}
	block.AddStep(&ast.ThrowStatement{Argument: v})
	return nil
}

func transpileEmpty(*Context, ast.Node, ast.Node, *codegen.BlockContext) error {
	return nil
}
