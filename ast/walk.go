package ast

// Children returns the direct child nodes of n in source order.
// Absent optional children are omitted.
func Children(n Node) []Node {
	var out []Node
	add := func(c Node) {
		if !isNil(c) {
			out = append(out, c)
		}
	}

	switch n := n.(type) {
	case *Program:
		for _, s := range n.Body {
			add(s)
		}
	case *VariableDeclaration:
		for _, d := range n.Declarations {
			add(d)
		}
	case *VariableDeclarator:
		add(n.ID)
		add(n.Init)
	case *FunctionDeclaration:
		add(n.ID)
		for _, p := range n.Params {
			add(p)
		}
		add(n.Body)
	case *FunctionExpression:
		add(n.ID)
		for _, p := range n.Params {
			add(p)
		}
		add(n.Body)
	case *BlockStatement:
		for _, s := range n.Body {
			add(s)
		}
	case *ExpressionStatement:
		add(n.Expression)
	case *IfStatement:
		add(n.Test)
		add(n.Consequent)
		add(n.Alternate)
	case *WhileStatement:
		add(n.Test)
		add(n.Body)
	case *ForStatement:
		add(n.Init)
		add(n.Test)
		add(n.Update)
		add(n.Body)
	case *ReturnStatement:
		add(n.Argument)
	case *BreakStatement:
		add(n.Label)
	case *ContinueStatement:
		add(n.Label)
	case *ThrowStatement:
		add(n.Argument)
	case *SwitchStatement:
		add(n.Discriminant)
		for _, c := range n.Cases {
			add(c)
		}
	case *SwitchCase:
		add(n.Test)
		for _, s := range n.Consequent {
			add(s)
		}
	case *TryStatement:
		add(n.Block)
		add(n.Handler)
		add(n.Finalizer)
	case *CatchClause:
		add(n.Param)
		add(n.Body)
	case *ArrayExpression:
		for _, e := range n.Elements {
			add(e)
		}
	case *ObjectExpression:
		for _, p := range n.Properties {
			add(p)
		}
	case *Property:
		add(n.Key)
		add(n.Value)
	case *UnaryExpression:
		add(n.Argument)
	case *UpdateExpression:
		add(n.Argument)
	case *BinaryExpression:
		add(n.Left)
		add(n.Right)
	case *LogicalExpression:
		add(n.Left)
		add(n.Right)
	case *AssignmentExpression:
		add(n.Left)
		add(n.Right)
	case *ConditionalExpression:
		add(n.Test)
		add(n.Consequent)
		add(n.Alternate)
	case *CallExpression:
		add(n.Callee)
		for _, a := range n.Arguments {
			add(a)
		}
	case *NewExpression:
		add(n.Callee)
		for _, a := range n.Arguments {
			add(a)
		}
	case *MemberExpression:
		add(n.Object)
		add(n.Property)
	case *SequenceExpression:
		for _, e := range n.Expressions {
			add(e)
		}
	}
	return out
}

// Inspect traverses the tree rooted at n in pre-order, calling f for each
// node. If f returns false, the children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if isNil(n) || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}

// InspectScope is Inspect restricted to one function scope: nested function
// declarations and expressions are visited but not descended into.
func InspectScope(n Node, f func(Node) bool) {
	Inspect(n, func(c Node) bool {
		if !f(c) {
			return false
		}
		if c == n {
			return true
		}
		switch c.(type) {
		case *FunctionDeclaration, *FunctionExpression:
			return false
		}
		return true
	})
}

// isNil reports whether n is a nil interface or a typed nil pointer.
func isNil(n Node) bool {
	if n == nil {
		return true
	}
	switch v := n.(type) {
	case *Identifier:
		return v == nil
	case *BlockStatement:
		return v == nil
	case *CatchClause:
		return v == nil
	case *VariableDeclaration:
		return v == nil
	case *VariableDeclarator:
		return v == nil
	case *Property:
		return v == nil
	case *SwitchCase:
		return v == nil
	case *Program:
		return v == nil
	}
	return false
}
