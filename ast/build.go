package ast

import "strconv"

// Ident returns an identifier node.
func Ident(name string) *Identifier {
	return &Identifier{Name: name}
}

// Number returns a numeric literal.
func Number(v float64) *Literal {
	return &Literal{Value: v, Raw: strconv.FormatFloat(v, 'g', -1, 64)}
}

// Int returns a numeric literal for an integer.
func Int(v int) *Literal {
	return &Literal{Value: float64(v), Raw: strconv.Itoa(v)}
}

// String returns a string literal.
func String(s string) *Literal {
	return &Literal{Value: s}
}

// Bool returns a boolean literal.
func Bool(b bool) *Literal {
	return &Literal{Value: b}
}

// Null returns the null literal.
func Null() *Literal {
	return &Literal{Value: nil, Raw: "null"}
}

// Member returns the non-computed member access obj.prop.
func Member(obj Expression, prop string) *MemberExpression {
	return &MemberExpression{Object: obj, Property: Ident(prop)}
}

// Assign returns obj = value.
func Assign(left, right Expression) *AssignmentExpression {
	return &AssignmentExpression{Operator: "=", Left: left, Right: right}
}

// Expr wraps an expression as a statement.
func Expr(e Expression) *ExpressionStatement {
	return &ExpressionStatement{Expression: e}
}

// Block returns a block of the given statements.
func Block(body ...Statement) *BlockStatement {
	if body == nil {
		body = []Statement{}
	}
	return &BlockStatement{Body: body}
}

// Call returns callee(args...).
func Call(callee Expression, args ...Expression) *CallExpression {
	return &CallExpression{Callee: callee, Arguments: args}
}

// Binary returns left op right.
func Binary(op string, left, right Expression) *BinaryExpression {
	return &BinaryExpression{Operator: op, Left: left, Right: right}
}

// Logical returns left op right for && and ||.
func Logical(op string, left, right Expression) *LogicalExpression {
	return &LogicalExpression{Operator: op, Left: left, Right: right}
}

// Not returns !e.
func Not(e Expression) *UnaryExpression {
	return &UnaryExpression{Operator: "!", Argument: e}
}

// IsFunction reports whether n introduces a function scope.
func IsFunction(n Node) bool {
	switch n.(type) {
	case *FunctionDeclaration, *FunctionExpression:
		return true
	}
	return false
}
