// Package ast provides an ESTree-shaped syntax tree for the JavaScript
// subset the resumable transpiler consumes and produces.
package ast

// NodeType is the ESTree type tag of a node.
type NodeType string

const (
	TypeProgram               NodeType = "Program"
	TypeVariableDeclaration   NodeType = "VariableDeclaration"
	TypeVariableDeclarator    NodeType = "VariableDeclarator"
	TypeFunctionDeclaration   NodeType = "FunctionDeclaration"
	TypeBlockStatement        NodeType = "BlockStatement"
	TypeEmptyStatement        NodeType = "EmptyStatement"
	TypeExpressionStatement   NodeType = "ExpressionStatement"
	TypeIfStatement           NodeType = "IfStatement"
	TypeWhileStatement        NodeType = "WhileStatement"
	TypeForStatement          NodeType = "ForStatement"
	TypeReturnStatement       NodeType = "ReturnStatement"
	TypeBreakStatement        NodeType = "BreakStatement"
	TypeContinueStatement     NodeType = "ContinueStatement"
	TypeThrowStatement        NodeType = "ThrowStatement"
	TypeSwitchStatement       NodeType = "SwitchStatement"
	TypeSwitchCase            NodeType = "SwitchCase"
	TypeTryStatement          NodeType = "TryStatement"
	TypeCatchClause           NodeType = "CatchClause"
	TypeIdentifier            NodeType = "Identifier"
	TypeLiteral               NodeType = "Literal"
	TypeThisExpression        NodeType = "ThisExpression"
	TypeArrayExpression       NodeType = "ArrayExpression"
	TypeObjectExpression      NodeType = "ObjectExpression"
	TypeProperty              NodeType = "Property"
	TypeFunctionExpression    NodeType = "FunctionExpression"
	TypeUnaryExpression       NodeType = "UnaryExpression"
	TypeUpdateExpression      NodeType = "UpdateExpression"
	TypeBinaryExpression      NodeType = "BinaryExpression"
	TypeLogicalExpression     NodeType = "LogicalExpression"
	TypeAssignmentExpression  NodeType = "AssignmentExpression"
	TypeConditionalExpression NodeType = "ConditionalExpression"
	TypeCallExpression        NodeType = "CallExpression"
	TypeNewExpression         NodeType = "NewExpression"
	TypeMemberExpression      NodeType = "MemberExpression"
	TypeSequenceExpression    NodeType = "SequenceExpression"
)

// Node is any syntax tree node.
type Node interface {
	Type() NodeType
}

// Statement is a node valid in statement position.
type Statement interface {
	Node
	stmt()
}

// Expression is a node valid in expression position.
type Expression interface {
	Node
	expr()
}

// Program is the root of a parsed source file.
type Program struct {
	Body []Statement
}

// VariableDeclaration is a var, let or const statement.
type VariableDeclaration struct {
	Kind         string
	Declarations []*VariableDeclarator
}

// VariableDeclarator binds one name, with an optional initializer.
type VariableDeclarator struct {
	ID   *Identifier
	Init Expression
}

// FunctionDeclaration is a named function statement.
type FunctionDeclaration struct {
	ID     *Identifier
	Params []*Identifier
	Body   *BlockStatement
}

type BlockStatement struct {
	Body []Statement
}

type EmptyStatement struct{}

type ExpressionStatement struct {
	Expression Expression
}

// IfStatement has a nil Alternate when there is no else branch.
type IfStatement struct {
	Test       Expression
	Consequent Statement
	Alternate  Statement
}

type WhileStatement struct {
	Test Expression
	Body Statement
}

// ForStatement holds Init as either a *VariableDeclaration or an
// Expression. Any of Init, Test and Update may be nil.
type ForStatement struct {
	Init   Node
	Test   Expression
	Update Expression
	Body   Statement
}

// ReturnStatement has a nil Argument for a bare return.
type ReturnStatement struct {
	Argument Expression
}

type BreakStatement struct {
	Label *Identifier
}

type ContinueStatement struct {
	Label *Identifier
}

type ThrowStatement struct {
	Argument Expression
}

type SwitchStatement struct {
	Discriminant Expression
	Cases        []*SwitchCase
}

// SwitchCase is a default clause when Test is nil.
type SwitchCase struct {
	Test       Expression
	Consequent []Statement
}

type TryStatement struct {
	Block     *BlockStatement
	Handler   *CatchClause
	Finalizer *BlockStatement
}

type CatchClause struct {
	Param *Identifier
	Body  *BlockStatement
}

type Identifier struct {
	Name string
}

// Literal holds a float64, string, bool or nil (null) value.
type Literal struct {
	Value any
	// Raw is the source spelling, kept so printing round-trips numbers.
	Raw string
}

type ThisExpression struct{}

type ArrayExpression struct {
	Elements []Expression
}

type ObjectExpression struct {
	Properties []*Property
}

// Property is one key: value pair of an object literal. Key is an
// *Identifier or a *Literal.
type Property struct {
	Key   Expression
	Value Expression
}

// FunctionExpression has a nil ID when anonymous.
type FunctionExpression struct {
	ID     *Identifier
	Params []*Identifier
	Body   *BlockStatement
}

type UnaryExpression struct {
	Operator string
	Argument Expression
}

type UpdateExpression struct {
	Operator string
	Prefix   bool
	Argument Expression
}

type BinaryExpression struct {
	Operator string
	Left     Expression
	Right    Expression
}

// LogicalExpression is && or ||.
type LogicalExpression struct {
	Operator string
	Left     Expression
	Right    Expression
}

type AssignmentExpression struct {
	Operator string
	Left     Expression
	Right    Expression
}

type ConditionalExpression struct {
	Test       Expression
	Consequent Expression
	Alternate  Expression
}

type CallExpression struct {
	Callee    Expression
	Arguments []Expression
}

type NewExpression struct {
	Callee    Expression
	Arguments []Expression
}

// MemberExpression is obj.prop when Computed is false (Property is an
// *Identifier) and obj[prop] otherwise.
type MemberExpression struct {
	Object   Expression
	Property Expression
	Computed bool
}

type SequenceExpression struct {
	Expressions []Expression
}

func (*Program) Type() NodeType               { return TypeProgram }
func (*VariableDeclaration) Type() NodeType   { return TypeVariableDeclaration }
func (*VariableDeclarator) Type() NodeType    { return TypeVariableDeclarator }
func (*FunctionDeclaration) Type() NodeType   { return TypeFunctionDeclaration }
func (*BlockStatement) Type() NodeType        { return TypeBlockStatement }
func (*EmptyStatement) Type() NodeType        { return TypeEmptyStatement }
func (*ExpressionStatement) Type() NodeType   { return TypeExpressionStatement }
func (*IfStatement) Type() NodeType           { return TypeIfStatement }
func (*WhileStatement) Type() NodeType        { return TypeWhileStatement }
func (*ForStatement) Type() NodeType          { return TypeForStatement }
func (*ReturnStatement) Type() NodeType       { return TypeReturnStatement }
func (*BreakStatement) Type() NodeType        { return TypeBreakStatement }
func (*ContinueStatement) Type() NodeType     { return TypeContinueStatement }
func (*ThrowStatement) Type() NodeType        { return TypeThrowStatement }
func (*SwitchStatement) Type() NodeType       { return TypeSwitchStatement }
func (*SwitchCase) Type() NodeType            { return TypeSwitchCase }
func (*TryStatement) Type() NodeType          { return TypeTryStatement }
func (*CatchClause) Type() NodeType           { return TypeCatchClause }
func (*Identifier) Type() NodeType            { return TypeIdentifier }
func (*Literal) Type() NodeType               { return TypeLiteral }
func (*ThisExpression) Type() NodeType        { return TypeThisExpression }
func (*ArrayExpression) Type() NodeType       { return TypeArrayExpression }
func (*ObjectExpression) Type() NodeType      { return TypeObjectExpression }
func (*Property) Type() NodeType              { return TypeProperty }
func (*FunctionExpression) Type() NodeType    { return TypeFunctionExpression }
func (*UnaryExpression) Type() NodeType       { return TypeUnaryExpression }
func (*UpdateExpression) Type() NodeType      { return TypeUpdateExpression }
func (*BinaryExpression) Type() NodeType      { return TypeBinaryExpression }
func (*LogicalExpression) Type() NodeType     { return TypeLogicalExpression }
func (*AssignmentExpression) Type() NodeType  { return TypeAssignmentExpression }
func (*ConditionalExpression) Type() NodeType { return TypeConditionalExpression }
func (*CallExpression) Type() NodeType        { return TypeCallExpression }
func (*NewExpression) Type() NodeType         { return TypeNewExpression }
func (*MemberExpression) Type() NodeType      { return TypeMemberExpression }
func (*SequenceExpression) Type() NodeType    { return TypeSequenceExpression }

func (*VariableDeclaration) stmt() {}
func (*FunctionDeclaration) stmt() {}
func (*BlockStatement) stmt()      {}
func (*EmptyStatement) stmt()      {}
func (*ExpressionStatement) stmt() {}
func (*IfStatement) stmt()         {}
func (*WhileStatement) stmt()      {}
func (*ForStatement) stmt()        {}
func (*ReturnStatement) stmt()     {}
func (*BreakStatement) stmt()      {}
func (*ContinueStatement) stmt()   {}
func (*ThrowStatement) stmt()      {}
func (*SwitchStatement) stmt()     {}
func (*TryStatement) stmt()        {}

func (*Identifier) expr()            {}
func (*Literal) expr()               {}
func (*ThisExpression) expr()        {}
func (*ArrayExpression) expr()       {}
func (*ObjectExpression) expr()      {}
func (*FunctionExpression) expr()    {}
func (*UnaryExpression) expr()       {}
func (*UpdateExpression) expr()      {}
func (*BinaryExpression) expr()      {}
func (*LogicalExpression) expr()     {}
func (*AssignmentExpression) expr()  {}
func (*ConditionalExpression) expr() {}
func (*CallExpression) expr()        {}
func (*NewExpression) expr()         {}
func (*MemberExpression) expr()      {}
func (*SequenceExpression) expr()    {}
