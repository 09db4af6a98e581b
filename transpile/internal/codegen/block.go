package codegen

import (
	"github.com/wippyai/resumable/ast"
)

// Step is one dispatch step: an index and the statements run when control
// reaches it. A prepared step additionally carries one nested statement
// covering the indices allocated after it.
type Step struct {
	fc       *FunctionContext
	nested   ast.Statement
	body     []ast.Statement
	index    int
	last     int
	prepared bool
}

// Index returns the step's dispatch index.
func (s *Step) Index() int {
	return s.index
}

// Body returns the statements of the step, without the counter increment.
func (s *Step) Body() []ast.Statement {
	return s.body
}

// Nested returns the statement attached with Assign, or nil.
func (s *Step) Nested() ast.Statement {
	return s.nested
}

// Assign attaches the nested statement of a prepared step. Every index
// allocated since PrepareStep belongs to it.
func (s *Step) Assign(stmt ast.Statement) {
	s.nested = stmt
	s.last = s.fc.Peek() - 1
}

// BlockContext accumulates the dispatch steps of one lexical block.
// All blocks of a function share its FunctionContext counter.
type BlockContext struct {
	fc    *FunctionContext
	steps []*Step
}

// NewBlockContext creates an empty block of fc.
func NewBlockContext(fc *FunctionContext) *BlockContext {
	return &BlockContext{fc: fc}
}

// FunctionContext returns the owning function context.
func (b *BlockContext) FunctionContext() *FunctionContext {
	return b.fc
}

// AddStep appends a step with the given body and returns its index.
func (b *BlockContext) AddStep(body ...ast.Statement) int {
	s := &Step{fc: b.fc, index: b.fc.NextIndex(), body: body}
	b.steps = append(b.steps, s)
	return s.index
}

// PrepareStep reserves a marker step whose nested statement is assigned
// later, after the blocks it wraps have taken their indices.
func (b *BlockContext) PrepareStep() *Step {
	s := &Step{fc: b.fc, index: b.fc.NextIndex(), prepared: true}
	b.steps = append(b.steps, s)
	return s
}

// Len returns the number of steps in the block.
func (b *BlockContext) Len() int {
	return len(b.steps)
}

// Steps returns the block's steps in index order.
func (b *BlockContext) Steps() []*Step {
	return b.steps
}

// Finish renders the block as switch (state) { case i: ++state; ... } with
// fallthrough between cases. A prepared step renders as its marker case
// followed by one arm labelled with every nested index.
func (b *BlockContext) Finish() *ast.SwitchStatement {
	state := b.fc.State()
	sw := &ast.SwitchStatement{Discriminant: ast.Ident(state)}

	for _, s := range b.steps {
		c := &ast.SwitchCase{
			Test:       ast.Int(s.index),
			Consequent: append([]ast.Statement{increment(state)}, s.body...),
		}
		sw.Cases = append(sw.Cases, c)

		if !s.prepared || s.nested == nil {
			continue
		}
		if s.last <= s.index {
			c.Consequent = append(c.Consequent, s.nested)
			continue
		}
		for i := s.index + 1; i < s.last; i++ {
			sw.Cases = append(sw.Cases, &ast.SwitchCase{Test: ast.Int(i), Consequent: []ast.Statement{}})
		}
		sw.Cases = append(sw.Cases, &ast.SwitchCase{Test: ast.Int(s.last), Consequent: []ast.Statement{s.nested}})
	}
	return sw
}

func increment(state string) ast.Statement {
	return ast.Expr(&ast.UpdateExpression{Operator: "++", Prefix: true, Argument: ast.Ident(state)})
}
