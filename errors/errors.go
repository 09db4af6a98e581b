package errors

import (
	"fmt"
	"strconv"
	"strings"
)

// Phase names the stage that failed.
type Phase string

const (
	PhaseParse     Phase = "parse"     // source to syntax tree
	PhaseTranspile Phase = "transpile" // syntax tree to resumable tree
	PhaseRuntime   Phase = "runtime"   // evaluating a tree
	PhaseResume    Phase = "resume"    // replaying a suspended call chain
	PhaseHost      Phase = "host"      // host function registration
)

// Kind is the class of failure within a phase.
type Kind string

const (
	KindUnsupported        Kind = "unsupported"
	KindInvalidInput       Kind = "invalid_input"
	KindInvalidData        Kind = "invalid_data"
	KindOutOfBounds        Kind = "out_of_bounds"
	KindFieldMissing       Kind = "field_missing"
	KindAlreadyTransformed Kind = "already_transformed"
	KindNameConflict       Kind = "name_conflict"
	KindCanceled           Kind = "canceled"
	KindLimitExceeded      Kind = "limit_exceeded"
)

// Error is returned by every package of the module.
//
// Path locates the failure in a syntax tree or resume record as a list of
// field names and indices, outermost first. Line is the 1-based source line
// when the error comes from the parser.
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	NodeType string
	Detail   string
	Path     []string
	Line     int
}

// Error renders "[phase] kind at path (line N): node T - detail (caused by: cause)",
// leaving out the parts that are empty.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("[" + string(e.Phase) + "] " + string(e.Kind))

	if where := e.where(); where != "" {
		b.WriteString(" at " + where)
	}
	if e.Line > 0 {
		b.WriteString(" (line " + strconv.Itoa(e.Line) + ")")
	}

	sep := ": "
	if e.NodeType != "" {
		b.WriteString(sep + "node " + e.NodeType)
		sep = " - "
	}
	if e.Detail != "" {
		b.WriteString(sep + e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: " + e.Cause.Error() + ")")
	}
	return b.String()
}

func (e *Error) where() string {
	return strings.Join(e.Path, ".")
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches a template *Error by phase and kind, so callers can write
//
//	errors.Is(err, &Error{Phase: PhaseResume, Kind: KindInvalidData})
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Phase == t.Phase && e.Kind == t.Kind
}

// Builder assembles an Error field by field.
type Builder struct {
	err Error
}

func New(phase Phase, kind Kind) *Builder {
	return &Builder{err: Error{Phase: phase, Kind: kind}}
}

func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

func (b *Builder) NodeType(t string) *Builder {
	b.err.NodeType = t
	return b
}

func (b *Builder) Line(line int) *Builder {
	b.err.Line = line
	return b
}

func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail formats msg with args when any are given.
func (b *Builder) Detail(msg string, args ...any) *Builder {
	b.err.Detail = format(msg, args)
	return b
}

func (b *Builder) Build() *Error {
	return &b.err
}

func format(msg string, args []any) string {
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

// Unsupported reports a construct the module does not handle.
func Unsupported(phase Phase, what string) *Error {
	return New(phase, KindUnsupported).Detail(what).Build()
}

// UnsupportedNode reports a statement kind no handler accepts. The node
// type doubles as Value so callers can switch on it.
func UnsupportedNode(phase Phase, nodeType string, path []string) *Error {
	return New(phase, KindUnsupported).
		NodeType(nodeType).
		Value(nodeType).
		Path(path...).
		Detail("no handler registered").
		Build()
}

// OutOfBounds reports an index outside the range a record allows.
func OutOfBounds(phase Phase, path []string, index int, detail string) *Error {
	return New(phase, KindOutOfBounds).
		Path(path...).
		Value(index).
		Detail("%s %d", detail, index).
		Build()
}

func FieldMissing(phase Phase, path []string, fieldName string) *Error {
	return New(phase, KindFieldMissing).
		Path(path...).
		Detail("required field %q not found", fieldName).
		Build()
}

func InvalidData(phase Phase, path []string, detail string) *Error {
	return New(phase, KindInvalidData).Path(path...).Detail(detail).Build()
}

func InvalidInput(phase Phase, detail string) *Error {
	return New(phase, KindInvalidInput).Detail(detail).Build()
}

// NameConflict reports a source name that collides with a generated one.
func NameConflict(phase Phase, name, reservedFor string) *Error {
	return New(phase, KindNameConflict).
		Value(name).
		Detail("name %q is reserved for %s", name, reservedFor).
		Build()
}

// AlreadyTransformed rejects input that already went through the transform.
func AlreadyTransformed(detail string) *Error {
	return New(PhaseTranspile, KindAlreadyTransformed).Detail(detail).Build()
}

// Canceled wraps the context error that stopped an evaluation.
func Canceled(phase Phase, cause error) *Error {
	return New(phase, KindCanceled).Cause(cause).Detail("execution canceled").Build()
}

func LimitExceeded(phase Phase, what string, limit int) *Error {
	return New(phase, KindLimitExceeded).
		Value(limit).
		Detail("%s limit of %d exceeded", what, limit).
		Build()
}

// ParseFailed reports a syntax error at line.
func ParseFailed(line int, detail string, args ...any) *Error {
	return New(PhaseParse, KindInvalidData).Line(line).Detail(detail, args...).Build()
}

// UnsupportedNodesError collects every unsupported statement of a tree so
// they are reported in one pass.
type UnsupportedNodesError struct {
	Nodes []*Error
}

func NewUnsupportedNodesError(nodes []*Error) *UnsupportedNodesError {
	return &UnsupportedNodesError{Nodes: nodes}
}

// Error lists the positions grouped by node type, in first-seen order.
func (e *UnsupportedNodesError) Error() string {
	switch len(e.Nodes) {
	case 0:
		return "[transpile] unsupported: no nodes specified"
	case 1:
		return e.Nodes[0].Error()
	}

	var order []string
	positions := make(map[string][]string)
	for _, n := range e.Nodes {
		if _, seen := positions[n.NodeType]; !seen {
			order = append(order, n.NodeType)
		}
		where := n.where()
		if where == "" {
			where = "<root>"
		}
		positions[n.NodeType] = append(positions[n.NodeType], where)
	}

	lines := []string{fmt.Sprintf("%d unsupported node(s):", len(e.Nodes))}
	for _, t := range order {
		lines = append(lines, "", "  "+t+":")
		for _, where := range positions[t] {
			lines = append(lines, "    - "+where)
		}
	}
	return strings.Join(lines, "\n")
}

// Unwrap exposes the node errors to errors.Is and errors.As.
func (e *UnsupportedNodesError) Unwrap() []error {
	errs := make([]error, 0, len(e.Nodes))
	for _, n := range e.Nodes {
		errs = append(errs, n)
	}
	return errs
}

func (e *UnsupportedNodesError) Is(target error) bool {
	_, ok := target.(*UnsupportedNodesError)
	return ok
}
