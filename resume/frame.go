package resume

import (
	"maps"
	"sort"
	"strconv"

	"github.com/wippyai/resumable/errors"
)

// Frame is the resume record of one suspended function invocation.
//
// StatementIndex is the step counter at the time of suspension. The step
// that was in flight is StatementIndex-1; its result, once known, is
// written to the binding Assignments names for that index.
type Frame struct {
	// Func re-enters the frame. Its type is owned by the runtime.
	Func any
	// Values holds every captured binding by name.
	Values map[string]any
	// Assignments maps a step index to the temporary it assigns.
	Assignments    map[int]string
	StatementIndex int
}

// Validate checks that the record can be resumed.
func (f *Frame) Validate() error {
	if f.Func == nil {
		return errors.FieldMissing(errors.PhaseResume, nil, "func")
	}
	if f.StatementIndex < 0 {
		return errors.OutOfBounds(errors.PhaseResume, []string{"statementIndex"}, f.StatementIndex, "negative statement index")
	}
	for _, idx := range f.assignmentIndices() {
		name := f.Assignments[idx]
		if idx < 0 {
			return errors.OutOfBounds(errors.PhaseResume, []string{"assignments", strconv.Itoa(idx)}, idx, "negative assignment index")
		}
		if _, ok := f.Values[name]; !ok {
			return errors.FieldMissing(errors.PhaseResume, []string{"assignments", strconv.Itoa(idx)}, name)
		}
	}
	return nil
}

func (f *Frame) assignmentIndices() []int {
	out := make([]int, 0, len(f.Assignments))
	for idx := range f.Assignments {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// Clone returns a copy whose maps can be modified independently.
func (f *Frame) Clone() *Frame {
	return &Frame{
		Func:           f.Func,
		Values:         maps.Clone(f.Values),
		Assignments:    maps.Clone(f.Assignments),
		StatementIndex: f.StatementIndex,
	}
}

// Inject returns a copy of the frame with value written to the binding
// assigned by the suspended step. Frames whose suspended step assigns
// nothing are returned unchanged apart from the copy.
func (f *Frame) Inject(value any) *Frame {
	out := f.Clone()
	if out.Values == nil {
		out.Values = make(map[string]any)
	}
	if name, ok := out.Assignments[out.StatementIndex-1]; ok {
		out.Values[name] = value
	}
	return out
}

// InFlight returns the index of the step that was executing when the frame
// was suspended, or -1 if none had started.
func (f *Frame) InFlight() int {
	return f.StatementIndex - 1
}
