package runtime

import (
	"math"
	"sort"
	"strconv"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/wippyai/resumable/errors"
	"github.com/wippyai/resumable/resume"
)

// Record keys of the capture epilogue besides the captured bindings.
const (
	keyFunc        = "func"
	keyIndex       = "statementIndex"
	keyAssignments = "assignments"
)

// pauseState ties a pause exception to the signal collecting its frames.
type pauseState struct {
	sig *resume.Signal
}

// installResumable defines the runtime object read by transpiled code:
// its pause exception constructor and the resume marker property.
func (r *Runtime) installResumable() {
	vm := r.vm
	r.signalKey = goja.NewSymbol("resumable.signal")

	ctor := vm.ToValue(func(call goja.ConstructorCall) *goja.Object {
		reason := ""
		if a := call.Argument(0); !goja.IsUndefined(a) {
			reason = a.String()
		}
		r.attach(call.This, resume.NewSignal(reason))
		return nil
	}).(*goja.Object)

	proto, ok := ctor.Get("prototype").(*goja.Object)
	if !ok {
		proto = vm.NewObject()
		_ = ctor.Set("prototype", proto)
	}
	_ = proto.Set("add", r.addRecord)
	r.pauseProto = proto

	obj := vm.NewObject()
	_ = obj.Set(r.names.PauseException, ctor)
	_ = obj.DefineAccessorProperty(r.names.ResumeState,
		vm.ToValue(r.getResumeState),
		vm.ToValue(r.setResumeState),
		goja.FLAG_FALSE, goja.FLAG_TRUE)
	_ = vm.Set(r.names.Runtime, obj)
}

// attach binds sig to the pause exception o.
func (r *Runtime) attach(o *goja.Object, sig *resume.Signal) {
	_ = o.DefineDataPropertySymbol(r.signalKey, r.vm.ToValue(&pauseState{sig: sig}),
		goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_FALSE)
	_ = o.Set("reason", sig.Reason)
}

// pauseObject wraps a signal returned by a host function in a pause
// exception.
func (r *Runtime) pauseObject(sig *resume.Signal) *goja.Object {
	o := r.vm.NewObject()
	_ = o.SetPrototype(r.pauseProto)
	r.attach(o, sig)
	return o
}

// signalOf returns the signal of a pause exception, or nil for any other
// value.
func (r *Runtime) signalOf(v goja.Value) *resume.Signal {
	o, ok := v.(*goja.Object)
	if !ok {
		return nil
	}
	held := o.GetSymbol(r.signalKey)
	if held == nil {
		return nil
	}
	st, ok := held.Export().(*pauseState)
	if !ok {
		return nil
	}
	return st.sig
}

// addRecord is the add method of pause exceptions.
func (r *Runtime) addRecord(call goja.FunctionCall) goja.Value {
	sig := r.signalOf(call.This)
	if sig == nil {
		panic(r.vm.NewTypeError("add called on a non pause exception"))
	}
	f, err := r.frameFromRecord(call.Argument(0))
	if err != nil {
		r.abort(err)
		return goja.Undefined()
	}
	sig.Add(f)
	r.logger.Debug("captured frame",
		zap.Int("depth", sig.Depth()),
		zap.Int("statementIndex", f.StatementIndex),
		zap.Int("values", len(f.Values)))
	return goja.Undefined()
}

func (r *Runtime) getResumeState(goja.FunctionCall) goja.Value {
	f, ok := r.marker.Peek()
	if !ok {
		return goja.Null()
	}
	if r.record == nil {
		r.record = r.recordObject(f)
	}
	return r.record
}

func (r *Runtime) setResumeState(call goja.FunctionCall) goja.Value {
	v := call.Argument(0)
	if !v.ToBoolean() {
		r.clearMarker()
		return goja.Undefined()
	}
	f, err := r.frameFromRecord(v)
	if err != nil {
		r.abort(err)
		return goja.Undefined()
	}
	r.setMarker(f)
	return goja.Undefined()
}

func (r *Runtime) setMarker(f *resume.Frame) {
	r.marker.Set(f)
	r.record = nil
}

func (r *Runtime) clearMarker() {
	r.marker.Clear()
	r.record = nil
}

// frameFromRecord converts a record object written by a capture epilogue.
func (r *Runtime) frameFromRecord(v goja.Value) (*resume.Frame, error) {
	rec, ok := v.(*goja.Object)
	if !ok {
		return nil, errors.InvalidData(errors.PhaseResume, nil, "record is not an object")
	}

	f := &resume.Frame{Values: make(map[string]any), Assignments: make(map[int]string)}
	for _, k := range rec.Keys() {
		val := rec.Get(k)
		switch k {
		case keyFunc:
			if _, ok := goja.AssertFunction(val); !ok {
				return nil, errors.InvalidData(errors.PhaseResume, []string{keyFunc}, "not a function")
			}
			f.Func = val
		case keyIndex:
			n, ok := integer(val)
			if !ok {
				return nil, errors.New(errors.PhaseResume, errors.KindInvalidData).
					Path(keyIndex).
					Value(val.Export()).
					Detail("statement index is not an integer").
					Build()
			}
			f.StatementIndex = n
		case keyAssignments:
			a, ok := val.(*goja.Object)
			if !ok {
				return nil, errors.InvalidData(errors.PhaseResume, []string{keyAssignments}, "not an object")
			}
			for _, idx := range a.Keys() {
				i, err := strconv.Atoi(idx)
				if err != nil {
					return nil, errors.InvalidData(errors.PhaseResume, []string{keyAssignments, idx}, "key is not a step index")
				}
				name, ok := a.Get(idx).Export().(string)
				if !ok {
					return nil, errors.InvalidData(errors.PhaseResume, []string{keyAssignments, idx}, "binding name is not a string")
				}
				f.Assignments[i] = name
			}
		default:
			f.Values[k] = val
		}
	}
	return f, nil
}

// integer reads a whole JavaScript number.
func integer(v goja.Value) (int, bool) {
	switch n := v.Export().(type) {
	case int64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return int(n), true
		}
	}
	return 0, false
}

// recordObject exposes a frame to a restore prologue.
func (r *Runtime) recordObject(f *resume.Frame) *goja.Object {
	o := r.vm.NewObject()
	_ = o.Set(keyFunc, f.Func)
	_ = o.Set(keyIndex, f.StatementIndex)

	assignments := r.vm.NewObject()
	idx := make([]int, 0, len(f.Assignments))
	for i := range f.Assignments {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	for _, i := range idx {
		_ = assignments.Set(strconv.Itoa(i), f.Assignments[i])
	}
	_ = o.Set(keyAssignments, assignments)

	names := make([]string, 0, len(f.Values))
	for name := range f.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		_ = o.Set(name, f.Values[name])
	}
	return o
}
