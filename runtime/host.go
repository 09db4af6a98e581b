package runtime

import (
	"context"
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/wippyai/resumable/errors"
	"github.com/wippyai/resumable/resume"
)

// HostFunc is the plain signature of a host function. Its result is
// converted with ToValue; nil becomes undefined.
type HostFunc func(ctx context.Context, args []Value) (any, error)

// NativeFunc receives the whole call, including its receiver.
type NativeFunc func(ctx context.Context, call goja.FunctionCall) (any, error)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	valueType   = reflect.TypeOf((*goja.Value)(nil)).Elem()
)

// Suspend returns the error a host function returns to suspend the
// program. The runtime throws a pause exception in its place, and Run or
// Resume report the collected frames once it reaches the top.
func Suspend(reason string) error {
	return resume.NewSignal(reason)
}

// RegisterFunc installs fn as a global function. A dotted name such as
// "host.sleep" installs it as a property of a global object, creating the
// object when needed.
//
// fn is a NativeFunc, a HostFunc, or any Go function optionally taking a
// context.Context first and returning at most one value and an optional
// error. Numbers, strings and bools are converted with JavaScript
// semantics; Value parameters receive the argument unchanged and other
// parameter types are filled by goja's ExportTo.
//
// The returned error decides what the script sees: Suspend(reason)
// suspends it, a *ThrowError throws its value, and any other error stops
// the run and is returned by Run, Exec or Resume.
func (r *Runtime) RegisterFunc(name string, fn any) error {
	if name == "" {
		return errors.InvalidInput(errors.PhaseHost, "function name cannot be empty")
	}
	native, err := r.bind(name, fn)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	value := r.vm.ToValue(r.native(name, native))
	parts := strings.Split(name, ".")
	leaf := parts[len(parts)-1]
	if len(parts) == 1 {
		return r.vm.Set(name, value)
	}

	var holder *goja.Object
	if v := r.vm.Get(parts[0]); v != nil {
		o, ok := v.(*goja.Object)
		if !ok {
			return errors.New(errors.PhaseHost, errors.KindNameConflict).
				Value(parts[0]).
				Detail("global %q is not an object", parts[0]).
				Build()
		}
		holder = o
	} else {
		holder = r.vm.NewObject()
		if err := r.vm.Set(parts[0], holder); err != nil {
			return err
		}
	}
	for _, p := range parts[1 : len(parts)-1] {
		next, ok := holder.Get(p).(*goja.Object)
		if !ok {
			next = r.vm.NewObject()
			if err := holder.Set(p, next); err != nil {
				return err
			}
		}
		holder = next
	}
	return holder.Set(leaf, value)
}

// native adapts fn to goja, translating its error into a pause exception,
// a thrown value or an interrupt.
func (r *Runtime) native(name string, fn NativeFunc) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		ctx := r.ctx
		v, err := fn(ctx, call)
		if err == nil {
			if cerr := ctx.Err(); cerr != nil {
				r.vm.Interrupt(canceled{cerr})
				return goja.Undefined()
			}
			return r.toValue(v)
		}

		var (
			sig    *resume.Signal
			thrown *ThrowError
		)
		switch {
		case stderrors.As(err, &sig):
			r.logger.Debug("host function suspended",
				zap.String("function", name),
				zap.String("reason", sig.Reason))
			panic(r.pauseObject(sig))
		case stderrors.As(err, &thrown):
			panic(r.toValue(thrown.Value))
		}
		r.logger.Debug("host function failed", zap.String("function", name), zap.Error(err))
		r.abort(err)
		return goja.Undefined()
	}
}

func (r *Runtime) bind(name string, fn any) (NativeFunc, error) {
	switch f := fn.(type) {
	case nil:
		return nil, errors.InvalidInput(errors.PhaseHost, "function cannot be nil")
	case NativeFunc:
		return f, nil
	case func(context.Context, goja.FunctionCall) (any, error):
		return f, nil
	case HostFunc:
		return func(ctx context.Context, call goja.FunctionCall) (any, error) { return f(ctx, call.Arguments) }, nil
	case func(context.Context, []Value) (any, error):
		return func(ctx context.Context, call goja.FunctionCall) (any, error) { return f(ctx, call.Arguments) }, nil
	}

	rv := reflect.ValueOf(fn)
	rt := rv.Type()
	if rt.Kind() != reflect.Func {
		return nil, errors.New(errors.PhaseHost, errors.KindInvalidInput).
			Value(rt.String()).
			Detail("host %q must be a function, got %s", name, rt).
			Build()
	}
	if rt.IsVariadic() {
		return nil, errors.Unsupported(errors.PhaseHost, fmt.Sprintf("host %q: variadic functions", name))
	}

	withContext := rt.NumIn() > 0 && rt.In(0) == contextType
	first := 0
	if withContext {
		first = 1
	}
	for i := first; i < rt.NumIn(); i++ {
		if !convertible(rt.In(i)) {
			return nil, errors.New(errors.PhaseHost, errors.KindUnsupported).
				Detail("host %q: unsupported parameter type %s", name, rt.In(i)).
				Build()
		}
	}

	returnsErr := rt.NumOut() > 0 && rt.Out(rt.NumOut()-1) == errorType
	results := rt.NumOut()
	if returnsErr {
		results--
	}
	if results > 1 {
		return nil, errors.New(errors.PhaseHost, errors.KindUnsupported).
			Detail("host %q: at most one result besides error", name).
			Build()
	}

	return func(ctx context.Context, call goja.FunctionCall) (any, error) {
		in := make([]reflect.Value, 0, rt.NumIn())
		if withContext {
			in = append(in, reflect.ValueOf(ctx))
		}
		for i := first; i < rt.NumIn(); i++ {
			arg, err := r.fromValue(call.Argument(i-first), rt.In(i))
			if err != nil {
				panic(r.vm.NewTypeError("%s: argument %d: %v", name, i-first, err))
			}
			in = append(in, arg)
		}

		out := rv.Call(in)
		if returnsErr {
			if errv := out[len(out)-1]; !errv.IsNil() {
				return nil, errv.Interface().(error)
			}
		}
		if results == 0 {
			return nil, nil
		}
		return out[0].Interface(), nil
	}, nil
}

func convertible(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Chan, reflect.UnsafePointer, reflect.Uintptr, reflect.Complex64, reflect.Complex128:
		return false
	}
	return true
}

// fromValue converts a JavaScript argument to the Go parameter type t.
func (r *Runtime) fromValue(v goja.Value, t reflect.Type) (reflect.Value, error) {
	if t == valueType {
		return reflect.ValueOf(&v).Elem(), nil
	}
	switch t.Kind() {
	case reflect.Bool:
		return reflect.ValueOf(v.ToBoolean()).Convert(t), nil
	case reflect.String:
		return reflect.ValueOf(v.String()).Convert(t), nil
	case reflect.Float32, reflect.Float64:
		return reflect.ValueOf(v.ToFloat()).Convert(t), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return reflect.ValueOf(v.ToInteger()).Convert(t), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return reflect.ValueOf(uint64(v.ToInteger())).Convert(t), nil
	}
	ptr := reflect.New(t)
	if err := r.vm.ExportTo(v, ptr.Interface()); err != nil {
		return reflect.Value{}, err
	}
	return ptr.Elem(), nil
}
