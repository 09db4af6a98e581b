package runtime

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dop251/goja"

	"github.com/wippyai/resumable/js"
)

// Value is a JavaScript value owned by a Runtime.
type Value = goja.Value

var (
	// Undefined is the JavaScript undefined value.
	Undefined = goja.Undefined()
	// Null is the JavaScript null value.
	Null = goja.Null()
)

// ThrowError is an uncaught JavaScript exception. Host functions return
// one to throw Value into the calling script, where a catch clause can
// intercept it.
type ThrowError struct {
	// Value is the thrown value: a Value, or a Go value converted when it
	// is thrown.
	Value any
}

func (e *ThrowError) Error() string {
	return "uncaught exception: " + ToString(e.Value)
}

// ToString converts v the way String(v) does in JavaScript. Go values are
// formatted with fmt.
func ToString(v any) string {
	switch x := v.(type) {
	case nil:
		return "undefined"
	case goja.Value:
		return x.String()
	case string:
		return x
	}
	return fmt.Sprint(v)
}

// Inspect renders v for display: strings are quoted and arrays and plain
// objects are expanded.
func Inspect(v any) string {
	var sb strings.Builder
	switch x := v.(type) {
	case nil:
		sb.WriteString("undefined")
	case goja.Value:
		inspect(&sb, x, 0)
	case string:
		sb.WriteString(js.Quote(x))
	default:
		fmt.Fprint(&sb, x)
	}
	return sb.String()
}

func inspect(sb *strings.Builder, v goja.Value, depth int) {
	if depth > 4 {
		sb.WriteString("...")
		return
	}
	if v == nil || goja.IsUndefined(v) {
		sb.WriteString("undefined")
		return
	}
	o, ok := v.(*goja.Object)
	if !ok {
		if s, ok := v.Export().(string); ok {
			sb.WriteString(js.Quote(s))
			return
		}
		sb.WriteString(v.String())
		return
	}
	if _, ok := goja.AssertFunction(o); ok {
		sb.WriteString("[Function " + displayName(o.Get("name")) + "]")
		return
	}

	switch o.ClassName() {
	case "Array":
		sb.WriteByte('[')
		n := o.Get("length").ToInteger()
		for i := int64(0); i < n; i++ {
			if i > 0 {
				sb.WriteString(", ")
			}
			inspect(sb, o.Get(strconv.FormatInt(i, 10)), depth+1)
		}
		sb.WriteByte(']')
	case "Object":
		keys := o.Keys()
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(" " + k + ": ")
			inspect(sb, o.Get(k), depth+1)
		}
		if len(keys) > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte('}')
	default:
		sb.WriteString(o.String())
	}
}

func displayName(name goja.Value) string {
	if name == nil || goja.IsUndefined(name) || name.String() == "" {
		return "(anonymous)"
	}
	return name.String()
}
