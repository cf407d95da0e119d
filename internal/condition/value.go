package condition

import (
	"reflect"
	"time"
)

// Kind tells the shape of a submitted value.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindScalar
	KindMulti
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindMulti:
		return "multi"
	default:
		return "undefined"
	}
}

// Value is a submitted search value: nothing, a single scalar, or a list
// from a multi-select or range control. A nil element of a list marks an
// absent entry (e.g. an open end of a date range).
type Value struct {
	kind   Kind
	scalar any
	elems  []any
}

// Undefined is the zero Value.
func Undefined() Value { return Value{} }

// Scalar wraps a single value. Scalar(nil) is Undefined.
func Scalar(v any) Value {
	if v == nil {
		return Value{}
	}
	return Value{kind: KindScalar, scalar: v}
}

// Multi wraps a list of values.
func Multi(elems ...any) Value {
	if elems == nil {
		elems = []any{}
	}
	return Value{kind: KindMulti, elems: elems}
}

// Of converts a loosely-typed value, typically decoded from JSON or built
// by a form, into a Value. Slices and arrays become Multi, nil becomes
// Undefined, anything else Scalar. time.Time and []byte are scalars.
func Of(v any) Value {
	switch x := v.(type) {
	case nil:
		return Value{}
	case Value:
		return x
	case []any:
		return Multi(x...)
	case []byte, time.Time:
		return Scalar(x)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Multi()
		}
		elems := make([]any, rv.Len())
		for i := range elems {
			elems[i] = rv.Index(i).Interface()
		}
		return Multi(elems...)
	case reflect.Pointer:
		if rv.IsNil() {
			return Value{}
		}
		return Of(rv.Elem().Interface())
	}
	return Scalar(v)
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsUndefined() bool { return v.kind == KindUndefined }
func (v Value) ScalarValue() any { return v.scalar }
func (v Value) Elements() []any { return v.elems }
func (v Value) Len() int { return len(v.elems) }
