package request

import (
	"fmt"
	"reflect"
	"sort"
)

// MergeFilters combines two sets of filter values, typically the search
// form and the table's column filters. Keys present on one side only are
// copied. Keys present on both sides with a non-empty left value are
// intersected: the result keeps the right-hand elements also found on the
// left, an empty intersection becomes nil and a single survivor is
// unboxed to a scalar.
func MergeFilters(a, b Values) Values {
	out := make(Values, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if left, ok := a[k]; ok && truthy(left) {
			out[k] = intersect(left, b[k])
		} else {
			out[k] = b[k]
		}
	}
	return out
}

func intersect(left, right any) any {
	if left == nil {
		return unbox(right)
	}
	if right == nil {
		return unbox(left)
	}
	l, r := asList(left), asList(right)
	seen := make(map[string]bool, len(l))
	for _, v := range l {
		seen[key(v)] = true
	}
	var both []any
	for _, v := range r {
		if seen[key(v)] {
			both = append(both, v)
		}
	}
	return unbox(both)
}

func unbox(v any) any {
	if v == nil || reflect.ValueOf(v).Kind() != reflect.Slice {
		return v
	}
	list := asList(v)
	switch len(list) {
	case 0:
		return nil
	case 1:
		return list[0]
	default:
		return list
	}
}

func asList(v any) []any {
	if list, ok := v.([]any); ok {
		return list
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// key identifies a scalar for intersection; element types are compared
// strictly so 1 and "1" stay distinct.
func key(v any) string {
	return fmt.Sprintf("%T:%v", v, v)
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	}
	return true
}
