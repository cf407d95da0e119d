// Package condition compiles one field's submitted search value into a
// backend condition fragment.
//
// A fragment is either produced whole or not at all: values that carry no
// constraint (empty lists, open date ranges) yield nothing silently, and
// values that violate the field's policy (wrong shape, a range without two
// bounds) yield nothing plus a diagnostic on the compiler's Reporter.
package condition

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/wesleywu/hello-antd-pro/internal/diag"
	"github.com/wesleywu/hello-antd-pro/internal/schema"
)

// Condition is one field's constraint in a query body. Exactly one of
// Operator and Multi is set.
type Condition struct {
	Type     string          `json:"@type"`
	Operator schema.Operator `json:"operator,omitempty"`
	Multi    schema.Multi    `json:"multi,omitempty"`
	Value    TypedValue      `json:"value"`
}

// TypedValue is the value envelope of a condition. Value is a scalar or a
// list of scalars.
type TypedValue struct {
	Type  string `json:"@type"`
	Value any    `json:"value"`
}

// Compiler turns submitted values into conditions. The zero value is not
// usable; call NewCompiler.
type Compiler struct {
	// Location is the reference zone for naive date strings and day
	// boundaries.
	Location *time.Location
	Reporter diag.Reporter
}

// NewCompiler returns a compiler using the reference zone. A nil reporter
// discards diagnostics.
func NewCompiler(reporter diag.Reporter) *Compiler {
	if reporter == nil {
		reporter = diag.Discard
	}
	return &Compiler{Location: ReferenceLocation(), Reporter: reporter}
}

// Compile builds the condition for f given its search settings and the
// submitted value. It returns false when the value yields no fragment.
func (c *Compiler) Compile(f *schema.FieldMeta, sm schema.SearchMeta, v Value) (Condition, bool) {
	if v.IsUndefined() {
		return Condition{}, false
	}
	sm = schema.NewSearchMeta(sm.Operator, sm.Multi, sm.Wildcard)
	switch {
	case f.Type.Numeric():
		return c.compileScalarKind(f, sm, v, "number", isNumber)
	case f.Type == schema.WireBool:
		return c.compileScalarKind(f, sm, v, "boolean", isBool)
	case f.Type == schema.WireString:
		return c.compileScalarKind(f, sm, v, "string", isString)
	case f.Type == schema.WireDate:
		return c.compileRange(f, v, true)
	case f.Type == schema.WireDateTime:
		return c.compileRange(f, v, false)
	default:
		c.report(f, diag.CodeNotSearchable, "%s fields cannot be searched", f.Type)
		return Condition{}, false
	}
}

func (c *Compiler) report(f *schema.FieldMeta, code diag.Code, format string, args ...any) {
	c.Reporter.Report(diag.Diagnostic{Field: f.Name, Code: code, Message: fmt.Sprintf(format, args...)})
}

// ── Numeric, boolean and string fields ──────────────────────

func (c *Compiler) compileScalarKind(f *schema.FieldMeta, sm schema.SearchMeta, v Value, want string, accept func(any) bool) (Condition, bool) {
	if v.Kind() == KindScalar {
		if !accept(v.ScalarValue()) {
			c.report(f, diag.CodeShapeMismatch, "value of %s field should be %s or list of %s, got %T", f.Type, want, want, v.ScalarValue())
			return Condition{}, false
		}
		if !sm.Operator.Valid() {
			c.report(f, diag.CodeInvalidSearch, "unknown operator %q", sm.Operator)
			return Condition{}, false
		}
		return single(f.Type, sm.Operator, v.ScalarValue()), true
	}

	elems := v.Elements()
	for i, e := range elems {
		if e != nil && !accept(e) {
			c.report(f, diag.CodeShapeMismatch, "element %d of %s field should be %s, got %T", i, f.Type, want, e)
			return Condition{}, false
		}
	}
	switch len(elems) {
	case 0:
		return Condition{}, false
	case 1:
		if elems[0] == nil {
			return Condition{}, false
		}
		return single(f.Type, schema.OpEQ, elems[0]), true
	}

	multi := sm.Multi
	if multi == schema.NoMulti {
		multi = schema.In
	}
	tag, _ := SliceTag(f.Type)
	switch multi {
	case schema.In, schema.NotIn:
		list := elems
		if f.Type != schema.WireString {
			list = dropNil(elems)
		}
		return Condition{Type: EnvelopeType, Multi: multi, Value: TypedValue{Type: tag, Value: list}}, true
	case schema.Between, schema.NotBetween:
		if len(elems) != 2 {
			c.report(f, diag.CodeBoundsArity, "%s needs exactly 2 elements, got %d", multi, len(elems))
			return Condition{}, false
		}
		if elems[0] == nil || elems[1] == nil {
			c.report(f, diag.CodeBoundsArity, "%s needs both bounds", multi)
			return Condition{}, false
		}
		return Condition{Type: EnvelopeType, Multi: multi, Value: TypedValue{Type: tag, Value: []any{elems[0], elems[1]}}}, true
	default:
		c.report(f, diag.CodeInvalidSearch, "unknown multi %q", multi)
		return Condition{}, false
	}
}

func single(wt schema.WireType, op schema.Operator, v any) Condition {
	tag, _ := ScalarTag(wt)
	return Condition{Type: EnvelopeType, Operator: op, Value: TypedValue{Type: tag, Value: v}}
}

func dropNil(elems []any) []any {
	out := make([]any, 0, len(elems))
	for _, e := range elems {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

func isBool(v any) bool {
	_, ok := v.(bool)
	return ok
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func isNumber(v any) bool {
	if n, ok := v.(json.Number); ok {
		_, err := n.Float64()
		return err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	case reflect.Float32, reflect.Float64:
		fv := rv.Float()
		return !math.IsNaN(fv) && !math.IsInf(fv, 0)
	default:
		return false
	}
}

// ── Date and date-time ranges ───────────────────────────────

func (c *Compiler) compileRange(f *schema.FieldMeta, v Value, snapToDay bool) (Condition, bool) {
	if v.Kind() != KindMulti {
		c.report(f, diag.CodeShapeMismatch, "value of %s field should be a [start, end] list, got %T", f.Type, v.ScalarValue())
		return Condition{}, false
	}
	elems := v.Elements()
	for i, e := range elems {
		switch e.(type) {
		case nil, string, time.Time:
		default:
			c.report(f, diag.CodeShapeMismatch, "element %d of %s field should be a date string, got %T", i, f.Type, e)
			return Condition{}, false
		}
	}
	if len(elems) == 0 {
		return Condition{}, false
	}
	if len(elems) != 2 {
		c.report(f, diag.CodeRangeArity, "%s range needs exactly 2 elements, got %d", f.Type, len(elems))
		return Condition{}, false
	}

	start, hasStart := c.instant(elems[0])
	end, hasEnd := c.instant(elems[1])
	if snapToDay {
		start = StartOfDay(start, c.Location)
		end = EndOfDay(end, c.Location)
	}

	switch {
	case !hasStart && !hasEnd:
		return Condition{}, false
	case !hasEnd:
		return Condition{Type: EnvelopeType, Operator: schema.OpGTE,
			Value: TypedValue{Type: TimestampType, Value: []string{FormatInstant(start)}}}, true
	case !hasStart:
		return Condition{Type: EnvelopeType, Operator: schema.OpLTE,
			Value: TypedValue{Type: TimestampType, Value: []string{FormatInstant(end)}}}, true
	default:
		tag, _ := SliceTag(f.Type)
		return Condition{Type: EnvelopeType, Multi: schema.Between,
			Value: TypedValue{Type: tag, Value: []string{FormatInstant(start), FormatInstant(end)}}}, true
	}
}

func (c *Compiler) instant(e any) (time.Time, bool) {
	switch x := e.(type) {
	case time.Time:
		if x.IsZero() {
			return time.Time{}, false
		}
		return x, true
	case string:
		return ParseInstant(x, c.Location)
	default:
		return time.Time{}, false
	}
}
