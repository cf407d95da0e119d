package backend

import (
	"fmt"

	"entgo.io/ent/dialect/sql"

	"github.com/wesleywu/hello-antd-pro/internal/condition"
	"github.com/wesleywu/hello-antd-pro/internal/request"
	"github.com/wesleywu/hello-antd-pro/internal/schema"
)

// BadConditionError reports a condition the store cannot evaluate.
type BadConditionError struct {
	Field  string
	Reason string
}

func (e *BadConditionError) Error() string {
	return fmt.Sprintf("condition on %s: %s", e.Field, e.Reason)
}

// Predicate compiles the fragments of body into one predicate over rs's
// table. It returns nil when body carries no fragment.
func Predicate(rs *schema.RecordSchema, body *request.Body) (*sql.Predicate, error) {
	var preds []*sql.Predicate
	for _, frag := range body.Fragments {
		f, ok := rs.Field(frag.Field)
		if !ok {
			return nil, &BadConditionError{Field: frag.Field, Reason: "unknown field"}
		}
		p, err := conditionPredicate(f, rs.SearchOrDefault(f.Name), frag.Condition)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	switch len(preds) {
	case 0:
		return nil, nil
	case 1:
		return preds[0], nil
	default:
		return sql.And(preds...), nil
	}
}

func conditionPredicate(f *schema.FieldMeta, sm schema.SearchMeta, c condition.Condition) (*sql.Predicate, error) {
	bad := func(format string, args ...any) error {
		return &BadConditionError{Field: f.Name, Reason: fmt.Sprintf(format, args...)}
	}
	if f.Type.Structured() {
		return nil, bad("%s fields cannot be searched", f.Type)
	}
	col := f.Column

	if c.Multi != "" {
		if !condition.IsSliceTag(c.Value.Type) {
			return nil, bad("multi condition with scalar type %q", c.Value.Type)
		}
		raw, ok := asList(c.Value.Value)
		if !ok {
			return nil, bad("multi condition needs a list value")
		}
		vals, err := columnValues(f, raw)
		if err != nil {
			return nil, bad("%v", err)
		}
		switch c.Multi {
		case schema.In, schema.NotIn:
			if len(vals) == 0 {
				return nil, bad("%s with no values", c.Multi)
			}
			if c.Multi == schema.In {
				return sql.In(col, vals...), nil
			}
			return sql.NotIn(col, vals...), nil
		case schema.Between, schema.NotBetween:
			if len(vals) != 2 {
				return nil, bad("%s needs 2 values, got %d", c.Multi, len(vals))
			}
			p := sql.And(sql.GTE(col, vals[0]), sql.LTE(col, vals[1]))
			if c.Multi == schema.NotBetween {
				return sql.Not(p), nil
			}
			return p, nil
		default:
			return nil, bad("unknown multi %q", c.Multi)
		}
	}

	raw := c.Value.Value
	if list, ok := asList(raw); ok {
		// One-sided date conditions carry their instant in a list.
		if !f.Type.Temporal() || len(list) != 1 {
			return nil, bad("single-value condition with a list value")
		}
		raw = list[0]
	}
	switch c.Operator {
	case schema.OpNull:
		return sql.IsNull(col), nil
	case schema.OpNotNull:
		return sql.NotNull(col), nil
	}
	v, err := toColumn(f, raw)
	if err != nil {
		return nil, bad("%v", err)
	}
	if v == nil {
		return nil, bad("%s with null value", c.Operator)
	}
	switch c.Operator {
	case schema.OpEQ:
		return sql.EQ(col, v), nil
	case schema.OpNE:
		return sql.NEQ(col, v), nil
	case schema.OpGT:
		return sql.GT(col, v), nil
	case schema.OpGTE:
		return sql.GTE(col, v), nil
	case schema.OpLT:
		return sql.LT(col, v), nil
	case schema.OpLTE:
		return sql.LTE(col, v), nil
	case schema.OpLike, schema.OpNotLike:
		s, ok := v.(string)
		if !ok || f.Type != schema.WireString {
			return nil, bad("%s on a %s field", c.Operator, f.Type)
		}
		p := likePredicate(col, s, sm.Wildcard)
		if c.Operator == schema.OpNotLike {
			return sql.Not(p), nil
		}
		return p, nil
	default:
		return nil, bad("unknown operator %q", c.Operator)
	}
}

// likePredicate anchors s according to the field's wildcard mode. Without
// a wildcard the value is used as a raw LIKE pattern.
func likePredicate(col, s string, w schema.Wildcard) *sql.Predicate {
	switch w {
	case schema.Contains:
		return sql.Contains(col, s)
	case schema.StartsWith:
		return sql.HasPrefix(col, s)
	case schema.EndsWith:
		return sql.HasSuffix(col, s)
	default:
		return sql.Like(col, s)
	}
}

// asList returns v as a list when it is one. Compiled date conditions
// carry []string, decoded bodies []any.
func asList(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

func columnValues(f *schema.FieldMeta, raw []any) ([]any, error) {
	out := make([]any, 0, len(raw))
	for _, r := range raw {
		if r == nil {
			continue
		}
		v, err := toColumn(f, r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
