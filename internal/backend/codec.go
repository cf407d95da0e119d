package backend

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/wesleywu/hello-antd-pro/internal/condition"
	"github.com/wesleywu/hello-antd-pro/internal/schema"
)

// toColumn converts a decoded JSON value for f into its stored form.
func toColumn(f *schema.FieldMeta, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch {
	case f.Type.Numeric():
		return toNumber(f.Type, v)
	case f.Type == schema.WireBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%s: want boolean, got %T", f.Name, v)
		}
		return b, nil
	case f.Type == schema.WireString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%s: want string, got %T", f.Name, v)
		}
		return s, nil
	case f.Type.Temporal():
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%s: want timestamp string, got %T", f.Name, v)
		}
		t, ok := condition.ParseInstant(s, condition.ReferenceLocation())
		if !ok {
			return nil, fmt.Errorf("%s: invalid timestamp %q", f.Name, s)
		}
		return condition.FormatInstant(t), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		return string(b), nil
	}
}

func toNumber(wt schema.WireType, v any) (any, error) {
	var s string
	switch x := v.(type) {
	case json.Number:
		s = x.String()
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		s = strconv.Itoa(x)
	case int64:
		s = strconv.FormatInt(x, 10)
	default:
		return nil, fmt.Errorf("want number, got %T", v)
	}
	if wt == schema.WireDouble || wt == schema.WireFloat {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(f, 0) {
			return nil, fmt.Errorf("invalid number %q", s)
		}
		return f, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	switch wt {
	case schema.WireInt32:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, fmt.Errorf("%d out of int32 range", n)
		}
	case schema.WireUInt32:
		if n < 0 || n > math.MaxUint32 {
			return nil, fmt.Errorf("%d out of uint32 range", n)
		}
	case schema.WireUInt64:
		if n < 0 {
			return nil, fmt.Errorf("%d is negative", n)
		}
	}
	return n, nil
}

// fromColumn converts a scanned column value back to its JSON form.
func fromColumn(f *schema.FieldMeta, v any) any {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if v == nil {
		return nil
	}
	switch {
	case f.Type == schema.WireBool:
		switch x := v.(type) {
		case bool:
			return x
		case int64:
			return x != 0
		}
	case f.Type == schema.WireDouble || f.Type == schema.WireFloat:
		switch x := v.(type) {
		case float64:
			return x
		case int64:
			return float64(x)
		}
	case f.Type.Numeric():
		switch x := v.(type) {
		case int64:
			return x
		case float64:
			return int64(x)
		}
	case f.Type.Temporal():
		if t, ok := v.(time.Time); ok {
			return condition.FormatInstant(t)
		}
	case f.Type.Structured():
		if s, ok := v.(string); ok {
			var out any
			if err := json.Unmarshal([]byte(s), &out); err == nil {
				return out
			}
		}
	}
	return v
}
