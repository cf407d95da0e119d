package request

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/wesleywu/hello-antd-pro/internal/condition"
)

// PageRequestKey is the body member carrying pagination.
const PageRequestKey = "pageRequest"

// Direction is a sort direction on the wire.
type Direction string

const (
	Asc  Direction = "Asc"
	Desc Direction = "Desc"
)

// SortEntry orders results by a physical column.
type SortEntry struct {
	Property  string    `json:"property"`
	Direction Direction `json:"direction"`
}

// PageRequest selects one page of results.
type PageRequest struct {
	Number int         `json:"number"`
	Size   int         `json:"size"`
	Sorts  []SortEntry `json:"sorts,omitempty"`
}

// Fragment is one field's condition within a body.
type Fragment struct {
	Field     string
	Condition condition.Condition
}

// Body is a compiled query body. It marshals to a single JSON object with
// one member per fragment, in order, followed by pageRequest.
type Body struct {
	Fragments   []Fragment
	PageRequest *PageRequest
}

// Condition returns the fragment for field.
func (b *Body) Condition(field string) (condition.Condition, bool) {
	for _, f := range b.Fragments {
		if f.Field == field {
			return f.Condition, true
		}
	}
	return condition.Condition{}, false
}

func (b Body) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range b.Fragments {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, f.Field, f.Condition); err != nil {
			return nil, err
		}
	}
	if b.PageRequest != nil {
		if len(b.Fragments) > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, PageRequestKey, b.PageRequest); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, key string, v any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	val, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(val)
	return nil
}

// UnmarshalJSON reads a body back, keeping member order. Numbers inside
// condition values decode as json.Number.
func (b *Body) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("request body: expected object, got %v", tok)
	}
	*b = Body{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		if key == PageRequestKey {
			var pr PageRequest
			if err := dec.Decode(&pr); err != nil {
				return fmt.Errorf("request body: %s: %w", key, err)
			}
			b.PageRequest = &pr
			continue
		}
		var c condition.Condition
		if err := dec.Decode(&c); err != nil {
			return fmt.Errorf("request body: %s: %w", key, err)
		}
		if c.Type != condition.EnvelopeType {
			return fmt.Errorf("request body: %s: unexpected @type %q", key, c.Type)
		}
		if (c.Operator == "") == (c.Multi == "") {
			return fmt.Errorf("request body: %s: exactly one of operator and multi must be set", key)
		}
		b.Fragments = append(b.Fragments, Fragment{Field: key, Condition: c})
	}
	_, err = dec.Token()
	return err
}
