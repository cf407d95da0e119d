// Package request assembles complete query bodies from submitted filter
// values, pagination and sorting for one record type.
package request

import (
	"github.com/wesleywu/hello-antd-pro/internal/condition"
	"github.com/wesleywu/hello-antd-pro/internal/schema"
)

// Values maps field identifiers to submitted filter values. Entries may be
// condition.Value or any loosely-typed value accepted by condition.Of.
type Values map[string]any

// Page selects a page by number (1-based) and size.
type Page struct {
	Number int
	Size   int
}

// Sort is a UI sort instruction: a field identifier and an order such as
// "ascend" or "descend".
type Sort struct {
	Field string
	Order string
}

// OrderDescend is the UI order mapped to Desc; every other order is Asc.
const OrderDescend = "descend"

// Builder compiles bodies with a condition compiler.
type Builder struct {
	Compiler *condition.Compiler
}

// NewBuilder returns a builder around c.
func NewBuilder(c *condition.Compiler) *Builder {
	return &Builder{Compiler: c}
}

// Build compiles values against rs. Fields are visited in declaration
// order; values for unknown fields are ignored. A nil page omits
// pageRequest, which is how filter-only bodies (delete-multi) are built.
func (b *Builder) Build(rs *schema.RecordSchema, values Values, page *Page, sorts []Sort) *Body {
	body := &Body{}
	for _, f := range rs.Fields() {
		raw, ok := values[f.Name]
		if !ok {
			continue
		}
		v := condition.Of(raw)
		if v.IsUndefined() {
			continue
		}
		c, ok := b.Compiler.Compile(f, rs.SearchOrDefault(f.Name), v)
		if !ok {
			continue
		}
		body.Fragments = append(body.Fragments, Fragment{Field: f.Name, Condition: c})
	}
	if page != nil {
		body.PageRequest = &PageRequest{Number: page.Number, Size: page.Size, Sorts: sortEntries(rs, sorts)}
	}
	return body
}

func sortEntries(rs *schema.RecordSchema, sorts []Sort) []SortEntry {
	var out []SortEntry
	for _, s := range sorts {
		f, ok := rs.Field(s.Field)
		if !ok {
			continue
		}
		dir := Asc
		if s.Order == OrderDescend {
			dir = Desc
		}
		out = append(out, SortEntry{Property: f.Column, Direction: dir})
	}
	return out
}
