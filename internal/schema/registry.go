// Package schema holds the declared metadata of every record type: fields,
// per-field search settings and table-level CRUD settings.
//
// Definitions are registered once at startup (from Go literals or a CUE
// file, see package cueload) and read concurrently afterwards by the
// condition compiler, the request builder, the CRUD façade and the
// reference backend.
package schema

import (
	"fmt"
	"sort"
	"sync"
)

// RecordType identifies a declared record schema, e.g. "video_collection".
type RecordType string

// SearchMeta is the per-field search configuration.
type SearchMeta struct {
	Operator Operator `json:"operator" yaml:"operator"`
	Multi    Multi    `json:"multi" yaml:"multi"`
	Wildcard Wildcard `json:"wildcard" yaml:"wildcard"`
}

// DefaultSearch is applied to fields submitted in a search without an
// explicit SearchMeta.
var DefaultSearch = SearchMeta{Operator: OpEQ, Multi: NoMulti, Wildcard: NoWildcard}

// NewSearchMeta fills unset members with their defaults.
func NewSearchMeta(op Operator, multi Multi, wildcard Wildcard) SearchMeta {
	sm := SearchMeta{Operator: op, Multi: multi, Wildcard: wildcard}
	if sm.Operator == "" {
		sm.Operator = DefaultSearch.Operator
	}
	if sm.Multi == "" {
		sm.Multi = DefaultSearch.Multi
	}
	if sm.Wildcard == "" {
		sm.Wildcard = DefaultSearch.Wildcard
	}
	return sm
}

// TableMeta is the table-level configuration of a record type.
type TableMeta struct {
	BasePath    string `json:"basePath"`
	AllowModify bool   `json:"allowModify"`
	AllowDelete bool   `json:"allowDelete"`
	Description string `json:"description"`
}

// DisplayValue maps a stored value to the text (and optional status badge)
// shown for it.
type DisplayValue struct {
	Value  any    `json:"value"`
	Text   string `json:"text"`
	Status string `json:"status,omitempty"`
}

// FieldDef declares one field. Zero-valued members take their defaults at
// registration.
type FieldDef struct {
	Name          string
	Column        string // physical column override
	Type          WireType
	Description   string
	Required      bool
	Visibility    Visibility
	Controls      map[Context]ControlType // per-form control hints
	DisplayValues []DisplayValue
	Sortable      bool
	Filterable    bool
	Element       []FieldDef // element schema for ObjectArray
	Search        *SearchMeta
}

// Definition is everything declared for one record type.
type Definition struct {
	Type   RecordType
	Table  *TableMeta
	Fields []FieldDef
}

// FieldMeta is the registered, immutable metadata of one field.
type FieldMeta struct {
	Name          string
	Column        string
	Type          WireType
	Description   string
	Required      bool
	Visibility    Visibility
	Controls      map[Context]ControlType
	DisplayValues []DisplayValue
	Sortable      bool
	Filterable    bool
	Element       []*FieldMeta
}

// Control returns the control used for the field in ctx: the declared hint
// if any, otherwise the default for its wire type.
func (f *FieldMeta) Control(ctx Context) ControlType {
	if ct, ok := f.Controls[ctx]; ok {
		return ct
	}
	return DefaultControl(f.Type)
}

// DisplayText returns the display text for a stored value, or "" when no
// mapping matches.
func (f *FieldMeta) DisplayText(v any) string {
	for _, dv := range f.DisplayValues {
		if fmt.Sprint(dv.Value) == fmt.Sprint(v) {
			return dv.Text
		}
	}
	return ""
}

// RecordSchema is the registered metadata of one record type.
type RecordSchema struct {
	Type   RecordType
	Table  TableMeta
	fields []*FieldMeta
	byName map[string]*FieldMeta
	search map[string]SearchMeta
}

// Fields returns the fields in declaration order.
func (rs *RecordSchema) Fields() []*FieldMeta { return rs.fields }

// Field returns the named field.
func (rs *RecordSchema) Field(name string) (*FieldMeta, bool) {
	f, ok := rs.byName[name]
	return f, ok
}

// FieldByColumn returns the field stored in the given physical column.
func (rs *RecordSchema) FieldByColumn(column string) (*FieldMeta, bool) {
	for _, f := range rs.fields {
		if f.Column == column {
			return f, true
		}
	}
	return nil, false
}

// Search returns the declared search configuration of a field.
func (rs *RecordSchema) Search(name string) (SearchMeta, bool) {
	sm, ok := rs.search[name]
	return sm, ok
}

// SearchOrDefault returns the declared search configuration of a field or
// DefaultSearch.
func (rs *RecordSchema) SearchOrDefault(name string) SearchMeta {
	if sm, ok := rs.search[name]; ok {
		return sm
	}
	return DefaultSearch
}

// Searchable lists the names of fields with a declared search
// configuration, in declaration order.
func (rs *RecordSchema) Searchable() []string {
	var out []string
	for _, f := range rs.fields {
		if _, ok := rs.search[f.Name]; ok {
			out = append(out, f.Name)
		}
	}
	return out
}

// Registry holds the schemas of all record types. It is safe for
// concurrent use.
type Registry struct {
	mu      sync.RWMutex
	schemas map[RecordType]*RecordSchema
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[RecordType]*RecordSchema)}
}

// Register validates def and stores it. A second registration for the same
// record type is ignored: the first one wins.
func (r *Registry) Register(def Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.schemas[def.Type]; exists {
		return nil
	}
	rs, err := compile(def)
	if err != nil {
		return err
	}
	r.schemas[def.Type] = rs
	return nil
}

// MustRegister is Register for static definitions; it panics on error.
func (r *Registry) MustRegister(def Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Get returns the schema of a record type.
func (r *Registry) Get(rt RecordType) (*RecordSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rs, ok := r.schemas[rt]
	if !ok {
		return nil, &SchemaNotFoundError{Type: rt}
	}
	return rs, nil
}

// Types returns all registered record types in sorted order.
func (r *Registry) Types() []RecordType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RecordType, 0, len(r.schemas))
	for rt := range r.schemas {
		out = append(out, rt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ── Compilation ─────────────────────────────────────────────

func compile(def Definition) (*RecordSchema, error) {
	if def.Table == nil {
		return nil, &TableMissingError{Type: def.Type}
	}
	if len(def.Fields) == 0 {
		return nil, &FieldsMissingError{Type: def.Type}
	}
	rs := &RecordSchema{
		Type:   def.Type,
		Table:  *def.Table,
		byName: make(map[string]*FieldMeta, len(def.Fields)),
		search: make(map[string]SearchMeta),
	}
	if rs.Table.Description == "" {
		rs.Table.Description = string(def.Type)
	}
	fields, err := compileFields(def.Type, def.Fields)
	if err != nil {
		return nil, err
	}
	rs.fields = fields
	for i, fd := range def.Fields {
		rs.byName[fields[i].Name] = fields[i]
		if fd.Search == nil {
			continue
		}
		sm := NewSearchMeta(fd.Search.Operator, fd.Search.Multi, fd.Search.Wildcard)
		if err := validateSearch(def.Type, fd.Name, sm); err != nil {
			return nil, err
		}
		rs.search[fd.Name] = sm
	}
	return rs, nil
}

func compileFields(rt RecordType, defs []FieldDef) ([]*FieldMeta, error) {
	out := make([]*FieldMeta, 0, len(defs))
	seen := make(map[string]bool, len(defs))
	for _, fd := range defs {
		if fd.Name == "" {
			return nil, &InvalidFieldError{Type: rt, Field: "?", Reason: "field name is empty"}
		}
		if seen[fd.Name] {
			return nil, &InvalidFieldError{Type: rt, Field: fd.Name, Reason: "declared twice"}
		}
		seen[fd.Name] = true
		if fd.Type < WireDouble || fd.Type > WireObjectMap {
			return nil, &InvalidFieldError{Type: rt, Field: fd.Name, Reason: fmt.Sprintf("invalid wire type %d", fd.Type)}
		}
		fm := &FieldMeta{
			Name:          fd.Name,
			Column:        fd.Column,
			Type:          fd.Type,
			Description:   fd.Description,
			Required:      fd.Required,
			Visibility:    fd.Visibility,
			Controls:      fd.Controls,
			DisplayValues: fd.DisplayValues,
			Sortable:      fd.Sortable,
			Filterable:    fd.Filterable,
		}
		if fm.Column == "" {
			fm.Column = ColumnName(fd.Name)
		}
		if fm.Description == "" {
			fm.Description = fd.Name
		}
		if len(fd.Element) > 0 {
			if fd.Type != WireObjectArray {
				return nil, &InvalidFieldError{Type: rt, Field: fd.Name, Reason: "element schema on a non object-array field"}
			}
			elem, err := compileFields(rt, fd.Element)
			if err != nil {
				return nil, err
			}
			fm.Element = elem
		}
		out = append(out, fm)
	}
	return out, nil
}

func validateSearch(rt RecordType, field string, sm SearchMeta) error {
	switch {
	case !sm.Operator.Valid():
		return &InvalidFieldError{Type: rt, Field: field, Reason: fmt.Sprintf("unknown operator %q", sm.Operator)}
	case !sm.Multi.Valid():
		return &InvalidFieldError{Type: rt, Field: field, Reason: fmt.Sprintf("unknown multi %q", sm.Multi)}
	case !sm.Wildcard.Valid():
		return &InvalidFieldError{Type: rt, Field: field, Reason: fmt.Sprintf("unknown wildcard %q", sm.Wildcard)}
	}
	return nil
}
