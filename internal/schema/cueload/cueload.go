// Package cueload reads record type declarations from CUE files.
//
// A declaration file holds a top-level records list:
//
//	records: [{
//		type: "episode"
//		table: {basePath: "/v1/episode", allowModify: true}
//		fields: [
//			{name: "id", type: "StringValue"},
//			{name: "episodeName", type: "StringValue", search: {operator: "Like", wildcard: "Contains"}},
//			{name: "createdAt", type: "DateTime", visibility: ["list", "detail", "search"]},
//		]
//	}]
//
// The file is unified with #Record before decoding, so misspelled keys and
// unknown enum values are reported with their CUE position.
package cueload

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/wesleywu/hello-antd-pro/internal/schema"
)

const definitions = `
#WireType: "DoubleValue" | "FloatValue" | "Int64Value" | "UInt64Value" |
	"Int32Value" | "UInt32Value" | "BoolValue" | "StringValue" |
	"Date" | "DateTime" | "SimpleArray" | "SimpleMap" | "ObjectArray" | "ObjectMap"
#Operator: "EQ" | "NE" | "GT" | "GTE" | "LT" | "LTE" | "Like" | "NotLike" | "Null" | "NotNull"
#Multi:    "NoMulti" | "Between" | "NotBetween" | "In" | "NotIn"
#Wildcard: "NoWildcard" | "Contains" | "StartsWith" | "EndsWith"
#Visibility: "none" | "list" | "detail" | "create" | "update" | "search" | "all"
#Context: "list" | "detail" | "create" | "update" | "search"
#Control: "text" | "digit" | "password" | "textarea" | "select" |
	"dateRange" | "dateTimeRange" | "formSet" | "formList"

#Search: {
	operator: *"EQ" | #Operator
	multi:    *"NoMulti" | #Multi
	wildcard: *"NoWildcard" | #Wildcard
}

#DisplayValue: {
	value:   number | string | bool
	text:    string
	status?: string
}

#Field: {
	name:           =~"^[A-Za-z_][A-Za-z0-9_]*$"
	column?:        string & !=""
	type:           #WireType
	description?:   string
	required:       *false | bool
	visibility?: [...#Visibility]
	controls?: [#Context]: #Control
	displayValues?: [...#DisplayValue]
	sortable:       *false | bool
	filterable:     *false | bool
	element?: [...#Field]
	search?:        #Search
}

#Table: {
	basePath:     =~"^/"
	allowModify:  *false | bool
	allowDelete:  *false | bool
	description?: string
}

#Record: {
	type:  string & !=""
	table: #Table
	fields: [#Field, ...#Field]
}

records: [...#Record]
`

type recordFile struct {
	Type   string      `json:"type"`
	Table  tableFile   `json:"table"`
	Fields []fieldFile `json:"fields"`
}

type tableFile struct {
	BasePath    string `json:"basePath"`
	AllowModify bool   `json:"allowModify"`
	AllowDelete bool   `json:"allowDelete"`
	Description string `json:"description"`
}

type searchFile struct {
	Operator string `json:"operator"`
	Multi    string `json:"multi"`
	Wildcard string `json:"wildcard"`
}

type fieldFile struct {
	Name          string                `json:"name"`
	Column        string                `json:"column"`
	Type          string                `json:"type"`
	Description   string                `json:"description"`
	Required      bool                  `json:"required"`
	Visibility    []string              `json:"visibility"`
	Controls      map[string]string     `json:"controls"`
	DisplayValues []schema.DisplayValue `json:"displayValues"`
	Sortable      bool                  `json:"sortable"`
	Filterable    bool                  `json:"filterable"`
	Element       []fieldFile           `json:"element"`
	Search        *searchFile           `json:"search"`
}

// Load reads the declarations in a CUE file.
func Load(path string) ([]schema.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cueload: %w", err)
	}
	return LoadBytes(path, data)
}

// LoadBytes reads declarations from CUE source; name is used in error
// positions.
func LoadBytes(name string, data []byte) ([]schema.Definition, error) {
	ctx := cuecontext.New()
	defs := ctx.CompileString(definitions, cue.Filename("definitions.cue"))
	if err := defs.Err(); err != nil {
		return nil, fmt.Errorf("cueload: definitions: %w", err)
	}
	src := ctx.CompileBytes(data, cue.Filename(name))
	if err := src.Err(); err != nil {
		return nil, fmt.Errorf("cueload: %s", details(err))
	}
	val := defs.Unify(src)
	if err := val.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("cueload: %s", details(err))
	}

	var records []recordFile
	if err := val.LookupPath(cue.ParsePath("records")).Decode(&records); err != nil {
		return nil, fmt.Errorf("cueload: decode %s: %s", name, details(err))
	}

	out := make([]schema.Definition, 0, len(records))
	for _, rf := range records {
		def, err := rf.definition()
		if err != nil {
			return nil, fmt.Errorf("cueload: %s: %w", name, err)
		}
		out = append(out, def)
	}
	return out, nil
}

// LoadInto loads path and registers every declaration in reg.
func LoadInto(reg *schema.Registry, path string) error {
	defs, err := Load(path)
	if err != nil {
		return err
	}
	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			return fmt.Errorf("cueload: %s: %w", path, err)
		}
	}
	return nil
}

func details(err error) string {
	return cueerrors.Details(err, nil)
}

func (rf recordFile) definition() (schema.Definition, error) {
	fields, err := convertFields(rf.Type, rf.Fields)
	if err != nil {
		return schema.Definition{}, err
	}
	return schema.Definition{
		Type: schema.RecordType(rf.Type),
		Table: &schema.TableMeta{
			BasePath:    rf.Table.BasePath,
			AllowModify: rf.Table.AllowModify,
			AllowDelete: rf.Table.AllowDelete,
			Description: rf.Table.Description,
		},
		Fields: fields,
	}, nil
}

var contextNames = map[string]schema.Context{
	"list":   schema.ContextList,
	"detail": schema.ContextDetail,
	"create": schema.ContextCreate,
	"update": schema.ContextUpdate,
	"search": schema.ContextSearch,
}

func convertFields(recordType string, files []fieldFile) ([]schema.FieldDef, error) {
	out := make([]schema.FieldDef, 0, len(files))
	for _, ff := range files {
		wt, err := schema.ParseWireType(ff.Type)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", recordType, ff.Name, err)
		}
		vis, err := schema.ParseVisibility(ff.Visibility)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", recordType, ff.Name, err)
		}
		fd := schema.FieldDef{
			Name:          ff.Name,
			Column:        ff.Column,
			Type:          wt,
			Description:   ff.Description,
			Required:      ff.Required,
			Visibility:    vis,
			DisplayValues: ff.DisplayValues,
			Sortable:      ff.Sortable,
			Filterable:    ff.Filterable,
		}
		if len(ff.Controls) > 0 {
			fd.Controls = make(map[schema.Context]schema.ControlType, len(ff.Controls))
			for name, control := range ff.Controls {
				ct, err := schema.ParseControlType(control)
				if err != nil {
					return nil, fmt.Errorf("%s.%s: %w", recordType, ff.Name, err)
				}
				fd.Controls[contextNames[name]] = ct
			}
		}
		if len(ff.Element) > 0 {
			elem, err := convertFields(recordType+"."+ff.Name, ff.Element)
			if err != nil {
				return nil, err
			}
			fd.Element = elem
		}
		if ff.Search != nil {
			fd.Search = &schema.SearchMeta{
				Operator: schema.Operator(ff.Search.Operator),
				Multi:    schema.Multi(ff.Search.Multi),
				Wildcard: schema.Wildcard(ff.Search.Wildcard),
			}
		}
		out = append(out, fd)
	}
	return out, nil
}
