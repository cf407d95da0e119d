// Package openapi describes the CRUD HTTP surface of every registered record
// type as an OpenAPI 3 document.
package openapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/wesleywu/hello-antd-pro/internal/condition"
	"github.com/wesleywu/hello-antd-pro/internal/schema"
)

// Version is the OpenAPI version of generated documents.
const Version = "3.0.3"

// Info names the described API.
type Info struct {
	Title   string
	Version string
}

// ─── Document ───────────────────────────────────────────────

// Document builds and validates the document for all types in reg.
func Document(ctx context.Context, reg *schema.Registry, info Info) (*openapi3.T, error) {
	if info.Title == "" {
		info.Title = "admin backend"
	}
	if info.Version == "" {
		info.Version = "1.0.0"
	}
	c := sharedSchemas()
	doc := &openapi3.T{
		OpenAPI: Version,
		Info:    &openapi3.Info{Title: info.Title, Version: info.Version},
		Paths:   openapi3.NewPaths(),
	}
	for _, rt := range reg.Types() {
		rs, err := reg.Get(rt)
		if err != nil {
			return nil, err
		}
		addRecordType(doc, c, rs)
	}
	doc.Components = &openapi3.Components{Schemas: openapi3.Schemas(c)}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("openapi: validate: %w", err)
	}
	return doc, nil
}

// components holds the named schemas of a document. References carry the
// referenced value so the document validates without a loader.
type components openapi3.Schemas

func (c components) add(name string, s *openapi3.Schema) {
	c[name] = s.NewRef()
}

func (c components) ref(name string) *openapi3.SchemaRef {
	var v *openapi3.Schema
	if r, ok := c[name]; ok {
		v = r.Value
	}
	return openapi3.NewSchemaRef("#/components/schemas/"+name, v)
}

func (c components) body(component string) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchemaRef(c.ref(component)),
	}
}

func (c components) response(description, component string) *openapi3.Response {
	return openapi3.NewResponse().WithDescription(description).WithJSONSchemaRef(c.ref(component))
}

func sharedSchemas() components {
	c := components{}

	typed := openapi3.NewObjectSchema().
		WithProperty("@type", openapi3.NewStringSchema()).
		WithProperty("value", &openapi3.Schema{})
	typed.Required = []string{"@type", "value"}
	c.add("TypedValue", typed)

	cond := openapi3.NewObjectSchema().
		WithProperty("@type", openapi3.NewStringSchema().WithEnum(condition.EnvelopeType)).
		WithProperty("operator", openapi3.NewStringSchema().WithEnum(enum(operators)...)).
		WithProperty("multi", openapi3.NewStringSchema().WithEnum(enum(multis)...))
	cond.Properties["value"] = c.ref("TypedValue")
	cond.Required = []string{"@type", "value"}
	c.add("Condition", cond)

	sortEntry := openapi3.NewObjectSchema().
		WithProperty("property", openapi3.NewStringSchema()).
		WithProperty("direction", openapi3.NewStringSchema().WithEnum("Asc", "Desc"))

	pageRequest := openapi3.NewObjectSchema().
		WithProperty("number", openapi3.NewInt64Schema()).
		WithProperty("size", openapi3.NewInt64Schema()).
		WithProperty("sorts", openapi3.NewArraySchema().WithItems(sortEntry))
	pageRequest.Required = []string{"number", "size"}
	c.add("PageRequest", pageRequest)

	body := openapi3.NewObjectSchema()
	body.Description = "Conditions keyed by field identifier, then pageRequest."
	body.Properties = openapi3.Schemas{"pageRequest": c.ref("PageRequest")}
	body.AdditionalProperties = openapi3.AdditionalProperties{Schema: c.ref("Condition")}
	c.add("QueryBody", body)

	c.add("PageInfo", openapi3.NewObjectSchema().
		WithProperty("number", openapi3.NewInt64Schema()).
		WithProperty("size", openapi3.NewInt64Schema()).
		WithProperty("numberOfElements", openapi3.NewInt64Schema()).
		WithProperty("totalElements", openapi3.NewInt64Schema()).
		WithProperty("first", openapi3.NewBoolSchema()).
		WithProperty("last", openapi3.NewBoolSchema()).
		WithProperty("sorts", openapi3.NewArraySchema().WithItems(sortEntry)))

	c.add("Error", openapi3.NewObjectSchema().
		WithProperty("error", openapi3.NewStringSchema()).
		WithProperty("code", openapi3.NewStringSchema()))

	c.add("DeleteResult", openapi3.NewObjectSchema().
		WithProperty("deleted", openapi3.NewInt64Schema()))
	return c
}

var (
	operators = []schema.Operator{
		schema.OpEQ, schema.OpNE, schema.OpGT, schema.OpGTE, schema.OpLT, schema.OpLTE,
		schema.OpLike, schema.OpNotLike, schema.OpNull, schema.OpNotNull,
	}
	multis = []schema.Multi{schema.Between, schema.NotBetween, schema.In, schema.NotIn}
)

func enum[T ~string](vals []T) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = string(v)
	}
	return out
}

// ─── Record types ───────────────────────────────────────────

// SchemaName returns the component name of a record type.
func SchemaName(rt schema.RecordType) string {
	parts := strings.FieldsFunc(string(rt), func(r rune) bool { return r == '_' || r == '-' || r == '.' })
	var b strings.Builder
	for _, p := range parts {
		r, size := utf8.DecodeRuneInString(p)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(p[size:])
	}
	return b.String()
}

// BasePath returns the normalized base path of rs.
func BasePath(rs *schema.RecordSchema) string {
	return "/" + strings.Trim(rs.Table.BasePath, "/")
}

func addRecordType(doc *openapi3.T, c components, rs *schema.RecordSchema) {
	name := SchemaName(rs.Type)
	c.add(name, recordSchema(rs))

	items := openapi3.NewArraySchema()
	items.Items = c.ref(name)
	list := openapi3.NewObjectSchema().WithProperty("items", items)
	list.Properties["pageInfo"] = c.ref("PageInfo")
	c.add(name+"List", list)

	base := BasePath(rs)
	operation := func(id, summary string) *openapi3.Operation {
		op := openapi3.NewOperation()
		op.Tags = []string{string(rs.Type)}
		op.OperationID = id
		op.Summary = summary
		op.AddResponse(http.StatusBadRequest, c.response("Invalid request", "Error"))
		return op
	}

	listOp := operation("list"+name, "List "+rs.Table.Description)
	listOp.RequestBody = c.body("QueryBody")
	listOp.AddResponse(http.StatusOK, c.response("Page of records", name+"List"))
	doc.Paths.Set(base+"/list", &openapi3.PathItem{Post: listOp})

	createOp := operation("create"+name, "Create "+rs.Table.Description)
	createOp.RequestBody = c.body(name)
	createOp.AddResponse(http.StatusCreated, c.response("Created record", name))
	doc.Paths.Set(base, &openapi3.PathItem{Post: createOp})

	item := &openapi3.PathItem{}
	if rs.Table.AllowModify {
		op := operation("update"+name, "Update "+rs.Table.Description)
		op.Parameters = idParameter()
		op.RequestBody = c.body(name)
		op.AddResponse(http.StatusOK, c.response("Updated record", name))
		op.AddResponse(http.StatusNotFound, c.response("No such record", "Error"))
		item.Patch = op
	}
	if rs.Table.AllowDelete {
		op := operation("delete"+name, "Delete "+rs.Table.Description)
		op.Parameters = idParameter()
		op.AddResponse(http.StatusNoContent, openapi3.NewResponse().WithDescription("Deleted"))
		op.AddResponse(http.StatusNotFound, c.response("No such record", "Error"))
		item.Delete = op

		multi := operation("deleteMulti"+name, "Delete matching "+rs.Table.Description)
		multi.RequestBody = c.body("QueryBody")
		multi.AddResponse(http.StatusOK, c.response("Number of deleted records", "DeleteResult"))
		doc.Paths.Set(base+"/delete", &openapi3.PathItem{Post: multi})
	}
	if item.Patch != nil || item.Delete != nil {
		doc.Paths.Set(base+"/{id}", item)
	}
}

func idParameter() openapi3.Parameters {
	return openapi3.Parameters{
		{Value: openapi3.NewPathParameter("id").WithSchema(openapi3.NewStringSchema())},
	}
}

func recordSchema(rs *schema.RecordSchema) *openapi3.Schema {
	s := openapi3.NewObjectSchema()
	s.Description = rs.Table.Description
	if _, ok := rs.FieldByColumn(schema.PrimaryKeyColumn); !ok {
		s.WithProperty("id", openapi3.NewStringSchema())
	}
	for _, f := range rs.Fields() {
		fs := fieldSchema(f)
		fs.Description = f.Description
		s.WithProperty(f.Name, fs)
		if f.Required {
			s.Required = append(s.Required, f.Name)
		}
	}
	return s
}

func fieldSchema(f *schema.FieldMeta) *openapi3.Schema {
	var s *openapi3.Schema
	switch f.Type {
	case schema.WireDouble, schema.WireFloat:
		s = openapi3.NewFloat64Schema()
	case schema.WireInt32, schema.WireUInt32:
		s = openapi3.NewInt32Schema()
	case schema.WireInt64, schema.WireUInt64:
		s = openapi3.NewInt64Schema()
	case schema.WireBool:
		s = openapi3.NewBoolSchema()
	case schema.WireDate, schema.WireDateTime:
		s = openapi3.NewDateTimeSchema()
	case schema.WireSimpleArray:
		s = openapi3.NewArraySchema().WithItems(&openapi3.Schema{})
	case schema.WireSimpleMap, schema.WireObjectMap:
		s = openapi3.NewObjectSchema().WithAdditionalProperties(&openapi3.Schema{})
	case schema.WireObjectArray:
		elem := openapi3.NewObjectSchema()
		for _, e := range f.Element {
			elem.WithProperty(e.Name, fieldSchema(e))
		}
		s = openapi3.NewArraySchema().WithItems(elem)
	default:
		s = openapi3.NewStringSchema()
	}
	if f.Type == schema.WireUInt32 || f.Type == schema.WireUInt64 {
		s.WithMin(0)
	}
	if f.Type == schema.WireString && len(f.DisplayValues) > 0 {
		vals := make([]any, 0, len(f.DisplayValues))
		for _, dv := range f.DisplayValues {
			if v, ok := dv.Value.(string); ok {
				vals = append(vals, v)
			}
		}
		if len(vals) == len(f.DisplayValues) {
			s.WithEnum(vals...)
		}
	}
	return s
}
