// cmd/uischema writes framework-agnostic UI schemas for the record types
// declared in a CUE file: for every type, the fields shown in each form
// context and the control each one is rendered with.
//
// Output: one gen/ui/schema/<type>.json per type unless -out is given
// ("-" prints a single JSON array to stdout).
//
// Control defaults by wire type (overridden by controls in the CUE file):
//
//	Int32Value .. DoubleValue  "digit"
//	BoolValue                  "select"
//	Date                       "dateRange"
//	DateTime                   "dateTimeRange"
//	SimpleArray                "formSet"
//	SimpleMap, Object*         "formList"
//	StringValue                "text"
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/wesleywu/hello-antd-pro/internal/factory"
	"github.com/wesleywu/hello-antd-pro/internal/schema"
	"github.com/wesleywu/hello-antd-pro/internal/schema/cueload"
)

// ── Data structures ──────────────────────────────────────────────────────────

// UISchema is the top-level schema for one record type.
type UISchema struct {
	Type        string               `json:"type"`
	BasePath    string               `json:"base_path"`
	Description string               `json:"description,omitempty"`
	AllowModify bool                 `json:"allow_modify"`
	AllowDelete bool                 `json:"allow_delete"`
	Fields      []UIField            `json:"fields"`
	Contexts    map[string][]UIInput `json:"contexts"`
}

// UIField describes one field independently of where it is shown.
type UIField struct {
	Name        string     `json:"name"`
	Column      string     `json:"column"`
	Type        string     `json:"type"`
	Description string     `json:"description,omitempty"`
	Required    bool       `json:"required,omitempty"`
	Sortable    bool       `json:"sortable,omitempty"`
	Filterable  bool       `json:"filterable,omitempty"`
	Options     []UIOption `json:"options,omitempty"`
	Search      *UISearch  `json:"search,omitempty"`
	Element     []UIField  `json:"element,omitempty"`
}

// UIOption is one display value of an enumerated field.
type UIOption struct {
	Value  any    `json:"value"`
	Label  string `json:"label"`
	Status string `json:"status,omitempty"`
}

// UISearch is how a searchable field is compiled into a condition.
type UISearch struct {
	Operator string `json:"operator"`
	Multi    string `json:"multi"`
	Wildcard string `json:"wildcard"`
}

// UIInput places a field in one form context.
type UIInput struct {
	Field   string `json:"field"`
	Control string `json:"control"`
}

// ── Building ─────────────────────────────────────────────────────────────────

func buildUISchema(m *schema.Metadata) UISchema {
	table := m.Table()
	ui := UISchema{
		Type:        string(m.Schema.Type),
		BasePath:    table.BasePath,
		Description: table.Description,
		AllowModify: table.AllowModify,
		AllowDelete: table.AllowDelete,
		Fields:      buildFields(m.Schema, m.Fields()),
		Contexts:    make(map[string][]UIInput, len(schema.Contexts)),
	}
	for _, ctx := range schema.Contexts {
		inputs := []UIInput{}
		for _, f := range m.FieldsFor(ctx) {
			inputs = append(inputs, UIInput{Field: f.Name, Control: f.Control(ctx).String()})
		}
		ui.Contexts[ctx.String()] = inputs
	}
	return ui
}

// buildFields converts fields; rs is nil for element fields, which carry no
// search metadata.
func buildFields(rs *schema.RecordSchema, fields []*schema.FieldMeta) []UIField {
	out := make([]UIField, 0, len(fields))
	for _, f := range fields {
		uf := UIField{
			Name:        f.Name,
			Column:      f.Column,
			Type:        f.Type.String(),
			Description: f.Description,
			Required:    f.Required,
			Sortable:    f.Sortable,
			Filterable:  f.Filterable,
		}
		for _, dv := range f.DisplayValues {
			uf.Options = append(uf.Options, UIOption{Value: dv.Value, Label: dv.Text, Status: dv.Status})
		}
		if rs != nil {
			if sm, ok := rs.Search(f.Name); ok {
				uf.Search = &UISearch{Operator: string(sm.Operator), Multi: string(sm.Multi), Wildcard: string(sm.Wildcard)}
			}
		}
		if len(f.Element) > 0 {
			uf.Element = buildFields(nil, f.Element)
		}
		out = append(out, uf)
	}
	return out
}

func buildAll(reg *schema.Registry) ([]UISchema, error) {
	schemas := factory.NewSchemas(reg)
	var out []UISchema
	for _, rt := range reg.Types() {
		m, err := schemas.Get(rt)
		if err != nil {
			return nil, err
		}
		out = append(out, buildUISchema(m))
	}
	return out, nil
}

// ── Output ───────────────────────────────────────────────────────────────────

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func writeDir(dir string, uis []UISchema) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, ui := range uis {
		f, err := os.Create(filepath.Join(dir, ui.Type+".json"))
		if err != nil {
			return err
		}
		if err := writeJSON(f, ui); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("uischema: ")

	schemaPath := flag.String("schema", "records.cue", "CUE record declarations")
	out := flag.String("out", filepath.Join("gen", "ui", "schema"), "output directory, - for stdout")
	flag.Parse()

	reg := schema.NewRegistry()
	if err := cueload.LoadInto(reg, *schemaPath); err != nil {
		log.Fatal(err)
	}
	uis, err := buildAll(reg)
	if err != nil {
		log.Fatal(err)
	}

	if *out == "-" {
		if err := writeJSON(os.Stdout, uis); err != nil {
			log.Fatal(err)
		}
		return
	}
	if err := writeDir(*out, uis); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("uischema: generated %d schemas in %s\n", len(uis), *out)
}
