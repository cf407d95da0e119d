package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleywu/hello-antd-pro/internal/schema"
)

func registry(t *testing.T) *schema.Registry {
	t.Helper()
	reg := schema.NewRegistry()
	require.NoError(t, reg.Register(schema.Definition{
		Type:  "video_collection",
		Table: &schema.TableMeta{BasePath: "/v1/video-collection", AllowDelete: true},
		Fields: []schema.FieldDef{
			{Name: "id", Type: schema.WireString, Visibility: schema.VisibleDetail},
			{Name: "name", Type: schema.WireString, Required: true,
				Search: &schema.SearchMeta{Operator: schema.OpLike, Wildcard: schema.Contains}},
			{Name: "contentType", Type: schema.WireInt32,
				Visibility: schema.VisibleList | schema.VisibleSearch,
				Controls:   map[schema.Context]schema.ControlType{schema.ContextSearch: schema.ControlSelect},
				DisplayValues: []schema.DisplayValue{
					{Value: 1, Text: "Picture"},
					{Value: 2, Text: "Video", Status: "Success"},
				}},
			{Name: "createdAt", Type: schema.WireDateTime, Visibility: schema.VisibleList},
			{Name: "credits", Type: schema.WireObjectArray, Visibility: schema.VisibleCreate,
				Element: []schema.FieldDef{{Name: "person", Type: schema.WireString}}},
		},
	}))
	return reg
}

func TestBuildUISchema(t *testing.T) {
	uis, err := buildAll(registry(t))
	require.NoError(t, err)
	require.Len(t, uis, 1)
	ui := uis[0]

	assert.Equal(t, "video_collection", ui.Type)
	assert.Equal(t, "/v1/video-collection", ui.BasePath)
	assert.False(t, ui.AllowModify)
	assert.True(t, ui.AllowDelete)

	want := map[string][]UIInput{
		"list": {
			{Field: "name", Control: "text"},
			{Field: "contentType", Control: "digit"},
			{Field: "createdAt", Control: "dateTimeRange"},
		},
		"detail": {{Field: "id", Control: "text"}, {Field: "name", Control: "text"}},
		"create": {{Field: "name", Control: "text"}, {Field: "credits", Control: "formList"}},
		"update": {{Field: "name", Control: "text"}},
		"search": {{Field: "name", Control: "text"}, {Field: "contentType", Control: "select"}},
	}
	if diff := cmp.Diff(want, ui.Contexts); diff != "" {
		t.Errorf("contexts mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, ui.Fields, 5)
	assert.Equal(t, &UISearch{Operator: "Like", Multi: "NoMulti", Wildcard: "Contains"}, ui.Fields[1].Search)
	assert.Nil(t, ui.Fields[0].Search)
	assert.Equal(t, []UIOption{{Value: 1, Label: "Picture"}, {Value: 2, Label: "Video", Status: "Success"}}, ui.Fields[2].Options)
	assert.Equal(t, "content_type", ui.Fields[2].Column)
	require.Len(t, ui.Fields[4].Element, 1)
	assert.Equal(t, "person", ui.Fields[4].Element[0].Name)
}

func TestWriteDir(t *testing.T) {
	uis, err := buildAll(registry(t))
	require.NoError(t, err)
	dir := filepath.Join(t.TempDir(), "schema")
	require.NoError(t, writeDir(dir, uis))

	data, err := os.ReadFile(filepath.Join(dir, "video_collection.json"))
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "video_collection", got["type"])
	assert.Contains(t, got, "contexts")
}
