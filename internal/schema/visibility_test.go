package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShownInAbsentMask(t *testing.T) {
	for _, ctx := range Contexts {
		if !ShownIn(0, ctx) {
			t.Errorf("zero mask hidden in %s", ctx)
		}
	}
}

func TestShownInMasked(t *testing.T) {
	mask := VisibleUpdate | VisibleSearch
	want := map[Context]bool{
		ContextList:   false,
		ContextDetail: false,
		ContextCreate: false,
		ContextUpdate: true,
		ContextSearch: true,
	}
	for ctx, w := range want {
		if got := ShownIn(mask, ctx); got != w {
			t.Errorf("ShownIn(update|search, %s) = %v, want %v", ctx, got, w)
		}
	}
	if ShownIn(VisibleNone, ContextList) {
		t.Error("none mask shown in list")
	}
}

func TestMetadataSubsets(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Definition{
		Type:  "video",
		Table: &TableMeta{BasePath: "/v1/video"},
		Fields: []FieldDef{
			{Name: "id", Type: WireString, Visibility: VisibleDetail},
			{Name: "title", Type: WireString},
			{Name: "secret", Type: WireString, Visibility: VisibleUpdate | VisibleSearch},
			{Name: "internal", Type: WireString, Visibility: VisibleNone},
		},
	}))
	rs, err := r.Get("video")
	require.NoError(t, err)
	m := NewMetadata(rs)

	names := func(fs []*FieldMeta) []string {
		out := []string{}
		for _, f := range fs {
			out = append(out, f.Name)
		}
		return out
	}
	assert.Equal(t, []string{"title"}, names(m.FieldsForList()))
	assert.Equal(t, []string{"id", "title"}, names(m.FieldsForDetail()))
	assert.Equal(t, []string{"title"}, names(m.FieldsForCreate()))
	assert.Equal(t, []string{"title", "secret"}, names(m.FieldsForUpdate()))
	assert.Equal(t, []string{"title", "secret"}, names(m.FieldsForSearch()))
	assert.Equal(t, m.FieldsForUpdate(), m.FieldsFor(ContextUpdate))
	assert.Len(t, m.Fields(), 4)
}

func TestParseVisibility(t *testing.T) {
	v, err := ParseVisibility([]string{"update", "search"})
	require.NoError(t, err)
	assert.Equal(t, VisibleUpdate|VisibleSearch, v)
	assert.Equal(t, Visibility(48), v)

	v, err = ParseVisibility(nil)
	require.NoError(t, err)
	assert.Equal(t, Visibility(0), v)

	v, err = ParseVisibility([]string{"all"})
	require.NoError(t, err)
	assert.Equal(t, Visibility(62), v)

	_, err = ParseVisibility([]string{"sidebar"})
	var uv *UnknownVisibilityError
	assert.ErrorAs(t, err, &uv)
}
