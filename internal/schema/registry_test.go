package schema

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func episodeDefinition() Definition {
	return Definition{
		Type:  "episode",
		Table: &TableMeta{BasePath: "/v1/episode", AllowModify: true, AllowDelete: true},
		Fields: []FieldDef{
			{Name: "id", Type: WireString, Visibility: VisibleDetail | VisibleUpdate},
			{Name: "collectionId", Type: WireString, Description: "collection", Search: &SearchMeta{}},
			{Name: "episodeName", Type: WireString, Required: true,
				Search: &SearchMeta{Operator: OpLike, Wildcard: Contains}},
			{Name: "duration", Type: WireInt32, Column: "length_seconds",
				Search: &SearchMeta{Operator: OpGTE, Multi: Between}},
			{Name: "createdAt", Type: WireDateTime, Visibility: VisibleList | VisibleDetail | VisibleSearch},
		},
	}
}

func TestRegisterDefaults(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(episodeDefinition()))

	rs, err := r.Get("episode")
	require.NoError(t, err)
	assert.Equal(t, "episode", rs.Table.Description)

	id, ok := rs.Field("id")
	require.True(t, ok)
	assert.Equal(t, PrimaryKeyColumn, id.Column)
	assert.Equal(t, "id", id.Description)

	cid, _ := rs.Field("collectionId")
	assert.Equal(t, "collection_id", cid.Column)
	assert.Equal(t, "collection", cid.Description)

	dur, _ := rs.Field("duration")
	assert.Equal(t, "length_seconds", dur.Column)

	sm, ok := rs.Search("collectionId")
	require.True(t, ok)
	assert.Equal(t, DefaultSearch, sm)

	sm, _ = rs.Search("episodeName")
	assert.Equal(t, SearchMeta{Operator: OpLike, Multi: NoMulti, Wildcard: Contains}, sm)

	_, ok = rs.Search("createdAt")
	assert.False(t, ok)
	assert.Equal(t, DefaultSearch, rs.SearchOrDefault("createdAt"))

	assert.Equal(t, []string{"collectionId", "episodeName", "duration"}, rs.Searchable())
}

func TestRegisterPreservesDeclarationOrder(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(episodeDefinition()))
	rs, err := r.Get("episode")
	require.NoError(t, err)

	var names []string
	for _, f := range rs.Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"id", "collectionId", "episodeName", "duration", "createdAt"}, names)
}

func TestRegisterFirstWins(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(episodeDefinition()))

	second := episodeDefinition()
	second.Table = &TableMeta{BasePath: "/v2/other", Description: "other"}
	second.Fields = second.Fields[:1]
	require.NoError(t, r.Register(second))

	rs, err := r.Get("episode")
	require.NoError(t, err)
	assert.Equal(t, "/v1/episode", rs.Table.BasePath)
	assert.Len(t, rs.Fields(), 5)

	invalid := episodeDefinition()
	invalid.Table = nil
	invalid.Fields = nil
	require.NoError(t, r.Register(invalid))
	rs, err = r.Get("episode")
	require.NoError(t, err)
	assert.Equal(t, "/v1/episode", rs.Table.BasePath)
	assert.Equal(t, []RecordType{"episode"}, r.Types())
}

func TestGetUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("nope")
	var nf *SchemaNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, RecordType("nope"), nf.Type)
}

func TestRegisterConfigurationErrors(t *testing.T) {
	r := NewRegistry()

	noTable := episodeDefinition()
	noTable.Table = nil
	var tm *TableMissingError
	assert.True(t, errors.As(r.Register(noTable), &tm))

	noFields := episodeDefinition()
	noFields.Fields = nil
	var fm *FieldsMissingError
	assert.True(t, errors.As(r.Register(noFields), &fm))

	dup := episodeDefinition()
	dup.Fields = append(dup.Fields, FieldDef{Name: "id", Type: WireString})
	var inv *InvalidFieldError
	assert.True(t, errors.As(r.Register(dup), &inv))
	assert.Equal(t, "id", inv.Field)

	badOp := episodeDefinition()
	badOp.Fields[1].Search = &SearchMeta{Operator: "Approx"}
	assert.True(t, errors.As(r.Register(badOp), &inv))

	badElem := episodeDefinition()
	badElem.Fields[1].Element = []FieldDef{{Name: "x", Type: WireString}}
	assert.True(t, errors.As(r.Register(badElem), &inv))

	assert.Empty(t, r.Types())
}

func TestObjectArrayElementSchema(t *testing.T) {
	r := NewRegistry()
	def := Definition{
		Type:  "collection",
		Table: &TableMeta{BasePath: "/v1/collection"},
		Fields: []FieldDef{
			{Name: "episodes", Type: WireObjectArray, Element: []FieldDef{
				{Name: "episodeName", Type: WireString},
				{Name: "seq", Type: WireInt32},
			}},
		},
	}
	require.NoError(t, r.Register(def))
	rs, _ := r.Get("collection")
	f, _ := rs.Field("episodes")
	require.Len(t, f.Element, 2)
	assert.Equal(t, "episode_name", f.Element[0].Column)
	assert.Equal(t, ControlFormList, f.Control(ContextCreate))
}

func TestConcurrentRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = r.Register(episodeDefinition())
		}()
		go func() {
			defer wg.Done()
			_, _ = r.Get("episode")
		}()
	}
	wg.Wait()
	assert.Equal(t, []RecordType{"episode"}, r.Types())
}

func TestControlHintsAndDisplayValues(t *testing.T) {
	f := &FieldMeta{
		Type:     WireString,
		Controls: map[Context]ControlType{ContextCreate: ControlTextArea},
		DisplayValues: []DisplayValue{
			{Value: 1, Text: "published", Status: "Success"},
			{Value: 0, Text: "draft"},
		},
	}
	assert.Equal(t, ControlTextArea, f.Control(ContextCreate))
	assert.Equal(t, ControlText, f.Control(ContextUpdate))
	assert.Equal(t, "published", f.DisplayText(1))
	assert.Equal(t, "draft", f.DisplayText(int64(0)))
	assert.Equal(t, "", f.DisplayText(7))
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"name":          "name",
		"createdAt":     "created_at",
		"CreatedAt":     "created_at",
		"userID":        "user_id",
		"HTTPServer":    "http_server",
		"episode2Name":  "episode2_name",
		"already_snake": "already_snake",
	}
	for in, want := range tests {
		assert.Equal(t, want, SnakeCase(in), in)
	}
	assert.Equal(t, "_id", ColumnName("ID"))
	assert.Equal(t, "_id", ColumnName("Id"))
	assert.Equal(t, "video_id", ColumnName("videoId"))
}

func TestDefaultControl(t *testing.T) {
	tests := []struct {
		wt   WireType
		want ControlType
	}{
		{WireDouble, ControlTextDigit},
		{WireUInt64, ControlTextDigit},
		{WireString, ControlText},
		{WireBool, ControlSelect},
		{WireDate, ControlDateRangePicker},
		{WireDateTime, ControlDateTimeRangePicker},
		{WireSimpleArray, ControlFormSet},
		{WireSimpleMap, ControlFormList},
		{WireObjectArray, ControlFormList},
		{WireObjectMap, ControlFormList},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DefaultControl(tt.wt), tt.wt.String())
	}
}

func TestParseWireType(t *testing.T) {
	wt, err := ParseWireType("UInt32Value")
	require.NoError(t, err)
	assert.Equal(t, WireUInt32, wt)
	assert.True(t, wt.Numeric())

	_, err = ParseWireType("Decimal")
	assert.Error(t, err)
}
