package crud

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleywu/hello-antd-pro/internal/condition"
	"github.com/wesleywu/hello-antd-pro/internal/diag"
	"github.com/wesleywu/hello-antd-pro/internal/request"
	"github.com/wesleywu/hello-antd-pro/internal/schema"
)

type sent struct {
	Method string
	Path   string
	Body   string
}

// fakeTransport records requests and answers with a canned response.
type fakeTransport struct {
	mu       sync.Mutex
	calls    []sent
	response []byte
	err      error
}

func (f *fakeTransport) Send(_ context.Context, method, path string, body []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sent{Method: method, Path: path, Body: string(body)})
	return f.response, f.err
}

func (f *fakeTransport) last(t *testing.T) sent {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.calls)
	return f.calls[len(f.calls)-1]
}

func testCrud(t *testing.T, table schema.TableMeta, tr Transport) (*Crud, *diag.Recorder) {
	t.Helper()
	r := schema.NewRegistry()
	require.NoError(t, r.Register(schema.Definition{
		Type:  "episode",
		Table: &table,
		Fields: []schema.FieldDef{
			{Name: "id", Type: schema.WireString},
			{Name: "name", Type: schema.WireString,
				Search: &schema.SearchMeta{Operator: schema.OpLike, Wildcard: schema.Contains}},
			{Name: "seq", Type: schema.WireInt32, Search: &schema.SearchMeta{Multi: schema.Between}},
			{Name: "createdAt", Type: schema.WireDate},
		},
	}))
	rs, err := r.Get("episode")
	require.NoError(t, err)
	rec := &diag.Recorder{}
	return New(rs, request.NewBuilder(condition.NewCompiler(rec)), tr, nil), rec
}

var openTable = schema.TableMeta{BasePath: "/v1/episode/", AllowModify: true, AllowDelete: true}

func TestList(t *testing.T) {
	tr := &fakeTransport{response: []byte(`{
		"items":[{"id":"a1","name":"foo"},{"name":"no id"},{"id":"b2","key":"keep"}],
		"pageInfo":{"number":1,"size":10,"numberOfElements":3,"totalElements":42,"first":true,"last":false}
	}`)}
	c, rec := testCrud(t, openTable, tr)

	page, err := c.List(context.Background(), ListQuery{
		Values: request.Values{"name": "foo", "createdAt": []any{"invalid", "2024-02-16 12:23:34"}},
		Sorts:  []request.Sort{{Field: "createdAt", Order: "descend"}},
	})
	require.NoError(t, err)

	call := tr.last(t)
	assert.Equal(t, http.MethodPost, call.Method)
	assert.Equal(t, "/v1/episode/list", call.Path)
	assert.JSONEq(t, `{
		"name":{"@type":"goguru.orm.Condition","operator":"Like","value":{"@type":"google.protobuf.StringValue","value":"foo"}},
		"createdAt":{"@type":"goguru.orm.Condition","operator":"LTE","value":{"@type":"google.protobuf.Timestamp","value":["2024-02-16T15:59:59.999Z"]}},
		"pageRequest":{"number":1,"size":10,"sorts":[{"property":"created_at","direction":"Desc"}]}
	}`, call.Body)

	assert.True(t, page.Success)
	assert.Equal(t, 1, page.Current)
	assert.Equal(t, int64(42), page.Total)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "a1", page.Items[0]["key"])
	assert.NotContains(t, page.Items[1], "key")
	assert.Equal(t, "keep", page.Items[2]["key"])
	assert.Empty(t, rec.Diagnostics())
}

func TestListPagination(t *testing.T) {
	tr := &fakeTransport{response: []byte(`{"items":[],"pageInfo":{"number":3}}`)}
	c, _ := testCrud(t, openTable, tr)

	_, err := c.List(context.Background(), ListQuery{Current: 3, PageSize: 25})
	require.NoError(t, err)
	assert.JSONEq(t, `{"pageRequest":{"number":3,"size":25}}`, tr.last(t).Body)
}

func TestMutations(t *testing.T) {
	tr := &fakeTransport{response: []byte(`{"id":"x/1","name":"bar"}`)}
	c, _ := testCrud(t, openTable, tr)
	ctx := context.Background()

	out, err := c.Create(ctx, Record{"name": "bar"})
	require.NoError(t, err)
	assert.Equal(t, "bar", out["name"])
	assert.Equal(t, sent{Method: "POST", Path: "/v1/episode", Body: `{"name":"bar"}`}, tr.last(t))

	_, err = c.Update(ctx, "x/1", Record{"name": "baz"})
	require.NoError(t, err)
	assert.Equal(t, sent{Method: "PATCH", Path: "/v1/episode/x%2F1", Body: `{"name":"baz"}`}, tr.last(t))

	tr.response = nil
	require.NoError(t, c.Delete(ctx, "a1"))
	assert.Equal(t, sent{Method: "DELETE", Path: "/v1/episode/a1"}, tr.last(t))

	tr.response = []byte(`{"deleted":2}`)
	res, err := c.DeleteMulti(ctx, request.Values{"seq": []any{1, 5}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res["deleted"])
	call := tr.last(t)
	assert.Equal(t, "/v1/episode/delete", call.Path)
	assert.NotContains(t, call.Body, "pageRequest")
	assert.Contains(t, call.Body, `"multi":"Between"`)
}

func TestTableForbidsChanges(t *testing.T) {
	tr := &fakeTransport{}
	c, _ := testCrud(t, schema.TableMeta{BasePath: "/v1/episode"}, tr)
	ctx := context.Background()

	_, err := c.Update(ctx, "a", Record{})
	var mna *ModifyNotAllowedError
	assert.ErrorAs(t, err, &mna)

	var dna *DeleteNotAllowedError
	assert.ErrorAs(t, c.Delete(ctx, "a"), &dna)
	_, err = c.DeleteMulti(ctx, nil)
	assert.ErrorAs(t, err, &dna)

	assert.Empty(t, tr.calls, "forbidden operations are never sent")
}

func TestTransportErrorsPassThrough(t *testing.T) {
	boom := errors.New("connection refused")
	tr := &fakeTransport{err: boom}
	c, _ := testCrud(t, openTable, tr)
	ctx := context.Background()

	_, err := c.List(ctx, ListQuery{})
	assert.Same(t, boom, err)
	_, err = c.Create(ctx, Record{})
	assert.Same(t, boom, err)
	assert.Same(t, boom, c.Delete(ctx, "a"))
}

func TestBadResponse(t *testing.T) {
	tr := &fakeTransport{response: []byte(`not json`)}
	c, _ := testCrud(t, openTable, tr)
	_, err := c.List(context.Background(), ListQuery{})
	assert.ErrorContains(t, err, "decode POST /v1/episode/list response")
}

func TestTransportFunc(t *testing.T) {
	var got string
	tf := TransportFunc(func(_ context.Context, method, path string, _ []byte) ([]byte, error) {
		got = method + " " + path
		return []byte(`{}`), nil
	})
	c, _ := testCrud(t, openTable, tf)
	_, err := c.Create(context.Background(), Record{})
	require.NoError(t, err)
	assert.Equal(t, "POST /v1/episode", got)
}
