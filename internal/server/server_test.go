package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleywu/hello-antd-pro/internal/backend"
	"github.com/wesleywu/hello-antd-pro/internal/condition"
	"github.com/wesleywu/hello-antd-pro/internal/crud"
	"github.com/wesleywu/hello-antd-pro/internal/diag"
	"github.com/wesleywu/hello-antd-pro/internal/eventbus"
	"github.com/wesleywu/hello-antd-pro/internal/factory"
	"github.com/wesleywu/hello-antd-pro/internal/request"
	"github.com/wesleywu/hello-antd-pro/internal/schema"
	"github.com/wesleywu/hello-antd-pro/internal/transport"
	"github.com/wesleywu/hello-antd-pro/internal/transport/wstransport"
)

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	r := schema.NewRegistry()
	require.NoError(t, r.Register(schema.Definition{
		Type:  "episode",
		Table: &schema.TableMeta{BasePath: "/v1/episode", AllowModify: true, AllowDelete: true},
		Fields: []schema.FieldDef{
			{Name: "id", Type: schema.WireString},
			{Name: "name", Type: schema.WireString, Required: true,
				Search: &schema.SearchMeta{Operator: schema.OpLike, Wildcard: schema.StartsWith}},
			{Name: "seq", Type: schema.WireInt32, Search: &schema.SearchMeta{Multi: schema.In}},
			{Name: "airedAt", Type: schema.WireDateTime, Search: &schema.SearchMeta{Multi: schema.Between}},
		},
	}))
	require.NoError(t, r.Register(schema.Definition{
		Type:  "audit",
		Table: &schema.TableMeta{BasePath: "/v1/audit"},
		Fields: []schema.FieldDef{
			{Name: "id", Type: schema.WireString},
			{Name: "message", Type: schema.WireString},
		},
	}))
	return r
}

func newTestServer(t *testing.T) (*httptest.Server, *schema.Registry) {
	t.Helper()
	ctx := context.Background()
	reg := testRegistry(t)
	store, err := backend.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	for _, rt := range reg.Types() {
		rs, err := reg.Get(rt)
		require.NoError(t, err)
		require.NoError(t, store.Migrate(ctx, rs))
	}

	logger, err := diag.NewLogger(io.Discard, "text", "debug")
	require.NoError(t, err)
	h, err := NewRouter(ctx, Config{Registry: reg, Store: store, Logger: logger})
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, reg
}

func cruds(reg *schema.Registry, tr crud.Transport) *factory.Cruds {
	return factory.NewCruds(reg, request.NewBuilder(condition.NewCompiler(nil)), tr, nil)
}

func exerciseCrud(t *testing.T, c *factory.Cruds) {
	t.Helper()
	ctx := context.Background()
	episodes, err := c.Get("episode")
	require.NoError(t, err)

	for i, name := range []string{"Pilot", "Pilot II", "Finale"} {
		_, err := episodes.Create(ctx, crud.Record{
			"id":      []string{"e1", "e2", "e3"}[i],
			"name":    name,
			"seq":     i + 1,
			"airedAt": []string{"2024-02-16 12:23:34", "2024-02-17 12:00:00", "2024-03-01 20:00:00"}[i],
		})
		require.NoError(t, err)
	}

	page, err := episodes.List(ctx, crud.ListQuery{
		Values: request.Values{"name": "Pil"},
		Sorts:  []request.Sort{{Field: "seq", Order: request.OrderDescend}},
	})
	require.NoError(t, err)
	assert.True(t, page.Success)
	assert.Equal(t, 1, page.Current)
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "e2", page.Items[0]["id"])
	assert.Equal(t, "e2", page.Items[0]["key"])
	assert.Equal(t, "2024-02-17T04:00:00.000Z", page.Items[0]["airedAt"])

	page, err = episodes.List(ctx, crud.ListQuery{
		Values: request.Values{"airedAt": []any{"2024-02-16 00:00:00", "2024-02-29 00:00:00"}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	page, err = episodes.List(ctx, crud.ListQuery{Values: request.Values{"seq": []any{1, 3}}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	updated, err := episodes.Update(ctx, "e3", crud.Record{"name": "Series Finale"})
	require.NoError(t, err)
	assert.Equal(t, "Series Finale", updated["name"])

	_, err = episodes.Update(ctx, "nope", crud.Record{"name": "x"})
	var se *transport.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Status)

	out, err := episodes.DeleteMulti(ctx, request.Values{"seq": []any{1, 2}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, out["deleted"])

	require.NoError(t, episodes.Delete(ctx, "e3"))
	page, err = episodes.List(ctx, crud.ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	audits, err := c.Get("audit")
	require.NoError(t, err)
	_, err = audits.Update(ctx, "a1", crud.Record{"message": "x"})
	var me *crud.ModifyNotAllowedError
	assert.True(t, errors.As(err, &me))
}

func TestCrudOverHTTP(t *testing.T) {
	srv, reg := newTestServer(t)
	exerciseCrud(t, cruds(reg, transport.NewHTTP(srv.URL, 5*time.Second)))
}

func TestCrudOverWebSocket(t *testing.T) {
	srv, reg := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := wstransport.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws")
	require.NoError(t, err)
	defer client.Close()
	exerciseCrud(t, cruds(reg, client))
}

func TestServerEnforcesTableFlags(t *testing.T) {
	srv, _ := newTestServer(t)
	tr := transport.NewHTTP(srv.URL, 5*time.Second)
	ctx := context.Background()

	_, err := tr.Send(ctx, http.MethodPatch, "/v1/audit/a1", []byte(`{"message":"x"}`))
	var se *transport.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.Status)
	assert.Contains(t, string(se.Body), "MODIFY_NOT_ALLOWED")

	_, err = tr.Send(ctx, http.MethodPost, "/v1/audit/delete", []byte(`{}`))
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.Status)

	_, err = tr.Send(ctx, http.MethodPost, "/v1/episode/delete", []byte(`{}`))
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.Status)

	_, err = tr.Send(ctx, http.MethodPost, "/v1/episode/list", []byte(`{"name":{"operator":"EQ"}}`))
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.Status)
}

func TestServerPublishesChanges(t *testing.T) {
	ctx := context.Background()
	reg := testRegistry(t)
	store, err := backend.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer store.Close()
	rs, err := reg.Get("episode")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx, rs))

	got := make(chan eventbus.Event, 8)
	bus := eventbus.New(8, diagLogger(t))
	bus.Subscribe("test", eventbus.HandlerFunc(func(_ context.Context, evt eventbus.Event) error {
		got <- evt
		return nil
	}))
	bus.Start(ctx)
	defer bus.Stop()

	h, err := NewRouter(ctx, Config{Registry: reg, Store: store, Logger: diagLogger(t), Events: bus})
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	defer srv.Close()

	episodes, err := cruds(reg, transport.NewHTTP(srv.URL, 5*time.Second)).Get("episode")
	require.NoError(t, err)
	_, err = episodes.Create(ctx, crud.Record{"id": "e1", "name": "Pilot", "seq": 1})
	require.NoError(t, err)
	_, err = episodes.Update(ctx, "e1", crud.Record{"seq": 2})
	require.NoError(t, err)
	_, err = episodes.DeleteMulti(ctx, request.Values{"name": "Nothing"})
	require.NoError(t, err)
	require.NoError(t, episodes.Delete(ctx, "e1"))

	var kinds []eventbus.Kind
	for range 3 {
		select {
		case evt := <-got:
			assert.Equal(t, schema.RecordType("episode"), evt.RecordType)
			assert.Equal(t, "e1", evt.RecordID)
			assert.NotEmpty(t, evt.ID)
			kinds = append(kinds, evt.Kind)
		case <-time.After(5 * time.Second):
			t.Fatal("event not delivered")
		}
	}
	assert.Equal(t, []eventbus.Kind{eventbus.Created, eventbus.Updated, eventbus.Deleted}, kinds)
}

func TestHealthAndOpenAPI(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/openapi.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	var doc struct {
		OpenAPI string                     `json:"openapi"`
		Paths   map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Equal(t, "3.0.3", doc.OpenAPI)
	assert.Contains(t, doc.Paths, "/v1/episode/list")
	assert.Contains(t, doc.Paths, "/v1/episode/{id}")
	assert.NotContains(t, doc.Paths, "/v1/audit/{id}")
}

func TestRunShutsDownOnCancel(t *testing.T) {
	ctx := context.Background()
	store, err := backend.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer store.Close()

	cfg := Config{Port: 0, Registry: testRegistry(t), Store: store, Logger: diagLogger(t)}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- Run(runCtx, cfg) }()
	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func diagLogger(t *testing.T) *slog.Logger {
	t.Helper()
	logger, err := diag.NewLogger(io.Discard, "json", "info")
	require.NoError(t, err)
	return logger
}
