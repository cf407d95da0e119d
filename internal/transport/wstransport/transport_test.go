package wstransport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleywu/hello-antd-pro/internal/transport"
)

func echoServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	r := chi.NewRouter()
	r.Post("/v1/video/list", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"echo":` + string(b) + `}`))
	})
	r.Delete("/v1/video/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing "+chi.URLParam(r, "id"), http.StatusNotFound)
	})
	srv := httptest.NewServer(NewHandler(r, nil))
	t.Cleanup(srv.Close)
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClientRoundTrip(t *testing.T) {
	_, url := echoServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, url)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Ping(ctx))

	out, err := c.Send(ctx, http.MethodPost, "/v1/video/list", []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"echo":{"a":1}}`, string(out))

	_, err = c.Send(ctx, http.MethodDelete, "/v1/video/x1", nil)
	var se *transport.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Status)
	assert.Contains(t, string(se.Body), "missing x1")

	_, err = c.Send(ctx, http.MethodGet, "/nowhere", nil)
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Status)
}

func TestDialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := Dial(ctx, "ws://127.0.0.1:1/ws")
	assert.Error(t, err)
}
