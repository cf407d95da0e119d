package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendHeadersAndBody(t *testing.T) {
	var got *http.Request
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tr := NewHTTP(srv.URL+"/", 5*time.Second)
	tr.Header = http.Header{"Authorization": []string{"Bearer t"}}
	out, err := tr.Send(context.Background(), http.MethodPost, "/v1/video/list", []byte(`{"a":1}`))
	require.NoError(t, err)

	assert.Equal(t, `{"ok":true}`, string(out))
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/v1/video/list", got.URL.Path)
	assert.Equal(t, `{"a":1}`, gotBody)
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, "XMLHttpRequest", got.Header.Get(HeaderRequestedWith))
	assert.Equal(t, "Bearer t", got.Header.Get("Authorization"))
	_, err = uuid.Parse(got.Header.Get(HeaderCorrelationID))
	assert.NoError(t, err)
}

func TestSendStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"no such record"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTP(srv.URL, time.Second).Send(context.Background(), http.MethodDelete, "/v1/video/x", nil)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Status)
	assert.Contains(t, string(se.Body), "no such record")
	assert.Contains(t, se.Error(), "DELETE /v1/video/x: 404 Not Found")
}

func TestSendHonoursContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewHTTP(srv.URL, 0).Send(ctx, http.MethodGet, "/slow", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSendNoClient(t *testing.T) {
	_, err := (&HTTP{BaseURL: "http://x"}).Send(context.Background(), http.MethodGet, "/", nil)
	assert.Error(t, err)
}
