// Package transport provides crud.Transport implementations talking to a
// real backend.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Header names sent with every request.
const (
	HeaderRequestedWith = "X-Requested-With"
	HeaderCorrelationID = "X-Correlation-ID"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.Status, http.StatusText(e.Status), body)
}

// HTTP sends requests to a backend base URL.
type HTTP struct {
	BaseURL string
	Client  *http.Client
	// Timeout bounds each request on top of the caller's context; zero
	// means no extra bound.
	Timeout time.Duration
	// Header is added to every request (e.g. Authorization).
	Header http.Header
}

// NewHTTP returns a transport for baseURL using a client with timeout.
func NewHTTP(baseURL string, timeout time.Duration) *HTTP {
	return &HTTP{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

// Send implements crud.Transport.
func (t *HTTP) Send(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if t.Client == nil {
		return nil, errors.New("transport: http client is not configured")
	}
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, t.BaseURL+path, rd)
	if err != nil {
		return nil, err
	}
	for k, vs := range t.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestedWith, "XMLHttpRequest")
	if req.Header.Get(HeaderCorrelationID) == "" {
		req.Header.Set(HeaderCorrelationID, uuid.NewString())
	}

	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: data}
	}
	return data, nil
}
