// Package crud is the per-record-type façade over a backend: list, create,
// update, delete and delete-multi, built on the request builder and an
// injected Transport.
package crud

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/wesleywu/hello-antd-pro/internal/request"
	"github.com/wesleywu/hello-antd-pro/internal/schema"
)

// Default pagination for List.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// Transport sends one request and returns the raw response body. Errors
// are returned to façade callers unchanged.
type Transport interface {
	Send(ctx context.Context, method, path string, body []byte) ([]byte, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, method, path string, body []byte) ([]byte, error)

func (f TransportFunc) Send(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	return f(ctx, method, path, body)
}

// Record is one record as exchanged with the backend.
type Record map[string]any

// ListQuery is the input of List. Zero Current and PageSize take the
// defaults.
type ListQuery struct {
	Values   request.Values
	Sorts    []request.Sort
	Current  int
	PageSize int
}

// PageInfo is the backend's pagination envelope.
type PageInfo struct {
	Number           int                 `json:"number"`
	Size             int                 `json:"size"`
	NumberOfElements int                 `json:"numberOfElements"`
	TotalElements    int64               `json:"totalElements"`
	First            bool                `json:"first"`
	Last             bool                `json:"last"`
	Sorts            []request.SortEntry `json:"sorts"`
}

// ListResponse is the backend's list response.
type ListResponse struct {
	Items    []Record `json:"items"`
	PageInfo PageInfo `json:"pageInfo"`
}

// Page is the UI-neutral result of List.
type Page struct {
	Items   []Record `json:"data"`
	Current int      `json:"current"`
	Total   int64    `json:"total"`
	Success bool     `json:"success"`
}

// Crud is the façade for one record type. It is safe for concurrent use.
type Crud struct {
	schema    *schema.RecordSchema
	builder   *request.Builder
	transport Transport
	logger    *slog.Logger
}

// New creates the façade for rs. A nil logger uses slog.Default.
func New(rs *schema.RecordSchema, builder *request.Builder, transport Transport, logger *slog.Logger) *Crud {
	if logger == nil {
		logger = slog.Default()
	}
	return &Crud{
		schema:    rs,
		builder:   builder,
		transport: transport,
		logger:    logger.With(slog.String("record_type", string(rs.Type))),
	}
}

// Schema returns the record schema the façade serves.
func (c *Crud) Schema() *schema.RecordSchema { return c.schema }

// BasePath returns the backend base path.
func (c *Crud) BasePath() string { return strings.TrimRight(c.schema.Table.BasePath, "/") }

// ListBody builds the body List would send.
func (c *Crud) ListBody(q ListQuery) *request.Body {
	page := &request.Page{Number: q.Current, Size: q.PageSize}
	if page.Number <= 0 {
		page.Number = DefaultPage
	}
	if page.Size <= 0 {
		page.Size = DefaultPageSize
	}
	return c.builder.Build(c.schema, q.Values, page, q.Sorts)
}

// FilterBody builds the filter-only body DeleteMulti would send.
func (c *Crud) FilterBody(values request.Values) *request.Body {
	return c.builder.Build(c.schema, values, nil, nil)
}

// List posts the compiled query to {base}/list.
func (c *Crud) List(ctx context.Context, q ListQuery) (*Page, error) {
	var resp ListResponse
	if err := c.call(ctx, http.MethodPost, c.BasePath()+"/list", c.ListBody(q), &resp); err != nil {
		return nil, err
	}
	populateKeyWithID(resp.Items)
	return &Page{
		Items:   resp.Items,
		Current: resp.PageInfo.Number,
		Total:   resp.PageInfo.TotalElements,
		Success: true,
	}, nil
}

// Create posts a new record to {base}.
func (c *Crud) Create(ctx context.Context, rec Record) (Record, error) {
	var out Record
	if err := c.call(ctx, http.MethodPost, c.BasePath(), rec, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update patches {base}/{id}.
func (c *Crud) Update(ctx context.Context, id string, rec Record) (Record, error) {
	if !c.schema.Table.AllowModify {
		return nil, &ModifyNotAllowedError{Type: c.schema.Type}
	}
	var out Record
	if err := c.call(ctx, http.MethodPatch, c.recordPath(id), rec, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete deletes {base}/{id}.
func (c *Crud) Delete(ctx context.Context, id string) error {
	if !c.schema.Table.AllowDelete {
		return &DeleteNotAllowedError{Type: c.schema.Type}
	}
	return c.call(ctx, http.MethodDelete, c.recordPath(id), nil, nil)
}

// DeleteMulti posts a filter-only body to {base}/delete and returns the
// backend's response.
func (c *Crud) DeleteMulti(ctx context.Context, values request.Values) (Record, error) {
	if !c.schema.Table.AllowDelete {
		return nil, &DeleteNotAllowedError{Type: c.schema.Type}
	}
	var out Record
	if err := c.call(ctx, http.MethodPost, c.BasePath()+"/delete", c.FilterBody(values), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Crud) recordPath(id string) string {
	return c.BasePath() + "/" + url.PathEscape(id)
}

func (c *Crud) call(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = b
	}
	c.logger.Debug("crud request", slog.String("method", method), slog.String("path", path), slog.String("body", string(body)))
	resp, err := c.transport.Send(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(resp) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// populateKeyWithID gives each item a "key" equal to its "id" so list
// rows have a stable UI key. An existing key is kept.
func populateKeyWithID(items []Record) {
	for _, item := range items {
		id, ok := item["id"]
		if !ok || id == nil || id == "" {
			continue
		}
		if _, has := item["key"]; !has {
			item["key"] = id
		}
	}
}
