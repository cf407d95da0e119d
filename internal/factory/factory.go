// Package factory caches the per-record-type objects derived from the
// schema registry: one Metadata and one Crud per record type, built on
// first use and shared for the life of the process.
package factory

import (
	"log/slog"
	"sync"

	"github.com/wesleywu/hello-antd-pro/internal/crud"
	"github.com/wesleywu/hello-antd-pro/internal/request"
	"github.com/wesleywu/hello-antd-pro/internal/schema"
)

// Schemas hands out Metadata per record type.
type Schemas struct {
	registry *schema.Registry

	mu    sync.Mutex
	cache map[schema.RecordType]*schema.Metadata
}

// NewSchemas creates an empty cache over registry.
func NewSchemas(registry *schema.Registry) *Schemas {
	return &Schemas{registry: registry, cache: make(map[schema.RecordType]*schema.Metadata)}
}

// Get returns the Metadata of rt, building it on first call. Unknown types
// fail with *schema.SchemaNotFoundError and are not cached.
func (s *Schemas) Get(rt schema.RecordType) (*schema.Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.cache[rt]; ok {
		return m, nil
	}
	rs, err := s.registry.Get(rt)
	if err != nil {
		return nil, err
	}
	m := schema.NewMetadata(rs)
	s.cache[rt] = m
	return m, nil
}

// Cruds hands out a Crud per record type, all sharing one builder and
// transport.
type Cruds struct {
	registry  *schema.Registry
	builder   *request.Builder
	transport crud.Transport
	logger    *slog.Logger

	mu    sync.Mutex
	cache map[schema.RecordType]*crud.Crud
}

// NewCruds creates an empty cache. A nil logger uses slog.Default.
func NewCruds(registry *schema.Registry, builder *request.Builder, transport crud.Transport, logger *slog.Logger) *Cruds {
	return &Cruds{
		registry:  registry,
		builder:   builder,
		transport: transport,
		logger:    logger,
		cache:     make(map[schema.RecordType]*crud.Crud),
	}
}

// Get returns the Crud of rt, building it on first call.
func (c *Cruds) Get(rt schema.RecordType) (*crud.Crud, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cr, ok := c.cache[rt]; ok {
		return cr, nil
	}
	rs, err := c.registry.Get(rt)
	if err != nil {
		return nil, err
	}
	cr := crud.New(rs, c.builder, c.transport, c.logger)
	c.cache[rt] = cr
	return cr, nil
}
