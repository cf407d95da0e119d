// Package eventbus provides an in-process pub/sub bus for record change
// events. The backend publishes after a write succeeds; subscribers process
// events asynchronously on a single consumer goroutine.
package eventbus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wesleywu/hello-antd-pro/internal/schema"
)

// Kind is what happened to the affected records.
type Kind string

const (
	Created Kind = "created"
	Updated Kind = "updated"
	Deleted Kind = "deleted"
)

// Event describes one successful write. RecordID is empty for bulk
// deletes; Count is the number of affected records.
type Event struct {
	ID         string            `json:"id"`
	Kind       Kind              `json:"kind"`
	RecordType schema.RecordType `json:"recordType"`
	RecordID   string            `json:"recordId,omitempty"`
	Count      int64             `json:"count"`
	OccurredAt time.Time         `json:"occurredAt"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(kind Kind, rt schema.RecordType, recordID string, count int64) Event {
	return Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		RecordType: rt,
		RecordID:   recordID,
		Count:      count,
		OccurredAt: time.Now().UTC(),
	}
}

// Handler processes an event. Implementations must be safe for concurrent
// calls from different goroutines.
type Handler interface {
	HandleEvent(ctx context.Context, evt Event) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, evt Event) error

func (f HandlerFunc) HandleEvent(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}

// Bus dispatches published events to every subscriber in publication
// order.
type Bus struct {
	logger *slog.Logger

	mu          sync.RWMutex
	subscribers []namedHandler
	closed      bool

	events chan Event
	done   chan struct{}
}

type namedHandler struct {
	name    string
	handler Handler
}

// New creates a Bus with the given channel buffer size. A nil logger uses
// slog.Default.
func New(bufSize int, logger *slog.Logger) *Bus {
	if bufSize < 1 {
		bufSize = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		logger: logger,
		events: make(chan Event, bufSize),
		done:   make(chan struct{}),
	}
}

// Subscribe registers a named handler. Must be called before Start.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, namedHandler{name: name, handler: h})
}

// Publish queues an event without blocking. When the buffer is full, or
// the bus is stopped, the event is dropped with a warning.
func (b *Bus) Publish(_ context.Context, evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		b.logger.Warn("eventbus: stopped, dropping event", slog.String("kind", string(evt.Kind)), slog.String("id", evt.ID))
		return
	}
	select {
	case b.events <- evt:
	default:
		b.logger.Warn("eventbus: buffer full, dropping event", slog.String("kind", string(evt.Kind)), slog.String("id", evt.ID))
	}
}

// Start begins the consumer goroutine. It runs until Stop is called or
// ctx is done; queued events are drained before it exits.
func (b *Bus) Start(ctx context.Context) {
	go func() {
		defer close(b.done)
		for {
			select {
			case evt, ok := <-b.events:
				if !ok {
					return
				}
				b.dispatch(ctx, evt)
			case <-ctx.Done():
				b.mu.Lock()
				b.closed = true
				b.mu.Unlock()
				for {
					select {
					case evt, ok := <-b.events:
						if !ok {
							return
						}
						b.dispatch(ctx, evt)
					default:
						return
					}
				}
			}
		}
	}()
}

// Stop closes the bus and waits for the consumer goroutine to finish. It
// must follow Start and may be called more than once.
func (b *Bus) Stop() {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.events)
	}
	b.mu.Unlock()
	<-b.done
}

// Done is closed once the consumer goroutine has exited.
func (b *Bus) Done() <-chan struct{} { return b.done }

func (b *Bus) dispatch(ctx context.Context, evt Event) {
	b.mu.RLock()
	subs := b.subscribers
	b.mu.RUnlock()

	for _, s := range subs {
		if err := s.handler.HandleEvent(ctx, evt); err != nil {
			b.logger.Warn("eventbus: handler error",
				slog.String("handler", s.name),
				slog.String("kind", string(evt.Kind)),
				slog.Any("error", err))
		}
	}
}
