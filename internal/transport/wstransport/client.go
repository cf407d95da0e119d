package wstransport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/wesleywu/hello-antd-pro/internal/transport"
)

// Client is a crud.Transport over one WebSocket connection. Calls are
// serialized: each Send writes a request frame and waits for the frame
// answering it.
type Client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// Dial connects to a backend WebSocket endpoint such as
// ws://localhost:8080/ws.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("wstransport: dial %s: %w", url, err)
	}
	conn.SetReadLimit(16 << 20)
	return &Client{conn: conn}, nil
}

// Close closes the connection normally.
func (c *Client) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}

// Send implements crud.Transport.
func (c *Client) Send(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(RequestData{Method: method, Path: path, Body: string(body)})
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	if err := wsjson.Write(ctx, c.conn, ClientMessage{Type: TypeRequest, ID: id, Data: data}); err != nil {
		return nil, fmt.Errorf("wstransport: write: %w", err)
	}

	for {
		var msg inbound
		if err := wsjson.Read(ctx, c.conn, &msg); err != nil {
			return nil, fmt.Errorf("wstransport: read: %w", err)
		}
		if msg.RequestID != id {
			continue
		}
		switch msg.Type {
		case TypeResponse:
			var resp ResponseData
			if err := json.Unmarshal(msg.Data, &resp); err != nil {
				return nil, fmt.Errorf("wstransport: decode response: %w", err)
			}
			if resp.Status < 200 || resp.Status >= 300 {
				return nil, &transport.StatusError{Method: method, Path: path, Status: resp.Status, Body: []byte(resp.Body)}
			}
			return []byte(resp.Body), nil
		case TypeError:
			var e ErrorData
			_ = json.Unmarshal(msg.Data, &e)
			return nil, fmt.Errorf("wstransport: %s: %s", e.Code, e.Message)
		default:
			return nil, fmt.Errorf("wstransport: unexpected message type %q", msg.Type)
		}
	}
}

// Ping round-trips a ping frame.
func (c *Client) Ping(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := uuid.NewString()
	if err := wsjson.Write(ctx, c.conn, ClientMessage{Type: TypePing, ID: id}); err != nil {
		return err
	}
	for {
		var msg inbound
		if err := wsjson.Read(ctx, c.conn, &msg); err != nil {
			return err
		}
		if msg.RequestID == id && msg.Type == TypePong {
			return nil
		}
	}
}
