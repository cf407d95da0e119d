// Package wstransport carries CRUD requests as JSON frames over a single
// WebSocket connection.
package wstransport

import "encoding/json"

// Message types.
const (
	TypeRequest  = "request"
	TypeResponse = "response"
	TypeError    = "error"
	TypePing     = "ping"
	TypePong     = "pong"
)

// ── Client → Server messages ────────────────────────────────

// ClientMessage is the envelope for client-to-server frames.
type ClientMessage struct {
	Type string          `json:"type"` // "request", "ping"
	ID   string          `json:"id"`   // client-assigned request ID
	Data json.RawMessage `json:"data,omitempty"`
}

// RequestData is the payload of "request" frames.
type RequestData struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Body   string `json:"body,omitempty"`
}

// ── Server → Client messages ────────────────────────────────

// ServerMessage is the envelope for server-to-client frames.
type ServerMessage struct {
	Type      string `json:"type"` // "response", "error", "pong"
	RequestID string `json:"request_id,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// ResponseData is the payload of "response" frames.
type ResponseData struct {
	Status int    `json:"status"`
	Body   string `json:"body,omitempty"`
}

// ErrorData is the payload of "error" frames.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// inbound is ServerMessage as decoded by the client.
type inbound struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}
