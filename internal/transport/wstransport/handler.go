package wstransport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// Handler accepts WebSocket connections and replays each request frame
// against an HTTP handler, answering with its status and body.
type Handler struct {
	next   http.Handler
	logger *slog.Logger
}

// NewHandler wraps next. A nil logger uses slog.Default.
func NewHandler(next http.Handler, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{next: next, logger: logger}
}

// ServeHTTP upgrades to WebSocket and runs the message loop.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Warn("websocket accept", slog.Any("error", err))
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(16 << 20)

	ctx := r.Context()
	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) != -1 {
				h.logger.Debug("websocket closed", slog.Int("status", int(websocket.CloseStatus(err))))
			}
			return
		}

		switch msg.Type {
		case TypeRequest:
			h.handleRequest(ctx, conn, r, msg)
		case TypePing:
			h.send(ctx, conn, ServerMessage{Type: TypePong, RequestID: msg.ID})
		default:
			h.sendError(ctx, conn, msg.ID, "unknown_type", fmt.Sprintf("unknown message type: %s", msg.Type))
		}
	}
}

func (h *Handler) handleRequest(ctx context.Context, conn *websocket.Conn, upgrade *http.Request, msg ClientMessage) {
	var data RequestData
	if err := json.Unmarshal(msg.Data, &data); err != nil || data.Method == "" || data.Path == "" {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid request data")
		return
	}
	req, err := http.NewRequestWithContext(ctx, data.Method, data.Path, bytes.NewReader([]byte(data.Body)))
	if err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", err.Error())
		return
	}
	req.RemoteAddr = upgrade.RemoteAddr
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Correlation-ID", msg.ID)

	rw := &bufferedResponse{header: make(http.Header)}
	h.next.ServeHTTP(rw, req)
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	h.send(ctx, conn, ServerMessage{
		Type:      TypeResponse,
		RequestID: msg.ID,
		Data:      ResponseData{Status: rw.status, Body: rw.body.String()},
	})
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, msg ServerMessage) {
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		h.logger.Warn("websocket write", slog.Any("error", err))
	}
}

func (h *Handler) sendError(ctx context.Context, conn *websocket.Conn, requestID, code, message string) {
	h.send(ctx, conn, ServerMessage{
		Type:      TypeError,
		RequestID: requestID,
		Data:      ErrorData{Code: code, Message: message},
	})
}

// bufferedResponse collects a handler's response in memory.
type bufferedResponse struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}
