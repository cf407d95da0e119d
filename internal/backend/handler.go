package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wesleywu/hello-antd-pro/internal/crud"
	"github.com/wesleywu/hello-antd-pro/internal/eventbus"
	"github.com/wesleywu/hello-antd-pro/internal/request"
	"github.com/wesleywu/hello-antd-pro/internal/schema"
)

// Publisher receives change events after successful writes.
type Publisher interface {
	Publish(ctx context.Context, evt eventbus.Event)
}

// Handler serves the CRUD surface of every registered record type.
type Handler struct {
	registry *schema.Registry
	store    *Store
	logger   *slog.Logger
	events   Publisher
}

// NewHandler creates the handler. A nil logger uses slog.Default.
func NewHandler(registry *schema.Registry, store *Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{registry: registry, store: store, logger: logger}
}

// SetPublisher attaches an event sink. Events are published after the
// store write succeeds.
func (h *Handler) SetPublisher(p Publisher) {
	h.events = p
}

func (h *Handler) publish(ctx context.Context, kind eventbus.Kind, rs *schema.RecordSchema, id string, count int64) {
	if h.events == nil || count == 0 {
		return
	}
	h.events.Publish(ctx, eventbus.NewEvent(kind, rs.Type, id, count))
}

// Routes registers, for each record type, under its base path:
//
//	POST   {base}/list
//	POST   {base}
//	PATCH  {base}/{id}
//	DELETE {base}/{id}
//	POST   {base}/delete
func (h *Handler) Routes(r chi.Router) {
	for _, rt := range h.registry.Types() {
		rs, err := h.registry.Get(rt)
		if err != nil {
			continue
		}
		r.Route(basePath(rs), func(r chi.Router) {
			r.Post("/list", h.list(rs))
			r.Post("/", h.create(rs))
			r.Post("/delete", h.deleteMulti(rs))
			r.Patch("/{id}", h.update(rs))
			r.Delete("/{id}", h.delete(rs))
		})
	}
}

func basePath(rs *schema.RecordSchema) string {
	p := rs.Table.BasePath
	for len(p) > 1 && p[len(p)-1] == '/' {
		p = p[:len(p)-1]
	}
	if p == "" || p[0] != '/' {
		p = "/" + p
	}
	return p
}

func (h *Handler) list(rs *schema.RecordSchema) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body request.Body
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
		resp, err := h.store.List(r.Context(), rs, &body)
		if err != nil {
			h.storeErrorToHTTP(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *Handler) create(rs *schema.RecordSchema) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rec crud.Record
		if err := decodeJSON(r, &rec); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
		out, err := h.store.Insert(r.Context(), rs, rec)
		if err != nil {
			h.storeErrorToHTTP(w, err)
			return
		}
		h.publish(r.Context(), eventbus.Created, rs, fmt.Sprint(out[idKey(rs)]), 1)
		writeJSON(w, http.StatusCreated, out)
	}
}

func (h *Handler) update(rs *schema.RecordSchema) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rs.Table.AllowModify {
			writeError(w, http.StatusForbidden, "MODIFY_NOT_ALLOWED", fmt.Sprintf("%s does not allow modification", rs.Type))
			return
		}
		var rec crud.Record
		if err := decodeJSON(r, &rec); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
		id := chi.URLParam(r, "id")
		out, err := h.store.Update(r.Context(), rs, id, rec)
		if err != nil {
			h.storeErrorToHTTP(w, err)
			return
		}
		h.publish(r.Context(), eventbus.Updated, rs, id, 1)
		writeJSON(w, http.StatusOK, out)
	}
}

func (h *Handler) delete(rs *schema.RecordSchema) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rs.Table.AllowDelete {
			writeError(w, http.StatusForbidden, "DELETE_NOT_ALLOWED", fmt.Sprintf("%s does not allow deletion", rs.Type))
			return
		}
		id := chi.URLParam(r, "id")
		if err := h.store.Delete(r.Context(), rs, id); err != nil {
			h.storeErrorToHTTP(w, err)
			return
		}
		h.publish(r.Context(), eventbus.Deleted, rs, id, 1)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) deleteMulti(rs *schema.RecordSchema) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rs.Table.AllowDelete {
			writeError(w, http.StatusForbidden, "DELETE_NOT_ALLOWED", fmt.Sprintf("%s does not allow deletion", rs.Type))
			return
		}
		var body request.Body
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
		n, err := h.store.DeleteWhere(r.Context(), rs, &body)
		if err != nil {
			h.storeErrorToHTTP(w, err)
			return
		}
		h.publish(r.Context(), eventbus.Deleted, rs, "", n)
		writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
	}
}

// storeErrorToHTTP maps store errors to HTTP responses.
func (h *Handler) storeErrorToHTTP(w http.ResponseWriter, err error) {
	var ve *ValidationError
	var be *BadConditionError
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.As(err, &be):
		writeError(w, http.StatusBadRequest, "BAD_CONDITION", err.Error())
	default:
		h.logger.Error("internal error", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("writeJSON encode", slog.Any("error", err))
	}
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// decodeJSON decodes the request body into v, keeping numbers exact.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(v)
}

// RequestLogger logs one line per request at info level.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("elapsed", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

