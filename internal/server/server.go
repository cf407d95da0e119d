// Package server assembles all HTTP handlers and starts the server.
package server

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

	"github.com/wesleywu/hello-antd-pro/internal/backend"
	"github.com/wesleywu/hello-antd-pro/internal/openapi"
	"github.com/wesleywu/hello-antd-pro/internal/schema"
	"github.com/wesleywu/hello-antd-pro/internal/transport/wstransport"
)

// Config holds server configuration.
type Config struct {
	Port            int
	Registry        *schema.Registry
	Store           *backend.Store
	Logger          *slog.Logger
	ShutdownTimeout time.Duration
	// Events, when set, receives a change event after every successful
	// write.
	Events backend.Publisher
}

// NewRouter returns the handler serving /healthz, /openapi.json, /ws and the
// CRUD routes of every registered record type.
func NewRouter(ctx context.Context, cfg Config) (http.Handler, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	doc, err := openapi.Document(ctx, cfg.Registry, openapi.Info{Title: "admin backend"})
	if err != nil {
		return nil, err
	}
	spec, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding openapi document: %w", err)
	}

	h := backend.NewHandler(cfg.Registry, cfg.Store, logger)
	if cfg.Events != nil {
		h.SetPublisher(cfg.Events)
	}

	// Requests arriving over /ws are replayed against the CRUD routes only.
	api := chi.NewRouter()
	api.Use(backend.RequestLogger(logger))
	h.Routes(api)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
	r.Handle("/ws", wstransport.NewHandler(api, logger))
	r.Group(func(r chi.Router) {
		r.Use(backend.RequestLogger(logger))
		h.Routes(r)
	})
	return r, nil
}

// Run starts the HTTP server and shuts it down when ctx is done.
func Run(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	handler, err := NewRouter(ctx, cfg)
	if err != nil {
		return err
	}
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("starting server", slog.String("addr", addr), slog.Int("record_types", len(cfg.Registry.Types())))

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", slog.Any("error", err))
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
