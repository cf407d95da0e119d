package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/wesleywu/hello-antd-pro/internal/backend"
	"github.com/wesleywu/hello-antd-pro/internal/config"
	"github.com/wesleywu/hello-antd-pro/internal/eventbus"
	"github.com/wesleywu/hello-antd-pro/internal/schema"
	"github.com/wesleywu/hello-antd-pro/internal/schema/cueload"
	"github.com/wesleywu/hello-antd-pro/internal/server"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	logger, err := cfg.Log.Logger(os.Stderr)
	if err != nil {
		log.Fatal(err)
	}

	reg := schema.NewRegistry()
	if err := cueload.LoadInto(reg, cfg.Schema.Path); err != nil {
		log.Fatalf("loading record types: %v", err)
	}

	store, err := backend.Open(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer store.Close()

	schemas := make([]*schema.RecordSchema, 0, len(reg.Types()))
	for _, rt := range reg.Types() {
		rs, err := reg.Get(rt)
		if err != nil {
			log.Fatal(err)
		}
		schemas = append(schemas, rs)
	}
	if err := store.Migrate(ctx, schemas...); err != nil {
		log.Fatalf("running schema migration: %v", err)
	}
	logger.Info("database migrated", "dialect", store.Dialect(), "types", len(schemas))

	bus := eventbus.New(256, logger)
	bus.Subscribe("log", eventbus.NewLogConsumer(logger))
	bus.Start(ctx)
	defer bus.Stop()

	if err := server.Run(ctx, server.Config{
		Port:            cfg.Server.Port,
		Registry:        reg,
		Store:           store,
		Logger:          logger,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Events:          bus,
	}); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
