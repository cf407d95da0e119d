// Package config loads process configuration from an optional YAML file
// overlaid with environment variables.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wesleywu/hello-antd-pro/internal/diag"
)

// Environment variables overriding file values.
const (
	EnvPort       = "PORT"
	EnvDatabase   = "DATABASE_URL"
	EnvBackendURL = "ADMIN_BACKEND_URL"
	EnvLogLevel   = "LOG_LEVEL"
	EnvLogFormat  = "LOG_FORMAT"
	EnvSchemaPath = "SCHEMA_PATH"
)

// Transport names accepted in backend.transport.
const (
	TransportHTTP      = "http"
	TransportWebSocket = "ws"
)

// Config is the configuration shared by the binaries.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Schema   SchemaConfig   `yaml:"schema"`
	Backend  BackendConfig  `yaml:"backend"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// SchemaConfig points at the CUE file declaring the record types.
type SchemaConfig struct {
	Path string `yaml:"path"`
}

// BackendConfig is where clients send CRUD requests.
type BackendConfig struct {
	URL       string            `yaml:"url"`
	Timeout   time.Duration     `yaml:"timeout"`
	Transport string            `yaml:"transport"`
	Headers   map[string]string `yaml:"headers"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Logger builds the configured logger writing to w.
func (c LogConfig) Logger(w io.Writer) (*slog.Logger, error) {
	return diag.NewLogger(w, c.Format, c.Level)
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server:   ServerConfig{Port: 8080, ShutdownTimeout: 10 * time.Second},
		Database: DatabaseConfig{URL: "file:admin.db?_pragma=foreign_keys(1)"},
		Schema:   SchemaConfig{Path: "records.cue"},
		Backend:  BackendConfig{URL: "http://localhost:8080", Timeout: 30 * time.Second, Transport: TransportHTTP},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path (skipped when empty) over the defaults and applies the
// process environment.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an explicit environment lookup.
func LoadWithEnv(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		if err := Parse(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg. Keys absent from data keep their value;
// unknown keys are an error.
func Parse(data []byte, cfg *Config) error {
	if strings.TrimSpace(string(data)) == "" {
		return nil
	}
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	return dec.Decode(cfg)
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s=%q: %w", EnvPort, v, err)
		}
		cfg.Server.Port = port
	}
	if v, ok := lookup(EnvDatabase); ok && v != "" {
		cfg.Database.URL = v
	}
	if v, ok := lookup(EnvBackendURL); ok && v != "" {
		cfg.Backend.URL = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.Log.Level = v
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		cfg.Log.Format = v
	}
	if v, ok := lookup(EnvSchemaPath); ok && v != "" {
		cfg.Schema.Path = v
	}
	return nil
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	switch c.Backend.Transport {
	case TransportHTTP, TransportWebSocket:
	default:
		return fmt.Errorf("config: backend.transport %q: want %s or %s", c.Backend.Transport, TransportHTTP, TransportWebSocket)
	}
	if _, err := diag.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format %q: want text or json", c.Log.Format)
	}
	return nil
}
