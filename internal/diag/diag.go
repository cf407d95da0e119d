// Package diag carries the module's logging setup and the structured
// diagnostic channel used when a search condition is dropped.
package diag

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// Code classifies why a condition was dropped.
type Code string

const (
	// CodeShapeMismatch: the value does not fit the field's wire type.
	CodeShapeMismatch Code = "shape_mismatch"
	// CodeBoundsArity: Between/NotBetween without exactly two elements.
	CodeBoundsArity Code = "bounds_arity"
	// CodeRangeArity: a date range that is not a pair.
	CodeRangeArity Code = "range_arity"
	// CodeNotSearchable: structured wire types cannot be searched.
	CodeNotSearchable Code = "not_searchable"
	// CodeInvalidSearch: unknown operator or multiplicity.
	CodeInvalidSearch Code = "invalid_search"
)

// Diagnostic describes one dropped condition.
type Diagnostic struct {
	Field   string
	Code    Code
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Field, d.Code, d.Message)
}

// Reporter receives diagnostics. Implementations must be safe for
// concurrent use.
type Reporter interface {
	Report(Diagnostic)
}

// Discard ignores every diagnostic.
var Discard Reporter = discard{}

type discard struct{}

func (discard) Report(Diagnostic) {}

// LogReporter writes diagnostics to a slog logger at warn level.
type LogReporter struct {
	Logger *slog.Logger
}

// NewLogReporter returns a reporter writing to logger, or to
// slog.Default when logger is nil.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{Logger: logger}
}

func (r *LogReporter) Report(d Diagnostic) {
	r.Logger.Warn("condition dropped",
		slog.String("field", d.Field),
		slog.String("code", string(d.Code)),
		slog.String("reason", d.Message))
}

// Recorder keeps every diagnostic in memory.
type Recorder struct {
	mu    sync.Mutex
	diags []Diagnostic
}

func (r *Recorder) Report(d Diagnostic) {
	r.mu.Lock()
	r.diags = append(r.diags, d)
	r.mu.Unlock()
}

// Diagnostics returns a copy of what was recorded so far.
func (r *Recorder) Diagnostics() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Diagnostic, len(r.diags))
	copy(out, r.diags)
	return out
}

// Codes returns the recorded codes in order.
func (r *Recorder) Codes() []Code {
	ds := r.Diagnostics()
	out := make([]Code, len(ds))
	for i, d := range ds {
		out[i] = d.Code
	}
	return out
}

// Reset drops everything recorded.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.diags = nil
	r.mu.Unlock()
}

// Tee fans a diagnostic out to several reporters.
func Tee(rs ...Reporter) Reporter { return tee(rs) }

type tee []Reporter

func (t tee) Report(d Diagnostic) {
	for _, r := range t {
		r.Report(d)
	}
}

// ── Logger ──────────────────────────────────────────────────

// NewLogger builds a slog logger. format is "text" or "json"; level is
// one of debug, info, warn, error (empty means info).
func NewLogger(w io.Writer, format, level string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("parse log level: %w", err)
	}
	return lvl, nil
}
