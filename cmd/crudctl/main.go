// Command crudctl compiles search values into backend query bodies and runs
// CRUD operations against a backend for any declared record type.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/wesleywu/hello-antd-pro/internal/condition"
	"github.com/wesleywu/hello-antd-pro/internal/config"
	"github.com/wesleywu/hello-antd-pro/internal/crud"
	"github.com/wesleywu/hello-antd-pro/internal/diag"
	"github.com/wesleywu/hello-antd-pro/internal/factory"
	"github.com/wesleywu/hello-antd-pro/internal/request"
	"github.com/wesleywu/hello-antd-pro/internal/schema"
	"github.com/wesleywu/hello-antd-pro/internal/schema/cueload"
	"github.com/wesleywu/hello-antd-pro/internal/transport"
	"github.com/wesleywu/hello-antd-pro/internal/transport/wstransport"
)

// sortArgs is a repeatable -sort field[:descend] flag.
type sortArgs []request.Sort

func (s *sortArgs) String() string {
	parts := make([]string, len(*s))
	for i, so := range *s {
		parts[i] = so.Field + ":" + so.Order
	}
	return strings.Join(parts, ",")
}

func (s *sortArgs) Set(v string) error {
	field, order, _ := strings.Cut(v, ":")
	if field == "" {
		return fmt.Errorf("invalid sort %q (expected field[:ascend|descend])", v)
	}
	*s = append(*s, request.Sort{Field: field, Order: order})
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// env is what every verb needs: configuration, schemas and a lazily dialed
// transport.
type env struct {
	cfg      config.Config
	registry *schema.Registry
	recorder *diag.Recorder
	builder  *request.Builder
	logger   *slog.Logger
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	closers  []func() error
}

func run(ctx context.Context, argv []string, stdin io.Reader, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("crudctl", flag.ContinueOnError)
	global.SetOutput(stderr)
	configPath := global.String("config", "", "YAML config file")
	schemaPath := global.String("schema", "", "CUE record declarations (overrides schema.path)")
	backendURL := global.String("backend", "", "backend base URL (overrides backend.url)")
	transportName := global.String("transport", "", "http or ws (overrides backend.transport)")
	global.Usage = func() { printUsage(stderr) }
	if err := global.Parse(argv); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	args := global.Args()
	if len(args) == 0 || args[0] == "help" {
		printUsage(stdout)
		return 0
	}
	if len(args) < 2 {
		fmt.Fprintf(stderr, "missing record type for %s\n\n", args[0])
		printUsage(stderr)
		return 2
	}
	verb, recordType, rest := args[0], schema.RecordType(args[1]), args[2:]

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if *schemaPath != "" {
		cfg.Schema.Path = *schemaPath
	}
	if *backendURL != "" {
		cfg.Backend.URL = *backendURL
	}
	if *transportName != "" {
		cfg.Backend.Transport = *transportName
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	e, err := newEnv(cfg, stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer e.close()

	switch verb {
	case "body":
		return e.runBody(recordType, rest)
	case "list":
		return e.runList(ctx, recordType, rest)
	case "create":
		return e.runCreate(ctx, recordType, rest)
	case "update":
		return e.runUpdate(ctx, recordType, rest)
	case "delete":
		return e.runDelete(ctx, recordType, rest)
	case "delete-multi":
		return e.runDeleteMulti(ctx, recordType, rest)
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n\n", verb)
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "crudctl - query compiler and CRUD client for declared record types")
	fmt.Fprintln(w, "\nUsage:")
	fmt.Fprintln(w, "  crudctl [global flags] body <type> [-values JSON] [-filter JSON] [-page N -size N] [-sort field[:descend]]... [-filter-only]")
	fmt.Fprintln(w, "  crudctl [global flags] list <type> [-values JSON] [-filter JSON] [-page N -size N] [-sort field[:descend]]...")
	fmt.Fprintln(w, "  crudctl [global flags] create <type> -data JSON|-")
	fmt.Fprintln(w, "  crudctl [global flags] update <type> -id ID -data JSON|-")
	fmt.Fprintln(w, "  crudctl [global flags] delete <type> -id ID")
	fmt.Fprintln(w, "  crudctl [global flags] delete-multi <type> -values JSON")
	fmt.Fprintln(w, "\nGlobal flags:")
	fmt.Fprintln(w, "  -config FILE     YAML config file")
	fmt.Fprintln(w, "  -schema FILE     CUE record declarations")
	fmt.Fprintln(w, "  -backend URL     backend base URL")
	fmt.Fprintln(w, "  -transport NAME  http or ws")
	fmt.Fprintln(w, "\nExit status: 0 success, 1 failure, 2 usage error, 3 backend server error.")
}

func newEnv(cfg config.Config, stdin io.Reader, stdout, stderr io.Writer) (*env, error) {
	logger, err := cfg.Log.Logger(stderr)
	if err != nil {
		return nil, err
	}
	reg := schema.NewRegistry()
	if err := cueload.LoadInto(reg, cfg.Schema.Path); err != nil {
		return nil, err
	}
	rec := &diag.Recorder{}
	builder := request.NewBuilder(condition.NewCompiler(diag.Tee(rec, diag.NewLogReporter(logger))))
	return &env{
		cfg:      cfg,
		registry: reg,
		recorder: rec,
		builder:  builder,
		logger:   logger,
		stdin:    stdin,
		stdout:   stdout,
		stderr:   stderr,
	}, nil
}

func (e *env) close() {
	for _, c := range e.closers {
		_ = c()
	}
}

func (e *env) transport(ctx context.Context) (crud.Transport, error) {
	b := e.cfg.Backend
	switch b.Transport {
	case config.TransportWebSocket:
		url := strings.TrimRight(b.URL, "/") + "/ws"
		url = "ws" + strings.TrimPrefix(url, "http")
		c, err := wstransport.Dial(ctx, url)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, c.Close)
		return c, nil
	default:
		t := transport.NewHTTP(b.URL, b.Timeout)
		t.Header = make(http.Header, len(b.Headers))
		for k, v := range b.Headers {
			t.Header.Set(k, v)
		}
		return t, nil
	}
}

func (e *env) crud(ctx context.Context, rt schema.RecordType) (*crud.Crud, error) {
	tr, err := e.transport(ctx)
	if err != nil {
		return nil, err
	}
	return factory.NewCruds(e.registry, e.builder, tr, e.logger).Get(rt)
}

func (e *env) print(v any) int {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(e.stderr, err)
		return 1
	}
	fmt.Fprintln(e.stdout, string(out))
	return 0
}

func (e *env) fail(err error) int {
	fmt.Fprintln(e.stderr, err)
	var se *transport.StatusError
	if errors.As(err, &se) && se.Status >= 500 {
		return 3
	}
	return 1
}

// reportDiagnostics prints search values the compiler dropped.
func (e *env) reportDiagnostics() {
	for _, d := range e.recorder.Diagnostics() {
		fmt.Fprintf(e.stderr, "dropped: %s\n", d)
	}
}

// ─── Flags ──────────────────────────────────────────────────

type queryFlags struct {
	values string
	filter string
	page   int
	size   int
	sorts  sortArgs
}

func bindQueryFlags(fs *flag.FlagSet, q *queryFlags) {
	fs.StringVar(&q.values, "values", "", "search values as a JSON object")
	fs.StringVar(&q.filter, "filter", "", "column filters as a JSON object, intersected with -values")
	fs.IntVar(&q.page, "page", crud.DefaultPage, "page number")
	fs.IntVar(&q.size, "size", crud.DefaultPageSize, "page size")
	fs.Var(&q.sorts, "sort", "sort field[:descend] (repeatable)")
}

func parseValues(name, s string) (request.Values, error) {
	if s == "" {
		return nil, nil
	}
	var v request.Values
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid -%s: %w", name, err)
	}
	return v, nil
}

// searchValues returns the -values object merged with the -filter one.
func (q *queryFlags) searchValues() (request.Values, error) {
	values, err := parseValues("values", q.values)
	if err != nil {
		return nil, err
	}
	if q.filter == "" {
		return values, nil
	}
	filter, err := parseValues("filter", q.filter)
	if err != nil {
		return nil, err
	}
	return request.MergeFilters(values, filter), nil
}

func (e *env) readRecord(data string) (crud.Record, error) {
	var r io.Reader = strings.NewReader(data)
	if data == "-" {
		r = e.stdin
	}
	var rec crud.Record
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("invalid -data: %w", err)
	}
	return rec, nil
}

// ─── Verbs ──────────────────────────────────────────────────

func (e *env) runBody(rt schema.RecordType, argv []string) int {
	fs := flag.NewFlagSet("body", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	var q queryFlags
	bindQueryFlags(fs, &q)
	filterOnly := fs.Bool("filter-only", false, "omit pageRequest, as delete-multi sends")
	if err := fs.Parse(argv); err != nil {
		return 2
	}
	rs, err := e.registry.Get(rt)
	if err != nil {
		return e.fail(err)
	}
	values, err := q.searchValues()
	if err != nil {
		return e.fail(err)
	}
	var page *request.Page
	if !*filterOnly {
		page = &request.Page{Number: q.page, Size: q.size}
	}
	body := e.builder.Build(rs, values, page, q.sorts)
	e.reportDiagnostics()
	return e.print(body)
}

func (e *env) runList(ctx context.Context, rt schema.RecordType, argv []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	var q queryFlags
	bindQueryFlags(fs, &q)
	if err := fs.Parse(argv); err != nil {
		return 2
	}
	values, err := q.searchValues()
	if err != nil {
		return e.fail(err)
	}
	c, err := e.crud(ctx, rt)
	if err != nil {
		return e.fail(err)
	}
	page, err := c.List(ctx, crud.ListQuery{Values: values, Sorts: q.sorts, Current: q.page, PageSize: q.size})
	e.reportDiagnostics()
	if err != nil {
		return e.fail(err)
	}
	return e.print(page)
}

func (e *env) runCreate(ctx context.Context, rt schema.RecordType, argv []string) int {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	data := fs.String("data", "", "record as JSON, or - for stdin (required)")
	if err := fs.Parse(argv); err != nil {
		return 2
	}
	if *data == "" {
		fmt.Fprintln(e.stderr, "missing -data")
		return 2
	}
	rec, err := e.readRecord(*data)
	if err != nil {
		return e.fail(err)
	}
	c, err := e.crud(ctx, rt)
	if err != nil {
		return e.fail(err)
	}
	out, err := c.Create(ctx, rec)
	if err != nil {
		return e.fail(err)
	}
	return e.print(out)
}

func (e *env) runUpdate(ctx context.Context, rt schema.RecordType, argv []string) int {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	id := fs.String("id", "", "record id (required)")
	data := fs.String("data", "", "changed members as JSON, or - for stdin (required)")
	if err := fs.Parse(argv); err != nil {
		return 2
	}
	if *id == "" || *data == "" {
		fmt.Fprintln(e.stderr, "missing -id or -data")
		return 2
	}
	rec, err := e.readRecord(*data)
	if err != nil {
		return e.fail(err)
	}
	c, err := e.crud(ctx, rt)
	if err != nil {
		return e.fail(err)
	}
	out, err := c.Update(ctx, *id, rec)
	if err != nil {
		return e.fail(err)
	}
	return e.print(out)
}

func (e *env) runDelete(ctx context.Context, rt schema.RecordType, argv []string) int {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	id := fs.String("id", "", "record id (required)")
	if err := fs.Parse(argv); err != nil {
		return 2
	}
	if *id == "" {
		fmt.Fprintln(e.stderr, "missing -id")
		return 2
	}
	c, err := e.crud(ctx, rt)
	if err != nil {
		return e.fail(err)
	}
	if err := c.Delete(ctx, *id); err != nil {
		return e.fail(err)
	}
	fmt.Fprintln(e.stdout, "deleted")
	return 0
}

func (e *env) runDeleteMulti(ctx context.Context, rt schema.RecordType, argv []string) int {
	fs := flag.NewFlagSet("delete-multi", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	valuesJSON := fs.String("values", "", "search values selecting the records (required)")
	if err := fs.Parse(argv); err != nil {
		return 2
	}
	values, err := parseValues("values", *valuesJSON)
	if err != nil {
		return e.fail(err)
	}
	if len(values) == 0 {
		fmt.Fprintln(e.stderr, "missing -values")
		return 2
	}
	c, err := e.crud(ctx, rt)
	if err != nil {
		return e.fail(err)
	}
	out, err := c.DeleteMulti(ctx, values)
	e.reportDiagnostics()
	if err != nil {
		return e.fail(err)
	}
	return e.print(out)
}
