package backend

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"
	"strings"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/wesleywu/hello-antd-pro/internal/crud"
	"github.com/wesleywu/hello-antd-pro/internal/request"
	"github.com/wesleywu/hello-antd-pro/internal/schema"
)

// Default page used when a list body carries no pageRequest.
const (
	defaultPage     = 1
	defaultPageSize = 10
	maxPageSize     = 1000
)

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("record not found")

// ValidationError reports a record the store refuses to write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Store keeps records of every registered type in one table per type.
type Store struct {
	db      *stdsql.DB
	dialect string
}

// Open connects to dsn. postgres:// and postgresql:// URLs use pgx,
// anything else is a SQLite DSN.
func Open(ctx context.Context, dsn string) (*Store, error) {
	driver, d := "sqlite", dialect.SQLite
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver, d = "pgx", dialect.Postgres
	}
	db, err := stdsql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if d == dialect.SQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return NewStore(db, d), nil
}

// NewStore wraps an open database of the given ent dialect.
func NewStore(db *stdsql.DB, d string) *Store {
	return &Store{db: db, dialect: d}
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Dialect returns the ent dialect name of the store.
func (s *Store) Dialect() string { return s.dialect }

func (s *Store) builder() *sql.DialectBuilder { return sql.Dialect(s.dialect) }

// ── Table layout ────────────────────────────────────────────

// TableName is the table holding records of rs.
func TableName(rs *schema.RecordSchema) string {
	return schema.SnakeCase(string(rs.Type))
}

// idKey is the record member holding the primary key: the identifier of
// the field stored in PrimaryKeyColumn, or "id".
func idKey(rs *schema.RecordSchema) string {
	if f, ok := rs.FieldByColumn(schema.PrimaryKeyColumn); ok {
		return f.Name
	}
	return "id"
}

// dataFields are the fields stored outside the primary key column.
func dataFields(rs *schema.RecordSchema) []*schema.FieldMeta {
	var out []*schema.FieldMeta
	for _, f := range rs.Fields() {
		if f.Column != schema.PrimaryKeyColumn {
			out = append(out, f)
		}
	}
	return out
}

func columns(rs *schema.RecordSchema) []string {
	cols := []string{schema.PrimaryKeyColumn}
	for _, f := range dataFields(rs) {
		cols = append(cols, f.Column)
	}
	return cols
}

// ── Reads ───────────────────────────────────────────────────

// List returns the page of records matching body.
func (s *Store) List(ctx context.Context, rs *schema.RecordSchema, body *request.Body) (*crud.ListResponse, error) {
	pr := request.PageRequest{Number: defaultPage, Size: defaultPageSize}
	if body.PageRequest != nil {
		pr = *body.PageRequest
	}
	if pr.Number < 1 {
		pr.Number = defaultPage
	}
	switch {
	case pr.Size < 1:
		pr.Size = defaultPageSize
	case pr.Size > maxPageSize:
		pr.Size = maxPageSize
	}

	total, err := s.count(ctx, rs, body)
	if err != nil {
		return nil, err
	}

	b := s.builder()
	t := b.Table(TableName(rs))
	sel := b.Select(columns(rs)...).From(t)
	pred, err := Predicate(rs, body)
	if err != nil {
		return nil, err
	}
	if pred != nil {
		sel.Where(pred)
	}
	var applied []request.SortEntry
	for _, so := range pr.Sorts {
		if so.Property != schema.PrimaryKeyColumn {
			if _, ok := rs.FieldByColumn(so.Property); !ok {
				continue
			}
		}
		term := sel.C(so.Property)
		if so.Direction == request.Desc {
			term += " DESC"
		}
		sel.OrderBy(term)
		applied = append(applied, so)
	}
	sel.Limit(pr.Size).Offset((pr.Number - 1) * pr.Size)

	items, err := s.query(ctx, rs, sel)
	if err != nil {
		return nil, err
	}
	if applied == nil {
		applied = []request.SortEntry{}
	}
	return &crud.ListResponse{
		Items: items,
		PageInfo: crud.PageInfo{
			Number:           pr.Number,
			Size:             pr.Size,
			NumberOfElements: len(items),
			TotalElements:    total,
			First:            pr.Number == 1,
			Last:             int64(pr.Number*pr.Size) >= total,
			Sorts:            applied,
		},
	}, nil
}

func (s *Store) count(ctx context.Context, rs *schema.RecordSchema, body *request.Body) (int64, error) {
	b := s.builder()
	sel := b.Select(sql.Count("*")).From(b.Table(TableName(rs)))
	pred, err := Predicate(rs, body)
	if err != nil {
		return 0, err
	}
	if pred != nil {
		sel.Where(pred)
	}
	query, args := sel.Query()
	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", TableName(rs), err)
	}
	return n, nil
}

// Get returns one record.
func (s *Store) Get(ctx context.Context, rs *schema.RecordSchema, id string) (crud.Record, error) {
	b := s.builder()
	sel := b.Select(columns(rs)...).From(b.Table(TableName(rs))).Where(sql.EQ(schema.PrimaryKeyColumn, id))
	items, err := s.query(ctx, rs, sel)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return items[0], nil
}

func (s *Store) query(ctx context.Context, rs *schema.RecordSchema, sel *sql.Selector) ([]crud.Record, error) {
	query, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", TableName(rs), err)
	}
	defer rows.Close()

	fields := dataFields(rs)
	key := idKey(rs)
	items := []crud.Record{}
	for rows.Next() {
		vals := make([]any, len(fields)+1)
		ptrs := make([]any, len(vals))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", TableName(rs), err)
		}
		rec := crud.Record{key: fromColumnID(vals[0])}
		for i, f := range fields {
			rec[f.Name] = fromColumn(f, vals[i+1])
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}

func fromColumnID(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// ── Writes ──────────────────────────────────────────────────

// Insert stores a new record and returns it as stored. A missing id is
// generated. Members without a matching field are ignored.
func (s *Store) Insert(ctx context.Context, rs *schema.RecordSchema, rec crud.Record) (crud.Record, error) {
	id, _ := rec[idKey(rs)].(string)
	if id == "" {
		id = uuid.NewString()
	}
	cols := []string{schema.PrimaryKeyColumn}
	vals := []any{id}
	for _, f := range dataFields(rs) {
		raw, ok := rec[f.Name]
		if !ok || raw == nil {
			if f.Required {
				return nil, &ValidationError{Field: f.Name, Reason: "required"}
			}
			continue
		}
		v, err := toColumn(f, raw)
		if err != nil {
			return nil, &ValidationError{Field: f.Name, Reason: err.Error()}
		}
		cols = append(cols, f.Column)
		vals = append(vals, v)
	}
	query, args := s.builder().Insert(TableName(rs)).Columns(cols...).Values(vals...).Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("inserting into %s: %w", TableName(rs), err)
	}
	return s.Get(ctx, rs, id)
}

// Update sets the members present in rec and returns the updated record.
func (s *Store) Update(ctx context.Context, rs *schema.RecordSchema, id string, rec crud.Record) (crud.Record, error) {
	upd := s.builder().Update(TableName(rs))
	n := 0
	for _, f := range dataFields(rs) {
		raw, ok := rec[f.Name]
		if !ok {
			continue
		}
		if raw == nil && f.Required {
			return nil, &ValidationError{Field: f.Name, Reason: "required"}
		}
		v, err := toColumn(f, raw)
		if err != nil {
			return nil, &ValidationError{Field: f.Name, Reason: err.Error()}
		}
		upd.Set(f.Column, v)
		n++
	}
	if n == 0 {
		return s.Get(ctx, rs, id)
	}
	query, args := upd.Where(sql.EQ(schema.PrimaryKeyColumn, id)).Query()
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("updating %s: %w", TableName(rs), err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, rs, id)
}

// Delete removes one record.
func (s *Store) Delete(ctx context.Context, rs *schema.RecordSchema, id string) error {
	query, args := s.builder().Delete(TableName(rs)).Where(sql.EQ(schema.PrimaryKeyColumn, id)).Query()
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", TableName(rs), err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteWhere removes every record matching body and returns how many
// were removed. A body without conditions is refused.
func (s *Store) DeleteWhere(ctx context.Context, rs *schema.RecordSchema, body *request.Body) (int64, error) {
	pred, err := Predicate(rs, body)
	if err != nil {
		return 0, err
	}
	if pred == nil {
		return 0, &BadConditionError{Field: "*", Reason: "refusing to delete without conditions"}
	}
	query, args := s.builder().Delete(TableName(rs)).Where(pred).Query()
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting from %s: %w", TableName(rs), err)
	}
	return res.RowsAffected()
}
