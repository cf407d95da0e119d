package backend

import (
	"context"
	"fmt"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/postgres"
	atlas "ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"
	"entgo.io/ent/dialect"

	"github.com/wesleywu/hello-antd-pro/internal/schema"
)

// Migrate creates the table of each record type, or adds the columns an
// existing table lacks. Columns are never dropped or retyped.
func (s *Store) Migrate(ctx context.Context, schemas ...*schema.RecordSchema) error {
	drv, err := s.atlasDriver()
	if err != nil {
		return err
	}
	current, err := drv.InspectSchema(ctx, "", &atlas.InspectOptions{Tables: tableNames(schemas)})
	if err != nil {
		return fmt.Errorf("inspecting schema: %w", err)
	}
	changes := migrationChanges(current, schemas, s.dialect)
	if len(changes) == 0 {
		return nil
	}
	if err := drv.ApplyChanges(ctx, changes); err != nil {
		return fmt.Errorf("applying migration: %w", err)
	}
	return nil
}

func (s *Store) atlasDriver() (migrate.Driver, error) {
	var (
		drv migrate.Driver
		err error
	)
	switch s.dialect {
	case dialect.Postgres:
		drv, err = postgres.Open(s.db)
	case dialect.SQLite:
		drv, err = sqlite.Open(s.db)
	default:
		return nil, fmt.Errorf("migrate: unsupported dialect %q", s.dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("opening migration driver: %w", err)
	}
	return drv, nil
}

func tableNames(schemas []*schema.RecordSchema) []string {
	names := make([]string, len(schemas))
	for i, rs := range schemas {
		names[i] = TableName(rs)
	}
	return names
}

// migrationChanges diffs the wanted tables against current, which holds
// the inspected tables (possibly none).
func migrationChanges(current *atlas.Schema, schemas []*schema.RecordSchema, d string) []atlas.Change {
	var changes []atlas.Change
	for _, rs := range schemas {
		want := desiredTable(rs, d)
		existing, ok := current.Table(want.Name)
		if !ok {
			changes = append(changes, &atlas.AddTable{T: want})
			continue
		}
		var add []atlas.Change
		for _, c := range want.Columns {
			if _, ok := existing.Column(c.Name); !ok {
				add = append(add, &atlas.AddColumn{C: c})
			}
		}
		if len(add) > 0 {
			changes = append(changes, &atlas.ModifyTable{T: existing, Changes: add})
		}
	}
	return changes
}

// desiredTable lays out rs: the text primary key column followed by one
// nullable column per data field.
func desiredTable(rs *schema.RecordSchema, d string) *atlas.Table {
	id := atlas.NewColumn(schema.PrimaryKeyColumn).SetType(&atlas.StringType{T: "text"})
	t := atlas.NewTable(TableName(rs)).AddColumns(id)
	for _, f := range dataFields(rs) {
		t.AddColumns(atlas.NewColumn(f.Column).SetType(columnType(d, f.Type)).SetNull(true))
	}
	t.SetPrimaryKey(atlas.NewPrimaryKey(id))
	return t
}

// columnType returns the column type used to store wt.
func columnType(d string, wt schema.WireType) atlas.Type {
	switch wt {
	case schema.WireDouble, schema.WireFloat:
		if d == dialect.Postgres {
			return &atlas.FloatType{T: "double precision"}
		}
		return &atlas.FloatType{T: "real"}
	case schema.WireInt32, schema.WireUInt32, schema.WireInt64, schema.WireUInt64:
		if d == dialect.Postgres {
			return &atlas.IntegerType{T: "bigint"}
		}
		return &atlas.IntegerType{T: "integer"}
	case schema.WireBool:
		return &atlas.BoolType{T: "boolean"}
	default:
		// Instants are stored as fixed-width UTC text, structured values
		// as JSON.
		return &atlas.StringType{T: "text"}
	}
}
