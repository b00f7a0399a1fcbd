// Package schema reads table and column metadata from the PostgreSQL catalog.
//
// Table names passed here are interpolated into nothing: every lookup binds
// the name as a parameter. Callers that go on to build SQL from the results
// still treat the name as an identifier that must exist in ListTables.
package schema

import (
	"context"
	"fmt"

	"github.com/dalemusser/stratadmin/internal/app/system/pgdb"
	"github.com/jackc/pgx/v5"
)

// Schema is the catalog schema the console manages.
const Schema = "public"

// Column describes one column of a live table.
type Column struct {
	Name     string `json:"name"`
	SQLType  string `json:"sqlType"` // information_schema data_type, e.g. "integer", "timestamp without time zone"
	Nullable bool   `json:"nullable"`
}

// Columns is an ordered column list (declaration order).
type Columns []Column

// Lookup returns the column named name.
func (cs Columns) Lookup(name string) (Column, bool) {
	for _, c := range cs {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Names returns the column names in declaration order.
func (cs Columns) Names() []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

// Introspector queries the catalog. It holds no state between calls.
type Introspector struct {
	q pgdb.Querier
}

// New creates an Introspector over q (a pool or a transaction).
func New(q pgdb.Querier) *Introspector {
	return &Introspector{q: q}
}

// ListTables returns the base tables of the public schema ordered by name.
func (in *Introspector) ListTables(ctx context.Context) ([]string, error) {
	rows, err := in.q.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name`, Schema)
	if err != nil {
		return nil, fmt.Errorf("querying tables: %w", err)
	}

	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning table names: %w", err)
	}
	return names, nil
}

// TableExists reports whether table is a base table of the public schema.
func (in *Introspector) TableExists(ctx context.Context, table string) (bool, error) {
	var exists bool
	err := in.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = $1 AND table_name = $2 AND table_type = 'BASE TABLE'
		)`, Schema, table).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking table %s: %w", table, err)
	}
	return exists, nil
}

// Columns returns the columns of table in declaration order. An unknown table
// yields an empty list, not an error.
func (in *Introspector) Columns(ctx context.Context, table string) (Columns, error) {
	rows, err := in.q.Query(ctx, `
		SELECT column_name, data_type, is_nullable = 'YES'
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`, Schema, table)
	if err != nil {
		return nil, fmt.Errorf("querying columns: %w", err)
	}

	cols, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Column, error) {
		var c Column
		err := row.Scan(&c.Name, &c.SQLType, &c.Nullable)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning columns: %w", err)
	}
	return cols, nil
}

// PrimaryKeyColumns returns the primary key columns of table in key order.
// An unknown table or a table without a primary key yields an empty list.
func (in *Introspector) PrimaryKeyColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := in.q.Query(ctx, `
		SELECT a.attname
		FROM pg_index i
		JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey)
		WHERE i.indrelid = to_regclass($1) AND i.indisprimary
		ORDER BY array_position(i.indkey::int2[], a.attnum)`,
		pgx.Identifier{Schema, table}.Sanitize())
	if err != nil {
		return nil, fmt.Errorf("querying primary key: %w", err)
	}

	cols, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning primary key: %w", err)
	}
	return cols, nil
}

// PrimaryKey returns the single primary key column of table. ok is false when
// the table has no primary key or a composite one.
func (in *Introspector) PrimaryKey(ctx context.Context, table string) (column string, ok bool, err error) {
	cols, err := in.PrimaryKeyColumns(ctx, table)
	if err != nil {
		return "", false, err
	}
	if len(cols) != 1 {
		return "", false, nil
	}
	return cols[0], true, nil
}
