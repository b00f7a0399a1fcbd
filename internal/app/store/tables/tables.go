// Package tables is the generic table editor: it lists, reads, inserts into,
// updates and creates tables whose shape is discovered from the catalog on
// every call.
//
// Identifiers reach SQL only after they are found in the live schema (for
// existing tables) or pass the identifier pattern and type allow-list (for new
// tables). Values are always bound parameters.
package tables

import (
	"context"
	"fmt"

	"github.com/dalemusser/stratadmin/internal/app/store/schema"
	"github.com/dalemusser/stratadmin/internal/app/system/apperr"
	"github.com/dalemusser/stratadmin/internal/app/system/pgdb"
	"github.com/dalemusser/stratadmin/internal/app/system/rowcodec"
)

// Service runs table editor operations.
type Service struct {
	q        pgdb.Querier
	in       *schema.Introspector
	rowLimit int
}

// New creates a Service. rowLimit <= 0 uses DefaultRowLimit.
func New(q pgdb.Querier, rowLimit int) *Service {
	if rowLimit <= 0 {
		rowLimit = DefaultRowLimit
	}
	return &Service{q: q, in: schema.New(q), rowLimit: rowLimit}
}

// ListTables returns the public base tables ordered by name.
func (s *Service) ListTables(ctx context.Context) ([]string, error) {
	return s.in.ListTables(ctx)
}

// Columns returns the live columns of table, or NotFound.
func (s *Service) Columns(ctx context.Context, table string) (schema.Columns, error) {
	cols, err := s.in.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, apperr.NotFound("Table not found")
	}
	return cols, nil
}

// Rows returns up to the row limit of table's rows in storage order.
func (s *Service) Rows(ctx context.Context, table string) ([]rowcodec.Row, error) {
	if _, err := s.Columns(ctx, table); err != nil {
		return nil, err
	}

	rows, err := s.q.Query(ctx, buildSelect(table), s.rowLimit)
	if err != nil {
		return nil, fmt.Errorf("query rows of %s: %w", table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	names := make([]string, len(fields))
	for i, fd := range fields {
		names[i] = fd.Name
	}

	out := make([]rowcodec.Row, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan row of %s: %w", table, err)
		}
		out = append(out, rowcodec.DecodeRow(names, values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows of %s: %w", table, err)
	}
	return out, nil
}

// InsertRow coerces values against the live schema and inserts one row.
// It returns the number of rows affected.
func (s *Service) InsertRow(ctx context.Context, table string, values map[string]any) (int64, error) {
	cols, err := s.Columns(ctx, table)
	if err != nil {
		return 0, err
	}

	row, err := rowcodec.EncodeInsert(cols, values)
	if err != nil {
		return 0, err
	}

	sql, args := buildInsert(table, row)
	tag, err := s.q.Exec(ctx, sql, args...)
	if err != nil {
		if pgdb.IsUniqueViolation(err) {
			return 0, apperr.ConflictFrom("Duplicate value violates a unique constraint", err)
		}
		return 0, fmt.Errorf("insert into %s: %w", table, err)
	}
	return tag.RowsAffected(), nil
}

// UpdateRow sets values on the row identified by original's primary key value.
// Only single-column primary keys are supported.
func (s *Service) UpdateRow(ctx context.Context, table string, original, values map[string]any) (int64, error) {
	cols, err := s.Columns(ctx, table)
	if err != nil {
		return 0, err
	}

	keys, err := s.in.PrimaryKeyColumns(ctx, table)
	if err != nil {
		return 0, err
	}
	switch {
	case len(keys) == 0:
		return 0, apperr.Invalid("Primary key missing")
	case len(keys) > 1:
		return 0, apperr.Invalid("Composite primary keys are not supported")
	}
	keyColumn := keys[0]

	keyCol, _ := cols.Lookup(keyColumn)
	rawKey, ok := original[keyColumn]
	if !ok {
		return 0, apperr.Invalid("Primary key missing")
	}
	key := rowcodec.Coerce(keyCol.SQLType, rawKey)
	if key.IsNull() {
		return 0, apperr.Invalid("Primary key missing")
	}

	set, err := rowcodec.EncodeUpdate(cols, values, keyColumn)
	if err != nil {
		return 0, err
	}

	sql, args := buildUpdate(table, set, keyColumn, key)
	tag, err := s.q.Exec(ctx, sql, args...)
	if err != nil {
		if pgdb.IsUniqueViolation(err) {
			return 0, apperr.ConflictFrom("Duplicate value violates a unique constraint", err)
		}
		return 0, fmt.Errorf("update %s: %w", table, err)
	}
	return tag.RowsAffected(), nil
}

// CreateTable validates the definition against the type allow-list and
// creates the table. Nothing is created when validation fails.
func (s *Service) CreateTable(ctx context.Context, name string, columns []ColumnDef) error {
	sql, err := buildCreateTable(name, columns)
	if err != nil {
		return err
	}
	if _, err := s.q.Exec(ctx, sql); err != nil {
		if pgdb.IsDuplicateTable(err) {
			return apperr.ConflictFrom("Table already exists", err)
		}
		return fmt.Errorf("create table %s: %w", name, err)
	}
	return nil
}
