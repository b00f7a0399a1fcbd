package tables

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dalemusser/stratadmin/internal/app/system/apperr"
	"github.com/dalemusser/stratadmin/internal/app/system/pgdb"
	"github.com/dalemusser/stratadmin/internal/app/system/rowcodec"
)

// DefaultRowLimit caps Rows. It is a safety bound, not a pager.
const DefaultRowLimit = 500

// allowedTypes maps creatable column types to their SQL definitions.
var allowedTypes = map[string]string{
	"text":      "TEXT",
	"integer":   "INTEGER",
	"numeric":   "NUMERIC(12,2)",
	"boolean":   "BOOLEAN",
	"timestamp": "TIMESTAMP",
}

// AllowedTypes returns the creatable column type names, sorted.
func AllowedTypes() []string {
	return []string{"boolean", "integer", "numeric", "text", "timestamp"}
}

// PostgreSQL truncates identifiers at 63 bytes; reject rather than truncate.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// ValidIdentifier reports whether name can be used as a new table or column name.
func ValidIdentifier(name string) bool {
	return identPattern.MatchString(name)
}

// ColumnDef is a column requested by CreateTable.
type ColumnDef struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

func qualified(table string) string {
	return pgdb.QuoteIdent("public") + "." + pgdb.QuoteIdent(table)
}

func buildSelect(table string) string {
	return "SELECT * FROM " + qualified(table) + " LIMIT $1"
}

// buildInsert returns INSERT INTO "public"."t" ("a", "b") VALUES ($1, $2).
// Column names must already be checked against the live schema.
func buildInsert(table string, row rowcodec.Row) (string, []any) {
	cols := make([]string, len(row))
	params := make([]string, len(row))
	for i, f := range row {
		cols[i] = pgdb.QuoteIdent(f.Column)
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		qualified(table), strings.Join(cols, ", "), strings.Join(params, ", "))
	return sql, row.Args()
}

// buildUpdate returns UPDATE "public"."t" SET "a" = $1, ... WHERE "pk" = $n.
func buildUpdate(table string, set rowcodec.Row, keyColumn string, key rowcodec.Value) (string, []any) {
	assignments := make([]string, len(set))
	for i, f := range set {
		assignments[i] = fmt.Sprintf("%s = $%d", pgdb.QuoteIdent(f.Column), i+1)
	}
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
		qualified(table), strings.Join(assignments, ", "), pgdb.QuoteIdent(keyColumn), len(set)+1)
	return sql, append(set.Args(), key.Arg())
}

// buildCreateTable validates a table definition and returns its CREATE TABLE
// statement. Nothing user-supplied reaches the statement except identifiers
// that match identPattern and types from allowedTypes.
func buildCreateTable(name string, columns []ColumnDef) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Invalid("Table name required")
	}
	if !ValidIdentifier(name) {
		return "", apperr.Invalidf("Invalid table name: %s", name)
	}
	if len(columns) == 0 {
		return "", apperr.Invalid("Columns required")
	}

	seen := make(map[string]bool, len(columns))
	defs := make([]string, 0, len(columns))
	for _, c := range columns {
		sqlType, ok := allowedTypes[c.Type]
		if !ok {
			return "", apperr.Invalidf("Invalid column: %s (type %q not allowed)", c.Name, c.Type)
		}
		if !ValidIdentifier(c.Name) {
			return "", apperr.Invalidf("Invalid column: %q", c.Name)
		}
		if seen[c.Name] {
			return "", apperr.Invalidf("Duplicate column: %s", c.Name)
		}
		seen[c.Name] = true

		def := pgdb.QuoteIdent(c.Name) + " " + sqlType
		if !c.Nullable {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}

	return fmt.Sprintf("CREATE TABLE %s (%s)", qualified(name), strings.Join(defs, ", ")), nil
}
