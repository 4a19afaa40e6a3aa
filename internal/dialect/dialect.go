// Package dialect implements the per-database-engine SQL code generation
// primitives that let the rest of the engine (C4/C5/C7) stay
// dialect-independent (spec C3). A Dialect is constructed once from an
// explicit Kind, per Design Notes item 4 ("replace global process
// environment reads with an explicit Dialect passed at construction").
package dialect

import (
	"fmt"
	"strings"

	"github.com/ridoystarlord/sqlbuns/internal/schema"
	"github.com/ridoystarlord/sqlbuns/internal/sqlbunserr"
)

// Kind identifies one of the three supported engines.
type Kind string

const (
	Postgres Kind = "postgres"
	MySQL    Kind = "mysql"
	SQLite   Kind = "sqlite"
)

// ParseKind normalizes and validates DATABASE_ENGINE.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postgres", "postgresql":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("%w: %q", sqlbunserr.ErrDialectUnsupported, s)
	}
}

// ColumnDef is a rendered column fragment plus any statements that must
// run before the CREATE TABLE/ALTER TABLE that uses it (Postgres enum
// CREATE TYPE).
type ColumnDef struct {
	SQL           string
	PreStatements []string
}

// TriggerSpec is the dialect-neutral description of one trigger instance
// the differ wants emitted.
type TriggerSpec struct {
	InstanceName string
	Table        string
	Event        schema.TriggerEvent
	Timing       schema.TriggerTiming
	Body         string
	When         string // already stripped of leading WHEN, no trailing ;
}

// Dialect is the adapter surface consumed by C4/C5/C7.
type Dialect interface {
	Kind() Kind
	QuoteIdent(ident string) string
	// ColumnDef renders one column definition. inlinePK is true only for
	// the single-column, non-composite primary key case; composite PKs
	// are emitted as a separate table-level clause by the caller.
	ColumnDef(f schema.Field, table string, inlinePK bool) (ColumnDef, error)
	RenderDefault(d *schema.DefaultValue) string
	// SupportsAlterColumnType reports whether ALTER COLUMN ... TYPE (or
	// equivalent) is directly expressible; false forces a SQLite rebuild.
	SupportsAlterColumnType() bool
	SupportsAddConstraint() bool
	SupportsDropColumn() bool
	// ForeignKeyConstraintDDL renders the forward ALTER TABLE ADD CONSTRAINT
	// statement for a hasOne/hasMany relation.
	ForeignKeyConstraintDDL(owner, constraintName, column, refTable, refColumn string) string
	DropConstraintDDL(owner, constraintName string) string
	// TriggerDDL renders the forward CREATE statement(s) for one instance.
	TriggerDDL(spec TriggerSpec) []string
	// TriggerDropDDL renders the statement(s) that remove one instance.
	TriggerDropDDL(table, instanceName string) []string
}

// New constructs the Dialect for kind.
func New(kind Kind) (Dialect, error) {
	switch kind {
	case Postgres:
		return postgresDialect{}, nil
	case MySQL:
		return mysqlDialect{}, nil
	case SQLite:
		return sqliteDialect{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", sqlbunserr.ErrDialectUnsupported, kind)
	}
}

func quoteDouble(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func quoteBacktick(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func escapeSingleQuote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func renderDefaultCommon(d *schema.DefaultValue) string {
	if d == nil {
		return ""
	}
	if d.IsFunction {
		return d.Literal
	}
	return "'" + escapeSingleQuote(d.Literal) + "'"
}

func enumChoicesSQL(choices []string) string {
	parts := make([]string, len(choices))
	for i, c := range choices {
		parts[i] = "'" + escapeSingleQuote(c) + "'"
	}
	return strings.Join(parts, ", ")
}
