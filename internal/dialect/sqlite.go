package dialect

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ridoystarlord/sqlbuns/internal/schema"
)

type sqliteDialect struct{}

func (sqliteDialect) Kind() Kind { return SQLite }

var bareIdentRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (sqliteDialect) QuoteIdent(ident string) string {
	if bareIdentRe.MatchString(ident) {
		return ident
	}
	return quoteDouble(ident)
}

func (sqliteDialect) RenderDefault(d *schema.DefaultValue) string { return renderDefaultCommon(d) }

// SQLite cannot ALTER TABLE ... ALTER COLUMN, and ADD CONSTRAINT is not
// expressible; both force the rebuild path in the differ.
func (sqliteDialect) SupportsAlterColumnType() bool { return false }
func (sqliteDialect) SupportsAddConstraint() bool   { return false }
func (sqliteDialect) SupportsDropColumn() bool      { return true }

func sqliteBaseType(f schema.Field) string {
	switch f.Kind {
	case schema.KindInteger:
		return "INTEGER"
	case schema.KindDecimal, schema.KindFloat:
		return "REAL"
	case schema.KindVarchar:
		return "VARCHAR"
	case schema.KindText, schema.KindDate, schema.KindDateTime, schema.KindUUID, schema.KindXML:
		return "TEXT"
	case schema.KindBlob:
		return "BLOB"
	case schema.KindBoolean:
		return "BOOLEAN"
	case schema.KindJSON:
		return "TEXT"
	default:
		return "TEXT"
	}
}

func (s sqliteDialect) ColumnDef(f schema.Field, table string, inlinePK bool) (ColumnDef, error) {
	var typeSQL string
	if f.Kind == schema.KindEnum {
		// TEXT CHECK(<column> IN (...)); the check must use the column's
		// final name, so callers must regenerate this on rename.
		typeSQL = fmt.Sprintf("TEXT CHECK(%s IN (%s))", s.QuoteIdent(f.Name), enumChoicesSQL(f.Choices))
	} else {
		typeSQL = sqliteBaseType(f)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", s.QuoteIdent(f.Name), typeSQL)
	if inlinePK {
		b.WriteString(" PRIMARY KEY")
		if f.AutoIncrement {
			b.WriteString(" AUTOINCREMENT")
		}
	}
	if f.Unique && !inlinePK {
		b.WriteString(" UNIQUE")
	}
	if !f.Nullable {
		b.WriteString(" NOT NULL")
	}
	if f.Default != nil {
		fmt.Fprintf(&b, " DEFAULT %s", s.RenderDefault(f.Default))
	}

	return ColumnDef{SQL: b.String()}, nil
}

func (s sqliteDialect) ForeignKeyConstraintDDL(owner, constraintName, column, refTable, refColumn string) string {
	// Never called directly: SupportsAddConstraint() is false, so the
	// differ inlines the FOREIGN KEY clause into a new table's CREATE
	// TABLE, or routes an existing table through the rebuild path instead.
	return fmt.Sprintf(
		"-- unsupported: ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		s.QuoteIdent(owner), s.QuoteIdent(constraintName), s.QuoteIdent(column), s.QuoteIdent(refTable), s.QuoteIdent(refColumn),
	)
}

func (s sqliteDialect) DropConstraintDDL(owner, constraintName string) string {
	return fmt.Sprintf("-- unsupported: ALTER TABLE %s DROP CONSTRAINT %s", s.QuoteIdent(owner), s.QuoteIdent(constraintName))
}

func (s sqliteDialect) TriggerDDL(spec TriggerSpec) []string {
	stmt := fmt.Sprintf(
		"CREATE TRIGGER %s %s %s ON %s FOR EACH ROW%sBEGIN %s; END;",
		s.QuoteIdent(spec.InstanceName), spec.Timing, spec.Event, s.QuoteIdent(spec.Table), whenClause(spec.When), spec.Body,
	)
	return []string{stmt}
}

func (s sqliteDialect) TriggerDropDDL(table, instanceName string) []string {
	return []string{fmt.Sprintf("DROP TRIGGER IF EXISTS %s;", s.QuoteIdent(instanceName))}
}
