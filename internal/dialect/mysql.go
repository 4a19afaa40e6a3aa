package dialect

import (
	"fmt"
	"strings"

	"github.com/ridoystarlord/sqlbuns/internal/schema"
)

type mysqlDialect struct{}

func (mysqlDialect) Kind() Kind { return MySQL }

func (mysqlDialect) QuoteIdent(ident string) string { return quoteBacktick(ident) }

func (mysqlDialect) RenderDefault(d *schema.DefaultValue) string { return renderDefaultCommon(d) }

func (mysqlDialect) SupportsAlterColumnType() bool { return true }
func (mysqlDialect) SupportsAddConstraint() bool   { return true }
func (mysqlDialect) SupportsDropColumn() bool      { return true }

func mysqlBaseType(f schema.Field) string {
	switch f.Kind {
	case schema.KindInteger:
		return "INT"
	case schema.KindDecimal:
		return fmt.Sprintf("DECIMAL(%d,%d)", f.Precision, f.Scale)
	case schema.KindFloat:
		return "DOUBLE"
	case schema.KindVarchar:
		return fmt.Sprintf("VARCHAR(%d)", f.MaxLength)
	case schema.KindText:
		return "TEXT"
	case schema.KindDate:
		return "DATE"
	case schema.KindDateTime:
		return "DATETIME"
	case schema.KindBlob:
		return "BLOB"
	case schema.KindBoolean:
		return "TINYINT(1)"
	case schema.KindUUID:
		return "CHAR(36)"
	case schema.KindJSON:
		return "JSON"
	case schema.KindXML:
		return "TEXT"
	default:
		return "TEXT"
	}
}

func (m mysqlDialect) ColumnDef(f schema.Field, table string, inlinePK bool) (ColumnDef, error) {
	var typeSQL string
	if f.Kind == schema.KindEnum {
		typeSQL = fmt.Sprintf("ENUM(%s)", enumChoicesSQL(f.Choices))
	} else {
		typeSQL = mysqlBaseType(f)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", m.QuoteIdent(f.Name), typeSQL)
	if !f.Nullable {
		b.WriteString(" NOT NULL")
	}
	if f.AutoIncrement {
		b.WriteString(" AUTO_INCREMENT")
	}
	if f.Default != nil {
		fmt.Fprintf(&b, " DEFAULT %s", m.RenderDefault(f.Default))
	}
	if f.Unique && !inlinePK {
		b.WriteString(" UNIQUE")
	}
	if inlinePK {
		b.WriteString(" PRIMARY KEY")
	}

	return ColumnDef{SQL: b.String()}, nil
}

func (m mysqlDialect) ForeignKeyConstraintDDL(owner, constraintName, column, refTable, refColumn string) string {
	return fmt.Sprintf(
		"ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s);",
		m.QuoteIdent(owner), m.QuoteIdent(constraintName), m.QuoteIdent(column), m.QuoteIdent(refTable), m.QuoteIdent(refColumn),
	)
}

func (m mysqlDialect) DropConstraintDDL(owner, constraintName string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY %s;", m.QuoteIdent(owner), m.QuoteIdent(constraintName))
}

func (m mysqlDialect) TriggerDDL(spec TriggerSpec) []string {
	stmt := fmt.Sprintf(
		"CREATE TRIGGER %s %s %s ON %s FOR EACH ROW%sBEGIN %s; END;",
		m.QuoteIdent(spec.InstanceName), spec.Timing, spec.Event, m.QuoteIdent(spec.Table), whenClause(spec.When), spec.Body,
	)
	return []string{stmt}
}

func (m mysqlDialect) TriggerDropDDL(table, instanceName string) []string {
	return []string{fmt.Sprintf("DROP TRIGGER IF EXISTS %s;", m.QuoteIdent(instanceName))}
}
