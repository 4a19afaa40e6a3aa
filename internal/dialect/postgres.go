package dialect

import (
	"crypto/sha1"
	"fmt"
	"sort"
	"strings"

	"github.com/ridoystarlord/sqlbuns/internal/schema"
)

type postgresDialect struct{}

func (postgresDialect) Kind() Kind { return Postgres }

func (postgresDialect) QuoteIdent(ident string) string { return quoteDouble(ident) }

func (postgresDialect) RenderDefault(d *schema.DefaultValue) string { return renderDefaultCommon(d) }

func (postgresDialect) SupportsAlterColumnType() bool { return true }
func (postgresDialect) SupportsAddConstraint() bool   { return true }
func (postgresDialect) SupportsDropColumn() bool      { return true }

func postgresBaseType(f schema.Field) string {
	switch f.Kind {
	case schema.KindInteger:
		return "INTEGER"
	case schema.KindDecimal:
		return fmt.Sprintf("NUMERIC(%d,%d)", f.Precision, f.Scale)
	case schema.KindFloat:
		return "DOUBLE PRECISION"
	case schema.KindVarchar:
		return fmt.Sprintf("VARCHAR(%d)", f.MaxLength)
	case schema.KindText:
		return "TEXT"
	case schema.KindDate:
		return "DATE"
	case schema.KindDateTime:
		return "TIMESTAMP"
	case schema.KindBlob:
		return "BYTEA"
	case schema.KindBoolean:
		return "BOOLEAN"
	case schema.KindUUID:
		return "UUID"
	case schema.KindJSON:
		return "JSONB"
	case schema.KindXML:
		return "XML"
	default:
		return "TEXT"
	}
}

// EnumTypeName generates enum_<table>_<column>_<8-hex> where hex is the
// first 8 characters of SHA-1 over "<table>_<column>:<choices sorted,
// pipe-joined>", per spec C3.
func EnumTypeName(table, column string, choices []string) string {
	sorted := append([]string(nil), choices...)
	sort.Strings(sorted)
	payload := fmt.Sprintf("%s_%s:%s", table, column, strings.Join(sorted, "|"))
	sum := sha1.Sum([]byte(payload))
	return fmt.Sprintf("enum_%s_%s_%x", table, column, sum[:4])
}

func (p postgresDialect) ColumnDef(f schema.Field, table string, inlinePK bool) (ColumnDef, error) {
	var pre []string
	var typeSQL string

	switch {
	case f.Kind == schema.KindEnum:
		typeName := f.EnumTypeName
		if typeName == "" {
			typeName = EnumTypeName(table, f.Name, f.Choices)
		}
		pre = append(pre, fmt.Sprintf("CREATE TYPE %s AS ENUM (%s);", typeName, enumChoicesSQL(f.Choices)))
		typeSQL = typeName
	case f.AutoIncrement && inlinePK:
		typeSQL = "SERIAL"
	default:
		typeSQL = postgresBaseType(f)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", p.QuoteIdent(f.Name), typeSQL)
	if inlinePK {
		b.WriteString(" PRIMARY KEY")
	}
	if f.Unique && !inlinePK {
		b.WriteString(" UNIQUE")
	}
	if !f.Nullable {
		b.WriteString(" NOT NULL")
	}
	if f.Default != nil {
		fmt.Fprintf(&b, " DEFAULT %s", p.RenderDefault(f.Default))
	}

	return ColumnDef{SQL: b.String(), PreStatements: pre}, nil
}

func (p postgresDialect) ForeignKeyConstraintDDL(owner, constraintName, column, refTable, refColumn string) string {
	return fmt.Sprintf(
		"ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s);",
		p.QuoteIdent(owner), p.QuoteIdent(constraintName), p.QuoteIdent(column), p.QuoteIdent(refTable), p.QuoteIdent(refColumn),
	)
}

func (p postgresDialect) DropConstraintDDL(owner, constraintName string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s;", p.QuoteIdent(owner), p.QuoteIdent(constraintName))
}

func triggerFuncName(instance string) string { return instance + "_func" }

func (p postgresDialect) TriggerDDL(spec TriggerSpec) []string {
	ret := "NEW"
	if spec.Event == schema.EventDelete {
		ret = "OLD"
	}
	funcName := triggerFuncName(spec.InstanceName)
	funcStmt := fmt.Sprintf(
		"CREATE OR REPLACE FUNCTION %s() RETURNS trigger AS $$ BEGIN %s; RETURN %s; END; $$ LANGUAGE plpgsql;",
		funcName, spec.Body, ret,
	)
	trigStmt := fmt.Sprintf(
		"CREATE TRIGGER %s %s %s ON %s FOR EACH ROW%s EXECUTE FUNCTION %s();",
		p.QuoteIdent(spec.InstanceName), spec.Timing, spec.Event, p.QuoteIdent(spec.Table), whenClause(spec.When), funcName,
	)
	return []string{funcStmt, trigStmt}
}

func (p postgresDialect) TriggerDropDDL(table, instanceName string) []string {
	return []string{
		fmt.Sprintf("DROP TRIGGER IF EXISTS %s ON %s;", p.QuoteIdent(instanceName), p.QuoteIdent(table)),
		fmt.Sprintf("DROP FUNCTION IF EXISTS %s();", triggerFuncName(instanceName)),
	}
}

func whenClause(when string) string {
	if when == "" {
		return " "
	}
	return fmt.Sprintf(" WHEN (%s) ", when)
}
