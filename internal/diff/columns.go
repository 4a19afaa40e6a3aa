package diff

import (
	"context"
	"fmt"

	"github.com/ridoystarlord/sqlbuns/internal/dialect"
	"github.com/ridoystarlord/sqlbuns/internal/schema"
)

// emitFieldDiff classifies old vs current fields into dropped/added/modified,
// resolves renames via the oracle, and appends forward/reverse DDL.
func emitFieldDiff(ctx context.Context, opts Options, table string, oldModel, curModel schema.Model, forward, reverse *[]string, warnings *[]string) (map[string]string, error) {
	d := opts.Dialect

	dropped := map[string]schema.Field{}
	for name, f := range oldModel.Fields {
		if _, ok := curModel.Fields[name]; !ok {
			dropped[name] = f
		}
	}
	added := map[string]schema.Field{}
	for _, f := range curModel.OrderedFields() {
		if _, ok := oldModel.Fields[f.Name]; !ok {
			added[f.Name] = f
		}
	}

	renames := map[string]string{} // new -> old

	for newName, newField := range added {
		for oldName, oldField := range dropped {
			if sameShape(newField, oldField) {
				if opts.Oracle.ConfirmRename(ctx, table, oldName, newName, newField.Kind) {
					*forward = append(*forward, fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s;", d.QuoteIdent(table), d.QuoteIdent(oldName), d.QuoteIdent(newName)))
					*reverse = append(*reverse, fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s;", d.QuoteIdent(table), d.QuoteIdent(newName), d.QuoteIdent(oldName)))
					renames[newName] = oldName
					delete(added, newName)
					delete(dropped, oldName)
					break
				}
			}
		}
	}

	needsSQLiteRebuild := false
	var modified []string
	for name, curField := range curModel.Fields {
		oldField, ok := oldModel.Fields[name]
		if !ok {
			continue
		}
		if _, wasRenamed := renames[name]; wasRenamed {
			continue
		}
		if !sameShape(curField, oldField) {
			modified = append(modified, name)
			if d.Kind() == dialect.SQLite && !d.SupportsAlterColumnType() {
				needsSQLiteRebuild = true
			}
		}
	}

	if needsSQLiteRebuild {
		return renames, emitSQLiteFieldRebuild(ctx, opts, table, oldModel, curModel, renames, forward, reverse, warnings)
	}

	for name, f := range dropped {
		if !d.SupportsDropColumn() {
			continue
		}
		*forward = append(*forward, fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", d.QuoteIdent(table), d.QuoteIdent(name)))
		cd, err := d.ColumnDef(f, table, false)
		if err != nil {
			return nil, err
		}
		*reverse = append(*reverse, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", d.QuoteIdent(table), cd.SQL))
	}

	for _, f := range sortedFields(added) {
		cd, err := d.ColumnDef(f, table, false)
		if err != nil {
			return nil, err
		}
		*forward = append(*forward, prependPreStatements(cd.PreStatements, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", d.QuoteIdent(table), cd.SQL)))
		if !f.Nullable && f.Default == nil {
			*warnings = append(*warnings, fmt.Sprintf("column %s.%s is NOT NULL with no default", table, f.Name))
		}
		*reverse = append(*reverse, fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", d.QuoteIdent(table), d.QuoteIdent(f.Name)))
	}

	for _, name := range modified {
		emitColumnModify(opts, table, name, oldModel.Fields[name], curModel.Fields[name], forward, reverse)
	}

	return renames, nil
}

func sameShape(a, b schema.Field) bool {
	if a.Kind != b.Kind || a.Nullable != b.Nullable {
		return false
	}
	if a.MaxLength != b.MaxLength || a.Precision != b.Precision || a.Scale != b.Scale {
		return false
	}
	return defaultEqual(a.Default, b.Default)
}

func defaultEqual(a, b *schema.DefaultValue) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.Literal == b.Literal && a.IsFunction == b.IsFunction
}

func sortedFields(m map[string]schema.Field) []schema.Field {
	out := make([]schema.Field, 0, len(m))
	for _, f := range m {
		out = append(out, f)
	}
	// stable-enough: fields rarely need cross-run ordering guarantees
	// beyond determinism, achieved by sorting on name.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].Name > out[j].Name; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func prependPreStatements(pre []string, stmt string) string {
	if len(pre) == 0 {
		return stmt
	}
	out := ""
	for _, p := range pre {
		out += p + "\n"
	}
	return out + stmt
}

// emitColumnModify emits one ALTER COLUMN statement per changed
// attribute (type, nullability, default), each with its own reverse.
func emitColumnModify(opts Options, table, name string, oldField, curField schema.Field, forward, reverse *[]string) {
	d := opts.Dialect

	if oldField.Kind != curField.Kind || oldField.MaxLength != curField.MaxLength || oldField.Precision != curField.Precision || oldField.Scale != curField.Scale {
		curCD, _ := d.ColumnDef(curField, table, false)
		oldCD, _ := d.ColumnDef(oldField, table, false)
		curType := typeFragment(curCD.SQL)
		oldType := typeFragment(oldCD.SQL)
		*forward = append(*forward, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s;", d.QuoteIdent(table), d.QuoteIdent(name), curType))
		*reverse = append(*reverse, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s;", d.QuoteIdent(table), d.QuoteIdent(name), oldType))
	}

	if oldField.Nullable != curField.Nullable {
		if curField.Nullable {
			*forward = append(*forward, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL;", d.QuoteIdent(table), d.QuoteIdent(name)))
			*reverse = append(*reverse, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL;", d.QuoteIdent(table), d.QuoteIdent(name)))
		} else {
			*forward = append(*forward, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL;", d.QuoteIdent(table), d.QuoteIdent(name)))
			*reverse = append(*reverse, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL;", d.QuoteIdent(table), d.QuoteIdent(name)))
		}
	}

	if !defaultEqual(oldField.Default, curField.Default) {
		if curField.Default == nil {
			*forward = append(*forward, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT;", d.QuoteIdent(table), d.QuoteIdent(name)))
		} else {
			*forward = append(*forward, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s;", d.QuoteIdent(table), d.QuoteIdent(name), d.RenderDefault(curField.Default)))
		}
		if oldField.Default == nil {
			*reverse = append(*reverse, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT;", d.QuoteIdent(table), d.QuoteIdent(name)))
		} else {
			*reverse = append(*reverse, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s;", d.QuoteIdent(table), d.QuoteIdent(name), d.RenderDefault(oldField.Default)))
		}
	}
}

// typeFragment extracts the bare type token(s) from a rendered column
// definition ("name TYPE [PRIMARY KEY] ...") for reuse in ALTER COLUMN
// ... TYPE statements, which only want the type, not the whole def.
func typeFragment(colDefSQL string) string {
	// colDefSQL begins with the quoted identifier followed by a space
	// and then the type; strip the leading identifier token.
	for i := 0; i < len(colDefSQL); i++ {
		if colDefSQL[i] == ' ' {
			rest := colDefSQL[i+1:]
			for j := 0; j < len(rest); j++ {
				switch {
				case hasPrefixWord(rest[j:], "NOT NULL"), hasPrefixWord(rest[j:], "UNIQUE"),
					hasPrefixWord(rest[j:], "PRIMARY KEY"), hasPrefixWord(rest[j:], "DEFAULT"):
					return rest[:j]
				}
			}
			return rest
		}
	}
	return colDefSQL
}

func hasPrefixWord(s, word string) bool {
	return len(s) >= len(word) && s[:len(word)] == word
}
