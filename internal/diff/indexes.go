package diff

import (
	"fmt"
	"strings"

	"github.com/ridoystarlord/sqlbuns/internal/dialect"
	"github.com/ridoystarlord/sqlbuns/internal/schema"
)

// emitIndexDiff compares old and current index sets by Key() (sorted
// fields + uniqueness), independent of name, matching C1's pre-checksum
// index-name normalization: a renamed-but-otherwise-identical index is
// not a drop+create.
func emitIndexDiff(opts Options, table string, oldModel, curModel schema.Model, forward, reverse *[]string) {
	d := opts.Dialect

	oldByKey := map[string]schema.Index{}
	for _, idx := range oldModel.Meta.Indexes {
		oldByKey[idx.Key()] = idx
	}
	curByKey := map[string]schema.Index{}
	for _, idx := range curModel.Meta.Indexes {
		curByKey[idx.Key()] = idx
	}

	for key, idx := range oldByKey {
		if _, ok := curByKey[key]; !ok {
			*forward = append(*forward, renderIndexDrop(d, idx.EffectiveName(table)))
			*reverse = append(*reverse, renderIndexCreate(d, table, idx))
		}
	}
	for key, idx := range curByKey {
		if old, ok := oldByKey[key]; ok {
			if old.EffectiveName(table) != idx.EffectiveName(table) && d.Kind() != dialect.SQLite {
				*forward = append(*forward, renderIndexRename(d, table, old.EffectiveName(table), idx.EffectiveName(table)))
				*reverse = append(*reverse, renderIndexRename(d, table, idx.EffectiveName(table), old.EffectiveName(table)))
			}
			continue
		}
		*forward = append(*forward, renderIndexCreate(d, table, idx))
		*reverse = append(*reverse, renderIndexDrop(d, idx.EffectiveName(table)))
	}
}

func renderIndexCreate(d dialect.Dialect, table string, idx schema.Index) string {
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	cols := make([]string, len(idx.Fields))
	for i, f := range idx.Fields {
		cols[i] = d.QuoteIdent(f)
	}
	return fmt.Sprintf("CREATE %sINDEX %s ON %s (%s);", unique, d.QuoteIdent(idx.EffectiveName(table)), d.QuoteIdent(table), strings.Join(cols, ", "))
}

func renderIndexDrop(d dialect.Dialect, name string) string {
	return fmt.Sprintf("DROP INDEX IF EXISTS %s;", d.QuoteIdent(name))
}

func renderIndexRename(d dialect.Dialect, table, oldName, newName string) string {
	switch d.Kind() {
	case dialect.Postgres:
		return fmt.Sprintf("ALTER INDEX %s RENAME TO %s;", d.QuoteIdent(oldName), d.QuoteIdent(newName))
	default: // MySQL
		return fmt.Sprintf("ALTER TABLE %s RENAME INDEX %s TO %s;", d.QuoteIdent(table), d.QuoteIdent(oldName), d.QuoteIdent(newName))
	}
}
