package diff

import (
	"context"
	"fmt"

	"github.com/ridoystarlord/sqlbuns/internal/schema"
	"github.com/ridoystarlord/sqlbuns/internal/sqlbunserr"
)

// emitCreateTable renders one CREATE TABLE for a model with no prior
// snapshot entry, inlining plain FK columns for its hasOne/hasMany
// relations and queuing their constraints per resolveRelationTarget's
// createNow/defer decision (spec C5 "Meta (create)").
func emitCreateTable(ctx context.Context, opts Options, m schema.Model, current map[string]schema.Model, forward, reverse *[]string, warnings *[]string, deferredRelations *[]deferredRelation) error {
	d := opts.Dialect
	table := m.EffectiveTableName()

	fields := m.OrderedFields()
	singlePK := ""
	pkCount := 0
	autoIncrementPK := false
	for _, f := range fields {
		if f.PrimaryKey {
			pkCount++
			singlePK = f.Name
			if f.AutoIncrement {
				autoIncrementPK = true
			}
		}
	}
	if pkCount > 1 && autoIncrementPK {
		return fmt.Errorf("%w: table %q has a composite primary key combined with an auto-increment column", sqlbunserr.ErrInvalidSchema, table)
	}

	var preStatements []string
	var colLines []string
	for _, f := range fields {
		cd, err := d.ColumnDef(f, table, pkCount == 1 && f.Name == singlePK)
		if err != nil {
			return err
		}
		preStatements = append(preStatements, cd.PreStatements...)
		colLines = append(colLines, cd.SQL)
		if !f.Nullable && f.Default == nil && !f.PrimaryKey {
			*warnings = append(*warnings, fmt.Sprintf("column %s.%s is NOT NULL with no default", table, f.Name))
		}
	}
	if pkCount > 1 {
		colLines = append(colLines, "PRIMARY KEY ("+joinQuoted(d, pkColumns(fields))+")")
	}

	relColumns, postCreate, err := relationFKColumns(ctx, opts, table, m, current, forward, reverse, deferredRelations)
	if err != nil {
		return err
	}
	colLines = append(colLines, relColumns...)

	createStmt := fmt.Sprintf("CREATE TABLE %s (\n\t%s\n);", d.QuoteIdent(table), joinLines(colLines))

	for _, pre := range preStatements {
		*forward = append(*forward, pre)
	}
	*forward = append(*forward, createStmt)
	*forward = append(*forward, postCreate...)
	*reverse = append(*reverse, fmt.Sprintf("DROP TABLE IF EXISTS %s;", d.QuoteIdent(table)))

	for _, idx := range m.Meta.Indexes {
		*forward = append(*forward, renderIndexCreate(d, table, idx))
		*reverse = append(*reverse, renderIndexDrop(d, idx.EffectiveName(table)))
	}

	return nil
}

// relationFKColumns handles the hasOne/hasMany relations owned by a
// brand-new table: the plain FK column is always inlined into the
// CREATE TABLE. If the target is already resolvable (createNow), the
// constraint is added right after via ALTER TABLE ADD CONSTRAINT, since
// the target table already exists outside this batch; a dialect without
// ADD CONSTRAINT (SQLite) gets the inline FOREIGN KEY clause instead. If the target is
// only reachable because it, too, is being created in this same batch
// (defer), the topological order guarantees the target's own CREATE
// TABLE already ran, so the constraint is inlined directly as a
// table-level FOREIGN KEY clause of the owner's own CREATE TABLE rather
// than queued behind every table in the batch.
func relationFKColumns(ctx context.Context, opts Options, owner string, m schema.Model, current map[string]schema.Model, forward, reverse *[]string, deferredRelations *[]deferredRelation) (cols []string, postCreate []string, err error) {
	d := opts.Dialect
	for _, rel := range sortedRelations(m) {
		if rel.Kind == schema.ManyToMany {
			*deferredRelations = append(*deferredRelations, deferredRelation{owner: owner, rel: rel})
			continue
		}
		decision, refCol, err := resolveRelationTarget(ctx, opts, rel.Target, current)
		if err != nil {
			return nil, nil, err
		}
		colName := fkColumnName(rel)

		switch decision {
		case "createNow":
			cols = append(cols, d.QuoteIdent(colName)+" INTEGER")
			if !d.SupportsAddConstraint() {
				cols = append(cols, foreignKeyClause(d, colName, rel.Target, refCol))
				idxName := relationIndexName(owner, colName)
				postCreate = append(postCreate, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s);", d.QuoteIdent(idxName), d.QuoteIdent(owner), d.QuoteIdent(colName)))
				continue
			}
			fwd, rev, err := relationCreateNowDDL(opts, owner, rel, current)
			if err != nil {
				return nil, nil, err
			}
			postCreate = append(postCreate, fwd...)
			*reverse = append(*reverse, rev...)
		case "defer":
			cols = append(cols, d.QuoteIdent(colName)+" INTEGER")
			cols = append(cols, foreignKeyClause(d, colName, rel.Target, refCol))
			idxName := relationIndexName(owner, colName)
			postCreate = append(postCreate, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s);", d.QuoteIdent(idxName), d.QuoteIdent(owner), d.QuoteIdent(colName)))
		}
	}
	return cols, postCreate, nil
}

func fkColumnName(rel schema.Relation) string {
	if rel.ForeignKey != "" {
		return rel.ForeignKey
	}
	return rel.Name + "Id"
}

func sortedRelations(m schema.Model) []schema.Relation {
	names := make([]string, 0, len(m.Relations))
	for n := range m.Relations {
		names = append(names, n)
	}
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j-1] > names[j]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
	out := make([]schema.Relation, 0, len(names))
	for _, n := range names {
		out = append(out, m.Relations[n])
	}
	return out
}

func pkColumns(fields []schema.Field) []string {
	var out []string
	for _, f := range fields {
		if f.PrimaryKey {
			out = append(out, f.Name)
		}
	}
	return out
}

func joinQuoted(d interface{ QuoteIdent(string) string }, names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += d.QuoteIdent(n)
	}
	return out
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += ",\n\t"
		}
		out += l
	}
	return out
}

// renderCreateTableOnly builds the CREATE TABLE (+ indexes) reverse
// statements for a dropped table, without touching its relations, which
// are recreated separately via the deferred-relation queue's own reverse
// entries when applicable.
func renderCreateTableOnly(opts Options, m schema.Model, all map[string]schema.Model) ([]string, error) {
	d := opts.Dialect
	table := m.EffectiveTableName()
	fields := m.OrderedFields()

	singlePK := ""
	pkCount := 0
	for _, f := range fields {
		if f.PrimaryKey {
			pkCount++
			singlePK = f.Name
		}
	}

	var preStatements []string
	var colLines []string
	for _, f := range fields {
		cd, err := d.ColumnDef(f, table, pkCount == 1 && f.Name == singlePK)
		if err != nil {
			return nil, err
		}
		preStatements = append(preStatements, cd.PreStatements...)
		colLines = append(colLines, cd.SQL)
	}
	if pkCount > 1 {
		colLines = append(colLines, "PRIMARY KEY ("+joinQuoted(d, pkColumns(fields))+")")
	}
	for _, rel := range sortedRelations(m) {
		if rel.Kind == schema.ManyToMany {
			continue
		}
		colLines = append(colLines, d.QuoteIdent(fkColumnName(rel))+" INTEGER")
	}

	out := append([]string(nil), preStatements...)
	out = append(out, fmt.Sprintf("CREATE TABLE %s (\n\t%s\n);", d.QuoteIdent(table), joinLines(colLines)))
	for _, idx := range m.Meta.Indexes {
		out = append(out, renderIndexCreate(d, table, idx))
	}
	return out, nil
}
