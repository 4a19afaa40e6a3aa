package diff

import (
	"context"
	"fmt"

	"github.com/ridoystarlord/sqlbuns/internal/dialect"
	"github.com/ridoystarlord/sqlbuns/internal/schema"
)

// relationCreateNowDDL renders the forward/reverse DDL for a relation
// whose target is already resolvable: a plain ADD CONSTRAINT for
// hasOne/hasMany, or a full through-table CREATE for manyToMany.
func relationCreateNowDDL(opts Options, owner string, rel schema.Relation, current map[string]schema.Model) (forward, reverse []string, err error) {
	d := opts.Dialect

	if rel.Kind == schema.ManyToMany {
		through := rel.ThroughTable
		ownerCol := owner + "Id"
		targetCol := rel.Target + "Id"
		if rel.ForeignKey != "" {
			ownerCol = rel.ForeignKey
		}
		if rel.OtherKey != "" {
			targetCol = rel.OtherKey
		}
		createStmt := fmt.Sprintf("CREATE TABLE %s (\n\t%s INTEGER NOT NULL,\n\t%s INTEGER NOT NULL,\n\tPRIMARY KEY (%s, %s),\n\t%s,\n\t%s\n);",
			d.QuoteIdent(through),
			d.QuoteIdent(ownerCol), d.QuoteIdent(targetCol),
			d.QuoteIdent(ownerCol), d.QuoteIdent(targetCol),
			foreignKeyClause(d, ownerCol, owner, "id"),
			foreignKeyClause(d, targetCol, rel.Target, "id"),
		)
		forward = append(forward, createStmt)
		reverse = append(reverse, fmt.Sprintf("DROP TABLE IF EXISTS %s;", d.QuoteIdent(through)))
		return forward, reverse, nil
	}

	_, refCol, err := resolveRelationTarget(context.Background(), opts, rel.Target, current)
	if err != nil {
		return nil, nil, err
	}
	colName := fkColumnName(rel)
	constraintName := fmt.Sprintf("fk_%s_%s", owner, rel.Name)
	idxName := relationIndexName(owner, colName)
	forward = append(forward, d.ForeignKeyConstraintDDL(owner, constraintName, colName, rel.Target, refCol))
	forward = append(forward, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s);", d.QuoteIdent(idxName), d.QuoteIdent(owner), d.QuoteIdent(colName)))
	reverse = append(reverse, fmt.Sprintf("DROP INDEX IF EXISTS %s;", d.QuoteIdent(idxName)))
	reverse = append(reverse, d.DropConstraintDDL(owner, constraintName))
	return forward, reverse, nil
}

func relationIndexName(owner, fkColumn string) string {
	return fmt.Sprintf("idx_%s_%s", owner, fkColumn)
}

func foreignKeyClause(d interface{ QuoteIdent(string) string }, col, refTable, refCol string) string {
	return fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)", d.QuoteIdent(col), d.QuoteIdent(refTable), d.QuoteIdent(refCol))
}

// emitRelationDiff compares old and current relations of an existing
// table by name: added relations get their FK column plus a createNow
// or deferred constraint; dropped relations are torn down; changed
// targets are dropped and recreated. Under SQLite, a hasOne/hasMany
// change can't be expressed as ADD CONSTRAINT/DROP CONSTRAINT, so those
// changes route through a single table rebuild instead; manyToMany
// changes never need a rebuild since they only touch a fresh through
// table with inline FOREIGN KEY clauses.
func emitRelationDiff(ctx context.Context, opts Options, table string, oldModel, curModel schema.Model, current map[string]schema.Model, forward, reverse *[]string, warnings *[]string, deferredRelations *[]deferredRelation) error {
	d := opts.Dialect

	sqliteRebuild := d.Kind() == dialect.SQLite && !d.SupportsAddConstraint() && hasNonManyToManyRelationChange(oldModel, curModel)
	if sqliteRebuild {
		if err := emitSQLiteRelationRebuild(ctx, opts, table, oldModel, curModel, forward, reverse, warnings); err != nil {
			return err
		}
	}

	for name, oldRel := range oldModel.Relations {
		curRel, ok := curModel.Relations[name]
		if ok && sameRelation(oldRel, curRel) {
			continue
		}
		if sqliteRebuild && oldRel.Kind != schema.ManyToMany {
			continue
		}
		if err := dropRelation(opts, table, oldRel, forward, reverse); err != nil {
			return err
		}
		_ = curRel
	}

	for _, name := range sortedRelationKeys(curModel.Relations) {
		curRel := curModel.Relations[name]
		if oldRel, ok := oldModel.Relations[name]; ok && sameRelation(oldRel, curRel) {
			continue
		}

		if curRel.Kind == schema.ManyToMany {
			fwd, rev, err := relationCreateNowDDL(opts, table, curRel, current)
			if err != nil {
				return err
			}
			*forward = append(*forward, fwd...)
			*reverse = append(*reverse, rev...)
			continue
		}

		if sqliteRebuild {
			continue
		}

		decision, _, err := resolveRelationTarget(ctx, opts, curRel.Target, current)
		if err != nil {
			return err
		}
		colName := fkColumnName(curRel)
		*forward = append(*forward, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s INTEGER;", d.QuoteIdent(table), d.QuoteIdent(colName)))
		*reverse = append(*reverse, fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", d.QuoteIdent(table), d.QuoteIdent(colName)))

		switch decision {
		case "createNow":
			fwd, rev, err := relationCreateNowDDL(opts, table, curRel, current)
			if err != nil {
				return err
			}
			*forward = append(*forward, fwd...)
			*reverse = append(*reverse, rev...)
		case "defer":
			*deferredRelations = append(*deferredRelations, deferredRelation{owner: table, rel: curRel})
		}
	}

	return nil
}

// hasNonManyToManyRelationChange reports whether any hasOne/hasMany
// relation was added, removed, or changed between oldModel and
// curModel; manyToMany relations are excluded since they never require
// altering the owner table itself.
func hasNonManyToManyRelationChange(oldModel, curModel schema.Model) bool {
	for name, oldRel := range oldModel.Relations {
		if oldRel.Kind == schema.ManyToMany {
			continue
		}
		if curRel, ok := curModel.Relations[name]; !ok || !sameRelation(oldRel, curRel) {
			return true
		}
	}
	for name, curRel := range curModel.Relations {
		if curRel.Kind == schema.ManyToMany {
			continue
		}
		if oldRel, ok := oldModel.Relations[name]; !ok || !sameRelation(oldRel, curRel) {
			return true
		}
	}
	return false
}

// dropRelation tears down a removed or retargeted relation. Its reverse
// reconstructs the column and constraint directly (rather than going
// through resolveRelationTarget) since the relation being undone
// belonged to the old snapshot, not the current batch.
func dropRelation(opts Options, table string, rel schema.Relation, forward, reverse *[]string) error {
	d := opts.Dialect
	if rel.Kind == schema.ManyToMany {
		*forward = append(*forward, fmt.Sprintf("DROP TABLE IF EXISTS %s;", d.QuoteIdent(rel.ThroughTable)))
		ownerCol := rel.ForeignKey
		if ownerCol == "" {
			ownerCol = table + "Id"
		}
		targetCol := rel.OtherKey
		if targetCol == "" {
			targetCol = rel.Target + "Id"
		}
		createStmt := fmt.Sprintf("CREATE TABLE %s (\n\t%s INTEGER NOT NULL,\n\t%s INTEGER NOT NULL,\n\tPRIMARY KEY (%s, %s),\n\t%s,\n\t%s\n);",
			d.QuoteIdent(rel.ThroughTable),
			d.QuoteIdent(ownerCol), d.QuoteIdent(targetCol),
			d.QuoteIdent(ownerCol), d.QuoteIdent(targetCol),
			foreignKeyClause(d, ownerCol, table, "id"),
			foreignKeyClause(d, targetCol, rel.Target, "id"),
		)
		*reverse = append(*reverse, createStmt)
		return nil
	}
	colName := fkColumnName(rel)
	constraintName := fmt.Sprintf("fk_%s_%s", table, rel.Name)
	idxName := relationIndexName(table, colName)
	if d.SupportsAddConstraint() {
		*forward = append(*forward, fmt.Sprintf("DROP INDEX IF EXISTS %s;", d.QuoteIdent(idxName)))
		*forward = append(*forward, d.DropConstraintDDL(table, constraintName))
	}
	*forward = append(*forward, fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", d.QuoteIdent(table), d.QuoteIdent(colName)))

	*reverse = append(*reverse, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s INTEGER;", d.QuoteIdent(table), d.QuoteIdent(colName)))
	if d.SupportsAddConstraint() {
		*reverse = append(*reverse, d.ForeignKeyConstraintDDL(table, constraintName, colName, rel.Target, "id"))
		*reverse = append(*reverse, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s);", d.QuoteIdent(idxName), d.QuoteIdent(table), d.QuoteIdent(colName)))
	}
	return nil
}

func sameRelation(a, b schema.Relation) bool {
	return a.Kind == b.Kind && a.Target == b.Target && a.ForeignKey == b.ForeignKey && a.OtherKey == b.OtherKey && a.ThroughTable == b.ThroughTable
}

func sortedRelationKeys(m map[string]schema.Relation) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
