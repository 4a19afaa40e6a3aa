package diff

import (
	"context"
	"fmt"

	"github.com/ridoystarlord/sqlbuns/internal/dialect"
	"github.com/ridoystarlord/sqlbuns/internal/introspect"
	"github.com/ridoystarlord/sqlbuns/internal/schema"
	"github.com/ridoystarlord/sqlbuns/internal/sqlbunserr"
	"github.com/ridoystarlord/sqlbuns/internal/trigcheck"
)

// Options configures one Compute call.
type Options struct {
	Dialect dialect.Dialect
	Prober  introspect.Prober
	Oracle  RenameOracle
}

// deferredRelation queues a relation that can't be resolved at the point
// it's encountered and whose owner has no CREATE TABLE of its own left
// to inline into: manyToMany through-tables (always queued, regardless
// of dialect), and hasOne/hasMany relations added to an already-existing
// table whose target is only reachable because it's created later in
// this same batch. A relation deferred while its owner is itself brand
// new is instead inlined directly into that CREATE TABLE by
// relationFKColumns and never reaches this queue.
type deferredRelation struct {
	owner string
	rel   schema.Relation
}

// deferredTrigger queues a trigger validated as in-batch-but-not-yet-created.
type deferredTrigger struct {
	table string
	trig  schema.Trigger
}

// Compute implements spec C5: diff(old, current) -> {forward, reverse, warnings}.
// old and current are keyed by model key; Compute correlates them by model
// key, so a model whose meta.tableName changes is a rename, not a
// drop+create.
func Compute(ctx context.Context, opts Options, old, current map[string]schema.Model, currentOrder []string) (*Result, error) {
	res := &Result{}

	var deferredRelations []deferredRelation
	var deferredTriggers []deferredTrigger

	for _, key := range currentOrder {
		cur := current[key]
		table := cur.EffectiveTableName()
		oldModel, existed := old[key]

		if !existed {
			if err := emitCreateTable(ctx, opts, cur, current, &res.Forward, &res.Reverse, &res.Warnings, &deferredRelations); err != nil {
				return nil, err
			}
			if err := emitTriggersForNewTable(ctx, opts, cur, current, &res.Forward, &res.Reverse, &res.Warnings, &deferredTriggers); err != nil {
				return nil, err
			}
			continue
		}

		// Meta: rename.
		oldTable := oldModel.EffectiveTableName()
		if oldTable != table {
			res.Forward = append(res.Forward, fmt.Sprintf("ALTER TABLE %s RENAME TO %s;", opts.Dialect.QuoteIdent(oldTable), opts.Dialect.QuoteIdent(table)))
			res.Reverse = append(res.Reverse, fmt.Sprintf("ALTER TABLE %s RENAME TO %s;", opts.Dialect.QuoteIdent(table), opts.Dialect.QuoteIdent(oldTable)))
		}

		// Indexes.
		emitIndexDiff(opts, table, oldModel, cur, &res.Forward, &res.Reverse)

		// Fields.
		if _, err := emitFieldDiff(ctx, opts, table, oldModel, cur, &res.Forward, &res.Reverse, &res.Warnings); err != nil {
			return nil, err
		}

		// Relations (non-deferred at this point; deferred ones queue).
		if err := emitRelationDiff(ctx, opts, table, oldModel, cur, current, &res.Forward, &res.Reverse, &res.Warnings, &deferredRelations); err != nil {
			return nil, err
		}

		// Triggers.
		if err := emitTriggerDiff(ctx, opts, table, oldModel, cur, current, &res.Forward, &res.Reverse, &res.Warnings, &deferredTriggers); err != nil {
			return nil, err
		}
	}

	// Dropped tables (old keys absent from current), globally after all
	// current models.
	for key, oldModel := range old {
		if _, ok := current[key]; ok {
			continue
		}
		table := oldModel.EffectiveTableName()
		res.Forward = append(res.Forward, fmt.Sprintf("DROP TABLE IF EXISTS %s;", opts.Dialect.QuoteIdent(table)))
		createStmt, err := renderCreateTableOnly(opts, oldModel, old)
		if err != nil {
			return nil, err
		}
		res.Reverse = append(res.Reverse, createStmt...)
		res.Warnings = append(res.Warnings, fmt.Sprintf("table %q dropped", table))
	}

	// Deferred relations, globally last.
	for _, dr := range deferredRelations {
		fwd, rev, err := relationCreateNowDDL(opts, dr.owner, dr.rel, current)
		if err != nil {
			return nil, err
		}
		res.Forward = append(res.Forward, fwd...)
		res.Reverse = append(res.Reverse, rev...)
	}

	// Deferred triggers, globally last (after their target tables exist).
	for _, dt := range deferredTriggers {
		fwd, rev, err := renderTriggerCreate(opts, dt.table, dt.trig)
		if err != nil {
			return nil, err
		}
		res.Forward = append(res.Forward, fwd...)
		res.Reverse = append(res.Reverse, rev...)
	}

	return res, nil
}

func modelHasKeyField(m schema.Model, key string) bool {
	_, ok := m.Fields[key]
	return ok
}

func primaryKeyColumn(m schema.Model) string {
	for _, f := range m.OrderedFields() {
		if f.PrimaryKey {
			return f.Name
		}
	}
	return "id"
}

// resolveRelationTarget implements the differ's relation decision table.
func resolveRelationTarget(ctx context.Context, opts Options, target string, current map[string]schema.Model) (decision string, refCol string, err error) {
	targetExistsInDB, _ := opts.Prober.TableExists(ctx, target)
	targetModel, inBatch := findByTable(current, target)

	if targetExistsInDB {
		refCol = "id"
		colExists, _ := opts.Prober.ColumnExists(ctx, target, refCol)
		if colExists {
			return "createNow", refCol, nil
		}
		if inBatch && modelHasKeyField(targetModel, refCol) {
			return "defer", refCol, nil
		}
		return "error", "", fmt.Errorf("%w: relation target %q's key column does not exist and is not defined in the current batch", sqlbunserr.ErrInvalidSchema, target)
	}

	if inBatch {
		refCol = primaryKeyColumn(targetModel)
		if modelHasKeyField(targetModel, refCol) {
			return "defer", refCol, nil
		}
		return "error", "", fmt.Errorf("%w: relation target %q does not define its key in this batch", sqlbunserr.ErrInvalidSchema, target)
	}

	return "error", "", fmt.Errorf("%w: relation target %q does not exist in the database or the current batch", sqlbunserr.ErrInvalidSchema, target)
}

func findByTable(models map[string]schema.Model, table string) (schema.Model, bool) {
	for _, m := range models {
		if m.EffectiveTableName() == table {
			return m, true
		}
	}
	return schema.Model{}, false
}

func validateTriggerStatements(ctx context.Context, opts Options, current map[string]schema.Model, statements []schema.Statement) (deferred bool, warnings []string, err error) {
	return trigcheck.Validate(ctx, opts.Prober, current, statements)
}
