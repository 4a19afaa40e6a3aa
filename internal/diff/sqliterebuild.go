package diff

import (
	"context"

	"github.com/ridoystarlord/sqlbuns/internal/dialect"
	"github.com/ridoystarlord/sqlbuns/internal/schema"
)

// emitSQLiteFieldRebuild wires the live introspection results into
// dialect.PlanSQLiteRebuild when a column modification can't be
// expressed as a direct ALTER COLUMN on SQLite (spec C3).
func emitSQLiteFieldRebuild(ctx context.Context, opts Options, table string, oldModel, curModel schema.Model, renames map[string]string, forward, reverse *[]string, warnings *[]string) error {
	referencing, err := opts.Prober.ReferencingTables(ctx, table)
	if err != nil {
		return err
	}
	triggerBodies, err := opts.Prober.TriggerBodies(ctx)
	if err != nil {
		return err
	}

	plan, err := dialect.PlanSQLiteRebuild(opts.Dialect, table, oldModel, curModel, dialect.RebuildInputs{
		ReferencingTables: referencing,
		TriggerBodies:     triggerBodies,
		CapturedIndexes:   curModel.Meta.Indexes,
		CapturedTriggers:  curModel.OrderedTriggers(),
		Renames:           renames,
	})
	if err != nil {
		return err
	}

	*forward = append(*forward, plan.Forward...)
	*reverse = append(*reverse, plan.Reverse...)
	*warnings = append(*warnings, plan.Warnings...)
	return nil
}

// emitSQLiteRelationRebuild wires a SQLite existing-table hasOne/hasMany
// relation add, drop, or retarget into dialect.PlanSQLiteRebuild, since
// ADD CONSTRAINT/DROP CONSTRAINT can't express it directly on SQLite.
// The rebuilt CREATE TABLE inlines the relation's FOREIGN KEY clause
// directly, so the constraint is actually enforced rather than left as
// a bare, unconstrained column.
func emitSQLiteRelationRebuild(ctx context.Context, opts Options, table string, oldModel, curModel schema.Model, forward, reverse *[]string, warnings *[]string) error {
	referencing, err := opts.Prober.ReferencingTables(ctx, table)
	if err != nil {
		return err
	}
	triggerBodies, err := opts.Prober.TriggerBodies(ctx)
	if err != nil {
		return err
	}

	plan, err := dialect.PlanSQLiteRebuild(opts.Dialect, table, oldModel, curModel, dialect.RebuildInputs{
		ReferencingTables: referencing,
		TriggerBodies:     triggerBodies,
		CapturedIndexes:   curModel.Meta.Indexes,
		CapturedTriggers:  curModel.OrderedTriggers(),
	})
	if err != nil {
		return err
	}

	*forward = append(*forward, plan.Forward...)
	*reverse = append(*reverse, plan.Reverse...)
	*warnings = append(*warnings, plan.Warnings...)
	return nil
}
