package diff

import (
	"context"

	"github.com/ridoystarlord/sqlbuns/internal/dialect"
	"github.com/ridoystarlord/sqlbuns/internal/schema"
)

// renderTriggerCreate validates a trigger's statements and renders one
// CREATE/DROP pair per statement instance. If validation says the
// trigger's target isn't ready yet, the caller must defer it instead of
// calling this (see emitTriggersForNewTable/emitTriggerDiff).
func renderTriggerCreate(opts Options, table string, trig schema.Trigger) (forward, reverse []string, err error) {
	d := opts.Dialect
	for i, stmt := range trig.Statements {
		name := schema.InstanceName(table, trig.Event, trig.Timing, i)
		spec := dialect.TriggerSpec{
			InstanceName: name,
			Table:        table,
			Event:        trig.Event,
			Timing:       trig.Timing,
			Body:         stmt.Body,
			When:         stmt.When,
		}
		forward = append(forward, d.TriggerDDL(spec)...)
		reverse = append(reverse, d.TriggerDropDDL(table, name)...)
	}
	return forward, reverse, nil
}

// emitTriggersForNewTable validates and emits (or defers) every trigger
// slot of a freshly created table.
func emitTriggersForNewTable(ctx context.Context, opts Options, m schema.Model, current map[string]schema.Model, forward, reverse *[]string, warnings *[]string, deferredTriggers *[]deferredTrigger) error {
	table := m.EffectiveTableName()
	for _, trig := range m.OrderedTriggers() {
		deferred, warns, err := validateTriggerStatements(ctx, opts, current, trig.Statements)
		*warnings = append(*warnings, warns...)
		if err != nil {
			return err
		}
		if deferred {
			*deferredTriggers = append(*deferredTriggers, deferredTrigger{table: table, trig: trig})
			continue
		}
		fwd, rev, err := renderTriggerCreate(opts, table, trig)
		if err != nil {
			return err
		}
		*forward = append(*forward, fwd...)
		*reverse = append(*reverse, rev...)
	}
	return nil
}

// emitTriggerDiff compares old and current triggers of an existing
// table by BaseName (spec C5): a trigger present in both with an
// identical statement list is left alone; otherwise the old instances
// are dropped and, if the slot survives, the new statements are
// (re-)validated and emitted or deferred.
func emitTriggerDiff(ctx context.Context, opts Options, table string, oldModel, curModel schema.Model, current map[string]schema.Model, forward, reverse *[]string, warnings *[]string, deferredTriggers *[]deferredTrigger) error {
	for slot, oldTrig := range oldModel.Triggers {
		curTrig, ok := curModel.Triggers[slot]
		if ok && sameTrigger(oldTrig, curTrig) {
			continue
		}
		for i := range oldTrig.Statements {
			name := schema.InstanceName(table, oldTrig.Event, oldTrig.Timing, i)
			*forward = append(*forward, opts.Dialect.TriggerDropDDL(table, name)...)
		}
		oldFwd, _, err := renderTriggerCreate(opts, table, oldTrig)
		if err != nil {
			return err
		}
		*reverse = append(*reverse, oldFwd...)
	}

	for _, trig := range curModel.OrderedTriggers() {
		if oldTrig, ok := oldModel.Triggers[trig.Slot]; ok && sameTrigger(oldTrig, trig) {
			continue
		}
		deferred, warns, err := validateTriggerStatements(ctx, opts, current, trig.Statements)
		*warnings = append(*warnings, warns...)
		if err != nil {
			return err
		}
		if deferred {
			*deferredTriggers = append(*deferredTriggers, deferredTrigger{table: table, trig: trig})
			continue
		}
		fwd, rev, err := renderTriggerCreate(opts, table, trig)
		if err != nil {
			return err
		}
		*forward = append(*forward, fwd...)
		*reverse = append(*reverse, rev...)
	}

	return nil
}

func sameTrigger(a, b schema.Trigger) bool {
	if a.BaseName != b.BaseName || len(a.Statements) != len(b.Statements) {
		return false
	}
	for i := range a.Statements {
		if a.Statements[i].Body != b.Statements[i].Body || a.Statements[i].When != b.Statements[i].When {
			return false
		}
	}
	return true
}
