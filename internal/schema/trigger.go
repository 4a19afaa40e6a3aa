package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// TriggerEvent and TriggerTiming enumerate the trigger slot axes.
type TriggerEvent string
type TriggerTiming string

const (
	EventInsert TriggerEvent = "INSERT"
	EventUpdate TriggerEvent = "UPDATE"
	EventDelete TriggerEvent = "DELETE"

	TimingBefore TriggerTiming = "BEFORE"
	TimingAfter  TriggerTiming = "AFTER"
)

// TriggerSlot names the six fixed slots a Model may populate.
type TriggerSlot string

const (
	SlotBeforeInsert TriggerSlot = "beforeInsert"
	SlotAfterInsert  TriggerSlot = "afterInsert"
	SlotBeforeUpdate TriggerSlot = "beforeUpdate"
	SlotAfterUpdate  TriggerSlot = "afterUpdate"
	SlotBeforeDelete TriggerSlot = "beforeDelete"
	SlotAfterDelete  TriggerSlot = "afterDelete"
)

var slotShape = map[TriggerSlot]struct {
	Timing TriggerTiming
	Event  TriggerEvent
}{
	SlotBeforeInsert: {TimingBefore, EventInsert},
	SlotAfterInsert:  {TimingAfter, EventInsert},
	SlotBeforeUpdate: {TimingBefore, EventUpdate},
	SlotAfterUpdate:  {TimingAfter, EventUpdate},
	SlotBeforeDelete: {TimingBefore, EventDelete},
	SlotAfterDelete:  {TimingAfter, EventDelete},
}

// Statement is one entry in a trigger's ordered statement list: either a
// raw body, or a body with an optional row predicate.
type Statement struct {
	Body string
	When string // optional row predicate, "" if absent
}

var leadingWhenKeyword = regexp.MustCompile(`(?i)^\s*WHEN\s+`)

// NewStatement builds a Statement, normalizing the When predicate so
// dialect.whenClause can wrap it in its own `WHEN (...)` without
// double-nesting: a leading "WHEN" keyword and trailing semicolons are
// stripped, matching how a user would naturally write `when: "WHEN
// status = 'active';"` in a tag or YAML source.
func NewStatement(body, when string) Statement {
	return Statement{Body: body, When: normalizeWhenPredicate(when)}
}

func normalizeWhenPredicate(when string) string {
	s := strings.TrimSpace(when)
	if s == "" {
		return ""
	}
	s = leadingWhenKeyword.ReplaceAllString(s, "")
	return strings.TrimRight(strings.TrimSpace(s), "; \t\n")
}

// Trigger holds one slot's ordered statement list.
type Trigger struct {
	Slot       TriggerSlot
	Timing     TriggerTiming
	Event      TriggerEvent
	Statements []Statement
	// BaseName carries the trigger's stable identity across diffs
	// (spec C5 trigger diffing compares old/current by BaseName).
	BaseName string
}

// NewTrigger validates and freezes a Trigger for the given slot.
func NewTrigger(slot TriggerSlot, statements []Statement) (Trigger, error) {
	shape, ok := slotShape[slot]
	if !ok {
		return Trigger{}, fmt.Errorf("trigger slot %q: invalid slot", slot)
	}
	if len(statements) == 0 {
		return Trigger{}, fmt.Errorf("trigger slot %q: at least one statement required", slot)
	}
	return Trigger{
		Slot:       slot,
		Timing:     shape.Timing,
		Event:      shape.Event,
		Statements: append([]Statement(nil), statements...),
		BaseName:   string(slot),
	}, nil
}

// InstanceName is the canonical name of the i-th statement (0-based) of a
// trigger on the given table.
func InstanceName(table string, event TriggerEvent, timing TriggerTiming, i int) string {
	return fmt.Sprintf("trg_%s_%s_%s_%d", table, strings.ToLower(string(event)), strings.ToLower(string(timing)), i)
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeStatementForHash implements the snapshot-only normalization of
// spec C2: outer quotes/backticks stripped, whitespace collapsed, trailing
// semicolons collapsed to one, double quotes rewritten to single quotes.
// This must never be applied to emitted DDL.
func NormalizeStatementForHash(body string) string {
	s := strings.TrimSpace(body)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		isQuotePair := (first == '\'' && last == '\'') || (first == '`' && last == '`') || (first == '"' && last == '"')
		if isQuotePair {
			s = s[1 : len(s)-1]
		}
	}
	s = whitespaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
	s = strings.TrimSpace(strings.TrimRight(s, ";"))
	s = s + ";"
	s = strings.ReplaceAll(s, `"`, "'")
	return s
}
