// Package diff computes forward/reverse DDL between two schema snapshots
// across tables, columns, relations, triggers and indexes (spec C5).
package diff

import (
	"context"

	"github.com/ridoystarlord/sqlbuns/internal/schema"
)

// Result is the differ's contract output: diff(old, current) -> {forward,
// reverse, warnings}. Forward SQL is ordered; reverse SQL is the exact
// inverse such that apply(forward); apply(reverse) returns the database
// to the schema represented by old.
type Result struct {
	Forward  []string
	Reverse  []string
	Warnings []string
}

// RenameOracle asks a human (or a non-interactive stub) whether an
// added/dropped column pair is really a rename (spec §6).
type RenameOracle interface {
	ConfirmRename(ctx context.Context, table, oldName, newName string, kind schema.FieldKind) bool
}

// NonInteractiveOracle always declines, matching spec §6's "in
// non-interactive mode it returns false".
type NonInteractiveOracle struct{}

func (NonInteractiveOracle) ConfirmRename(_ context.Context, _, _, _ string, _ schema.FieldKind) bool {
	return false
}
