package migrate

import (
	"context"

	"github.com/ridoystarlord/sqlbuns/internal/sqlbunserr"
	"github.com/ridoystarlord/sqlbuns/internal/store"
)

// DownResult reports what `down` rolled back, if anything.
type DownResult struct {
	Reverted string
	NoOp     bool
}

// Down implements spec C7's down: revert the latest applied migration
// via its reverse artifact, marking the history row rolled_back inside
// the same transaction as the reverse DDL.
func Down(ctx context.Context, opts Options) (*DownResult, error) {
	dir := store.MigrationsDir(opts.Root)
	kind := opts.Dialect.Kind()

	if err := store.EnsureHistoryTable(ctx, opts.Exec, kind); err != nil {
		return nil, err
	}

	name, ok, err := store.LastAppliedName(ctx, opts.Exec, kind)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &DownResult{NoOp: true}, nil
	}

	reverseFile := store.ReverseArtifactName(name + ".sql")
	stmts, err := store.ReadArtifact(dir, reverseFile)
	if err != nil {
		return nil, err
	}

	tx, err := opts.Exec.Begin(ctx)
	if err != nil {
		return nil, &sqlbunserr.ApplyFailedError{Artifact: reverseFile, Cause: err}
	}
	if err := applyStatements(ctx, tx, stmts); err != nil {
		tx.Rollback(ctx)
		return nil, &sqlbunserr.ApplyFailedError{Artifact: reverseFile, Cause: err}
	}
	if err := store.MarkRolledBack(ctx, tx, kind, name); err != nil {
		tx.Rollback(ctx)
		return nil, &sqlbunserr.ApplyFailedError{Artifact: reverseFile, Cause: err}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, &sqlbunserr.ApplyFailedError{Artifact: reverseFile, Cause: err}
	}

	return &DownResult{Reverted: name}, nil
}
