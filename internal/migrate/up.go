package migrate

import (
	"context"
	"fmt"

	"github.com/ridoystarlord/sqlbuns/internal/sqlbunserr"
	"github.com/ridoystarlord/sqlbuns/internal/store"
)

// UpResult lists what `up` applied, in application order.
type UpResult struct {
	Applied []string
}

// Up implements spec C7's up: apply every pending artifact, each inside
// its own transaction, appending a history row alongside its DDL. On
// any failure the current file's transaction rolls back and Up returns
// immediately, leaving earlier files committed (spec §5 "no inter-file
// rollback").
func Up(ctx context.Context, opts Options) (*UpResult, error) {
	dir := store.MigrationsDir(opts.Root)
	kind := opts.Dialect.Kind()

	if err := store.EnsureHistoryTable(ctx, opts.Exec, kind); err != nil {
		return nil, err
	}

	onDisk, err := store.ListForwardArtifacts(dir)
	if err != nil {
		return nil, err
	}
	applied, err := store.AppliedNames(ctx, opts.Exec, kind)
	if err != nil {
		return nil, err
	}

	result := &UpResult{}
	previousChecksum := ""
	for _, f := range onDisk {
		name := store.NameFromArtifact(f)
		if applied[name] {
			continue
		}

		stmts, err := store.ReadArtifact(dir, f)
		if err != nil {
			return result, err
		}
		checksum, err := store.ReadChecksum(dir, f)
		if err != nil {
			return result, err
		}

		tx, err := opts.Exec.Begin(ctx)
		if err != nil {
			return result, fmt.Errorf("%w: %v", sqlbunserr.ErrApplyFailed, err)
		}

		if err := applyStatements(ctx, tx, stmts); err != nil {
			tx.Rollback(ctx)
			return result, &sqlbunserr.ApplyFailedError{Artifact: f, Cause: err}
		}
		if err := store.InsertApplied(ctx, tx, kind, name, checksum, previousChecksum); err != nil {
			tx.Rollback(ctx)
			return result, &sqlbunserr.ApplyFailedError{Artifact: f, Cause: err}
		}
		if err := tx.Commit(ctx); err != nil {
			return result, &sqlbunserr.ApplyFailedError{Artifact: f, Cause: err}
		}

		previousChecksum = checksum
		result.Applied = append(result.Applied, name)
	}

	return result, nil
}
