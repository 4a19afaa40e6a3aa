// Package migrate implements C7: the create/up/down lifecycle, drift
// detection against the history table, and per-file transactional apply.
package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/ridoystarlord/sqlbuns/internal/canon"
	"github.com/ridoystarlord/sqlbuns/internal/dbconn"
	"github.com/ridoystarlord/sqlbuns/internal/dialect"
	"github.com/ridoystarlord/sqlbuns/internal/diff"
	"github.com/ridoystarlord/sqlbuns/internal/introspect"
	"github.com/ridoystarlord/sqlbuns/internal/schema"
	"github.com/ridoystarlord/sqlbuns/internal/sqlbunserr"
	"github.com/ridoystarlord/sqlbuns/internal/store"
)

// Options bundles the collaborators every lifecycle call needs.
type Options struct {
	Root    string // project root; migrations live at <Root>/database/migrations
	Dialect dialect.Dialect
	Exec    dbconn.Executor
	Prober  introspect.Prober
	Oracle  diff.RenameOracle
}

// CreateResult reports what `create` did, for the CLI layer to print.
type CreateResult struct {
	NoChanges    bool
	ForwardFile  string
	ReverseFile  string
	Warnings     []string
	OldChecksum  string
	NewChecksum  string
}

func schemaChecksum(models map[string]schema.Model, order []string) (string, error) {
	views := make([]any, 0, len(order))
	for _, key := range order {
		m, ok := models[key]
		if !ok {
			continue
		}
		views = append(views, m.CanonicalView())
	}
	return canon.Checksum(views)
}

// Create implements spec C7's create(name).
func Create(ctx context.Context, opts Options, name string, current map[string]schema.Model, currentOrder []string) (*CreateResult, error) {
	dir := store.MigrationsDir(opts.Root)
	if err := store.EnsureDir(dir); err != nil {
		return nil, err
	}

	oldModels, oldOrder, err := store.Load(store.SnapshotPath(dir))
	if err != nil {
		return nil, err
	}

	normalizedOld := canon.NormalizeIndexNamesForChecksum(oldModels, current)

	oldChecksum, err := schemaChecksum(normalizedOld, oldOrder)
	if err != nil {
		return nil, err
	}
	newChecksum, err := schemaChecksum(current, currentOrder)
	if err != nil {
		return nil, err
	}
	if oldChecksum == newChecksum {
		return &CreateResult{NoChanges: true, OldChecksum: oldChecksum, NewChecksum: newChecksum}, nil
	}

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
	var unapplied []string
	for _, f := range onDisk {
		if !applied[store.NameFromArtifact(f)] {
			unapplied = append(unapplied, f)
		}
	}
	if len(unapplied) > 0 {
		return nil, fmt.Errorf("%w: %d unapplied migration(s) on disk; run `up` first", sqlbunserr.ErrLocalAhead, len(unapplied))
	}

	diffOpts := diff.Options{Dialect: opts.Dialect, Prober: opts.Prober, Oracle: opts.Oracle}
	if err := checkDrift(ctx, opts, diffOpts, oldChecksum, oldModels, current, currentOrder); err != nil {
		return nil, err
	}

	result, err := diff.Compute(ctx, diffOpts, oldModels, current, currentOrder)
	if err != nil {
		return nil, err
	}

	epoch := time.Now().UnixMilli()
	forwardFile, reverseFile := store.ArtifactNames(epoch, name)
	if err := store.WriteArtifact(dir, forwardFile, result.Forward); err != nil {
		return nil, err
	}
	if err := store.WriteArtifact(dir, reverseFile, result.Reverse); err != nil {
		return nil, err
	}
	if err := store.WriteChecksum(dir, forwardFile, newChecksum); err != nil {
		return nil, err
	}
	if err := store.Save(store.SnapshotPath(dir), current, currentOrder); err != nil {
		return nil, err
	}

	return &CreateResult{
		ForwardFile: forwardFile,
		ReverseFile: reverseFile,
		Warnings:    result.Warnings,
		OldChecksum: oldChecksum,
		NewChecksum: newChecksum,
	}, nil
}

// checkDrift implements spec C7's drift detection: the most recent
// direction='up' AND rolled_back=false row's checksum must equal the
// local old snapshot's checksum, or the database has been mutated
// outside this tool. On drift it also reconstructs the diff `create`
// would otherwise have gone on to compute, so the caller has something
// concrete to triage rather than just the two mismatched checksums.
func checkDrift(ctx context.Context, opts Options, diffOpts diff.Options, localOldChecksum string, oldModels map[string]schema.Model, current map[string]schema.Model, currentOrder []string) error {
	last, ok, err := store.LastActive(ctx, opts.Exec, opts.Dialect.Kind())
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if last.Checksum != localOldChecksum {
		diagnostic := fmt.Sprintf("history row %q recorded checksum %s but the local snapshot now checksums to %s", last.Name, last.Checksum, localOldChecksum)
		if reconstructed, derr := diff.Compute(ctx, diffOpts, oldModels, current, currentOrder); derr == nil {
			diagnostic += "\nreconstructed diff (local old snapshot -> current):\n" + formatReconstructedDiff(reconstructed)
		}
		return &sqlbunserr.SchemaDriftError{
			ExpectedChecksum: last.Checksum,
			ActualChecksum:   localOldChecksum,
			Diagnostic:       diagnostic,
		}
	}
	return nil
}

func formatReconstructedDiff(res *diff.Result) string {
	if len(res.Forward) == 0 {
		return "  (no forward statements)"
	}
	var b []byte
	for _, stmt := range res.Forward {
		b = append(b, "  "...)
		b = append(b, stmt...)
		b = append(b, '\n')
	}
	return string(b)
}
