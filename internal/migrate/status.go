package migrate

import (
	"context"

	"github.com/ridoystarlord/sqlbuns/internal/store"
)

// StatusResult reports applied and pending migration names, grounded on
// the teacher's runner.Status three-way split (minus the failed-run
// tracking, which this engine doesn't need: a failed apply never
// commits a history row here, so "pending" already covers it).
type StatusResult struct {
	Applied []string
	Pending []string
}

// Status lists every on-disk artifact, split by whether the history
// table already has a matching applied row.
func Status(ctx context.Context, opts Options) (*StatusResult, error) {
	dir := store.MigrationsDir(opts.Root)
	kind := opts.Dialect.Kind()

	if err := store.EnsureHistoryTable(ctx, opts.Exec, kind); err != nil {
		return nil, err
	}

	files, err := store.ListForwardArtifacts(dir)
	if err != nil {
		return nil, err
	}
	appliedNames, err := store.AppliedNames(ctx, opts.Exec, kind)
	if err != nil {
		return nil, err
	}

	res := &StatusResult{}
	for _, f := range files {
		name := store.NameFromArtifact(f)
		if appliedNames[name] {
			res.Applied = append(res.Applied, name)
		} else {
			res.Pending = append(res.Pending, name)
		}
	}
	return res, nil
}
