// Package trigcheck implements the trigger-body validator (spec C8): it
// parses the leading keyword of a trigger statement body well enough to
// know which table and columns it touches, then confirms those exist —
// either in the live database, or as fields of an in-batch model.
package trigcheck

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ridoystarlord/sqlbuns/internal/introspect"
	"github.com/ridoystarlord/sqlbuns/internal/schema"
	"github.com/ridoystarlord/sqlbuns/internal/sqlbunserr"
)

// probeFanOut bounds how many independent TableExists/ColumnExists calls
// Validate and validateReference will have in flight at once: enough to
// hide round-trip latency across a batch's trigger statements without
// opening unbounded connections against the pool.
const probeFanOut = 8

// Reference is the extracted {table, columns} target of one statement.
type Reference struct {
	Table   string
	Columns []string
	// Deferred is true when the target is in-batch but not yet created
	// in the database; the whole trigger must be deferred with the
	// relation pass in that case.
	Deferred bool
}

var (
	insertRe = regexp.MustCompile(`(?is)^\s*INSERT\s+INTO\s+([^\s(]+)\s*\(([^)]*)\)`)
	updateRe = regexp.MustCompile(`(?is)^\s*UPDATE\s+([^\s]+)\s+SET\s+(.*?)(?:WHERE|$)`)
	deleteRe = regexp.MustCompile(`(?is)^\s*DELETE\s+FROM\s+([^\s]+)`)
	selectRe = regexp.MustCompile(`(?is)^\s*SELECT\s+(.*?)\s+FROM\s+([^\s]+)`)
)

// Extract parses body's leading statement kind and returns the table and
// column references it makes, plus warnings for constructs C8 can't fully
// resolve (JOIN, subselects).
func Extract(body string) (ref Reference, warnings []string, recognized bool) {
	trimmed := strings.TrimSpace(body)

	if m := insertRe.FindStringSubmatch(trimmed); m != nil {
		cols := splitIdentList(m[2])
		return Reference{Table: stripIdent(m[1]), Columns: cols}, nil, true
	}
	if m := updateRe.FindStringSubmatch(trimmed); m != nil {
		cols := assignmentColumns(m[2])
		return Reference{Table: stripIdent(m[1]), Columns: cols}, nil, true
	}
	if m := deleteRe.FindStringSubmatch(trimmed); m != nil {
		return Reference{Table: stripIdent(m[1])}, nil, true
	}
	if m := selectRe.FindStringSubmatch(trimmed); m != nil {
		selectList := strings.TrimSpace(m[1])
		table := stripIdent(m[2])
		var cols []string
		if selectList != "*" {
			cols = splitIdentList(selectList)
		}
		var warns []string
		upper := strings.ToUpper(trimmed)
		if strings.Contains(upper, "JOIN") {
			warns = append(warns, "trigger statement uses JOIN; column references may be incomplete")
		}
		if strings.Contains(trimmed, "(") && strings.Contains(upper, "SELECT") && strings.Count(upper, "SELECT") > 1 {
			warns = append(warns, "trigger statement contains a subselect; column references may be incomplete")
		}
		return Reference{Table: table, Columns: cols}, warns, true
	}

	return Reference{}, nil, false
}

func splitIdentList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, stripIdent(p))
	}
	return out
}

func assignmentColumns(setClause string) []string {
	parts := strings.Split(setClause, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if idx := strings.Index(p, "="); idx >= 0 {
			out = append(out, stripIdent(strings.TrimSpace(p[:idx])))
		}
	}
	return out
}

func stripIdent(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') ||
			(s[0] == '`' && s[len(s)-1] == '`') ||
			(s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// Validate checks every statement of a trigger against either live DB
// introspection or the in-batch models. It returns whether the trigger
// must be deferred to the relation pass (its target is in-batch but not
// yet created), and any warnings collected along the way.
//
// Each statement's table/column existence check is independent of every
// other statement's, so they fan out over a bounded errgroup rather than
// running one round-trip at a time; DDL emission elsewhere stays strictly
// serial, only these read-only probes run concurrently.
func Validate(ctx context.Context, prober introspect.Prober, batch map[string]schema.Model, statements []schema.Statement) (deferred bool, warnings []string, err error) {
	type stmtResult struct {
		warnings []string
		deferred bool
	}
	results := make([]stmtResult, len(statements))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(probeFanOut)

	for i, stmt := range statements {
		ref, warns, recognized := Extract(stmt.Body)
		results[i].warnings = warns
		if !recognized {
			continue // "other" leading token: assumed safe, skip
		}
		i, ref := i, ref
		g.Go(func() error {
			d, verr := validateReference(gctx, prober, batch, ref)
			results[i].deferred = d
			return verr
		})
	}

	if werr := g.Wait(); werr != nil {
		for _, r := range results {
			warnings = append(warnings, r.warnings...)
		}
		return false, warnings, werr
	}

	for _, r := range results {
		warnings = append(warnings, r.warnings...)
		if r.deferred {
			deferred = true
		}
	}
	return deferred, warnings, nil
}

// validateReference resolves one statement's table/column reference,
// either against the live database or the in-batch models, reporting
// whether it must be deferred until its in-batch target table exists.
func validateReference(ctx context.Context, prober introspect.Prober, batch map[string]schema.Model, ref Reference) (deferred bool, err error) {
	exists, tErr := prober.TableExists(ctx, ref.Table)
	if tErr != nil {
		return false, tErr
	}
	if exists {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(probeFanOut)
		for _, col := range ref.Columns {
			col := col
			g.Go(func() error {
				ok, cErr := prober.ColumnExists(gctx, ref.Table, col)
				if cErr != nil {
					return cErr
				}
				if !ok {
					return fmt.Errorf("%w: trigger references %s.%s which does not exist", sqlbunserr.ErrInvalidTrigger, ref.Table, col)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return false, err
		}
		return false, nil
	}

	model, inBatch := findModelByTable(batch, ref.Table)
	if !inBatch {
		return false, fmt.Errorf("%w: trigger references table %q which is neither in the database nor the current batch", sqlbunserr.ErrInvalidTrigger, ref.Table)
	}
	for _, col := range ref.Columns {
		if _, ok := model.Fields[col]; !ok {
			return false, fmt.Errorf("%w: trigger references %s.%s which is not a defined field", sqlbunserr.ErrInvalidTrigger, ref.Table, col)
		}
	}
	return true, nil
}

func findModelByTable(batch map[string]schema.Model, table string) (schema.Model, bool) {
	for _, m := range batch {
		if m.EffectiveTableName() == table {
			return m, true
		}
	}
	return schema.Model{}, false
}
