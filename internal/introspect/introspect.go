// Package introspect queries a live database for the facts the differ
// (C5), trigger validator (C8), and SQLite rebuild policy (C3) need:
// whether a table/column exists, and — for SQLite rebuilds — which other
// tables or triggers reference a given table. Grounded on the teacher's
// introspect/introspect.go, generalized from Postgres-only to all three
// dialects.
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ridoystarlord/sqlbuns/internal/dialect"
)

// Prober is the minimal surface the core consumes for "does X exist in
// the database" questions (spec §6 "Introspection helpers").
type Prober interface {
	TableExists(ctx context.Context, table string) (bool, error)
	ColumnExists(ctx context.Context, table, column string) (bool, error)
	// ReferencingTables and TriggerBodies back the SQLite rebuild guard
	// (spec C3 steps 1-2); non-SQLite probers may return (nil, nil).
	ReferencingTables(ctx context.Context, table string) ([]string, error)
	TriggerBodies(ctx context.Context) ([]string, error)
}

// PostgresProber queries information_schema/pg_catalog via pgx.
type PostgresProber struct{ Pool *pgxpool.Pool }

func (p *PostgresProber) TableExists(ctx context.Context, table string) (bool, error) {
	var exists bool
	err := p.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = $1
		)`, table).Scan(&exists)
	if err != nil {
		return false, nil // swallow lookup errors as "no", per spec §6
	}
	return exists, nil
}

func (p *PostgresProber) ColumnExists(ctx context.Context, table, column string) (bool, error) {
	var exists bool
	err := p.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_schema = 'public' AND table_name = $1 AND column_name = $2
		)`, table, column).Scan(&exists)
	if err != nil {
		return false, nil
	}
	return exists, nil
}

func (p *PostgresProber) ReferencingTables(ctx context.Context, table string) ([]string, error) {
	rows, err := p.Pool.Query(ctx, `
		SELECT DISTINCT tc.table_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.constraint_column_usage ccu
			ON tc.constraint_name = ccu.constraint_name
		WHERE tc.constraint_type = 'FOREIGN KEY' AND ccu.table_name = $1`, table)
	if err != nil {
		return nil, nil
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err == nil {
			out = append(out, t)
		}
	}
	return out, nil
}

func (p *PostgresProber) TriggerBodies(ctx context.Context) ([]string, error) {
	rows, err := p.Pool.Query(ctx, `SELECT prosrc FROM pg_proc WHERE prosrc IS NOT NULL`)
	if err != nil {
		return nil, nil
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err == nil {
			out = append(out, body)
		}
	}
	return out, nil
}

// SQLProber implements Prober over database/sql, shared by the MySQL and
// SQLite dialects (their information sources differ, dispatched by kind).
type SQLProber struct {
	DB   *sql.DB
	Kind dialect.Kind
}

func (s *SQLProber) TableExists(ctx context.Context, table string) (bool, error) {
	switch s.Kind {
	case dialect.SQLite:
		var name string
		err := s.DB.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		return err == nil, nil
	default: // MySQL
		var name string
		err := s.DB.QueryRowContext(ctx, `SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?`, table).Scan(&name)
		return err == nil, nil
	}
}

func (s *SQLProber) ColumnExists(ctx context.Context, table, column string) (bool, error) {
	switch s.Kind {
	case dialect.SQLite:
		rows, err := s.DB.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, table))
		if err != nil {
			return false, nil
		}
		defer rows.Close()
		cols, err := rows.Columns()
		if err != nil {
			return false, nil
		}
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		for rows.Next() {
			if err := rows.Scan(ptrs...); err != nil {
				continue
			}
			for i, c := range cols {
				if c == "name" {
					if name, ok := vals[i].(string); ok && name == column {
						return true, nil
					}
					if b, ok := vals[i].([]byte); ok && string(b) == column {
						return true, nil
					}
				}
			}
		}
		return false, nil
	default: // MySQL
		var name string
		err := s.DB.QueryRowContext(ctx, `SELECT column_name FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ? AND column_name = ?`, table, column).Scan(&name)
		return err == nil, nil
	}
}

func (s *SQLProber) ReferencingTables(ctx context.Context, table string) ([]string, error) {
	if s.Kind != dialect.SQLite {
		return nil, nil
	}
	rows, err := s.DB.QueryContext(ctx, `SELECT name, sql FROM sqlite_master WHERE type='table' AND sql IS NOT NULL`)
	if err != nil {
		return nil, nil
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name, ddl string
		if err := rows.Scan(&name, &ddl); err != nil {
			continue
		}
		if name != table && containsReference(ddl, table) {
			out = append(out, name)
		}
	}
	return out, nil
}

func (s *SQLProber) TriggerBodies(ctx context.Context) ([]string, error) {
	if s.Kind != dialect.SQLite {
		return nil, nil
	}
	rows, err := s.DB.QueryContext(ctx, `SELECT sql FROM sqlite_master WHERE type='trigger' AND sql IS NOT NULL`)
	if err != nil {
		return nil, nil
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err == nil {
			out = append(out, body)
		}
	}
	return out, nil
}

func containsReference(ddl, table string) bool {
	return strings.Contains(ddl, "REFERENCES "+table) || strings.Contains(ddl, `REFERENCES "`+table+`"`)
}
