// Package dbconn gives C7/C8 one small executor surface regardless of
// which of the three drivers backs it, so the migration lifecycle and
// trigger validator never import pgx or database/sql directly.
package dbconn

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "modernc.org/sqlite"

	"github.com/ridoystarlord/sqlbuns/internal/dialect"
)

// Row is the minimal scan surface returned by QueryRow.
type Row interface {
	Scan(dest ...any) error
}

// Rows is the minimal multi-row iteration surface returned by Query.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error
}

// Tx is one transaction: every DDL/DML statement inside a migration
// artifact and its history-row insert run through the same Tx.
type Tx interface {
	Exec(ctx context.Context, query string, args ...any) error
	QueryRow(ctx context.Context, query string, args ...any) Row
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Executor is the connection-level surface: acquire a Tx, or run a
// one-off statement/query outside of any transaction (introspection).
type Executor interface {
	Exec(ctx context.Context, query string, args ...any) error
	QueryRow(ctx context.Context, query string, args ...any) Row
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Begin(ctx context.Context) (Tx, error)
	Close()
}

// Connect dials the engine named by kind and dsn, returning the shared
// Executor; Pool and DB expose the underlying *pgxpool.Pool/*sql.DB when
// the caller needs dialect-specific introspection (internal/introspect).
func Connect(ctx context.Context, kind dialect.Kind, dsn string) (Executor, error) {
	switch kind {
	case dialect.Postgres:
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("dbconn: connect postgres: %w", err)
		}
		return &pgxExecutor{pool: pool}, nil
	case dialect.MySQL:
		db, err := sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("dbconn: connect mysql: %w", err)
		}
		return &sqlExecutor{db: db}, nil
	case dialect.SQLite:
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("dbconn: connect sqlite: %w", err)
		}
		return &sqlExecutor{db: db}, nil
	default:
		return nil, fmt.Errorf("dbconn: unsupported engine %q", kind)
	}
}

// Pool exposes the underlying *pgxpool.Pool for a Postgres Executor, or
// ok=false otherwise; internal/introspect's PostgresProber needs the
// concrete pool, not the narrow Executor surface.
func Pool(e Executor) (*pgxpool.Pool, bool) {
	p, ok := e.(*pgxExecutor)
	if !ok {
		return nil, false
	}
	return p.pool, true
}

// DB exposes the underlying *sql.DB for a MySQL/SQLite Executor.
func DB(e Executor) (*sql.DB, bool) {
	s, ok := e.(*sqlExecutor)
	if !ok {
		return nil, false
	}
	return s.db, true
}
