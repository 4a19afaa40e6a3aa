package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ridoystarlord/sqlbuns/internal/dbconn"
	"github.com/ridoystarlord/sqlbuns/internal/dialect"
)

// HistoryTable is the fixed name of the history table, per spec C6.
const HistoryTable = "_sqlbuns_migrations"

// HistoryRow is one applied/rolled-back migration record.
type HistoryRow struct {
	ID               int64
	Name             string
	Checksum         string
	PreviousChecksum string
	Direction        string
	AppliedAt        time.Time
	RolledBack       bool
	RolledBackAt     *time.Time
}

// EnsureHistoryTable creates the history table on first contact, with
// the column set spec C6 names: id, name UNIQUE, checksum,
// previous_checksum, direction CHECK IN ('up','down') DEFAULT 'up',
// applied_at DEFAULT now, rolled_back DEFAULT false, rolled_back_at.
func EnsureHistoryTable(ctx context.Context, exec dbconn.Executor, kind dialect.Kind) error {
	var ddl string
	switch kind {
	case dialect.Postgres:
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id SERIAL PRIMARY KEY,
			name TEXT UNIQUE NOT NULL,
			checksum TEXT NOT NULL,
			previous_checksum TEXT,
			direction TEXT NOT NULL DEFAULT 'up' CHECK (direction IN ('up','down')),
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			rolled_back BOOLEAN NOT NULL DEFAULT false,
			rolled_back_at TIMESTAMPTZ
		);`, HistoryTable)
	case dialect.MySQL:
		ddl = fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n"+
			"\tid BIGINT AUTO_INCREMENT PRIMARY KEY,\n"+
			"\tname VARCHAR(255) UNIQUE NOT NULL,\n"+
			"\tchecksum VARCHAR(64) NOT NULL,\n"+
			"\tprevious_checksum VARCHAR(64),\n"+
			"\tdirection ENUM('up','down') NOT NULL DEFAULT 'up',\n"+
			"\tapplied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,\n"+
			"\trolled_back TINYINT(1) NOT NULL DEFAULT 0,\n"+
			"\trolled_back_at DATETIME\n"+
			");", HistoryTable)
	default: // SQLite
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			checksum TEXT NOT NULL,
			previous_checksum TEXT,
			direction TEXT NOT NULL DEFAULT 'up' CHECK (direction IN ('up','down')),
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			rolled_back INTEGER NOT NULL DEFAULT 0,
			rolled_back_at DATETIME
		);`, HistoryTable)
	}
	if err := exec.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("store: create history table: %w", err)
	}
	// On dialects where name's unique constraint doesn't itself back an
	// index usable for lookups (spec C6 "an index... where it is
	// distinct from the unique constraint"), MySQL and Postgres both
	// already index UNIQUE columns; only left as a no-op placeholder for
	// dialects that might not, keeping the call site uniform.
	return nil
}

func placeholder(kind dialect.Kind, i int) string {
	if kind == dialect.Postgres {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

// InsertApplied records a forward migration inside the same Tx as its
// DDL, per spec C7's "up" atomicity requirement.
func InsertApplied(ctx context.Context, tx dbconn.Tx, kind dialect.Kind, name, checksum, previousChecksum string) error {
	q := fmt.Sprintf(
		"INSERT INTO %s (name, checksum, previous_checksum, direction, rolled_back) VALUES (%s, %s, %s, 'up', %s);",
		HistoryTable, placeholder(kind, 1), placeholder(kind, 2), placeholder(kind, 3), boolLiteral(kind, false),
	)
	return tx.Exec(ctx, q, name, checksum, previousChecksum)
}

func boolLiteral(kind dialect.Kind, v bool) string {
	if kind == dialect.Postgres {
		if v {
			return "true"
		}
		return "false"
	}
	if v {
		return "1"
	}
	return "0"
}

// MarkRolledBack flips rolled_back/rolled_back_at for name inside tx,
// alongside the reverse artifact's DDL, per spec C7's "down".
func MarkRolledBack(ctx context.Context, tx dbconn.Tx, kind dialect.Kind, name string) error {
	var q string
	switch kind {
	case dialect.Postgres:
		q = fmt.Sprintf("UPDATE %s SET rolled_back = true, rolled_back_at = now() WHERE name = $1;", HistoryTable)
	case dialect.MySQL:
		q = fmt.Sprintf("UPDATE %s SET rolled_back = 1, rolled_back_at = CURRENT_TIMESTAMP WHERE name = ?;", HistoryTable)
	default:
		q = fmt.Sprintf("UPDATE %s SET rolled_back = 1, rolled_back_at = CURRENT_TIMESTAMP WHERE name = ?;", HistoryTable)
	}
	return tx.Exec(ctx, q, name)
}

// LastActive reads the most recent direction='up' AND rolled_back=false
// row, used for drift detection (spec C7). ok is false when no such row
// exists, which the caller treats as "skip drift check".
func LastActive(ctx context.Context, exec dbconn.Executor, kind dialect.Kind) (row HistoryRow, ok bool, err error) {
	q := fmt.Sprintf(
		"SELECT id, name, checksum, applied_at FROM %s WHERE direction = 'up' AND rolled_back = %s ORDER BY applied_at DESC, id DESC LIMIT 1;",
		HistoryTable, boolLiteral(kind, false),
	)
	r := exec.QueryRow(ctx, q)
	if err := r.Scan(&row.ID, &row.Name, &row.Checksum, &row.AppliedAt); err != nil {
		return HistoryRow{}, false, nil
	}
	return row, true, nil
}

// LastAppliedName reads the single most recently applied (not yet
// rolled back) migration's name, for `down`.
func LastAppliedName(ctx context.Context, exec dbconn.Executor, kind dialect.Kind) (name string, ok bool, err error) {
	row, ok, err := LastActive(ctx, exec, kind)
	return row.Name, ok, err
}

// AppliedNames lists every name with direction='up' AND rolled_back=false,
// the "applied" side of spec C7's on-disk-minus-history pending set.
func AppliedNames(ctx context.Context, exec dbconn.Executor, kind dialect.Kind) (map[string]bool, error) {
	q := fmt.Sprintf("SELECT name FROM %s WHERE direction = 'up' AND rolled_back = %s;", HistoryTable, boolLiteral(kind, false))
	rows, err := exec.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("store: list applied migrations: %w", err)
	}
	defer rows.Close()
	out := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("store: scan applied migration: %w", err)
		}
		out[name] = true
	}
	return out, rows.Err()
}
