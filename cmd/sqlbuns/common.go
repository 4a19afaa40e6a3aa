package sqlbuns

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ridoystarlord/sqlbuns/internal/config"
	"github.com/ridoystarlord/sqlbuns/internal/dbconn"
	"github.com/ridoystarlord/sqlbuns/internal/dialect"
	"github.com/ridoystarlord/sqlbuns/internal/diff"
	"github.com/ridoystarlord/sqlbuns/internal/introspect"
	"github.com/ridoystarlord/sqlbuns/internal/loader"
	"github.com/ridoystarlord/sqlbuns/internal/migrate"
	"github.com/ridoystarlord/sqlbuns/internal/schema"
)

var (
	flagYAML   bool
	flagSchema string
	flagModels string
)

// engine bundles everything a subcommand needs after config resolution
// and a live database connection, mirroring the teacher's pattern of
// each cmd/*.go file doing its own setup inline but factored once here
// since every subcommand under sqlbuns needs the identical wiring.
type engine struct {
	cfg    *config.Config
	dia    dialect.Dialect
	exec   dbconn.Executor
	prober introspect.Prober
}

func setup(ctx context.Context) (*engine, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, err
	}

	dia, err := dialect.New(cfg.Engine)
	if err != nil {
		return nil, err
	}

	exec, err := dbconn.Connect(ctx, cfg.Engine, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	prober, err := newProber(exec, cfg.Engine)
	if err != nil {
		return nil, err
	}

	return &engine{cfg: cfg, dia: dia, exec: exec, prober: prober}, nil
}

func newProber(exec dbconn.Executor, kind dialect.Kind) (introspect.Prober, error) {
	if kind == dialect.Postgres {
		pool, ok := dbconn.Pool(exec)
		if !ok {
			return nil, fmt.Errorf("sqlbuns: expected a pgx pool for postgres")
		}
		return &introspect.PostgresProber{Pool: pool}, nil
	}
	db, ok := dbconn.DB(exec)
	if !ok {
		return nil, fmt.Errorf("sqlbuns: expected a database/sql handle for %s", kind)
	}
	return &introspect.SQLProber{DB: db, Kind: kind}, nil
}

func (e *engine) migrateOptions(oracle diff.RenameOracle) migrate.Options {
	return migrate.Options{
		Root:    e.cfg.Root,
		Dialect: e.dia,
		Exec:    e.exec,
		Prober:  e.prober,
		Oracle:  oracle,
	}
}

func loadModels() (map[string]schema.Model, []string, error) {
	if flagYAML {
		path := flagSchema
		if path == "" {
			path = "schema.yaml"
		}
		return loader.Load(loader.SourceYAML, path)
	}
	path := flagModels
	if path == "" {
		path = "database/models"
	}
	return loader.Load(loader.SourceTags, path)
}

// interactiveOracle prompts on stdin, per spec §6's confirmRename;
// used whenever the CLI is attached to a terminal, falling back to
// diff.NonInteractiveOracle otherwise.
type interactiveOracle struct {
	reader *bufio.Reader
}

func newOracle() diff.RenameOracle {
	if fi, err := os.Stdin.Stat(); err != nil || (fi.Mode()&os.ModeCharDevice) == 0 {
		return diff.NonInteractiveOracle{}
	}
	return &interactiveOracle{reader: bufio.NewReader(os.Stdin)}
}

func (o *interactiveOracle) ConfirmRename(_ context.Context, table, oldName, newName string, _ schema.FieldKind) bool {
	fmt.Printf("Rename %s.%s -> %s.%s? [y/N] ", table, oldName, table, newName)
	line, err := o.reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
