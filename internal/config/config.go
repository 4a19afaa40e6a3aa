// Package config loads .env (godotenv, as the teacher's utils.LoadEnv
// does) and sqlbuns.yaml/SQLBUNS_* environment overrides (viper),
// resolving the database engine, connection DSN, and models/migrations
// paths spec §6 names.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ridoystarlord/sqlbuns/internal/dialect"
)

// Config is the resolved set of values the CLI and lifecycle need.
type Config struct {
	Engine       dialect.Kind
	DSN          string
	Root         string // project root, defaults to cwd
	ModelsPath   string
	MigrationsPath string
}

// Load reads .env (missing is not an error, matching the teacher's
// LoadEnv), then sqlbuns.yaml plus SQLBUNS_*-prefixed environment
// overrides via viper, and resolves defaults for unset paths.
func Load(root string) (*Config, error) {
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("config: getwd: %w", err)
		}
		root = wd
	}

	if err := godotenv.Load(filepath.Join(root, ".env")); err != nil && !os.IsNotExist(err) {
		// A malformed .env is worth surfacing; a missing one is the
		// common case and is silently ignored, per the teacher's LoadEnv.
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("sqlbuns")
	v.SetConfigType("yaml")
	v.AddConfigPath(root)
	v.SetEnvPrefix("SQLBUNS")
	v.AutomaticEnv()
	v.SetDefault("modelsPath", filepath.Join(root, "database", "models"))
	v.SetDefault("migrationsPath", filepath.Join(root, "database", "migrations"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read sqlbuns.yaml: %w", err)
		}
	}

	engineRaw := os.Getenv("DATABASE_ENGINE")
	if engineRaw == "" {
		engineRaw = v.GetString("databaseEngine")
	}
	engine, err := dialect.ParseKind(strings.TrimSpace(engineRaw))
	if err != nil {
		return nil, err
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = v.GetString("databaseUrl")
	}

	return &Config{
		Engine:         engine,
		DSN:            dsn,
		Root:           root,
		ModelsPath:     v.GetString("modelsPath"),
		MigrationsPath: v.GetString("migrationsPath"),
	}, nil
}
