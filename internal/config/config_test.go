package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/sqlbuns/internal/dialect"
)

func writeConfigFile(t *testing.T, dir, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sqlbuns.yaml"), []byte(contents), 0o644))
}

func TestLoad_ReadsEngineAndDSNFromYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "databaseEngine: postgres\ndatabaseUrl: postgres://localhost/app\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, dialect.Postgres, cfg.Engine)
	assert.Equal(t, "postgres://localhost/app", cfg.DSN)
}

func TestLoad_EnvVarsOverrideYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "databaseEngine: postgres\ndatabaseUrl: postgres://localhost/app\n")

	t.Setenv("DATABASE_ENGINE", "sqlite")
	t.Setenv("DATABASE_URL", "file:test.db")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, dialect.SQLite, cfg.Engine)
	assert.Equal(t, "file:test.db", cfg.DSN)
}

func TestLoad_DefaultsModelsAndMigrationsPaths(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "databaseEngine: sqlite\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "database", "models"), cfg.ModelsPath)
	assert.Equal(t, filepath.Join(dir, "database", "migrations"), cfg.MigrationsPath)
}

func TestLoad_MissingEngineErrors(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "databaseUrl: postgres://localhost/app\n")

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoad_MissingConfigFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATABASE_ENGINE", "sqlite")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, dialect.SQLite, cfg.Engine)
}
