package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "add_users_table", Slugify("Add Users Table!"))
	assert.Equal(t, "x_y", Slugify("__x--y__"))
}

func TestArtifactNames(t *testing.T) {
	forward, reverse := ArtifactNames(1700000000000, "Add Users")
	assert.Equal(t, "1700000000000_add_users.sql", forward)
	assert.Equal(t, "1700000000000_add_users.down.sql", reverse)
}

func TestReverseArtifactName(t *testing.T) {
	assert.Equal(t, "1_add_users.down.sql", ReverseArtifactName("1_add_users.sql"))
}

func TestNameFromArtifact(t *testing.T) {
	assert.Equal(t, "1_add_users", NameFromArtifact("1_add_users.sql"))
}

func TestWriteAndReadArtifact_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	stmts := []string{"CREATE TABLE a (id integer);", "CREATE TABLE b (id integer);"}

	require.NoError(t, WriteArtifact(dir, "1_x.sql", stmts))
	got, err := ReadArtifact(dir, "1_x.sql")
	require.NoError(t, err)
	assert.Equal(t, stmts, got)
}

func TestListForwardArtifacts_ExcludesReverseAndSnapshot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteArtifact(dir, "2_b.sql", []string{"x"}))
	require.NoError(t, WriteArtifact(dir, "1_a.sql", []string{"x"}))
	require.NoError(t, WriteArtifact(dir, "1_a.down.sql", []string{"x"}))
	require.NoError(t, WriteArtifact(dir, SnapshotFileName, []string{"{}"}))

	got, err := ListForwardArtifacts(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"1_a.sql", "2_b.sql"}, got)
}

func TestListForwardArtifacts_MissingDirReturnsEmpty(t *testing.T) {
	got, err := ListForwardArtifacts(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMigrationsDir(t *testing.T) {
	assert.Equal(t, filepath.Join("root", "database", "migrations"), MigrationsDir("root"))
}

func TestWriteAndReadChecksum_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, WriteChecksum(dir, "1_x.sql", "abc123"))
	got, err := ReadChecksum(dir, "1_x.sql")
	require.NoError(t, err)
	assert.Equal(t, "abc123", got)
}

func TestReadChecksum_MissingSidecarErrors(t *testing.T) {
	_, err := ReadChecksum(t.TempDir(), "1_x.sql")
	assert.Error(t, err)
}
