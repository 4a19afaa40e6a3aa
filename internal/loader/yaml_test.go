package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/sqlbuns/internal/schema"
)

const sampleYAML = `
models:
  users:
    tableName: users
    fields:
      id:
        kind: integer
        primaryKey: true
        autoIncrement: true
      email:
        kind: varchar
        maxLength: 255
        unique: true
    relations:
      posts:
        kind: hasMany
        target: posts
        foreignKey: user_id
    indexes:
      - fields: [email]
        unique: true
        name: idx_users_email
    meta:
      comment: application users
      timestamps: true
  posts:
    tableName: posts
    fields:
      id:
        kind: integer
        primaryKey: true
        autoIncrement: true
      title:
        kind: varchar
        maxLength: 200
`

func writeSampleYAML(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))
	return path
}

func TestLoadModelsFromYAML_ParsesFullShape(t *testing.T) {
	path := writeSampleYAML(t)

	models, order, err := LoadModelsFromYAML(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"users", "posts"}, order, "declaration order must be preserved")

	users, ok := models["users"]
	require.True(t, ok)
	assert.Equal(t, "users", users.EffectiveTableName())
	assert.True(t, users.Meta.Timestamps)

	id, ok := users.Fields["id"]
	require.True(t, ok)
	assert.True(t, id.PrimaryKey)
	assert.True(t, id.AutoIncrement)

	email, ok := users.Fields["email"]
	require.True(t, ok)
	assert.Equal(t, 255, email.MaxLength)
	assert.True(t, email.Unique)

	rel, ok := users.Relations["posts"]
	require.True(t, ok)
	assert.Equal(t, schema.HasMany, rel.Kind)
	assert.Equal(t, "user_id", rel.ForeignKey)

	require.Len(t, users.Meta.Indexes, 1)
	assert.Equal(t, "idx_users_email", users.Meta.Indexes[0].Name)
}

func TestLoadModelsFromYAML_MissingFile(t *testing.T) {
	_, _, err := LoadModelsFromYAML(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadModelsFromYAML_UnknownFieldKindErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	bad := "models:\n  x:\n    fields:\n      y:\n        kind: nope\n"
	require.NoError(t, os.WriteFile(path, []byte(bad), 0o644))

	_, _, err := LoadModelsFromYAML(path)
	assert.Error(t, err)
}
