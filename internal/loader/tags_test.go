package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/sqlbuns/internal/schema"
)

const sampleModelSource = `package models

// +sqlbuns:table name=users comment="application users" timestamps
// +sqlbuns:index fields=email,status name=idx_users_lookup unique
type User struct {
	ID    int    ` + "`sqlbuns:\"kind:integer;primary;autoIncrement\"`" + `
	Email string ` + "`sqlbuns:\"kind:varchar;maxLength:255;unique\"`" + `
	Bio   string ` + "`sqlbuns:\"kind:text;nullable\"`" + `

	Posts []int ` + "`sqlbuns:\"relation:hasMany;target:posts;fk:user_id\"`" + `
}

type Post struct {
	ID     int ` + "`sqlbuns:\"kind:integer;primary;autoIncrement\"`" + `
	Title  string ` + "`sqlbuns:\"kind:varchar;maxLength:200\"`" + `
	hidden string
}
`

func writeSampleModels(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "models.go"), []byte(sampleModelSource), 0o644))
	return dir
}

func TestLoadModelsFromTags_ParsesFieldsAndDirectives(t *testing.T) {
	dir := writeSampleModels(t)

	models, order, err := LoadModelsFromTags(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"user", "post"}, order)

	users, ok := models["user"]
	require.True(t, ok)
	assert.Equal(t, "users", users.EffectiveTableName())
	assert.Equal(t, "application users", users.Meta.Comment)
	assert.True(t, users.Meta.Timestamps)
	require.Len(t, users.Meta.Indexes, 1)
	assert.Equal(t, []string{"email", "status"}, users.Meta.Indexes[0].Fields)
	assert.True(t, users.Meta.Indexes[0].Unique)

	id, ok := users.Fields["id"]
	require.True(t, ok)
	assert.True(t, id.PrimaryKey)
	assert.True(t, id.AutoIncrement)

	bio, ok := users.Fields["bio"]
	require.True(t, ok)
	assert.True(t, bio.Nullable)

	_, hasHidden := models["post"].Fields["hidden"]
	assert.False(t, hasHidden, "unexported fields must be skipped")

	rel, ok := users.Relations["posts"]
	require.True(t, ok)
	assert.Equal(t, schema.HasMany, rel.Kind)
	assert.Equal(t, "posts", rel.Target)
	assert.Equal(t, "user_id", rel.ForeignKey)
}

func TestLoadModelsFromTags_MissingDirectory(t *testing.T) {
	_, _, err := LoadModelsFromTags(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestToSnakeCase(t *testing.T) {
	assert.Equal(t, "user_profile", toSnakeCase("UserProfile"))
	assert.Equal(t, "id", toSnakeCase("ID"))
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "categories", pluralize("category"))
	assert.Equal(t, "users", pluralize("user"))
	assert.Equal(t, "tags", pluralize("tags"))
}
