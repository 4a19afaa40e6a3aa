package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/sqlbuns/internal/schema"
)

func mustNormField(t *testing.T, name string) schema.Field {
	t.Helper()
	f, err := schema.NewField(name, schema.FieldOptions{Kind: schema.KindVarchar, MaxLength: 50})
	require.NoError(t, err)
	return f
}

func TestNormalizeIndexNamesForChecksum_StripsOldAutoNameWhenCurrentIsUnnamed(t *testing.T) {
	email := mustNormField(t, "email")

	old := schema.NewModelBuilder("users").AddField(email).
		WithMeta(schema.Meta{Indexes: []schema.Index{{Fields: []string{"email"}, Name: "idx_users_email"}}}).
		Build()
	current := schema.NewModelBuilder("users").AddField(email).
		WithMeta(schema.Meta{Indexes: []schema.Index{{Fields: []string{"email"}}}}).
		Build()

	out := NormalizeIndexNamesForChecksum(map[string]schema.Model{"users": old}, map[string]schema.Model{"users": current})

	assert.Empty(t, out["users"].Meta.Indexes[0].Name)
}

func TestNormalizeIndexNamesForChecksum_KeepsExplicitNameWhenCurrentAlsoNamesIt(t *testing.T) {
	email := mustNormField(t, "email")

	old := schema.NewModelBuilder("users").AddField(email).
		WithMeta(schema.Meta{Indexes: []schema.Index{{Fields: []string{"email"}, Name: "idx_users_email"}}}).
		Build()
	current := schema.NewModelBuilder("users").AddField(email).
		WithMeta(schema.Meta{Indexes: []schema.Index{{Fields: []string{"email"}, Name: "idx_users_email"}}}).
		Build()

	out := NormalizeIndexNamesForChecksum(map[string]schema.Model{"users": old}, map[string]schema.Model{"users": current})

	assert.Equal(t, "idx_users_email", out["users"].Meta.Indexes[0].Name)
}

func TestNormalizeIndexNamesForChecksum_LeavesModelsAbsentFromCurrentUntouched(t *testing.T) {
	email := mustNormField(t, "email")
	old := schema.NewModelBuilder("legacy").AddField(email).
		WithMeta(schema.Meta{Indexes: []schema.Index{{Fields: []string{"email"}, Name: "idx_legacy_email"}}}).
		Build()

	out := NormalizeIndexNamesForChecksum(map[string]schema.Model{"legacy": old}, map[string]schema.Model{})

	assert.Equal(t, "idx_legacy_email", out["legacy"].Meta.Indexes[0].Name)
}
