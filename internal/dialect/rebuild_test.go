package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/sqlbuns/internal/schema"
)

func mustRebuildField(t *testing.T, name string, opts schema.FieldOptions) schema.Field {
	t.Helper()
	f, err := schema.NewField(name, opts)
	require.NoError(t, err)
	return f
}

func TestPlanSQLiteRebuild_CopiesUnchangedColumnsByName(t *testing.T) {
	d, _ := New(SQLite)

	id := mustRebuildField(t, "id", schema.FieldOptions{Kind: schema.KindInteger, PrimaryKey: true, AutoIncrement: true})
	oldName := mustRebuildField(t, "name", schema.FieldOptions{Kind: schema.KindVarchar, MaxLength: 50})
	newName := mustRebuildField(t, "name", schema.FieldOptions{Kind: schema.KindVarchar, MaxLength: 200})

	oldModel := schema.NewModelBuilder("users").AddField(id).AddField(oldName).Build()
	newModel := schema.NewModelBuilder("users").AddField(id).AddField(newName).Build()

	plan, err := PlanSQLiteRebuild(d, "users", oldModel, newModel, RebuildInputs{})
	require.NoError(t, err)

	fwd := ""
	for _, s := range plan.Forward {
		fwd += s + "\n"
	}
	assert.Contains(t, fwd, "users_new")
	assert.Contains(t, fwd, "INSERT INTO")
	assert.Contains(t, fwd, "DROP TABLE")
	assert.Contains(t, fwd, `ALTER TABLE users_new RENAME TO users`)
}

func TestPlanSQLiteRebuild_BlockedByReferencingTable(t *testing.T) {
	d, _ := New(SQLite)
	id := mustRebuildField(t, "id", schema.FieldOptions{Kind: schema.KindInteger, PrimaryKey: true, AutoIncrement: true})
	m := schema.NewModelBuilder("users").AddField(id).Build()

	_, err := PlanSQLiteRebuild(d, "users", m, m, RebuildInputs{ReferencingTables: []string{"posts"}})
	assert.Error(t, err)
}

func TestPlanSQLiteRebuild_BlockedByTriggerBody(t *testing.T) {
	d, _ := New(SQLite)
	id := mustRebuildField(t, "id", schema.FieldOptions{Kind: schema.KindInteger, PrimaryKey: true, AutoIncrement: true})
	m := schema.NewModelBuilder("users").AddField(id).Build()

	_, err := PlanSQLiteRebuild(d, "users", m, m, RebuildInputs{TriggerBodies: []string{"UPDATE users SET x = 1"}})
	assert.Error(t, err)
}

func TestPlanSQLiteRebuild_PreservesAndConstrainsRelationColumn(t *testing.T) {
	d, _ := New(SQLite)

	id := mustRebuildField(t, "id", schema.FieldOptions{Kind: schema.KindInteger, PrimaryKey: true, AutoIncrement: true})
	oldTitle := mustRebuildField(t, "title", schema.FieldOptions{Kind: schema.KindVarchar, MaxLength: 50})
	newTitle := mustRebuildField(t, "title", schema.FieldOptions{Kind: schema.KindVarchar, MaxLength: 200})

	rel, err := schema.NewRelation("author", "posts", schema.RelationOptions{Kind: schema.HasOne, Target: "users", ForeignKey: "author_id"})
	require.NoError(t, err)

	oldModel := schema.NewModelBuilder("posts").AddField(id).AddField(oldTitle).AddRelation(rel).Build()
	newModel := schema.NewModelBuilder("posts").AddField(id).AddField(newTitle).AddRelation(rel).Build()

	plan, err := PlanSQLiteRebuild(d, "posts", oldModel, newModel, RebuildInputs{})
	require.NoError(t, err)

	fwd := ""
	for _, s := range plan.Forward {
		fwd += s + "\n"
	}
	assert.Contains(t, fwd, "FOREIGN KEY (author_id) REFERENCES users (id)")
	assert.Contains(t, fwd, "INSERT INTO posts_new (")
	assert.Contains(t, fwd, "author_id")
}

func TestSourceExpr_RenamedColumnUsesOldName(t *testing.T) {
	d, _ := New(SQLite)
	oldModel := schema.NewModelBuilder("users").
		AddField(mustRebuildField(t, "nickname", schema.FieldOptions{Kind: schema.KindVarchar, MaxLength: 50})).
		Build()
	newField := mustRebuildField(t, "display_name", schema.FieldOptions{Kind: schema.KindVarchar, MaxLength: 50})

	expr, warn := SourceExpr(d, newField, oldModel, map[string]string{"display_name": "nickname"})
	assert.Equal(t, `"nickname"`, expr)
	assert.Empty(t, warn)
}

func TestSourceExpr_NewNotNullColumnWithoutDefaultWarns(t *testing.T) {
	d, _ := New(SQLite)
	oldModel := schema.NewModelBuilder("users").Build()
	newField := mustRebuildField(t, "total", schema.FieldOptions{Kind: schema.KindInteger})

	expr, warn := SourceExpr(d, newField, oldModel, nil)
	assert.Equal(t, "NULL", expr)
	assert.NotEmpty(t, warn)
}

func TestSourceExpr_NewColumnWithDefaultUsesDefaultLiteral(t *testing.T) {
	d, _ := New(SQLite)
	oldModel := schema.NewModelBuilder("users").Build()
	newField := mustRebuildField(t, "status", schema.FieldOptions{Kind: schema.KindVarchar, MaxLength: 20, Default: schema.StringDefault("pending")})

	expr, warn := SourceExpr(d, newField, oldModel, nil)
	assert.Contains(t, expr, "pending")
	assert.Empty(t, warn)
}
