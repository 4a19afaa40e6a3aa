package diff

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/sqlbuns/internal/dialect"
	"github.com/ridoystarlord/sqlbuns/internal/schema"
	"github.com/ridoystarlord/sqlbuns/internal/sqlbunserr"
)

type fakeProber struct {
	tables  map[string]bool
	columns map[string]bool
}

func (f *fakeProber) TableExists(_ context.Context, table string) (bool, error) {
	return f.tables[table], nil
}

func (f *fakeProber) ColumnExists(_ context.Context, table, column string) (bool, error) {
	return f.columns[table+"."+column], nil
}

func (f *fakeProber) ReferencingTables(_ context.Context, _ string) ([]string, error) { return nil, nil }
func (f *fakeProber) TriggerBodies(_ context.Context) ([]string, error)               { return nil, nil }

type alwaysRenameOracle struct{}

func (alwaysRenameOracle) ConfirmRename(_ context.Context, _, _, _ string, _ schema.FieldKind) bool {
	return true
}

func mustField(t *testing.T, name string, opts schema.FieldOptions) schema.Field {
	t.Helper()
	f, err := schema.NewField(name, opts)
	require.NoError(t, err)
	return f
}

func newOpts(prober *fakeProber, oracle RenameOracle) Options {
	d, _ := dialect.New(dialect.Postgres)
	if oracle == nil {
		oracle = NonInteractiveOracle{}
	}
	return Options{Dialect: d, Prober: prober, Oracle: oracle}
}

func joinAll(stmts []string) string {
	return strings.Join(stmts, "\n")
}

func TestCompute_NewTable_EmitsCreateAndDropReverse(t *testing.T) {
	id := mustField(t, "id", schema.FieldOptions{Kind: schema.KindInteger, PrimaryKey: true, AutoIncrement: true})
	name := mustField(t, "name", schema.FieldOptions{Kind: schema.KindVarchar, MaxLength: 100})
	users := schema.NewModelBuilder("users").AddField(id).AddField(name).Build()

	current := map[string]schema.Model{"users": users}
	opts := newOpts(&fakeProber{}, nil)

	res, err := Compute(context.Background(), opts, nil, current, []string{"users"})
	require.NoError(t, err)

	fwd := joinAll(res.Forward)
	assert.Contains(t, fwd, `CREATE TABLE "users"`)
	assert.Contains(t, res.Reverse, `DROP TABLE IF EXISTS "users";`)
}

func TestCompute_NewTable_WarnsOnNotNullNoDefault(t *testing.T) {
	id := mustField(t, "id", schema.FieldOptions{Kind: schema.KindInteger, PrimaryKey: true, AutoIncrement: true})
	total := mustField(t, "total", schema.FieldOptions{Kind: schema.KindInteger})
	orders := schema.NewModelBuilder("orders").AddField(id).AddField(total).Build()

	opts := newOpts(&fakeProber{}, nil)
	res, err := Compute(context.Background(), opts, nil, map[string]schema.Model{"orders": orders}, []string{"orders"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "orders.total")
}

func TestCompute_NewTable_RejectsCompositePKWithAutoIncrement(t *testing.T) {
	a := mustField(t, "a", schema.FieldOptions{Kind: schema.KindInteger, PrimaryKey: true, AutoIncrement: true})
	b := mustField(t, "b", schema.FieldOptions{Kind: schema.KindInteger, PrimaryKey: true})
	bad := schema.NewModelBuilder("assignments").AddField(a).AddField(b).Build()

	opts := newOpts(&fakeProber{}, nil)
	_, err := Compute(context.Background(), opts, nil, map[string]schema.Model{"assignments": bad}, []string{"assignments"})
	assert.ErrorIs(t, err, sqlbunserr.ErrInvalidSchema)
}

func TestCompute_DroppedTable_EmitsDropAndRecreateReverse(t *testing.T) {
	id := mustField(t, "id", schema.FieldOptions{Kind: schema.KindInteger, PrimaryKey: true, AutoIncrement: true})
	old := schema.NewModelBuilder("legacy").AddField(id).Build()

	opts := newOpts(&fakeProber{}, nil)
	res, err := Compute(context.Background(), opts, map[string]schema.Model{"legacy": old}, map[string]schema.Model{}, nil)
	require.NoError(t, err)

	assert.Contains(t, res.Forward, `DROP TABLE IF EXISTS "legacy";`)
	assert.Contains(t, joinAll(res.Reverse), `CREATE TABLE "legacy"`)
	assert.NotEmpty(t, res.Warnings)
}

func TestCompute_TableRename_DetectedByModelKey(t *testing.T) {
	id := mustField(t, "id", schema.FieldOptions{Kind: schema.KindInteger, PrimaryKey: true, AutoIncrement: true})
	oldModel := schema.NewModelBuilder("users").AddField(id).WithMeta(schema.Meta{TableName: "old_users"}).Build()
	curModel := schema.NewModelBuilder("users").AddField(id).WithMeta(schema.Meta{TableName: "new_users"}).Build()

	opts := newOpts(&fakeProber{}, nil)
	res, err := Compute(context.Background(), opts, map[string]schema.Model{"users": oldModel}, map[string]schema.Model{"users": curModel}, []string{"users"})
	require.NoError(t, err)

	assert.Contains(t, res.Forward, `ALTER TABLE "old_users" RENAME TO "new_users";`)
	assert.Contains(t, res.Reverse, `ALTER TABLE "new_users" RENAME TO "old_users";`)
}

func TestCompute_ColumnAdded_DroppedRenamed(t *testing.T) {
	id := mustField(t, "id", schema.FieldOptions{Kind: schema.KindInteger, PrimaryKey: true, AutoIncrement: true})
	oldExtra := mustField(t, "nickname", schema.FieldOptions{Kind: schema.KindVarchar, MaxLength: 50})
	newExtra := mustField(t, "display_name", schema.FieldOptions{Kind: schema.KindVarchar, MaxLength: 50})

	oldModel := schema.NewModelBuilder("users").AddField(id).AddField(oldExtra).Build()
	curModel := schema.NewModelBuilder("users").AddField(id).AddField(newExtra).Build()

	opts := newOpts(&fakeProber{}, alwaysRenameOracle{})
	res, err := Compute(context.Background(), opts, map[string]schema.Model{"users": oldModel}, map[string]schema.Model{"users": curModel}, []string{"users"})
	require.NoError(t, err)

	assert.Contains(t, res.Forward, `ALTER TABLE "users" RENAME COLUMN "nickname" TO "display_name";`)
	assert.Contains(t, res.Reverse, `ALTER TABLE "users" RENAME COLUMN "display_name" TO "nickname";`)
}

func TestCompute_ColumnAdded_NoRenameMatch_AddsAndDrops(t *testing.T) {
	id := mustField(t, "id", schema.FieldOptions{Kind: schema.KindInteger, PrimaryKey: true, AutoIncrement: true})
	bio := mustField(t, "bio", schema.FieldOptions{Kind: schema.KindText, Nullable: true})

	oldModel := schema.NewModelBuilder("users").AddField(id).Build()
	curModel := schema.NewModelBuilder("users").AddField(id).AddField(bio).Build()

	opts := newOpts(&fakeProber{}, nil)
	res, err := Compute(context.Background(), opts, map[string]schema.Model{"users": oldModel}, map[string]schema.Model{"users": curModel}, []string{"users"})
	require.NoError(t, err)

	assert.Contains(t, joinAll(res.Forward), `ADD COLUMN`)
	assert.Contains(t, res.Reverse, `ALTER TABLE "users" DROP COLUMN "bio";`)
}

func TestCompute_ColumnDropped_EmitsDropAndReAdd(t *testing.T) {
	id := mustField(t, "id", schema.FieldOptions{Kind: schema.KindInteger, PrimaryKey: true, AutoIncrement: true})
	bio := mustField(t, "bio", schema.FieldOptions{Kind: schema.KindText, Nullable: true})

	oldModel := schema.NewModelBuilder("users").AddField(id).AddField(bio).Build()
	curModel := schema.NewModelBuilder("users").AddField(id).Build()

	opts := newOpts(&fakeProber{}, nil)
	res, err := Compute(context.Background(), opts, map[string]schema.Model{"users": oldModel}, map[string]schema.Model{"users": curModel}, []string{"users"})
	require.NoError(t, err)

	assert.Contains(t, res.Forward, `ALTER TABLE "users" DROP COLUMN "bio";`)
	assert.Contains(t, joinAll(res.Reverse), `ADD COLUMN`)
}

func TestCompute_ColumnModified_TypeChange(t *testing.T) {
	id := mustField(t, "id", schema.FieldOptions{Kind: schema.KindInteger, PrimaryKey: true, AutoIncrement: true})
	oldF := mustField(t, "name", schema.FieldOptions{Kind: schema.KindVarchar, MaxLength: 50})
	curF := mustField(t, "name", schema.FieldOptions{Kind: schema.KindVarchar, MaxLength: 200})

	oldModel := schema.NewModelBuilder("users").AddField(id).AddField(oldF).Build()
	curModel := schema.NewModelBuilder("users").AddField(id).AddField(curF).Build()

	opts := newOpts(&fakeProber{}, nil)
	res, err := Compute(context.Background(), opts, map[string]schema.Model{"users": oldModel}, map[string]schema.Model{"users": curModel}, []string{"users"})
	require.NoError(t, err)

	assert.Contains(t, joinAll(res.Forward), `ALTER COLUMN "name" TYPE`)
	assert.Contains(t, joinAll(res.Reverse), `ALTER COLUMN "name" TYPE`)
}

func TestCompute_IndexAddedAndDropped(t *testing.T) {
	id := mustField(t, "id", schema.FieldOptions{Kind: schema.KindInteger, PrimaryKey: true, AutoIncrement: true})
	email := mustField(t, "email", schema.FieldOptions{Kind: schema.KindVarchar, MaxLength: 255})

	oldModel := schema.NewModelBuilder("users").AddField(id).AddField(email).
		WithMeta(schema.Meta{Indexes: []schema.Index{{Fields: []string{"email"}, Name: "idx_old"}}}).Build()
	curModel := schema.NewModelBuilder("users").AddField(id).AddField(email).
		WithMeta(schema.Meta{Indexes: []schema.Index{{Fields: []string{"id", "email"}, Unique: true, Name: "idx_new"}}}).Build()

	opts := newOpts(&fakeProber{}, nil)
	res, err := Compute(context.Background(), opts, map[string]schema.Model{"users": oldModel}, map[string]schema.Model{"users": curModel}, []string{"users"})
	require.NoError(t, err)

	assert.Contains(t, res.Forward, `DROP INDEX IF EXISTS "idx_old";`)
	assert.Contains(t, res.Forward, `CREATE UNIQUE INDEX "idx_new" ON "users" ("id", "email");`)
}

func TestCompute_Relation_CreateNowWhenTargetColumnExists(t *testing.T) {
	id := mustField(t, "id", schema.FieldOptions{Kind: schema.KindInteger, PrimaryKey: true, AutoIncrement: true})
	rel, err := schema.NewRelation("author", "posts", schema.RelationOptions{Kind: schema.HasOne, Target: "users", ForeignKey: "author_id"})
	require.NoError(t, err)
	posts := schema.NewModelBuilder("posts").AddField(id).AddRelation(rel).Build()

	prober := &fakeProber{tables: map[string]bool{"users": true}, columns: map[string]bool{"users.id": true}}
	opts := newOpts(prober, nil)

	res, err := Compute(context.Background(), opts, nil, map[string]schema.Model{"posts": posts}, []string{"posts"})
	require.NoError(t, err)

	assert.Contains(t, joinAll(res.Forward), "FOREIGN KEY")
	assert.Contains(t, res.Forward, `CREATE INDEX IF NOT EXISTS "idx_posts_author_id" ON "posts" ("author_id");`)
	assert.Contains(t, res.Reverse, `DROP INDEX IF EXISTS "idx_posts_author_id";`)
}

func TestCompute_Relation_DefersWhenTargetInBatchOnly(t *testing.T) {
	id := mustField(t, "id", schema.FieldOptions{Kind: schema.KindInteger, PrimaryKey: true, AutoIncrement: true})
	rel, err := schema.NewRelation("author", "posts", schema.RelationOptions{Kind: schema.HasOne, Target: "users", ForeignKey: "author_id"})
	require.NoError(t, err)
	posts := schema.NewModelBuilder("posts").AddField(id).AddRelation(rel).Build()
	users := schema.NewModelBuilder("users").AddField(id).Build()

	opts := newOpts(&fakeProber{}, nil)
	current := map[string]schema.Model{"posts": posts, "users": users}

	// currentOrder already reflects C4's topological resolution: users
	// (the referenced base) is created before posts (the owner), even
	// though posts was the one carrying the relation.
	res, err := Compute(context.Background(), opts, nil, current, []string{"users", "posts"})
	require.NoError(t, err)

	var postsCreate string
	for _, stmt := range res.Forward {
		if strings.HasPrefix(stmt, `CREATE TABLE "posts"`) {
			postsCreate = stmt
			break
		}
	}
	require.NotEmpty(t, postsCreate, "expected a CREATE TABLE \"posts\" statement in forward SQL")

	// S4: the deferred FK is injected inline as a table-level clause of
	// posts's own CREATE TABLE, not flushed afterward as ALTER TABLE.
	assert.Contains(t, postsCreate, `FOREIGN KEY ("author_id") REFERENCES "users" ("id")`)
	for _, stmt := range res.Forward {
		assert.NotContains(t, stmt, "ADD CONSTRAINT", "relation to an in-batch table must not be deferred to a trailing ALTER TABLE")
	}

	createUsersIdx := strings.Index(joinAll(res.Forward), `CREATE TABLE "users"`)
	createPostsIdx := strings.Index(joinAll(res.Forward), `CREATE TABLE "posts"`)
	assert.Less(t, createUsersIdx, createPostsIdx)
}

func TestCompute_Relation_ErrorsWhenTargetUnresolvable(t *testing.T) {
	id := mustField(t, "id", schema.FieldOptions{Kind: schema.KindInteger, PrimaryKey: true, AutoIncrement: true})
	rel, err := schema.NewRelation("author", "posts", schema.RelationOptions{Kind: schema.HasOne, Target: "ghosts", ForeignKey: "author_id"})
	require.NoError(t, err)
	posts := schema.NewModelBuilder("posts").AddField(id).AddRelation(rel).Build()

	opts := newOpts(&fakeProber{}, nil)
	_, err = Compute(context.Background(), opts, nil, map[string]schema.Model{"posts": posts}, []string{"posts"})
	assert.Error(t, err)
}

func newSQLiteOpts(prober *fakeProber) Options {
	d, _ := dialect.New(dialect.SQLite)
	return Options{Dialect: d, Prober: prober, Oracle: NonInteractiveOracle{}}
}

func TestCompute_Relation_AddedOnExistingSQLiteTable_RoutesThroughRebuild(t *testing.T) {
	id := mustField(t, "id", schema.FieldOptions{Kind: schema.KindInteger, PrimaryKey: true, AutoIncrement: true})
	oldPosts := schema.NewModelBuilder("posts").AddField(id).Build()

	rel, err := schema.NewRelation("author", "posts", schema.RelationOptions{Kind: schema.HasOne, Target: "users", ForeignKey: "author_id"})
	require.NoError(t, err)
	curPosts := schema.NewModelBuilder("posts").AddField(id).AddRelation(rel).Build()
	users := schema.NewModelBuilder("users").AddField(id).Build()

	opts := newSQLiteOpts(&fakeProber{})
	old := map[string]schema.Model{"posts": oldPosts}
	current := map[string]schema.Model{"posts": curPosts, "users": users}

	res, err := Compute(context.Background(), opts, old, current, []string{"posts", "users"})
	require.NoError(t, err)

	fwd := joinAll(res.Forward)
	assert.Contains(t, fwd, `FOREIGN KEY (author_id) REFERENCES users (id)`)
	assert.Contains(t, fwd, `CREATE TABLE posts_new`)
	assert.NotContains(t, fwd, "unsupported")
}

func TestCompute_ManyToMany_CreatesThroughTable(t *testing.T) {
	id := mustField(t, "id", schema.FieldOptions{Kind: schema.KindInteger, PrimaryKey: true, AutoIncrement: true})
	rel, err := schema.NewRelation("tags", "posts", schema.RelationOptions{Kind: schema.ManyToMany, Target: "tags"})
	require.NoError(t, err)
	posts := schema.NewModelBuilder("posts").AddField(id).AddRelation(rel).Build()
	tags := schema.NewModelBuilder("tags").AddField(id).Build()

	opts := newOpts(&fakeProber{}, nil)
	current := map[string]schema.Model{"posts": posts, "tags": tags}

	res, err := Compute(context.Background(), opts, nil, current, []string{"posts", "tags"})
	require.NoError(t, err)

	assert.Contains(t, joinAll(res.Forward), rel.ThroughTable)
}
