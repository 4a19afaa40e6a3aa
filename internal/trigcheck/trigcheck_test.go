package trigcheck

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/sqlbuns/internal/schema"
)

type fakeProber struct {
	tables  map[string]bool
	columns map[string]bool // "table.column"
}

func (f *fakeProber) TableExists(_ context.Context, table string) (bool, error) {
	return f.tables[table], nil
}

func (f *fakeProber) ColumnExists(_ context.Context, table, column string) (bool, error) {
	return f.columns[table+"."+column], nil
}

func (f *fakeProber) ReferencingTables(_ context.Context, _ string) ([]string, error) { return nil, nil }
func (f *fakeProber) TriggerBodies(_ context.Context) ([]string, error)               { return nil, nil }

func TestExtract_Insert(t *testing.T) {
	ref, warns, ok := Extract(`INSERT INTO audit_log (user_id, action) VALUES (NEW.id, 'created')`)
	require.True(t, ok)
	assert.Empty(t, warns)
	assert.Equal(t, "audit_log", ref.Table)
	assert.Equal(t, []string{"user_id", "action"}, ref.Columns)
}

func TestExtract_Update(t *testing.T) {
	ref, _, ok := Extract(`UPDATE users SET updated_at = CURRENT_TIMESTAMP WHERE id = NEW.id`)
	require.True(t, ok)
	assert.Equal(t, "users", ref.Table)
	assert.Equal(t, []string{"updated_at"}, ref.Columns)
}

func TestExtract_Delete(t *testing.T) {
	ref, _, ok := Extract(`DELETE FROM sessions`)
	require.True(t, ok)
	assert.Equal(t, "sessions", ref.Table)
	assert.Empty(t, ref.Columns)
}

func TestExtract_SelectWithJoinWarns(t *testing.T) {
	ref, warns, ok := Extract(`SELECT id FROM orders JOIN users ON users.id = orders.user_id`)
	require.True(t, ok)
	assert.Equal(t, "orders", ref.Table)
	assert.NotEmpty(t, warns)
}

func TestExtract_UnrecognizedStatement(t *testing.T) {
	_, _, ok := Extract(`RAISE(ABORT, 'nope')`)
	assert.False(t, ok)
}

func TestValidate_PassesAgainstLiveTable(t *testing.T) {
	prober := &fakeProber{
		tables:  map[string]bool{"audit_log": true},
		columns: map[string]bool{"audit_log.user_id": true},
	}
	stmts := []schema.Statement{{Body: `INSERT INTO audit_log (user_id) VALUES (NEW.id)`}}

	deferred, _, err := Validate(context.Background(), prober, nil, stmts)
	require.NoError(t, err)
	assert.False(t, deferred)
}

func TestValidate_RejectsMissingColumn(t *testing.T) {
	prober := &fakeProber{tables: map[string]bool{"audit_log": true}}
	stmts := []schema.Statement{{Body: `INSERT INTO audit_log (nonexistent) VALUES (1)`}}

	_, _, err := Validate(context.Background(), prober, nil, stmts)
	assert.Error(t, err)
}

func TestValidate_DefersToInBatchModel(t *testing.T) {
	prober := &fakeProber{tables: map[string]bool{}}
	f, err := schema.NewField("total", schema.FieldOptions{Kind: schema.KindInteger})
	require.NoError(t, err)
	m := schema.NewModelBuilder("orders").AddField(f).Build()
	batch := map[string]schema.Model{"orders": m}

	stmts := []schema.Statement{{Body: `UPDATE orders SET total = 0`}}
	deferred, _, err := Validate(context.Background(), prober, batch, stmts)
	require.NoError(t, err)
	assert.True(t, deferred)
}

func TestValidate_RejectsTableNotFoundAnywhere(t *testing.T) {
	prober := &fakeProber{}
	stmts := []schema.Statement{{Body: `DELETE FROM ghosts`}}

	_, _, err := Validate(context.Background(), prober, nil, stmts)
	assert.Error(t, err)
}
