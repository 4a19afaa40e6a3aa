package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/sqlbuns/internal/sqlbunserr"
)

func TestNewField_NotNullByDefault(t *testing.T) {
	f, err := NewField("email", FieldOptions{Kind: KindVarchar, MaxLength: 255})
	require.NoError(t, err)
	assert.False(t, f.Nullable)
}

func TestNewField_EnumRequiresChoices(t *testing.T) {
	_, err := NewField("status", FieldOptions{Kind: KindEnum})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sqlbunserr.ErrInvalidField))
}

func TestNewField_EnumRejectsDuplicateChoices(t *testing.T) {
	_, err := NewField("status", FieldOptions{Kind: KindEnum, Choices: []string{"a", "a"}})
	require.Error(t, err)
}

func TestNewField_EnumDefaultMustBeAChoice(t *testing.T) {
	_, err := NewField("status", FieldOptions{
		Kind: KindEnum, Choices: []string{"active", "inactive"}, Default: StringDefault("archived"),
	})
	require.Error(t, err)
}

func TestNewField_EnumFunctionDefaultSkipsChoiceCheck(t *testing.T) {
	_, err := NewField("id", FieldOptions{
		Kind: KindEnum, Choices: []string{"a", "b"}, Default: FuncDefault("some_func()"),
	})
	require.NoError(t, err)
}

func TestNewField_AutoIncrementRequiresIntegerPrimaryKey(t *testing.T) {
	_, err := NewField("id", FieldOptions{Kind: KindVarchar, AutoIncrement: true, PrimaryKey: true})
	assert.Error(t, err)

	_, err = NewField("id", FieldOptions{Kind: KindInteger, AutoIncrement: true})
	assert.Error(t, err)

	_, err = NewField("id", FieldOptions{Kind: KindInteger, AutoIncrement: true, PrimaryKey: true})
	assert.NoError(t, err)
}

func TestNewRelation_RequiresTarget(t *testing.T) {
	_, err := NewRelation("posts", "users", RelationOptions{Kind: HasMany})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sqlbunserr.ErrInvalidRelation))
}

func TestNewRelation_ManyToManyGeneratesThroughTable(t *testing.T) {
	r, err := NewRelation("tags", "posts", RelationOptions{Kind: ManyToMany, Target: "tags"})
	require.NoError(t, err)
	assert.Equal(t, "posts_tags_link", r.ThroughTable)
}

func TestNewRelation_ManyToManyHonorsExplicitThroughTable(t *testing.T) {
	r, err := NewRelation("tags", "posts", RelationOptions{Kind: ManyToMany, Target: "tags", ThroughTable: "post_tags"})
	require.NoError(t, err)
	assert.Equal(t, "post_tags", r.ThroughTable)
}

func TestNewTrigger_RequiresAtLeastOneStatement(t *testing.T) {
	_, err := NewTrigger(SlotBeforeInsert, nil)
	assert.Error(t, err)
}

func TestNewTrigger_DerivesTimingAndEventFromSlot(t *testing.T) {
	tr, err := NewTrigger(SlotAfterUpdate, []Statement{{Body: "x"}})
	require.NoError(t, err)
	assert.Equal(t, TimingAfter, tr.Timing)
	assert.Equal(t, EventUpdate, tr.Event)
	assert.Equal(t, "afterUpdate", tr.BaseName)
}

func TestNewStatement_StripsLeadingWhenKeywordAndTrailingSemicolon(t *testing.T) {
	stmt := NewStatement("UPDATE t SET x = 1", "WHEN status = 'active';")
	assert.Equal(t, "status = 'active'", stmt.When)
}

func TestNewStatement_LeavesBarePredicateUntouched(t *testing.T) {
	stmt := NewStatement("UPDATE t SET x = 1", "status = 'active'")
	assert.Equal(t, "status = 'active'", stmt.When)
}

func TestNewStatement_EmptyWhenStaysEmpty(t *testing.T) {
	stmt := NewStatement("UPDATE t SET x = 1", "")
	assert.Equal(t, "", stmt.When)
}

func TestNewStatement_WhenIsCaseInsensitiveAndTrimsWhitespace(t *testing.T) {
	stmt := NewStatement("UPDATE t SET x = 1", "  when NEW.amount > 0 ;  ")
	assert.Equal(t, "NEW.amount > 0", stmt.When)
}

func TestNormalizeStatementForHash(t *testing.T) {
	cases := []struct{ in, want string }{
		{`'INSERT INTO x VALUES (1)'`, "INSERT INTO x VALUES (1);"},
		{"  a    b   ;;", "a b;"},
		{`SET "x" = 1`, "SET 'x' = 1;"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizeStatementForHash(c.in))
	}
}

func TestModelBuilder_PreservesFieldOrderAndDedupes(t *testing.T) {
	id, _ := NewField("id", FieldOptions{Kind: KindInteger, PrimaryKey: true, AutoIncrement: true})
	email, _ := NewField("email", FieldOptions{Kind: KindVarchar})
	emailRedefined, _ := NewField("email", FieldOptions{Kind: KindText})

	m := NewModelBuilder("users").AddField(id).AddField(email).AddField(emailRedefined).Build()

	ordered := m.OrderedFields()
	require.Len(t, ordered, 2)
	assert.Equal(t, "id", ordered[0].Name)
	assert.Equal(t, "email", ordered[1].Name)
	assert.Equal(t, KindText, ordered[1].Kind, "later AddField call must overwrite the field's definition")
}

func TestModel_EffectiveTableName(t *testing.T) {
	m := NewModelBuilder("user").Build()
	assert.Equal(t, "user", m.EffectiveTableName())

	m2 := NewModelBuilder("user").WithMeta(Meta{TableName: "users"}).Build()
	assert.Equal(t, "users", m2.EffectiveTableName())
}

func TestCanonicalView_IsStableUnderFieldReordering(t *testing.T) {
	id, _ := NewField("id", FieldOptions{Kind: KindInteger, PrimaryKey: true, AutoIncrement: true})
	email, _ := NewField("email", FieldOptions{Kind: KindVarchar, MaxLength: 255})

	m1 := NewModelBuilder("users").AddField(id).AddField(email).Build()
	m2 := NewModelBuilder("users").AddField(email).AddField(id).Build()

	v1 := m1.CanonicalView()
	v2 := m2.CanonicalView()
	assert.Equal(t, v1, v2, "field declaration order must not affect the canonical view")
}

func TestIndex_KeyIgnoresFieldOrderAndName(t *testing.T) {
	i1 := Index{Fields: []string{"a", "b"}, Unique: true, Name: "idx_one"}
	i2 := Index{Fields: []string{"b", "a"}, Unique: true, Name: "idx_two"}
	assert.Equal(t, i1.Key(), i2.Key())

	i3 := Index{Fields: []string{"a", "b"}, Unique: false}
	assert.NotEqual(t, i1.Key(), i3.Key())
}

func TestIndex_EffectiveName(t *testing.T) {
	named := Index{Name: "custom_idx"}
	assert.Equal(t, "custom_idx", named.EffectiveName("users"))

	auto := Index{Fields: []string{"email", "status"}}
	assert.Equal(t, "idx_users_email_status", auto.EffectiveName("users"))
}
