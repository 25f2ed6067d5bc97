package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-five-git/vespertide/migration"
	"github.com/dev-five-git/vespertide/schema"
)

func actionTypes(actions []migration.Action) []migration.ActionType {
	types := make([]migration.ActionType, len(actions))
	for i := range actions {
		types[i] = actions[i].Type
	}
	return types
}

func TestDiffEmptyToOneTable(t *testing.T) {
	id := col("id", schema.Simple(schema.TypeInteger))
	id.PrimaryKey = true
	id.Nullable = false
	email := col("email", schema.Simple(schema.TypeText))
	email.Unique = true
	email.Nullable = false

	target := mustSchema(t, schema.TableDef{Name: "user", Columns: []schema.ColumnDef{id, email}})

	actions, err := Diff(schema.EmptySchema(), target)
	require.Nil(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, migration.CreateTable, actions[0].Type)
	assert.Equal(t, "user", actions[0].Table)
}

func TestDiffIdentity(t *testing.T) {
	s := mustSchema(t, usersTable(), postsTable())
	actions, err := Diff(s, s)
	require.Nil(t, err)
	assert.Empty(t, actions)
}

func TestDiffCycleFails(t *testing.T) {
	a := schema.TableDef{
		Name:    "a",
		Columns: []schema.ColumnDef{col("id", schema.Simple(schema.TypeInteger)), col("b_id", schema.Simple(schema.TypeInteger))},
		Constraints: []schema.TableConstraint{
			{Type: schema.ForeignKeyConstraint, Name: "fk_a__b_id", Columns: []string{"b_id"}, RefTable: "b", RefColumns: []string{"id"}},
		},
	}
	b := schema.TableDef{
		Name:    "b",
		Columns: []schema.ColumnDef{col("id", schema.Simple(schema.TypeInteger)), col("a_id", schema.Simple(schema.TypeInteger))},
		Constraints: []schema.TableConstraint{
			{Type: schema.ForeignKeyConstraint, Name: "fk_b__a_id", Columns: []string{"a_id"}, RefTable: "a", RefColumns: []string{"id"}},
		},
	}
	target := mustSchema(t, a, b)

	_, err := Diff(schema.EmptySchema(), target)
	require.NotNil(t, err)
	assert.Equal(t, KindCyclicDependency, err.Kind)
	assert.Equal(t, []string{"a", "b"}, err.Unresolved)
}

func TestDiffTopologicalOrderForCreates(t *testing.T) {
	target := mustSchema(t, usersTable(), postsTable())

	actions, err := Diff(schema.EmptySchema(), target)
	require.Nil(t, err)
	var tables []string
	for i := range actions {
		if actions[i].Type == migration.CreateTable {
			tables = append(tables, actions[i].Table)
		}
	}
	assert.Equal(t, []string{"users", "posts"}, tables, "referent must be created before dependent")
}

func TestDiffTopologicalOrderForDeletes(t *testing.T) {
	baseline := mustSchema(t, usersTable(), postsTable())

	actions, err := Diff(baseline, schema.EmptySchema())
	require.Nil(t, err)
	var tables []string
	for i := range actions {
		if actions[i].Type == migration.DeleteTable {
			tables = append(tables, actions[i].Table)
		}
	}
	assert.Equal(t, []string{"posts", "users"}, tables, "dependent must be deleted before referent")
}

func TestDiffDeterministicTieBreak(t *testing.T) {
	zebra := schema.TableDef{Name: "zebra", Columns: []schema.ColumnDef{col("id", schema.Simple(schema.TypeInteger))}}
	apple := schema.TableDef{Name: "apple", Columns: []schema.ColumnDef{col("id", schema.Simple(schema.TypeInteger))}}

	for _, tables := range [][]schema.TableDef{{zebra, apple}, {apple, zebra}} {
		target := mustSchema(t, tables...)
		actions, err := Diff(schema.EmptySchema(), target)
		require.Nil(t, err)
		require.Len(t, actions, 2)
		assert.Equal(t, "apple", actions[0].Table)
		assert.Equal(t, "zebra", actions[1].Table)
	}
}

func TestDiffColumnChanges(t *testing.T) {
	from := mustSchema(t, schema.TableDef{Name: "t", Columns: []schema.ColumnDef{
		col("keep", schema.Simple(schema.TypeText)),
		col("drop_me", schema.Simple(schema.TypeText)),
		col("retype", schema.Simple(schema.TypeInteger)),
	}})
	retyped := col("retype", schema.Simple(schema.TypeBigInteger))
	added := col("added", schema.Simple(schema.TypeText))
	to := mustSchema(t, schema.TableDef{Name: "t", Columns: []schema.ColumnDef{
		col("keep", schema.Simple(schema.TypeText)),
		retyped,
		added,
	}})

	actions, err := Diff(from, to)
	require.Nil(t, err)
	assert.Equal(t, []migration.ActionType{
		migration.DeleteColumn,
		migration.AddColumn,
		migration.ModifyColumnType,
	}, actionTypes(actions), "removes before adds before modifies")
}

func TestDiffConstraintChangeIsRemoveThenAdd(t *testing.T) {
	from := mustSchema(t, schema.TableDef{
		Name:    "t",
		Columns: []schema.ColumnDef{col("a", schema.Simple(schema.TypeText)), col("b", schema.Simple(schema.TypeText))},
		Constraints: []schema.TableConstraint{
			{Type: schema.UniqueConstraint, Name: "uq", Columns: []string{"a"}},
		},
	})
	to := mustSchema(t, schema.TableDef{
		Name:    "t",
		Columns: []schema.ColumnDef{col("a", schema.Simple(schema.TypeText)), col("b", schema.Simple(schema.TypeText))},
		Constraints: []schema.TableConstraint{
			{Type: schema.UniqueConstraint, Name: "uq", Columns: []string{"a", "b"}},
		},
	})

	actions, err := Diff(from, to)
	require.Nil(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, migration.RemoveConstraint, actions[0].Type)
	assert.Equal(t, migration.AddConstraint, actions[1].Type)
	assert.Equal(t, "uq", actions[0].Constraint.Name)
	assert.Equal(t, "uq", actions[1].Constraint.Name)
}

func TestDiffEnumAddition(t *testing.T) {
	from := mustSchema(t, schema.TableDef{Name: "jobs", Columns: []schema.ColumnDef{
		col("status", schema.StringEnum("status", "a", "b")),
	}})
	to := mustSchema(t, schema.TableDef{Name: "jobs", Columns: []schema.ColumnDef{
		col("status", schema.StringEnum("status", "a", "b", "c")),
	}})

	actions, err := Diff(from, to)
	require.Nil(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, migration.AlterEnumAddValue, actions[0].Type)
	assert.Equal(t, "status", actions[0].EnumName)
	assert.Equal(t, "c", actions[0].Value)
}

func TestDiffEnumRemovalFails(t *testing.T) {
	from := mustSchema(t, schema.TableDef{Name: "jobs", Columns: []schema.ColumnDef{
		col("status", schema.StringEnum("status", "a", "b")),
	}})
	to := mustSchema(t, schema.TableDef{Name: "jobs", Columns: []schema.ColumnDef{
		col("status", schema.StringEnum("status", "b")),
	}})

	_, err := Diff(from, to)
	require.NotNil(t, err)
	assert.Equal(t, KindIncompatibleEnumChange, err.Kind)
}

func TestDiffEnumDropComesLast(t *testing.T) {
	from := mustSchema(t, schema.TableDef{Name: "jobs", Columns: []schema.ColumnDef{
		col("status", schema.StringEnum("status", "a")),
	}})
	to := mustSchema(t, schema.TableDef{Name: "jobs", Columns: []schema.ColumnDef{
		col("status", schema.Simple(schema.TypeText)),
	}})

	actions, err := Diff(from, to)
	require.Nil(t, err)
	require.NotEmpty(t, actions)
	last := actions[len(actions)-1]
	assert.Equal(t, migration.DropEnum, last.Type)
	assert.Equal(t, "status", last.EnumName)
}

func TestDiffRoundTrip(t *testing.T) {
	baseline := mustSchema(t, usersTable())

	email := col("email", schema.Simple(schema.TypeText))
	email.Unique = true
	users := usersTable()
	users.Columns = append(users.Columns, email)
	target := mustSchema(t, users, postsTable(), schema.TableDef{
		Name:    "jobs",
		Columns: []schema.ColumnDef{col("status", schema.StringEnum("status", "queued", "done"))},
		Indexes: []schema.IndexDef{{Name: "ix_jobs_status", Columns: []string{"status"}}},
	})

	actions, derr := Diff(baseline, target)
	require.Nil(t, derr)

	working := baseline.Clone()
	for i := range actions {
		require.Nil(t, Apply(working, &actions[i]), "action %d (%s) must apply", i, actions[i].Type)
	}
	assert.Equal(t, target, working, "apply(baseline, diff(baseline, target)) must equal target")

	again, derr := Diff(working, target)
	require.Nil(t, derr)
	assert.Empty(t, again, "diff after round-trip must be empty")
}

func TestDiffIndexChange(t *testing.T) {
	from := mustSchema(t, schema.TableDef{
		Name:    "t",
		Columns: []schema.ColumnDef{col("a", schema.Simple(schema.TypeText))},
		Indexes: []schema.IndexDef{{Name: "ix", Columns: []string{"a"}}},
	})
	to := mustSchema(t, schema.TableDef{
		Name:    "t",
		Columns: []schema.ColumnDef{col("a", schema.Simple(schema.TypeText))},
		Indexes: []schema.IndexDef{{Name: "ix", Columns: []string{"a"}, Unique: true}},
	})

	actions, err := Diff(from, to)
	require.Nil(t, err)
	assert.Equal(t, []migration.ActionType{migration.RemoveIndex, migration.AddIndex}, actionTypes(actions))
}
