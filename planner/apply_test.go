package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-five-git/vespertide/migration"
	"github.com/dev-five-git/vespertide/schema"
)

func col(name string, ty schema.ColumnType) schema.ColumnDef {
	return schema.ColumnDef{Name: name, Type: ty, Nullable: true}
}

func mustSchema(t *testing.T, tables ...schema.TableDef) *schema.Schema {
	t.Helper()
	s, err := schema.NewSchema(tables)
	require.NoError(t, err)
	return s
}

func usersTable() schema.TableDef {
	id := col("id", schema.Simple(schema.TypeInteger))
	id.PrimaryKey = true
	id.Nullable = false
	return schema.TableDef{Name: "users", Columns: []schema.ColumnDef{id, col("name", schema.Simple(schema.TypeText))}}
}

func postsTable() schema.TableDef {
	id := col("id", schema.Simple(schema.TypeInteger))
	id.PrimaryKey = true
	id.Nullable = false
	userID := col("user_id", schema.Simple(schema.TypeInteger))
	userID.ForeignKey = &schema.ForeignKeyDef{RefTable: "users", RefColumns: []string{"id"}}
	return schema.TableDef{Name: "posts", Columns: []schema.ColumnDef{id, userID}}
}

func TestApplyCreateTable(t *testing.T) {
	s := schema.EmptySchema()
	err := Apply(s, &migration.Action{
		Type:    migration.CreateTable,
		Table:   "users",
		Columns: []schema.ColumnDef{col("id", schema.Simple(schema.TypeInteger))},
	})
	require.Nil(t, err)
	assert.Contains(t, s.Tables, "users")

	err = Apply(s, &migration.Action{Type: migration.CreateTable, Table: "users"})
	require.NotNil(t, err)
	assert.Equal(t, KindInvariantViolation, err.Kind)
}

func TestApplyDeleteTableBlockedByForeignKey(t *testing.T) {
	s := mustSchema(t, usersTable(), postsTable())

	err := Apply(s, &migration.Action{Type: migration.DeleteTable, Table: "users"})
	require.NotNil(t, err)
	assert.Equal(t, KindInvariantViolation, err.Kind)
	assert.Contains(t, s.Tables, "users", "failed apply must leave the schema unchanged")

	require.Nil(t, Apply(s, &migration.Action{Type: migration.DeleteTable, Table: "posts"}))
	require.Nil(t, Apply(s, &migration.Action{Type: migration.DeleteTable, Table: "users"}))
	assert.Empty(t, s.Tables)
}

func TestApplyRenameTableRewritesForeignKeys(t *testing.T) {
	s := mustSchema(t, usersTable(), postsTable())

	require.Nil(t, Apply(s, &migration.Action{Type: migration.RenameTable, From: "users", To: "accounts"}))
	assert.NotContains(t, s.Tables, "users")
	require.Contains(t, s.Tables, "accounts")

	fk := s.Tables["posts"].Constraint("fk_posts__user_id")
	require.NotNil(t, fk)
	assert.Equal(t, "accounts", fk.RefTable)
}

func TestApplyAddColumnRequiresBackfill(t *testing.T) {
	s := mustSchema(t, usersTable())

	age := col("age", schema.Simple(schema.TypeInteger))
	age.Nullable = false
	err := Apply(s, &migration.Action{Type: migration.AddColumn, Table: "users", Column: &age})
	require.NotNil(t, err)
	assert.Equal(t, KindMissingBackfill, err.Kind)
	assert.Equal(t, "users", err.Table)
	assert.Equal(t, "age", err.Column)

	require.Nil(t, Apply(s, &migration.Action{
		Type: migration.AddColumn, Table: "users", Column: &age, FillWith: "0",
	}))
	assert.NotNil(t, s.Tables["users"].Column("age"))
}

func TestApplyDeleteColumnBlockedByConstraint(t *testing.T) {
	s := mustSchema(t, usersTable(), postsTable())

	err := Apply(s, &migration.Action{Type: migration.DeleteColumn, Table: "posts", ColumnName: "user_id"})
	require.NotNil(t, err)
	assert.Equal(t, KindInvariantViolation, err.Kind)

	fk := s.Tables["posts"].Constraint("fk_posts__user_id")
	require.Nil(t, Apply(s, &migration.Action{Type: migration.RemoveConstraint, Table: "posts", Constraint: fk.Clone()}))
	require.Nil(t, Apply(s, &migration.Action{Type: migration.DeleteColumn, Table: "posts", ColumnName: "user_id"}))
	assert.Nil(t, s.Tables["posts"].Column("user_id"))
}

func TestApplyRenameColumnRewritesReferences(t *testing.T) {
	s := mustSchema(t, usersTable(), postsTable())

	require.Nil(t, Apply(s, &migration.Action{
		Type: migration.RenameColumn, Table: "users", From: "id", To: "user_pk",
	}))
	assert.NotNil(t, s.Tables["users"].Column("user_pk"))
	pk := s.Tables["users"].PrimaryKey()
	require.NotNil(t, pk)
	assert.Equal(t, []string{"user_pk"}, pk.Columns)

	fk := s.Tables["posts"].Constraint("fk_posts__user_id")
	require.NotNil(t, fk)
	assert.Equal(t, []string{"user_pk"}, fk.RefColumns)
}

func TestApplyModifyColumnFamily(t *testing.T) {
	s := mustSchema(t, usersTable())

	newType := schema.Varchar(120)
	require.Nil(t, Apply(s, &migration.Action{
		Type: migration.ModifyColumnType, Table: "users", ColumnName: "name", NewType: &newType,
	}))
	assert.Equal(t, schema.TypeVarchar, s.Tables["users"].Column("name").Type.Kind)

	nullable := false
	require.Nil(t, Apply(s, &migration.Action{
		Type: migration.ModifyColumnNullable, Table: "users", ColumnName: "name", Nullable: &nullable,
	}))
	assert.False(t, s.Tables["users"].Column("name").Nullable)

	def := "'anon'"
	require.Nil(t, Apply(s, &migration.Action{
		Type: migration.ModifyColumnDefault, Table: "users", ColumnName: "name", NewDefault: &def,
	}))
	require.NotNil(t, s.Tables["users"].Column("name").Default)
	assert.Equal(t, "'anon'", *s.Tables["users"].Column("name").Default)

	require.Nil(t, Apply(s, &migration.Action{
		Type: migration.ModifyColumnDefault, Table: "users", ColumnName: "name",
	}))
	assert.Nil(t, s.Tables["users"].Column("name").Default)

	comment := "display name"
	require.Nil(t, Apply(s, &migration.Action{
		Type: migration.ModifyColumnComment, Table: "users", ColumnName: "name", NewComment: &comment,
	}))
	require.NotNil(t, s.Tables["users"].Column("name").Comment)
}

func TestApplyConstraintNameUniqueAcrossSchema(t *testing.T) {
	s := mustSchema(t, usersTable(), postsTable())

	err := Apply(s, &migration.Action{
		Type:  migration.AddConstraint,
		Table: "users",
		Constraint: &schema.TableConstraint{
			Type: schema.UniqueConstraint, Name: "fk_posts__user_id", Columns: []string{"name"},
		},
	})
	require.NotNil(t, err)
	assert.Equal(t, KindInvariantViolation, err.Kind)
}

func TestApplyIndexLifecycle(t *testing.T) {
	s := mustSchema(t, usersTable())

	require.Nil(t, Apply(s, &migration.Action{
		Type:  migration.AddIndex,
		Table: "users",
		Index: &schema.IndexDef{Name: "ix_users__name", Columns: []string{"name"}},
	}))
	assert.NotNil(t, s.Tables["users"].Index("ix_users__name"))

	err := Apply(s, &migration.Action{
		Type:  migration.AddIndex,
		Table: "users",
		Index: &schema.IndexDef{Name: "ix_users__name", Columns: []string{"name"}},
	})
	require.NotNil(t, err)

	require.Nil(t, Apply(s, &migration.Action{
		Type: migration.RemoveIndex, Table: "users", IndexName: "ix_users__name",
	}))
	assert.Nil(t, s.Tables["users"].Index("ix_users__name"))
}

func TestApplyEnumLifecycle(t *testing.T) {
	s := schema.EmptySchema()

	require.Nil(t, Apply(s, &migration.Action{
		Type: migration.CreateEnum,
		Enum: &schema.EnumDef{Name: "status", Values: []string{"a", "b"}},
	}))
	assert.Contains(t, s.Enums, "status")

	err := Apply(s, &migration.Action{
		Type: migration.CreateEnum,
		Enum: &schema.EnumDef{Name: "status", Values: []string{"x"}},
	})
	require.NotNil(t, err)

	require.Nil(t, Apply(s, &migration.Action{
		Type: migration.AlterEnumAddValue, EnumName: "status", Value: "c",
	}))
	assert.Equal(t, []string{"a", "b", "c"}, s.Enums["status"].Values)

	err = Apply(s, &migration.Action{
		Type: migration.AlterEnumAddValue, EnumName: "status", Value: "a",
	})
	require.NotNil(t, err)
	assert.Equal(t, KindIncompatibleEnumChange, err.Kind)

	// A column using the enum pins it.
	status := col("status", schema.StringEnum("status", "a", "b", "c"))
	require.Nil(t, Apply(s, &migration.Action{
		Type:    migration.CreateTable,
		Table:   "jobs",
		Columns: []schema.ColumnDef{status},
	}))
	err = Apply(s, &migration.Action{Type: migration.DropEnum, EnumName: "status"})
	require.NotNil(t, err)

	require.Nil(t, Apply(s, &migration.Action{Type: migration.DeleteTable, Table: "jobs"}))
	require.Nil(t, Apply(s, &migration.Action{Type: migration.DropEnum, EnumName: "status"}))
	assert.NotContains(t, s.Enums, "status")
}

func TestApplyAlterEnumSyncsColumns(t *testing.T) {
	status := col("status", schema.StringEnum("status", "a", "b"))
	s := mustSchema(t, schema.TableDef{Name: "jobs", Columns: []schema.ColumnDef{status}})

	require.Nil(t, Apply(s, &migration.Action{
		Type: migration.AlterEnumAddValue, EnumName: "status", Value: "c",
	}))
	assert.Equal(t, []string{"a", "b", "c"}, s.Tables["jobs"].Column("status").Type.EnumValues)
}

func TestApplyRawIsNoOp(t *testing.T) {
	s := mustSchema(t, usersTable())
	before := s.Clone()
	require.Nil(t, Apply(s, &migration.Action{Type: migration.Raw, Postgres: "SELECT 1;"}))
	assert.Equal(t, before, s)
}
