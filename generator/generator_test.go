package generator

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

func renderAll(t *testing.T, b Backend, queries []BuiltQuery) []string {
	t.Helper()
	var out []string
	for _, q := range queries {
		if sql := q.SQL(b); sql != "" {
			out = append(out, sql)
		}
	}
	return out
}

func TestCreateTablePostgres(t *testing.T) {
	id := col("id", schema.Simple(schema.TypeInteger))
	id.PrimaryKey = true
	id.Nullable = false
	email := col("email", schema.Simple(schema.TypeText))
	email.Unique = true
	email.Nullable = false

	act := &migration.Action{
		Type:    migration.CreateTable,
		Table:   "user",
		Columns: []schema.ColumnDef{id, email},
	}
	queries, err := BuildActionQueries(Postgres, act, nil)
	require.NoError(t, err)

	sql := renderAll(t, Postgres, queries)
	require.Len(t, sql, 2)
	assert.Equal(t, `CREATE TABLE "user" ("id" INTEGER NOT NULL PRIMARY KEY, "email" TEXT NOT NULL);`, sql[0])
	assert.Equal(t, `CREATE UNIQUE INDEX "uq_user__email" ON "user" ("email");`, sql[1])
}

func TestBackendQuoting(t *testing.T) {
	act := &migration.Action{
		Type:    migration.CreateTable,
		Table:   "users",
		Columns: []schema.ColumnDef{col("id", schema.Simple(schema.TypeInteger))},
	}

	pg, err := BuildActionQueries(Postgres, act, nil)
	require.NoError(t, err)
	assert.Contains(t, pg[0].SQL(Postgres), `"users"`)

	my, err := BuildActionQueries(MySQL, act, nil)
	require.NoError(t, err)
	assert.Contains(t, my[0].SQL(MySQL), "`users`")

	lite, err := BuildActionQueries(SQLite, act, nil)
	require.NoError(t, err)
	assert.Contains(t, lite[0].SQL(SQLite), `"users"`)
}

func TestRenameTable(t *testing.T) {
	act := &migration.Action{Type: migration.RenameTable, From: "a", To: "b"}

	pg, err := BuildActionQueries(Postgres, act, nil)
	require.NoError(t, err)
	assert.Equal(t, `ALTER TABLE "a" RENAME TO "b";`, pg[0].SQL(Postgres))

	my, err := BuildActionQueries(MySQL, act, nil)
	require.NoError(t, err)
	assert.Equal(t, "RENAME TABLE `a` TO `b`;", my[0].SQL(MySQL))
}

func TestAddColumnSimple(t *testing.T) {
	nickname := col("nickname", schema.Simple(schema.TypeText))
	act := &migration.Action{Type: migration.AddColumn, Table: "users", Column: &nickname}

	queries, err := BuildActionQueries(Postgres, act, nil)
	require.NoError(t, err)
	assert.Equal(t, `ALTER TABLE "users" ADD COLUMN "nickname" TEXT;`, queries[0].SQL(Postgres))
}

func TestAddColumnWithBackfillPostgres(t *testing.T) {
	age := col("age", schema.Simple(schema.TypeInteger))
	age.Nullable = false
	act := &migration.Action{Type: migration.AddColumn, Table: "users", Column: &age, FillWith: "0"}

	queries, err := BuildActionQueries(Postgres, act, nil)
	require.NoError(t, err)
	sql := renderAll(t, Postgres, queries)
	require.Len(t, sql, 3)
	assert.Equal(t, `ALTER TABLE "users" ADD COLUMN "age" INTEGER;`, sql[0])
	assert.Equal(t, `UPDATE "users" SET "age" = 0;`, sql[1])
	assert.Equal(t, `ALTER TABLE "users" ALTER COLUMN "age" SET NOT NULL;`, sql[2])
}

func TestModifyColumnNullablePostgres(t *testing.T) {
	nullable := false
	act := &migration.Action{
		Type: migration.ModifyColumnNullable, Table: "t", ColumnName: "c", Nullable: &nullable, FillWith: "'x'",
	}
	queries, err := BuildActionQueries(Postgres, act, nil)
	require.NoError(t, err)
	sql := renderAll(t, Postgres, queries)
	require.Len(t, sql, 2)
	assert.Equal(t, `UPDATE "t" SET "c" = 'x' WHERE "c" IS NULL;`, sql[0])
	assert.Equal(t, `ALTER TABLE "t" ALTER COLUMN "c" SET NOT NULL;`, sql[1])
}

func TestModifyColumnNullableMySQLNeedsSchema(t *testing.T) {
	nullable := false
	act := &migration.Action{
		Type: migration.ModifyColumnNullable, Table: "t", ColumnName: "c", Nullable: &nullable,
	}
	_, err := BuildActionQueries(MySQL, act, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackendUnsupported)
}

func TestModifyColumnCommentBackends(t *testing.T) {
	comment := "the name"
	act := &migration.Action{
		Type: migration.ModifyColumnComment, Table: "users", ColumnName: "name", NewComment: &comment,
	}

	pg, err := BuildActionQueries(Postgres, act, nil)
	require.NoError(t, err)
	assert.Equal(t, `COMMENT ON COLUMN "users"."name" IS 'the name';`, pg[0].SQL(Postgres))

	current := mustSchema(t, schema.TableDef{
		Name: "users", Columns: []schema.ColumnDef{col("name", schema.Simple(schema.TypeText))},
	})
	my, err := BuildActionQueries(MySQL, act, current)
	require.NoError(t, err)
	assert.Equal(t, "ALTER TABLE `users` MODIFY COLUMN `name` TEXT COMMENT 'the name';", my[0].SQL(MySQL))

	lite, err := BuildActionQueries(SQLite, act, current)
	require.NoError(t, err)
	assert.Empty(t, lite, "sqlite has no column comments")
}

func TestAddConstraintForeignKeyPostgres(t *testing.T) {
	act := &migration.Action{
		Type:  migration.AddConstraint,
		Table: "posts",
		Constraint: &schema.TableConstraint{
			Type:       schema.ForeignKeyConstraint,
			Name:       "fk_posts__user_id",
			Columns:    []string{"user_id"},
			RefTable:   "users",
			RefColumns: []string{"id"},
			OnDelete:   schema.Cascade,
		},
	}
	queries, err := BuildActionQueries(Postgres, act, nil)
	require.NoError(t, err)
	assert.Equal(t,
		`ALTER TABLE "posts" ADD CONSTRAINT "fk_posts__user_id" FOREIGN KEY ("user_id") REFERENCES "users" ("id") ON DELETE CASCADE;`,
		queries[0].SQL(Postgres))
}

func TestRemoveConstraintPerBackend(t *testing.T) {
	fk := &schema.TableConstraint{
		Type: schema.ForeignKeyConstraint, Name: "fk_x", Columns: []string{"a"},
		RefTable: "t2", RefColumns: []string{"id"},
	}
	act := &migration.Action{Type: migration.RemoveConstraint, Table: "t", Constraint: fk}

	pg, err := BuildActionQueries(Postgres, act, nil)
	require.NoError(t, err)
	assert.Equal(t, `ALTER TABLE "t" DROP CONSTRAINT "fk_x";`, pg[0].SQL(Postgres))

	my, err := BuildActionQueries(MySQL, act, nil)
	require.NoError(t, err)
	assert.Equal(t, "ALTER TABLE `t` DROP FOREIGN KEY `fk_x`;", my[0].SQL(MySQL))
}

func TestIndexStatements(t *testing.T) {
	addAct := &migration.Action{
		Type:  migration.AddIndex,
		Table: "users",
		Index: &schema.IndexDef{Name: "ix_users__name", Columns: []string{"name"}},
	}
	queries, err := BuildActionQueries(Postgres, addAct, nil)
	require.NoError(t, err)
	assert.Equal(t, `CREATE INDEX "ix_users__name" ON "users" ("name");`, queries[0].SQL(Postgres))

	dropAct := &migration.Action{Type: migration.RemoveIndex, Table: "users", IndexName: "ix_users__name"}
	pg, err := BuildActionQueries(Postgres, dropAct, nil)
	require.NoError(t, err)
	assert.Equal(t, `DROP INDEX "ix_users__name";`, pg[0].SQL(Postgres))

	my, err := BuildActionQueries(MySQL, dropAct, nil)
	require.NoError(t, err)
	assert.Equal(t, "DROP INDEX `ix_users__name` ON `users`;", my[0].SQL(MySQL))
}

func TestDefaultConversion(t *testing.T) {
	text := schema.Simple(schema.TypeText)
	assert.Equal(t, "CURRENT_TIMESTAMP", convertDefault(SQLite, "NOW()", &text))
	assert.Equal(t, "CURRENT_TIMESTAMP", convertDefault(Postgres, "now()", &text))
	assert.Equal(t, "(UUID())", convertDefault(MySQL, "gen_random_uuid()", &text))
	assert.Equal(t, "(lower(hex(randomblob(16))))", convertDefault(SQLite, "gen_random_uuid()", &text))
	assert.Equal(t, "'active'", convertDefault(MySQL, "'active'", &text))

	colorEnum := schema.IntegerEnum("color",
		schema.EnumMember{Name: "black", Value: 0},
		schema.EnumMember{Name: "white", Value: 1})
	assert.Equal(t, "1", convertDefault(Postgres, "white", &colorEnum))
	assert.Equal(t, "1", convertDefault(SQLite, "'white'", &colorEnum))
}

func TestRawActionPerBackend(t *testing.T) {
	act := &migration.Action{
		Type:     migration.Raw,
		Postgres: "SELECT 'pg';",
		MySQL:    "SELECT 'my';",
		SQLite:   "SELECT 'lite';",
	}
	queries, err := BuildActionQueries(Postgres, act, nil)
	require.NoError(t, err)
	require.Len(t, queries, 1)
	assert.Equal(t, "SELECT 'pg';", queries[0].SQL(Postgres))
	assert.Equal(t, "SELECT 'my';", queries[0].SQL(MySQL))
	assert.Equal(t, "SELECT 'lite';", queries[0].SQL(SQLite))
}

func TestBuildPlanQueriesThreadsSchema(t *testing.T) {
	// The second action needs the schema state the first one produced.
	id := col("id", schema.Simple(schema.TypeInteger))
	id.PrimaryKey = true
	id.Nullable = false
	c := col("c", schema.Simple(schema.TypeText))
	nullable := false

	plan := &migration.Plan{
		Version: 1,
		Actions: []migration.Action{
			{Type: migration.CreateTable, Table: "t", Columns: []schema.ColumnDef{id, c}},
			{Type: migration.ModifyColumnNullable, Table: "t", ColumnName: "c", Nullable: &nullable, FillWith: "'x'"},
		},
	}
	queries, err := BuildPlanQueries(SQLite, plan, nil)
	require.NoError(t, err)
	sql := renderAll(t, SQLite, queries)
	assert.Contains(t, sql[0], "CREATE TABLE")
	assert.Contains(t, sql[2], "CREATE TABLE") // temp table of the rebuild
}

func TestBuildPlanQueriesStopsAtFirstError(t *testing.T) {
	nullable := false
	plan := &migration.Plan{
		Version: 1,
		Actions: []migration.Action{
			{Type: migration.ModifyColumnNullable, Table: "ghost", ColumnName: "c", Nullable: &nullable},
		},
	}
	_, err := BuildPlanQueries(SQLite, plan, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackendUnsupported)
}
