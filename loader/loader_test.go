package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-five-git/vespertide/migration"
	"github.com/dev-five-git/vespertide/schema"
)

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vespertide.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"modelsDir": "defs"}`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "defs", cfg.ModelsDir)
	assert.Equal(t, "migrations", cfg.MigrationsDir)
	assert.Equal(t, "snake", cfg.TableNamingCase)
	assert.Equal(t, "json", cfg.ModelFormat)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "vespertide.json"))
	assert.Error(t, err)
}

func TestLoadConfigRejectsBadCase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vespertide.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tableNamingCase": "screaming"}`), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadModelsJSONAndYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0755))

	userJSON := `{
	  "$schema": "https://example.com/model.schema.json",
	  "name": "users",
	  "columns": [
	    {"name": "id", "type": "integer", "primary_key": true},
	    {"name": "email", "type": "text", "unique": true},
	    {"name": "bio", "type": {"varchar": {"length": 280}}, "nullable": true}
	  ]
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users.json"), []byte(userJSON), 0644))

	postYAML := `name: posts
columns:
  - name: id
    type: integer
    primary_key: true
  - name: user_id
    type: integer
    foreign_key:
      ref_table: users
      ref_columns: [id]
      on_delete: cascade
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "posts.yaml"), []byte(postYAML), 0644))

	tables, err := LoadModels(dir)
	require.NoError(t, err)
	require.Len(t, tables, 2)

	s, err := schema.NewSchema(tables)
	require.NoError(t, err)
	require.Contains(t, s.Tables, "users")
	require.Contains(t, s.Tables, "posts")

	users := s.Tables["users"]
	assert.Equal(t, schema.TypeVarchar, users.Column("bio").Type.Kind)
	assert.Equal(t, 280, users.Column("bio").Type.Length)

	fk := s.Tables["posts"].Constraint("fk_posts__user_id")
	require.NotNil(t, fk)
	assert.Equal(t, schema.Cascade, fk.OnDelete)
}

func TestLoadModelsMissingDirIsEmpty(t *testing.T) {
	tables, err := LoadModels(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestMigrationRoundTrip(t *testing.T) {
	dir := t.TempDir()
	id := schema.ColumnDef{Name: "id", Type: schema.Simple(schema.TypeInteger)}
	plan := &migration.Plan{
		Version: 1,
		Comment: "add users",
		Actions: []migration.Action{{
			Type:    migration.CreateTable,
			Table:   "users",
			Columns: []schema.ColumnDef{id},
		}},
		CreatedAt: "2024-05-01T00:00:00Z",
	}

	path, err := WriteMigration(dir, plan)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "0001_add_users.json"), path)

	plans, err := LoadMigrations(dir)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, *plan, *plans[0])
}

func TestLoadMigrationsSortsByVersion(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []*migration.Plan{
		{Version: 2, Comment: "second"},
		{Version: 1, Comment: "first"},
		{Version: 10, Comment: "tenth"},
	} {
		_, err := WriteMigration(dir, p)
		require.NoError(t, err)
	}

	plans, err := LoadMigrations(dir)
	require.NoError(t, err)
	require.Len(t, plans, 3)
	assert.Equal(t, []int{1, 2, 10}, []int{plans[0].Version, plans[1].Version, plans[2].Version})
}

func TestLoadMigrationsRejectsMissingVersion(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0000_bad.json"), []byte(`{"actions": []}`), 0644))

	_, err := LoadMigrations(dir)
	assert.Error(t, err)
}

func TestWriteModelTemplate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "user.json")
	require.NoError(t, WriteModelTemplate(path, "user", "json", "https://example.com/model.schema.json"))

	tables, err := LoadModels(dir)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "user", tables[0].Name)
}
