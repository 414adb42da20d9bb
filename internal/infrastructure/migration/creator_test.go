package migration

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add module image", "add_module_image"},
		{"Add-Module-Image", "add_module_image"},
		{"ADD_MODULE_IMAGE", "add_module_image"},
		{"add__module__image", "add_module_image"},
		{"Add Pages 123", "add_pages_123"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func writeFiles(t *testing.T, fsys afero.Fs, dir string, names ...string) {
	t.Helper()
	require.NoError(t, fsys.MkdirAll(dir, 0o755))
	for _, n := range names {
		require.NoError(t, afero.WriteFile(fsys, filepath.Join(dir, n), []byte("-- test"), 0o644))
	}
}

func TestCreateMigration(t *testing.T) {
	fsys := afero.NewMemMapFs()

	mf, err := CreateMigration(fsys, "sql", "add page tags", "Tags on pages")
	require.NoError(t, err)

	assert.Equal(t, "000001", mf.Version)
	require.Len(t, mf.Paths, 2)
	for _, dialect := range Dialects {
		pair := mf.Paths[dialect]
		assert.Equal(t, filepath.Join("sql", dialect, "000001_add_page_tags.up.sql"), pair.Up)
		assert.Equal(t, filepath.Join("sql", dialect, "000001_add_page_tags.down.sql"), pair.Down)

		up, err := afero.ReadFile(fsys, pair.Up)
		require.NoError(t, err)
		assert.Contains(t, string(up), "add page tags")
		assert.Contains(t, string(up), "Tags on pages")
		assert.Contains(t, string(up), "Write your UP migration SQL here ("+dialect+")")

		down, err := afero.ReadFile(fsys, pair.Down)
		require.NoError(t, err)
		assert.Contains(t, string(down), "Rollback")
		assert.Contains(t, string(down), "Write your DOWN migration SQL here")
	}
}

func TestCreateMigration_NextVersion(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, "sql/postgres", "000001_init_cms.up.sql", "000001_init_cms.down.sql",
		"000002_add_module_image.up.sql", "000002_add_module_image.down.sql")
	writeFiles(t, fsys, "sql/sqlite", "000001_init_cms.up.sql", "000001_init_cms.down.sql",
		"000003_sqlite_only.up.sql", "000003_sqlite_only.down.sql")

	mf, err := CreateMigration(fsys, "sql", "add page tags", "")
	require.NoError(t, err)

	assert.Equal(t, "000004", mf.Version, "highest version across dialects wins")
	names, err := ListMigrations(fsys, "sql/postgres")
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_init_cms", "000002_add_module_image", "000004_add_page_tags"}, names)
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	fsys := afero.NewMemMapFs()

	_, err := CreateMigration(fsys, "sql", "!!!", "")

	assert.Error(t, err)
	exists, _ := afero.DirExists(fsys, "sql/postgres")
	assert.False(t, exists)
}

func TestCreateMigration_ReadOnlyFsFails(t *testing.T) {
	fsys := afero.NewReadOnlyFs(afero.NewMemMapFs())

	_, err := CreateMigration(fsys, "sql", "add page tags", "")

	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, "m",
		"000003_add_products.up.sql", "000003_add_products.down.sql",
		"000001_init_schema.up.sql", "000001_init_schema.down.sql",
		"000002_add_users.up.sql", "000002_add_users.down.sql",
		"README.md", ".gitkeep",
	)
	require.NoError(t, fsys.Mkdir("m/subdir.up.sql", 0o755))

	migrations, err := ListMigrations(fsys, "m")

	require.NoError(t, err)
	assert.Equal(t, []string{"000001_init_schema", "000002_add_users", "000003_add_products"}, migrations)
}

func TestListMigrations_EmptyAndMissing(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.Mkdir("empty", 0o755))

	migrations, err := ListMigrations(fsys, "empty")
	require.NoError(t, err)
	assert.Empty(t, migrations)

	migrations, err = ListMigrations(fsys, "/nonexistent/path")
	require.NoError(t, err)
	assert.Empty(t, migrations)
}

func TestEmbeddedMigrations_SameVersionsPerDialect(t *testing.T) {
	fsys := afero.FromIOFS{FS: embedded}

	postgres, err := ListMigrations(fsys, "sql/postgres")
	require.NoError(t, err)
	sqlite, err := ListMigrations(fsys, "sql/sqlite")
	require.NoError(t, err)

	assert.Equal(t, []string{"000001_init_cms", "000002_add_module_image"}, postgres)
	assert.Equal(t, postgres, sqlite)
}
