package migration

import (
	"testing"
	"time"

	"github.com/siocms/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newSQLiteMigrator(t *testing.T) (*Migrator, *gorm.DB, *observer.ObservedLogs) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	core, logs := observer.New(zap.InfoLevel)
	m, err := New(sqlDB, DialectSQLite, zap.New(core))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m, db, logs
}

func TestNew_UnsupportedDialect(t *testing.T) {
	_, err := Source("mysql")
	assert.ErrorContains(t, err, `unsupported migration dialect "mysql"`)

	_, err = New(nil, "mysql", zap.NewNop())
	assert.Error(t, err)
}

func TestMigrator_UpMatchesModels(t *testing.T) {
	m, db, logs := newSQLiteMigrator(t)

	require.NoError(t, m.Up())

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.EqualValues(t, 2, version)
	assert.False(t, dirty)
	assert.Equal(t, 1, logs.FilterMessage("Migrations completed").Len())
	assert.Equal(t, DialectSQLite, m.Dialect())

	for _, model := range models.All() {
		stmt := &gorm.Statement{DB: db}
		require.NoError(t, stmt.Parse(model))
		require.True(t, db.Migrator().HasTable(model), stmt.Schema.Table)
		for _, field := range stmt.Schema.Fields {
			if field.DBName == "" {
				continue
			}
			assert.True(t, db.Migrator().HasColumn(model, field.DBName), "%s.%s", stmt.Schema.Table, field.DBName)
		}
	}
	assert.True(t, db.Migrator().HasIndex(&models.TemplateModel{}, "idx_template_lookup"))

	image := "/content/news.png"
	module := models.ModuleModel{Specificulture: "en-us", Name: "news", Image: &image, CreatedDateTime: time.Now()}
	require.NoError(t, db.Create(&module).Error)
	assert.Equal(t, 1, module.ID)

	require.NoError(t, m.Up())
	assert.Equal(t, 1, logs.FilterMessage("No migrations to apply").Len())
}

func TestMigrator_StepsAndDown(t *testing.T) {
	m, db, _ := newSQLiteMigrator(t)
	require.NoError(t, m.Up())

	require.NoError(t, m.Steps(-1))

	version, _, err := m.Version()
	require.NoError(t, err)
	assert.EqualValues(t, 1, version)
	assert.True(t, db.Migrator().HasTable(&models.ModuleModel{}))
	assert.False(t, db.Migrator().HasColumn(&models.ModuleModel{}, "image"))

	require.NoError(t, m.GoTo(2))
	assert.True(t, db.Migrator().HasColumn(&models.ModuleModel{}, "image"))

	require.NoError(t, m.Down())

	version, _, err = m.Version()
	require.NoError(t, err)
	assert.EqualValues(t, 0, version)
	for _, model := range models.All() {
		assert.False(t, db.Migrator().HasTable(model))
	}
	require.NoError(t, m.Down(), "nothing left to roll back")
}

func TestMigrator_ForceAndDrop(t *testing.T) {
	m, db, logs := newSQLiteMigrator(t)
	require.NoError(t, m.Steps(1))

	require.NoError(t, m.Force(2))
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.EqualValues(t, 2, version)
	assert.False(t, dirty)
	assert.Equal(t, 1, logs.FilterMessage("Forcing migration version").Len())

	require.NoError(t, m.Drop())
	assert.False(t, db.Migrator().HasTable(&models.ThemeModel{}))
}

func TestMigrator_DropAfterInserts(t *testing.T) {
	m, db, logs := newSQLiteMigrator(t)
	require.NoError(t, m.Up())

	for _, name := range []string{"Default", "Dark"} {
		theme := models.ThemeModel{Name: name, CreatedDateTime: time.Now()}
		require.NoError(t, db.Create(&theme).Error)
		assert.NotZero(t, theme.ID)
	}

	require.NoError(t, m.Drop())
	assert.Equal(t, 1, logs.FilterMessage("Database dropped").Len())
	assert.False(t, db.Migrator().HasTable(&models.ThemeModel{}))

	var sequences int64
	require.NoError(t, db.Raw("SELECT COUNT(*) FROM sqlite_master WHERE name = 'sqlite_sequence'").Scan(&sequences).Error)
	assert.Zero(t, sequences)
}
