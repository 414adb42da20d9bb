package cms

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/siocms/backend/internal/infrastructure/cache"
	"github.com/siocms/backend/internal/infrastructure/config"
	"github.com/siocms/backend/internal/infrastructure/persistence/models"
	"github.com/siocms/backend/internal/infrastructure/storage"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var fixedNow = time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

func testCMSConfig() config.CMSConfig {
	return config.CMSConfig{
		DefaultCulture:         "en-us",
		DefaultTheme:           "Default",
		DefaultThemeID:         1,
		DefaultTemplate:        "_Default",
		DefaultTemplateContent: "<div></div>",
		TemplateExtension:      ".html",
		TemplatesFolder:        "Views/Shared/Templates",
		CollisionPolicy:        config.CollisionPolicyRename,
		IdentityStrategy:       config.IdentityStrategySequence,
	}
}

type testEnv struct {
	svc   *Services
	db    *gorm.DB
	fs    afero.Fs
	cache *cache.InMemoryCache
	logs  *observer.ObservedLogs
}

type envOption func(*Deps)

func withCMS(mutate func(*config.CMSConfig)) envOption {
	return func(d *Deps) { mutate(&d.CMS) }
}

func withFiles(wrap func(storage.FileStore) storage.FileStore) envOption {
	return func(d *Deps) { d.Files = wrap(d.Files) }
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func withDB(db *gorm.DB) envOption {
	return func(d *Deps) { d.DB = db }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	fs := afero.NewMemMapFs()
	c := cache.NewInMemoryCache(cache.WithTTL(time.Minute))
	t.Cleanup(func() { _ = c.Close() })
	core, logs := observer.New(zap.DebugLevel)

	deps := Deps{
		Files:    storage.NewLocalFileStore(fs),
		Cache:    c,
		CMS:      testCMSConfig(),
		CacheKey: "test",
		Logger:   zap.New(core),
		Now:      func() time.Time { return fixedNow },
	}
	for _, opt := range opts {
		opt(&deps)
	}
	if deps.DB == nil {
		deps.DB = newTestDB(t)
	}

	svc, err := NewServices(deps)
	require.NoError(t, err)
	return &testEnv{svc: svc, db: deps.DB, fs: fs, cache: c, logs: logs}
}

func (e *testEnv) seedTheme(t *testing.T, id int, name string) {
	t.Helper()
	require.NoError(t, e.db.Create(&models.ThemeModel{ID: id, Name: name, Title: name, CreatedDateTime: fixedNow}).Error)
}

func (e *testEnv) seedTemplate(t *testing.T, m models.TemplateModel) models.TemplateModel {
	t.Helper()
	if m.CreatedDateTime.IsZero() {
		m.CreatedDateTime = fixedNow
	}
	if m.Extension == "" {
		m.Extension = ".html"
	}
	require.NoError(t, e.db.Create(&m).Error)
	return m
}

func (e *testEnv) seedModule(t *testing.T, m models.ModuleModel) models.ModuleModel {
	t.Helper()
	if m.CreatedDateTime.IsZero() {
		m.CreatedDateTime = fixedNow
	}
	if m.Specificulture == "" {
		m.Specificulture = "en-us"
	}
	require.NoError(t, e.db.Create(&m).Error)
	return m
}

func (e *testEnv) readFile(t *testing.T, name string) string {
	t.Helper()
	data, err := afero.ReadFile(e.fs, name)
	require.NoError(t, err)
	return string(data)
}

func (e *testEnv) fileExists(t *testing.T, name string) bool {
	t.Helper()
	ok, err := afero.Exists(e.fs, name)
	require.NoError(t, err)
	return ok
}

func (e *testEnv) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Count(&n).Error)
	return n
}

// failingFiles rejects writes and deletes and delegates reads
type failingFiles struct {
	storage.FileStore
}

var errDiskFull = errors.New("disk full")

func (failingFiles) SaveFile(context.Context, storage.File) error {
	return errDiskFull
}

func (failingFiles) DeleteFile(context.Context, string, string) error {
	return errDiskFull
}
