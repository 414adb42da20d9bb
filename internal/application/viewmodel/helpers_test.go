package viewmodel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/siocms/backend/internal/domain/shared"
	"github.com/siocms/backend/internal/infrastructure/persistence"
	"github.com/siocms/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var fixedNow = time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

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

// themeView is a minimal view model used to exercise the repository lifecycle
type themeView struct {
	Base[models.ThemeModel]

	ID              int
	Name            string `validate:"required,max=20"`
	Title           string
	CreatedDateTime time.Time

	env *themeEnv
}

// themeEnv holds the collaborators and switches shared by the views of one test
type themeEnv struct {
	ids         IdentityAllocator
	now         func() time.Time
	reserved    string
	failSub     bool
	failRelated bool
	cleanupErr  error
	release     chan struct{}
	subSaved    atomic.Int32
	related     atomic.Int32
	cleaned     atomic.Int32
}

func (e *themeEnv) newView(_ context.Context, m *models.ThemeModel, _ *persistence.Scope) (*themeView, error) {
	v := &themeView{env: e}
	if m != nil {
		v.ParseView(m)
	}
	return v, nil
}

func (v *themeView) ParseView(m *models.ThemeModel) {
	v.SetModel(m)
	v.ID = m.ID
	v.Name = m.Name
	v.Title = m.Title
	v.CreatedDateTime = m.CreatedDateTime
}

func (v *themeView) Validate(_ context.Context, _ *persistence.Scope) {
	v.ResetErrors()
	v.ValidateFields(v)
	if v.env.reserved != "" && v.Name == v.env.reserved {
		v.AddError("Name: " + v.Name + " is reserved")
	}
}

func (v *themeView) ParseModel(ctx context.Context, scope *persistence.Scope) (*models.ThemeModel, error) {
	if v.ID == 0 {
		id, err := v.env.ids.AllocateID(ctx, scope)
		if err != nil {
			return nil, err
		}
		v.ID = id
		v.CreatedDateTime = v.env.now()
	}
	m := &models.ThemeModel{
		ID:              v.ID,
		Name:            v.Name,
		Title:           v.Title,
		CreatedDateTime: v.CreatedDateTime,
	}
	v.SetModel(m)
	return m, nil
}

func (v *themeView) SaveSubModels(_ context.Context, parent *models.ThemeModel, _ *persistence.Scope) shared.Result[bool] {
	if v.env.failSub {
		return shared.Fail[bool](errors.New("child rejected"))
	}
	v.env.subSaved.Add(1)
	return shared.Succeed(true)
}

func (v *themeView) RemoveRelatedModels(_ context.Context, _ *persistence.Scope) shared.Result[bool] {
	if v.env.failRelated {
		return shared.Fail[bool](errors.New("related rejected"))
	}
	v.env.related.Add(1)
	return shared.Succeed(true)
}

func (v *themeView) CleanupAfterRemove(_ context.Context) error {
	if v.env.release != nil {
		<-v.env.release
	}
	v.env.cleaned.Add(1)
	return v.env.cleanupErr
}

var _ ViewModel[models.ThemeModel] = (*themeView)(nil)

func newThemeRepo(t *testing.T, opts ...Option) (*Repository[models.ThemeModel, *themeView], *themeEnv, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	env := &themeEnv{now: func() time.Time { return fixedNow }}
	repo := NewRepository(db, "theme", env.newView, opts...)
	env.ids = repo
	return repo, env, db
}

func seedThemes(t *testing.T, db *gorm.DB, themes ...models.ThemeModel) {
	t.Helper()
	for i := range themes {
		if themes[i].CreatedDateTime.IsZero() {
			themes[i].CreatedDateTime = fixedNow
		}
		require.NoError(t, db.Create(&themes[i]).Error)
	}
}

// mockRecorder is a testify mock of Recorder
type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) ObserveOperation(resource, operation string, succeeded bool, elapsed time.Duration) {
	m.Called(resource, operation, succeeded, elapsed)
}

func (m *mockRecorder) ObserveCleanup(resource string, succeeded bool) {
	m.Called(resource, succeeded)
}
