package cms

import (
	"context"
	"testing"

	"github.com/siocms/backend/internal/application/viewmodel"
	"github.com/siocms/backend/internal/infrastructure/persistence"
	"github.com/siocms/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThemeView_Save(t *testing.T) {
	env := newTestEnv(t)
	v := env.svc.NewThemeView(nil)
	v.Name = "Blue Ocean"

	res := env.svc.Themes.SaveModel(context.Background(), v, false, nil)

	require.True(t, res.IsSucceed, res.Errors)
	assert.NotZero(t, res.Data.ID)
	assert.Equal(t, "Blue Ocean", res.Data.Title, "title defaults to the name")
	assert.Equal(t, fixedNow, res.Data.CreatedDateTime)
}

func TestThemeView_ValidateName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		errors []string
	}{
		{name: "Default"},
		{name: "", errors: []string{"Name: This field is required"}},
		{name: "!!!", errors: []string{"Name: Must contain at least one letter or digit"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := env.svc.NewThemeView(nil)
			v.Name = tt.name
			v.Validate(ctx, nil)
			assert.Equal(t, len(tt.errors) == 0, v.IsValid())
			if len(tt.errors) > 0 {
				assert.Equal(t, tt.errors, v.Errors())
			}
		})
	}
}

func seedThemeWithTemplates(t *testing.T, env *testEnv) {
	t.Helper()
	ctx := context.Background()
	env.seedTheme(t, 1, "Default")
	for _, name := range []string{"home", "about"} {
		res := env.svc.Templates.SaveModel(ctx, newTemplate(env, name, "<p>"+name+"</p>"), true, nil)
		require.True(t, res.IsSucceed, res.Errors)
	}
	env.seedTemplate(t, models.TemplateModel{ThemeID: 2, ThemeName: "Dark", FolderType: "Pages", FileName: "home", Content: "x"})
}

func TestThemeView_CascadeRemovesTemplatesAndFiles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedThemeWithTemplates(t, env)
	require.True(t, env.fileExists(t, "Views/Shared/Templates/Default/Pages/home.html"))

	res, cleanup := env.svc.Themes.RemoveModel(ctx, persistence.ByID(1), true, nil)

	require.True(t, res.IsSucceed, res.Errors)
	assert.Equal(t, "Default", res.Data.Name)
	require.NoError(t, cleanup.Wait(ctx))
	assert.False(t, env.fileExists(t, "Views/Shared/Templates/Default/Pages/home.html"))
	assert.False(t, env.fileExists(t, "Views/Shared/Templates/Default/Pages/about.html"))
	assert.EqualValues(t, 0, env.count(t, &models.ThemeModel{}))
	assert.EqualValues(t, 1, env.count(t, &models.TemplateModel{}), "other themes keep their templates")
}

func TestThemeView_CascadeInCallerScopeRolledBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedThemeWithTemplates(t, env)

	scope, err := env.svc.Themes.Transactor().Begin(ctx)
	require.NoError(t, err)
	res, cleanup := env.svc.Themes.RemoveModel(ctx, persistence.ByID(1), true, scope)
	require.True(t, res.IsSucceed, res.Errors)

	select {
	case <-cleanup.Done():
		t.Fatal("cleanup finished before the caller's scope ended")
	default:
	}
	require.NoError(t, scope.Rollback())

	assert.ErrorIs(t, cleanup.Wait(ctx), viewmodel.ErrCleanupCancelled)
	assert.True(t, env.fileExists(t, "Views/Shared/Templates/Default/Pages/home.html"))
	assert.EqualValues(t, 1, env.count(t, &models.ThemeModel{}))
	assert.EqualValues(t, 3, env.count(t, &models.TemplateModel{}))
}

func TestThemeView_CascadeInCallerScopeCommitted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedThemeWithTemplates(t, env)

	scope, err := env.svc.Themes.Transactor().Begin(ctx)
	require.NoError(t, err)
	res, cleanup := env.svc.Themes.RemoveModel(ctx, persistence.ByID(1), true, scope)
	require.True(t, res.IsSucceed, res.Errors)
	require.NoError(t, scope.Commit())

	require.NoError(t, cleanup.Wait(ctx))
	assert.False(t, env.fileExists(t, "Views/Shared/Templates/Default/Pages/home.html"))
}

func TestThemeView_CleanupFailureIsReportedSeparately(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedThemeWithTemplates(t, env)
	env.svc.files = failingFiles{env.svc.files}

	res, cleanup := env.svc.Themes.RemoveModel(ctx, persistence.ByID(1), true, nil)

	require.True(t, res.IsSucceed, res.Errors)
	err := cleanup.Wait(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, errDiskFull)
	assert.EqualValues(t, 0, env.count(t, &models.ThemeModel{}))
}
