package cms

import (
	"context"
	"testing"
	"time"

	domain "github.com/siocms/backend/internal/domain/cms"
	"github.com/siocms/backend/internal/domain/shared"
	"github.com/siocms/backend/internal/infrastructure/persistence"
	"github.com/siocms/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) seedConfig(t *testing.T, keyword, culture, value string) {
	t.Helper()
	require.NoError(t, e.db.Create(&models.ConfigurationModel{Keyword: keyword, Specificulture: culture, Value: value}).Error)
}

func TestConfigurationService_FallbackChain(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedConfig(t, "SiteName", GlobalCulture, "Global Site")
	env.seedConfig(t, "SiteName", "vi-vn", "Trang")

	tests := []struct {
		name    string
		keyword string
		culture string
		want    string
	}{
		{name: "culture entry", keyword: "SiteName", culture: "vi-vn", want: "Trang"},
		{name: "global entry", keyword: "SiteName", culture: "en-us", want: "Global Site"},
		{name: "static default", keyword: domain.ConfigDefaultTemplate, culture: "en-us", want: "_Default"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetConfig[string](ctx, env.svc.Config, tt.keyword, tt.culture)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetConfig_TypedValues(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedConfig(t, "PageSize", GlobalCulture, "15")
	env.seedConfig(t, "Maintenance", GlobalCulture, "true")
	env.seedConfig(t, "SessionTimeout", GlobalCulture, "90m")
	env.seedConfig(t, "Launch", GlobalCulture, "2024-05-01T10:30:00Z")
	env.seedConfig(t, "Broken", GlobalCulture, "lots")

	size, err := GetConfig[int](ctx, env.svc.Config, "PageSize", "en-us")
	require.NoError(t, err)
	assert.Equal(t, 15, size)

	on, err := GetConfig[bool](ctx, env.svc.Config, "Maintenance", "en-us")
	require.NoError(t, err)
	assert.True(t, on)

	timeout, err := GetConfig[time.Duration](ctx, env.svc.Config, "SessionTimeout", "en-us")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, timeout)

	launch, err := GetConfig[time.Time](ctx, env.svc.Config, "Launch", "en-us")
	require.NoError(t, err)
	assert.True(t, fixedNow.Equal(launch))

	themeID, err := GetConfig[int](ctx, env.svc.Config, domain.ConfigThemeID, "en-us")
	require.NoError(t, err)
	assert.Equal(t, 1, themeID, "static default converts too")

	_, err = GetConfig[int](ctx, env.svc.Config, "Broken", "en-us")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = GetConfig[string](ctx, env.svc.Config, "Nope", "en-us")
	assert.True(t, shared.IsNotFound(err))

	assert.Equal(t, 7, GetConfigOr(ctx, env.svc.Config, "Broken", "en-us", 7))
	assert.Equal(t, "x", GetConfigOr(ctx, env.svc.Config, "Nope", "en-us", "x"))
}

func TestConfigurationService_CachesUntilSaved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedConfig(t, "SiteName", GlobalCulture, "Before")

	got, err := GetConfig[string](ctx, env.svc.Config, "SiteName", "en-us")
	require.NoError(t, err)
	require.Equal(t, "Before", got)

	require.NoError(t, env.db.Model(&models.ConfigurationModel{}).
		Where("keyword = ?", "SiteName").Update("value", "Behind the cache").Error)
	got, err = GetConfig[string](ctx, env.svc.Config, "SiteName", "en-us")
	require.NoError(t, err)
	assert.Equal(t, "Before", got, "writes that bypass the repository are not seen")

	v := env.svc.NewConfigurationView(nil)
	v.Keyword = "SiteName"
	v.Specificulture = GlobalCulture
	v.Value = "After"
	res := env.svc.Configurations.SaveModel(ctx, v, true, nil)
	require.True(t, res.IsSucceed, res.Errors)

	got, err = GetConfig[string](ctx, env.svc.Config, "SiteName", "en-us")
	require.NoError(t, err)
	assert.Equal(t, "After", got)
	assert.EqualValues(t, 1, env.count(t, &models.ConfigurationModel{}), "saved by natural key")
}

func TestConfigurationService_SaveWithoutSubModelsInvalidates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedConfig(t, "SiteName", GlobalCulture, "Before")
	_, err := GetConfig[string](ctx, env.svc.Config, "SiteName", "en-us")
	require.NoError(t, err)
	require.Equal(t, 1, env.cache.Count())

	v := env.svc.NewConfigurationView(nil)
	v.Keyword = "SiteName"
	v.Value = "After"
	res := env.svc.Configurations.SaveModel(ctx, v, false, nil)
	require.True(t, res.IsSucceed, res.Errors)

	assert.Zero(t, env.cache.Count())
	got, err := GetConfig[string](ctx, env.svc.Config, "SiteName", "en-us")
	require.NoError(t, err)
	assert.Equal(t, "After", got)
}

func TestConfigurationService_StaleFillIsDropped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.svc.Config
	key := svc.cacheKey("SiteName", "en-us")

	gen := svc.generation("SiteName")
	require.NoError(t, svc.invalidate(ctx, "SiteName"))
	svc.fill(ctx, "SiteName", key, "Stale", gen)
	assert.Zero(t, env.cache.Count(), "a value read before the invalidation is not cached")

	svc.fill(ctx, "SiteName", key, "Fresh", svc.generation("SiteName"))
	value, ok, err := env.cache.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Fresh", value)

	svc.fill(ctx, "Other", svc.cacheKey("Other", "en-us"), "x", svc.generation("Other"))
	assert.Equal(t, 2, env.cache.Count(), "generations are tracked per keyword")
}

func TestConfigurationService_SaveInRolledBackScopeKeepsCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedConfig(t, "SiteName", GlobalCulture, "Before")
	_, err := GetConfig[string](ctx, env.svc.Config, "SiteName", "en-us")
	require.NoError(t, err)
	require.Equal(t, 1, env.cache.Count())

	scope, err := env.svc.Configurations.Transactor().Begin(ctx)
	require.NoError(t, err)
	v := env.svc.NewConfigurationView(nil)
	v.Keyword = "SiteName"
	v.Value = "Never"
	res := env.svc.Configurations.SaveModel(ctx, v, true, scope)
	require.True(t, res.IsSucceed, res.Errors)
	require.NoError(t, scope.Rollback())

	assert.Equal(t, 1, env.cache.Count())
	got, err := GetConfig[string](ctx, env.svc.Config, "SiteName", "en-us")
	require.NoError(t, err)
	assert.Equal(t, "Before", got)
}

func TestConfigurationService_RemoveInvalidates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedConfig(t, "SiteName", GlobalCulture, "Global")
	env.seedConfig(t, "SiteName", "en-us", "English")
	_, err := GetConfig[string](ctx, env.svc.Config, "SiteName", "en-us")
	require.NoError(t, err)

	res, cleanup := env.svc.Configurations.RemoveModel(ctx, persistence.And(
		persistence.Eq("keyword", "SiteName"),
		persistence.Eq("specificulture", "en-us"),
	), false, nil)
	require.True(t, res.IsSucceed, res.Errors)
	require.NoError(t, cleanup.Wait(ctx))

	got, err := GetConfig[string](ctx, env.svc.Config, "SiteName", "en-us")
	require.NoError(t, err)
	assert.Equal(t, "Global", got)
}

func TestConfigurationView_Validate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		keyword  string
		dataType domain.DataType
		value    string
		errors   []string
	}{
		{name: "plain", keyword: "SiteName", value: "anything"},
		{name: "boolean", keyword: "Enabled", dataType: domain.DataTypeBoolean, value: "false"},
		{name: "bad boolean", keyword: "Enabled", dataType: domain.DataTypeBoolean, value: "maybe", errors: []string{`Value: "maybe" is not a boolean`}},
		{name: "bad date", keyword: "Launch", dataType: domain.DataTypeDate, value: "someday", errors: []string{`Value: "someday" is not a date`}},
		{name: "empty date", keyword: "Launch", dataType: domain.DataTypeDate},
		{name: "duration", keyword: "Timeout", dataType: domain.DataTypeDuration, value: "5s"},
		{name: "keyword separator", keyword: "Site:Name", value: "x", errors: []string{"Keyword: Must not contain spaces, ':' or '/'"}},
		{name: "missing keyword", value: "x", errors: []string{"Keyword: This field is required"}},
		{name: "unknown type", keyword: "X", dataType: 21, errors: []string{"DataType: Must be less than or equal to 20"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := env.svc.NewConfigurationView(nil)
			v.Keyword = tt.keyword
			v.DataType = tt.dataType
			v.Value = tt.value
			v.Validate(ctx, nil)
			assert.Equal(t, len(tt.errors) == 0, v.IsValid(), v.Errors())
			if len(tt.errors) > 0 {
				assert.Equal(t, tt.errors, v.Errors())
			}
		})
	}
}
