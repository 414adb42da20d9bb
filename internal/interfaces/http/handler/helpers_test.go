package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/siocms/backend/internal/application/cms"
	"github.com/siocms/backend/internal/infrastructure/cache"
	"github.com/siocms/backend/internal/infrastructure/config"
	"github.com/siocms/backend/internal/infrastructure/persistence/models"
	"github.com/siocms/backend/internal/infrastructure/storage"
	"github.com/siocms/backend/internal/interfaces/http/dto"
	"github.com/siocms/backend/internal/interfaces/http/middleware"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var fixedNow = time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

type apiEnv struct {
	router *gin.Engine
	svc    *cms.Services
	db     *gorm.DB
	fs     afero.Fs
}

func newAPIEnv(t *testing.T) *apiEnv {
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

	fs := afero.NewMemMapFs()
	c := cache.NewInMemoryCache(cache.WithTTL(time.Minute))
	t.Cleanup(func() { _ = c.Close() })

	svc, err := cms.NewServices(cms.Deps{
		DB:    db,
		Files: storage.NewLocalFileStore(fs),
		Cache: c,
		CMS: config.CMSConfig{
			DefaultCulture:         "en-us",
			DefaultTheme:           "Default",
			DefaultThemeID:         1,
			DefaultTemplate:        "_Default",
			DefaultTemplateContent: "<div></div>",
			TemplateExtension:      ".html",
			TemplatesFolder:        "Views/Shared/Templates",
			CollisionPolicy:        config.CollisionPolicyRename,
			IdentityStrategy:       config.IdentityStrategySequence,
		},
		CacheKey: "test",
		Logger:   zap.NewNop(),
		Now:      func() time.Time { return fixedNow },
	})
	require.NoError(t, err)

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Culture("en-us"))
	api := router.Group("/api/v1")
	NewThemeHandler(svc, zap.NewNop()).RegisterRoutes(api)
	NewTemplateHandler(svc, zap.NewNop()).RegisterRoutes(api)
	NewModuleHandler(svc, zap.NewNop()).RegisterRoutes(api)
	NewPageHandler(svc, zap.NewNop()).RegisterRoutes(api)
	NewConfigurationHandler(svc).RegisterRoutes(api)

	return &apiEnv{router: router, svc: svc, db: db, fs: fs}
}

// do sends a request with an optional JSON body and returns the recorder
func (e *apiEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// data decodes the data field of a success response into out
func data(t *testing.T, w *httptest.ResponseRecorder, out any) dto.Response {
	t.Helper()
	var resp struct {
		dto.Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	if out != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, out))
	}
	return resp.Response
}

func (e *apiEnv) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Count(&n).Error)
	return n
}

func (e *apiEnv) seedTheme(t *testing.T, id int, name string) {
	t.Helper()
	require.NoError(t, e.db.Create(&models.ThemeModel{ID: id, Name: name, Title: name, CreatedDateTime: fixedNow}).Error)
}

func (e *apiEnv) seedModule(t *testing.T, id int, name, culture string) {
	t.Helper()
	require.NoError(t, e.db.Create(&models.ModuleModel{ID: id, Name: name, Specificulture: culture, CreatedDateTime: fixedNow}).Error)
}
