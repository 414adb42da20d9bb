// Package cms holds the concrete CMS view models (templates, themes, modules, pages,
// page navigations and configuration entries) and the services that resolve them.
package cms

import (
	"context"
	"errors"
	"time"

	"github.com/siocms/backend/internal/application/viewmodel"
	"github.com/siocms/backend/internal/infrastructure/cache"
	"github.com/siocms/backend/internal/infrastructure/config"
	"github.com/siocms/backend/internal/infrastructure/logger"
	"github.com/siocms/backend/internal/infrastructure/persistence"
	"github.com/siocms/backend/internal/infrastructure/persistence/models"
	"github.com/siocms/backend/internal/infrastructure/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Resource names used in messages, logs and metrics
const (
	ResourceTheme         = "theme"
	ResourceTemplate      = "template"
	ResourceModule        = "module"
	ResourcePage          = "page"
	ResourcePageModule    = "page_module"
	ResourceConfiguration = "configuration"
)

// Type aliases for the repositories of each view model
type (
	ThemeRepository         = viewmodel.Repository[models.ThemeModel, *ThemeView]
	TemplateRepository      = viewmodel.Repository[models.TemplateModel, *TemplateView]
	ModuleRepository        = viewmodel.Repository[models.ModuleModel, *ModuleView]
	PageRepository          = viewmodel.Repository[models.PageModel, *PageView]
	PageModuleRepository    = viewmodel.Repository[models.PageModuleModel, *PageModuleView]
	ConfigurationRepository = viewmodel.Repository[models.ConfigurationModel, *ConfigurationView]
)

// Deps are the collaborators the CMS services are built from
type Deps struct {
	DB       *gorm.DB
	Files    storage.FileStore
	Cache    cache.Cache
	CMS      config.CMSConfig
	CacheKey string // cache key prefix
	Logger   *zap.Logger
	Recorder viewmodel.Recorder
	Now      func() time.Time
}

// Services wires one repository per view model and the lookup services on top.
// View models reach their collaborators through it, so it must be built with NewServices.
type Services struct {
	Themes         *ThemeRepository
	Templates      *TemplateRepository
	Modules        *ModuleRepository
	Pages          *PageRepository
	PageModules    *PageModuleRepository
	Configurations *ConfigurationRepository

	TemplateLookup *TemplateService
	Config         *ConfigurationService

	files    storage.FileStore
	cfg      config.CMSConfig
	logger   *zap.Logger
	now      func() time.Time
	cleanups *viewmodel.CleanupTracker
}

// NewServices builds the repositories and services over deps
func NewServices(deps Deps) (*Services, error) {
	if deps.DB == nil {
		return nil, errors.New("cms: database is required")
	}
	if deps.Files == nil {
		return nil, errors.New("cms: file store is required")
	}
	if deps.Cache == nil {
		return nil, errors.New("cms: cache is required")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	s := &Services{
		files:    deps.Files,
		cfg:      deps.CMS,
		logger:   deps.Logger,
		now:      deps.Now,
		cleanups: viewmodel.NewCleanupTracker(),
	}

	common := []viewmodel.Option{
		viewmodel.WithLogger(deps.Logger),
		viewmodel.WithRecorder(deps.Recorder),
		viewmodel.WithIdentityStrategy(viewmodel.IdentityStrategy(deps.CMS.IdentityStrategy)),
		viewmodel.WithCleanupTracker(s.cleanups),
	}
	with := func(fields map[string]bool, def string) []viewmodel.Option {
		return append(append([]viewmodel.Option{}, common...), viewmodel.WithSortFields(fields, def))
	}

	s.Themes = viewmodel.NewRepository(deps.DB, ResourceTheme, s.newThemeView,
		with(persistence.ThemeSortFields, "id")...)
	s.Templates = viewmodel.NewRepository(deps.DB, ResourceTemplate, s.newTemplateView,
		with(persistence.TemplateSortFields, "id")...)
	s.Modules = viewmodel.NewRepository(deps.DB, ResourceModule, s.newModuleView,
		with(persistence.ModuleSortFields, "id")...)
	s.Pages = viewmodel.NewRepository(deps.DB, ResourcePage, s.newPageView,
		with(persistence.PageSortFields, "id")...)
	s.PageModules = viewmodel.NewRepository(deps.DB, ResourcePageModule, s.newPageModuleView,
		with(persistence.PageModuleSortFields, "position")...)
	s.Configurations = viewmodel.NewRepository(deps.DB, ResourceConfiguration, s.newConfigurationView,
		with(persistence.ConfigurationSortFields, "keyword")...)

	s.Config = NewConfigurationService(s.Configurations, deps.Cache, deps.CMS, deps.CacheKey, deps.Logger)
	s.TemplateLookup = NewTemplateService(s)
	return s, nil
}

// WaitCleanups waits for the file and image cleanups of committed removals that are
// still running. It returns an error when ctx ends first.
func (s *Services) WaitCleanups(ctx context.Context) error {
	return s.cleanups.Wait(ctx)
}

func (s *Services) log(ctx context.Context) *logger.ContextLogger {
	return logger.WithLogger(ctx, s.logger)
}

// stamp returns the current instant truncated to microseconds, the precision both
// supported databases keep
func (s *Services) stamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}
