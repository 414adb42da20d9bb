package cms

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/siocms/backend/internal/application/viewmodel"
	domain "github.com/siocms/backend/internal/domain/cms"
	"github.com/siocms/backend/internal/domain/shared"
	"github.com/siocms/backend/internal/infrastructure/cache"
	"github.com/siocms/backend/internal/infrastructure/config"
	"github.com/siocms/backend/internal/infrastructure/logger"
	"github.com/siocms/backend/internal/infrastructure/persistence"
	"github.com/siocms/backend/internal/infrastructure/persistence/models"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// GlobalCulture is the culture of configuration entries that apply to every culture
const GlobalCulture = ""

// ConfigurationView is one configuration entry. Entries have a natural key
// (Keyword, Specificulture) and are upserted on save.
type ConfigurationView struct {
	viewmodel.Base[models.ConfigurationModel]

	Keyword        string          `json:"keyword" validate:"required,max=50"`
	Specificulture string          `json:"specificulture" validate:"max=10"`
	Category       string          `json:"category" validate:"max=250"`
	DataType       domain.DataType `json:"dataType" validate:"gte=0,lte=20"`
	Value          string          `json:"value"`
	Description    string          `json:"description" validate:"max=250"`

	svc *Services
}

// NewConfigurationView returns a view over m, or a blank view when m is nil
func (s *Services) NewConfigurationView(m *models.ConfigurationModel) *ConfigurationView {
	v := &ConfigurationView{svc: s}
	if m != nil {
		v.ParseView(m)
	}
	return v
}

func (s *Services) newConfigurationView(_ context.Context, m *models.ConfigurationModel, _ *persistence.Scope) (*ConfigurationView, error) {
	return s.NewConfigurationView(m), nil
}

// ParseView maps m onto the view
func (v *ConfigurationView) ParseView(m *models.ConfigurationModel) {
	v.SetModel(m)
	v.Keyword = m.Keyword
	v.Specificulture = m.Specificulture
	v.Category = m.Category
	v.DataType = domain.DataType(m.DataType)
	v.Value = m.Value
	v.Description = m.Description
}

// Validate checks field rules and that Value parses as the declared data type
func (v *ConfigurationView) Validate(_ context.Context, _ *persistence.Scope) {
	v.ResetErrors()
	v.ValidateFields(v)
	if strings.ContainsAny(v.Keyword, " :/") {
		v.AddError("Keyword: Must not contain spaces, ':' or '/'")
	}

	switch v.DataType {
	case domain.DataTypeBoolean:
		if _, err := strconv.ParseBool(v.Value); err != nil {
			v.AddError(fmt.Sprintf("Value: %q is not a boolean", v.Value))
		}
	case domain.DataTypeDateTime, domain.DataTypeDate:
		if v.Value != "" {
			if _, err := cast.ToTimeE(v.Value); err != nil {
				v.AddError(fmt.Sprintf("Value: %q is not a date", v.Value))
			}
		}
	case domain.DataTypeDuration:
		if _, err := cast.ToDurationE(v.Value); err != nil {
			v.AddError(fmt.Sprintf("Value: %q is not a duration", v.Value))
		}
	}
}

// ParseModel maps the view onto a model. Configuration entries carry no generated
// identity. Cached lookups of the keyword are dropped once the save commits, whether
// or not sub-models are saved.
func (v *ConfigurationView) ParseModel(ctx context.Context, scope *persistence.Scope) (*models.ConfigurationModel, error) {
	m := &models.ConfigurationModel{
		Keyword:        v.Keyword,
		Specificulture: v.Specificulture,
		Category:       v.Category,
		DataType:       int(v.DataType),
		Value:          v.Value,
		Description:    v.Description,
	}
	v.SetModel(m)

	if scope != nil {
		keyword := v.Keyword
		ctx = context.WithoutCancel(ctx)
		scope.AfterCommit(func() {
			v.svc.Config.Invalidate(ctx, keyword)
		})
	}
	return m, nil
}

// CleanupAfterRemove drops cached lookups of the removed keyword
func (v *ConfigurationView) CleanupAfterRemove(ctx context.Context) error {
	return v.svc.Config.invalidate(ctx, v.Keyword)
}

var _ viewmodel.ViewModel[models.ConfigurationModel] = (*ConfigurationView)(nil)

// ConfigurationService resolves typed configuration values.
//
// A lookup for (keyword, culture) reads the culture's entry, then the global entry,
// then the static default from the application config. Stored values are cached.
type ConfigurationService struct {
	repo     *ConfigurationRepository
	cache    cache.Cache
	defaults map[string]string
	prefix   string
	logger   *zap.Logger

	// mu orders cache fills against invalidations; generations counts the
	// invalidations of each keyword
	mu          sync.Mutex
	generations map[string]uint64
}

// NewConfigurationService creates a ConfigurationService
func NewConfigurationService(repo *ConfigurationRepository, c cache.Cache, cfg config.CMSConfig, keyPrefix string, l *zap.Logger) *ConfigurationService {
	return &ConfigurationService{
		repo:        repo,
		cache:       c,
		defaults:    staticDefaults(cfg),
		prefix:      keyPrefix,
		logger:      l,
		generations: make(map[string]uint64),
	}
}

func staticDefaults(cfg config.CMSConfig) map[string]string {
	return map[string]string{
		domain.ConfigThemeID:                strconv.Itoa(cfg.DefaultThemeID),
		domain.ConfigThemeName:              cfg.DefaultTheme,
		domain.ConfigThemeFolder:            cfg.DefaultTheme,
		domain.ConfigDefaultTheme:           cfg.DefaultTheme,
		domain.ConfigDefaultTemplate:        cfg.DefaultTemplate,
		domain.ConfigTemplateExtension:      cfg.TemplateExtension,
		domain.ConfigDefaultTemplateContent: cfg.DefaultTemplateContent,
	}
}

// Lookup returns the raw value of keyword for culture and whether one was found
func (s *ConfigurationService) Lookup(ctx context.Context, keyword, culture string) (string, bool, error) {
	key := s.cacheKey(keyword, culture)
	if value, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		return value, true, nil
	}

	gen := s.generation(keyword)
	value, found, err := s.load(ctx, keyword, culture)
	if err != nil {
		return "", false, err
	}
	if found {
		s.fill(ctx, keyword, key, value, gen)
		return value, true, nil
	}

	if value, ok := s.defaults[keyword]; ok {
		return value, true, nil
	}
	return "", false, nil
}

func (s *ConfigurationService) load(ctx context.Context, keyword, culture string) (string, bool, error) {
	cultures := []string{culture}
	if culture != GlobalCulture {
		cultures = append(cultures, GlobalCulture)
	}
	for _, c := range cultures {
		res := s.repo.GetSingleModel(ctx, persistence.And(
			persistence.Eq("keyword", keyword),
			persistence.Eq("specificulture", c),
		), nil)
		if res.IsSucceed {
			return res.Data.Value, true, nil
		}
		if !shared.IsNotFound(res.Err()) {
			return "", false, res.Err()
		}
	}
	return "", false, nil
}

// Invalidate drops every cached lookup of keyword. Failures are logged.
func (s *ConfigurationService) Invalidate(ctx context.Context, keyword string) {
	if err := s.invalidate(ctx, keyword); err != nil {
		logger.WithLogger(ctx, s.logger).Warn("configuration cache invalidation failed", zap.String("keyword", keyword), zap.Error(err))
	}
}

func (s *ConfigurationService) generation(keyword string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[keyword]
}

// fill caches value unless keyword was invalidated after gen was read, in which
// case value may predate the write that caused the invalidation
func (s *ConfigurationService) fill(ctx context.Context, keyword, key, value string, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[keyword] != gen {
		return
	}
	if err := s.cache.Set(ctx, key, value, 0); err != nil {
		logger.WithLogger(ctx, s.logger).Warn("configuration cache set failed", zap.String("keyword", keyword), zap.Error(err))
	}
}

func (s *ConfigurationService) invalidate(ctx context.Context, keyword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[keyword]++
	if err := s.cache.DeletePrefix(ctx, cache.Key(s.prefix, "config", keyword)+":"); err != nil {
		return shared.NewSecondaryResourceError("invalidate configuration "+keyword, err)
	}
	return nil
}

func (s *ConfigurationService) cacheKey(keyword, culture string) string {
	return cache.Key(s.prefix, "config", keyword, culture)
}

// GetConfig resolves keyword for culture and converts it to T. A keyword with no
// stored entry and no static default fails with NotFound; a value that does not
// convert fails with InvalidInput.
func GetConfig[T any](ctx context.Context, s *ConfigurationService, keyword, culture string) (T, error) {
	var zero T
	raw, found, err := s.Lookup(ctx, keyword, culture)
	if err != nil {
		return zero, err
	}
	if !found {
		return zero, shared.NewNotFoundError("configuration " + keyword)
	}
	v, err := convert[T](raw)
	if err != nil {
		return zero, shared.NewDomainError(shared.CodeInvalidInput,
			fmt.Sprintf("configuration %s: %v", keyword, err))
	}
	return v, nil
}

// GetConfigOr is GetConfig with a fallback for any failure
func GetConfigOr[T any](ctx context.Context, s *ConfigurationService, keyword, culture string, fallback T) T {
	v, err := GetConfig[T](ctx, s, keyword, culture)
	if err != nil {
		return fallback
	}
	return v
}

func convert[T any](raw string) (T, error) {
	var zero T
	var out any
	var err error
	switch any(zero).(type) {
	case string:
		out = raw
	case int:
		out, err = cast.ToIntE(raw)
	case int64:
		out, err = cast.ToInt64E(raw)
	case float64:
		out, err = cast.ToFloat64E(raw)
	case bool:
		out, err = cast.ToBoolE(raw)
	case time.Duration:
		out, err = cast.ToDurationE(raw)
	case time.Time:
		out, err = cast.ToTimeE(raw)
	case []string:
		out, err = cast.ToStringSliceE(raw)
	default:
		return zero, fmt.Errorf("unsupported configuration type %T", zero)
	}
	if err != nil {
		return zero, err
	}
	return out.(T), nil
}
