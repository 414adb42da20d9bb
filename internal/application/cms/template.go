package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/siocms/backend/internal/application/viewmodel"
	domain "github.com/siocms/backend/internal/domain/cms"
	"github.com/siocms/backend/internal/domain/shared"
	"github.com/siocms/backend/internal/infrastructure/config"
	"github.com/siocms/backend/internal/infrastructure/persistence"
	"github.com/siocms/backend/internal/infrastructure/persistence/models"
	"github.com/siocms/backend/internal/infrastructure/storage"
	"go.uber.org/zap"
)

// maxCollisionSuffix bounds the search for a free template file name
const maxCollisionSuffix = 1000

// TemplateView is a theme template. Its content lives both in the row and in a file
// under the theme's template folder; the file wins when it has content.
type TemplateView struct {
	viewmodel.Base[models.TemplateModel]

	ID              int        `json:"id"`
	ThemeID         int        `json:"themeId" validate:"required"`
	ThemeName       string     `json:"themeName" validate:"required,max=250"`
	FolderType      string     `json:"folderType" validate:"required,max=50"`
	FileFolder      string     `json:"fileFolder"`
	FileName        string     `json:"fileName" validate:"required,max=250,excludesall=/\\"`
	Extension       string     `json:"extension" validate:"required,max=50,startswith=."`
	Content         string     `json:"content" validate:"required"`
	MobileContent   string     `json:"mobileContent"`
	SpaContent      string     `json:"spaContent"`
	Scripts         string     `json:"scripts"`
	Styles          string     `json:"styles"`
	CreatedDateTime time.Time  `json:"createdDateTime"`
	LastModified    *time.Time `json:"lastModified,omitempty"`
	ModifiedBy      string     `json:"modifiedBy"`

	svc *Services
}

// NewTemplateView returns a view over m, or a blank view when m is nil
func (s *Services) NewTemplateView(m *models.TemplateModel) *TemplateView {
	v := &TemplateView{
		MobileContent: "{}",
		Extension:     s.cfg.TemplateExtension,
		svc:           s,
	}
	if m != nil {
		v.ParseView(m)
	}
	return v
}

func (s *Services) newTemplateView(_ context.Context, m *models.TemplateModel, _ *persistence.Scope) (*TemplateView, error) {
	return s.NewTemplateView(m), nil
}

// ParseView maps m onto the view
func (v *TemplateView) ParseView(m *models.TemplateModel) {
	v.SetModel(m)
	v.ID = m.ID
	v.ThemeID = m.ThemeID
	v.ThemeName = m.ThemeName
	v.FolderType = m.FolderType
	v.FileFolder = m.FileFolder
	v.FileName = m.FileName
	v.Extension = m.Extension
	v.Content = m.Content
	v.MobileContent = m.MobileContent
	v.SpaContent = m.SpaContent
	v.Scripts = m.Scripts
	v.Styles = m.Styles
	v.CreatedDateTime = m.CreatedDateTime
	v.LastModified = m.LastModified
	v.ModifiedBy = m.ModifiedBy
}

// TemplatePath is the path the template is addressed by, e.g. "/Pages/_Home.html"
func (v *TemplateView) TemplatePath() string {
	return "/" + v.FolderType + "/" + v.FileName + v.Extension
}

// TemplateFolder is the root folder of the template's theme
func (v *TemplateView) TemplateFolder() string {
	return path.Join(v.svc.cfg.TemplatesFolder, SeoString(v.ThemeName))
}

// AssetFolder is the public folder holding the theme's static assets
func (v *TemplateView) AssetFolder() string {
	return path.Join(domain.FolderFileRoot, domain.FolderTemplatesAssets, SeoString(v.ThemeName))
}

// MarshalJSON adds the derived paths to the serialised view
func (v *TemplateView) MarshalJSON() ([]byte, error) {
	type Alias TemplateView
	return json.Marshal(struct {
		*Alias
		TemplatePath   string `json:"templatePath"`
		TemplateFolder string `json:"templateFolder"`
		AssetFolder    string `json:"assetFolder"`
	}{
		Alias:          (*Alias)(v),
		TemplatePath:   v.TemplatePath(),
		TemplateFolder: v.TemplateFolder(),
		AssetFolder:    v.AssetFolder(),
	})
}

// ExpandView replaces Content with the template file when the file has content
func (v *TemplateView) ExpandView(ctx context.Context, _ *persistence.Scope) {
	if v.FileName == "" || v.FileFolder == "" {
		return
	}
	file, err := v.svc.files.GetFile(ctx, v.FileName, v.Extension, v.FileFolder)
	if err != nil {
		if !errors.Is(err, storage.ErrFileNotFound) {
			v.svc.log(ctx).Warn("template file unreadable",
				zap.String("file", v.FileName+v.Extension),
				zap.String("folder", v.FileFolder),
				zap.Error(err))
		}
		return
	}
	if strings.TrimSpace(file.Content) != "" {
		v.Content = file.Content
	}
}

// Validate checks field rules, fills ThemeName from the theme row when missing and,
// for a new template, resolves a file name collision within its folder and theme.
func (v *TemplateView) Validate(ctx context.Context, scope *persistence.Scope) {
	v.ResetErrors()
	if v.ThemeName == "" && v.ThemeID != 0 {
		if res := v.svc.Themes.GetSingleModel(ctx, persistence.ByID(v.ThemeID), scope); res.IsSucceed {
			v.ThemeName = res.Data.Name
		}
	}

	v.ValidateFields(v)
	if v.FolderType != "" && !domain.TemplateFolder(v.FolderType).IsValid() {
		v.AddError(fmt.Sprintf("FolderType: %q is not a template folder", v.FolderType))
	}
	if !v.IsValid() || v.ID != 0 {
		return
	}

	name, err := v.freeFileName(ctx, scope)
	switch {
	case err != nil:
		v.AddError("FileName: " + err.Error())
	case name != v.FileName && v.svc.cfg.CollisionPolicy == config.CollisionPolicyReject:
		v.AddError(fmt.Sprintf("FileName: %s already exists in %s", v.FileName, v.FolderType))
	default:
		v.FileName = name
	}
}

// freeFileName returns FileName when no template of the same folder and theme uses
// it, otherwise the first free FileName_N
func (v *TemplateView) freeFileName(ctx context.Context, scope *persistence.Scope) (string, error) {
	candidate := v.FileName
	for n := 1; n <= maxCollisionSuffix; n++ {
		res := v.svc.Templates.Exists(ctx, persistence.And(
			persistence.Eq("file_name", candidate),
			persistence.Eq("folder_type", v.FolderType),
			persistence.Eq("theme_id", v.ThemeID),
		), scope)
		if !res.IsSucceed {
			return "", res.Err()
		}
		if !res.Data {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d", v.FileName, n)
	}
	return "", fmt.Errorf("no free name for %s after %d attempts", v.FileName, maxCollisionSuffix)
}

// ParseModel maps the view onto a model, placing the file under
// {TemplatesFolder}/{ThemeName}/{FolderType}
func (v *TemplateView) ParseModel(ctx context.Context, scope *persistence.Scope) (*models.TemplateModel, error) {
	if v.ID == 0 {
		id, err := v.svc.Templates.AllocateID(ctx, scope)
		if err != nil {
			return nil, err
		}
		v.ID = id
		v.CreatedDateTime = v.svc.stamp()
	} else {
		now := v.svc.stamp()
		v.LastModified = &now
	}
	v.FileFolder = path.Join(v.svc.cfg.TemplatesFolder, v.ThemeName, v.FolderType)
	v.Content = strings.TrimSpace(v.Content)
	v.Scripts = strings.TrimSpace(v.Scripts)
	v.Styles = strings.TrimSpace(v.Styles)

	m := &models.TemplateModel{
		ID:              v.ID,
		ThemeID:         v.ThemeID,
		ThemeName:       v.ThemeName,
		FolderType:      v.FolderType,
		FileFolder:      v.FileFolder,
		FileName:        v.FileName,
		Extension:       v.Extension,
		Content:         v.Content,
		MobileContent:   v.MobileContent,
		SpaContent:      v.SpaContent,
		Scripts:         v.Scripts,
		Styles:          v.Styles,
		CreatedDateTime: v.CreatedDateTime,
		LastModified:    v.LastModified,
		ModifiedBy:      v.ModifiedBy,
	}
	v.SetModel(m)
	return m, nil
}

// SaveSubModels writes the template file once the save commits, so a rolled-back
// save never reaches the file. A failed write is logged and does not fail the save:
// the row still carries the content.
func (v *TemplateView) SaveSubModels(ctx context.Context, _ *models.TemplateModel, scope *persistence.Scope) shared.Result[bool] {
	file := storage.File{
		Name:      v.FileName,
		Extension: v.Extension,
		Folder:    v.FileFolder,
		Content:   v.Content,
	}
	ctx = context.WithoutCancel(ctx)
	scope.AfterCommit(func() {
		if err := v.svc.files.SaveFile(ctx, file); err != nil {
			serr := shared.NewSecondaryResourceError("write template file "+file.FullName(), err)
			v.svc.log(ctx).Warn("template file not written", zap.String("folder", file.Folder), zap.Error(serr))
		}
	})
	return shared.Succeed(true)
}

// CleanupAfterRemove deletes the template file
func (v *TemplateView) CleanupAfterRemove(ctx context.Context) error {
	return v.svc.files.DeleteFile(ctx, v.FileName+v.Extension, v.FileFolder)
}

var _ viewmodel.ViewModel[models.TemplateModel] = (*TemplateView)(nil)

// TemplateService resolves templates of the active theme
type TemplateService struct {
	svc    *Services
	repo   *TemplateRepository
	config *ConfigurationService
	cfg    config.CMSConfig
}

// NewTemplateService creates a TemplateService over the template repository and
// configuration service of svc
func NewTemplateService(svc *Services) *TemplateService {
	return &TemplateService{
		svc:    svc,
		repo:   svc.Templates,
		config: svc.Config,
		cfg:    svc.cfg,
	}
}

// GetTemplateByPath loads the template addressed by "{FolderType}/{FileName}" in the
// active theme of culture, e.g. "Pages/_Home". An extension on the file name is ignored.
func (s *TemplateService) GetTemplateByPath(ctx context.Context, templatePath, culture string, scope *persistence.Scope) shared.Result[*TemplateView] {
	folder, file, ok := splitTemplatePath(templatePath)
	if !ok {
		return shared.Fail[*TemplateView](shared.NewNotFoundError("template"), "Template Not Found")
	}
	themeID, err := GetConfig[int](ctx, s.config, domain.ConfigThemeID, culture)
	if err != nil {
		return shared.Fail[*TemplateView](err)
	}
	name, _, _ := strings.Cut(file, ".")

	return s.repo.GetSingleModel(ctx, persistence.And(
		persistence.Eq("folder_type", folder),
		persistence.Eq("file_name", name),
		persistence.Eq("theme_id", themeID),
	), scope)
}

// GetTemplateByFolder loads the template of folderType whose full file name matches
// the last segment of templatePath, e.g. "Pages/_Home.html", falling back to GetDefault.
func (s *TemplateService) GetTemplateByFolder(ctx context.Context, templatePath, culture string, folderType domain.TemplateFolder, scope *persistence.Scope) *TemplateView {
	_, file, ok := splitTemplatePath(templatePath)
	if ok {
		themeID := GetConfigOr(ctx, s.config, domain.ConfigThemeID, culture, s.cfg.DefaultThemeID)
		res := s.repo.GetSingleModel(ctx, persistence.And(
			persistence.Eq("theme_id", themeID),
			persistence.Eq("folder_type", folderType.String()),
			persistence.Where("file_name || extension = ?", file),
		), scope)
		if res.IsSucceed {
			return res.Data
		}
	}
	return s.GetDefault(ctx, folderType, culture, scope)
}

// GetDefault returns the first template of folderType in the active theme or, when
// the theme has none, an unsaved template built from the configured defaults.
func (s *TemplateService) GetDefault(ctx context.Context, folderType domain.TemplateFolder, culture string, scope *persistence.Scope) *TemplateView {
	theme := GetConfigOr(ctx, s.config, domain.ConfigThemeName, culture, "")
	if theme == "" {
		theme = GetConfigOr(ctx, s.config, domain.ConfigDefaultTheme, GlobalCulture, s.cfg.DefaultTheme)
	}

	res := s.repo.GetModelListBy(ctx, persistence.And(
		persistence.Eq("theme_name", theme),
		persistence.Eq("folder_type", folderType.String()),
		persistence.OrderBy("id", false),
	), scope)
	if res.IsSucceed && len(res.Data) > 0 {
		return res.Data[0]
	}
	if !res.IsSucceed {
		s.svc.log(ctx).Warn("default template lookup failed", zap.String("theme", theme), zap.Error(res.Err()))
	}

	themeFolder := GetConfigOr(ctx, s.config, domain.ConfigThemeFolder, culture, theme)
	v := s.svc.NewTemplateView(nil)
	v.ThemeID = GetConfigOr(ctx, s.config, domain.ConfigThemeID, culture, s.cfg.DefaultThemeID)
	v.ThemeName = themeFolder
	v.FileName = GetConfigOr(ctx, s.config, domain.ConfigDefaultTemplate, GlobalCulture, s.cfg.DefaultTemplate)
	v.Extension = GetConfigOr(ctx, s.config, domain.ConfigTemplateExtension, GlobalCulture, s.cfg.TemplateExtension)
	v.Content = GetConfigOr(ctx, s.config, domain.ConfigDefaultTemplateContent, GlobalCulture, s.cfg.DefaultTemplateContent)
	v.FolderType = folderType.String()
	v.FileFolder = path.Join(s.cfg.TemplatesFolder, theme, folderType.String())
	return v
}

func splitTemplatePath(p string) (folder, file string, ok bool) {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
