package cms

import (
	"context"
	"time"

	"github.com/siocms/backend/internal/application/viewmodel"
	"github.com/siocms/backend/internal/domain/shared"
	"github.com/siocms/backend/internal/infrastructure/persistence"
	"github.com/siocms/backend/internal/infrastructure/persistence/models"
)

// ThemeView is a theme. Removing it with cascade removes its templates and,
// once committed, their files.
type ThemeView struct {
	viewmodel.Base[models.ThemeModel]

	ID              int       `json:"id"`
	Name            string    `json:"name" validate:"required,max=250"`
	Title           string    `json:"title" validate:"max=250"`
	PreviewURL      string    `json:"previewUrl" validate:"max=450"`
	CreatedBy       string    `json:"createdBy" validate:"max=250"`
	CreatedDateTime time.Time `json:"createdDateTime"`

	svc              *Services
	templatesCleanup *viewmodel.Cleanup
}

// NewThemeView returns a view over m, or a blank view when m is nil
func (s *Services) NewThemeView(m *models.ThemeModel) *ThemeView {
	v := &ThemeView{svc: s}
	if m != nil {
		v.ParseView(m)
	}
	return v
}

func (s *Services) newThemeView(_ context.Context, m *models.ThemeModel, _ *persistence.Scope) (*ThemeView, error) {
	return s.NewThemeView(m), nil
}

// ParseView maps m onto the view
func (v *ThemeView) ParseView(m *models.ThemeModel) {
	v.SetModel(m)
	v.ID = m.ID
	v.Name = m.Name
	v.Title = m.Title
	v.PreviewURL = m.PreviewURL
	v.CreatedBy = m.CreatedBy
	v.CreatedDateTime = m.CreatedDateTime
}

// Validate checks field rules and that the name yields a usable folder name
func (v *ThemeView) Validate(_ context.Context, _ *persistence.Scope) {
	v.ResetErrors()
	v.ValidateFields(v)
	if v.Name != "" && SeoString(v.Name) == "" {
		v.AddError("Name: Must contain at least one letter or digit")
	}
}

// ParseModel maps the view onto a model
func (v *ThemeView) ParseModel(ctx context.Context, scope *persistence.Scope) (*models.ThemeModel, error) {
	if v.ID == 0 {
		id, err := v.svc.Themes.AllocateID(ctx, scope)
		if err != nil {
			return nil, err
		}
		v.ID = id
		v.CreatedDateTime = v.svc.stamp()
	}
	if v.Title == "" {
		v.Title = v.Name
	}
	m := &models.ThemeModel{
		ID:              v.ID,
		Name:            v.Name,
		Title:           v.Title,
		PreviewURL:      v.PreviewURL,
		CreatedBy:       v.CreatedBy,
		CreatedDateTime: v.CreatedDateTime,
	}
	v.SetModel(m)
	return m, nil
}

// RemoveRelatedModels removes every template of the theme in scope
func (v *ThemeView) RemoveRelatedModels(ctx context.Context, scope *persistence.Scope) shared.Result[bool] {
	res, cleanup := v.svc.Templates.RemoveListModel(ctx, persistence.Eq("theme_id", v.ID), false, scope)
	if !res.IsSucceed {
		return shared.Fail[bool](res.Err(), res.Errors...)
	}
	v.templatesCleanup = cleanup
	return shared.Succeed(true)
}

// CleanupAfterRemove waits for the template files of the removed theme to be deleted
func (v *ThemeView) CleanupAfterRemove(ctx context.Context) error {
	return v.templatesCleanup.Wait(ctx)
}

var _ viewmodel.ViewModel[models.ThemeModel] = (*ThemeView)(nil)
