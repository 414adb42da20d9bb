package cms

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/siocms/backend/internal/application/viewmodel"
	domain "github.com/siocms/backend/internal/domain/cms"
	"github.com/siocms/backend/internal/domain/shared"
	"github.com/siocms/backend/internal/infrastructure/persistence"
	"github.com/siocms/backend/internal/infrastructure/persistence/models"
)

// ModuleView is a content module of one culture
type ModuleView struct {
	viewmodel.Base[models.ModuleModel]

	ID              int               `json:"id"`
	Specificulture  string            `json:"specificulture" validate:"required,max=10"`
	Name            string            `json:"name" validate:"required,max=250"`
	Title           string            `json:"title" validate:"max=250"`
	Description     string            `json:"description"`
	Template        string            `json:"template" validate:"max=250"`
	Fields          string            `json:"fields"`
	Type            domain.ModuleType `json:"type" validate:"gte=0,lte=7"`
	Image           *string           `json:"image,omitempty" validate:"omitempty,max=250"`
	CreatedDateTime time.Time         `json:"createdDateTime"`
	LastModified    *time.Time        `json:"lastModified,omitempty"`

	svc *Services
}

// NewModuleView returns a view over m, or a blank view when m is nil
func (s *Services) NewModuleView(m *models.ModuleModel) *ModuleView {
	v := &ModuleView{svc: s, Specificulture: s.cfg.DefaultCulture}
	if m != nil {
		v.ParseView(m)
	}
	return v
}

func (s *Services) newModuleView(_ context.Context, m *models.ModuleModel, _ *persistence.Scope) (*ModuleView, error) {
	return s.NewModuleView(m), nil
}

// ParseView maps m onto the view
func (v *ModuleView) ParseView(m *models.ModuleModel) {
	v.SetModel(m)
	v.ID = m.ID
	v.Specificulture = m.Specificulture
	v.Name = m.Name
	v.Title = m.Title
	v.Description = m.Description
	v.Template = m.Template
	v.Fields = m.Fields
	v.Type = domain.ModuleType(m.Type)
	v.Image = m.Image
	v.CreatedDateTime = m.CreatedDateTime
	v.LastModified = m.LastModified
}

// Validate checks field rules and that the name is unused within the culture
func (v *ModuleView) Validate(ctx context.Context, scope *persistence.Scope) {
	v.ResetErrors()
	v.ValidateFields(v)
	if strings.ContainsAny(v.Name, " /") {
		v.AddError("Name: Must not contain spaces or '/'")
	}
	if !v.IsValid() {
		return
	}

	taken := v.svc.Modules.Exists(ctx, persistence.And(
		persistence.Eq("name", v.Name),
		persistence.Eq("specificulture", v.Specificulture),
		persistence.Where("id <> ?", v.ID),
	), scope)
	switch {
	case !taken.IsSucceed:
		v.AddError("Name: " + taken.Err().Error())
	case taken.Data:
		v.AddError(fmt.Sprintf("Name: %s is already used in %s", v.Name, v.Specificulture))
	}
}

// ParseModel maps the view onto a model with a sanitised description
func (v *ModuleView) ParseModel(ctx context.Context, scope *persistence.Scope) (*models.ModuleModel, error) {
	if v.ID == 0 {
		id, err := v.svc.Modules.AllocateID(ctx, scope)
		if err != nil {
			return nil, err
		}
		v.ID = id
		v.CreatedDateTime = v.svc.stamp()
	} else {
		now := v.svc.stamp()
		v.LastModified = &now
	}
	v.Description = SanitizeHTML(v.Description)
	if v.Image != nil && strings.TrimSpace(*v.Image) == "" {
		v.Image = nil
	}

	m := &models.ModuleModel{
		ID:              v.ID,
		Specificulture:  v.Specificulture,
		Name:            v.Name,
		Title:           v.Title,
		Description:     v.Description,
		Template:        v.Template,
		Fields:          v.Fields,
		Type:            int(v.Type),
		Image:           v.Image,
		CreatedDateTime: v.CreatedDateTime,
		LastModified:    v.LastModified,
	}
	v.SetModel(m)
	return m, nil
}

// RemoveRelatedModels removes the page navigations that place this module
func (v *ModuleView) RemoveRelatedModels(ctx context.Context, scope *persistence.Scope) shared.Result[bool] {
	res, _ := v.svc.PageModules.RemoveListModel(ctx, persistence.And(
		persistence.Eq("module_id", v.ID),
		persistence.Eq("specificulture", v.Specificulture),
	), false, scope)
	if !res.IsSucceed {
		return shared.Fail[bool](res.Err(), res.Errors...)
	}
	return shared.Succeed(true)
}

// CleanupAfterRemove deletes the module image. Images are stored as
// "{folder}/{file name}" relative to the file store root.
func (v *ModuleView) CleanupAfterRemove(ctx context.Context) error {
	if v.Image == nil || *v.Image == "" {
		return nil
	}
	image := strings.TrimPrefix(*v.Image, "/")
	return v.svc.files.DeleteFile(ctx, path.Base(image), path.Dir(image))
}

var _ viewmodel.ViewModel[models.ModuleModel] = (*ModuleView)(nil)
