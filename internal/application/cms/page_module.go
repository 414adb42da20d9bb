package cms

import (
	"context"
	"fmt"

	"github.com/siocms/backend/internal/application/viewmodel"
	"github.com/siocms/backend/internal/infrastructure/persistence"
	"github.com/siocms/backend/internal/infrastructure/persistence/models"
)

// PageModuleView places a module on a page. A navigation saved through its page with
// IsActive unset is removed instead of saved.
type PageModuleView struct {
	viewmodel.Base[models.PageModuleModel]

	PageID         int    `json:"pageId"`
	ModuleID       int    `json:"moduleId" validate:"required"`
	Specificulture string `json:"specificulture" validate:"max=10"`
	Position       int    `json:"position" validate:"gte=0"`
	Priority       int    `json:"priority"`
	Description    string `json:"description" validate:"max=250"`
	IsActive       bool   `json:"isActive"`

	svc *Services
}

// NewPageModuleView returns a view over m, or a blank view when m is nil
func (s *Services) NewPageModuleView(m *models.PageModuleModel) *PageModuleView {
	v := &PageModuleView{svc: s, IsActive: true}
	if m != nil {
		v.ParseView(m)
	}
	return v
}

func (s *Services) newPageModuleView(_ context.Context, m *models.PageModuleModel, _ *persistence.Scope) (*PageModuleView, error) {
	return s.NewPageModuleView(m), nil
}

// ParseView maps m onto the view
func (v *PageModuleView) ParseView(m *models.PageModuleModel) {
	v.SetModel(m)
	v.PageID = m.PageID
	v.ModuleID = m.ModuleID
	v.Specificulture = m.Specificulture
	v.Position = m.Position
	v.Priority = m.Priority
	v.Description = m.Description
	v.IsActive = true
}

// Validate checks field rules and, once the culture is known, that the module exists in it
func (v *PageModuleView) Validate(ctx context.Context, scope *persistence.Scope) {
	v.ResetErrors()
	v.ValidateFields(v)
	if !v.IsValid() || v.Specificulture == "" {
		return
	}
	exists := v.svc.Modules.Exists(ctx, persistence.And(
		persistence.ByID(v.ModuleID),
		persistence.Eq("specificulture", v.Specificulture),
	), scope)
	switch {
	case !exists.IsSucceed:
		v.AddError("ModuleId: " + exists.Err().Error())
	case !exists.Data:
		v.AddError(fmt.Sprintf("ModuleId: module %d does not exist in %s", v.ModuleID, v.Specificulture))
	}
}

// ParseModel maps the view onto a model. The key is (PageID, ModuleID, Specificulture).
func (v *PageModuleView) ParseModel(_ context.Context, _ *persistence.Scope) (*models.PageModuleModel, error) {
	if v.PageID == 0 {
		return nil, fmt.Errorf("page navigation for module %d has no page", v.ModuleID)
	}
	m := &models.PageModuleModel{
		PageID:         v.PageID,
		ModuleID:       v.ModuleID,
		Specificulture: v.Specificulture,
		Position:       v.Position,
		Priority:       v.Priority,
		Description:    v.Description,
	}
	v.SetModel(m)
	return m, nil
}

var _ viewmodel.ViewModel[models.PageModuleModel] = (*PageModuleView)(nil)
