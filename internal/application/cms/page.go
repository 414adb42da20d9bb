package cms

import (
	"context"
	"fmt"
	"time"

	"github.com/siocms/backend/internal/application/viewmodel"
	domain "github.com/siocms/backend/internal/domain/cms"
	"github.com/siocms/backend/internal/domain/shared"
	"github.com/siocms/backend/internal/infrastructure/persistence"
	"github.com/siocms/backend/internal/infrastructure/persistence/models"
)

// PageView is a page of one culture together with the modules placed on it
type PageView struct {
	viewmodel.Base[models.PageModel]

	ID              int               `json:"id"`
	Specificulture  string            `json:"specificulture" validate:"required,max=10"`
	Title           string            `json:"title" validate:"required,max=250"`
	SeoName         string            `json:"seoName" validate:"max=250"`
	Template        string            `json:"template" validate:"max=250"`
	Type            domain.PageType   `json:"type" validate:"gte=0,lte=7"`
	Status          domain.PageStatus `json:"status" validate:"gte=0,lte=4"`
	Priority        int               `json:"priority"`
	CreatedDateTime time.Time         `json:"createdDateTime"`
	LastModified    *time.Time        `json:"lastModified,omitempty"`

	ModuleNavs []*PageModuleView `json:"moduleNavs"`

	svc *Services
}

// NewPageView returns a view over m, or a blank view when m is nil
func (s *Services) NewPageView(m *models.PageModel) *PageView {
	v := &PageView{
		Specificulture: s.cfg.DefaultCulture,
		Status:         domain.PageStatusPublished,
		ModuleNavs:     []*PageModuleView{},
		svc:            s,
	}
	if m != nil {
		v.ParseView(m)
	}
	return v
}

func (s *Services) newPageView(_ context.Context, m *models.PageModel, _ *persistence.Scope) (*PageView, error) {
	return s.NewPageView(m), nil
}

// ParseView maps m onto the view
func (v *PageView) ParseView(m *models.PageModel) {
	v.SetModel(m)
	v.ID = m.ID
	v.Specificulture = m.Specificulture
	v.Title = m.Title
	v.SeoName = m.SeoName
	v.Template = m.Template
	v.Type = domain.PageType(m.Type)
	v.Status = domain.PageStatus(m.Status)
	v.Priority = m.Priority
	v.CreatedDateTime = m.CreatedDateTime
	v.LastModified = m.LastModified
}

// ExpandView loads the page's module navigations ordered by position
func (v *PageView) ExpandView(ctx context.Context, scope *persistence.Scope) {
	if v.ID == 0 {
		return
	}
	res := v.svc.PageModules.GetModelListBy(ctx, persistence.And(
		persistence.Eq("page_id", v.ID),
		persistence.Eq("specificulture", v.Specificulture),
		persistence.OrderBy("position", false),
	), scope)
	if res.IsSucceed {
		v.ModuleNavs = res.Data
	}
}

// Validate derives SeoName from Title when empty, checks it is unused within the
// culture and validates every module navigation
func (v *PageView) Validate(ctx context.Context, scope *persistence.Scope) {
	v.ResetErrors()
	if v.SeoName == "" {
		v.SeoName = SeoString(v.Title)
	} else {
		v.SeoName = SeoString(v.SeoName)
	}
	v.ValidateFields(v)

	for i, nav := range v.ModuleNavs {
		if !nav.IsActive {
			continue
		}
		nav.Specificulture = v.Specificulture
		nav.Validate(ctx, scope)
		for _, msg := range nav.Errors() {
			v.AddError(fmt.Sprintf("ModuleNavs[%d].%s", i, msg))
		}
	}
	if !v.IsValid() || v.SeoName == "" {
		return
	}

	taken := v.svc.Pages.Exists(ctx, persistence.And(
		persistence.Eq("seo_name", v.SeoName),
		persistence.Eq("specificulture", v.Specificulture),
		persistence.Where("id <> ?", v.ID),
	), scope)
	switch {
	case !taken.IsSucceed:
		v.AddError("SeoName: " + taken.Err().Error())
	case taken.Data:
		v.AddError(fmt.Sprintf("SeoName: %s is already used in %s", v.SeoName, v.Specificulture))
	}
}

// ParseModel maps the view onto a model
func (v *PageView) ParseModel(ctx context.Context, scope *persistence.Scope) (*models.PageModel, error) {
	if v.ID == 0 {
		id, err := v.svc.Pages.AllocateID(ctx, scope)
		if err != nil {
			return nil, err
		}
		v.ID = id
		v.CreatedDateTime = v.svc.stamp()
	} else {
		now := v.svc.stamp()
		v.LastModified = &now
	}
	m := &models.PageModel{
		ID:              v.ID,
		Specificulture:  v.Specificulture,
		Title:           v.Title,
		SeoName:         v.SeoName,
		Template:        v.Template,
		Type:            int(v.Type),
		Status:          int(v.Status),
		Priority:        v.Priority,
		CreatedDateTime: v.CreatedDateTime,
		LastModified:    v.LastModified,
	}
	v.SetModel(m)
	return m, nil
}

// SaveSubModels saves the active module navigations under parent and removes the
// inactive ones, all in scope
func (v *PageView) SaveSubModels(ctx context.Context, parent *models.PageModel, scope *persistence.Scope) shared.Result[bool] {
	for _, nav := range v.ModuleNavs {
		nav.PageID = parent.ID
		nav.Specificulture = parent.Specificulture

		if !nav.IsActive {
			res, _ := v.svc.PageModules.RemoveModel(ctx, persistence.And(
				persistence.Eq("page_id", nav.PageID),
				persistence.Eq("module_id", nav.ModuleID),
				persistence.Eq("specificulture", nav.Specificulture),
			), false, scope)
			if !res.IsSucceed && !shared.IsNotFound(res.Err()) {
				return shared.Fail[bool](res.Err(), res.Errors...)
			}
			continue
		}

		if res := v.svc.PageModules.SaveModel(ctx, nav, false, scope); !res.IsSucceed {
			return shared.Fail[bool](res.Err(), res.Errors...)
		}
	}
	return shared.Succeed(true)
}

// RemoveRelatedModels removes the page's module navigations
func (v *PageView) RemoveRelatedModels(ctx context.Context, scope *persistence.Scope) shared.Result[bool] {
	res, _ := v.svc.PageModules.RemoveListModel(ctx, persistence.And(
		persistence.Eq("page_id", v.ID),
		persistence.Eq("specificulture", v.Specificulture),
	), false, scope)
	if !res.IsSucceed {
		return shared.Fail[bool](res.Err(), res.Errors...)
	}
	return shared.Succeed(true)
}

var _ viewmodel.ViewModel[models.PageModel] = (*PageView)(nil)
