package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/siocms/backend/internal/application/cms"
	"github.com/siocms/backend/internal/infrastructure/persistence/models"
	"github.com/siocms/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// PageHandler serves the pages of the request culture with their module navigations
type PageHandler struct {
	resource[models.PageModel, *cms.PageView]
	svc *cms.Services
}

// pageRequest decodes a page body onto an existing view. Navigations are decoded
// separately so each one is built through the services.
type pageRequest struct {
	*cms.PageView
	ModuleNavs []pageModuleRequest `json:"moduleNavs"`
}

type pageModuleRequest struct {
	ModuleID    int    `json:"moduleId"`
	Position    int    `json:"position"`
	Priority    int    `json:"priority"`
	Description string `json:"description"`
	IsActive    *bool  `json:"isActive"`
}

// NewPageHandler creates a PageHandler
func NewPageHandler(svc *cms.Services, log *zap.Logger) *PageHandler {
	return &PageHandler{
		resource: resource[models.PageModel, *cms.PageView]{
			repo:          svc.Pages,
			newView:       svc.NewPageView,
			setID:         func(v *cms.PageView, id int) { v.ID = id },
			listFilter:    byCulture,
			saveSubModels: true,
			cascade:       true,
			log:           log,
		},
		svc: svc,
	}
}

// Create saves a new page and its navigations
func (h *PageHandler) Create(c *gin.Context) {
	v := h.svc.NewPageView(nil)
	v.Specificulture = getCulture(c)
	if !h.bind(c, v) {
		return
	}
	v.ID = 0
	respond(&h.BaseHandler, c, http.StatusCreated, h.repo.SaveModel(c.Request.Context(), v, true, nil))
}

// Update applies the body to the stored page. A body without moduleNavs keeps the
// stored navigations; an entry with isActive false removes that navigation.
func (h *PageHandler) Update(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	v, ok := h.load(c, id)
	if !ok {
		return
	}
	if !h.bind(c, v) {
		return
	}
	v.ID = id
	respond(&h.BaseHandler, c, http.StatusOK, h.repo.SaveModel(c.Request.Context(), v, true, nil))
}

func (h *PageHandler) bind(c *gin.Context, v *cms.PageView) bool {
	req := pageRequest{PageView: v}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, "Invalid request body", err.Error())
		return false
	}
	if req.ModuleNavs == nil {
		return true
	}
	navs := make([]*cms.PageModuleView, 0, len(req.ModuleNavs))
	for _, n := range req.ModuleNavs {
		nav := h.svc.NewPageModuleView(nil)
		nav.ModuleID = n.ModuleID
		nav.Position = n.Position
		nav.Priority = n.Priority
		nav.Description = n.Description
		if n.IsActive != nil {
			nav.IsActive = *n.IsActive
		}
		navs = append(navs, nav)
	}
	v.ModuleNavs = navs
	return true
}

// RegisterRoutes mounts the page routes on rg
func (h *PageHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/pages")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
