package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/siocms/backend/internal/application/cms"
	domain "github.com/siocms/backend/internal/domain/cms"
	"github.com/siocms/backend/internal/infrastructure/persistence"
	"github.com/siocms/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
)

// TemplateHandler serves theme templates
type TemplateHandler struct {
	resource[models.TemplateModel, *cms.TemplateView]
	lookup *cms.TemplateService
}

// NewTemplateHandler creates a TemplateHandler
func NewTemplateHandler(svc *cms.Services, log *zap.Logger) *TemplateHandler {
	return &TemplateHandler{
		resource: resource[models.TemplateModel, *cms.TemplateView]{
			repo:          svc.Templates,
			newView:       svc.NewTemplateView,
			setID:         func(v *cms.TemplateView, id int) { v.ID = id },
			listFilter:    templateListFilter,
			saveSubModels: true,
			log:           log,
		},
		lookup: svc.TemplateLookup,
	}
}

// templateListFilter narrows the list by ?theme_id= and ?folder_type=
func templateListFilter(c *gin.Context) persistence.Predicate {
	var preds []persistence.Predicate
	if raw := c.Query("theme_id"); raw != "" {
		if id, err := strconv.Atoi(raw); err == nil {
			preds = append(preds, persistence.Eq("theme_id", id))
		}
	}
	if folder := c.Query("folder_type"); folder != "" {
		preds = append(preds, persistence.Eq("folder_type", folder))
	}
	return persistence.And(preds...)
}

// GetByPath resolves ?path={FolderType}/{FileName} in the active theme of the request culture
func (h *TemplateHandler) GetByPath(c *gin.Context) {
	p := c.Query("path")
	if p == "" {
		h.BadRequest(c, "path is required")
		return
	}
	respond(&h.BaseHandler, c, http.StatusOK, h.lookup.GetTemplateByPath(c.Request.Context(), p, getCulture(c), nil))
}

// GetDefault returns the default template of ?folder= in the active theme. When ?path=
// is given the template with that file name is preferred.
func (h *TemplateHandler) GetDefault(c *gin.Context) {
	folder := domain.TemplateFolder(c.Query("folder"))
	if !folder.IsValid() {
		h.BadRequest(c, "unknown template folder")
		return
	}
	ctx := c.Request.Context()
	var v *cms.TemplateView
	if p := c.Query("path"); p != "" {
		v = h.lookup.GetTemplateByFolder(ctx, p, getCulture(c), folder, nil)
	} else {
		v = h.lookup.GetDefault(ctx, folder, getCulture(c), nil)
	}
	h.Success(c, v)
}

// RegisterRoutes mounts the template routes on rg
func (h *TemplateHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/templates")
	g.GET("/by-path", h.GetByPath)
	g.GET("/default", h.GetDefault)
	h.register(g)
}
