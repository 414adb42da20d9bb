package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/siocms/backend/internal/application/cms"
	"github.com/siocms/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
)

// ModuleHandler serves the content modules of the request culture
type ModuleHandler struct {
	resource[models.ModuleModel, *cms.ModuleView]
}

// NewModuleHandler creates a ModuleHandler
func NewModuleHandler(svc *cms.Services, log *zap.Logger) *ModuleHandler {
	return &ModuleHandler{
		resource: resource[models.ModuleModel, *cms.ModuleView]{
			repo:       svc.Modules,
			newView:    svc.NewModuleView,
			setID:      func(v *cms.ModuleView, id int) { v.ID = id },
			listFilter: byCulture,
			prepare:    func(c *gin.Context, v *cms.ModuleView) { v.Specificulture = getCulture(c) },
			cascade:    true,
			log:        log,
		},
	}
}

// RegisterRoutes mounts the module routes on rg
func (h *ModuleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	h.register(rg.Group("/modules"))
}
