package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/siocms/backend/internal/application/cms"
	"github.com/siocms/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
)

// ThemeHandler serves themes. Deleting a theme removes its templates unless
// ?cascade=false is given.
type ThemeHandler struct {
	resource[models.ThemeModel, *cms.ThemeView]
}

// NewThemeHandler creates a ThemeHandler
func NewThemeHandler(svc *cms.Services, log *zap.Logger) *ThemeHandler {
	return &ThemeHandler{
		resource: resource[models.ThemeModel, *cms.ThemeView]{
			repo:    svc.Themes,
			newView: svc.NewThemeView,
			setID:   func(v *cms.ThemeView, id int) { v.ID = id },
			cascade: true,
			log:     log,
		},
	}
}

// RegisterRoutes mounts the theme routes on rg
func (h *ThemeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	h.register(rg.Group("/themes"))
}
