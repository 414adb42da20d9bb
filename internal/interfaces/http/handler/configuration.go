package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/siocms/backend/internal/application/cms"
	"github.com/siocms/backend/internal/domain/shared"
	"github.com/siocms/backend/internal/infrastructure/persistence"
	"github.com/siocms/backend/internal/interfaces/http/dto"
)

// ConfigurationHandler serves configuration entries. Entries are addressed by
// keyword and culture; the global entry of a keyword has an empty culture.
type ConfigurationHandler struct {
	BaseHandler
	svc *cms.Services
}

// ResolvedConfiguration is the effective value of a keyword for a culture
type ResolvedConfiguration struct {
	Keyword string `json:"keyword"`
	Culture string `json:"culture"`
	Value   string `json:"value"`
}

// NewConfigurationHandler creates a ConfigurationHandler
func NewConfigurationHandler(svc *cms.Services) *ConfigurationHandler {
	return &ConfigurationHandler{svc: svc}
}

// List returns one page of stored entries, optionally narrowed by ?category= and
// ?specificulture=
func (h *ConfigurationHandler) List(c *gin.Context) {
	filter, ok := h.bindList(c)
	if !ok {
		return
	}
	var preds []persistence.Predicate
	if category := c.Query("category"); category != "" {
		preds = append(preds, persistence.Eq("category", category))
	}
	if culture, ok := c.GetQuery("specificulture"); ok {
		preds = append(preds, persistence.Eq("specificulture", culture))
	}
	respondPage(&h.BaseHandler, c, h.svc.Configurations.GetModelListByPage(c.Request.Context(), persistence.And(preds...), filter, nil))
}

// Resolve returns the effective value of :keyword for the request culture, falling
// back to the global entry and then the static default
func (h *ConfigurationHandler) Resolve(c *gin.Context) {
	keyword := c.Param("keyword")
	culture := getCulture(c)
	value, found, err := h.svc.Config.Lookup(c.Request.Context(), keyword, culture)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if !found {
		h.HandleError(c, shared.NewNotFoundError("configuration "+keyword))
		return
	}
	h.Success(c, ResolvedConfiguration{Keyword: keyword, Culture: culture, Value: value})
}

// Put upserts the entry of :keyword for the body's specificulture
func (h *ConfigurationHandler) Put(c *gin.Context) {
	v := h.svc.NewConfigurationView(nil)
	if err := c.ShouldBindJSON(v); err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, "Invalid request body", err.Error())
		return
	}
	v.Keyword = c.Param("keyword")
	respond(&h.BaseHandler, c, http.StatusOK, h.svc.Configurations.SaveModel(c.Request.Context(), v, true, nil))
}

// Delete removes the entry of :keyword for ?specificulture= (the global entry when absent)
func (h *ConfigurationHandler) Delete(c *gin.Context) {
	res, _ := h.svc.Configurations.RemoveModel(c.Request.Context(), persistence.And(
		persistence.Eq("keyword", c.Param("keyword")),
		persistence.Eq("specificulture", c.DefaultQuery("specificulture", cms.GlobalCulture)),
	), false, nil)
	if !res.IsSucceed {
		h.HandleError(c, res.Err())
		return
	}
	h.NoContent(c)
}

// RegisterRoutes mounts the configuration routes on rg
func (h *ConfigurationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/configurations")
	g.GET("", h.List)
	g.GET("/:keyword", h.Resolve)
	g.PUT("/:keyword", h.Put)
	g.DELETE("/:keyword", h.Delete)
}
