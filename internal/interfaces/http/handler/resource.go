package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/siocms/backend/internal/application/viewmodel"
	"github.com/siocms/backend/internal/domain/shared"
	"github.com/siocms/backend/internal/infrastructure/logger"
	"github.com/siocms/backend/internal/infrastructure/persistence"
	"github.com/siocms/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// resource serves the list, get, create, update and delete endpoints of one view
// model over its repository. Resource handlers embed it and add their own routes.
type resource[M any, V viewmodel.ViewModel[M]] struct {
	BaseHandler
	repo    *viewmodel.Repository[M, V]
	newView func(*M) V
	setID   func(V, int)
	// listFilter narrows list queries from the request, e.g. by culture
	listFilter func(c *gin.Context) persistence.Predicate
	// prepare seeds a blank view from the request before the body is applied
	prepare func(c *gin.Context, v V)
	// saveSubModels is passed to SaveModel on create and update
	saveSubModels bool
	// cascade is the default of the ?cascade= parameter on delete
	cascade bool
	log     *zap.Logger
}

// List returns one page of the resource
func (r *resource[M, V]) List(c *gin.Context) {
	filter, ok := r.bindList(c)
	if !ok {
		return
	}
	var pred persistence.Predicate
	if r.listFilter != nil {
		pred = r.listFilter(c)
	}
	respondPage(&r.BaseHandler, c, r.repo.GetModelListByPage(c.Request.Context(), pred, filter, nil))
}

// Get returns the resource with the :id path parameter
func (r *resource[M, V]) Get(c *gin.Context) {
	id, ok := r.bindID(c)
	if !ok {
		return
	}
	respond(&r.BaseHandler, c, http.StatusOK, r.repo.GetSingleModel(c.Request.Context(), persistence.ByID(id), nil))
}

// Create saves a new resource from the request body
func (r *resource[M, V]) Create(c *gin.Context) {
	v := r.newView(nil)
	if r.prepare != nil {
		r.prepare(c, v)
	}
	if err := c.ShouldBindJSON(v); err != nil {
		r.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, "Invalid request body", err.Error())
		return
	}
	r.setID(v, 0)
	respond(&r.BaseHandler, c, http.StatusCreated, r.repo.SaveModel(c.Request.Context(), v, r.saveSubModels, nil))
}

// Update applies the request body to the stored resource and saves it. Fields the
// body omits keep their stored values.
func (r *resource[M, V]) Update(c *gin.Context) {
	id, ok := r.bindID(c)
	if !ok {
		return
	}
	v, ok := r.load(c, id)
	if !ok {
		return
	}
	if err := c.ShouldBindJSON(v); err != nil {
		r.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, "Invalid request body", err.Error())
		return
	}
	r.setID(v, id)
	respond(&r.BaseHandler, c, http.StatusOK, r.repo.SaveModel(c.Request.Context(), v, r.saveSubModels, nil))
}

// Delete removes the resource with the :id path parameter. ?cascade= overrides the
// resource's default; with ?wait=true the response is held until the secondary
// cleanup has finished and a cleanup failure is reported as 502.
func (r *resource[M, V]) Delete(c *gin.Context) {
	id, ok := r.bindID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	res, cleanup := r.repo.RemoveModel(ctx, persistence.ByID(id), queryBool(c, "cascade", r.cascade), nil)
	if !res.IsSucceed {
		r.HandleError(c, res.Err())
		return
	}
	if queryBool(c, "wait", false) {
		if err := cleanup.Wait(ctx); err != nil {
			logger.WithLogger(ctx, r.log).Warn("cleanup after remove failed",
				zap.String("resource", r.repo.Resource()), zap.Int("id", id), zap.Error(err))
			r.HandleError(c, shared.NewSecondaryResourceError("cleanup "+r.repo.Resource(), err))
			return
		}
	}
	r.NoContent(c)
}

// load fetches the stored view with id, writing the error response when it fails
func (r *resource[M, V]) load(c *gin.Context, id int) (V, bool) {
	res := r.repo.GetSingleModel(c.Request.Context(), persistence.ByID(id), nil)
	if !res.IsSucceed {
		r.HandleError(c, res.Err())
		var zero V
		return zero, false
	}
	return res.Data, true
}

// register mounts the CRUD routes on rg
func (r *resource[M, V]) register(rg *gin.RouterGroup) {
	rg.GET("", r.List)
	rg.POST("", r.Create)
	rg.GET("/:id", r.Get)
	rg.PUT("/:id", r.Update)
	rg.DELETE("/:id", r.Delete)
}

// byCulture filters list queries by the request culture
func byCulture(c *gin.Context) persistence.Predicate {
	return persistence.Eq("specificulture", getCulture(c))
}
