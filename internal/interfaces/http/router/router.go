// Package router assembles the gin engine of the admin API.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/siocms/backend/internal/infrastructure/logger"
	"github.com/siocms/backend/internal/infrastructure/metrics"
	"github.com/siocms/backend/internal/interfaces/http/dto"
	"github.com/siocms/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// SystemRoutes serves the unversioned operational endpoints
type SystemRoutes interface {
	Health(c *gin.Context)
	GetSystemInfo(c *gin.Context)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
		registrars: make([]RouteRegistrar, 0),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// Setup registers all routes under /api/<version> and returns the group
func (r *Router) Setup() *gin.RouterGroup {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
	return api
}

// EngineConfig holds what NewEngine wires into the middleware chain
type EngineConfig struct {
	Logger           *zap.Logger
	DefaultCulture   string
	CORSAllowOrigins []string
	MaxBodyBytes     int64
	Tracing          middleware.TracingConfig
	// Metrics records request counts; nil disables HTTP metrics
	Metrics middleware.HTTPObserver
	// Gatherer backs /metrics; nil leaves the endpoint unmounted
	Gatherer prometheus.Gatherer
	// System serves /health and /system/info when set
	System SystemRoutes
}

// NewEngine builds a gin engine with the admin middleware chain and the
// operational endpoints. API routes are added through NewRouter.
func NewEngine(cfg EngineConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORSAllowOrigins

	engine.Use(
		logger.Recovery(log),
		middleware.Tracing(cfg.Tracing),
		middleware.RequestID(),
		middleware.Culture(cfg.DefaultCulture),
		logger.GinMiddleware(log),
		middleware.SpanAttributes(),
		middleware.HTTPMetrics(cfg.Metrics),
		middleware.CORSWithConfig(cors),
		middleware.Secure(),
	)
	if cfg.MaxBodyBytes > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	}

	if cfg.System != nil {
		engine.GET("/health", cfg.System.Health)
		engine.GET("/system/info", cfg.System.GetSystemInfo)
	}
	if cfg.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(metrics.Handler(cfg.Gatherer)))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(
			dto.ErrCodeNotFound, "Route not found", c.GetString(logger.GinRequestIDKey)))
	})

	return engine
}
