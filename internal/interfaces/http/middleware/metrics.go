package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPObserver records finished admin API requests. *metrics.Collector satisfies it.
type HTTPObserver interface {
	ObserveHTTPRequest(method, route string, status int, elapsed time.Duration)
}

// HTTPMetrics returns a Gin middleware that records request count and latency per
// route template. Requests that match no route are recorded under an empty route.
// A nil observer disables the middleware.
func HTTPMetrics(observer HTTPObserver) gin.HandlerFunc {
	if observer == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		observer.ObserveHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
