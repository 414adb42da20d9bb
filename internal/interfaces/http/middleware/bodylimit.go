package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/siocms/backend/internal/infrastructure/logger"
	"github.com/siocms/backend/internal/interfaces/http/dto"
)

// BodyLimit returns a middleware that limits request body size. Template content is
// posted inline, so the limit bounds the largest template the API accepts.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(
				dto.ErrCodeRequestTooLarge,
				"Request body exceeds maximum allowed size",
				c.GetString(logger.GinRequestIDKey),
			))
			return
		}

		// Bodies without a declared length are cut off while reading
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
