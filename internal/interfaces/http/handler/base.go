// Package handler contains the HTTP handlers of the admin API.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/siocms/backend/internal/domain/shared"
	"github.com/siocms/backend/internal/infrastructure/logger"
	"github.com/siocms/backend/internal/interfaces/http/dto"
	"github.com/siocms/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID returns the request ID set by the RequestID middleware
func getRequestID(c *gin.Context) string {
	return c.GetString(logger.GinRequestIDKey)
}

// getCulture returns the culture resolved by the Culture middleware
func getCulture(c *gin.Context) string {
	return middleware.GetCulture(c)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string, details ...string) {
	c.JSON(statusCode, dto.NewErrorResponse(code, message, getRequestID(c), details...))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// HandleError converts domain errors to HTTP responses. Only validation and input
// errors expose their details; storage faults are reported without them.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		var details []string
		if code == dto.ErrCodeValidation || code == dto.ErrCodeInvalidInput {
			details = domainErr.Details
		}
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message, details...)
		return
	}

	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}

// respond writes a repository result: its data with status on success, the mapped
// domain error otherwise. A failed validation lists every message of the result.
func respond[T any](h *BaseHandler, c *gin.Context, status int, res shared.Result[T]) {
	if res.IsSucceed {
		c.JSON(status, dto.NewSuccessResponse(res.Data))
		return
	}
	err := res.Err()
	if shared.IsValidation(err) {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, shared.ErrValidation.Message, res.Errors...)
		return
	}
	h.HandleError(c, err)
}

// respondPage writes one page of a list result
func respondPage[T any](h *BaseHandler, c *gin.Context, res shared.Result[shared.Paginated[T]]) {
	if !res.IsSucceed {
		h.HandleError(c, res.Err())
		return
	}
	c.JSON(http.StatusOK, dto.NewPagedResponse(res.Data))
}

// bindID reads the positive integer :id path parameter
func (h *BaseHandler) bindID(c *gin.Context) (int, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid id")
		return 0, false
	}
	return req.ID, true
}

// bindList reads the paging query parameters
func (h *BaseHandler) bindList(c *gin.Context) (shared.Filter, bool) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, "Invalid list parameters", err.Error())
		return shared.Filter{}, false
	}
	return req.Filter(), true
}

// queryBool reads a boolean query parameter, returning def when it is absent or malformed
func queryBool(c *gin.Context, key string, def bool) bool {
	raw, ok := c.GetQuery(key)
	if !ok {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}
