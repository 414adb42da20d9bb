package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/siocms/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodePersistence, http.StatusInternalServerError},
		{ErrCodeSecondaryResource, http.StatusBadGateway},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeRolledBack, http.StatusConflict},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{shared.CodeValidationFailed, ErrCodeValidation},
		{shared.CodeNotFound, ErrCodeNotFound},
		{shared.CodePersistenceFailed, ErrCodePersistence},
		{shared.CodeSecondaryResourceFailed, ErrCodeSecondaryResource},
		{shared.CodeInvalidInput, ErrCodeInvalidInput},
		{shared.CodeRolledBack, ErrCodeRolledBack},
		// Already normalized or unknown codes pass through
		{ErrCodeBadRequest, ErrCodeBadRequest},
		{"SOMETHING_ELSE", "SOMETHING_ELSE"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.input))
		})
	}
}

func TestNewErrorResponse_JSON(t *testing.T) {
	resp := NewErrorResponse(ErrCodeValidation, "Validation failed", "req-1", "Name: This field is required")

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"success": false,
		"error": {
			"code": "ERR_VALIDATION",
			"message": "Validation failed",
			"details": ["Name: This field is required"],
			"request_id": "req-1"
		}
	}`, string(data))
}

func TestNewPagedResponse(t *testing.T) {
	page := shared.NewPaginated([]string{"a", "b"}, 5, 1, 2)

	resp := NewPagedResponse(page)

	assert.True(t, resp.Success)
	assert.Equal(t, []string{"a", "b"}, resp.Data)
	require.NotNil(t, resp.Meta)
	assert.EqualValues(t, 5, resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestListRequest_Filter(t *testing.T) {
	f := ListRequest{PageSize: 50, OrderBy: "name"}.Filter()

	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 50, f.PageSize)
	assert.Equal(t, "name", f.OrderBy)
	assert.Equal(t, "desc", f.OrderDir)
}
