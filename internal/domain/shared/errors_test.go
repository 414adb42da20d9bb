package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	err := NewNotFoundError("template")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.True(t, IsNotFound(fmt.Errorf("get single model: %w", err)))
	assert.Equal(t, "template not found", err.Error())
}

func TestNewValidationError(t *testing.T) {
	details := []string{"FileName is required"}
	err := NewValidationError(details)
	details[0] = "changed"

	assert.True(t, IsValidation(err))
	assert.Equal(t, "Validation failed: FileName is required", err.Error())
}

func TestNewPersistenceError_Unwrap(t *testing.T) {
	cause := errors.New("UNIQUE constraint failed")
	err := NewPersistenceError("save template", cause)

	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "save template failed: UNIQUE constraint failed", err.Error())
}

func TestNewSecondaryResourceError(t *testing.T) {
	err := NewSecondaryResourceError("delete template file", nil)

	assert.ErrorIs(t, err, ErrSecondaryResource)
	assert.Nil(t, errors.Unwrap(err))
	assert.Equal(t, "delete template file failed", err.Error())
}
