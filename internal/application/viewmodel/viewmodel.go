// Package viewmodel provides the generic view model contract and the repository that
// drives a view model through its lifecycle: expand, validate, parse, persist, save
// sub-models and, on delete, cascade then clean up secondary resources.
package viewmodel

import (
	"context"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/siocms/backend/internal/domain/shared"
	"github.com/siocms/backend/internal/infrastructure/persistence"
)

// ViewModel is a request-scoped projection over a persistence model M.
// Implementations embed Base[M] and supply Validate, ParseView and ParseModel.
type ViewModel[M any] interface {
	// Model returns the model this view was projected from, or nil for a blank view.
	Model() *M
	// ParseView maps model fields onto the view and remembers model.
	ParseView(model *M)
	IsValid() bool
	Errors() []string

	// ExpandView loads data from secondary sources. It never fails; a missing
	// source leaves the fields unchanged.
	ExpandView(ctx context.Context, scope *persistence.Scope)
	// Validate resets and repopulates IsValid and Errors. Calling it twice
	// without changes yields the same outcome.
	Validate(ctx context.Context, scope *persistence.Scope)
	// ParseModel maps the view onto a model ready to persist. New entities get
	// their identity and creation time here; an existing ID is never changed.
	ParseModel(ctx context.Context, scope *persistence.Scope) (*M, error)
	// SaveSubModels persists dependent artifacts and child aggregates after parent is written.
	SaveSubModels(ctx context.Context, parent *M, scope *persistence.Scope) shared.Result[bool]
	// RemoveRelatedModels deletes dependants before the row itself on a cascading remove.
	RemoveRelatedModels(ctx context.Context, scope *persistence.Scope) shared.Result[bool]
	// CleanupAfterRemove removes secondary resources once the delete has committed.
	CleanupAfterRemove(ctx context.Context) error
}

// IdentityAllocator hands out keys for new rows inside a scope
type IdentityAllocator interface {
	AllocateID(ctx context.Context, scope *persistence.Scope) (int, error)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Base carries the model reference and validation state shared by every view model.
// Its lifecycle hooks are no-ops that concrete view models override as needed.
type Base[M any] struct {
	model  *M
	valid  bool
	errors []string
}

// Model returns the owned model
func (b *Base[M]) Model() *M {
	return b.model
}

// SetModel replaces the owned model
func (b *Base[M]) SetModel(model *M) {
	b.model = model
}

// IsValid reports the outcome of the last Validate call
func (b *Base[M]) IsValid() bool {
	return b.valid
}

// Errors returns the messages of the last Validate call
func (b *Base[M]) Errors() []string {
	return append([]string{}, b.errors...)
}

// ResetErrors clears the validation state before a new Validate pass
func (b *Base[M]) ResetErrors() {
	b.valid = true
	b.errors = []string{}
}

// AddError records a validation failure
func (b *Base[M]) AddError(msg string) {
	b.valid = false
	b.errors = append(b.errors, msg)
}

// ValidateFields runs the `validate` struct tag rules of view and records every failure
func (b *Base[M]) ValidateFields(view any) {
	err := validate.Struct(view)
	if err == nil {
		return
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		b.AddError(err.Error())
		return
	}
	for _, e := range verrs {
		b.AddError(fmt.Sprintf("%s: %s", e.Field(), validationMessage(e)))
	}
}

// ExpandView is a no-op by default
func (b *Base[M]) ExpandView(context.Context, *persistence.Scope) {}

// SaveSubModels has nothing to save by default
func (b *Base[M]) SaveSubModels(context.Context, *M, *persistence.Scope) shared.Result[bool] {
	return shared.Succeed(true)
}

// RemoveRelatedModels has nothing to cascade by default
func (b *Base[M]) RemoveRelatedModels(context.Context, *persistence.Scope) shared.Result[bool] {
	return shared.Succeed(true)
}

// CleanupAfterRemove has nothing to clean up by default
func (b *Base[M]) CleanupAfterRemove(context.Context) error {
	return nil
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "url":
		return "Invalid URL format"
	case "startswith":
		return "Must start with " + e.Param()
	case "excludesall":
		return "Must not contain any of: " + e.Param()
	default:
		return "Invalid value"
	}
}
