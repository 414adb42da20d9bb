package viewmodel

import (
	"context"

	"github.com/siocms/backend/internal/domain/shared"
	"github.com/siocms/backend/internal/infrastructure/persistence"
)

// RemoveOutcome pairs the result of a remove with its cleanup handle
type RemoveOutcome[M any] struct {
	Result  shared.Result[*M]
	Cleanup *Cleanup
}

// The async variants run the synchronous call on a goroutine and deliver exactly
// one value on the returned channel, which is then closed. A caller-owned scope
// passed to them must not be used by anyone else until the value arrives.

// GetSingleModelAsync is the asynchronous form of GetSingleModel
func (r *Repository[M, V]) GetSingleModelAsync(ctx context.Context, pred persistence.Predicate, scope *persistence.Scope) <-chan shared.Result[V] {
	return async(func() shared.Result[V] {
		return r.GetSingleModel(ctx, pred, scope)
	})
}

// GetModelListByAsync is the asynchronous form of GetModelListBy
func (r *Repository[M, V]) GetModelListByAsync(ctx context.Context, pred persistence.Predicate, scope *persistence.Scope) <-chan shared.Result[[]V] {
	return async(func() shared.Result[[]V] {
		return r.GetModelListBy(ctx, pred, scope)
	})
}

// SaveModelAsync is the asynchronous form of SaveModel
func (r *Repository[M, V]) SaveModelAsync(ctx context.Context, v V, saveSubModels bool, scope *persistence.Scope) <-chan shared.Result[V] {
	return async(func() shared.Result[V] {
		return r.SaveModel(ctx, v, saveSubModels, scope)
	})
}

// RemoveModelAsync is the asynchronous form of RemoveModel
func (r *Repository[M, V]) RemoveModelAsync(ctx context.Context, pred persistence.Predicate, cascade bool, scope *persistence.Scope) <-chan RemoveOutcome[M] {
	return async(func() RemoveOutcome[M] {
		res, cleanup := r.RemoveModel(ctx, pred, cascade, scope)
		return RemoveOutcome[M]{Result: res, Cleanup: cleanup}
	})
}

func async[T any](fn func() T) <-chan T {
	ch := make(chan T, 1)
	go func() {
		defer close(ch)
		ch <- fn()
	}()
	return ch
}
