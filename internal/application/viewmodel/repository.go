package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/siocms/backend/internal/domain/shared"
	"github.com/siocms/backend/internal/infrastructure/logger"
	"github.com/siocms/backend/internal/infrastructure/persistence"
	"github.com/siocms/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ViewFactory builds a view model from a loaded model. It may read more data
// through scope; an error aborts the operation that loaded the model.
type ViewFactory[M any, V ViewModel[M]] func(ctx context.Context, model *M, scope *persistence.Scope) (V, error)

// Repository maps one model type to its view model and runs the save and remove
// lifecycles inside scopes. It holds no per-request state and is safe for
// concurrent use, but a single Scope must not be shared between goroutines.
type Repository[M any, V ViewModel[M]] struct {
	tx       *persistence.Transactor
	columns  *persistence.ColumnResolver
	newView  ViewFactory[M, V]
	resource string
	opts     options
}

// NewRepository creates a repository for resource (used in messages, logs and metrics)
func NewRepository[M any, V ViewModel[M]](db *gorm.DB, resource string, newView ViewFactory[M, V], opts ...Option) *Repository[M, V] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Repository[M, V]{
		tx:       persistence.NewTransactor(db),
		columns:  persistence.NewColumnResolver(db),
		newView:  newView,
		resource: resource,
		opts:     o,
	}
}

// Transactor returns the transactor scopes for this repository are begun with
func (r *Repository[M, V]) Transactor() *persistence.Transactor {
	return r.tx
}

// Resource returns the resource name
func (r *Repository[M, V]) Resource() string {
	return r.resource
}

var _ IdentityAllocator = (*Repository[struct{}, ViewModel[struct{}]])(nil)

// AllocateID returns the key for a new row. Under the sequence strategy it returns
// zero and the database assigns the key on insert.
func (r *Repository[M, V]) AllocateID(ctx context.Context, scope *persistence.Scope) (int, error) {
	if r.opts.identity != IdentityMaxPlusOne {
		return 0, nil
	}
	res := r.Max(ctx, "id", scope)
	if !res.IsSucceed {
		return 0, res.Err()
	}
	return res.Data + 1, nil
}

// GetSingleModel loads exactly one row matching pred and projects it. No match
// fails with NotFound; more than one match fails with InvalidInput.
func (r *Repository[M, V]) GetSingleModel(ctx context.Context, pred persistence.Predicate, scope *persistence.Scope) shared.Result[V] {
	start := time.Now()
	var rows []M
	if err := pred.Apply(r.tx.Conn(ctx, scope)).Limit(2).Find(&rows).Error; err != nil {
		return storageFailure[V](r, ctx, "get_single", start, err)
	}

	switch len(rows) {
	case 0:
		r.observe("get_single", false, start)
		return shared.Fail[V](shared.NewNotFoundError(r.resource))
	case 1:
	default:
		r.observe("get_single", false, start)
		return shared.Fail[V](shared.NewDomainError(shared.CodeInvalidInput,
			fmt.Sprintf("more than one %s matched", r.resource)))
	}

	v, err := r.project(ctx, &rows[0], scope)
	if err != nil {
		r.observe("get_single", false, start)
		return shared.Fail[V](err)
	}
	r.observe("get_single", true, start)
	return shared.Succeed(v)
}

// GetModelListBy loads and projects every row matching pred. No match is a
// success with an empty list.
func (r *Repository[M, V]) GetModelListBy(ctx context.Context, pred persistence.Predicate, scope *persistence.Scope) shared.Result[[]V] {
	start := time.Now()
	var rows []M
	if err := pred.Apply(r.tx.Conn(ctx, scope)).Find(&rows).Error; err != nil {
		return storageFailure[[]V](r, ctx, "get_list", start, err)
	}

	views, err := r.projectAll(ctx, rows, scope)
	if err != nil {
		r.observe("get_list", false, start)
		return shared.Fail[[]V](err)
	}
	r.observe("get_list", true, start)
	return shared.Succeed(views)
}

// GetModelList loads and projects every row
func (r *Repository[M, V]) GetModelList(ctx context.Context, scope *persistence.Scope) shared.Result[[]V] {
	return r.GetModelListBy(ctx, persistence.All(), scope)
}

// GetModelListByPage loads one page of rows matching pred, ordered by a whitelisted column
func (r *Repository[M, V]) GetModelListByPage(ctx context.Context, pred persistence.Predicate, filter shared.Filter, scope *persistence.Scope) shared.Result[shared.Paginated[V]] {
	start := time.Now()
	f := filter.Normalize()

	var total int64
	if err := pred.Apply(r.tx.Conn(ctx, scope).Model(new(M))).Count(&total).Error; err != nil {
		return storageFailure[shared.Paginated[V]](r, ctx, "count", start, err)
	}

	q := pred.Apply(r.tx.Conn(ctx, scope))
	if order := persistence.ValidateSortField(f.OrderBy, r.opts.sortFields, r.opts.defaultSort); order != "" {
		q = q.Order(clause.OrderByColumn{
			Column: clause.Column{Name: order},
			Desc:   persistence.ValidateSortOrder(f.OrderDir) == "DESC",
		})
	}

	var rows []M
	if err := q.Offset(f.Offset()).Limit(f.PageSize).Find(&rows).Error; err != nil {
		return storageFailure[shared.Paginated[V]](r, ctx, "get_page", start, err)
	}

	views, err := r.projectAll(ctx, rows, scope)
	if err != nil {
		r.observe("get_page", false, start)
		return shared.Fail[shared.Paginated[V]](err)
	}
	r.observe("get_page", true, start)
	return shared.Succeed(shared.NewPaginated(views, total, f.Page, f.PageSize))
}

// Max returns COALESCE(MAX(column), 0). The column must name a column of M.
func (r *Repository[M, V]) Max(ctx context.Context, column string, scope *persistence.Scope) shared.Result[int] {
	start := time.Now()
	col, err := r.columns.Resolve(new(M), column)
	if err != nil {
		r.observe("max", false, start)
		return shared.Fail[int](shared.NewDomainError(shared.CodeInvalidInput, err.Error()))
	}

	var maxValue int64
	row := r.tx.Conn(ctx, scope).Model(new(M)).
		Select("COALESCE(MAX(?), 0)", clause.Column{Name: col}).
		Row()
	if err := row.Scan(&maxValue); err != nil {
		return storageFailure[int](r, ctx, "max", start, err)
	}
	r.observe("max", true, start)
	return shared.Succeed(int(maxValue))
}

// Count returns the number of rows matching pred
func (r *Repository[M, V]) Count(ctx context.Context, pred persistence.Predicate, scope *persistence.Scope) shared.Result[int64] {
	start := time.Now()
	var n int64
	if err := pred.Apply(r.tx.Conn(ctx, scope).Model(new(M))).Count(&n).Error; err != nil {
		return storageFailure[int64](r, ctx, "count", start, err)
	}
	r.observe("count", true, start)
	return shared.Succeed(n)
}

// Exists reports whether any row matches pred
func (r *Repository[M, V]) Exists(ctx context.Context, pred persistence.Predicate, scope *persistence.Scope) shared.Result[bool] {
	res := r.Count(ctx, pred, scope)
	return shared.MapResult(res, func(n int64) bool { return n > 0 })
}

// SaveModel validates v, maps it to a model, writes the row and, when
// saveSubModels is set, saves its sub-models, all as one unit of work. With a nil
// scope the unit commits on its own; otherwise it joins the caller's scope.
// A validation failure skips persistence and returns the view with its errors.
func (r *Repository[M, V]) SaveModel(ctx context.Context, v V, saveSubModels bool, scope *persistence.Scope) shared.Result[V] {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, r.resource, "save", telemetry.SpanAttrCascade, saveSubModels)
	defer span.End()
	var invalid bool

	err := r.tx.Execute(ctx, scope, func(s *persistence.Scope) error {
		v.Validate(ctx, s)
		if !v.IsValid() {
			invalid = true
			return shared.NewValidationError(v.Errors())
		}

		m, err := v.ParseModel(ctx, s)
		if err != nil {
			return err
		}
		if err := s.DB(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(m).Error; err != nil {
			return shared.NewPersistenceError("save "+r.resource, err)
		}
		v.ParseView(m)

		if saveSubModels {
			if sub := v.SaveSubModels(ctx, m, s); !sub.IsSucceed {
				return sub.Err()
			}
		}
		return nil
	})

	if err != nil {
		r.observe("save", false, start)
		telemetry.RecordError(span, err)
		if invalid {
			r.log(ctx).Debug("view model invalid", zap.String("resource", r.resource), zap.Strings("errors", v.Errors()))
			return shared.FailWith(v, err, v.Errors()...)
		}
		r.log(ctx).Error("save model failed", zap.String("resource", r.resource), zap.Error(err))
		return shared.FailWith(v, err)
	}

	r.observe("save", true, start)
	return shared.Succeed(v)
}

// RemoveModel deletes the single row matching pred. With cascade set, the view's
// related models are removed first in the same scope. The returned Cleanup runs the
// view's secondary cleanup after the deletion commits; it is nil when nothing was removed.
func (r *Repository[M, V]) RemoveModel(ctx context.Context, pred persistence.Predicate, cascade bool, scope *persistence.Scope) (shared.Result[*M], *Cleanup) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, r.resource, "remove", telemetry.SpanAttrCascade, cascade)
	defer span.End()
	var removed *M
	cleanup := newCleanup(r.resource, r.opts)

	err := r.tx.Execute(ctx, scope, func(s *persistence.Scope) error {
		var rows []M
		if err := pred.Apply(s.DB(ctx)).Limit(2).Find(&rows).Error; err != nil {
			return shared.NewPersistenceError("load "+r.resource, err)
		}
		switch len(rows) {
		case 0:
			return shared.NewNotFoundError(r.resource)
		case 1:
		default:
			return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("more than one %s matched", r.resource))
		}

		v, err := r.build(ctx, &rows[0], s)
		if err != nil {
			return err
		}
		if err := r.removeView(ctx, s, v, cascade, cleanup); err != nil {
			return err
		}
		removed = v.Model()
		cleanup.arm(ctx, s)
		return nil
	})

	return r.removeOutcome(ctx, span, start, removed, cleanup, err)
}

// RemoveView deletes the row v was projected from
func (r *Repository[M, V]) RemoveView(ctx context.Context, v V, cascade bool, scope *persistence.Scope) (shared.Result[*M], *Cleanup) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, r.resource, "remove", telemetry.SpanAttrCascade, cascade)
	defer span.End()
	if v.Model() == nil {
		r.observe("remove", false, start)
		return shared.Fail[*M](shared.NewDomainError(shared.CodeInvalidInput,
			fmt.Sprintf("%s view has no model to remove", r.resource))), nil
	}

	cleanup := newCleanup(r.resource, r.opts)
	err := r.tx.Execute(ctx, scope, func(s *persistence.Scope) error {
		if err := r.removeView(ctx, s, v, cascade, cleanup); err != nil {
			return err
		}
		cleanup.arm(ctx, s)
		return nil
	})

	return r.removeOutcome(ctx, span, start, v.Model(), cleanup, err)
}

// RemoveListModel deletes every row matching pred in one scope. No match is a
// success with an empty list and no cleanup.
func (r *Repository[M, V]) RemoveListModel(ctx context.Context, pred persistence.Predicate, cascade bool, scope *persistence.Scope) (shared.Result[[]*M], *Cleanup) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, r.resource, "remove_list", telemetry.SpanAttrCascade, cascade)
	defer span.End()
	var removed []*M
	cleanup := newCleanup(r.resource, r.opts)

	err := r.tx.Execute(ctx, scope, func(s *persistence.Scope) error {
		var rows []M
		if err := pred.Apply(s.DB(ctx)).Find(&rows).Error; err != nil {
			return shared.NewPersistenceError("load "+r.resource, err)
		}
		for i := range rows {
			v, err := r.build(ctx, &rows[i], s)
			if err != nil {
				return err
			}
			if err := r.removeView(ctx, s, v, cascade, cleanup); err != nil {
				return err
			}
			removed = append(removed, v.Model())
		}
		if len(removed) > 0 {
			cleanup.arm(ctx, s)
		}
		return nil
	})

	if err != nil {
		r.observe("remove_list", false, start)
		telemetry.RecordError(span, err)
		r.log(ctx).Error("remove list failed", zap.String("resource", r.resource), zap.Error(err))
		return shared.Fail[[]*M](err), nil
	}
	r.observe("remove_list", true, start)
	if len(removed) == 0 {
		return shared.Succeed([]*M{}), nil
	}
	return shared.Succeed(removed), cleanup
}

func (r *Repository[M, V]) removeView(ctx context.Context, s *persistence.Scope, v V, cascade bool, cleanup *Cleanup) error {
	if cascade {
		if rel := v.RemoveRelatedModels(ctx, s); !rel.IsSucceed {
			return rel.Err()
		}
	}

	key, err := r.columns.Key(ctx, v.Model())
	if err != nil {
		return shared.NewPersistenceError("remove "+r.resource, err)
	}
	res := s.DB(ctx).Scopes(key).Delete(new(M))
	if res.Error != nil {
		return shared.NewPersistenceError("remove "+r.resource, res.Error)
	}
	if res.RowsAffected == 0 {
		return shared.NewNotFoundError(r.resource)
	}
	cleanup.add(v.CleanupAfterRemove)
	return nil
}

func (r *Repository[M, V]) removeOutcome(ctx context.Context, span trace.Span, start time.Time, removed *M, cleanup *Cleanup, err error) (shared.Result[*M], *Cleanup) {
	const op = "remove"
	if err != nil {
		r.observe(op, false, start)
		if shared.IsNotFound(err) {
			r.log(ctx).Debug("nothing to remove", zap.String("resource", r.resource))
		} else {
			telemetry.RecordError(span, err)
			r.log(ctx).Error("remove model failed", zap.String("resource", r.resource), zap.Error(err))
		}
		return shared.Fail[*M](err), nil
	}
	r.observe(op, true, start)
	return shared.Succeed(removed), cleanup
}

func (r *Repository[M, V]) project(ctx context.Context, m *M, scope *persistence.Scope) (V, error) {
	v, err := r.build(ctx, m, scope)
	if err != nil {
		return v, err
	}
	v.ExpandView(ctx, scope)
	return v, nil
}

// build runs the view factory. A factory error that is not already a domain
// error is reported as a persistence failure of the projection.
func (r *Repository[M, V]) build(ctx context.Context, m *M, scope *persistence.Scope) (V, error) {
	v, err := r.newView(ctx, m, scope)
	if err != nil {
		var zero V
		var derr *shared.DomainError
		if errors.As(err, &derr) {
			return zero, err
		}
		return zero, shared.NewPersistenceError("project "+r.resource, err)
	}
	return v, nil
}

func (r *Repository[M, V]) projectAll(ctx context.Context, rows []M, scope *persistence.Scope) ([]V, error) {
	views := make([]V, 0, len(rows))
	for i := range rows {
		v, err := r.project(ctx, &rows[i], scope)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (r *Repository[M, V]) observe(op string, ok bool, start time.Time) {
	r.opts.recorder.ObserveOperation(r.resource, op, ok, time.Since(start))
}

func (r *Repository[M, V]) log(ctx context.Context) *logger.ContextLogger {
	return logger.WithLogger(ctx, r.opts.logger)
}

// storageFailure logs a storage fault and folds it into a failed result
func storageFailure[T any, M any, V ViewModel[M]](r *Repository[M, V], ctx context.Context, op string, start time.Time, err error) shared.Result[T] {
	perr := shared.NewPersistenceError(strings.ReplaceAll(op, "_", " ")+" "+r.resource, err)
	if errors.Is(err, context.Canceled) {
		r.log(ctx).Debug("query cancelled", zap.String("resource", r.resource), zap.String("op", op))
	} else {
		r.log(ctx).Error("query failed", zap.String("resource", r.resource), zap.String("op", op), zap.Error(err))
	}
	r.observe(op, false, start)
	return shared.Fail[T](perr)
}
