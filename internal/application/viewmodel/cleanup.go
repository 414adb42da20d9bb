package viewmodel

import (
	"context"
	"errors"
	"sync"

	"github.com/siocms/backend/internal/domain/shared"
	"github.com/siocms/backend/internal/infrastructure/logger"
	"github.com/siocms/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

// ErrCleanupCancelled is reported by a Cleanup whose removal was rolled back
var ErrCleanupCancelled = errors.New("cleanup cancelled: removal was rolled back")

// Cleanup is the second phase of a delete: secondary resources (template files,
// module images) are removed only after the row deletion commits. The work runs in
// its own goroutine and reports independently of the delete result.
//
// A nil *Cleanup means there is nothing to clean up; its methods are safe to call.
type Cleanup struct {
	resource string
	log      *zap.Logger
	recorder Recorder
	tracker  *CleanupTracker

	tasks []func(context.Context) error
	done  chan struct{}
	once  sync.Once
	err   error
}

func newCleanup(resource string, o options) *Cleanup {
	return &Cleanup{
		resource: resource,
		log:      o.logger,
		recorder: o.recorder,
		tracker:  o.cleanups,
		done:     make(chan struct{}),
	}
}

func (c *Cleanup) add(task func(context.Context) error) {
	c.tasks = append(c.tasks, task)
}

// arm ties the cleanup to the outcome of scope
func (c *Cleanup) arm(ctx context.Context, scope *persistence.Scope) {
	ctx = context.WithoutCancel(ctx)
	scope.OnFinish(func(committed bool) {
		if !committed {
			c.finish(ctx, ErrCleanupCancelled)
			return
		}
		c.tracker.start()
		go c.run(ctx)
	})
}

func (c *Cleanup) run(ctx context.Context) {
	defer c.tracker.done()
	var errs []error
	for _, task := range c.tasks {
		if err := task(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	var err error
	if len(errs) > 0 {
		err = shared.NewSecondaryResourceError("cleanup "+c.resource, errors.Join(errs...))
	}
	c.finish(ctx, err)
}

func (c *Cleanup) finish(ctx context.Context, err error) {
	c.once.Do(func() {
		defer close(c.done)
		c.err = err

		log := logger.WithLogger(ctx, c.log)
		switch {
		case errors.Is(err, ErrCleanupCancelled):
			log.Debug("cleanup cancelled", zap.String("resource", c.resource))
		case err != nil:
			log.Warn("cleanup after remove failed", zap.String("resource", c.resource), zap.Error(err))
			c.recorder.ObserveCleanup(c.resource, false)
		default:
			c.recorder.ObserveCleanup(c.resource, true)
		}
	})
}

// Done is closed once the cleanup has finished or been cancelled
func (c *Cleanup) Done() <-chan struct{} {
	if c == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return c.done
}

// Wait blocks until the cleanup finishes and returns its error. A cleanup whose
// removal ran in a caller-owned scope finishes only when that scope ends.
func (c *Cleanup) Wait(ctx context.Context) error {
	if c == nil {
		return nil
	}
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
