package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"
)

// ErrScopeClosed is returned when a finished scope is committed or rolled back again
var ErrScopeClosed = errors.New("persistence: scope already closed")

var errNestedFinalise = errors.New("persistence: nested scope cannot be finalised directly")

// Scope is an explicit transaction handle passed between repository operations.
//
// Whoever begins a scope owns it and is the only party that may commit or roll it
// back. Functions that receive a non-nil scope from their caller join it and leave
// finalisation to the caller.
type Scope struct {
	tx     *gorm.DB
	parent *Scope

	mu     sync.Mutex
	hooks  []func(committed bool)
	closed bool
}

// DB returns the transactional handle bound to ctx
func (s *Scope) DB(ctx context.Context) *gorm.DB {
	return s.tx.WithContext(ctx)
}

// OnFinish registers fn to learn the outcome of the work done in this scope.
// fn(true) runs after the owning scope commits; fn(false) runs when the scope, or the
// savepoint fn was registered in, rolls back.
func (s *Scope) OnFinish(fn func(committed bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// AfterCommit registers fn to run only after the owning scope commits
func (s *Scope) AfterCommit(fn func()) {
	s.OnFinish(func(committed bool) {
		if committed {
			fn()
		}
	})
}

// Commit commits the transaction and then runs the finish hooks
func (s *Scope) Commit() error {
	hooks, err := s.close()
	if err != nil {
		return err
	}
	if err := s.tx.Commit().Error; err != nil {
		fire(hooks, false)
		return fmt.Errorf("commit: %w", err)
	}
	fire(hooks, true)
	return nil
}

// Rollback aborts the transaction and then runs the finish hooks
func (s *Scope) Rollback() error {
	hooks, err := s.close()
	if err != nil {
		return err
	}
	err = s.tx.Rollback().Error
	fire(hooks, false)
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

func (s *Scope) close() ([]func(bool), error) {
	if s.parent != nil {
		return nil, errNestedFinalise
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrScopeClosed
	}
	s.closed = true
	hooks := s.hooks
	s.hooks = nil
	return hooks, nil
}

func (s *Scope) drain() []func(bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hooks := s.hooks
	s.hooks = nil
	return hooks
}

func fire(hooks []func(bool), committed bool) {
	for _, fn := range hooks {
		fn(committed)
	}
}

// Transactor begins scopes and runs units of work inside them
type Transactor struct {
	db *gorm.DB
}

// NewTransactor creates a Transactor over db
func NewTransactor(db *gorm.DB) *Transactor {
	return &Transactor{db: db}
}

// Begin starts a new owned scope
func (t *Transactor) Begin(ctx context.Context) (*Scope, error) {
	tx := t.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("begin: %w", tx.Error)
	}
	return &Scope{tx: tx}, nil
}

// Conn returns the handle to read through: the scope's transaction when one is
// given, otherwise the connection pool.
func (t *Transactor) Conn(ctx context.Context, scope *Scope) *gorm.DB {
	if scope != nil {
		return scope.DB(ctx)
	}
	return t.db.WithContext(ctx)
}

// Execute runs fn as one unit of work.
//
// With a nil scope a new scope is begun, committed when fn succeeds and rolled back
// when it fails. With a caller-owned scope fn runs inside a savepoint: a failure rolls
// back only fn's writes and the caller's transaction stays usable.
func (t *Transactor) Execute(ctx context.Context, scope *Scope, fn func(*Scope) error) error {
	if scope != nil {
		return t.nested(ctx, scope, fn)
	}

	owned, err := t.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = owned.Rollback()
			panic(p)
		}
	}()

	if err := fn(owned); err != nil {
		if rbErr := owned.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return owned.Commit()
}

func (t *Transactor) nested(ctx context.Context, scope *Scope, fn func(*Scope) error) error {
	var child *Scope
	err := scope.DB(ctx).Transaction(func(tx *gorm.DB) error {
		child = &Scope{tx: tx, parent: scope}
		return fn(child)
	})
	if child == nil {
		return err
	}
	hooks := child.drain()
	if err != nil {
		fire(hooks, false)
		return err
	}
	for _, h := range hooks {
		scope.OnFinish(h)
	}
	return nil
}
