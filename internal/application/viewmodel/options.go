package viewmodel

import (
	"time"

	"go.uber.org/zap"
)

// IdentityStrategy selects how new rows get their key
type IdentityStrategy string

const (
	// IdentitySequence leaves the key at zero so the database assigns it on insert
	IdentitySequence IdentityStrategy = "sequence"
	// IdentityMaxPlusOne reads MAX(id)+1 inside the save scope. Two concurrent
	// writers can read the same maximum, so use it only with a single writer.
	IdentityMaxPlusOne IdentityStrategy = "max_plus_one"
)

// Recorder receives repository outcomes, typically for metrics
type Recorder interface {
	ObserveOperation(resource, operation string, succeeded bool, elapsed time.Duration)
	ObserveCleanup(resource string, succeeded bool)
}

type nopRecorder struct{}

func (nopRecorder) ObserveOperation(string, string, bool, time.Duration) {}
func (nopRecorder) ObserveCleanup(string, bool)                          {}

type options struct {
	logger      *zap.Logger
	recorder    Recorder
	identity    IdentityStrategy
	sortFields  map[string]bool
	defaultSort string
	cleanups    *CleanupTracker
}

func defaultOptions() options {
	return options{
		recorder: nopRecorder{},
		identity: IdentitySequence,
	}
}

// Option configures a Repository
type Option func(*options)

// WithLogger sets the logger. Without it the logger carried by the request context is used.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithRecorder sets the outcome recorder
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithIdentityStrategy sets how new rows get their key. Unknown values fall back to sequence.
func WithIdentityStrategy(s IdentityStrategy) Option {
	return func(o *options) {
		if s == IdentityMaxPlusOne {
			o.identity = IdentityMaxPlusOne
			return
		}
		o.identity = IdentitySequence
	}
}

// WithSortFields sets the columns a paged list may be ordered by and the default order column
func WithSortFields(fields map[string]bool, defaultField string) Option {
	return func(o *options) {
		o.sortFields = fields
		o.defaultSort = defaultField
	}
}

// WithCleanupTracker reports the repository's running cleanups to t
func WithCleanupTracker(t *CleanupTracker) Option {
	return func(o *options) {
		o.cleanups = t
	}
}
