package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // include query variables in spans; never in production
	SlowQueryThresh time.Duration // queries slower than this are flagged on their span
	DBSystem        string        // postgresql, sqlite
}

// DefaultDBTracingConfig returns default configuration for database tracing.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

// DBTracingPlugin wraps the otelgorm plugin with slow query flagging.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a new database tracing plugin with the given configuration.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = DefaultDBTracingConfig().SlowQueryThresh
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

type contextKey string

const queryStartTimeKey contextKey = "otel_query_start_time"

// gormProcessors lists the callback chains a statement can run through
var gormProcessors = []string{"create", "query", "update", "delete", "row", "raw"}

// RegisterOtelGorm registers otelgorm and the timing callbacks on db
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	for _, name := range gormProcessors {
		if err := register(db, name, p.beforeCallback, p.afterCallback); err != nil {
			return err
		}
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_system", p.config.DBSystem),
	)
	return nil
}

func register(db *gorm.DB, name string, before, after func(*gorm.DB)) error {
	cb := db.Callback()
	switch name {
	case "create":
		if err := cb.Create().Before("gorm:create").Register("otel_timing:before_create", before); err != nil {
			return err
		}
		return cb.Create().After("gorm:create").Register("otel_timing:after_create", after)
	case "query":
		if err := cb.Query().Before("gorm:query").Register("otel_timing:before_query", before); err != nil {
			return err
		}
		return cb.Query().After("gorm:query").Register("otel_timing:after_query", after)
	case "update":
		if err := cb.Update().Before("gorm:update").Register("otel_timing:before_update", before); err != nil {
			return err
		}
		return cb.Update().After("gorm:update").Register("otel_timing:after_update", after)
	case "delete":
		if err := cb.Delete().Before("gorm:delete").Register("otel_timing:before_delete", before); err != nil {
			return err
		}
		return cb.Delete().After("gorm:delete").Register("otel_timing:after_delete", after)
	case "row":
		if err := cb.Row().Before("gorm:row").Register("otel_timing:before_row", before); err != nil {
			return err
		}
		return cb.Row().After("gorm:row").Register("otel_timing:after_row", after)
	default:
		if err := cb.Raw().Before("gorm:raw").Register("otel_timing:before_raw", before); err != nil {
			return err
		}
		return cb.Raw().After("gorm:raw").Register("otel_timing:after_raw", after)
	}
}

func (p *DBTracingPlugin) beforeCallback(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartTimeKey, time.Now())
	}
}

// afterCallback annotates the statement span with rows, table, error and slowness
func (p *DBTracingPlugin) afterCallback(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if startTime, ok := ctx.Value(queryStartTimeKey).(time.Time); ok {
		elapsed := time.Since(startTime)
		if elapsed > p.config.SlowQueryThresh {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
			span.AddEvent("slow_query_warning", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
			))
		}
	}
}
