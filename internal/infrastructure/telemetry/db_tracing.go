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

// DBTracingConfig holds configuration for database tracing
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool // include bound variables in span statements (dev only)
	SlowQueryThresh time.Duration
	DBSystem        string
}

type queryStartKey struct{}

// InstrumentDB registers the otelgorm plugin plus callbacks that annotate
// each query span with the affected table, row count and a slow-query marker.
// The annotating callbacks run before otelgorm ends the span.
func InstrumentDB(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	after := slowQueryCallback(cfg.SlowQueryThresh)
	cb := db.Callback()
	err := errors.Join(
		cb.Create().Before("gorm:create").Register("expenseai:start_create", markQueryStart),
		cb.Query().Before("gorm:query").Register("expenseai:start_query", markQueryStart),
		cb.Update().Before("gorm:update").Register("expenseai:start_update", markQueryStart),
		cb.Delete().Before("gorm:delete").Register("expenseai:start_delete", markQueryStart),
		cb.Row().Before("gorm:row").Register("expenseai:start_row", markQueryStart),
		cb.Raw().Before("gorm:raw").Register("expenseai:start_raw", markQueryStart),
		cb.Create().After("gorm:create").Before("otel:after_create").Register("expenseai:slow_create", after),
		cb.Query().After("gorm:query").Before("otel:after_query").Register("expenseai:slow_query", after),
		cb.Update().After("gorm:update").Before("otel:after_update").Register("expenseai:slow_update", after),
		cb.Delete().After("gorm:delete").Before("otel:after_delete").Register("expenseai:slow_delete", after),
		cb.Row().After("gorm:row").Before("otel:after_row").Register("expenseai:slow_row", after),
		cb.Raw().After("gorm:raw").Before("otel:after_raw").Register("expenseai:slow_raw", after),
	)
	if err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.String("db_system", cfg.DBSystem),
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func slowQueryCallback(threshold time.Duration) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			return
		}
		span := trace.SpanFromContext(ctx)
		if !span.IsRecording() {
			return
		}

		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
		if db.Statement.Table != "" {
			span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
		}
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, db.Error.Error())
			span.RecordError(db.Error)
		}

		start, ok := ctx.Value(queryStartKey{}).(time.Time)
		if !ok {
			return
		}
		if elapsed := time.Since(start); elapsed > threshold {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
		}
	}
}
