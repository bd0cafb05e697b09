package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	requestIDKey
	configurationIDKey
	runIDKey
	operatorKey
)

// WithContext stores logger in ctx
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in ctx, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID records the HTTP request ID in ctx and returns the request logger stored with it
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	logger = logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, logger), logger
}

// WithRun records the configuration and run of a sync in ctx and returns the run logger
// stored with them
func WithRun(ctx context.Context, logger *zap.Logger, configurationID, runID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, configurationIDKey, configurationID)
	ctx = context.WithValue(ctx, runIDKey, runID)
	logger = logger.With(zap.String("configuration_id", configurationID), zap.String("run_id", runID))
	return WithContext(ctx, logger), logger
}

// WithOperator records the authenticated token subject in ctx and returns the logger stored with it
func WithOperator(ctx context.Context, logger *zap.Logger, subject string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, operatorKey, subject)
	logger = logger.With(zap.String("operator", subject))
	return WithContext(ctx, logger), logger
}

// GetOperator returns the authenticated token subject of ctx
func GetOperator(ctx context.Context) string {
	subject, _ := ctx.Value(operatorKey).(string)
	return subject
}

// GetRequestID returns the request ID of ctx
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// GetRunID returns the sync run ID of ctx
func GetRunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// Fields returns the correlation fields found in ctx: trace and span IDs of a valid span,
// request ID, operator, configuration ID and run ID. Missing values are left out.
func Fields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	for _, kv := range []struct {
		key  ctxKey
		name string
	}{
		{requestIDKey, "request_id"},
		{operatorKey, "operator"},
		{configurationIDKey, "configuration_id"},
		{runIDKey, "run_id"},
	} {
		if v, _ := ctx.Value(kv.key).(string); v != "" {
			fields = append(fields, zap.String(kv.name, v))
		}
	}
	return fields
}

// ForContext returns base annotated with the trace context of ctx
func ForContext(ctx context.Context, base *zap.Logger) *zap.Logger {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		return base.With(
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	return base
}
