package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestModel is a simple model for testing database operations
type TestModel struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100"`
	CreatedAt time.Time
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&TestModel{}))
	return db
}

func setupTracerWithExporter(t *testing.T) (*trace.TracerProvider, *tracetest.SpanRecorder) {
	spanRecorder := tracetest.NewSpanRecorder()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(spanRecorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, spanRecorder
}

func attrMap(attrs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, a := range attrs {
		m[a.Key] = a.Value
	}
	return m
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()

	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL, "query variables are hidden by default")
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgresql", cfg.DBSystem)
}

func TestNewDBTracingPlugin_Defaults(t *testing.T) {
	p := NewDBTracingPlugin(DBTracingConfig{}, nil)
	assert.Equal(t, 200*time.Millisecond, p.config.SlowQueryThresh)
	assert.NotNil(t, p.logger)
}

func TestDBTracingPlugin_RegisterOtelGorm(t *testing.T) {
	tests := []struct {
		name string
		cfg  DBTracingConfig
	}{
		{"disabled", DBTracingConfig{Enabled: false}},
		{"enabled", DBTracingConfig{Enabled: true, DBSystem: "sqlite"}},
		{"full sql", DBTracingConfig{Enabled: true, LogFullSQL: true, DBSystem: "sqlite"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			plugin := NewDBTracingPlugin(tt.cfg, zap.NewNop())
			require.NoError(t, plugin.RegisterOtelGorm(db))
			require.NoError(t, db.Create(&TestModel{Name: "x"}).Error)
		})
	}
}

func TestDBTracingPlugin_RegisterOtelGorm_DoubleRegistration(t *testing.T) {
	db := setupTestDB(t)
	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true, DBSystem: "sqlite"}, zap.NewNop())

	require.NoError(t, plugin.RegisterOtelGorm(db))
	assert.Error(t, plugin.RegisterOtelGorm(db), "otelgorm refuses a second registration")
}

func TestDBTracingPlugin_RecordsStatementSpans(t *testing.T) {
	db := setupTestDB(t)
	tp, recorder := setupTracerWithExporter(t)

	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true, DBSystem: "sqlite"}, zap.NewNop())
	require.NoError(t, plugin.RegisterOtelGorm(db))

	ctx, span := tp.Tracer("test").Start(context.Background(), "sync-step")
	tx := db.WithContext(ctx)
	require.NoError(t, tx.Create(&TestModel{Name: "shirt"}).Error)

	var found TestModel
	require.NoError(t, tx.First(&found, "name = ?", "shirt").Error)
	assert.Equal(t, "shirt", found.Name)
	span.End()

	assert.NotEmpty(t, recorder.Ended())
}

func TestDBTracingPlugin_AfterCallback(t *testing.T) {
	tests := []struct {
		name       string
		thresh     time.Duration
		dbErr      error
		wantSlow   bool
		wantStatus codes.Code
	}{
		{name: "fast query", thresh: time.Hour, wantStatus: codes.Unset},
		{name: "slow query", thresh: time.Nanosecond, wantSlow: true, wantStatus: codes.Unset},
		{name: "error marks span", thresh: time.Hour, dbErr: assert.AnError, wantStatus: codes.Error},
		{name: "record not found is not an error", thresh: time.Hour, dbErr: gorm.ErrRecordNotFound, wantStatus: codes.Unset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			tp, recorder := setupTracerWithExporter(t)
			plugin := NewDBTracingPlugin(DBTracingConfig{SlowQueryThresh: tt.thresh}, zap.NewNop())

			ctx, span := tp.Tracer("test").Start(context.Background(), "statement")
			ctx = WithQueryStartTime(ctx)
			time.Sleep(time.Millisecond)

			stmt := db.WithContext(ctx).Session(&gorm.Session{})
			stmt.Statement.Table = "test_models"
			stmt.Statement.RowsAffected = 3
			stmt.Error = tt.dbErr

			plugin.AfterCallback(stmt)
			span.End()

			spans := recorder.Ended()
			require.Len(t, spans, 1)
			attrs := attrMap(spans[0].Attributes())
			assert.Equal(t, "test_models", attrs["db.sql.table"].AsString())
			assert.Equal(t, int64(3), attrs["db.rows_affected"].AsInt64())
			assert.Equal(t, tt.wantSlow, attrs["db.slow_query"].AsBool())
			assert.Equal(t, tt.wantStatus, spans[0].Status().Code)
			if tt.wantSlow {
				require.NotEmpty(t, spans[0].Events())
				assert.Equal(t, "slow_query_warning", spans[0].Events()[0].Name)
			}
		})
	}
}

func TestDBTracingPlugin_AfterCallback_NoSpan(t *testing.T) {
	db := setupTestDB(t)
	plugin := NewDBTracingPlugin(DefaultDBTracingConfig(), nil)

	assert.NotPanics(t, func() {
		plugin.AfterCallback(db.WithContext(context.Background()))
	})
}

func TestWithQueryStartTime(t *testing.T) {
	ctx := WithQueryStartTime(context.Background())
	start, ok := ctx.Value(queryStartTimeKey).(time.Time)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now(), start, time.Second)
}
