package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(t *testing.T, level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	t.Helper()
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), recorded
}

func traceQuery(gl *GormLogger, ctx context.Context, begin time.Time, err error) {
	gl.Trace(ctx, begin, func() (string, int64) {
		return "SELECT * FROM stock_locations WHERE warehouse_id = ?", 3
	}, err)
}

func TestNewGormLogger(t *testing.T) {
	gl, _ := newObservedGormLogger(t, gormlogger.Info)

	assert.Equal(t, gormlogger.Info, gl.level)
	assert.Equal(t, 200*time.Millisecond, gl.slowThreshold)
	assert.True(t, gl.ignoreRecordNotFound)

	var _ gormlogger.Interface = gl
}

func TestGormLogger_Options(t *testing.T) {
	gl, _ := newObservedGormLogger(t, gormlogger.Info,
		WithSlowThreshold(500*time.Millisecond),
		WithIgnoreRecordNotFoundError(false),
	)

	assert.Equal(t, 500*time.Millisecond, gl.slowThreshold)
	assert.False(t, gl.ignoreRecordNotFound)
}

func TestGormLogger_LogMode(t *testing.T) {
	gl, _ := newObservedGormLogger(t, gormlogger.Info)

	clone := gl.LogMode(gormlogger.Warn)

	assert.Equal(t, gormlogger.Info, gl.level)
	cloned, ok := clone.(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Warn, cloned.level)
}

func TestGormLogger_Levels(t *testing.T) {
	t.Run("info passes through at Info level", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(t, gormlogger.Info)
		gl.Info(context.Background(), "migrating table %s", "batches")

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].Message, "migrating table batches")
	})

	t.Run("info suppressed at Silent level", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(t, gormlogger.Silent)
		gl.Info(context.Background(), "migrating table batches")

		assert.Empty(t, recorded.All())
	})

	t.Run("warn and error keep their zap levels", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(t, gormlogger.Info)
		gl.Warn(context.Background(), "retrying lock release")
		gl.Error(context.Background(), "constraint violation")

		logs := recorded.All()
		require.Len(t, logs, 2)
		assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
		assert.Equal(t, zapcore.ErrorLevel, logs[1].Level)
	})
}

func TestGormLogger_Trace(t *testing.T) {
	ctx := context.Background()

	t.Run("query error logs as SQL Error", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(t, gormlogger.Error)
		traceQuery(gl, ctx, time.Now(), errors.New("deadlock detected"))

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].Message, "SQL Error")
	})

	t.Run("record-not-found is ignored by default", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(t, gormlogger.Error)
		traceQuery(gl, ctx, time.Now(), gormlogger.ErrRecordNotFound)

		assert.Empty(t, recorded.All())
	})

	t.Run("query over the threshold logs as slow", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(t, gormlogger.Warn, WithSlowThreshold(time.Nanosecond))
		traceQuery(gl, ctx, time.Now().Add(-time.Second), nil)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].Message, "SLOW SQL")
	})

	t.Run("normal query logs at debug", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(t, gormlogger.Info)
		traceQuery(gl, ctx, time.Now(), nil)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].Message, "SQL Query")
		assert.Equal(t, zapcore.DebugLevel, logs[0].Level)
	})

	t.Run("silent level traces nothing", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(t, gormlogger.Silent)
		traceQuery(gl, ctx, time.Now(), nil)

		assert.Empty(t, recorded.All())
	})

	t.Run("request ID from the context rides along", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(t, gormlogger.Info)
		reqCtx := context.WithValue(ctx, RequestIDKey, "alloc-trace-9")
		traceQuery(gl, reqCtx, time.Now(), nil)

		logs := recorded.All()
		require.Len(t, logs, 1)
		found := false
		for _, field := range logs[0].Context {
			if field.Key == "request_id" {
				found = true
				assert.Equal(t, "alloc-trace-9", field.String)
			}
		}
		assert.True(t, found)
	})
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"", gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapGormLogLevel(tt.level))
		})
	}
}
