package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"
)

func TestWithContext(t *testing.T) {
	t.Run("stores and retrieves logger", func(t *testing.T) {
		logger := zap.NewNop()
		ctx := WithContext(context.Background(), logger)

		retrieved := FromContext(ctx)
		assert.Same(t, logger, retrieved)
	})

	t.Run("returns no-op logger when not set", func(t *testing.T) {
		retrieved := FromContext(context.Background())
		require.NotNil(t, retrieved)
		// Logging through it must not panic
		retrieved.Info("ignored")
	})
}

func TestWithRequestID(t *testing.T) {
	t.Run("enriches logger and context", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		logger := zap.New(core)

		ctx, enriched := WithRequestID(context.Background(), logger, "req-123")
		enriched.Info("something happened")

		assert.Equal(t, "req-123", GetRequestID(ctx))
		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, "req-123", entry.ContextMap()["request_id"])
	})

	t.Run("context-stored logger carries the request id", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		logger := zap.New(core)

		ctx, _ := WithRequestID(context.Background(), logger, "req-456")
		FromContext(ctx).Warn("downstream log")

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "req-456", logs.All()[0].ContextMap()["request_id"])
	})
}

func TestGetRequestID(t *testing.T) {
	t.Run("returns empty string when absent", func(t *testing.T) {
		assert.Equal(t, "", GetRequestID(context.Background()))
	})
}
