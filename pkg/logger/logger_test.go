package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatch/pkg/logger"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json by default", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf))
		log.Info("hello")

		entry := decode(t, buf)
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "hello", entry["msg"])
	})

	t.Run("text format", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithFormat(logger.FormatText))
		log.Info("hello")

		assert.Contains(t, buf.String(), "level=INFO")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("invalid format panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { logger.New(logger.WithFormat("xml")) })
	})

	t.Run("static attributes", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithAttr(slog.String("svc", "dispatcher")))
		log.Info("msg")

		assert.Equal(t, "dispatcher", decode(t, buf)["svc"])
	})

	t.Run("level filters records", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithLevel(slog.LevelWarn))
		log.Info("skipped")

		assert.Empty(t, buf.String())
	})
}

func TestWithEnvironment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		env       string
		wantEnv   string
		wantDebug bool
	}{
		{name: "production", env: "production", wantEnv: "production"},
		{name: "prod alias", env: "prod", wantEnv: "production"},
		{name: "staging", env: "staging", wantEnv: "staging"},
		{name: "unknown falls back to development", env: "local", wantEnv: "development", wantDebug: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			buf := &bytes.Buffer{}
			log := logger.New(logger.WithEnvironment(tt.env, "dispatcher"), logger.WithOutput(buf))

			assert.Equal(t, tt.wantDebug, log.Enabled(context.Background(), slog.LevelDebug))
			log.Warn("probe")
			assert.Contains(t, buf.String(), tt.wantEnv)
			assert.Contains(t, buf.String(), "dispatcher")
		})
	}
}

func TestContextExtraction(t *testing.T) {
	t.Parallel()

	type ctxKey struct{}
	buf := &bytes.Buffer{}
	log := logger.New(
		logger.WithOutput(buf),
		logger.WithContextValue("trace", ctxKey{}),
		logger.WithContextExtractors(nil),
	)

	ctx := context.WithValue(context.Background(), ctxKey{}, "abc-123")
	log.InfoContext(ctx, "with context")

	assert.Equal(t, "abc-123", decode(t, buf)["trace"])

	buf.Reset()
	log.With(slog.String("component", "fanout")).InfoContext(ctx, "derived logger")
	entry := decode(t, buf)
	assert.Equal(t, "abc-123", entry["trace"])
	assert.Equal(t, "fanout", entry["component"])
}

func TestAttributes(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.New(logger.WithOutput(buf))
	log.LogAttrs(context.Background(), slog.LevelError, "failed",
		logger.Error(errors.New("boom")),
		logger.Error(nil),
		logger.UserID("42"),
		logger.UserID(""),
		logger.Topic("user-events"),
		logger.EventType("USER_CREATED"),
		logger.Component("dispatch"),
		logger.Channel("user_42"),
		logger.Group("kafka", slog.Int("partition", 3)),
	)

	entry := decode(t, buf)
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "42", entry["user_id"])
	assert.Equal(t, "user-events", entry["topic"])
	assert.Equal(t, "USER_CREATED", entry["event_type"])
	assert.Equal(t, "dispatch", entry["component"])
	assert.Equal(t, "user_42", entry["channel"])
	assert.Equal(t, map[string]any{"partition": float64(3)}, entry["kafka"])
}

func TestDiscard(t *testing.T) {
	t.Parallel()
	log := logger.Discard()
	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
}
