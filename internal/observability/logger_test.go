package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	initLogger(&buf, "info", "json")

	logger.Info("room created", slog.Int64("room_id", 7))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "room created", entry["msg"])
	assert.Equal(t, float64(7), entry["room_id"])
}

func TestInitLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	initLogger(&buf, "info", "text")

	logger.Info("member left")

	assert.Contains(t, buf.String(), "msg=\"member left\"")
}

func TestInitLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	initLogger(&buf, "warn", "text")

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected slog.Level
	}{
		{"debug", "debug", slog.LevelDebug},
		{"info", "info", slog.LevelInfo},
		{"warn", "warn", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"unknown", "unknown", slog.LevelInfo},
		{"empty", "", slog.LevelInfo},
		{"uppercase", "DEBUG", slog.LevelInfo}, // Case sensitive, defaults to info
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	initLogger(&buf, "info", "json")

	t.Run("attaches request and member ids", func(t *testing.T) {
		buf.Reset()
		ctx := WithRequestID(context.Background(), "req-123")
		ctx = WithMemberID(ctx, 42)

		FromContext(ctx).Info("entered")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "req-123", entry["request_id"])
		assert.Equal(t, float64(42), entry["member_id"])
	})

	t.Run("empty values are ignored", func(t *testing.T) {
		buf.Reset()
		ctx := WithRequestID(context.Background(), "")
		ctx = WithMemberID(ctx, 0)

		FromContext(ctx).Info("entered")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.NotContains(t, entry, "request_id")
		assert.NotContains(t, entry, "member_id")
	})
}

func TestRequestID(t *testing.T) {
	assert.Empty(t, RequestID(context.Background()))
	assert.Equal(t, "msg-7", RequestID(WithRequestID(context.Background(), "msg-7")))
}

func TestFromContext_Fallback(t *testing.T) {
	savedLogger := logger
	defer func() { logger = savedLogger }()

	logger = nil
	assert.NotNil(t, FromContext(context.Background()))
}
