package log

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))

	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, nil)).With("node_id", "n1")
	ctx := WithLogger(context.Background(), logger)

	FromContext(ctx).Info("hello")
	assert.Contains(t, buf.String(), "node_id=n1")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":  slog.LevelDebug,
		"INFO":   slog.LevelInfo,
		" warn ": slog.LevelWarn,
		"error":  slog.LevelError,
		"info+2": slog.LevelInfo + 2,
		"":       slog.LevelInfo,
		"loud":   slog.LevelInfo,
	}

	for name, want := range tests {
		assert.Equal(t, want, ParseLevel(name), name)
	}
}

func TestNewHandler(t *testing.T) {
	var buf bytes.Buffer

	slog.New(NewHandler(&buf, "json", slog.LevelInfo)).Info("hello", "node_id", "n1")
	assert.Contains(t, buf.String(), `"node_id":"n1"`)

	buf.Reset()
	slog.New(NewHandler(&buf, "text", slog.LevelWarn)).Info("hidden")
	assert.Empty(t, buf.String())
}

func TestSetup_Level(t *testing.T) {
	previous := slog.Default()
	defer slog.SetDefault(previous)

	Setup("error", "text")
	assert.False(t, slog.Default().Enabled(context.Background(), slog.LevelInfo))

	Setup("debug", "json")
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))
}
