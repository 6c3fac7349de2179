package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"DEBUG", LevelDebug},
		{"Warning", LevelWarn},
		{"", LevelInfo},
		{"trace", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatJSON, ParseFormat("JSON"))
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatText, ParseFormat(""))
	assert.Equal(t, FormatText, ParseFormat("yaml"))
}

func TestNew_Formats(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf}).Info("started", "port", 8080)
	assert.Contains(t, buf.String(), `"msg":"started"`)
	assert.Contains(t, buf.String(), `"port":8080`)

	buf.Reset()
	New(Config{Level: LevelInfo, Format: FormatText, Output: &buf}).Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestNop(t *testing.T) {
	logger := Nop()
	require.NotNil(t, logger)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
	logger.Error("dropped", "key", "value")
}

func TestNew_File(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "amiddy.log")

	logger := New(Config{Level: LevelInfo, Output: &console, File: path})
	logger.Debug("file only")
	logger.Info("both")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"file only"`)
	assert.Contains(t, string(data), `"msg":"both"`)
	assert.NotContains(t, console.String(), "file only")
	assert.Contains(t, console.String(), "both")
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("boom") }

func TestMultiHandler(t *testing.T) {
	var a, b bytes.Buffer
	ok := slog.NewTextHandler(&a, &slog.HandlerOptions{Level: LevelDebug})
	h := NewMultiHandler(failingHandler{ok}, ok, slog.NewTextHandler(&b, nil))

	assert.True(t, h.Enabled(context.Background(), LevelDebug))

	err := h.Handle(context.Background(), slog.NewRecord(timeZero, LevelInfo, "hello", 0))
	assert.Error(t, err)
	assert.Equal(t, 1, strings.Count(a.String(), "hello"))
	assert.Equal(t, 1, strings.Count(b.String(), "hello"))
}

func TestMultiHandler_WithAttrs(t *testing.T) {
	var a, b bytes.Buffer
	h := NewMultiHandler(slog.NewTextHandler(&a, nil), slog.NewJSONHandler(&b, nil))

	slog.New(h).With("component", "proxy").WithGroup("req").Info("sent", "id", 3)

	assert.Contains(t, a.String(), "component=proxy")
	assert.Contains(t, a.String(), "req.id=3")
	assert.Contains(t, b.String(), `"req":{"id":3}`)
}
