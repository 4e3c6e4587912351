package log

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"trace", LevelTrace},
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseLevel(tc.in), "input %q", tc.in)
	}
}

func setupFileLogger(t *testing.T, level, path string) *slog.Logger {
	t.Helper()
	logger, closers, err := SetupLogger(level, path)
	require.NoError(t, err)
	t.Cleanup(func() {
		for _, c := range closers {
			_ = c.Close()
		}
	})
	return logger
}

func TestSetupLoggerWritesTraceToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gtlink.log")
	logger := setupFileLogger(t, "trace", path)

	logger.Log(context.Background(), LevelTrace, "frame published", "packet_id", 7)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "frame published")
	assert.Contains(t, string(data), "level=TRACE", "trace level renders by name")
}

func TestSetupLoggerAppendsAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gtlink.log")

	setupFileLogger(t, "info", path).Info("first run")
	setupFileLogger(t, "info", path).Info("second run")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "first run", "restart must not truncate the log file")
	assert.Contains(t, string(data), "second run")
}

func TestSetupLoggerFileLevelFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gtlink.log")
	logger := setupFileLogger(t, "warn", path)

	logger.Info("quiet")
	logger.Warn("loud")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "quiet")
	assert.Contains(t, string(data), "loud")
}

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b strings.Builder
	h := MultiHandler{hs: []slog.Handler{
		slog.NewTextHandler(&a, nil),
		slog.NewTextHandler(&b, nil),
	}}

	slog.New(h).Info("hello")
	assert.Contains(t, a.String(), "hello")
	assert.Contains(t, b.String(), "hello")
}

func TestLevelFilterSplitsStreams(t *testing.T) {
	var out strings.Builder
	h := LevelFilter{
		pass: func(l slog.Level) bool { return l >= slog.LevelError },
		h:    slog.NewTextHandler(&out, nil),
	}
	logger := slog.New(h)

	logger.Info("dropped")
	logger.Error("kept")

	assert.NotContains(t, out.String(), "dropped")
	assert.Contains(t, out.String(), "kept")
}
