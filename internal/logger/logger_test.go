package logger

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"tradeops/internal/models"
	"tradeops/internal/version"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInfo() version.Info {
	return version.Info{Version: "1.0.0", GitCommit: "abc1234", InstanceID: "instance-1"}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
		wantErr  bool
	}{
		{input: "debug", expected: slog.LevelDebug},
		{input: "INFO", expected: slog.LevelInfo},
		{input: "warn", expected: slog.LevelWarn},
		{input: "error", expected: slog.LevelError},
		{input: "trace", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := parseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestSetupStdout(t *testing.T) {
	for _, format := range []string{"json", "text"} {
		t.Run(format, func(t *testing.T) {
			l, closer, err := Setup(models.LoggingConfig{Level: "info", Format: format, Output: "stdout"}, testInfo())
			require.NoError(t, err)
			assert.Nil(t, closer)
			assert.NotNil(t, l)
		})
	}
}

func TestSetupFileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "tradeops.log")

	l, closer, err := Setup(models.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	}, testInfo())
	require.NoError(t, err)
	require.NotNil(t, closer)
	defer closer.Close()

	l.Info("session created", "username", "alice")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "session created")
	assert.Contains(t, string(data), `"instance_id":"instance-1"`)
	assert.Contains(t, string(data), `"version":"1.0.0"`)
}

func TestSetupErrors(t *testing.T) {
	_, _, err := Setup(models.LoggingConfig{Level: "invalid", Format: "json", Output: "stdout"}, testInfo())
	assert.Error(t, err)

	_, _, err = Setup(models.LoggingConfig{Level: "info", Format: "json", Output: "file"}, testInfo())
	assert.Error(t, err)

	_, _, err = Setup(models.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: "/nonexistent/directory/path/test.log",
	}, testInfo())
	assert.Error(t, err)
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "text", slog.LevelWarn)

	l.Info("hidden")
	l.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestContextLogger(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))

	var buf bytes.Buffer
	l := New(&buf, "json", slog.LevelInfo).With("request_id", "req-1")
	ctx := WithContext(context.Background(), l)

	FromContext(ctx).Info("handled")
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)
}
