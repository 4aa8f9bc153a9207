package utils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewDefaultLogger(LevelWarn, &buf)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestDefaultLogger_Formatting(t *testing.T) {
	var buf bytes.Buffer
	logger := NewDefaultLogger(LevelInfo, &buf)

	logger.Info("analyzed %d files", 3)

	assert.Contains(t, buf.String(), "[INFO]")
	assert.Contains(t, buf.String(), "analyzed 3 files")
}

func TestDefaultLogger_WithField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewDefaultLogger(LevelInfo, &buf)

	logger.WithField("file", "dump-01.txt").Info("parsed")

	assert.Contains(t, buf.String(), "file=dump-01.txt")
	assert.Contains(t, buf.String(), "parsed")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLogLevel("WARNING"))
	assert.Equal(t, LevelError, ParseLogLevel("error"))
	assert.Equal(t, LevelInfo, ParseLogLevel("bogus"))
}

func TestNullLogger(t *testing.T) {
	var logger Logger = &NullLogger{}
	// Must not panic and must keep returning a usable logger.
	logger.Debug("x")
	logger = logger.WithField("k", "v")
	logger.Error("y")
	assert.NotNil(t, logger)
}
