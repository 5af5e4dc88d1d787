package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visaverse/internal/config"
)

func TestNewJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(config.LogConfig{Level: "debug", Format: "json"}, &buf)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithField("component", "test").Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "test", entry["component"])
}

func TestNewFallsBackToInfo(t *testing.T) {
	logger := NewWithOutput(config.LogConfig{Level: "loud"}, &bytes.Buffer{})
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	_, ok := logger.Formatter.(*logrus.TextFormatter)
	assert.True(t, ok)
}
