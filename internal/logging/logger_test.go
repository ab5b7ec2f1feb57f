package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "chatty"})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{"WARN", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := parseLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestComponentNamesChild(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := Wrap(zap.New(core)).Component("channel")

	log.Info("connected", zap.String("url", "ws://x"))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "channel", entries[0].LoggerName)
	assert.Equal(t, "ws://x", entries[0].ContextMap()["url"])
}

func TestNilLoggerHelpersAreSafe(t *testing.T) {
	var log *Logger
	assert.NotPanics(t, func() {
		log.Component("x").Info("dropped")
		log.With(zap.Int("n", 1)).Debug("dropped")
		_ = log.Sync()
	})
}

func TestEncodingFormat(t *testing.T) {
	assert.Equal(t, "console", encodingFormat(true))
	assert.Equal(t, "json", encodingFormat(false))
}

func TestSandboxTagsEntries(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Wrap(zap.New(core)).Component("editor").Sandbox("u1", "sb1").Info("opened")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "u1", entries[0].ContextMap()["user_id"])
	assert.Equal(t, "sb1", entries[0].ContextMap()["sandbox_id"])
}

func TestSetLevelReachesChildren(t *testing.T) {
	log, err := New(Config{Level: "info", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)
	child := log.Component("channel")

	assert.False(t, child.Core().Enabled(zapcore.DebugLevel))
	require.NoError(t, log.SetLevel("debug"))
	assert.True(t, child.Core().Enabled(zapcore.DebugLevel))

	assert.Error(t, log.SetLevel("loud"))
	assert.Error(t, NewNop().SetLevel("debug"))
}
