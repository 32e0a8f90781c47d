package logger

import (
	"log/slog"
	"path/filepath"
	"testing"

	coreconfig "github.com/m3rciful/afkbot/core/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loggingConfig(l coreconfig.LoggingConfig) *coreconfig.Config {
	return &coreconfig.Config{Logging: l}
}

func TestSelectLevel(t *testing.T) {
	for raw, want := range map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info+2":  slog.LevelInfo + 2,
		"chatty":  slog.LevelInfo,
	} {
		assert.Equal(t, want, selectLevel(loggingConfig(coreconfig.LoggingConfig{Level: raw})), raw)
	}
	assert.Equal(t, slog.LevelInfo, selectLevel(nil))
}

func TestSelectFormatAndOrder(t *testing.T) {
	assert.Equal(t, formatJSON, selectFormat(nil))
	assert.Equal(t, formatKV, selectFormat(loggingConfig(coreconfig.LoggingConfig{Format: "text"})))
	assert.Equal(t, formatKV, selectFormat(loggingConfig(coreconfig.LoggingConfig{Profile: "dev"})))

	assert.Equal(t, defaultKeyOrder, selectKeyOrder(loggingConfig(coreconfig.LoggingConfig{KeysOrder: "default"})))
	assert.Equal(t, []string{"ts", "event"}, selectKeyOrder(loggingConfig(coreconfig.LoggingConfig{KeysOrder: " ts, ,event "})))
}

func TestBuildOutputsRotatingFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	writers, closers, err := buildOutputs(loggingConfig(coreconfig.LoggingConfig{Dir: dir, BotFile: "afkbot.log"}))
	require.NoError(t, err)
	assert.Len(t, writers, 2)
	require.Len(t, closers, 1)
	assert.NoError(t, closers[0].Close())
	assert.DirExists(t, dir)

	writers, closers, err = buildOutputs(loggingConfig(coreconfig.LoggingConfig{Dir: dir}))
	require.NoError(t, err)
	assert.Len(t, writers, 1)
	assert.Empty(t, closers)
}

func TestParseDebugSample(t *testing.T) {
	for spec, want := range map[string][2]int{
		"":     {1, 50},
		"1/10": {1, 10},
		"20":   {1, 20},
		"ALL":  {0, 0},
		"off":  {0, 0},
		"x/y":  {1, 50},
	} {
		num, den := parseDebugSample(loggingConfig(coreconfig.LoggingConfig{DebugSample: spec}))
		assert.Equal(t, want, [2]int{num, den}, spec)
	}
}

func TestComponentIsCached(t *testing.T) {
	assert.Same(t, Component("afk"), Component(" afk "))
	assert.Same(t, L, Component(""))
}
