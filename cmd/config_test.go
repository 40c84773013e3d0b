package cmd

import (
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestParseSlogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{" info ", slog.LevelInfo},
		{"-4", slog.LevelDebug},
		{"8", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, test := range tests {
		t.Run(test.value, func(t *testing.T) {
			assert.Equal(t, test.want, parseSlogLevel(test.value, slog.LevelInfo))
		})
	}
}

func TestToolTimeout(t *testing.T) {
	assert.Equal(t, defaultToolTimeout, toolTimeout())

	viper.Set(toolTimeoutConfigKey, 30*time.Second)
	defer viper.Set(toolTimeoutConfigKey, defaultToolTimeout)

	assert.Equal(t, 30*time.Second, toolTimeout())

	viper.Set(toolTimeoutConfigKey, -1*time.Second)
	assert.Equal(t, defaultToolTimeout, toolTimeout())
}

func TestOutputDirDefault(t *testing.T) {
	assert.Equal(t, defaultOutputDir, string(outputDir()))
}
