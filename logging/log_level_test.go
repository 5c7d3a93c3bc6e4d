package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLogLevelString(t *testing.T) {
	cases := []struct {
		input string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"  info  ", zapcore.InfoLevel},
		{"bogus", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}
	for _, tc := range cases {
		got := ParseLogLevelString(tc.input, zapcore.InfoLevel)
		if got != tc.want {
			t.Errorf("ParseLogLevelString(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestParseLogLevelFromEnv(t *testing.T) {
	t.Setenv("MOCKUPGEN_LOG_LEVEL", "debug")
	if got := ParseLogLevel("MOCKUPGEN_LOG_LEVEL", zapcore.InfoLevel); got != zapcore.DebugLevel {
		t.Errorf("ParseLogLevel() = %v, want debug", got)
	}

	t.Setenv("MOCKUPGEN_LOG_LEVEL", "")
	if got := ParseLogLevel("MOCKUPGEN_LOG_LEVEL", zapcore.WarnLevel); got != zapcore.WarnLevel {
		t.Errorf("ParseLogLevel() with empty env = %v, want default warn", got)
	}
}
