package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew(t *testing.T) {
	log := New()
	if log.GetLevel() == zerolog.Disabled {
		t.Error("Expected logger to be enabled")
	}
}

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log.Info().Str("goal_id", "g1").Msg("test message")

	output := buf.String()
	if !strings.Contains(output, "test message") || !strings.Contains(output, `"goal_id":"g1"`) {
		t.Errorf("Expected JSON output with message and field, got: %s", output)
	}
}

func TestNewWithConfig(t *testing.T) {
	tests := []struct {
		level  string
		format string
		want   zerolog.Level
	}{
		{"debug", "json", zerolog.DebugLevel},
		{"WARN", "console", zerolog.WarnLevel},
		{"", "json", zerolog.InfoLevel},
		{"verbose", "console", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			log := NewWithConfig(tt.level, tt.format)
			if log.GetLevel() != tt.want {
				t.Errorf("level = %v, want %v", log.GetLevel(), tt.want)
			}
		})
	}
}

func TestWithContext(t *testing.T) {
	ctx := WithContext(context.Background(), New())

	if _, ok := ctx.Value(ctxKey{}).(zerolog.Logger); !ok {
		t.Error("Expected logger in context")
	}
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf))

	log := FromContext(ctx)

	log.Info().Msg("test")

	if buf.Len() == 0 {
		t.Error("Expected log output from retrieved logger")
	}
}

func TestFromContext_DefaultLogger(t *testing.T) {
	log := FromContext(context.Background())

	if log.GetLevel() == zerolog.Disabled {
		t.Error("Expected default logger to be enabled")
	}
}
