// Watchlog - Bounded Watch-History Logger for YouTube
// Copyright 2026 The Watchlog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchlog/watchlog

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInitLevels(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		Init(Config{Level: tt.level})
		if got := GetLevel(); got != tt.want {
			t.Errorf("Init(level=%q): got level %v, want %v", tt.level, got, tt.want)
		}
	}

	// Restore default for other tests
	Init(DefaultConfig())
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Info().Str("video_id", "dQw4w9WgXcQ").Msg("entry logged")

	out := buf.String()
	if !strings.Contains(out, `"video_id":"dQw4w9WgXcQ"`) {
		t.Errorf("expected structured field in output, got: %s", out)
	}
	if !strings.Contains(out, `"message":"entry logged"`) {
		t.Errorf("expected message in output, got: %s", out)
	}
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	logger := NewSlogLogger()
	logger.Info("supervisor event", slog.String("service", "hub"), slog.Int("restarts", 2))

	out := buf.String()
	if !strings.Contains(out, `"service":"hub"`) {
		t.Errorf("expected slog attr in output, got: %s", out)
	}
	if !strings.Contains(out, `"restarts":2`) {
		t.Errorf("expected int attr in output, got: %s", out)
	}
}

func TestSlogAdapterGroups(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	logger := NewSlogLogger().WithGroup("suture").With(slog.String("tree", "root"))
	logger.Warn("restarting")

	if !strings.Contains(buf.String(), `"suture.tree":"root"`) {
		t.Errorf("expected grouped attr, got: %s", buf.String())
	}
}
