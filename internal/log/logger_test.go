// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: FormatJSON, Output: &buf})

	logger.Info("connected", slog.String(HostKey, "vcsa.example.com"))

	out := buf.String()
	if !strings.Contains(out, `"host":"vcsa.example.com"`) {
		t.Errorf("expected JSON host field, got %q", out)
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "warn", Format: FormatText, Output: &buf})

	logger.Info("should be dropped")
	logger.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info line should have been filtered, got %q", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("warn line missing, got %q", out)
	}
}

func TestFromEnv_Debug(t *testing.T) {
	t.Setenv("VCOPS_DEBUG", "1")
	t.Setenv("VCOPS_LOG_LEVEL", "")
	t.Setenv("LOG_LEVEL", "")

	cfg := FromEnv()
	if cfg.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Level)
	}
	if !cfg.AddSource {
		t.Error("AddSource should be enabled in debug mode")
	}
}

func TestFromEnv_LevelPrecedence(t *testing.T) {
	t.Setenv("VCOPS_DEBUG", "")
	t.Setenv("VCOPS_LOG_LEVEL", "error")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := FromEnv()
	if cfg.Level != "error" {
		t.Errorf("VCOPS_LOG_LEVEL should win over LOG_LEVEL, got %q", cfg.Level)
	}
}

func TestSanitizePassword(t *testing.T) {
	if got := SanitizePassword("hunter2"); got != "[REDACTED]" {
		t.Errorf("SanitizePassword = %q", got)
	}
	if got := SanitizePassword(""); got != "" {
		t.Errorf("empty password should stay empty, got %q", got)
	}
}
