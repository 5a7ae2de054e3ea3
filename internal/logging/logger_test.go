package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		name   string
		want   slog.Level
		wantOK bool
	}{
		{"error", slog.LevelError, true},
		{"warn", slog.LevelWarn, true},
		{"info", slog.LevelInfo, true},
		{"debug", slog.LevelDebug, true},
		{"none", slog.LevelError + 4, true},
		{"verbose", 0, false},
		{"", 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseLevel(tc.name)
			if ok != tc.wantOK || got != tc.want {
				t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tc.name, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestConfigureDefaultLogger_RejectsUnknownLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	if _, err := ConfigureDefaultLogger("loud", "", slog.HandlerOptions{}); err == nil {
		t.Fatal("Expected error for unknown level, got nil")
	}
}

// TestConfigureDefaultLogger_File verifies JSON records land in the file and
// records below the level are filtered.
func TestConfigureDefaultLogger_File(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "jiveplay.log")
	f, err := ConfigureDefaultLogger("info", path, slog.HandlerOptions{})
	if err != nil {
		t.Fatalf("ConfigureDefaultLogger failed: %v", err)
	}
	if f == nil {
		t.Fatal("Expected log file handle, got nil")
	}

	slog.Debug("hidden")
	slog.Info("visible", "player", "abc")
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected 1 record, got %d: %q", len(lines), data)
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if rec["msg"] != "visible" || rec["player"] != "abc" {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestConfigureDefaultLogger_None(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	f, err := ConfigureDefaultLogger("none", "", slog.HandlerOptions{})
	if err != nil || f != nil {
		t.Fatalf("ConfigureDefaultLogger(none) = %v, %v", f, err)
	}
	if slog.Default().Enabled(context.Background(), slog.LevelError) {
		t.Error("Expected logging to be disabled")
	}
}
