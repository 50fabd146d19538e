package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLevels(t *testing.T) {
	cases := []struct {
		level     string
		wantDebug bool
	}{
		{"debug", true},
		{"info", false},
		{"", false},
		{"nonsense", false},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		log := New(&buf, tc.level)
		log.Debug().Msg("hidden")
		log.Info().Str("round_id", "abc").Msg("visible")
		out := buf.String()
		if strings.Contains(out, "hidden") != tc.wantDebug {
			t.Fatalf("level %q: unexpected debug output %q", tc.level, out)
		}
		if !strings.Contains(out, `"round_id":"abc"`) {
			t.Fatalf("level %q: expected structured field, got %q", tc.level, out)
		}
	}
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	log := Console(&buf, "info")
	log.Warn().Msg("careful")
	if !strings.Contains(buf.String(), "careful") {
		t.Fatalf("unexpected console output %q", buf.String())
	}
}

func TestOpenFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "skilldrill.log")
	for i := 0; i < 2; i++ {
		f, err := OpenFile(path)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		log := New(f, "info")
		log.Info().Msg("line")
		if err := f.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n := strings.Count(string(data), "\n"); n != 2 {
		t.Fatalf("expected 2 lines, got %d", n)
	}
}
