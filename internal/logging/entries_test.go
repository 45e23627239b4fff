package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleLog = `{"time":"2026-01-02T10:00:02Z","level":"WARN","msg":"handshake timed out","session_id":"s1","engine":"lc0","command":"isready"}
{"time":"2026-01-02T10:00:01Z","level":"INFO","msg":"engine started","session_id":"s1","engine":"stockfish","pid":12}
not json at all
{"time":"2026-01-02T10:00:03Z","level":"ERROR","msg":"barrier violation","session_id":"s1","engine":"lc0","depth":7}
{"time":"2026-01-02T10:00:04Z","level":"DEBUG","msg":"write failed","session_id":"s2","engine":"stockfish"}
`

func writeSampleLog(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(sampleLog), 0o644); err != nil {
		t.Fatalf("write sample log: %v", err)
	}
	return dir
}

func TestReadEntries(t *testing.T) {
	entries, err := ReadEntries(writeSampleLog(t))
	if err != nil {
		t.Fatalf("ReadEntries: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("len(entries) = %d, want 4", len(entries))
	}
	if entries[0].Message != "engine started" {
		t.Errorf("entries not sorted by time: first = %q", entries[0].Message)
	}
	if entries[0].Engine != "stockfish" || entries[0].Attrs["pid"] != float64(12) {
		t.Errorf("fields not parsed: %+v", entries[0])
	}
}

func TestReadEntries_Missing(t *testing.T) {
	if _, err := ReadEntries(t.TempDir()); err == nil {
		t.Error("expected error for missing log file")
	}
}

func TestFilterEntries(t *testing.T) {
	entries, err := ReadEntries(writeSampleLog(t))
	if err != nil {
		t.Fatalf("ReadEntries: %v", err)
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"no filter", Filter{}, 4},
		{"level warn", Filter{Level: "warn"}, 2},
		{"engine", Filter{Engine: "lc0"}, 2},
		{"session", Filter{SessionID: "s2"}, 1},
		{"contains", Filter{Contains: "barrier"}, 1},
		{"combined", Filter{Engine: "stockfish", Level: "info"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FilterEntries(entries, tt.filter); len(got) != tt.want {
				t.Errorf("FilterEntries() returned %d entries, want %d", len(got), tt.want)
			}
		})
	}
}

func TestEntry_Format(t *testing.T) {
	e := Entry{
		Time:    time.Date(2026, 1, 2, 10, 0, 2, 0, time.UTC),
		Level:   LevelWarn,
		Message: "handshake timed out",
		Engine:  "lc0",
		Attrs:   map[string]any{"command": "isready"},
	}
	got := e.Format()
	want := `[10:00:02.000] WARN  lc0: handshake timed out {"command":"isready"}`
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}

	e.Engine, e.Attrs = "", nil
	if got := e.Format(); strings.Contains(got, ":  ") || strings.HasSuffix(got, " ") {
		t.Errorf("Format() without engine = %q", got)
	}
}
