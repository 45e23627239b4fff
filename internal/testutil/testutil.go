// Package testutil provides testing utilities for consortium tests: fake UCI
// engines written as shell scripts and a recording output sink.
package testutil

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// FakeEngine describes the behaviour of a scripted UCI engine.
type FakeEngine struct {
	// Name is reported in the "id name" line.
	Name string
	// Search is printed, one line each, whenever a "go" command arrives,
	// followed by BestMove.
	Search []string
	// BestMove defaults to "e2e4".
	BestMove string
	// Silent engines never answer uci or isready.
	Silent bool
	// ExitOnGo, when non-zero, makes the engine exit with this code on "go".
	ExitOnGo int
	// LogFile, when set, receives every command the engine reads.
	LogFile string
}

// WriteFakeEngine writes an executable /bin/sh script implementing f into a
// temporary directory and returns its path.
func WriteFakeEngine(t *testing.T, f FakeEngine) string {
	t.Helper()
	SkipIfNoShell(t)

	if f.Name == "" {
		f.Name = "fake"
	}
	if f.BestMove == "" {
		f.BestMove = "e2e4"
	}

	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	b.WriteString("while IFS= read -r line; do\n")
	if f.LogFile != "" {
		fmt.Fprintf(&b, "  printf '%%s\\n' \"$line\" >> %s\n", shellQuote(f.LogFile))
	}
	b.WriteString("  case \"$line\" in\n")
	if !f.Silent {
		fmt.Fprintf(&b, "    uci) echo %s; echo 'option name Hash type spin default 16'; echo uciok ;;\n",
			shellQuote("id name "+f.Name))
		b.WriteString("    isready) echo readyok ;;\n")
	}
	b.WriteString("    go*)\n")
	if f.ExitOnGo != 0 {
		fmt.Fprintf(&b, "      exit %d ;;\n", f.ExitOnGo)
	} else {
		for _, line := range f.Search {
			fmt.Fprintf(&b, "      echo %s\n", shellQuote(line))
		}
		fmt.Fprintf(&b, "      echo %s ;;\n", shellQuote("bestmove "+f.BestMove))
	}
	fmt.Fprintf(&b, "    stop) echo %s ;;\n", shellQuote("bestmove "+f.BestMove))
	b.WriteString("    quit) exit 0 ;;\n")
	b.WriteString("  esac\n")
	b.WriteString("done\n")

	return WriteScript(t, f.Name, b.String())
}

// WriteScript writes an executable script named name into a temporary
// directory and returns its path.
func WriteScript(t *testing.T, name, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("failed to write script %s: %v", name, err)
	}
	return path
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// SkipIfNoShell skips the test if /bin/sh is not available.
func SkipIfNoShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
}

// Recorder is an output sink that keeps every line written to it.
// It is safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	lines []string
}

// WriteLine implements the sink interface.
func (r *Recorder) WriteLine(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
}

// Lines returns a copy of everything written so far.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// Reset discards everything written so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = nil
}

// WaitFor polls until some line satisfies match, failing the test after
// timeout. It returns the matching line.
func (r *Recorder) WaitFor(t *testing.T, timeout time.Duration, match func(string) bool) string {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		for _, line := range r.Lines() {
			if match(line) {
				return line
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for output; got:\n%s", strings.Join(r.Lines(), "\n"))
			return ""
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// Contains returns a matcher for WaitFor.
func Contains(substr string) func(string) bool {
	return func(line string) bool { return strings.Contains(line, substr) }
}

// Eventually polls cond until it holds, failing the test after timeout.
func Eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %v: %s", timeout, msg)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
