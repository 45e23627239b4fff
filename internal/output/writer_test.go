package output

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer records each Write call separately.
type syncBuffer struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	writes int
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes++
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Writes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}

func TestWriter_PreservesOrder(t *testing.T) {
	var dst syncBuffer
	w := NewWriter(&dst, Options{})

	var want strings.Builder
	for i := range 500 {
		line := fmt.Sprintf("line %d", i)
		w.WriteLine(line)
		want.WriteString(line + "\n")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	if got := dst.String(); got != want.String() {
		t.Errorf("output out of order or incomplete (got %d bytes, want %d)", len(got), want.Len())
	}
}

func TestWriter_Batches(t *testing.T) {
	var dst syncBuffer
	w := NewWriter(&dst, Options{BatchSize: 10, BatchDelay: 50 * time.Millisecond})

	for i := range 30 {
		w.WriteLine(fmt.Sprint(i))
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	if got := dst.Writes(); got > 4 {
		t.Errorf("expected lines to be batched, got %d writes for 30 lines", got)
	}
	if got := strings.Count(dst.String(), "\n"); got != 30 {
		t.Errorf("wrote %d lines, want 30", got)
	}
}

func TestWriter_FlushesWithoutClose(t *testing.T) {
	var dst syncBuffer
	w := NewWriter(&dst, Options{BatchDelay: time.Millisecond})
	defer w.Close()

	w.WriteLine("hello")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if dst.String() == "hello\n" {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("line not flushed, got %q", dst.String())
}

func TestWriter_DropsAfterClose(t *testing.T) {
	var dst syncBuffer
	w := NewWriter(&dst, Options{})
	w.WriteLine("kept")
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	w.WriteLine("dropped")

	if err := w.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
	if got := dst.String(); got != "kept\n" {
		t.Errorf("output = %q, want %q", got, "kept\n")
	}
}

type failingWriter struct{}

var errBroken = errors.New("broken pipe")

func (failingWriter) Write([]byte) (int, error) { return 0, errBroken }

func TestWriter_ReportsWriteError(t *testing.T) {
	w := NewWriter(failingWriter{}, Options{})
	w.WriteLine("x")
	if err := w.Close(); !errors.Is(err, errBroken) {
		t.Errorf("Close() error = %v, want %v", err, errBroken)
	}
}
