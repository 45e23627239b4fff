// Package output provides the batched text sink every operator-facing line
// goes through.
package output

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/Iron-Ham/consortium/internal/logging"
	"github.com/Iron-Ham/consortium/internal/stream"
)

// Defaults for Options.
const (
	DefaultBatchSize  = 64
	DefaultBatchDelay = 3 * time.Millisecond
)

// Options configures a Writer.
type Options struct {
	// BatchSize caps the lines written per flush.
	BatchSize int
	// BatchDelay is how long a batch waits for more lines after its first.
	BatchDelay time.Duration
	Logger     *logging.Logger
}

// Writer collects lines from any goroutine and writes them to the
// destination in batches, preserving order. WriteLine never blocks.
type Writer struct {
	dst   io.Writer
	lines *stream.Queue[string]
	size  int
	delay time.Duration

	logger *logging.Logger

	done      chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
	err       error
}

// NewWriter starts a Writer flushing to dst.
func NewWriter(dst io.Writer, opts Options) *Writer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.BatchDelay <= 0 {
		opts.BatchDelay = DefaultBatchDelay
	}
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}

	w := &Writer{
		dst:    dst,
		lines:  stream.New[string](),
		size:   opts.BatchSize,
		delay:  opts.BatchDelay,
		logger: opts.Logger,
		done:   make(chan struct{}),
	}
	go w.run()
	return w
}

// WriteLine queues one line. Lines written after Close are dropped.
func (w *Writer) WriteLine(line string) {
	w.lines.Push(line)
}

// Close flushes everything queued and stops the writer. It returns the
// first write error seen, if any.
func (w *Writer) Close() error {
	w.closeOnce.Do(w.lines.Close)
	<-w.done

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *Writer) run() {
	defer close(w.done)

	batch := make([]string, 0, w.size)
	for {
		first, err := w.lines.Next(context.Background())
		if err != nil {
			return
		}
		batch = append(batch[:0], first)
		batch = w.fill(batch)
		w.flush(batch)
	}
}

// fill tops up batch until it is full or the delay since its first line
// has passed.
func (w *Writer) fill(batch []string) []string {
	ctx, cancel := context.WithTimeout(context.Background(), w.delay)
	defer cancel()

	for len(batch) < w.size {
		if line, ok := w.lines.TryNext(); ok {
			batch = append(batch, line)
			continue
		}
		line, err := w.lines.Next(ctx)
		if err != nil {
			break
		}
		batch = append(batch, line)
	}
	return batch
}

func (w *Writer) flush(batch []string) {
	var b strings.Builder
	for _, line := range batch {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if _, err := io.WriteString(w.dst, b.String()); err != nil {
		w.mu.Lock()
		if w.err == nil {
			w.err = err
			w.logger.Warn("output write failed", "error", err.Error(), "lines", len(batch))
		}
		w.mu.Unlock()
	}
}
