// Package console reads operator commands, either line by line from any
// reader or through an interactive prompt when attached to a terminal.
package console

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
)

// ErrQuit can be returned by a Handler to end input cleanly.
var ErrQuit = errors.New("quit requested")

// Handler processes one line of operator input.
type Handler func(ctx context.Context, line string) error

// IsQuit reports whether line asks to leave the program.
func IsQuit(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "quit", "exit":
		return true
	default:
		return false
	}
}

// ReadLines passes every line of r to handle until r is exhausted, ctx is
// done or handle fails. ErrQuit from handle ends input without error.
func ReadLines(ctx context.Context, r io.Reader, handle Handler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimRight(scanner.Text(), "\r"):
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if err := handle(ctx, line); err != nil {
				if errors.Is(err, ErrQuit) {
					return nil
				}
				return err
			}
		}
	}
}
