package engine

import (
	"github.com/Iron-Ham/consortium/internal/uci"
)

// EventKind identifies what an Event carries.
type EventKind int

const (
	// EventLine carries one classified line of engine output.
	EventLine EventKind = iota
	// EventExit reports that an engine process has exited.
	EventExit
	// EventQuery asks the consumer of the stream to run Query. It lets a
	// caller read state that only the consumer may touch.
	EventQuery
)

// String returns a human-readable name for the kind.
func (k EventKind) String() string {
	switch k {
	case EventLine:
		return "line"
	case EventExit:
		return "exit"
	case EventQuery:
		return "query"
	default:
		return "unknown"
	}
}

// Event is one item on the shared stream all engines feed.
type Event struct {
	Kind     EventKind
	EngineID int
	Engine   string

	// Line is set for EventLine.
	Line uci.Line
	// ExitCode is set for EventExit. -1 means the code is unknown.
	ExitCode int
	// Query is set for EventQuery.
	Query func()
}
