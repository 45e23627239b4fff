package engine

import (
	"sync"
)

type expectState int

const (
	expectIdle expectState = iota
	expectWaiting
	expectFulfilled
	expectTimedOut
)

func (s expectState) String() string {
	switch s {
	case expectIdle:
		return "idle"
	case expectWaiting:
		return "waiting"
	case expectFulfilled:
		return "fulfilled"
	case expectTimedOut:
		return "timed-out"
	default:
		return "unknown"
	}
}

// expectation is the single pending response an engine may wait for. The
// output pump offers every line; the first line the predicate accepts
// fulfils it.
type expectation struct {
	mu     sync.Mutex
	state  expectState
	match  func(string) bool
	result string
	done   chan struct{}
}

// arm starts waiting. It fails if another wait is in progress.
func (x *expectation) arm(match func(string) bool) (<-chan struct{}, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.state == expectWaiting {
		return nil, false
	}
	x.state = expectWaiting
	x.match = match
	x.result = ""
	x.done = make(chan struct{})
	return x.done, true
}

// offer tests line against the pending predicate.
func (x *expectation) offer(line string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.state != expectWaiting || x.match == nil || !x.match(line) {
		return
	}
	x.state = expectFulfilled
	x.result = line
	close(x.done)
}

// expire marks a still-waiting expectation as timed out.
func (x *expectation) expire() {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.state == expectWaiting {
		x.state = expectTimedOut
	}
}

// outcome returns the final state and the matched line.
func (x *expectation) outcome() (expectState, string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.state, x.result
}

// disarm returns to idle.
func (x *expectation) disarm() {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.state = expectIdle
	x.match = nil
	x.done = nil
}

// current returns the state for tests and diagnostics.
func (x *expectation) current() expectState {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.state
}
