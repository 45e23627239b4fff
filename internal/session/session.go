// Package session holds the analysis state accumulated during one command
// epoch: every engine's qualifying progress reports, the depth each engine
// has reached, and the append-only index of principal-line groups.
//
// A Session is not safe for concurrent use. It is owned by exactly one
// consumer goroutine at a time; the orchestrator guarantees the hand-over.
package session

import (
	"github.com/Iron-Ham/consortium/internal/uci"
)

// EngineState is the per-engine part of a session.
type EngineState struct {
	id       int
	name     string
	active   bool
	lines    []uci.Line
	reached  int
	finished bool
}

// ID returns the engine's stable index in the configured engine list.
func (e *EngineState) ID() int { return e.id }

// Name returns the engine's configured name.
func (e *EngineState) Name() string { return e.name }

// Active reports whether the engine still takes part in the barrier.
func (e *EngineState) Active() bool { return e.active }

// Reached returns the highest depth seen in a qualifying line.
func (e *EngineState) Reached() int { return e.reached }

// Finished reports whether the engine has ended its search this epoch.
func (e *EngineState) Finished() bool { return e.finished }

// Settled returns the deepest depth whose report can no longer change: one
// below the reached depth while searching, the reached depth once finished.
func (e *EngineState) Settled() int {
	if e.finished {
		return e.reached
	}
	return max(e.reached-1, 0)
}

// Lines returns the accumulated qualifying lines in arrival order. The
// returned slice must not be modified.
func (e *EngineState) Lines() []uci.Line { return e.lines }

// Record accumulates l if it qualifies and raises the reached depth. It
// reports whether l was accumulated. A qualifying line means the engine is
// searching, so any earlier finish is cleared.
func (e *EngineState) Record(l uci.Line) bool {
	if !l.Qualifies() {
		return false
	}
	e.finished = false
	e.lines = append(e.lines, l)
	if l.Depth() > e.reached {
		e.reached = l.Depth()
	}
	return true
}

// LastAt returns the most refined line at exactly depth.
func (e *EngineState) LastAt(depth int) (uci.Line, bool) {
	for i := len(e.lines) - 1; i >= 0; i-- {
		if e.lines[i].Depth() == depth {
			return e.lines[i], true
		}
	}
	return uci.Line{}, false
}

// FirstAt returns the first line at exactly depth.
func (e *EngineState) FirstAt(depth int) (uci.Line, bool) {
	for _, l := range e.lines {
		if l.Depth() == depth {
			return l, true
		}
	}
	return uci.Line{}, false
}

func (e *EngineState) clear() {
	e.lines = nil
	e.reached = 0
	e.finished = false
}

// Session is the state of one command epoch.
type Session struct {
	engines []*EngineState
	groups  *GroupIndex
}

// New creates a session for the given engine names. An engine's ID is its
// position in names. Every engine starts active.
func New(names []string) *Session {
	s := &Session{groups: NewGroupIndex()}
	for i, name := range names {
		s.engines = append(s.engines, &EngineState{id: i, name: name, active: true})
	}
	return s
}

// Reset starts a new epoch: lines, reached depths and group assignments are
// cleared and only the engines in activeIDs stay active.
func (s *Session) Reset(activeIDs []int) {
	keep := make(map[int]bool, len(activeIDs))
	for _, id := range activeIDs {
		keep[id] = true
	}
	for _, e := range s.engines {
		e.clear()
		e.active = keep[e.id]
	}
	s.groups = NewGroupIndex()
}

// Engine returns the state for id, or nil if id is unknown.
func (s *Session) Engine(id int) *EngineState {
	if id < 0 || id >= len(s.engines) {
		return nil
	}
	return s.engines[id]
}

// Members returns every engine known to the session, active or not, in ID
// order.
func (s *Session) Members() []*EngineState {
	return s.engines
}

// Active returns the engines taking part in the barrier, in ID order.
func (s *Session) Active() []*EngineState {
	active := make([]*EngineState, 0, len(s.engines))
	for _, e := range s.engines {
		if e.active {
			active = append(active, e)
		}
	}
	return active
}

// Deactivate removes id from the barrier. Its accumulated lines are kept.
func (s *Session) Deactivate(id int) {
	if e := s.Engine(id); e != nil {
		e.active = false
	}
}

// Finish marks id's search as over, so its reached depth is settled. It is
// ignored until the engine has reported in this epoch: a bestmove before
// that ends the previous search, not this one. It reports whether the
// engine was marked.
func (s *Session) Finish(id int) bool {
	e := s.Engine(id)
	if e == nil || e.reached == 0 {
		return false
	}
	e.finished = true
	return true
}

// Settled returns the deepest depth every active engine has settled. The
// second result is false when no engine is active.
func (s *Session) Settled() (int, bool) {
	minimum, found := 0, false
	for _, e := range s.engines {
		if !e.active {
			continue
		}
		if d := e.Settled(); !found || d < minimum {
			minimum = d
		}
		found = true
	}
	return minimum, found
}

// Groups returns the epoch's group index.
func (s *Session) Groups() *GroupIndex { return s.groups }

// MaxDepth returns the deepest qualifying line across all engines.
func (s *Session) MaxDepth() int {
	maximum := 0
	for _, e := range s.engines {
		if e.reached > maximum {
			maximum = e.reached
		}
	}
	return maximum
}

// GroupIndex maps a principal line's leading move to a group number. An
// assignment, once made, holds for the rest of the epoch.
type GroupIndex struct {
	leads []string
	index map[string]int
}

// NewGroupIndex returns an empty index.
func NewGroupIndex() *GroupIndex {
	return &GroupIndex{index: make(map[string]int)}
}

// Assign returns the group for lead, allocating the next unused number the
// first time lead is seen.
func (g *GroupIndex) Assign(lead string) int {
	if i, ok := g.index[lead]; ok {
		return i
	}
	i := len(g.leads)
	g.leads = append(g.leads, lead)
	g.index[lead] = i
	return i
}

// Len returns the number of groups assigned so far.
func (g *GroupIndex) Len() int { return len(g.leads) }
