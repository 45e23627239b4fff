package session

import (
	"fmt"
	"testing"

	"github.com/Iron-Ham/consortium/internal/uci"
)

func TestEngineState_ReachedDepth(t *testing.T) {
	s := New([]string{"sf"})
	e := s.Engine(0)

	for _, raw := range []string{
		"info depth 1 score cp 10 pv e2e4",
		"info depth 2 score cp 12 pv e2e4",
		"info depth 2 score cp 15 pv d2d4",
		"info depth 3 score cp 14 pv e2e4",
	} {
		if !e.Record(uci.Classify(raw)) {
			t.Fatalf("Record(%q) = false", raw)
		}
	}
	if e.Reached() != 3 {
		t.Fatalf("Reached() = %d, want 3", e.Reached())
	}

	for _, raw := range []string{
		"info depth 4 score cp 20 upperbound pv e2e4",
		"info depth 4 currmove e2e4 currmovenumber 1",
		"info string hello depth 9",
		"bestmove e2e4",
	} {
		if e.Record(uci.Classify(raw)) {
			t.Errorf("Record(%q) = true, want false", raw)
		}
	}
	if e.Reached() != 3 {
		t.Errorf("Reached() = %d after non-qualifying lines, want 3", e.Reached())
	}
	if len(e.Lines()) != 4 {
		t.Errorf("len(Lines()) = %d, want 4", len(e.Lines()))
	}
}

func TestEngineState_ReachedNeverDecreases(t *testing.T) {
	e := New([]string{"sf"}).Engine(0)
	e.Record(uci.Classify("info depth 5 pv e2e4"))
	e.Record(uci.Classify("info depth 2 pv e2e4"))
	if e.Reached() != 5 {
		t.Errorf("Reached() = %d, want 5", e.Reached())
	}
}

func TestEngineState_FirstAndLastAt(t *testing.T) {
	e := New([]string{"sf"}).Engine(0)
	e.Record(uci.Classify("info depth 2 nodes 10 pv e2e4"))
	e.Record(uci.Classify("info depth 2 nodes 20 pv d2d4"))
	e.Record(uci.Classify("info depth 3 nodes 30 pv d2d4"))

	first, ok := e.FirstAt(2)
	if !ok || first.Nodes() != 10 {
		t.Errorf("FirstAt(2) = (%d, %v), want (10, true)", first.Nodes(), ok)
	}
	last, ok := e.LastAt(2)
	if !ok || last.Nodes() != 20 {
		t.Errorf("LastAt(2) = (%d, %v), want (20, true)", last.Nodes(), ok)
	}
	if _, ok := e.LastAt(1); ok {
		t.Error("LastAt(1) found a line that was never recorded")
	}
}

func TestSession_ResetAndActivity(t *testing.T) {
	s := New([]string{"a", "b", "c"})
	for _, e := range s.Members() {
		e.Record(uci.Classify("info depth 4 pv e2e4"))
	}
	s.Groups().Assign("e2e4")

	s.Deactivate(1)
	if got := len(s.Active()); got != 2 {
		t.Fatalf("len(Active()) = %d, want 2", got)
	}
	if got := s.Engine(1).Reached(); got != 4 {
		t.Errorf("deactivated engine lost its state: Reached() = %d", got)
	}

	s.Reset([]int{0, 2})
	for _, e := range s.Members() {
		if e.Reached() != 0 || len(e.Lines()) != 0 {
			t.Errorf("%s not cleared: reached=%d lines=%d", e.Name(), e.Reached(), len(e.Lines()))
		}
	}
	if s.Engine(1).Active() {
		t.Error("engine 1 should stay inactive after Reset")
	}
	if s.Groups().Len() != 0 {
		t.Errorf("Groups().Len() = %d after Reset, want 0", s.Groups().Len())
	}
}

func TestSession_MaxDepth(t *testing.T) {
	s := New([]string{"a", "b"})
	s.Engine(0).Record(uci.Classify("info depth 6 pv e2e4"))
	s.Engine(1).Record(uci.Classify("info depth 3 pv e2e4"))
	s.Deactivate(0)

	if s.MaxDepth() != 6 {
		t.Errorf("MaxDepth() = %d, want 6 including inactive engines", s.MaxDepth())
	}
}

func TestSession_Settled(t *testing.T) {
	tests := []struct {
		name     string
		reached  []int
		finished []bool
		want     int
	}{
		{"nothing reached", []int{0, 0}, []bool{false, false}, 0},
		{"searching engines settle one below reached", []int{5, 3}, []bool{false, false}, 2},
		{"finished engine settles its reached depth", []int{5, 3}, []bool{false, true}, 3},
		{"all finished", []int{4, 6}, []bool{true, true}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New([]string{"a", "b"})
			for i, d := range tt.reached {
				for depth := 1; depth <= d; depth++ {
					s.Engine(i).Record(uci.Classify(fmt.Sprintf("info depth %d pv e2e4", depth)))
				}
				if tt.finished[i] {
					s.Finish(i)
				}
			}
			if got, ok := s.Settled(); !ok || got != tt.want {
				t.Errorf("Settled() = (%d, %v), want (%d, true)", got, ok, tt.want)
			}
		})
	}
}

func TestSession_ResetClearsFinished(t *testing.T) {
	s := New([]string{"a"})
	s.Engine(0).Record(uci.Classify("info depth 1 pv e2e4"))
	s.Finish(0)
	if !s.Engine(0).Finished() {
		t.Fatal("Finish() did not mark the engine")
	}
	s.Reset([]int{0})
	if s.Engine(0).Finished() {
		t.Error("Reset() should clear the finished flag")
	}
	s.Deactivate(0)
	if _, ok := s.Settled(); ok {
		t.Error("Settled() ok with no active engines")
	}
}

func TestSession_UnknownEngine(t *testing.T) {
	s := New([]string{"a"})
	if s.Engine(-1) != nil || s.Engine(1) != nil {
		t.Error("Engine() should return nil for unknown IDs")
	}
	s.Deactivate(7)
}

func TestGroupIndex_Permanent(t *testing.T) {
	g := NewGroupIndex()

	if got := g.Assign("e2e4"); got != 0 {
		t.Errorf("Assign(e2e4) = %d, want 0", got)
	}
	if got := g.Assign("d2d4"); got != 1 {
		t.Errorf("Assign(d2d4) = %d, want 1", got)
	}
	if got := g.Assign("e2e4"); got != 0 {
		t.Errorf("second Assign(e2e4) = %d, want 0", got)
	}
	if g.Len() != 2 {
		t.Errorf("Len() = %d, want 2", g.Len())
	}
}

func TestSession_FinishBeforeFirstReport(t *testing.T) {
	s := New([]string{"a"})

	// A bestmove left over from the previous search.
	if s.Finish(0) {
		t.Error("Finish() before any report this epoch should be ignored")
	}
	s.Engine(0).Record(uci.Classify("info depth 1 score cp 1 pv e2e4"))
	if s.Engine(0).Finished() {
		t.Fatal("engine marked finished by a stale bestmove")
	}
	if got := s.Engine(0).Settled(); got != 0 {
		t.Errorf("Settled() = %d, want 0 while depth 1 is being refined", got)
	}

	if !s.Finish(0) {
		t.Error("Finish() after a report should mark the engine")
	}
	if got := s.Engine(0).Settled(); got != 1 {
		t.Errorf("Settled() = %d after finish, want 1", got)
	}
}

func TestEngineState_RecordClearsFinished(t *testing.T) {
	s := New([]string{"a"})
	e := s.Engine(0)
	e.Record(uci.Classify("info depth 2 pv e2e4"))
	s.Finish(0)

	e.Record(uci.Classify("info depth 3 pv e2e4"))
	if e.Finished() {
		t.Error("a qualifying line should clear the finished flag")
	}
	if got := e.Settled(); got != 2 {
		t.Errorf("Settled() = %d, want 2", got)
	}
}
