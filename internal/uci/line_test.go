package uci

import (
	"slices"
	"testing"
	"time"
)

func TestClassify_FullInfoLine(t *testing.T) {
	l := Classify("info depth 12 seldepth 18 score cp 34 nodes 100000 time 500 pv e4 e5")

	if !l.IsInfo() {
		t.Fatal("expected info line")
	}
	if l.Depth() != 12 {
		t.Errorf("Depth() = %d, want 12", l.Depth())
	}
	if l.SelDepth() != 18 {
		t.Errorf("SelDepth() = %d, want 18", l.SelDepth())
	}
	if got := l.Score().String(); got != "cp 34" {
		t.Errorf("Score() = %q, want %q", got, "cp 34")
	}
	if l.Nodes() != 100000 {
		t.Errorf("Nodes() = %d, want 100000", l.Nodes())
	}
	if l.Time() != 500 {
		t.Errorf("Time() = %d, want 500", l.Time())
	}
	if !slices.Equal(l.PV(), []string{"e4", "e5"}) {
		t.Errorf("PV() = %v, want [e4 e5]", l.PV())
	}
	if !l.Qualifies() {
		t.Error("plain info line should qualify")
	}
}

func TestClassify_Predicates(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		info      bool
		bound     bool
		currMove  bool
		printable bool
		qualifies bool
	}{
		{"plain info", "info depth 3 score cp 10 pv e2e4", true, false, false, true, true},
		{"info string", "info string NNUE evaluation enabled", false, false, false, true, false},
		{"upperbound", "info depth 9 score cp 20 upperbound pv d2d4", true, true, false, true, false},
		{"lowerbound", "info depth 9 score cp 20 lowerbound pv d2d4", true, true, false, true, false},
		{"currmove", "info depth 9 currmove e2e4 currmovenumber 1", true, false, true, true, false},
		{"option declaration", "option name Hash type spin default 16", false, false, false, false, false},
		{"option declaration mixed case", "Option Name Threads type spin", false, false, false, false, false},
		{"id line", "id name Stockfish 17", false, false, false, false, false},
		{"bestmove", "bestmove e2e4 ponder e7e5", false, false, false, true, false},
		{"uciok", "uciok", false, false, false, true, false},
		{"empty", "", false, false, false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Classify(tt.raw)
			if l.IsInfo() != tt.info {
				t.Errorf("IsInfo() = %v, want %v", l.IsInfo(), tt.info)
			}
			if l.IsBound() != tt.bound {
				t.Errorf("IsBound() = %v, want %v", l.IsBound(), tt.bound)
			}
			if l.IsCurrMove() != tt.currMove {
				t.Errorf("IsCurrMove() = %v, want %v", l.IsCurrMove(), tt.currMove)
			}
			if l.IsPrintable() != tt.printable {
				t.Errorf("IsPrintable() = %v, want %v", l.IsPrintable(), tt.printable)
			}
			if l.Qualifies() != tt.qualifies {
				t.Errorf("Qualifies() = %v, want %v", l.Qualifies(), tt.qualifies)
			}
		})
	}
}

func TestClassify_MissingFields(t *testing.T) {
	l := Classify("info nps 1200000")

	if l.Depth() != 0 || l.SelDepth() != 0 || l.Nodes() != 0 || l.Time() != 0 {
		t.Errorf("numeric defaults not zero: %d %d %d %d", l.Depth(), l.SelDepth(), l.Nodes(), l.Time())
	}
	if l.HasSelDepth() {
		t.Error("HasSelDepth() = true for missing seldepth")
	}
	if len(l.PV()) != 0 {
		t.Errorf("PV() = %v, want empty", l.PV())
	}
	if l.LeadMove() != "" {
		t.Errorf("LeadMove() = %q, want empty", l.LeadMove())
	}
	if got := l.Score().String(); got != ScoreUnknown {
		t.Errorf("Score() = %q, want %q", got, ScoreUnknown)
	}
}

func TestClassify_SeldepthDoesNotShadowDepth(t *testing.T) {
	l := Classify("info seldepth 30 depth 20 score cp 1")
	if l.Depth() != 20 {
		t.Errorf("Depth() = %d, want 20", l.Depth())
	}
	if l.SelDepth() != 30 {
		t.Errorf("SelDepth() = %d, want 30", l.SelDepth())
	}
}

func TestClassify_MultiPVIsNotPV(t *testing.T) {
	l := Classify("info depth 5 multipv 2 score cp 3 pv g1f3 d7d5")
	if !slices.Equal(l.PV(), []string{"g1f3", "d7d5"}) {
		t.Errorf("PV() = %v", l.PV())
	}
}

func TestWithSource(t *testing.T) {
	now := time.Now()
	base := Classify("info depth 1 pv e2e4")
	l := base.WithSource(2, "lc0", now)

	if l.Engine() != "lc0" || l.EngineID() != 2 || !l.Received().Equal(now) {
		t.Errorf("WithSource did not stamp: %q %d %v", l.Engine(), l.EngineID(), l.Received())
	}
	if base.Engine() != "" {
		t.Error("WithSource must not mutate the receiver")
	}
	if l.Raw() != "info depth 1 pv e2e4" {
		t.Errorf("Raw() = %q", l.Raw())
	}
}

func TestIsBlacklisted(t *testing.T) {
	if !IsBlacklisted("id author someone") {
		t.Error("id lines are blacklisted")
	}
	if IsBlacklisted("identity") {
		t.Error("prefix must include the trailing space")
	}
	if IsBlacklisted("info depth 1") {
		t.Error("info lines are not blacklisted")
	}
}

func TestLine_IsBestMove(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"bestmove e2e4 ponder e7e5", true},
		{"BESTMOVE e2e4", true},
		{"info depth 3 pv e2e4", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := Classify(tt.raw).IsBestMove(); got != tt.want {
			t.Errorf("Classify(%q).IsBestMove() = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
