package uci

import (
	"strconv"
	"strings"
)

// MateOffset pushes mate scores outside any plausible centipawn range when
// scores are compared numerically.
const MateOffset = 33000

// ScoreKind distinguishes centipawn from mate scores.
type ScoreKind int

const (
	// ScoreNone means the line carried no score.
	ScoreNone ScoreKind = iota
	// ScoreCentipawns is an evaluation in hundredths of a pawn.
	ScoreCentipawns
	// ScoreMate is a signed distance to mate in moves.
	ScoreMate
)

// ScoreUnknown is how a missing score renders.
const ScoreUnknown = "???"

// Score is an engine evaluation.
type Score struct {
	Kind  ScoreKind
	Value int
}

func parseScore(raw string) Score {
	m := scoreRegex.FindStringSubmatch(raw)
	if m == nil {
		return Score{}
	}
	v, err := strconv.Atoi(m[2])
	if err != nil {
		return Score{}
	}
	if strings.Contains(m[1], "mate") {
		return Score{Kind: ScoreMate, Value: v}
	}
	return Score{Kind: ScoreCentipawns, Value: v}
}

// String renders "cp N", "#N" or ScoreUnknown.
func (s Score) String() string {
	switch s.Kind {
	case ScoreCentipawns:
		return "cp " + strconv.Itoa(s.Value)
	case ScoreMate:
		return "#" + strconv.Itoa(s.Value)
	default:
		return ScoreUnknown
	}
}

// Comparable maps the score onto one numeric axis. Mate in N becomes
// N+MateOffset for N > 0 and N-MateOffset otherwise, so being mated (mate 0
// or negative) sorts below every centipawn value. The second result is false
// when there is no score.
func (s Score) Comparable() (int, bool) {
	switch s.Kind {
	case ScoreCentipawns:
		return s.Value, true
	case ScoreMate:
		if s.Value > 0 {
			return s.Value + MateOffset, true
		}
		return s.Value - MateOffset, true
	default:
		return 0, false
	}
}
