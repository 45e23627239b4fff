// Package uci classifies raw lines emitted by UCI chess engines.
//
// [Classify] turns one line of engine output into an immutable [Line] with
// derived predicates (info, bound, current-move chatter, printable) and the
// numeric and textual fields a progress report carries. Fields that are not
// present resolve to documented defaults rather than errors: zero for
// numbers, an empty slice for the principal line and [ScoreUnknown] for the
// score.
package uci

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	scoreRegex    = regexp.MustCompile(` score (\w+) (-?\d+)`)
	depthRegex    = regexp.MustCompile(` depth (\d+)`)
	selDepthRegex = regexp.MustCompile(` seldepth (\d+)`)
	nodesRegex    = regexp.MustCompile(` nodes (\d+)`)
	timeRegex     = regexp.MustCompile(` time (\d+)`)
	pvRegex       = regexp.MustCompile(` pv (.+)`)
)

// Line is one classified line of engine output. The zero value is an empty,
// non-info line.
type Line struct {
	engine   string
	engineID int
	received time.Time
	raw      string

	info     bool
	bound    bool
	currMove bool

	depth    int
	selDepth int
	nodes    uint64
	time     uint64
	score    Score
	pv       []string
}

// Classify parses raw into a Line. It has no side effects; the source engine
// and receive time are attached afterwards with WithSource.
func Classify(raw string) Line {
	l := Line{raw: raw}

	l.info = strings.HasPrefix(raw, "info ") && !strings.HasPrefix(raw, "info string")
	l.bound = strings.Contains(raw, "upperbound") || strings.Contains(raw, "lowerbound")
	l.currMove = strings.Contains(raw, "currmove")

	l.depth = int(matchUint(depthRegex, raw))
	l.selDepth = int(matchUint(selDepthRegex, raw))
	l.nodes = matchUint(nodesRegex, raw)
	l.time = matchUint(timeRegex, raw)
	l.score = parseScore(raw)

	if m := pvRegex.FindStringSubmatch(raw); m != nil {
		l.pv = strings.Fields(m[1])
	}

	return l
}

// matchUint returns the first capture group of re in s as an unsigned
// integer, or 0 when absent or out of range.
func matchUint(re *regexp.Regexp, s string) uint64 {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// WithSource returns a copy of l stamped with the engine that produced it.
func (l Line) WithSource(engineID int, engine string, received time.Time) Line {
	l.engineID = engineID
	l.engine = engine
	l.received = received
	return l
}

// Engine returns the name of the engine that emitted the line.
func (l Line) Engine() string { return l.engine }

// EngineID returns the stable index of the engine that emitted the line.
func (l Line) EngineID() int { return l.engineID }

// Received returns when the line was read from the engine.
func (l Line) Received() time.Time { return l.received }

// Raw returns the unmodified protocol text.
func (l Line) Raw() string { return l.raw }

// IsInfo reports whether the line is an "info" progress report. Free-text
// "info string" lines are not progress reports.
func (l Line) IsInfo() bool { return l.info }

// IsBound reports whether the line is an upper- or lower-bound refinement.
func (l Line) IsBound() bool { return l.bound }

// IsCurrMove reports whether the line is current-move chatter.
func (l Line) IsCurrMove() bool { return l.currMove }

// IsBestMove reports whether the line ends a search.
func (l Line) IsBestMove() bool { return hasPrefixFold(l.raw, "bestmove") }

// ShouldPrint is false for bound and current-move lines.
func (l Line) ShouldPrint() bool { return !l.bound && !l.currMove }

// Qualifies reports whether the line counts towards depth advancement,
// accumulation and comparison.
func (l Line) Qualifies() bool { return l.info && !l.bound && !l.currMove }

// IsPrintable reports whether the line should be shown in immediate mode.
// Option and identity declarations are hidden.
func (l Line) IsPrintable() bool { return l.info || !IsBlacklisted(l.raw) }

// Depth returns the reported search depth, or 0.
func (l Line) Depth() int { return l.depth }

// SelDepth returns the reported selective depth, or 0.
func (l Line) SelDepth() int { return l.selDepth }

// HasSelDepth reports whether a positive selective depth was reported.
func (l Line) HasSelDepth() bool { return l.selDepth > 0 }

// Nodes returns the reported node count, or 0.
func (l Line) Nodes() uint64 { return l.nodes }

// Time returns the reported elapsed milliseconds, or 0.
func (l Line) Time() uint64 { return l.time }

// Score returns the reported score, or ScoreUnknown.
func (l Line) Score() Score { return l.score }

// PV returns the principal line as move tokens. The returned slice must not
// be modified.
func (l Line) PV() []string { return l.pv }

// LeadMove returns the first move of the principal line, or "".
func (l Line) LeadMove() string {
	if len(l.pv) == 0 {
		return ""
	}
	return l.pv[0]
}

// IsBlacklisted reports whether a line is an option or identity declaration.
func IsBlacklisted(s string) bool {
	return hasPrefixFold(s, "option name ") || hasPrefixFold(s, "id ")
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
