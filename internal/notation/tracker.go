// Package notation follows the board position the operator sets up with
// "position" commands so principal lines can be shown in standard
// algebraic notation instead of UCI coordinates.
package notation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/notnil/chess"
)

// Tracker holds the position of the most recent "position" command.
type Tracker struct {
	mu  sync.Mutex
	pos *chess.Position
}

// NewTracker returns a tracker at the standard starting position.
func NewTracker() *Tracker {
	return &Tracker{pos: chess.StartingPosition()}
}

// Apply updates the tracked position from an operator command. It returns
// true when the command was a "position" or "ucinewgame" command it could
// follow. A malformed position command leaves the tracker unchanged and
// returns an error.
func (t *Tracker) Apply(command string) (bool, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return false, nil
	}

	switch strings.ToLower(fields[0]) {
	case "ucinewgame":
		t.set(chess.StartingPosition())
		return true, nil
	case "position":
		pos, err := parsePosition(fields[1:])
		if err != nil {
			return false, err
		}
		t.set(pos)
		return true, nil
	default:
		return false, nil
	}
}

func (t *Tracker) set(pos *chess.Position) {
	t.mu.Lock()
	t.pos = pos
	t.mu.Unlock()
}

// Position returns the tracked position.
func (t *Tracker) Position() *chess.Position {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pos
}

// Names renders moves, a line played from the tracked position, in
// algebraic notation. Once a move is not legal the remaining moves are
// returned unchanged.
func (t *Tracker) Names(moves []string) []string {
	pos := t.Position()
	out := make([]string, len(moves))

	var enc chess.AlgebraicNotation
	for i, mv := range moves {
		if pos == nil {
			out[i] = mv
			continue
		}
		m := findMove(pos, mv)
		if m == nil {
			out[i] = mv
			pos = nil
			continue
		}
		out[i] = enc.Encode(pos, m)
		pos = pos.Update(m)
	}
	return out
}

func parsePosition(args []string) (*chess.Position, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("position: missing startpos or fen")
	}

	var pos *chess.Position
	var rest []string
	switch strings.ToLower(args[0]) {
	case "startpos":
		pos = chess.StartingPosition()
		rest = args[1:]
	case "fen":
		end := 1
		for end < len(args) && !strings.EqualFold(args[end], "moves") {
			end++
		}
		opt, err := chess.FEN(strings.Join(args[1:end], " "))
		if err != nil {
			return nil, fmt.Errorf("position: %w", err)
		}
		pos = chess.NewGame(opt).Position()
		rest = args[end:]
	default:
		return nil, fmt.Errorf("position: expected startpos or fen, got %q", args[0])
	}

	if len(rest) == 0 {
		return pos, nil
	}
	if !strings.EqualFold(rest[0], "moves") {
		return nil, fmt.Errorf("position: unexpected %q", rest[0])
	}
	for _, mv := range rest[1:] {
		m := findMove(pos, mv)
		if m == nil {
			return nil, fmt.Errorf("position: illegal move %q", mv)
		}
		pos = pos.Update(m)
	}
	return pos, nil
}

// findMove returns the legal move in pos written as mv in UCI coordinates.
func findMove(pos *chess.Position, mv string) *chess.Move {
	mv = strings.ToLower(mv)
	for _, m := range pos.ValidMoves() {
		if m.String() == mv {
			return m
		}
	}
	return nil
}
