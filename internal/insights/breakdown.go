package insights

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Iron-Ham/consortium/internal/session"
	"github.com/Iron-Ham/consortium/internal/uci"
)

// Field selects the value shown in each breakdown cell.
type Field string

// Breakdown fields.
const (
	FieldScore     Field = "score"
	FieldNodes     Field = "nodes"
	FieldSelDepth  Field = "seldepth"
	FieldBranching Field = "branching"
)

// Separator divides breakdown columns.
const Separator = ";"

const breakdownPrefix = "breakdown"

// IsBreakdownCommand reports whether an operator line asks for a breakdown.
func IsBreakdownCommand(line string) bool {
	line = strings.TrimSpace(line)
	return len(line) >= len(breakdownPrefix) &&
		strings.EqualFold(line[:len(breakdownPrefix)], breakdownPrefix)
}

// ParseField maps a field name to a Field. Unknown or empty names mean
// FieldScore.
func ParseField(name string) Field {
	switch f := Field(strings.ToLower(strings.TrimSpace(name))); f {
	case FieldNodes, FieldSelDepth, FieldBranching, FieldScore:
		return f
	default:
		return FieldScore
	}
}

// ParseBreakdown extracts the field from a "breakdown [field]" command.
func ParseBreakdown(command string) Field {
	command = strings.TrimSpace(command)
	if !IsBreakdownCommand(command) {
		return FieldScore
	}
	return ParseField(command[len(breakdownPrefix):])
}

// Breakdown renders the per-depth table for the engines in s that are
// still active or reported this epoch. The first line is the header, each
// following line is one depth from 1 to the deepest report, and the table
// ends with an empty line. A cell is empty when the engine has no report at
// that depth.
func Breakdown(s *session.Session, field Field) []string {
	var members []*session.EngineState
	for _, e := range s.Members() {
		if e.Active() || len(e.Lines()) > 0 {
			members = append(members, e)
		}
	}

	header := make([]string, 0, len(members)+1)
	header = append(header, "depth")
	for _, e := range members {
		header = append(header, e.Name())
	}

	maxDepth := s.MaxDepth()
	table := make([]string, 0, maxDepth+2)
	table = append(table, strings.Join(header, Separator))

	for depth := 1; depth <= maxDepth; depth++ {
		cells := make([]string, 0, len(members)+1)
		cells = append(cells, strconv.Itoa(depth))
		for _, e := range members {
			cells = append(cells, cell(e, depth, field))
		}
		table = append(table, strings.Join(cells, Separator))
	}
	return append(table, "")
}

func cell(e *session.EngineState, depth int, field Field) string {
	l, ok := e.FirstAt(depth)
	if !ok {
		return ""
	}

	switch field {
	case FieldNodes:
		return strconv.FormatUint(l.Nodes(), 10)
	case FieldSelDepth:
		return strconv.Itoa(l.SelDepth())
	case FieldBranching:
		prev, ok := e.FirstAt(depth - 1)
		if !ok || prev.Nodes() == 0 {
			return ""
		}
		return fmt.Sprintf("%.4f", float64(l.Nodes())/float64(prev.Nodes()))
	default:
		return scoreCell(l.Score())
	}
}

func scoreCell(s uci.Score) string {
	v, ok := s.Comparable()
	if !ok {
		return uci.ScoreUnknown
	}
	return strconv.Itoa(v)
}
