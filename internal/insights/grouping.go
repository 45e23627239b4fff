// Package insights compares the progress reports of several engines: it
// groups principal lines by their leading move and builds the per-depth
// breakdown table.
package insights

import (
	"slices"

	"github.com/Iron-Ham/consortium/internal/session"
	"github.com/Iron-Ham/consortium/internal/uci"
)

// NoGroup is the group of a row whose principal line is empty.
const NoGroup = -1

// Row is one engine's report in a synchronized row block.
type Row struct {
	EngineID int
	Line     uci.Line
}

// Grouping is the comparison result for one row.
type Grouping struct {
	// Group is the permanent group index of the row's leading move, or
	// NoGroup.
	Group int
	// Overlap is the longest prefix this row's principal line shares with
	// any other line in its group.
	Overlap int
}

type pvGroup struct {
	lead    string
	members []int // indices into rows
}

// GroupPrincipalLines groups rows by the leading move of their principal
// line. Larger groups are assigned indices first; equal-sized groups keep
// the order in which their lead was first seen in rows. Leads that already
// have an index in idx keep it. The result is parallel to rows.
func GroupPrincipalLines(idx *session.GroupIndex, rows []Row) []Grouping {
	out := make([]Grouping, len(rows))

	var groups []*pvGroup
	byLead := make(map[string]*pvGroup)
	for i, r := range rows {
		lead := r.Line.LeadMove()
		if lead == "" {
			out[i] = Grouping{Group: NoGroup}
			continue
		}
		g, ok := byLead[lead]
		if !ok {
			g = &pvGroup{lead: lead}
			byLead[lead] = g
			groups = append(groups, g)
		}
		g.members = append(g.members, i)
	}

	slices.SortStableFunc(groups, func(a, b *pvGroup) int {
		return len(b.members) - len(a.members)
	})

	for _, g := range groups {
		index := idx.Assign(g.lead)
		for _, i := range g.members {
			out[i] = Grouping{Group: index, Overlap: overlapWithin(rows, g.members, i)}
		}
	}
	return out
}

func overlapWithin(rows []Row, members []int, self int) int {
	best := 0
	for _, other := range members {
		if other == self {
			continue
		}
		best = max(best, SharedPrefix(rows[self].Line.PV(), rows[other].Line.PV()))
	}
	return best
}

// SharedPrefix returns the number of leading moves a and b have in common.
func SharedPrefix(a, b []string) int {
	n := min(len(a), len(b))
	for i := range n {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}
