package logging

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Entry is one parsed log line.
type Entry struct {
	Time      time.Time
	Level     string
	Message   string
	SessionID string
	Engine    string
	Attrs     map[string]any
}

// Filter selects entries. Zero-valued fields match everything; set fields
// are combined with AND.
type Filter struct {
	// Level keeps entries at or above this level.
	Level     string
	Engine    string
	SessionID string
	// Contains matches a substring of the message.
	Contains string
}

var levelOrder = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ReadEntries parses {dir}/debug.log, skipping lines that are not JSON.
// Entries are sorted by time.
func ReadEntries(dir string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no log file in %s: %w", dir, err)
		}
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entry, err := parseEntry(line)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading log file: %w", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Time.Before(entries[j].Time)
	})
	return entries, nil
}

func parseEntry(line string) (Entry, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, fmt.Errorf("invalid JSON: %w", err)
	}

	e := Entry{Attrs: make(map[string]any)}
	for k, v := range raw {
		s, _ := v.(string)
		switch k {
		case "time":
			if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
				e.Time = t
			}
		case "level":
			e.Level = s
		case "msg":
			e.Message = s
		case "session_id":
			e.SessionID = s
		case "engine":
			e.Engine = s
		default:
			e.Attrs[k] = v
		}
	}
	return e, nil
}

// FilterEntries returns the entries matching f.
func FilterEntries(entries []Entry, f Filter) []Entry {
	if f == (Filter{}) {
		return entries
	}

	var out []Entry
	for _, e := range entries {
		if f.matches(e) {
			out = append(out, e)
		}
	}
	return out
}

func (f Filter) matches(e Entry) bool {
	if f.Level != "" {
		want, ok1 := levelOrder[ParseLevel(f.Level)]
		got, ok2 := levelOrder[e.Level]
		if ok1 && ok2 && got < want {
			return false
		}
	}
	if f.Engine != "" && e.Engine != f.Engine {
		return false
	}
	if f.SessionID != "" && e.SessionID != f.SessionID {
		return false
	}
	if f.Contains != "" && !strings.Contains(e.Message, f.Contains) {
		return false
	}
	return true
}

// Format renders an entry as one human-readable line:
//
//	[15:04:05.000] WARN  stockfish: handshake timed out {"command":"isready"}
func (e Entry) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %-5s ", e.Time.Format("15:04:05.000"), e.Level)
	if e.Engine != "" {
		b.WriteString(e.Engine)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if len(e.Attrs) > 0 {
		if attrs, err := json.Marshal(e.Attrs); err == nil {
			b.WriteByte(' ')
			b.Write(attrs)
		}
	}
	return b.String()
}
