package patch

import (
	"strings"
)

// Mode selects whether markers are kept or replaced.
type Mode string

const (
	// ModeExclusive keeps both marker lines and replaces what lies between.
	ModeExclusive Mode = "exclusive"
	// ModeInclusive replaces the markers too; the replacement is expected to
	// contain them again.
	ModeInclusive Mode = "inclusive"
)

// Region is one generator-owned span of a hand-maintained file.
type Region struct {
	Name        string
	Start       string
	End         string
	Mode        Mode
	Replacement string
}

// State is the progress of one region through the patcher.
type State int

const (
	StateSearchingStart State = iota
	StateSearchingEnd
	StateReplacing
	StateDone
	StateSkipped
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateSearchingStart:
		return "searching_start"
	case StateSearchingEnd:
		return "searching_end"
	case StateReplacing:
		return "replacing"
	case StateDone:
		return "done"
	case StateSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// RegionResult reports what happened to one region. Line numbers are 1-based
// and refer to the text the region was searched in; zero means not found.
type RegionResult struct {
	Name      string
	State     State
	Missing   string // marker that was not found, when skipped
	Changed   bool   // the region's content differed from the replacement
	StartLine int
	EndLine   int
	// KeptText is non-comment text that sits before the end marker on its
	// line. Exclusive mode keeps that line whole, so the text survives.
	KeptText string
}

// span is the byte range a region's replacement covers.
type span struct {
	from, to int
	sameLine bool // exclusive mode with both markers on one line
}

// applyRegion drives one region from SearchingStart to Done or Skipped.
func applyRegion(text string, r Region) (string, RegionResult) {
	res := RegionResult{Name: r.Name, State: StateSearchingStart}
	var start, end int

	for {
		switch res.State {
		case StateSearchingStart:
			start = strings.Index(text, r.Start)
			if r.Start == "" || start < 0 {
				res.Missing = r.Start
				res.State = StateSkipped
				continue
			}
			res.StartLine = lineOf(text, start)
			res.State = StateSearchingEnd

		case StateSearchingEnd:
			from := start + len(r.Start)
			idx := strings.Index(text[from:], r.End)
			if r.End == "" || idx < 0 {
				res.Missing = r.End
				res.State = StateSkipped
				continue
			}
			end = from + idx
			res.EndLine = lineOf(text, end)
			res.State = StateReplacing

		case StateReplacing:
			s := locateSpan(text, r, start, end)
			if r.Mode != ModeInclusive {
				res.KeptText = keptText(text, start+len(r.Start), end)
			}
			replacement := replacementText(r, s)
			if text[s.from:s.to] != replacement {
				res.Changed = true
				text = text[:s.from] + replacement + text[s.to:]
			}
			res.State = StateDone

		case StateDone, StateSkipped:
			return text, res
		}
	}
}

// locateSpan computes the replaced range for markers found at start and end.
//
// Exclusive: the whole lines between the start marker's line and the end
// marker's line; both marker lines are kept intact. Markers sharing one line
// get an insertion point right after the start marker. Inclusive: from the
// start marker through the end marker.
func locateSpan(text string, r Region, start, end int) span {
	if r.Mode == ModeInclusive {
		return span{from: start, to: end + len(r.End)}
	}

	afterStart := start + len(r.Start)
	nl := strings.IndexByte(text[afterStart:end], '\n')
	if nl < 0 {
		return span{from: afterStart, to: afterStart, sameLine: true}
	}
	return span{
		from: afterStart + nl + 1,
		to:   strings.LastIndexByte(text[:end], '\n') + 1,
	}
}

func replacementText(r Region, s span) string {
	if r.Mode == ModeInclusive {
		return r.Replacement
	}
	body := strings.TrimSuffix(r.Replacement, "\n") + "\n"
	if s.sameLine {
		return "\n" + body
	}
	return body
}

func lineOf(text string, offset int) int {
	return strings.Count(text[:offset], "\n") + 1
}

// commentChars covers the line-comment and block-comment tokens of the
// languages markers usually sit in.
const commentChars = " \t/*#-<!>"

// keptText returns what precedes the end marker on its line, ignoring
// indentation and comment tokens. afterStart bounds the search when both
// markers share a line.
func keptText(text string, afterStart, end int) string {
	lineStart := max(strings.LastIndexByte(text[:end], '\n')+1, afterStart)
	return strings.Trim(text[lineStart:end], commentChars)
}
