// Package indent shifts the leading spaces of selected lines by a fixed
// two-space unit. Every operation is a pure function of the document lines,
// the selections and the settings; the caller owns the document.
package indent

import (
	"fmt"
	"strings"
)

// Unit is the prefix one indent level adds or removes.
const Unit = "  "

const (
	DefaultMaxIndentLevel = 10
	MinIndentLevel        = 1
	MaxIndentLevelLimit   = 20
)

// Position is a zero-based line/column pair inside a document.
type Position struct {
	Line int `json:"line"`
	Ch   int `json:"ch"`
}

// Selection is a cursor range. Head may come before or after Anchor.
type Selection struct {
	Head   Position `json:"head"`
	Anchor Position `json:"anchor"`
}

// LineRange returns the inclusive span of lines the selection touches.
func (s Selection) LineRange() (start, end int) {
	if s.Head.Line <= s.Anchor.Line {
		return s.Head.Line, s.Anchor.Line
	}
	return s.Anchor.Line, s.Head.Line
}

// ColumnShift controls which selection columns move after an adjustment.
type ColumnShift int

const (
	// ShiftAll moves every head and anchor column by the unit width, whether
	// or not its line was rewritten.
	ShiftAll ColumnShift = iota
	// ShiftChanged moves only positions sitting on a rewritten line.
	ShiftChanged
)

func (c ColumnShift) String() string {
	switch c {
	case ShiftAll:
		return "all"
	case ShiftChanged:
		return "changed"
	default:
		return fmt.Sprintf("ColumnShift(%d)", int(c))
	}
}

// ParseColumnShift maps "all" or "changed" to a ColumnShift. An empty string
// selects ShiftAll.
func ParseColumnShift(s string) (ColumnShift, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return ShiftAll, nil
	case "changed":
		return ShiftChanged, nil
	default:
		return ShiftAll, fmt.Errorf("unknown column shift %q (want all or changed)", s)
	}
}

// Settings is the configuration read by every operation.
type Settings struct {
	MaxIndentLevel int
	ColumnShift    ColumnShift
}

func DefaultSettings() Settings {
	return Settings{
		MaxIndentLevel: DefaultMaxIndentLevel,
		ColumnShift:    ShiftAll,
	}
}

// maxLevel falls back to the default for an unset (zero) value.
func (s Settings) maxLevel() int {
	if s.MaxIndentLevel <= 0 {
		return DefaultMaxIndentLevel
	}
	return s.MaxIndentLevel
}

// Notice is a non-fatal condition surfaced to the user after an operation.
type Notice int

const (
	NoticeNone Notice = iota
	NoticeCapReached
	NoticeNothingToDecrease
)

// Message renders the notice text shown by the host.
func (n Notice) Message(s Settings) string {
	switch n {
	case NoticeCapReached:
		return fmt.Sprintf("Maximum indent level (%d) reached", s.maxLevel())
	case NoticeNothingToDecrease:
		return "No indentation to decrease"
	default:
		return ""
	}
}

// Result is the full replacement state produced by Increase or Decrease.
type Result struct {
	Lines      []string
	Selections []Selection
	// Changed lists the rewritten line indices in ascending order.
	Changed []int
	Notice  Notice
}

// Modified reports whether any line was rewritten.
func (r Result) Modified() bool {
	return len(r.Changed) > 0
}

// SplitLines splits a document snapshot on "\n". The empty document is one
// empty line.
func SplitLines(text string) []string {
	return strings.Split(text, "\n")
}

// JoinLines is the inverse of SplitLines.
func JoinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
