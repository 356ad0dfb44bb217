package indent

import (
	"slices"
	"strings"
)

// Level returns the number of whole indent units at the start of line.
// Only the space character counts; tabs end the prefix.
func Level(line string) int {
	n := 0
	for n < len(line) && line[n] == ' ' {
		n++
	}
	return n / 2
}

// AffectedLines returns every line index covered by at least one selection,
// once each, in ascending order. Indices outside [0, lineCount) are dropped.
func AffectedLines(selections []Selection, lineCount int) []int {
	seen := make(map[int]struct{})
	out := make([]int, 0, len(selections))
	for _, sel := range selections {
		start, end := sel.LineRange()
		if start < 0 {
			start = 0
		}
		if end > lineCount-1 {
			end = lineCount - 1
		}
		for i := start; i <= end; i++ {
			if _, ok := seen[i]; ok {
				continue
			}
			seen[i] = struct{}{}
			out = append(out, i)
		}
	}
	slices.Sort(out)
	return out
}

// Increase prepends Unit to every selected line whose level is below the
// configured maximum. Lines already at the maximum are left alone and the
// result carries NoticeCapReached; the remaining lines are still indented.
func Increase(lines []string, selections []Selection, settings Settings) Result {
	if len(selections) == 0 {
		return unchanged(lines, selections)
	}

	maxLevel := settings.maxLevel()
	out := slices.Clone(lines)
	res := Result{}
	for _, i := range AffectedLines(selections, len(out)) {
		if Level(out[i]) >= maxLevel {
			res.Notice = NoticeCapReached
			continue
		}
		out[i] = Unit + out[i]
		res.Changed = append(res.Changed, i)
	}
	res.Lines = out
	res.Selections = shiftSelections(selections, len(Unit), settings.ColumnShift, res.Changed)
	return res
}

// Decrease strips Unit from every selected line that starts with it. When no
// selected line had the prefix the result carries NoticeNothingToDecrease.
func Decrease(lines []string, selections []Selection, settings Settings) Result {
	if len(selections) == 0 {
		return unchanged(lines, selections)
	}

	out := slices.Clone(lines)
	res := Result{}
	for _, i := range AffectedLines(selections, len(out)) {
		if !strings.HasPrefix(out[i], Unit) {
			continue
		}
		out[i] = out[i][len(Unit):]
		res.Changed = append(res.Changed, i)
	}
	if len(res.Changed) == 0 {
		res.Notice = NoticeNothingToDecrease
	}
	res.Lines = out
	res.Selections = shiftSelections(selections, -len(Unit), settings.ColumnShift, res.Changed)
	return res
}

func unchanged(lines []string, selections []Selection) Result {
	return Result{
		Lines:      slices.Clone(lines),
		Selections: slices.Clone(selections),
	}
}

// shiftSelections moves columns by delta, never below zero. Under ShiftAll
// every position moves even if its line was capped or had nothing to strip.
func shiftSelections(selections []Selection, delta int, mode ColumnShift, changed []int) []Selection {
	rewritten := make(map[int]struct{}, len(changed))
	for _, i := range changed {
		rewritten[i] = struct{}{}
	}
	shift := func(p Position) Position {
		if mode == ShiftChanged {
			if _, ok := rewritten[p.Line]; !ok {
				return p
			}
		}
		p.Ch = max(0, p.Ch+delta)
		return p
	}

	out := make([]Selection, len(selections))
	for i, sel := range selections {
		out[i] = Selection{
			Head:   shift(sel.Head),
			Anchor: shift(sel.Anchor),
		}
	}
	return out
}
