package indent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func cursor(line, ch int) Selection {
	return Selection{Head: Position{Line: line, Ch: ch}, Anchor: Position{Line: line, Ch: ch}}
}

func span(anchorLine, anchorCh, headLine, headCh int) Selection {
	return Selection{
		Head:   Position{Line: headLine, Ch: headCh},
		Anchor: Position{Line: anchorLine, Ch: anchorCh},
	}
}

func TestLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		"":             0,
		" ":            0,
		"  ":           1,
		"   x":         1,
		"    x":        2,
		"\t  x":        0,
		"  \t  x":      1,
		"hello  world": 0,
	}
	for line, want := range cases {
		require.Equal(t, want, Level(line), "line %q", line)
	}
	require.Equal(t, 20, Level(strings.Repeat(" ", 41)+"x"))
}

func TestLevelMatchesLeadingSpaceCount(t *testing.T) {
	t.Parallel()

	for n := 0; n < 30; n++ {
		line := strings.Repeat(" ", n) + "text"
		require.Equal(t, n/2, Level(line))
	}
}

func TestAffectedLinesDeduplicatesAndSorts(t *testing.T) {
	t.Parallel()

	sels := []Selection{
		span(5, 0, 3, 0),
		span(1, 0, 4, 2),
		cursor(4, 1),
		cursor(0, 0),
	}
	require.Equal(t, []int{0, 1, 2, 3, 4, 5}, AffectedLines(sels, 10))
}

func TestAffectedLinesDropsOutOfRange(t *testing.T) {
	t.Parallel()

	require.Equal(t, []int{1, 2}, AffectedLines([]Selection{span(1, 0, 7, 0)}, 3))
	require.Empty(t, AffectedLines([]Selection{cursor(3, 0)}, 3))
	require.Empty(t, AffectedLines([]Selection{cursor(0, 0)}, 0))
}

func TestIncreaseScenarios(t *testing.T) {
	t.Parallel()

	res := Increase([]string{"Hello world"}, []Selection{cursor(0, 0)}, DefaultSettings())
	require.Equal(t, []string{"  Hello world"}, res.Lines)
	require.Equal(t, NoticeNone, res.Notice)
	require.Equal(t, []int{0}, res.Changed)

	res = Increase([]string{""}, []Selection{cursor(0, 0)}, DefaultSettings())
	require.Equal(t, []string{"  "}, res.Lines)
}

func TestDecreaseScenarios(t *testing.T) {
	t.Parallel()

	res := Decrease([]string{"  Hello world"}, []Selection{cursor(0, 2)}, DefaultSettings())
	require.Equal(t, []string{"Hello world"}, res.Lines)
	require.Equal(t, NoticeNone, res.Notice)

	res = Decrease([]string{""}, []Selection{cursor(0, 0)}, DefaultSettings())
	require.Equal(t, []string{""}, res.Lines)
	require.Equal(t, NoticeNothingToDecrease, res.Notice)
	require.False(t, res.Modified())
}

func TestDecreaseLeavesLinesWithoutUnit(t *testing.T) {
	t.Parallel()

	lines := []string{" one", "\t  two", "three", "    four"}
	res := Decrease(lines, []Selection{span(0, 0, 3, 0)}, DefaultSettings())
	require.Equal(t, []string{" one", "\t  two", "three", "  four"}, res.Lines)
	require.Equal(t, []int{3}, res.Changed)
	require.Equal(t, NoticeNone, res.Notice)
}

func TestIncreaseCapReached(t *testing.T) {
	t.Parallel()

	settings := Settings{MaxIndentLevel: 1}
	res := Increase([]string{"  item"}, []Selection{cursor(0, 2)}, settings)
	require.Equal(t, []string{"  item"}, res.Lines)
	require.Equal(t, NoticeCapReached, res.Notice)
	require.Equal(t, "Maximum indent level (1) reached", res.Notice.Message(settings))
}

func TestIncreaseCapDoesNotAbortOtherLines(t *testing.T) {
	t.Parallel()

	settings := Settings{MaxIndentLevel: 2}
	lines := []string{"a", "    b", "  c", "     d"}
	res := Increase(lines, []Selection{span(0, 0, 3, 0)}, settings)
	require.Equal(t, []string{"  a", "    b", "    c", "     d"}, res.Lines)
	require.Equal(t, []int{0, 2}, res.Changed)
	require.Equal(t, NoticeCapReached, res.Notice)
}

func TestOverlappingSelectionsTouchEachLineOnce(t *testing.T) {
	t.Parallel()

	lines := []string{"a", "b", "c", "d"}
	sels := []Selection{span(0, 0, 2, 0), span(1, 0, 3, 0), cursor(2, 0)}
	res := Increase(lines, sels, DefaultSettings())
	require.Equal(t, []string{"  a", "  b", "  c", "  d"}, res.Lines)

	res = Decrease([]string{"    a", "    b", "    c"}, []Selection{span(0, 0, 2, 0), span(2, 0, 0, 0)}, DefaultSettings())
	require.Equal(t, []string{"  a", "  b", "  c"}, res.Lines)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	lines := []string{"root", "  child", "    leaf", "", "\ttabbed"}
	sels := []Selection{span(0, 0, 4, 0)}
	up := Increase(lines, sels, DefaultSettings())
	down := Decrease(up.Lines, up.Selections, DefaultSettings())
	require.Equal(t, lines, down.Lines)
	require.Equal(t, sels, down.Selections)
}

func TestInputsAreNotMutated(t *testing.T) {
	t.Parallel()

	lines := []string{"a", "  b"}
	sels := []Selection{span(0, 1, 1, 3)}
	_ = Increase(lines, sels, DefaultSettings())
	_ = Decrease(lines, sels, DefaultSettings())
	require.Equal(t, []string{"a", "  b"}, lines)
	require.Equal(t, []Selection{span(0, 1, 1, 3)}, sels)
}

func TestNoSelectionsIsNoop(t *testing.T) {
	t.Parallel()

	res := Increase([]string{"a"}, nil, DefaultSettings())
	require.Equal(t, []string{"a"}, res.Lines)
	require.Equal(t, NoticeNone, res.Notice)

	res = Decrease([]string{"a"}, nil, DefaultSettings())
	require.Equal(t, NoticeNone, res.Notice)
	require.False(t, res.Modified())
}

func TestColumnsShiftUnconditionally(t *testing.T) {
	t.Parallel()

	settings := Settings{MaxIndentLevel: 1}
	lines := []string{"a", "  capped"}
	sels := []Selection{cursor(0, 1), span(1, 0, 1, 4)}
	res := Increase(lines, sels, settings)
	require.Equal(t, []Selection{cursor(0, 3), span(1, 2, 1, 6)}, res.Selections)

	res = Decrease([]string{"x", "  y"}, []Selection{cursor(0, 1), span(1, 3, 1, 0)}, settings)
	require.Equal(t, []Selection{cursor(0, 0), span(1, 1, 1, 0)}, res.Selections)
}

func TestColumnsShiftChangedOnly(t *testing.T) {
	t.Parallel()

	settings := Settings{MaxIndentLevel: 1, ColumnShift: ShiftChanged}
	lines := []string{"a", "  capped"}
	sels := []Selection{span(0, 1, 1, 4)}
	res := Increase(lines, sels, settings)
	require.Equal(t, []Selection{span(0, 3, 1, 4)}, res.Selections)

	res = Decrease([]string{"x", "    y"}, []Selection{span(0, 1, 1, 5)}, settings)
	require.Equal(t, []Selection{span(0, 1, 1, 3)}, res.Selections)
}

func TestZeroSettingsUseDefaultMax(t *testing.T) {
	t.Parallel()

	line := strings.Repeat("  ", 9) + "x"
	res := Increase([]string{line}, []Selection{cursor(0, 0)}, Settings{})
	require.Equal(t, NoticeNone, res.Notice)

	res = Increase(res.Lines, []Selection{cursor(0, 0)}, Settings{})
	require.Equal(t, NoticeCapReached, res.Notice)
	require.Equal(t, "Maximum indent level (10) reached", res.Notice.Message(Settings{}))
}

func TestParseColumnShift(t *testing.T) {
	t.Parallel()

	got, err := ParseColumnShift("")
	require.NoError(t, err)
	require.Equal(t, ShiftAll, got)

	got, err = ParseColumnShift(" Changed ")
	require.NoError(t, err)
	require.Equal(t, ShiftChanged, got)
	require.Equal(t, "changed", got.String())

	_, err = ParseColumnShift("some")
	require.ErrorContains(t, err, "unknown column shift")
}

func TestSplitJoinLines(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{""}, SplitLines(""))
	require.Equal(t, []string{"a", "b", ""}, SplitLines("a\nb\n"))
	require.Equal(t, "a\nb\n", JoinLines(SplitLines("a\nb\n")))
}
