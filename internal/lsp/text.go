package lsp

import "unicode/utf16"

// endPosition returns the position just past the last character of text,
// with the column counted in UTF-16 code units. "\n", "\r\n" and a lone "\r"
// each end a line.
func endPosition(text string) Position {
	line := 0
	col := 0
	for i, r := range text {
		switch r {
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				continue
			}
			line++
			col = 0
		case '\n':
			line++
			col = 0
		default:
			col += utf16.RuneLen(r)
		}
	}
	return Position{Line: line, Character: col}
}
