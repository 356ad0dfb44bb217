package lsp

import (
	"fmt"

	"github.com/r9s-ai/twospace-lsp/internal/indent"
)

const (
	severityInformation = 3
	diagnosticSource    = "twospace"
)

// collectDiagnostics flags lines nested deeper than the configured maximum.
// Such lines can still be decreased but never increased.
func collectDiagnostics(text string, settings indent.Settings) []Diagnostic {
	out := make([]Diagnostic, 0)
	maxLevel := settings.MaxIndentLevel
	if maxLevel <= 0 {
		maxLevel = indent.DefaultMaxIndentLevel
	}
	for i, line := range indent.SplitLines(text) {
		level := indent.Level(line)
		if level <= maxLevel {
			continue
		}
		out = append(out, Diagnostic{
			Range: Range{
				Start: Position{Line: i, Character: 0},
				End:   Position{Line: i, Character: level * len(indent.Unit)},
			},
			Severity: severityInformation,
			Source:   diagnosticSource,
			Message:  fmt.Sprintf("indent level %d exceeds maximum (%d)", level, maxLevel),
		})
	}
	return out
}
