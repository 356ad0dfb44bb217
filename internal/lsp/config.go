package lsp

import (
	"encoding/json"

	"github.com/r9s-ai/twospace-lsp/internal/indent"
	"github.com/r9s-ai/twospace-lsp/internal/settings"
	"github.com/tidwall/gjson"
)

const (
	configMaxIndentLevel = "settings.twospace.maxIndentLevel"
	configColumnShift    = "settings.twospace.columnShift"
)

// handleDidChangeConfiguration applies client-side settings on top of the
// current ones. Invalid values are logged and the previous settings stay.
func (s *Server) handleDidChangeConfiguration(params json.RawMessage) error {
	if !gjson.ValidBytes(params) {
		s.logger.Printf("didChangeConfiguration: invalid params")
		return nil
	}
	next := s.Settings()
	changed := false

	if v := gjson.GetBytes(params, configMaxIndentLevel); v.Exists() {
		if v.Type != gjson.Number || v.Num != float64(int(v.Num)) {
			s.logger.Printf("didChangeConfiguration: maxIndentLevel must be an integer, got %s", v.Raw)
			return nil
		}
		next.MaxIndentLevel = int(v.Int())
		changed = true
	}
	if v := gjson.GetBytes(params, configColumnShift); v.Exists() {
		shift, err := indent.ParseColumnShift(v.String())
		if err != nil {
			s.logger.Printf("didChangeConfiguration: %v", err)
			return nil
		}
		next.ColumnShift = shift
		changed = true
	}
	if !changed {
		return nil
	}
	if err := settings.Validate(next); err != nil {
		s.logger.Printf("didChangeConfiguration: %v", err)
		return nil
	}
	return s.applySettings(next)
}
