package lsp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/r9s-ai/twospace-lsp/internal/indent"
)

const commandPrefix = "twospace."

type executeCommandParams struct {
	Command   string            `json:"command"`
	Arguments []json.RawMessage `json:"arguments,omitempty"`
}

type commandArgs struct {
	URI        string      `json:"uri"`
	Selections []Selection `json:"selections"`
}

// Selection mirrors the LSP Selection shape (anchor is where the user
// started, active/head is where the cursor sits).
type Selection struct {
	Anchor Position `json:"anchor"`
	Head   Position `json:"head"`
}

type commandResult struct {
	Selections []Selection `json:"selections"`
	Changed    []int       `json:"changedLines"`
	Notice     string      `json:"notice,omitempty"`
}

type textEdit struct {
	Range   Range  `json:"range"`
	NewText string `json:"newText"`
}

type workspaceEdit struct {
	Changes map[string][]textEdit `json:"changes"`
}

type applyWorkspaceEditParams struct {
	Label string        `json:"label,omitempty"`
	Edit  workspaceEdit `json:"edit"`
}

type applyWorkspaceEditResult struct {
	Applied       bool   `json:"applied"`
	FailureReason string `json:"failureReason,omitempty"`
}

func commandNames() []string {
	cmds := indent.Commands()
	out := make([]string, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, commandPrefix+c.ID)
	}
	return out
}

func lookupCommand(name string) (indent.Command, bool) {
	id, ok := strings.CutPrefix(name, commandPrefix)
	if !ok {
		return indent.Command{}, false
	}
	return indent.LookupCommand(id)
}

func (s *Server) handleExecuteCommand(id *json.RawMessage, params json.RawMessage) error {
	var p executeCommandParams
	if err := json.Unmarshal(params, &p); err != nil {
		return s.replyError(id, codeInvalidParams, "invalid params for executeCommand")
	}
	cmd, ok := lookupCommand(p.Command)
	if !ok {
		return s.replyError(id, codeMethodNotFound, fmt.Sprintf("unknown command %q", p.Command))
	}
	if len(p.Arguments) != 1 {
		return s.replyError(id, codeInvalidParams, cmd.ID+" expects one argument")
	}
	var args commandArgs
	if err := json.Unmarshal(p.Arguments[0], &args); err != nil {
		return s.replyError(id, codeInvalidParams, "invalid arguments for "+cmd.ID)
	}
	if _, ok := s.docs[args.URI]; !ok {
		return s.replyError(id, codeInvalidParams, fmt.Sprintf("document %q is not open", args.URI))
	}

	h := &docHost{srv: s, uri: args.URI, label: cmd.Name, selections: toIndentSelections(args.Selections)}
	res := cmd.Run(s.adjuster, h)
	if h.err != nil {
		err := fmt.Errorf("%s %s: %w", cmd.ID, args.URI, h.err)
		return errors.Join(err, s.replyError(id, codeInternalError, err.Error()))
	}
	s.logger.Printf("%s uri=%s selections=%d changed=%d", cmd.ID, args.URI, len(args.Selections), len(res.Changed))

	if err := s.publishDiagnostics(args.URI); err != nil {
		return err
	}
	return s.reply(id, commandResult{
		Selections: fromIndentSelections(h.written),
		Changed:    nonNil(res.Changed),
		Notice:     res.Notice.Message(s.Settings()),
	})
}

// docHost exposes one open document to the adjuster. Line writes become a
// workspace/applyEdit request, notices become window/showMessage and the
// rewritten selections are handed back in the command result.
type docHost struct {
	srv        *Server
	uri        string
	label      string
	selections []indent.Selection
	written    []indent.Selection
	err        error
}

func (h *docHost) ReadLines() []string {
	return indent.SplitLines(h.srv.docs[h.uri])
}

func (h *docHost) WriteLines(lines []string) {
	old := h.srv.docs[h.uri]
	text := indent.JoinLines(lines)
	if text == old {
		return
	}
	h.srv.docs[h.uri] = text
	params := applyWorkspaceEditParams{
		Label: h.label,
		Edit: workspaceEdit{Changes: map[string][]textEdit{
			h.uri: {{
				Range:   Range{Start: Position{}, End: endPosition(old)},
				NewText: text,
			}},
		}},
	}
	id := h.srv.newID()
	h.srv.pending[id] = pendingEdit{label: h.label, uri: h.uri, oldText: old}
	if err := h.srv.request(id, "workspace/applyEdit", params); err != nil {
		delete(h.srv.pending, id)
		h.srv.docs[h.uri] = old
		h.err = errors.Join(h.err, err)
	}
}

func (h *docHost) ReadSelections() []indent.Selection {
	return h.selections
}

func (h *docHost) WriteSelections(selections []indent.Selection) {
	h.written = selections
}

func (h *docHost) Notify(message string) {
	h.err = errors.Join(h.err, h.srv.showWarning(message))
}

func toIndentSelections(in []Selection) []indent.Selection {
	out := make([]indent.Selection, 0, len(in))
	for _, sel := range in {
		out = append(out, indent.Selection{
			Head:   indent.Position{Line: sel.Head.Line, Ch: sel.Head.Character},
			Anchor: indent.Position{Line: sel.Anchor.Line, Ch: sel.Anchor.Character},
		})
	}
	return out
}

func fromIndentSelections(in []indent.Selection) []Selection {
	out := make([]Selection, 0, len(in))
	for _, sel := range in {
		out = append(out, Selection{
			Head:   Position{Line: sel.Head.Line, Character: sel.Head.Ch},
			Anchor: Position{Line: sel.Anchor.Line, Character: sel.Anchor.Ch},
		})
	}
	return out
}

func nonNil(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}
