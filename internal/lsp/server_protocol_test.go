package lsp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"testing"

	"github.com/r9s-ai/twospace-lsp/internal/indent"
)

func TestRun_InitializeShutdownExit(t *testing.T) {
	var in bytes.Buffer
	writeLSPMessage(&in, map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params":  map[string]any{},
	})
	writeLSPMessage(&in, map[string]any{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "shutdown",
		"params":  map[string]any{},
	})
	writeLSPMessage(&in, map[string]any{
		"jsonrpc": "2.0",
		"method":  "exit",
		"params":  map[string]any{},
	})

	var out bytes.Buffer
	s := NewServer(&in, &out, log.New(io.Discard, "", 0))
	if err := s.Run(); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	msgs := readAllLSPMessages(t, out.Bytes())
	if len(msgs) < 2 {
		t.Fatalf("expected at least 2 responses, got %d", len(msgs))
	}
	if msgs[0]["id"] == nil || msgs[0]["result"] == nil {
		t.Fatalf("initialize response missing id/result: %+v", msgs[0])
	}
	if msgs[1]["id"] == nil || msgs[1]["result"] == nil {
		t.Fatalf("shutdown response missing id/result: %+v", msgs[1])
	}
}

func TestHandle_DidOpenPublishesDiagnostics(t *testing.T) {
	var out bytes.Buffer
	s := NewServer(stringsReader(""), &out, log.New(io.Discard, "", 0))
	s.SetSettings(indent.Settings{MaxIndentLevel: 1})

	params, err := json.Marshal(didOpenParams{
		TextDocument: textDocumentItem{
			URI:  "file:///tmp/a.md",
			Text: "- a\n  - b\n    - c",
		},
	})
	if err != nil {
		t.Fatalf("marshal didOpen params: %v", err)
	}
	if err := s.handle(inboundMessage{
		JSONRPC: "2.0",
		Method:  "textDocument/didOpen",
		Params:  params,
	}); err != nil {
		t.Fatalf("handle didOpen: %v", err)
	}

	msgs := readAllLSPMessages(t, out.Bytes())
	if len(msgs) == 0 {
		t.Fatalf("expected diagnostics notification")
	}
	if msgs[0]["method"] != "textDocument/publishDiagnostics" {
		t.Fatalf("expected publishDiagnostics, got: %+v", msgs[0])
	}
	diags := msgs[0]["params"].(map[string]any)["diagnostics"].([]any)
	if len(diags) != 1 {
		t.Fatalf("expected one diagnostic for the line past the maximum, got: %+v", diags)
	}
}

func TestHandle_InvalidExecuteCommandParamsReplyError(t *testing.T) {
	var out bytes.Buffer
	s := NewServer(stringsReader(""), &out, log.New(io.Discard, "", 0))

	rawID := json.RawMessage("7")
	if err := s.handle(inboundMessage{
		JSONRPC: "2.0",
		ID:      &rawID,
		Method:  "workspace/executeCommand",
		Params:  json.RawMessage(`{"oops":`), // malformed JSON
	}); err != nil {
		t.Fatalf("handle executeCommand should not return error: %v", err)
	}

	msgs := readAllLSPMessages(t, out.Bytes())
	if len(msgs) != 1 {
		t.Fatalf("expected one response, got %d", len(msgs))
	}
	if msgs[0]["error"] == nil {
		t.Fatalf("expected error response, got: %+v", msgs[0])
	}
}

func TestRun_IncreaseIndentRoundTrip(t *testing.T) {
	var in bytes.Buffer
	writeLSPMessage(&in, map[string]any{
		"jsonrpc": "2.0",
		"method":  "textDocument/didOpen",
		"params": map[string]any{
			"textDocument": map[string]any{"uri": "file:///tmp/n.md", "text": "Hello world"},
		},
	})
	writeLSPMessage(&in, map[string]any{
		"jsonrpc": "2.0",
		"id":      3,
		"method":  "workspace/executeCommand",
		"params": map[string]any{
			"command": "twospace.increase-indent",
			"arguments": []any{map[string]any{
				"uri": "file:///tmp/n.md",
				"selections": []any{map[string]any{
					"anchor": map[string]any{"line": 0, "character": 5},
					"head":   map[string]any{"line": 0, "character": 5},
				}},
			}},
		},
	})

	var out bytes.Buffer
	s := NewServer(&in, &out, log.New(io.Discard, "", 0))
	if err := s.Run(); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	msgs := readAllLSPMessages(t, out.Bytes())
	// didOpen diagnostics, applyEdit request, diagnostics, command reply
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d: %+v", len(msgs), msgs)
	}
	if msgs[1]["method"] != "workspace/applyEdit" || msgs[1]["id"] == nil {
		t.Fatalf("expected applyEdit request, got: %+v", msgs[1])
	}
	if got := s.docs["file:///tmp/n.md"]; got != "  Hello world" {
		t.Fatalf("unexpected document after increase: %q", got)
	}
	res, ok := msgs[3]["result"].(map[string]any)
	if !ok {
		t.Fatalf("expected command result, got: %+v", msgs[3])
	}
	sels := res["selections"].([]any)
	head := sels[0].(map[string]any)["head"].(map[string]any)
	if head["character"] != float64(7) {
		t.Fatalf("expected head column 7, got: %+v", head)
	}
	if len(s.pending) != 1 {
		t.Fatalf("expected applyEdit to be pending, got %d", len(s.pending))
	}
}

func writeLSPMessage(w *bytes.Buffer, payload any) {
	b, _ := json.Marshal(payload)
	_, _ = w.WriteString(fmt.Sprintf("Content-Length: %d\r\n\r\n", len(b)))
	_, _ = w.Write(b)
}

func readAllLSPMessages(t *testing.T, raw []byte) []map[string]any {
	t.Helper()
	r := bufio.NewReader(bytes.NewReader(raw))
	out := make([]map[string]any, 0, 4)
	for {
		msg, err := readMessage(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("readMessage: %v", err)
		}
		var obj map[string]any
		if err := json.Unmarshal(msg, &obj); err != nil {
			t.Fatalf("unmarshal LSP message: %v", err)
		}
		out = append(out, obj)
	}
	return out
}

func stringsReader(s string) *bytes.Reader { return bytes.NewReader([]byte(s)) }
