package lsp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/r9s-ai/twospace-lsp/internal/indent"
)

// ServerVersion is reported in the initialize response.
var ServerVersion = "dev"

type Server struct {
	in     *bufio.Reader
	out    io.Writer
	logger *log.Logger

	mu       sync.RWMutex
	settings indent.Settings
	adjuster *indent.Adjuster

	// state serializes message handling with UpdateSettings, which runs on
	// the settings watcher goroutine.
	state        sync.Mutex
	docs         map[string]string
	pending      map[string]pendingEdit
	newID        func() string
	shuttingDown bool
}

// pendingEdit is an applyEdit request the client has not answered yet.
// oldText is restored when the client rejects the edit.
type pendingEdit struct {
	label   string
	uri     string
	oldText string
}

func NewServer(in io.Reader, out io.Writer, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Server{
		in:       bufio.NewReader(in),
		out:      out,
		logger:   logger,
		settings: indent.DefaultSettings(),
		docs:     map[string]string{},
		pending:  map[string]pendingEdit{},
		newID:    uuid.NewString,
	}
	s.adjuster = indent.NewAdjuster(s.Settings)
	return s
}

// Settings returns the values the next command will run with.
func (s *Server) Settings() indent.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SetSettings replaces the settings. It is safe to call while Run is active.
func (s *Server) SetSettings(v indent.Settings) {
	s.mu.Lock()
	s.settings = v
	s.mu.Unlock()
}

// UpdateSettings replaces the settings and republishes diagnostics for every
// open document. It is safe to call while Run is active.
func (s *Server) UpdateSettings(v indent.Settings) error {
	s.state.Lock()
	defer s.state.Unlock()
	return s.applySettings(v)
}

func (s *Server) applySettings(v indent.Settings) error {
	s.SetSettings(v)
	for uri := range s.docs {
		if err := s.publishDiagnostics(uri); err != nil {
			return err
		}
	}
	return nil
}

type inboundMessage struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method,omitempty"`
	Params  json.RawMessage  `json:"params,omitempty"`
	Result  json.RawMessage  `json:"result,omitempty"`
	Error   *respError       `json:"error,omitempty"`
}

type responseMessage struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id,omitempty"`
	Result  interface{} `json:"result,omitempty"`
	Error   *respError  `json:"error,omitempty"`
}

type requestMessage struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      string      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

type respError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

type publishDiagnosticsParams struct {
	URI         string       `json:"uri"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

type initializeResult struct {
	Capabilities serverCapabilities `json:"capabilities"`
	ServerInfo   serverInfo         `json:"serverInfo"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type serverCapabilities struct {
	TextDocumentSync       int                     `json:"textDocumentSync"`
	ExecuteCommandProvider *executeCommandProvider `json:"executeCommandProvider,omitempty"`
}

type executeCommandProvider struct {
	Commands []string `json:"commands"`
}

type textDocumentIdentifier struct {
	URI string `json:"uri"`
}

type textDocumentItem struct {
	URI  string `json:"uri"`
	Text string `json:"text"`
}

type didOpenParams struct {
	TextDocument textDocumentItem `json:"textDocument"`
}

type didCloseParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
}

type versionedTextDocumentIdentifier struct {
	URI string `json:"uri"`
}

type textDocumentContentChangeEvent struct {
	Text string `json:"text"`
}

type didChangeParams struct {
	TextDocument   versionedTextDocumentIdentifier  `json:"textDocument"`
	ContentChanges []textDocumentContentChangeEvent `json:"contentChanges"`
}

type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

type Diagnostic struct {
	Range    Range  `json:"range"`
	Severity int    `json:"severity,omitempty"`
	Source   string `json:"source,omitempty"`
	Message  string `json:"message"`
}

type showMessageParams struct {
	Type    int    `json:"type"`
	Message string `json:"message"`
}

const messageTypeWarning = 2

func (s *Server) Run() error {
	for {
		raw, err := readMessage(s.in)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.logger.Printf("invalid JSON-RPC payload: %v", err)
			continue
		}

		s.state.Lock()
		if msg.Method == "" {
			err = s.handleResponse(msg)
		} else {
			err = s.handle(msg)
		}
		s.state.Unlock()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			s.logger.Printf("handle method=%s error: %v", msg.Method, err)
		}
	}
}

func (s *Server) handle(msg inboundMessage) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg.ID)
	case "initialized":
		return nil
	case "shutdown":
		s.shuttingDown = true
		return s.reply(msg.ID, map[string]any{})
	case "exit":
		if !s.shuttingDown {
			s.logger.Printf("exit without shutdown")
		}
		return io.EOF
	case "textDocument/didOpen":
		var p didOpenParams
		if err := json.Unmarshal(msg.Params, &p); err != nil {
			return err
		}
		s.docs[p.TextDocument.URI] = p.TextDocument.Text
		return s.publishDiagnostics(p.TextDocument.URI)
	case "textDocument/didChange":
		var p didChangeParams
		if err := json.Unmarshal(msg.Params, &p); err != nil {
			return err
		}
		if len(p.ContentChanges) == 0 {
			return nil
		}
		s.docs[p.TextDocument.URI] = p.ContentChanges[len(p.ContentChanges)-1].Text
		return s.publishDiagnostics(p.TextDocument.URI)
	case "textDocument/didClose":
		var p didCloseParams
		if err := json.Unmarshal(msg.Params, &p); err != nil {
			return err
		}
		delete(s.docs, p.TextDocument.URI)
		return s.notify("textDocument/publishDiagnostics", publishDiagnosticsParams{
			URI:         p.TextDocument.URI,
			Diagnostics: []Diagnostic{},
		})
	case "workspace/executeCommand":
		return s.handleExecuteCommand(msg.ID, msg.Params)
	case "workspace/didChangeConfiguration":
		return s.handleDidChangeConfiguration(msg.Params)
	default:
		if msg.ID != nil {
			return s.reply(msg.ID, nil)
		}
		return nil
	}
}

func (s *Server) handleInitialize(id *json.RawMessage) error {
	res := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: 1,
			ExecuteCommandProvider: &executeCommandProvider{
				Commands: commandNames(),
			},
		},
		ServerInfo: serverInfo{
			Name:    "twospace-lsp",
			Version: ServerVersion,
		},
	}
	return s.reply(id, res)
}

// handleResponse consumes the client's answers to our own requests. A
// rejected edit rolls the stored document back to what the client still has.
func (s *Server) handleResponse(msg inboundMessage) error {
	if msg.ID == nil {
		return nil
	}
	id := rawIDString(*msg.ID)
	edit, ok := s.pending[id]
	if !ok {
		return nil
	}
	delete(s.pending, id)

	if msg.Error != nil {
		s.logger.Printf("%s: client rejected edit: %s", edit.label, msg.Error.Message)
		return s.rollback(edit)
	}
	var res applyWorkspaceEditResult
	if err := json.Unmarshal(msg.Result, &res); err != nil {
		s.logger.Printf("%s: invalid applyEdit response: %v", edit.label, err)
		return s.rollback(edit)
	}
	if !res.Applied {
		s.logger.Printf("%s: edit not applied: %s", edit.label, res.FailureReason)
		return s.rollback(edit)
	}
	return nil
}

func (s *Server) rollback(edit pendingEdit) error {
	if _, ok := s.docs[edit.uri]; !ok {
		return nil
	}
	s.docs[edit.uri] = edit.oldText
	return s.publishDiagnostics(edit.uri)
}

func (s *Server) publishDiagnostics(uri string) error {
	text, ok := s.docs[uri]
	if !ok {
		return nil
	}
	params := publishDiagnosticsParams{
		URI:         uri,
		Diagnostics: collectDiagnostics(text, s.Settings()),
	}
	return s.notify("textDocument/publishDiagnostics", params)
}

func (s *Server) reply(id *json.RawMessage, result interface{}) error {
	if id == nil {
		return nil
	}
	var idVal interface{}
	if err := json.Unmarshal(*id, &idVal); err != nil {
		idVal = string(*id)
	}
	resp := responseMessage{
		JSONRPC: "2.0",
		ID:      idVal,
		Result:  result,
	}
	return writeMessage(s.out, resp)
}

func (s *Server) replyError(id *json.RawMessage, code int, msg string) error {
	if id == nil {
		return nil
	}
	var idVal interface{}
	if err := json.Unmarshal(*id, &idVal); err != nil {
		idVal = string(*id)
	}
	resp := responseMessage{
		JSONRPC: "2.0",
		ID:      idVal,
		Error: &respError{
			Code:    code,
			Message: msg,
		},
	}
	return writeMessage(s.out, resp)
}

func (s *Server) notify(method string, params interface{}) error {
	payload := map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
	}
	return writeMessage(s.out, payload)
}

// request sends a server-to-client request. The answer is matched in
// handleResponse by id.
func (s *Server) request(id, method string, params interface{}) error {
	return writeMessage(s.out, requestMessage{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	})
}

func (s *Server) showWarning(message string) error {
	return s.notify("window/showMessage", showMessageParams{
		Type:    messageTypeWarning,
		Message: message,
	})
}

func rawIDString(raw json.RawMessage) string {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return string(raw)
}

func readMessage(r *bufio.Reader) ([]byte, error) {
	contentLength := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if strings.HasPrefix(strings.ToLower(line), "content-length:") {
			v := strings.TrimSpace(line[len("content-length:"):])
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("invalid Content-Length %q: %w", v, err)
			}
			contentLength = n
		}
	}
	if contentLength < 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}
	buf := make([]byte, contentLength)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func writeMessage(w io.Writer, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(body))
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	_, err = io.Copy(w, bytes.NewReader(body))
	return err
}
