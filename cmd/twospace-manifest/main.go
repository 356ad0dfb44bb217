package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/r9s-ai/twospace-lsp/internal/indent"
)

type manifest struct {
	Contributes contributes `json:"contributes"`
}

type contributes struct {
	Commands      []commandEntry `json:"commands"`
	Keybindings   []keybinding   `json:"keybindings"`
	Configuration configuration  `json:"configuration"`
}

type commandEntry struct {
	Command  string `json:"command"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

type keybinding struct {
	Command string `json:"command"`
	Key     string `json:"key"`
	Mac     string `json:"mac"`
	When    string `json:"when"`
}

type configuration struct {
	Title      string                  `json:"title"`
	Properties map[string]propertySpec `json:"properties"`
}

type propertySpec struct {
	Type        string   `json:"type"`
	Default     any      `json:"default"`
	Minimum     *int     `json:"minimum,omitempty"`
	Maximum     *int     `json:"maximum,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Description string   `json:"description"`
}

var output = flag.String("output", "vscode/package.contributes.json", "output manifest file path")

var keys = map[string][2]string{
	indent.CommandIncrease: {"ctrl+]", "cmd+]"},
	indent.CommandDecrease: {"ctrl+[", "cmd+["},
}

func main() {
	flag.Parse()

	b, err := encodeManifest(buildManifest())
	if err != nil {
		fatalf("marshal manifest: %v", err)
	}

	outPath := *output
	if !filepath.IsAbs(outPath) {
		wd, err := os.Getwd()
		if err != nil {
			fatalf("getwd: %v", err)
		}
		outPath = filepath.Join(wd, outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		fatalf("mkdir output dir: %v", err)
	}
	if err := os.WriteFile(outPath, b, 0o644); err != nil {
		fatalf("write manifest: %v", err)
	}
}

func buildManifest() manifest {
	var c contributes
	for _, cmd := range indent.Commands() {
		id := "twospace." + cmd.ID
		c.Commands = append(c.Commands, commandEntry{Command: id, Title: cmd.Name, Category: "Two Space"})
		if k, ok := keys[cmd.ID]; ok {
			c.Keybindings = append(c.Keybindings, keybinding{Command: id, Key: k[0], Mac: k[1], When: "editorTextFocus"})
		}
	}

	minLevel, maxLevel := indent.MinIndentLevel, indent.MaxIndentLevelLimit
	c.Configuration = configuration{
		Title: "Two Space",
		Properties: map[string]propertySpec{
			"twospace.maxIndentLevel": {
				Type:        "integer",
				Default:     indent.DefaultMaxIndentLevel,
				Minimum:     &minLevel,
				Maximum:     &maxLevel,
				Description: fmt.Sprintf("Maximum number of indent levels allowed (default: %d)", indent.DefaultMaxIndentLevel),
			},
			"twospace.columnShift": {
				Type:        "string",
				Default:     indent.ShiftAll.String(),
				Enum:        []string{indent.ShiftAll.String(), indent.ShiftChanged.String()},
				Description: "Shift cursor columns on every selected line, or only on lines whose indentation changed",
			},
		},
	}
	return manifest{Contributes: c}
}

func encodeManifest(m manifest) ([]byte, error) {
	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

func fatalf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(os.Stderr, "twospace-manifest: "+format+"\n", args...)
	os.Exit(1)
}
