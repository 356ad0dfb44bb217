package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/r9s-ai/twospace-lsp/internal/indent"
	"github.com/r9s-ai/twospace-lsp/internal/settings"
	"github.com/spf13/cobra"
)

type adjustOptions struct {
	lines    []string
	maxLevel int
	write    bool
	diff     bool
}

func newAdjustCmd(opts *Options, commandID, use string) *cobra.Command {
	command, _ := indent.LookupCommand(commandID)
	adjustOpts := adjustOptions{}
	cmd := &cobra.Command{
		Use:   use + " [file|-]",
		Short: command.Name + " of the selected lines",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("%s accepts at most one file path", use)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = strings.TrimSpace(args[0])
				if path == "" {
					path = "-"
				}
			}
			if adjustOpts.write && adjustOpts.diff {
				return errors.New("--write and --diff are mutually exclusive")
			}

			store, err := openStore(opts.ConfigPath)
			if err != nil {
				return err
			}
			cfg := store.Settings()
			if cmd.Flags().Changed("max-level") {
				cfg.MaxIndentLevel = adjustOpts.maxLevel
				if err := settings.Validate(cfg); err != nil {
					return fmt.Errorf("--max-level: %w", err)
				}
			}

			src, err := readAdjustSource(path, opts.Stdin)
			if err != nil {
				return err
			}
			text, trailingNewline := strings.CutSuffix(string(src), "\n")
			lines := indent.SplitLines(text)
			selections, err := parseLineRanges(adjustOpts.lines, len(lines))
			if err != nil {
				return err
			}

			h := &streamHost{lines: lines, selections: selections, notices: newNotifier(opts.Stderr)}
			command.Run(indent.NewAdjuster(func() indent.Settings { return cfg }), h)

			adjusted := indent.JoinLines(h.lines)
			if trailingNewline {
				adjusted += "\n"
			}
			switch {
			case adjustOpts.diff:
				return writeDiff(opts.Stdout, path, string(src), adjusted)
			case adjustOpts.write:
				return writeAdjustedOutput(path, src, adjusted)
			default:
				_, err = io.WriteString(opts.Stdout, adjusted)
				return err
			}
		},
	}

	fs := cmd.Flags()
	fs.StringArrayVarP(&adjustOpts.lines, "lines", "l", nil, "1-based line or range START-END to adjust (repeatable, default: all lines)")
	fs.IntVar(&adjustOpts.maxLevel, "max-level", indent.DefaultMaxIndentLevel, "maximum indent level for this run (overrides the stored setting)")
	fs.BoolVarP(&adjustOpts.write, "write", "w", false, "write result back to file")
	fs.BoolVarP(&adjustOpts.diff, "diff", "d", false, "print a unified diff instead of the document")
	return cmd
}

// streamHost is the Host used by the CLI: a file or stdin snapshot with
// selections taken from --lines.
type streamHost struct {
	lines      []string
	selections []indent.Selection
	notices    *notifier
}

func (h *streamHost) ReadLines() []string { return h.lines }
func (h *streamHost) WriteLines(lines []string) { h.lines = lines }
func (h *streamHost) ReadSelections() []indent.Selection { return h.selections }
func (h *streamHost) WriteSelections(sel []indent.Selection) { h.selections = sel }
func (h *streamHost) Notify(message string) { h.notices.Warn(message) }

// parseLineRanges turns "3" or "3-7" (1-based, inclusive) into selections.
// No ranges selects the whole document.
func parseLineRanges(ranges []string, lineCount int) ([]indent.Selection, error) {
	if len(ranges) == 0 {
		return []indent.Selection{lineSelection(0, lineCount-1)}, nil
	}
	out := make([]indent.Selection, 0, len(ranges))
	for _, r := range ranges {
		startStr, endStr, isRange := strings.Cut(strings.TrimSpace(r), "-")
		start, err := strconv.Atoi(strings.TrimSpace(startStr))
		if err != nil || start < 1 {
			return nil, fmt.Errorf("invalid line range %q", r)
		}
		end := start
		if isRange {
			end, err = strconv.Atoi(strings.TrimSpace(endStr))
			if err != nil || end < start {
				return nil, fmt.Errorf("invalid line range %q", r)
			}
		}
		out = append(out, lineSelection(start-1, end-1))
	}
	return out, nil
}

func lineSelection(start, end int) indent.Selection {
	return indent.Selection{
		Anchor: indent.Position{Line: start},
		Head:   indent.Position{Line: end},
	}
}

func readAdjustSource(path string, in io.Reader) ([]byte, error) {
	if path == "-" {
		src, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return src, nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %q: %w", path, err)
	}
	return src, nil
}

func writeAdjustedOutput(path string, src []byte, adjusted string) error {
	if path == "-" {
		return errors.New("--write requires a file path")
	}
	if adjusted == string(src) {
		return nil
	}
	mode := os.FileMode(0o644)
	if st, statErr := os.Stat(path); statErr == nil {
		mode = st.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(adjusted), mode); err != nil {
		return fmt.Errorf("write file %q: %w", path, err)
	}
	return nil
}

func writeDiff(w io.Writer, path, before, after string) error {
	name := path
	if name == "-" {
		name = "stdin"
	}
	return difflib.WriteUnifiedDiff(w, difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: name,
		ToFile:   name,
		Context:  3,
	})
}
