package cli

import (
	"fmt"
	"io"
	"log"

	"github.com/r9s-ai/twospace-lsp/internal/indent"
	"github.com/r9s-ai/twospace-lsp/internal/lsp"
	"github.com/spf13/cobra"
)

type ServeRuntimeOptions struct {
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
	BuildInfo  BuildInfo
	ConfigPath string
}

type ServeRunner func(opts ServeRuntimeOptions) error

func newServeCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the indent language server over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServeWithOptions(*opts)
		},
	}
}

func runServeWithOptions(opts Options) error {
	return opts.ServeRunner(ServeRuntimeOptions{
		Stdin:      opts.Stdin,
		Stdout:     opts.Stdout,
		Stderr:     opts.Stderr,
		BuildInfo:  opts.BuildInfo,
		ConfigPath: opts.ConfigPath,
	})
}

func defaultServeRunner(opts ServeRuntimeOptions) error {
	lsp.ServerVersion = opts.BuildInfo.Version
	logger := log.New(opts.Stderr, "twospace-lsp: ", log.LstdFlags|log.Lshortfile)

	store, err := openStore(opts.ConfigPath)
	if err != nil {
		return err
	}
	srv := lsp.NewServer(opts.Stdin, opts.Stdout, logger)
	srv.SetSettings(store.Settings())
	err = store.Watch(func(s indent.Settings) {
		logger.Printf("settings reloaded: max_indent_level=%d column_shift=%s", s.MaxIndentLevel, s.ColumnShift)
		if err := srv.UpdateSettings(s); err != nil {
			logger.Printf("republish diagnostics: %v", err)
		}
	}, func(err error) {
		logger.Printf("%v", err)
	})
	if err != nil {
		logger.Printf("settings watch disabled: %v", err)
	}

	if err := srv.Run(); err != nil {
		return fmt.Errorf("server exited with error: %w", err)
	}
	return nil
}
